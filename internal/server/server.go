// Package server exposes the fuel price lookup over HTTP and answers
// Telegram webhook updates.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httplog/v2"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rubiojr/fuelbot/internal/config"
	"github.com/rubiojr/fuelbot/internal/fuel"
	"github.com/rubiojr/fuelbot/internal/geocode"
	"github.com/rubiojr/fuelbot/pkg/tankerkoenig"
	"github.com/rubiojr/fuelbot/pkg/telegram"
)

// Aggregator answers station queries.
type Aggregator interface {
	Lookup(ctx context.Context, q tankerkoenig.Query) (*fuel.Result, error)
}

// Bot is the part of the Telegram client used by the handlers.
type Bot interface {
	SendMessage(ctx context.Context, chatID int64, parseMode, text string) (*telegram.Message, error)
	GetMe(ctx context.Context) (*telegram.User, error)
	SetWebhook(ctx context.Context, webhookURL string) (string, error)
}

// Geocoder resolves the place named in a /near command.
type Geocoder interface {
	Lookup(name string) (geocode.Place, error)
}

// Response is the outcome of a route handler.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// HandlerFunc handles one request. A returned error becomes a 500 response
// carrying the error text.
type HandlerFunc func(r *http.Request) (*Response, error)

type route struct {
	prefix  string
	handler http.Handler
}

type Server struct {
	cfg      config.Config
	agg      Aggregator
	bot      Bot
	geo      Geocoder
	httpLog  *httplog.Logger
	log      *slog.Logger
	routes   []route
	fallback http.Handler
}

type Option func(*Server)

// WithGeocoder enables the /near bot command.
func WithGeocoder(g Geocoder) Option {
	return func(s *Server) { s.geo = g }
}

func New(cfg config.Config, agg Aggregator, bot Bot, logger *httplog.Logger, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		agg:     agg,
		bot:     bot,
		httpLog: logger,
		log:     logger.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	fuelHandler := s.handle(s.fuelPrices)
	if cfg.RateLimitPerMinute > 0 {
		fuelHandler = httprate.LimitByIP(cfg.RateLimitPerMinute, time.Minute)(fuelHandler)
	}

	// Evaluated in order, the first matching prefix wins.
	s.routes = []route{
		{prefix: "/fuel", handler: fuelHandler},
		{prefix: "/wh-tg", handler: s.handle(s.webhook)},
		{prefix: "/tg-setup", handler: s.handle(s.setup)},
	}
	if cfg.DebugChatID != 0 {
		s.routes = append(s.routes, route{prefix: "/tg-test", handler: s.handle(s.debugSend)})
	}
	s.routes = append(s.routes, route{prefix: "/metrics", handler: promhttp.Handler()})

	for i := range s.routes {
		s.routes[i].handler = instrument(s.routes[i].prefix, s.routes[i].handler)
	}
	s.fallback = instrument("fallback", s.handle(s.notFound))

	return s
}

// Handler returns the HTTP handler with logging and recovery middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httplog.RequestLogger(s.httpLog))
	r.Use(middleware.Recoverer)

	r.Handle("/", http.HandlerFunc(s.dispatch))
	r.Handle("/*", http.HandlerFunc(s.dispatch))
	return r
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request) {
	for _, rt := range s.routes {
		if strings.HasPrefix(r.URL.Path, rt.prefix) {
			rt.handler.ServeHTTP(w, r)
			return
		}
	}
	s.fallback.ServeHTTP(w, r)
}

// handle adapts a HandlerFunc, converting any error into a 500 response.
func (s *Server) handle(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp, err := h(r)
		if err != nil {
			s.log.Error("Error handling request", "path", r.URL.Path, "error", err)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(err.Error()))
			return
		}

		if resp.ContentType != "" {
			w.Header().Set("Content-Type", resp.ContentType)
		}
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		w.Write(resp.Body)
	})
}

func text(body string) *Response {
	return &Response{Status: http.StatusOK, ContentType: "text/plain; charset=utf-8", Body: []byte(body)}
}

// ListenAndServe serves until ctx is cancelled and then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("Starting server", "addr", s.cfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
