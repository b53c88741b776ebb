package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rubiojr/fuelbot/internal/digest"
	"github.com/rubiojr/fuelbot/internal/fuel"
	"github.com/rubiojr/fuelbot/internal/geocode"
	"github.com/rubiojr/fuelbot/internal/translations"
	"github.com/rubiojr/fuelbot/pkg/telegram"
)

// WebhookPath is the path registered with Telegram by /tg-setup.
const WebhookPath = "/wh-tg/v2"

const (
	maxUpdateSize = 1 << 20
	nearCommand   = "/near"
)

// WebhookURL joins a public base URL with WebhookPath.
func WebhookURL(base string) string {
	return strings.TrimSuffix(base, "/") + WebhookPath
}

func (s *Server) fuelPrices(r *http.Request) (*Response, error) {
	res, err := s.agg.Lookup(r.Context(), fuel.DefaultQuery())
	if err != nil {
		return nil, err
	}

	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding result: %w", err)
	}
	return &Response{Status: http.StatusOK, ContentType: "application/json", Body: body}, nil
}

func (s *Server) webhook(r *http.Request) (*Response, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateSize))
	if err != nil {
		return nil, fmt.Errorf("error reading update: %w", err)
	}

	upd, err := telegram.ParseUpdate(body)
	if errors.Is(err, telegram.ErrUnsupportedUpdate) {
		s.log.Warn("Ignoring update", "error", err)
		return text("ok"), nil
	}
	if err != nil {
		return nil, err
	}

	msg := upd.Message
	tr := translations.GetTranslations(translations.LanguageFromCode(msg.From.LanguageCode, s.cfg.Lang))

	reply := tr.Help
	if loc := msg.Location; loc != nil {
		res, err := s.agg.Lookup(r.Context(), fuel.LocationQuery(loc.Latitude, loc.Longitude))
		if err != nil {
			return nil, err
		}
		reply = s.render(res, tr)
	} else if name, ok := nearPlace(msg.Text); ok && s.geo != nil {
		reply, err = s.near(r, name, tr)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.bot.SendMessage(r.Context(), msg.From.ID, telegram.ParseModeHTML, reply); err != nil {
		if rejected(err) {
			s.log.Warn("Reply rejected by Telegram", "chat", msg.From.ID, "error", err)
			return text("ok"), nil
		}
		return nil, fmt.Errorf("error sending reply to %d: %w", msg.From.ID, err)
	}
	return text("ok"), nil
}

// rejected reports whether Telegram refused a message for good, for example
// because the user blocked the bot. Redelivering the update cannot help.
func rejected(err error) bool {
	var apiErr *telegram.APIError
	if !errors.As(err, &apiErr) || apiErr.Err != nil {
		return false
	}
	return apiErr.ErrorCode == http.StatusBadRequest || apiErr.ErrorCode == http.StatusForbidden
}

// near answers "/near <place>" with the digest around the geocoded place.
func (s *Server) near(r *http.Request, name string, tr translations.Translations) (string, error) {
	place, err := s.geo.Lookup(name)
	if errors.Is(err, geocode.ErrNotFound) {
		return tr.PlaceNotFound, nil
	}
	if err != nil {
		return "", err
	}

	res, err := s.agg.Lookup(r.Context(), fuel.LocationQuery(place.Lat, place.Lng))
	if err != nil {
		return "", err
	}
	return s.render(res, tr), nil
}

// nearPlace extracts the place from "/near <place>" or "/near@bot <place>".
func nearPlace(msg string) (string, bool) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(msg), " ")
	cmd, _, _ = strings.Cut(cmd, "@")
	if cmd != nearCommand {
		return "", false
	}
	rest = strings.TrimSpace(rest)
	return rest, rest != ""
}

func (s *Server) setup(r *http.Request) (*Response, error) {
	me, err := s.bot.GetMe(r.Context())
	if err != nil {
		return nil, err
	}

	desc, err := s.bot.SetWebhook(r.Context(), WebhookURL(requestBase(r)))
	if err != nil {
		return nil, err
	}

	tr := translations.GetTranslations(s.cfg.Lang)
	return text(fmt.Sprintf("%s %s %s", tr.SetupComplete, me.Username, desc)), nil
}

func (s *Server) debugSend(r *http.Request) (*Response, error) {
	res, err := s.agg.Lookup(r.Context(), fuel.DefaultQuery())
	if err != nil {
		return nil, err
	}

	tr := translations.GetTranslations(s.cfg.Lang)
	if _, err := s.bot.SendMessage(r.Context(), s.cfg.DebugChatID, telegram.ParseModeHTML, s.render(res, tr)); err != nil {
		return nil, fmt.Errorf("error sending digest to %d: %w", s.cfg.DebugChatID, err)
	}
	return text("ok"), nil
}

func (s *Server) notFound(r *http.Request) (*Response, error) {
	return text(translations.GetTranslations(s.cfg.Lang).Fallback), nil
}

// render formats res, substituting the "no open stations" phrase for an
// empty digest since Telegram rejects empty messages.
func (s *Server) render(res *fuel.Result, tr translations.Translations) string {
	msg := digest.Format(res, fuel.DefaultFuelType, tr)
	if msg == "" {
		return tr.NoOpenStations
	}
	return msg
}

// requestBase reconstructs the public scheme and host of r.
func requestBase(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		scheme = "http"
		if r.TLS != nil {
			scheme = "https"
		}
	}
	return scheme + "://" + r.Host
}
