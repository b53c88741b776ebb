package server

import (
	"context"
	"fmt"

	"github.com/go-chi/httplog/v2"
	"github.com/rubiojr/fuelbot/internal/cache"
	"github.com/rubiojr/fuelbot/internal/config"
	"github.com/rubiojr/fuelbot/internal/fuel"
	"github.com/rubiojr/fuelbot/internal/geocode"
	"github.com/rubiojr/fuelbot/pkg/tankerkoenig"
	"github.com/rubiojr/fuelbot/pkg/telegram"
)

// Open builds a Server with the clients and cache store described by cfg.
// The returned function closes the cache store.
func Open(ctx context.Context, cfg config.Config, logger *httplog.Logger) (*Server, func() error, error) {
	if err := cfg.ValidateBot(); err != nil {
		return nil, nil, err
	}

	store, err := cache.Open(ctx, cfg.Config, logger.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening cache: %w", err)
	}

	var opts []fuel.Option
	if cfg.CollapseMisses {
		opts = append(opts, fuel.WithCollapsedMisses())
	}
	upstream := tankerkoenig.NewClient(cfg.TankerkoenigAPIKey, tankerkoenig.WithBaseURL(cfg.TankerkoenigURL))
	agg := fuel.New(upstream, store, logger.Logger, opts...)

	bot := telegram.NewClient(cfg.TelegramToken, telegram.WithBaseURL(cfg.TelegramURL))

	var srvOpts []Option
	if cfg.GeocodeServer != "" {
		srvOpts = append(srvOpts, WithGeocoder(geocode.New(cfg.GeocodeServer)))
	}

	return New(cfg, agg, bot, logger, srvOpts...), store.Close, nil
}
