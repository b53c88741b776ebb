package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rubiojr/fuelbot/internal/server"
	"github.com/urfave/cli/v2"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP endpoints and the Telegram webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address, overrides FUELBOT_ADDR",
			},
			&cli.StringFlag{
				Name:  "cache-backend",
				Usage: "Cache backend (memory, sqlite, redis, dynamodb), overrides FUELBOT_CACHE_BACKEND",
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if addr := c.String("addr"); addr != "" {
		cfg.Addr = addr
	}
	if backend := c.String("cache-backend"); backend != "" {
		cfg.Backend = backend
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newHTTPLogger(cfg)
	srv, closeStore, err := server.Open(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := srv.ListenAndServe(ctx); err != nil {
		return err
	}
	logger.Info("Server stopped")
	return nil
}
