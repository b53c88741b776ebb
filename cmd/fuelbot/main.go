package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/httplog/v2"
	"github.com/rubiojr/fuelbot/internal/config"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "fuelbot",
		Usage: "Fuel prices from Tankerkönig over HTTP and Telegram",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Environment file to load",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Print debug logs",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			lookupCommand(),
			setWebhookCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return config.Config{}, err
	}
	if c.Bool("debug") {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

func newHTTPLogger(cfg config.Config) *httplog.Logger {
	return httplog.NewLogger("fuelbot", httplog.Options{
		JSON:            false,
		LogLevel:        cfg.Level(),
		Concise:         true,
		QuietDownPeriod: 10 * time.Second,
	})
}

// cliLogger discards logs unless --debug is set.
func cliLogger(c *cli.Context) *slog.Logger {
	if !c.Bool("debug") {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}
