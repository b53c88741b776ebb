package main

import (
	"fmt"

	"github.com/rubiojr/fuelbot/internal/config"
	"github.com/rubiojr/fuelbot/internal/server"
	"github.com/rubiojr/fuelbot/pkg/telegram"
	"github.com/urfave/cli/v2"
)

func setWebhookCommand() *cli.Command {
	return &cli.Command{
		Name:  "set-webhook",
		Usage: "Register the Telegram webhook",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "url",
				Usage:    "Public base URL of the server, e.g. https://bot.example.com",
				Required: true,
			},
		},
		Action: setWebhookAction,
	}
}

func setWebhookAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.TelegramToken == "" {
		return config.ErrMissingTelegramToken
	}

	bot := telegram.NewClient(cfg.TelegramToken, telegram.WithBaseURL(cfg.TelegramURL))
	me, err := bot.GetMe(c.Context)
	if err != nil {
		return err
	}

	webhookURL := server.WebhookURL(c.String("url"))
	desc, err := bot.SetWebhook(c.Context, webhookURL)
	if err != nil {
		return err
	}

	fmt.Printf("Webhook for @%s set to %s: %s\n", me.Username, webhookURL, desc)
	return nil
}
