// Package config loads the fuelbot configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rubiojr/fuelbot/internal/cache"
)

// Prefix of every environment variable, e.g. FUELBOT_TELEGRAM_TOKEN.
const Prefix = "FUELBOT"

var (
	ErrMissingAPIKey        = errors.New("FUELBOT_TANKERKOENIG_API_KEY is required")
	ErrMissingTelegramToken = errors.New("FUELBOT_TELEGRAM_TOKEN is required")
)

// Config is built once at start and passed to every client and handler.
type Config struct {
	TelegramToken      string `envconfig:"TELEGRAM_TOKEN"`
	TelegramURL        string `envconfig:"TELEGRAM_URL" default:"https://api.telegram.org"`
	TankerkoenigAPIKey string `envconfig:"TANKERKOENIG_API_KEY"`
	TankerkoenigURL    string `envconfig:"TANKERKOENIG_URL" default:"https://creativecommons.tankerkoenig.de/json"`

	Addr     string `envconfig:"ADDR" default:"127.0.0.1:8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Lang     string `envconfig:"DEFAULT_LANG" default:"en"`

	// CollapseMisses shares one upstream fetch between concurrent misses.
	CollapseMisses     bool `envconfig:"COLLAPSE_MISSES" default:"false"`
	RateLimitPerMinute int  `envconfig:"RATE_LIMIT_PER_MINUTE" default:"20"`
	// DebugChatID enables /tg-test when non-zero.
	DebugChatID int64 `envconfig:"DEBUG_CHAT_ID" default:"0"`

	// GeocodeServer is the Nominatim server behind the /near command.
	// Empty disables the command.
	GeocodeServer string `envconfig:"GEOCODE_SERVER" default:"https://nominatim.openstreetmap.org/"`

	cache.Config
}

// Load reads envFile when it exists and then fills Config from the environment.
// Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("error loading %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("error processing environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TankerkoenigAPIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// ValidateBot checks the settings needed to serve the chat bot.
func (c Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.TelegramToken) == "" {
		return ErrMissingTelegramToken
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
