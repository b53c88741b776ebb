package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("FUELBOT_TANKERKOENIG_API_KEY", "key")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Addr != "127.0.0.1:8080" {
		t.Errorf("Addr = %q", cfg.Addr)
	}
	if cfg.Backend != "sqlite" {
		t.Errorf("Backend = %q, want sqlite", cfg.Backend)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.DebugChatID != 0 {
		t.Errorf("debug chat should be disabled by default, got %d", cfg.DebugChatID)
	}
	if cfg.GeocodeServer != "https://nominatim.openstreetmap.org/" {
		t.Errorf("GeocodeServer = %q", cfg.GeocodeServer)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() failed: %v", err)
	}
	if err := cfg.ValidateBot(); !errors.Is(err, ErrMissingTelegramToken) {
		t.Errorf("expected ErrMissingTelegramToken, got %v", err)
	}
}

func TestLoad_EnvironmentAndFile(t *testing.T) {
	envFile := filepath.Join(t.TempDir(), ".env")
	content := "FUELBOT_TELEGRAM_TOKEN=from-file\nFUELBOT_CACHE_BACKEND=redis\nFUELBOT_REDIS_ADDR=redis:6379\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("FUELBOT_TANKERKOENIG_API_KEY", "key")
	t.Setenv("FUELBOT_CACHE_BACKEND", "memory")
	t.Setenv("FUELBOT_DEBUG_CHAT_ID", "122860086")
	t.Setenv("FUELBOT_COLLAPSE_MISSES", "true")
	t.Cleanup(func() {
		os.Unsetenv("FUELBOT_TELEGRAM_TOKEN")
		os.Unsetenv("FUELBOT_REDIS_ADDR")
	})

	cfg, err := Load(envFile)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.TelegramToken != "from-file" {
		t.Errorf("TelegramToken = %q, want from-file", cfg.TelegramToken)
	}
	if cfg.Backend != "memory" {
		t.Errorf("environment should win over the file, got backend %q", cfg.Backend)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.DebugChatID != 122860086 || !cfg.CollapseMisses {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if err := cfg.ValidateBot(); err != nil {
		t.Errorf("ValidateBot() failed: %v", err)
	}
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Load() with a missing file failed: %v", err)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	if err := (Config{}).Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
	}
	for _, test := range tests {
		if got := (Config{LogLevel: test.in}).Level(); got != test.want {
			t.Errorf("Level(%q) = %v, expected %v", test.in, got, test.want)
		}
	}
}
