package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Storage backends understood by the tracker.
const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config holds all configuration for the tracker.
type Config struct {
	StateDir           string        `env:"TRACKER_STATE_DIR" envDefault:".tracker" validate:"required"`
	StorageBackend     string        `env:"TRACKER_STORAGE" envDefault:"file" validate:"oneof=file sqlite memory"`
	StorageKey         string        `env:"TRACKER_STORAGE_KEY" envDefault:"fight-state" validate:"required,excludesall=/\\"`
	PersistDebounce    time.Duration `env:"TRACKER_PERSIST_DEBOUNCE" envDefault:"150ms" validate:"gte=0"`
	PersistMinInterval time.Duration `env:"TRACKER_PERSIST_MIN_INTERVAL" envDefault:"1s" validate:"gte=0"`
	GameDataPath       string        `env:"TRACKER_GAMEDATA"`
	HotReload          bool          `env:"TRACKER_HOT_RELOAD" envDefault:"false"`
	LogFormat          string        `env:"LOG_FORMAT" envDefault:"text"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
}

var validate = validator.New()

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, relying on environment variables")
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
