package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Env      string `env:"ENV" envDefault:"production"`
	Port     string `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	PostgresDSN   string `env:"POSTGRES_DSN"`

	JWTSecret string `env:"JWT_SECRET"`

	GoogleClientID         string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret     string        `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL      string        `env:"GOOGLE_REDIRECT_URL"`
	CalendarConnectTimeout time.Duration `env:"CALENDAR_CONNECT_TIMEOUT" envDefault:"5m"`

	NATSURL string `env:"NATS_URL"`

	JobsEnabled           bool   `env:"JOBS_ENABLED" envDefault:"true"`
	SlotGenerationCron    string `env:"SLOT_GENERATION_CRON" envDefault:"@daily"`
	BookingCompletionCron string `env:"BOOKING_COMPLETION_CRON" envDefault:"@every 15m"`
}

// Load reads .env when present, then the process environment, and validates
// the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("environment variables are invalid or missing: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters")
	}
	switch c.StorageDriver {
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("POSTGRES_DSN is required when STORAGE_DRIVER=postgres")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, c.StorageDriver)
	}
	if c.GoogleClientID != "" && (c.GoogleClientSecret == "" || c.GoogleRedirectURL == "") {
		return fmt.Errorf("GOOGLE_CLIENT_SECRET and GOOGLE_REDIRECT_URL are required when GOOGLE_CLIENT_ID is set")
	}
	if c.CalendarConnectTimeout <= 0 {
		return fmt.Errorf("CALENDAR_CONNECT_TIMEOUT must be positive, got %s", c.CalendarConnectTimeout)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) CalendarEnabled() bool {
	return c.GoogleClientID != ""
}

func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return level, fmt.Errorf("LOG_LEVEL is invalid: %w", err)
	}
	return level, nil
}
