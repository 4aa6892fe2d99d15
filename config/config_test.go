package config_test

import (
	"log/slog"
	"testing"
	"time"

	"session-booking/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() config.Config {
	return config.Config{
		Env:                    "development",
		Port:                   "8080",
		LogLevel:               "info",
		StorageDriver:          config.DriverMemory,
		JWTSecret:              "0123456789abcdef",
		CalendarConnectTimeout: 5 * time.Minute,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "missing secret", mutate: func(c *config.Config) { c.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "short secret", mutate: func(c *config.Config) { c.JWTSecret = "short" }, wantErr: "at least 16"},
		{name: "postgres without dsn", mutate: func(c *config.Config) { c.StorageDriver = config.DriverPostgres }, wantErr: "POSTGRES_DSN"},
		{name: "postgres with dsn", mutate: func(c *config.Config) {
			c.StorageDriver = config.DriverPostgres
			c.PostgresDSN = "postgres://localhost/sessions"
		}},
		{name: "unknown driver", mutate: func(c *config.Config) { c.StorageDriver = "sqlite" }, wantErr: "STORAGE_DRIVER"},
		{name: "partial google", mutate: func(c *config.Config) { c.GoogleClientID = "id" }, wantErr: "GOOGLE_CLIENT_SECRET"},
		{name: "zero timeout", mutate: func(c *config.Config) { c.CalendarConnectTimeout = 0 }, wantErr: "CALENDAR_CONNECT_TIMEOUT"},
		{name: "bad log level", mutate: func(c *config.Config) { c.LogLevel = "loud" }, wantErr: "LOG_LEVEL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CALENDAR_CONNECT_TIMEOUT", "90s")
	t.Setenv("JOBS_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.CalendarConnectTimeout)
	assert.False(t, cfg.JobsEnabled)
	assert.Equal(t, "@daily", cfg.SlotGenerationCron)
	assert.Equal(t, "@every 15m", cfg.BookingCompletionCron)
	assert.False(t, cfg.CalendarEnabled())

	level, err := cfg.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadInvalid(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestIsDevelopment(t *testing.T) {
	cfg := validConfig()
	assert.True(t, cfg.IsDevelopment())
	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
}
