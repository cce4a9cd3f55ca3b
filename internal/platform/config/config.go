package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const minProductionKeyLength = 32

type Config struct {
	AppEnv         string `env:"APP_ENV" default:"development"`
	Port           string `env:"PORT" default:"8888"`
	CookieKeys     string `env:"COOKIE_KEYS"`
	AllowedOrigins string `env:"ALLOWED_ORIGINS"`
	LogLevel       string `env:"LOG_LEVEL" default:"info"`
	LogFormat      string `env:"LOG_FORMAT" default:"text"`

	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days

	MaxWebSocketConnections int     `env:"MAX_WEBSOCKET_CONNECTIONS" default:"10000"`
	MaxConnectionsPerIP     int     `env:"MAX_CONNECTIONS_PER_IP" default:"50"`
	ConnectionRatePerIP     float64 `env:"CONNECTION_RATE_PER_IP" default:"5"`
	ConnectionRateBurst     int     `env:"CONNECTION_RATE_BURST" default:"20"`

	PostRatePerSecond float64 `env:"POST_RATE_PER_SECOND" default:"2"`
	PostRateBurst     int     `env:"POST_RATE_BURST" default:"10"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IsProduction reports whether the app runs with APP_ENV=production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// SigningKeys returns the cookie signing keys in rotation order.
// The first key signs new cookies; every key is accepted when verifying.
func (c *Config) SigningKeys() [][]byte {
	return toBytes(splitList(c.CookieKeys))
}

// Origins returns the extra WebSocket origins allowed besides the app's own host.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins)
}

func toBytes(values []string) [][]byte {
	keys := make([][]byte, 0, len(values))
	for _, v := range values {
		keys = append(keys, []byte(v))
	}
	return keys
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validate(cfg *Config) error {
	keys := splitList(cfg.CookieKeys)
	if len(keys) == 0 {
		return errors.New("COOKIE_KEYS is required")
	}

	if cfg.IsProduction() {
		for i, key := range keys {
			if len(key) < minProductionKeyLength {
				return fmt.Errorf("COOKIE_KEYS entry %d must be at least %d characters in production", i+1, minProductionKeyLength)
			}
		}
	}

	if cfg.MaxWebSocketConnections < 1 {
		return errors.New("MAX_WEBSOCKET_CONNECTIONS must be positive")
	}
	if cfg.MaxConnectionsPerIP < 1 {
		return errors.New("MAX_CONNECTIONS_PER_IP must be positive")
	}
	if cfg.ConnectionRatePerIP <= 0 || cfg.PostRatePerSecond <= 0 {
		return errors.New("rate limits must be positive")
	}
	if cfg.ConnectionRateBurst < 1 || cfg.PostRateBurst < 1 {
		return errors.New("rate limit bursts must be positive")
	}

	return nil
}
