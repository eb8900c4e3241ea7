package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultDSN         = "host=localhost user=postgres password=postgres dbname=cashdesk port=5432 sslmode=disable"
	defaultCORSOrigins = "http://localhost:5173"
)

type Config struct {
	HTTPPort         string        `mapstructure:"HTTP_PORT"`
	DatabaseDSN      string        `mapstructure:"DATABASE_DSN"`
	JWTSecret        string        `mapstructure:"JWT_SECRET"`
	CORSOrigins      string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ConfirmTolerance time.Duration `mapstructure:"CONFIRM_TOLERANCE"` // how far in the future a payment/confirmation date may lie
	ItemPolicy       string        `mapstructure:"ITEM_POLICY"`       // "single" | "per-article"
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	LogFormat        string        `mapstructure:"LOG_FORMAT"` // "text" | "json"
}

var (
	ErrMissingJWTSecret = errors.New("JWT_SECRET is not set")
	ErrShortJWTSecret   = errors.New("JWT_SECRET must be at least 32 characters")
)

// Load reads the configuration from the environment. If configFile is not
// empty the file is read first and environment variables override it.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetDefault("HTTP_PORT", "8080")
	v.SetDefault("DATABASE_DSN", defaultDSN)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)
	v.SetDefault("CONFIRM_TOLERANCE", time.Minute)
	v.SetDefault("ITEM_POLICY", "single")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config file %s could not be read: %w", configFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config could not be decoded: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.DatabaseDSN == defaultDSN {
		slog.Warn("DATABASE_DSN uses the default value, set your own Postgres connection for production")
	}
	if cfg.CORSOrigins == defaultCORSOrigins {
		slog.Warn("CORS_ALLOWED_ORIGINS uses the default value, set your own domain for production")
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if len(c.JWTSecret) < 32 {
		return ErrShortJWTSecret
	}
	if c.ConfirmTolerance < 0 {
		return fmt.Errorf("CONFIRM_TOLERANCE must not be negative, got %s", c.ConfirmTolerance)
	}
	switch c.ItemPolicy {
	case "single", "per-article":
	default:
		return fmt.Errorf("ITEM_POLICY must be single or per-article, got %q", c.ItemPolicy)
	}
	return nil
}

// CORSOriginList splits the comma separated origin list.
func (c *Config) CORSOriginList() []string {
	parts := strings.Split(c.CORSOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) SlogLevel() slog.Level {
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
