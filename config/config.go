// Package config reads server settings from the environment, after loading
// an optional .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	AllowedOrigins []string
	GinMode        string

	StoreDriver   string
	MongoURL      string
	MongoDatabase string
	DatabaseURL   string
	StoreTimeout  time.Duration
	RedisAddr     string

	SecretKey         string
	AdminPassword     string
	AdminPasswordHash string
	SessionTTL        time.Duration

	CatalogFlagship string
	CatalogPriority []string

	LogLevel  string
	LogFormat string
}

// Load reads the .env file at path, if present, then the environment.
func Load(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
		slog.Warn("no .env file, using environment only", "path", path)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:              get("PORT", "8000"),
		AllowedOrigins:    splitList(get("ALLOWED_ORIGINS", "http://localhost:9000")),
		GinMode:           get("GIN_MODE", "release"),
		StoreDriver:       get("STORE_DRIVER", "mongo"),
		MongoURL:          get("MONGODB_URL", "mongodb://localhost:27017"),
		MongoDatabase:     get("MONGODB_DATABASE", "drinkstand"),
		DatabaseURL:       get("DATABASE_URL", "drinkstand.db"),
		RedisAddr:         get("REDIS_ADDR", ""),
		SecretKey:         get("SECRET_KEY", ""),
		AdminPassword:     getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: get("ADMIN_PASSWORD_HASH", ""),
		CatalogFlagship:   get("CATALOG_FLAGSHIP", "classic matcha latte"),
		CatalogPriority:   splitList(get("CATALOG_PRIORITY", "")),
		LogLevel:          get("LOG_LEVEL", "info"),
		LogFormat:         get("LOG_FORMAT", "text"),
	}

	var err error
	if cfg.SessionTTL, err = duration(get("SESSION_TTL", "24h")); err != nil {
		return Config{}, fmt.Errorf("SESSION_TTL: %w", err)
	}
	if cfg.StoreTimeout, err = duration(get("STORE_TIMEOUT", "10s")); err != nil {
		return Config{}, fmt.Errorf("STORE_TIMEOUT: %w", err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.StoreDriver {
	case "mongo", "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of mongo, postgres, sqlite", c.StoreDriver))
	}
	if len(c.AllowedOrigins) == 0 {
		errs = append(errs, errors.New("ALLOWED_ORIGINS must name at least one origin"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if c.AdminPassword == "" && c.AdminPasswordHash == "" {
		errs = append(errs, errors.New("ADMIN_PASSWORD or ADMIN_PASSWORD_HASH is required"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q is not json or text", c.LogFormat))
	}
	return errors.Join(errs...)
}

// StoreDSN is the connection string for the configured driver.
func (c Config) StoreDSN() string {
	if c.StoreDriver == "mongo" {
		return c.MongoURL
	}
	return c.DatabaseURL
}

func duration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", s)
	}
	return d, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
