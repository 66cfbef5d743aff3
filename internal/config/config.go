// Package config provides environment-driven configuration for the
// thin CLI/service wrappers around the STAC data-plane core: which
// Backend to construct, per-scheme Store credentials and timeouts,
// default Query limits, and Logging.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds the complete application configuration loaded from
// environment variables.
type Config struct {
	Backend BackendConfig `envPrefix:"BACKEND_"`
	Store   StoreConfig   `envPrefix:"STORE_"`
	Query   QueryConfig   `envPrefix:"QUERY_"`
	Logging LoggingConfig `envPrefix:"LOG_"`
}

// BackendConfig selects and configures the concrete Backend (internal/
// backend/memory, sqlbackend, columnarbackend) the service runs against.
type BackendConfig struct {
	// Type is one of "memory", "sql", "columnar".
	Type string `env:"TYPE" envDefault:"memory"`
	// DSN is the connection string for the "sql" backend (a postgres
	// DSN passed to pgx) or the database file path for "columnar"
	// (passed to duckdb).
	DSN string `env:"DSN"`
	// CursorTTL bounds how long an opaque pagination cursor minted by
	// the memory backend remains resolvable.
	CursorTTL time.Duration `env:"CURSOR_TTL" envDefault:"1h"`
}

// StoreConfig carries per-scheme credentials and timeouts for the Store
// Plane backends (internal/store/{s3,gcsstore,azurestore,httpstore}).
type StoreConfig struct {
	S3          S3Config      `envPrefix:"S3_"`
	Azure       AzureConfig   `envPrefix:"AZURE_"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`
}

// S3Config mirrors spec.md §6's recognized S3 store option keys.
type S3Config struct {
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	SessionToken    string `env:"SESSION_TOKEN"`
	Region          string `env:"REGION"`
	Endpoint        string `env:"ENDPOINT"`
	SkipSignature   bool   `env:"SKIP_SIGNATURE" envDefault:"false"`
}

// AzureConfig carries the storage account URL used to construct the
// azblob client internal/store/azurestore wraps.
type AzureConfig struct {
	AccountURL string `env:"ACCOUNT_URL"`
}

// QueryConfig bounds the Query Translator's limit handling (spec.md
// §4.F "limit").
type QueryConfig struct {
	DefaultLimit int `env:"DEFAULT_LIMIT" envDefault:"10"`
	MaxLimit     int `env:"MAX_LIMIT" envDefault:"250"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// Load parses configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	switch c.Backend.Type {
	case "memory":
	case "sql", "columnar":
		if c.Backend.DSN == "" {
			return fmt.Errorf("backend type %q requires BACKEND_DSN", c.Backend.Type)
		}
	default:
		return fmt.Errorf("backend type must be one of memory, sql, columnar, got %q", c.Backend.Type)
	}

	if c.Backend.CursorTTL <= 0 {
		return fmt.Errorf("backend cursor TTL must be positive, got %s", c.Backend.CursorTTL)
	}

	if c.Store.HTTPTimeout <= 0 {
		return fmt.Errorf("store HTTP timeout must be positive, got %s", c.Store.HTTPTimeout)
	}

	if c.Query.DefaultLimit < 1 {
		return fmt.Errorf("query default limit must be at least 1, got %d", c.Query.DefaultLimit)
	}

	if c.Query.MaxLimit < c.Query.DefaultLimit {
		return fmt.Errorf("query max limit (%d) must be >= default limit (%d)", c.Query.MaxLimit, c.Query.DefaultLimit)
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format %q, must be one of: json, text", c.Logging.Format)
	}

	return nil
}
