// Package config loads application configuration from defaults, an optional YAML file,
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the application configuration.
type Config struct {
	App     AppConfig     `koanf:"app"`
	Logger  LoggerConfig  `koanf:"logger"`
	Data    DataConfig    `koanf:"data"`
	Server  ServerConfig  `koanf:"server"`
	Auth    AuthConfig    `koanf:"auth"`
	Catalog CatalogConfig `koanf:"catalog"`
	Client  ClientConfig  `koanf:"client"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Environment string `koanf:"environment"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or pretty; empty picks by environment
}

// DataConfig holds on-disk storage configuration.
type DataConfig struct {
	BasePath string `koanf:"base_path"`
}

// DatabasePath is the SQLite file under the data directory.
func (d DataConfig) DatabasePath() string {
	return filepath.Join(d.BasePath, "reelnotes.db")
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	// Per-IP limit on favorite mutations.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// AuthConfig holds session token configuration.
type AuthConfig struct {
	// KeyPath defaults to {data}/auth.key.
	KeyPath string `koanf:"key_path"`
	// PASETO v4 symmetric key, set from KeyPath at startup.
	AccessTokenKey      []byte        `koanf:"-"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
}

// CatalogConfig holds the TMDB client configuration.
type CatalogConfig struct {
	BaseURL           string        `koanf:"base_url"`
	APIKey            string        `koanf:"api_key"`
	ImageBaseURL      string        `koanf:"image_base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
	Burst             int           `koanf:"burst"`
	// Consecutive failures before the breaker opens, and how long it stays open.
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
}

// ClientConfig holds settings for the reelctl command line client.
type ClientConfig struct {
	ServerURL          string        `koanf:"server_url"`
	Token              string        `koanf:"token"`
	NoteDebounce       time.Duration `koanf:"note_debounce"`
	HydrateConcurrency int           `koanf:"hydrate_concurrency"`
}

// Validate checks that all required config values are present and valid.
func (c *Config) Validate() error {
	validEnvs := map[string]bool{
		"development": true,
		"staging":     true,
		"production":  true,
	}
	if c.App.Environment == "" {
		return errors.New("environment is required")
	}
	if !validEnvs[c.App.Environment] {
		return fmt.Errorf("invalid environment: %s (must be development, staging, or production)", c.App.Environment)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logger.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}
	if f := c.Logger.Format; f != "" && f != "json" && f != "pretty" {
		return fmt.Errorf("invalid log format: %s (must be json or pretty)", f)
	}

	if c.Data.BasePath == "" {
		return errors.New("data base path cannot be empty after expansion")
	}

	if c.Auth.AccessTokenDuration <= 0 {
		return errors.New("access token duration must be positive")
	}

	if _, err := url.ParseRequestURI(c.Catalog.BaseURL); err != nil {
		return fmt.Errorf("invalid catalog base url %q: %w", c.Catalog.BaseURL, err)
	}
	if c.Catalog.Timeout <= 0 {
		return errors.New("catalog timeout must be positive")
	}
	if c.Catalog.RequestsPerSecond <= 0 {
		return errors.New("catalog requests per second must be positive")
	}

	if c.Client.NoteDebounce <= 0 {
		return errors.New("note debounce must be positive")
	}

	return nil
}

// expandPath expands ~ and makes the path absolute.
// If path is empty, defaultPath is returned as is.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		return defaultPath, nil
	}

	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[2:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

func (c *Config) expandPaths() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	base, err := expandPath(c.Data.BasePath, filepath.Join(homeDir, ".reelnotes"))
	if err != nil {
		return fmt.Errorf("invalid data path: %w", err)
	}
	c.Data.BasePath = base

	keyPath, err := expandPath(c.Auth.KeyPath, filepath.Join(base, "auth.key"))
	if err != nil {
		return fmt.Errorf("invalid auth key path: %w", err)
	}
	c.Auth.KeyPath = keyPath

	return nil
}
