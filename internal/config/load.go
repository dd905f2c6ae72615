package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the config file location.
const PathEnvVar = "REELNOTES_CONFIG"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{
	"reelnotes.yaml",
	"reelnotes.yml",
	"/etc/reelnotes/config.yaml",
}

func defaultConfig() *Config {
	return &Config{
		App:    AppConfig{Environment: "development"},
		Logger: LoggerConfig{Level: "info"},
		Server: ServerConfig{
			Port:              "8080",
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
			CORSOrigins:       []string{"http://localhost:5173"},
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Auth: AuthConfig{
			AccessTokenDuration: 24 * time.Hour,
		},
		Catalog: CatalogConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			ImageBaseURL:      "https://image.tmdb.org/t/p/w500",
			Timeout:           5 * time.Second,
			RequestsPerSecond: 20,
			Burst:             20,
			BreakerFailures:   5,
			BreakerCooldown:   30 * time.Second,
		},
		Client: ClientConfig{
			ServerURL:          "http://localhost:8080",
			NoteDebounce:       time.Second,
			HydrateConcurrency: 8,
		},
	}
}

// envKeys maps environment variables onto config paths.
// Variables not listed here are ignored.
var envKeys = map[string]string{
	"ENV":                     "app.environment",
	"LOG_LEVEL":               "logger.level",
	"LOG_FORMAT":              "logger.format",
	"DATA_PATH":               "data.base_path",
	"SERVER_PORT":             "server.port",
	"SERVER_READ_TIMEOUT":     "server.read_timeout",
	"SERVER_WRITE_TIMEOUT":    "server.write_timeout",
	"SERVER_IDLE_TIMEOUT":     "server.idle_timeout",
	"SERVER_SHUTDOWN_TIMEOUT": "server.shutdown_timeout",
	"CORS_ORIGINS":            "server.cors_origins",
	"RATE_LIMIT_REQUESTS":     "server.rate_limit_requests",
	"RATE_LIMIT_WINDOW":       "server.rate_limit_window",
	"AUTH_KEY_PATH":           "auth.key_path",
	"ACCESS_TOKEN_DURATION":   "auth.access_token_duration",
	"TMDB_BASE_URL":           "catalog.base_url",
	"TMDB_API_KEY":            "catalog.api_key",
	"TMDB_IMAGE_BASE_URL":     "catalog.image_base_url",
	"TMDB_TIMEOUT":            "catalog.timeout",
	"TMDB_RPS":                "catalog.requests_per_second",
	"TMDB_BURST":              "catalog.burst",
	"TMDB_BREAKER_FAILURES":   "catalog.breaker_failures",
	"TMDB_BREAKER_COOLDOWN":   "catalog.breaker_cooldown",
	"REELNOTES_SERVER_URL":    "client.server_url",
	"REELNOTES_TOKEN":         "client.token",
	"NOTE_DEBOUNCE":           "client.note_debounce",
	"HYDRATE_CONCURRENCY":     "client.hydrate_concurrency",
}

// sliceKeys are split on commas when they arrive as strings from the environment.
var sliceKeys = []string{"server.cors_origins"}

func envTransform(key string) string {
	return envKeys[strings.ToUpper(key)]
}

// Load builds the configuration with precedence:
// 1. Environment variables (highest priority).
// 2. YAML config file, if one is found.
// 3. Default values (lowest priority).
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit config file path. An empty path skips the file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitSliceKeys(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func splitSliceKeys(k *koanf.Koanf) error {
	for _, key := range sliceKeys {
		s, ok := k.Get(key).(string)
		if !ok {
			continue
		}
		var parts []string
		for p := range strings.SplitSeq(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(key, parts); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}
	return nil
}
