package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := defaultConfig()
	cfg.Data.BasePath = "/some/path"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_AllLogLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"debug", true},
		{"info", true},
		{"warn", true},
		{"error", true},
		{"DEBUG", true}, // case insensitive
		{"trace", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			cfg := validConfig()
			cfg.Logger.Level = tt.level

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data path", func(c *Config) { c.Data.BasePath = "" }},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }},
		{"zero token duration", func(c *Config) { c.Auth.AccessTokenDuration = 0 }},
		{"relative catalog url", func(c *Config) { c.Catalog.BaseURL = "api.themoviedb.org" }},
		{"zero catalog timeout", func(c *Config) { c.Catalog.Timeout = 0 }},
		{"zero catalog rate", func(c *Config) { c.Catalog.RequestsPerSecond = 0 }},
		{"zero debounce", func(c *Config) { c.Client.NoteDebounce = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFile_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATA_PATH", dir)

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.Catalog.BaseURL)
	assert.Equal(t, time.Second, cfg.Client.NoteDebounce)
	assert.Equal(t, dir, cfg.Data.BasePath)
	assert.Equal(t, filepath.Join(dir, "auth.key"), cfg.Auth.KeyPath)
	assert.Equal(t, filepath.Join(dir, "reelnotes.db"), cfg.Data.DatabasePath())
}

func TestLoadFile_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reelnotes.yaml")
	yaml := `
app:
  environment: staging
server:
  port: "9000"
catalog:
  api_key: from-file
  timeout: 2s
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("DATA_PATH", dir)
	t.Setenv("TMDB_API_KEY", "from-env")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("NOTE_DEBOUNCE", "250ms")

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.App.Environment)
	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Catalog.Timeout)
	assert.Equal(t, "from-env", cfg.Catalog.APIKey)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.CORSOrigins)
	assert.Equal(t, 250*time.Millisecond, cfg.Client.NoteDebounce)
}

func TestLoadFile_InvalidEnvironment(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("ENV", "qa")

	_, err := LoadFile("")
	assert.Error(t, err)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/movies", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "movies"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("rel/dir", "")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}
