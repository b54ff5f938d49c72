package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func validConfig() Config {
	return Config{
		Port:      "8080",
		DBPath:    "./data/test.db",
		JWTSecret: testSecret,
		TokenTTL:  time.Hour,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errorString string
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "uppercase log level", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
		{
			name:        "non-numeric port",
			mutate:      func(c *Config) { c.Port = "abc" },
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "port out of range",
			mutate:      func(c *Config) { c.Port = "70000" },
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty database path",
			mutate:      func(c *Config) { c.DBPath = "" },
			errorString: "database path cannot be empty",
		},
		{
			name:        "short secret",
			mutate:      func(c *Config) { c.JWTSecret = "short" },
			errorString: "JWT secret must be at least 32 characters",
		},
		{
			name:        "token TTL too short",
			mutate:      func(c *Config) { c.TokenTTL = time.Second },
			errorString: "invalid token TTL 1s: must be at least 1 minute",
		},
		{
			name:        "unknown log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			errorString: "invalid log format 'xml'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.errorString == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestConfig_ValidateReportsEveryProblem(t *testing.T) {
	cfg := Config{Port: "0", LogLevel: "loud", LogFormat: "text", TokenTTL: time.Hour}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"invalid port 0", "database path", "JWT secret", "invalid log level 'loud'"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/ledger.db")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("LOG_FORMAT", "json")
	t.Setenv("METRICS_ENABLED", "false")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, "/tmp/ledger.db", cfg.DBPath)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.False(t, cfg.MetricsEnabled)
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "TOKEN_TTL", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ENABLED", "CORS_ORIGIN"} {
		t.Setenv(key, "")
	}
	t.Setenv("TOKEN_TTL", "not-a-duration")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data/fistein.db", cfg.DBPath)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "*", cfg.CORSOrigin)
	assert.True(t, cfg.MetricsEnabled)
}
