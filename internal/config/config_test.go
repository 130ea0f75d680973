package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Port:               "8080",
		Env:                "development",
		JWTSecret:          "secure-secret-at-least-32-chars-long",
		DBDriver:           "postgres",
		DBPassword:         "secure-password",
		DBSSLMode:          "require",
		TracingSampleRatio: 1,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development", func(c *Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"sqlite without path", func(c *Config) { c.DBDriver = "sqlite" }, true},
		{"sqlite with path", func(c *Config) { c.DBDriver = "sqlite"; c.SQLitePath = "x.db" }, false},
		{"sample ratio out of range", func(c *Config) { c.TracingSampleRatio = 1.5 }, true},
		{"admin email without password", func(c *Config) { c.AdminEmail = "a@b.co" }, true},
		{"production ok", func(c *Config) { c.Env = "production" }, false},
		{"production default secret", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }, true},
		{"production short secret", func(c *Config) { c.Env = "prod"; c.JWTSecret = "short" }, true},
		{"production weak db password", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }, true},
		{"production ssl disabled", func(c *Config) { c.Env = "production"; c.DBSSLMode = "disable" }, true},
		{"production sqlite", func(c *Config) { c.Env = "production"; c.DBDriver = "sqlite"; c.SQLitePath = "x.db" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	c := validConfig()
	assert.Equal(t, 7*24*time.Hour, c.TokenTTL())
	c.JWTTTLHours = 2
	assert.Equal(t, 2*time.Hour, c.TokenTTL())

	assert.Equal(t, time.Duration(0), c.CommentRateWindow())
	c.CommentRateWindowSeconds = 30
	assert.Equal(t, 30*time.Second, c.CommentRateWindow())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	defer viper.Reset()

	t.Setenv("APP_ENV", "test")
	t.Setenv("DB_DRIVER", "  SQLite ")
	t.Setenv("SQLITE_PATH", ":memory:")
	t.Setenv("COMMENT_RATE_WINDOW_SECONDS", "45")
	t.Setenv("ADMIN_EMAIL", " Root@Example.COM ")
	t.Setenv("ADMIN_PASSWORD", "changeme123")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, ":memory:", cfg.SQLitePath)
	assert.Equal(t, 45, cfg.CommentRateWindowSeconds)
	assert.Equal(t, "root@example.com", cfg.AdminEmail)
	assert.Equal(t, "8375", cfg.Port)
	assert.Equal(t, 24*7, cfg.JWTTTLHours)
}
