package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", DriverMemory)
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 90*24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 12, cfg.BcryptCost)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.IsProduction())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", DriverMemory)
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresDSNForPostgres(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", DriverPostgres)
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("JWT_SECRET", testSecret)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", DriverMemory)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("JWT_EXPIRES_IN", "2h")
	t.Setenv("JWT_COOKIE_EXPIRES_IN", "3d")
	t.Setenv("BCRYPT_COST", "10")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 72*time.Hour, cfg.CookieTTL)
	assert.Equal(t, 10, cfg.BcryptCost)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.RedisEnabled())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Env:             EnvDevelopment,
			StorageDriver:   DriverMemory,
			JWTSecret:       testSecret,
			TokenTTL:        time.Hour,
			CookieTTL:       time.Hour,
			BcryptCost:      10,
			RateLimitPerMin: 10,
			LogLevel:        "info",
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad env", func(c *Config) { c.Env = "staging" }},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }},
		{"bcrypt cost too low", func(c *Config) { c.BcryptCost = 1 }},
		{"bcrypt cost too high", func(c *Config) { c.BcryptCost = 40 }},
		{"unknown driver", func(c *Config) { c.StorageDriver = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.StorageDriver = DriverPostgres }},
		{"bad log level", func(c *Config) { c.LogLevel = "trace" }},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }},
	}

	require.NoError(t, base().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("90d")
	require.NoError(t, err)
	assert.Equal(t, 90*24*time.Hour, d)

	d, err = ParseDuration("15m")
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	_, err = ParseDuration("xd")
	assert.Error(t, err)
}
