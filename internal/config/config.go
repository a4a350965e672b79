package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	// Server
	Env         string
	HTTPAddr    string
	CORSOrigins []string

	// Storage
	StorageDriver string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret       string
	TokenTTL        time.Duration
	CookieTTL       time.Duration
	BcryptCost      int
	RateLimitPerMin int

	// Logging
	LogLevel string
}

func Load() (*Config, error) {
	cfg := &Config{
		// Defaults
		Env:             EnvDevelopment,
		HTTPAddr:        ":8080",
		StorageDriver:   DriverPostgres,
		TokenTTL:        90 * 24 * time.Hour,
		CookieTTL:       90 * 24 * time.Hour,
		BcryptCost:      12,
		RateLimitPerMin: 100,
		LogLevel:        "info",
		RedisDB:         0,
	}

	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.Env = env
	}

	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		cfg.HTTPAddr = addr
	}

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	if driver := os.Getenv("STORAGE_DRIVER"); driver != "" {
		cfg.StorageDriver = driver
	}

	cfg.PostgresDSN = os.Getenv("POSTGRES_DSN")
	if cfg.PostgresDSN == "" && cfg.StorageDriver == DriverPostgres {
		return nil, fmt.Errorf("POSTGRES_DSN is required")
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if ttl := os.Getenv("JWT_EXPIRES_IN"); ttl != "" {
		d, err := ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
		}
		cfg.TokenTTL = d
	}

	if ttl := os.Getenv("JWT_COOKIE_EXPIRES_IN"); ttl != "" {
		d, err := ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_COOKIE_EXPIRES_IN: %w", err)
		}
		cfg.CookieTTL = d
	}

	if cost := os.Getenv("BCRYPT_COST"); cost != "" {
		n, err := strconv.Atoi(cost)
		if err != nil {
			return nil, fmt.Errorf("invalid BCRYPT_COST: %w", err)
		}
		cfg.BcryptCost = n
	}

	cfg.RedisAddr = os.Getenv("REDIS_ADDR")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")

	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		db, err := strconv.Atoi(redisDB)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		cfg.RedisDB = db
	}

	if limit := os.Getenv("RATE_LIMIT_PER_MINUTE"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return nil, fmt.Errorf("invalid RATE_LIMIT_PER_MINUTE: %w", err)
		}
		cfg.RateLimitPerMin = n
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return fmt.Errorf("invalid app env: %s", c.Env)
	}

	switch c.StorageDriver {
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres DSN is empty")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("invalid storage driver: %s", c.StorageDriver)
	}

	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("jwt secret must be at least 32 bytes")
	}

	if c.TokenTTL <= 0 || c.CookieTTL <= 0 {
		return fmt.Errorf("token and cookie ttl must be positive")
	}

	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}

	if c.RateLimitPerMin < 1 {
		return fmt.Errorf("rate limit per minute must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}

	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// ParseDuration accepts Go durations plus a whole-day form such as "90d".
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("parse days %q: %w", s, err)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}
