// Package config loads gateway configuration from an optional YAML file,
// an optional .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreSupabase = "supabase"
	StorePostgres = "postgres"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config aggregates application configuration values.
type Config struct {
	Env       string          `yaml:"env" env:"APP_ENV"`
	HTTP      HTTPConfig      `yaml:"http"`
	Store     StoreConfig     `yaml:"store"`
	Session   SessionConfig   `yaml:"session"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// HTTPConfig governs the HTTP server.
type HTTPConfig struct {
	Addr            string        `yaml:"addr" env:"HTTP_ADDR"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT"`
	AllowedOrigins  string        `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
}

// StoreConfig selects and configures the relational store.
type StoreConfig struct {
	Backend            string `yaml:"backend" env:"STORE_BACKEND"`
	SupabaseURL        string `yaml:"supabase_url" env:"SUPABASE_URL"`
	SupabaseServiceKey string `yaml:"-" env:"SUPABASE_SERVICE_KEY"`
	DatabaseURL        string `yaml:"-" env:"DATABASE_URL"`
	MaxOpenConns       int    `yaml:"max_open_conns" env:"DATABASE_MAX_OPEN_CONNS"`
}

// SessionConfig configures session token issuance.
type SessionConfig struct {
	Secret string        `yaml:"-" env:"JWT_SECRET"`
	TTL    time.Duration `yaml:"ttl" env:"SESSION_TTL"`
	Issuer string        `yaml:"issuer" env:"SESSION_ISSUER"`
}

// CacheConfig configures the user stats cache.
type CacheConfig struct {
	Backend   string        `yaml:"backend" env:"CACHE_BACKEND"`
	StatsTTL  time.Duration `yaml:"stats_ttl" env:"STATS_CACHE_TTL"`
	RedisAddr string        `yaml:"redis_addr" env:"REDIS_ADDR"`
	RedisDB   int           `yaml:"redis_db" env:"REDIS_DB"`
}

// RateLimitConfig configures per-client request limiting.
type RateLimitConfig struct {
	RequestsPerSecond int    `yaml:"requests_per_second" env:"RATE_LIMIT_RPS"`
	Burst             int    `yaml:"burst" env:"RATE_LIMIT_BURST"`
	CleanupSchedule   string `yaml:"cleanup_schedule" env:"RATE_LIMIT_CLEANUP"`
	TrustedProxies    string `yaml:"trusted_proxies" env:"RATE_LIMIT_TRUSTED_PROXIES"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

const (
	defaultEnv             = "development"
	defaultAddr            = ":8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 15 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultAllowedOrigins  = "http://localhost:3000"
	defaultSessionTTL      = 24 * time.Hour
	defaultSessionIssuer   = "payeasy"
	defaultStatsTTL        = 30 * time.Second
	defaultRPS             = 20
	defaultBurst           = 40
	defaultCleanup         = "@every 10m"
	defaultMaxOpenConns    = 10
)

// Load reads configuration. CONFIG_FILE names an optional YAML file and
// ENV_FILE an optional dotenv file (default ".env"); environment variables
// override both.
func Load() (*Config, error) {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file %s: %w", envFile, err)
	}

	cfg := &Config{}
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode environment: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	setString(&c.Env, defaultEnv)
	setString(&c.HTTP.Addr, defaultAddr)
	setDuration(&c.HTTP.ReadTimeout, defaultReadTimeout)
	setDuration(&c.HTTP.WriteTimeout, defaultWriteTimeout)
	setDuration(&c.HTTP.IdleTimeout, defaultIdleTimeout)
	setDuration(&c.HTTP.ShutdownTimeout, defaultShutdownTimeout)
	setString(&c.HTTP.AllowedOrigins, defaultAllowedOrigins)
	setString(&c.Store.Backend, StoreSupabase)
	setInt(&c.Store.MaxOpenConns, defaultMaxOpenConns)
	setDuration(&c.Session.TTL, defaultSessionTTL)
	setString(&c.Session.Issuer, defaultSessionIssuer)
	setString(&c.Cache.Backend, CacheMemory)
	setDuration(&c.Cache.StatsTTL, defaultStatsTTL)
	setInt(&c.RateLimit.RequestsPerSecond, defaultRPS)
	setInt(&c.RateLimit.Burst, defaultBurst)
	setString(&c.RateLimit.CleanupSchedule, defaultCleanup)
	setString(&c.Logging.Level, "info")
	setString(&c.Logging.Format, "json")

	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
}

// Validate checks that the selected backends have what they need.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreSupabase:
		if c.Store.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the supabase store")
		}
		if c.Store.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required for the supabase store")
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.Store.Backend)
	}

	switch c.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.Cache.Backend)
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.Session.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	return nil
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// Origins returns the configured CORS origins.
func (c *Config) Origins() []string {
	return splitList(c.HTTP.AllowedOrigins)
}

// TrustedProxies returns the proxies (CIDR or IP) whose X-Forwarded-For
// header identifies the client.
func (c *Config) TrustedProxies() []string {
	return splitList(c.RateLimit.TrustedProxies)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func setString(dst *string, fallback string) {
	if strings.TrimSpace(*dst) == "" {
		*dst = fallback
	}
}

func setDuration(dst *time.Duration, fallback time.Duration) {
	if *dst <= 0 {
		*dst = fallback
	}
}

func setInt(dst *int, fallback int) {
	if *dst <= 0 {
		*dst = fallback
	}
}
