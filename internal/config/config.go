package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	Database  DatabaseConfig
	Authority AuthorityConfig
	Engine    EngineConfig
}

// DatabaseConfig describes PostgreSQL connectivity.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN renders the postgres connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// AuthorityConfig describes the remote calculation authority.
type AuthorityConfig struct {
	Enabled bool
	BaseURL string
	Token   string
	Timeout time.Duration
}

// EngineConfig governs the deduction engine's local behaviour.
type EngineConfig struct {
	FallbackEnabled           bool
	CacheSize                 int
	CacheTTL                  time.Duration
	BatchConcurrency          int
	DefaultJurisdiction       string
	AllowJurisdictionFallback bool
	RemittanceDueOffsetDays   int
}

const (
	defaultAuthorityTimeout = 8 * time.Second
	defaultCacheSize        = 100
	defaultCacheTTL         = 10 * time.Minute
	defaultBatchConcurrency = 8
	defaultDueOffsetDays    = 15
)

// Load reads configuration from environment variables, applying defaults.
func Load() Config {
	return Config{
		Database: DatabaseConfig{
			Host:     valueOrDefault("DB_HOST", "localhost"),
			Port:     valueOrDefault("DB_PORT", "5432"),
			User:     valueOrDefault("DB_USER", "postgres"),
			Password: valueOrDefault("DB_PASSWORD", "postgres"),
			Name:     valueOrDefault("DB_NAME", "postgres"),
			SSLMode:  valueOrDefault("DB_SSLMODE", "disable"),
		},
		Authority: AuthorityConfig{
			Enabled: boolOrDefault("REMOTE_AUTHORITY_ENABLED", false),
			BaseURL: os.Getenv("REMOTE_AUTHORITY_URL"),
			Token:   os.Getenv("REMOTE_AUTHORITY_TOKEN"),
			Timeout: durationOrDefault("REMOTE_AUTHORITY_TIMEOUT", defaultAuthorityTimeout),
		},
		Engine: EngineConfig{
			FallbackEnabled:           boolOrDefault("LOCAL_FALLBACK_ENABLED", true),
			CacheSize:                 intOrDefault("PROVIDER_CACHE_SIZE", defaultCacheSize),
			CacheTTL:                  durationOrDefault("PROVIDER_CACHE_TTL", defaultCacheTTL),
			BatchConcurrency:          intOrDefault("BATCH_CONCURRENCY", defaultBatchConcurrency),
			DefaultJurisdiction:       os.Getenv("DEFAULT_JURISDICTION"),
			AllowJurisdictionFallback: boolOrDefault("ALLOW_JURISDICTION_FALLBACK", false),
			RemittanceDueOffsetDays:   intOrDefault("REMITTANCE_DUE_OFFSET_DAYS", defaultDueOffsetDays),
		},
	}
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intOrDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func boolOrDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func durationOrDefault(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
