package config

import (
	"strings"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is the root application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Store       StoreConfig       `yaml:"store"`
	Redis       RedisConfig       `yaml:"redis"`
	AI          AIConfig          `yaml:"ai"`
	Integration IntegrationConfig `yaml:"integration"`
	Log         LogConfig         `yaml:"log"`
	CORS        CORSConfig        `yaml:"cors"`
	RateLimit   RateLimitConfig   `yaml:"ratelimit"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins   string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedMethods   string `yaml:"allowed_methods"   env:"CORS_ALLOWED_METHODS"   env-default:"GET,POST,OPTIONS"`
	AllowedHeaders   string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Content-Type,X-Request-Id"`
	AllowCredentials bool   `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAge           int    `yaml:"max_age"           env:"CORS_MAX_AGE"           env-default:"86400"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"120s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
	// TrustProxy takes the client address from X-Forwarded-For.
	TrustProxy bool `yaml:"trust_proxy" env:"SERVER_TRUST_PROXY" env-default:"false"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	// ApplicationName tags server-side sessions, e.g. in pg_stat_activity.
	ApplicationName string `yaml:"application_name" env:"DATABASE_APPLICATION_NAME" env-default:"kotoba"`
	// AutoMigrate applies the embedded migrations at startup. Missing tables
	// are still created lazily on first write when disabled.
	AutoMigrate bool `yaml:"auto_migrate" env:"DATABASE_AUTO_MIGRATE" env-default:"true"`
}

// StoreConfig selects the document store implementation.
type StoreConfig struct {
	Driver string `yaml:"driver" env:"STORE_DRIVER" env-default:"postgres"`
}

// RedisConfig holds the job lock backend. An empty Addr selects the in-process lock.
type RedisConfig struct {
	Addr     string        `yaml:"addr"     env:"REDIS_ADDR"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db"       env:"REDIS_DB"       env-default:"0"`
	LockTTL  time.Duration `yaml:"lock_ttl" env:"REDIS_LOCK_TTL" env-default:"15m"`
}

// AIConfig holds the text analysis provider settings. An empty APIKey
// disables the analyze endpoint.
type AIConfig struct {
	APIKey    string        `yaml:"api_key"    env:"AI_API_KEY"`
	Model     string        `yaml:"model"      env:"AI_MODEL"      env-default:"claude-sonnet-4-5"`
	MaxTokens int64         `yaml:"max_tokens" env:"AI_MAX_TOKENS" env-default:"8192"`
	Timeout   time.Duration `yaml:"timeout"    env:"AI_TIMEOUT"    env-default:"90s"`
	BaseURL   string        `yaml:"base_url"   env:"AI_BASE_URL"`
}

// IntegrationConfig tunes the aggregation passes.
type IntegrationConfig struct {
	PageSize         int  `yaml:"page_size"          env:"INTEGRATION_PAGE_SIZE"          env-default:"100"`
	WriteBatchSize   int  `yaml:"write_batch_size"   env:"INTEGRATION_WRITE_BATCH_SIZE"   env-default:"20"`
	MaxExamples      int  `yaml:"max_examples"       env:"INTEGRATION_MAX_EXAMPLES"       env-default:"5"`
	RepairGroupLimit int  `yaml:"repair_group_limit" env:"INTEGRATION_REPAIR_GROUP_LIMIT" env-default:"20"`
	FlushConcurrency int  `yaml:"flush_concurrency"  env:"INTEGRATION_FLUSH_CONCURRENCY"  env-default:"4"`
	IncludeGuessed   bool `yaml:"include_guessed"    env:"INTEGRATION_INCLUDE_GUESSED"    env-default:"true"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// RateLimitConfig limits the AI-backed analyze endpoint per client IP.
type RateLimitConfig struct {
	AnalyzePerMinute int           `yaml:"analyze_per_minute" env:"RATELIMIT_ANALYZE_PER_MINUTE" env-default:"10"`
	CleanupInterval  time.Duration `yaml:"cleanup_interval"   env:"RATELIMIT_CLEANUP_INTERVAL"   env-default:"5m"`
}

// UsesPostgres reports whether the postgres store driver is selected.
func (c StoreConfig) UsesPostgres() bool {
	return strings.EqualFold(c.Driver, DriverPostgres)
}

// AnalyzeEnabled reports whether an AI provider is configured.
func (c AIConfig) AnalyzeEnabled() bool {
	return c.APIKey != ""
}
