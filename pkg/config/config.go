package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/felixgeelhaar/quadra/internal/shared/infrastructure/security"
	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string `toml:"app_env"`
	LogLevel string `toml:"log_level"`

	// Database. Empty selects the local SQLite file, "memory" keeps
	// everything in process.
	DatabaseURL      string `toml:"database_url"`
	DatabaseMaxConns int    `toml:"database_max_conns"`

	// HTTP
	HTTPAddr         string        `toml:"http_addr"`
	HTTPReadTimeout  time.Duration `toml:"http_read_timeout"`
	HTTPWriteTimeout time.Duration `toml:"http_write_timeout"`
	GRPCHealthAddr   string        `toml:"grpc_health_addr"`

	// Redis
	RedisURL      string        `toml:"redis_url"`
	StatsCacheTTL time.Duration `toml:"stats_cache_ttl"`

	// RabbitMQ
	RabbitMQURL string `toml:"rabbitmq_url"`

	// Outbox
	OutboxPollInterval     time.Duration `toml:"outbox_poll_interval"`
	OutboxBatchSize        int           `toml:"outbox_batch_size"`
	OutboxMaxRetries       int           `toml:"outbox_max_retries"`
	OutboxRetention        time.Duration `toml:"outbox_retention"`
	OutboxCleanupInterval  time.Duration `toml:"outbox_cleanup_interval"`
	OutboxProcessorEnabled bool          `toml:"outbox_processor_enabled"`

	// Publisher circuit breaker
	BreakerFailureThreshold int           `toml:"breaker_failure_threshold"`
	BreakerTimeout          time.Duration `toml:"breaker_timeout"`
	BreakerInterval         time.Duration `toml:"breaker_interval"`

	// Worker
	WorkerHealthAddr string `toml:"worker_health_addr"`

	// MCP
	MCPAddr      string `toml:"mcp_addr"`
	MCPAuthToken string `toml:"mcp_auth_token"`
}

// Load builds the configuration from defaults, an optional TOML file, a
// .env file in the working directory and finally environment variables.
// Later sources override earlier ones.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := security.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() *Config {
	return &Config{
		AppEnv:   "development",
		LogLevel: "info",

		DatabaseMaxConns: 10,

		HTTPAddr:         ":8080",
		HTTPReadTimeout:  15 * time.Second,
		HTTPWriteTimeout: 15 * time.Second,

		StatsCacheTTL: 30 * time.Second,

		OutboxPollInterval:     100 * time.Millisecond,
		OutboxBatchSize:        100,
		OutboxMaxRetries:       5,
		OutboxRetention:        7 * 24 * time.Hour,
		OutboxCleanupInterval:  time.Hour,
		OutboxProcessorEnabled: true,

		BreakerFailureThreshold: 5,
		BreakerTimeout:          30 * time.Second,
		BreakerInterval:         time.Minute,

		WorkerHealthAddr: ":8081",
		MCPAddr:          ":8082",
	}
}

func loadFromEnv(cfg *Config) {
	cfg.AppEnv = getEnv("APP_ENV", cfg.AppEnv)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.DatabaseMaxConns = getIntEnv("DATABASE_MAX_CONNS", cfg.DatabaseMaxConns)

	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.HTTPReadTimeout = getDurationEnv("HTTP_READ_TIMEOUT", cfg.HTTPReadTimeout)
	cfg.HTTPWriteTimeout = getDurationEnv("HTTP_WRITE_TIMEOUT", cfg.HTTPWriteTimeout)
	cfg.GRPCHealthAddr = getEnv("GRPC_HEALTH_ADDR", cfg.GRPCHealthAddr)

	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.StatsCacheTTL = getDurationEnv("STATS_CACHE_TTL", cfg.StatsCacheTTL)

	cfg.RabbitMQURL = getEnv("RABBITMQ_URL", cfg.RabbitMQURL)

	cfg.OutboxPollInterval = getDurationEnv("OUTBOX_POLL_INTERVAL", cfg.OutboxPollInterval)
	cfg.OutboxBatchSize = getIntEnv("OUTBOX_BATCH_SIZE", cfg.OutboxBatchSize)
	cfg.OutboxMaxRetries = getIntEnv("OUTBOX_MAX_RETRIES", cfg.OutboxMaxRetries)
	cfg.OutboxRetention = getDurationEnv("OUTBOX_RETENTION", cfg.OutboxRetention)
	cfg.OutboxCleanupInterval = getDurationEnv("OUTBOX_CLEANUP_INTERVAL", cfg.OutboxCleanupInterval)
	cfg.OutboxProcessorEnabled = getBoolEnv("OUTBOX_PROCESSOR_ENABLED", cfg.OutboxProcessorEnabled)

	cfg.BreakerFailureThreshold = getIntEnv("BREAKER_FAILURE_THRESHOLD", cfg.BreakerFailureThreshold)
	cfg.BreakerTimeout = getDurationEnv("BREAKER_TIMEOUT", cfg.BreakerTimeout)
	cfg.BreakerInterval = getDurationEnv("BREAKER_INTERVAL", cfg.BreakerInterval)

	cfg.WorkerHealthAddr = getEnv("WORKER_HEALTH_ADDR", cfg.WorkerHealthAddr)

	cfg.MCPAddr = getEnv("MCP_ADDR", cfg.MCPAddr)
	cfg.MCPAuthToken = getEnv("MCP_AUTH_TOKEN", cfg.MCPAuthToken)
}

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if c.OutboxBatchSize <= 0 {
		return fmt.Errorf("outbox batch size must be positive, got %d", c.OutboxBatchSize)
	}
	if c.OutboxMaxRetries <= 0 {
		return fmt.Errorf("outbox max retries must be positive, got %d", c.OutboxMaxRetries)
	}
	if c.OutboxPollInterval <= 0 {
		return fmt.Errorf("outbox poll interval must be positive, got %s", c.OutboxPollInterval)
	}
	if c.StatsCacheTTL < 0 {
		return fmt.Errorf("stats cache ttl must not be negative, got %s", c.StatsCacheTTL)
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
