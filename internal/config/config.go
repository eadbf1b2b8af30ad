// Package config provides configuration management for the figure tracker.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Assembly AssemblyConfig
	Cache    CacheConfig
	Sync     SyncConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port           string
	Host           string
	RequestsPerSec int // per-client API rate limit
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres   PostgresConfig
	ClickHouse ClickHouseConfig
	Redis      RedisConfig
}

// PostgresConfig holds Postgres configuration
type PostgresConfig struct {
	Host           string
	Port           string
	Database       string
	User           string
	Password       string
	MaxConnections int
}

// ClickHouseConfig holds ClickHouse configuration for the statement archive
type ClickHouseConfig struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// AssemblyConfig holds upstream assembly open API configuration
type AssemblyConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration // per-fetch timeout; a timed-out fetch fails that key only
	RequestsPerSec float64       // client-side rate limit toward the upstream API
}

// CacheConfig holds cache TTL policy.
// Entity reads are far more frequent than list/search reads, so the entity
// TTL is much longer; derived list/search entries are invalidated on every
// write anyway.
type CacheConfig struct {
	EntityTTL time.Duration
	ListTTL   time.Duration
	SearchTTL time.Duration
}

// SyncConfig holds sync pipeline configuration
type SyncConfig struct {
	Workers         int           // bounded worker pool size for async batch sync
	PageSize        int           // page size for store-driven paged sync
	PagePause       time.Duration // pause between pages to bound store load
	RefreshInterval time.Duration // background full-refresh interval
	JobRetention    time.Duration // how long completed job statuses are kept
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() (*Config, error) {
	// Load .env file (optional in production)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:           getEnv("SERVER_PORT", "8080"),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			RequestsPerSec: getEnvAsInt("SERVER_REQUESTS_PER_SEC", 20),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "figure_tracker"),
				User:           getEnv("POSTGRES_USER", "tracker"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			ClickHouse: ClickHouseConfig{
				Host:     getEnv("CLICKHOUSE_HOST", "localhost"),
				Port:     getEnv("CLICKHOUSE_PORT", "9000"),
				Database: getEnv("CLICKHOUSE_DB", "figure_tracker"),
				User:     getEnv("CLICKHOUSE_USER", "default"),
				Password: getEnv("CLICKHOUSE_PASSWORD", ""),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 50),
			},
		},
		Assembly: AssemblyConfig{
			BaseURL:        getEnv("ASSEMBLY_API_BASE_URL", "https://open.assembly.go.kr/portal/openapi"),
			APIKey:         getEnv("ASSEMBLY_API_KEY", ""),
			RequestTimeout: getEnvAsDuration("ASSEMBLY_REQUEST_TIMEOUT", 30*time.Second),
			RequestsPerSec: getEnvAsFloat("ASSEMBLY_REQUESTS_PER_SEC", 5),
		},
		Cache: CacheConfig{
			EntityTTL: getEnvAsDuration("CACHE_ENTITY_TTL", time.Hour),
			ListTTL:   getEnvAsDuration("CACHE_LIST_TTL", 30*time.Minute),
			SearchTTL: getEnvAsDuration("CACHE_SEARCH_TTL", 10*time.Minute),
		},
		Sync: SyncConfig{
			Workers:         getEnvAsInt("SYNC_WORKERS", 8),
			PageSize:        getEnvAsInt("SYNC_PAGE_SIZE", 50),
			PagePause:       getEnvAsDuration("SYNC_PAGE_PAUSE", 100*time.Millisecond),
			RefreshInterval: getEnvAsDuration("SYNC_REFRESH_INTERVAL", 6*time.Hour),
			JobRetention:    getEnvAsDuration("SYNC_JOB_RETENTION", time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
}

// PostgresURL builds a connection URL for migrations.
func (c *PostgresConfig) PostgresURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsFloat gets an environment variable as a float with a default value
func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
