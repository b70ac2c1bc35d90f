// Package config loads application configuration from the environment.
package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	// Application
	AppEnv   string
	LogLevel string

	// HTTP
	HTTPAddr            string
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	ShutdownTimeout     time.Duration
	TrustedUserIDHeader string

	// Database
	DatabaseURL string
	SQLitePath  string

	// Redis
	RedisURL            string
	LeaderboardCacheTTL time.Duration

	// RabbitMQ
	RabbitMQURL string

	// External code execution service
	ExecutionURL     string
	ExecutionTimeout time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPAddr:            getEnv("HTTP_ADDR", "0.0.0.0:8080"),
		ReadTimeout:         getDurationEnv("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:        getDurationEnv("HTTP_WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout:     getDurationEnv("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		TrustedUserIDHeader: getEnv("AUTH_USER_ID_HEADER", "X-Atelier-User-ID"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		SQLitePath:  getEnv("SQLITE_PATH", ""),

		RedisURL:            getEnv("REDIS_URL", ""),
		LeaderboardCacheTTL: getDurationEnv("LEADERBOARD_CACHE_TTL", 30*time.Second),

		RabbitMQURL: getEnv("RABBITMQ_URL", ""),

		ExecutionURL:     getEnv("EXECUTION_URL", ""),
		ExecutionTimeout: getDurationEnv("EXECUTION_TIMEOUT", 15*time.Second),
	}

	return cfg, nil
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

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
