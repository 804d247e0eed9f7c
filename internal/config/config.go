// Package config provides configuration management for the lending engine.
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
	Server    ServerConfig
	Database  DatabaseConfig
	Ledger    LedgerConfig
	Scoring   ScoringConfig
	Pricing   PricingConfig
	Sweeper   SweeperConfig
	RateLimit RateLimitConfig
	Logging   LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Postgres PostgresConfig
	Redis    RedisConfig
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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host           string
	Port           string
	Password       string
	DB             int
	MaxConnections int
}

// LedgerConfig holds ledger RPC and confirmation protocol configuration
type LedgerConfig struct {
	RPCEndpoint      string
	RequestTimeout   time.Duration
	RequestsPerSec   float64
	HistoryWindow    int           // Max transactions sampled for activity scoring
	ConfirmInterval  time.Duration // Poll interval for transaction confirmation
	ConfirmTimeout   time.Duration // Overall confirmation budget
	CustodialAddress string        // Platform address receiving repayments and deposits
}

// ScoringConfig holds credit scoring configuration
type ScoringConfig struct {
	DefaultBorrowerHistory float64       // Borrower history score for users with no loan history
	ScoreCacheTTL          time.Duration // TTL for cached credit scores
}

// PricingConfig holds token price API configuration
type PricingConfig struct {
	Endpoint string
	CacheTTL time.Duration
}

// SweeperConfig holds due-date sweeper configuration
type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

// RateLimitConfig holds rate limiting configuration (requests per second)
type RateLimitConfig struct {
	WalletRPS int
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
		// .env file is optional - environment variables can be set directly
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			Postgres: PostgresConfig{
				Host:           getEnv("POSTGRES_HOST", "localhost"),
				Port:           getEnv("POSTGRES_PORT", "5432"),
				Database:       getEnv("POSTGRES_DB", "lending_engine"),
				User:           getEnv("POSTGRES_USER", "lending"),
				Password:       getEnv("POSTGRES_PASSWORD", ""),
				MaxConnections: getEnvAsInt("POSTGRES_MAX_CONNECTIONS", 50),
			},
			Redis: RedisConfig{
				Host:           getEnv("REDIS_HOST", "localhost"),
				Port:           getEnv("REDIS_PORT", "6379"),
				Password:       getEnv("REDIS_PASSWORD", ""),
				DB:             getEnvAsInt("REDIS_DB", 0),
				MaxConnections: getEnvAsInt("REDIS_MAX_CONNECTIONS", 20),
			},
		},
		Ledger: LedgerConfig{
			RPCEndpoint:      getEnv("LEDGER_RPC_ENDPOINT", "http://localhost:8899"),
			RequestTimeout:   getEnvAsDuration("LEDGER_REQUEST_TIMEOUT", 10*time.Second),
			RequestsPerSec:   getEnvAsFloat("LEDGER_REQUESTS_PER_SEC", 5),
			HistoryWindow:    getEnvAsInt("LEDGER_HISTORY_WINDOW", 20),
			ConfirmInterval:  getEnvAsDuration("CONFIRM_POLL_INTERVAL", time.Second),
			ConfirmTimeout:   getEnvAsDuration("CONFIRM_TIMEOUT", 8*time.Second),
			CustodialAddress: getEnv("CUSTODIAL_ADDRESS", ""),
		},
		Scoring: ScoringConfig{
			DefaultBorrowerHistory: getEnvAsFloat("SCORING_DEFAULT_BORROWER_HISTORY", 80),
			ScoreCacheTTL:          getEnvAsDuration("SCORING_CACHE_TTL", 5*time.Minute),
		},
		Pricing: PricingConfig{
			Endpoint: getEnv("PRICE_API_ENDPOINT", ""),
			CacheTTL: getEnvAsDuration("PRICE_CACHE_TTL", time.Minute),
		},
		Sweeper: SweeperConfig{
			Interval:  getEnvAsDuration("SWEEPER_INTERVAL", 10*time.Minute),
			BatchSize: getEnvAsInt("SWEEPER_BATCH_SIZE", 100),
		},
		RateLimit: RateLimitConfig{
			WalletRPS: getEnvAsInt("RATE_LIMIT_WALLET_RPS", 10),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	return config, nil
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
