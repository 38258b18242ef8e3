package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	Worker   WorkerConfig
	Pipeline PipelineConfig
	Metrics  MetricsConfig
}

// DatabaseConfig holds database-related configuration. When SQLitePath is
// set it takes precedence over DSN and the embedded store is used.
type DatabaseConfig struct {
	DSN             string
	SQLitePath      string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// RedisConfig holds the queue broker connection settings.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
}

// WorkerConfig holds queue/worker-related configuration.
type WorkerConfig struct {
	Concurrency        int
	MaxAttempts        int
	RetryBaseDelay     time.Duration
	JobTimeout         time.Duration
	CompletedRetention time.Duration
}

// PipelineConfig holds extraction and chunking tunables.
type PipelineConfig struct {
	WordsPerPage  int
	MinTextLength int
}

// MetricsConfig holds the observability endpoint settings.
type MetricsConfig struct {
	Addr string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			SQLitePath:      getEnv("SQLITE_PATH", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Worker: WorkerConfig{
			Concurrency:        getEnvAsInt("WORKER_CONCURRENCY", 4),
			MaxAttempts:        getEnvAsInt("JOB_MAX_ATTEMPTS", 3),
			RetryBaseDelay:     getEnvAsDuration("JOB_RETRY_BASE_DELAY", 2*time.Second),
			JobTimeout:         getEnvAsDuration("JOB_TIMEOUT", 10*time.Minute),
			CompletedRetention: getEnvAsDuration("JOB_COMPLETED_RETENTION", 24*time.Hour),
		},
		Pipeline: PipelineConfig{
			WordsPerPage:  getEnvAsInt("WORDS_PER_PAGE", 500),
			MinTextLength: getEnvAsInt("MIN_TEXT_LENGTH", 100),
		},
		Metrics: MetricsConfig{
			Addr: getEnv("METRICS_ADDR", ":9090"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Database.DSN == "" && c.Database.SQLitePath == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL or SQLITE_PATH is required", ErrInvalidInput)
	}
	if c.Redis.Addr == "" {
		return NewAppError("CONFIG_ERROR", "REDIS_ADDR is required", ErrInvalidInput)
	}
	if c.Worker.MaxAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "JOB_MAX_ATTEMPTS must be at least 1", ErrInvalidInput)
	}
	if c.Worker.Concurrency < 1 {
		return NewAppError("CONFIG_ERROR", "WORKER_CONCURRENCY must be at least 1", ErrInvalidInput)
	}
	if c.Pipeline.WordsPerPage < 1 {
		return NewAppError("CONFIG_ERROR", "WORDS_PER_PAGE must be positive", ErrInvalidInput)
	}
	return nil
}
