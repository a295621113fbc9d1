package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the car specification service.
type Config struct {
	HTTPPort string
	LogLevel string
	Database DatabaseConfig
	Hasher   HasherConfig
	Redis    RedisConfig
	Scraper  ScraperConfig
	Ingest   IngestConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// HasherConfig holds Argon2id parameters for API key hashing
type HasherConfig struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// RedisConfig holds Redis connection settings. Address left empty selects
// the in-process queue instead of Redis.
type RedisConfig struct {
	Address   string
	Password  string
	DB        int
	QueueName string
}

// ScraperConfig holds crawl settings
type ScraperConfig struct {
	ListingURL        string
	CarLimit          int
	RequestsPerSecond float64
	Burst             int
	MaxRetries        int
	RequestTimeout    time.Duration
	UserAgent         string
}

// IngestConfig holds ingest worker settings
type IngestConfig struct {
	BatchSize int
	PollWait  time.Duration
}

func getEnvInt(key string, defaultValue int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}

func getEnvFloat(key string, defaultValue float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	floatVal, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultValue
	}
	return floatVal
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(val)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getEnvString(key string, defaultValue string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg := &Config{
		HTTPPort: getEnvString("HTTP_PORT", "8080"),
		LogLevel: getEnvString("LOG_LEVEL", "info"),
		Database: DatabaseConfig{
			URL:             dbURL,
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 1*time.Minute),
		},
		Hasher: HasherConfig{
			Memory:      uint32(getEnvInt("HASHER_MEMORY_KB", 64*1024)),
			Iterations:  uint32(getEnvInt("HASHER_ITERATIONS", 3)),
			Parallelism: uint8(getEnvInt("HASHER_PARALLELISM", 2)),
			SaltLength:  uint32(getEnvInt("HASHER_SALT_LENGTH", 16)),
			KeyLength:   uint32(getEnvInt("HASHER_KEY_LENGTH", 32)),
		},
		Redis: RedisConfig{
			Address:   getEnvString("REDIS_ADDRESS", ""),
			Password:  getEnvString("REDIS_PASSWORD", ""),
			DB:        getEnvInt("REDIS_DB", 0),
			QueueName: getEnvString("REDIS_QUEUE_NAME", "carspec:ingest"),
		},
		Scraper: ScraperConfig{
			ListingURL:        getEnvString("SCRAPER_LISTING_URL", ""),
			CarLimit:          getEnvInt("SCRAPER_CAR_LIMIT", 50),
			RequestsPerSecond: getEnvFloat("SCRAPER_REQUESTS_PER_SECOND", 1),
			Burst:             getEnvInt("SCRAPER_BURST", 5),
			MaxRetries:        getEnvInt("SCRAPER_MAX_RETRIES", 3),
			RequestTimeout:    getEnvDuration("SCRAPER_REQUEST_TIMEOUT", 30*time.Second),
			UserAgent:         getEnvString("SCRAPER_USER_AGENT", "carspec/1.0"),
		},
		Ingest: IngestConfig{
			BatchSize: getEnvInt("INGEST_BATCH_SIZE", 10),
			PollWait:  getEnvDuration("INGEST_POLL_WAIT", 2*time.Second),
		},
	}

	return cfg, nil
}
