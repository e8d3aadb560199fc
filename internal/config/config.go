package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// DatabaseURL enables the Postgres-backed store and registry. When
	// empty the service runs with in-memory implementations.
	DatabaseURL string

	// USGS event catalog.
	USGSBaseURL  string
	USGSTimeout  time.Duration
	MinMagnitude float64

	// Job runner.
	JobWorkers   int
	JobQueueSize int
	JobRetention time.Duration

	// Read-through entry cache: number of cities whose entry lists are
	// kept in process memory.
	EntryCacheSize int
}

// Load reads configuration from the environment (and an optional .env file),
// applying defaults where unset.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	usgsTimeout, err := parseDuration("USGS_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	jobRetention, err := parseDuration("JOB_RETENTION", time.Hour)
	if err != nil {
		return nil, err
	}

	minMagnitude, err := parseFloat("MIN_MAGNITUDE", 5.0)
	if err != nil {
		return nil, err
	}
	if minMagnitude < 0 {
		return nil, fmt.Errorf("MIN_MAGNITUDE must not be negative")
	}

	jobWorkers, err := parseInt("JOB_WORKERS", 4, 1, 64)
	if err != nil {
		return nil, err
	}
	jobQueueSize, err := parseInt("JOB_QUEUE_SIZE", 64, 1, 4096)
	if err != nil {
		return nil, err
	}
	entryCacheSize, err := parseInt("ENTRY_CACHE_SIZE", 256, 1, 100000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		USGSBaseURL:     envOrDefault("USGS_BASE_URL", "https://earthquake.usgs.gov/fdsnws/event/1/query.geojson"),
		USGSTimeout:     usgsTimeout,
		MinMagnitude:    minMagnitude,
		JobWorkers:      jobWorkers,
		JobQueueSize:    jobQueueSize,
		JobRetention:    jobRetention,
		EntryCacheSize:  entryCacheSize,
	}

	if cfg.USGSBaseURL == "" {
		return nil, fmt.Errorf("USGS_BASE_URL is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func parseInt(key string, fallback, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: %q (want %d..%d)", key, s, min, max)
	}
	return n, nil
}
