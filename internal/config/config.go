// Package config loads the exporter configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/screener-export/pkg/collect"
	"github.com/Sternrassler/screener-export/pkg/logging"
	"github.com/Sternrassler/screener-export/pkg/scan"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Config is the exporter configuration.
type Config struct {
	ScanURL        string
	PageURL        string
	UserAgent      string
	SortBy         string
	PageSize       int
	PageDelay      time.Duration
	ProbeDelay     time.Duration
	RequestTimeout time.Duration
	RateLimit      float64
	MaxRetries     int

	OutputDir     string
	OutputPreview int

	// RedisURL enables the probe cache when set: "host:port" or a redis:// URL.
	RedisURL      string
	ProbeCacheTTL time.Duration

	LogLevel  string
	LogPretty bool

	// MetricsAddr serves /metrics while running when set.
	MetricsAddr string
}

// Load reads an optional .env file (or the given files), then the environment.
// Malformed values are logged and replaced by their defaults.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil {
		log.Debug().Err(err).Msg("No .env file loaded, using environment and defaults")
	}

	defaults := scan.DefaultConfig()
	runner := collect.DefaultRunnerConfig()

	cfg := &Config{
		ScanURL:        getEnv("SCAN_URL", defaults.URL),
		PageURL:        getEnv("SCAN_PAGE_URL", defaults.Referer),
		UserAgent:      getEnv("SCAN_USER_AGENT", defaults.UserAgent),
		SortBy:         getEnv("SCAN_SORT_BY", defaults.SortBy),
		PageSize:       getEnvAsInt("SCAN_PAGE_SIZE", runner.PageSize),
		PageDelay:      getEnvAsDuration("SCAN_PAGE_DELAY", runner.PageDelay),
		ProbeDelay:     getEnvAsDuration("SCAN_PROBE_DELAY", runner.ProbeDelay),
		RequestTimeout: getEnvAsDuration("SCAN_REQUEST_TIMEOUT", defaults.Timeout),
		RateLimit:      getEnvAsFloat("SCAN_RATE_LIMIT", defaults.RateLimit),
		MaxRetries:     getEnvAsInt("SCAN_MAX_RETRIES", defaults.MaxRetries),

		OutputDir:     getEnv("OUTPUT_DIR", "."),
		OutputPreview: getEnvAsInt("OUTPUT_PREVIEW", 0),

		RedisURL:      getEnv("REDIS_URL", ""),
		ProbeCacheTTL: getEnvAsDuration("PROBE_CACHE_TTL", 24*time.Hour),

		LogLevel:  getEnv("LOG_LEVEL", string(logging.LevelInfo)),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),

		MetricsAddr: getEnv("METRICS_ADDR", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	var errs []error

	if c.ScanURL == "" {
		errs = append(errs, errors.New("SCAN_URL is required"))
	}
	if c.UserAgent == "" {
		errs = append(errs, errors.New("SCAN_USER_AGENT is required"))
	}
	if c.SortBy == "" {
		errs = append(errs, errors.New("SCAN_SORT_BY is required"))
	}
	if c.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("SCAN_PAGE_SIZE must be > 0 (got %d)", c.PageSize))
	}
	if c.PageDelay < 0 || c.ProbeDelay < 0 {
		errs = append(errs, errors.New("SCAN_PAGE_DELAY and SCAN_PROBE_DELAY must be >= 0"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SCAN_REQUEST_TIMEOUT must be > 0 (got %s)", c.RequestTimeout))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("SCAN_RATE_LIMIT must be >= 0 (got %g)", c.RateLimit))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("SCAN_MAX_RETRIES must be >= 0 (got %d)", c.MaxRetries))
	}
	if !logging.ValidLevel(c.LogLevel) {
		errs = append(errs, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.LogLevel))
	}

	return errors.Join(errs...)
}

// Scan returns the scan client configuration.
func (c *Config) Scan() scan.Config {
	cfg := scan.DefaultConfig()
	cfg.URL = c.ScanURL
	cfg.Referer = c.PageURL
	cfg.UserAgent = c.UserAgent
	cfg.SortBy = c.SortBy
	cfg.Timeout = c.RequestTimeout
	cfg.RateLimit = c.RateLimit
	cfg.MaxRetries = c.MaxRetries
	return cfg
}

// Runner returns the collection runner configuration.
func (c *Config) Runner() collect.RunnerConfig {
	return collect.RunnerConfig{
		PageSize:   c.PageSize,
		PageDelay:  c.PageDelay,
		ProbeDelay: c.ProbeDelay,
	}
}

// Logging returns the logger configuration.
func (c *Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(strings.ToLower(c.LogLevel))
	cfg.Pretty = c.LogPretty
	return cfg
}

// RedisOptions returns the Redis options for the probe cache, nil when disabled.
func (c *Config) RedisOptions() (*redis.Options, error) {
	if c.RedisURL == "" {
		return nil, nil
	}
	if strings.HasPrefix(c.RedisURL, "redis://") || strings.HasPrefix(c.RedisURL, "rediss://") {
		opts, err := redis.ParseURL(c.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return opts, nil
	}
	return &redis.Options{Addr: c.RedisURL}, nil
}

func getEnv(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("Invalid integer, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Float64("default", defaultValue).Msg("Invalid number, using default")
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Dur("default", defaultValue).Msg("Invalid duration, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Bool("default", defaultValue).Msg("Invalid boolean, using default")
		return defaultValue
	}
	return value
}
