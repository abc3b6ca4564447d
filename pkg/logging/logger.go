// Package logging provides structured logging configuration using zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LogLevel represents the logging level.
type LogLevel string

const (
	// LevelDebug logs probe and page flow and above.
	LevelDebug LogLevel = "debug"

	// LevelInfo logs job progress and above.
	LevelInfo LogLevel = "info"

	// LevelWarn logs warning messages and above.
	LevelWarn LogLevel = "warn"

	// LevelError logs error messages only.
	LevelError LogLevel = "error"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum log level to output.
	Level LogLevel

	// Pretty enables human-readable console output (default: false for JSON).
	Pretty bool

	// Output is the writer to output logs to (default: os.Stderr).
	Output io.Writer
}

// DefaultConfig returns a default logger configuration.
func DefaultConfig() Config {
	return Config{
		Level:  LevelInfo,
		Pretty: false,
		Output: os.Stderr,
	}
}

// Setup configures the global zerolog logger.
func Setup(cfg Config) zerolog.Logger {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	logger := zerolog.New(out).With().Timestamp().Logger()
	log.Logger = logger

	return logger
}

// ValidLevel reports whether s names a known level.
func ValidLevel(s string) bool {
	switch strings.ToLower(s) {
	case "debug", "info", "warn", "warning", "error":
		return true
	}
	return false
}

// parseLevel converts LogLevel to zerolog.Level.
func parseLevel(level LogLevel) zerolog.Level {
	switch strings.ToLower(string(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger creates a new logger with the given component name.
func NewLogger(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// Log Level Guidelines:
//
// Debug: Detailed information for debugging
//   - Probe verdicts (accepted columns, cache hits)
//   - Page fetches (offset, page size, items, total)
//   - Collection state transitions (from, to)
//   - Rate limiter waits
//
// Info: Normal operation events
//   - Job start and finish ("Saved N rows to <file>")
//   - Negotiated column list ("Using columns")
//   - Metrics server startup
//
// Warn: Warning conditions that don't prevent operation
//   - Rejected columns (dropped from the schema)
//   - Retry attempts
//   - Probe cache errors (fallback to direct probe)
//   - Column discovery failures (fallback to defaults)
//   - Invalid configuration values (fallback to defaults)
//
// Error: Error conditions requiring attention
//   - Failed jobs (negotiation, transport, empty result)
//   - Network failures
//   - Configuration errors
//
// Context Fields:
//   - component: emitting package
//   - job: collection job name
//   - run_id: per-run UUID
//   - column: probed column
//   - offset, page_size, items, total: page position and size
//   - rows: collected record count
//   - status_code: HTTP status code
//   - error_class: Error classification (client, server, rate_limit, network)
//   - duration: Request or job duration
