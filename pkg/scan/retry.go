package scan

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for retry operations.
var (
	scanRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})

	scanRetryBackoffSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scan_retry_backoff_seconds",
		Help:    "Backoff duration for retries by error class",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"error_class"})

	scanRetryExhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_retry_exhausted_total",
		Help: "Total number of times retry attempts were exhausted by error class",
	}, []string{"error_class"})
)

// RetryConfig holds the configuration for retry logic.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including the initial request).
	MaxAttempts int

	// InitialBackoff is the initial backoff duration.
	InitialBackoff time.Duration

	// MaxBackoff is the maximum backoff duration.
	MaxBackoff time.Duration

	// BackoffMultiplier is the multiplier for exponential backoff.
	BackoffMultiplier float64
}

// DefaultRetryConfig returns a configuration that never retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       1,
		InitialBackoff:    1 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// RetryConfigForErrorClass returns the backoff profile for an error class
// with the given number of retries on top of the initial attempt.
func RetryConfigForErrorClass(errorClass ErrorClass, maxRetries int) RetryConfig {
	cfg := DefaultRetryConfig()
	switch errorClass {
	case ErrorClassServer:
		cfg.InitialBackoff = 1 * time.Second
		cfg.MaxBackoff = 10 * time.Second
	case ErrorClassRateLimit:
		cfg.InitialBackoff = 5 * time.Second
		cfg.MaxBackoff = 60 * time.Second
	case ErrorClassNetwork:
		cfg.InitialBackoff = 2 * time.Second
		cfg.MaxBackoff = 30 * time.Second
	}
	if maxRetries > 0 {
		cfg.MaxAttempts = maxRetries + 1
	}
	return cfg
}

// attemptError tags an attempt failure with its class so the retry loop can decide.
type attemptError struct {
	class ErrorClass
	err   error
}

func (e *attemptError) Error() string { return e.err.Error() }
func (e *attemptError) Unwrap() error { return e.err }

// retryWithBackoff executes fn until it succeeds, fails with a non-transient
// class, or attempts run out. Backoff is exponential with ±20% jitter and is
// chosen from the class of the first failure.
func retryWithBackoff(ctx context.Context, maxRetries int, backoffFor func(ErrorClass, int) RetryConfig, fn func() error) error {
	var (
		lastErr error
		config  RetryConfig
		backoff time.Duration
		class   ErrorClass
	)

	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Info().
					Str("error_class", string(class)).
					Int("attempt", attempt).
					Msg("Request succeeded after retry")
			}
			return nil
		}
		lastErr = err

		var ae *attemptError
		if !errors.As(err, &ae) || !shouldRetry(ae.class) {
			return lastErr
		}

		if attempt == 1 {
			class = ae.class
			config = backoffFor(class, maxRetries)
			backoff = config.InitialBackoff
		}

		if attempt >= config.MaxAttempts {
			break
		}

		scanRetriesTotal.WithLabelValues(string(class)).Inc()

		jitter := time.Duration(float64(backoff) * (0.8 + rand.Float64()*0.4))
		scanRetryBackoffSeconds.WithLabelValues(string(class)).Observe(jitter.Seconds())

		log.Warn().
			Err(err).
			Str("error_class", string(class)).
			Int("attempt", attempt).
			Dur("backoff", jitter).
			Msg("Retrying scan request after backoff")

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrContextCancelled, ctx.Err())
		case <-time.After(jitter):
		}

		backoff = time.Duration(float64(backoff) * config.BackoffMultiplier)
		if backoff > config.MaxBackoff {
			backoff = config.MaxBackoff
		}
	}

	if config.MaxAttempts <= 1 {
		return lastErr
	}

	scanRetryExhaustedTotal.WithLabelValues(string(class)).Inc()
	log.Warn().
		Str("error_class", string(class)).
		Int("max_attempts", config.MaxAttempts).
		Msg("Retry attempts exhausted")

	return fmt.Errorf("%w after %d attempts: %w", ErrRetryExhausted, config.MaxAttempts, lastErr)
}
