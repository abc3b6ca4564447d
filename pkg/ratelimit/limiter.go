package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// throttleThreshold is the wait above which a request counts as throttled.
const throttleThreshold = time.Millisecond

// Limiter bounds the request rate against the scan endpoint.
type Limiter struct {
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// NewLimiter allows perSecond requests with the given burst.
// perSecond <= 0 disables limiting.
func NewLimiter(perSecond float64, burst int, logger zerolog.Logger) *Limiter {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst < 1 {
		burst = 1
	}
	return &Limiter{
		limiter: rate.NewLimiter(limit, burst),
		logger:  logger,
	}
}

// Wait blocks until a request may be sent.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil {
		return ctx.Err()
	}

	start := time.Now()
	if err := l.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	if waited := time.Since(start); waited > throttleThreshold {
		scanRateLimitThrottlesTotal.Inc()
		l.logger.Debug().
			Dur("waited", waited).
			Msg("Request throttled by rate limiter")
	}
	return nil
}

// Limit returns the configured requests per second (rate.Inf when unlimited).
func (l *Limiter) Limit() rate.Limit {
	if l == nil {
		return rate.Inf
	}
	return l.limiter.Limit()
}
