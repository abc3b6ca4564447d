// Package ratelimit keeps scan traffic polite: a fixed-delay Pacer between
// pages and after rejected probes, and a token-bucket Limiter on raw requests.
package ratelimit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pause reasons used as metric labels.
const (
	ReasonPage  = "page"
	ReasonProbe = "probe"
)

// Prometheus metrics for pacing and throttling.
var (
	scanPauseSecondsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_pause_seconds_total",
		Help: "Total time spent in fixed politeness pauses by reason",
	}, []string{"reason"})

	scanRateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scan_rate_limit_throttles_total",
		Help: "Total number of requests delayed by the request rate limiter",
	})
)

// Pacer sleeps for a fixed delay. It is a crude rate limiter, not a correctness mechanism.
// A zero or negative delay makes Pause return immediately.
type Pacer struct {
	reason string
	delay  time.Duration
}

// NewPacer creates a pacer labelled with reason.
func NewPacer(reason string, delay time.Duration) *Pacer {
	return &Pacer{reason: reason, delay: delay}
}

// Delay returns the configured pause length.
func (p *Pacer) Delay() time.Duration {
	if p == nil {
		return 0
	}
	return p.delay
}

// Pause blocks for the configured delay or until ctx is done.
func (p *Pacer) Pause(ctx context.Context) error {
	if p == nil || p.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		scanPauseSecondsTotal.WithLabelValues(p.reason).Add(p.delay.Seconds())
		return nil
	}
}
