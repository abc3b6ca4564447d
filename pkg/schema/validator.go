// Package schema negotiates the column list for a scan job against an
// endpoint that rejects a whole request when any column is unsupported.
//
// Columns are probed one at a time, each together with the columns already
// accepted, so a rejection pins down exactly the column that caused it. The
// negotiated list preserves the desired order.
package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/screener-export/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrSchemaNegotiation is returned when no desired column was accepted.
var ErrSchemaNegotiation = errors.New("schema negotiation failed: no column accepted")

var scanColumnsRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scan_columns_rejected_total",
	Help: "Total columns rejected during schema negotiation by job",
}, []string{"job"})

// Prober asks the endpoint whether it accepts a column list as a whole.
// A rejection is a verdict (false, nil); err is reserved for transport failures.
type Prober interface {
	Probe(ctx context.Context, columns []string) (bool, error)
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, columns []string) (bool, error)

// Probe calls f(ctx, columns).
func (f ProberFunc) Probe(ctx context.Context, columns []string) (bool, error) {
	return f(ctx, columns)
}

// Result is the outcome of a negotiation.
type Result struct {
	Accepted []string
	Rejected []string
}

// Config holds validator configuration.
type Config struct {
	// Job labels logs and metrics.
	Job string
	// ProbeDelay is the pause after a rejected probe.
	ProbeDelay time.Duration
}

// DefaultConfig returns the default validator configuration.
func DefaultConfig() Config {
	return Config{ProbeDelay: 100 * time.Millisecond}
}

// Validator negotiates a schema with a Prober.
type Validator struct {
	prober Prober
	pacer  *ratelimit.Pacer
	job    string
	logger zerolog.Logger
}

// NewValidator creates a validator.
func NewValidator(prober Prober, cfg Config) *Validator {
	return &Validator{
		prober: prober,
		pacer:  ratelimit.NewPacer(ratelimit.ReasonProbe, cfg.ProbeDelay),
		job:    cfg.Job,
		logger: log.With().Str("component", "schema").Str("job", cfg.Job).Logger(),
	}
}

// Negotiate probes desired columns in order and returns the accepted subset.
// It issues exactly one probe per desired column.
func (v *Validator) Negotiate(ctx context.Context, desired []string) (Result, error) {
	var result Result
	accepted := make([]string, 0, len(desired))

	for _, column := range desired {
		candidate := make([]string, len(accepted), len(accepted)+1)
		copy(candidate, accepted)
		candidate = append(candidate, column)

		ok, err := v.prober.Probe(ctx, candidate)
		if err != nil {
			return result, fmt.Errorf("probe column %q: %w", column, err)
		}

		if ok {
			accepted = candidate
			v.logger.Debug().Str("column", column).Msg("Column accepted")
			continue
		}

		result.Rejected = append(result.Rejected, column)
		scanColumnsRejectedTotal.WithLabelValues(v.job).Inc()
		v.logger.Warn().Str("column", column).Msg("Dropping unsupported column")

		if err := v.pacer.Pause(ctx); err != nil {
			return result, err
		}
	}

	if len(accepted) == 0 {
		return result, ErrSchemaNegotiation
	}

	result.Accepted = accepted
	return result, nil
}
