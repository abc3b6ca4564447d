package cache

import (
	"context"
	"errors"
	"time"

	"github.com/Sternrassler/screener-export/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultTTL is how long a verdict is trusted when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// Prober asks the endpoint whether it accepts a column list.
type Prober interface {
	Probe(ctx context.Context, columns []string) (bool, error)
}

// Store persists probe verdicts. *Manager is the Redis implementation.
type Store interface {
	Get(ctx context.Context, key ProbeKey) (*ProbeEntry, error)
	Set(ctx context.Context, key ProbeKey, entry *ProbeEntry) error
}

// CachingProber serves probe verdicts from a Store and falls through to the
// wrapped Prober on a miss.
type CachingProber struct {
	next     Prober
	store    Store
	endpoint string
	ttl      time.Duration
	logger   zerolog.Logger
}

// NewCachingProber wraps next. ttl <= 0 uses DefaultTTL.
func NewCachingProber(next Prober, store Store, endpoint string, ttl time.Duration) *CachingProber {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachingProber{
		next:     next,
		store:    store,
		endpoint: endpoint,
		ttl:      ttl,
		logger:   logging.NewLogger("probe-cache"),
	}
}

// Probe returns the cached verdict for columns, probing and caching it on a miss.
// Cache failures are logged and never fail the probe.
func (p *CachingProber) Probe(ctx context.Context, columns []string) (bool, error) {
	key := ProbeKey{Endpoint: p.endpoint, Columns: columns}

	entry, err := p.store.Get(ctx, key)
	switch {
	case err == nil:
		CacheHits.Inc()
		p.logger.Debug().
			Strs("columns", columns).
			Bool("accepted", entry.Accepted).
			Time("checked_at", entry.CheckedAt).
			Msg("Probe verdict from cache")
		return entry.Accepted, nil
	case errors.Is(err, ErrCacheMiss):
		CacheMisses.Inc()
	default:
		CacheMisses.Inc()
		p.logger.Warn().Err(err).Msg("Probe cache lookup failed")
	}

	accepted, err := p.next.Probe(ctx, columns)
	if err != nil {
		return false, err
	}

	if err := p.store.Set(ctx, key, NewProbeEntry(accepted, p.ttl)); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to cache probe verdict")
	}

	return accepted, nil
}
