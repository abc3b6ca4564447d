package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits tracks probe verdicts served from Redis
	CacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scan_probe_cache_hits_total",
			Help: "Total number of probe verdicts served from cache",
		},
	)

	// CacheMisses tracks probes that had to reach the endpoint
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "scan_probe_cache_misses_total",
			Help: "Total number of probe cache misses",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scan_probe_cache_errors_total",
			Help: "Total number of probe cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
