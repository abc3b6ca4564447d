// Package metrics exposes the exporter's Prometheus metrics.
// All metrics are defined in their respective packages (scan, schema, collect,
// cache, ratelimit, discovery) to maintain modularity and avoid circular
// dependencies; this package documents them and serves them over HTTP.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Registry is the default Prometheus registry used by the exporter.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Server serves /metrics while a run is in progress.
type Server struct {
	srv      *http.Server
	listener net.Listener
}

// Listen binds addr and returns a server ready to Serve.
func Listen(addr string) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())

	return &Server{
		srv: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		listener: ln,
	}, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve serves until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(s.listener)
	}()

	log.Info().Str("addr", s.Addr()).Msg("Serving metrics")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

// Metrics Documentation
//
// Request Metrics (pkg/scan):
//   - scan_requests_total{kind, status} (Counter): Requests by kind (probe, page, document) and HTTP status
//   - scan_request_duration_seconds{kind} (Histogram): Request duration by kind
//   - scan_errors_total{class} (Counter): Errors by class (client, server, rate_limit, network)
//
// Retry Metrics (pkg/scan, only with SCAN_MAX_RETRIES > 0):
//   - scan_retries_total{error_class} (Counter): Retry attempts by error class
//   - scan_retry_backoff_seconds{error_class} (Histogram): Backoff duration by error class
//   - scan_retry_exhausted_total{error_class} (Counter): Requests that exhausted max retries
//
// Negotiation Metrics (pkg/schema, pkg/discovery):
//   - scan_columns_rejected_total{job} (Counter): Columns dropped during negotiation
//   - scan_column_discovery_total{result} (Counter): Discovery attempts (discovered, fallback)
//
// Collection Metrics (pkg/collect):
//   - scan_pages_fetched_total{job} (Counter): Page requests
//   - scan_rows_collected_total{job} (Counter): Records collected
//   - scan_jobs_total{job, result} (Counter): Finished jobs (success, failure)
//   - scan_job_duration_seconds{job} (Histogram): Job duration
//
// Probe Cache Metrics (pkg/cache):
//   - scan_probe_cache_hits_total (Counter): Verdicts served from Redis
//   - scan_probe_cache_misses_total (Counter): Probes sent to the endpoint
//   - scan_probe_cache_errors_total{operation} (Counter): Redis failures
//
// Pacing Metrics (pkg/ratelimit):
//   - scan_pause_seconds_total{reason} (Counter): Time spent in fixed pauses (page, probe)
//   - scan_rate_limit_throttles_total (Counter): Requests delayed by the rate limiter
//
// Example Prometheus Queries:
//
//   # Probe Cache Hit Rate
//   sum(rate(scan_probe_cache_hits_total[5m])) /
//   (sum(rate(scan_probe_cache_hits_total[5m])) + sum(rate(scan_probe_cache_misses_total[5m])))
//
//   # Rows per Job
//   sum by (job) (scan_rows_collected_total)
//
//   # P95 Page Latency
//   histogram_quantile(0.95, rate(scan_request_duration_seconds_bucket{kind="page"}[5m]))
