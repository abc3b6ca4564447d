// Package scan provides the HTTP transport for the screener scan endpoint:
// a browser-like session, the scan request payload, column probes, and
// classified transport errors.
package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"time"

	"github.com/Sternrassler/screener-export/pkg/logging"
	"github.com/Sternrassler/screener-export/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
)

// Request kinds used as metric labels.
const (
	KindProbe    = "probe"
	KindPage     = "page"
	KindDocument = "document"
)

// Prometheus metrics for scan client operations.
var (
	scanRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_requests_total",
		Help: "Total scan requests by kind and status",
	}, []string{"kind", "status"})

	scanRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scan_request_duration_seconds",
		Help:    "Scan request duration in seconds by kind",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"kind"})

	scanErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_errors_total",
		Help: "Total scan errors by class",
	}, []string{"class"})
)

// Config holds the client configuration.
type Config struct {
	// URL is the scan endpoint (POST).
	URL string

	// Referer and Origin are sent with every request; the endpoint expects
	// traffic that looks like it came from the screener page.
	Referer string
	Origin  string

	// UserAgent header (REQUIRED)
	UserAgent string

	// SortBy is the ranking column; results are always sorted descending.
	SortBy string

	// Timeout is the per-request deadline.
	Timeout time.Duration

	// RateLimit is the maximum requests per second (0 = unlimited).
	RateLimit float64

	// MaxRetries on transient failures (0 = never retry).
	MaxRetries int
}

// DefaultConfig returns the configuration for the US stock screener.
func DefaultConfig() Config {
	return Config{
		URL:        "https://scanner.tradingview.com/america/scan",
		Referer:    "https://www.tradingview.com/markets/stocks-usa/market-movers-all-stocks/",
		Origin:     "https://www.tradingview.com",
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64)",
		SortBy:     "market_cap_basic",
		Timeout:    30 * time.Second,
		RateLimit:  5,
		MaxRetries: 0,
	}
}

// Client is the scan endpoint client. It keeps cookies across requests like a browser session.
type Client struct {
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	backoffFor func(ErrorClass, int) RetryConfig
	config     Config
	logger     zerolog.Logger
}

// New creates a new scan client.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("scan url is required")
	}

	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	if cfg.SortBy == "" {
		return nil, fmt.Errorf("sort column is required")
	}

	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	logger := logging.NewLogger("scan-client")

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		limiter:    ratelimit.NewLimiter(cfg.RateLimit, 1, logger),
		backoffFor: RetryConfigForErrorClass,
		config:     cfg,
		logger:     logger,
	}, nil
}

// Endpoint returns the scan endpoint URL.
func (c *Client) Endpoint() string {
	return c.config.URL
}

// SortBy returns the ranking column.
func (c *Client) SortBy() string {
	return c.config.SortBy
}

// Scan posts a scan request and returns the raw response body.
// Any status >= 400 is returned as a *TransportError.
func (c *Client) Scan(ctx context.Context, req Request) ([]byte, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal scan request: %w", err)
	}

	resp, err := c.send(ctx, KindPage, http.MethodPost, c.config.URL, payload)
	if err != nil {
		return nil, err
	}
	if resp.status >= 400 {
		return nil, newStatusError(resp.status, resp.body)
	}
	return resp.body, nil
}

// Probe asks the endpoint whether it accepts columns together, using a
// single-row range. A 4xx status is a rejection, not an error. Rate limiting
// (429) and server errors (5xx) say nothing about the columns and are returned
// as a *TransportError, like network failures.
func (c *Client) Probe(ctx context.Context, columns []string) (bool, error) {
	payload, err := json.Marshal(NewRequest(columns, c.config.SortBy, 0, 1))
	if err != nil {
		return false, fmt.Errorf("marshal probe request: %w", err)
	}

	resp, err := c.send(ctx, KindProbe, http.MethodPost, c.config.URL, payload)
	if err != nil {
		return false, err
	}

	switch classifyStatus(resp.status) {
	case "":
		return true, nil
	case ErrorClassClient:
		return false, nil
	default:
		return false, newStatusError(resp.status, resp.body)
	}
}

// Fetch performs a GET with the session headers, e.g. for the screener page itself.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.send(ctx, KindDocument, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if resp.status >= 400 {
		return nil, newStatusError(resp.status, resp.body)
	}
	return resp.body, nil
}

type response struct {
	status int
	body   []byte
}

// send executes a request with rate limiting and optional retries.
// A final non-success status is returned as a response, not an error.
func (c *Client) send(ctx context.Context, kind, method, url string, payload []byte) (*response, error) {
	var resp *response

	err := retryWithBackoff(ctx, c.config.MaxRetries, c.backoffFor, func() error {
		r, err := c.attempt(ctx, kind, method, url, payload)
		if err != nil {
			return err
		}
		resp = r
		if class := classifyStatus(r.status); shouldRetry(class) {
			return &attemptError{class: class, err: newStatusError(r.status, r.body)}
		}
		return nil
	})
	if err != nil {
		var te *TransportError
		if resp != nil && errors.As(err, &te) && te.StatusCode != 0 {
			return resp, nil
		}
		if ae, ok := err.(*attemptError); ok {
			return nil, ae.err
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) attempt(ctx context.Context, kind, method, url string, payload []byte) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, payload != nil)

	c.logger.Debug().
		Str("kind", kind).
		Str("method", method).
		Str("url", url).
		Msg("Executing scan request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		scanRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		return nil, c.networkError(kind, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	scanRequestDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, c.networkError(kind, fmt.Errorf("read response body: %w", err))
	}

	scanRequestsTotal.WithLabelValues(kind, strconv.Itoa(resp.StatusCode)).Inc()

	if class := classifyStatus(resp.StatusCode); class != "" {
		scanErrorsTotal.WithLabelValues(string(class)).Inc()

		event := c.logger.Warn()
		if kind == KindProbe && class == ErrorClassClient {
			// a rejected probe is an expected verdict
			event = c.logger.Debug()
		}
		event.
			Str("kind", kind).
			Int("status_code", resp.StatusCode).
			Str("error_class", string(class)).
			Msg("Scan request returned error status")
	}

	return &response{status: resp.StatusCode, body: data}, nil
}

func (c *Client) networkError(kind string, err error) error {
	scanErrorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
	scanRequestsTotal.WithLabelValues(kind, "network_error").Inc()
	c.logger.Error().Err(err).Str("kind", kind).Msg("Scan request failed")

	return &attemptError{
		class: ErrorClassNetwork,
		err:   &TransportError{ErrorClass: ErrorClassNetwork, Err: err},
	}
}

func (c *Client) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	if c.config.Origin != "" {
		req.Header.Set("Origin", c.config.Origin)
	}
	if c.config.Referer != "" {
		req.Header.Set("Referer", c.config.Referer)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// SetRetryBackoff overrides the backoff profile (for testing).
func (c *Client) SetRetryBackoff(fn func(ErrorClass, int) RetryConfig) {
	c.backoffFor = fn
}
