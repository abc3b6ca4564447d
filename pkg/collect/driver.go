// Package collect drives collection jobs: schema negotiation, the paginated
// fetch loop, and record formatting, followed by export.
package collect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/screener-export/pkg/dataset"
	"github.com/Sternrassler/screener-export/pkg/format"
	"github.com/Sternrassler/screener-export/pkg/pagination"
	"github.com/Sternrassler/screener-export/pkg/ratelimit"
	"github.com/Sternrassler/screener-export/pkg/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrEmptyResult is returned when a collection finished without any record.
var ErrEmptyResult = errors.New("no rows fetched")

// State is a collection driver state.
type State int

const (
	StateNegotiating State = iota
	StateFetching
	StateDone
	StateFailed
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateNegotiating:
		return "negotiating"
	case StateFetching:
		return "fetching"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Negotiator settles the column schema for a job.
type Negotiator interface {
	Negotiate(ctx context.Context, desired []string) (schema.Result, error)
}

// PageFetcher fetches one page of rows for a schema.
type PageFetcher interface {
	FetchPage(ctx context.Context, schema dataset.Schema, start, size int) (*pagination.Page, error)
}

// Config holds driver configuration.
type Config struct {
	// Job labels logs and metrics.
	Job string
	// PageSize is the number of rows requested per page.
	PageSize int
	// PageDelay is the pause after every page.
	PageDelay time.Duration
}

// DefaultConfig returns the default paging configuration.
func DefaultConfig() Config {
	return Config{
		PageSize:  150,
		PageDelay: 200 * time.Millisecond,
	}
}

// Result is a finished collection.
type Result struct {
	Dataset *dataset.Dataset
	// Pages is the number of page requests made, including a final empty page.
	Pages int
	// Total is the first totalCount the server reported, nil if it never did.
	Total    *int
	Rejected []string
}

// Driver runs one collection job from negotiation to a complete dataset.
type Driver struct {
	negotiator Negotiator
	fetcher    PageFetcher
	table      format.Table
	config     Config
	pacer      *ratelimit.Pacer
	logger     zerolog.Logger
	state      State
}

// NewDriver creates a driver that formats records with table.
func NewDriver(negotiator Negotiator, fetcher PageFetcher, table format.Table, cfg Config) (*Driver, error) {
	if negotiator == nil || fetcher == nil {
		return nil, fmt.Errorf("negotiator and page fetcher are required")
	}
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("page size must be > 0 (got %d)", cfg.PageSize)
	}

	return &Driver{
		negotiator: negotiator,
		fetcher:    fetcher,
		table:      table,
		config:     cfg,
		pacer:      ratelimit.NewPacer(ratelimit.ReasonPage, cfg.PageDelay),
		logger:     log.With().Str("component", "collect").Str("job", cfg.Job).Logger(),
		state:      StateNegotiating,
	}, nil
}

// State returns the current state.
func (d *Driver) State() State {
	return d.state
}

// Collect negotiates the schema for desired and fetches every page.
// A Driver collects once; a failed collection yields no partial dataset.
func (d *Driver) Collect(ctx context.Context, desired []string) (*Result, error) {
	if d.state != StateNegotiating {
		return nil, fmt.Errorf("driver already used (state %s)", d.state)
	}

	negotiated, err := d.negotiator.Negotiate(ctx, desired)
	if err != nil {
		return nil, d.fail(err)
	}
	if len(negotiated.Accepted) == 0 {
		return nil, d.fail(schema.ErrSchemaNegotiation)
	}

	columns := dataset.NewSchema(negotiated.Accepted)
	d.logger.Info().Strs("columns", columns.Columns()).Msg("Using columns")
	d.transition(StateFetching)

	result := &Result{
		Dataset:  dataset.New(columns),
		Rejected: negotiated.Rejected,
	}

	offset := 0
	for d.state == StateFetching {
		page, err := d.fetcher.FetchPage(ctx, columns, offset, d.config.PageSize)
		if err != nil {
			return nil, d.fail(err)
		}
		result.Pages++
		scanPagesFetchedTotal.WithLabelValues(d.config.Job).Inc()

		if result.Total == nil && page.Total != nil {
			total := *page.Total
			result.Total = &total
		}

		if len(page.Items) == 0 {
			d.transition(StateDone)
			break
		}

		for _, item := range page.Items {
			result.Dataset.Append(d.format(dataset.Assemble(columns, item)))
		}
		scanRowsCollectedTotal.WithLabelValues(d.config.Job).Add(float64(len(page.Items)))

		offset += d.config.PageSize

		if err := d.pacer.Pause(ctx); err != nil {
			return nil, d.fail(err)
		}

		if result.Total != nil && offset >= *result.Total {
			d.transition(StateDone)
		}
	}

	if result.Dataset.Len() == 0 {
		return nil, d.fail(ErrEmptyResult)
	}

	return result, nil
}

func (d *Driver) format(raw dataset.RawRecord) dataset.Record {
	rec := make(dataset.Record, len(raw.Values)+1)
	rec[dataset.TickerField] = raw.Ticker
	for field, value := range raw.Values {
		rec[field] = d.table.Format(field, value)
	}
	return rec
}

func (d *Driver) transition(to State) {
	d.logger.Debug().
		Str("from", d.state.String()).
		Str("to", to.String()).
		Msg("Collection state changed")
	d.state = to
}

func (d *Driver) fail(err error) error {
	d.transition(StateFailed)
	return err
}

// PageFetcherFunc adapts a function to the PageFetcher interface.
type PageFetcherFunc func(ctx context.Context, schema dataset.Schema, start, size int) (*pagination.Page, error)

// FetchPage calls f.
func (f PageFetcherFunc) FetchPage(ctx context.Context, schema dataset.Schema, start, size int) (*pagination.Page, error) {
	return f(ctx, schema, start, size)
}
