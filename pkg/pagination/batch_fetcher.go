package pagination

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sternrassler/screener-export/pkg/dataset"
	"github.com/Sternrassler/screener-export/pkg/scan"
	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// SortBy is the ranking column; pages are sorted by it descending.
	SortBy string
	// Timeout per page fetch (0 = rely on the transport deadline)
	Timeout time.Duration
}

// DefaultConfig returns the default ranking by market capitalisation.
func DefaultConfig() Config {
	return Config{
		SortBy:  "market_cap_basic",
		Timeout: 30 * time.Second,
	}
}

// Scanner is the transport a BatchFetcher sends scan requests through.
type Scanner interface {
	Scan(ctx context.Context, req scan.Request) ([]byte, error)
}

// Page is one decoded scan response.
type Page struct {
	Start int
	Items []dataset.RawItem
	// Total is the server's totalCount hint, nil when absent.
	Total *int
}

// BatchFetcher fetches one page of scan results at a time.
type BatchFetcher struct {
	scanner Scanner
	config  Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher(scanner Scanner, config Config) *BatchFetcher {
	if config.SortBy == "" {
		config.SortBy = DefaultConfig().SortBy
	}
	return &BatchFetcher{
		scanner: scanner,
		config:  config,
	}
}

type scanResponse struct {
	Data []struct {
		S string `json:"s"`
		D []any  `json:"d"`
	} `json:"data"`
	TotalCount *int `json:"totalCount"`
}

// FetchPage fetches rows [start, start+size) for schema.
func (bf *BatchFetcher) FetchPage(ctx context.Context, schema dataset.Schema, start, size int) (*Page, error) {
	if size <= 0 {
		return nil, fmt.Errorf("page size must be > 0 (got %d)", size)
	}

	if bf.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, bf.config.Timeout)
		defer cancel()
	}

	begin := time.Now()
	req := scan.NewRequest(schema.Columns(), bf.config.SortBy, start, start+size)

	body, err := bf.scanner.Scan(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch rows [%d, %d): %w", start, start+size, err)
	}

	page, err := decodePage(body)
	if err != nil {
		return nil, fmt.Errorf("decode rows [%d, %d): %w", start, start+size, err)
	}
	page.Start = start

	event := log.Debug().
		Int("offset", start).
		Int("page_size", size).
		Int("items", len(page.Items)).
		Dur("duration", time.Since(begin))
	if page.Total != nil {
		event = event.Int("total", *page.Total)
	}
	event.Msg("Fetched page")

	return page, nil
}

// decodePage keeps numbers as json.Number so plain cells carry the server's literal text.
func decodePage(body []byte) (*Page, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var resp scanResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, err
	}

	page := &Page{
		Items: make([]dataset.RawItem, 0, len(resp.Data)),
		Total: resp.TotalCount,
	}
	for _, it := range resp.Data {
		page.Items = append(page.Items, dataset.RawItem{
			Symbol: it.S,
			Values: it.D,
		})
	}
	return page, nil
}
