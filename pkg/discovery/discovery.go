// Package discovery reads the screener page for the columns it shows by default.
//
// The page embeds its initial state as JSON in a <script id="__NEXT_DATA__">
// element. Discovery is best effort: any failure falls back to a default
// column list, it never fails a run.
package discovery

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Sternrassler/screener-export/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/net/html"
)

// Discovery results used as metric labels.
const (
	ResultDiscovered = "discovered"
	ResultFallback   = "fallback"
)

var scanColumnDiscoveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "scan_column_discovery_total",
	Help: "Total column discovery attempts by result",
}, []string{"result"})

// ErrNoColumns is returned by Parse when the page carries no column list.
var ErrNoColumns = errors.New("no columns found in page data")

const nextDataID = "__NEXT_DATA__"

// Containers and keys searched under props.pageProps, in order.
var (
	containerKeys = []string{"screener", "screenerStore", "screenerProps", "table"}
	columnKeys    = []string{"columns", "tableColumns", "cols"}
	// object columns carry their field under one of these keys
	fieldKeys = []string{"name", "key", "code"}
)

// Fetcher retrieves a page body.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Source discovers columns from the screener page.
type Source struct {
	fetcher Fetcher
	pageURL string
	logger  zerolog.Logger
}

// NewSource creates a source reading pageURL through fetcher.
func NewSource(fetcher Fetcher, pageURL string) *Source {
	return &Source{
		fetcher: fetcher,
		pageURL: pageURL,
		logger:  logging.NewLogger("discovery"),
	}
}

// Discover returns the page's columns, or fallback if none could be found.
func (s *Source) Discover(ctx context.Context, fallback []string) []string {
	body, err := s.fetcher.Fetch(ctx, s.pageURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("url", s.pageURL).Msg("Column discovery failed, using defaults")
		scanColumnDiscoveryTotal.WithLabelValues(ResultFallback).Inc()
		return fallback
	}

	columns, err := Parse(body)
	if err != nil {
		s.logger.Warn().Err(err).Msg("No columns discovered, using defaults")
		scanColumnDiscoveryTotal.WithLabelValues(ResultFallback).Inc()
		return fallback
	}

	s.logger.Debug().Strs("columns", columns).Msg("Discovered columns")
	scanColumnDiscoveryTotal.WithLabelValues(ResultDiscovered).Inc()
	return columns
}

// Parse extracts the column list from a screener page.
// Duplicate and empty entries are dropped, first occurrence wins.
func Parse(page []byte) ([]string, error) {
	raw, err := nextData(page)
	if err != nil {
		return nil, err
	}

	var data struct {
		Props struct {
			PageProps map[string]json.RawMessage `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode %s: %w", nextDataID, err)
	}

	for _, container := range containerKeys {
		msg, ok := data.Props.PageProps[container]
		if !ok {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(msg, &fields); err != nil {
			// not an object
			continue
		}
		for _, key := range columnKeys {
			if columns := normalize(fields[key]); len(columns) > 0 {
				return columns, nil
			}
		}
	}

	return nil, ErrNoColumns
}

// nextData returns the text of the __NEXT_DATA__ script element.
func nextData(page []byte) ([]byte, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var found *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == "script" && attr(n, "id") == nextDataID {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if found == nil {
		return nil, fmt.Errorf("%s script not found", nextDataID)
	}

	var text strings.Builder
	for c := found.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			text.WriteString(c.Data)
		}
	}
	if strings.TrimSpace(text.String()) == "" {
		return nil, fmt.Errorf("%s script is empty", nextDataID)
	}
	return []byte(text.String()), nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// normalize turns a list of strings or column objects into field names.
func normalize(msg json.RawMessage) []string {
	if len(msg) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(msg, &items); err != nil {
		return nil
	}

	seen := make(map[string]bool, len(items))
	columns := make([]string, 0, len(items))
	for _, item := range items {
		field := fieldName(item)
		if field == "" || seen[field] {
			continue
		}
		seen[field] = true
		columns = append(columns, field)
	}
	return columns
}

func fieldName(item json.RawMessage) string {
	var s string
	if err := json.Unmarshal(item, &s); err == nil {
		return s
	}

	var obj map[string]any
	if err := json.Unmarshal(item, &obj); err != nil {
		return ""
	}
	for _, key := range fieldKeys {
		if v, ok := obj[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
