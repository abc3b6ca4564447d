package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/Sternrassler/screener-export/pkg/dataset"
	"github.com/Sternrassler/screener-export/pkg/scan"
)

type fakeScanner struct {
	body     string
	err      error
	requests []scan.Request
}

func (f *fakeScanner) Scan(_ context.Context, req scan.Request) ([]byte, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return []byte(f.body), nil
}

func TestNewBatchFetcher_Defaults(t *testing.T) {
	bf := NewBatchFetcher(&fakeScanner{}, Config{})
	if bf.config.SortBy != "market_cap_basic" {
		t.Errorf("SortBy = %q, want market_cap_basic", bf.config.SortBy)
	}
}

func TestFetchPage_BuildsRangeRequest(t *testing.T) {
	scanner := &fakeScanner{body: `{"data":[],"totalCount":0}`}
	bf := NewBatchFetcher(scanner, DefaultConfig())
	schema := dataset.NewSchema([]string{"name", "close"})

	if _, err := bf.FetchPage(context.Background(), schema, 300, 150); err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if len(scanner.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(scanner.requests))
	}
	req := scanner.requests[0]
	if req.Range != [2]int{300, 450} {
		t.Errorf("Range = %v, want [300 450]", req.Range)
	}
	if !reflect.DeepEqual(req.Columns, []string{"name", "close"}) {
		t.Errorf("Columns = %v", req.Columns)
	}
	if req.Sort.SortBy != "market_cap_basic" || req.Sort.SortOrder != "desc" {
		t.Errorf("Sort = %+v", req.Sort)
	}
}

func TestFetchPage_DecodesItems(t *testing.T) {
	scanner := &fakeScanner{body: `{
		"totalCount": 5321,
		"data": [
			{"s": "NASDAQ:AAPL", "d": ["Apple Inc.", 187.25, null]},
			{"s": "NYSE:BRK.A", "d": ["Berkshire", 612345]},
			{"d": ["no symbol"]}
		]
	}`}
	bf := NewBatchFetcher(scanner, DefaultConfig())

	page, err := bf.FetchPage(context.Background(), dataset.NewSchema([]string{"name", "close", "x"}), 0, 150)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}

	if page.Total == nil || *page.Total != 5321 {
		t.Errorf("Total = %v, want 5321", page.Total)
	}
	if len(page.Items) != 3 {
		t.Fatalf("Items = %d, want 3", len(page.Items))
	}

	first := page.Items[0]
	if first.Symbol != "NASDAQ:AAPL" {
		t.Errorf("Symbol = %q", first.Symbol)
	}
	if n, ok := first.Values[1].(json.Number); !ok || n.String() != "187.25" {
		t.Errorf("close = %#v, want json.Number(187.25)", first.Values[1])
	}
	if first.Values[2] != nil {
		t.Errorf("null value = %#v, want nil", first.Values[2])
	}
	if page.Items[2].Symbol != "" {
		t.Errorf("missing symbol = %q, want empty", page.Items[2].Symbol)
	}
}

func TestFetchPage_TotalAbsent(t *testing.T) {
	scanner := &fakeScanner{body: `{"data":[{"s":"A","d":[1]}]}`}
	bf := NewBatchFetcher(scanner, DefaultConfig())

	page, err := bf.FetchPage(context.Background(), dataset.NewSchema([]string{"close"}), 0, 10)
	if err != nil {
		t.Fatalf("FetchPage() error = %v", err)
	}
	if page.Total != nil {
		t.Errorf("Total = %d, want nil", *page.Total)
	}
}

func TestFetchPage_Errors(t *testing.T) {
	transport := &scan.TransportError{StatusCode: 400, ErrorClass: scan.ErrorClassClient, Body: "bad"}

	tests := []struct {
		name    string
		scanner *fakeScanner
		size    int
		check   func(error) bool
	}{
		{
			name:    "transport error is preserved",
			scanner: &fakeScanner{err: transport},
			size:    150,
			check: func(err error) bool {
				var te *scan.TransportError
				return errors.As(err, &te) && te.StatusCode == 400
			},
		},
		{
			name:    "malformed json",
			scanner: &fakeScanner{body: `{"data": [`},
			size:    150,
			check:   func(err error) bool { return err != nil },
		},
		{
			name:    "invalid page size",
			scanner: &fakeScanner{body: `{}`},
			size:    0,
			check:   func(err error) bool { return err != nil },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bf := NewBatchFetcher(tt.scanner, DefaultConfig())
			_, err := bf.FetchPage(context.Background(), dataset.NewSchema([]string{"name"}), 0, tt.size)
			if !tt.check(err) {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
