// Package testutil provides testing utilities for the screener exporter.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/Sternrassler/screener-export/pkg/scan"
)

// ScanPath is the path the mock serves scan requests on.
const ScanPath = "/america/scan"

// MockResponse defines a canned response for a path.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// Row is one entity served by the mock scanner.
type Row struct {
	Symbol string
	Values map[string]any
}

// MockScanner is a configurable in-process scan endpoint.
// Requests naming an unsupported column fail as a whole with 400, like the real endpoint.
type MockScanner struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	rows        []Row
	unsupported map[string]bool
	reportTotal bool
	total       *int
	failPages   int

	// Tracking
	ProbeCount int
	PageCount  int
	Requests   []scan.Request
	LastHeader http.Header
}

// NewMockScanner creates a mock that reports totalCount on every page.
func NewMockScanner() *MockScanner {
	mock := &MockScanner{
		handlers:    make(map[string]func(w http.ResponseWriter, r *http.Request)),
		unsupported: make(map[string]bool),
		reportTotal: true,
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.LastHeader = r.Header.Clone()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		if r.URL.Path == ScanPath && r.Method == http.MethodPost {
			mock.scanHandler(w, r)
			return
		}
		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server base URL.
func (m *MockScanner) URL() string {
	return m.server.URL
}

// ScanURL returns the full scan endpoint URL.
func (m *MockScanner) ScanURL() string {
	return m.server.URL + ScanPath
}

// Close shuts down the mock server.
func (m *MockScanner) Close() {
	m.server.Close()
}

// SetRows replaces the served rows.
func (m *MockScanner) SetRows(rows []Row) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = rows
}

// Reject marks columns as unsupported.
func (m *MockScanner) Reject(columns ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range columns {
		m.unsupported[c] = true
	}
}

// SetReportTotal controls whether responses include totalCount.
func (m *MockScanner) SetReportTotal(report bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reportTotal = report
}

// SetTotal overrides the reported totalCount (nil = number of rows).
func (m *MockScanner) SetTotal(total *int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
}

// FailPages makes page requests (not probes) fail with 500 after n successful pages.
// n < 0 disables the failure.
func (m *MockScanner) FailPages(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failPages = n + 1
}

// SetHandler sets a custom handler for a specific path.
func (m *MockScanner) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a simple response for a path.
func (m *MockScanner) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// GetProbeCount returns the number of single-row probe requests.
func (m *MockScanner) GetProbeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ProbeCount
}

// GetPageCount returns the number of page requests.
func (m *MockScanner) GetPageCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PageCount
}

// GetRequests returns a copy of all decoded scan requests.
func (m *MockScanner) GetRequests() []scan.Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]scan.Request, len(m.Requests))
	copy(out, m.Requests)
	return out
}

type mockItem struct {
	S string `json:"s"`
	D []any  `json:"d"`
}

type mockResponse struct {
	Data       []mockItem `json:"data"`
	TotalCount *int       `json:"totalCount,omitempty"`
}

func (m *MockScanner) scanHandler(w http.ResponseWriter, r *http.Request) {
	var req scan.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"bad request"}`, http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	isProbe := req.Range[1]-req.Range[0] == 1
	if isProbe {
		m.ProbeCount++
	} else {
		m.PageCount++
		if m.failPages > 0 && m.PageCount >= m.failPages {
			m.mu.Unlock()
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"error":"internal error"}`))
			return
		}
	}
	for _, c := range req.Columns {
		if m.unsupported[c] {
			m.mu.Unlock()
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprintf(w, `{"totalCount":0,"error":"Unknown field %q"}`, c)
			return
		}
	}

	start, end := req.Range[0], req.Range[1]
	if start < 0 {
		start = 0
	}
	if end > len(m.rows) {
		end = len(m.rows)
	}

	resp := mockResponse{Data: []mockItem{}}
	for i := start; i < end; i++ {
		row := m.rows[i]
		values := make([]any, len(req.Columns))
		for j, c := range req.Columns {
			values[j] = row.Values[c]
		}
		resp.Data = append(resp.Data, mockItem{S: row.Symbol, D: values})
	}

	if m.reportTotal {
		total := len(m.rows)
		if m.total != nil {
			total = *m.total
		}
		resp.TotalCount = &total
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// GenerateRows builds n rows with deterministic values for the common screener columns.
func GenerateRows(n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		rows[i] = Row{
			Symbol: fmt.Sprintf("NASDAQ:T%04d", i),
			Values: map[string]any{
				"name":             fmt.Sprintf("Company %d", i),
				"close":            float64(1000-i) + 0.125,
				"gross_margin_ttm": float64(i%100) + 0.456,
				"market_cap_basic": float64(n-i) * 1e9,
				"change":           -1.2345,
				"sector":           "Technology Services",
			},
		}
		if i%7 == 0 {
			rows[i].Values["gross_margin_ttm"] = nil
		}
	}
	return rows
}
