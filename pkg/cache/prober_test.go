package cache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/screener-export/pkg/scan"
)

type memoryStore struct {
	entries map[string]*ProbeEntry
	getErr  error
	setErr  error
	sets    int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]*ProbeEntry)}
}

func (s *memoryStore) Get(_ context.Context, key ProbeKey) (*ProbeEntry, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	e, ok := s.entries[key.String()]
	if !ok || e.IsExpired() {
		return nil, ErrCacheMiss
	}
	return e, nil
}

func (s *memoryStore) Set(_ context.Context, key ProbeKey, entry *ProbeEntry) error {
	s.sets++
	if s.setErr != nil {
		return s.setErr
	}
	s.entries[key.String()] = entry
	return nil
}

type countingProber struct {
	reject []string
	err    error
	calls  int
}

func (p *countingProber) Probe(_ context.Context, columns []string) (bool, error) {
	p.calls++
	if p.err != nil {
		return false, p.err
	}
	for _, c := range columns {
		if slices.Contains(p.reject, c) {
			return false, nil
		}
	}
	return true, nil
}

func TestCachingProber_CachesVerdicts(t *testing.T) {
	next := &countingProber{reject: []string{"bogus"}}
	store := newMemoryStore()
	p := NewCachingProber(next, store, "e", time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := p.Probe(ctx, []string{"name"})
		if err != nil || !ok {
			t.Fatalf("Probe(name) = %v, %v; want true, nil", ok, err)
		}
		ok, err = p.Probe(ctx, []string{"name", "bogus"})
		if err != nil || ok {
			t.Fatalf("Probe(name,bogus) = %v, %v; want false, nil", ok, err)
		}
	}

	if next.calls != 2 {
		t.Errorf("endpoint probes = %d, want 2", next.calls)
	}
}

func TestCachingProber_ErrorsNotCached(t *testing.T) {
	boom := errors.New("connection reset")
	next := &countingProber{err: boom}
	store := newMemoryStore()
	p := NewCachingProber(next, store, "e", time.Hour)

	if _, err := p.Probe(context.Background(), []string{"name"}); !errors.Is(err, boom) {
		t.Fatalf("Probe() error = %v, want %v", err, boom)
	}
	if store.sets != 0 {
		t.Errorf("store sets = %d, want 0", store.sets)
	}
}

func TestCachingProber_ServerOutageNotCachedAsRejection(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"data":[],"totalCount":0}`))
	}))
	defer server.Close()

	cfg := scan.DefaultConfig()
	cfg.URL = server.URL
	cfg.RateLimit = 0
	client, err := scan.New(cfg)
	if err != nil {
		t.Fatalf("scan.New() error = %v", err)
	}

	store := newMemoryStore()
	p := NewCachingProber(client, store, server.URL, 0)
	ctx := context.Background()

	ok, err := p.Probe(ctx, []string{"name"})
	var te *scan.TransportError
	if ok || !errors.As(err, &te) || te.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("first Probe() = %v, %v; want false, 503 TransportError", ok, err)
	}
	if len(store.entries) != 0 {
		t.Fatalf("cached entries after outage = %d, want 0", len(store.entries))
	}

	ok, err = p.Probe(ctx, []string{"name"})
	if err != nil || !ok {
		t.Fatalf("second Probe() = %v, %v; want true, nil", ok, err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("server calls = %d, want 2", n)
	}
	if len(store.entries) != 1 {
		t.Errorf("cached entries = %d, want 1", len(store.entries))
	}
}

func TestCachingProber_StoreFailuresDegrade(t *testing.T) {
	next := &countingProber{}
	store := newMemoryStore()
	store.getErr = errors.New("redis down")
	store.setErr = errors.New("redis down")
	p := NewCachingProber(next, store, "e", time.Hour)

	ok, err := p.Probe(context.Background(), []string{"name"})
	if err != nil || !ok {
		t.Fatalf("Probe() = %v, %v; want true, nil", ok, err)
	}
	if next.calls != 1 {
		t.Errorf("endpoint probes = %d, want 1", next.calls)
	}
}

func TestCachingProber_KeyedByEndpoint(t *testing.T) {
	next := &countingProber{}
	store := newMemoryStore()
	ctx := context.Background()

	_, _ = NewCachingProber(next, store, "a", time.Hour).Probe(ctx, []string{"name"})
	_, _ = NewCachingProber(next, store, "b", time.Hour).Probe(ctx, []string{"name"})

	if next.calls != 2 {
		t.Errorf("endpoint probes = %d, want 2", next.calls)
	}
}

func TestNewCachingProber_DefaultTTL(t *testing.T) {
	p := NewCachingProber(&countingProber{}, newMemoryStore(), "e", 0)
	if p.ttl != DefaultTTL {
		t.Errorf("ttl = %v, want %v", p.ttl, DefaultTTL)
	}
}
