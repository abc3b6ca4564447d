package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// setupTestRedis connects to a local Redis and skips the test when none is running.
// The integration build tag runs the same checks against a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15, // Use a separate DB for tests
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}

	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

func TestNewManager(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	manager := NewManager(client)
	if manager == nil {
		t.Fatal("NewManager returned nil")
	}
	if manager.redis != client {
		t.Error("Manager redis client not set correctly")
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager(t *testing.T) {
	runManagerTests(t, setupTestRedis(t))
}

// runManagerTests exercises a Manager against a flushed Redis.
func runManagerTests(t *testing.T, client *redis.Client) {
	manager := NewManager(client)
	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		key := ProbeKey{Endpoint: "e", Columns: []string{"name", "close"}}
		if err := manager.Set(ctx, key, NewProbeEntry(true, 5*time.Minute)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		got, err := manager.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if !got.Accepted {
			t.Error("Accepted = false, want true")
		}

		ttl, err := client.TTL(ctx, key.String()).Result()
		if err != nil {
			t.Fatalf("TTL failed: %v", err)
		}
		if ttl <= 0 || ttl > 5*time.Minute {
			t.Errorf("redis TTL = %v, want (0, 5m]", ttl)
		}
	})

	t.Run("rejection is cached too", func(t *testing.T) {
		key := ProbeKey{Endpoint: "e", Columns: []string{"name", "bogus"}}
		if err := manager.Set(ctx, key, NewProbeEntry(false, time.Minute)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		got, err := manager.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got.Accepted {
			t.Error("Accepted = true, want false")
		}
	})

	t.Run("miss", func(t *testing.T) {
		_, err := manager.Get(ctx, ProbeKey{Endpoint: "e", Columns: []string{"never"}})
		if !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss, got %v", err)
		}
	})

	t.Run("expired entry not stored", func(t *testing.T) {
		key := ProbeKey{Endpoint: "e", Columns: []string{"old"}}
		entry := &ProbeEntry{Accepted: true, Expires: time.Now().Add(-time.Hour)}
		if err := manager.Set(ctx, key, entry); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss for expired entry, got %v", err)
		}
	})

	t.Run("invalid entry", func(t *testing.T) {
		key := ProbeKey{Endpoint: "e", Columns: []string{"corrupt"}}
		if err := client.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
			t.Fatalf("raw set failed: %v", err)
		}
		if _, err := manager.Get(ctx, key); !errors.Is(err, ErrInvalidEntry) {
			t.Errorf("Expected ErrInvalidEntry, got %v", err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		key := ProbeKey{Endpoint: "e", Columns: []string{"gone"}}
		if err := manager.Set(ctx, key, NewProbeEntry(true, time.Minute)); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := manager.Delete(ctx, key); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
			t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
		}
	})

	t.Run("nil entry", func(t *testing.T) {
		if err := manager.Set(ctx, ProbeKey{Endpoint: "e"}, nil); err == nil {
			t.Error("Set with nil entry should return error")
		}
	})
}
