package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

func TestLimiter_Unlimited(t *testing.T) {
	l := NewLimiter(0, 1, zerolog.Nop())

	if l.Limit() != rate.Inf {
		t.Errorf("Limit() = %v, want Inf", l.Limit())
	}

	start := time.Now()
	for i := 0; i < 100; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("unlimited limiter took %v for 100 requests", elapsed)
	}
}

func TestLimiter_Throttles(t *testing.T) {
	l := NewLimiter(20, 1, zerolog.Nop())

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := l.Wait(context.Background()); err != nil {
			t.Fatalf("Wait() error = %v", err)
		}
	}
	// burst 1 at 20/s: the 2nd and 3rd requests wait ~50ms each
	if elapsed := time.Since(start); elapsed < 80*time.Millisecond {
		t.Errorf("3 requests at 20/s took %v, want >= 80ms", elapsed)
	}
}

func TestLimiter_ContextCancelled(t *testing.T) {
	l := NewLimiter(0.1, 1, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait() error = %v", err)
	}

	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Error("Wait() on cancelled context should fail")
	} else if !errors.Is(err, context.Canceled) {
		t.Logf("Wait() error = %v", err)
	}
}

func TestLimiter_Nil(t *testing.T) {
	var l *Limiter
	if err := l.Wait(context.Background()); err != nil {
		t.Errorf("nil Wait() error = %v", err)
	}
	if l.Limit() != rate.Inf {
		t.Errorf("nil Limit() = %v, want Inf", l.Limit())
	}
}
