package perception

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiter_UnderBudget(t *testing.T) {
	l := NewRateLimiter(10)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if err := l.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("under-budget waits should not block, took %v", elapsed)
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0)
	if err := l.Wait(context.Background()); err != nil {
		t.Fatalf("disabled limiter must not fail: %v", err)
	}
}

func TestRateLimiter_ContextCancel(t *testing.T) {
	l := NewRateLimiter(1)
	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first Wait failed: %v", err)
	}

	cancelled, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	if err := l.Wait(cancelled); err == nil {
		t.Error("expected context error when budget is exhausted")
	}
}
