package perception

import (
	"context"
	"sync"
	"time"
)

// RateLimiter enforces a requests-per-minute budget over a sliding window.
// Backend quotas are per-minute, so the window drops timestamps older than
// one minute rather than refilling at a fixed tick.
type RateLimiter struct {
	mu        sync.Mutex
	perMinute int
	stamps    []time.Time
}

// NewRateLimiter creates a limiter allowing perMinute requests per minute.
// A non-positive budget disables limiting.
func NewRateLimiter(perMinute int) *RateLimiter {
	return &RateLimiter{perMinute: perMinute}
}

// Wait blocks until a request slot is available or the context is cancelled.
func (l *RateLimiter) Wait(ctx context.Context) error {
	if l.perMinute <= 0 {
		return nil
	}

	for {
		l.mu.Lock()
		now := time.Now()
		cutoff := now.Add(-time.Minute)
		kept := l.stamps[:0]
		for _, s := range l.stamps {
			if s.After(cutoff) {
				kept = append(kept, s)
			}
		}
		l.stamps = kept

		if len(l.stamps) < l.perMinute {
			l.stamps = append(l.stamps, now)
			l.mu.Unlock()
			return nil
		}

		wait := time.Minute - now.Sub(l.stamps[0])
		l.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
