package ai

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// SharedLimiter is the process-wide throttle in front of the embedding
// provider. Every embedding call waits on the same token bucket, and a
// rate-limit response from any caller pushes back all callers.
type SharedLimiter struct {
	bucket *rate.Limiter

	mu          sync.Mutex
	pausedUntil time.Time
	now         func() time.Time
}

// NewSharedLimiter allows rpm requests per minute with a burst of a tenth of that
func NewSharedLimiter(rpm int) *SharedLimiter {
	if rpm <= 0 {
		return &SharedLimiter{bucket: rate.NewLimiter(rate.Inf, 1), now: time.Now}
	}
	burst := rpm / 10
	if burst < 1 {
		burst = 1
	}
	return &SharedLimiter{
		bucket: rate.NewLimiter(rate.Limit(float64(rpm)/60.0), burst),
		now:    time.Now,
	}
}

// Wait blocks until the shared pause (if any) has elapsed and a token is available
func (l *SharedLimiter) Wait(ctx context.Context) error {
	if d := l.pauseRemaining(); d > 0 {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return l.bucket.Wait(ctx)
}

// Backoff extends the shared pause so that no caller hits the provider for d
func (l *SharedLimiter) Backoff(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	until := l.now().Add(d)
	if until.After(l.pausedUntil) {
		l.pausedUntil = until
	}
}

func (l *SharedLimiter) pauseRemaining() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pausedUntil.Sub(l.now())
}
