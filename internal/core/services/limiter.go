package services

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// defaultBackoff applies when a provider rejects a request for rate limiting
// without saying when to retry.
const defaultBackoff = 30 * time.Second

// requestLimiter throttles LLM requests with a token bucket, plus a backoff
// window opened when the provider answers 429.
type requestLimiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
	retryAt time.Time
	now     func() time.Time
}

// newRequestLimiter allows perMinute requests per minute with a burst of the
// same size. perMinute < 1 disables the bucket; the backoff still applies.
func newRequestLimiter(perMinute int) *requestLimiter {
	limit, burst := rate.Inf, 0
	if perMinute > 0 {
		limit, burst = rate.Limit(float64(perMinute)/60), perMinute
	}
	return &requestLimiter{
		limiter: rate.NewLimiter(limit, burst),
		now:     time.Now,
	}
}

// Wait blocks until a request may be made and reports how long it waited.
func (l *requestLimiter) Wait(ctx context.Context) (time.Duration, error) {
	start := l.now()

	l.mu.Lock()
	retryAt := l.retryAt
	l.mu.Unlock()

	if wait := retryAt.Sub(start); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return l.now().Sub(start), ctx.Err()
		case <-timer.C:
		}
	}

	err := l.limiter.Wait(ctx)
	return l.now().Sub(start), err
}

// Backoff blocks requests for d, or defaultBackoff when d <= 0.
// An existing longer backoff is kept.
func (l *requestLimiter) Backoff(d time.Duration) {
	if d <= 0 {
		d = defaultBackoff
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if until := l.now().Add(d); until.After(l.retryAt) {
		l.retryAt = until
	}
}
