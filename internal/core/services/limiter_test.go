package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestNewRequestLimiter(t *testing.T) {
	unlimited := newRequestLimiter(0)
	assert.Equal(t, rate.Inf, unlimited.limiter.Limit())

	limited := newRequestLimiter(120)
	assert.InDelta(t, 2.0, float64(limited.limiter.Limit()), 1e-9)
	assert.Equal(t, 120, limited.limiter.Burst())
}

func TestRequestLimiter_WaitWithinBurst(t *testing.T) {
	l := newRequestLimiter(60)

	for range 5 {
		waited, err := l.Wait(context.Background())
		require.NoError(t, err)
		assert.Less(t, waited, time.Second)
	}
}

func TestRequestLimiter_BackoffBlocksUntilCancelled(t *testing.T) {
	l := newRequestLimiter(0)
	l.Backoff(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := l.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequestLimiter_BackoffExpires(t *testing.T) {
	l := newRequestLimiter(0)
	l.Backoff(10 * time.Millisecond)

	waited, err := l.Wait(context.Background())

	require.NoError(t, err)
	assert.GreaterOrEqual(t, waited, 5*time.Millisecond)
}

func TestRequestLimiter_BackoffKeepsLongerWindow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newRequestLimiter(0)
	l.now = func() time.Time { return now }

	l.Backoff(time.Minute)
	l.Backoff(time.Second)
	assert.Equal(t, now.Add(time.Minute), l.retryAt)

	fresh := newRequestLimiter(0)
	fresh.now = l.now
	fresh.Backoff(0)
	assert.Equal(t, now.Add(defaultBackoff), fresh.retryAt)
}
