package ratelimit

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(2, 1)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.Equal(t, time.Second, l.RetryAfter("a"))

	// other keys have their own bucket
	assert.True(t, l.Allow("b"))

	now = now.Add(500 * time.Millisecond)
	assert.False(t, l.Allow("a"))
	now = now.Add(500 * time.Millisecond)
	assert.True(t, l.Allow("a"))
}

func TestLimiterCapsAtCapacity(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(1, 10)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	now = now.Add(time.Hour)
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
}

func TestLimiterSweep(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := New(1, 1)
	l.now = func() time.Time { return now }

	l.Allow("old")
	now = now.Add(10 * time.Minute)
	l.Allow("fresh")

	assert.Equal(t, 1, l.Sweep(5*time.Minute))
	assert.Equal(t, time.Duration(0), l.RetryAfter("old"))
	assert.False(t, l.Allow("fresh"))
}

func TestLimiterRunEvictsIdleKeys(t *testing.T) {
	var clock atomic.Int64
	clock.Store(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC).UnixNano())
	l := New(1, 1)
	l.now = func() time.Time { return time.Unix(0, clock.Load()) }

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"} {
		l.Allow(ip)
	}
	assert.Equal(t, 3, l.Len())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx, 5*time.Millisecond, time.Minute)
		close(done)
	}()

	clock.Add(int64(2 * time.Minute))
	assert.Eventually(t, func() bool { return l.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
