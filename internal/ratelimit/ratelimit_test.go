package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLimiter(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

	l := NewMemoryLimiter(2, time.Minute)
	l.now = func() time.Time { return now }

	for i, want := range []bool{true, true, false} {
		ok, err := l.Allow(ctx, "p1")
		assert.NoError(t, err)
		assert.Equal(t, want, ok, "attempt %d", i+1)
	}

	ok, _ := l.Allow(ctx, "p2")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	ok, _ = l.Allow(ctx, "p1")
	assert.True(t, ok)
}

func TestMemoryLimiter_ZeroLimitDisables(t *testing.T) {
	l := NewMemoryLimiter(0, time.Minute)
	for range 10 {
		ok, err := l.Allow(context.Background(), "p1")
		assert.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestNoop_AdmitsEverything(t *testing.T) {
	var l Limiter = Noop{}
	for i := 0; i < 100; i++ {
		ok, err := l.Allow(context.Background(), "p1")
		assert.NoError(t, err)
		assert.True(t, ok)
	}
}
