package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrLimited = errors.New("too many booking attempts")

// Limiter counts attempts per key in fixed windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// --------------------------------------------------
// Redis
// --------------------------------------------------

// RedisLimiter keeps counters in Redis so every instance sees the same
// budget.
type RedisLimiter struct {
	client *redis.Client
	limit  int
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{client: client, limit: limit, window: window}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	k := fmt.Sprintf("ratelimit:booking:%s", key)

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}

	// first hit opens the window; a missing TTL means an earlier EXPIRE was lost
	if n == 1 {
		if err := l.client.Expire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("rate limit expire: %w", err)
		}
	} else if ttl, err := l.client.TTL(ctx, k).Result(); err == nil && ttl < 0 {
		_ = l.client.Expire(ctx, k, l.window).Err()
	}

	return n <= int64(l.limit), nil
}

// --------------------------------------------------
// Memory
// --------------------------------------------------

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is for tests only; counters die with the process.
type MemoryLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	now     func() time.Time
	buckets map[string]*window
}

func NewMemoryLimiter(limit int, w time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		limit:   limit,
		window:  w,
		now:     time.Now,
		buckets: make(map[string]*window),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.limit <= 0 {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = &window{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}
	b.count++

	return b.count <= l.limit, nil
}

// --------------------------------------------------
// Disabled
// --------------------------------------------------

// Noop admits every attempt. Used when no Redis is configured.
type Noop struct{}

func (Noop) Allow(context.Context, string) (bool, error) { return true, nil }

var (
	_ Limiter = (*RedisLimiter)(nil)
	_ Limiter = (*MemoryLimiter)(nil)
	_ Limiter = Noop{}
)
