package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
	wait   time.Duration
}

// NewRedisLocker creates a locker backed by one Redis key per lock key.
// ttl bounds how long a crashed holder can block others; wait bounds how
// long a caller queues for a busy key.
func NewRedisLocker(client *redis.Client, ttl, wait time.Duration) Locker {
	return &redisLocker{
		client: client,
		ttl:    ttl,
		wait:   wait,
	}
}

func (l *redisLocker) WithLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	token := uuid.NewString()
	held := make([]string, 0, len(keys))

	defer func() {
		// release with a fresh context so a cancelled request still unlocks
		relCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		for _, key := range held {
			_ = l.release(relCtx, key, token)
		}
	}()

	for _, k := range sortedUnique(keys) {
		key := fmt.Sprintf("lock:%s", k)

		err := backoff(ctx, l.wait, func() (bool, error) {
			ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
			if err != nil {
				return false, fmt.Errorf("acquire commit lock: %w", err)
			}
			return ok, nil
		})
		if err != nil {
			return err
		}
		held = append(held, key)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release commit lock: %w", err)
	}
	return nil
}
