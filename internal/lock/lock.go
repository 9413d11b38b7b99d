package lock

import (
	"context"
	"errors"
	"sort"
	"time"
)

var ErrLockNotAcquired = errors.New("commit lock not acquired")

// Locker guards a booking commit across every key it touches. Keys are
// always taken in sorted order so overlapping key sets cannot deadlock.
type Locker interface {
	WithLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error
}

func sortedUnique(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)

	n := 0
	for i, k := range out {
		if i > 0 && k == out[n-1] {
			continue
		}
		out[n] = k
		n++
	}
	return out[:n]
}

// backoff polls try until it succeeds, fails hard, or wait elapses.
func backoff(ctx context.Context, wait time.Duration, try func() (bool, error)) error {
	deadline := time.Now().Add(wait)
	delay := 5 * time.Millisecond

	for {
		ok, err := try()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return ErrLockNotAcquired
		}
		if delay > remaining {
			delay = remaining
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}

		delay *= 2
		if delay > 200*time.Millisecond {
			delay = 200 * time.Millisecond
		}
	}
}
