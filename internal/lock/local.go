package lock

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	sem  chan struct{}
	refs int
}

// localLocker is a keyed mutex for single-instance deployments and tests.
type localLocker struct {
	mu   sync.Mutex
	keys map[string]*entry
	wait time.Duration
}

func NewLocalLocker(wait time.Duration) Locker {
	return &localLocker{
		keys: make(map[string]*entry),
		wait: wait,
	}
}

func (l *localLocker) WithLock(ctx context.Context, keys []string, fn func(ctx context.Context) error) error {
	var held []string
	defer func() {
		for _, k := range held {
			l.release(k)
		}
	}()

	for _, k := range sortedUnique(keys) {
		e := l.ref(k)

		err := backoff(ctx, l.wait, func() (bool, error) {
			select {
			case e.sem <- struct{}{}:
				return true, nil
			default:
				return false, nil
			}
		})
		if err != nil {
			l.unref(k)
			return err
		}
		held = append(held, k)
	}

	return fn(ctx)
}

func (l *localLocker) ref(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.keys[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		l.keys[key] = e
	}
	e.refs++
	return e
}

func (l *localLocker) unref(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := l.keys[key]
	e.refs--
	if e.refs == 0 {
		delete(l.keys, key)
	}
}

func (l *localLocker) release(key string) {
	l.mu.Lock()
	e := l.keys[key]
	l.mu.Unlock()

	<-e.sem
	l.unref(key)
}
