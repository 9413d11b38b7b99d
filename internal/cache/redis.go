package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
)

// generationTTL outlives every entry; a generation key that expired with
// entries still around could restart at a value those entries carry.
const generationTTL = 48 * time.Hour

// RedisSlotCache stores entries as JSON and indexes them per date so one
// write can drop every footprint variant of that day.
type RedisSlotCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlotCache(client *redis.Client, ttl time.Duration) *RedisSlotCache {
	return &RedisSlotCache{client: client, ttl: ttl}
}

func (c *RedisSlotCache) Generation(ctx context.Context, date calendar.Date) (int64, error) {
	gen, err := c.client.Get(ctx, dateGenerationKey(date)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

// Get reads the entry and its date generation in one round trip.
func (c *RedisSlotCache) Get(ctx context.Context, key Key) (*Entry, error) {
	vals, err := c.client.MGet(ctx, key.String(), dateGenerationKey(key.Date)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from cache: %w", err)
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, ErrMiss
	}

	var gen int64
	if s, ok := vals[1].(string); ok {
		if gen, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, fmt.Errorf("failed to decode cache generation: %w", err)
		}
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	if entry.Generation != gen {
		return nil, ErrMiss
	}
	return &entry, nil
}

func (c *RedisSlotCache) Set(ctx context.Context, key Key, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	index := dateIndexKey(key.Date)
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key.String(), raw, c.ttl)
		pipe.SAdd(ctx, index, key.String())
		pipe.Expire(ctx, index, c.ttl)
		pipe.Expire(ctx, dateGenerationKey(key.Date), generationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set in cache: %w", err)
	}
	return nil
}

// InvalidateDate bumps the generation before deleting, so entries written
// by queries still in flight are already stale when they land.
func (c *RedisSlotCache) InvalidateDate(ctx context.Context, date calendar.Date) error {
	gen := dateGenerationKey(date)
	if _, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gen)
		pipe.Expire(ctx, gen, generationTTL)
		return nil
	}); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}

	index := dateIndexKey(date)

	keys, err := c.client.SMembers(ctx, index).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to list cache keys: %w", err)
	}

	if err := c.client.Del(ctx, append(keys, index)...).Err(); err != nil {
		return fmt.Errorf("failed to delete from cache: %w", err)
	}
	return nil
}

var _ SlotCache = (*RedisSlotCache)(nil)
