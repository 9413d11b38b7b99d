package cache

import (
	"context"
	"sync"
	"time"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
)

type memoryItem struct {
	entry   Entry
	expires time.Time
}

// MemorySlotCache is the in-process SlotCache for tests and single-instance
// development.
type MemorySlotCache struct {
	mu    sync.Mutex
	items map[Key]memoryItem
	gens  map[calendar.Date]int64
	ttl   time.Duration
	now   func() time.Time
}

func NewMemorySlotCache(ttl time.Duration) *MemorySlotCache {
	return &MemorySlotCache{
		items: make(map[Key]memoryItem),
		gens:  make(map[calendar.Date]int64),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *MemorySlotCache) Generation(_ context.Context, date calendar.Date) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.gens[date], nil
}

func (c *MemorySlotCache) Get(_ context.Context, key Key) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.items[key]
	if !ok {
		return nil, ErrMiss
	}
	if !c.now().Before(item.expires) || item.entry.Generation != c.gens[key.Date] {
		delete(c.items, key)
		return nil, ErrMiss
	}

	entry := item.entry
	entry.Slots = append([]domain.TimeSlot(nil), item.entry.Slots...)
	return &entry, nil
}

func (c *MemorySlotCache) Set(_ context.Context, key Key, entry Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	// a write has landed since this entry was computed
	if entry.Generation != c.gens[key.Date] {
		return nil
	}

	entry.Slots = append([]domain.TimeSlot(nil), entry.Slots...)
	c.items[key] = memoryItem{
		entry:   entry,
		expires: c.now().Add(c.ttl),
	}
	return nil
}

func (c *MemorySlotCache) InvalidateDate(_ context.Context, date calendar.Date) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gens[date]++
	for k := range c.items {
		if k.Date == date {
			delete(c.items, k)
		}
	}
	return nil
}

var _ SlotCache = (*MemorySlotCache)(nil)
