package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
)

var ErrMiss = errors.New("slot cache miss")

// Key identifies one availability query.
type Key struct {
	Date            calendar.Date
	DurationMinutes int
	BufferMinutes   int
}

func (k Key) String() string {
	return fmt.Sprintf("slots:%s:%d:%d", k.Date, k.DurationMinutes, k.BufferMinutes)
}

func dateIndexKey(d calendar.Date) string {
	return fmt.Sprintf("slots:%s:keys", d)
}

func dateGenerationKey(d calendar.Date) string {
	return fmt.Sprintf("slots:%s:gen", d)
}

// Entry is a computed availability list. Floor is the earliest start that
// was in force when it was computed; for today it moves with the clock.
// Generation is the date generation read before the registry was queried.
type Entry struct {
	Slots      []domain.TimeSlot  `json:"slots"`
	Floor      calendar.TimeOfDay `json:"floor"`
	Generation int64              `json:"generation"`
}

// SlotCache holds recent availability results for a short TTL. Writes to
// the registry invalidate a whole date and bump its generation; Get treats
// an entry from an older generation as a miss, so a query that read the
// registry before a write can never publish its snapshot after it.
type SlotCache interface {
	Generation(ctx context.Context, date calendar.Date) (int64, error)
	Get(ctx context.Context, key Key) (*Entry, error)
	Set(ctx context.Context, key Key, entry Entry) error
	InvalidateDate(ctx context.Context, date calendar.Date) error
}

// Noop never stores anything. Used when SLOT_CACHE_TTL is zero.
type Noop struct{}

func (Noop) Generation(context.Context, calendar.Date) (int64, error) { return 0, nil }
func (Noop) Get(context.Context, Key) (*Entry, error)                 { return nil, ErrMiss }
func (Noop) Set(context.Context, Key, Entry) error                    { return nil }
func (Noop) InvalidateDate(context.Context, calendar.Date) error     { return nil }
