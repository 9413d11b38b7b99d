package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/SysArcDCMS/dcms-scheduler/internal/audit"
	"github.com/SysArcDCMS/dcms-scheduler/internal/cache"
	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
	"github.com/SysArcDCMS/dcms-scheduler/internal/lock"
	"github.com/SysArcDCMS/dcms-scheduler/internal/observability"
	"github.com/SysArcDCMS/dcms-scheduler/internal/ratelimit"
	"github.com/SysArcDCMS/dcms-scheduler/internal/timezone"
)

// ======================================================
// DEPENDENCIES
// ======================================================

// Deps is everything the lifecycle use cases share. Registry, Clock and
// Hours are required; the rest fall back to in-process defaults.
type Deps struct {
	Registry domain.Registry
	Clock    timezone.Clock
	Hours    domain.BusinessHours

	Locker  lock.Locker
	Cache   cache.SlotCache
	Limiter ratelimit.Limiter
	Audit   *audit.Dispatcher
	Metrics *observability.Metrics
}

func (d Deps) withDefaults() Deps {
	if d.Locker == nil {
		d.Locker = lock.NewLocalLocker(2 * time.Second)
	}
	if d.Cache == nil {
		d.Cache = cache.Noop{}
	}
	if d.Metrics == nil {
		d.Metrics = observability.MustMetrics()
	}
	return d
}

func (d Deps) now() time.Time {
	return d.Clock.Now().In(d.Clock.Location())
}

// ======================================================
// COMMIT
// ======================================================

// commit runs fn under the distributed lock and inside one registry unit.
// A lock that cannot be taken in time means someone else is booking the
// same window.
func (d Deps) commit(
	ctx context.Context,
	keys []string,
	fn func(ctx context.Context, reg domain.Registry) error,
) error {

	err := d.Locker.WithLock(ctx, keys, func(ctx context.Context) error {
		return d.Registry.Atomically(ctx, keys, fn)
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, lock.ErrLockNotAcquired):
		return &domain.SlotConflictError{Reason: "slot is currently being booked"}
	case isDomainError(err):
		return err
	default:
		return domain.Unavailable("commit", err)
	}
}

func isDomainError(err error) bool {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrDuplicateActiveBooking,
		domain.ErrSlotConflict,
		domain.ErrInvalidTransition,
		domain.ErrNotFound,
		domain.ErrRegistryUnavailable,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// invalidate drops cached availability for every date touched by a write.
// Failures are logged; a stale entry expires on its own.
func (d Deps) invalidate(ctx context.Context, dates ...calendar.Date) {
	seen := make(map[calendar.Date]bool, len(dates))
	for _, date := range dates {
		if seen[date] {
			continue
		}
		seen[date] = true

		if err := d.Cache.InvalidateDate(ctx, date); err != nil {
			observability.LoggerFromContext(ctx).Warn().
				Err(err).
				Str("date", date.String()).
				Msg("slot cache invalidation failed")
		}
	}
}

func (d Deps) dispatch(ev audit.Event) {
	if d.Audit == nil {
		return
	}
	if ev.Entity == "" {
		ev.Entity = audit.EntityAppointment
	}
	d.Audit.Dispatch(ev)
}

// ======================================================
// VALIDATION
// ======================================================

// validateWindow checks that a service of the given footprint may start at
// start on date: inside opening hours, on an open day, not in the past.
// Overlap with breaks and bookings is left to the conflict check.
func (d Deps) validateWindow(
	date calendar.Date,
	start calendar.TimeOfDay,
	fp domain.Footprint,
	now time.Time,
) error {

	if date.IsZero() {
		return domain.Invalid("date", "is required")
	}
	if err := fp.Validate(); err != nil {
		return err
	}
	if !d.Hours.IsOpenOn(date) {
		return domain.Invalid("date", "clinic is closed on "+date.Weekday().String())
	}

	iv := calendar.NewInterval(start, fp.Minutes())
	if iv.End <= iv.Start || !d.Hours.Contains(iv) {
		return domain.Invalid("start_time", "window "+iv.String()+" is outside business hours")
	}

	earliest, ok := domain.EarliestStart(date, d.Hours, now)
	if !ok || start < earliest {
		return domain.Invalid("start_time", "is in the past")
	}

	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrDuplicateActiveBooking):
		return "duplicate_active_booking"
	case errors.Is(err, domain.ErrSlotConflict):
		return "slot_conflict"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, ratelimit.ErrLimited):
		return "rate_limited"
	default:
		return "error"
	}
}
