package appointment

import (
	"iter"
	"time"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
)

// SameDayRounding is the granularity "now" is rounded up to before it
// becomes the earliest start of the current day.
const SameDayRounding = 5

// GenerateSlots enumerates candidate windows for the footprint across the
// business day. now must already be in the clinic location. Days before
// today, closed days and a same-day floor past closing all produce an empty
// sequence.
func GenerateSlots(in AvailabilityInput, hours BusinessHours, now time.Time) (iter.Seq[calendar.Interval], error) {
	if err := in.Footprint.Validate(); err != nil {
		return nil, err
	}
	if err := hours.Validate(); err != nil {
		return nil, err
	}
	if in.Date.IsZero() {
		return nil, Invalid("date", "is required")
	}

	open, ok := EarliestStart(in.Date, hours, now)
	if !ok {
		return func(func(calendar.Interval) bool) {}, nil
	}

	minutes := in.Footprint.Minutes()
	return func(yield func(calendar.Interval) bool) {
		for start := open; start <= hours.Close; start = start.Add(hours.Step) {
			iv := calendar.NewInterval(start, minutes)
			if iv.End <= iv.Start || iv.End > hours.Close {
				return
			}
			if !yield(iv) {
				return
			}
		}
	}, nil
}

// EarliestStart returns the first time a service may start on date. ok is
// false when nothing can start at all that day.
func EarliestStart(date calendar.Date, hours BusinessHours, now time.Time) (calendar.TimeOfDay, bool) {
	if !hours.IsOpenOn(date) {
		return 0, false
	}

	today := calendar.DateOf(now)
	switch date.Compare(today) {
	case -1:
		return 0, false
	case 0:
		floor := calendar.RoundUp(calendar.CeilTimeOfDay(now), SameDayRounding)
		if floor > hours.Open {
			if floor > hours.Close {
				return 0, false
			}
			return floor, true
		}
	}
	return hours.Open, true
}
