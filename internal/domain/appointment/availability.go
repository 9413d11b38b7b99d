package appointment

import "github.com/SysArcDCMS/dcms-scheduler/internal/calendar"

// MaxFootprintMinutes bounds duration, buffer and their sum. Nothing longer
// than a day can fit in a business day.
const MaxFootprintMinutes = 24 * 60

// Footprint is the calendar space one service consumes.
type Footprint struct {
	DurationMinutes int
	BufferMinutes   int
}

func (f Footprint) Validate() error {
	if f.DurationMinutes <= 0 {
		return Invalid("duration_minutes", "must be greater than zero")
	}
	if f.DurationMinutes > MaxFootprintMinutes {
		return Invalid("duration_minutes", "must not exceed one day")
	}
	if f.BufferMinutes < 0 {
		return Invalid("buffer_minutes", "must not be negative")
	}
	if f.BufferMinutes > MaxFootprintMinutes || f.Minutes() > MaxFootprintMinutes {
		return Invalid("buffer_minutes", "duration plus buffer must not exceed one day")
	}
	return nil
}

func (f Footprint) Minutes() int {
	return f.DurationMinutes + f.BufferMinutes
}

type AvailabilityInput struct {
	Date      calendar.Date
	Footprint Footprint
}

// TimeSlot is a derived window; it is computed per query and never stored.
type TimeSlot struct {
	Start          calendar.TimeOfDay `json:"start_time"`
	End            calendar.TimeOfDay `json:"end_time"`
	Available      bool               `json:"available"`
	ConflictReason string             `json:"conflict_reason,omitempty"`
}

func (s TimeSlot) Interval() calendar.Interval {
	return calendar.Interval{Start: s.Start, End: s.End}
}
