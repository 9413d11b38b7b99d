package appointment

import (
	"slices"
	"time"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
)

// BusinessHours is the clinic-wide bookable day. Breaks are closures inside
// the day (lunch, sterilisation rounds) and behave like occupied windows.
type BusinessHours struct {
	Open       calendar.TimeOfDay
	Close      calendar.TimeOfDay
	Step       int
	Breaks     []calendar.Interval
	ClosedDays []time.Weekday
}

func DefaultBusinessHours() BusinessHours {
	return BusinessHours{
		Open:  calendar.NewTimeOfDay(9, 0),
		Close: calendar.NewTimeOfDay(17, 0),
		Step:  15,
	}
}

func (h BusinessHours) Validate() error {
	if h.Open >= h.Close {
		return Invalid("business_hours", "open must be before close")
	}
	if h.Open < 0 || h.Close > calendar.NewTimeOfDay(24, 0) {
		return Invalid("business_hours", "hours must fall within one day")
	}
	if h.Step <= 0 {
		return Invalid("step_minutes", "must be positive")
	}
	for _, b := range h.Breaks {
		if b.Start >= b.End {
			return Invalid("breaks", "break "+b.String()+" is empty")
		}
	}
	return nil
}

func (h BusinessHours) IsOpenOn(d calendar.Date) bool {
	return !slices.Contains(h.ClosedDays, d.Weekday())
}

// Contains reports whether iv lies fully inside opening hours. Breaks are
// not considered here; they are resolved as conflicts.
func (h BusinessHours) Contains(iv calendar.Interval) bool {
	return iv.Start < iv.End && iv.Start >= h.Open && iv.End <= h.Close
}
