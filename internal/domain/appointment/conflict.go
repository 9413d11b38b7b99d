package appointment

import (
	"fmt"
	"iter"
	"sort"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	"github.com/SysArcDCMS/dcms-scheduler/internal/models"
)

type OccupancyKind string

const (
	OccupancyAppointment OccupancyKind = "appointment"
	OccupancyBreak       OccupancyKind = "break"
)

// Occupancy is a window nothing else may overlap: a booked appointment's
// footprint or a clinic closure.
type Occupancy struct {
	calendar.Interval
	Kind          OccupancyKind
	AppointmentID string
}

func (o Occupancy) reason() string {
	if o.Kind == OccupancyBreak {
		return fmt.Sprintf("conflicts with clinic break at %s", o.Start)
	}
	return fmt.Sprintf("conflicts with booked appointment at %s", o.Start)
}

// OccupiedInterval is [start, start+duration+buffer).
func OccupiedInterval(ap *models.Appointment) calendar.Interval {
	return calendar.NewInterval(ap.StartTime, ap.DurationMinutes+ap.BufferMinutes)
}

// Occupancies collects the booked appointments of one day plus the clinic
// breaks, skipping excludeID. The result is ordered by start, then id.
func Occupancies(aps []models.Appointment, hours BusinessHours, excludeID string) []Occupancy {
	out := make([]Occupancy, 0, len(aps)+len(hours.Breaks))

	for _, b := range hours.Breaks {
		out = append(out, Occupancy{Interval: b, Kind: OccupancyBreak})
	}

	for i := range aps {
		ap := &aps[i]
		if Status(ap.Status) != StatusBooked || ap.ID == excludeID {
			continue
		}
		out = append(out, Occupancy{
			Interval:      OccupiedInterval(ap),
			Kind:          OccupancyAppointment,
			AppointmentID: ap.ID,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Start != out[j].Start {
			return out[i].Start < out[j].Start
		}
		return out[i].AppointmentID < out[j].AppointmentID
	})
	return out
}

func firstConflict(candidate calendar.Interval, occupied []Occupancy) (Occupancy, bool) {
	for _, o := range occupied {
		if o.Start >= candidate.End {
			break
		}
		if candidate.Overlaps(o.Interval) {
			return o, true
		}
	}
	return Occupancy{}, false
}

// Annotate marks every candidate with its availability. This is the
// diagnostic view; booking clients use Available.
func Annotate(candidates iter.Seq[calendar.Interval], occupied []Occupancy) []TimeSlot {
	slots := []TimeSlot{}
	for c := range candidates {
		slot := TimeSlot{Start: c.Start, End: c.End, Available: true}
		if o, hit := firstConflict(c, occupied); hit {
			slot.Available = false
			slot.ConflictReason = o.reason()
		}
		slots = append(slots, slot)
	}
	return slots
}

// Available returns only the bookable candidates.
func Available(candidates iter.Seq[calendar.Interval], occupied []Occupancy) []TimeSlot {
	slots := []TimeSlot{}
	for c := range candidates {
		if _, hit := firstConflict(c, occupied); !hit {
			slots = append(slots, TimeSlot{Start: c.Start, End: c.End, Available: true})
		}
	}
	return slots
}

// CheckConflict is the commit-time test for a single window.
func CheckConflict(candidate calendar.Interval, occupied []Occupancy) error {
	if o, hit := firstConflict(candidate, occupied); hit {
		return &SlotConflictError{Reason: o.reason(), AppointmentID: o.AppointmentID}
	}
	return nil
}
