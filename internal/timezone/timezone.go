package timezone

import (
	"fmt"
	"strings"
	"time"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
)

// DefaultTimezone is the offset the clinic operated on before the location
// became configurable.
const DefaultTimezone = "+08:00"

// Clock supplies "now" in the clinic's location.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

// Load resolves an IANA zone name ("Asia/Manila") or a fixed offset
// ("+08:00", "UTC-03:30").
func Load(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		tz = DefaultTimezone
	}

	if loc, ok := parseOffset(tz); ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown clinic timezone %q: %w", tz, err)
	}
	return loc, nil
}

func IsValid(tz string) bool {
	_, err := Load(tz)
	return err == nil
}

func parseOffset(tz string) (*time.Location, bool) {
	s := strings.TrimPrefix(strings.ToUpper(tz), "UTC")
	if s == "" || (s[0] != '+' && s[0] != '-') {
		return nil, false
	}

	t, err := time.Parse("-07:00", s)
	if err != nil {
		if t, err = time.Parse("-07", s); err != nil {
			return nil, false
		}
	}
	_, offset := t.Zone()
	return time.FixedZone("UTC"+s, offset), true
}

type clinicClock struct {
	loc *time.Location
}

func NewClinicClock(loc *time.Location) Clock {
	return clinicClock{loc: loc}
}

func (c clinicClock) Now() time.Time             { return time.Now().In(c.loc) }
func (c clinicClock) Location() *time.Location { return c.loc }

// Fixed is a Clock frozen at a single instant.
type Fixed struct {
	At time.Time
}

func (f Fixed) Now() time.Time             { return f.At }
func (f Fixed) Location() *time.Location { return f.At.Location() }

func Today(c Clock) calendar.Date {
	return calendar.DateOf(c.Now())
}
