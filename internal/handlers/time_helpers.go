package handlers

import (
	"strconv"
	"strings"

	"github.com/SysArcDCMS/dcms-scheduler/internal/calendar"
	domain "github.com/SysArcDCMS/dcms-scheduler/internal/domain/appointment"
)

// --------------------------------------------------
// Request parsing. Everything is clinic-local: dates are calendar days and
// times are wall-clock minutes, so no location is needed here.
// --------------------------------------------------

func parseDate(field, raw string) (calendar.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return calendar.Date{}, domain.Invalid(field, "is required")
	}
	d, err := calendar.ParseDate(raw)
	if err != nil {
		return calendar.Date{}, domain.Invalid(field, "must be YYYY-MM-DD")
	}
	return d, nil
}

func parseTime(field, raw string) (calendar.TimeOfDay, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, domain.Invalid(field, "is required")
	}
	t, err := calendar.ParseTimeOfDay(raw)
	if err != nil {
		return 0, domain.Invalid(field, "must be HH:MM")
	}
	return t, nil
}

func parseInt(field, raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(field, "must be an integer")
	}
	return n, nil
}

// parseAvailability reads ?date=&duration=&buffer=.
func parseAvailability(date, duration, buffer string) (domain.AvailabilityInput, error) {
	d, err := parseDate("date", date)
	if err != nil {
		return domain.AvailabilityInput{}, err
	}

	if strings.TrimSpace(duration) == "" {
		return domain.AvailabilityInput{}, domain.Invalid("duration", "is required")
	}
	dur, err := parseInt("duration", duration, 0)
	if err != nil {
		return domain.AvailabilityInput{}, err
	}

	buf, err := parseInt("buffer", buffer, 0)
	if err != nil {
		return domain.AvailabilityInput{}, err
	}

	fp := domain.Footprint{DurationMinutes: dur, BufferMinutes: buf}
	if err := fp.Validate(); err != nil {
		return domain.AvailabilityInput{}, err
	}

	return domain.AvailabilityInput{Date: d, Footprint: fp}, nil
}
