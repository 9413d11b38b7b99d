package calendar

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const TimeLayout = "15:04"

// TimeOfDay counts minutes since clinic-local midnight.
type TimeOfDay int

func NewTimeOfDay(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("parse time of day %q: %w", s, err)
	}
	return NewTimeOfDay(t.Hour(), t.Minute()), nil
}

// CeilTimeOfDay returns the first whole minute at or after t.
func CeilTimeOfDay(t time.Time) TimeOfDay {
	tod := NewTimeOfDay(t.Hour(), t.Minute())
	if t.Second() > 0 || t.Nanosecond() > 0 {
		tod++
	}
	return tod
}

// RoundUp rounds t up to the next multiple of step minutes.
func RoundUp(t TimeOfDay, step int) TimeOfDay {
	if step <= 1 {
		return t
	}
	if rem := int(t) % step; rem != 0 {
		return t + TimeOfDay(step-rem)
	}
	return t
}

func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (TimeOfDay) GormDataType() string {
	return "integer"
}

func (t TimeOfDay) Value() (driver.Value, error) {
	return int64(t), nil
}

func (t *TimeOfDay) Scan(src any) error {
	switch v := src.(type) {
	case int64:
		*t = TimeOfDay(v)
	case int32:
		*t = TimeOfDay(v)
	case int:
		*t = TimeOfDay(v)
	case nil:
		*t = 0
	default:
		return fmt.Errorf("calendar: cannot scan %T into TimeOfDay", src)
	}
	return nil
}
