package calendar

// Interval is the half-open window [Start, End).
type Interval struct {
	Start TimeOfDay `json:"start_time"`
	End   TimeOfDay `json:"end_time"`
}

func NewInterval(start TimeOfDay, minutes int) Interval {
	return Interval{Start: start, End: start.Add(minutes)}
}

// Overlaps reports whether the two windows share any minute. Touching
// endpoints do not overlap.
func (i Interval) Overlaps(o Interval) bool {
	return !(i.End <= o.Start || i.Start >= o.End)
}

func (i Interval) Minutes() int {
	return int(i.End - i.Start)
}

func (i Interval) String() string {
	return i.Start.String() + "-" + i.End.String()
}
