// Package interval implements the conflict-detection engine for hall
// scheduling. It is purely computational: callers load the committed
// intervals for a hall and ask whether a proposed interval may join them.
package interval

import "time"

// Span is a half-open [Start, End) wall-clock interval claimed on a hall.
// Timestamps carry minute precision and are compared exactly as supplied;
// no timezone conversion happens here.
type Span struct {
	ID     string
	HallID string
	Start  time.Time
	End    time.Time
}

// Valid reports whether the span is well formed.
func (s Span) Valid() bool {
	return s.Start.Before(s.End)
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints do not conflict: [9:00, 11:00) and [11:00, 13:00) coexist.
func Overlaps(a, b Span) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// DatesOverlap compares two spans at day granularity, ignoring the time of
// day. The date ranges are inclusive on both ends, so two spans sharing a
// calendar day overlap even when their times do not.
func DatesOverlap(a, b Span) bool {
	aStart, aEnd := dateOf(a.Start), dateOf(a.End)
	bStart, bEnd := dateOf(b.Start), dateOf(b.End)
	return !aStart.After(bEnd) && !bStart.After(aEnd)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// WholeHours returns the number of whole hours between start and end,
// truncated toward zero. A 3.5 hour interval bills as 3 hours.
func WholeHours(start, end time.Time) int64 {
	if !start.Before(end) {
		return 0
	}
	return int64(end.Sub(start) / time.Hour)
}
