package models

import (
	"time"

	"github.com/navikt/roomfinder/internal/errs"
)

// Interval is a half-open time range [Start, End) within one calendar day.
// End may be the following midnight.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval validates and builds an interval
func NewInterval(start, end time.Time) (Interval, error) {
	if !start.Before(end) {
		return Interval{}, errs.Mark(
			errs.Newf("interval %s-%s has no duration", start.Format(DateTimeLayout), end.Format(DateTimeLayout)),
			errs.ErrInvalidInterval)
	}
	if end.After(nextMidnight(start)) {
		return Interval{}, errs.Mark(
			errs.Newf("interval %s-%s crosses midnight", start.Format(DateTimeLayout), end.Format(DateTimeLayout)),
			errs.ErrInvalidInterval)
	}
	return Interval{Start: start, End: end}, nil
}

// Overlaps reports whether a and b share any instant
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Overlaps reports whether i and other share any instant
func (i Interval) Overlaps(other Interval) bool {
	return Overlaps(i, other)
}

// Contains reports whether t falls inside the interval
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.Start) && t.Before(i.End)
}

// ContainsInterval reports whether other lies entirely inside i
func (i Interval) ContainsInterval(other Interval) bool {
	return !other.Start.Before(i.Start) && !other.End.After(i.End)
}

// Duration returns End - Start
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// DurationMinutes returns the length of the interval in whole minutes
func (i Interval) DurationMinutes() int {
	return int(i.Duration() / time.Minute)
}

// Day returns midnight of the day the interval belongs to
func (i Interval) Day() time.Time {
	return StartOfDay(i.Start)
}

// DayKey returns the interval's day as YYYY-MM-DD
func (i Interval) DayKey() string {
	return i.Start.Format(DateLayout)
}

// OffsetMinutes returns the minutes between the window origin and Start
func (i Interval) OffsetMinutes(w BusinessHours) int {
	return minuteOfDay(i.Start) - w.StartMinute()
}

// ClampTo intersects the interval with the business-hours window of its day.
// It returns nil when nothing of the interval lies inside the window.
func (i Interval) ClampTo(w BusinessHours) *Interval {
	bounds := w.Bounds(i.Start)
	start, end := i.Start, i.End
	if start.Before(bounds.Start) {
		start = bounds.Start
	}
	if end.After(bounds.End) {
		end = bounds.End
	}
	if !start.Before(end) {
		return nil
	}
	return &Interval{Start: start, End: end}
}

// String formats the interval as "YYYY-MM-DD HH:MM-HH:MM"
func (i Interval) String() string {
	return i.Start.Format("2006-01-02 15:04") + "-" + i.End.Format("15:04")
}

// StartOfDay returns midnight of t's day in t's location
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func nextMidnight(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1)
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
