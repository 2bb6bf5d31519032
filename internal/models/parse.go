package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/navikt/roomfinder/internal/errs"
)

// Wire formats accepted at the parsing boundary
const (
	DateTimeLayout = "2006-01-02 15:04:05"
	DateLayout     = "2006-01-02"
	ClockLayout    = "15:04"
)

// PlaceholderDateTime is the zero timestamp some booking sources emit for
// rows that are not real reservations
const PlaceholderDateTime = "0000-00-00 00:00:00"

// ParseError reports a raw value that could not be turned into a time
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseError(field, value string, err error) error {
	return errs.Mark(&ParseError{Field: field, Value: value, Err: err}, errs.ErrInvalidInterval)
}

// ParseDateTime parses "YYYY-MM-DD HH:MM:SS" in loc. A "T" separator is also accepted.
func ParseDateTime(field, value string, loc *time.Location) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, parseError(field, value, fmt.Errorf("empty value"))
	}
	v = strings.Replace(v, "T", " ", 1)
	if len(v) == len("2006-01-02 15:04") {
		v += ":00"
	}
	t, err := time.ParseInLocation(DateTimeLayout, v, loc)
	if err != nil {
		return time.Time{}, parseError(field, value, err)
	}
	return t, nil
}

// ParseInterval parses a start/end pair into a validated interval
func ParseInterval(start, end string, loc *time.Location) (Interval, error) {
	s, err := ParseDateTime("startTime", start, loc)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseDateTime("endTime", end, loc)
	if err != nil {
		return Interval{}, err
	}
	return NewInterval(s, e)
}

// ParseDate parses "YYYY-MM-DD" to midnight in loc
func ParseDate(field, value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, parseError(field, value, err)
	}
	return t, nil
}

// ParseClock parses "HH:MM" (seconds optional) and returns minutes after midnight
func ParseClock(field, value string) (int, error) {
	v := strings.TrimSpace(value)
	layout := ClockLayout
	if len(v) == len("15:04:05") {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return 0, parseError(field, value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// At returns the instant minutes after midnight of day
func At(day time.Time, minutes int) time.Time {
	return StartOfDay(day).Add(time.Duration(minutes) * time.Minute)
}
