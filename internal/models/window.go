package models

import (
	"time"

	"github.com/navikt/roomfinder/internal/errs"
)

// BusinessHours is the bookable and displayable part of a day together with
// the pixel scale used to draw it
type BusinessHours struct {
	StartHour       int     `json:"startHour"`
	EndHour         int     `json:"endHour"`
	PixelsPerHour   float64 `json:"pixelsPerHour"`
	RoomColumnWidth float64 `json:"roomColumnWidth"`
}

// DefaultBusinessHours is 08:00-18:00 drawn at 100px per hour behind a 180px room column
var DefaultBusinessHours = BusinessHours{
	StartHour:       8,
	EndHour:         18,
	PixelsPerHour:   100,
	RoomColumnWidth: 180,
}

// Validate checks that the window describes a non-empty part of one day
func (w BusinessHours) Validate() error {
	if w.StartHour < 0 || w.EndHour > 24 || w.StartHour >= w.EndHour {
		return errs.Invalid("businessHours", "start hour must be before end hour within 0-24")
	}
	if w.PixelsPerHour <= 0 {
		return errs.Invalid("pixelsPerHour", "must be positive")
	}
	if w.RoomColumnWidth < 0 {
		return errs.Invalid("roomColumnWidth", "must not be negative")
	}
	return nil
}

// PixelsPerMinute returns the horizontal scale of one minute
func (w BusinessHours) PixelsPerMinute() float64 {
	return w.PixelsPerHour / 60
}

// StartMinute returns the window origin in minutes after midnight
func (w BusinessHours) StartMinute() int {
	return w.StartHour * 60
}

// EndMinute returns the window end in minutes after midnight
func (w BusinessHours) EndMinute() int {
	return w.EndHour * 60
}

// Hours returns the number of hour columns in the window
func (w BusinessHours) Hours() int {
	return w.EndHour - w.StartHour
}

// Bounds returns the window as an interval on day
func (w BusinessHours) Bounds(day time.Time) Interval {
	return Interval{
		Start: At(day, w.StartMinute()),
		End:   At(day, w.EndMinute()),
	}
}

// Admits reports whether i lies entirely inside the window of its day
func (w BusinessHours) Admits(i Interval) bool {
	return w.Bounds(i.Start).ContainsInterval(i)
}
