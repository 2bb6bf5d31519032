// Package timeline maps bookings onto the pixel grid of the day view.
// Everything here is a pure function of its arguments.
package timeline

import (
	"fmt"
	"time"

	"github.com/navikt/roomfinder/internal/models"
)

// Block is one booking drawn on a room row
type Block struct {
	RoomID      string  `json:"roomId"`
	Reference   string  `json:"bookingRef,omitempty"`
	LeftPixels  float64 `json:"leftPixels"`
	WidthPixels float64 `json:"widthPixels"`
	Label       string  `json:"label"`
}

// Column is one hour of the grid skeleton
type Column struct {
	Hour        int     `json:"hour"`
	Label       string  `json:"label"`
	LeftPixels  float64 `json:"leftPixels"`
	WidthPixels float64 `json:"widthPixels"`
}

// Timeline is everything needed to draw one day
type Timeline struct {
	Date      string   `json:"date"`
	Columns   []Column `json:"columns"`
	Blocks    []Block  `json:"blocks"`
	NowMarker *float64 `json:"nowMarker,omitempty"`
}

// Label formats an interval as "09:00 - 10:30"
func Label(i models.Interval) string {
	return fmt.Sprintf("%s - %s", i.Start.Format(models.ClockLayout), i.End.Format(models.ClockLayout))
}

// Visible reports whether a booking starting at t is drawn at all: its start
// hour must lie within [StartHour, EndHour]
func Visible(t time.Time, w models.BusinessHours) bool {
	return t.Hour() >= w.StartHour && t.Hour() <= w.EndHour
}

// position returns the x coordinate of t on its day's grid
func position(t time.Time, w models.BusinessHours) float64 {
	offset := t.Sub(w.Bounds(t).Start).Minutes()
	return w.RoomColumnWidth + offset*w.PixelsPerMinute()
}

// Place computes the rectangle for b. It returns false for bookings that are
// not drawn: placeholders, inactive bookings and bookings starting outside
// the window.
func Place(b models.Booking, w models.BusinessHours) (Block, bool) {
	if b.IsPlaceholder() || !b.IsActive() || !Visible(b.Interval.Start, w) {
		return Block{}, false
	}
	return Block{
		RoomID:      b.RoomID,
		Reference:   b.Reference,
		LeftPixels:  position(b.Interval.Start, w),
		WidthPixels: b.Interval.Duration().Minutes() * w.PixelsPerMinute(),
		Label:       Label(b.Interval),
	}, true
}

// Layout places every drawable booking, keeping input order
func Layout(bookings []models.Booking, w models.BusinessHours) []Block {
	blocks := make([]Block, 0, len(bookings))
	for _, b := range bookings {
		if block, ok := Place(b, w); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

// Columns returns one header column per hour from StartHour to EndHour
func Columns(w models.BusinessHours) []Column {
	cols := make([]Column, 0, w.Hours()+1)
	for h := w.StartHour; h <= w.EndHour; h++ {
		cols = append(cols, Column{
			Hour:        h,
			Label:       fmt.Sprintf("%02d:00", h),
			LeftPixels:  w.RoomColumnWidth + float64(h-w.StartHour)*w.PixelsPerHour,
			WidthPixels: w.PixelsPerHour,
		})
	}
	return cols
}

// NowMarker returns the x coordinate of the current-time line, or false when
// now is outside the drawn hours
func NowMarker(now time.Time, w models.BusinessHours) (float64, bool) {
	if !Visible(now, w) {
		return 0, false
	}
	return position(now, w), true
}

// Render builds the timeline of day. The now marker is only set when now
// falls on day.
func Render(day time.Time, bookings []models.Booking, w models.BusinessHours, now time.Time) Timeline {
	day = models.StartOfDay(day)
	onDay := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if models.StartOfDay(b.Interval.Start).Equal(day) {
			onDay = append(onDay, b)
		}
	}
	models.SortBookings(onDay)

	t := Timeline{
		Date:    day.Format(models.DateLayout),
		Columns: Columns(w),
		Blocks:  Layout(onDay, w),
	}
	now = now.In(day.Location())
	if models.StartOfDay(now).Equal(day) {
		if x, ok := NowMarker(now, w); ok {
			t.NowMarker = &x
		}
	}
	return t
}
