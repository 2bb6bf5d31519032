package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/navikt/roomfinder/internal/errs"
)

// BookingStatus represents the lifecycle state of a booking
type BookingStatus int

const (
	BookingStatusActive BookingStatus = iota
	BookingStatusCancelled
	BookingStatusCompleted
)

var bookingStatusNames = [...]string{"ACTIVE", "CANCELLED", "COMPLETED"}

// String returns the string representation of a booking status
func (s BookingStatus) String() string {
	if s < 0 || int(s) >= len(bookingStatusNames) {
		return fmt.Sprintf("BookingStatus(%d)", int(s))
	}
	return bookingStatusNames[s]
}

// MarshalJSON encodes the status by name
func (s BookingStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a status name
func (s *BookingStatus) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range bookingStatusNames {
		if strings.EqualFold(n, name) {
			*s = BookingStatus(i)
			return nil
		}
	}
	return fmt.Errorf("unknown booking status %q", name)
}

// Booking is a reservation of a room for an interval
type Booking struct {
	ID          string        `json:"id"`
	Reference   string        `json:"bookingRef"`
	RoomID      string        `json:"roomId"`
	Interval    Interval      `json:"interval"`
	User        string        `json:"user,omitempty"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
	CancelledAt time.Time     `json:"cancelledAt,omitempty"`
}

// IsActive reports whether the booking still holds its interval
func (b *Booking) IsActive() bool {
	return b.Status == BookingStatusActive
}

// EffectiveStatus reports COMPLETED for active bookings that have ended by now
func (b *Booking) EffectiveStatus(now time.Time) BookingStatus {
	if b.Status == BookingStatusActive && !b.Interval.End.After(now) {
		return BookingStatusCompleted
	}
	return b.Status
}

// IsPlaceholder reports whether the booking is a sentinel row rather than
// a real reservation: epoch or zero start, or no duration
func (b *Booking) IsPlaceholder() bool {
	return IsPlaceholderInterval(b.Interval)
}

// IsPlaceholderInterval reports whether i is a sentinel interval
func IsPlaceholderInterval(i Interval) bool {
	if i.Start.IsZero() || i.Start.Unix() == 0 {
		return true
	}
	return !i.Start.Before(i.End)
}

// IsPlaceholderRecord reports whether a raw booking-source row is a sentinel.
// sourceID is the row id the source assigned, nil when it sent none.
func IsPlaceholderRecord(sourceID *int, start, end string) bool {
	if sourceID != nil && *sourceID == 0 {
		return true
	}
	start = strings.TrimSpace(start)
	if start == "" || start == PlaceholderDateTime || strings.HasPrefix(start, "1970-01-01 00:00:00") {
		return true
	}
	return start == strings.TrimSpace(end)
}

// SortBookings orders bookings by start time, then by reference
func SortBookings(bookings []Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		a, b := bookings[i].Interval.Start, bookings[j].Interval.Start
		if a.Equal(b) {
			return bookings[i].Reference < bookings[j].Reference
		}
		return a.Before(b)
	})
}

// CheckReservable rejects bookings no ledger may store
func (b *Booking) CheckReservable() error {
	switch {
	case b.RoomID == "":
		return errs.Invalid("roomId", "is required")
	case b.Reference == "":
		return errs.Invalid("bookingRef", "is required")
	case b.IsPlaceholder():
		return errs.Mark(errs.Newf("placeholder interval %s", b.Interval), errs.ErrInvalidInterval)
	case b.Status != BookingStatusActive:
		return errs.Invalid("status", "only active bookings can be reserved")
	}
	_, err := NewInterval(b.Interval.Start, b.Interval.End)
	return err
}
