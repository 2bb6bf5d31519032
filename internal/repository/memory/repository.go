// Package memory provides an in-memory implementation of the booking ledger
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
)

// roomBookings holds the active bookings of one room sorted by start.
// Its lock is the per-room critical section for check-and-insert.
type roomBookings struct {
	mu       sync.RWMutex
	bookings []models.Booking
}

// Repository implements the ledger with in-memory storage.
// Lock order is room lock before refsMu.
type Repository struct {
	mu    sync.RWMutex
	rooms map[string]*roomBookings

	refsMu sync.RWMutex
	refs   map[string]models.Booking
}

// NewRepository creates a new in-memory ledger
func NewRepository() *Repository {
	return &Repository{
		rooms: make(map[string]*roomBookings),
		refs:  make(map[string]models.Booking),
	}
}

// room returns the booking list of roomID, creating it when create is set
func (r *Repository) room(roomID string, create bool) *roomBookings {
	r.mu.RLock()
	rb, ok := r.rooms[roomID]
	r.mu.RUnlock()
	if ok || !create {
		return rb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rb, ok = r.rooms[roomID]; !ok {
		rb = &roomBookings{}
		r.rooms[roomID] = rb
	}
	return rb
}

// BookingsFor returns the active bookings of a room ordered by start time
func (r *Repository) BookingsFor(ctx context.Context, roomID string) ([]models.Booking, error) {
	rb := r.room(roomID, false)
	if rb == nil {
		return []models.Booking{}, nil
	}

	rb.mu.RLock()
	defer rb.mu.RUnlock()

	out := make([]models.Booking, len(rb.bookings))
	copy(out, rb.bookings)
	return out, nil
}

// BookingsOn returns the active bookings of a room on day
func (r *Repository) BookingsOn(ctx context.Context, roomID string, day time.Time) ([]models.Booking, error) {
	all, err := r.BookingsFor(ctx, roomID)
	if err != nil {
		return nil, err
	}

	dayStart := models.StartOfDay(day)
	dayEnd := dayStart.AddDate(0, 0, 1)
	out := make([]models.Booking, 0, len(all))
	for _, b := range all {
		if !b.Interval.Start.Before(dayStart) && b.Interval.Start.Before(dayEnd) {
			out = append(out, b)
		}
	}
	return out, nil
}

// IsFree reports whether no active booking of the room overlaps interval
func (r *Repository) IsFree(ctx context.Context, roomID string, interval models.Interval) (bool, error) {
	rb := r.room(roomID, false)
	if rb == nil {
		return true, nil
	}

	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return findClash(rb.bookings, interval) == nil, nil
}

// findClash returns the first booking overlapping interval. bookings is sorted by start.
func findClash(bookings []models.Booking, interval models.Interval) *models.Booking {
	// bookings starting at or after interval.End cannot overlap
	n := sort.Search(len(bookings), func(i int) bool {
		return !bookings[i].Interval.Start.Before(interval.End)
	})
	for i := 0; i < n; i++ {
		if bookings[i].Interval.Overlaps(interval) {
			return &bookings[i]
		}
	}
	return nil
}

// TryReserve inserts booking unless it clashes with an active booking of the same room
func (r *Repository) TryReserve(ctx context.Context, booking models.Booking) (models.Booking, error) {
	if err := booking.CheckReservable(); err != nil {
		return models.Booking{}, err
	}

	rb := r.room(booking.RoomID, true)
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if clash := findClash(rb.bookings, booking.Interval); clash != nil {
		return models.Booking{}, errs.Conflict(clash.RoomID, clash.Reference, clash.Interval.Start, clash.Interval.End)
	}

	r.refsMu.Lock()
	if _, taken := r.refs[booking.Reference]; taken {
		r.refsMu.Unlock()
		return models.Booking{}, errs.Invalid("bookingRef", "reference "+booking.Reference+" already in use")
	}
	r.refs[booking.Reference] = booking
	r.refsMu.Unlock()

	i := sort.Search(len(rb.bookings), func(i int) bool {
		return booking.Interval.Start.Before(rb.bookings[i].Interval.Start)
	})
	rb.bookings = append(rb.bookings, models.Booking{})
	copy(rb.bookings[i+1:], rb.bookings[i:])
	rb.bookings[i] = booking

	return booking, nil
}

// Cancel marks a booking cancelled and frees its interval
func (r *Repository) Cancel(ctx context.Context, reference string, at time.Time) (models.Booking, error) {
	existing, err := r.Get(ctx, reference)
	if err != nil {
		return models.Booking{}, err
	}

	rb := r.room(existing.RoomID, true)
	rb.mu.Lock()
	defer rb.mu.Unlock()

	r.refsMu.Lock()
	defer r.refsMu.Unlock()

	booking := r.refs[reference]
	if booking.Status != models.BookingStatusActive {
		return models.Booking{}, errs.Invalid("bookingRef", "booking "+reference+" is already "+booking.Status.String())
	}

	booking.Status = models.BookingStatusCancelled
	booking.CancelledAt = at
	r.refs[reference] = booking

	for i := range rb.bookings {
		if rb.bookings[i].Reference == reference {
			rb.bookings = append(rb.bookings[:i], rb.bookings[i+1:]...)
			break
		}
	}
	return booking, nil
}

// Get returns a booking by reference
func (r *Repository) Get(ctx context.Context, reference string) (models.Booking, error) {
	r.refsMu.RLock()
	defer r.refsMu.RUnlock()

	b, ok := r.refs[reference]
	if !ok {
		return models.Booking{}, errs.Mark(errs.Newf("booking %q", reference), errs.ErrNotFound)
	}
	return b, nil
}

// ListByUser returns every booking of user ordered by start time
func (r *Repository) ListByUser(ctx context.Context, user string) ([]models.Booking, error) {
	r.refsMu.RLock()
	out := make([]models.Booking, 0)
	for _, b := range r.refs {
		if b.User == user {
			out = append(out, b)
		}
	}
	r.refsMu.RUnlock()

	models.SortBookings(out)
	return out, nil
}

// Ping always succeeds
func (r *Repository) Ping(ctx context.Context) error {
	return nil
}
