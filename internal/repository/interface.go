// Package repository defines the booking ledger and chooses its storage
package repository

import (
	"context"
	"time"

	"github.com/navikt/roomfinder/internal/models"
)

// Ledger is the authoritative record of bookings and the only place
// conflicts are decided
type Ledger interface {
	// BookingsFor returns the active bookings of a room ordered by start time
	BookingsFor(ctx context.Context, roomID string) ([]models.Booking, error)
	// BookingsOn returns the active bookings of a room on one day ordered by start time
	BookingsOn(ctx context.Context, roomID string, day time.Time) ([]models.Booking, error)
	// IsFree reports whether no active booking of the room overlaps interval
	IsFree(ctx context.Context, roomID string, interval models.Interval) (bool, error)
	// TryReserve inserts booking unless it overlaps an active booking of the
	// same room, in which case an errs.ConflictError names the clash.
	// Check and insert are atomic per room.
	TryReserve(ctx context.Context, booking models.Booking) (models.Booking, error)
	// Cancel marks a booking cancelled and frees its interval
	Cancel(ctx context.Context, reference string, at time.Time) (models.Booking, error)
	// Get returns a booking in any status by reference
	Get(ctx context.Context, reference string) (models.Booking, error)
	// ListByUser returns all bookings of a user in any status ordered by start time
	ListByUser(ctx context.Context, user string) ([]models.Booking, error)
	// Ping checks that the store is reachable
	Ping(ctx context.Context) error
}
