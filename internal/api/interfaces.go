package api

import (
	"context"
	"time"

	"github.com/navikt/roomfinder/internal/availability"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/service"
)

// RoomDirectory defines the directory operations needed by API handlers
type RoomDirectory interface {
	Rooms() []models.Room
	Get(id string) (models.Room, error)
	Len() int
}

// AvailabilityQuerier answers availability queries
type AvailabilityQuerier interface {
	Query(ctx context.Context, q availability.Query) (availability.Result, error)
	AvailableSoon(ctx context.Context, within time.Duration) (availability.Result, error)
}

// BookingServicer defines the booking operations needed by API handlers
type BookingServicer interface {
	Submit(ctx context.Context, req service.Request) (service.Submission, error)
	Cancel(ctx context.Context, reference string) (models.Booking, error)
	Get(ctx context.Context, reference string) (models.Booking, error)
	UserBookings(ctx context.Context, user string, filter service.UserFilter) ([]models.Booking, error)
	Ingest(ctx context.Context, records []service.ImportRecord) (service.ImportResult, error)
	BookingsOn(ctx context.Context, roomID string, day time.Time) ([]models.Booking, error)
}

// Pinger checks that a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}
