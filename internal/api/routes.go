package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/navikt/roomfinder/internal/clock"
	"github.com/navikt/roomfinder/internal/models"
)

// Dependencies holds everything the HTTP routes are built from
type Dependencies struct {
	Directory    RoomDirectory
	Availability AvailabilityQuerier
	Bookings     BookingServicer
	Ledger       Pinger
	Clock        clock.Clock
	Window       models.BusinessHours
	SoonWindow   time.Duration
	ImportSecret string
	// Limiter throttles booking submissions; nil disables throttling
	Limiter *RateLimiter
	// Events serves the server-sent event stream; nil leaves /events unmounted
	Events http.Handler
	Logger *slog.Logger
}

// SetupRoutes configures the HTTP routes for the API
func SetupRoutes(deps Dependencies) *http.ServeMux {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	// Health check endpoints for Kubernetes
	mux.HandleFunc("/health/live", HealthLiveHandler)
	mux.Handle("/health/ready", NewReadinessHandler(deps.Ledger, deps.Directory, logger))

	// Room directory
	roomHandler := NewRoomHandler(deps.Directory, logger)
	mux.Handle("/api/rooms", roomHandler)
	mux.Handle("/api/rooms/", roomHandler)

	// Availability
	availabilityHandler := NewAvailabilityHandler(deps.Availability, deps.Clock, deps.SoonWindow, logger)
	mux.Handle("/api/availability", availabilityHandler)
	mux.Handle("/api/available-rooms", availabilityHandler)

	// Bookings; the import path is more specific than the prefix and wins
	bookingHandler := NewBookingHandler(deps.Bookings, deps.Limiter, logger)
	mux.Handle("/api/bookings", bookingHandler)
	mux.Handle("/api/bookings/", bookingHandler)
	mux.Handle("/api/bookings/import", NewImportHandler(deps.Bookings, deps.ImportSecret, logger))

	// Day view layout
	mux.Handle("/api/timeline", NewTimelineHandler(deps.Directory, deps.Bookings, deps.Clock, deps.Window, logger))

	if deps.Events != nil {
		mux.Handle("/events", deps.Events)
	}

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}
