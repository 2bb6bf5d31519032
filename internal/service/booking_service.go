package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/navikt/roomfinder/internal/bookingref"
	"github.com/navikt/roomfinder/internal/clock"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/events"
	"github.com/navikt/roomfinder/internal/logging"
	"github.com/navikt/roomfinder/internal/metrics"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/repository"
)

// SubmissionState is the position of one submission attempt in its lifecycle
type SubmissionState int

const (
	StateIdle SubmissionState = iota
	StateValidating
	StateCommitting
	StateCommitted
	StateRejected
)

var submissionStateNames = [...]string{"Idle", "Validating", "Committing", "Committed", "Rejected"}

func (s SubmissionState) String() string {
	if s < 0 || int(s) >= len(submissionStateNames) {
		return fmt.Sprintf("SubmissionState(%d)", int(s))
	}
	return submissionStateNames[s]
}

// Terminal reports whether no further transition can happen
func (s SubmissionState) Terminal() bool {
	return s == StateCommitted || s == StateRejected
}

// Request is a booking submission as received from a client. Date plus
// "HH:MM" times, or full "YYYY-MM-DD HH:MM:SS" times without Date.
type Request struct {
	RoomID    string `json:"roomId"`
	Date      string `json:"date,omitempty"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	User      string `json:"user,omitempty"`
}

// Submission is the outcome of one Submit call
type Submission struct {
	State   SubmissionState
	Booking *models.Booking
	Err     error
	// Trace lists every state the attempt passed through
	Trace []SubmissionState
}

func (s *Submission) enter(state SubmissionState) {
	s.State = state
	s.Trace = append(s.Trace, state)
}

func (s *Submission) reject(err error) (Submission, error) {
	s.enter(StateRejected)
	s.Err = err
	return *s, err
}

// BookingUpdateCallback is called after a booking is committed or cancelled
type BookingUpdateCallback func(models.Booking)

// RoomLookup resolves room identifiers against the directory
type RoomLookup interface {
	Get(id string) (models.Room, error)
}

// BookingService validates and commits bookings against the ledger
type BookingService struct {
	rooms     RoomLookup
	ledger    repository.Ledger
	refs      *bookingref.Generator
	clock     clock.Clock
	window    models.BusinessHours
	publisher events.Publisher
	logger    *slog.Logger

	mu              sync.RWMutex
	updateCallbacks []BookingUpdateCallback
}

// Option configures a BookingService
type Option func(*BookingService)

// WithPublisher sends booking events to p
func WithPublisher(p events.Publisher) Option {
	return func(s *BookingService) { s.publisher = p }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(s *BookingService) { s.logger = l }
}

// WithReferenceGenerator replaces the booking reference generator
func WithReferenceGenerator(g *bookingref.Generator) Option {
	return func(s *BookingService) { s.refs = g }
}

// NewBookingService creates a new BookingService
func NewBookingService(rooms RoomLookup, ledger repository.Ledger, clk clock.Clock, window models.BusinessHours, opts ...Option) *BookingService {
	s := &BookingService{
		rooms:           rooms,
		ledger:          ledger,
		refs:            bookingref.NewGenerator(),
		clock:           clk,
		window:          window,
		publisher:       events.NoopPublisher{},
		logger:          slog.Default(),
		updateCallbacks: make([]BookingUpdateCallback, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterUpdateCallback registers a callback function to be called when booking data changes
func (s *BookingService) RegisterUpdateCallback(callback BookingUpdateCallback) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCallbacks = append(s.updateCallbacks, callback)
}

// notifyUpdate calls all registered callbacks with the changed booking
func (s *BookingService) notifyUpdate(b models.Booking) {
	s.mu.RLock()
	callbacks := s.updateCallbacks
	s.mu.RUnlock()

	for _, callback := range callbacks {
		callback(b)
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, b models.Booking) {
	event := events.NewBookingEvent(eventType, b, s.clock.Now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		metrics.RecordPublishFailure()
		s.logger.Error("Failed to publish booking event",
			slog.String("type", eventType),
			slog.String("bookingRef", b.Reference),
			slog.Any("error", err))
	}
}

// Submit runs one submission attempt. It never retries: on conflict the
// caller decides whether to resubmit with other parameters.
func (s *BookingService) Submit(ctx context.Context, req Request) (Submission, error) {
	sub := Submission{}
	sub.enter(StateIdle)

	sub.enter(StateValidating)
	room, interval, err := s.validate(req)
	if err != nil {
		metrics.RecordSubmission(errs.Kind(err))
		s.logger.Info("Booking request rejected",
			logging.String("roomId", req.RoomID),
			slog.String("kind", errs.Kind(err)),
			slog.Any("error", err))
		return sub.reject(err)
	}

	sub.enter(StateCommitting)
	booking, err := s.commit(ctx, room, interval, strings.TrimSpace(req.User))
	if err != nil {
		metrics.RecordSubmission(errs.Kind(err))
		s.logger.Info("Booking commit rejected",
			slog.String("roomId", room.ID),
			slog.String("interval", interval.String()),
			slog.String("kind", errs.Kind(err)),
			slog.Any("error", err))
		return sub.reject(err)
	}

	sub.enter(StateCommitted)
	sub.Booking = &booking
	metrics.RecordSubmission("committed")
	s.logger.Info("Booking committed",
		slog.String("bookingRef", booking.Reference),
		slog.String("roomId", booking.RoomID),
		slog.String("interval", interval.String()))

	s.notifyUpdate(booking)
	s.publish(ctx, events.TypeBookingConfirmed, booking)
	return sub, nil
}

// validate checks a request and resolves its room and interval
func (s *BookingService) validate(req Request) (models.Room, models.Interval, error) {
	roomID := strings.TrimSpace(req.RoomID)
	switch {
	case roomID == "":
		return models.Room{}, models.Interval{}, errs.Invalid("roomId", "is required")
	case strings.TrimSpace(req.StartTime) == "":
		return models.Room{}, models.Interval{}, errs.Invalid("startTime", "is required")
	case strings.TrimSpace(req.EndTime) == "":
		return models.Room{}, models.Interval{}, errs.Invalid("endTime", "is required")
	}

	now := s.clock.Now()
	interval, err := s.parseInterval(req, now.Location())
	if err != nil {
		return models.Room{}, models.Interval{}, err
	}
	if !s.window.Admits(interval) {
		return models.Room{}, models.Interval{}, errs.Invalid("startTime",
			fmt.Sprintf("bookings must lie within %02d:00-%02d:00", s.window.StartHour, s.window.EndHour))
	}
	if interval.Start.Before(now.Truncate(time.Minute)) {
		return models.Room{}, models.Interval{}, errs.Invalid("date", "cannot book in the past")
	}

	room, err := s.rooms.Get(roomID)
	if err != nil {
		if errs.Is(err, errs.ErrNotFound) {
			return models.Room{}, models.Interval{}, errs.Mark(errs.Invalid("roomId", "unknown room "+roomID), errs.ErrNotFound)
		}
		return models.Room{}, models.Interval{}, err
	}
	return room, interval, nil
}

// parseInterval is the single place request strings become an interval
func (s *BookingService) parseInterval(req Request, loc *time.Location) (models.Interval, error) {
	if strings.TrimSpace(req.Date) == "" {
		start, err := models.ParseDateTime("startTime", req.StartTime, loc)
		if err != nil {
			return models.Interval{}, errs.Invalid("startTime", err.Error())
		}
		end, err := models.ParseDateTime("endTime", req.EndTime, loc)
		if err != nil {
			return models.Interval{}, errs.Invalid("endTime", err.Error())
		}
		return newInterval(start, end)
	}

	day, err := models.ParseDate("date", req.Date, loc)
	if err != nil {
		return models.Interval{}, errs.Invalid("date", err.Error())
	}
	startMin, err := models.ParseClock("startTime", req.StartTime)
	if err != nil {
		return models.Interval{}, errs.Invalid("startTime", err.Error())
	}
	endMin, err := models.ParseClock("endTime", req.EndTime)
	if err != nil {
		return models.Interval{}, errs.Invalid("endTime", err.Error())
	}
	return newInterval(models.At(day, startMin), models.At(day, endMin))
}

func newInterval(start, end time.Time) (models.Interval, error) {
	interval, err := models.NewInterval(start, end)
	if err != nil {
		return models.Interval{}, errs.Invalid("endTime", err.Error())
	}
	return interval, nil
}

// commit reserves the interval under a fresh reference
func (s *BookingService) commit(ctx context.Context, room models.Room, interval models.Interval, user string) (models.Booking, error) {
	ref, err := s.refs.Generate(ctx, room.Name, interval.Start, user, s.referenceTaken)
	if err != nil {
		return models.Booking{}, err
	}

	return s.ledger.TryReserve(ctx, models.Booking{
		ID:        uuid.NewString(),
		Reference: ref,
		RoomID:    room.ID,
		Interval:  interval,
		User:      user,
		Status:    models.BookingStatusActive,
		CreatedAt: s.clock.Now(),
	})
}

func (s *BookingService) referenceTaken(ctx context.Context, ref string) (bool, error) {
	_, err := s.ledger.Get(ctx, ref)
	switch {
	case err == nil:
		return true, nil
	case errs.Is(err, errs.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Cancel cancels an active booking and frees its interval
func (s *BookingService) Cancel(ctx context.Context, reference string) (models.Booking, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return models.Booking{}, errs.Invalid("bookingRef", "is required")
	}

	booking, err := s.ledger.Cancel(ctx, reference, s.clock.Now())
	if err != nil {
		return models.Booking{}, err
	}

	metrics.RecordCancellation()
	s.logger.Info("Booking cancelled", slog.String("bookingRef", booking.Reference))
	s.notifyUpdate(booking)
	s.publish(ctx, events.TypeBookingCancelled, booking)
	return booking, nil
}

// Get returns a booking by reference with its status as of now
func (s *BookingService) Get(ctx context.Context, reference string) (models.Booking, error) {
	booking, err := s.ledger.Get(ctx, strings.TrimSpace(reference))
	if err != nil {
		return models.Booking{}, err
	}
	booking.Status = booking.EffectiveStatus(s.clock.Now())
	return booking, nil
}

// UserFilter selects which of a user's bookings are listed
type UserFilter string

const (
	FilterAll     UserFilter = "all"
	FilterCurrent UserFilter = "current"
	FilterPast    UserFilter = "past"
)

// ParseUserFilter accepts "", "all", "current" and "past"
func ParseUserFilter(v string) (UserFilter, error) {
	switch f := UserFilter(strings.ToLower(strings.TrimSpace(v))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterCurrent, FilterPast:
		return f, nil
	default:
		return "", errs.Invalid("filter", "must be one of current, past, all")
	}
}

// UserBookings lists a user's bookings, newest first. Current bookings are
// active and not yet started; past bookings are completed or already over.
func (s *BookingService) UserBookings(ctx context.Context, user string, filter UserFilter) ([]models.Booking, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, errs.Invalid("user", "is required")
	}

	all, err := s.ledger.ListByUser(ctx, user)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	result := make([]models.Booking, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		b := all[i]
		b.Status = b.EffectiveStatus(now)
		switch filter {
		case FilterCurrent:
			if b.Status != models.BookingStatusActive || b.Interval.Start.Before(now) {
				continue
			}
		case FilterPast:
			if b.Status != models.BookingStatusCompleted && !b.Interval.End.Before(now) {
				continue
			}
		}
		result = append(result, b)
	}
	return result, nil
}

// BookingsOn returns a room's active bookings on day
func (s *BookingService) BookingsOn(ctx context.Context, roomID string, day time.Time) ([]models.Booking, error) {
	if _, err := s.rooms.Get(roomID); err != nil {
		return nil, err
	}
	return s.ledger.BookingsOn(ctx, roomID, day)
}
