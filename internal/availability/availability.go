// Package availability answers which rooms can be booked for a requested
// date, time and duration
package availability

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/navikt/roomfinder/internal/clock"
	"github.com/navikt/roomfinder/internal/directory"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
)

// DefaultDurationMinutes is used when a query gives a time but no duration
const DefaultDurationMinutes = 60

// maxParallelChecks bounds the ledger lookups one query runs at a time
const maxParallelChecks = 8

// RoomLister provides the directory snapshot
type RoomLister interface {
	Rooms() []models.Room
}

// FreeChecker answers whether a room is free during an interval
type FreeChecker interface {
	IsFree(ctx context.Context, roomID string, interval models.Interval) (bool, error)
}

// Query describes what the caller is looking for. Date and Time are optional;
// without a Time the ledger is not consulted.
type Query struct {
	Date            time.Time
	Time            *int // minutes after midnight
	DurationMinutes int
	Equipment       models.EquipmentSet
	BuildingPrefix  string
	MinCapacity     int
}

// HasTime reports whether the query asks for a specific interval
func (q Query) HasTime() bool {
	return q.Time != nil
}

// Result is the filtered room list. Degraded is set when the ledger could not
// be consulted; Rooms is then empty rather than partial.
type Result struct {
	Rooms    []models.Room `json:"rooms"`
	Degraded bool          `json:"degraded"`
	Reason   string        `json:"reason,omitempty"`
}

// Filter combines the directory and the ledger
type Filter struct {
	rooms  RoomLister
	ledger FreeChecker
	clock  clock.Clock
	window models.BusinessHours
	logger *slog.Logger
}

// NewFilter creates a Filter
func NewFilter(rooms RoomLister, ledger FreeChecker, clk clock.Clock, window models.BusinessHours, logger *slog.Logger) *Filter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filter{
		rooms:  rooms,
		ledger: ledger,
		clock:  clk,
		window: window,
		logger: logger,
	}
}

func empty() Result {
	return Result{Rooms: []models.Room{}}
}

// Interval resolves the requested interval of q. It returns nil when q has
// no time.
func (f *Filter) Interval(q Query) (*models.Interval, error) {
	if !q.HasTime() {
		return nil, nil
	}
	duration := q.DurationMinutes
	if duration == 0 {
		duration = DefaultDurationMinutes
	}
	if duration < 0 {
		return nil, errs.Invalid("durationHours", "must be positive")
	}

	day := q.Date
	if day.IsZero() {
		day = f.clock.Now()
	}
	start := models.At(day, *q.Time)
	interval, err := models.NewInterval(start, start.Add(time.Duration(duration)*time.Minute))
	if err != nil {
		return nil, err
	}
	return &interval, nil
}

// Query returns the rooms matching q in directory order
func (f *Filter) Query(ctx context.Context, q Query) (Result, error) {
	interval, err := f.Interval(q)
	if err != nil {
		return Result{}, err
	}

	now := f.clock.Now()
	if !q.Date.IsZero() && models.StartOfDay(q.Date).Before(models.StartOfDay(now)) {
		return empty(), nil
	}

	criteria := directory.Criteria{
		Equipment:      q.Equipment,
		BuildingPrefix: q.BuildingPrefix,
		MinCapacity:    q.MinCapacity,
	}
	candidates := criteria.Apply(f.rooms.Rooms())

	if interval == nil {
		return Result{Rooms: candidates}, nil
	}
	if !f.window.Admits(*interval) || interval.Start.Before(now.Truncate(time.Minute)) {
		return empty(), nil
	}

	return f.freeDuring(ctx, candidates, *interval), nil
}

// AvailableSoon returns the rooms free from now for the next within,
// clipped to midnight
func (f *Filter) AvailableSoon(ctx context.Context, within time.Duration) (Result, error) {
	if within <= 0 {
		return Result{}, errs.Invalid("within", "must be positive")
	}
	start := f.clock.Now().Truncate(time.Minute)
	end := start.Add(within)
	if midnight := models.StartOfDay(start).AddDate(0, 0, 1); end.After(midnight) {
		end = midnight
	}
	interval, err := models.NewInterval(start, end)
	if err != nil {
		return Result{}, err
	}
	return f.freeDuring(ctx, f.rooms.Rooms(), interval), nil
}

// freeDuring keeps the rooms with no booking overlapping interval. Any ledger
// failure degrades the whole result.
func (f *Filter) freeDuring(ctx context.Context, rooms []models.Room, interval models.Interval) Result {
	free := make([]bool, len(rooms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelChecks)
	for i, room := range rooms {
		g.Go(func() error {
			ok, err := f.ledger.IsFree(gctx, room.ID, interval)
			if err != nil {
				return errs.Wrapf(err, "checking room %s", room.ID)
			}
			free[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		f.logger.Warn("Availability degraded, ledger unreachable",
			slog.String("interval", interval.String()),
			slog.Any("error", err))
		return Result{
			Rooms:    []models.Room{},
			Degraded: true,
			Reason:   "booking ledger unavailable",
		}
	}

	result := make([]models.Room, 0, len(rooms))
	for i, room := range rooms {
		if free[i] {
			result = append(result, room)
		}
	}
	return Result{Rooms: result}
}
