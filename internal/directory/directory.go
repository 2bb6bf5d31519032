// Package directory holds the snapshot of bookable rooms and the pure
// filters used to narrow it down
package directory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/navikt/roomfinder/internal/clock"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/logging"
	"github.com/navikt/roomfinder/internal/metrics"
	"github.com/navikt/roomfinder/internal/models"
	"golang.org/x/sync/singleflight"
)

// Source loads the current room inventory from the room directory collaborator
type Source interface {
	Load(ctx context.Context) ([]models.Room, error)
}

// Cache stores the last good snapshot so a restart can survive a source outage
type Cache interface {
	Get(ctx context.Context) ([]models.Room, error)
	Set(ctx context.Context, rooms []models.Room) error
}

// Directory is an immutable, swappable snapshot of rooms in source order
type Directory struct {
	source Source
	cache  Cache
	logger *slog.Logger
	clock  clock.Clock
	group  singleflight.Group

	mu       sync.RWMutex
	rooms    []models.Room
	index    map[string]int
	loadedAt time.Time
}

// Option configures a Directory
type Option func(*Directory)

// WithCache enables the snapshot cache
func WithCache(c Cache) Option {
	return func(d *Directory) { d.cache = c }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(d *Directory) { d.logger = l }
}

// WithClock sets the clock used for LoadedAt
func WithClock(c clock.Clock) Option {
	return func(d *Directory) { d.clock = c }
}

// New creates an empty directory backed by source. Call Reload to fill it.
func New(source Source, opts ...Option) *Directory {
	d := &Directory{
		source: source,
		logger: slog.Default(),
		clock:  clock.NewReal(nil),
		index:  make(map[string]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Reload fetches a fresh snapshot. Concurrent calls share one fetch.
// On failure the previous snapshot stays in place (or the cached one, if the
// directory is still empty) and an ErrUpstreamUnavailable error is returned.
func (d *Directory) Reload(ctx context.Context) error {
	_, err, _ := d.group.Do("reload", func() (interface{}, error) {
		return nil, d.reload(ctx)
	})
	return err
}

func (d *Directory) reload(ctx context.Context) error {
	rooms, err := d.source.Load(ctx)
	if err != nil {
		if !errs.Is(err, errs.ErrUpstreamUnavailable) {
			err = errs.Mark(err, errs.ErrUpstreamUnavailable)
		}
		d.logger.Error("Room source failed", slog.Any("error", err))
		d.restoreFromCache(ctx)
		return errs.Wrap(err, "reloading room directory")
	}

	d.swap(rooms)

	if d.cache != nil {
		if err := d.cache.Set(ctx, d.Rooms()); err != nil {
			d.logger.Warn("Failed to cache room snapshot", slog.Any("error", err))
		}
	}
	return nil
}

func (d *Directory) restoreFromCache(ctx context.Context) {
	if d.cache == nil || d.Len() > 0 {
		return
	}
	rooms, err := d.cache.Get(ctx)
	if err != nil {
		d.logger.Warn("No cached room snapshot available", slog.Any("error", err))
		return
	}
	d.logger.Info("Serving cached room snapshot", slog.Int("rooms", len(rooms)))
	d.swap(rooms)
}

// swap validates rooms and installs them as the current snapshot
func (d *Directory) swap(rooms []models.Room) {
	snapshot := make([]models.Room, 0, len(rooms))
	index := make(map[string]int, len(rooms))
	for _, room := range rooms {
		if err := room.Validate(); err != nil {
			d.logger.Warn("Skipping invalid room", logging.String("room", room.Name), slog.Any("error", err))
			continue
		}
		if _, dup := index[room.ID]; dup {
			d.logger.Warn("Skipping duplicate room id", logging.String("roomId", room.ID))
			continue
		}
		index[room.ID] = len(snapshot)
		snapshot = append(snapshot, room.WithDefaults())
	}

	d.mu.Lock()
	d.rooms = snapshot
	d.index = index
	d.loadedAt = d.clock.Now()
	d.mu.Unlock()

	metrics.SetDirectoryRooms(len(snapshot))
	d.logger.Info("Room directory loaded", slog.Int("rooms", len(snapshot)))
}

// Rooms returns the snapshot in source order. The slice is a copy.
func (d *Directory) Rooms() []models.Room {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]models.Room, len(d.rooms))
	copy(out, d.rooms)
	return out
}

// Get returns the room with the given id
func (d *Directory) Get(id string) (models.Room, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	i, ok := d.index[id]
	if !ok {
		return models.Room{}, errs.Mark(errs.Newf("room %q", id), errs.ErrNotFound)
	}
	return d.rooms[i], nil
}

// Exists reports whether id is in the snapshot
func (d *Directory) Exists(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.index[id]
	return ok
}

// Len returns the number of rooms in the snapshot
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}

// LoadedAt returns when the current snapshot was installed
func (d *Directory) LoadedAt() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loadedAt
}

// Run reloads the directory every interval until ctx is done
func (d *Directory) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Reload(ctx); err != nil {
				d.logger.Warn("Periodic room reload failed, keeping previous snapshot", slog.Any("error", err))
			}
		}
	}
}
