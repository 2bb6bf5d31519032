package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/navikt/roomfinder/internal/api"
	"github.com/navikt/roomfinder/internal/availability"
	"github.com/navikt/roomfinder/internal/clock"
	"github.com/navikt/roomfinder/internal/config"
	"github.com/navikt/roomfinder/internal/directory"
	"github.com/navikt/roomfinder/internal/events"
	"github.com/navikt/roomfinder/internal/repository"
	"github.com/navikt/roomfinder/internal/roomsource"
	"github.com/navikt/roomfinder/internal/service"
	"github.com/navikt/roomfinder/internal/web"
)

// sseHeartbeat keeps idle event streams open through proxies
const sseHeartbeat = 15 * time.Second

// app is the wired service
type app struct {
	cfg       config.Config
	logger    *slog.Logger
	handler   http.Handler
	directory *directory.Directory
	ledger    repository.Ledger
	bookings  *service.BookingService
	sse       *web.SSEManager
	limiter   *api.RateLimiter
	publisher events.Publisher
}

// newApp builds every component from cfg. The directory is loaded once;
// a failed load leaves it empty and the readiness probe failing.
func newApp(ctx context.Context, cfg config.Config, clk clock.Clock, logger *slog.Logger) (*app, error) {
	loc := clk.Now().Location()
	window := cfg.Window()

	// Initialize the ledger using the factory
	ledger, err := repository.NewLedger(cfg.Redis, loc)
	if err != nil {
		return nil, err
	}

	var source directory.Source = directory.NewStaticSource(directory.CampusRooms())
	if cfg.RoomSource.URL != "" {
		source = roomsource.NewClient(cfg.RoomSource.URL, cfg.RoomSource.Token, cfg.RoomSource.Timeout)
	}
	dirOpts := []directory.Option{directory.WithLogger(logger), directory.WithClock(clk)}
	// The Redis ledger also keeps the last good room snapshot
	if r, ok := ledger.(interface{ Client() *goredis.Client }); ok {
		dirOpts = append(dirOpts, directory.WithCache(
			directory.NewRedisCache(r.Client(), cfg.Redis.KeyPrefix, cfg.Redis.RoomCacheTTL)))
	}
	dir := directory.New(source, dirOpts...)
	if err := dir.Reload(ctx); err != nil {
		logger.Warn("Initial room directory load failed", slog.Any("error", err))
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Broker.URL != "" {
		amqpPublisher, err := events.Dial(cfg.Broker.URL, cfg.Broker.Exchange, logger)
		if err != nil {
			closeLedger(ledger, logger)
			return nil, err
		}
		publisher = amqpPublisher
	}

	bookings := service.NewBookingService(dir, ledger, clk, window,
		service.WithPublisher(publisher),
		service.WithLogger(logger))

	// Register the SSE update callback with the booking service
	sseManager := web.NewSSEManager(logger)
	bookings.RegisterUpdateCallback(sseManager.NotifyBookingUpdate)

	limiter := api.NewRateLimiter(cfg.Booking.RequestsPerSecond, cfg.Booking.Burst, 3*time.Minute)

	mux := api.SetupRoutes(api.Dependencies{
		Directory:    dir,
		Availability: availability.NewFilter(dir, ledger, clk, window, logger),
		Bookings:     bookings,
		Ledger:       ledger,
		Clock:        clk,
		Window:       window,
		SoonWindow:   cfg.Booking.SoonWindow,
		ImportSecret: cfg.Booking.ImportSecret,
		Limiter:      limiter,
		Events:       sseManager,
		Logger:       logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		handler:   web.WrapMuxWithMiddleware(mux, logger),
		directory: dir,
		ledger:    ledger,
		bookings:  bookings,
		sse:       sseManager,
		limiter:   limiter,
		publisher: publisher,
	}, nil
}

// runBackground starts the periodic jobs; they stop when ctx is done
func (a *app) runBackground(ctx context.Context) {
	go a.limiter.Run(ctx)
	go a.sse.Run(ctx, sseHeartbeat)
	go a.directory.Run(ctx, a.cfg.RoomSource.RefreshInterval)
}

// close releases the SSE connections, the broker channel and the ledger
func (a *app) close() {
	a.sse.Close()
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("Error closing event publisher", slog.Any("error", err))
	}
	closeLedger(a.ledger, a.logger)
}

func closeLedger(ledger repository.Ledger, logger *slog.Logger) {
	// Check if we're using a Redis ledger, and if so, close it properly
	if c, ok := ledger.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil {
			logger.Error("Error closing Redis connection", slog.Any("error", err))
		}
	}
}
