package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/navikt/roomfinder/internal/api"
	"github.com/navikt/roomfinder/internal/availability"
	"github.com/navikt/roomfinder/internal/bookingref"
	"github.com/navikt/roomfinder/internal/clock"
	"github.com/navikt/roomfinder/internal/directory"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/repository"
	"github.com/navikt/roomfinder/internal/repository/memory"
	"github.com/navikt/roomfinder/internal/service"
)

const importSecret = "test_secret_token"

var monday = time.Date(2025, 10, 20, 0, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testServer struct {
	handler http.Handler
	clock   *clock.Mock
	ledger  repository.Ledger
	service *service.BookingService
}

type serverConfig struct {
	limiter *api.RateLimiter
	ledger  repository.Ledger
}

type serverOption func(*serverConfig)

func withLimiter(l *api.RateLimiter) serverOption {
	return func(c *serverConfig) { c.limiter = l }
}

func withLedger(l repository.Ledger) serverOption {
	return func(c *serverConfig) { c.ledger = l }
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	dir := directory.New(directory.NewStaticSource(directory.CampusRooms()))
	require.NoError(t, dir.Reload(context.Background()))

	cfg := serverConfig{ledger: memory.NewRepository()}
	for _, opt := range opts {
		opt(&cfg)
	}
	ledger := cfg.ledger

	clk := clock.NewMock(monday.Add(7 * time.Hour))
	window := models.DefaultBusinessHours
	svc := service.NewBookingService(dir, ledger, clk, window,
		service.WithLogger(testLogger()),
		service.WithReferenceGenerator(bookingref.NewSeededGenerator(3, 4)))

	deps := api.Dependencies{
		Directory:    dir,
		Availability: availability.NewFilter(dir, ledger, clk, window, testLogger()),
		Bookings:     svc,
		Ledger:       ledger,
		Clock:        clk,
		Window:       window,
		SoonWindow:   30 * time.Minute,
		ImportSecret: importSecret,
		Limiter:      cfg.limiter,
		Logger:       testLogger(),
	}

	return &testServer{
		handler: api.SetupRoutes(deps),
		clock:   clk,
		ledger:  ledger,
		service: svc,
	}
}

func (s *testServer) do(t *testing.T, method, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), v), rr.Body.String())
}

func book(roomID, start, end string) service.Request {
	return service.Request{RoomID: roomID, Date: "2025-10-20", StartTime: start, EndTime: end, User: "Ann Student"}
}
