package api_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/roomfinder/internal/availability"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/repository/memory"
)

// unreachableLedger answers writes from memory but fails every read
type unreachableLedger struct {
	*memory.Repository
}

func (unreachableLedger) IsFree(ctx context.Context, roomID string, interval models.Interval) (bool, error) {
	return false, errs.Mark(errors.New("i/o timeout"), errs.ErrUpstreamUnavailable)
}

func (unreachableLedger) BookingsOn(ctx context.Context, roomID string, day time.Time) ([]models.Booking, error) {
	return nil, errs.Mark(errors.New("i/o timeout"), errs.ErrUpstreamUnavailable)
}

func roomIDs(rooms []models.Room) []string {
	out := make([]string, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.ID)
	}
	return out
}

func TestAvailabilityQuery(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodPost, "/api/bookings", book("1", "09:00", "10:00"))
	require.Equal(t, http.StatusCreated, rr.Code)

	var res availability.Result
	rr = srv.do(t, http.MethodGet, "/api/availability?date=2025-10-20&time=09:30&durationHours=1&equipment=speaker,whiteboard&building=CB06", nil)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	decode(t, rr, &res)
	assert.False(t, res.Degraded)
	assert.Equal(t, []string{"5"}, roomIDs(res.Rooms))

	rr = srv.do(t, http.MethodGet, "/api/availability?date=2025-10-20&time=10:00&durationHours=0.5&equipment=speaker,whiteboard&building=CB06", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &res)
	assert.Equal(t, []string{"1", "5"}, roomIDs(res.Rooms))
}

func TestAvailabilityPastDateIsEmpty(t *testing.T) {
	srv := newTestServer(t)

	var res availability.Result
	rr := srv.do(t, http.MethodGet, "/api/availability?date=2025-10-19", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &res)
	assert.Empty(t, res.Rooms)
	assert.False(t, res.Degraded)
}

func TestAvailabilityBadInput(t *testing.T) {
	srv := newTestServer(t)

	for _, target := range []string{
		"/api/availability?date=tomorrow",
		"/api/availability?time=25:99",
		"/api/availability?time=09:00&durationHours=-1",
		"/api/availability?time=09:00&durationHours=NaN",
		"/api/availability?equipment=projector",
		"/api/availability?capacity=lots",
	} {
		rr := srv.do(t, http.MethodGet, target, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
}

func TestAvailabilityDegraded(t *testing.T) {
	srv := newTestServer(t, withLedger(unreachableLedger{memory.NewRepository()}))

	var res availability.Result
	rr := srv.do(t, http.MethodGet, "/api/availability?date=2025-10-20&time=09:00", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &res)
	assert.True(t, res.Degraded)
	assert.NotEmpty(t, res.Reason)
	assert.Empty(t, res.Rooms)

	rr = srv.do(t, http.MethodGet, "/api/timeline?date=2025-10-20", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestAvailableRooms(t *testing.T) {
	srv := newTestServer(t)
	srv.clock.Set(monday.Add(8*time.Hour + 50*time.Minute))

	rr := srv.do(t, http.MethodPost, "/api/bookings", book("1", "09:00", "10:00"))
	require.Equal(t, http.StatusCreated, rr.Code)

	var res availability.Result
	rr = srv.do(t, http.MethodGet, "/api/available-rooms", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	decode(t, rr, &res)
	assert.Len(t, res.Rooms, 14)
	assert.NotContains(t, roomIDs(res.Rooms), "1")
}
