// Package redis_test provides tests for the Redis ledger
package redis_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/navikt/roomfinder/internal/config"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/repository"
	"github.com/navikt/roomfinder/internal/repository/ledgertest"
	"github.com/navikt/roomfinder/internal/repository/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writtenAt is the wall clock miniredis compares absolute expiries against,
// the day before ledgertest.Day
var writtenAt = ledgertest.Day.AddDate(0, 0, -1)

func setupTestRedis(t *testing.T) (*redis.Repository, *miniredis.Miniredis) {
	return setupTestRedisTTL(t, 24*time.Hour)
}

func setupTestRedisTTL(t *testing.T, ttl time.Duration) (*redis.Repository, *miniredis.Miniredis) {
	// Create a miniredis server
	mr := miniredis.RunT(t)
	mr.SetTime(writtenAt)

	// Configure Redis client to use miniredis
	cfg := config.RedisConfig{
		Enabled:    true,
		Host:       mr.Host(),
		Port:       mr.Port(),
		KeyPrefix:  "test:",
		BookingTTL: ttl,
	}

	repo, err := redis.NewRepository(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	return repo, mr
}

func TestRedisLedger(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) repository.Ledger {
		repo, _ := setupTestRedis(t)
		return repo.WithLocation(time.UTC)
	})
}

// TestRedisWithURI tests connection with URI format
func TestRedisWithURI(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.SetTime(writtenAt)

	uri := fmt.Sprintf("redis://%s:%s", mr.Host(), mr.Port())
	cfg := config.RedisConfig{
		Enabled:    true,
		URI:        uri,
		KeyPrefix:  "test:",
		BookingTTL: time.Hour * 24,
	}

	repo, err := redis.NewRepository(cfg)
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	_, err = repo.TryReserve(ctx, ledgertest.Booking("R1", "URI-1", 9, 0, 10, 0))
	require.NoError(t, err)

	retrieved, err := repo.Get(ctx, "URI-1")
	require.NoError(t, err)
	assert.Equal(t, "R1", retrieved.RoomID)
}

func TestRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Port()
	mr.Close()

	_, err := redis.NewRepository(config.RedisConfig{Host: "127.0.0.1", Port: addr})
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrUpstreamUnavailable))
}

func TestRedisKeyLayout(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	b := ledgertest.Booking("R7", "KEY-1", 9, 0, 10, 30)
	_, err := repo.TryReserve(ctx, b)
	require.NoError(t, err)

	assert.True(t, mr.Exists("test:bookings:KEY-1"))
	members, err := mr.ZMembers("test:rooms:R7:days:2025-10-21")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, fmt.Sprintf("%d:%d:KEY-1", b.Interval.Start.UnixMilli(), b.Interval.End.UnixMilli()), members[0])

	days, err := mr.SMembers("test:rooms:R7:days")
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-10-21"}, days)

	// Keys expire the configured TTL after the booked day ends
	assert.Equal(t, 72*time.Hour, mr.TTL("test:bookings:KEY-1"))
	assert.Equal(t, 72*time.Hour, mr.TTL("test:rooms:R7:days:2025-10-21"))
}

func TestRedisCancelKeepsTTL(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := repo.TryReserve(ctx, ledgertest.Booking("R1", "TTL-1", 9, 0, 10, 0))
	require.NoError(t, err)

	mr.FastForward(time.Hour)
	cancelled, err := repo.Cancel(ctx, "TTL-1", ledgertest.At(8, 0))
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)

	assert.Equal(t, 71*time.Hour, mr.TTL("test:bookings:TTL-1"))
}

func TestRedisExpiredBookingsAreSkipped(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := repo.TryReserve(ctx, ledgertest.Booking("R1", "EXP-1", 9, 0, 10, 0))
	require.NoError(t, err)
	mr.Del("test:bookings:EXP-1")

	bookings, err := repo.BookingsFor(ctx, "R1")
	require.NoError(t, err)
	assert.Empty(t, bookings)
}

func TestRedisRetentionCountsFromBookedDay(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	// Booked three weeks ahead with a one day retention
	ahead := ledgertest.Booking("R1", "FAR-A", 9, 0, 10, 0)
	ahead.Interval.Start = ahead.Interval.Start.AddDate(0, 0, 21)
	ahead.Interval.End = ahead.Interval.End.AddDate(0, 0, 21)
	_, err := repo.TryReserve(ctx, ahead)
	require.NoError(t, err)

	mr.FastForward(25 * time.Hour)

	again := ahead
	again.Reference = "FAR-B"
	_, err = repo.TryReserve(ctx, again)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrConflict))

	got, err := repo.Get(ctx, "FAR-A")
	require.NoError(t, err)
	assert.Equal(t, models.BookingStatusActive, got.Status)
}

func TestRedisDaySetAndBookingsExpireTogether(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	now := writtenAt
	advance := func(d time.Duration) {
		now = now.Add(d)
		mr.SetTime(now)
		mr.FastForward(d)
	}

	_, err := repo.TryReserve(ctx, ledgertest.Booking("R1", "SAME-A", 9, 0, 10, 0))
	require.NoError(t, err)
	advance(12 * time.Hour)
	_, err = repo.TryReserve(ctx, ledgertest.Booking("R1", "SAME-B", 11, 0, 12, 0))
	require.NoError(t, err)
	advance(13 * time.Hour)

	assert.Equal(t, mr.TTL("test:rooms:R1:days:2025-10-21"), mr.TTL("test:bookings:SAME-A"))
	assert.Equal(t, mr.TTL("test:bookings:SAME-A"), mr.TTL("test:bookings:SAME-B"))

	bookings, err := repo.BookingsFor(ctx, "R1")
	require.NoError(t, err)
	assert.Len(t, bookings, 2)

	free, err := repo.IsFree(ctx, "R1", models.Interval{Start: ledgertest.At(9, 0), End: ledgertest.At(10, 0)})
	require.NoError(t, err)
	assert.False(t, free)

	_, err = repo.TryReserve(ctx, ledgertest.Booking("R1", "SAME-C", 9, 30, 10, 30))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrConflict))
	assert.False(t, errs.Is(err, errs.ErrNotFound))
}

func TestRedisReservePrunesMembersWithoutBooking(t *testing.T) {
	repo, mr := setupTestRedis(t)
	ctx := context.Background()

	_, err := repo.TryReserve(ctx, ledgertest.Booking("R1", "GONE-A", 9, 0, 10, 0))
	require.NoError(t, err)
	mr.Del("test:bookings:GONE-A")

	_, err = repo.TryReserve(ctx, ledgertest.Booking("R1", "GONE-B", 9, 0, 10, 0))
	require.NoError(t, err)

	members, err := mr.ZMembers("test:rooms:R1:days:2025-10-21")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Contains(t, members[0], ":GONE-B")
}

func TestRedisPreEpochBookings(t *testing.T) {
	repo, _ := setupTestRedisTTL(t, 0)
	ctx := context.Background()

	day := time.Date(1969, 12, 31, 0, 0, 0, 0, time.UTC)
	booking := func(ref string, sh, eh int) models.Booking {
		return models.Booking{
			Reference: ref,
			RoomID:    "R1",
			User:      "Archivist",
			Interval:  models.Interval{Start: day.Add(time.Duration(sh) * time.Hour), End: day.Add(time.Duration(eh) * time.Hour)},
			Status:    models.BookingStatusActive,
		}
	}

	_, err := repo.TryReserve(ctx, booking("OLD-A", 9, 10))
	require.NoError(t, err)

	_, err = repo.TryReserve(ctx, booking("OLD-B", 11, 12))
	require.NoError(t, err)

	_, err = repo.TryReserve(ctx, booking("OLD-C", 9, 11))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.ErrConflict))

	free, err := repo.IsFree(ctx, "R1", models.Interval{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)})
	require.NoError(t, err)
	assert.True(t, free)
}
