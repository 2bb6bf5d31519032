// Package ledgertest holds the behaviour every ledger implementation must show
package ledgertest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Day is the calendar day the suite books on
var Day = time.Date(2025, 10, 21, 0, 0, 0, 0, time.UTC)

// At returns hh:mm on Day
func At(hour, minute int) time.Time {
	return Day.Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

// Booking builds an active booking on Day
func Booking(roomID, ref string, sh, sm, eh, em int) models.Booking {
	return models.Booking{
		ID:        "id-" + ref,
		Reference: ref,
		RoomID:    roomID,
		Interval:  models.Interval{Start: At(sh, sm), End: At(eh, em)},
		User:      "Ann Student",
		Status:    models.BookingStatusActive,
		CreatedAt: Day,
	}
}

// Run exercises a fresh ledger from newLedger for each subtest
func Run(t *testing.T, newLedger func(t *testing.T) repository.Ledger) {
	ctx := context.Background()

	t.Run("ReserveAndList", func(t *testing.T) {
		ledger := newLedger(t)

		_, err := ledger.TryReserve(ctx, Booking("R1", "REF-B", 13, 0, 14, 0))
		require.NoError(t, err)
		_, err = ledger.TryReserve(ctx, Booking("R1", "REF-A", 9, 0, 10, 0))
		require.NoError(t, err)

		bookings, err := ledger.BookingsFor(ctx, "R1")
		require.NoError(t, err)
		require.Len(t, bookings, 2)
		assert.Equal(t, "REF-A", bookings[0].Reference, "bookings must be ordered by start")
		assert.Equal(t, "REF-B", bookings[1].Reference)

		empty, err := ledger.BookingsFor(ctx, "R2")
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("OverlapIsRejectedWithClash", func(t *testing.T) {
		ledger := newLedger(t)

		_, err := ledger.TryReserve(ctx, Booking("R1", "REF-A", 9, 0, 10, 0))
		require.NoError(t, err)

		_, err = ledger.TryReserve(ctx, Booking("R1", "REF-B", 9, 30, 10, 30))
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrConflict))

		clash, ok := errs.AsConflict(err)
		require.True(t, ok)
		assert.Equal(t, "REF-A", clash.Reference)
		assert.True(t, clash.Start.Equal(At(9, 0)))
		assert.True(t, clash.End.Equal(At(10, 0)))
	})

	t.Run("NonOverlappingSucceedInAnyOrder", func(t *testing.T) {
		ledger := newLedger(t)

		_, err := ledger.TryReserve(ctx, Booking("R1", "REF-B", 10, 0, 11, 0))
		require.NoError(t, err)
		_, err = ledger.TryReserve(ctx, Booking("R1", "REF-A", 9, 0, 10, 0))
		require.NoError(t, err, "back-to-back bookings do not overlap")
		_, err = ledger.TryReserve(ctx, Booking("R2", "REF-C", 9, 0, 10, 0))
		require.NoError(t, err, "same interval in another room is independent")
	})

	t.Run("IsFreeIsIdempotent", func(t *testing.T) {
		ledger := newLedger(t)
		_, err := ledger.TryReserve(ctx, Booking("R1", "REF-A", 9, 0, 10, 0))
		require.NoError(t, err)

		busy := models.Interval{Start: At(9, 30), End: At(10, 30)}
		free := models.Interval{Start: At(10, 0), End: At(11, 0)}
		for i := 0; i < 3; i++ {
			ok, err := ledger.IsFree(ctx, "R1", busy)
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = ledger.IsFree(ctx, "R1", free)
			require.NoError(t, err)
			assert.True(t, ok)
		}

		bookings, err := ledger.BookingsFor(ctx, "R1")
		require.NoError(t, err)
		assert.Len(t, bookings, 1, "IsFree must not write")
	})

	t.Run("PlaceholdersNeverEnter", func(t *testing.T) {
		ledger := newLedger(t)

		epoch := Booking("R1", "REF-0", 0, 0, 1, 0)
		epoch.Interval = models.Interval{Start: time.Unix(0, 0).UTC(), End: time.Unix(3600, 0).UTC()}
		_, err := ledger.TryReserve(ctx, epoch)
		assert.True(t, errs.Is(err, errs.ErrInvalidInterval))

		zero := Booking("R1", "REF-Z", 9, 0, 9, 0)
		_, err = ledger.TryReserve(ctx, zero)
		assert.True(t, errs.Is(err, errs.ErrInvalidInterval))

		ok, err := ledger.IsFree(ctx, "R1", models.Interval{Start: At(9, 0), End: At(10, 0)})
		require.NoError(t, err)
		assert.True(t, ok)

		bookings, err := ledger.BookingsFor(ctx, "R1")
		require.NoError(t, err)
		assert.Empty(t, bookings)
	})

	t.Run("CancelFreesInterval", func(t *testing.T) {
		ledger := newLedger(t)
		_, err := ledger.TryReserve(ctx, Booking("R1", "REF-A", 9, 0, 10, 0))
		require.NoError(t, err)

		cancelled, err := ledger.Cancel(ctx, "REF-A", At(8, 0))
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, cancelled.Status)
		assert.True(t, cancelled.CancelledAt.Equal(At(8, 0)))

		ok, err := ledger.IsFree(ctx, "R1", models.Interval{Start: At(9, 0), End: At(10, 0)})
		require.NoError(t, err)
		assert.True(t, ok)

		_, err = ledger.TryReserve(ctx, Booking("R1", "REF-B", 9, 0, 10, 0))
		require.NoError(t, err)

		got, err := ledger.Get(ctx, "REF-A")
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusCancelled, got.Status)

		_, err = ledger.Cancel(ctx, "REF-A", At(8, 0))
		assert.True(t, errs.Is(err, errs.ErrValidation), "cancelling twice is rejected")

		_, err = ledger.Cancel(ctx, "NOPE", At(8, 0))
		assert.True(t, errs.Is(err, errs.ErrNotFound))
	})

	t.Run("GetAndListByUser", func(t *testing.T) {
		ledger := newLedger(t)
		_, err := ledger.TryReserve(ctx, Booking("R2", "REF-B", 11, 0, 12, 0))
		require.NoError(t, err)
		_, err = ledger.TryReserve(ctx, Booking("R1", "REF-A", 9, 0, 10, 0))
		require.NoError(t, err)
		other := Booking("R3", "REF-C", 9, 0, 10, 0)
		other.User = "Bob"
		_, err = ledger.TryReserve(ctx, other)
		require.NoError(t, err)

		got, err := ledger.Get(ctx, "REF-B")
		require.NoError(t, err)
		assert.Equal(t, "R2", got.RoomID)
		assert.True(t, got.Interval.Start.Equal(At(11, 0)))

		_, err = ledger.Get(ctx, "REF-X")
		assert.True(t, errs.Is(err, errs.ErrNotFound))

		mine, err := ledger.ListByUser(ctx, "Ann Student")
		require.NoError(t, err)
		require.Len(t, mine, 2)
		assert.Equal(t, "REF-A", mine[0].Reference)
		assert.Equal(t, "REF-B", mine[1].Reference)
	})

	t.Run("DuplicateReferenceIsRejected", func(t *testing.T) {
		ledger := newLedger(t)
		_, err := ledger.TryReserve(ctx, Booking("R1", "REF-A", 9, 0, 10, 0))
		require.NoError(t, err)

		_, err = ledger.TryReserve(ctx, Booking("R2", "REF-A", 9, 0, 10, 0))
		assert.True(t, errs.Is(err, errs.ErrValidation))
	})

	t.Run("BookingsOnDay", func(t *testing.T) {
		ledger := newLedger(t)
		_, err := ledger.TryReserve(ctx, Booking("R1", "REF-A", 9, 0, 10, 0))
		require.NoError(t, err)
		tomorrow := Booking("R1", "REF-T", 9, 0, 10, 0)
		tomorrow.Interval.Start = tomorrow.Interval.Start.AddDate(0, 0, 1)
		tomorrow.Interval.End = tomorrow.Interval.End.AddDate(0, 0, 1)
		_, err = ledger.TryReserve(ctx, tomorrow)
		require.NoError(t, err)

		today, err := ledger.BookingsOn(ctx, "R1", Day)
		require.NoError(t, err)
		require.Len(t, today, 1)
		assert.Equal(t, "REF-A", today[0].Reference)

		all, err := ledger.BookingsFor(ctx, "R1")
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("ConcurrentReserveHasOneWinner", func(t *testing.T) {
		ledger := newLedger(t)
		const callers = 16

		var wg sync.WaitGroup
		results := make(chan error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := ledger.TryReserve(ctx, Booking("R1", fmt.Sprintf("REF-%02d", i), 14, 0, 15, 0))
				results <- err
			}(i)
		}
		wg.Wait()
		close(results)

		wins, conflicts := 0, 0
		for err := range results {
			switch {
			case err == nil:
				wins++
			case errs.Is(err, errs.ErrConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, wins)
		assert.Equal(t, callers-1, conflicts)

		bookings, err := ledger.BookingsFor(ctx, "R1")
		require.NoError(t, err)
		assert.Len(t, bookings, 1)
	})

	t.Run("PingSucceeds", func(t *testing.T) {
		assert.NoError(t, newLedger(t).Ping(ctx))
	})
}
