package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/navikt/roomfinder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus(t *testing.T) {
	assert.Equal(t, "ACTIVE", models.BookingStatusActive.String())
	assert.Equal(t, "CANCELLED", models.BookingStatusCancelled.String())

	data, err := json.Marshal(models.BookingStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, `"COMPLETED"`, string(data))

	var s models.BookingStatus
	require.NoError(t, json.Unmarshal([]byte(`"cancelled"`), &s))
	assert.Equal(t, models.BookingStatusCancelled, s)
}

func TestEffectiveStatus(t *testing.T) {
	b := models.Booking{Interval: models.Interval{Start: at(9, 0), End: at(10, 0)}}

	assert.Equal(t, models.BookingStatusActive, b.EffectiveStatus(at(9, 30)))
	assert.Equal(t, models.BookingStatusCompleted, b.EffectiveStatus(at(10, 0)))

	b.Status = models.BookingStatusCancelled
	assert.Equal(t, models.BookingStatusCancelled, b.EffectiveStatus(at(11, 0)))
}

func TestPlaceholders(t *testing.T) {
	t.Run("epoch interval", func(t *testing.T) {
		b := models.Booking{Interval: models.Interval{Start: time.Unix(0, 0), End: time.Unix(3600, 0)}}
		assert.True(t, b.IsPlaceholder())
	})

	t.Run("zero duration", func(t *testing.T) {
		b := models.Booking{Interval: models.Interval{Start: at(9, 0), End: at(9, 0)}}
		assert.True(t, b.IsPlaceholder())
	})

	t.Run("real booking", func(t *testing.T) {
		b := models.Booking{Interval: models.Interval{Start: at(9, 0), End: at(10, 0)}}
		assert.False(t, b.IsPlaceholder())
	})

	t.Run("raw source rows", func(t *testing.T) {
		zero, one := 0, 1
		assert.True(t, models.IsPlaceholderRecord(&zero, "2025-10-21 09:00:00", "2025-10-21 10:00:00"))
		assert.True(t, models.IsPlaceholderRecord(&one, models.PlaceholderDateTime, models.PlaceholderDateTime))
		assert.True(t, models.IsPlaceholderRecord(nil, "", ""))
		assert.False(t, models.IsPlaceholderRecord(nil, "2025-10-21 09:00:00", "2025-10-21 10:00:00"))
	})
}

func TestSortBookings(t *testing.T) {
	bookings := []models.Booking{
		{Reference: "B", Interval: models.Interval{Start: at(11, 0), End: at(12, 0)}},
		{Reference: "A", Interval: models.Interval{Start: at(9, 0), End: at(10, 0)}},
	}
	models.SortBookings(bookings)
	assert.Equal(t, "A", bookings[0].Reference)
}
