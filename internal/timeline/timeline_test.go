package timeline_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/timeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2025, 10, 21, 0, 0, 0, 0, time.UTC)

func at(hour, minute int) time.Time {
	return models.At(day, hour*60+minute)
}

func booking(roomID, ref string, sh, sm, eh, em int) models.Booking {
	return models.Booking{
		Reference: ref,
		RoomID:    roomID,
		Interval:  models.Interval{Start: at(sh, sm), End: at(eh, em)},
		Status:    models.BookingStatusActive,
	}
}

var approx = cmpopts.EquateApprox(0, 0.01)

func TestPlaceNinetyMinuteBooking(t *testing.T) {
	block, ok := timeline.Place(booking("R1", "REF-1", 9, 0, 10, 30), models.DefaultBusinessHours)
	require.True(t, ok)

	assert.InDelta(t, 280.0, block.LeftPixels, 0.01)
	assert.InDelta(t, 150.0, block.WidthPixels, 0.01)
	assert.Equal(t, "09:00 - 10:30", block.Label)
	assert.Equal(t, "R1", block.RoomID)
}

func TestPlaceIsPure(t *testing.T) {
	b := booking("R1", "REF-1", 13, 15, 14, 5)
	first, _ := timeline.Place(b, models.DefaultBusinessHours)
	for i := 0; i < 10; i++ {
		again, _ := timeline.Place(b, models.DefaultBusinessHours)
		assert.Equal(t, first, again)
	}
}

func TestPlaceExclusionPolicy(t *testing.T) {
	w := models.DefaultBusinessHours

	tests := []struct {
		name    string
		booking models.Booking
		visible bool
	}{
		{"window start", booking("R1", "A", 8, 0, 9, 0), true},
		{"before window", booking("R1", "B", 7, 30, 9, 0), false},
		{"start hour equals end hour", booking("R1", "C", 18, 15, 19, 0), true},
		{"after window", booking("R1", "D", 19, 0, 20, 0), false},
		{"runs past close", booking("R1", "E", 17, 0, 19, 0), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := timeline.Place(tt.booking, w)
			assert.Equal(t, tt.visible, ok)
		})
	}
}

func TestPlaceSkipsPlaceholdersAndCancelled(t *testing.T) {
	placeholder := models.Booking{
		RoomID:   "R1",
		Interval: models.Interval{Start: time.Unix(0, 0).UTC(), End: time.Unix(0, 0).UTC()},
	}
	_, ok := timeline.Place(placeholder, models.DefaultBusinessHours)
	assert.False(t, ok)

	cancelled := booking("R1", "X", 9, 0, 10, 0)
	cancelled.Status = models.BookingStatusCancelled
	_, ok = timeline.Place(cancelled, models.DefaultBusinessHours)
	assert.False(t, ok)
}

func TestLayoutAlternativeWindow(t *testing.T) {
	w := models.BusinessHours{StartHour: 7, EndHour: 21, PixelsPerHour: 60, RoomColumnWidth: 100}

	got := timeline.Layout([]models.Booking{
		booking("R1", "A", 7, 30, 8, 0),
		booking("R2", "B", 6, 0, 7, 0),
		booking("R1", "C", 20, 0, 21, 0),
	}, w)

	want := []timeline.Block{
		{RoomID: "R1", Reference: "A", LeftPixels: 130, WidthPixels: 30, Label: "07:30 - 08:00"},
		{RoomID: "R1", Reference: "C", LeftPixels: 880, WidthPixels: 60, Label: "20:00 - 21:00"},
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Layout() mismatch (-want +got):\n%s", diff)
	}
}

func TestColumns(t *testing.T) {
	cols := timeline.Columns(models.DefaultBusinessHours)
	require.Len(t, cols, 11)
	assert.Equal(t, "08:00", cols[0].Label)
	assert.Equal(t, "18:00", cols[10].Label)
	assert.InDelta(t, 180.0, cols[0].LeftPixels, 0.001)
	assert.InDelta(t, 280.0, cols[1].LeftPixels, 0.001)
}

func TestNowMarker(t *testing.T) {
	x, ok := timeline.NowMarker(at(12, 30), models.DefaultBusinessHours)
	require.True(t, ok)
	assert.InDelta(t, 630.0, x, 0.01)

	_, ok = timeline.NowMarker(at(6, 0), models.DefaultBusinessHours)
	assert.False(t, ok)
}

func TestRender(t *testing.T) {
	bookings := []models.Booking{
		booking("R2", "B", 11, 0, 12, 0),
		booking("R1", "A", 9, 0, 10, 30),
	}
	tomorrow := booking("R1", "C", 9, 0, 10, 0)
	tomorrow.Interval.Start = tomorrow.Interval.Start.AddDate(0, 0, 1)
	tomorrow.Interval.End = tomorrow.Interval.End.AddDate(0, 0, 1)
	bookings = append(bookings, tomorrow)

	got := timeline.Render(day, bookings, models.DefaultBusinessHours, at(10, 0))
	assert.Equal(t, "2025-10-21", got.Date)
	require.Len(t, got.Blocks, 2)
	assert.Equal(t, "A", got.Blocks[0].Reference)
	assert.Equal(t, "B", got.Blocks[1].Reference)
	require.NotNil(t, got.NowMarker)
	assert.InDelta(t, 380.0, *got.NowMarker, 0.01)

	other := timeline.Render(day, bookings, models.DefaultBusinessHours, at(10, 0).AddDate(0, 0, 2))
	assert.Nil(t, other.NowMarker)
}
