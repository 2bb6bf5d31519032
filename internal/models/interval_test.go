package models_test

import (
	"testing"
	"time"

	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 10, 21, hour, minute, 0, 0, time.UTC)
}

func mustInterval(t *testing.T, sh, sm, eh, em int) models.Interval {
	t.Helper()
	i, err := models.NewInterval(at(sh, sm), at(eh, em))
	require.NoError(t, err)
	return i
}

func TestNewInterval(t *testing.T) {
	t.Run("valid interval", func(t *testing.T) {
		i, err := models.NewInterval(at(9, 0), at(10, 30))
		require.NoError(t, err)
		assert.Equal(t, 90, i.DurationMinutes())
		assert.Equal(t, "2025-10-21", i.DayKey())
	})

	t.Run("zero duration is rejected", func(t *testing.T) {
		_, err := models.NewInterval(at(9, 0), at(9, 0))
		assert.True(t, errs.Is(err, errs.ErrInvalidInterval))
	})

	t.Run("negative duration is rejected", func(t *testing.T) {
		_, err := models.NewInterval(at(10, 0), at(9, 0))
		assert.True(t, errs.Is(err, errs.ErrInvalidInterval))
	})

	t.Run("crossing midnight is rejected", func(t *testing.T) {
		_, err := models.NewInterval(at(23, 0), at(23, 0).Add(2*time.Hour))
		assert.True(t, errs.Is(err, errs.ErrInvalidInterval))
	})

	t.Run("ending exactly at midnight is allowed", func(t *testing.T) {
		_, err := models.NewInterval(at(23, 0), at(0, 0).AddDate(0, 0, 1))
		assert.NoError(t, err)
	})
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		a, b     models.Interval
		expected bool
	}{
		{"identical", mustInterval(t, 9, 0, 10, 0), mustInterval(t, 9, 0, 10, 0), true},
		{"partial overlap", mustInterval(t, 9, 0, 10, 0), mustInterval(t, 9, 30, 10, 30), true},
		{"contained", mustInterval(t, 9, 0, 12, 0), mustInterval(t, 10, 0, 11, 0), true},
		{"back to back", mustInterval(t, 9, 0, 10, 0), mustInterval(t, 10, 0, 11, 0), false},
		{"disjoint", mustInterval(t, 9, 0, 10, 0), mustInterval(t, 14, 0, 15, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, models.Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.expected, tt.b.Overlaps(tt.a), "overlap must be symmetric")
		})
	}
}

func TestClampTo(t *testing.T) {
	w := models.DefaultBusinessHours

	t.Run("inside window is unchanged", func(t *testing.T) {
		i := mustInterval(t, 9, 0, 10, 0)
		clamped := i.ClampTo(w)
		require.NotNil(t, clamped)
		assert.Equal(t, i, *clamped)
	})

	t.Run("straddling the start is trimmed", func(t *testing.T) {
		clamped := mustInterval(t, 7, 0, 9, 0).ClampTo(w)
		require.NotNil(t, clamped)
		assert.Equal(t, at(8, 0), clamped.Start)
		assert.Equal(t, 60, clamped.DurationMinutes())
	})

	t.Run("entirely outside is nil", func(t *testing.T) {
		assert.Nil(t, mustInterval(t, 18, 0, 19, 0).ClampTo(w))
		assert.Nil(t, mustInterval(t, 6, 0, 8, 0).ClampTo(w))
	})
}

func TestOffsetMinutes(t *testing.T) {
	assert.Equal(t, 60, mustInterval(t, 9, 0, 10, 30).OffsetMinutes(models.DefaultBusinessHours))
	assert.Equal(t, -30, mustInterval(t, 7, 30, 8, 30).OffsetMinutes(models.DefaultBusinessHours))
}

func TestParseInterval(t *testing.T) {
	t.Run("database format", func(t *testing.T) {
		i, err := models.ParseInterval("2025-10-21 09:00:00", "2025-10-21 10:30:00", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, at(9, 0), i.Start)
		assert.Equal(t, at(10, 30), i.End)
	})

	t.Run("ISO separator and missing seconds", func(t *testing.T) {
		i, err := models.ParseInterval("2025-10-21T09:00", "2025-10-21T10:00", time.UTC)
		require.NoError(t, err)
		assert.Equal(t, 60, i.DurationMinutes())
	})

	t.Run("garbage yields a typed parse error", func(t *testing.T) {
		_, err := models.ParseInterval("tomorrow", "2025-10-21 10:00:00", time.UTC)
		require.Error(t, err)
		assert.True(t, errs.Is(err, errs.ErrInvalidInterval))

		var pe *models.ParseError
		require.True(t, errs.As(err, &pe))
		assert.Equal(t, "startTime", pe.Field)
		assert.Equal(t, "tomorrow", pe.Value)
	})

	t.Run("placeholder timestamp does not parse", func(t *testing.T) {
		_, err := models.ParseDateTime("startTime", models.PlaceholderDateTime, time.UTC)
		assert.Error(t, err)
	})
}

func TestParseClock(t *testing.T) {
	m, err := models.ParseClock("time", "14:30")
	require.NoError(t, err)
	assert.Equal(t, 14*60+30, m)

	_, err = models.ParseClock("time", "25:00")
	assert.True(t, errs.Is(err, errs.ErrInvalidInterval))
}

func TestBusinessHours(t *testing.T) {
	w := models.DefaultBusinessHours
	require.NoError(t, w.Validate())
	assert.InDelta(t, 100.0/60.0, w.PixelsPerMinute(), 1e-9)
	assert.Equal(t, 10, w.Hours())
	assert.True(t, w.Admits(mustInterval(t, 8, 0, 18, 0)))
	assert.False(t, w.Admits(mustInterval(t, 17, 30, 18, 30)))

	bad := models.BusinessHours{StartHour: 18, EndHour: 8, PixelsPerHour: 100}
	assert.True(t, errs.Is(bad.Validate(), errs.ErrValidation))
}
