package roomsource_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/roomsource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientLoad(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rooms", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"roomId": 1, "roomName": "CB06.06.112", "roomType": "Group Study Room", "capacity": 8,
			 "speaker": true, "whiteboard": true, "monitor": true, "hdmiCable": true},
			{"roomId": "lab-2", "roomName": "CB05.01.108", "roomType": "Computer Lab", "capacity": 24,
			 "location": "Building CB05", "equipment": ["Whiteboard", "Monitor/Display", "hdmi"], "rating": 4.2}
		]`))
	}))
	defer server.Close()

	client := roomsource.NewClient(server.URL+"/", "secret", time.Second)
	rooms, err := client.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	assert.Equal(t, "1", rooms[0].ID)
	assert.True(t, rooms[0].Equipment.Covers(models.NewEquipmentSet(models.KnownEquipment...)))

	assert.Equal(t, "lab-2", rooms[1].ID)
	assert.Equal(t, 4.2, rooms[1].Rating)
	assert.True(t, rooms[1].Equipment.Has(models.EquipmentWhiteboard))
	assert.True(t, rooms[1].Equipment.Has(models.EquipmentHDMICable))
	assert.False(t, rooms[1].Equipment.Has(models.EquipmentSpeaker))
}

func TestClientUpstreamFailures(t *testing.T) {
	t.Run("error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "maintenance", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		_, err := roomsource.NewClient(server.URL, "", time.Second).Load(context.Background())
		assert.True(t, errs.Is(err, errs.ErrUpstreamUnavailable))
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"not": "a list"}`))
		}))
		defer server.Close()

		_, err := roomsource.NewClient(server.URL, "", time.Second).Load(context.Background())
		assert.True(t, errs.Is(err, errs.ErrUpstreamUnavailable))
	})

	t.Run("unreachable host", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		url := server.URL
		server.Close()

		_, err := roomsource.NewClient(url, "", time.Second).Load(context.Background())
		assert.True(t, errs.Is(err, errs.ErrUpstreamUnavailable))
	})
}
