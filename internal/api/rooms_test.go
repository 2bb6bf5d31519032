package api_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navikt/roomfinder/internal/api"
	"github.com/navikt/roomfinder/internal/models"
)

func TestListRooms(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"All Rooms", "/api/rooms", []string{"1", "2", "3", "4", "5", "6", "7", "8", "9", "10", "11", "12", "13", "14", "15"}},
		{"Building Prefix", "/api/rooms?building=CB07", []string{"3", "4", "9", "10"}},
		{"Equipment", "/api/rooms?equipment=speaker,monitor&building=CB07", []string{"4", "9"}},
		{"Capacity", "/api/rooms?capacity=30", []string{"7", "8"}},
		{"Equipment Aliases", "/api/rooms?equipment=Speakers,hdmi&capacity=40", []string{"7", "8"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(t, http.MethodGet, tt.target, nil)
			require.Equal(t, http.StatusOK, rr.Code)

			var rooms []models.Room
			decode(t, rr, &rooms)
			assert.Equal(t, tt.want, roomIDs(rooms))
		})
	}
}

func TestGetRoom(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodGet, "/api/rooms/5", nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var room models.Room
	decode(t, rr, &room)
	assert.Equal(t, "CB06.03.205", room.Name)
	assert.Equal(t, 12, room.Capacity)
	assert.True(t, room.Equipment.Has(models.EquipmentWhiteboard))

	rr = srv.do(t, http.MethodGet, "/api/rooms/404", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var errResp api.ErrorResponse
	decode(t, rr, &errResp)
	assert.Equal(t, "NotFound", errResp.Kind)

	rr = srv.do(t, http.MethodPost, "/api/rooms", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestListRoomsBadFilter(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodGet, "/api/rooms?equipment=projector", nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var errResp api.ErrorResponse
	decode(t, rr, &errResp)
	assert.Equal(t, "equipment", errResp.Field)
}
