package api

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/navikt/roomfinder/internal/clock"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/timeline"
)

// TimelineRow is one room row of the day view
type TimelineRow struct {
	RoomID   string `json:"roomId"`
	RoomName string `json:"roomName"`
	RoomType string `json:"roomType"`
}

// TimelineResponse is the body returned by GET /api/timeline
type TimelineResponse struct {
	timeline.Timeline
	Rows []TimelineRow `json:"rows"`
}

// TimelineHandler serves the layout of one day's bookings
type TimelineHandler struct {
	directory RoomDirectory
	bookings  BookingServicer
	clock     clock.Clock
	window    models.BusinessHours
	logger    *slog.Logger
}

// NewTimelineHandler creates a new timeline handler
func NewTimelineHandler(dir RoomDirectory, bookings BookingServicer, clk clock.Clock, window models.BusinessHours, logger *slog.Logger) *TimelineHandler {
	return &TimelineHandler{
		directory: dir,
		bookings:  bookings,
		clock:     clk,
		window:    window,
		logger:    logger,
	}
}

// ServeHTTP handles GET /api/timeline?date=&roomId=
func (h *TimelineHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	now := h.clock.Now()
	day := models.StartOfDay(now)
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := models.ParseDate("date", raw, now.Location())
		if err != nil {
			writeError(w, h.logger, errs.Invalid("date", err.Error()))
			return
		}
		day = parsed
	}

	rooms := h.directory.Rooms()
	if roomID := strings.TrimSpace(r.URL.Query().Get("roomId")); roomID != "" {
		room, err := h.directory.Get(roomID)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		rooms = []models.Room{room}
	}

	rows := make([]TimelineRow, 0, len(rooms))
	var bookings []models.Booking
	for _, room := range rooms {
		rows = append(rows, TimelineRow{RoomID: room.ID, RoomName: room.Name, RoomType: room.Type})

		onDay, err := h.bookings.BookingsOn(r.Context(), room.ID, day)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		bookings = append(bookings, onDay...)
	}

	writeJSON(w, http.StatusOK, TimelineResponse{
		Timeline: timeline.Render(day, bookings, h.window, now),
		Rows:     rows,
	})
}
