package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/navikt/roomfinder/internal/directory"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/models"
)

// RoomHandler handles HTTP requests for the room directory
type RoomHandler struct {
	directory RoomDirectory
	logger    *slog.Logger
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(dir RoomDirectory, logger *slog.Logger) *RoomHandler {
	return &RoomHandler{
		directory: dir,
		logger:    logger,
	}
}

// ServeHTTP handles HTTP requests for rooms
func (h *RoomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Path format: /api/rooms/{roomID}
	pathParts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
	var roomID string
	if len(pathParts) >= 4 {
		roomID = pathParts[3]
	}

	switch {
	case r.Method == http.MethodGet && roomID == "":
		h.listRooms(w, r)
	case r.Method == http.MethodGet:
		h.getRoom(w, r, roomID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// listRooms handles GET /api/rooms with optional equipment, building and capacity filters
func (h *RoomHandler) listRooms(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, criteria.Apply(h.directory.Rooms()))
}

// getRoom handles GET /api/rooms/{roomID}
func (h *RoomHandler) getRoom(w http.ResponseWriter, r *http.Request, roomID string) {
	room, err := h.directory.Get(roomID)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, room)
}

// parseCriteria reads the static room filters shared by the room and availability endpoints
func parseCriteria(r *http.Request) (directory.Criteria, error) {
	q := r.URL.Query()
	criteria := directory.Criteria{
		BuildingPrefix: strings.TrimSpace(q.Get("building")),
	}

	if raw := q.Get("equipment"); raw != "" {
		set := models.NewEquipmentSet()
		for _, name := range strings.Split(raw, ",") {
			if strings.TrimSpace(name) == "" {
				continue
			}
			e, err := models.ParseEquipment(name)
			if err != nil {
				return directory.Criteria{}, err
			}
			set[e] = struct{}{}
		}
		criteria.Equipment = set
	}

	if raw := q.Get("capacity"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return directory.Criteria{}, errs.Invalid("capacity", "must be a non-negative integer")
		}
		criteria.MinCapacity = n
	}
	return criteria, nil
}
