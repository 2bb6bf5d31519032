package api

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/navikt/roomfinder/internal/availability"
	"github.com/navikt/roomfinder/internal/clock"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/metrics"
	"github.com/navikt/roomfinder/internal/models"
)

// AvailabilityHandler serves room availability queries
type AvailabilityHandler struct {
	filter     AvailabilityQuerier
	clock      clock.Clock
	soonWindow time.Duration
	logger     *slog.Logger
}

// NewAvailabilityHandler creates a new availability handler. soonWindow is the
// look-ahead of GET /api/available-rooms.
func NewAvailabilityHandler(filter AvailabilityQuerier, clk clock.Clock, soonWindow time.Duration, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		filter:     filter,
		clock:      clk,
		soonWindow: soonWindow,
		logger:     logger,
	}
}

// ServeHTTP handles GET /api/availability and GET /api/available-rooms
func (h *AvailabilityHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var (
		result availability.Result
		err    error
	)
	if strings.HasSuffix(r.URL.Path, "/available-rooms") {
		result, err = h.filter.AvailableSoon(r.Context(), h.soonWindow)
	} else {
		var q availability.Query
		q, err = h.parseQuery(r)
		if err == nil {
			result, err = h.filter.Query(r.Context(), q)
		}
	}
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	metrics.RecordAvailabilityQuery(result.Degraded)
	writeJSON(w, http.StatusOK, result)
}

// parseQuery reads {date?, time?, durationHours?, equipment?, building?, capacity?}
func (h *AvailabilityHandler) parseQuery(r *http.Request) (availability.Query, error) {
	params := r.URL.Query()
	loc := h.clock.Now().Location()

	criteria, err := parseCriteria(r)
	if err != nil {
		return availability.Query{}, err
	}
	q := availability.Query{
		Equipment:      criteria.Equipment,
		BuildingPrefix: criteria.BuildingPrefix,
		MinCapacity:    criteria.MinCapacity,
	}

	if raw := params.Get("date"); raw != "" {
		day, err := models.ParseDate("date", raw, loc)
		if err != nil {
			return availability.Query{}, errs.Invalid("date", err.Error())
		}
		q.Date = day
	}

	if raw := params.Get("time"); raw != "" {
		minutes, err := models.ParseClock("time", raw)
		if err != nil {
			return availability.Query{}, errs.Invalid("time", err.Error())
		}
		q.Time = &minutes
	}

	if raw := params.Get("durationHours"); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(hours) || math.IsInf(hours, 0) || math.Round(hours*60) < 1 {
			return availability.Query{}, errs.Invalid("durationHours", "must be a positive number")
		}
		q.DurationMinutes = int(math.Round(hours * 60))
	}
	return q, nil
}
