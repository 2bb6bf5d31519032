package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/navikt/roomfinder/internal/bookingref"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/logging"
	"github.com/navikt/roomfinder/internal/models"
	"github.com/navikt/roomfinder/internal/service"
)

// maxBodyBytes limits request bodies
const maxBodyBytes = 1 << 20

// SubmitResponse is the body returned by POST /api/bookings
type SubmitResponse struct {
	Success    bool            `json:"success"`
	BookingRef string          `json:"bookingRef,omitempty"`
	Display    string          `json:"display,omitempty"`
	State      string          `json:"state"`
	Booking    *models.Booking `json:"booking,omitempty"`
	Error      string          `json:"error,omitempty"`
	Kind       string          `json:"kind,omitempty"`
	Field      string          `json:"field,omitempty"`
	Clash      *Clash          `json:"clash,omitempty"`
}

// BookingHandler handles HTTP requests for bookings
type BookingHandler struct {
	service BookingServicer
	limiter *RateLimiter
	logger  *slog.Logger
}

// NewBookingHandler creates a new booking handler. A nil limiter disables rate limiting.
func NewBookingHandler(svc BookingServicer, limiter *RateLimiter, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		service: svc,
		limiter: limiter,
		logger:  logger,
	}
}

// ServeHTTP handles HTTP requests for bookings
func (h *BookingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Path format: /api/bookings/{bookingRef}
	pathParts := strings.Split(strings.TrimSuffix(r.URL.Path, "/"), "/")
	var ref string
	if len(pathParts) >= 4 {
		ref = pathParts[3]
	}

	switch {
	case r.Method == http.MethodPost && ref == "":
		h.submit(w, r)
	case r.Method == http.MethodGet && ref == "":
		h.listUserBookings(w, r)
	case r.Method == http.MethodGet:
		h.getBooking(w, r, ref)
	case r.Method == http.MethodDelete && ref != "":
		h.cancelBooking(w, r, ref)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// submit handles POST /api/bookings
func (h *BookingHandler) submit(w http.ResponseWriter, r *http.Request) {
	if h.limiter != nil && !h.limiter.Allow(ClientIP(r)) {
		writeJSON(w, http.StatusTooManyRequests, ErrorResponse{Error: "rate limit exceeded"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req service.Request
	if err := json.Unmarshal(body, &req); err != nil {
		h.logger.Info("Error decoding booking request", slog.Any("error", err))
		writeError(w, h.logger, errs.Invalid("body", "invalid JSON payload"))
		return
	}

	sub, err := h.service.Submit(r.Context(), req)
	if err != nil {
		e := errorResponse(err)
		writeJSON(w, statusFor(err), SubmitResponse{
			State: sub.State.String(),
			Error: e.Error,
			Kind:  e.Kind,
			Field: e.Field,
			Clash: e.Clash,
		})
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResponse{
		Success:    true,
		BookingRef: sub.Booking.Reference,
		Display:    bookingref.Display(sub.Booking.Reference),
		State:      sub.State.String(),
		Booking:    sub.Booking,
	})
}

// listUserBookings handles GET /api/bookings?user=&filter=current|past|all
func (h *BookingHandler) listUserBookings(w http.ResponseWriter, r *http.Request) {
	filter, err := service.ParseUserFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	user := r.URL.Query().Get("user")
	bookings, err := h.service.UserBookings(r.Context(), user, filter)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.logger.Debug("Listed user bookings",
		logging.String("user", user),
		slog.Int("count", len(bookings)))
	writeJSON(w, http.StatusOK, bookings)
}

// getBooking handles GET /api/bookings/{bookingRef}
func (h *BookingHandler) getBooking(w http.ResponseWriter, r *http.Request, ref string) {
	booking, err := h.service.Get(r.Context(), ref)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

// cancelBooking handles DELETE /api/bookings/{bookingRef}
func (h *BookingHandler) cancelBooking(w http.ResponseWriter, r *http.Request, ref string) {
	booking, err := h.service.Cancel(r.Context(), ref)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}
