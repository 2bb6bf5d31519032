package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/navikt/roomfinder/internal/errs"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
	Clash   *Clash `json:"clash,omitempty"`
}

// Clash identifies the booking a submission collided with
type Clash struct {
	RoomID     string `json:"roomId"`
	BookingRef string `json:"bookingRef"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", slog.Any("error", err))
	}
}

// statusFor maps an error kind to an HTTP status code
func statusFor(err error) int {
	switch {
	case errs.Is(err, errs.ErrConflict):
		return http.StatusConflict
	case errs.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrValidation), errs.Is(err, errs.ErrInvalidInterval):
		return http.StatusBadRequest
	case errs.Is(err, errs.ErrIntegrity):
		return http.StatusUnprocessableEntity
	case errs.Is(err, errs.ErrUpstreamUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse builds the body for err
func errorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error: err.Error(),
		Kind:  errs.Kind(err),
	}
	if verr, ok := errs.AsValidation(err); ok {
		resp.Field = verr.Field
	}
	if conflict, ok := errs.AsConflict(err); ok {
		resp.Clash = &Clash{
			RoomID:     conflict.RoomID,
			BookingRef: conflict.Reference,
			Start:      conflict.Start.Format("15:04"),
			End:        conflict.End.Format("15:04"),
		}
	}
	if statusFor(err) == http.StatusInternalServerError {
		resp.Error = "internal server error"
	}
	return resp
}

// writeError is the one place errors become HTTP responses
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", slog.Int("status", status), slog.Any("error", err))
	}
	writeJSON(w, status, errorResponse(err))
}
