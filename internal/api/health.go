// Package api provides the HTTP handlers for the roomfinder API
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// HealthResponse represents the response for health check endpoints
type HealthResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// HealthLiveHandler handles Kubernetes liveness probe requests
func HealthLiveHandler(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status: "UP",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// ReadinessHandler reports ready once the directory holds rooms and the
// ledger answers
type ReadinessHandler struct {
	ledger    Pinger
	directory RoomDirectory
	logger    *slog.Logger
}

// NewReadinessHandler creates a readiness probe handler
func NewReadinessHandler(ledger Pinger, directory RoomDirectory, logger *slog.Logger) *ReadinessHandler {
	return &ReadinessHandler{ledger: ledger, directory: directory, logger: logger}
}

// ServeHTTP handles Kubernetes readiness probe requests
func (h *ReadinessHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if h.directory.Len() == 0 {
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "DOWN", Reason: "room directory not loaded"})
		return
	}
	if err := h.ledger.Ping(ctx); err != nil {
		h.logger.Warn("Readiness check failed", slog.Any("error", err))
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "DOWN", Reason: "booking ledger unreachable"})
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "UP"})
}
