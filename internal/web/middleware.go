package web

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/navikt/roomfinder/internal/logging"
	"github.com/navikt/roomfinder/internal/metrics"
)

// HTTPProtocolMiddleware prevents HTTP/3 QUIC protocol issues in cloud environments
// This middleware adds headers to prevent browsers from attempting HTTP/3 connections
// which can cause net::ERR_QUIC_PROTOCOL_ERROR in complex proxy setups
func HTTPProtocolMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Disable HTTP/3 QUIC protocol advertising globally
		w.Header().Set("Alt-Svc", "clear")

		// For SSE endpoints, add additional headers to ensure stable connections
		if strings.HasPrefix(r.URL.Path, "/events") {
			// Force HTTP/1.1 semantics for SSE
			w.Header().Set("Connection", "keep-alive")
			w.Header().Set("X-Force-HTTP1", "true")
			w.Header().Set("Upgrade", "")
		}

		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging and metrics
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush keeps event streams working behind the recorder
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// ObservabilityMiddleware logs every request and records its duration
func ObservabilityMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			elapsed := time.Since(start)
			route := RouteLabel(r.URL.Path)
			metrics.RecordHTTPRequest(r.Method, route, strconv.Itoa(rec.status), elapsed.Seconds())

			level := slog.LevelDebug
			if rec.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logger.Log(r.Context(), level, "HTTP request",
				slog.String("method", r.Method),
				logging.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", elapsed))
		})
	}
}

// RouteLabel collapses path parameters so metric labels stay bounded
func RouteLabel(path string) string {
	switch path {
	case "/health/live", "/health/ready", "/metrics", "/events",
		"/api/rooms", "/api/availability", "/api/available-rooms",
		"/api/bookings", "/api/bookings/import", "/api/timeline":
		return path
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) == 3 && parts[0] == "api" {
		switch parts[1] {
		case "rooms":
			return "/api/rooms/{id}"
		case "bookings":
			return "/api/bookings/{ref}"
		}
	}
	return "other"
}

// WrapMuxWithMiddleware wraps an HTTP mux with the protocol and observability middleware
func WrapMuxWithMiddleware(mux *http.ServeMux, logger *slog.Logger) http.Handler {
	return HTTPProtocolMiddleware(ObservabilityMiddleware(logger)(mux))
}
