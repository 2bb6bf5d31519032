package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/r3labs/sse/v2"

	"github.com/navikt/roomfinder/internal/logging"
	"github.com/navikt/roomfinder/internal/models"
)

// BookingsStream is the stream clients subscribe to when they name none
const BookingsStream = "bookings"

// BookingUpdate is the payload of an "update" event
type BookingUpdate struct {
	BookingRef string `json:"bookingRef"`
	RoomID     string `json:"roomId"`
	Status     string `json:"status"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

// SSEManager pushes booking changes to connected clients as server-sent events
type SSEManager struct {
	server  *sse.Server
	clients atomic.Int64
	logger  *slog.Logger
}

// NewSSEManager creates a new server-sent events manager
func NewSSEManager(logger *slog.Logger) *SSEManager {
	m := &SSEManager{logger: logger}

	server := sse.New()
	// Clients reload the full state on connect, so old events are not replayed
	server.AutoReplay = false
	server.Headers = map[string]string{
		"Access-Control-Allow-Origin": "*",
		"X-Accel-Buffering":           "no", // Disable nginx proxy buffering
		"Keep-Alive":                  "timeout=60, max=1000",
		"X-Content-Type-Options":      "nosniff",
	}
	server.OnSubscribe = func(streamID string, sub *sse.Subscriber) {
		n := m.clients.Add(1)
		logger.Info("SSE client connected", slog.String("stream", streamID), slog.Int64("clients", n))
	}
	server.OnUnsubscribe = func(streamID string, sub *sse.Subscriber) {
		n := m.clients.Add(-1)
		logger.Info("SSE client disconnected", slog.String("stream", streamID), slog.Int64("clients", n))
	}
	server.CreateStream(BookingsStream)

	m.server = server
	return m
}

// Clients returns the number of connected subscribers
func (m *SSEManager) Clients() int {
	return int(m.clients.Load())
}

// ServeHTTP implements the http.Handler interface for SSE connections
func (m *SSEManager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m.logRequest(r)

	// Set CORS headers to make SSE work in various environments
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

	// Handle CORS preflight
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Check if client accepts SSE
	if !isEventStreamSupported(r) {
		http.Error(w, "This endpoint requires EventStream support", http.StatusNotAcceptable)
		return
	}

	r = r.Clone(r.Context())
	q := r.URL.Query()
	if q.Get("stream") == "" {
		q.Set("stream", BookingsStream)
		r.URL.RawQuery = q.Encode()
	}
	// Event ids are UUIDs and nothing is replayed, so a reconnecting
	// browser's Last-Event-ID carries no information
	r.Header.Del("Last-Event-ID")

	m.server.ServeHTTP(w, r)
}

// NotifyBookingUpdate sends a booking change to all connected clients
func (m *SSEManager) NotifyBookingUpdate(b models.Booking) {
	data, err := json.Marshal(BookingUpdate{
		BookingRef: b.Reference,
		RoomID:     b.RoomID,
		Status:     b.Status.String(),
		StartTime:  b.Interval.Start.Format(models.DateTimeLayout),
		EndTime:    b.Interval.End.Format(models.DateTimeLayout),
	})
	if err != nil {
		m.logger.Error("Error encoding SSE update", slog.Any("error", err))
		return
	}

	m.logger.Debug("Publishing SSE update event",
		logging.String("bookingRef", b.Reference),
		slog.Int("clients", m.Clients()))

	m.server.Publish(BookingsStream, &sse.Event{
		ID:    []byte(uuid.NewString()),
		Event: []byte("update"),
		Data:  data,
	})
}

// Run sends a heartbeat comment every interval until ctx is done, keeping
// idle connections open through proxies
func (m *SSEManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if m.Clients() == 0 {
				continue
			}
			m.server.Publish(BookingsStream, &sse.Event{
				Comment: []byte("heartbeat " + now.Format(time.RFC3339)),
			})
		}
	}
}

// Close disconnects every client
func (m *SSEManager) Close() {
	m.server.Close()
}

// logRequest prints headers and connection info for debugging proxy issues
func (m *SSEManager) logRequest(r *http.Request) {
	if !m.logger.Enabled(r.Context(), slog.LevelDebug) {
		return
	}

	attrs := []any{
		slog.String("remote", r.RemoteAddr),
		slog.String("proto", r.Proto),
		slog.Bool("tls", r.TLS != nil),
		slog.Bool("cookies", len(r.Cookies()) > 0),
		slog.Bool("authHeader", r.Header.Get("Authorization") != ""),
	}
	for _, header := range []string{
		"Accept", "Connection", "User-Agent",
		"Accept-Encoding", "X-Forwarded-For",
		"X-Forwarded-Proto", "Upgrade", "Origin",
	} {
		if value := r.Header.Get(header); value != "" {
			attrs = append(attrs, logging.String(header, value))
		}
	}
	m.logger.Debug("SSE request", attrs...)
}

// isEventStreamSupported checks if the client accepts event streams
func isEventStreamSupported(r *http.Request) bool {
	accepts := r.Header.Get("Accept")
	return accepts == "" ||
		strings.Contains(accepts, "*/*") ||
		strings.Contains(accepts, "text/event-stream")
}
