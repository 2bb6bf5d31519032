package api

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/service"
)

// SignatureHeader carries the HMAC-SHA256 of the request body as "sha256=<hex>"
const SignatureHeader = "X-Signature"

// ImportResponse is the body returned by the import endpoint
type ImportResponse struct {
	Success bool                  `json:"success"`
	Result  *service.ImportResult `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
	Kind    string                `json:"kind,omitempty"`
}

// ImportHandler accepts booking-source batches
type ImportHandler struct {
	service     BookingServicer
	secretToken string
	logger      *slog.Logger
}

// NewImportHandler creates an import handler verifying bodies with secretToken
func NewImportHandler(svc BookingServicer, secretToken string, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		service:     svc,
		secretToken: secretToken,
		logger:      logger,
	}
}

// ServeHTTP handles POST /api/bookings/import
func (h *ImportHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Only allow POST requests
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Limit request body size to prevent abuse
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Warn("Error reading import body", slog.Any("error", err))
		http.Error(w, "Error reading request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	// Verify signature if secret token is configured
	if h.secretToken != "" {
		if !h.verifySignature(r.Header.Get(SignatureHeader), body) {
			h.logger.Warn("Invalid import signature", slog.String("remote", r.RemoteAddr))
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	} else {
		h.logger.Warn("Import verification disabled - BOOKING_IMPORT_SECRET not set")
	}

	records, err := decodeRecords(body)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	result, err := h.service.Ingest(r.Context(), records)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Booking import failed", slog.Any("error", err))
		}
		writeJSON(w, status, ImportResponse{
			Result: &result,
			Error:  err.Error(),
			Kind:   errs.Kind(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, ImportResponse{Success: true, Result: &result})
}

// decodeRecords accepts either a bare array or {"bookings": [...]}
func decodeRecords(body []byte) ([]service.ImportRecord, error) {
	trimmed := bytes.TrimSpace(body)
	var records []service.ImportRecord
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, errs.Invalid("body", "invalid JSON payload")
		}
		return records, nil
	}

	var envelope struct {
		Bookings []service.ImportRecord `json:"bookings"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, errs.Invalid("body", "invalid JSON payload")
	}
	return envelope.Bookings, nil
}

// verifySignature checks header against an HMAC-SHA256 of body using the
// configured secret token
func (h *ImportHandler) verifySignature(header string, body []byte) bool {
	if header == "" {
		h.logger.Info("Missing signature header")
		return false
	}

	// Parse the signature format (should be sha256=HASH)
	parts := strings.SplitN(header, "=", 2)
	if len(parts) != 2 || parts[0] != "sha256" {
		h.logger.Info("Invalid signature format")
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secretToken))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(parts[1])))
}

// Sign returns the signature header value for body, for clients of the import endpoint
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
