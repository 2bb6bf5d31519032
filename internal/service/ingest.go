package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/navikt/roomfinder/internal/bookingref"
	"github.com/navikt/roomfinder/internal/errs"
	"github.com/navikt/roomfinder/internal/metrics"
	"github.com/navikt/roomfinder/internal/models"
)

// ImportRecord is one row from the booking source
type ImportRecord struct {
	TimeID     *int   `json:"timeId,omitempty"`
	BookingRef string `json:"bookingRef,omitempty"`
	RoomID     string `json:"roomId"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
	User       string `json:"user,omitempty"`
}

// ImportFailure explains why one record was not imported
type ImportFailure struct {
	Index  int    `json:"index"`
	RoomID string `json:"roomId"`
	Reason string `json:"reason"`
}

// ImportResult summarises an Ingest call
type ImportResult struct {
	Imported     int             `json:"imported"`
	Duplicates   int             `json:"duplicates"`
	Placeholders int             `json:"placeholders"`
	Conflicts    []ImportFailure `json:"conflicts"`
	Invalid      []ImportFailure `json:"invalid"`
	Orphans      []ImportFailure `json:"orphans"`
}

// Ingest loads booking-source rows into the ledger. Placeholder rows are
// dropped, rows for rooms missing from the directory are reported as an
// integrity error after the remaining rows are processed.
func (s *BookingService) Ingest(ctx context.Context, records []ImportRecord) (ImportResult, error) {
	result := ImportResult{
		Conflicts: []ImportFailure{},
		Invalid:   []ImportFailure{},
		Orphans:   []ImportFailure{},
	}
	loc := s.clock.Now().Location()

	for i, rec := range records {
		if models.IsPlaceholderRecord(rec.TimeID, rec.StartTime, rec.EndTime) {
			result.Placeholders++
			continue
		}

		fail := ImportFailure{Index: i, RoomID: rec.RoomID}
		interval, err := models.ParseInterval(rec.StartTime, rec.EndTime, loc)
		if err != nil {
			fail.Reason = err.Error()
			result.Invalid = append(result.Invalid, fail)
			continue
		}

		room, err := s.rooms.Get(strings.TrimSpace(rec.RoomID))
		if err != nil {
			if !errs.Is(err, errs.ErrNotFound) {
				return result, err
			}
			fail.Reason = "room not in directory"
			result.Orphans = append(result.Orphans, fail)
			continue
		}

		ref := strings.TrimSpace(rec.BookingRef)
		if ref == "" {
			ref, err = s.refs.Generate(ctx, room.Name, interval.Start, rec.User, s.referenceTaken)
			if err != nil {
				return result, err
			}
		} else if !bookingref.Valid(ref) {
			s.logger.Debug("Importing booking with foreign reference format", slog.String("bookingRef", ref))
		}

		booking, err := s.ledger.TryReserve(ctx, models.Booking{
			ID:        uuid.NewString(),
			Reference: ref,
			RoomID:    room.ID,
			Interval:  interval,
			User:      strings.TrimSpace(rec.User),
			Status:    models.BookingStatusActive,
			CreatedAt: s.clock.Now(),
		})
		switch {
		case err == nil:
			result.Imported++
			s.notifyUpdate(booking)
		case errs.Is(err, errs.ErrConflict):
			fail.Reason = err.Error()
			result.Conflicts = append(result.Conflicts, fail)
		case errs.Is(err, errs.ErrValidation):
			result.Duplicates++
		default:
			return result, err
		}
	}

	metrics.RecordImport("imported", result.Imported)
	metrics.RecordImport("duplicate", result.Duplicates)
	metrics.RecordImport("placeholder", result.Placeholders)
	metrics.RecordImport("conflict", len(result.Conflicts))
	metrics.RecordImport("invalid", len(result.Invalid))
	metrics.RecordImport("orphan", len(result.Orphans))

	s.logger.Info("Booking import finished",
		slog.Int("imported", result.Imported),
		slog.Int("placeholders", result.Placeholders),
		slog.Int("conflicts", len(result.Conflicts)),
		slog.Int("orphans", len(result.Orphans)))

	if len(result.Orphans) > 0 {
		rooms := make([]string, 0, len(result.Orphans))
		for _, o := range result.Orphans {
			rooms = append(rooms, o.RoomID)
		}
		return result, errs.Mark(
			errs.Newf("%d bookings reference rooms missing from the directory: %s", len(rooms), strings.Join(rooms, ", ")),
			errs.ErrIntegrity)
	}
	return result, nil
}
