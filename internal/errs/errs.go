// Package errs provides the error kinds shared across the booking engine.
//
// Every error returned by the core packages is marked with exactly one of the
// kind sentinels below, so callers classify failures with errors.Is instead of
// matching on messages.
package errs

import (
	"fmt"
	"strings"
	"time"

	cr "github.com/cockroachdb/errors"
)

// Error kinds
var (
	ErrInvalidInterval     = cr.New("invalid interval")
	ErrValidation          = cr.New("validation failed")
	ErrConflict            = cr.New("booking conflict")
	ErrNotFound            = cr.New("not found")
	ErrUpstreamUnavailable = cr.New("upstream unavailable")
	ErrIntegrity           = cr.New("data integrity violation")
)

// Wrap annotates err with msg, keeping its kind
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

// Wrapf is Wrap with formatting
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

// New creates an unmarked error with a stack trace
func New(msg string) error {
	return cr.New(msg)
}

// Newf creates an unmarked error from a format string
func Newf(format string, args ...interface{}) error {
	return cr.Newf(format, args...)
}

// Mark tags err with the given kind. A nil err yields the kind itself.
func Mark(err error, kind error) error {
	if err == nil {
		return kind
	}
	return cr.Mark(err, kind)
}

// Is reports whether err carries the given kind
func Is(err, kind error) bool {
	return cr.Is(err, kind)
}

// As is errors.As over the cockroachdb error chain
func As(err error, target interface{}) bool {
	return cr.As(err, target)
}

// ValidationError describes one rejected input field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Invalid builds a ValidationError marked with ErrValidation
func Invalid(field, reason string) error {
	return Mark(&ValidationError{Field: field, Reason: reason}, ErrValidation)
}

// ConflictError names the existing booking that clashes with a reservation attempt
type ConflictError struct {
	RoomID    string
	Reference string
	Start     time.Time
	End       time.Time
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("room %s already booked %s-%s (%s)",
		e.RoomID, e.Start.Format("15:04"), e.End.Format("15:04"), e.Reference)
}

// Conflict builds a ConflictError marked with ErrConflict
func Conflict(roomID, reference string, start, end time.Time) error {
	return Mark(&ConflictError{RoomID: roomID, Reference: reference, Start: start, End: end}, ErrConflict)
}

// AsConflict extracts the ConflictError from err, if any
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if cr.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// AsValidation extracts the ValidationError from err, if any
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if cr.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// Kind returns a short name for the kind err is marked with
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrInvalidInterval):
		return "InvalidInterval"
	case Is(err, ErrValidation):
		return "ValidationError"
	case Is(err, ErrConflict):
		return "ConflictError"
	case Is(err, ErrNotFound):
		return "NotFound"
	case Is(err, ErrUpstreamUnavailable):
		return "UpstreamUnavailable"
	case Is(err, ErrIntegrity):
		return "IntegrityError"
	default:
		return "InternalError"
	}
}

// StackLines returns the first maxLines lines of the verbose error report
func StackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	lines := strings.Split(fmt.Sprintf("%+v", err), "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
