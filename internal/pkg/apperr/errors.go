package apperr

import (
	"net/http"

	"github.com/cockroachdb/errors"
)

// Error kinds. Domain errors are marked with exactly one kind so handlers can
// map them to an HTTP status without matching on message text.
var (
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation error")
	ErrPermissionDenied  = errors.New("permission denied")
	ErrConflict          = errors.New("conflict")
	ErrSequenceExhausted = errors.New("sequence exhausted")
	ErrDatabase          = errors.New("database error")

	statusCodeMap = []struct {
		kind error
		code int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrUnauthorized, http.StatusUnauthorized},
		{ErrValidation, http.StatusBadRequest},
		{ErrPermissionDenied, http.StatusForbidden},
		{ErrConflict, http.StatusConflict},
		{ErrSequenceExhausted, http.StatusInternalServerError},
		{ErrDatabase, http.StatusInternalServerError},
	}
)

// New returns an error with message msg marked as kind.
func New(msg string, kind error) error {
	return errors.Mark(errors.New(msg), kind)
}

// Mark attaches kind to err.
func Mark(err error, kind error) error {
	if err == nil {
		return nil
	}
	return errors.Mark(err, kind)
}

// Validation wraps a user-facing validation message.
func Validation(msg string) error {
	return New(msg, ErrValidation)
}

// Database wraps a storage failure with context and marks it ErrDatabase.
func Database(err error, msg string) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrap(err, msg), ErrDatabase)
}

// Is reports whether err matches target, honouring marks.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As from cockroachdb/errors.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// HTTPStatus maps err to a status code. Unmarked errors are 500.
func HTTPStatus(err error) int {
	for _, m := range statusCodeMap {
		if errors.Is(err, m.kind) {
			return m.code
		}
	}
	return http.StatusInternalServerError
}

// Message returns the text safe to show a client. Server-side kinds other than
// ErrSequenceExhausted collapse to a generic message.
func Message(err error) string {
	code := HTTPStatus(err)
	if code >= http.StatusInternalServerError && !errors.Is(err, ErrSequenceExhausted) {
		return "Internal Server Error"
	}
	return err.Error()
}
