package service

import (
	"errors"

	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/storage"
)

// Rejections. Every one of them is detected before any write happens, so
// a caller that receives one knows the store is exactly as it was.
var (
	// ErrNotFound is the storage sentinel re-exported, so errors.Is works
	// on both wrapped storage errors and service errors.
	ErrNotFound = storage.ErrNotFound

	// ErrValidation wraps validator.ValidationErrors (grade out of range).
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEmail means another student already uses the email.
	ErrDuplicateEmail = errors.New("email already in use")

	// ErrAlreadyClosed means the ticket was closed before.
	ErrAlreadyClosed = errors.New("ticket already closed")

	// ErrInvalidReference means a ticket was raised for a missing student.
	ErrInvalidReference = errors.New("student does not exist")
)

// outcome maps an operation result onto its metrics label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeOK
	case errors.Is(err, ErrNotFound):
		return metrics.OutcomeNotFound
	case errors.Is(err, ErrValidation):
		return metrics.OutcomeValidation
	case errors.Is(err, ErrDuplicateEmail):
		return metrics.OutcomeDuplicateEmail
	case errors.Is(err, ErrAlreadyClosed):
		return metrics.OutcomeAlreadyClosed
	case errors.Is(err, ErrInvalidReference):
		return metrics.OutcomeInvalidReference
	default:
		return metrics.OutcomeError
	}
}
