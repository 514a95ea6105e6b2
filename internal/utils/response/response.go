// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Consistent response shapes also make life easier for API consumers —
// they always know what error responses look like.
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
//
//	{ "status": "error", "error": "field Name is required" }
type Response struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"
)

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into our standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
// Example output:
//
//	{ "status": "error", "error": "field Name is required, field Grade must be <= 100" }
//
// ─────────────────────────────────────────────────────────────────────────────
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "gte":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be >= %s", e.Field(), e.Param()))
		case "lte":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be <= %s", e.Field(), e.Param()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ServiceError maps an error from the service layer onto an HTTP status
// and writes it.
//
//	ErrNotFound          → 404 Not Found
//	ErrValidation        → 400 Bad Request (field messages when available)
//	ErrDuplicateEmail    → 409 Conflict
//	ErrAlreadyClosed     → 409 Conflict
//	ErrInvalidReference  → 422 Unprocessable Entity
//	anything else        → 500, logged; the client sees a generic message
//
// ─────────────────────────────────────────────────────────────────────────────
func ServiceError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors

	switch {
	case errors.As(err, &verrs):
		WriteJSON(w, http.StatusBadRequest, ValidationError(verrs))
	case errors.Is(err, service.ErrValidation):
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
	case errors.Is(err, service.ErrNotFound):
		WriteJSON(w, http.StatusNotFound, GeneralError(service.ErrNotFound))
	case errors.Is(err, service.ErrDuplicateEmail),
		errors.Is(err, service.ErrAlreadyClosed):
		WriteJSON(w, http.StatusConflict, GeneralError(err))
	case errors.Is(err, service.ErrInvalidReference):
		WriteJSON(w, http.StatusUnprocessableEntity, GeneralError(err))
	default:
		// Storage internals stay out of the response body.
		slog.Error("internal error", slog.String("error", err.Error()))
		WriteJSON(w, http.StatusInternalServerError,
			GeneralError(errors.New("internal server error")))
	}
}
