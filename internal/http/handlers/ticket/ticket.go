// Package ticket contains the HTTP handlers for support tickets.
//
// Tickets are created under their owner (POST /api/students/{id}/tickets)
// and addressed by their own id afterwards. Closing is a one-way action
// exposed as POST /api/tickets/{id}/close; there is no reopen.
package ticket

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/request"
	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// Service is the slice of the student service these handlers need.
type Service interface {
	CreateTicket(studentID int64, description string) (types.Ticket, error)
	GetTicket(id int64) (types.Ticket, error)
	GetOpenTickets() ([]types.Ticket, error)
	CloseTicket(id int64) (types.Ticket, error)
	DeleteTicket(id int64) (bool, error)
}

// Payload is the JSON body for ticket creation.
type Payload struct {
	Description string `json:"description"`
}

// New handles POST /api/students/{id}/tickets.
//
//	201 Created               — the new, active ticket
//	422 Unprocessable Entity  — the student does not exist
func New(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		studentID, err := request.PathID(r, "id")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		slog.Info("creating a ticket", slog.Int64("student_id", studentID))

		var p Payload
		if err := request.DecodeJSON(r, &p); err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		ticket, err := svc.CreateTicket(studentID, p.Description)
		if err != nil {
			response.ServiceError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusCreated, ticket)
	}
}

// GetByID handles GET /api/tickets/{id}; the owner is embedded.
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(r, "id")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}

		ticket, err := svc.GetTicket(id)
		if err != nil {
			response.ServiceError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, ticket)
	}
}

// GetOpen handles GET /api/tickets/open.
func GetOpen(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tickets, err := svc.GetOpenTickets()
		if err != nil {
			response.ServiceError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, tickets)
	}
}

// Close handles POST /api/tickets/{id}/close.
//
//	200 OK         — the ticket, now inactive
//	404 Not Found  — no such ticket
//	409 Conflict   — already closed
func Close(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(r, "id")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		slog.Info("closing a ticket", slog.Int64("id", id))

		ticket, err := svc.CloseTicket(id)
		if err != nil {
			response.ServiceError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, ticket)
	}
}

// Delete handles DELETE /api/tickets/{id}.
func Delete(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(r, "id")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		slog.Info("deleting a ticket", slog.Int64("id", id))

		deleted, err := svc.DeleteTicket(id)
		if err != nil {
			response.ServiceError(w, err)
			return
		}
		if !deleted {
			response.ServiceError(w, service.ErrNotFound)
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
