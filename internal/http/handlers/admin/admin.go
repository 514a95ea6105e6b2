// Package admin exposes maintenance endpoints.
package admin

import (
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/utils/response"
)

// Initialiser is anything that can wipe itself back to empty.
type Initialiser interface {
	Initialise() error
}

// Reset handles POST /api/admin/reset. It empties both students and
// tickets; ids start again from 1 on the SQLite backend.
func Reset(svc Initialiser) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("resetting all data")

		if err := svc.Initialise(); err != nil {
			response.ServiceError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "reset"})
	}
}
