// Package router builds the application's route table.
//
// Kept apart from main.go so tests can drive the exact same mux through
// httptest without starting a server.
package router

import (
	"net/http"

	"github.com/aanand-mishra/student-records/internal/http/handlers/admin"
	"github.com/aanand-mishra/student-records/internal/http/handlers/student"
	"github.com/aanand-mishra/student-records/internal/http/handlers/ticket"
	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/service"
)

// New registers every route against svc.
//
// Route table:
//
//	POST   /api/students                   → create a new student
//	GET    /api/students                   → list all students
//	GET    /api/students/{id}              → one student, with tickets
//	GET    /api/students/by-email/{email}  → one student by exact email
//	PUT    /api/students/{id}              → replace a student
//	DELETE /api/students/{id}              → delete a student and its tickets
//	POST   /api/students/{id}/tickets      → raise a ticket
//	GET    /api/tickets/open               → all active tickets
//	GET    /api/tickets/{id}               → one ticket, with its student
//	POST   /api/tickets/{id}/close         → close a ticket
//	DELETE /api/tickets/{id}               → delete a ticket
//	POST   /api/admin/reset                → empty everything
//	GET    /metrics                        → Prometheus metrics
//
// "GET /api/tickets/open" is more specific than "GET /api/tickets/{id}",
// so ServeMux routes the literal path to GetOpen.
func New(svc *service.StudentService) *http.ServeMux {
	router := http.NewServeMux()

	router.HandleFunc("POST /api/students", student.New(svc))
	router.HandleFunc("GET /api/students", student.GetList(svc))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(svc))
	router.HandleFunc("GET /api/students/by-email/{email}", student.GetByEmail(svc))
	router.HandleFunc("PUT /api/students/{id}", student.Update(svc))
	router.HandleFunc("DELETE /api/students/{id}", student.Delete(svc))

	router.HandleFunc("POST /api/students/{id}/tickets", ticket.New(svc))
	router.HandleFunc("GET /api/tickets/open", ticket.GetOpen(svc))
	router.HandleFunc("GET /api/tickets/{id}", ticket.GetByID(svc))
	router.HandleFunc("POST /api/tickets/{id}/close", ticket.Close(svc))
	router.HandleFunc("DELETE /api/tickets/{id}", ticket.Delete(svc))

	router.HandleFunc("POST /api/admin/reset", admin.Reset(svc))

	router.Handle("GET /metrics", metrics.Handler())

	return router
}
