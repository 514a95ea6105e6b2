// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE — THE CLOSURE / FACTORY PATTERN:
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// To inject dependencies we use a factory function that accepts the
// service and returns a function with the exact signature the router needs:
//
//	router.HandleFunc("POST /api/students", student.New(svc))
//
// Handlers only translate between HTTP and the service. Every rule
// (unique email, grade range, cascading delete) lives in internal/service.
package student

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/aanand-mishra/student-records/internal/service"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/aanand-mishra/student-records/internal/utils/request"
	"github.com/aanand-mishra/student-records/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// Service is the slice of the student service these handlers need.
type Service interface {
	AddStudent(s types.Student) (types.Student, error)
	GetStudents() ([]types.Student, error)
	GetStudent(id int64) (types.Student, error)
	GetStudentByEmail(email string) (types.Student, error)
	UpdateStudent(s types.Student) (types.Student, error)
	DeleteStudent(id int64) (bool, error)
}

// Payload is the JSON body accepted by create and update.
//
// These rules are request hygiene only. The grade range is not repeated
// here; the service rejects it and the error carries field details.
type Payload struct {
	Name   string `json:"name"   validate:"required"`
	Course string `json:"course"`
	Email  string `json:"email"  validate:"required,email"`
	Age    int    `json:"age"    validate:"required"`
	Grade  int    `json:"grade"`
}

func (p Payload) student(id int64) types.Student {
	return types.Student{
		ID:     id,
		Name:   p.Name,
		Course: p.Course,
		Email:  p.Email,
		Age:    p.Age,
		Grade:  p.Grade,
	}
}

var validate = validator.New()

// decodePayload reads and validates the body. It writes the 400 itself
// and reports false when the handler should stop.
func decodePayload(w http.ResponseWriter, r *http.Request) (Payload, bool) {
	var p Payload
	if err := request.DecodeJSON(r, &p); err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return p, false
	}

	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			response.WriteJSON(w, http.StatusBadRequest, response.ValidationError(verrs))
		} else {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		}
		return p, false
	}
	return p, true
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
// Request body (JSON):
//
//	{ "name": "XXX", "course": "Computing", "email": "xxx@email.com", "age": 20, "grade": 0 }
//
// Success response (201 Created): the stored student, including its id.
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, failed validation
//	409 Conflict     — email already in use
//
// ─────────────────────────────────────────────────────────────────────────────
func New(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		p, ok := decodePayload(w, r)
		if !ok {
			return
		}

		created, err := svc.AddStudent(p.student(0))
		if err != nil {
			response.ServiceError(w, err)
			return
		}

		slog.Info("student created", slog.Int64("id", created.ID))
		response.WriteJSON(w, http.StatusCreated, created)
	}
}

// GetByID handles GET /api/students/{id}. The body includes the
// student's tickets.
func GetByID(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(r, "id")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		slog.Info("getting a student", slog.Int64("id", id))

		student, err := svc.GetStudent(id)
		if err != nil {
			response.ServiceError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetByEmail handles GET /api/students/by-email/{email}.
func GetByEmail(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := r.PathValue("email")
		slog.Info("getting a student by email", slog.String("email", email))

		student, err := svc.GetStudentByEmail(email)
		if err != nil {
			response.ServiceError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /api/students
// Returns an empty array [] (not null) when there are no students.
func GetList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := svc.GetStudents()
		if err != nil {
			response.ServiceError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces ALL fields of an existing student; omitted fields become zero.
//
// Error responses:
//
//	400 Bad Request  — invalid id, empty body, validation failure
//	404 Not Found    — no such student
//	409 Conflict     — email belongs to a different student
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(r, "id")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		slog.Info("updating a student", slog.Int64("id", id))

		p, ok := decodePayload(w, r)
		if !ok {
			return
		}

		updated, err := svc.UpdateStudent(p.student(id))
		if err != nil {
			response.ServiceError(w, err)
			return
		}

		slog.Info("student updated", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, updated)
	}
}

// Delete handles DELETE /api/students/{id}. The student's tickets go
// with it.
func Delete(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := request.PathID(r, "id")
		if err != nil {
			response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
			return
		}
		slog.Info("deleting a student", slog.Int64("id", id))

		deleted, err := svc.DeleteStudent(id)
		if err != nil {
			response.ServiceError(w, err)
			return
		}
		if !deleted {
			response.ServiceError(w, service.ErrNotFound)
			return
		}

		slog.Info("student deleted", slog.Int64("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
