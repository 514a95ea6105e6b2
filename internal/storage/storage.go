// Package storage defines the Storage interface — a contract that any
// database backend must satisfy to work with this application.
//
// WHY AN INTERFACE?
// ─────────────────
// The service layer (internal/service) owns every business rule: email
// uniqueness, grade bounds, ticket ownership and cascading deletes. The
// storage backend owns none of them. It only knows how to put rows in and
// get rows out. By depending only on this interface:
//
//   - Switching databases = implement the interface for the new DB,
//     change one line in main.go. Zero service or handler changes.
//
//   - Writing tests = use the in-memory backend (storage/memory).
//     No real database file needed for unit tests.
package storage

import (
	"errors"

	"github.com/aanand-mishra/student-records/internal/types"
)

// ErrNotFound is returned by every by-id (and by-email) lookup, update and
// delete when no matching row exists. Callers check it with errors.Is.
var ErrNotFound = errors.New("record not found")

// Storage is the database contract.
//
// Implementations must be safe for concurrent use. They are NOT required to
// make multi-step sequences atomic; the service serialises its own writes.
type Storage interface {
	// Initialise wipes both collections and resets id generation.
	// Calling it twice in a row is harmless.
	Initialise() error

	// CreateStudent inserts a new student and returns the generated ID.
	// Any ID or Tickets set on the argument are ignored.
	CreateStudent(student types.Student) (int64, error)

	// GetStudentByID fetches a single student by primary key.
	GetStudentByID(id int64) (types.Student, error)

	// GetStudentByEmail fetches the student whose email matches exactly.
	GetStudentByEmail(email string) (types.Student, error)

	// GetStudents returns every student.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents() ([]types.Student, error)

	// UpdateStudentByID replaces every field except the ID.
	UpdateStudentByID(id int64, student types.Student) (types.Student, error)

	// DeleteStudentByID removes a student row. It does NOT touch tickets.
	DeleteStudentByID(id int64) error

	// CreateTicket inserts a ticket and returns the generated ID.
	CreateTicket(ticket types.Ticket) (int64, error)

	// GetTicketByID fetches a single ticket by primary key.
	GetTicketByID(id int64) (types.Ticket, error)

	// GetTicketsByStudentID returns every ticket owned by the student.
	GetTicketsByStudentID(studentID int64) ([]types.Ticket, error)

	// GetOpenTickets returns every ticket with Active == true.
	GetOpenTickets() ([]types.Ticket, error)

	// UpdateTicketByID replaces every field except the ID.
	UpdateTicketByID(id int64, ticket types.Ticket) (types.Ticket, error)

	// DeleteTicketByID removes a ticket row.
	DeleteTicketByID(id int64) error

	// DeleteTicketsByStudentID removes every ticket owned by the student
	// and reports how many were removed.
	DeleteTicketsByStudentID(studentID int64) (int64, error)
}
