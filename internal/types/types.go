// Package types holds all shared data structures (models) used across
// the application. Keeping them in one place prevents import cycles —
// handlers, storage, service and utils can all import types without
// depending on each other.
package types

// Student represents a student record in our system.
//
// Struct tags serve two purposes:
//
//  1. json:"..."  — controls how the field appears when encoded to JSON.
//
//  2. validate:"..." — rules checked by the go-playground/validator
//     package. These are the rules the service enforces on EVERY write,
//     so only true invariants live here. Request-level rules (required
//     name, email format) live on the HTTP payload types instead.
//
// Tickets is never persisted as a column. Storage links tickets back to
// their owner through Ticket.StudentID and the service fills this slice
// in on read, so the two views can never drift apart.
type Student struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Course  string   `json:"course"`
	Email   string   `json:"email"`
	Age     int      `json:"age"`
	Grade   int      `json:"grade" validate:"gte=0,lte=100"`
	Tickets []Ticket `json:"tickets,omitempty"`
}

// Ticket is a support issue raised by exactly one student.
//
// Active starts true and flips to false once, on close. Student is the
// eagerly joined owner, populated only by single-ticket reads.
type Ticket struct {
	ID          int64    `json:"id"`
	StudentID   int64    `json:"student_id"`
	Description string   `json:"description"`
	Active      bool     `json:"active"`
	Student     *Student `json:"student,omitempty"`
}
