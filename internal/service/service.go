// Package service is the consistency layer between callers and storage.
//
// The storage backend is a dumb record store. Everything that decides
// whether a write may happen lives here:
//
//   - a student's email is unique among stored students (exact match)
//   - a student's grade is within [0, 100]
//   - a ticket can only be raised for a student that exists
//   - a ticket closes once and never reopens
//   - deleting a student deletes all of its tickets
//
// CONCURRENCY
// ───────────
// One sync.RWMutex guards every operation. Writes hold the exclusive lock
// across the whole check-then-act sequence, so two AddStudent calls with
// the same email cannot both pass the uniqueness check, and two CloseTicket
// calls on one ticket cannot both succeed. Reads share the lock and never
// observe a half-applied write.
package service

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/go-playground/validator/v10"
)

// StudentService manages students and their tickets.
type StudentService struct {
	mu       sync.RWMutex
	store    storage.Storage
	validate *validator.Validate
	log      *slog.Logger
}

// New wires a service over store. A nil logger falls back to slog.Default.
func New(store storage.Storage, log *slog.Logger) *StudentService {
	if log == nil {
		log = slog.Default()
	}
	return &StudentService{
		store:    store,
		validate: validator.New(),
		log:      log.With(slog.String("component", "student_service")),
	}
}

// observe records metrics for one finished operation. Call it deferred
// with a pointer to the named error result.
func observe(op string, started time.Time, err *error) {
	metrics.Observe(op, outcome(*err), started)
}

// Initialise empties both collections.
func (s *StudentService) Initialise() (err error) {
	defer observe("Initialise", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Initialise(); err != nil {
		return fmt.Errorf("Initialise: %w", err)
	}
	s.log.Info("store initialised")
	return nil
}

// ═════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ═════════════════════════════════════════════════════════════════════════════

// AddStudent stores candidate under a new id and returns the stored
// record. Any ID or Tickets on candidate are ignored.
//
// Fails with ErrValidation for a grade outside [0, 100] and with
// ErrDuplicateEmail when another student already has the email.
func (s *StudentService) AddStudent(candidate types.Student) (_ types.Student, err error) {
	defer observe("AddStudent", time.Now(), &err)

	if err := s.validateStudent(candidate); err != nil {
		s.log.Warn("add student rejected", slog.String("reason", err.Error()))
		return types.Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkEmailFree(candidate.Email, 0); err != nil {
		s.log.Warn("add student rejected",
			slog.String("email", candidate.Email),
			slog.String("reason", err.Error()))
		return types.Student{}, err
	}

	id, err := s.store.CreateStudent(candidate)
	if err != nil {
		return types.Student{}, fmt.Errorf("AddStudent: %w", err)
	}

	candidate.ID = id
	candidate.Tickets = nil
	s.log.Info("student added", slog.Int64("id", id))
	return candidate, nil
}

// GetStudents returns every stored student, without their tickets.
func (s *StudentService) GetStudents() (_ []types.Student, err error) {
	defer observe("GetStudents", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	students, err := s.store.GetStudents()
	if err != nil {
		return nil, fmt.Errorf("GetStudents: %w", err)
	}
	return students, nil
}

// GetStudent returns the student with id together with its tickets.
func (s *StudentService) GetStudent(id int64) (_ types.Student, err error) {
	defer observe("GetStudent", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	student, err := s.store.GetStudentByID(id)
	if err != nil {
		return types.Student{}, err
	}
	return s.withTickets(student)
}

// GetStudentByEmail returns the student with exactly this email together
// with its tickets.
func (s *StudentService) GetStudentByEmail(email string) (_ types.Student, err error) {
	defer observe("GetStudentByEmail", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	student, err := s.store.GetStudentByEmail(email)
	if err != nil {
		return types.Student{}, err
	}
	return s.withTickets(student)
}

// UpdateStudent replaces every field of the student identified by
// candidate.ID with the values in candidate. It is a full replace, not a
// patch: zero values overwrite.
//
// Fails with ErrValidation, ErrNotFound, or ErrDuplicateEmail when the
// email belongs to a different student. Keeping one's own email is fine.
func (s *StudentService) UpdateStudent(candidate types.Student) (_ types.Student, err error) {
	defer observe("UpdateStudent", time.Now(), &err)

	if err := s.validateStudent(candidate); err != nil {
		s.log.Warn("update student rejected",
			slog.Int64("id", candidate.ID),
			slog.String("reason", err.Error()))
		return types.Student{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetStudentByID(candidate.ID); err != nil {
		return types.Student{}, err
	}

	if err := s.checkEmailFree(candidate.Email, candidate.ID); err != nil {
		s.log.Warn("update student rejected",
			slog.Int64("id", candidate.ID),
			slog.String("reason", err.Error()))
		return types.Student{}, err
	}

	updated, err := s.store.UpdateStudentByID(candidate.ID, candidate)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudent: %w", err)
	}

	s.log.Info("student updated", slog.Int64("id", updated.ID))
	return s.withTickets(updated)
}

// DeleteStudent removes the student and every ticket it owns. It reports
// false, and changes nothing, when no such student exists.
func (s *StudentService) DeleteStudent(id int64) (_ bool, err error) {
	defer observe("DeleteStudent", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetStudentByID(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("DeleteStudent: %w", err)
	}

	// Tickets go first. If the student delete then fails we are left with
	// a student without tickets, never with tickets without a student.
	removed, err := s.store.DeleteTicketsByStudentID(id)
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: tickets: %w", err)
	}
	if err := s.store.DeleteStudentByID(id); err != nil {
		return false, fmt.Errorf("DeleteStudent: %w", err)
	}

	s.log.Info("student deleted",
		slog.Int64("id", id),
		slog.Int64("tickets_removed", removed))
	return true, nil
}

// ═════════════════════════════════════════════════════════════════════════════
// TICKETS
// ═════════════════════════════════════════════════════════════════════════════

// CreateTicket raises an active ticket for studentID. Fails with
// ErrInvalidReference when the student does not exist.
func (s *StudentService) CreateTicket(studentID int64, description string) (_ types.Ticket, err error) {
	defer observe("CreateTicket", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.GetStudentByID(studentID); err != nil {
		if errors.Is(err, ErrNotFound) {
			s.log.Warn("create ticket rejected", slog.Int64("student_id", studentID))
			return types.Ticket{}, fmt.Errorf("student %d: %w", studentID, ErrInvalidReference)
		}
		return types.Ticket{}, fmt.Errorf("CreateTicket: %w", err)
	}

	ticket := types.Ticket{
		StudentID:   studentID,
		Description: description,
		Active:      true,
	}
	id, err := s.store.CreateTicket(ticket)
	if err != nil {
		return types.Ticket{}, fmt.Errorf("CreateTicket: %w", err)
	}
	ticket.ID = id

	s.log.Info("ticket created",
		slog.Int64("id", id),
		slog.Int64("student_id", studentID))
	return ticket, nil
}

// GetTicket returns the ticket with its owning student attached.
func (s *StudentService) GetTicket(id int64) (_ types.Ticket, err error) {
	defer observe("GetTicket", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	ticket, err := s.store.GetTicketByID(id)
	if err != nil {
		return types.Ticket{}, err
	}

	owner, err := s.store.GetStudentByID(ticket.StudentID)
	switch {
	case err == nil:
		ticket.Student = &owner
	case errors.Is(err, ErrNotFound):
		// Only reachable if something wrote to storage behind our back.
		s.log.Error("ticket owner missing",
			slog.Int64("id", id),
			slog.Int64("student_id", ticket.StudentID))
	default:
		return types.Ticket{}, fmt.Errorf("GetTicket: owner: %w", err)
	}
	return ticket, nil
}

// GetOpenTickets returns every active ticket across all students.
func (s *StudentService) GetOpenTickets() (_ []types.Ticket, err error) {
	defer observe("GetOpenTickets", time.Now(), &err)

	s.mu.RLock()
	defer s.mu.RUnlock()

	tickets, err := s.store.GetOpenTickets()
	if err != nil {
		return nil, fmt.Errorf("GetOpenTickets: %w", err)
	}
	return tickets, nil
}

// CloseTicket marks an active ticket inactive and returns it. Closing is
// one-shot: a second call fails with ErrAlreadyClosed.
func (s *StudentService) CloseTicket(id int64) (_ types.Ticket, err error) {
	defer observe("CloseTicket", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, err := s.store.GetTicketByID(id)
	if err != nil {
		return types.Ticket{}, err
	}
	if !ticket.Active {
		return types.Ticket{}, fmt.Errorf("ticket %d: %w", id, ErrAlreadyClosed)
	}

	ticket.Active = false
	closed, err := s.store.UpdateTicketByID(id, ticket)
	if err != nil {
		return types.Ticket{}, fmt.Errorf("CloseTicket: %w", err)
	}

	s.log.Info("ticket closed", slog.Int64("id", id))
	return closed, nil
}

// DeleteTicket removes one ticket. It reports false when none exists.
func (s *StudentService) DeleteTicket(id int64) (_ bool, err error) {
	defer observe("DeleteTicket", time.Now(), &err)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteTicketByID(id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("DeleteTicket: %w", err)
	}

	s.log.Info("ticket deleted", slog.Int64("id", id))
	return true, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// helpers (callers hold the lock where noted)
// ─────────────────────────────────────────────────────────────────────────────

// validateStudent runs the validate:"..." tags on types.Student.
func (s *StudentService) validateStudent(student types.Student) error {
	if err := s.validate.Struct(student); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			return fmt.Errorf("%w: %w", ErrValidation, verrs)
		}
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return nil
}

// checkEmailFree fails with ErrDuplicateEmail when email belongs to a
// stored student other than self. Pass self = 0 for a new student; store
// ids start at 1. Caller holds the lock.
func (s *StudentService) checkEmailFree(email string, self int64) error {
	existing, err := s.store.GetStudentByEmail(email)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("email lookup: %w", err)
	case existing.ID != self:
		return fmt.Errorf("%q: %w", email, ErrDuplicateEmail)
	default:
		return nil
	}
}

// withTickets attaches the student's tickets. Caller holds the lock.
func (s *StudentService) withTickets(student types.Student) (types.Student, error) {
	tickets, err := s.store.GetTicketsByStudentID(student.ID)
	if err != nil {
		return types.Student{}, fmt.Errorf("tickets of student %d: %w", student.ID, err)
	}
	student.Tickets = tickets
	return student, nil
}
