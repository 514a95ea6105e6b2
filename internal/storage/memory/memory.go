// Package memory provides an in-process implementation of storage.Storage.
//
// Records live in two maps guarded by one sync.RWMutex. Ids come from
// monotonic counters, so a deleted id is never handed out again until
// Initialise resets the store. Every value crossing the API boundary is a
// copy; callers cannot mutate stored state through a returned struct.
package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
)

// Memory is a map-backed storage.Storage. The zero value is not usable;
// call New.
type Memory struct {
	mu sync.RWMutex

	students map[int64]types.Student
	tickets  map[int64]types.Ticket

	nextStudentID int64
	nextTicketID  int64
}

// New returns an empty store.
func New() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.students = map[int64]types.Student{}
	m.tickets = map[int64]types.Ticket{}
	m.nextStudentID = 1
	m.nextTicketID = 1
}

// Initialise drops every record and restarts ids at 1.
func (m *Memory) Initialise() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// CreateStudent stores a copy of student under a fresh id.
func (m *Memory) CreateStudent(student types.Student) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextStudentID
	m.nextStudentID++

	student.ID = id
	student.Tickets = nil
	m.students[id] = student
	return id, nil
}

// GetStudentByID returns the student stored under id.
func (m *Memory) GetStudentByID(id int64) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	student, ok := m.students[id]
	if !ok {
		return types.Student{}, fmt.Errorf("GetStudentByID %d: %w", id, storage.ErrNotFound)
	}
	return student, nil
}

// GetStudentByEmail scans for an exact email match.
func (m *Memory) GetStudentByEmail(email string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, student := range m.students {
		if student.Email == email {
			return student, nil
		}
	}
	return types.Student{}, fmt.Errorf("GetStudentByEmail %q: %w", email, storage.ErrNotFound)
}

// GetStudents returns all students ordered by id.
func (m *Memory) GetStudents() ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0, len(m.students))
	for _, student := range m.students {
		students = append(students, student)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, nil
}

// UpdateStudentByID replaces every field of the stored student except ID.
func (m *Memory) UpdateStudentByID(id int64, student types.Student) (types.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return types.Student{}, fmt.Errorf("UpdateStudentByID %d: %w", id, storage.ErrNotFound)
	}
	student.ID = id
	student.Tickets = nil
	m.students[id] = student
	return student, nil
}

// DeleteStudentByID removes the student. Tickets are left alone.
func (m *Memory) DeleteStudentByID(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.students[id]; !ok {
		return fmt.Errorf("DeleteStudentByID %d: %w", id, storage.ErrNotFound)
	}
	delete(m.students, id)
	return nil
}

// CreateTicket stores a copy of ticket under a fresh id.
func (m *Memory) CreateTicket(ticket types.Ticket) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextTicketID
	m.nextTicketID++

	ticket.ID = id
	ticket.Student = nil
	m.tickets[id] = ticket
	return id, nil
}

// GetTicketByID returns the ticket stored under id.
func (m *Memory) GetTicketByID(id int64) (types.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ticket, ok := m.tickets[id]
	if !ok {
		return types.Ticket{}, fmt.Errorf("GetTicketByID %d: %w", id, storage.ErrNotFound)
	}
	return ticket, nil
}

// GetTicketsByStudentID returns the tickets owned by studentID.
func (m *Memory) GetTicketsByStudentID(studentID int64) ([]types.Ticket, error) {
	return m.filterTickets(func(t types.Ticket) bool { return t.StudentID == studentID }), nil
}

// GetOpenTickets returns every ticket that is still active.
func (m *Memory) GetOpenTickets() ([]types.Ticket, error) {
	return m.filterTickets(func(t types.Ticket) bool { return t.Active }), nil
}

func (m *Memory) filterTickets(keep func(types.Ticket) bool) []types.Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tickets := make([]types.Ticket, 0)
	for _, ticket := range m.tickets {
		if keep(ticket) {
			tickets = append(tickets, ticket)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID < tickets[j].ID })
	return tickets
}

// UpdateTicketByID replaces every field of the stored ticket except ID.
func (m *Memory) UpdateTicketByID(id int64, ticket types.Ticket) (types.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tickets[id]; !ok {
		return types.Ticket{}, fmt.Errorf("UpdateTicketByID %d: %w", id, storage.ErrNotFound)
	}
	ticket.ID = id
	ticket.Student = nil
	m.tickets[id] = ticket
	return ticket, nil
}

// DeleteTicketByID removes one ticket.
func (m *Memory) DeleteTicketByID(id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tickets[id]; !ok {
		return fmt.Errorf("DeleteTicketByID %d: %w", id, storage.ErrNotFound)
	}
	delete(m.tickets, id)
	return nil
}

// DeleteTicketsByStudentID removes all tickets owned by studentID.
func (m *Memory) DeleteTicketsByStudentID(studentID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, ticket := range m.tickets {
		if ticket.StudentID == studentID {
			delete(m.tickets, id)
			n++
		}
	}
	return n, nil
}

var _ storage.Storage = (*Memory)(nil)
