// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// WHY SQLite?
// ───────────
// SQLite stores everything in a single file on disk. There is no
// network, no separate server process, and no installation beyond the
// driver. It is fast enough for most projects and trivial to set up.
//
// Two tables live here: students and tickets. tickets.student_id points
// back at students.id but there is NO foreign-key cascade — the service
// layer removes a student's tickets itself, so the rule lives in exactly
// one place regardless of backend.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aanand-mishra/student-records/internal/config"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"

	// Blank import: side-effect only (registers the "sqlite3" driver).
	_ "github.com/mattn/go-sqlite3"
)

// schema is idempotent — safe to run on every startup.
//
// The UNIQUE index on email is a last line of defence. The service checks
// for duplicates before inserting, so a constraint violation here means
// something bypassed the service.
const schema = `
	CREATE TABLE IF NOT EXISTS students (
		id     INTEGER PRIMARY KEY AUTOINCREMENT,
		name   TEXT    NOT NULL,
		course TEXT    NOT NULL,
		email  TEXT    NOT NULL,
		age    INTEGER NOT NULL,
		grade  INTEGER NOT NULL
	);
	CREATE UNIQUE INDEX IF NOT EXISTS students_email_idx ON students (email);

	CREATE TABLE IF NOT EXISTS tickets (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		student_id  INTEGER NOT NULL,
		description TEXT    NOT NULL,
		active      INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS tickets_student_idx ON tickets (student_id);
`

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at the path specified in cfg.StoragePath,
// creates the tables if they do not already exist, and returns a
// ready-to-use *SQLite.
func New(cfg *config.Config) (*SQLite, error) {
	return Open(cfg.StoragePath)
}

// Open is New without the config dependency; tests pass ":memory:".
func Open(path string) (*SQLite, error) {
	inMemory := strings.Contains(path, ":memory:")

	// SQLite creates the file but not its directory.
	if !inMemory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// Every connection to ":memory:" is a brand-new, empty database.
	// Pin the pool to one connection so all queries see the same data.
	if inMemory {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create tables: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// ─────────────────────────────────────────────────────────────────────────────
// Initialise drops and recreates both tables inside one transaction.
//
// DROP (rather than DELETE FROM) also clears the AUTOINCREMENT counters
// kept in sqlite_sequence, so ids start from 1 again.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) Initialise() error {
	tx, err := s.Db.Begin()
	if err != nil {
		return fmt.Errorf("Initialise: begin: %w", err)
	}
	defer tx.Rollback() // no-op after a successful Commit

	if _, err := tx.Exec("DROP TABLE IF EXISTS tickets; DROP TABLE IF EXISTS students;"); err != nil {
		return fmt.Errorf("Initialise: drop tables: %w", err)
	}
	if _, err := tx.Exec(schema); err != nil {
		return fmt.Errorf("Initialise: create tables: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Initialise: commit: %w", err)
	}
	return nil
}

// ═════════════════════════════════════════════════════════════════════════════
// STUDENTS
// ═════════════════════════════════════════════════════════════════════════════

// CreateStudent inserts a new row into the students table.
// Prepared statements keep user input out of the SQL text.
func (s *SQLite) CreateStudent(student types.Student) (int64, error) {
	stmt, err := s.Db.Prepare(
		"INSERT INTO students (name, course, email, age, grade) VALUES (?, ?, ?, ?, ?)",
	)
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.Exec(student.Name, student.Course, student.Email, student.Age, student.Grade)
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateStudent: last insert id: %w", err)
	}

	return lastID, nil
}

// GetStudentByID fetches exactly one student row matched by primary key.
func (s *SQLite) GetStudentByID(id int64) (types.Student, error) {
	student, err := s.getStudentWhere("id = ?", id)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByID %d: %w", id, err)
	}
	return student, nil
}

// GetStudentByEmail fetches the student with exactly this email.
// SQLite's default BINARY collation makes the comparison case-sensitive.
func (s *SQLite) GetStudentByEmail(email string) (types.Student, error) {
	student, err := s.getStudentWhere("email = ?", email)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByEmail %q: %w", email, err)
	}
	return student, nil
}

// getStudentWhere runs a single-row SELECT with the given WHERE clause.
// The clause is always a constant from this file, never user input.
func (s *SQLite) getStudentWhere(where string, arg any) (types.Student, error) {
	stmt, err := s.Db.Prepare(
		"SELECT id, name, course, email, age, grade FROM students WHERE " + where + " LIMIT 1",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	var student types.Student
	err = stmt.QueryRow(arg).Scan(
		&student.ID,
		&student.Name,
		&student.Course,
		&student.Email,
		&student.Age,
		&student.Grade,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Translate the driver-level sentinel into ours so callers
			// never need to import database/sql.
			return types.Student{}, storage.ErrNotFound
		}
		return types.Student{}, fmt.Errorf("scan: %w", err)
	}

	return student, nil
}

// GetStudents returns all student rows as a slice, ordered by id.
func (s *SQLite) GetStudents() ([]types.Student, error) {
	rows, err := s.Db.Query(
		"SELECT id, name, course, email, age, grade FROM students ORDER BY id",
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	// Pre-allocate an empty (non-nil) slice so JSON encodes [] not null.
	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student
		if err := rows.Scan(
			&student.ID,
			&student.Name,
			&student.Course,
			&student.Email,
			&student.Age,
			&student.Grade,
		); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}
		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudentByID replaces a student's data with the provided values
// and returns the row as stored.
func (s *SQLite) UpdateStudentByID(id int64, student types.Student) (types.Student, error) {
	result, err := s.Db.Exec(
		"UPDATE students SET name = ?, course = ?, email = ?, age = ?, grade = ? WHERE id = ?",
		student.Name, student.Course, student.Email, student.Age, student.Grade, id,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID: exec: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return types.Student{}, fmt.Errorf("UpdateStudentByID %d: %w", id, err)
	}

	return s.GetStudentByID(id)
}

// DeleteStudentByID removes a student row by primary key.
func (s *SQLite) DeleteStudentByID(id int64) error {
	result, err := s.Db.Exec("DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteStudentByID: exec: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("DeleteStudentByID %d: %w", id, err)
	}
	return nil
}

// ═════════════════════════════════════════════════════════════════════════════
// TICKETS
// ═════════════════════════════════════════════════════════════════════════════

const ticketColumns = "id, student_id, description, active"

// CreateTicket inserts a ticket row. Booleans are stored as 0/1.
func (s *SQLite) CreateTicket(ticket types.Ticket) (int64, error) {
	result, err := s.Db.Exec(
		"INSERT INTO tickets (student_id, description, active) VALUES (?, ?, ?)",
		ticket.StudentID, ticket.Description, ticket.Active,
	)
	if err != nil {
		return 0, fmt.Errorf("CreateTicket: exec: %w", err)
	}

	lastID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("CreateTicket: last insert id: %w", err)
	}
	return lastID, nil
}

// GetTicketByID fetches one ticket by primary key.
func (s *SQLite) GetTicketByID(id int64) (types.Ticket, error) {
	var ticket types.Ticket
	err := s.Db.QueryRow(
		"SELECT "+ticketColumns+" FROM tickets WHERE id = ? LIMIT 1", id,
	).Scan(&ticket.ID, &ticket.StudentID, &ticket.Description, &ticket.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Ticket{}, fmt.Errorf("GetTicketByID %d: %w", id, storage.ErrNotFound)
		}
		return types.Ticket{}, fmt.Errorf("GetTicketByID: scan: %w", err)
	}
	return ticket, nil
}

// GetTicketsByStudentID returns the tickets owned by one student.
func (s *SQLite) GetTicketsByStudentID(studentID int64) ([]types.Ticket, error) {
	return s.queryTickets("GetTicketsByStudentID",
		"SELECT "+ticketColumns+" FROM tickets WHERE student_id = ? ORDER BY id", studentID)
}

// GetOpenTickets returns every active ticket across all students.
func (s *SQLite) GetOpenTickets() ([]types.Ticket, error) {
	return s.queryTickets("GetOpenTickets",
		"SELECT "+ticketColumns+" FROM tickets WHERE active = 1 ORDER BY id")
}

func (s *SQLite) queryTickets(op, query string, args ...any) ([]types.Ticket, error) {
	rows, err := s.Db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: query: %w", op, err)
	}
	defer rows.Close()

	tickets := make([]types.Ticket, 0)
	for rows.Next() {
		var ticket types.Ticket
		if err := rows.Scan(&ticket.ID, &ticket.StudentID, &ticket.Description, &ticket.Active); err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration: %w", op, err)
	}
	return tickets, nil
}

// UpdateTicketByID replaces a ticket's fields and returns the stored row.
func (s *SQLite) UpdateTicketByID(id int64, ticket types.Ticket) (types.Ticket, error) {
	result, err := s.Db.Exec(
		"UPDATE tickets SET student_id = ?, description = ?, active = ? WHERE id = ?",
		ticket.StudentID, ticket.Description, ticket.Active, id,
	)
	if err != nil {
		return types.Ticket{}, fmt.Errorf("UpdateTicketByID: exec: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return types.Ticket{}, fmt.Errorf("UpdateTicketByID %d: %w", id, err)
	}
	return s.GetTicketByID(id)
}

// DeleteTicketByID removes one ticket row.
func (s *SQLite) DeleteTicketByID(id int64) error {
	result, err := s.Db.Exec("DELETE FROM tickets WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("DeleteTicketByID: exec: %w", err)
	}
	if err := requireAffected(result); err != nil {
		return fmt.Errorf("DeleteTicketByID %d: %w", id, err)
	}
	return nil
}

// DeleteTicketsByStudentID removes all tickets of one student.
// Zero rows affected is not an error here: a student may have no tickets.
func (s *SQLite) DeleteTicketsByStudentID(studentID int64) (int64, error) {
	result, err := s.Db.Exec("DELETE FROM tickets WHERE student_id = ?", studentID)
	if err != nil {
		return 0, fmt.Errorf("DeleteTicketsByStudentID: exec: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DeleteTicketsByStudentID: rows affected: %w", err)
	}
	return n, nil
}

// requireAffected turns "0 rows affected" into storage.ErrNotFound.
// Without this check an UPDATE or DELETE on a missing id would silently
// succeed.
func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Compile-time check that *SQLite satisfies storage.Storage.
var _ storage.Storage = (*SQLite)(nil)
