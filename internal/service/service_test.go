package service

import (
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/aanand-mishra/student-records/internal/metrics"
	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/storage/memory"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestService(t *testing.T) *StudentService {
	t.Helper()
	svc := New(memory.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, svc.Initialise())
	return svc
}

func xxx() types.Student {
	return types.Student{Name: "XXX", Course: "Computing", Email: "xxx@email.com", Age: 20, Grade: 0}
}

func yyy() types.Student {
	return types.Student{Name: "YYY", Course: "Engineering", Email: "yyy@email.com", Age: 23, Grade: 0}
}

// ─── GetStudents ─────────────────────────────────────────────────────────────

func TestStudentService_GetStudents_WhenNoneExist(t *testing.T) {
	svc := setupTestService(t)

	students, err := svc.GetStudents()

	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestStudentService_GetStudents_WithTwoAdded(t *testing.T) {
	svc := setupTestService(t)
	_, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	_, err = svc.AddStudent(yyy())
	require.NoError(t, err)

	students, err := svc.GetStudents()

	require.NoError(t, err)
	assert.Len(t, students, 2)
}

// ─── GetStudent / GetStudentByEmail ──────────────────────────────────────────

func TestStudentService_GetStudent_WhenNoneExist(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.GetStudent(1)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStudentService_GetStudent_WhenAdded(t *testing.T) {
	svc := setupTestService(t)
	added, err := svc.AddStudent(xxx())
	require.NoError(t, err)

	got, err := svc.GetStudent(added.ID)

	require.NoError(t, err)
	assert.Equal(t, added.ID, got.ID)
	assert.Equal(t, "XXX", got.Name)
	assert.Equal(t, "Computing", got.Course)
	assert.Equal(t, "xxx@email.com", got.Email)
	assert.Equal(t, 20, got.Age)
	assert.Equal(t, 0, got.Grade)
	assert.Empty(t, got.Tickets)
}

func TestStudentService_GetStudent_IncludesTickets(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	ticket, err := svc.CreateTicket(s.ID, "Issue 1")
	require.NoError(t, err)

	got, err := svc.GetStudent(s.ID)

	require.NoError(t, err)
	require.Len(t, got.Tickets, 1)
	assert.Equal(t, ticket.ID, got.Tickets[0].ID)
}

func TestStudentService_GetStudentByEmail(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)

	got, err := svc.GetStudentByEmail("xxx@email.com")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)

	_, err = svc.GetStudentByEmail("XXX@email.com")
	assert.ErrorIs(t, err, ErrNotFound, "email match is exact")
}

// ─── AddStudent ──────────────────────────────────────────────────────────────

func TestStudentService_AddStudent_AssignsDistinctIDs(t *testing.T) {
	svc := setupTestService(t)

	a, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	b, err := svc.AddStudent(yyy())
	require.NoError(t, err)

	assert.NotZero(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestStudentService_AddStudent_IgnoresCallerID(t *testing.T) {
	svc := setupTestService(t)
	candidate := xxx()
	candidate.ID = 99

	added, err := svc.AddStudent(candidate)

	require.NoError(t, err)
	assert.NotEqual(t, int64(99), added.ID)
	_, err = svc.GetStudent(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStudentService_AddStudent_DuplicateEmail(t *testing.T) {
	svc := setupTestService(t)
	_, err := svc.AddStudent(xxx())
	require.NoError(t, err)

	dup := yyy()
	dup.Email = "xxx@email.com"
	_, err = svc.AddStudent(dup)

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	students, err := svc.GetStudents()
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestStudentService_AddStudent_GradeBounds(t *testing.T) {
	tests := []struct {
		name  string
		grade int
		ok    bool
	}{
		{"below range", -1, false},
		{"lower bound", 0, true},
		{"upper bound", 100, true},
		{"above range", 101, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := setupTestService(t)
			candidate := xxx()
			candidate.Grade = tt.grade

			_, err := svc.AddStudent(candidate)

			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, "Grade", verrs[0].Field())

			students, err := svc.GetStudents()
			require.NoError(t, err)
			assert.Empty(t, students)
		})
	}
}

// ─── UpdateStudent ───────────────────────────────────────────────────────────

func TestStudentService_UpdateStudent_SetsAllProperties(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)

	u, err := svc.UpdateStudent(types.Student{
		ID: s.ID, Name: "XXX-Updated", Course: "Engineering",
		Email: "xxx-updated@email.com", Age: 21, Grade: 100,
	})
	require.NoError(t, err)

	got, err := svc.GetStudent(s.ID)
	require.NoError(t, err)
	assert.Equal(t, u.Name, got.Name)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Course, got.Course)
	assert.Equal(t, u.Age, got.Age)
	assert.Equal(t, u.Grade, got.Grade)

	// The old email is free again.
	_, err = svc.AddStudent(xxx())
	assert.NoError(t, err)
}

func TestStudentService_UpdateStudent_KeepOwnEmail(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)

	s.Grade = 55
	u, err := svc.UpdateStudent(s)

	require.NoError(t, err)
	assert.Equal(t, 55, u.Grade)
	assert.Equal(t, "xxx@email.com", u.Email)
}

func TestStudentService_UpdateStudent_InvalidGrade(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)

	bad := s
	bad.Name = "changed"
	bad.Grade = 101
	_, err = svc.UpdateStudent(bad)

	assert.ErrorIs(t, err, ErrValidation)
	got, err := svc.GetStudent(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "XXX", got.Name)
	assert.Equal(t, 0, got.Grade)
}

func TestStudentService_UpdateStudent_DuplicateEmail(t *testing.T) {
	svc := setupTestService(t)
	s1, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	s2, err := svc.AddStudent(yyy())
	require.NoError(t, err)

	bad := s2
	bad.Name = "changed"
	bad.Email = s1.Email
	_, err = svc.UpdateStudent(bad)

	assert.ErrorIs(t, err, ErrDuplicateEmail)
	got, err := svc.GetStudent(s2.ID)
	require.NoError(t, err)
	assert.Equal(t, "YYY", got.Name)
	assert.Equal(t, "yyy@email.com", got.Email)
}

func TestStudentService_UpdateStudent_Missing(t *testing.T) {
	svc := setupTestService(t)
	candidate := xxx()
	candidate.ID = 42

	_, err := svc.UpdateStudent(candidate)

	assert.ErrorIs(t, err, ErrNotFound)
}

// ─── DeleteStudent ───────────────────────────────────────────────────────────

func TestStudentService_DeleteStudent_ThatExists(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	other, err := svc.AddStudent(yyy())
	require.NoError(t, err)
	_, err = svc.CreateTicket(s.ID, "mine")
	require.NoError(t, err)
	kept, err := svc.CreateTicket(other.ID, "theirs")
	require.NoError(t, err)

	deleted, err := svc.DeleteStudent(s.ID)

	require.NoError(t, err)
	assert.True(t, deleted)
	_, err = svc.GetStudent(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	open, err := svc.GetOpenTickets()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, kept.ID, open[0].ID)
}

func TestStudentService_DeleteStudent_ThatDoesntExist(t *testing.T) {
	svc := setupTestService(t)
	_, err := svc.AddStudent(xxx())
	require.NoError(t, err)

	deleted, err := svc.DeleteStudent(0)

	require.NoError(t, err)
	assert.False(t, deleted)
	students, err := svc.GetStudents()
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestStudentService_DeleteStudent_RemovesClosedTicketsToo(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	tk, err := svc.CreateTicket(s.ID, "closed one")
	require.NoError(t, err)
	_, err = svc.CloseTicket(tk.ID)
	require.NoError(t, err)

	_, err = svc.DeleteStudent(s.ID)
	require.NoError(t, err)

	_, err = svc.GetTicket(tk.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// ─── Tickets ─────────────────────────────────────────────────────────────────

func TestStudentService_CreateTicket_ForExistingStudent(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)

	tk, err := svc.CreateTicket(s.ID, "Dummy Ticket 1")

	require.NoError(t, err)
	assert.NotZero(t, tk.ID)
	assert.Equal(t, s.ID, tk.StudentID)
	assert.Equal(t, "Dummy Ticket 1", tk.Description)
	assert.True(t, tk.Active)
}

func TestStudentService_CreateTicket_ForMissingStudent(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.CreateTicket(7, "orphan")

	assert.ErrorIs(t, err, ErrInvalidReference)
	open, err := svc.GetOpenTickets()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestStudentService_GetTicket_IncludesStudent(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	tk, err := svc.CreateTicket(s.ID, "Dummy Ticket 1")
	require.NoError(t, err)

	got, err := svc.GetTicket(tk.ID)

	require.NoError(t, err)
	require.NotNil(t, got.Student)
	assert.Equal(t, s.Name, got.Student.Name)
}

func TestStudentService_GetTicket_Missing(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.GetTicket(1)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStudentService_GetOpenTickets_WhenTwoAdded(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	_, err = svc.CreateTicket(s.ID, "Dummy Ticket 1")
	require.NoError(t, err)
	_, err = svc.CreateTicket(s.ID, "Dummy Ticket 2")
	require.NoError(t, err)

	open, err := svc.GetOpenTickets()

	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestStudentService_CloseTicket_WhenOpen(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	tk, err := svc.CreateTicket(s.ID, "Dummy Ticket")
	require.NoError(t, err)

	closed, err := svc.CloseTicket(tk.ID)

	require.NoError(t, err)
	assert.False(t, closed.Active)
	assert.Equal(t, tk.ID, closed.ID)

	got, err := svc.GetTicket(tk.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
}

func TestStudentService_CloseTicket_WhenAlreadyClosed(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	tk, err := svc.CreateTicket(s.ID, "Dummy Ticket")
	require.NoError(t, err)

	_, err = svc.CloseTicket(tk.ID)
	require.NoError(t, err)
	_, err = svc.CloseTicket(tk.ID)

	assert.ErrorIs(t, err, ErrAlreadyClosed)
}

func TestStudentService_CloseTicket_Missing(t *testing.T) {
	svc := setupTestService(t)

	_, err := svc.CloseTicket(3)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStudentService_DeleteTicket(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	tk, err := svc.CreateTicket(s.ID, "Dummy Ticket")
	require.NoError(t, err)

	deleted, err := svc.DeleteTicket(tk.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = svc.GetTicket(tk.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetStudent(s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tickets, "ticket is gone from the owner's view")
}

func TestStudentService_DeleteTicket_WhenNonExistent(t *testing.T) {
	svc := setupTestService(t)

	deleted, err := svc.DeleteTicket(1)

	require.NoError(t, err)
	assert.False(t, deleted)
}

// ─── Lifecycle / end to end ──────────────────────────────────────────────────

func TestStudentService_Initialise_ClearsEverything(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	_, err = svc.CreateTicket(s.ID, "x")
	require.NoError(t, err)

	require.NoError(t, svc.Initialise())
	require.NoError(t, svc.Initialise())

	students, err := svc.GetStudents()
	require.NoError(t, err)
	assert.Empty(t, students)
	open, err := svc.GetOpenTickets()
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestStudentService_EndToEnd(t *testing.T) {
	svc := setupTestService(t)

	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	t1, err := svc.CreateTicket(s.ID, "Issue 1")
	require.NoError(t, err)
	_, err = svc.CreateTicket(s.ID, "Issue 2")
	require.NoError(t, err)

	open, err := svc.GetOpenTickets()
	require.NoError(t, err)
	assert.Len(t, open, 2)

	_, err = svc.CloseTicket(t1.ID)
	require.NoError(t, err)
	open, err = svc.GetOpenTickets()
	require.NoError(t, err)
	assert.Len(t, open, 1)

	deleted, err := svc.DeleteStudent(s.ID)
	require.NoError(t, err)
	require.True(t, deleted)
	open, err = svc.GetOpenTickets()
	require.NoError(t, err)
	assert.Len(t, open, 0)
}

// ─── Concurrency ─────────────────────────────────────────────────────────────

func TestStudentService_AddStudent_ConcurrentSameEmail(t *testing.T) {
	svc := setupTestService(t)

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddStudent(xxx()); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	students, err := svc.GetStudents()
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestStudentService_CloseTicket_ConcurrentCallers(t *testing.T) {
	svc := setupTestService(t)
	s, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	tk, err := svc.CreateTicket(s.ID, "race")
	require.NoError(t, err)

	const workers = 32
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CloseTicket(tk.ID); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

// ─── Metrics ─────────────────────────────────────────────────────────────────

func TestStudentService_RecordsOutcomeMetrics(t *testing.T) {
	svc := setupTestService(t)
	dupBefore := testutil.ToFloat64(metrics.OperationCount("AddStudent", metrics.OutcomeDuplicateEmail))
	okBefore := testutil.ToFloat64(metrics.OperationCount("AddStudent", metrics.OutcomeOK))

	_, err := svc.AddStudent(xxx())
	require.NoError(t, err)
	_, err = svc.AddStudent(xxx())
	require.Error(t, err)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(metrics.OperationCount("AddStudent", metrics.OutcomeOK)))
	assert.Equal(t, dupBefore+1, testutil.ToFloat64(metrics.OperationCount("AddStudent", metrics.OutcomeDuplicateEmail)))
}

// ─── Storage failures ────────────────────────────────────────────────────────

// failingStore fails email lookups and delegates everything else.
type failingStore struct {
	storage.Storage
}

var errBoom = errors.New("boom")

func (failingStore) GetStudentByEmail(string) (types.Student, error) {
	return types.Student{}, errBoom
}

func TestStudentService_AddStudent_StorageFailureIsNotARejection(t *testing.T) {
	svc := New(failingStore{Storage: memory.New()}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.AddStudent(xxx())

	require.ErrorIs(t, err, errBoom)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
	assert.Equal(t, metrics.OutcomeError, outcome(err))
}
