// Package storagetest holds a conformance suite every storage.Storage
// backend must pass. Backend packages call Run from their own tests.
package storagetest

import (
	"testing"

	"github.com/aanand-mishra/student-records/internal/storage"
	"github.com/aanand-mishra/student-records/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises store. newStore must return a fresh, empty backend.
func Run(t *testing.T, newStore func(t *testing.T) storage.Storage) {
	t.Run("StudentRoundTrip", func(t *testing.T) { testStudentRoundTrip(t, newStore(t)) })
	t.Run("StudentByEmail", func(t *testing.T) { testStudentByEmail(t, newStore(t)) })
	t.Run("StudentUpdateDelete", func(t *testing.T) { testStudentUpdateDelete(t, newStore(t)) })
	t.Run("TicketLifecycle", func(t *testing.T) { testTicketLifecycle(t, newStore(t)) })
	t.Run("TicketsByStudent", func(t *testing.T) { testTicketsByStudent(t, newStore(t)) })
	t.Run("Initialise", func(t *testing.T) { testInitialise(t, newStore(t)) })
}

func sample() types.Student {
	return types.Student{Name: "XXX", Course: "Computing", Email: "xxx@email.com", Age: 20, Grade: 70}
}

func testStudentRoundTrip(t *testing.T, store storage.Storage) {
	students, err := store.GetStudents()
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)

	id, err := store.CreateStudent(sample())
	require.NoError(t, err)
	assert.NotZero(t, id)

	got, err := store.GetStudentByID(id)
	require.NoError(t, err)
	want := sample()
	want.ID = id
	assert.Equal(t, want, got)

	_, err = store.GetStudentByID(id + 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testStudentByEmail(t *testing.T, store storage.Storage) {
	id, err := store.CreateStudent(sample())
	require.NoError(t, err)

	got, err := store.GetStudentByEmail("xxx@email.com")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)

	_, err = store.GetStudentByEmail("Xxx@email.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testStudentUpdateDelete(t *testing.T, store storage.Storage) {
	id, err := store.CreateStudent(sample())
	require.NoError(t, err)

	updated, err := store.UpdateStudentByID(id, types.Student{
		Name: "New", Course: "Maths", Email: "new@email.com", Age: 30, Grade: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, id, updated.ID)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, "Maths", updated.Course)
	assert.Equal(t, 1, updated.Grade)

	_, err = store.UpdateStudentByID(id+100, sample())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.DeleteStudentByID(id))
	assert.ErrorIs(t, store.DeleteStudentByID(id), storage.ErrNotFound)

	_, err = store.GetStudentByID(id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testTicketLifecycle(t *testing.T, store storage.Storage) {
	sid, err := store.CreateStudent(sample())
	require.NoError(t, err)

	tid, err := store.CreateTicket(types.Ticket{StudentID: sid, Description: "Issue", Active: true})
	require.NoError(t, err)

	got, err := store.GetTicketByID(tid)
	require.NoError(t, err)
	assert.Equal(t, types.Ticket{ID: tid, StudentID: sid, Description: "Issue", Active: true}, got)

	open, err := store.GetOpenTickets()
	require.NoError(t, err)
	assert.Len(t, open, 1)

	got.Active = false
	closed, err := store.UpdateTicketByID(tid, got)
	require.NoError(t, err)
	assert.False(t, closed.Active)

	open, err = store.GetOpenTickets()
	require.NoError(t, err)
	assert.Empty(t, open)

	_, err = store.UpdateTicketByID(tid+1, got)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.DeleteTicketByID(tid))
	assert.ErrorIs(t, store.DeleteTicketByID(tid), storage.ErrNotFound)
	_, err = store.GetTicketByID(tid)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testTicketsByStudent(t *testing.T, store storage.Storage) {
	a, err := store.CreateStudent(sample())
	require.NoError(t, err)
	other := sample()
	other.Email = "yyy@email.com"
	b, err := store.CreateStudent(other)
	require.NoError(t, err)

	for _, sid := range []int64{a, a, b} {
		_, err := store.CreateTicket(types.Ticket{StudentID: sid, Description: "d", Active: true})
		require.NoError(t, err)
	}

	ofA, err := store.GetTicketsByStudentID(a)
	require.NoError(t, err)
	assert.Len(t, ofA, 2)

	none, err := store.GetTicketsByStudentID(b + 100)
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := store.DeleteTicketsByStudentID(a)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = store.DeleteTicketsByStudentID(a)
	require.NoError(t, err)
	assert.Zero(t, n)

	ofB, err := store.GetTicketsByStudentID(b)
	require.NoError(t, err)
	assert.Len(t, ofB, 1)
}

func testInitialise(t *testing.T, store storage.Storage) {
	sid, err := store.CreateStudent(sample())
	require.NoError(t, err)
	_, err = store.CreateTicket(types.Ticket{StudentID: sid, Description: "d", Active: true})
	require.NoError(t, err)

	require.NoError(t, store.Initialise())
	require.NoError(t, store.Initialise())

	students, err := store.GetStudents()
	require.NoError(t, err)
	assert.Empty(t, students)
	open, err := store.GetOpenTickets()
	require.NoError(t, err)
	assert.Empty(t, open)

	// Ids restart after a reset.
	again, err := store.CreateStudent(sample())
	require.NoError(t, err)
	assert.Equal(t, int64(1), again)
}
