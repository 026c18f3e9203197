package quota

import (
	"bitwise74/unmask-api/internal/session"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_Identity(t *testing.T) {
	q := New(0)
	s := session.New()

	id := q.Identity(s)
	require.NotEmpty(t, id)
	assert.True(t, s.Dirty())
	assert.Equal(t, id, q.Identity(s))
}

func TestTracker_GuestLimit(t *testing.T) {
	q := New(DefaultLimit)
	s := session.New()
	q.Identity(s)

	for i := 0; i < 2; i++ {
		require.NoError(t, q.Check(s), "classification %d", i+1)
		q.Record(s)
	}

	assert.ErrorIs(t, q.Check(s), ErrExceeded)
	assert.Equal(t, 0, q.Remaining(s))
}

func TestTracker_FailedAttemptsDontCount(t *testing.T) {
	q := New(DefaultLimit)
	s := session.New()

	// Checks without a Record are failed classifications
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check(s))
	}

	assert.Equal(t, 2, q.Remaining(s))
	assert.Equal(t, 0, s.GuestCount)
}

func TestTracker_AuthenticatedUnlimited(t *testing.T) {
	q := New(DefaultLimit)
	s := session.New()
	s.Login("user1")

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Check(s))
		q.Record(s)
	}

	assert.Equal(t, 0, s.GuestCount)
	assert.Equal(t, -1, q.Remaining(s))
}

func TestTracker_Reset(t *testing.T) {
	q := New(DefaultLimit)
	s := session.New()
	q.Identity(s)
	q.Record(s)
	q.Record(s)

	q.Reset(s)

	assert.Empty(t, s.GuestID)
	assert.Equal(t, 0, s.GuestCount)
	assert.NoError(t, q.Check(s))
}
