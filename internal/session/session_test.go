package session_test

import (
	"bitwise74/unmask-api/db"
	"bitwise74/unmask-api/internal/session"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Login(t *testing.T) {
	s := session.New()
	s.SetPending(session.VerificationOf("jane@x.com"))
	s.Saved()

	s.Login("u1")

	assert.True(t, s.Authenticated())
	assert.Equal(t, session.PendingNone, s.Pending.Kind)
	assert.True(t, s.Dirty())
	assert.True(t, s.NeedsRenew())
}

func TestSession_PendingIsExclusive(t *testing.T) {
	s := session.New()

	s.SetPending(session.ResetOf("a@x.com"))
	s.SetPending(session.EmailChangeOf("u1", "b@x.com"))

	assert.Equal(t, session.PendingEmailChange, s.Pending.Kind)
	assert.Empty(t, s.Pending.Email)
	assert.Equal(t, "b@x.com", s.Pending.NewEmail)
}

func TestSession_Clear(t *testing.T) {
	s := session.New()
	s.Login("u1")
	s.GuestID = "g1"
	s.GuestCount = 2

	s.Clear()

	assert.False(t, s.Authenticated())
	assert.Empty(t, s.GuestID)
	assert.Zero(t, s.GuestCount)
}

func storeContract(t *testing.T, store session.Store) {
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, session.ErrNotFound)

	s := session.New()
	s.ID = "abc"
	s.GuestID = "g1"
	s.GuestCount = 1
	s.SetPending(session.EmailChangeOf("u1", "b@x.com"))
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", got.ID)
	assert.Equal(t, "g1", got.GuestID)
	assert.Equal(t, 1, got.GuestCount)
	assert.Equal(t, s.Pending, got.Pending)
	assert.False(t, got.Dirty())

	// Saving again overwrites
	got.Login("u1")
	require.NoError(t, store.Save(ctx, got))

	got, err = store.Load(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, session.PendingNone, got.Pending.Kind)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Load(ctx, "abc")
	assert.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.Delete(ctx, "abc"))
}

func TestDBStore(t *testing.T) {
	storeContract(t, session.NewDBStore(db.NewTest(t), time.Hour))
}

func TestDBStore_Expired(t *testing.T) {
	d := db.NewTest(t)
	store := session.NewDBStore(d, time.Millisecond)
	ctx := context.Background()

	s := session.New()
	s.ID = "old"
	require.NoError(t, store.Save(ctx, s))

	time.Sleep(10 * time.Millisecond)

	_, err := store.Load(ctx, "old")
	assert.ErrorIs(t, err, session.ErrNotFound)

	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestMemoryStore(t *testing.T) {
	store := session.NewMemoryStore(time.Hour)
	t.Cleanup(func() { store.Close() })

	storeContract(t, store)
}
