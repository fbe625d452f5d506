package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shvkateryna/internship/internal/profile"
	"github.com/shvkateryna/internship/store"
	"github.com/shvkateryna/internship/store/db/sqlite"
)

func newSQLiteStore(t *testing.T) *store.Store {
	t.Helper()
	return openSQLiteStore(t, filepath.Join(t.TempDir(), "sessions.db"))
}

func openSQLiteStore(t *testing.T, dsn string) *store.Store {
	t.Helper()
	p := &profile.Profile{
		Mode:   "dev",
		Driver: "sqlite",
		DSN:    dsn,
	}
	driver, err := sqlite.NewDB(p)
	require.NoError(t, err)

	s := store.New(driver, p)
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLStore(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteStore(t)
	t.Cleanup(func() { _ = db.Close() })
	s := NewSQLStore(db, time.Minute)

	require.NoError(t, s.Append(ctx, "s1", UserMessage("hi"), AssistantMessage("hello")))
	msgs, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:hi", "assistant:hello"}, contents(msgs))

	require.NoError(t, s.Append(ctx, "s1", UserMessage("again")))
	msgs, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:hi", "assistant:hello", "user:again"}, contents(msgs))

	require.NoError(t, s.Clear(ctx, "s1"))
	msgs, err = s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSQLStore_ReplicasShareState(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "shared.db")
	dbA := openSQLiteStore(t, dsn)
	t.Cleanup(func() { _ = dbA.Close() })
	dbB := openSQLiteStore(t, dsn)
	t.Cleanup(func() { _ = dbB.Close() })

	a := NewSQLStore(dbA, time.Minute)
	b := NewSQLStore(dbB, time.Minute)

	require.NoError(t, a.Append(ctx, "s1", UserMessage("one"), AssistantMessage("two")))
	msgs, err := b.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"user:one", "assistant:two"}, contents(msgs))

	require.NoError(t, a.Append(ctx, "s1", UserMessage("three"), AssistantMessage("four")))
	msgs, err = b.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, msgs, 4, "appends from another replica are visible at once")

	require.NoError(t, b.Append(ctx, "s1", UserMessage("five"), AssistantMessage("six")))
	msgs, err = a.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"user:one", "assistant:two", "user:three", "assistant:four", "user:five", "assistant:six",
	}, contents(msgs))

	require.NoError(t, a.Clear(ctx, "s1"))
	msgs, err = b.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs, "clear on one replica is immediate on the other")
}

func TestSQLStore_TTL(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteStore(t)
	t.Cleanup(func() { _ = db.Close() })

	clock := newFakeClock()
	s := NewSQLStore(db, time.Minute)
	s.now = clock.Now

	require.NoError(t, s.Append(ctx, "s1", UserMessage("hi")))
	clock.Advance(2 * time.Minute)

	msgs, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	deleted, err := s.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestSQLStore_BackendFailure(t *testing.T) {
	ctx := context.Background()
	db := newSQLiteStore(t)
	s := NewSQLStore(db, time.Minute)
	require.NoError(t, db.Close())

	err := s.Append(ctx, "s1", UserMessage("hi"))
	var se *SessionStoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "append", se.Op)
	assert.Equal(t, "s1", se.SessionID)

	_, err = s.Load(ctx, "s1")
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "load", se.Op)
}
