package session

import (
	"context"
	"time"

	"github.com/shvkateryna/internship/store"
)

// SQLStore persists histories through a store driver (sqlite or postgres).
// Every read goes to the database, so replicas sharing it see each other's
// appends and clears at once.
type SQLStore struct {
	store *store.Store
	ttl   time.Duration
	now   func() time.Time
	locks shardedMutex
}

// NewSQLStore creates a database backed store.
func NewSQLStore(s *store.Store, ttl time.Duration) *SQLStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &SQLStore{
		store: s,
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *SQLStore) Append(ctx context.Context, sessionID string, msgs ...Message) error {
	if sessionID == "" {
		return &SessionStoreError{Op: "append", Err: ErrEmptySessionID}
	}
	if len(msgs) == 0 {
		return nil
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	now := s.now()
	rows := make([]*store.SessionMessage, len(msgs))
	for i, m := range msgs {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		rows[i] = &store.SessionMessage{
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedTs: m.CreatedAt.UnixMilli(),
		}
	}

	err := s.store.AppendSessionMessages(ctx, &store.AppendSessionMessages{
		SessionID: sessionID,
		Messages:  rows,
		NowTs:     now.UnixMilli(),
		ExpiresTs: now.Add(s.ttl).UnixMilli(),
	})
	if err != nil {
		return &SessionStoreError{Op: "append", SessionID: sessionID, Err: err}
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context, sessionID string) ([]Message, error) {
	if sessionID == "" {
		return nil, &SessionStoreError{Op: "load", Err: ErrEmptySessionID}
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	rows, err := s.store.ListSessionMessages(ctx, &store.FindSessionMessage{
		SessionID: sessionID,
		NowTs:     s.now().UnixMilli(),
	})
	if err != nil {
		return nil, &SessionStoreError{Op: "load", SessionID: sessionID, Err: err}
	}

	out := make([]Message, len(rows))
	for i, r := range rows {
		out[i] = Message{
			Role:      Role(r.Role),
			Content:   r.Content,
			CreatedAt: time.UnixMilli(r.CreatedTs),
		}
	}
	return out, nil
}

func (s *SQLStore) Clear(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return &SessionStoreError{Op: "clear", Err: ErrEmptySessionID}
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	if err := s.store.DeleteSession(ctx, &store.DeleteSession{SessionID: sessionID}); err != nil {
		return &SessionStoreError{Op: "clear", SessionID: sessionID, Err: err}
	}
	return nil
}

// CleanupExpired deletes expired sessions from the database.
func (s *SQLStore) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteExpiredSessions(ctx, s.now().UnixMilli())
	if err != nil {
		return 0, &SessionStoreError{Op: "cleanup", Err: err}
	}
	return deleted, nil
}

var (
	_ Store   = (*SQLStore)(nil)
	_ Expirer = (*SQLStore)(nil)
)
