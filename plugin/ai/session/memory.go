package session

import (
	"context"
	"time"

	"github.com/shvkateryna/internship/plugin/ai/cache"
)

const (
	// DefaultTTL is the session expiry when none is configured.
	DefaultTTL = 200 * time.Second
	// DefaultMaxSessions bounds the in-memory store; the least recently used
	// session is evicted first.
	DefaultMaxSessions = 10000
)

// MemoryStore keeps histories in a TTL LRU. Expiry is checked on read and
// swept by CleanupExpired.
type MemoryStore struct {
	lru   *cache.LRUCache[[]Message]
	ttl   time.Duration
	now   func() time.Time
	locks shardedMutex
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces the time source.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(ttl time.Duration, maxSessions int, opts ...MemoryOption) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	s := &MemoryStore{
		lru: cache.NewLRUCache[[]Message](maxSessions, ttl),
		ttl: ttl,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lru.SetClock(s.now)
	return s
}

func (s *MemoryStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	if sessionID == "" {
		return &SessionStoreError{Op: "append", Err: ErrEmptySessionID}
	}
	if len(msgs) == 0 {
		return nil
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	cur, _ := s.lru.Get(sessionID)
	// Stored slices are never mutated; each write publishes a new one.
	next := make([]Message, 0, len(cur)+len(msgs))
	next = append(next, cur...)
	now := s.now()
	for _, m := range msgs {
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		next = append(next, m)
	}
	s.lru.Set(sessionID, next, s.ttl)
	return nil
}

func (s *MemoryStore) Load(_ context.Context, sessionID string) ([]Message, error) {
	if sessionID == "" {
		return nil, &SessionStoreError{Op: "load", Err: ErrEmptySessionID}
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	cur, ok := s.lru.Get(sessionID)
	if !ok {
		return []Message{}, nil
	}
	out := make([]Message, len(cur))
	copy(out, cur)
	return out, nil
}

func (s *MemoryStore) Clear(_ context.Context, sessionID string) error {
	if sessionID == "" {
		return &SessionStoreError{Op: "clear", Err: ErrEmptySessionID}
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	s.lru.Delete(sessionID)
	return nil
}

// CleanupExpired drops every expired session.
func (s *MemoryStore) CleanupExpired(_ context.Context) (int64, error) {
	return int64(s.lru.CleanupExpired()), nil
}

// Len returns the number of sessions held, including expired ones not yet swept.
func (s *MemoryStore) Len() int {
	return s.lru.Size()
}

var (
	_ Store   = (*MemoryStore)(nil)
	_ Expirer = (*MemoryStore)(nil)
)
