package session

import (
	"context"
	"sync"
)

// MockStore is an in-memory Store with injectable failures, for tests.
type MockStore struct {
	mu       sync.Mutex
	sessions map[string][]Message
	appends  int

	// LoadErr, AppendErr and ClearErr are returned by the matching method
	// wrapped in a *SessionStoreError.
	LoadErr   error
	AppendErr error
	ClearErr  error
}

// NewMockStore creates an empty MockStore.
func NewMockStore() *MockStore {
	return &MockStore{sessions: make(map[string][]Message)}
}

func (m *MockStore) Append(_ context.Context, sessionID string, msgs ...Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.AppendErr != nil {
		return &SessionStoreError{Op: "append", SessionID: sessionID, Err: m.AppendErr}
	}
	m.appends++
	m.sessions[sessionID] = append(m.sessions[sessionID], msgs...)
	return nil
}

func (m *MockStore) Load(_ context.Context, sessionID string) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LoadErr != nil {
		return nil, &SessionStoreError{Op: "load", SessionID: sessionID, Err: m.LoadErr}
	}
	out := make([]Message, len(m.sessions[sessionID]))
	copy(out, m.sessions[sessionID])
	return out, nil
}

func (m *MockStore) Clear(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ClearErr != nil {
		return &SessionStoreError{Op: "clear", SessionID: sessionID, Err: m.ClearErr}
	}
	delete(m.sessions, sessionID)
	return nil
}

// AppendCalls returns how many Append calls succeeded.
func (m *MockStore) AppendCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appends
}

// SetFailures replaces the injected errors under the store lock.
func (m *MockStore) SetFailures(load, appendErr error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadErr = load
	m.AppendErr = appendErr
}

var _ Store = (*MockStore)(nil)
