package router

import (
	"sync"

	"github.com/shvkateryna/internship/plugin/ai/session"
)

// MockRouterService is a mock implementation of RouterService for testing.
// Without DecideFunc it falls back to the default rules.
type MockRouterService struct {
	DecideFunc func(input string, history []session.Message) Decision

	mu       sync.Mutex
	inputs   []string
	fallback *Service
}

// NewMockRouterService creates a new MockRouterService.
func NewMockRouterService() *MockRouterService {
	s, _ := NewService(nil)
	return &MockRouterService{fallback: s}
}

// Decide records the input and returns the configured decision.
func (m *MockRouterService) Decide(input string, history []session.Message) Decision {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()

	if m.DecideFunc != nil {
		return m.DecideFunc(input, history)
	}
	return m.fallback.Decide(input, history)
}

// Inputs returns every input seen so far.
func (m *MockRouterService) Inputs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.inputs...)
}

var _ RouterService = (*MockRouterService)(nil)
