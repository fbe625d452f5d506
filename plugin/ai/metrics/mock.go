package metrics

import (
	"context"
	"sync"
	"time"
)

// MockMetricsService records calls for assertions in tests.
type MockMetricsService struct {
	mu        sync.RWMutex
	requests  []Record
	toolCalls []Record
	errors    map[string]int64
}

// Record is one recorded request or tool call.
type Record struct {
	Name    string
	Latency time.Duration
	Success bool
}

// NewMockMetricsService creates a new MockMetricsService.
func NewMockMetricsService() *MockMetricsService {
	return &MockMetricsService{errors: make(map[string]int64)}
}

func (m *MockMetricsService) RecordRequest(_ context.Context, route string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, Record{Name: route, Latency: latency, Success: success})
}

func (m *MockMetricsService) RecordToolCall(_ context.Context, toolName string, latency time.Duration, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls = append(m.toolCalls, Record{Name: toolName, Latency: latency, Success: success})
}

func (m *MockMetricsService) RecordError(_ context.Context, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

// GetStats returns counts only; latencies are not aggregated.
func (m *MockMetricsService) GetStats(_ context.Context, _ TimeRange) (*AgentMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := &AgentMetrics{
		RouteStats:   make(map[string]*RouteStat),
		ToolStats:    make(map[string]*ToolStat),
		ErrorsByType: make(map[string]int64, len(m.errors)),
	}
	for _, r := range m.requests {
		stats.RequestCount++
		if r.Success {
			stats.SuccessCount++
		}
	}
	for k, v := range m.errors {
		stats.ErrorsByType[k] = v
	}
	return stats, nil
}

// Requests returns a copy of the recorded turns.
func (m *MockMetricsService) Requests() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.requests...)
}

// ToolCalls returns a copy of the recorded tool calls.
func (m *MockMetricsService) ToolCalls() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.toolCalls...)
}

// Errors returns the count recorded for kind.
func (m *MockMetricsService) Errors(kind string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.errors[kind]
}

var _ MetricsService = (*MockMetricsService)(nil)
