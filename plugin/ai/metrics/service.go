package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultRetention is how long hourly buckets are kept.
const DefaultRetention = 24 * time.Hour

// Service implements MetricsService on an in-memory Aggregator and prunes
// buckets older than the retention window in the background.
type Service struct {
	aggregator *Aggregator
	retention  time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewService creates a metrics service and starts its pruning loop.
func NewService(retention time.Duration) *Service {
	if retention <= 0 {
		retention = DefaultRetention
	}
	s := &Service{
		aggregator: NewAggregator(),
		retention:  retention,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	go s.pruneLoop()
	return s
}

// Close stops the pruning loop.
func (s *Service) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
		<-s.done
	})
}

// RecordRequest records a routed turn.
func (s *Service) RecordRequest(_ context.Context, route string, latency time.Duration, success bool) {
	s.aggregator.RecordRequest(route, latency, success)
}

// RecordToolCall records a tool call metric.
func (s *Service) RecordToolCall(_ context.Context, toolName string, latency time.Duration, success bool) {
	s.aggregator.RecordToolCall(toolName, latency, success)
}

// RecordError counts an error by kind.
func (s *Service) RecordError(_ context.Context, kind string) {
	s.aggregator.RecordError(kind)
}

// GetStats retrieves aggregated statistics for the given time range.
func (s *Service) GetStats(_ context.Context, timeRange TimeRange) (*AgentMetrics, error) {
	return s.aggregator.Stats(timeRange), nil
}

func (s *Service) pruneLoop() {
	defer close(s.done)

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			if n := s.aggregator.Prune(now.Add(-s.retention)); n > 0 {
				slog.Debug("pruned metrics buckets", slog.Int("count", n))
			}
		}
	}
}

var _ MetricsService = (*Service)(nil)
