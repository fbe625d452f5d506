// Package metrics aggregates per-route turn and per-tool call statistics in
// memory.
package metrics

import (
	"context"
	"time"
)

// MetricsService defines the metrics service interface.
type MetricsService interface {
	// RecordRequest records one routed turn.
	RecordRequest(ctx context.Context, route string, latency time.Duration, success bool)

	// RecordToolCall records one tool invocation.
	RecordToolCall(ctx context.Context, toolName string, latency time.Duration, success bool)

	// RecordError counts an error by kind (tool_failure, store_failure, ...).
	RecordError(ctx context.Context, kind string)

	// GetStats returns the statistics recorded within timeRange.
	GetStats(ctx context.Context, timeRange TimeRange) (*AgentMetrics, error)
}

// TimeRange represents a time range for querying metrics. Zero bounds are open.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AgentMetrics represents aggregated metrics.
type AgentMetrics struct {
	RequestCount int64                 `json:"request_count"`
	SuccessCount int64                 `json:"success_count"`
	LatencyP50   time.Duration         `json:"latency_p50"`
	LatencyP95   time.Duration         `json:"latency_p95"`
	RouteStats   map[string]*RouteStat `json:"route_stats"`
	ToolStats    map[string]*ToolStat  `json:"tool_stats"`
	ErrorsByType map[string]int64      `json:"errors_by_type"`
}

// RouteStat represents statistics for a single routing rule.
type RouteStat struct {
	Count       int64         `json:"count"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}

// ToolStat represents statistics for a single tool.
type ToolStat struct {
	Calls       int64         `json:"calls"`
	SuccessRate float32       `json:"success_rate"`
	AvgLatency  time.Duration `json:"avg_latency"`
}
