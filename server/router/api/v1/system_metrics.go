package v1

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shvkateryna/internship/plugin/ai/metrics"
)

// MetricsOverviewResponse represents the overview response of assistant metrics.
type MetricsOverviewResponse struct {
	TotalRequests int64                         `json:"total_requests"`
	SuccessRate   float64                       `json:"success_rate"`
	P50LatencyMs  int64                         `json:"p50_latency_ms"`
	P95LatencyMs  int64                         `json:"p95_latency_ms"`
	ErrorCount    int64                         `json:"error_count"`
	TimeRange     string                        `json:"time_range"`
	Routes        map[string]*metrics.RouteStat `json:"routes"`
	Tools         map[string]*metrics.ToolStat  `json:"tools"`
	Errors        map[string]int64              `json:"errors"`
}

// GetMetricsOverview returns the per-route and per-tool statistics.
// GET /api/v1/metrics?range=24h
func (s *APIV1Service) GetMetricsOverview(c echo.Context) error {
	timeRange := c.QueryParam("range")
	if timeRange == "" {
		timeRange = "24h"
	}
	start, err := parseTimeRange(timeRange)
	if err != nil {
		slog.Warn("Invalid time range parameter in metrics request", "range", timeRange, "error", err)
		return invalidArgument(c, "invalid time range")
	}

	stats, err := s.Metrics.GetStats(c.Request().Context(), metrics.TimeRange{Start: start})
	if err != nil {
		return writeError(c, err)
	}

	resp := MetricsOverviewResponse{
		TotalRequests: stats.RequestCount,
		P50LatencyMs:  stats.LatencyP50.Milliseconds(),
		P95LatencyMs:  stats.LatencyP95.Milliseconds(),
		TimeRange:     timeRange,
		Routes:        stats.RouteStats,
		Tools:         stats.ToolStats,
		Errors:        stats.ErrorsByType,
	}
	if stats.RequestCount > 0 {
		resp.SuccessRate = float64(stats.SuccessCount) / float64(stats.RequestCount)
	}
	for _, n := range stats.ErrorsByType {
		resp.ErrorCount += n
	}
	return c.JSON(http.StatusOK, resp)
}

// parseTimeRange parses time range string and returns the start time
func parseTimeRange(timeRange string) (time.Time, error) {
	now := time.Now()
	switch timeRange {
	case "1h":
		return now.Add(-1 * time.Hour), nil
	case "24h":
		return now.Add(-24 * time.Hour), nil
	case "7d":
		return now.Add(-7 * 24 * time.Hour), nil
	case "30d":
		return now.Add(-30 * 24 * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("invalid time range: %s (valid: 1h, 24h, 7d, 30d)", timeRange)
	}
}
