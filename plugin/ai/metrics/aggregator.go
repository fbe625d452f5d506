package metrics

import (
	"sort"
	"sync"
	"time"
)

// Aggregator keeps hourly buckets of route and tool metrics in memory.
type Aggregator struct {
	mu  sync.RWMutex
	now func() time.Time

	// key = "hourBucket|route"
	routeMetrics map[string]*routeBucket
	// key = "hourBucket|toolName"
	toolMetrics map[string]*toolBucket
	// key = "hourBucket|kind"
	errorMetrics map[string]*errorBucket
}

type routeBucket struct {
	hourBucket   time.Time
	route        string
	requestCount int64
	successCount int64
	latencies    []int64 // in milliseconds
}

type toolBucket struct {
	hourBucket   time.Time
	toolName     string
	callCount    int64
	successCount int64
	latencySum   int64 // in milliseconds
}

type errorBucket struct {
	hourBucket time.Time
	kind       string
	count      int64
}

// NewAggregator creates a new metrics aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		now:          time.Now,
		routeMetrics: make(map[string]*routeBucket),
		toolMetrics:  make(map[string]*toolBucket),
		errorMetrics: make(map[string]*errorBucket),
	}
}

// RecordRequest records a single routed turn.
func (a *Aggregator) RecordRequest(route string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, route)

	bucket, exists := a.routeMetrics[key]
	if !exists {
		bucket = &routeBucket{
			hourBucket: hourBucket,
			route:      route,
			latencies:  make([]int64, 0, 100),
		}
		a.routeMetrics[key] = bucket
	}

	bucket.requestCount++
	if success {
		bucket.successCount++
	}
	bucket.latencies = append(bucket.latencies, latency.Milliseconds())
}

// RecordToolCall records a single tool call.
func (a *Aggregator) RecordToolCall(toolName string, latency time.Duration, success bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, toolName)

	bucket, exists := a.toolMetrics[key]
	if !exists {
		bucket = &toolBucket{
			hourBucket: hourBucket,
			toolName:   toolName,
		}
		a.toolMetrics[key] = bucket
	}

	bucket.callCount++
	if success {
		bucket.successCount++
	}
	bucket.latencySum += latency.Milliseconds()
}

// RecordError counts one error of the given kind.
func (a *Aggregator) RecordError(kind string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	hourBucket := truncateToHour(a.now())
	key := makeKey(hourBucket, kind)

	bucket, exists := a.errorMetrics[key]
	if !exists {
		bucket = &errorBucket{hourBucket: hourBucket, kind: kind}
		a.errorMetrics[key] = bucket
	}
	bucket.count++
}

// Prune drops every bucket whose hour starts before the given time and
// returns how many were removed.
func (a *Aggregator) Prune(before time.Time) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed := 0
	for key, b := range a.routeMetrics {
		if b.hourBucket.Before(before) {
			delete(a.routeMetrics, key)
			removed++
		}
	}
	for key, b := range a.toolMetrics {
		if b.hourBucket.Before(before) {
			delete(a.toolMetrics, key)
			removed++
		}
	}
	for key, b := range a.errorMetrics {
		if b.hourBucket.Before(before) {
			delete(a.errorMetrics, key)
			removed++
		}
	}
	return removed
}

// Stats aggregates every bucket whose hour falls inside timeRange.
func (a *Aggregator) Stats(timeRange TimeRange) *AgentMetrics {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := &AgentMetrics{
		RouteStats:   make(map[string]*RouteStat),
		ToolStats:    make(map[string]*ToolStat),
		ErrorsByType: make(map[string]int64),
	}

	type routeAgg struct {
		count, success, latencySum int64
	}
	routes := make(map[string]*routeAgg)
	allLatencies := make([]int64, 0)
	for _, bucket := range a.routeMetrics {
		if !inRange(bucket.hourBucket, timeRange) {
			continue
		}
		stats.RequestCount += bucket.requestCount
		stats.SuccessCount += bucket.successCount
		allLatencies = append(allLatencies, bucket.latencies...)

		agg, ok := routes[bucket.route]
		if !ok {
			agg = &routeAgg{}
			routes[bucket.route] = agg
		}
		agg.count += bucket.requestCount
		agg.success += bucket.successCount
		agg.latencySum += sumLatencies(bucket.latencies)
	}
	for route, agg := range routes {
		stat := &RouteStat{Count: agg.count}
		if agg.count > 0 {
			stat.SuccessRate = float32(agg.success) / float32(agg.count)
			stat.AvgLatency = time.Duration(agg.latencySum/agg.count) * time.Millisecond
		}
		stats.RouteStats[route] = stat
	}

	type toolAgg struct {
		calls, success, latencySum int64
	}
	tools := make(map[string]*toolAgg)
	for _, bucket := range a.toolMetrics {
		if !inRange(bucket.hourBucket, timeRange) {
			continue
		}
		agg, ok := tools[bucket.toolName]
		if !ok {
			agg = &toolAgg{}
			tools[bucket.toolName] = agg
		}
		agg.calls += bucket.callCount
		agg.success += bucket.successCount
		agg.latencySum += bucket.latencySum
	}
	for name, agg := range tools {
		stat := &ToolStat{Calls: agg.calls}
		if agg.calls > 0 {
			stat.SuccessRate = float32(agg.success) / float32(agg.calls)
			stat.AvgLatency = time.Duration(agg.latencySum/agg.calls) * time.Millisecond
		}
		stats.ToolStats[name] = stat
	}

	for _, bucket := range a.errorMetrics {
		if inRange(bucket.hourBucket, timeRange) {
			stats.ErrorsByType[bucket.kind] += bucket.count
		}
	}

	stats.LatencyP50 = time.Duration(percentile(allLatencies, 50)) * time.Millisecond
	stats.LatencyP95 = time.Duration(percentile(allLatencies, 95)) * time.Millisecond

	return stats
}

// Helper functions

func truncateToHour(t time.Time) time.Time {
	return t.Truncate(time.Hour)
}

func makeKey(hourBucket time.Time, name string) string {
	return hourBucket.Format(time.RFC3339) + "|" + name
}

func inRange(hour time.Time, r TimeRange) bool {
	if !r.Start.IsZero() && hour.Add(time.Hour).Before(r.Start) {
		return false
	}
	if !r.End.IsZero() && hour.After(r.End) {
		return false
	}
	return true
}

func sumLatencies(latencies []int64) int64 {
	var sum int64
	for _, l := range latencies {
		sum += l
	}
	return sum
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}
