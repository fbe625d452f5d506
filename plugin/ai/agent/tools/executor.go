package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/shvkateryna/internship/plugin/ai/metrics"
	"github.com/shvkateryna/internship/plugin/ai/timeout"
)

// ResilientToolExecutor provides retry and fallback capabilities for tool execution.
type ResilientToolExecutor struct {
	maxRetries     int
	retryDelay     time.Duration
	maxRetryDelay  time.Duration
	timeout        time.Duration
	metricsService metrics.MetricsService
	fallbackRules  map[string]FallbackFunc
}

// ExecutorOption configures a ResilientToolExecutor.
type ExecutorOption func(*ResilientToolExecutor)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		if n >= 0 {
			e.maxRetries = n
		}
	}
}

// WithRetryDelay sets the delay between retry attempts when the error
// carries no RetryAfter hint.
func WithRetryDelay(d time.Duration) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.retryDelay = d
	}
}

// WithMaxRetryDelay caps the wait derived from a RetryAfter hint.
func WithMaxRetryDelay(d time.Duration) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		if d >= 0 {
			e.maxRetryDelay = d
		}
	}
}

// WithTimeout bounds one execution, retries and waits included.
func WithTimeout(d time.Duration) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithFallbackRules sets custom fallback rules.
// The rules map is copied to avoid concurrent modification issues.
func WithFallbackRules(rules map[string]FallbackFunc) ExecutorOption {
	return func(e *ResilientToolExecutor) {
		e.fallbackRules = copyFallbackRules(rules)
	}
}

// copyFallbackRules creates a copy of the fallback rules map.
func copyFallbackRules(src map[string]FallbackFunc) map[string]FallbackFunc {
	dst := make(map[string]FallbackFunc, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// NewResilientToolExecutor creates a new ResilientToolExecutor with the given options.
// metricsService may be nil.
func NewResilientToolExecutor(metricsService metrics.MetricsService, opts ...ExecutorOption) *ResilientToolExecutor {
	e := &ResilientToolExecutor{
		maxRetries:     2,
		retryDelay:     500 * time.Millisecond,
		maxRetryDelay:  5 * time.Second,
		timeout:        timeout.ToolExecutionTimeout,
		metricsService: metricsService,
		fallbackRules:  copyFallbackRules(DefaultFallbackRules),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ExecutionResult contains detailed information about a tool execution.
type ExecutionResult struct {
	Result        *Result
	Error         error
	FallbackError error // Error from fallback execution, if any
	Attempts      int
	TotalLatency  time.Duration
	UsedFallback  bool
}

// ExecuteDetailed runs the tool with retry and fallback support. Only errors
// ClassifyError marks transient are retried, and all attempts share one
// timeout. When every attempt fails and the tool has a fallback rule, the
// fallback result is returned together with the last error.
func (e *ResilientToolExecutor) ExecuteDetailed(ctx context.Context, tool Tool, args Args) ExecutionResult {
	start := time.Now()
	var lastErr error
	toolName := tool.Name()
	attempts := 0

	execCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

attemptsLoop:
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if err := execCtx.Err(); err != nil {
			if lastErr == nil || ctx.Err() != nil {
				lastErr = err
			}
			break attemptsLoop
		}
		attempts++

		result, err := tool.Run(execCtx, args)
		if err == nil {
			e.recordMetrics(ctx, toolName, time.Since(start), true)
			slog.Debug("tool execution succeeded",
				slog.String("tool", toolName),
				slog.Int("attempt", attempts),
				slog.Duration("duration", time.Since(start)))
			return ExecutionResult{
				Result:       result,
				Attempts:     attempts,
				TotalLatency: time.Since(start),
			}
		}

		lastErr = err
		slog.Warn("tool execution failed",
			slog.String("tool", toolName),
			slog.Int("attempt", attempts),
			slog.String("error", err.Error()))

		// The caller gave up or the shared budget is spent.
		if execCtx.Err() != nil {
			if ctx.Err() != nil {
				lastErr = ctx.Err()
			}
			break attemptsLoop
		}
		classified := ClassifyError(err)
		if !classified.IsTransient() || attempt == e.maxRetries {
			break attemptsLoop
		}

		wait := e.retryWait(classified)
		if deadline, ok := execCtx.Deadline(); ok && time.Until(deadline) <= wait {
			break attemptsLoop
		}
		select {
		case <-execCtx.Done():
			if ctx.Err() != nil {
				lastErr = ctx.Err()
			}
			break attemptsLoop
		case <-time.After(wait):
		}
	}

	e.recordMetrics(ctx, toolName, time.Since(start), false)

	if fallback, ok := e.fallbackRules[toolName]; ok {
		slog.Info("executing fallback strategy", slog.String("tool", toolName))
		result, fbErr := fallback(ctx, tool, args, lastErr)
		return ExecutionResult{
			Result:        result,
			Error:         lastErr,
			FallbackError: fbErr,
			Attempts:      attempts,
			TotalLatency:  time.Since(start),
			UsedFallback:  true,
		}
	}

	return ExecutionResult{
		Error:        lastErr,
		Attempts:     attempts,
		TotalLatency: time.Since(start),
	}
}

// retryWait honours the classifier's RetryAfter hint, capped at maxRetryDelay.
func (e *ResilientToolExecutor) retryWait(c *ClassifiedError) time.Duration {
	if c.RetryAfter <= 0 {
		return e.retryDelay
	}
	return min(c.RetryAfter, e.maxRetryDelay)
}

// recordMetrics records tool execution metrics.
func (e *ResilientToolExecutor) recordMetrics(ctx context.Context, toolName string, duration time.Duration, success bool) {
	if e.metricsService != nil {
		e.metricsService.RecordToolCall(ctx, toolName, duration, success)
	}
}
