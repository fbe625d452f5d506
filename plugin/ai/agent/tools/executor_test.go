package tools

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shvkateryna/internship/plugin/ai/lang"
	"github.com/shvkateryna/internship/plugin/ai/metrics"
)

// Test errors for retry logic
var (
	errTransient = errors.New("connection reset by peer")
	errPermanent = errors.New("permanent error")
)

// mockTool implements Tool interface for testing.
type mockTool struct {
	name      string
	params    []Param
	runFunc   func(ctx context.Context, args Args) (*Result, error)
	callCount int32
}

func (m *mockTool) Name() string {
	return m.name
}

func (m *mockTool) Definition() Definition {
	return Definition{Name: m.name, Description: "test tool", Params: m.params}
}

func (m *mockTool) Run(ctx context.Context, args Args) (*Result, error) {
	atomic.AddInt32(&m.callCount, 1)
	return m.runFunc(ctx, args)
}

func (m *mockTool) CallCount() int {
	return int(atomic.LoadInt32(&m.callCount))
}

func okTool(name, output string) *mockTool {
	return &mockTool{
		name: name,
		runFunc: func(context.Context, Args) (*Result, error) {
			return &Result{Output: output, Success: true}, nil
		},
	}
}

func TestResilientToolExecutor_Execute_Success(t *testing.T) {
	metricsService := metrics.NewMockMetricsService()
	executor := NewResilientToolExecutor(metricsService)
	tool := okTool("test_tool", "success")

	res := executor.ExecuteDetailed(context.Background(), tool, nil)
	require.NoError(t, res.Error)
	assert.Equal(t, "success", res.Result.Output)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, tool.CallCount())

	calls := metricsService.ToolCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "test_tool", calls[0].Name)
	assert.True(t, calls[0].Success)
}

func TestResilientToolExecutor_Execute_RetryOnTransientError(t *testing.T) {
	executor := NewResilientToolExecutor(nil, WithRetryDelay(time.Millisecond), WithMaxRetryDelay(time.Millisecond))

	var calls int32
	tool := &mockTool{
		name: "test_tool",
		runFunc: func(context.Context, Args) (*Result, error) {
			if atomic.AddInt32(&calls, 1) < 3 {
				return nil, errTransient
			}
			return &Result{Output: "success after retry", Success: true}, nil
		},
	}

	res := executor.ExecuteDetailed(context.Background(), tool, nil)
	require.NoError(t, res.Error)
	assert.Equal(t, "success after retry", res.Result.Output)
	assert.Equal(t, 3, tool.CallCount(), "1 original + 2 retries")
}

func TestResilientToolExecutor_Execute_NoRetryOnPermanentError(t *testing.T) {
	executor := NewResilientToolExecutor(nil)
	tool := &mockTool{
		name: "test_tool",
		runFunc: func(context.Context, Args) (*Result, error) {
			return nil, errPermanent
		},
	}

	res := executor.ExecuteDetailed(context.Background(), tool, nil)
	assert.ErrorIs(t, res.Error, errPermanent)
	assert.Equal(t, 1, tool.CallCount())
}

func TestResilientToolExecutor_Execute_FallbackOnFailure(t *testing.T) {
	metricsService := metrics.NewMockMetricsService()
	executor := NewResilientToolExecutor(metricsService, WithFallbackRules(map[string]FallbackFunc{
		"test_tool": func(context.Context, Tool, Args, error) (*Result, error) {
			return &Result{Output: "fallback result"}, nil
		},
	}))
	tool := &mockTool{
		name: "test_tool",
		runFunc: func(context.Context, Args) (*Result, error) {
			return nil, errPermanent
		},
	}

	res := executor.ExecuteDetailed(context.Background(), tool, nil)
	assert.ErrorIs(t, res.Error, errPermanent)
	assert.True(t, res.UsedFallback)
	require.NotNil(t, res.Result)
	assert.Equal(t, "fallback result", res.Result.Output)
	assert.False(t, res.Result.Success)

	calls := metricsService.ToolCalls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Success)
}

func TestResilientToolExecutor_Execute_Timeout(t *testing.T) {
	executor := NewResilientToolExecutor(nil,
		WithTimeout(20*time.Millisecond),
		WithMaxRetries(0),
	)
	tool := &mockTool{
		name: "slow_tool",
		runFunc: func(ctx context.Context, _ Args) (*Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	start := time.Now()
	res := executor.ExecuteDetailed(context.Background(), tool, nil)
	assert.ErrorIs(t, res.Error, context.DeadlineExceeded)
	assert.Equal(t, 1, res.Attempts)
	assert.Less(t, time.Since(start), time.Second)
}

func TestResilientToolExecutor_Execute_CancelledContext(t *testing.T) {
	executor := NewResilientToolExecutor(nil)
	tool := okTool("test_tool", "never")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := executor.ExecuteDetailed(ctx, tool, nil)
	assert.ErrorIs(t, res.Error, context.Canceled)
	assert.Equal(t, 0, res.Attempts)
	assert.Equal(t, 0, tool.CallCount())
}

func TestResilientToolExecutor_Execute_StopsRetryingWhenCancelled(t *testing.T) {
	executor := NewResilientToolExecutor(nil, WithRetryDelay(time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	tool := &mockTool{
		name: "test_tool",
		runFunc: func(context.Context, Args) (*Result, error) {
			cancel()
			return nil, errTransient
		},
	}

	res := executor.ExecuteDetailed(ctx, tool, nil)
	assert.ErrorIs(t, res.Error, context.Canceled)
	assert.Equal(t, 1, tool.CallCount())
}

func TestResilientToolExecutor_TimeoutBoundsAllAttempts(t *testing.T) {
	executor := NewResilientToolExecutor(nil,
		WithTimeout(100*time.Millisecond),
		WithMaxRetries(5),
		WithRetryDelay(time.Millisecond),
		WithMaxRetryDelay(time.Millisecond),
	)
	tool := &mockTool{
		name: "slow_tool",
		runFunc: func(ctx context.Context, _ Args) (*Result, error) {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(40 * time.Millisecond):
				return nil, errTransient
			}
		},
	}

	start := time.Now()
	res := executor.ExecuteDetailed(context.Background(), tool, nil)
	elapsed := time.Since(start)

	assert.Error(t, res.Error)
	assert.LessOrEqual(t, res.Attempts, 3)
	assert.Less(t, elapsed, 300*time.Millisecond, "one timeout, not one per attempt")
}

func TestResilientToolExecutor_NoRetryAfterDeadline(t *testing.T) {
	executor := NewResilientToolExecutor(nil, WithTimeout(30*time.Millisecond))
	tool := &mockTool{
		name: "slow_tool",
		runFunc: func(ctx context.Context, _ Args) (*Result, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	start := time.Now()
	res := executor.ExecuteDetailed(context.Background(), tool, nil)
	assert.ErrorIs(t, res.Error, context.DeadlineExceeded)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, 1, tool.CallCount())
	assert.Less(t, time.Since(start), 200*time.Millisecond)
}

func TestResilientToolExecutor_HonoursRetryAfter(t *testing.T) {
	executor := NewResilientToolExecutor(nil,
		WithRetryDelay(time.Millisecond),
		WithMaxRetryDelay(60*time.Millisecond),
	)

	var calls int32
	tool := &mockTool{
		name: "rate_limited",
		runFunc: func(context.Context, Args) (*Result, error) {
			if atomic.AddInt32(&calls, 1) == 1 {
				return nil, &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}
			}
			return &Result{Output: "ok", Success: true}, nil
		},
	}

	start := time.Now()
	res := executor.ExecuteDetailed(context.Background(), tool, nil)
	require.NoError(t, res.Error)
	assert.Equal(t, 2, res.Attempts)
	assert.GreaterOrEqual(t, time.Since(start), 60*time.Millisecond, "429 hint capped at the max delay")
}

func TestResilientToolExecutor_RetryWait(t *testing.T) {
	executor := NewResilientToolExecutor(nil,
		WithRetryDelay(5*time.Millisecond),
		WithMaxRetryDelay(time.Second),
	)

	tests := []struct {
		name     string
		hint     time.Duration
		expected time.Duration
	}{
		{"no hint uses retry delay", 0, 5 * time.Millisecond},
		{"hint is honoured", 200 * time.Millisecond, 200 * time.Millisecond},
		{"hint is capped", 3 * time.Second, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &ClassifiedError{Class: ErrorClassTransient, Original: errTransient, RetryAfter: tt.hint}
			assert.Equal(t, tt.expected, executor.retryWait(c))
		})
	}
}

func TestDefaultFallbackRules_Localized(t *testing.T) {
	fallback, ok := DefaultFallbackRules[TranslateToolName]
	require.True(t, ok)

	en, err := fallback(context.Background(), nil, nil, errPermanent)
	require.NoError(t, err)
	assert.Contains(t, en.Output, "Sorry")

	uk, err := fallback(lang.NewContext(context.Background(), lang.Ukrainian), nil, nil, errPermanent)
	require.NoError(t, err)
	assert.Contains(t, uk.Output, "Вибачте")

	_, ok = DefaultFallbackRules[ReindexToolName]
	assert.False(t, ok)
}
