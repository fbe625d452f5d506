package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shvkateryna/internship/plugin/ai/vector"
)

type fakeTranslator struct {
	calls  []string
	err    error
	output string
}

func (f *fakeTranslator) Translate(_ context.Context, text, target string) (string, error) {
	f.calls = append(f.calls, text+"|"+target)
	if f.err != nil {
		return "", f.err
	}
	if f.output != "" {
		return f.output, nil
	}
	return strings.ToUpper(text), nil
}

type answererFunc func(ctx context.Context, q string) (string, error)

func (f answererFunc) Answer(ctx context.Context, q string) (string, error) {
	return f(ctx, q)
}

type reindexerFunc func(ctx context.Context) (*vector.Generation, error)

func (f reindexerFunc) Reindex(ctx context.Context) (*vector.Generation, error) {
	return f(ctx)
}

func newTestRegistry(t *testing.T, tr Translator, ans Answerer, re Reindexer) *Registry {
	t.Helper()
	executor := NewResilientToolExecutor(nil, WithRetryDelay(time.Millisecond), WithMaxRetryDelay(time.Millisecond))
	r, err := NewRegistry(executor, NewTranslateTool(tr), NewAboutMeTool(ans), NewReindexTool(re))
	require.NoError(t, err)
	return r
}

func TestNewRegistry_RejectsBadNames(t *testing.T) {
	_, err := NewRegistry(nil, okTool("a", "x"), okTool("a", "y"))
	assert.Error(t, err)

	_, err = NewRegistry(nil, okTool(" ", "x"))
	assert.Error(t, err)

	r, err := NewRegistry(nil)
	require.NoError(t, err)
	assert.Empty(t, r.List())
}

func TestRegistry_ListAndGet(t *testing.T) {
	r := newTestRegistry(t, &fakeTranslator{}, nil, nil)

	defs := r.List()
	require.Len(t, defs, 3)
	assert.Equal(t, TranslateToolName, defs[0].Name)
	assert.Equal(t, AboutMeToolName, defs[1].Name)
	assert.Equal(t, ReindexToolName, defs[2].Name)

	// Callers cannot mutate registered definitions.
	defs[0].Params[0].Name = "mutated"
	def, err := r.Get(TranslateToolName)
	require.NoError(t, err)
	assert.Equal(t, "text", def.Params[0].Name)
	assert.Equal(t, r.List(), r.List())

	assert.True(t, r.Has(AboutMeToolName))
	assert.False(t, r.Has("weather"))

	_, err = r.Get("weather")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "weather", nf.Name)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestRegistry_Invoke(t *testing.T) {
	t.Run("translate with default target", func(t *testing.T) {
		tr := &fakeTranslator{}
		r := newTestRegistry(t, tr, nil, nil)

		out, err := r.Invoke(context.Background(), TranslateToolName, Args{"text": "good morning"})
		require.NoError(t, err)
		assert.Equal(t, "GOOD MORNING", out)
		assert.Equal(t, []string{"good morning|Ukrainian"}, tr.calls)
	})

	t.Run("translate with explicit target", func(t *testing.T) {
		tr := &fakeTranslator{}
		r := newTestRegistry(t, tr, nil, nil)

		_, err := r.Invoke(context.Background(), TranslateToolName, Args{"text": "дякую", "target_language": "English"})
		require.NoError(t, err)
		assert.Equal(t, []string{"дякую|English"}, tr.calls)
	})

	t.Run("about me", func(t *testing.T) {
		ans := answererFunc(func(_ context.Context, q string) (string, error) {
			return "Teal. (" + q + ")", nil
		})
		r := newTestRegistry(t, nil, ans, nil)

		out, err := r.Invoke(context.Background(), AboutMeToolName, Args{"question": "favorite color?"})
		require.NoError(t, err)
		assert.Equal(t, "Teal. (favorite color?)", out)
	})

	t.Run("reindex status", func(t *testing.T) {
		re := reindexerFunc(func(context.Context) (*vector.Generation, error) {
			return &vector.Generation{Version: 2, Chunks: make([]vector.Chunk, 3)}, nil
		})
		r := newTestRegistry(t, nil, nil, re)

		out, err := r.Invoke(context.Background(), ReindexToolName, nil)
		require.NoError(t, err)
		assert.Equal(t, "ok: generation 2 (3 chunks)", out)
	})
}

func TestRegistry_InvokeFailures(t *testing.T) {
	t.Run("unknown tool", func(t *testing.T) {
		r := newTestRegistry(t, nil, nil, nil)
		_, err := r.Invoke(context.Background(), "weather", Args{})
		var nf *NotFoundError
		assert.ErrorAs(t, err, &nf)
	})

	t.Run("missing required argument", func(t *testing.T) {
		tr := &fakeTranslator{}
		r := newTestRegistry(t, tr, nil, nil)

		_, err := r.Invoke(context.Background(), TranslateToolName, Args{"text": "   "})
		var execErr *ToolExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.ErrorIs(t, err, ErrInvalidArguments)
		assert.Empty(t, tr.calls)
	})

	t.Run("collaborator failure carries fallback", func(t *testing.T) {
		tr := &fakeTranslator{err: errors.New("quota exhausted")}
		r := newTestRegistry(t, tr, nil, nil)

		_, err := r.Invoke(context.Background(), TranslateToolName, Args{"text": "hi"})
		var execErr *ToolExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Equal(t, TranslateToolName, execErr.Tool)
		assert.Equal(t, 1, execErr.Attempts)
		assert.Contains(t, execErr.Fallback, "Sorry")
	})

	t.Run("empty output", func(t *testing.T) {
		ans := answererFunc(func(context.Context, string) (string, error) { return " ", nil })
		r := newTestRegistry(t, nil, ans, nil)

		_, err := r.Invoke(context.Background(), AboutMeToolName, Args{"question": "q?"})
		var execErr *ToolExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.ErrorIs(t, err, ErrEmptyOutput)
	})

	t.Run("reindex failure has no fallback", func(t *testing.T) {
		re := reindexerFunc(func(context.Context) (*vector.Generation, error) {
			return nil, fmt.Errorf("reindex: %w", vector.ErrEmptyCorpus)
		})
		r := newTestRegistry(t, nil, nil, re)

		_, err := r.Invoke(context.Background(), ReindexToolName, nil)
		var execErr *ToolExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.Empty(t, execErr.Fallback)
		assert.ErrorIs(t, err, vector.ErrEmptyCorpus)
	})

	t.Run("timeout", func(t *testing.T) {
		slow := &mockTool{
			name: "slow",
			runFunc: func(ctx context.Context, _ Args) (*Result, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			},
		}
		executor := NewResilientToolExecutor(nil, WithTimeout(10*time.Millisecond), WithMaxRetries(0))
		r, err := NewRegistry(executor, slow)
		require.NoError(t, err)

		_, err = r.Invoke(context.Background(), "slow", nil)
		var execErr *ToolExecutionError
		require.ErrorAs(t, err, &execErr)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestRegistry_ConcurrentInvoke(t *testing.T) {
	r, err := NewRegistry(nil, okTool("echo", "pong"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := r.Invoke(context.Background(), "echo", nil)
			assert.NoError(t, err)
			assert.Equal(t, "pong", out)
		}()
	}
	wg.Wait()
}
