package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shvkateryna/internship/plugin/ai"
	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
	"github.com/shvkateryna/internship/plugin/ai/metrics"
	"github.com/shvkateryna/internship/plugin/ai/router"
	"github.com/shvkateryna/internship/plugin/ai/session"
	"github.com/shvkateryna/internship/plugin/ai/vector"
)

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) Translate(_ context.Context, text, target string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("[%s] %s", target, text), nil
}

// fakeAnswerer answers from a fixed map and can block until released.
type fakeAnswerer struct {
	facts   map[string]string
	started chan struct{}
	release chan struct{}
	calls   atomic.Int32
}

func (f *fakeAnswerer) Answer(ctx context.Context, q string) (string, error) {
	f.calls.Add(1)
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	for k, v := range f.facts {
		if strings.Contains(strings.ToLower(q), k) {
			return v, nil
		}
	}
	return "No data available.", nil
}

type noopReindexer struct{}

func (noopReindexer) Reindex(context.Context) (*vector.Generation, error) {
	return &vector.Generation{Version: 1}, nil
}

type fixture struct {
	agent   *Agent
	store   *session.MockStore
	metrics *metrics.MockMetricsService
	answer  *fakeAnswerer
	states  *stateLog
}

type stateLog struct {
	mu     sync.Mutex
	states []State
}

func (l *stateLog) observe(_ string, s State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.states = append(l.states, s)
}

func (l *stateLog) get() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.states...)
}

func newFixture(t *testing.T, translator tools.Translator, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		store:   session.NewMockStore(),
		metrics: metrics.NewMockMetricsService(),
		answer:  &fakeAnswerer{facts: map[string]string{"color": "My favorite color is teal."}},
		states:  &stateLog{},
	}
	if translator == nil {
		translator = &fakeTranslator{}
	}

	executor := tools.NewResilientToolExecutor(f.metrics, tools.WithMaxRetries(0))
	registry, err := tools.NewRegistry(executor,
		tools.NewTranslateTool(translator),
		tools.NewAboutMeTool(f.answer),
		tools.NewReindexTool(noopReindexer{}),
	)
	require.NoError(t, err)
	r, err := router.NewService(nil)
	require.NoError(t, err)

	opts = append([]Option{
		WithMetrics(f.metrics),
		WithStateObserver(f.states.observe),
	}, opts...)
	f.agent = New(session.NewHistory(f.store, 20), r, registry, opts...)
	return f
}

func (f *fixture) history(t *testing.T, sessionID string) []session.Message {
	t.Helper()
	msgs, err := f.store.Load(context.Background(), sessionID)
	require.NoError(t, err)
	return msgs
}

func contents(msgs []session.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = string(m.Role) + ": " + m.Content
	}
	return out
}

func TestAsk_Routes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"translate", "Translate 'good morning' to Ukrainian", "[Ukrainian] good morning"},
		{"about me", "What is your favorite color?", "My favorite color is teal."},
		{"about me without data", "What is your favorite food?", "No data available."},
		{"remember", "My favorite color is teal.", router.AckEnglish},
		{"remember ukrainian", "Мій улюблений колір бірюзовий.", router.AckUkrainian},
		{"direct without llm", "Tell me a joke", offlineEnglish},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			reply, err := f.agent.Ask(context.Background(), tt.input, "s1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
			assert.Equal(t, []string{"user: " + tt.input, "assistant: " + tt.want}, contents(f.history(t, "s1")))
			assert.Equal(t, 1, f.store.AppendCalls(), "user and assistant messages are written together")
		})
	}
}

func TestAsk_DirectReplyUsesHistory(t *testing.T) {
	var got []ai.Message
	llm := &ai.MockLLMService{ChatFunc: func(_ context.Context, msgs []ai.Message) (string, error) {
		got = msgs
		return "  Why did the gopher cross the road?  ", nil
	}}
	f := newFixture(t, nil, WithLLM(llm))
	ctx := context.Background()

	_, err := f.agent.Ask(ctx, "I like jokes", "s1")
	require.NoError(t, err)
	reply, err := f.agent.Ask(ctx, "Tell me a joke", "s1")
	require.NoError(t, err)
	assert.Equal(t, "Why did the gopher cross the road?", reply)

	require.Len(t, got, 4)
	assert.Equal(t, "system", got[0].Role)
	assert.Contains(t, got[0].Content, "Always respond in English.")
	assert.Equal(t, ai.UserMessage("I like jokes"), got[1])
	assert.Equal(t, ai.AssistantMessage(router.AckEnglish), got[2])
	assert.Equal(t, ai.UserMessage("Tell me a joke"), got[3])
}

func TestAsk_ToolFailureApologizes(t *testing.T) {
	f := newFixture(t, &fakeTranslator{err: errors.New("model overloaded")})

	reply, err := f.agent.Ask(context.Background(), "translate good night", "s1")
	require.NoError(t, err)
	assert.Equal(t, ApologyEnglish, reply)
	assert.Equal(t, int64(1), f.metrics.Errors("tool_failure"))
	assert.Len(t, f.history(t, "s1"), 2, "the apology is still part of the conversation")

	reply, err = f.agent.Ask(context.Background(), "переклади добраніч", "s2")
	require.NoError(t, err)
	assert.Equal(t, ApologyUkrainian, reply)
}

func TestAsk_UnknownToolApologizes(t *testing.T) {
	f := newFixture(t, nil)
	mock := router.NewMockRouterService()
	mock.DecideFunc = func(string, []session.Message) router.Decision {
		return router.Decision{Kind: router.KindInvoke, Rule: "broken", Tool: "weather"}
	}
	f.agent.router = mock

	reply, err := f.agent.Ask(context.Background(), "weather in Kyiv", "s1")
	require.NoError(t, err)
	assert.Equal(t, ApologyEnglish, reply)
	assert.Equal(t, int64(1), f.metrics.Errors("tool_not_found"))
}

func TestAsk_LLMFailureApologizes(t *testing.T) {
	llm := &ai.MockLLMService{ChatFunc: func(context.Context, []ai.Message) (string, error) {
		return "", errors.New("503")
	}}
	f := newFixture(t, nil, WithLLM(llm))

	reply, err := f.agent.Ask(context.Background(), "Tell me a joke", "s1")
	require.NoError(t, err)
	assert.Equal(t, ApologyEnglish, reply)
	assert.Equal(t, int64(1), f.metrics.Errors("llm_failure"))
}

func TestAsk_StoreFailures(t *testing.T) {
	t.Run("load", func(t *testing.T) {
		f := newFixture(t, nil)
		f.store.SetFailures(errors.New("db down"), nil)

		reply, err := f.agent.Ask(context.Background(), "What is your favorite color?", "s1")
		assert.Equal(t, MemoryUnavailableEnglish, reply)
		var storeErr *session.SessionStoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "load", storeErr.Op)
		assert.Equal(t, int32(0), f.answer.calls.Load(), "no tool runs without history")
		assert.Equal(t, 0, f.store.AppendCalls())
	})

	t.Run("load ukrainian", func(t *testing.T) {
		f := newFixture(t, nil)
		f.store.SetFailures(errors.New("db down"), nil)

		reply, err := f.agent.Ask(context.Background(), "Привіт", "s1")
		assert.Error(t, err)
		assert.Equal(t, MemoryUnavailableUkrainian, reply)
	})

	t.Run("append", func(t *testing.T) {
		f := newFixture(t, nil)
		f.store.SetFailures(nil, errors.New("disk full"))

		reply, err := f.agent.Ask(context.Background(), "What is your favorite color?", "s1")
		assert.Equal(t, "My favorite color is teal.", reply, "a computed reply is never lost")
		assert.True(t, session.IsStoreError(err))
		assert.Equal(t, int64(1), f.metrics.Errors("store_failure"))
	})
}

func TestAsk_StateOrder(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.agent.Ask(context.Background(), "What is your favorite color?", "s1")
	require.NoError(t, err)
	assert.Equal(t, []State{
		StateStart, StateHistoryLoaded, StateDecided, StateToolExecuting, StatePersisted, StateReplied,
	}, f.states.get())

	f.states = &stateLog{}
	f.agent.observer = f.states.observe
	_, err = f.agent.Ask(context.Background(), "hello", "s1")
	require.NoError(t, err)
	assert.Equal(t, []State{
		StateStart, StateHistoryLoaded, StateDecided, StateDirect, StatePersisted, StateReplied,
	}, f.states.get())
}

func TestAsk_CancelledBeforePersistWritesNothing(t *testing.T) {
	f := newFixture(t, nil)
	f.answer.started = make(chan struct{}, 1)
	f.answer.release = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.agent.Ask(ctx, "What is your favorite color?", "s1")
		done <- err
	}()

	<-f.answer.started
	cancel()

	err := <-done
	assert.ErrorIs(t, err, ErrAborted)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.history(t, "s1"))
	assert.Equal(t, 0, f.store.AppendCalls())
}

func TestAsk_SerializesTurnsPerSession(t *testing.T) {
	f := newFixture(t, nil)
	f.answer.started = make(chan struct{}, 2)
	f.answer.release = make(chan struct{})

	first := make(chan string, 1)
	go func() {
		reply, _ := f.agent.Ask(context.Background(), "What is your favorite color?", "s1")
		first <- reply
	}()
	<-f.answer.started

	second := make(chan string, 1)
	go func() {
		reply, _ := f.agent.Ask(context.Background(), "My favorite food is borscht.", "s1")
		second <- reply
	}()

	// A different session is not blocked by s1.
	reply, err := f.agent.Ask(context.Background(), "I have a cat", "s2")
	require.NoError(t, err)
	assert.Equal(t, router.AckEnglish, reply)

	select {
	case <-second:
		t.Fatal("second turn of s1 finished while the first was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.answer.release)
	assert.Equal(t, "My favorite color is teal.", <-first)
	assert.Equal(t, router.AckEnglish, <-second)

	assert.Equal(t, []string{
		"user: What is your favorite color?",
		"assistant: My favorite color is teal.",
		"user: My favorite food is borscht.",
		"assistant: " + router.AckEnglish,
	}, contents(f.history(t, "s1")))
}

func TestAsk_ConcurrencyCap(t *testing.T) {
	f := newFixture(t, nil, WithMaxConcurrentAsks(1))
	f.answer.started = make(chan struct{}, 1)
	f.answer.release = make(chan struct{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.agent.Ask(context.Background(), "What is your favorite color?", "s1")
	}()
	<-f.answer.started

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err := f.agent.Ask(ctx, "hello", "s2")
	assert.ErrorIs(t, err, ErrAborted)

	close(f.answer.release)
	<-done
}

func TestAsk_ManySessionsConcurrently(t *testing.T) {
	f := newFixture(t, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		for j := 0; j < 5; j++ {
			wg.Add(1)
			go func(sid string) {
				defer wg.Done()
				_, err := f.agent.Ask(context.Background(), "I like tea", sid)
				assert.NoError(t, err)
			}(fmt.Sprintf("s%d", i))
		}
	}
	wg.Wait()

	for i := 0; i < 10; i++ {
		assert.Len(t, f.history(t, fmt.Sprintf("s%d", i)), 10)
	}
	assert.Len(t, f.metrics.Requests(), 50)
}

func TestAsk_InvalidArguments(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.agent.Ask(context.Background(), "hello", "")
	assert.ErrorIs(t, err, session.ErrEmptySessionID)

	_, err = f.agent.Ask(context.Background(), "   ", "s1")
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestAsk_RecallsStatedFacts(t *testing.T) {
	tests := []struct {
		name     string
		stated   []string
		question string
		want     string
	}{
		{
			name:     "english",
			stated:   []string{"My dog's name is Rex."},
			question: "What is my dog's name?",
			want:     `You told me: "My dog's name is Rex."`,
		},
		{
			name:     "ukrainian",
			stated:   []string{"Мій улюблений колір бірюзовий."},
			question: "Який мій улюблений колір?",
			want:     "Ви казали мені: «Мій улюблений колір бірюзовий.»",
		},
		{
			name:     "most recent fact wins",
			stated:   []string{"My parents live in Lviv.", "My parents live in Kyiv now."},
			question: "What city do my parents live in?",
			want:     `You told me: "My parents live in Kyiv now."`,
		},
		{
			name:     "unrelated fact",
			stated:   []string{"My favorite book is Dune."},
			question: "What is my favorite food?",
			want:     "No data available.",
		},
		{
			name:     "questions about the assistant are not answered from user facts",
			stated:   []string{"My favorite food is borscht."},
			question: "What is your favorite food?",
			want:     "No data available.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			ctx := context.Background()
			for _, s := range tt.stated {
				_, err := f.agent.Ask(ctx, s, "s1")
				require.NoError(t, err)
			}

			reply, err := f.agent.Ask(ctx, tt.question, "s1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
		})
	}
}

func TestAsk_RecallIsPerSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.agent.Ask(ctx, "My dog's name is Rex.", "s1")
	require.NoError(t, err)

	reply, err := f.agent.Ask(ctx, "What is my dog's name?", "s2")
	require.NoError(t, err)
	assert.Equal(t, "No data available.", reply)
}

func TestAsk_BusySessionDoesNotStarveOthers(t *testing.T) {
	f := newFixture(t, nil, WithMaxConcurrentAsks(3))
	f.answer.started = make(chan struct{}, 3)
	f.answer.release = make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.agent.Ask(context.Background(), "What is your favorite color?", "busy")
		}()
	}
	<-f.answer.started
	// Let the other two turns queue up behind the session lock.
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	reply, err := f.agent.Ask(ctx, "I have a cat", "other")
	require.NoError(t, err)
	assert.Equal(t, router.AckEnglish, reply)

	close(f.answer.release)
	wg.Wait()
	assert.Len(t, f.history(t, "busy"), 6)
}

func TestAsk_ConcurrentTurnsOnOneSessionPersistAsPairs(t *testing.T) {
	f := newFixture(t, nil)
	const n = 8

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := f.agent.Ask(context.Background(), fmt.Sprintf("I like tea number %d", i), "s1")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	msgs := f.history(t, "s1")
	require.Len(t, msgs, 2*n)

	seen := make(map[string]bool)
	for i := 0; i < len(msgs); i += 2 {
		assert.Equal(t, session.RoleUser, msgs[i].Role, "message %d", i)
		assert.Equal(t, session.RoleAssistant, msgs[i+1].Role, "message %d", i+1)
		assert.Equal(t, router.AckEnglish, msgs[i+1].Content)
		seen[msgs[i].Content] = true
	}
	assert.Len(t, seen, n, "every turn is persisted exactly once")
}
