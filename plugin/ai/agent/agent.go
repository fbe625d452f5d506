// Package agent runs one conversational turn: load the session history,
// route the input, run a tool or reply directly, persist, answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/shvkateryna/internship/plugin/ai"
	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
	"github.com/shvkateryna/internship/plugin/ai/lang"
	"github.com/shvkateryna/internship/plugin/ai/metrics"
	"github.com/shvkateryna/internship/plugin/ai/rag"
	"github.com/shvkateryna/internship/plugin/ai/router"
	"github.com/shvkateryna/internship/plugin/ai/session"
	"github.com/shvkateryna/internship/plugin/ai/timeout"
)

// DefaultMaxConcurrentAsks caps turns in flight across all sessions.
const DefaultMaxConcurrentAsks = 20

// ToolInvoker runs a registered tool by name.
type ToolInvoker interface {
	Invoke(ctx context.Context, name string, args tools.Args) (string, error)
}

// Agent is the routing agent. It is safe for concurrent use: turns of one
// session run one at a time in arrival order, distinct sessions run in
// parallel up to the concurrency cap.
type Agent struct {
	history  *session.History
	router   router.RouterService
	tools    ToolInvoker
	llm      ai.LLMService
	metrics  metrics.MetricsService
	observer StateObserver

	sem   *semaphore.Weighted
	locks *session.KeyedLock
}

// Option configures an Agent.
type Option func(*Agent)

// WithLLM sets the model used for direct replies. Without one the agent
// answers direct turns with a static hint.
func WithLLM(llm ai.LLMService) Option {
	return func(a *Agent) {
		a.llm = llm
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m metrics.MetricsService) Option {
	return func(a *Agent) {
		a.metrics = m
	}
}

// WithMaxConcurrentAsks sets how many turns may run at once.
func WithMaxConcurrentAsks(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithStateObserver registers a hook called on every state transition.
func WithStateObserver(o StateObserver) Option {
	return func(a *Agent) {
		a.observer = o
	}
}

// New creates an agent.
func New(history *session.History, r router.RouterService, invoker ToolInvoker, opts ...Option) *Agent {
	a := &Agent{
		history: history,
		router:  r,
		tools:   invoker,
		sem:     semaphore.NewWeighted(DefaultMaxConcurrentAsks),
		locks:   session.NewKeyedLock(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers input within sessionID.
//
// Tool and model failures never fail the turn; they become an apology.
// A personal question the corpus cannot answer falls back to facts the user
// stated earlier in the session.
// A history load failure returns the "can't access memory" reply together
// with the *session.SessionStoreError. A persist failure returns the computed
// reply together with the error. If ctx is cancelled before the turn is
// persisted, nothing is written and ErrAborted is returned.
func (a *Agent) Ask(ctx context.Context, input, sessionID string) (string, error) {
	if sessionID == "" {
		return "", session.ErrEmptySessionID
	}
	if strings.TrimSpace(input) == "" {
		return "", ErrEmptyInput
	}
	start := time.Now()
	l := lang.Detect(input)

	// Session lock first: turns queued behind a busy session must not hold
	// concurrency slots other sessions need.
	unlock, err := a.locks.Lock(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrAborted, err)
	}
	defer unlock()

	if err := a.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("%w: %w", ErrAborted, err)
	}
	defer a.sem.Release(1)

	a.transition(sessionID, StateStart)

	history, err := a.history.Recent(ctx, sessionID)
	if err != nil {
		slog.Error("failed to load session history",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		a.recordError(ctx, "store_failure")
		a.recordRequest(ctx, "store_failure", time.Since(start), false)
		return MemoryUnavailable(l), err
	}
	a.transition(sessionID, StateHistoryLoaded)

	decision := a.router.Decide(input, history)
	a.transition(sessionID, StateDecided)

	reply, ok := a.execute(ctx, sessionID, decision, input, history)

	if err := ctx.Err(); err != nil {
		slog.Info("turn cancelled before persisting",
			slog.String("session_id", sessionID),
			slog.String("rule", decision.Rule))
		a.recordRequest(ctx, decision.Rule, time.Since(start), false)
		return "", fmt.Errorf("%w: %w", ErrAborted, err)
	}

	// The reply is computed; store it even if the caller goes away now.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout.PersistTimeout)
	defer cancel()
	if err := a.history.AppendTurn(persistCtx, sessionID, input, reply); err != nil {
		slog.Error("failed to persist turn",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()))
		a.recordError(ctx, "store_failure")
		a.recordRequest(ctx, decision.Rule, time.Since(start), false)
		return reply, err
	}
	a.transition(sessionID, StatePersisted)

	a.recordRequest(ctx, decision.Rule, time.Since(start), ok)
	slog.Debug("turn answered",
		slog.String("session_id", sessionID),
		slog.String("rule", decision.Rule),
		slog.String("reply", truncateString(reply, timeout.MaxTruncateLength)),
		slog.Duration("duration", time.Since(start)))
	a.transition(sessionID, StateReplied)
	return reply, nil
}

// execute produces the reply for a decision. ok is false when the reply is
// an apology for a failed tool or model call.
func (a *Agent) execute(ctx context.Context, sessionID string, d router.Decision, input string, history []session.Message) (string, bool) {
	if d.IsInvoke() {
		a.transition(sessionID, StateToolExecuting)
		out, err := a.tools.Invoke(lang.NewContext(ctx, d.Lang), d.Tool, tools.Args(d.Args))
		if err == nil {
			if d.Tool == tools.AboutMeToolName && rag.IsNoData(out) {
				if fact, ok := recallFact(input, history, d.Lang); ok {
					return fact, true
				}
			}
			return out, true
		}

		var notFound *tools.NotFoundError
		if errors.As(err, &notFound) {
			// Routing rules and the registry disagree: a wiring defect.
			slog.Error("routing decision names an unregistered tool",
				slog.String("rule", d.Rule),
				slog.String("tool", notFound.Name))
			a.recordError(ctx, "tool_not_found")
		} else {
			slog.Warn("tool invocation failed",
				slog.String("session_id", sessionID),
				slog.String("tool", d.Tool),
				slog.String("error", err.Error()))
			a.recordError(ctx, "tool_failure")
		}
		return Apology(d.Lang), false
	}

	a.transition(sessionID, StateDirect)
	if d.Reply != "" {
		return d.Reply, true
	}
	if a.llm == nil {
		return lang.Pick(d.Lang, offlineEnglish, offlineUkrainian), true
	}

	llmCtx, cancel := context.WithTimeout(ctx, timeout.LLMTimeout)
	defer cancel()
	out, err := a.llm.Chat(llmCtx, buildDirectPrompt(input, history, d.Lang))
	if err == nil {
		if out = strings.TrimSpace(out); out != "" {
			return out, true
		}
		err = errors.New("empty completion")
	}
	slog.Warn("direct reply generation failed",
		slog.String("session_id", sessionID),
		slog.String("error", err.Error()))
	a.recordError(ctx, "llm_failure")
	return Apology(d.Lang), false
}

func (a *Agent) transition(sessionID string, s State) {
	if a.observer != nil {
		a.observer(sessionID, s)
	}
}

func (a *Agent) recordRequest(ctx context.Context, route string, latency time.Duration, success bool) {
	if a.metrics != nil {
		a.metrics.RecordRequest(ctx, route, latency, success)
	}
}

func (a *Agent) recordError(ctx context.Context, kind string) {
	if a.metrics != nil {
		a.metrics.RecordError(ctx, kind)
	}
}
