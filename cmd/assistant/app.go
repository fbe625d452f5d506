package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shvkateryna/internship/internal/profile"
	"github.com/shvkateryna/internship/plugin/ai"
	"github.com/shvkateryna/internship/plugin/ai/agent"
	"github.com/shvkateryna/internship/plugin/ai/agent/tools"
	"github.com/shvkateryna/internship/plugin/ai/cache"
	"github.com/shvkateryna/internship/plugin/ai/metrics"
	"github.com/shvkateryna/internship/plugin/ai/rag"
	"github.com/shvkateryna/internship/plugin/ai/router"
	"github.com/shvkateryna/internship/plugin/ai/session"
	"github.com/shvkateryna/internship/plugin/ai/timeout"
	"github.com/shvkateryna/internship/plugin/ai/vector"
	"github.com/shvkateryna/internship/plugin/translate"
	"github.com/shvkateryna/internship/store"
	"github.com/shvkateryna/internship/store/db"
)

const (
	// maxMemorySessions bounds the in-memory session driver.
	maxMemorySessions = 10000
	// metricsRetention is how long per-hour metric buckets are kept.
	metricsRetention = 7 * 24 * time.Hour
)

// app holds every wired component of one process.
type app struct {
	profile  *profile.Profile
	sessions session.Store
	expirer  session.Expirer
	engine   *rag.Engine
	registry *tools.Registry
	agent    *agent.Agent
	metrics  *metrics.Service

	closers []func()
}

// wireApp builds the assistant from p and loads the corpus once. A failed
// initial load leaves an empty index; questions then get the no-data answer.
func wireApp(ctx context.Context, p *profile.Profile) (*app, error) {
	a := &app{profile: p}
	aiConfig := ai.NewConfigFromProfile(p)

	embedder, err := a.newEmbedder(aiConfig)
	if err != nil {
		return nil, err
	}

	var llm ai.LLMService
	if p.IsAIEnabled() {
		llm, err = ai.NewLLMService(&aiConfig.LLM)
		if err != nil {
			a.Close()
			return nil, err
		}
	} else {
		slog.Warn("AI is disabled; direct replies use the offline hint")
	}

	index := vector.NewIndex(embedder,
		vector.WithBackend(p.VectorBackend),
		vector.WithChunker(vector.NewChunker(p.ChunkSize, p.ChunkOverlap)))
	a.engine = rag.NewEngine(index, llm, rag.FileSource{Path: p.CorpusPath}, rag.Config{
		TopK:            p.TopK,
		MaxContextChars: p.MaxContextChars,
		ScoreThreshold:  float32(p.ScoreThreshold),
	})

	a.metrics = metrics.NewService(metricsRetention)
	a.closers = append(a.closers, a.metrics.Close)

	toolList := []tools.Tool{tools.NewAboutMeTool(a.engine), tools.NewReindexTool(a.engine)}
	if llm != nil {
		translator, err := translate.NewOpenAI(aiConfig.LLM, p.TranslateModel,
			translate.WithMaxInputChars(p.TranslateMaxInputChars))
		if err != nil {
			a.Close()
			return nil, err
		}
		toolList = append([]tools.Tool{tools.NewTranslateTool(translator)}, toolList...)
	}
	executor := tools.NewResilientToolExecutor(a.metrics, tools.WithTimeout(p.ToolTimeout))
	a.registry, err = tools.NewRegistry(executor, toolList...)
	if err != nil {
		a.Close()
		return nil, err
	}

	if err := a.wireSessions(ctx); err != nil {
		a.Close()
		return nil, err
	}

	rules, err := loadRoutingRules(p.RoutingRulesPath)
	if err != nil {
		a.Close()
		return nil, err
	}
	routerService, err := router.NewService(router.RestrictToTools(rules, a.registry.Has))
	if err != nil {
		a.Close()
		return nil, err
	}

	opts := []agent.Option{
		agent.WithMetrics(a.metrics),
		agent.WithMaxConcurrentAsks(p.MaxConcurrentAsks),
	}
	if llm != nil {
		opts = append(opts, agent.WithLLM(llm))
	}
	a.agent = agent.New(session.NewHistory(a.sessions, p.MaxHistoryMessages), routerService, a.registry, opts...)

	reindexCtx, cancel := context.WithTimeout(ctx, timeout.ReindexTimeout)
	defer cancel()
	if gen, err := a.engine.Reindex(reindexCtx); err != nil {
		slog.Warn("initial corpus load failed; serving an empty index",
			slog.String("corpus", p.CorpusPath),
			slog.String("error", err.Error()))
	} else {
		slog.Info("corpus loaded", slog.Uint64("version", gen.Version), slog.Int("chunks", gen.Len()))
	}

	return a, nil
}

func (a *app) newEmbedder(cfg *ai.Config) (vector.Embedder, error) {
	if cfg.Embedding.Provider == "hash" {
		return vector.NewHashEmbedder(vector.DefaultHashDimensions), nil
	}
	if cfg.Embedding.APIKey == "" {
		return nil, errors.New("embedding API key is required (or set ASSISTANT_AI_EMBEDDING_PROVIDER=hash)")
	}
	svc, err := ai.NewEmbeddingService(&cfg.Embedding)
	if err != nil {
		return nil, err
	}
	c := cache.NewService[[]float32](cache.ServiceConfig{Capacity: 1000, DefaultTTL: time.Hour})
	a.closers = append(a.closers, c.Close)
	return vector.NewCachedEmbedder(svc, c, time.Hour), nil
}

func (a *app) wireSessions(ctx context.Context) error {
	ttl := a.profile.HistoryTTL()
	if a.profile.Driver == "memory" {
		memory := session.NewMemoryStore(ttl, maxMemorySessions)
		a.sessions, a.expirer = memory, memory
		return nil
	}

	driver, err := db.NewDBDriver(a.profile)
	if err != nil {
		return err
	}
	st := store.New(driver, a.profile)
	a.closers = append(a.closers, func() {
		if err := st.Close(); err != nil {
			slog.Warn("failed to close database", slog.String("error", err.Error()))
		}
	})
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	sqlStore := session.NewSQLStore(st, ttl)
	a.sessions, a.expirer = sqlStore, sqlStore
	return nil
}

func loadRoutingRules(path string) ([]router.RuleConfig, error) {
	if path == "" {
		return nil, nil
	}
	return router.LoadRules(path)
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
