// Package rag answers personal-fact questions strictly from a small corpus
// and rebuilds its index on demand.
package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shvkateryna/internship/plugin/ai"
	"github.com/shvkateryna/internship/plugin/ai/lang"
	"github.com/shvkateryna/internship/plugin/ai/vector"
)

// Config bounds retrieval.
type Config struct {
	TopK            int
	MaxContextChars int
	ScoreThreshold  float32
}

// DefaultConfig returns the retrieval defaults.
func DefaultConfig() Config {
	return Config{
		TopK:            6,
		MaxContextChars: 4000,
		ScoreThreshold:  DefaultScoreThreshold,
	}
}

// Engine is the retrieval answering engine.
type Engine struct {
	index     *vector.Index
	llm       ai.LLMService
	source    CorpusSource
	evaluator *ResultEvaluator
	cfg       Config

	reindexMu sync.Mutex
}

// NewEngine creates an engine over index. The index must already be built
// with the embedder used for queries; call Reindex to load the corpus.
func NewEngine(index *vector.Index, llm ai.LLMService, source CorpusSource, cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.TopK <= 0 {
		cfg.TopK = def.TopK
	}
	if cfg.MaxContextChars <= 0 {
		cfg.MaxContextChars = def.MaxContextChars
	}
	return &Engine{
		index:     index,
		llm:       llm,
		source:    source,
		evaluator: NewResultEvaluator(cfg.ScoreThreshold),
		cfg:       cfg,
	}
}

// Index returns the underlying vector index.
func (e *Engine) Index() *vector.Index {
	return e.index
}

// Retrieve embeds question and returns the hits that pass the score threshold.
func (e *Engine) Retrieve(ctx context.Context, question string) ([]vector.Result, error) {
	query, err := e.index.Embedder().Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	results := e.index.Search(ctx, query, e.cfg.TopK)
	return e.evaluator.Evaluate(results).Kept, nil
}

// Answer replies to question from the corpus only. When the corpus has no
// answer, or generation fails, it returns the sentinel for the question's
// language. Only an embedding failure is reported as an error.
func (e *Engine) Answer(ctx context.Context, question string) (string, error) {
	l := lang.Detect(question)
	noData := NoData(l)

	kept, err := e.Retrieve(ctx, question)
	if err != nil {
		return "", err
	}
	contextText := BuildContext(kept, e.cfg.MaxContextChars)
	if contextText == "" {
		slog.Debug("no context for question", slog.String("lang", string(l)))
		return noData, nil
	}

	if e.llm == nil {
		return noData, nil
	}

	start := time.Now()
	answer, err := e.llm.Chat(ctx, buildPrompt(question, contextText, l))
	if err != nil {
		slog.Warn("rag generation failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)))
		return noData, nil
	}

	return normalizeAnswer(answer, l), nil
}

// Reindex reloads the corpus, builds a new generation and swaps it in.
// On any failure the active generation keeps serving.
func (e *Engine) Reindex(ctx context.Context) (*vector.Generation, error) {
	if e.source == nil {
		return nil, &ReindexError{Source: "none", Err: ErrNoCorpusSource}
	}

	e.reindexMu.Lock()
	defer e.reindexMu.Unlock()

	corpus, err := e.source.Load(ctx)
	if err != nil {
		return nil, &ReindexError{Source: e.source.Name(), Err: err}
	}

	gen, err := e.index.Build(ctx, corpus)
	if err != nil {
		return nil, &ReindexError{Source: e.source.Name(), Err: err}
	}

	if err := e.index.Swap(gen); err != nil {
		return nil, &ReindexError{Source: e.source.Name(), Err: err}
	}

	slog.Info("rag index swapped",
		slog.String("source", e.source.Name()),
		slog.Uint64("version", gen.Version),
		slog.Int("chunks", gen.Len()))

	return gen, nil
}

// IsReindexError reports whether err came from a failed Reindex.
func IsReindexError(err error) bool {
	var re *ReindexError
	return errors.As(err, &re)
}
