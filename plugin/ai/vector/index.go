package vector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync/atomic"
	"time"
)

const (
	// BackendFlat ranks chunks with an exhaustive cosine scan.
	BackendFlat = "flat"
	// BackendChromem ranks chunks with an in-memory chromem collection.
	BackendChromem = "chromem"

	defaultEmbedBatchSize = 64
)

// Index owns the active generation. Builds produce new generations off to the
// side; Swap publishes one with a single atomic pointer store.
type Index struct {
	embedder  Embedder
	chunker   Chunker
	backend   string
	batchSize int

	active  atomic.Pointer[Generation]
	version atomic.Uint64
}

// Option configures an Index.
type Option func(*Index)

// WithChunker sets the chunking policy.
func WithChunker(c Chunker) Option {
	return func(x *Index) {
		x.chunker = c
	}
}

// WithBackend selects the search backend (BackendFlat or BackendChromem).
func WithBackend(name string) Option {
	return func(x *Index) {
		x.backend = name
	}
}

// WithEmbedBatchSize bounds how many chunks are embedded per request.
func WithEmbedBatchSize(n int) Option {
	return func(x *Index) {
		if n > 0 {
			x.batchSize = n
		}
	}
}

// NewIndex creates an empty index. Search returns nothing until the first Swap.
func NewIndex(embedder Embedder, opts ...Option) *Index {
	x := &Index{
		embedder:  embedder,
		chunker:   NewChunker(DefaultChunkSize, DefaultChunkOverlap),
		backend:   BackendFlat,
		batchSize: defaultEmbedBatchSize,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Embedder returns the embedder the index was built with.
func (x *Index) Embedder() Embedder {
	return x.embedder
}

// Build chunks and embeds corpus text into a new generation without touching
// the active one.
func (x *Index) Build(ctx context.Context, corpus string) (*Generation, error) {
	texts := x.chunker.Split(corpus)
	if len(texts) == 0 {
		return nil, &IndexBuildError{Stage: "chunk", Err: ErrEmptyCorpus}
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += x.batchSize {
		end := min(start+x.batchSize, len(texts))
		batch, err := x.embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, &IndexBuildError{Stage: "embed", Err: err}
		}
		if len(batch) != end-start {
			return nil, &IndexBuildError{
				Stage: "embed",
				Err:   fmt.Errorf("embedder returned %d vectors for %d chunks", len(batch), end-start),
			}
		}
		vectors = append(vectors, batch...)
	}

	dims := len(vectors[0])
	if dims == 0 {
		return nil, &IndexBuildError{Stage: "embed", Err: errors.New("embedder returned empty vectors")}
	}

	version := x.version.Add(1)
	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		if len(vectors[i]) != dims {
			return nil, &IndexBuildError{
				Stage: "embed",
				Err:   fmt.Errorf("%w: chunk %d has %d, expected %d", ErrDimensionMismatch, i, len(vectors[i]), dims),
			}
		}
		chunks[i] = Chunk{
			ID:        fmt.Sprintf("g%d-c%d", version, i),
			Seq:       i,
			Content:   text,
			Embedding: vectors[i],
		}
	}

	gen := &Generation{
		Version:    version,
		Chunks:     chunks,
		Dimensions: dims,
		Backend:    x.backend,
		BuiltAt:    time.Now(),
	}

	switch x.backend {
	case BackendChromem:
		s, err := newChromemSearcher(ctx, gen)
		if err != nil {
			return nil, &IndexBuildError{Stage: "backend", Err: err}
		}
		gen.searcher = s
	default:
		gen.Backend = BackendFlat
		gen.searcher = newFlatSearcher(chunks)
	}

	slog.Debug("index generation built",
		slog.Uint64("version", version),
		slog.Int("chunks", len(chunks)),
		slog.Int("dimensions", dims),
		slog.String("backend", gen.Backend))

	return gen, nil
}

// Swap atomically makes gen the active generation. Searches already running
// finish against the generation they started with.
func (x *Index) Swap(gen *Generation) error {
	if gen == nil || gen.searcher == nil {
		return errors.New("cannot swap in an unbuilt generation")
	}
	for {
		cur := x.active.Load()
		if cur != nil && gen.Version <= cur.Version {
			return fmt.Errorf("%w: active %d, offered %d", ErrStaleGeneration, cur.Version, gen.Version)
		}
		if x.active.CompareAndSwap(cur, gen) {
			return nil
		}
	}
}

// Active returns the current generation, or nil before the first Swap.
func (x *Index) Active() *Generation {
	return x.active.Load()
}

// Search returns the k best chunks of the active generation by descending
// score, ties broken by insertion order. It never fails: an empty index, a
// non-positive k or a query of the wrong size yield no results.
func (x *Index) Search(ctx context.Context, query []float32, k int) []Result {
	gen := x.active.Load()
	return gen.Search(ctx, query, k)
}

// Search ranks this generation's chunks against query.
func (g *Generation) Search(ctx context.Context, query []float32, k int) []Result {
	if g == nil || len(g.Chunks) == 0 || k <= 0 {
		return []Result{}
	}
	if len(query) != g.Dimensions {
		slog.Warn("query vector size does not match index",
			slog.Int("query", len(query)),
			slog.Int("index", g.Dimensions),
			slog.Uint64("version", g.Version))
		return []Result{}
	}

	results, err := g.searcher.search(ctx, query, k)
	if err != nil {
		slog.Warn("backend search failed, falling back to flat scan",
			slog.String("backend", g.Backend),
			slog.String("error", err.Error()))
		results, _ = newFlatSearcher(g.Chunks).search(ctx, query, k)
	}
	return results
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 if
// either is a zero vector or their lengths differ.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
