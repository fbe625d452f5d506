// Package vector holds the personal-fact corpus as immutable index
// generations and serves similarity search against the active one.
package vector

import (
	"context"
	"time"
)

// Embedder turns text into vectors. The same embedder must be used for
// building an index and for embedding the queries run against it.
type Embedder interface {
	// Embed generates a vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates vectors for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Chunk is a contiguous span of corpus text with its embedding.
type Chunk struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"` // insertion order within the generation
	Content   string    `json:"content"`
	Embedding []float32 `json:"-"`
}

// Result is a scored search hit.
type Result struct {
	Chunk Chunk   `json:"chunk"`
	Score float32 `json:"score"` // cosine similarity in [-1, 1]
}

// Generation is one complete, immutable build of the index.
type Generation struct {
	Version    uint64    `json:"version"`
	Chunks     []Chunk   `json:"-"`
	Dimensions int       `json:"dimensions"`
	Backend    string    `json:"backend"`
	BuiltAt    time.Time `json:"built_at"`

	searcher searcher
}

// Len returns the number of chunks in the generation.
func (g *Generation) Len() int {
	if g == nil {
		return 0
	}
	return len(g.Chunks)
}

// searcher ranks the chunks of one generation.
type searcher interface {
	search(ctx context.Context, query []float32, k int) ([]Result, error)
}
