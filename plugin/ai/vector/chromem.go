package vector

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"github.com/philippgille/chromem-go"
)

const seqMetadataKey = "seq"

// chromemSearcher keeps one chromem collection per generation. Collections are
// never mutated after build, so concurrent queries are safe.
type chromemSearcher struct {
	col    *chromem.Collection
	chunks []Chunk
}

func newChromemSearcher(ctx context.Context, gen *Generation) (*chromemSearcher, error) {
	db := chromem.NewDB()
	// Embeddings are always supplied, so the collection's embedding func is never called.
	col, err := db.CreateCollection(fmt.Sprintf("generation_%d", gen.Version), nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create chromem collection: %w", err)
	}

	docs := make([]chromem.Document, len(gen.Chunks))
	for i, c := range gen.Chunks {
		docs[i] = chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Embedding: append([]float32(nil), c.Embedding...),
			Metadata:  map[string]string{seqMetadataKey: strconv.Itoa(c.Seq)},
		}
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return nil, fmt.Errorf("add chromem documents: %w", err)
	}

	return &chromemSearcher{col: col, chunks: gen.Chunks}, nil
}

func (s *chromemSearcher) search(ctx context.Context, query []float32, k int) ([]Result, error) {
	// Query the whole collection so that ties at the k boundary are resolved
	// by insertion order rather than by chromem's internal ordering.
	n := s.col.Count()
	if n == 0 {
		return []Result{}, nil
	}
	hits, err := s.col.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		seq, err := strconv.Atoi(h.Metadata[seqMetadataKey])
		if err != nil || seq < 0 || seq >= len(s.chunks) {
			return nil, fmt.Errorf("chromem result %s has invalid sequence %q", h.ID, h.Metadata[seqMetadataKey])
		}
		results = append(results, Result{Chunk: s.chunks[seq], Score: h.Similarity})
	}
	rankResults(results)
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}
