package vector

import (
	"context"
	"sort"
)

type flatSearcher struct {
	chunks []Chunk
}

func newFlatSearcher(chunks []Chunk) *flatSearcher {
	return &flatSearcher{chunks: chunks}
}

func (s *flatSearcher) search(_ context.Context, query []float32, k int) ([]Result, error) {
	results := make([]Result, len(s.chunks))
	for i, c := range s.chunks {
		results[i] = Result{Chunk: c, Score: CosineSimilarity(query, c.Embedding)}
	}
	rankResults(results)
	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}

// rankResults orders by score descending, then by chunk insertion order.
func rankResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Chunk.Seq < results[j].Chunk.Seq
	})
}
