package vector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/shvkateryna/internship/plugin/ai/cache"
)

const embeddingKeyPrefix = "embedding:"

// CachedEmbedder memoises single-text embeddings. Repeated questions skip the
// embedding round trip; batch calls used for index builds go straight through.
type CachedEmbedder struct {
	next  Embedder
	cache cache.CacheService[[]float32]
	ttl   time.Duration
}

// NewCachedEmbedder wraps next with c. A non-positive ttl uses the cache default.
func NewCachedEmbedder(next Embedder, c cache.CacheService[[]float32], ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{
		next:  next,
		cache: c,
		ttl:   ttl,
	}
}

// Embed implements Embedder.
func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := embeddingKey(text)
	if v, ok := e.cache.Get(ctx, key); ok {
		return v, nil
	}
	v, err := e.next.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Set(ctx, key, v, e.ttl); err != nil {
		slog.Warn("failed to cache embedding", slog.String("error", err.Error()))
	}
	return v, nil
}

// EmbedBatch implements Embedder.
func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.next.EmbedBatch(ctx, texts)
}

func embeddingKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return embeddingKeyPrefix + hex.EncodeToString(sum[:16])
}
