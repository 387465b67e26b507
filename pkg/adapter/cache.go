package adapter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/dgraph-io/ristretto"
	"github.com/m-mizutani/goerr/v2"

	"github.com/m-mizutani/symbios/pkg/metrics"
)

// CachedEmbedder is a caching decorator around another Embedder.
// Embeddings are deterministic per model configuration, so a cache entry
// never goes stale; the cache only trades memory for skipped inference.
type CachedEmbedder struct {
	inner Embedder
	cache *ristretto.Cache
}

// NewCached wraps an embedder with an in-process cache holding up to
// maxEntries vectors.
func NewCached(inner Embedder, maxEntries int64) (*CachedEmbedder, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create embedding cache")
	}

	return &CachedEmbedder{
		inner: inner,
		cache: cache,
	}, nil
}

// Embed returns a cached embedding or calls the inner embedder.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if cached, ok := c.cache.Get(key); ok {
		if vec, ok := cached.([]float32); ok {
			metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
			return vec, nil
		}
	}
	metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, vec, 1)
	c.cache.Wait()
	return vec, nil
}

// EmbedBatch serves cached entries and batches the misses into a single
// inner invocation.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if cached, ok := c.cache.Get(cacheKey(text)); ok {
			if vec, ok := cached.([]float32); ok {
				metrics.EmbeddingCacheTotal.WithLabelValues("hit").Inc()
				results[i] = vec
				continue
			}
		}
		metrics.EmbeddingCacheTotal.WithLabelValues("miss").Inc()
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) == 0 && len(texts) > 0 {
		return results, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for i, vec := range vecs {
		results[missIdx[i]] = vec
		c.cache.Set(cacheKey(missTexts[i]), vec, 1)
	}
	c.cache.Wait()
	return results, nil
}

// Dimensions returns the inner embedder's vector size.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Warmup delegates to the inner embedder.
func (c *CachedEmbedder) Warmup(ctx context.Context) error {
	return c.inner.Warmup(ctx)
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}
