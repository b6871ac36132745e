package embedding

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/tbracken/newsgraph/internal/logging"
)

// CachedProvider wraps a Provider with an LRU cache keyed by a caller
// supplied key (event id). Vectors are immutable once computed, so
// cached entries never expire; the LRU bound caps memory.
type CachedProvider struct {
	provider Provider
	cache    *lru.Cache[string, []float64]
	logger   *logging.Logger

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewCachedProvider creates a caching wrapper around provider with the
// given maximum number of cached vectors.
func NewCachedProvider(provider Provider, maxEntries int) (*CachedProvider, error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("maxEntries must be positive, got %d", maxEntries)
	}
	cache, err := lru.New[string, []float64](maxEntries)
	if err != nil {
		return nil, fmt.Errorf("create embedding cache: %w", err)
	}
	return &CachedProvider{
		provider: provider,
		cache:    cache,
		logger:   logging.GetLogger("embedding.cache"),
	}, nil
}

// EmbedKeyed returns the vector for text, serving from cache when the
// key has been embedded before.
func (c *CachedProvider) EmbedKeyed(ctx context.Context, key, text string) ([]float64, error) {
	if vec, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return vec, nil
	}
	c.misses.Add(1)

	vec, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, vec)
	c.logger.Debug("cached embedding for %s (dim=%d)", key, len(vec))
	return vec, nil
}

// Embed implements Provider without caching (no stable key)
func (c *CachedProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	return c.provider.Embed(ctx, text)
}

// EmbedBatch implements Provider without caching (no stable keys)
func (c *CachedProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	return c.provider.EmbedBatch(ctx, texts)
}

// Stats returns cache hit/miss counters
func (c *CachedProvider) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
