package embedding

import (
	"context"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/patrickmn/go-cache"
)

// VectorCache stores embeddings by key. Implementations must return copies.
type VectorCache interface {
	Get(ctx context.Context, key string) ([]float32, bool)
	Set(ctx context.Context, key string, vector []float32) error
}

type MemoryVectorCache struct {
	cache *cache.Cache
}

// NewMemoryVectorCache keeps vectors in process. A ttl of zero or less means
// entries never expire.
func NewMemoryVectorCache(ttl time.Duration) *MemoryVectorCache {
	if ttl <= 0 {
		return &MemoryVectorCache{cache: cache.New(cache.NoExpiration, 0)}
	}
	return &MemoryVectorCache{cache: cache.New(ttl, 2*ttl)}
}

func (c *MemoryVectorCache) Get(_ context.Context, key string) ([]float32, bool) {
	x, found := c.cache.Get(key)
	if !found {
		return nil, false
	}
	return append([]float32(nil), x.([]float32)...), true
}

func (c *MemoryVectorCache) Set(_ context.Context, key string, vector []float32) error {
	c.cache.Set(key, append([]float32(nil), vector...), cache.DefaultExpiration)
	return nil
}

type cachedProvider struct {
	next  EmbeddingProvider
	cache VectorCache
}

// WithCache memoises Generate results. The key covers model, task type and
// text, so a hit returns exactly what the provider returned for that input.
func WithCache(next EmbeddingProvider, c VectorCache) EmbeddingProvider {
	if c == nil {
		return next
	}
	return &cachedProvider{next: next, cache: c}
}

func (p *cachedProvider) ModelName() string {
	return p.next.ModelName()
}

func (p *cachedProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	key := cacheKey(p.next.ModelName(), taskType, text)
	if vec, ok := p.cache.Get(ctx, key); ok {
		return newResponse(vec), nil
	}

	res, err := p.next.Generate(ctx, text, taskType)
	if err != nil {
		return nil, err
	}
	// A failed write only costs a future miss.
	_ = p.cache.Set(ctx, key, res.Vector())
	return res, nil
}

func cacheKey(model, taskType, text string) string {
	return model + ":" + taskType + ":" + strconv.Itoa(len(text)) + ":" + strconv.FormatUint(xxhash.Sum64String(text), 16)
}
