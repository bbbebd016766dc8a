package embedder

import lru "github.com/hashicorp/golang-lru/v2"

// DefaultCacheSize is the number of embeddings kept in memory per provider.
const DefaultCacheSize = 10000

// Cache provides in-memory LRU caching of embeddings by content hash.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache creates a new embedding cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](maxLen)
	if err != nil {
		// Only reachable with a non-positive size, which is already handled.
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get retrieves a copy of a cached vector. The copy keeps caller mutations
// from reaching the cached value.
func (c *Cache) Get(hash string) ([]float32, bool) {
	vec, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Set stores a vector under the given content hash.
func (c *Cache) Set(hash string, vec []float32) {
	c.cache.Add(hash, vec)
}

// Len returns the current cache size.
func (c *Cache) Len() int {
	return c.cache.Len()
}
