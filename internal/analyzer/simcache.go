package analyzer

import (
	"container/list"
	"sync"
)

// similarityCache is a bounded LRU of computed pair similarity scores.
// Keys are symmetric: A-vs-B and B-vs-A share one entry. The cache is safe
// for concurrent use by scoring workers; inserts are idempotent (the same
// key always maps to the same computed score), so racing writers are
// harmless.
type similarityCache struct {
	capacity int

	mu      sync.Mutex
	order   *list.List // front = most recently used
	entries map[string]*list.Element
}

type cacheEntry struct {
	key   string
	score int
}

// newSimilarityCache creates a cache bounded to capacity entries.
// A non-positive capacity disables caching.
func newSimilarityCache(capacity int) *similarityCache {
	return &similarityCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// pairCacheKey builds the symmetric lookup key for two token encodings.
func pairCacheKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "\x00" + b
}

// get returns the cached score for the key, marking it recently used.
func (c *similarityCache) get(key string) (int, bool) {
	if c.capacity <= 0 {
		return 0, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).score, true
}

// put stores a score, evicting the least recently used entry when full.
func (c *similarityCache) put(key string, score int) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*cacheEntry).score = score
		return
	}
	elem := c.order.PushFront(&cacheEntry{key: key, score: score})
	c.entries[key] = elem
	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
}

// len returns the number of cached entries.
func (c *similarityCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
