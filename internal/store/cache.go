package store

import (
	"container/list"
	"sync"

	"github.com/aira-xamk/airadash/internal/metrics"
)

// queryCache memoizes query results for the lifetime of the process.
// Keys are the rebound SQL text plus a canonical encoding of the bound
// arguments, so two requests with the same filters share an entry no
// matter what order the filter sets arrived in (the builder sorts them).
//
// Entries are never invalidated; the backing store is read-mostly and a
// stale read within one session is acceptable. A mutex guards the
// read-or-insert so concurrent hosts can share one cache safely.
type queryCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type cacheEntry struct {
	key   string
	value any
}

func newQueryCache(capacity int) *queryCache {
	return &queryCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// get returns the cached value for key, marking it most recently used.
func (c *queryCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		metrics.QueryCacheMisses.Inc()
		return nil, false
	}
	c.ll.MoveToFront(el)
	metrics.QueryCacheHits.Inc()
	return el.Value.(*cacheEntry).value, true
}

// put stores value under key, evicting the least recently used entry
// once the cache is at capacity.
func (c *queryCache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*cacheEntry).value = value
		return
	}

	el := c.ll.PushFront(&cacheEntry{key: key, value: value})
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheEntry).key)
		}
	}
}

func (c *queryCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}
