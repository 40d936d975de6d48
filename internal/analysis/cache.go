package analysis

import (
	"fmt"
	"sync"

	"github.com/couchcryptid/flood-recovery-service/internal/domain"
)

// resultCache is a simple thread-safe LRU cache for processed results.
// Only seeded requests are cached; an unseeded run is non-deterministic
// and must not be replayed.
type resultCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*cacheEntry
	head       *cacheEntry // most recently used
	tail       *cacheEntry // least recently used
}

type cacheEntry struct {
	key   string
	value domain.FloodEventResult
	prev  *cacheEntry
	next  *cacheEntry
}

func newResultCache(maxEntries int) *resultCache {
	return &resultCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*cacheEntry),
	}
}

// cacheKey derives a lookup key from the request parameters. Returns
// ok=false for unseeded requests, which are never cached.
func cacheKey(req domain.ProcessRequest) (string, bool) {
	if req.Seed == nil {
		return "", false
	}
	return fmt.Sprintf("%s|%.6f,%.6f|%d|%d|%d|%.4f|%.1f",
		req.FloodDate.UTC().Format("2006-01-02"),
		req.Location.Lat, req.Location.Lon,
		req.NumTimeSteps, req.GridSize, *req.Seed,
		req.RecoveryThreshold, req.HorizonDays,
	), true
}

func (c *resultCache) get(key string) (domain.FloodEventResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return domain.FloodEventResult{}, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *resultCache) put(key string, value domain.FloodEventResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &cacheEntry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *resultCache) moveToFront(e *cacheEntry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *resultCache) addToFront(e *cacheEntry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *resultCache) remove(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *resultCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
