package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/Calebe94/usgs-earthquake/internal/domain"
	"github.com/Calebe94/usgs-earthquake/internal/observability"
)

// ReadThroughStore wraps an EntryStore with an in-process LRU holding
// per-city entry lists. Read-through only: the inner store stays the single
// source of truth, and an insert invalidates the city's cached list.
type ReadThroughStore struct {
	inner   EntryStore
	cache   *lruCache
	metrics *observability.Metrics
}

// NewReadThrough creates a cache decorator keeping up to maxCities entry
// lists in memory.
func NewReadThrough(inner EntryStore, maxCities int, metrics *observability.Metrics) *ReadThroughStore {
	return &ReadThroughStore{
		inner:   inner,
		cache:   newLRUCache(maxCities),
		metrics: metrics,
	}
}

func (s *ReadThroughStore) ListEntries(ctx context.Context, cityID int64) ([]Entry, error) {
	if entries, ok := s.cache.get(cityID); ok {
		s.metrics.EntryCache.WithLabelValues("hit").Inc()
		return entries, nil
	}
	s.metrics.EntryCache.WithLabelValues("miss").Inc()

	entries, err := s.inner.ListEntries(ctx, cityID)
	if err != nil {
		return nil, err
	}
	s.cache.put(cityID, entries)
	return entries, nil
}

func (s *ReadThroughStore) Insert(ctx context.Context, e Entry) error {
	err := s.inner.Insert(ctx, e)
	if err == nil || errors.Is(err, domain.ErrDuplicateRange) {
		// A duplicate means another writer landed an entry this process
		// has not seen, so the cached list is stale either way.
		s.cache.remove(e.CityID)
	}
	return err
}

// lruCache is a simple thread-safe LRU for per-city entry lists.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[int64]*lruEntry
	head       *lruEntry // most recently used
	tail       *lruEntry // least recently used
}

type lruEntry struct {
	key   int64
	value []Entry
	prev  *lruEntry
	next  *lruEntry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[int64]*lruEntry),
	}
}

func (c *lruCache) get(key int64) ([]Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key int64, value []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &lruEntry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) remove(key int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return
	}
	delete(c.entries, key)
	c.unlink(e)
}

func (c *lruCache) moveToFront(e *lruEntry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *lruEntry) {
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

func (c *lruCache) unlink(e *lruEntry) {
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

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
