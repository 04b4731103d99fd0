package pipeline

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/couchcryptid/drought-index-etl/internal/domain"
	"github.com/couchcryptid/drought-index-etl/internal/observability"
	"github.com/google/uuid"
)

// Computer builds an index report for one series request.
type Computer interface {
	Compute(ctx context.Context, req domain.SeriesRequest) (domain.IndexReport, error)
}

// cacheNamespace seeds request fingerprints.
var cacheNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:drought-index-etl:request"))

// CachedComputer wraps a Computer with an in-memory LRU cache keyed by the
// request content. A cached report keeps its original processed_at.
type CachedComputer struct {
	inner   Computer
	cache   *lruCache[uuid.UUID, domain.IndexReport]
	metrics *observability.Metrics
}

// NewCachedComputer creates a cache decorator holding up to maxEntries reports.
func NewCachedComputer(inner Computer, maxEntries int, metrics *observability.Metrics) *CachedComputer {
	return &CachedComputer{
		inner:   inner,
		cache:   newLRUCache[uuid.UUID, domain.IndexReport](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedComputer) Compute(ctx context.Context, req domain.SeriesRequest) (domain.IndexReport, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return c.inner.Compute(ctx, req)
	}
	key := uuid.NewSHA1(cacheNamespace, data)

	if report, ok := c.cache.get(key); ok {
		c.metrics.ReportCache.WithLabelValues(observability.CacheHit).Inc()
		return report, nil
	}
	c.metrics.ReportCache.WithLabelValues(observability.CacheMiss).Inc()

	report, err := c.inner.Compute(ctx, req)
	if err != nil {
		return report, err
	}
	c.cache.put(key, report)
	return report, nil
}

// lruCache is a small thread-safe LRU cache.
type lruCache[K comparable, V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[K]*entry[K, V]
	head       *entry[K, V] // most recently used
	tail       *entry[K, V] // least recently used
}

type entry[K comparable, V any] struct {
	key   K
	value V
	prev  *entry[K, V]
	next  *entry[K, V]
}

func newLRUCache[K comparable, V any](maxEntries int) *lruCache[K, V] {
	return &lruCache[K, V]{
		maxEntries: maxEntries,
		entries:    make(map[K]*entry[K, V]),
	}
}

func (c *lruCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[K, V]) put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[K, V]{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
		delete(c.entries, c.tail.key)
		c.unlink(c.tail)
	}
}

func (c *lruCache[K, V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[K, V]) moveToFront(e *entry[K, V]) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache[K, V]) pushFront(e *entry[K, V]) {
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

func (c *lruCache[K, V]) unlink(e *entry[K, V]) {
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
