// Package covercache holds decoded cover thumbnails in a bounded LRU.
//
// Get is the read path and belongs to the presentation goroutine: it converts
// raw images to their presentation form on first access. Render workers are
// handed a Writer and can only store values.
package covercache

import (
	"container/list"
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/tOgg1/shelf/internal/models"
)

// DefaultLimit is the entry limit used when none is configured.
const DefaultLimit = 200

// Converter turns a raw decoded image into its presentation form.
type Converter func(img image.Image) Pixmap

// Reader is the presentation-side view of a cache.
type Reader interface {
	Get(id models.BookID) Value
}

// Writer is the render-worker-side view of a cache.
type Writer interface {
	Set(id models.BookID, value Value)
}

// Invalidator is what the library registry needs from a cache.
type Invalidator interface {
	Handle() string
	Invalidate(id models.BookID)
}

// Option configures a Cache.
type Option func(*Cache)

// WithConverter sets the raw-to-presentation converter used by Get.
func WithConverter(fn Converter) Option {
	return func(c *Cache) {
		c.convert = fn
	}
}

// Cache is a goroutine-safe LRU of cover values keyed by book id. The mutex is
// only held across list and map mutation.
type Cache struct {
	handle  string
	limit   int
	convert Converter

	mu      sync.Mutex
	order   *list.List
	entries map[models.BookID]*list.Element
	gen     uint64
}

type cacheEntry struct {
	id    models.BookID
	value Value
	gen   uint64
}

// New creates a cache holding at most limit entries.
func New(limit int, opts ...Option) *Cache {
	if limit <= 0 {
		limit = DefaultLimit
	}
	c := &Cache{
		handle:  uuid.NewString(),
		limit:   limit,
		order:   list.New(),
		entries: make(map[models.BookID]*list.Element, limit),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Handle identifies this cache in invalidation registries.
func (c *Cache) Handle() string { return c.handle }

// Limit returns the current entry limit.
func (c *Cache) Limit() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limit
}

// Grow raises the entry limit to at least n and reports whether it changed.
// The limit never shrinks.
func (c *Cache) Grow(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= c.limit {
		return false
	}
	c.limit = n
	return true
}

// Get returns the value for id, or an unset Value on a miss. A hit becomes the
// most recently used entry. Must only be called from the presentation goroutine.
func (c *Cache) Get(id models.BookID) Value {
	c.mu.Lock()
	elem, ok := c.entries[id]
	if !ok {
		c.mu.Unlock()
		return Value{}
	}
	c.order.MoveToFront(elem)
	entry := elem.Value.(*cacheEntry)
	value, gen := entry.value, entry.gen
	c.mu.Unlock()

	if !value.needsConversion() || c.convert == nil {
		return value
	}

	pixmap := c.convert(value.raw)
	converted := Value{kind: KindImage, pixmap: &pixmap}

	c.mu.Lock()
	// A concurrent Set or Invalidate wins over the conversion.
	if elem, ok := c.entries[id]; ok {
		if entry := elem.Value.(*cacheEntry); entry.gen == gen {
			entry.value = converted
		}
	}
	c.mu.Unlock()
	return converted
}

// Set stores value for id as the most recently used entry, evicting the least
// recently used entry when the limit is exceeded. Unset values are ignored.
func (c *Cache) Set(id models.BookID, value Value) {
	if value.IsUnset() {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	if elem, ok := c.entries[id]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.gen = c.gen
		c.order.MoveToFront(elem)
		return
	}

	c.entries[id] = c.order.PushFront(&cacheEntry{id: id, value: value, gen: c.gen})
	if c.order.Len() > c.limit {
		if last := c.order.Back(); last != nil {
			c.order.Remove(last)
			delete(c.entries, last.Value.(*cacheEntry).id)
		}
	}
}

// Invalidate removes id if present.
func (c *Cache) Invalidate(id models.BookID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[id]; ok {
		c.order.Remove(elem)
		delete(c.entries, id)
	}
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.entries = make(map[models.BookID]*list.Element, c.limit)
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Keys returns the cached ids from most to least recently used. It does not
// touch recency.
func (c *Cache) Keys() []models.BookID {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]models.BookID, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*cacheEntry).id)
	}
	return keys
}
