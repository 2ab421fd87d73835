// Package cache holds generated audio for the lifetime of a session. Nothing
// is written to disk.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Mrnobodysmkn/TTS-04/internal/pcm"
)

// ErrItemTooLarge is returned when an item exceeds the cache capacity.
var ErrItemTooLarge = errors.New("item too large for cache")

// Stats holds cache performance metrics.
type Stats struct {
	Capacity  int64   // Maximum capacity in bytes
	Size      int64   // Current size in bytes
	ItemCount int64   // Number of items in cache
	Hits      int64   // Number of cache hits
	Misses    int64   // Number of cache misses
	Evictions int64   // Number of evictions
	HitRate   float64 // hits / (hits + misses)
}

// MemoryCache is an in-memory payload cache with LRU eviction and a size
// limit in bytes.
type MemoryCache struct {
	capacity int64
	size     int64

	items    map[string]*list.Element
	eviction *list.List

	mu    sync.Mutex
	stats Stats
}

type entry struct {
	key       string
	value     pcm.Payload
	size      int64
	timestamp time.Time
}

// NewMemoryCache creates a cache holding at most capacity bytes of payload.
func NewMemoryCache(capacity int64) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		eviction: list.New(),
	}
}

// Key derives a cache key from the inputs of a generation call.
func Key(provider, voice, text string) string {
	data := fmt.Sprintf("%s|%s|%s", provider, voice, text)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:16])
}

// Get retrieves a payload and marks it most recently used.
func (c *MemoryCache) Get(key string) (pcm.Payload, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		c.stats.Misses++
		return "", false
	}

	c.eviction.MoveToFront(elem)
	c.stats.Hits++
	return elem.Value.(*entry).value, true
}

// Put stores a payload, evicting the least recently used entries to make
// room.
func (c *MemoryCache) Put(key string, value pcm.Payload) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	valueSize := int64(len(value))

	if elem, ok := c.items[key]; ok {
		c.eviction.MoveToFront(elem)
		e := elem.Value.(*entry)
		c.size += valueSize - e.size
		e.value = value
		e.size = valueSize
		e.timestamp = time.Now()

		for c.size > c.capacity && c.eviction.Len() > 1 {
			c.evictOldest()
		}
		return nil
	}

	if valueSize > c.capacity {
		return ErrItemTooLarge
	}

	for c.size+valueSize > c.capacity && c.eviction.Len() > 0 {
		c.evictOldest()
	}

	elem := c.eviction.PushFront(&entry{
		key:       key,
		value:     value,
		size:      valueSize,
		timestamp: time.Now(),
	})
	c.items[key] = elem
	c.size += valueSize
	return nil
}

// Delete removes an entry.
func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

// Clear removes all entries.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	c.size = 0
}

// Size returns the current cache size in bytes.
func (c *MemoryCache) Size() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

// Len returns the number of entries.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Capacity = c.capacity
	stats.Size = c.size
	stats.ItemCount = int64(len(c.items))
	if stats.Hits+stats.Misses > 0 {
		stats.HitRate = float64(stats.Hits) / float64(stats.Hits+stats.Misses)
	}
	return stats
}

// evictOldest removes the least recently used item (must be called with lock held).
func (c *MemoryCache) evictOldest() {
	if elem := c.eviction.Back(); elem != nil {
		c.removeElement(elem)
		c.stats.Evictions++
	}
}

// removeElement removes an element from the cache (must be called with lock held).
func (c *MemoryCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	e := elem.Value.(*entry)
	delete(c.items, e.key)
	c.size -= e.size
}
