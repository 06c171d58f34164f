// Package cache implements a bounded, time-expiring result store keyed by
// request fingerprints. A single instance is shared by all concurrent tool
// invocations; it is always passed explicitly, never referenced as a global.
package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	// DefaultCapacity bounds the number of live entries.
	DefaultCapacity = 2048
	// DefaultTTL is how long an entry stays visible after insertion.
	DefaultTTL = time.Hour
)

// Store is the capability components depend on. Tests substitute their own
// implementations; production uses *Cache.
type Store interface {
	Get(key string) (interface{}, bool)
	Put(key string, value interface{})
}

type entry struct {
	key        string
	value      interface{}
	insertedAt time.Time
}

// Cache is a capacity-bounded TTL cache. When full, the least-recently-inserted
// entry is evicted first. Entries are never mutated in place; Put replaces them
// wholesale. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = oldest insertion
	capacity int
	ttl      time.Duration
}

// New creates a cache with the given capacity and TTL. Non-positive values
// fall back to the defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
	}
}

// Get returns the value stored under key, or false if the key is absent or its
// entry has expired. Expired entries are logically absent even before Sweep
// removes them physically.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := elem.Value.(*entry)
	if time.Since(e.insertedAt) >= c.ttl {
		c.removeLocked(elem)
		return nil, false
	}
	return e.value, true
}

// Put stores value under key, replacing any existing entry and refreshing its
// insertion timestamp. Evicts oldest entries when at capacity.
func (c *Cache) Put(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}
	for c.order.Len() >= c.capacity {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
	e := &entry{key: key, value: value, insertedAt: time.Now()}
	c.entries[key] = c.order.PushBack(e)
}

// Sweep physically removes expired entries and returns how many were dropped.
// Intended to run on a schedule; correctness does not depend on it.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if time.Since(elem.Value.(*entry).insertedAt) >= c.ttl {
			c.removeLocked(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// Len returns the number of physically present entries, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *Cache) removeLocked(elem *list.Element) {
	e := elem.Value.(*entry)
	c.order.Remove(elem)
	delete(c.entries, e.key)
}
