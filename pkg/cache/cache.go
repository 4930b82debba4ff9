package cache

import (
	"errors"
	"log"
	"sync"
)

// Cache is a weight-bounded LRU cache. Callers assign each item a weight on
// insert, and the cache evicts least recently used items once the total
// weight exceeds the configured budget. It's used for records that are
// immutable once created, like mint metadata.
type Cache interface {
	// SetVerbose toggles eviction logging
	SetVerbose(verbose bool)

	// GetWeight returns the total weight of cached items
	GetWeight() int

	// GetBudget returns the maximum total weight before eviction kicks in
	GetBudget() int

	// Insert adds an item with the provided weight. Keys must be unique.
	Insert(key string, value interface{}, weight int) error

	// Retrieve fetches an item by key and marks it as recently used
	Retrieve(key string) (interface{}, bool)

	// Clear drops all cached items
	Clear()
}

// lruEntry is a node in the recency list
type lruEntry struct {
	next   *lruEntry
	prev   *lruEntry
	key    string
	value  interface{}
	weight int
}

type cache struct {
	mu      sync.Mutex
	head    *lruEntry
	tail    *lruEntry
	lookup  map[string]*lruEntry
	weight  int
	budget  int
	verbose bool
}

// NewCache returns a Cache with the provided weight budget
func NewCache(budget int) Cache {
	return &cache{
		lookup: make(map[string]*lruEntry),
		budget: budget,
	}
}

func (c *cache) SetVerbose(verbose bool) {
	c.verbose = verbose
}

func (c *cache) GetWeight() int {
	return c.weight
}

func (c *cache) GetBudget() int {
	return c.budget
}

func (c *cache) Insert(key string, value interface{}, weight int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lookup[key]; ok {
		return errors.New("key already cached")
	}

	entry := &lruEntry{
		key:    key,
		value:  value,
		weight: weight,
		next:   c.head,
	}

	if c.head != nil {
		c.head.prev = entry
	}
	c.head = entry
	if c.tail == nil {
		c.tail = entry
	}

	c.lookup[key] = entry
	c.weight += weight

	// Evict from the cold end until we're back under budget
	for c.weight > c.budget && c.tail != nil {
		evicted := c.tail
		if c.tail.prev != nil {
			c.tail.prev.next = nil
		} else {
			c.head = nil
		}
		c.tail = c.tail.prev
		c.weight -= evicted.weight
		delete(c.lookup, evicted.key)

		if c.verbose {
			log.Printf(
				"cache: evicted %s (weight %d, remaining budget %d)",
				evicted.key, evicted.weight, c.budget-c.weight,
			)
		}
	}

	return nil
}

func (c *cache) Retrieve(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup[key]
	if !ok {
		return nil, false
	}

	// Promote to the hot end of the recency list
	if entry != c.head {
		if entry.next != nil {
			entry.next.prev = entry.prev
		}
		if entry.prev != nil {
			entry.prev.next = entry.next
		}
		if entry == c.tail {
			c.tail = entry.prev
		}

		entry.next = c.head
		entry.prev = nil
		if c.head != nil {
			c.head.prev = entry
		}
		c.head = entry
	}

	return entry.value, true
}

func (c *cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head = nil
	c.tail = nil
	c.lookup = make(map[string]*lruEntry)
	c.weight = 0
}
