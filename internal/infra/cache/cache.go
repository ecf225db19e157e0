// Package cache provides the in-memory TTL cache that fronts the
// decrypted user settings. Single-process only; a multi-instance
// deployment would back this with Redis instead.
package cache

import (
	"sync"
	"time"
)

// sweepEvery controls how many writes happen between inline sweeps
// of expired entries.
const sweepEvery = 64

type item[T any] struct {
	value    T
	deadline time.Time
}

// InMemory is a thread-safe TTL cache. Expired entries are dropped
// lazily on read and swept inline every sweepEvery writes, so the
// cache needs no background goroutine.
type InMemory[T any] struct {
	mu     sync.Mutex
	items  map[string]item[T]
	ttl    time.Duration
	writes int
}

// New creates a cache whose entries live for ttl after each Set.
func New[T any](ttl time.Duration) *InMemory[T] {
	return &InMemory[T]{
		items: make(map[string]item[T]),
		ttl:   ttl,
	}
}

// Get returns the cached value, or false when absent or expired.
// An expired entry is removed on the spot.
func (c *InMemory[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	it, ok := c.items[key]
	if !ok {
		var zero T
		return zero, false
	}
	if time.Now().After(it.deadline) {
		delete(c.items, key)
		var zero T
		return zero, false
	}
	return it.value, true
}

// Set stores a value, resetting its TTL.
func (c *InMemory[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[T]{value: value, deadline: time.Now().Add(c.ttl)}

	c.writes++
	if c.writes%sweepEvery == 0 {
		c.sweepLocked()
	}
}

// Delete removes a key. Deleting an absent key is a no-op.
func (c *InMemory[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

func (c *InMemory[T]) sweepLocked() {
	now := time.Now()
	for k, it := range c.items {
		if now.After(it.deadline) {
			delete(c.items, k)
		}
	}
}
