// Package lru implements a generic, thread-safe LRU cache with per-entry
// expiry. It is used as an in-process hot layer in front of the external
// prompt cache store.
//
// Time complexity: O(1) for Get, Put, Delete, Len.
package lru

import (
	"sync"
	"time"
)

// node is a doubly linked list node holding a key-value pair.
type node[K comparable, V any] struct {
	key       K
	val       V
	expiresAt time.Time // zero means no expiry
	prev      *node[K, V]
	next      *node[K, V]
}

// Cache is a generic, thread-safe LRU cache with optional per-entry TTL.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*node[K, V]
	head     *node[K, V] // most recently used (sentinel)
	tail     *node[K, V] // least recently used (sentinel)
	now      func() time.Time
}

// New creates an LRU cache with the given capacity.
// Panics if capacity < 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}

	head := &node[K, V]{}
	tail := &node[K, V]{}
	head.next = tail
	tail.prev = head

	return &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*node[K, V], capacity),
		head:     head,
		tail:     tail,
		now:      time.Now,
	}
}

// Get retrieves a value by key. Expired entries are removed and reported as
// missing. O(1).
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !n.expiresAt.IsZero() && c.now().After(n.expiresAt) {
		c.remove(n)
		delete(c.items, key)
		var zero V
		return zero, false
	}

	c.moveToFront(n)
	return n.val, true
}

// Put inserts or updates a key-value pair with no expiry.
func (c *Cache[K, V]) Put(key K, val V) {
	c.PutTTL(key, val, 0)
}

// PutTTL inserts or updates a key-value pair that expires after ttl.
// A ttl <= 0 means the entry never expires. If the cache is at capacity,
// the least recently used entry is evicted. O(1).
func (c *Cache[K, V]) PutTTL(key K, val V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if n, ok := c.items[key]; ok {
		n.val = val
		n.expiresAt = expiresAt
		c.moveToFront(n)
		return
	}

	if len(c.items) >= c.capacity {
		victim := c.tail.prev
		c.remove(victim)
		delete(c.items, victim.key)
	}

	n := &node[K, V]{key: key, val: val, expiresAt: expiresAt}
	c.items[key] = n
	c.pushFront(n)
}

// Delete removes a key from the cache. Returns true if the key existed. O(1).
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		return false
	}

	c.remove(n)
	delete(c.items, key)
	return true
}

// Len returns the current number of entries, including not-yet-collected
// expired ones. O(1).
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// PurgeExpired removes all expired entries and returns how many were
// dropped. O(n).
func (c *Cache[K, V]) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	dropped := 0
	for cur := c.head.next; cur != c.tail; {
		next := cur.next
		if !cur.expiresAt.IsZero() && now.After(cur.expiresAt) {
			c.remove(cur)
			delete(c.items, cur.key)
			dropped++
		}
		cur = next
	}
	return dropped
}

// Clear removes all entries from the cache. O(n).
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head.next = c.tail
	c.tail.prev = c.head
	c.items = make(map[K]*node[K, V], c.capacity)
}

// --- internal linked list operations (caller must hold lock) ---

func (c *Cache[K, V]) remove(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}

func (c *Cache[K, V]) pushFront(n *node[K, V]) {
	n.next = c.head.next
	n.prev = c.head
	c.head.next.prev = n
	c.head.next = n
}

func (c *Cache[K, V]) moveToFront(n *node[K, V]) {
	c.remove(n)
	c.pushFront(n)
}
