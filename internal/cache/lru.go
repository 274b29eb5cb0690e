// Marquee - Collaborative Movie Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package cache

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultLRUCapacity = 10000
	defaultLRUTTL      = 5 * time.Minute
)

type lruItem[V any] struct {
	key     string
	value   V
	expires time.Time
}

// LRUCache is a typed, mutex-guarded LRU whose entries also expire after a
// fixed TTL. Expired entries are dropped lazily by Get, or in bulk by
// CleanupExpired.
type LRUCache[V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	order    *list.List // front is most recent
	index    map[string]*list.Element
	now      func() time.Time

	hits, misses, evictions int64
}

// NewLRUCache returns a cache holding at most capacity entries for ttl each.
// Non-positive arguments select 10000 entries and five minutes.
func NewLRUCache[V any](capacity int, ttl time.Duration) *LRUCache[V] {
	if capacity <= 0 {
		capacity = defaultLRUCapacity
	}
	if ttl <= 0 {
		ttl = defaultLRUTTL
	}
	return &LRUCache[V]{
		capacity: capacity,
		ttl:      ttl,
		order:    list.New(),
		index:    make(map[string]*list.Element),
		now:      time.Now,
	}
}

// Get returns the live value for key and marks it most recently used.
func (c *LRUCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		item := el.Value.(*lruItem[V])
		if !c.now().After(item.expires) {
			c.order.MoveToFront(el)
			c.hits++
			return item.value, true
		}
		c.drop(el)
	}
	c.misses++
	var zero V
	return zero, false
}

// Add stores value under key with a fresh TTL, evicting from the cold end
// when over capacity.
func (c *LRUCache[V]) Add(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	expires := c.now().Add(c.ttl)
	if el, ok := c.index[key]; ok {
		item := el.Value.(*lruItem[V])
		item.value, item.expires = value, expires
		c.order.MoveToFront(el)
		return
	}

	c.index[key] = c.order.PushFront(&lruItem[V]{key: key, value: value, expires: expires})
	for c.order.Len() > c.capacity {
		c.drop(c.order.Back())
		c.evictions++
	}
}

// Remove deletes key and reports whether it was present.
func (c *LRUCache[V]) Remove(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[key]
	if ok {
		c.drop(el)
	}
	return ok
}

func (c *LRUCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Clear empties the cache. Hit and miss counters survive.
func (c *LRUCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.index = make(map[string]*list.Element)
}

// CleanupExpired drops every expired entry and returns how many it dropped.
func (c *LRUCache[V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*lruItem[V]).expires) {
			c.drop(el)
			removed++
		}
		el = prev
	}
	return removed
}

func (c *LRUCache[V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Evictions: c.evictions, Size: c.order.Len()}
}

// drop must be called with mu held.
func (c *LRUCache[V]) drop(el *list.Element) {
	item := c.order.Remove(el).(*lruItem[V])
	delete(c.index, item.key)
}
