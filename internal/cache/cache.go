package cache

import (
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a size-bounded LRU whose entries also expire after a fixed age.
// It is safe for concurrent use.
type TTL[V any] struct {
	lru *lru.Cache[string, item[V]]
	ttl time.Duration
	now func() time.Time
}

// New creates a cache holding at most size entries for ttl each
func New[V any](size int, ttl time.Duration) (*TTL[V], error) {
	l, err := lru.New[string, item[V]](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &TTL[V]{lru: l, ttl: ttl, now: time.Now}, nil
}

// Set stores value under key
func (c *TTL[V]) Set(key string, value V) {
	c.lru.Add(key, item[V]{value: value, expiresAt: c.now().Add(c.ttl)})
}

// Get returns the cached value, dropping it if it has expired
func (c *TTL[V]) Get(key string) (V, bool) {
	var zero V
	it, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if c.ttl > 0 && c.now().After(it.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return it.value, true
}

// Delete removes key
func (c *TTL[V]) Delete(key string) {
	c.lru.Remove(key)
}

// Purge empties the cache
func (c *TTL[V]) Purge() {
	c.lru.Purge()
}

// Len returns the number of entries, expired ones included
func (c *TTL[V]) Len() int {
	return c.lru.Len()
}
