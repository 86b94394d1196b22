// Package cache memoises slow lookups for a fixed time-to-live.
//
// Entries are timestamped when inserted and served until they are ttl old.
// A failed fetch is returned to the caller and never stored, so the next
// lookup for the same key fetches again. Concurrent lookups of the same
// missing key share a single fetch.
package cache

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultSize bounds the number of keys held by a Cache.
const DefaultSize = 4096

// FetchFunc loads the authoritative value for key.
type FetchFunc[K comparable, V any] func(ctx context.Context, key K) (V, error)

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// Cache is a keyed time-to-live cache. It is safe for concurrent use.
type Cache[K comparable, V any] struct {
	ttl     time.Duration
	fetch   FetchFunc[K, V]
	entries *lru.Cache[K, entry[V]]
	group   singleflight.Group

	// Now is the clock used to timestamp entries.
	Now func() time.Time

	// OnFetch is called before every fetch, if set.
	OnFetch func()
}

// New returns an empty Cache.
func New[K comparable, V any](ttl time.Duration, fetch FetchFunc[K, V]) *Cache[K, V] {
	entries, err := lru.New[K, entry[V]](DefaultSize)
	if err != nil {
		panic(err) // only returned for a non-positive size
	}
	return &Cache[K, V]{
		ttl:     ttl,
		fetch:   fetch,
		entries: entries,
		Now:     time.Now,
	}
}

// Get returns the value stored for key while it is fresh,
// otherwise it fetches, stores and returns a new one.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	if e, ok := c.entries.Get(key); ok {
		if c.Now().Sub(e.insertedAt) < c.ttl {
			return e.value, nil
		}
		c.entries.Remove(key)
	}

	v, err, _ := c.group.Do(fmt.Sprint(key), func() (interface{}, error) {
		if c.OnFetch != nil {
			c.OnFetch()
		}
		value, err := c.fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		c.Set(key, value)
		return value, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}

	value, _ := v.(V)
	return value, nil
}

// Set stores value for key, timestamped now.
func (c *Cache[K, V]) Set(key K, value V) {
	c.entries.Add(key, entry[V]{value: value, insertedAt: c.Now()})
}

// Forget drops the entry for key.
func (c *Cache[K, V]) Forget(key K) {
	c.entries.Remove(key)
}

// Purge drops every entry.
func (c *Cache[K, V]) Purge() {
	c.entries.Purge()
}

// Value caches a single value, such as a full member list.
type Value[V any] struct {
	*Cache[struct{}, V]
}

// NewValue returns an empty Value.
func NewValue[V any](ttl time.Duration, fetch func(ctx context.Context) (V, error)) *Value[V] {
	return &Value[V]{New[struct{}, V](ttl, func(ctx context.Context, _ struct{}) (V, error) {
		return fetch(ctx)
	})}
}

// Get returns the cached value while it is fresh, otherwise it fetches a new one.
func (v *Value[V]) Get(ctx context.Context) (V, error) {
	return v.Cache.Get(ctx, struct{}{})
}
