// Package cache memoizes upstream queries by key.
// Identical in-flight queries are deduplicated and results are served until
// they expire or are invalidated.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const defaultTTL = 5 * time.Minute

type entry struct {
	value     interface{}
	fetchedAt time.Time
	stale     bool
}

type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu         sync.Mutex
	entries    map[string]*entry
	generation uint64 // bumped by Invalidate
}

func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{ttl: ttl, now: time.Now, entries: make(map[string]*entry)}
}

// SetClock replaces the clock used to expire entries.
func (c *Cache) SetClock(now func() time.Time) {
	c.now = now
}

func (c *Cache) lookup(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.stale || c.now().Sub(e.fetchedAt) >= c.ttl {
		return nil, false
	}
	return e.value, true
}

// Get returns the cached value of key, or calls fetch to get it.
// Concurrent calls for the same key share one fetch. The fetch is not
// cancelled when the caller that started it goes away. Errors are not cached.
func (c *Cache) Get(ctx context.Context, key string, fetch func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	if v, ok := c.lookup(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (interface{}, error) {
		c.mu.Lock()
		gen := c.generation
		c.mu.Unlock()

		v, err := fetch(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		// invalidated while fetching: keep the value for this round only
		c.entries[key] = &entry{value: v, fetchedAt: c.now(), stale: gen != c.generation}
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate marks the entries whose key starts with one of prefixes as stale,
// every entry when no prefix is given. Stale entries are fetched again on their next Get.
func (c *Cache) Invalidate(prefixes ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	var n int
	for key, e := range c.entries {
		if matches(key, prefixes) {
			e.stale = true
			n++
		}
	}
	return n
}

func matches(key string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}

// Fetch is the typed form of Cache.Get.
func Fetch[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
