package broker

import (
	"context"
	"sync"
	"time"
)

// loader produces the value to cache for a key that is missing or stale.
type loader[T any] func(ctx context.Context) (T, error)

// cache is a bounded, per-key TTL, singleflight memoizing cache, adapted
// from the teacher's `perch/perch.go` for the attribute broker's
// `fresh`-bypassable caching layer (§4.3: "Applies the fresh flag: if
// true, bypass any caching layer in the broker"). Unlike perch's own
// intrusive doubly-linked LRU list tuned for zero-alloc hits, this keeps a
// plain map plus an insertion-order slice for eviction — the broker's
// caching requirement is correctness (one load per key in flight, expiry
// honored) rather than perch's hot-path allocation budget, so the simpler
// structure is the right trade here.
type cache[T any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[uint64]*cacheEntry[T]
	order    []uint64 // insertion order, oldest first, for eviction
}

type cacheEntry[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	loading bool
	have    bool
	val     T
	err     error
	expires time.Time
}

func newCache[T any](capacity int) *cache[T] {
	return &cache[T]{
		capacity: capacity,
		entries:  make(map[uint64]*cacheEntry[T], capacity),
	}
}

// get returns the cached value for key if present and unexpired; otherwise
// it calls load exactly once per key (concurrent callers for the same key
// block on the first caller's load) and caches the result for ttl. ttl<=0
// means do not cache — the "fresh" bypass case.
func (c *cache[T]) get(ctx context.Context, key uint64, ttl time.Duration, load loader[T]) (T, error) {
	if ttl <= 0 {
		return load(ctx)
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry[T]{}
		e.cond = sync.NewCond(&e.mu)
		c.insertLocked(key, e)
	}
	c.mu.Unlock()

	e.mu.Lock()
	for e.loading {
		e.cond.Wait()
	}
	if e.have && time.Now().Before(e.expires) {
		v := e.val
		e.mu.Unlock()
		return v, nil
	}
	e.loading = true
	e.mu.Unlock()

	v, err := load(ctx)

	e.mu.Lock()
	e.loading = false
	if err == nil {
		e.have = true
		e.val = v
		e.expires = time.Now().Add(ttl)
	}
	e.err = err
	e.cond.Broadcast()
	e.mu.Unlock()

	return v, err
}

func (c *cache[T]) insertLocked(key uint64, e *cacheEntry[T]) {
	c.entries[key] = e
	c.order = append(c.order, key)
	if c.capacity > 0 && len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}
