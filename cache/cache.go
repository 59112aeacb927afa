package cache

import (
	"context"
	"sync"
	"time"

	"github.com/IvanBrykalov/memocache/internal/singleflight"
	"github.com/IvanBrykalov/memocache/key"
	"github.com/rs/zerolog"
)

// cache is the Cache implementation: one store guarded by one mutex.
type cache[V any] struct {
	// ---- guarded by mu ----
	mu     sync.Mutex
	st     *store[V]
	hits   uint64
	misses uint64

	opt Options[V]
	log zerolog.Logger

	// in-flight computes, used only with Options.SingleFlight.
	sf singleflight.Group[key.Key, V]
}

// New constructs a cache with the provided Options.
// Defaults:
//   - nil Metrics -> NoopMetrics
//   - nil Logger  -> disabled logger
//
// A negative Capacity yields a *ConfigError wrapping ErrInvalidCapacity.
func New[V any](opt Options[V]) (Cache[V], error) {
	if err := opt.validate(); err != nil {
		return nil, err
	}
	if opt.Metrics == nil {
		opt.Metrics = NoopMetrics{}
	}
	log := zerolog.Nop()
	if opt.Logger != nil {
		log = opt.Logger.With().Str("component", "memocache").Logger()
	}

	c := &cache[V]{
		st:  newStore[V](opt.Capacity, !opt.Unbounded),
		opt: opt,
		log: log,
	}
	c.log.Debug().
		Int("capacity", opt.Capacity).
		Bool("unbounded", opt.Unbounded).
		Bool("typed", opt.Typed).
		Bool("single_flight", opt.SingleFlight).
		Msg("cache created")
	return c, nil
}

// ---- Cache[V] implementation ----

// GetOrCompute implements the get-or-compute contract documented on Cache.
func (c *cache[V]) GetOrCompute(args []any, kwargs map[string]any, compute func() (V, error)) (V, error) {
	k, err := key.Build(args, kwargs, c.opt.Typed)
	if err != nil {
		var zero V
		return zero, err
	}

	// fast path
	if v, ok := c.get(k); ok {
		return v, nil
	}

	if !c.opt.SingleFlight {
		return c.computeAndStore(k, compute)
	}
	// singleflight: one compute per key per miss window
	v, err, shared := c.sf.DoShared(context.Background(), k, func() (V, error) {
		// double-check after flight join; not a new hit or miss
		if v, ok := c.promote(k); ok {
			return v, nil
		}
		return c.computeAndStore(k, compute)
	})
	if shared {
		c.log.Trace().Stringer("key", k).AnErr("error", err).Msg("compute shared with concurrent misses")
	}
	return v, err
}

// Put inserts or replaces the entry for the given arguments.
func (c *cache[V]) Put(args []any, kwargs map[string]any, v V) error {
	k, err := key.Build(args, kwargs, c.opt.Typed)
	if err != nil {
		return err
	}
	c.insert(k, v)
	return nil
}

// Info returns a snapshot taken under the lock.
func (c *cache[V]) Info() Info {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Info{
		Hits:      c.hits,
		Misses:    c.misses,
		MaxSize:   c.opt.Capacity,
		Unbounded: c.opt.Unbounded,
		CurrSize:  c.st.len(),
	}
}

// Clear drops all entries and resets hits and misses.
func (c *cache[V]) Clear() {
	c.mu.Lock()
	n := c.st.len()
	chain := c.st.clear()
	c.hits, c.misses = 0, 0
	c.opt.Metrics.Size(0)
	c.mu.Unlock()

	c.log.Debug().Int("entries", n).Msg("cache cleared")
	if c.opt.OnEvict == nil {
		return
	}
	for e := chain; e != nil; e = e.next {
		c.opt.OnEvict(e.key, e.val, EvictCleared)
	}
}

// Contains reports presence without promotion or statistics.
func (c *cache[V]) Contains(args []any, kwargs map[string]any) (bool, error) {
	k, err := key.Build(args, kwargs, c.opt.Typed)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	_, ok := c.st.peek(k)
	c.mu.Unlock()
	return ok, nil
}

// Remove deletes the entry for the given arguments.
func (c *cache[V]) Remove(args []any, kwargs map[string]any) (bool, error) {
	k, err := key.Build(args, kwargs, c.opt.Typed)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	e, ok := c.st.remove(k)
	if ok {
		c.opt.Metrics.Evict(EvictRemoved)
		c.opt.Metrics.Size(c.st.len())
	}
	c.mu.Unlock()

	if ok {
		c.evicted(e, EvictRemoved)
	}
	return ok, nil
}

// Len returns the number of resident entries.
func (c *cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.len()
}

// Keys returns resident keys, most recently used first.
func (c *cache[V]) Keys() []key.Key {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.keys()
}

// Validate runs the full structural check under the lock.
func (c *cache[V]) Validate() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st.verify()
}

// ---- helpers ----

// get is the counted lookup: a hit promotes and copies the value out.
func (c *cache[V]) get(k key.Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.st.lookup(k); ok {
		c.hits++
		c.opt.Metrics.Hit()
		return e.val, true
	}
	c.misses++
	c.opt.Metrics.Miss()
	var zero V
	return zero, false
}

// promote is get without statistics.
func (c *cache[V]) promote(k key.Key) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.st.lookup(k); ok {
		return e.val, true
	}
	var zero V
	return zero, false
}

// computeAndStore runs compute outside the lock and stores a successful
// result. Errors are returned unchanged and leave the store untouched.
func (c *cache[V]) computeAndStore(k key.Key, compute func() (V, error)) (V, error) {
	start := time.Now()
	v, err := compute()
	c.opt.Metrics.ObserveCompute(time.Since(start), err)
	if err != nil {
		c.log.Debug().Err(err).Stringer("key", k).Msg("compute failed, result not cached")
		var zero V
		return zero, err
	}

	c.insert(k, v)
	return v, nil
}

// insert stores k→v under the lock and reports a capacity eviction after
// releasing it.
func (c *cache[V]) insert(k key.Key, v V) {
	c.mu.Lock()
	ev := c.st.insert(k, v)
	if ev != nil {
		c.opt.Metrics.Evict(EvictCapacity)
	}
	c.opt.Metrics.Size(c.st.len())
	c.mu.Unlock()

	if ev != nil {
		c.evicted(ev, EvictCapacity)
	}
}

// evicted reports an entry that has already been detached from the store.
// Must be called without the lock.
func (c *cache[V]) evicted(e *entry[V], reason EvictReason) {
	c.log.Trace().Stringer("key", e.key).Stringer("reason", reason).Msg("entry evicted")
	if cb := c.opt.OnEvict; cb != nil {
		cb(e.key, e.val, reason)
	}
}
