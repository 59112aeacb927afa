package cache

import (
	"time"

	"github.com/IvanBrykalov/memocache/key"
	"github.com/rs/zerolog"
)

// EvictReason explains why an entry left the cache.
type EvictReason int

const (
	// EvictCapacity: dropped as least recently used to respect Capacity.
	EvictCapacity EvictReason = iota
	// EvictCleared: dropped by Clear.
	EvictCleared
	// EvictRemoved: dropped by an explicit Remove.
	EvictRemoved
)

func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictCleared:
		return "cleared"
	case EvictRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
// Hit, Miss, Evict and Size are called with the cache lock held;
// ObserveCompute is called outside of it.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Size(entries int)
	ObserveCompute(d time.Duration, err error)
}

// Options configures a cache. The zero value is a valid, bounded cache of
// capacity zero (it stores nothing); most callers set Capacity.
type Options[V any] struct {
	// Capacity bounds the number of retained entries. Negative values are
	// rejected by New. Ignored when Unbounded is set.
	Capacity int

	// Unbounded disables eviction entirely. Callers must bound the key
	// cardinality themselves; memory grows without limit otherwise.
	Unbounded bool

	// Typed keeps arguments of different types apart even when their values
	// compare equal (3 vs 3.0).
	Typed bool

	// SingleFlight coalesces concurrent misses on the same key into one
	// compute call. Off by default: concurrent misses each compute and the
	// last insert wins.
	SingleFlight bool

	// OnEvict is called for every entry that leaves the cache, after the
	// cache lock has been released. It may run concurrently with itself.
	OnEvict func(k key.Key, v V, reason EvictReason)

	// Metrics receives hit/miss/evict/size/compute signals; nil => NoopMetrics.
	Metrics Metrics

	// Logger receives debug and trace events; nil => disabled.
	Logger *zerolog.Logger
}

func (o Options[V]) validate() error {
	if o.Capacity < 0 {
		return &ConfigError{Field: "Capacity", Value: o.Capacity, Err: ErrInvalidCapacity}
	}
	return nil
}
