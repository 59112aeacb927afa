package cache

import "github.com/IvanBrykalov/memocache/key"

// Cache is a memoizing, fixed-capacity LRU cache keyed by call arguments.
// All methods are safe for concurrent use by multiple goroutines.
//
// Every structural operation is O(1) under a single cache-wide mutex:
// one map access plus a constant number of pointer fixes.
// Compute functions always run outside that mutex.
type Cache[V any] interface {
	// GetOrCompute returns the cached result for (args, kwargs) or runs
	// compute, stores its result as most recently used and returns it.
	// Key construction errors (ErrUnhashableArgument) and compute errors are
	// returned unchanged; a failed compute never creates an entry.
	GetOrCompute(args []any, kwargs map[string]any, compute func() (V, error)) (V, error)

	// Put stores v for (args, kwargs) as most recently used without counting
	// a hit or a miss, evicting the LRU entry if the bound is exceeded.
	Put(args []any, kwargs map[string]any, v V) error

	// Info returns a consistent snapshot of hits, misses, capacity and size.
	Info() Info

	// Clear drops every entry and resets the hit/miss counters.
	Clear()

	// Contains reports whether (args, kwargs) is cached. It affects neither
	// recency nor statistics.
	Contains(args []any, kwargs map[string]any) (bool, error)

	// Remove deletes the entry for (args, kwargs) and reports whether it existed.
	Remove(args []any, kwargs map[string]any) (bool, error)

	// Len returns the number of resident entries.
	Len() int

	// Keys returns the resident keys ordered from most to least recently used.
	Keys() []key.Key

	// Validate walks the recency list and cross-checks it against the index.
	// A non-nil result wraps ErrCorrupted and indicates a bug in the cache.
	Validate() error
}
