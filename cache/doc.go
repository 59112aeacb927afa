// Package cache provides a generic, thread-safe memoizing cache with
// least-recently-used eviction.
//
// Design
//
//   - Keys: call arguments are turned into a canonical key.Key. Keyword
//     arguments are sorted by name; Options.Typed decides whether 3 and 3.0
//     share an entry. Unsupported arguments fail with ErrUnhashableArgument.
//
//   - Storage: a map[key.Key]*entry plus an intrusive doubly linked list
//     between two fixed sentinels (head side = MRU, tail side = LRU).
//     Lookup, promotion, insertion and eviction are O(1).
//
//   - Concurrency: one mutex per cache serializes every structural change.
//     Compute functions run outside the mutex, so a slow computation for one
//     key never blocks operations on other keys.
//
//   - Misses: by default two goroutines missing on the same key both
//     compute and the second insert wins. Options.SingleFlight coalesces
//     them into a single compute instead.
//
//   - Failures: compute errors are returned unchanged and nothing is cached,
//     so the next call computes again.
//
//   - Capacity: Capacity bounds the entry count (0 caches nothing).
//     Unbounded disables eviction.
//
//   - Observability: Options.Metrics receives Hit/Miss/Evict/Size and
//     compute timings (see package metrics/prom); Options.Logger receives
//     zerolog debug/trace events; Options.OnEvict sees every removal.
//
// Basic usage
//
//	c, err := cache.New[string](cache.Options[string]{Capacity: 128})
//	if err != nil {
//	    return err
//	}
//	v, err := c.GetOrCompute([]any{"user", 42}, map[string]any{"full": true},
//	    func() (string, error) { return loadUser(42, true) })
//
// As a wrapper
//
//	square := cache.Memoize1(c, func(n int) (int, error) { return n * n, nil })
//	v, _ := square(12) // computed
//	v, _ = square(12)  // cached
//
// Statistics
//
//	info := c.Info() // {Hits, Misses, MaxSize, Unbounded, CurrSize}
//	c.Clear()        // drops entries and zeroes the counters
package cache
