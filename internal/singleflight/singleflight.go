// Package singleflight de-duplicates concurrent computations per key.
package singleflight

import (
	"context"
	"errors"
	"sync"
)

// ErrLeaderPanicked is returned to followers whose leader's fn panicked.
// The leader itself re-panics with the original value.
var ErrLeaderPanicked = errors.New("singleflight: leader panicked")

// Group coalesces concurrent function calls for the same key K so that
// the supplied fn is executed at most once per in-flight window. Other
// concurrent callers wait for the shared result.
//
// Concurrency notes:
//   - The first caller for a given key becomes the leader and runs fn.
//   - Followers wait on c.done. Publishing (val, err) happens-before
//     close(c.done), so reads after <-done observe the final values.
//   - Cancelling ctx in a follower unblocks only that follower; it does
//     NOT cancel the leader's fn.
//   - The in-flight marker is removed even if fn panics, so a later call
//     starts a fresh flight.
//
// The zero Group is ready to use.
type Group[K comparable, V any] struct {
	mu sync.Mutex
	m  map[K]*call[V]
}

type call[V any] struct {
	done chan struct{} // closed when val/err are published
	val  V
	err  error
	dups int
}

// Do runs fn once for the given key. Concurrent calls with the same key
// wait for the shared result. If ctx is cancelled in a follower, that
// follower returns ctx.Err() while the leader continues to run fn.
func (g *Group[K, V]) Do(ctx context.Context, key K, fn func() (V, error)) (V, error) {
	v, err, _ := g.DoShared(ctx, key, fn)
	return v, err
}

// DoShared is Do that also reports whether the result was handed to more
// than one caller.
func (g *Group[K, V]) DoShared(ctx context.Context, key K, fn func() (V, error)) (v V, err error, shared bool) {
	// Fast path: an in-flight call exists; wait (respecting ctx).
	g.mu.Lock()
	if g.m == nil {
		g.m = make(map[K]*call[V])
	}
	if c, ok := g.m[key]; ok {
		c.dups++
		done := c.done
		g.mu.Unlock()

		select {
		case <-done:
			return c.val, c.err, true
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err(), true
		}
	}

	// We are the leader for this key.
	c := &call[V]{done: make(chan struct{})}
	g.m[key] = c
	g.mu.Unlock()

	g.run(key, c, fn)

	g.mu.Lock()
	shared = c.dups > 0
	g.mu.Unlock()
	return c.val, c.err, shared
}

// Waiters reports how many callers have joined the in-flight call for key
// as followers. It is zero when no call for key is running.
func (g *Group[K, V]) Waiters(key K) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if c, ok := g.m[key]; ok {
		return c.dups
	}
	return 0
}

// run executes fn outside the lock, publishes the result and removes the
// in-flight marker. A panic in fn is published to followers as
// ErrLeaderPanicked and then re-raised in the leader.
func (g *Group[K, V]) run(key K, c *call[V], fn func() (V, error)) {
	normal := false
	defer func() {
		if !normal {
			var zero V
			c.val, c.err = zero, ErrLeaderPanicked
		}
		close(c.done)

		g.mu.Lock()
		if g.m[key] == c {
			delete(g.m, key)
		}
		g.mu.Unlock()
	}()

	c.val, c.err = fn()
	normal = true
}
