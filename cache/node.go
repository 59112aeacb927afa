package cache

import "github.com/IvanBrykalov/memocache/key"

// entry is an intrusive doubly linked list element owned by a store.
// The same *entry is referenced by the store's map and by its recency list.
type entry[V any] struct {
	key key.Key
	val V

	// Intrusive list links: prev is more recently used, next is less.
	// Both are nil while the entry is detached.
	prev *entry[V]
	next *entry[V]
}

// linked reports whether the entry currently sits in a list.
func (e *entry[V]) linked() bool { return e.prev != nil && e.next != nil }
