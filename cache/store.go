package cache

import (
	"fmt"

	"github.com/IvanBrykalov/memocache/key"
)

// store is the map + recency list pair behind a cache.
// head and tail are fixed sentinels; head.next is the MRU entry and
// tail.prev the LRU entry. All methods require the cache mutex.
//
// A store must not be copied after newStore: the sentinels point at each
// other by address.
type store[V any] struct {
	m    map[key.Key]*entry[V]
	head entry[V]
	tail entry[V]
	n    int // number of linked entries

	cap     int
	bounded bool
}

func newStore[V any](capacity int, bounded bool) *store[V] {
	hint := 0
	if bounded {
		hint = capacity
	}
	s := &store[V]{
		m:       make(map[key.Key]*entry[V], hint),
		cap:     capacity,
		bounded: bounded,
	}
	s.head.next = &s.tail
	s.tail.prev = &s.head
	return s
}

// lookup returns the entry for k and promotes it to MRU.
// A miss leaves the store untouched.
func (s *store[V]) lookup(k key.Key) (*entry[V], bool) {
	e, ok := s.m[k]
	if !ok {
		return nil, false
	}
	s.moveToFront(e)
	return e, true
}

// peek returns the entry for k without touching recency.
func (s *store[V]) peek(k key.Key) (*entry[V], bool) {
	e, ok := s.m[k]
	return e, ok
}

// insert stores k→v as MRU. An existing entry is updated in place.
// When the bound is exceeded the LRU entry is evicted and returned.
func (s *store[V]) insert(k key.Key, v V) (evicted *entry[V]) {
	if e, ok := s.m[k]; ok {
		e.val = v
		s.moveToFront(e)
		return nil
	}

	e := &entry[V]{key: k, val: v}
	s.m[k] = e
	s.pushFront(e)

	if s.bounded && len(s.m) > s.cap {
		evicted = s.tail.prev
		s.unlink(evicted)
		delete(s.m, evicted.key)
	}
	s.assertSize()
	return evicted
}

// remove deletes k and returns the removed entry.
func (s *store[V]) remove(k key.Key) (*entry[V], bool) {
	e, ok := s.m[k]
	if !ok {
		return nil, false
	}
	s.unlink(e)
	delete(s.m, k)
	s.assertSize()
	return e, true
}

// clear drops every entry in one step and returns the detached chain
// (MRU first, linked through next, nil-terminated) so callers can still
// walk it after the lock is released.
func (s *store[V]) clear() *entry[V] {
	var first *entry[V]
	if s.n > 0 {
		first = s.head.next
		s.tail.prev.next = nil
		first.prev = nil
	}
	s.m = make(map[key.Key]*entry[V], len(s.m))
	s.head.next = &s.tail
	s.tail.prev = &s.head
	s.n = 0
	return first
}

// len returns the number of resident entries.
func (s *store[V]) len() int { return s.n }

// keys returns resident keys ordered MRU → LRU.
func (s *store[V]) keys() []key.Key {
	out := make([]key.Key, 0, s.n)
	for e := s.head.next; e != &s.tail; e = e.next {
		out = append(out, e.key)
	}
	return out
}

// verify walks the whole list in both directions and cross-checks it with
// the map. It is O(n) and meant for tests and diagnostics.
func (s *store[V]) verify() error {
	if s.head.prev != nil || s.tail.next != nil {
		return fmt.Errorf("%w: sentinel links escaped the list", ErrCorrupted)
	}
	if s.n != len(s.m) {
		return fmt.Errorf("%w: list holds %d entries, map holds %d", ErrCorrupted, s.n, len(s.m))
	}
	if s.bounded && s.n > s.cap {
		return fmt.Errorf("%w: %d entries exceed capacity %d", ErrCorrupted, s.n, s.cap)
	}

	seen := make(map[*entry[V]]struct{}, s.n)
	count := 0
	for e := s.head.next; e != &s.tail; e = e.next {
		if e == nil {
			return fmt.Errorf("%w: forward walk fell off the list after %d entries", ErrCorrupted, count)
		}
		if _, dup := seen[e]; dup {
			return fmt.Errorf("%w: cycle at entry %d", ErrCorrupted, count)
		}
		seen[e] = struct{}{}
		if e.next == nil || e.next.prev != e {
			return fmt.Errorf("%w: broken back link after entry %d", ErrCorrupted, count)
		}
		if m, ok := s.m[e.key]; !ok || m != e {
			return fmt.Errorf("%w: list entry %s is not the mapped entry", ErrCorrupted, e.key)
		}
		count++
		if count > s.n {
			return fmt.Errorf("%w: forward walk exceeds %d entries", ErrCorrupted, s.n)
		}
	}
	if count != s.n {
		return fmt.Errorf("%w: forward walk saw %d entries, want %d", ErrCorrupted, count, s.n)
	}

	back := 0
	for e := s.tail.prev; e != &s.head; e = e.prev {
		if e == nil {
			return fmt.Errorf("%w: backward walk fell off the list", ErrCorrupted)
		}
		back++
		if back > s.n {
			return fmt.Errorf("%w: backward walk exceeds %d entries", ErrCorrupted, s.n)
		}
	}
	if back != s.n {
		return fmt.Errorf("%w: backward walk saw %d entries, want %d", ErrCorrupted, back, s.n)
	}
	return nil
}

// -------------------- list primitives --------------------

// pushFront links e right after the head sentinel in O(1).
func (s *store[V]) pushFront(e *entry[V]) {
	e.prev = &s.head
	e.next = s.head.next
	s.head.next.prev = e
	s.head.next = e
	s.n++
}

// moveToFront promotes a linked entry to MRU in O(1).
func (s *store[V]) moveToFront(e *entry[V]) {
	if s.head.next == e {
		return
	}
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev = &s.head
	e.next = s.head.next
	s.head.next.prev = e
	s.head.next = e
}

// unlink detaches e in O(1).
func (s *store[V]) unlink(e *entry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
	s.n--
}

// assertSize is the O(1) guard run after every structural change.
// A mismatch means the store itself is broken, not the caller.
func (s *store[V]) assertSize() {
	if s.n != len(s.m) {
		panic(fmt.Errorf("%w: list holds %d entries, map holds %d", ErrCorrupted, s.n, len(s.m)))
	}
}
