package cache

import (
	"errors"
	"math/rand"
	"strconv"
	"testing"

	"github.com/IvanBrykalov/memocache/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func k(s string) key.Key { return key.Must(s) }

func keysOf(names ...string) []key.Key {
	out := make([]key.Key, len(names))
	for i, n := range names {
		out[i] = k(n)
	}
	return out
}

// The capacity-2 walkthrough: [a] -> [b,a] -> lookup a -> [a,b] -> insert c evicts b -> [c,a].
func TestStore_Scenario(t *testing.T) {
	t.Parallel()

	s := newStore[int](2, true)

	require.Nil(t, s.insert(k("a"), 1))
	assert.Equal(t, keysOf("a"), s.keys())

	require.Nil(t, s.insert(k("b"), 2))
	assert.Equal(t, keysOf("b", "a"), s.keys())

	e, ok := s.lookup(k("a"))
	require.True(t, ok)
	assert.Equal(t, 1, e.val)
	assert.Equal(t, keysOf("a", "b"), s.keys())

	ev := s.insert(k("c"), 3)
	require.NotNil(t, ev)
	assert.Equal(t, k("b"), ev.key)
	assert.False(t, ev.linked(), "evicted entry must be detached")
	assert.Equal(t, keysOf("c", "a"), s.keys())

	_, ok = s.lookup(k("b"))
	assert.False(t, ok)
	require.NoError(t, s.verify())
}

func TestStore_EvictsFirstInsertedAfterCPlusOne(t *testing.T) {
	t.Parallel()

	const c = 5
	s := newStore[int](c, true)
	for i := 0; i <= c; i++ {
		ev := s.insert(k(strconv.Itoa(i)), i)
		if i < c {
			assert.Nil(t, ev)
		} else {
			require.NotNil(t, ev)
			assert.Equal(t, k("0"), ev.key)
		}
	}
	_, ok := s.peek(k("0"))
	assert.False(t, ok)
	for i := 1; i <= c; i++ {
		_, ok := s.peek(k(strconv.Itoa(i)))
		assert.True(t, ok, "key %d must survive", i)
	}
	require.NoError(t, s.verify())
}

// Among equally old entries, the one looked up is evicted last.
func TestStore_LookupDelaysEviction(t *testing.T) {
	t.Parallel()

	s := newStore[int](3, true)
	s.insert(k("x"), 1)
	s.insert(k("y"), 2)
	s.insert(k("z"), 3)

	_, ok := s.lookup(k("x"))
	require.True(t, ok)

	var order []key.Key
	for i := 0; i < 3; i++ {
		ev := s.insert(k("n"+strconv.Itoa(i)), i)
		require.NotNil(t, ev)
		order = append(order, ev.key)
	}
	assert.Equal(t, keysOf("y", "z", "x"), order)
}

func TestStore_UpdateInPlace(t *testing.T) {
	t.Parallel()

	s := newStore[string](3, true)
	s.insert(k("a"), "1")
	s.insert(k("b"), "2")
	first, _ := s.peek(k("a"))

	assert.Nil(t, s.insert(k("a"), "1*"))
	assert.Equal(t, 2, s.len())
	assert.Equal(t, keysOf("a", "b"), s.keys())

	again, _ := s.peek(k("a"))
	assert.Same(t, first, again, "update must reuse the entry")
	assert.Equal(t, "1*", again.val)
	require.NoError(t, s.verify())
}

func TestStore_PeekDoesNotPromote(t *testing.T) {
	t.Parallel()

	s := newStore[int](2, true)
	s.insert(k("a"), 1)
	s.insert(k("b"), 2)
	_, ok := s.peek(k("a"))
	require.True(t, ok)
	assert.Equal(t, keysOf("b", "a"), s.keys())
}

func TestStore_ZeroCapacity(t *testing.T) {
	t.Parallel()

	s := newStore[int](0, true)
	for i := 0; i < 3; i++ {
		ev := s.insert(k("a"), i)
		require.NotNil(t, ev)
		assert.Equal(t, i, ev.val)
		assert.Equal(t, 0, s.len())
		_, ok := s.lookup(k("a"))
		assert.False(t, ok)
	}
	require.NoError(t, s.verify())
}

func TestStore_Unbounded(t *testing.T) {
	t.Parallel()

	s := newStore[int](0, false)
	for i := 0; i < 1000; i++ {
		require.Nil(t, s.insert(k(strconv.Itoa(i)), i))
	}
	assert.Equal(t, 1000, s.len())
	require.NoError(t, s.verify())
}

func TestStore_SizeTracksDistinctKeys(t *testing.T) {
	t.Parallel()

	const c = 8
	s := newStore[int](c, true)
	r := rand.New(rand.NewSource(1))
	distinct := map[string]struct{}{}

	for i := 0; i < 500; i++ {
		name := strconv.Itoa(r.Intn(20))
		if r.Intn(3) == 0 {
			s.lookup(k(name))
		} else {
			s.insert(k(name), i)
			distinct[name] = struct{}{}
		}
		want := len(distinct)
		if want > c {
			want = c
		}
		require.Equal(t, want, s.len(), "step %d", i)
		require.NoError(t, s.verify(), "step %d", i)
	}
}

func TestStore_Remove(t *testing.T) {
	t.Parallel()

	s := newStore[int](4, true)
	s.insert(k("a"), 1)
	s.insert(k("b"), 2)
	s.insert(k("c"), 3)

	e, ok := s.remove(k("b"))
	require.True(t, ok)
	assert.Equal(t, 2, e.val)
	assert.Equal(t, keysOf("c", "a"), s.keys())

	_, ok = s.remove(k("b"))
	assert.False(t, ok)
	require.NoError(t, s.verify())
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	s := newStore[int](4, true)
	s.insert(k("a"), 1)
	s.insert(k("b"), 2)
	s.insert(k("c"), 3)

	chain := s.clear()
	assert.Equal(t, 0, s.len())
	assert.Empty(t, s.keys())
	assert.Same(t, &s.tail, s.head.next)
	assert.Same(t, &s.head, s.tail.prev)
	require.NoError(t, s.verify())

	var got []int
	for e := chain; e != nil; e = e.next {
		got = append(got, e.val)
	}
	assert.Equal(t, []int{3, 2, 1}, got)

	assert.Nil(t, s.clear(), "clearing an empty store yields no chain")

	// The store is fully usable afterwards.
	s.insert(k("d"), 4)
	assert.Equal(t, keysOf("d"), s.keys())
	require.NoError(t, s.verify())
}

func TestStore_VerifyDetectsCorruption(t *testing.T) {
	t.Parallel()

	t.Run("cycle", func(t *testing.T) {
		s := newStore[int](4, true)
		s.insert(k("a"), 1)
		s.insert(k("b"), 2)
		// b -> a -> b
		a, _ := s.peek(k("a"))
		b, _ := s.peek(k("b"))
		a.next = b
		err := s.verify()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrCorrupted)
	})

	t.Run("orphan in map", func(t *testing.T) {
		s := newStore[int](4, true)
		s.insert(k("a"), 1)
		s.m[k("ghost")] = &entry[int]{key: k("ghost")}
		assert.ErrorIs(t, s.verify(), ErrCorrupted)
	})

	t.Run("stale map pointer", func(t *testing.T) {
		s := newStore[int](4, true)
		s.insert(k("a"), 1)
		s.m[k("a")] = &entry[int]{key: k("a")}
		assert.ErrorIs(t, s.verify(), ErrCorrupted)
	})
}

func TestStore_InsertPanicsOnDesync(t *testing.T) {
	t.Parallel()

	s := newStore[int](10, true)
	s.insert(k("a"), 1)
	delete(s.m, k("a")) // simulate a bug: list still holds a

	defer func() {
		r := recover()
		require.NotNil(t, r, "insert must panic on map/list desync")
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrCorrupted))
	}()
	s.insert(k("b"), 2)
}
