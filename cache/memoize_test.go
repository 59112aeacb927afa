package cache

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Recursive memoization works because compute runs outside the lock.
func TestMemoize_RecursiveFib(t *testing.T) {
	t.Parallel()

	c := newCache(t, Options[int]{Unbounded: true})
	var calls atomic.Int64

	var fib func(args ...any) (int, error)
	fib = Memoize(c, func(args ...any) (int, error) {
		calls.Add(1)
		n := args[0].(int)
		if n < 2 {
			return n, nil
		}
		a, err := fib(n - 1)
		if err != nil {
			return 0, err
		}
		b, err := fib(n - 2)
		if err != nil {
			return 0, err
		}
		return a + b, nil
	})

	v, err := fib(40)
	require.NoError(t, err)
	assert.Equal(t, 102334155, v)
	assert.EqualValues(t, 41, calls.Load(), "each n must be computed once")

	info := c.Info()
	assert.EqualValues(t, 41, info.Misses)
	assert.EqualValues(t, 38, info.Hits)
}

func TestMemoize1(t *testing.T) {
	t.Parallel()

	c := newCache(t, Options[int]{Capacity: 8})
	var calls atomic.Int64
	square := Memoize1(c, func(n int) (int, error) {
		calls.Add(1)
		return n * n, nil
	})

	for i := 0; i < 3; i++ {
		v, err := square(12)
		require.NoError(t, err)
		assert.Equal(t, 144, v)
	}
	assert.EqualValues(t, 1, calls.Load())
}

func TestMemoize1_UnhashableInput(t *testing.T) {
	t.Parallel()

	c := newCache(t, Options[int]{Capacity: 8})
	sum := Memoize1(c, func(xs []int) (int, error) {
		t.Fatal("must not run")
		return 0, nil
	})
	_, err := sum([]int{1, 2})
	assert.ErrorIs(t, err, ErrUnhashableArgument)
}

func TestMemoizeKw(t *testing.T) {
	t.Parallel()

	c := newCache(t, Options[string]{Capacity: 8, Typed: true})
	var calls atomic.Int64
	greet := MemoizeKw(c, func(args []any, kwargs map[string]any) (string, error) {
		calls.Add(1)
		if kwargs["loud"] == true {
			return "HELLO " + args[0].(string), nil
		}
		return "hello " + args[0].(string), nil
	})

	v, err := greet([]any{"ann"}, map[string]any{"loud": true, "lang": "en"})
	require.NoError(t, err)
	assert.Equal(t, "HELLO ann", v)

	v, err = greet([]any{"ann"}, map[string]any{"lang": "en", "loud": true})
	require.NoError(t, err)
	assert.Equal(t, "HELLO ann", v)
	assert.EqualValues(t, 1, calls.Load())

	// Typed mode: loud=1 is not loud=true.
	_, err = greet([]any{"ann"}, map[string]any{"lang": "en", "loud": 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
}

func TestMemoize_ErrorsNotCached(t *testing.T) {
	t.Parallel()

	c := newCache(t, Options[int]{Capacity: 8})
	boom := errors.New("boom")
	var calls atomic.Int64
	f := Memoize(c, func(args ...any) (int, error) {
		if calls.Add(1) < 3 {
			return 0, boom
		}
		return 1, nil
	})

	for i := 0; i < 2; i++ {
		_, err := f("x")
		assert.ErrorIs(t, err, boom)
	}
	v, err := f("x")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	_, _ = f("x")
	assert.EqualValues(t, 3, calls.Load())
}
