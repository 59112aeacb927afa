package cache

// Memoize wraps fn so that calls with equal arguments share one cached
// result in c. Errors from fn are returned as-is and never cached.
//
//	fib := cache.Memoize(c, func(args ...any) (int, error) { ... })
//	v, err := fib(30)
func Memoize[V any](c Cache[V], fn func(args ...any) (V, error)) func(args ...any) (V, error) {
	return func(args ...any) (V, error) {
		return c.GetOrCompute(args, nil, func() (V, error) { return fn(args...) })
	}
}

// MemoizeKw is Memoize for functions that also take keyword arguments.
// Keyword order never affects which entry is used.
func MemoizeKw[V any](c Cache[V], fn func(args []any, kwargs map[string]any) (V, error)) func(args []any, kwargs map[string]any) (V, error) {
	return func(args []any, kwargs map[string]any) (V, error) {
		return c.GetOrCompute(args, kwargs, func() (V, error) { return fn(args, kwargs) })
	}
}

// Memoize1 wraps a single-argument function with a statically typed input.
// A must be a kind the key package accepts, otherwise every call fails
// with ErrUnhashableArgument.
func Memoize1[A, V any](c Cache[V], fn func(A) (V, error)) func(A) (V, error) {
	return func(a A) (V, error) {
		return c.GetOrCompute([]any{a}, nil, func() (V, error) { return fn(a) })
	}
}
