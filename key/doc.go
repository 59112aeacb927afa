// Package key builds canonical cache keys from call arguments.
//
// A Key is an immutable, comparable value that can be used directly as a
// map key. It is built from the positional arguments of a call, the keyword
// arguments sorted by name, and (in typed mode) the Go type of every
// top-level argument.
//
// Untyped mode collapses values that compare equal across kinds:
//
//	Must(3) == Must(3.0)      // integral floats become integers
//	Must(true) == Must(1)     // booleans become 0/1
//	Must(uint8(7)) == Must(7) // unsigned values within int64 range
//
// Typed mode keeps them apart:
//
//	a, _ := Build([]any{3}, nil, true)
//	b, _ := Build([]any{3.0}, nil, true)
//	// a != b
//
// Supported argument kinds are nil, booleans, integers, floats, strings,
// Tuple (nested, recursively) and values implementing Hashable. Named types
// whose underlying kind is one of those are accepted too. Anything else
// (slices, maps, funcs, channels, pointers, structs) is rejected with an
// error matching ErrUnhashableArgument.
package key
