package key

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Key is the canonical, comparable identity of one call.
// The zero Key is the key of a call with no arguments in untyped mode.
type Key struct {
	enc string
}

// Tuple is a nested, immutable sequence of key values.
// The elements are encoded when the key is built, so mutating the backing
// slice afterwards does not change an existing Key.
type Tuple []any

// Hashable lets caller-defined types take part in keys.
// CacheKey must return the same string for values that should share a
// cache entry.
type Hashable interface {
	CacheKey() string
}

// Build composes the key of a call.
//
// Keyword arguments are sorted by name first, so call-site keyword order
// never affects identity. A keyword section is always distinguishable from
// positional arguments: f(1) and f(x=1) produce different keys.
func Build(args []any, kwargs map[string]any, typed bool) (Key, error) {
	buf := make([]byte, 0, 10*(len(args)+len(kwargs))+2)

	for i, a := range args {
		var err *UnhashableError
		if buf, err = appendValue(buf, a); err != nil {
			err.Arg = "args[" + strconv.Itoa(i) + "]" + err.Arg
			return Key{}, err
		}
	}

	var names []string
	if len(kwargs) > 0 {
		names = make([]string, 0, len(kwargs))
		for n := range kwargs {
			names = append(names, n)
		}
		slices.Sort(names)

		buf = append(buf, markKwargs)
		for _, n := range names {
			buf = appendString(buf, n)
			var err *UnhashableError
			if buf, err = appendValue(buf, kwargs[n]); err != nil {
				err.Arg = "kwargs[" + strconv.Quote(n) + "]" + err.Arg
				return Key{}, err
			}
		}
	}

	if typed {
		buf = append(buf, markTypes)
		for _, a := range args {
			buf = appendString(buf, typeName(a))
		}
		for _, n := range names {
			buf = appendString(buf, typeName(kwargs[n]))
		}
	}
	return Key{enc: string(buf)}, nil
}

// Must builds an untyped key from positional arguments and panics if any of
// them is unhashable. Handy in tests and for statically known keys.
func Must(args ...any) Key {
	k, err := Build(args, nil, false)
	if err != nil {
		panic(err)
	}
	return k
}

// Hash returns a 64-bit xxhash fingerprint of the key.
// Equal keys always have equal fingerprints.
func (k Key) Hash() uint64 { return xxhash.Sum64String(k.enc) }

// Size returns the length of the canonical encoding in bytes.
func (k Key) Size() int { return len(k.enc) }

// String returns "key:" followed by the 16 hex digits of Hash. It identifies
// a key in logs without exposing argument values; the encoding itself is
// binary and is not rendered.
func (k Key) String() string { return fmt.Sprintf("key:%016x", k.Hash()) }

func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}
