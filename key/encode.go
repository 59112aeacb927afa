package key

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// Value tags. Every encoded value starts with exactly one of them, and every
// variable-length payload is length-prefixed, so encodings never collide.
const (
	tagNil byte = iota + 1
	tagInt
	tagUint
	tagFloat
	tagString
	tagTuple
	tagHashable
)

// Section markers; never valid as a value tag.
const (
	markKwargs byte = 0xFE
	markTypes  byte = 0xFD
)

// float64 bounds of the int64 and uint64 ranges (exclusive upper).
const (
	minInt64F  = -9223372036854775808.0
	maxInt64F  = 9223372036854775808.0
	maxUint64F = 18446744073709551616.0
)

// appendValue encodes v in its normalized form. The returned error carries
// only the nested part of the path; callers prefix the argument position.
func appendValue(buf []byte, v any) ([]byte, *UnhashableError) {
	switch x := v.(type) {
	case nil:
		return append(buf, tagNil), nil
	case Hashable:
		// A nil pointer would panic in a value-receiver CacheKey.
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return nil, &UnhashableError{Type: fmt.Sprintf("%T", v)}
		}
		buf = append(buf, tagHashable)
		return appendString(buf, x.CacheKey()), nil
	case bool:
		if x {
			return appendInt(buf, 1), nil
		}
		return appendInt(buf, 0), nil
	case int:
		return appendInt(buf, int64(x)), nil
	case int8:
		return appendInt(buf, int64(x)), nil
	case int16:
		return appendInt(buf, int64(x)), nil
	case int32:
		return appendInt(buf, int64(x)), nil
	case int64:
		return appendInt(buf, x), nil
	case uint:
		return appendUint(buf, uint64(x)), nil
	case uint8:
		return appendUint(buf, uint64(x)), nil
	case uint16:
		return appendUint(buf, uint64(x)), nil
	case uint32:
		return appendUint(buf, uint64(x)), nil
	case uint64:
		return appendUint(buf, x), nil
	case uintptr:
		return appendUint(buf, uint64(x)), nil
	case float32:
		return appendFloat(buf, float64(x)), nil
	case float64:
		return appendFloat(buf, x), nil
	case string:
		buf = append(buf, tagString)
		return appendString(buf, x), nil
	case Tuple:
		buf = append(buf, tagTuple)
		buf = binary.AppendUvarint(buf, uint64(len(x)))
		for i, e := range x {
			var err *UnhashableError
			if buf, err = appendValue(buf, e); err != nil {
				err.Arg = "[" + strconv.Itoa(i) + "]" + err.Arg
				return nil, err
			}
		}
		return buf, nil
	}
	return appendReflect(buf, v)
}

// appendReflect handles named types over the basic kinds (type UserID int).
func appendReflect(buf []byte, v any) ([]byte, *UnhashableError) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return appendInt(buf, 1), nil
		}
		return appendInt(buf, 0), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return appendInt(buf, rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return appendUint(buf, rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return appendFloat(buf, rv.Float()), nil
	case reflect.String:
		buf = append(buf, tagString)
		return appendString(buf, rv.String()), nil
	}
	return nil, &UnhashableError{Type: fmt.Sprintf("%T", v)}
}

func appendInt(buf []byte, i int64) []byte {
	buf = append(buf, tagInt)
	return binary.AppendVarint(buf, i)
}

func appendUint(buf []byte, u uint64) []byte {
	if u <= math.MaxInt64 {
		return appendInt(buf, int64(u))
	}
	buf = append(buf, tagUint)
	return binary.AppendUvarint(buf, u)
}

// appendFloat folds integral values into the integer encodings so that 3.0
// and 3 share a key. -0.0 becomes 0 and all NaNs share one encoding.
func appendFloat(buf []byte, f float64) []byte {
	if math.IsNaN(f) {
		buf = append(buf, tagFloat)
		return binary.BigEndian.AppendUint64(buf, 0x7FF8000000000001)
	}
	if !math.IsInf(f, 0) && f == math.Trunc(f) {
		switch {
		case f >= minInt64F && f < maxInt64F:
			return appendInt(buf, int64(f))
		case f >= maxInt64F && f < maxUint64F:
			return appendUint(buf, uint64(f))
		}
	}
	buf = append(buf, tagFloat)
	return binary.BigEndian.AppendUint64(buf, math.Float64bits(f))
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}
