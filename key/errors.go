package key

import (
	"errors"
	"fmt"
)

// ErrUnhashableArgument is matched (errors.Is) by every error returned when
// an argument has no stable key representation.
var ErrUnhashableArgument = errors.New("key: unhashable argument")

// UnhashableError reports which argument could not be encoded.
type UnhashableError struct {
	// Arg locates the value, e.g. `args[1]`, `kwargs["opts"]` or `args[0][2]`.
	Arg string
	// Type is the Go type of the rejected value.
	Type string
}

func (e *UnhashableError) Error() string {
	return fmt.Sprintf("%v: %s has type %s", ErrUnhashableArgument, e.Arg, e.Type)
}

func (e *UnhashableError) Unwrap() error { return ErrUnhashableArgument }
