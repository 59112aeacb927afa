package cache

import (
	"errors"
	"fmt"

	"github.com/IvanBrykalov/memocache/internal/singleflight"
	"github.com/IvanBrykalov/memocache/key"
)

var (
	// ErrInvalidCapacity is returned by New for a negative Capacity.
	ErrInvalidCapacity = errors.New("cache: capacity must be >= 0")

	// ErrUnhashableArgument is returned by GetOrCompute (and friends) when
	// the call arguments cannot form a key. It is the key package's sentinel.
	ErrUnhashableArgument = key.ErrUnhashableArgument

	// ErrCorrupted marks an internal invariant violation (map and recency
	// list out of sync). It is raised with panic and reported by Validate.
	ErrCorrupted = errors.New("cache: internal structure corrupted")

	// ErrComputePanicked is returned to single-flight waiters whose leader's
	// compute function panicked. The leader itself re-panics.
	ErrComputePanicked = singleflight.ErrLeaderPanicked
)

// ConfigError reports an invalid Options field.
type ConfigError struct {
	Field string
	Value any
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("cache: invalid %s %v: %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
