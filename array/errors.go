package array

import "errors"

var (
	// ErrInvalidCapacity is returned when a negative capacity is requested.
	ErrInvalidCapacity = errors.New("array: invalid capacity")

	// ErrCapacityExceeded is returned when creating or growing an array would
	// exceed its configured maximum capacity. The array is left unchanged.
	ErrCapacityExceeded = errors.New("array: capacity exceeded")

	// ErrReleased is returned when mutating an array that was already released.
	ErrReleased = errors.New("array: use of released array")

	// ErrOutOfMemory is returned when the arena memory source cannot provide a chunk.
	ErrOutOfMemory = errors.New("arena: out of memory")

	// ErrNotLive is returned when freeing memory the arena does not hold as a
	// live allocation: a double free, an interior pointer or foreign memory.
	ErrNotLive = errors.New("arena: memory not live in arena")
)
