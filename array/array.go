// Package array provides a growable array of element handles and an
// arena-backed owning string array built on top of it.
//
// An Array never owns the elements it stores: copies and joins share
// handles with their sources. Only an Owned array, whose strings were
// duplicated into an Arena, can release its elements.
package array

import (
	"fmt"
	"iter"
	"math/bits"

	"golang.org/x/exp/slices"
)

// arrayOptions holds configuration settings for an Array.
type arrayOptions struct {
	maxCapacity int
}

// ArrayOption configures an Array.
type ArrayOption func(*arrayOptions)

// WithMaxCapacity bounds the slot table. Creating or growing an array past
// the bound fails with ErrCapacityExceeded. Zero means unbounded.
func WithMaxCapacity(maxCapacity int) ArrayOption {
	return func(o *arrayOptions) {
		o.maxCapacity = maxCapacity
	}
}

// Array is a growable, indexable sequence of element handles.
// Capacity is always a power of two and doubles whenever a full array grows.
type Array[T comparable] struct {
	slots       []T
	count       int
	maxCapacity int
	released    bool
}

// New creates an empty array whose capacity is the power-of-two ceiling of capacity.
func New[T comparable](capacity int, opts ...ArrayOption) (*Array[T], error) {
	var o arrayOptions
	for _, op := range opts {
		op(&o)
	}
	if capacity < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCapacity, capacity)
	}

	a := &Array[T]{maxCapacity: max(0, o.maxCapacity)}
	slots, err := a.allocate(alignCeiling(capacity))
	if err != nil {
		return nil, err
	}
	a.slots = slots
	return a, nil
}

// Copy creates a new array with its own slot table holding the same handles
// as a, with the same capacity. Elements are not duplicated.
func (a *Array[T]) Copy() (*Array[T], error) {
	if a.released {
		return nil, ErrReleased
	}
	return &Array[T]{
		slots:       slices.Clone(a.slots),
		count:       a.count,
		maxCapacity: a.maxCapacity,
	}, nil
}

// Join returns a new array holding the handles of first followed by those of
// second. Neither input is modified. The result inherits first's capacity bound.
func Join[T comparable](first, second *Array[T]) (*Array[T], error) {
	if first.released || second.released {
		return nil, ErrReleased
	}

	total, err := addCount(first.count, second.count)
	if err != nil {
		return nil, err
	}
	joined := &Array[T]{maxCapacity: first.maxCapacity}
	slots, err := joined.allocate(alignCeiling(total))
	if err != nil {
		return nil, err
	}
	copy(slots, first.slots[:first.count])
	copy(slots[first.count:], second.slots[:second.count])
	joined.slots = slots
	joined.count = total
	return joined, nil
}

// Len returns the number of elements in the array.
func (a *Array[T]) Len() int {
	return a.count
}

// Cap returns the number of allocated slots.
func (a *Array[T]) Cap() int {
	return len(a.slots)
}

// IsEmpty reports whether the array holds no elements.
func (a *Array[T]) IsEmpty() bool {
	return 0 == a.count
}

// IsFull reports whether the next Append will grow the slot table.
// A released array is never full.
func (a *Array[T]) IsFull() bool {
	return !a.released && a.count == len(a.slots)
}

// At returns the element at index. ok is false when index is outside [0, Len()).
func (a *Array[T]) At(index int) (v T, ok bool) {
	if index < 0 || index >= a.count {
		return v, false
	}
	return a.slots[index], true
}

// Append adds v at the end, doubling the capacity first when the array is full.
func (a *Array[T]) Append(v T) error {
	if a.released {
		return ErrReleased
	}
	if a.IsFull() {
		if err := a.grow(len(a.slots) * 2); err != nil {
			return err
		}
	}
	a.slots[a.count] = v
	a.count++
	return nil
}

// Extend appends every handle of other. The slot table grows at most once,
// to the power-of-two ceiling of the new length. other is not modified.
func (a *Array[T]) Extend(other *Array[T]) error {
	if a.released || other.released {
		return ErrReleased
	}

	// other may be a itself, so take the source before growing
	src := other.slots[:other.count]
	total, err := addCount(a.count, len(src))
	if err != nil {
		return err
	}
	if total > len(a.slots) {
		if err := a.grow(alignCeiling(total)); err != nil {
			return err
		}
	}
	copy(a.slots[a.count:total], src)
	a.count = total
	return nil
}

// Contains reports whether v is one of the elements, compared with ==.
func (a *Array[T]) Contains(v T) bool {
	return slices.Contains(a.slots[:a.count], v)
}

// ContainsAny reports whether any element of other is also an element of a.
func (a *Array[T]) ContainsAny(other *Array[T]) bool {
	for _, v := range a.slots[:a.count] {
		if slices.Contains(other.slots[:other.count], v) {
			return true
		}
	}
	return false
}

// Values returns a copy of the elements in insertion order.
func (a *Array[T]) Values() []T {
	return slices.Clone(a.slots[:a.count])
}

// Range iterates over elements using a callback function.
func (a *Array[T]) Range(fn func(index int, v T) bool) {
	for i := 0; i < a.count; i++ {
		if !fn(i, a.slots[i]) {
			return
		}
	}
}

// Iter provides an iterator compatible with range loops.
//
// Example:
//
//	for index, v := range a.Iter() {
//		// do something
//	}
func (a *Array[T]) Iter() iter.Seq2[int, T] {
	return a.Range
}

// Release drops the slot table. The elements are left untouched; whoever
// owns them stays responsible for them. A released array is empty and
// rejects further mutation with ErrReleased.
func (a *Array[T]) Release() {
	a.slots = nil
	a.count = 0
	a.released = true
}

func (a *Array[T]) grow(capacity int) error {
	slots, err := a.allocate(capacity)
	if err != nil {
		return err
	}
	copy(slots, a.slots[:a.count])
	a.slots = slots
	return nil
}

// allocate makes a slot table of capacity slots. Capacities an int cannot
// express (negative after overflow, or above maxSlots) and tables the runtime
// refuses to make are reported as ErrCapacityExceeded.
func (a *Array[T]) allocate(capacity int) (slots []T, err error) {
	if capacity < 1 || capacity > maxSlots {
		return nil, fmt.Errorf("%w: %d slots cannot be allocated", ErrCapacityExceeded, capacity)
	}
	if a.maxCapacity > 0 && capacity > a.maxCapacity {
		return nil, fmt.Errorf("%w: need %d slots, limit is %d", ErrCapacityExceeded, capacity, a.maxCapacity)
	}

	defer func() {
		if r := recover(); r != nil {
			slots, err = nil, fmt.Errorf("%w: %d slots: %v", ErrCapacityExceeded, capacity, r)
		}
	}()
	return make([]T, capacity), nil
}

// maxSlots is the largest power of two an int can hold.
const maxSlots = 1 << (bits.UintSize - 2)

// alignCeiling returns the smallest power of two >= size; 0 and 1 map to 1.
// Sizes above maxSlots have no ceiling and yield -1.
func alignCeiling(size int) int {
	if size <= 1 {
		return 1
	}
	if size > maxSlots {
		return -1
	}
	return 1 << bits.Len(uint(size-1))
}

// addCount adds two element counts, reporting overflow as ErrCapacityExceeded.
func addCount(a, b int) (int, error) {
	total := a + b
	if total < a {
		return 0, fmt.Errorf("%w: %d + %d elements overflow", ErrCapacityExceeded, a, b)
	}
	return total, nil
}
