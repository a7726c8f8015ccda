package array

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// splitCapacity is the initial capacity of arrays created by Split.
const splitCapacity = 8

// Owned is a string array that owns its elements: every string it holds was
// duplicated into its Arena. Append and Extend duplicate instead of sharing.
// Copy and Join still return borrowing arrays that share the owned strings;
// those must not outlive a ReleaseAll of the Owned they came from.
type Owned struct {
	*Array[string]
	arena *Arena
}

// NewOwned creates an empty owning array whose strings live in ar.
// A nil ar gets a private arena.
func NewOwned(ar *Arena, capacity int, opts ...ArrayOption) (*Owned, error) {
	arr, err := New[string](capacity, opts...)
	if err != nil {
		return nil, err
	}
	if nil == ar {
		ar = NewArena()
	}
	return &Owned{Array: arr, arena: ar}, nil
}

// Split tokenizes text on any rune of delims and returns an owning array of
// the tokens. Runs of delimiters, and delimiters at either end, produce no
// empty tokens. An empty text yields an empty array. text is not retained.
func Split(ar *Arena, text, delims string) (*Owned, error) {
	o, err := NewOwned(ar, splitCapacity)
	if err != nil {
		return nil, err
	}

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return strings.ContainsRune(delims, r)
	})
	for _, token := range tokens {
		if err := o.Append(token); err != nil {
			return nil, fmt.Errorf("split %q: %w", text, releaseOnError(o, err))
		}
	}
	return o, nil
}

// releaseOnError gives back what a half-built owned array holds and returns err.
func releaseOnError(o *Owned, err error) error {
	if releaseErr := o.ReleaseAll(); releaseErr != nil {
		return multierror.Append(err, releaseErr)
	}
	return err
}

// Arena returns the arena holding the owned strings.
func (o *Owned) Arena() *Arena {
	return o.arena
}

// Append duplicates s into the arena and appends the copy.
func (o *Owned) Append(s string) error {
	if o.released {
		return ErrReleased
	}
	dup, err := o.arena.String(s)
	if err != nil {
		return err
	}
	if err := o.Array.Append(dup); err != nil {
		return freeOnError(o.arena, err, dup)
	}
	return nil
}

// Extend appends an independent copy of every string in src. The slot table
// grows at most once. On failure o is left as it was and the copies made so
// far are given back to the arena.
func (o *Owned) Extend(src *Array[string]) error {
	if o.released || src.released {
		return ErrReleased
	}

	// src may share a slot table with o, so fix the source range up front
	values := src.Values()
	total, err := addCount(o.count, len(values))
	if err != nil {
		return err
	}
	slots, count := o.slots, o.count
	if total > len(o.slots) {
		if err := o.grow(alignCeiling(total)); err != nil {
			return err
		}
	}

	for _, s := range values {
		dup, err := o.arena.String(s)
		if err != nil {
			err = freeOnError(o.arena, err, o.slots[count:o.count]...)
			o.slots, o.count = slots, count
			clear(o.slots[count:])
			return err
		}
		o.slots[o.count] = dup
		o.count++
	}
	return nil
}

// freeOnError gives dups back to ar and returns err, joined with any failure to free them.
func freeOnError(ar *Arena, err error, dups ...string) error {
	for _, dup := range dups {
		if freeErr := ar.FreeString(dup); freeErr != nil {
			err = multierror.Append(err, freeErr)
		}
	}
	return err
}

// ReleaseAll returns every element to the arena and then releases the slot
// table. Elements the arena does not hold live are reported, not freed twice.
func (o *Owned) ReleaseAll() error {
	if o.released {
		return ErrReleased
	}

	var result *multierror.Error
	for i, s := range o.slots[:o.count] {
		if err := o.arena.FreeString(s); err != nil {
			result = multierror.Append(result, fmt.Errorf("element %d: %w", i, err))
		}
	}
	o.Release()
	return result.ErrorOrNil()
}

// ContainsString reports whether a holds an element of the same length
// that is byte for byte equal to needle.
func ContainsString(a *Array[string], needle string) bool {
	for _, s := range a.slots[:a.count] {
		if s == needle {
			return true
		}
	}
	return false
}

// ContainsAnyString reports whether any string in needles is contained in a.
func ContainsAnyString(a, needles *Array[string]) bool {
	for _, needle := range needles.slots[:needles.count] {
		if ContainsString(a, needle) {
			return true
		}
	}
	return false
}

// SubstringMatchAny reports whether any element of a occurs in haystack.
func SubstringMatchAny(a *Array[string], haystack string) bool {
	for _, s := range a.slots[:a.count] {
		if strings.Contains(haystack, s) {
			return true
		}
	}
	return false
}
