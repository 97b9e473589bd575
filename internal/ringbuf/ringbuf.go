// Package ringbuf defines the fixed-size ring buffer used for retaining video frame history.
package ringbuf

import (
	"github.com/tphakala/swingcam/internal/errors"
)

// ErrIndexOutOfRange is returned by At for indices outside [0, capacity).
// Hitting it indicates a logic bug in the caller, not a recoverable
// condition, so callers should log it loudly instead of clamping.
var ErrIndexOutOfRange = errors.NewStd("ringbuf: index out of range")

// Buffer is a fixed-capacity circular buffer that is always logically full.
// There is no empty state: the buffer is created with every slot holding a
// placeholder value and each Insert overwrites the oldest slot. Logical
// index 0 is the oldest retained element and Len()-1 the most recently
// inserted one.
//
// Buffer is not safe for concurrent use. The capture loop is the only
// goroutine that may call Insert or At; safety comes from that single-owner
// contract rather than locking.
type Buffer[T any] struct {
	slots  []T
	cursor int // physical index of the most recently written slot
}

// New allocates a buffer of the given capacity with every slot set to
// placeholder. It returns an error if capacity is less than one.
func New[T any](capacity int, placeholder T) (*Buffer[T], error) {
	if capacity < 1 {
		return nil, errors.Newf("invalid ring buffer capacity: %d, must be at least 1", capacity).
			Component("ringbuf").
			Category(errors.CategoryValidation).
			Build()
	}

	slots := make([]T, capacity)
	for i := range slots {
		slots[i] = placeholder
	}

	return &Buffer[T]{
		slots: slots,
		// First Insert advances to physical slot 0
		cursor: capacity - 1,
	}, nil
}

// Insert overwrites the logically oldest slot with item. It never fails.
func (b *Buffer[T]) Insert(item T) {
	b.cursor = (b.cursor + 1) % len(b.slots)
	b.slots[b.cursor] = item
}

// At returns the element at the given logical index. Index 0 is the oldest
// retained element, Len()-1 the newest.
func (b *Buffer[T]) At(index int) (T, error) {
	if index < 0 || index >= len(b.slots) {
		var zero T
		return zero, ErrIndexOutOfRange
	}

	// The buffer is always full, so the oldest slot is right after the cursor.
	physical := (b.cursor + 1 + index) % len(b.slots)
	return b.slots[physical], nil
}

// Len returns the buffer capacity. The buffer is always considered full, so
// this is a constant, not a count of used slots.
func (b *Buffer[T]) Len() int {
	return len(b.slots)
}
