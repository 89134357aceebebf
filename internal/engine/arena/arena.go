// Package arena provides a frame-scoped bump allocator over a fixed-size
// buffer. It hands out offsets only; the caller owns the memory.
package arena

import (
	"errors"
	"fmt"
)

// ErrBufferExhausted is returned when an allocation does not fit in the
// remaining capacity.
var ErrBufferExhausted = errors.New("arena: buffer exhausted")

// Arena is a bump allocator. Every allocation is rounded up to the arena
// alignment, so offsets stay aligned.
type Arena struct {
	capacity uint32
	align    uint32
	offset   uint32
}

// New creates an arena of capacity bytes. align must be non-zero.
func New(capacity, align uint32) *Arena {
	if align == 0 {
		panic("arena: zero alignment")
	}
	return &Arena{capacity: capacity, align: align}
}

// RoundUp rounds n up to a multiple of align.
func RoundUp(n, align uint32) uint32 {
	return (n + align - 1) / align * align
}

// Allocate reserves RoundUp(size) bytes and returns their offset. On
// failure the cursor is left unchanged.
func (a *Arena) Allocate(size uint32) (uint32, error) {
	aligned := RoundUp(size, a.align)
	if aligned < size || aligned > a.capacity-a.offset {
		return 0, fmt.Errorf("allocate %d bytes (%d aligned) at offset %d of %d: %w",
			size, aligned, a.offset, a.capacity, ErrBufferExhausted)
	}
	off := a.offset
	a.offset += aligned
	return off, nil
}

// Reset rewinds the cursor to zero.
func (a *Arena) Reset() { a.offset = 0 }

// Offset returns the next free offset.
func (a *Arena) Offset() uint32 { return a.offset }

// Cap returns the arena capacity.
func (a *Arena) Cap() uint32 { return a.capacity }

// Remaining returns the bytes left before exhaustion.
func (a *Arena) Remaining() uint32 { return a.capacity - a.offset }
