// Package mapped implements GPU-visible "mapped memory" on the host: a heap
// with a fixed capacity, real address alignment and live-allocation
// accounting.
package mapped

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/logger"
)

// baseAddr is the first address handed out, mirroring the start of the
// mapped memory arena.
const baseAddr = 0x10000000

// Heap is a host-side GPU-visible allocator. Addresses are never reused.
type Heap struct {
	mu       sync.Mutex
	capacity uint64
	used     uint64
	next     uint64
	live     map[uint32]*gx2.Block

	allocs int
	frees  int
}

// New creates a heap holding at most capacity bytes of live allocations.
func New(capacity uint64) *Heap {
	return &Heap{
		capacity: capacity,
		next:     baseAddr,
		live:     make(map[uint32]*gx2.Block),
	}
}

// Alloc implements gx2.Allocator.
func (h *Heap) Alloc(size, align uint32) (*gx2.Block, error) {
	if align == 0 || align&(align-1) != 0 {
		return nil, fmt.Errorf("alloc(%d, %d): alignment must be a power of two: %w", size, align, gx2.ErrAllocationFailure)
	}
	if size == 0 {
		return nil, fmt.Errorf("alloc(0, %d): zero size: %w", align, gx2.ErrAllocationFailure)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.used+uint64(size) > h.capacity {
		return nil, fmt.Errorf("alloc(%d, %d): %d of %d bytes in use: %w",
			size, align, h.used, h.capacity, gx2.ErrAllocationFailure)
	}
	addr := (h.next + uint64(align) - 1) &^ (uint64(align) - 1)
	if addr+uint64(size) > 1<<32 {
		return nil, fmt.Errorf("alloc(%d, %d): address space exhausted: %w", size, align, gx2.ErrAllocationFailure)
	}

	blk := &gx2.Block{Addr: uint32(addr), Bytes: make([]byte, size)}
	h.next = addr + uint64(size)
	h.used += uint64(size)
	h.live[blk.Addr] = blk
	h.allocs++

	logger.Debug("mapped alloc",
		zap.Uint32("addr", blk.Addr),
		zap.Uint32("size", size),
		zap.Uint32("align", align),
	)
	return blk, nil
}

// Free implements gx2.Allocator. Freeing a block the heap does not own is
// logged and ignored.
func (h *Heap) Free(b *gx2.Block) {
	if b == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	if owned, ok := h.live[b.Addr]; !ok || owned != b {
		logger.Warn("mapped free of unknown block", zap.Uint32("addr", b.Addr))
		return
	}
	delete(h.live, b.Addr)
	h.used -= uint64(len(b.Bytes))
	h.frees++
}

// Live returns the number of blocks currently allocated.
func (h *Heap) Live() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.live)
}

// Used returns the bytes held by live blocks.
func (h *Heap) Used() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.used
}

// Owns reports whether b is a live block of this heap.
func (h *Heap) Owns(b *gx2.Block) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	owned, ok := h.live[b.Addr]
	return ok && owned == b
}

// Stats returns the total number of successful allocations and frees.
func (h *Heap) Stats() (allocs, frees int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocs, h.frees
}
