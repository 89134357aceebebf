package gx2

import (
	"fmt"
	"math"
)

// Block is a region of GPU-visible memory.
type Block struct {
	// Addr is the GPU address of the first byte.
	Addr  uint32
	Bytes []byte
}

// Size returns the block length in bytes.
func (b *Block) Size() uint32 {
	if b == nil {
		return 0
	}
	return uint32(len(b.Bytes))
}

// Owned is an owning handle to a Block. Release frees the block once;
// later calls do nothing, so the zero Owned is safe to release.
type Owned struct {
	alloc Allocator
	blk   *Block
}

// Acquire allocates a block and wraps it in an Owned handle.
func Acquire(a Allocator, size, align uint32) (Owned, error) {
	blk, err := a.Alloc(size, align)
	if err != nil {
		return Owned{}, err
	}
	if blk == nil {
		return Owned{}, fmt.Errorf("alloc(%d, %d): %w", size, align, ErrAllocationFailure)
	}
	return Owned{alloc: a, blk: blk}, nil
}

// Block returns the owned block, or nil once released.
func (o *Owned) Block() *Block { return o.blk }

// Bytes returns the CPU view of the owned block.
func (o *Owned) Bytes() []byte {
	if o.blk == nil {
		return nil
	}
	return o.blk.Bytes
}

// Valid reports whether the handle still owns a block.
func (o *Owned) Valid() bool { return o.blk != nil }

// Release frees the owned block.
func (o *Owned) Release() {
	if o.blk == nil {
		return
	}
	o.alloc.Free(o.blk)
	o.blk = nil
	o.alloc = nil
}

// ResourceFlags describe how a Buffer is bound and accessed.
type ResourceFlags uint32

const (
	BindUniformBlock ResourceFlags = 1 << iota
	BindColorBuffer
	UsageCPURead
	UsageCPUWrite
	UsageGPURead
	UsageGPUWrite
	DisableCPUInvalidate
	DisableGPUInvalidate
)

// Buffer is a GPU-visible resource that the CPU accesses between Lock and
// Unlock. Only one lock may be held at a time.
type Buffer struct {
	Flags     ResourceFlags
	ElemSize  uint32
	ElemCount uint32

	mem    Owned
	cache  Cache
	locked bool
}

// NewBuffer allocates elemSize*elemCount bytes and invalidates them once.
// Uniform and color buffers get their binding alignment.
func NewBuffer(a Allocator, c Cache, flags ResourceFlags, elemSize, elemCount uint32) (*Buffer, error) {
	total := uint64(elemSize) * uint64(elemCount)
	if total > math.MaxUint32 {
		return nil, fmt.Errorf("creating buffer of %d x %d bytes: %w", elemCount, elemSize, ErrAllocationFailure)
	}
	size := uint32(total)
	align := uint32(HeaderAlignment)
	switch {
	case flags&BindUniformBlock != 0:
		align = UniformBlockAlignment
	case flags&BindColorBuffer != 0:
		align = SurfaceAlignment
	}
	mem, err := Acquire(a, size, align)
	if err != nil {
		return nil, fmt.Errorf("creating buffer of %d bytes: %w", size, err)
	}
	b := &Buffer{
		Flags:     flags,
		ElemSize:  elemSize,
		ElemCount: elemCount,
		mem:       mem,
		cache:     c,
	}
	c.Invalidate(b.invalidateMode(), mem.Bytes())
	return b, nil
}

func (b *Buffer) invalidateMode() InvalidateMode {
	mode := InvalidateCPU
	if b.Flags&BindUniformBlock != 0 {
		mode |= InvalidateUniformBlock
	}
	if b.Flags&BindColorBuffer != 0 {
		mode |= InvalidateColorBuffer
	}
	return mode
}

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint32 { return b.ElemSize * b.ElemCount }

// Block returns the backing memory.
func (b *Buffer) Block() *Block { return b.mem.Block() }

// Valid reports whether the buffer still owns its memory.
func (b *Buffer) Valid() bool { return b.mem.Valid() }

// Lock returns the CPU-writable view of the buffer.
func (b *Buffer) Lock() ([]byte, error) {
	if !b.mem.Valid() {
		return nil, fmt.Errorf("lock: buffer destroyed")
	}
	if b.locked {
		return nil, fmt.Errorf("lock: buffer already locked")
	}
	b.locked = true
	return b.mem.Bytes(), nil
}

// Unlock releases the CPU view. The whole buffer is invalidated unless
// the buffer was created with DisableCPUInvalidate.
func (b *Buffer) Unlock() {
	if !b.locked {
		return
	}
	b.locked = false
	if b.Flags&DisableCPUInvalidate == 0 {
		b.cache.Invalidate(b.invalidateMode(), b.mem.Bytes())
	}
}

// Destroy frees the backing memory.
func (b *Buffer) Destroy() {
	b.locked = false
	b.mem.Release()
}
