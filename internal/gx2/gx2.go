// Package gx2 defines the GPU vocabulary shared by the engine packages and
// the interfaces of the collaborators they drive: GPU-visible memory, the
// cache controller, the command stream, the display engine and the shader
// blob loader.
//
// Enumerations in this package are backend independent. Values handed to a
// native GX2 backend go through the translation tables in format.go.
package gx2

import "errors"

// Alignment requirements of GPU-visible memory, in bytes.
const (
	HeaderAlignment        = 64
	ShaderProgramAlignment = 0x100
	UniformBlockAlignment  = 0x100
	SurfaceAlignment       = 0x100
)

// FetchShaderHeaderSize is the size of a fetch shader header.
const FetchShaderHeaderSize = 32

// ErrAllocationFailure is returned when GPU-visible memory cannot be allocated.
var ErrAllocationFailure = errors.New("gx2: allocation failure")

// Stage identifies a programmable shader stage.
type Stage int

const (
	StageVertex Stage = iota
	StagePixel
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StagePixel:
		return "pixel"
	default:
		return "unknown"
	}
}

// InvalidateMode selects the caches touched by Cache.Invalidate.
type InvalidateMode uint32

const (
	InvalidateAttributeBuffer InvalidateMode = 1 << iota
	InvalidateTexture
	InvalidateUniformBlock
	InvalidateShader
	InvalidateColorBuffer
	InvalidateDepthBuffer
	InvalidateCPU
)

// Combined modes used after CPU writes.
const (
	InvalidateCPUAttributeBuffer = InvalidateCPU | InvalidateAttributeBuffer
	InvalidateCPUTexture         = InvalidateCPU | InvalidateTexture
	InvalidateCPUUniformBlock    = InvalidateCPU | InvalidateUniformBlock
	InvalidateCPUShader          = InvalidateCPU | InvalidateShader
)

// ShaderMode selects how uniforms reach the shader stages.
type ShaderMode int

const (
	ShaderModeUniformRegister ShaderMode = iota
	ShaderModeUniformBlock
	ShaderModeGeometryShader
	ShaderModeComputeShader
)

// TessellationMode of a fetch shader.
type TessellationMode int

const (
	TessellationNone TessellationMode = iota
	TessellationLine
	TessellationTriangle
	TessellationQuad
)

// RenderTarget is a color-buffer binding slot.
type RenderTarget uint32

const RenderTarget0 RenderTarget = 0

// ScanTarget names a physical display fed from a scan buffer.
type ScanTarget int

const (
	ScanTargetTV ScanTarget = iota + 1
	ScanTargetDRC
)

func (t ScanTarget) String() string {
	switch t {
	case ScanTargetTV:
		return "tv"
	case ScanTargetDRC:
		return "drc"
	default:
		return "unknown"
	}
}

// Allocator hands out GPU-visible memory.
type Allocator interface {
	// Alloc returns a block of at least size bytes whose address is a
	// multiple of align. Failures wrap ErrAllocationFailure.
	Alloc(size, align uint32) (*Block, error)
	// Free returns a block to the allocator.
	Free(b *Block)
}

// Cache is the CPU/GPU cache controller.
type Cache interface {
	// Invalidate flushes or invalidates the caches selected by mode over b.
	Invalidate(mode InvalidateMode, b []byte)
}

// Commands is the GPU command stream.
type Commands interface {
	SetShaderMode(mode ShaderMode)
	SetVertexShader(s *Shader)
	SetPixelShader(s *Shader)
	SetFetchShader(s *FetchShader)
	SetVertexUniformBlock(location, size uint32, buf *Block, offset uint32)
	SetPixelUniformBlock(location, size uint32, buf *Block, offset uint32)

	// FetchShaderSize returns the program size needed for a fetch shader
	// reading attribs attribute streams.
	FetchShaderSize(attribs int, tess TessellationMode) uint32
	// BuildFetchShader encodes streams into program. Stream order is the
	// binding order.
	BuildFetchShader(program []byte, streams []AttribStream, tess TessellationMode)
}

// Device bundles the collaborators a shader program needs.
type Device interface {
	Allocator
	Cache
	Commands
}

// Display is the display engine.
type Display interface {
	InitColorBufferRegs(cb *ColorBuffer)
	SetColorBuffer(cb *ColorBuffer, target RenderTarget)
	ClearColor(cb *ColorBuffer, r, g, b, a float32)
	CopyColorBufferToScanBuffer(cb *ColorBuffer, target ScanTarget)
}

// Loader reads shader programs out of a compiled shader blob. index selects
// the shader set inside the blob.
type Loader interface {
	HeaderSize(stage Stage, index uint32) uint32
	ProgramSize(stage Stage, index uint32) uint32
	// Deserialize fills header and program and returns the reflection
	// metadata stored in the header.
	Deserialize(stage Stage, index uint32, header, program []byte) (Reflection, error)
}
