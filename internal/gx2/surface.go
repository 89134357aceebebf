package gx2

import (
	"errors"
	"fmt"
	"math"
)

// ErrSurfaceTooLarge is returned when an image does not fit the 32-bit
// GPU address space.
var ErrSurfaceTooLarge = errors.New("gx2: surface too large")

// SurfaceDim is the dimensionality of a surface.
type SurfaceDim int

const (
	SurfaceDim1D SurfaceDim = iota
	SurfaceDim2D
	SurfaceDim3D
)

// SurfaceFormat is the pixel format of a surface.
type SurfaceFormat int

const (
	SurfaceFormatInvalid SurfaceFormat = iota
	SurfaceFormatUNormR8G8B8A8
)

// BytesPerPixel returns the size of one pixel, or 0 for unknown formats.
func (f SurfaceFormat) BytesPerPixel() uint32 {
	switch f {
	case SurfaceFormatUNormR8G8B8A8:
		return 4
	default:
		return 0
	}
}

// Native returns the GX2_SURFACE_FORMAT_* code.
func (f SurfaceFormat) Native() (uint32, bool) {
	switch f {
	case SurfaceFormatUNormR8G8B8A8:
		return 0x1a, true
	default:
		return 0, false
	}
}

// TileMode is the memory layout of a surface.
type TileMode int

const (
	TileModeDefault TileMode = iota
	TileModeLinearAligned
)

// AAMode is the sample count of a surface.
type AAMode int

const AAMode1X AAMode = 0

// SurfaceUse flags how a surface is bound.
type SurfaceUse uint32

const (
	SurfaceUseTexture SurfaceUse = 1 << iota
	SurfaceUseColorBuffer
)

// linearPitchPixels is the pitch granularity of linear-aligned surfaces.
const linearPitchPixels = 64

// Surface is a GPU image descriptor. Image is nil until backing memory
// has been attached.
type Surface struct {
	Dim       SurfaceDim
	Width     uint32
	Height    uint32
	Depth     uint32
	MipLevels uint32
	Format    SurfaceFormat
	AA        AAMode
	Use       SurfaceUse
	Tile      TileMode

	// Filled by CalcSurfaceSizeAndAlignment.
	Pitch     uint32
	ImageSize uint32
	Alignment uint32

	Image *Block
}

// CalcSurfaceSizeAndAlignment fills Pitch, ImageSize and Alignment.
// Only linear-aligned single-mip surfaces are laid out here; other tile
// modes are treated as linear aligned. Surfaces whose image exceeds 4 GiB
// are rejected and left with a zero ImageSize.
func CalcSurfaceSizeAndAlignment(s *Surface) error {
	bpp := uint64(s.Format.BytesPerPixel())
	depth := uint64(s.Depth)
	if depth == 0 {
		depth = 1
	}
	pitch := (uint64(s.Width) + linearPitchPixels - 1) / linearPitchPixels * linearPitchPixels
	size := pitch * uint64(s.Height) * depth * bpp

	s.Alignment = SurfaceAlignment
	if pitch > math.MaxUint32 || size > math.MaxUint32 {
		s.Pitch, s.ImageSize = 0, 0
		return fmt.Errorf("%dx%dx%d surface of %d bytes: %w", s.Width, s.Height, depth, size, ErrSurfaceTooLarge)
	}
	s.Pitch = uint32(pitch)
	s.ImageSize = uint32(size)
	return nil
}

// ColorBuffer is a surface viewed as a render target.
type ColorBuffer struct {
	Surface        Surface
	ViewMip        uint32
	ViewFirstSlice uint32
	ViewNumSlices  uint32

	// Regs holds the register values computed by Display.InitColorBufferRegs.
	Regs [5]uint32
}
