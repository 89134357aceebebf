// Package colorbuffer provides GX2 color buffers: render targets that are
// drawn into and then copied to a display scan buffer.
package colorbuffer

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/logger"
)

var (
	ErrInvalidSize       = errors.New("colorbuffer: invalid size")
	ErrUnknownScanTarget = errors.New("colorbuffer: unknown scan target")
)

// resourceFlags of the backing storage.
const resourceFlags = gx2.BindColorBuffer | gx2.UsageGPURead | gx2.UsageGPUWrite

// ColorBuffer owns a single-sample, single-mip RGBA8 surface.
type ColorBuffer struct {
	display gx2.Display
	buffer  *gx2.ColorBuffer
	image   *gx2.Buffer
}

// New creates a width x height color buffer. The image is a GPU read/write
// resource bound for color-buffer use, invalidated once through cache.
func New(alloc gx2.Allocator, cache gx2.Cache, display gx2.Display, width, height uint32) (*ColorBuffer, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("creating %dx%d color buffer: %w", width, height, ErrInvalidSize)
	}

	buffer := &gx2.ColorBuffer{
		Surface: gx2.Surface{
			Dim:       gx2.SurfaceDim2D,
			Width:     width,
			Height:    height,
			Depth:     1,
			MipLevels: 1,
			Format:    gx2.SurfaceFormatUNormR8G8B8A8,
			AA:        gx2.AAMode1X,
			Use:       gx2.SurfaceUseColorBuffer,
			Tile:      gx2.TileModeLinearAligned,
		},
		ViewNumSlices: 1,
	}
	s := &buffer.Surface
	if err := gx2.CalcSurfaceSizeAndAlignment(s); err != nil {
		return nil, fmt.Errorf("creating %dx%d color buffer: %w: %w", width, height, ErrInvalidSize, err)
	}

	image, err := gx2.NewBuffer(alloc, cache, resourceFlags, s.Format.BytesPerPixel(), s.Pitch*s.Height*s.Depth)
	if err != nil {
		return nil, fmt.Errorf("creating %dx%d color buffer: %w", width, height, err)
	}
	s.Image = image.Block()
	display.InitColorBufferRegs(buffer)

	logger.Debug("color buffer created",
		zap.Uint32("width", width),
		zap.Uint32("height", height),
		zap.Uint32("pitch", buffer.Surface.Pitch),
		zap.Uint32("imageSize", buffer.Surface.ImageSize),
	)

	return &ColorBuffer{
		display: display,
		buffer:  buffer,
		image:   image,
	}, nil
}

// Use binds the color buffer as render target 0.
func (cb *ColorBuffer) Use() {
	if !cb.image.Valid() {
		logger.Warn("use of a destroyed color buffer")
		return
	}
	cb.display.SetColorBuffer(cb.buffer, gx2.RenderTarget0)
}

// Clear fills the color buffer with a color.
func (cb *ColorBuffer) Clear(r, g, b, a float32) {
	if !cb.image.Valid() {
		return
	}
	cb.display.ClearColor(cb.buffer, r, g, b, a)
}

// Swap copies the color buffer to the scan buffer of target.
func (cb *ColorBuffer) Swap(target gx2.ScanTarget) error {
	switch target {
	case gx2.ScanTargetTV, gx2.ScanTargetDRC:
	default:
		return fmt.Errorf("swap to %d: %w", int(target), ErrUnknownScanTarget)
	}
	if !cb.image.Valid() {
		return fmt.Errorf("swap to %s: color buffer destroyed", target)
	}
	cb.display.CopyColorBufferToScanBuffer(cb.buffer, target)
	return nil
}

// Size returns the color buffer dimensions.
func (cb *ColorBuffer) Size() (width, height uint32) {
	return cb.buffer.Surface.Width, cb.buffer.Surface.Height
}

// Buffer returns the underlying descriptor.
func (cb *ColorBuffer) Buffer() *gx2.ColorBuffer { return cb.buffer }

// ResourceFlags returns the binding and access flags of the backing storage.
func (cb *ColorBuffer) ResourceFlags() gx2.ResourceFlags { return cb.image.Flags }

// Destroy releases the backing storage. It is safe to call more than once.
func (cb *ColorBuffer) Destroy() {
	if cb.image.Valid() {
		cb.image.Destroy()
		cb.buffer.Surface.Image = nil
	}
}
