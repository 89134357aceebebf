package host

import (
	"image"
	"image/color"

	"go.uber.org/zap"

	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/logger"
)

// Display is a headless gx2.Display. Scan buffers are RGBA images sized to
// the last color buffer copied into them.
type Display struct {
	log    *zap.Logger
	bound  map[gx2.RenderTarget]*gx2.ColorBuffer
	scan   map[gx2.ScanTarget]*image.RGBA
	copies map[gx2.ScanTarget]int
}

// NewDisplay creates a display with TV and DRC scan buffers.
func NewDisplay() *Display {
	return &Display{
		log:    logger.Named("display"),
		bound:  make(map[gx2.RenderTarget]*gx2.ColorBuffer),
		scan:   make(map[gx2.ScanTarget]*image.RGBA),
		copies: make(map[gx2.ScanTarget]int),
	}
}

// InitColorBufferRegs implements gx2.Display.
func (d *Display) InitColorBufferRegs(cb *gx2.ColorBuffer) {
	s := &cb.Surface
	format, _ := s.Format.Native()
	var addr uint32
	if s.Image != nil {
		addr = s.Image.Addr
	}
	slice := s.Pitch * s.Height
	cb.Regs = [5]uint32{
		format<<2 | uint32(s.Tile),
		s.Pitch/8 - 1,
		slice/64 - 1,
		addr >> 8,
		cb.ViewMip,
	}
}

// SetColorBuffer implements gx2.Display.
func (d *Display) SetColorBuffer(cb *gx2.ColorBuffer, target gx2.RenderTarget) {
	d.bound[target] = cb
}

// Bound returns the color buffer bound to target.
func (d *Display) Bound(target gx2.RenderTarget) *gx2.ColorBuffer {
	return d.bound[target]
}

// ClearColor implements gx2.Display.
func (d *Display) ClearColor(cb *gx2.ColorBuffer, r, g, b, a float32) {
	img := cb.Surface.Image
	if img == nil {
		d.log.Warn("clear of a color buffer without image")
		return
	}
	px := [4]byte{unorm8(r), unorm8(g), unorm8(b), unorm8(a)}
	for i := 0; i+4 <= len(img.Bytes); i += 4 {
		copy(img.Bytes[i:i+4], px[:])
	}
}

func unorm8(v float32) byte {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return byte(v*255 + 0.5)
	}
}

// CopyColorBufferToScanBuffer implements gx2.Display.
func (d *Display) CopyColorBufferToScanBuffer(cb *gx2.ColorBuffer, target gx2.ScanTarget) {
	if target != gx2.ScanTargetTV && target != gx2.ScanTargetDRC {
		d.log.Warn("copy to unknown scan target", zap.Int("target", int(target)))
		return
	}
	s := &cb.Surface
	if s.Image == nil {
		d.log.Warn("copy of a color buffer without image", zap.Stringer("target", target))
		return
	}

	w, h := int(s.Width), int(s.Height)
	dst := d.scan[target]
	if dst == nil || dst.Rect.Dx() != w || dst.Rect.Dy() != h {
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		d.scan[target] = dst
	}

	bpp := int(s.Format.BytesPerPixel())
	srcStride := int(s.Pitch) * bpp
	rowSize := w * bpp
	for y := 0; y < h; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+rowSize], s.Image.Bytes[y*srcStride:y*srcStride+rowSize])
	}
	d.copies[target]++
}

// ScanBuffer returns the image last copied to target, or nil.
func (d *Display) ScanBuffer(target gx2.ScanTarget) *image.RGBA {
	return d.scan[target]
}

// Copies returns how many times target received a color buffer.
func (d *Display) Copies(target gx2.ScanTarget) int {
	return d.copies[target]
}

// Pixel returns the scan buffer color at (x, y).
func (d *Display) Pixel(target gx2.ScanTarget, x, y int) color.RGBA {
	img := d.scan[target]
	if img == nil {
		return color.RGBA{}
	}
	return img.RGBAAt(x, y)
}
