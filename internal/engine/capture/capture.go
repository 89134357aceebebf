// Package capture writes display scan buffers to PNG or BMP files.
package capture

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/image/bmp"

	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/logger"
)

// Source exposes scan buffers. host.Display and scanout.Display satisfy it.
type Source interface {
	ScanBuffer(target gx2.ScanTarget) *image.RGBA
}

// Format is the image encoding of captured files.
type Format int

const (
	FormatPNG Format = iota
	FormatBMP
)

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	if f == FormatBMP {
		return "bmp"
	}
	return "png"
}

// ParseFormat accepts "png", "bmp" or "" (png).
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "png":
		return FormatPNG, nil
	case "bmp":
		return FormatBMP, nil
	default:
		return FormatPNG, fmt.Errorf("unknown capture format %q", s)
	}
}

// Capture saves scan buffers every N frames.
type Capture struct {
	outputDir string
	prefix    string
	every     int
	format    Format
}

// New creates a capture writing into outputDir. every <= 0 disables
// periodic capture; Frame then only writes when called with force.
func New(outputDir, prefix string, every int) *Capture {
	return &Capture{
		outputDir: outputDir,
		prefix:    prefix,
		every:     every,
	}
}

// SetFormat changes the encoding of later captures.
func (c *Capture) SetFormat(f Format) {
	c.format = f
}

// Filename returns the path used for target at frame.
func (c *Capture) Filename(target gx2.ScanTarget, frame int) string {
	name := fmt.Sprintf("%s_%s_%06d.%s", c.prefix, target, frame, c.format.Ext())
	if c.outputDir != "" {
		name = filepath.Join(c.outputDir, name)
	}
	return name
}

// Due reports whether frame should be captured.
func (c *Capture) Due(frame int) bool {
	return c.every > 0 && frame%c.every == 0
}

// Frame writes the TV and DRC scan buffers of src when the frame is due or
// force is set. Targets that never received a copy are skipped.
func (c *Capture) Frame(src Source, frame int, force bool) ([]string, error) {
	if !force && !c.Due(frame) {
		return nil, nil
	}

	var written []string
	for _, target := range []gx2.ScanTarget{gx2.ScanTargetTV, gx2.ScanTargetDRC} {
		img := src.ScanBuffer(target)
		if img == nil {
			continue
		}
		path := c.Filename(target, frame)
		if err := c.WriteImage(img, path); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	if len(written) > 0 {
		logger.Debug("scan buffers captured", zap.Int("frame", frame), zap.Strings("files", written))
	}
	return written, nil
}

// WriteImage encodes img in the capture format at path, creating parent directories.
func (c *Capture) WriteImage(img image.Image, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if c.format == FormatBMP {
		err = bmp.Encode(file, img)
	} else {
		err = png.Encode(file, img)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", c.format.Ext(), err)
	}
	return nil
}
