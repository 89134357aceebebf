// Package host implements the GPU collaborators on the host: a headless
// device that records the command stream and cache traffic, and a display
// engine whose scan buffers are plain images.
package host

import (
	"go.uber.org/zap"

	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/gx2/mapped"
	"github.com/Faultbox/gx2res/internal/logger"
)

// Invalidation is one recorded cache invalidation.
type Invalidation struct {
	Mode gx2.InvalidateMode
	Size int
}

// UniformBinding is a uniform block bound to a shader slot.
type UniformBinding struct {
	Location uint32
	Size     uint32
	Addr     uint32
	Offset   uint32
}

// State is the pipeline state set through the command stream.
type State struct {
	Mode           gx2.ShaderMode
	Vertex         *gx2.Shader
	Pixel          *gx2.Shader
	Fetch          *gx2.FetchShader
	VertexUniforms map[uint32]UniformBinding
	PixelUniforms  map[uint32]UniformBinding
}

// Device is a headless gx2.Device backed by a mapped.Heap.
type Device struct {
	*mapped.Heap

	// Trace keeps every invalidation in Invalidations when set.
	Trace bool

	log           *zap.Logger
	state         State
	invalidations []Invalidation
	counts        map[gx2.InvalidateMode]int
	commands      int
}

// NewDevice creates a device with heapSize bytes of GPU-visible memory.
func NewDevice(heapSize uint64) *Device {
	return &Device{
		Heap: mapped.New(heapSize),
		log:  logger.Named("gx2"),
		state: State{
			VertexUniforms: make(map[uint32]UniformBinding),
			PixelUniforms:  make(map[uint32]UniformBinding),
		},
		counts: make(map[gx2.InvalidateMode]int),
	}
}

// Invalidate implements gx2.Cache.
func (d *Device) Invalidate(mode gx2.InvalidateMode, b []byte) {
	d.counts[mode]++
	if d.Trace {
		d.invalidations = append(d.invalidations, Invalidation{Mode: mode, Size: len(b)})
	}
}

// Invalidations returns the traced invalidations.
func (d *Device) Invalidations() []Invalidation { return d.invalidations }

// InvalidateCount returns how many invalidations used mode.
func (d *Device) InvalidateCount(mode gx2.InvalidateMode) int { return d.counts[mode] }

// ResetTrace drops traced invalidations.
func (d *Device) ResetTrace() { d.invalidations = d.invalidations[:0] }

// State returns the current pipeline state.
func (d *Device) State() State { return d.state }

// Commands returns the number of state-setting commands issued.
func (d *Device) Commands() int { return d.commands }

// SetShaderMode implements gx2.Commands.
func (d *Device) SetShaderMode(mode gx2.ShaderMode) {
	d.commands++
	d.state.Mode = mode
}

// SetVertexShader implements gx2.Commands.
func (d *Device) SetVertexShader(s *gx2.Shader) {
	d.commands++
	d.state.Vertex = s
}

// SetPixelShader implements gx2.Commands.
func (d *Device) SetPixelShader(s *gx2.Shader) {
	d.commands++
	d.state.Pixel = s
}

// SetFetchShader implements gx2.Commands.
func (d *Device) SetFetchShader(s *gx2.FetchShader) {
	d.commands++
	d.state.Fetch = s
}

// SetVertexUniformBlock implements gx2.Commands.
func (d *Device) SetVertexUniformBlock(location, size uint32, buf *gx2.Block, offset uint32) {
	d.commands++
	d.state.VertexUniforms[location] = d.binding(location, size, buf, offset)
}

// SetPixelUniformBlock implements gx2.Commands.
func (d *Device) SetPixelUniformBlock(location, size uint32, buf *gx2.Block, offset uint32) {
	d.commands++
	d.state.PixelUniforms[location] = d.binding(location, size, buf, offset)
}

func (d *Device) binding(location, size uint32, buf *gx2.Block, offset uint32) UniformBinding {
	if uint64(offset)+uint64(size) > uint64(buf.Size()) {
		d.log.Warn("uniform block out of buffer range",
			zap.Uint32("location", location),
			zap.Uint32("offset", offset),
			zap.Uint32("size", size),
			zap.Uint32("bufferSize", buf.Size()),
		)
	}
	return UniformBinding{
		Location: location,
		Size:     size,
		Addr:     buf.Addr + offset,
		Offset:   offset,
	}
}
