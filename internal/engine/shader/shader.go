// Package shader manages GX2 shader programs: precompiled vertex and pixel
// shaders loaded from a blob, vertex attributes bound through a derived
// fetch shader, and uniform blocks streamed through a per-frame buffer.
//
// A Program is driven from the thread that owns the command stream.
package shader

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gx2res/internal/engine/arena"
	"github.com/Faultbox/gx2res/internal/gx2"
	"github.com/Faultbox/gx2res/internal/logger"
)

var (
	ErrMalformedShaderBlob   = errors.New("shader: malformed shader blob")
	ErrDeserializationFailed = errors.New("shader: deserialization failed")
	ErrUnknownAttribute      = errors.New("shader: unknown attribute")
	ErrUnknownUniformBlock   = errors.New("shader: unknown uniform block")
	ErrFetchInitialized      = errors.New("shader: fetch shader already initialized")
	ErrNoAttributes          = errors.New("shader: no attributes declared")
	ErrUniformNotInitialized = errors.New("shader: uniform buffer not initialized")
	ErrProgramDestroyed      = errors.New("shader: program destroyed")
)

// blobIndex is the shader set read from a blob.
const blobIndex = 0

// Attribute is a declared vertex attribute and the stream it produced.
type Attribute struct {
	Name   string
	Stream gx2.AttribStream
}

// Program owns a vertex shader, a pixel shader, the fetch shader derived
// from its attributes and one uniform buffer.
type Program struct {
	dev gx2.Device
	log *zap.Logger

	vertex *gx2.Shader
	pixel  *gx2.Shader
	fetch  *gx2.FetchShader

	attribs       []Attribute
	vertexAttribs map[string]uint32
	vertexBlocks  map[string]gx2.UniformBlock
	pixelBlocks   map[string]gx2.UniformBlock

	uniform *gx2.Buffer
	frame   *arena.Arena

	// warned is set once Use has reported a missing fetch shader.
	warned bool
}

// New loads the pixel and vertex shaders of blob into GPU-visible memory.
// Either both shaders load or nothing stays allocated.
func New(dev gx2.Device, blob gx2.Loader) (*Program, error) {
	pixel, err := loadShader(dev, blob, gx2.StagePixel)
	if err != nil {
		return nil, err
	}
	vertex, err := loadShader(dev, blob, gx2.StageVertex)
	if err != nil {
		pixel.Release()
		return nil, err
	}

	p := &Program{
		dev:           dev,
		log:           logger.Named("shader"),
		vertex:        vertex,
		pixel:         pixel,
		vertexAttribs: attribTable(vertex.Reflection.Attribs),
		vertexBlocks:  blockTable(vertex.Reflection.UniformBlocks),
		pixelBlocks:   blockTable(pixel.Reflection.UniformBlocks),
	}
	p.log.Debug("program loaded",
		zap.Uint32("vertexSize", vertex.Size),
		zap.Uint32("pixelSize", pixel.Size),
		zap.Int("attribs", len(vertex.Reflection.Attribs)),
	)
	return p, nil
}

func loadShader(dev gx2.Device, blob gx2.Loader, stage gx2.Stage) (*gx2.Shader, error) {
	headerSize := blob.HeaderSize(stage, blobIndex)
	if headerSize == 0 {
		return nil, fmt.Errorf("load %s shader: header size is 0: %w", stage, ErrMalformedShaderBlob)
	}
	programSize := blob.ProgramSize(stage, blobIndex)
	if programSize == 0 {
		return nil, fmt.Errorf("load %s shader: program size is 0: %w", stage, ErrMalformedShaderBlob)
	}

	header, err := gx2.Acquire(dev, headerSize, gx2.HeaderAlignment)
	if err != nil {
		return nil, fmt.Errorf("load %s shader: header of %d bytes: %w", stage, headerSize, err)
	}
	program, err := gx2.Acquire(dev, programSize, gx2.ShaderProgramAlignment)
	if err != nil {
		header.Release()
		return nil, fmt.Errorf("load %s shader: program of %d bytes: %w", stage, programSize, err)
	}

	refl, err := blob.Deserialize(stage, blobIndex, header.Bytes(), program.Bytes())
	if err != nil {
		program.Release()
		header.Release()
		return nil, fmt.Errorf("load %s shader: %w: %w", stage, ErrDeserializationFailed, err)
	}

	s := gx2.NewShader(stage, header, program)
	s.Size = programSize
	s.Reflection = refl

	dev.Invalidate(gx2.InvalidateCPUShader, s.Program().Bytes[:s.Size])
	return s, nil
}

// attribTable indexes attributes by name. The first of duplicate names wins.
func attribTable(vars []gx2.AttribVar) map[string]uint32 {
	t := make(map[string]uint32, len(vars))
	for _, v := range vars {
		if _, ok := t[v.Name]; !ok {
			t[v.Name] = v.Location
		}
	}
	return t
}

func blockTable(blocks []gx2.UniformBlock) map[string]gx2.UniformBlock {
	t := make(map[string]gx2.UniformBlock, len(blocks))
	for _, b := range blocks {
		if _, ok := t[b.Name]; !ok {
			t[b.Name] = b
		}
	}
	return t
}

// AddAttribute declares a vertex attribute read at offset bytes into each
// vertex of buffer slot 0. Declaration order is the binding order.
func (p *Program) AddAttribute(name string, offset uint32, format gx2.AttribFormat, swap gx2.EndianSwap) error {
	if p.vertex == nil {
		return fmt.Errorf("add attribute %q: %w", name, ErrProgramDestroyed)
	}
	if p.fetch != nil {
		return fmt.Errorf("add attribute %q: %w", name, ErrFetchInitialized)
	}
	loc, ok := p.vertexAttribs[name]
	if !ok {
		return fmt.Errorf("add attribute %q: %w", name, ErrUnknownAttribute)
	}

	p.attribs = append(p.attribs, Attribute{
		Name: name,
		Stream: gx2.AttribStream{
			Location:   loc,
			Buffer:     0,
			Offset:     offset,
			Format:     format,
			Type:       gx2.IndexPerVertex,
			AluDivisor: 0,
			Mask:       gx2.ComponentMask(format),
			EndianSwap: swap,
		},
	})
	return nil
}

// AddAttributeDefault is AddAttribute with the default endian swap.
func (p *Program) AddAttributeDefault(name string, offset uint32, format gx2.AttribFormat) error {
	return p.AddAttribute(name, offset, format, gx2.EndianDefault)
}

// Attributes returns the declared attributes in binding order.
func (p *Program) Attributes() []Attribute {
	out := make([]Attribute, len(p.attribs))
	copy(out, p.attribs)
	return out
}

func (p *Program) streams() []gx2.AttribStream {
	s := make([]gx2.AttribStream, len(p.attribs))
	for i, a := range p.attribs {
		s[i] = a.Stream
	}
	return s
}

// InitFetch derives the fetch shader from the declared attributes. It must
// run once, after the last AddAttribute and before Use.
func (p *Program) InitFetch() error {
	if p.vertex == nil {
		return fmt.Errorf("init fetch: %w", ErrProgramDestroyed)
	}
	if p.fetch != nil {
		return fmt.Errorf("init fetch: %w", ErrFetchInitialized)
	}
	if len(p.attribs) == 0 {
		return fmt.Errorf("init fetch: %w", ErrNoAttributes)
	}

	n := len(p.attribs)
	size := p.dev.FetchShaderSize(n, gx2.TessellationNone)

	header, err := gx2.Acquire(p.dev, gx2.FetchShaderHeaderSize, gx2.HeaderAlignment)
	if err != nil {
		return fmt.Errorf("init fetch: header: %w", err)
	}
	program, err := gx2.Acquire(p.dev, size, gx2.ShaderProgramAlignment)
	if err != nil {
		header.Release()
		return fmt.Errorf("init fetch: program of %d bytes: %w", size, err)
	}

	p.dev.BuildFetchShader(program.Bytes(), p.streams(), gx2.TessellationNone)
	p.fetch = gx2.NewFetchShader(header, program, n, gx2.TessellationNone)
	p.fetch.Size = size

	p.dev.Invalidate(gx2.InvalidateCPUShader, p.fetch.Program().Bytes[:size])

	p.log.Debug("fetch shader built", zap.Int("attribs", n), zap.Uint32("size", size))
	return nil
}

// InitUniform allocates the uniform buffer holding up to maxBytes of
// uniform data per frame. Calling it again replaces the buffer.
func (p *Program) InitUniform(maxBytes uint32) error {
	if p.vertex == nil {
		return fmt.Errorf("init uniform: %w", ErrProgramDestroyed)
	}
	buf, err := gx2.NewBuffer(p.dev, p.dev,
		gx2.BindUniformBlock|gx2.UsageCPUWrite|gx2.UsageGPURead|gx2.DisableCPUInvalidate,
		1, maxBytes)
	if err != nil {
		return fmt.Errorf("init uniform: %w", err)
	}
	if p.uniform != nil {
		p.uniform.Destroy()
	}
	p.uniform = buf
	p.frame = arena.New(maxBytes, gx2.UniformBlockAlignment)
	return nil
}

// BeginFrame rewinds the uniform write cursor. Call it once per frame
// before the first uniform update.
func (p *Program) BeginFrame() {
	if p.frame != nil {
		p.frame.Reset()
	}
}

// Offset returns the uniform write cursor.
func (p *Program) Offset() uint32 {
	if p.frame == nil {
		return 0
	}
	return p.frame.Offset()
}

// UniformCapacity returns the size of the uniform buffer.
func (p *Program) UniformCapacity() uint32 {
	if p.frame == nil {
		return 0
	}
	return p.frame.Cap()
}

// UniformBuffer returns the uniform buffer, or nil before InitUniform.
func (p *Program) UniformBuffer() *gx2.Buffer { return p.uniform }

// UpdateVertexUniform writes data into the uniform buffer and binds it to
// the vertex uniform block called name. data must already be in GPU byte
// order.
func (p *Program) UpdateVertexUniform(name string, data []byte) error {
	return p.updateUniform(gx2.StageVertex, name, data)
}

// UpdatePixelUniform is UpdateVertexUniform for the pixel stage.
func (p *Program) UpdatePixelUniform(name string, data []byte) error {
	return p.updateUniform(gx2.StagePixel, name, data)
}

func (p *Program) updateUniform(stage gx2.Stage, name string, data []byte) error {
	if p.uniform == nil {
		return fmt.Errorf("update %s uniform %q: %w", stage, name, ErrUniformNotInitialized)
	}
	blocks := p.vertexBlocks
	if stage == gx2.StagePixel {
		blocks = p.pixelBlocks
	}
	block, ok := blocks[name]
	if !ok {
		return fmt.Errorf("update %s uniform %q: %w", stage, name, ErrUnknownUniformBlock)
	}

	view, err := p.uniform.Lock()
	if err != nil {
		return fmt.Errorf("update %s uniform %q: %w", stage, name, err)
	}
	size := uint32(len(data))
	off, err := p.frame.Allocate(size)
	if err != nil {
		p.uniform.Unlock()
		return fmt.Errorf("update %s uniform %q: %w", stage, name, err)
	}

	dst := view[off : off+size]
	p.dev.Invalidate(gx2.InvalidateCPUUniformBlock, dst)
	copy(dst, data)
	p.uniform.Unlock()

	if stage == gx2.StagePixel {
		p.dev.SetPixelUniformBlock(block.Offset, size, p.uniform.Block(), off)
	} else {
		p.dev.SetVertexUniformBlock(block.Offset, size, p.uniform.Block(), off)
	}
	return nil
}

// Use binds the program's shaders as the active pipeline stages.
func (p *Program) Use() {
	if p.vertex == nil || p.pixel == nil {
		p.log.Warn("use of a destroyed program")
		return
	}
	p.dev.SetShaderMode(gx2.ShaderModeUniformBlock)
	p.dev.SetVertexShader(p.vertex)
	p.dev.SetPixelShader(p.pixel)
	if p.fetch == nil {
		if !p.warned {
			p.log.Warn("program used before InitFetch; fetch stage left unbound")
			p.warned = true
		}
		return
	}
	p.dev.SetFetchShader(p.fetch)
}

// VertexShader returns the vertex shader.
func (p *Program) VertexShader() *gx2.Shader { return p.vertex }

// PixelShader returns the pixel shader.
func (p *Program) PixelShader() *gx2.Shader { return p.pixel }

// FetchShader returns the fetch shader, or nil before InitFetch.
func (p *Program) FetchShader() *gx2.FetchShader { return p.fetch }

// Destroy frees every resource the program owns and drops its attribute
// declarations. It is safe to call more than once.
func (p *Program) Destroy() {
	p.fetch.Release()
	p.vertex.Release()
	p.pixel.Release()
	if p.uniform != nil {
		p.uniform.Destroy()
	}
	p.fetch, p.vertex, p.pixel, p.uniform, p.frame = nil, nil, nil, nil, nil
	p.attribs = nil
	p.vertexAttribs, p.vertexBlocks, p.pixelBlocks = nil, nil, nil
}
