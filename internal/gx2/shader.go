package gx2

// AttribVar is a named vertex shader input.
type AttribVar struct {
	Name     string
	Location uint32
}

// UniformBlock is a named uniform block slot. Offset is the slot the block
// is bound to.
type UniformBlock struct {
	Name   string
	Offset uint32
	Size   uint32
}

// Reflection is the metadata stored in a shader header.
type Reflection struct {
	Mode          ShaderMode
	Attribs       []AttribVar
	UniformBlocks []UniformBlock
}

// Shader is a GPU-resident vertex or pixel shader.
type Shader struct {
	Stage      Stage
	Size       uint32
	Reflection Reflection

	header  Owned
	program Owned
}

// NewShader wraps an owned header and program.
func NewShader(stage Stage, header, program Owned) *Shader {
	return &Shader{
		Stage:   stage,
		Size:    program.Block().Size(),
		header:  header,
		program: program,
	}
}

// Program returns the program memory.
func (s *Shader) Program() *Block { return s.program.Block() }

// Header returns the header memory.
func (s *Shader) Header() *Block { return s.header.Block() }

// Release frees the header and program.
func (s *Shader) Release() {
	if s == nil {
		return
	}
	s.program.Release()
	s.header.Release()
}

// IndexType selects how a stream is indexed.
type IndexType int

const (
	IndexPerVertex IndexType = iota
	IndexPerInstance
)

// AttribStream describes one attribute fetched from a vertex buffer.
type AttribStream struct {
	Location   uint32
	Buffer     uint32
	Offset     uint32
	Format     AttribFormat
	Type       IndexType
	AluDivisor uint32
	Mask       uint32
	EndianSwap EndianSwap
}

// FetchShader is a derived program that feeds vertex shader inputs.
type FetchShader struct {
	Size         uint32
	AttribCount  int
	Tessellation TessellationMode

	header  Owned
	program Owned
}

// NewFetchShader wraps an owned header and program.
func NewFetchShader(header, program Owned, attribs int, tess TessellationMode) *FetchShader {
	return &FetchShader{
		Size:         program.Block().Size(),
		AttribCount:  attribs,
		Tessellation: tess,
		header:       header,
		program:      program,
	}
}

// Program returns the program memory.
func (f *FetchShader) Program() *Block { return f.program.Block() }

// Release frees the header and program.
func (f *FetchShader) Release() {
	if f == nil {
		return
	}
	f.program.Release()
	f.header.Release()
}
