// Package manifest loads shader sets described by a YAML manifest and
// serves them through the gx2.Loader interface. It stands in for a
// compiled shader container on the host: reflection metadata comes from
// the manifest, program bytes from files next to it or inline hex.
package manifest

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Faultbox/gx2res/internal/gx2"
)

// Manifest is the YAML document.
type Manifest struct {
	Sets []SetSpec `yaml:"sets"`
}

// SetSpec describes one vertex/pixel shader pair and the vertex layout
// its attributes are fetched with.
type SetSpec struct {
	Name   string       `yaml:"name"`
	Vertex StageSpec    `yaml:"vertex"`
	Pixel  StageSpec    `yaml:"pixel"`
	Layout []LayoutSpec `yaml:"layout"`
}

// LayoutSpec places one named attribute in the vertex stream.
type LayoutSpec struct {
	Name   string `yaml:"name"`
	Offset uint32 `yaml:"offset"`
	Format string `yaml:"format"`
	Endian string `yaml:"endian"`
}

// Element is a parsed LayoutSpec.
type Element struct {
	Name   string
	Offset uint32
	Format gx2.AttribFormat
	Endian gx2.EndianSwap
}

// StageSpec describes one shader stage. The program comes from Program (a
// file path relative to the manifest) or ProgramHex; ProgramSize pads it
// with zeros, or alone yields an all-zero program.
type StageSpec struct {
	Mode          string       `yaml:"mode"`
	Program       string       `yaml:"program"`
	ProgramHex    string       `yaml:"program_hex"`
	ProgramSize   uint32       `yaml:"program_size"`
	Attribs       []AttribSpec `yaml:"attribs"`
	UniformBlocks []BlockSpec  `yaml:"uniform_blocks"`
}

// AttribSpec is a vertex input.
type AttribSpec struct {
	Name     string `yaml:"name"`
	Location uint32 `yaml:"location"`
}

// BlockSpec is a uniform block.
type BlockSpec struct {
	Name   string `yaml:"name"`
	Offset uint32 `yaml:"offset"`
	Size   uint32 `yaml:"size"`
}

var shaderModes = map[string]gx2.ShaderMode{
	"":                 gx2.ShaderModeUniformBlock,
	"uniform_block":    gx2.ShaderModeUniformBlock,
	"uniform_register": gx2.ShaderModeUniformRegister,
	"geometry":         gx2.ShaderModeGeometryShader,
	"compute":          gx2.ShaderModeComputeShader,
}

type stage struct {
	header  []byte
	program []byte
}

// Blob is a parsed manifest. It implements gx2.Loader.
type Blob struct {
	names   []string
	sets    [][2]stage // indexed by gx2.Stage
	layouts [][]Element
}

// Load reads and parses the manifest at path.
func Load(path string) (*Blob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// Parse parses a manifest. Program paths are resolved against baseDir.
func Parse(data []byte, baseDir string) (*Blob, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if len(m.Sets) == 0 {
		return nil, fmt.Errorf("manifest has no shader sets")
	}

	b := &Blob{}
	for i, set := range m.Sets {
		var st [2]stage
		for s, spec := range map[gx2.Stage]StageSpec{gx2.StageVertex: set.Vertex, gx2.StagePixel: set.Pixel} {
			built, err := buildStage(spec, baseDir)
			if err != nil {
				return nil, fmt.Errorf("set %d (%s) %s: %w", i, set.Name, s, err)
			}
			st[s] = built
		}
		layout, err := buildLayout(set.Layout)
		if err != nil {
			return nil, fmt.Errorf("set %d (%s) layout: %w", i, set.Name, err)
		}
		b.names = append(b.names, set.Name)
		b.sets = append(b.sets, st)
		b.layouts = append(b.layouts, layout)
	}
	return b, nil
}

func buildStage(spec StageSpec, baseDir string) (stage, error) {
	mode, ok := shaderModes[spec.Mode]
	if !ok {
		return stage{}, fmt.Errorf("unknown shader mode %q", spec.Mode)
	}

	var program []byte
	switch {
	case spec.Program != "" && spec.ProgramHex != "":
		return stage{}, fmt.Errorf("program and program_hex are exclusive")
	case spec.Program != "":
		path := spec.Program
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return stage{}, fmt.Errorf("reading program: %w", err)
		}
		program = data
	case spec.ProgramHex != "":
		data, err := hex.DecodeString(spec.ProgramHex)
		if err != nil {
			return stage{}, fmt.Errorf("decoding program_hex: %w", err)
		}
		program = data
	}
	if uint32(len(program)) < spec.ProgramSize {
		program = append(program, make([]byte, int(spec.ProgramSize)-len(program))...)
	}

	refl := gx2.Reflection{Mode: mode}
	for _, a := range spec.Attribs {
		refl.Attribs = append(refl.Attribs, gx2.AttribVar{Name: a.Name, Location: a.Location})
	}
	for _, u := range spec.UniformBlocks {
		refl.UniformBlocks = append(refl.UniformBlocks, gx2.UniformBlock{Name: u.Name, Offset: u.Offset, Size: u.Size})
	}
	header, err := encodeHeader(refl)
	if err != nil {
		return stage{}, err
	}
	return stage{header: header, program: program}, nil
}

func buildLayout(specs []LayoutSpec) ([]Element, error) {
	var out []Element
	for _, l := range specs {
		format, err := gx2.ParseAttribFormat(l.Format)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.Name, err)
		}
		swap, err := gx2.ParseEndianSwap(l.Endian)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.Name, err)
		}
		out = append(out, Element{Name: l.Name, Offset: l.Offset, Format: format, Endian: swap})
	}
	return out, nil
}

// Sets returns the number of shader sets.
func (b *Blob) Sets() int { return len(b.sets) }

// Index returns the index of the set called name.
func (b *Blob) Index(name string) (uint32, bool) {
	for i, n := range b.names {
		if n == name {
			return uint32(i), true
		}
	}
	return 0, false
}

// Names returns the set names in manifest order.
func (b *Blob) Names() []string { return b.names }

// Layout returns the vertex layout of set index.
func (b *Blob) Layout(index uint32) []Element {
	if int(index) >= len(b.layouts) {
		return nil
	}
	return b.layouts[index]
}

// Select returns a Blob holding only the set called name, at index 0.
// An empty name selects the first set.
func (b *Blob) Select(name string) (*Blob, error) {
	index := uint32(0)
	if name != "" {
		i, ok := b.Index(name)
		if !ok {
			return nil, fmt.Errorf("no shader set %q", name)
		}
		index = i
	}
	return &Blob{
		names:   b.names[index : index+1],
		sets:    b.sets[index : index+1],
		layouts: b.layouts[index : index+1],
	}, nil
}

func (b *Blob) stage(s gx2.Stage, index uint32) (stage, bool) {
	if int(index) >= len(b.sets) || (s != gx2.StageVertex && s != gx2.StagePixel) {
		return stage{}, false
	}
	return b.sets[index][s], true
}

// HeaderSize implements gx2.Loader.
func (b *Blob) HeaderSize(s gx2.Stage, index uint32) uint32 {
	st, _ := b.stage(s, index)
	return uint32(len(st.header))
}

// ProgramSize implements gx2.Loader.
func (b *Blob) ProgramSize(s gx2.Stage, index uint32) uint32 {
	st, _ := b.stage(s, index)
	return uint32(len(st.program))
}

// Deserialize implements gx2.Loader.
func (b *Blob) Deserialize(s gx2.Stage, index uint32, header, program []byte) (gx2.Reflection, error) {
	st, ok := b.stage(s, index)
	if !ok {
		return gx2.Reflection{}, fmt.Errorf("no %s shader in set %d", s, index)
	}
	if len(header) < len(st.header) {
		return gx2.Reflection{}, fmt.Errorf("header buffer of %d bytes, need %d", len(header), len(st.header))
	}
	if len(program) < len(st.program) {
		return gx2.Reflection{}, fmt.Errorf("program buffer of %d bytes, need %d", len(program), len(st.program))
	}
	copy(header, st.header)
	copy(program, st.program)
	return decodeHeader(header)
}
