package host

import (
	"encoding/binary"
	"fmt"

	"github.com/Faultbox/gx2res/internal/gx2"
)

// Fetch program layout: a control-flow section followed by one vertex
// fetch instruction per stream. All words are big endian.
const (
	fetchCFSize        = 16
	fetchInstrSize     = 16
	fetchTessExtraSize = 32
)

// FetchShaderSize implements gx2.Commands.
func (d *Device) FetchShaderSize(attribs int, tess gx2.TessellationMode) uint32 {
	size := uint32(fetchCFSize + attribs*fetchInstrSize)
	if tess != gx2.TessellationNone {
		size += fetchTessExtraSize
	}
	return size
}

// BuildFetchShader implements gx2.Commands.
func (d *Device) BuildFetchShader(program []byte, streams []gx2.AttribStream, tess gx2.TessellationMode) {
	d.commands++
	be := binary.BigEndian

	// Control flow: fetch clause address and count, then end of program.
	be.PutUint32(program[0:], fetchCFSize)
	be.PutUint32(program[4:], uint32(len(streams)))
	be.PutUint32(program[8:], uint32(tess))
	be.PutUint32(program[12:], 0xffffffff)

	for i, s := range streams {
		format, _ := s.Format.Native()
		swap, _ := s.EndianSwap.Native()
		w := program[fetchCFSize+i*fetchInstrSize:]
		be.PutUint32(w[0:], s.Location<<24|(s.Buffer&0xff)<<16|(swap&0xff)<<8|uint32(s.Type)&0xff)
		be.PutUint32(w[4:], s.Offset)
		be.PutUint32(w[8:], format<<16|s.AluDivisor&0xffff)
		be.PutUint32(w[12:], s.Mask)
	}
}

// FetchInstr is a decoded vertex fetch instruction.
type FetchInstr struct {
	Location   uint32
	Buffer     uint32
	EndianSwap uint32
	Type       uint32
	Offset     uint32
	Format     uint32
	AluDivisor uint32
	Mask       uint32
}

// DecodeFetchProgram decodes a program written by BuildFetchShader.
func DecodeFetchProgram(program []byte) ([]FetchInstr, error) {
	if len(program) < fetchCFSize {
		return nil, fmt.Errorf("fetch program too short: %d bytes", len(program))
	}
	be := binary.BigEndian
	n := int(be.Uint32(program[4:]))
	if len(program) < fetchCFSize+n*fetchInstrSize {
		return nil, fmt.Errorf("fetch program of %d bytes cannot hold %d instructions", len(program), n)
	}

	out := make([]FetchInstr, n)
	for i := range out {
		w := program[fetchCFSize+i*fetchInstrSize:]
		w0 := be.Uint32(w[0:])
		w2 := be.Uint32(w[8:])
		out[i] = FetchInstr{
			Location:   w0 >> 24,
			Buffer:     w0 >> 16 & 0xff,
			EndianSwap: w0 >> 8 & 0xff,
			Type:       w0 & 0xff,
			Offset:     be.Uint32(w[4:]),
			Format:     w2 >> 16,
			AluDivisor: w2 & 0xffff,
			Mask:       be.Uint32(w[12:]),
		}
	}
	return out, nil
}
