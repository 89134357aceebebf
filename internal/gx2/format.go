package gx2

import "fmt"

// AttribFormat is the component layout of a vertex attribute.
type AttribFormat int

const (
	FormatInvalid AttribFormat = iota

	SNorm8x1
	SNorm8x2
	SNorm8x4

	UNorm8x1
	UNorm8x2
	UNorm8x4

	SInt8x1
	SInt8x2
	SInt8x4

	UInt8x1
	UInt8x2
	UInt8x4

	Float32x1
	Float32x2
	Float32x3
	Float32x4
)

var attribFormatNames = map[AttribFormat]string{
	SNorm8x1:  "snorm8x1",
	SNorm8x2:  "snorm8x2",
	SNorm8x4:  "snorm8x4",
	UNorm8x1:  "unorm8x1",
	UNorm8x2:  "unorm8x2",
	UNorm8x4:  "unorm8x4",
	SInt8x1:   "sint8x1",
	SInt8x2:   "sint8x2",
	SInt8x4:   "sint8x4",
	UInt8x1:   "uint8x1",
	UInt8x2:   "uint8x2",
	UInt8x4:   "uint8x4",
	Float32x1: "float32x1",
	Float32x2: "float32x2",
	Float32x3: "float32x3",
	Float32x4: "float32x4",
}

func (f AttribFormat) String() string {
	if s, ok := attribFormatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("AttribFormat(%d)", int(f))
}

// ParseAttribFormat returns the format named s, as printed by String.
func ParseAttribFormat(s string) (AttribFormat, error) {
	for f, name := range attribFormatNames {
		if name == s {
			return f, nil
		}
	}
	return FormatInvalid, fmt.Errorf("unknown attribute format %q", s)
}

// nativeAttribFormat maps formats to GX2_ATTRIB_FORMAT_* codes.
var nativeAttribFormat = map[AttribFormat]uint32{
	UNorm8x1:  0x000,
	UNorm8x2:  0x004,
	UNorm8x4:  0x00a,
	UInt8x1:   0x100,
	UInt8x2:   0x104,
	UInt8x4:   0x10a,
	SNorm8x1:  0x200,
	SNorm8x2:  0x204,
	SNorm8x4:  0x20a,
	SInt8x1:   0x300,
	SInt8x2:   0x304,
	SInt8x4:   0x30a,
	Float32x1: 0x806,
	Float32x2: 0x80d,
	Float32x3: 0x811,
	Float32x4: 0x813,
}

// Native returns the GX2 attribute format code.
func (f AttribFormat) Native() (uint32, bool) {
	v, ok := nativeAttribFormat[f]
	return v, ok
}

// Size returns the number of bytes one element of f occupies.
func (f AttribFormat) Size() uint32 {
	switch f {
	case SNorm8x1, UNorm8x1, SInt8x1, UInt8x1:
		return 1
	case SNorm8x2, UNorm8x2, SInt8x2, UInt8x2:
		return 2
	case SNorm8x4, UNorm8x4, SInt8x4, UInt8x4, Float32x1:
		return 4
	case Float32x2:
		return 8
	case Float32x3:
		return 12
	case Float32x4:
		return 16
	default:
		return 0
	}
}

// EndianSwap is the byte swap applied while fetching an attribute stream.
type EndianSwap int

const (
	EndianDefault EndianSwap = iota
	EndianNone
	Endian8In16
	Endian8In32
)

var nativeEndianSwap = map[EndianSwap]uint32{
	EndianNone:    0,
	Endian8In16:   1,
	Endian8In32:   2,
	EndianDefault: 3,
}

// Native returns the GX2_ENDIAN_SWAP_* code.
func (e EndianSwap) Native() (uint32, bool) {
	v, ok := nativeEndianSwap[e]
	return v, ok
}

func (e EndianSwap) String() string {
	switch e {
	case EndianDefault:
		return "default"
	case EndianNone:
		return "none"
	case Endian8In16:
		return "8in16"
	case Endian8In32:
		return "8in32"
	default:
		return fmt.Sprintf("EndianSwap(%d)", int(e))
	}
}

// ParseEndianSwap returns the swap named s, as printed by String. An empty
// name is EndianDefault.
func ParseEndianSwap(s string) (EndianSwap, error) {
	if s == "" {
		return EndianDefault, nil
	}
	for e := range nativeEndianSwap {
		if e.String() == s {
			return e, nil
		}
	}
	return EndianDefault, fmt.Errorf("unknown endian swap %q", s)
}

// Sel selects the source of one destination register channel.
type Sel uint32

const (
	SelX Sel = iota
	SelY
	SelZ
	SelW
	Sel0
	Sel1
)

// SelMask packs four channel selectors into a component mask.
func SelMask(x, y, z, w Sel) uint32 {
	return uint32(x)<<24 | uint32(y)<<16 | uint32(z)<<8 | uint32(w)
}

// ComponentMask returns the channel mask the fetch stage uses for f.
// Missing channels are filled with 0, and W with 1.
func ComponentMask(f AttribFormat) uint32 {
	switch f {
	case SNorm8x1, UNorm8x1, SInt8x1, UInt8x1, Float32x1:
		return SelMask(SelX, Sel0, Sel0, Sel1)
	case SNorm8x2, UNorm8x2, SInt8x2, UInt8x2, Float32x2:
		return SelMask(SelX, SelY, Sel0, Sel1)
	case Float32x3:
		return SelMask(SelX, SelY, SelZ, Sel1)
	case SNorm8x4, UNorm8x4, SInt8x4, UInt8x4, Float32x4:
		return SelMask(SelX, SelY, SelZ, SelW)
	default:
		return SelMask(Sel0, Sel0, Sel0, Sel1)
	}
}
