package manifest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/Faultbox/gx2res/internal/gx2"
)

// headerMagic starts every encoded shader header.
var headerMagic = [4]byte{'G', 'S', 'H', '1'}

var errBadHeader = errors.New("invalid shader header")

// encodeHeader serializes reflection metadata, big endian:
//
//	magic[4] mode:u32
//	nattribs:u32 { len:u16 name location:u32 }
//	nblocks:u32  { len:u16 name offset:u32 size:u32 }
func encodeHeader(r gx2.Reflection) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(headerMagic[:])
	binary.Write(buf, binary.BigEndian, uint32(r.Mode))

	binary.Write(buf, binary.BigEndian, uint32(len(r.Attribs)))
	for _, a := range r.Attribs {
		if err := writeName(buf, a.Name); err != nil {
			return nil, err
		}
		binary.Write(buf, binary.BigEndian, a.Location)
	}

	binary.Write(buf, binary.BigEndian, uint32(len(r.UniformBlocks)))
	for _, u := range r.UniformBlocks {
		if err := writeName(buf, u.Name); err != nil {
			return nil, err
		}
		binary.Write(buf, binary.BigEndian, u.Offset)
		binary.Write(buf, binary.BigEndian, u.Size)
	}
	return buf.Bytes(), nil
}

func writeName(buf *bytes.Buffer, name string) error {
	if name == "" || len(name) > 0xffff {
		return fmt.Errorf("invalid name length %d", len(name))
	}
	binary.Write(buf, binary.BigEndian, uint16(len(name)))
	buf.WriteString(name)
	return nil
}

// decodeHeader parses a header written by encodeHeader. Trailing bytes are
// ignored.
func decodeHeader(data []byte) (gx2.Reflection, error) {
	r := bytes.NewReader(data)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != headerMagic {
		return gx2.Reflection{}, errBadHeader
	}

	var refl gx2.Reflection
	var mode, n uint32
	if err := binary.Read(r, binary.BigEndian, &mode); err != nil {
		return gx2.Reflection{}, fmt.Errorf("%w: mode: %v", errBadHeader, err)
	}
	refl.Mode = gx2.ShaderMode(mode)

	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return gx2.Reflection{}, fmt.Errorf("%w: attrib count: %v", errBadHeader, err)
	}
	for i := uint32(0); i < n; i++ {
		name, err := readName(r)
		if err != nil {
			return gx2.Reflection{}, err
		}
		var loc uint32
		if err := binary.Read(r, binary.BigEndian, &loc); err != nil {
			return gx2.Reflection{}, fmt.Errorf("%w: attrib %q: %v", errBadHeader, name, err)
		}
		refl.Attribs = append(refl.Attribs, gx2.AttribVar{Name: name, Location: loc})
	}

	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return gx2.Reflection{}, fmt.Errorf("%w: block count: %v", errBadHeader, err)
	}
	for i := uint32(0); i < n; i++ {
		name, err := readName(r)
		if err != nil {
			return gx2.Reflection{}, err
		}
		var v [2]uint32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return gx2.Reflection{}, fmt.Errorf("%w: block %q: %v", errBadHeader, name, err)
		}
		refl.UniformBlocks = append(refl.UniformBlocks, gx2.UniformBlock{Name: name, Offset: v[0], Size: v[1]})
	}
	return refl, nil
}

func readName(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", fmt.Errorf("%w: name length: %v", errBadHeader, err)
	}
	name := make([]byte, n)
	if _, err := io.ReadFull(r, name); err != nil {
		return "", fmt.Errorf("%w: name: %v", errBadHeader, err)
	}
	return string(name), nil
}
