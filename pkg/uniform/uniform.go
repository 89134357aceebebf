// Package uniform packs uniform block payloads. The GPU reads uniforms in
// big-endian order, so every helper here produces big-endian bytes ready
// for shader.Program.UpdateVertexUniform and UpdatePixelUniform.
package uniform

import (
	"encoding/binary"
	"math"
)

// AppendFloat32s appends v to dst as big-endian IEEE 754 words.
func AppendFloat32s(dst []byte, v ...float32) []byte {
	for _, f := range v {
		dst = binary.BigEndian.AppendUint32(dst, math.Float32bits(f))
	}
	return dst
}

// Float32s packs v into a new payload.
func Float32s(v ...float32) []byte {
	return AppendFloat32s(make([]byte, 0, 4*len(v)), v...)
}

// Vec4 packs a four-component vector.
func Vec4(x, y, z, w float32) []byte {
	return Float32s(x, y, z, w)
}

// Color packs an RGBA color.
func Color(r, g, b, a float32) []byte {
	return Vec4(r, g, b, a)
}

// Mat4 is a 4x4 matrix in column-major order.
// Layout: [m0 m4 m8  m12]
//
//	[m1 m5 m9  m13]
//	[m2 m6 m10 m14]
//	[m3 m7 m11 m15]
type Mat4 [16]float32

// Identity returns an identity matrix.
func Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Ortho returns an orthographic projection matrix.
func Ortho(left, right, bottom, top, near, far float32) Mat4 {
	rl := 1.0 / (right - left)
	tb := 1.0 / (top - bottom)
	fn := 1.0 / (far - near)

	return Mat4{
		2 * rl, 0, 0, 0,
		0, 2 * tb, 0, 0,
		0, 0, -2 * fn, 0,
		-(right + left) * rl, -(top + bottom) * tb, -(far + near) * fn, 1,
	}
}

// Translate returns a translation matrix.
func Translate(x, y, z float32) Mat4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// RotateZ returns a rotation around the Z axis. angle is in radians.
func RotateZ(angle float32) Mat4 {
	c := float32(math.Cos(float64(angle)))
	s := float32(math.Sin(float64(angle)))

	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mul returns m * other.
func (m Mat4) Mul(other Mat4) Mat4 {
	var out Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+r] * other[c*4+k]
			}
			out[c*4+r] = sum
		}
	}
	return out
}

// Bytes packs m column by column.
func (m Mat4) Bytes() []byte {
	return Float32s(m[:]...)
}
