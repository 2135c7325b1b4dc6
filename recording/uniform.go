package recording

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// UniformKind is the GLSL type of a uniform value.
type UniformKind uint8

const (
	UniformInvalid UniformKind = iota
	UniformFloat
	UniformVec2
	UniformVec3
	UniformVec4
	UniformInt
	UniformIVec2
	UniformIVec3
	UniformIVec4
	UniformMat2
	UniformMat3
	UniformMat4
)

var uniformKindNames = [...]string{
	UniformInvalid: "invalid",
	UniformFloat:   "float",
	UniformVec2:    "vec2",
	UniformVec3:    "vec3",
	UniformVec4:    "vec4",
	UniformInt:     "int",
	UniformIVec2:   "ivec2",
	UniformIVec3:   "ivec3",
	UniformIVec4:   "ivec4",
	UniformMat2:    "mat2",
	UniformMat3:    "mat3",
	UniformMat4:    "mat4",
}

// uniformLen is the component count per kind.
var uniformLen = [...]int{
	UniformFloat: 1, UniformVec2: 2, UniformVec3: 3, UniformVec4: 4,
	UniformInt: 1, UniformIVec2: 2, UniformIVec3: 3, UniformIVec4: 4,
	UniformMat2: 4, UniformMat3: 9, UniformMat4: 16,
}

// String returns the GLSL type name.
func (k UniformKind) String() string {
	if int(k) < len(uniformKindNames) {
		return uniformKindNames[k]
	}
	return "unknown"
}

// UniformValue is a tagged uniform value. It is comparable with ==, which
// the state cache uses to skip redundant uploads.
type UniformValue struct {
	kind UniformKind
	f    [16]float32
	i    [4]int32
}

// Float returns a float uniform.
func Float(x float32) UniformValue {
	return UniformValue{kind: UniformFloat, f: [16]float32{x}}
}

// Vec2 returns a vec2 uniform.
func Vec2(x, y float32) UniformValue {
	return UniformValue{kind: UniformVec2, f: [16]float32{x, y}}
}

// Vec3 returns a vec3 uniform.
func Vec3(x, y, z float32) UniformValue {
	return UniformValue{kind: UniformVec3, f: [16]float32{x, y, z}}
}

// Vec4 returns a vec4 uniform.
func Vec4(x, y, z, w float32) UniformValue {
	return UniformValue{kind: UniformVec4, f: [16]float32{x, y, z, w}}
}

// ColorValue returns c as a vec4 uniform.
func ColorValue(c gputypes.Color) UniformValue {
	return Vec4(float32(c.R), float32(c.G), float32(c.B), float32(c.A))
}

// Int returns an int uniform. Sampler uniforms take the texture unit.
func Int(x int32) UniformValue {
	return UniformValue{kind: UniformInt, i: [4]int32{x}}
}

// IVec2 returns an ivec2 uniform.
func IVec2(x, y int32) UniformValue {
	return UniformValue{kind: UniformIVec2, i: [4]int32{x, y}}
}

// IVec3 returns an ivec3 uniform.
func IVec3(x, y, z int32) UniformValue {
	return UniformValue{kind: UniformIVec3, i: [4]int32{x, y, z}}
}

// IVec4 returns an ivec4 uniform.
func IVec4(x, y, z, w int32) UniformValue {
	return UniformValue{kind: UniformIVec4, i: [4]int32{x, y, z, w}}
}

// Mat2 returns a column-major mat2 uniform.
func Mat2(m [4]float32) UniformValue {
	v := UniformValue{kind: UniformMat2}
	copy(v.f[:], m[:])
	return v
}

// Mat3 returns a column-major mat3 uniform.
func Mat3(m [9]float32) UniformValue {
	v := UniformValue{kind: UniformMat3}
	copy(v.f[:], m[:])
	return v
}

// Mat4 returns a column-major mat4 uniform.
func Mat4(m [16]float32) UniformValue {
	return UniformValue{kind: UniformMat4, f: m}
}

// Kind returns the value's type.
func (v UniformValue) Kind() UniformKind { return v.kind }

// Valid reports whether v was built by one of the constructors.
func (v UniformValue) Valid() bool { return v.kind != UniformInvalid && int(v.kind) < len(uniformLen) }

// IsInt reports whether v is an int vector.
func (v UniformValue) IsInt() bool { return v.kind >= UniformInt && v.kind <= UniformIVec4 }

// Floats returns the float components. Nil for int kinds.
func (v UniformValue) Floats() []float32 {
	if !v.Valid() || v.IsInt() {
		return nil
	}
	return v.f[:uniformLen[v.kind]]
}

// Ints returns the int components. Nil for float kinds.
func (v UniformValue) Ints() []int32 {
	if !v.IsInt() {
		return nil
	}
	return v.i[:uniformLen[v.kind]]
}

// String formats the value like a GLSL constructor.
func (v UniformValue) String() string {
	switch {
	case !v.Valid():
		return "invalid"
	case v.IsInt():
		return fmt.Sprintf("%s%v", v.kind, v.Ints())
	}
	return fmt.Sprintf("%s%v", v.kind, v.Floats())
}
