package recording

import (
	"testing"

	"github.com/gogpu/gputypes"
)

func TestUniformValues(t *testing.T) {
	tests := []struct {
		name   string
		v      UniformValue
		kind   UniformKind
		floats []float32
		ints   []int32
	}{
		{"float", Float(2), UniformFloat, []float32{2}, nil},
		{"vec2", Vec2(1, 2), UniformVec2, []float32{1, 2}, nil},
		{"vec3", Vec3(1, 2, 3), UniformVec3, []float32{1, 2, 3}, nil},
		{"vec4", Vec4(1, 2, 3, 4), UniformVec4, []float32{1, 2, 3, 4}, nil},
		{"color", ColorValue(gputypes.Color{R: 0.5, G: 0.25, B: 1, A: 1}), UniformVec4, []float32{0.5, 0.25, 1, 1}, nil},
		{"int", Int(7), UniformInt, nil, []int32{7}},
		{"ivec2", IVec2(1, 2), UniformIVec2, nil, []int32{1, 2}},
		{"ivec3", IVec3(1, 2, 3), UniformIVec3, nil, []int32{1, 2, 3}},
		{"ivec4", IVec4(1, 2, 3, 4), UniformIVec4, nil, []int32{1, 2, 3, 4}},
		{"mat2", Mat2([4]float32{1, 0, 0, 1}), UniformMat2, []float32{1, 0, 0, 1}, nil},
		{"mat3", Mat3([9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1}), UniformMat3, []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.v.Valid() {
				t.Fatal("Valid() = false")
			}
			if tt.v.Kind() != tt.kind {
				t.Errorf("Kind() = %v, want %v", tt.v.Kind(), tt.kind)
			}
			if !equalFloats(tt.v.Floats(), tt.floats) {
				t.Errorf("Floats() = %v, want %v", tt.v.Floats(), tt.floats)
			}
			if !equalInts(tt.v.Ints(), tt.ints) {
				t.Errorf("Ints() = %v, want %v", tt.v.Ints(), tt.ints)
			}
		})
	}
}

func TestUniformMat4(t *testing.T) {
	var m [16]float32
	for i := range m {
		m[i] = float32(i)
	}
	v := Mat4(m)
	if got := v.Floats(); len(got) != 16 || got[15] != 15 {
		t.Errorf("Floats() = %v", got)
	}
}

func TestUniformEquality(t *testing.T) {
	if Vec2(1, 2) != Vec2(1, 2) {
		t.Error("equal vec2 values compare unequal")
	}
	if Vec2(1, 2) == Vec3(1, 2, 0) {
		t.Error("vec2 and vec3 compare equal")
	}
	if Float(1) == Int(1) {
		t.Error("float and int compare equal")
	}
}

func TestUniformZeroInvalid(t *testing.T) {
	var v UniformValue
	if v.Valid() {
		t.Error("zero UniformValue is valid")
	}
	if v.Floats() != nil || v.Ints() != nil {
		t.Error("zero UniformValue has components")
	}
	if v.String() != "invalid" {
		t.Errorf("String() = %q", v.String())
	}
}

func equalFloats(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInts(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
