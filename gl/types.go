package gl

// Context-native object wrappers. Value holds whatever the implementation
// uses to identify the object (a js.Value for WebGL, an integer name for
// the tracing context). The zero value is the null object.
type (
	Buffer  struct{ Value any }
	Texture struct{ Value any }
	Shader  struct{ Value any }
	Program struct{ Value any }
	Uniform struct{ Value any }
)

// Valid reports whether b refers to an object.
func (b Buffer) Valid() bool { return b.Value != nil }

// Valid reports whether t refers to an object.
func (t Texture) Valid() bool { return t.Value != nil }

// Valid reports whether s refers to an object.
func (s Shader) Valid() bool { return s.Value != nil }

// Valid reports whether p refers to an object.
func (p Program) Valid() bool { return p.Value != nil }

// Valid reports whether u refers to an active uniform location.
func (u Uniform) Valid() bool { return u.Value != nil }
