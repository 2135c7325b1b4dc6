package gl

import "fmt"

// Enum is a GL enumerant.
type Enum uint32

// WebGL2 constants used by glcore.
const (
	NO_ERROR                      Enum = 0
	INVALID_ENUM                  Enum = 0x0500
	INVALID_VALUE                 Enum = 0x0501
	INVALID_OPERATION             Enum = 0x0502
	OUT_OF_MEMORY                 Enum = 0x0505
	INVALID_FRAMEBUFFER_OPERATION Enum = 0x0506
	CONTEXT_LOST_WEBGL            Enum = 0x9242

	DEPTH_BUFFER_BIT   Enum = 0x00000100
	STENCIL_BUFFER_BIT Enum = 0x00000400
	COLOR_BUFFER_BIT   Enum = 0x00004000

	POINTS         Enum = 0x0000
	LINES          Enum = 0x0001
	LINE_LOOP      Enum = 0x0002
	LINE_STRIP     Enum = 0x0003
	TRIANGLES      Enum = 0x0004
	TRIANGLE_STRIP Enum = 0x0005
	TRIANGLE_FAN   Enum = 0x0006

	ZERO                     Enum = 0
	ONE                      Enum = 1
	SRC_COLOR                Enum = 0x0300
	ONE_MINUS_SRC_COLOR      Enum = 0x0301
	SRC_ALPHA                Enum = 0x0302
	ONE_MINUS_SRC_ALPHA      Enum = 0x0303
	DST_ALPHA                Enum = 0x0304
	ONE_MINUS_DST_ALPHA      Enum = 0x0305
	DST_COLOR                Enum = 0x0306
	ONE_MINUS_DST_COLOR      Enum = 0x0307
	SRC_ALPHA_SATURATE       Enum = 0x0308
	CONSTANT_COLOR           Enum = 0x8001
	ONE_MINUS_CONSTANT_COLOR Enum = 0x8002
	FUNC_ADD                 Enum = 0x8006
	MIN                      Enum = 0x8007
	MAX                      Enum = 0x8008
	FUNC_SUBTRACT            Enum = 0x800A
	FUNC_REVERSE_SUBTRACT    Enum = 0x800B

	NEVER    Enum = 0x0200
	LESS     Enum = 0x0201
	EQUAL    Enum = 0x0202
	LEQUAL   Enum = 0x0203
	GREATER  Enum = 0x0204
	NOTEQUAL Enum = 0x0205
	GEQUAL   Enum = 0x0206
	ALWAYS   Enum = 0x0207

	BLEND        Enum = 0x0BE2
	DEPTH_TEST   Enum = 0x0B71
	CULL_FACE    Enum = 0x0B44
	SCISSOR_TEST Enum = 0x0C11

	ARRAY_BUFFER         Enum = 0x8892
	ELEMENT_ARRAY_BUFFER Enum = 0x8893
	UNIFORM_BUFFER       Enum = 0x8A11
	STREAM_DRAW          Enum = 0x88E0
	STATIC_DRAW          Enum = 0x88E4
	DYNAMIC_DRAW         Enum = 0x88E8

	BYTE           Enum = 0x1400
	UNSIGNED_BYTE  Enum = 0x1401
	SHORT          Enum = 0x1402
	UNSIGNED_SHORT Enum = 0x1403
	INT            Enum = 0x1404
	UNSIGNED_INT   Enum = 0x1405
	FLOAT          Enum = 0x1406
	HALF_FLOAT     Enum = 0x140B

	UNSIGNED_INT_24_8 Enum = 0x84FA

	TEXTURE_2D             Enum = 0x0DE1
	TEXTURE0               Enum = 0x84C0
	TEXTURE_MAG_FILTER     Enum = 0x2800
	TEXTURE_MIN_FILTER     Enum = 0x2801
	TEXTURE_WRAP_S         Enum = 0x2802
	TEXTURE_WRAP_T         Enum = 0x2803
	NEAREST                Enum = 0x2600
	LINEAR                 Enum = 0x2601
	NEAREST_MIPMAP_NEAREST Enum = 0x2700
	LINEAR_MIPMAP_LINEAR   Enum = 0x2703
	REPEAT                 Enum = 0x2901
	CLAMP_TO_EDGE          Enum = 0x812F
	MIRRORED_REPEAT        Enum = 0x8370

	RED              Enum = 0x1903
	RGBA             Enum = 0x1908
	DEPTH_STENCIL    Enum = 0x84F9
	R8               Enum = 0x8229
	R32F             Enum = 0x822E
	RGBA8            Enum = 0x8058
	RGBA32F          Enum = 0x8814
	SRGB8_ALPHA8     Enum = 0x8C43
	DEPTH24_STENCIL8 Enum = 0x88F0

	FRAGMENT_SHADER Enum = 0x8B30
	VERTEX_SHADER   Enum = 0x8B31
	COMPILE_STATUS  Enum = 0x8B81
	LINK_STATUS     Enum = 0x8B82

	MAX_TEXTURE_SIZE                 Enum = 0x0D33
	MAX_VERTEX_ATTRIBS               Enum = 0x8869
	MAX_COMBINED_TEXTURE_IMAGE_UNITS Enum = 0x8B4D
)

var errorNames = map[Enum]string{
	NO_ERROR:                      "NO_ERROR",
	INVALID_ENUM:                  "INVALID_ENUM",
	INVALID_VALUE:                 "INVALID_VALUE",
	INVALID_OPERATION:             "INVALID_OPERATION",
	OUT_OF_MEMORY:                 "OUT_OF_MEMORY",
	INVALID_FRAMEBUFFER_OPERATION: "INVALID_FRAMEBUFFER_OPERATION",
	CONTEXT_LOST_WEBGL:            "CONTEXT_LOST_WEBGL",
}

// ErrorString returns the symbolic name of a GetError code.
func ErrorString(code Enum) string {
	if name, ok := errorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("0x%04X", uint32(code))
}
