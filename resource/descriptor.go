package resource

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/gl"
)

// VertexLayout describes how a vertex buffer feeds one attribute location.
type VertexLayout struct {
	// Format is the per-vertex attribute format.
	Format gputypes.VertexFormat
	// Stride is the byte distance between consecutive vertices.
	// Zero means tightly packed.
	Stride int
	// Offset is the byte offset of the first attribute.
	Offset int
}

// Attrib returns the vertexAttribPointer parameters for the layout.
func (l VertexLayout) Attrib() (size int, ty gl.Enum, normalized bool, err error) {
	switch l.Format {
	case gputypes.VertexFormatFloat32:
		return 1, gl.FLOAT, false, nil
	case gputypes.VertexFormatFloat32x2:
		return 2, gl.FLOAT, false, nil
	case gputypes.VertexFormatFloat32x3:
		return 3, gl.FLOAT, false, nil
	case gputypes.VertexFormatFloat32x4:
		return 4, gl.FLOAT, false, nil
	case gputypes.VertexFormatUnorm8x4:
		return 4, gl.UNSIGNED_BYTE, true, nil
	case gputypes.VertexFormatUint8x4:
		return 4, gl.UNSIGNED_BYTE, false, nil
	}
	return 0, 0, false, fmt.Errorf("unsupported vertex format %d", l.Format)
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	Label string
	// Usage must contain exactly one of BufferUsageVertex, BufferUsageIndex
	// or BufferUsageUniform. BufferUsageCopyDst allows UpdateBuffer and
	// selects a dynamic upload hint.
	Usage gputypes.BufferUsage
	// Size in bytes. Zero means len(data).
	Size int
	// Layout is required for vertex buffers.
	Layout VertexLayout
	// IndexFormat is required for index buffers.
	IndexFormat gputypes.IndexFormat
}

// TextureDescriptor describes a 2D texture to create.
type TextureDescriptor struct {
	Label  string
	Format gputypes.TextureFormat
	Width  int
	Height int

	MinFilter gputypes.FilterMode
	MagFilter gputypes.FilterMode
	WrapU     gputypes.AddressMode
	WrapV     gputypes.AddressMode
	// Mipmaps generates a full mip chain after every upload.
	Mipmaps bool
}

// textureFormat maps a gputypes format onto its WebGL2 upload triple.
type textureFormat struct {
	internal gl.Enum
	format   gl.Enum
	ty       gl.Enum
	bpp      int
	depth    bool
}

var textureFormats = map[gputypes.TextureFormat]textureFormat{
	gputypes.TextureFormatR8Unorm:             {gl.R8, gl.RED, gl.UNSIGNED_BYTE, 1, false},
	gputypes.TextureFormatRGBA8Unorm:          {gl.RGBA8, gl.RGBA, gl.UNSIGNED_BYTE, 4, false},
	gputypes.TextureFormatRGBA8UnormSrgb:      {gl.SRGB8_ALPHA8, gl.RGBA, gl.UNSIGNED_BYTE, 4, false},
	gputypes.TextureFormatR32Float:            {gl.R32F, gl.RED, gl.FLOAT, 4, false},
	gputypes.TextureFormatRGBA32Float:         {gl.RGBA32F, gl.RGBA, gl.FLOAT, 16, false},
	gputypes.TextureFormatDepth24PlusStencil8: {gl.DEPTH24_STENCIL8, gl.DEPTH_STENCIL, gl.UNSIGNED_INT_24_8, 4, true},
}

// BytesPerPixel returns the texel size of a supported format, or 0.
func BytesPerPixel(f gputypes.TextureFormat) int {
	return textureFormats[f].bpp
}

func filterEnum(f gputypes.FilterMode, mipmaps bool) gl.Enum {
	switch {
	case f == gputypes.FilterModeNearest && mipmaps:
		return gl.NEAREST_MIPMAP_NEAREST
	case f == gputypes.FilterModeNearest:
		return gl.NEAREST
	case mipmaps:
		return gl.LINEAR_MIPMAP_LINEAR
	}
	return gl.LINEAR
}

func wrapEnum(a gputypes.AddressMode) gl.Enum {
	switch a {
	case gputypes.AddressModeRepeat:
		return gl.REPEAT
	case gputypes.AddressModeMirrorRepeat:
		return gl.MIRRORED_REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func indexType(f gputypes.IndexFormat) (gl.Enum, int, bool) {
	switch f {
	case gputypes.IndexFormatUint16:
		return gl.UNSIGNED_SHORT, 2, true
	case gputypes.IndexFormatUint32:
		return gl.UNSIGNED_INT, 4, true
	}
	return 0, 0, false
}

// bufferTarget picks the bind target from usage. Exactly one role bit
// must be set.
func bufferTarget(u gputypes.BufferUsage) (gl.Enum, bool) {
	var target gl.Enum
	n := 0
	if u&gputypes.BufferUsageVertex != 0 {
		target, n = gl.ARRAY_BUFFER, n+1
	}
	if u&gputypes.BufferUsageIndex != 0 {
		target, n = gl.ELEMENT_ARRAY_BUFFER, n+1
	}
	if u&gputypes.BufferUsageUniform != 0 {
		target, n = gl.UNIFORM_BUFFER, n+1
	}
	return target, n == 1
}
