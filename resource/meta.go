package resource

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/gl"
	"github.com/gogpu/glcore/internal/cache"
)

// Buffer is the metadata stored in a buffer slot.
type Buffer struct {
	Label  string
	Usage  gputypes.BufferUsage
	Target gl.Enum
	Size   int

	Layout      VertexLayout
	IndexFormat gputypes.IndexFormat
}

// IsVertex reports whether the buffer feeds vertex attributes.
func (b *Buffer) IsVertex() bool { return b.Target == gl.ARRAY_BUFFER }

// IsIndex reports whether the buffer holds indices.
func (b *Buffer) IsIndex() bool { return b.Target == gl.ELEMENT_ARRAY_BUFFER }

// IsUniform reports whether the buffer backs a uniform block.
func (b *Buffer) IsUniform() bool { return b.Target == gl.UNIFORM_BUFFER }

// IndexType returns the GL element type and byte size of one index.
func (b *Buffer) IndexType() (gl.Enum, int) {
	ty, size, _ := indexType(b.IndexFormat)
	return ty, size
}

// Texture is the metadata stored in a texture slot.
type Texture struct {
	Label   string
	Format  gputypes.TextureFormat
	Width   int
	Height  int
	Mipmaps bool
	Size    int

	upload textureFormat
}

// maxCachedLocations bounds the uniform locations cached per program.
const maxCachedLocations = 64

// Program is the metadata stored in a program slot.
type Program struct {
	Label string

	locations *cache.Cache[string, gl.Uniform]
}

func newProgram() *Program {
	return &Program{locations: cache.New[string, gl.Uniform](maxCachedLocations)}
}

// UniformLocation resolves name against prog, caching the result. Unknown
// names resolve to the null location, which the context ignores.
func (p *Program) UniformLocation(ctx gl.Context, prog gl.Program, name string) gl.Uniform {
	return p.locations.GetOrCreate(name, func() gl.Uniform {
		return ctx.GetUniformLocation(prog, name)
	})
}

// LocationStats reports uniform location cache traffic.
func (p *Program) LocationStats() cache.Stats { return p.locations.Stats() }
