// Package gltrace provides a headless gl.Context that records every call and
// simulates the GL binding state.
//
// The tracing context never touches a GPU. It hands out integer object names,
// keeps track of what is bound where, and generates the GL errors a real
// WebGL2 implementation would raise for the common misuse cases (drawing
// without a program, using deleted objects). It is used by the glcore tests
// and by the glcore-trace command.
//
// Shader compilation follows real GLSL behavior for the #error directive: a
// source containing "#error msg" fails to compile and the info log carries
// the message. Link failures can be scripted with FailNextLink.
package gltrace

import (
	"fmt"
	"strings"

	"github.com/gogpu/glcore/gl"
)

// DefaultMaxTextureSize is reported for MAX_TEXTURE_SIZE unless overridden.
const DefaultMaxTextureSize = 4096

// Call is one recorded context call.
type Call struct {
	Name string
	Args []any
}

// String formats the call like a GL trace line.
func (c Call) String() string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = fmt.Sprint(a)
	}
	return c.Name + "(" + strings.Join(args, ", ") + ")"
}

type shaderObject struct {
	ty       gl.Enum
	source   string
	compiled bool
	log      string
}

type programObject struct {
	shaders  []uint32
	linked   bool
	log      string
	uniforms map[string]uint32
}

type attrib struct {
	enabled    bool
	buffer     uint32
	size       int
	ty         gl.Enum
	normalized bool
	stride     int
	offset     int
}

// Context is a recording gl.Context.
type Context struct {
	calls  []Call
	counts map[string]int

	nextName uint32
	buffers  map[uint32][]byte
	textures map[uint32][2]int
	shaders  map[uint32]*shaderObject
	programs map[uint32]*programObject

	targets      map[gl.Enum]uint32
	blocks       map[int]uint32
	attribs      map[int]*attrib
	program      uint32
	activeUnit   int
	units        map[int]uint32
	capabilities map[gl.Enum]bool

	blendFunc     [4]gl.Enum
	blendEquation [2]gl.Enum
	depthFunc     gl.Enum
	depthMask     bool
	clearColor    [4]float32
	clearDepth    float32
	viewport      [4]int

	framebuffer [4]float32
	cleared     int
	drawn       int

	pendingError gl.Enum
	injected     map[string]gl.Enum
	linkFailure  *string

	// MaxTextureSize is reported for MAX_TEXTURE_SIZE.
	MaxTextureSize int
}

var _ gl.Context = (*Context)(nil)

// New returns a tracing context in the default WebGL2 state.
func New() *Context {
	return &Context{
		counts:         make(map[string]int),
		buffers:        make(map[uint32][]byte),
		textures:       make(map[uint32][2]int),
		shaders:        make(map[uint32]*shaderObject),
		programs:       make(map[uint32]*programObject),
		targets:        make(map[gl.Enum]uint32),
		blocks:         make(map[int]uint32),
		attribs:        make(map[int]*attrib),
		units:          make(map[int]uint32),
		capabilities:   make(map[gl.Enum]bool),
		injected:       make(map[string]gl.Enum),
		blendFunc:      [4]gl.Enum{gl.ONE, gl.ZERO, gl.ONE, gl.ZERO},
		blendEquation:  [2]gl.Enum{gl.FUNC_ADD, gl.FUNC_ADD},
		depthFunc:      gl.LESS,
		depthMask:      true,
		clearDepth:     1,
		MaxTextureSize: DefaultMaxTextureSize,
	}
}

// --------------------------------------------------------------------------
// Inspection
// --------------------------------------------------------------------------

// Calls returns the recorded calls in order.
func (c *Context) Calls() []Call { return c.calls }

// Count returns how many times the named method was called.
func (c *Context) Count(name string) int { return c.counts[name] }

// ResetCalls clears the call log and counters but keeps all GL state.
func (c *Context) ResetCalls() {
	c.calls = c.calls[:0]
	c.counts = make(map[string]int)
}

// InjectError makes GetError report code after the next call to the named
// method.
func (c *Context) InjectError(method string, code gl.Enum) {
	c.injected[method] = code
}

// FailNextLink makes the next LinkProgram fail with the given info log.
func (c *Context) FailNextLink(log string) {
	c.linkFailure = &log
}

// LiveBuffers returns the number of buffers not yet deleted.
func (c *Context) LiveBuffers() int { return len(c.buffers) }

// LiveTextures returns the number of textures not yet deleted.
func (c *Context) LiveTextures() int { return len(c.textures) }

// LivePrograms returns the number of programs not yet deleted.
func (c *Context) LivePrograms() int { return len(c.programs) }

// LiveShaders returns the number of shaders not yet deleted.
func (c *Context) LiveShaders() int { return len(c.shaders) }

// BufferAlive reports whether b has not been deleted.
func (c *Context) BufferAlive(b gl.Buffer) bool {
	_, ok := c.buffers[name(b.Value)]
	return ok
}

// TextureAlive reports whether t has not been deleted.
func (c *Context) TextureAlive(t gl.Texture) bool {
	_, ok := c.textures[name(t.Value)]
	return ok
}

// ProgramAlive reports whether p has not been deleted.
func (c *Context) ProgramAlive(p gl.Program) bool {
	_, ok := c.programs[name(p.Value)]
	return ok
}

// BufferContents returns the current data store of b.
func (c *Context) BufferContents(b gl.Buffer) []byte { return c.buffers[name(b.Value)] }

// BoundBuffer returns the buffer bound to target.
func (c *Context) BoundBuffer(target gl.Enum) gl.Buffer { return bufferOf(c.targets[target]) }

// BoundBlock returns the buffer bound to an indexed uniform block slot.
func (c *Context) BoundBlock(index int) gl.Buffer { return bufferOf(c.blocks[index]) }

// AttribBuffer returns the buffer sourcing a vertex attribute, and whether
// the attribute array is enabled.
func (c *Context) AttribBuffer(index int) (gl.Buffer, bool) {
	a, ok := c.attribs[index]
	if !ok {
		return gl.Buffer{}, false
	}
	return bufferOf(a.buffer), a.enabled
}

// CurrentProgram returns the program in use.
func (c *Context) CurrentProgram() gl.Program {
	if c.program == 0 {
		return gl.Program{}
	}
	return gl.Program{Value: c.program}
}

// ActiveUnit returns the active texture unit index.
func (c *Context) ActiveUnit() int { return c.activeUnit }

// BoundTexture returns the 2D texture bound on a unit.
func (c *Context) BoundTexture(unit int) gl.Texture {
	if n := c.units[unit]; n != 0 {
		return gl.Texture{Value: n}
	}
	return gl.Texture{}
}

// IsEnabled reports a capability flag.
func (c *Context) IsEnabled(capability gl.Enum) bool { return c.capabilities[capability] }

// BlendFunc returns srcRGB, dstRGB, srcAlpha, dstAlpha.
func (c *Context) BlendFunc() [4]gl.Enum { return c.blendFunc }

// BlendEquation returns modeRGB, modeAlpha.
func (c *Context) BlendEquation() [2]gl.Enum { return c.blendEquation }

// DepthFuncValue returns the depth comparison function.
func (c *Context) DepthFuncValue() gl.Enum { return c.depthFunc }

// DepthMaskValue returns whether depth writes are enabled.
func (c *Context) DepthMaskValue() bool { return c.depthMask }

// ClearColorValue returns the clear color.
func (c *Context) ClearColorValue() [4]float32 { return c.clearColor }

// ViewportValue returns x, y, width, height.
func (c *Context) ViewportValue() [4]int { return c.viewport }

// Framebuffer returns the color the simulated framebuffer was last cleared
// to, and how many clears and draws reached it.
func (c *Context) Framebuffer() (color [4]float32, clears, draws int) {
	return c.framebuffer, c.cleared, c.drawn
}

// --------------------------------------------------------------------------
// Bookkeeping helpers
// --------------------------------------------------------------------------

func (c *Context) record(method string, args ...any) {
	c.calls = append(c.calls, Call{Name: method, Args: args})
	c.counts[method]++
	if code, ok := c.injected[method]; ok {
		delete(c.injected, method)
		c.setError(code)
	}
}

// setError keeps the first error until GetError clears it, as GL does.
func (c *Context) setError(code gl.Enum) {
	if c.pendingError == gl.NO_ERROR {
		c.pendingError = code
	}
}

func (c *Context) newName() uint32 {
	c.nextName++
	return c.nextName
}

func name(v any) uint32 {
	n, _ := v.(uint32)
	return n
}

func bufferOf(n uint32) gl.Buffer {
	if n == 0 {
		return gl.Buffer{}
	}
	return gl.Buffer{Value: n}
}
