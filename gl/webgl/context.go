//go:build js && wasm

package webgl

import (
	"encoding/binary"
	"errors"
	"math"
	"syscall/js"

	"github.com/gogpu/glcore/gl"
)

// ErrUnsupported is returned when the canvas cannot provide a WebGL2 context.
var ErrUnsupported = errors.New("webgl: WebGL2 is not available")

// Context is a gl.Context backed by a WebGL2RenderingContext.
type Context struct {
	gl     js.Value
	canvas js.Value

	// scratch holds bytes staged for transfer into JavaScript.
	scratch []byte
}

var _ gl.Context = (*Context)(nil)

// NewContext obtains a "webgl2" context from a canvas element.
func NewContext(canvas js.Value) (*Context, error) {
	if canvas.IsUndefined() || canvas.IsNull() {
		return nil, errors.New("webgl: canvas is undefined")
	}
	ctx := canvas.Call("getContext", "webgl2")
	if ctx.IsUndefined() || ctx.IsNull() {
		return nil, ErrUnsupported
	}
	return &Context{gl: ctx, canvas: canvas}, nil
}

// JSValue returns the underlying WebGL2RenderingContext.
func (c *Context) JSValue() js.Value { return c.gl }

// Canvas returns the canvas the context was obtained from.
func (c *Context) Canvas() js.Value { return c.canvas }

// IsContextLost reports whether the browser has lost the context.
func (c *Context) IsContextLost() bool { return c.gl.Call("isContextLost").Bool() }

// OnContextRestored calls fn after the browser restores a lost context.
// All objects created before the loss are gone; callers recreate resources
// and reset cached state. The returned func removes the listener.
func (c *Context) OnContextRestored(fn func()) (remove func()) {
	lost := js.FuncOf(func(this js.Value, args []js.Value) any {
		// Allows the browser to restore the context.
		args[0].Call("preventDefault")
		return nil
	})
	restored := js.FuncOf(func(this js.Value, args []js.Value) any {
		fn()
		return nil
	})
	c.canvas.Call("addEventListener", "webglcontextlost", lost)
	c.canvas.Call("addEventListener", "webglcontextrestored", restored)
	return func() {
		c.canvas.Call("removeEventListener", "webglcontextlost", lost)
		c.canvas.Call("removeEventListener", "webglcontextrestored", restored)
		lost.Release()
		restored.Release()
	}
}

func jsObject(v any) js.Value {
	if o, ok := v.(js.Value); ok {
		return o
	}
	return js.Null()
}

func wrap(v js.Value) any {
	if v.IsNull() || v.IsUndefined() {
		return nil
	}
	return v
}

// bytesToJS copies data into a new Uint8Array.
func bytesToJS(data []byte) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(data))
	js.CopyBytesToJS(arr, data)
	return arr
}

func (c *Context) float32Array(v []float32) js.Value {
	n := len(v) * 4
	if cap(c.scratch) < n {
		c.scratch = make([]byte, n)
	}
	buf := c.scratch[:n]
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return js.Global().Get("Float32Array").New(bytesToJS(buf).Get("buffer"))
}

func (c *Context) int32Array(v []int32) js.Value {
	n := len(v) * 4
	if cap(c.scratch) < n {
		c.scratch = make([]byte, n)
	}
	buf := c.scratch[:n]
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], uint32(x)) // #nosec G115 -- bit reinterpretation
	}
	return js.Global().Get("Int32Array").New(bytesToJS(buf).Get("buffer"))
}

// pixelsToJS returns a typed array view for texture uploads. Nil pixels
// allocate storage without initializing it.
func pixelsToJS(pixels []byte) js.Value {
	if pixels == nil {
		return js.Null()
	}
	return bytesToJS(pixels)
}

// --------------------------------------------------------------------------
// Buffers
// --------------------------------------------------------------------------

// CreateBuffer implements gl.Context.
func (c *Context) CreateBuffer() gl.Buffer {
	return gl.Buffer{Value: wrap(c.gl.Call("createBuffer"))}
}

// DeleteBuffer implements gl.Context.
func (c *Context) DeleteBuffer(b gl.Buffer) { c.gl.Call("deleteBuffer", jsObject(b.Value)) }

// BindBuffer implements gl.Context.
func (c *Context) BindBuffer(target gl.Enum, b gl.Buffer) {
	c.gl.Call("bindBuffer", int(target), jsObject(b.Value))
}

// BindBufferBase implements gl.Context.
func (c *Context) BindBufferBase(target gl.Enum, index int, b gl.Buffer) {
	c.gl.Call("bindBufferBase", int(target), index, jsObject(b.Value))
}

// BufferData implements gl.Context. When data is shorter than size the
// remainder is zero-initialized.
func (c *Context) BufferData(target gl.Enum, size int, data []byte, usage gl.Enum) {
	if len(data) == size {
		c.gl.Call("bufferData", int(target), bytesToJS(data), int(usage))
		return
	}
	c.gl.Call("bufferData", int(target), size, int(usage))
	if len(data) > 0 {
		c.gl.Call("bufferSubData", int(target), 0, bytesToJS(data))
	}
}

// BufferSubData implements gl.Context.
func (c *Context) BufferSubData(target gl.Enum, offset int, data []byte) {
	c.gl.Call("bufferSubData", int(target), offset, bytesToJS(data))
}

// --------------------------------------------------------------------------
// Textures
// --------------------------------------------------------------------------

// CreateTexture implements gl.Context.
func (c *Context) CreateTexture() gl.Texture {
	return gl.Texture{Value: wrap(c.gl.Call("createTexture"))}
}

// DeleteTexture implements gl.Context.
func (c *Context) DeleteTexture(t gl.Texture) { c.gl.Call("deleteTexture", jsObject(t.Value)) }

// ActiveTexture implements gl.Context.
func (c *Context) ActiveTexture(unit gl.Enum) { c.gl.Call("activeTexture", int(unit)) }

// BindTexture implements gl.Context.
func (c *Context) BindTexture(target gl.Enum, t gl.Texture) {
	c.gl.Call("bindTexture", int(target), jsObject(t.Value))
}

// TexImage2D implements gl.Context.
func (c *Context) TexImage2D(target gl.Enum, level int, internalFormat gl.Enum, width, height int, format, ty gl.Enum, pixels []byte) {
	c.gl.Call("texImage2D", int(target), level, int(internalFormat), width, height, 0,
		int(format), int(ty), pixelsToJS(pixels))
}

// TexSubImage2D implements gl.Context.
func (c *Context) TexSubImage2D(target gl.Enum, level int, x, y, width, height int, format, ty gl.Enum, pixels []byte) {
	c.gl.Call("texSubImage2D", int(target), level, x, y, width, height,
		int(format), int(ty), pixelsToJS(pixels))
}

// TexParameteri implements gl.Context.
func (c *Context) TexParameteri(target, pname gl.Enum, param int) {
	c.gl.Call("texParameteri", int(target), int(pname), param)
}

// GenerateMipmap implements gl.Context.
func (c *Context) GenerateMipmap(target gl.Enum) { c.gl.Call("generateMipmap", int(target)) }

// --------------------------------------------------------------------------
// Shaders and programs
// --------------------------------------------------------------------------

// CreateShader implements gl.Context.
func (c *Context) CreateShader(ty gl.Enum) gl.Shader {
	return gl.Shader{Value: wrap(c.gl.Call("createShader", int(ty)))}
}

// ShaderSource implements gl.Context.
func (c *Context) ShaderSource(s gl.Shader, src string) {
	c.gl.Call("shaderSource", jsObject(s.Value), src)
}

// CompileShader implements gl.Context.
func (c *Context) CompileShader(s gl.Shader) { c.gl.Call("compileShader", jsObject(s.Value)) }

// GetShaderi implements gl.Context.
func (c *Context) GetShaderi(s gl.Shader, pname gl.Enum) int {
	return paramInt(c.gl.Call("getShaderParameter", jsObject(s.Value), int(pname)))
}

// GetShaderInfoLog implements gl.Context.
func (c *Context) GetShaderInfoLog(s gl.Shader) string {
	return paramString(c.gl.Call("getShaderInfoLog", jsObject(s.Value)))
}

// DeleteShader implements gl.Context.
func (c *Context) DeleteShader(s gl.Shader) { c.gl.Call("deleteShader", jsObject(s.Value)) }

// CreateProgram implements gl.Context.
func (c *Context) CreateProgram() gl.Program {
	return gl.Program{Value: wrap(c.gl.Call("createProgram"))}
}

// AttachShader implements gl.Context.
func (c *Context) AttachShader(p gl.Program, s gl.Shader) {
	c.gl.Call("attachShader", jsObject(p.Value), jsObject(s.Value))
}

// DetachShader implements gl.Context.
func (c *Context) DetachShader(p gl.Program, s gl.Shader) {
	c.gl.Call("detachShader", jsObject(p.Value), jsObject(s.Value))
}

// LinkProgram implements gl.Context.
func (c *Context) LinkProgram(p gl.Program) { c.gl.Call("linkProgram", jsObject(p.Value)) }

// GetProgrami implements gl.Context.
func (c *Context) GetProgrami(p gl.Program, pname gl.Enum) int {
	return paramInt(c.gl.Call("getProgramParameter", jsObject(p.Value), int(pname)))
}

// GetProgramInfoLog implements gl.Context.
func (c *Context) GetProgramInfoLog(p gl.Program) string {
	return paramString(c.gl.Call("getProgramInfoLog", jsObject(p.Value)))
}

// DeleteProgram implements gl.Context.
func (c *Context) DeleteProgram(p gl.Program) { c.gl.Call("deleteProgram", jsObject(p.Value)) }

// UseProgram implements gl.Context.
func (c *Context) UseProgram(p gl.Program) { c.gl.Call("useProgram", jsObject(p.Value)) }

// paramInt converts a getParameter style result. Booleans map to 0 or 1.
func paramInt(v js.Value) int {
	switch v.Type() {
	case js.TypeBoolean:
		if v.Bool() {
			return 1
		}
		return 0
	case js.TypeNumber:
		return v.Int()
	}
	return 0
}

func paramString(v js.Value) string {
	if v.Type() != js.TypeString {
		return ""
	}
	return v.String()
}

// --------------------------------------------------------------------------
// Uniforms
// --------------------------------------------------------------------------

// GetUniformLocation implements gl.Context.
func (c *Context) GetUniformLocation(p gl.Program, name string) gl.Uniform {
	return gl.Uniform{Value: wrap(c.gl.Call("getUniformLocation", jsObject(p.Value), name))}
}

func (c *Context) uniformf(method string, u gl.Uniform, v []float32) {
	c.gl.Call(method, jsObject(u.Value), c.float32Array(v))
}

func (c *Context) uniformi(method string, u gl.Uniform, v []int32) {
	c.gl.Call(method, jsObject(u.Value), c.int32Array(v))
}

func (c *Context) uniformMatrix(method string, u gl.Uniform, v []float32) {
	c.gl.Call(method, jsObject(u.Value), false, c.float32Array(v))
}

// Uniform1fv implements gl.Context.
func (c *Context) Uniform1fv(u gl.Uniform, v []float32) { c.uniformf("uniform1fv", u, v) }

// Uniform2fv implements gl.Context.
func (c *Context) Uniform2fv(u gl.Uniform, v []float32) { c.uniformf("uniform2fv", u, v) }

// Uniform3fv implements gl.Context.
func (c *Context) Uniform3fv(u gl.Uniform, v []float32) { c.uniformf("uniform3fv", u, v) }

// Uniform4fv implements gl.Context.
func (c *Context) Uniform4fv(u gl.Uniform, v []float32) { c.uniformf("uniform4fv", u, v) }

// Uniform1iv implements gl.Context.
func (c *Context) Uniform1iv(u gl.Uniform, v []int32) { c.uniformi("uniform1iv", u, v) }

// Uniform2iv implements gl.Context.
func (c *Context) Uniform2iv(u gl.Uniform, v []int32) { c.uniformi("uniform2iv", u, v) }

// Uniform3iv implements gl.Context.
func (c *Context) Uniform3iv(u gl.Uniform, v []int32) { c.uniformi("uniform3iv", u, v) }

// Uniform4iv implements gl.Context.
func (c *Context) Uniform4iv(u gl.Uniform, v []int32) { c.uniformi("uniform4iv", u, v) }

// UniformMatrix2fv implements gl.Context.
func (c *Context) UniformMatrix2fv(u gl.Uniform, v []float32) {
	c.uniformMatrix("uniformMatrix2fv", u, v)
}

// UniformMatrix3fv implements gl.Context.
func (c *Context) UniformMatrix3fv(u gl.Uniform, v []float32) {
	c.uniformMatrix("uniformMatrix3fv", u, v)
}

// UniformMatrix4fv implements gl.Context.
func (c *Context) UniformMatrix4fv(u gl.Uniform, v []float32) {
	c.uniformMatrix("uniformMatrix4fv", u, v)
}

// --------------------------------------------------------------------------
// Vertex attributes and fixed-function state
// --------------------------------------------------------------------------

// EnableVertexAttribArray implements gl.Context.
func (c *Context) EnableVertexAttribArray(index int) {
	c.gl.Call("enableVertexAttribArray", index)
}

// DisableVertexAttribArray implements gl.Context.
func (c *Context) DisableVertexAttribArray(index int) {
	c.gl.Call("disableVertexAttribArray", index)
}

// VertexAttribPointer implements gl.Context.
func (c *Context) VertexAttribPointer(index, size int, ty gl.Enum, normalized bool, stride, offset int) {
	c.gl.Call("vertexAttribPointer", index, size, int(ty), normalized, stride, offset)
}

// Enable implements gl.Context.
func (c *Context) Enable(capability gl.Enum) { c.gl.Call("enable", int(capability)) }

// Disable implements gl.Context.
func (c *Context) Disable(capability gl.Enum) { c.gl.Call("disable", int(capability)) }

// BlendFuncSeparate implements gl.Context.
func (c *Context) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha gl.Enum) {
	c.gl.Call("blendFuncSeparate", int(srcRGB), int(dstRGB), int(srcAlpha), int(dstAlpha))
}

// BlendEquationSeparate implements gl.Context.
func (c *Context) BlendEquationSeparate(modeRGB, modeAlpha gl.Enum) {
	c.gl.Call("blendEquationSeparate", int(modeRGB), int(modeAlpha))
}

// DepthFunc implements gl.Context.
func (c *Context) DepthFunc(fn gl.Enum) { c.gl.Call("depthFunc", int(fn)) }

// DepthMask implements gl.Context.
func (c *Context) DepthMask(flag bool) { c.gl.Call("depthMask", flag) }

// ClearColor implements gl.Context.
func (c *Context) ClearColor(r, g, b, a float32) { c.gl.Call("clearColor", r, g, b, a) }

// ClearDepthf implements gl.Context.
func (c *Context) ClearDepthf(d float32) { c.gl.Call("clearDepth", d) }

// Clear implements gl.Context.
func (c *Context) Clear(mask gl.Enum) { c.gl.Call("clear", int(mask)) }

// Viewport implements gl.Context.
func (c *Context) Viewport(x, y, width, height int) { c.gl.Call("viewport", x, y, width, height) }

// --------------------------------------------------------------------------
// Draw calls and queries
// --------------------------------------------------------------------------

// DrawArrays implements gl.Context.
func (c *Context) DrawArrays(mode gl.Enum, first, count int) {
	c.gl.Call("drawArrays", int(mode), first, count)
}

// DrawArraysInstanced implements gl.Context.
func (c *Context) DrawArraysInstanced(mode gl.Enum, first, count, instances int) {
	c.gl.Call("drawArraysInstanced", int(mode), first, count, instances)
}

// DrawElements implements gl.Context.
func (c *Context) DrawElements(mode gl.Enum, count int, ty gl.Enum, offset int) {
	c.gl.Call("drawElements", int(mode), count, int(ty), offset)
}

// DrawElementsInstanced implements gl.Context.
func (c *Context) DrawElementsInstanced(mode gl.Enum, count int, ty gl.Enum, offset, instances int) {
	c.gl.Call("drawElementsInstanced", int(mode), count, int(ty), offset, instances)
}

// GetError implements gl.Context.
func (c *Context) GetError() gl.Enum {
	return gl.Enum(c.gl.Call("getError").Int()) // #nosec G115 -- GL error codes are small positive values
}

// GetInteger implements gl.Context.
func (c *Context) GetInteger(pname gl.Enum) int {
	return paramInt(c.gl.Call("getParameter", int(pname)))
}

// Flush implements gl.Context.
func (c *Context) Flush() { c.gl.Call("flush") }
