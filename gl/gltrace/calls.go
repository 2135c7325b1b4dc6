package gltrace

import (
	"strconv"
	"strings"

	"github.com/gogpu/glcore/gl"
)

// --------------------------------------------------------------------------
// Buffers
// --------------------------------------------------------------------------

// CreateBuffer implements gl.Context.
func (c *Context) CreateBuffer() gl.Buffer {
	n := c.newName()
	c.buffers[n] = nil
	c.record("CreateBuffer")
	return gl.Buffer{Value: n}
}

// DeleteBuffer implements gl.Context.
func (c *Context) DeleteBuffer(b gl.Buffer) {
	c.record("DeleteBuffer", name(b.Value))
	n := name(b.Value)
	delete(c.buffers, n)
	for target, bound := range c.targets {
		if bound == n {
			delete(c.targets, target)
		}
	}
	for index, bound := range c.blocks {
		if bound == n {
			delete(c.blocks, index)
		}
	}
}

// BindBuffer implements gl.Context.
func (c *Context) BindBuffer(target gl.Enum, b gl.Buffer) {
	c.record("BindBuffer", target, name(b.Value))
	n := name(b.Value)
	if n != 0 {
		if _, ok := c.buffers[n]; !ok {
			c.setError(gl.INVALID_OPERATION)
			return
		}
	}
	c.targets[target] = n
}

// BindBufferBase implements gl.Context.
func (c *Context) BindBufferBase(target gl.Enum, index int, b gl.Buffer) {
	c.record("BindBufferBase", target, index, name(b.Value))
	n := name(b.Value)
	if _, ok := c.buffers[n]; n != 0 && !ok {
		c.setError(gl.INVALID_OPERATION)
		return
	}
	c.blocks[index] = n
	c.targets[target] = n
}

// BufferData implements gl.Context.
func (c *Context) BufferData(target gl.Enum, size int, data []byte, usage gl.Enum) {
	c.record("BufferData", target, size, usage)
	n := c.targets[target]
	if n == 0 {
		c.setError(gl.INVALID_OPERATION)
		return
	}
	store := make([]byte, size)
	copy(store, data)
	c.buffers[n] = store
}

// BufferSubData implements gl.Context.
func (c *Context) BufferSubData(target gl.Enum, offset int, data []byte) {
	c.record("BufferSubData", target, offset, len(data))
	n := c.targets[target]
	store := c.buffers[n]
	if n == 0 || offset < 0 || offset+len(data) > len(store) {
		c.setError(gl.INVALID_VALUE)
		return
	}
	copy(store[offset:], data)
}

// --------------------------------------------------------------------------
// Textures
// --------------------------------------------------------------------------

// CreateTexture implements gl.Context.
func (c *Context) CreateTexture() gl.Texture {
	n := c.newName()
	c.textures[n] = [2]int{}
	c.record("CreateTexture")
	return gl.Texture{Value: n}
}

// DeleteTexture implements gl.Context.
func (c *Context) DeleteTexture(t gl.Texture) {
	c.record("DeleteTexture", name(t.Value))
	n := name(t.Value)
	delete(c.textures, n)
	for unit, bound := range c.units {
		if bound == n {
			delete(c.units, unit)
		}
	}
}

// ActiveTexture implements gl.Context.
func (c *Context) ActiveTexture(unit gl.Enum) {
	c.record("ActiveTexture", unit)
	if unit < gl.TEXTURE0 {
		c.setError(gl.INVALID_ENUM)
		return
	}
	c.activeUnit = int(unit - gl.TEXTURE0)
}

// BindTexture implements gl.Context.
func (c *Context) BindTexture(target gl.Enum, t gl.Texture) {
	c.record("BindTexture", target, name(t.Value))
	n := name(t.Value)
	if _, ok := c.textures[n]; n != 0 && !ok {
		c.setError(gl.INVALID_OPERATION)
		return
	}
	c.units[c.activeUnit] = n
}

// TexImage2D implements gl.Context.
func (c *Context) TexImage2D(target gl.Enum, level int, internalFormat gl.Enum, width, height int, format, ty gl.Enum, pixels []byte) {
	c.record("TexImage2D", target, level, internalFormat, width, height, format, ty, len(pixels))
	n := c.units[c.activeUnit]
	if n == 0 {
		c.setError(gl.INVALID_OPERATION)
		return
	}
	if width > c.MaxTextureSize || height > c.MaxTextureSize {
		c.setError(gl.INVALID_VALUE)
		return
	}
	if level == 0 {
		c.textures[n] = [2]int{width, height}
	}
}

// TexSubImage2D implements gl.Context.
func (c *Context) TexSubImage2D(target gl.Enum, level int, x, y, width, height int, format, ty gl.Enum, pixels []byte) {
	c.record("TexSubImage2D", target, level, x, y, width, height, format, ty, len(pixels))
	n := c.units[c.activeUnit]
	size := c.textures[n]
	if n == 0 || x < 0 || y < 0 || x+width > size[0] || y+height > size[1] {
		c.setError(gl.INVALID_VALUE)
	}
}

// TexParameteri implements gl.Context.
func (c *Context) TexParameteri(target, pname gl.Enum, param int) {
	c.record("TexParameteri", target, pname, param)
}

// GenerateMipmap implements gl.Context.
func (c *Context) GenerateMipmap(target gl.Enum) {
	c.record("GenerateMipmap", target)
}

// --------------------------------------------------------------------------
// Shaders and programs
// --------------------------------------------------------------------------

// CreateShader implements gl.Context.
func (c *Context) CreateShader(ty gl.Enum) gl.Shader {
	n := c.newName()
	c.shaders[n] = &shaderObject{ty: ty}
	c.record("CreateShader", ty)
	return gl.Shader{Value: n}
}

// ShaderSource implements gl.Context.
func (c *Context) ShaderSource(s gl.Shader, src string) {
	c.record("ShaderSource", name(s.Value))
	if obj := c.shaders[name(s.Value)]; obj != nil {
		obj.source = src
	}
}

// CompileShader implements gl.Context.
func (c *Context) CompileShader(s gl.Shader) {
	c.record("CompileShader", name(s.Value))
	obj := c.shaders[name(s.Value)]
	if obj == nil {
		c.setError(gl.INVALID_VALUE)
		return
	}
	obj.compiled, obj.log = compile(obj.source)
}

// compile mimics a GLSL ES front end closely enough for tests: empty
// sources and #error directives fail.
func compile(src string) (bool, string) {
	if strings.TrimSpace(src) == "" {
		return false, "ERROR: 0:1: '' : syntax error, unexpected end of file\n"
	}
	for i, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if msg, ok := strings.CutPrefix(trimmed, "#error"); ok {
			return false, "ERROR: 0:" + strconv.Itoa(i+1) + ": '#error' :" + msg + "\n"
		}
	}
	return true, ""
}

// GetShaderi implements gl.Context.
func (c *Context) GetShaderi(s gl.Shader, pname gl.Enum) int {
	c.record("GetShaderi", name(s.Value), pname)
	obj := c.shaders[name(s.Value)]
	if obj == nil || pname != gl.COMPILE_STATUS {
		return 0
	}
	if obj.compiled {
		return 1
	}
	return 0
}

// GetShaderInfoLog implements gl.Context.
func (c *Context) GetShaderInfoLog(s gl.Shader) string {
	c.record("GetShaderInfoLog", name(s.Value))
	if obj := c.shaders[name(s.Value)]; obj != nil {
		return obj.log
	}
	return ""
}

// DeleteShader implements gl.Context.
func (c *Context) DeleteShader(s gl.Shader) {
	c.record("DeleteShader", name(s.Value))
	delete(c.shaders, name(s.Value))
}

// CreateProgram implements gl.Context.
func (c *Context) CreateProgram() gl.Program {
	n := c.newName()
	c.programs[n] = &programObject{uniforms: make(map[string]uint32)}
	c.record("CreateProgram")
	return gl.Program{Value: n}
}

// AttachShader implements gl.Context.
func (c *Context) AttachShader(p gl.Program, s gl.Shader) {
	c.record("AttachShader", name(p.Value), name(s.Value))
	if obj := c.programs[name(p.Value)]; obj != nil {
		obj.shaders = append(obj.shaders, name(s.Value))
	}
}

// DetachShader implements gl.Context.
func (c *Context) DetachShader(p gl.Program, s gl.Shader) {
	c.record("DetachShader", name(p.Value), name(s.Value))
	obj := c.programs[name(p.Value)]
	if obj == nil {
		return
	}
	for i, n := range obj.shaders {
		if n == name(s.Value) {
			obj.shaders = append(obj.shaders[:i], obj.shaders[i+1:]...)
			break
		}
	}
}

// LinkProgram implements gl.Context.
func (c *Context) LinkProgram(p gl.Program) {
	c.record("LinkProgram", name(p.Value))
	obj := c.programs[name(p.Value)]
	if obj == nil {
		c.setError(gl.INVALID_VALUE)
		return
	}
	if c.linkFailure != nil {
		obj.linked, obj.log = false, *c.linkFailure
		c.linkFailure = nil
		return
	}
	var vertex, fragment bool
	for _, n := range obj.shaders {
		sh := c.shaders[n]
		if sh == nil || !sh.compiled {
			obj.linked, obj.log = false, "ERROR: One or more attached shaders not successfully compiled\n"
			return
		}
		vertex = vertex || sh.ty == gl.VERTEX_SHADER
		fragment = fragment || sh.ty == gl.FRAGMENT_SHADER
	}
	if !vertex || !fragment {
		obj.linked, obj.log = false, "ERROR: Missing vertex or fragment shader\n"
		return
	}
	obj.linked, obj.log = true, ""
}

// GetProgrami implements gl.Context.
func (c *Context) GetProgrami(p gl.Program, pname gl.Enum) int {
	c.record("GetProgrami", name(p.Value), pname)
	obj := c.programs[name(p.Value)]
	if obj == nil || pname != gl.LINK_STATUS || !obj.linked {
		return 0
	}
	return 1
}

// GetProgramInfoLog implements gl.Context.
func (c *Context) GetProgramInfoLog(p gl.Program) string {
	c.record("GetProgramInfoLog", name(p.Value))
	if obj := c.programs[name(p.Value)]; obj != nil {
		return obj.log
	}
	return ""
}

// DeleteProgram implements gl.Context.
func (c *Context) DeleteProgram(p gl.Program) {
	c.record("DeleteProgram", name(p.Value))
	delete(c.programs, name(p.Value))
	if c.program == name(p.Value) {
		c.program = 0
	}
}

// UseProgram implements gl.Context.
func (c *Context) UseProgram(p gl.Program) {
	c.record("UseProgram", name(p.Value))
	n := name(p.Value)
	if n != 0 {
		obj, ok := c.programs[n]
		if !ok || !obj.linked {
			c.setError(gl.INVALID_OPERATION)
			return
		}
	}
	c.program = n
}

// --------------------------------------------------------------------------
// Uniforms
// --------------------------------------------------------------------------

// GetUniformLocation implements gl.Context. Every name is treated as an
// active uniform of a linked program.
func (c *Context) GetUniformLocation(p gl.Program, uniform string) gl.Uniform {
	c.record("GetUniformLocation", name(p.Value), uniform)
	obj := c.programs[name(p.Value)]
	if obj == nil || !obj.linked {
		c.setError(gl.INVALID_OPERATION)
		return gl.Uniform{}
	}
	loc, ok := obj.uniforms[uniform]
	if !ok {
		loc = uint32(len(obj.uniforms) + 1)
		obj.uniforms[uniform] = loc
	}
	return gl.Uniform{Value: loc}
}

func (c *Context) uniform(method string, u gl.Uniform, n int) {
	c.record(method, name(u.Value), n)
	if c.program == 0 {
		c.setError(gl.INVALID_OPERATION)
	}
}

// Uniform1fv implements gl.Context.
func (c *Context) Uniform1fv(u gl.Uniform, v []float32) { c.uniform("Uniform1fv", u, len(v)) }

// Uniform2fv implements gl.Context.
func (c *Context) Uniform2fv(u gl.Uniform, v []float32) { c.uniform("Uniform2fv", u, len(v)) }

// Uniform3fv implements gl.Context.
func (c *Context) Uniform3fv(u gl.Uniform, v []float32) { c.uniform("Uniform3fv", u, len(v)) }

// Uniform4fv implements gl.Context.
func (c *Context) Uniform4fv(u gl.Uniform, v []float32) { c.uniform("Uniform4fv", u, len(v)) }

// Uniform1iv implements gl.Context.
func (c *Context) Uniform1iv(u gl.Uniform, v []int32) { c.uniform("Uniform1iv", u, len(v)) }

// Uniform2iv implements gl.Context.
func (c *Context) Uniform2iv(u gl.Uniform, v []int32) { c.uniform("Uniform2iv", u, len(v)) }

// Uniform3iv implements gl.Context.
func (c *Context) Uniform3iv(u gl.Uniform, v []int32) { c.uniform("Uniform3iv", u, len(v)) }

// Uniform4iv implements gl.Context.
func (c *Context) Uniform4iv(u gl.Uniform, v []int32) { c.uniform("Uniform4iv", u, len(v)) }

// UniformMatrix2fv implements gl.Context.
func (c *Context) UniformMatrix2fv(u gl.Uniform, v []float32) {
	c.uniform("UniformMatrix2fv", u, len(v))
}

// UniformMatrix3fv implements gl.Context.
func (c *Context) UniformMatrix3fv(u gl.Uniform, v []float32) {
	c.uniform("UniformMatrix3fv", u, len(v))
}

// UniformMatrix4fv implements gl.Context.
func (c *Context) UniformMatrix4fv(u gl.Uniform, v []float32) {
	c.uniform("UniformMatrix4fv", u, len(v))
}

// --------------------------------------------------------------------------
// Vertex attributes
// --------------------------------------------------------------------------

func (c *Context) attrib(index int) *attrib {
	a, ok := c.attribs[index]
	if !ok {
		a = &attrib{}
		c.attribs[index] = a
	}
	return a
}

// EnableVertexAttribArray implements gl.Context.
func (c *Context) EnableVertexAttribArray(index int) {
	c.record("EnableVertexAttribArray", index)
	c.attrib(index).enabled = true
}

// DisableVertexAttribArray implements gl.Context.
func (c *Context) DisableVertexAttribArray(index int) {
	c.record("DisableVertexAttribArray", index)
	c.attrib(index).enabled = false
}

// VertexAttribPointer implements gl.Context. The attribute captures the
// buffer currently bound to ARRAY_BUFFER.
func (c *Context) VertexAttribPointer(index, size int, ty gl.Enum, normalized bool, stride, offset int) {
	c.record("VertexAttribPointer", index, size, ty, normalized, stride, offset)
	buf := c.targets[gl.ARRAY_BUFFER]
	if buf == 0 {
		c.setError(gl.INVALID_OPERATION)
		return
	}
	a := c.attrib(index)
	a.buffer, a.size, a.ty, a.normalized, a.stride, a.offset = buf, size, ty, normalized, stride, offset
}

// --------------------------------------------------------------------------
// Fixed-function state
// --------------------------------------------------------------------------

// Enable implements gl.Context.
func (c *Context) Enable(capability gl.Enum) {
	c.record("Enable", capability)
	c.capabilities[capability] = true
}

// Disable implements gl.Context.
func (c *Context) Disable(capability gl.Enum) {
	c.record("Disable", capability)
	c.capabilities[capability] = false
}

// BlendFuncSeparate implements gl.Context.
func (c *Context) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha gl.Enum) {
	c.record("BlendFuncSeparate", srcRGB, dstRGB, srcAlpha, dstAlpha)
	c.blendFunc = [4]gl.Enum{srcRGB, dstRGB, srcAlpha, dstAlpha}
}

// BlendEquationSeparate implements gl.Context.
func (c *Context) BlendEquationSeparate(modeRGB, modeAlpha gl.Enum) {
	c.record("BlendEquationSeparate", modeRGB, modeAlpha)
	c.blendEquation = [2]gl.Enum{modeRGB, modeAlpha}
}

// DepthFunc implements gl.Context.
func (c *Context) DepthFunc(fn gl.Enum) {
	c.record("DepthFunc", fn)
	c.depthFunc = fn
}

// DepthMask implements gl.Context.
func (c *Context) DepthMask(flag bool) {
	c.record("DepthMask", flag)
	c.depthMask = flag
}

// ClearColor implements gl.Context.
func (c *Context) ClearColor(r, g, b, a float32) {
	c.record("ClearColor", r, g, b, a)
	c.clearColor = [4]float32{r, g, b, a}
}

// ClearDepthf implements gl.Context.
func (c *Context) ClearDepthf(d float32) {
	c.record("ClearDepthf", d)
	c.clearDepth = d
}

// Clear implements gl.Context.
func (c *Context) Clear(mask gl.Enum) {
	c.record("Clear", mask)
	if mask&gl.COLOR_BUFFER_BIT != 0 {
		c.framebuffer = c.clearColor
	}
	c.cleared++
}

// Viewport implements gl.Context.
func (c *Context) Viewport(x, y, width, height int) {
	c.record("Viewport", x, y, width, height)
	if width < 0 || height < 0 {
		c.setError(gl.INVALID_VALUE)
		return
	}
	c.viewport = [4]int{x, y, width, height}
}

// --------------------------------------------------------------------------
// Draw calls
// --------------------------------------------------------------------------

func (c *Context) draw(indexed bool) {
	if c.program == 0 {
		c.setError(gl.INVALID_OPERATION)
		return
	}
	if indexed && c.targets[gl.ELEMENT_ARRAY_BUFFER] == 0 {
		c.setError(gl.INVALID_OPERATION)
		return
	}
	c.drawn++
}

// DrawArrays implements gl.Context.
func (c *Context) DrawArrays(mode gl.Enum, first, count int) {
	c.record("DrawArrays", mode, first, count)
	c.draw(false)
}

// DrawArraysInstanced implements gl.Context.
func (c *Context) DrawArraysInstanced(mode gl.Enum, first, count, instances int) {
	c.record("DrawArraysInstanced", mode, first, count, instances)
	c.draw(false)
}

// DrawElements implements gl.Context.
func (c *Context) DrawElements(mode gl.Enum, count int, ty gl.Enum, offset int) {
	c.record("DrawElements", mode, count, ty, offset)
	c.draw(true)
}

// DrawElementsInstanced implements gl.Context.
func (c *Context) DrawElementsInstanced(mode gl.Enum, count int, ty gl.Enum, offset, instances int) {
	c.record("DrawElementsInstanced", mode, count, ty, offset, instances)
	c.draw(true)
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// GetError implements gl.Context. It is not recorded as a call so that call
// counts reflect only work sent to the context.
func (c *Context) GetError() gl.Enum {
	code := c.pendingError
	c.pendingError = gl.NO_ERROR
	return code
}

// GetInteger implements gl.Context.
func (c *Context) GetInteger(pname gl.Enum) int {
	c.record("GetInteger", pname)
	switch pname {
	case gl.MAX_TEXTURE_SIZE:
		return c.MaxTextureSize
	case gl.MAX_VERTEX_ATTRIBS:
		return 16
	case gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS:
		return 32
	}
	c.setError(gl.INVALID_ENUM)
	return 0
}

// Flush implements gl.Context.
func (c *Context) Flush() {
	c.record("Flush")
}
