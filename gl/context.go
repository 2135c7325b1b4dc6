package gl

// Context is the subset of the WebGL2 rendering context used by glcore.
//
// Method names follow the WebGL API. Implementations report failures through
// GetError, exactly as the underlying API does; none of the methods panic on
// GL-level errors.
type Context interface {
	CreateBuffer() Buffer
	DeleteBuffer(b Buffer)
	BindBuffer(target Enum, b Buffer)
	BindBufferBase(target Enum, index int, b Buffer)
	BufferData(target Enum, size int, data []byte, usage Enum)
	BufferSubData(target Enum, offset int, data []byte)

	CreateTexture() Texture
	DeleteTexture(t Texture)
	ActiveTexture(unit Enum)
	BindTexture(target Enum, t Texture)
	TexImage2D(target Enum, level int, internalFormat Enum, width, height int, format, ty Enum, pixels []byte)
	TexSubImage2D(target Enum, level int, x, y, width, height int, format, ty Enum, pixels []byte)
	TexParameteri(target, pname Enum, param int)
	GenerateMipmap(target Enum)

	CreateShader(ty Enum) Shader
	ShaderSource(s Shader, src string)
	CompileShader(s Shader)
	GetShaderi(s Shader, pname Enum) int
	GetShaderInfoLog(s Shader) string
	DeleteShader(s Shader)

	CreateProgram() Program
	AttachShader(p Program, s Shader)
	DetachShader(p Program, s Shader)
	LinkProgram(p Program)
	GetProgrami(p Program, pname Enum) int
	GetProgramInfoLog(p Program) string
	DeleteProgram(p Program)
	UseProgram(p Program)

	GetUniformLocation(p Program, name string) Uniform
	Uniform1fv(u Uniform, v []float32)
	Uniform2fv(u Uniform, v []float32)
	Uniform3fv(u Uniform, v []float32)
	Uniform4fv(u Uniform, v []float32)
	Uniform1iv(u Uniform, v []int32)
	Uniform2iv(u Uniform, v []int32)
	Uniform3iv(u Uniform, v []int32)
	Uniform4iv(u Uniform, v []int32)
	UniformMatrix2fv(u Uniform, v []float32)
	UniformMatrix3fv(u Uniform, v []float32)
	UniformMatrix4fv(u Uniform, v []float32)

	EnableVertexAttribArray(index int)
	DisableVertexAttribArray(index int)
	VertexAttribPointer(index, size int, ty Enum, normalized bool, stride, offset int)

	Enable(capability Enum)
	Disable(capability Enum)
	BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha Enum)
	BlendEquationSeparate(modeRGB, modeAlpha Enum)
	DepthFunc(fn Enum)
	DepthMask(flag bool)
	ClearColor(r, g, b, a float32)
	ClearDepthf(d float32)
	Clear(mask Enum)
	Viewport(x, y, width, height int)

	DrawArrays(mode Enum, first, count int)
	DrawArraysInstanced(mode Enum, first, count, instances int)
	DrawElements(mode Enum, count int, ty Enum, offset int)
	DrawElementsInstanced(mode Enum, count int, ty Enum, offset, instances int)

	GetError() Enum
	GetInteger(pname Enum) int
	Flush()
}
