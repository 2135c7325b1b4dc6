package resource

import (
	"github.com/gogpu/glcore/gl"
	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/internal/slogx"
)

// CreateProgram compiles and links a GLSL ES 3.00 program. Failures return
// a *ShaderError carrying the driver log verbatim.
func (m *Manager) CreateProgram(vertexSrc, fragmentSrc string) (handle.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return handle.Handle{}, ErrClosed
	}

	vs, err := m.compileLocked(gl.VERTEX_SHADER, StageVertex, vertexSrc)
	if err != nil {
		return handle.Handle{}, err
	}
	defer m.ctx.DeleteShader(vs)

	fs, err := m.compileLocked(gl.FRAGMENT_SHADER, StageFragment, fragmentSrc)
	if err != nil {
		return handle.Handle{}, err
	}
	defer m.ctx.DeleteShader(fs)

	prog := m.ctx.CreateProgram()
	if !prog.Valid() {
		return handle.Handle{}, &ShaderError{Stage: StageProgram, Err: ErrObjectCreation}
	}
	m.ctx.AttachShader(prog, vs)
	m.ctx.AttachShader(prog, fs)
	m.ctx.LinkProgram(prog)
	m.ctx.DetachShader(prog, vs)
	m.ctx.DetachShader(prog, fs)

	if m.ctx.GetProgrami(prog, gl.LINK_STATUS) == 0 {
		log := m.ctx.GetProgramInfoLog(prog)
		m.ctx.DeleteProgram(prog)
		return handle.Handle{}, &ShaderError{Stage: StageProgram, Log: log, Err: ErrLinkFailed}
	}

	h := m.registry.Allocate(handle.KindProgram)
	if err := m.registry.Bind(h, prog, newProgram()); err != nil {
		m.ctx.DeleteProgram(prog)
		return handle.Handle{}, &ResourceError{Op: "create program", Err: err}
	}
	m.counter.Programs++
	slogx.Logger().Debug("resource: program linked", "handle", h)
	return h, nil
}

func (m *Manager) compileLocked(ty gl.Enum, stage, src string) (gl.Shader, error) {
	s := m.ctx.CreateShader(ty)
	if !s.Valid() {
		return gl.Shader{}, &ShaderError{Stage: stage, Err: ErrObjectCreation}
	}
	m.ctx.ShaderSource(s, src)
	m.ctx.CompileShader(s)
	if m.ctx.GetShaderi(s, gl.COMPILE_STATUS) == 0 {
		log := m.ctx.GetShaderInfoLog(s)
		m.ctx.DeleteShader(s)
		return gl.Shader{}, &ShaderError{Stage: stage, Log: log, Err: ErrCompileFailed}
	}
	return s, nil
}
