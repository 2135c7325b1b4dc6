package gltrace

import (
	"testing"

	"github.com/gogpu/glcore/gl"
)

func linkedProgram(t *testing.T, c *Context) gl.Program {
	t.Helper()
	vs := c.CreateShader(gl.VERTEX_SHADER)
	c.ShaderSource(vs, "void main() {}")
	c.CompileShader(vs)
	fs := c.CreateShader(gl.FRAGMENT_SHADER)
	c.ShaderSource(fs, "void main() {}")
	c.CompileShader(fs)
	p := c.CreateProgram()
	c.AttachShader(p, vs)
	c.AttachShader(p, fs)
	c.LinkProgram(p)
	if c.GetProgrami(p, gl.LINK_STATUS) != 1 {
		t.Fatalf("link failed: %s", c.GetProgramInfoLog(p))
	}
	return p
}

func TestDefaultState(t *testing.T) {
	c := New()
	if c.DepthFuncValue() != gl.LESS || !c.DepthMaskValue() {
		t.Error("depth state is not the WebGL default")
	}
	if c.BlendFunc() != [4]gl.Enum{gl.ONE, gl.ZERO, gl.ONE, gl.ZERO} {
		t.Errorf("BlendFunc() = %v", c.BlendFunc())
	}
	if c.IsEnabled(gl.BLEND) || c.IsEnabled(gl.DEPTH_TEST) {
		t.Error("capabilities enabled by default")
	}
	if c.GetInteger(gl.MAX_TEXTURE_SIZE) != DefaultMaxTextureSize {
		t.Error("unexpected MAX_TEXTURE_SIZE")
	}
	if c.GetError() != gl.NO_ERROR {
		t.Error("fresh context has a pending error")
	}
}

func TestRecordsCalls(t *testing.T) {
	c := New()
	c.ClearColor(1, 0, 0, 1)
	c.Clear(gl.COLOR_BUFFER_BIT)
	c.Clear(gl.COLOR_BUFFER_BIT)

	if c.Count("Clear") != 2 || len(c.Calls()) != 3 {
		t.Fatalf("calls = %v", c.Calls())
	}
	if got := c.Calls()[0].String(); got != "ClearColor(1, 0, 0, 1)" {
		t.Errorf("String() = %q", got)
	}
	color, clears, draws := c.Framebuffer()
	if color != [4]float32{1, 0, 0, 1} || clears != 2 || draws != 0 {
		t.Errorf("Framebuffer() = %v, %d, %d", color, clears, draws)
	}

	c.ResetCalls()
	if len(c.Calls()) != 0 || c.Count("Clear") != 0 {
		t.Error("ResetCalls kept calls")
	}
	if c.ClearColorValue() != [4]float32{1, 0, 0, 1} {
		t.Error("ResetCalls changed state")
	}
}

func TestBufferLifecycle(t *testing.T) {
	c := New()
	b := c.CreateBuffer()
	c.BindBuffer(gl.ARRAY_BUFFER, b)
	c.BufferData(gl.ARRAY_BUFFER, 4, []byte{1, 2, 3, 4}, gl.STATIC_DRAW)
	c.BufferSubData(gl.ARRAY_BUFFER, 2, []byte{9})
	if got := c.BufferContents(b); string(got) != string([]byte{1, 2, 9, 4}) {
		t.Errorf("contents = %v", got)
	}
	c.BufferSubData(gl.ARRAY_BUFFER, 3, []byte{1, 2})
	if code := c.GetError(); code != gl.INVALID_VALUE {
		t.Errorf("overflowing BufferSubData: %s", gl.ErrorString(code))
	}

	c.DeleteBuffer(b)
	if c.BufferAlive(b) || c.LiveBuffers() != 0 {
		t.Error("buffer alive after delete")
	}
	if c.BoundBuffer(gl.ARRAY_BUFFER).Valid() {
		t.Error("deleted buffer still bound")
	}
	c.BindBuffer(gl.ARRAY_BUFFER, b)
	if code := c.GetError(); code != gl.INVALID_OPERATION {
		t.Errorf("binding deleted buffer: %s", gl.ErrorString(code))
	}
}

func TestCompileErrorDirective(t *testing.T) {
	c := New()
	s := c.CreateShader(gl.FRAGMENT_SHADER)
	c.ShaderSource(s, "void main() {}\n#error missing precision")
	c.CompileShader(s)
	if c.GetShaderi(s, gl.COMPILE_STATUS) != 0 {
		t.Fatal("shader with #error compiled")
	}
	if log := c.GetShaderInfoLog(s); log != "ERROR: 0:2: '#error' : missing precision\n" {
		t.Errorf("info log = %q", log)
	}
}

func TestFailNextLink(t *testing.T) {
	c := New()
	c.FailNextLink("scripted failure")
	p := c.CreateProgram()
	c.LinkProgram(p)
	if c.GetProgrami(p, gl.LINK_STATUS) != 0 || c.GetProgramInfoLog(p) != "scripted failure" {
		t.Error("scripted link failure not reported")
	}
	// Only the next link fails.
	linkedProgram(t, c)
}

func TestDrawErrors(t *testing.T) {
	c := New()
	c.DrawArrays(gl.TRIANGLES, 0, 3)
	if code := c.GetError(); code != gl.INVALID_OPERATION {
		t.Errorf("draw without program: %s", gl.ErrorString(code))
	}

	p := linkedProgram(t, c)
	c.UseProgram(p)
	c.DrawElements(gl.TRIANGLES, 3, gl.UNSIGNED_SHORT, 0)
	if code := c.GetError(); code != gl.INVALID_OPERATION {
		t.Errorf("indexed draw without element buffer: %s", gl.ErrorString(code))
	}
	c.DrawArrays(gl.TRIANGLES, 0, 3)
	if _, _, draws := c.Framebuffer(); draws != 1 {
		t.Errorf("draws = %d, want 1", draws)
	}

	c.DeleteProgram(p)
	if c.CurrentProgram().Valid() {
		t.Error("deleted program still in use")
	}
}

func TestFirstErrorWins(t *testing.T) {
	c := New()
	c.InjectError("Flush", gl.OUT_OF_MEMORY)
	c.Flush()
	c.Viewport(0, 0, -1, -1)
	if code := c.GetError(); code != gl.OUT_OF_MEMORY {
		t.Errorf("GetError() = %s, want OUT_OF_MEMORY", gl.ErrorString(code))
	}
	if code := c.GetError(); code != gl.NO_ERROR {
		t.Errorf("second GetError() = %s", gl.ErrorString(code))
	}
	// Injection is one-shot.
	c.Flush()
	if code := c.GetError(); code != gl.NO_ERROR {
		t.Errorf("after second Flush: %s", gl.ErrorString(code))
	}
}

func TestTextureUnits(t *testing.T) {
	c := New()
	tex := c.CreateTexture()
	c.ActiveTexture(gl.TEXTURE0 + 3)
	c.BindTexture(gl.TEXTURE_2D, tex)
	if c.ActiveUnit() != 3 || c.BoundTexture(3) != tex {
		t.Errorf("unit %d bound %v", c.ActiveUnit(), c.BoundTexture(3))
	}
	c.DeleteTexture(tex)
	if c.TextureAlive(tex) || c.BoundTexture(3).Valid() {
		t.Error("deleted texture still alive or bound")
	}
}
