package glcore

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/frame"
	"github.com/gogpu/glcore/gl/gltrace"
	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/recording"
	"github.com/gogpu/glcore/resource"
)

const (
	testVertexSrc = `#version 300 es
in vec2 position;
void main() { gl_Position = vec4(position, 0.0, 1.0); }`

	testFragmentSrc = `#version 300 es
precision mediump float;
uniform vec4 color;
out vec4 fragColor;
void main() { fragColor = color; }`
)

func newTestRenderer(t *testing.T, opts ...Option) (*Renderer, *gltrace.Context) {
	t.Helper()
	ctx := gltrace.New()
	r, err := New(ctx, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r, ctx
}

func createTriangle(t *testing.T, r *Renderer) (prog, vbo handle.Handle) {
	t.Helper()
	prog, err := r.Resources().CreateProgram(testVertexSrc, testFragmentSrc)
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	vbo, err = r.Resources().CreateBuffer(resource.BufferDescriptor{
		Label:  "triangle",
		Usage:  gputypes.BufferUsageVertex,
		Layout: resource.VertexLayout{Format: gputypes.VertexFormatFloat32x2},
	}, make([]byte, 3*8))
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	return prog, vbo
}

func drawTriangle(prog, vbo handle.Handle) func(*recording.Recorder) error {
	return func(rec *recording.Recorder) error {
		if err := rec.Clear(gputypes.Color{A: 1}); err != nil {
			return err
		}
		if err := rec.BindProgram(prog); err != nil {
			return err
		}
		if err := rec.BindBuffer(0, vbo); err != nil {
			return err
		}
		if err := rec.SetUniform("color", recording.Vec4(1, 0, 0, 1)); err != nil {
			return err
		}
		return rec.Draw(gputypes.PrimitiveTopologyTriangleList, recording.Range{Count: 3}, 1)
	}
}

func TestNewPanicsOnNilContext(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(nil) did not panic")
		}
	}()
	_, _ = New(nil)
}

func TestRendererFrames(t *testing.T) {
	r, ctx := newTestRenderer(t)
	prog, vbo := createTriangle(t, r)

	for range 3 {
		if err := r.Frame(drawTriangle(prog, vbo)); err != nil {
			t.Fatalf("Frame: %v", err)
		}
	}
	if _, clears, draws := ctx.Framebuffer(); clears != 3 || draws != 3 {
		t.Errorf("clears = %d, draws = %d, want 3 each", clears, draws)
	}
	// Program, attribute and uniform state is set once and elided after.
	for name, want := range map[string]int{
		"UseProgram":              1,
		"EnableVertexAttribArray": 1,
		"Uniform4fv":              1,
		"DrawArrays":              3,
	} {
		if got := ctx.Count(name); got != want {
			t.Errorf("%s called %d times, want %d", name, got, want)
		}
	}

	s := r.Stats()
	if s.Executor.Frames != 3 || s.Retired != 3 || s.Issued != 3 {
		t.Errorf("Stats() = %+v", s)
	}
	if s.Cache.Elided == 0 {
		t.Error("no calls elided")
	}
	if !strings.Contains(s.String(), "3 executed") {
		t.Errorf("String() = %q", s.String())
	}
}

func TestRendererDeferredDestroy(t *testing.T) {
	r, ctx := newTestRenderer(t)
	prog, vbo := createTriangle(t, r)

	rec, err := r.Scheduler().Signal()
	if err != nil {
		t.Fatal(err)
	}
	if err := drawTriangle(prog, vbo)(rec); err != nil {
		t.Fatal(err)
	}
	// Destroyed while the frame that uses it is still in flight.
	if err := r.Resources().Destroy(vbo); err != nil {
		t.Fatal(err)
	}
	if ctx.LiveBuffers() != 1 {
		t.Fatal("buffer deleted while in flight")
	}
	if _, err := rec.Finish(); err != nil {
		t.Fatal(err)
	}
	if err := r.Scheduler().Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ctx.LiveBuffers() != 0 {
		t.Error("buffer not reclaimed after its frame retired")
	}
	if err := r.Frame(func(rec *recording.Recorder) error { return rec.BindBuffer(0, vbo) }); !errors.Is(err, handle.ErrInvalidHandle) {
		t.Errorf("recording a destroyed handle: err = %v", err)
	}
}

func TestRendererResetState(t *testing.T) {
	r, ctx := newTestRenderer(t)
	prog, vbo := createTriangle(t, r)
	if err := r.Frame(drawTriangle(prog, vbo)); err != nil {
		t.Fatal(err)
	}
	r.ResetState()
	if err := r.Frame(drawTriangle(prog, vbo)); err != nil {
		t.Fatal(err)
	}
	if got := ctx.Count("UseProgram"); got != 2 {
		t.Errorf("UseProgram after reset called %d times, want 2", got)
	}
}

func TestRendererRunWithLoop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UpdatesPerSecond = 100
	r, ctx := newTestRenderer(t, WithConfig(cfg))
	prog, vbo := createTriangle(t, r)

	loop := r.NewLoop()
	if loop.FixedTimeStep() != 10*time.Millisecond {
		t.Fatalf("FixedTimeStep() = %v", loop.FixedTimeStep())
	}
	loop.OnRender = func(ri *frame.RenderInfo) error {
		return drawTriangle(prog, vbo)(ri.Recorder)
	}
	loop.Resize(640, 480)

	if err := r.Run(context.Background(), frame.NewTimerHost(time.Millisecond, 4), loop.Frame); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if loop.NumberOfRenders() != 4 {
		t.Errorf("renders = %d, want 4", loop.NumberOfRenders())
	}
	if got := ctx.ViewportValue(); got != [4]int{0, 0, 640, 480} {
		t.Errorf("viewport = %v", got)
	}
}

func TestRendererClose(t *testing.T) {
	r, ctx := newTestRenderer(t)
	createTriangle(t, r)
	if err := r.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !r.IsClosed() {
		t.Error("IsClosed() = false")
	}
	if n := ctx.LiveBuffers() + ctx.LivePrograms() + ctx.LiveShaders(); n != 0 {
		t.Errorf("%d context objects leaked", n)
	}
	if err := r.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if err := r.Frame(func(*recording.Recorder) error { return nil }); !errors.Is(err, frame.ErrClosed) {
		t.Errorf("Frame after Close: err = %v", err)
	}
	if _, err := r.Resources().CreateProgram(testVertexSrc, testFragmentSrc); !errors.Is(err, resource.ErrClosed) {
		t.Errorf("CreateProgram after Close: err = %v", err)
	}
}
