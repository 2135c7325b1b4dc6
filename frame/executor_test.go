package frame

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/gl"
	"github.com/gogpu/glcore/gl/gltrace"
	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/recording"
	"github.com/gogpu/glcore/resource"
	"github.com/gogpu/glcore/state"
	"github.com/gogpu/glcore/timeline"
)

const (
	vertexSrc   = "#version 300 es\nin vec2 a_pos;\nvoid main() { gl_Position = vec4(a_pos, 0.0, 1.0); }\n"
	fragmentSrc = "#version 300 es\nprecision mediump float;\nout vec4 color;\nvoid main() { color = vec4(1.0); }\n"
)

var triangles = gputypes.PrimitiveTopologyTriangleList

type pipeline struct {
	ctx   *gltrace.Context
	reg   *handle.Registry
	tl    *timeline.Timeline
	res   *resource.Manager
	cache *state.Cache
	exec  *Executor
	sched *Scheduler
}

func newPipeline(t *testing.T, execOpts []ExecutorOption, schedOpts ...SchedulerOption) *pipeline {
	t.Helper()
	p := &pipeline{
		ctx: gltrace.New(),
		reg: handle.NewRegistry(),
		tl:  timeline.New(),
	}
	p.cache = state.New(p.ctx, p.reg)
	p.res = resource.NewManager(p.ctx, p.reg, p.tl, resource.WithBinder(p.cache))
	p.exec = NewExecutor(p.ctx, p.cache, p.res, p.tl, execOpts...)
	p.sched = NewScheduler(p.exec, p.reg, p.tl, schedOpts...)
	return p
}

func (p *pipeline) program(t *testing.T) handle.Handle {
	t.Helper()
	h, err := p.res.CreateProgram(vertexSrc, fragmentSrc)
	if err != nil {
		t.Fatalf("CreateProgram: %v", err)
	}
	return h
}

func (p *pipeline) triangle(t *testing.T) handle.Handle {
	t.Helper()
	h, err := p.res.CreateBuffer(resource.BufferDescriptor{
		Label:  "triangle",
		Usage:  gputypes.BufferUsageVertex,
		Layout: resource.VertexLayout{Format: gputypes.VertexFormatFloat32x2},
	}, make([]byte, 3*8))
	if err != nil {
		t.Fatalf("CreateBuffer: %v", err)
	}
	return h
}

// record finishes a list for tok without going through the scheduler.
func (p *pipeline) record(t *testing.T, tok timeline.Token, fn func(r *recording.Recorder) error) *recording.List {
	t.Helper()
	r := recording.NewRecorder(p.reg, tok)
	if err := fn(r); err != nil {
		t.Fatalf("record: %v", err)
	}
	list, err := r.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return list
}

func TestEndToEndTriangle(t *testing.T) {
	p := newPipeline(t, nil)
	vb := p.triangle(t)
	prog := p.program(t)

	err := p.sched.Frame(func(r *recording.Recorder) error {
		if err := r.Clear(gputypes.Color{A: 1}); err != nil {
			return err
		}
		if err := r.BindProgram(prog); err != nil {
			return err
		}
		if err := r.BindBuffer(0, vb); err != nil {
			return err
		}
		return r.Draw(triangles, recording.Range{First: 0, Count: 3}, 1)
	})
	if err != nil {
		t.Fatalf("Frame: %v", err)
	}

	counts := map[string]int{
		"BindBuffer":  1,
		"UseProgram":  1,
		"BindTexture": 0,
		"DrawArrays":  1,
		"Clear":       1,
		"Flush":       1,
	}
	for name, want := range counts {
		if got := p.ctx.Count(name); got != want {
			t.Errorf("%s called %d times, want %d", name, got, want)
		}
	}
	color, _, draws := p.ctx.Framebuffer()
	if color != [4]float32{0, 0, 0, 1} || draws != 1 {
		t.Errorf("framebuffer = %v with %d draws", color, draws)
	}
	if p.tl.Retired() != 1 {
		t.Errorf("Retired() = %d, want 1", p.tl.Retired())
	}
}

func TestAbortAtPosition(t *testing.T) {
	p := newPipeline(t, nil)
	prog := p.program(t)
	tok := p.tl.Issue()
	list := p.record(t, tok, func(r *recording.Recorder) error {
		if err := r.Clear(gputypes.Color{R: 1, A: 1}); err != nil {
			return err
		}
		if err := r.BindProgram(prog); err != nil {
			return err
		}
		return r.Draw(triangles, recording.Range{Count: 3}, 1)
	})
	// The program vanishes between recording and execution.
	if err := p.reg.Free(prog); err != nil {
		t.Fatal(err)
	}

	err := p.exec.Execute(list)
	var execErr *ExecError
	if !errors.As(err, &execErr) {
		t.Fatalf("err = %v, want *ExecError", err)
	}
	if execErr.Index != 1 {
		t.Errorf("Index = %d, want 1", execErr.Index)
	}
	if execErr.Command.Type() != recording.CmdBindProgram {
		t.Errorf("Command = %v, want BindProgram", execErr.Command.Type())
	}
	if !errors.Is(err, handle.ErrInvalidHandle) {
		t.Errorf("err = %v, want ErrInvalidHandle", err)
	}

	color, clears, draws := p.ctx.Framebuffer()
	if color != [4]float32{1, 0, 0, 1} || clears != 1 {
		t.Errorf("clear not visible: color %v, clears %d", color, clears)
	}
	if draws != 0 {
		t.Errorf("draws = %d after abort", draws)
	}
	if p.ctx.Count("Flush") != 1 {
		t.Error("aborted frame not presented")
	}
	if !p.tl.IsRetired(tok) {
		t.Error("aborted frame not retired")
	}
	if s := p.exec.Stats(); s.Aborted != 1 || s.Commands != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestAbortOnContextError(t *testing.T) {
	p := newPipeline(t, []ExecutorOption{WithErrorChecks(true)})
	prog := p.program(t)
	tok := p.tl.Issue()
	list := p.record(t, tok, func(r *recording.Recorder) error {
		if err := r.Clear(gputypes.Color{A: 1}); err != nil {
			return err
		}
		if err := r.BindProgram(prog); err != nil {
			return err
		}
		return r.Draw(triangles, recording.Range{Count: 3}, 1)
	})
	p.ctx.InjectError("UseProgram", gl.INVALID_OPERATION)

	err := p.exec.Execute(list)
	var execErr *ExecError
	if !errors.As(err, &execErr) || execErr.Index != 1 {
		t.Fatalf("err = %v, want ExecError at 1", err)
	}
	if !errors.Is(err, ErrContext) {
		t.Errorf("err = %v, want ErrContext", err)
	}
}

func TestPendingErrorNotBlamedOnFrame(t *testing.T) {
	p := newPipeline(t, []ExecutorOption{WithErrorChecks(true)})
	// Raised outside any frame.
	p.ctx.Viewport(0, 0, -1, -1)

	tok := p.tl.Issue()
	list := p.record(t, tok, func(r *recording.Recorder) error {
		return r.Clear(gputypes.Color{})
	})
	if err := p.exec.Execute(list); err != nil {
		t.Errorf("Execute: %v", err)
	}
}

func TestStrictTokenOrder(t *testing.T) {
	p := newPipeline(t, nil)
	t1, t2 := p.tl.Issue(), p.tl.Issue()
	clearFrame := func(r *recording.Recorder) error { return r.Clear(gputypes.Color{}) }
	l1 := p.record(t, t1, clearFrame)
	l2 := p.record(t, t2, clearFrame)

	if err := p.exec.Execute(l2); !errors.Is(err, ErrOutOfOrder) {
		t.Fatalf("frame 2 first: err = %v, want ErrOutOfOrder", err)
	}
	if l2.Consumed() {
		t.Error("rejected list was consumed")
	}
	if err := p.exec.Execute(l1); err != nil {
		t.Fatalf("frame 1: %v", err)
	}
	if err := p.exec.Execute(l1); !errors.Is(err, ErrStaleList) {
		t.Errorf("frame 1 again: err = %v, want ErrStaleList", err)
	}
	if err := p.exec.Execute(l2); err != nil {
		t.Fatalf("frame 2: %v", err)
	}
	if p.tl.Retired() != t2 {
		t.Errorf("Retired() = %d, want %d", p.tl.Retired(), t2)
	}
}

func TestExecuteUnissuedToken(t *testing.T) {
	p := newPipeline(t, nil)
	list := p.record(t, 1, func(r *recording.Recorder) error { return nil })
	if err := p.exec.Execute(list); !errors.Is(err, ErrOutOfOrder) {
		t.Errorf("err = %v, want ErrOutOfOrder", err)
	}
	if err := p.exec.Execute(nil); !errors.Is(err, ErrStaleList) {
		t.Errorf("nil list err = %v, want ErrStaleList", err)
	}
}

func TestDeferredReclaim(t *testing.T) {
	p := newPipeline(t, nil)
	vb := p.triangle(t)
	slot, err := p.reg.Lookup(vb)
	if err != nil {
		t.Fatal(err)
	}
	backing := slot.Backing.(gl.Buffer)

	rec, err := p.sched.Signal()
	if err != nil {
		t.Fatal(err)
	}
	if err := rec.BindBuffer(0, vb); err != nil {
		t.Fatal(err)
	}
	if err := p.res.Destroy(vb); err != nil {
		t.Fatalf("Destroy: %v", err)
	}
	if !p.ctx.BufferAlive(backing) {
		t.Fatal("buffer reclaimed while its frame is in flight")
	}
	if err := rec.BindBuffer(1, vb); !errors.Is(err, handle.ErrInvalidHandle) {
		t.Errorf("recording destroyed buffer: err = %v, want ErrInvalidHandle", err)
	}

	// A buffer created meanwhile must not take the pending slot.
	other := p.triangle(t)
	if other.Index() == vb.Index() {
		t.Fatal("slot reused before its frame retired")
	}

	if _, err := rec.Finish(); err != nil {
		t.Fatal(err)
	}
	if err := p.sched.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if p.ctx.BufferAlive(backing) {
		t.Error("buffer still alive after its frame retired")
	}

	// The freed slot is reused with a new generation.
	reused := p.triangle(t)
	if reused.Index() != vb.Index() || reused.Generation() <= vb.Generation() {
		t.Errorf("reused = %v, old = %v", reused, vb)
	}
	if _, err := p.reg.Resolve(vb); !errors.Is(err, handle.ErrInvalidHandle) {
		t.Errorf("old handle resolves after reuse: %v", err)
	}
}

func TestPresenterError(t *testing.T) {
	boom := errors.New("swap failed")
	p := newPipeline(t, []ExecutorOption{WithPresenter(PresenterFunc(func() error { return boom }))})
	tok := p.tl.Issue()
	list := p.record(t, tok, func(r *recording.Recorder) error { return r.Clear(gputypes.Color{}) })

	err := p.exec.Execute(list)
	if !errors.Is(err, ErrPresent) || !errors.Is(err, boom) {
		t.Errorf("err = %v, want ErrPresent wrapping cause", err)
	}
	if !p.tl.IsRetired(tok) {
		t.Error("token not retired after present failure")
	}
	if p.ctx.Count("Flush") != 0 {
		t.Error("default presenter ran alongside custom presenter")
	}
}

func TestExecErrorMessage(t *testing.T) {
	err := &ExecError{Index: 2, Command: recording.SetViewportCommand{Width: 1, Height: 1}, Err: ErrContext}
	want := "frame: command 2 SetViewport(0, 0, 1, 1): frame: context error"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestNewExecutorPanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewExecutor with nil collaborators did not panic")
		}
	}()
	NewExecutor(nil, nil, nil, nil)
}
