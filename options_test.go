package glcore

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/frame"
	"github.com/gogpu/glcore/gl"
	"github.com/gogpu/glcore/gl/gltrace"
	"github.com/gogpu/glcore/recording"
	"github.com/gogpu/glcore/resource"
)

func TestDefaultOptions(t *testing.T) {
	o := defaultOptions()
	if o.config != DefaultConfig() {
		t.Errorf("config = %+v, want defaults", o.config)
	}
	if o.presenter != nil || o.onError != nil {
		t.Error("hooks set by default")
	}
	if o.maxTextureSize != nil || o.memoryBudget != nil || o.checkErrors != nil {
		t.Error("overrides set by default")
	}
}

// TestOptionsOverrideConfig checks that explicit options win over the
// config regardless of their order.
func TestOptionsOverrideConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxTextureSize = 2048
	cfg.MemoryBudgetMB = 64

	r, err := New(gltrace.New(), WithMaxTextureSize(256), WithConfig(cfg), WithMemoryBudget(1024))
	if err != nil {
		t.Fatal(err)
	}
	if got := r.Resources().MaxTextureSize(); got != 256 {
		t.Errorf("MaxTextureSize() = %d, want 256", got)
	}
	if got := r.Stats().Resources.BudgetBytes; got != 1024 {
		t.Errorf("BudgetBytes = %d, want 1024", got)
	}
}

func TestWithMemoryBudget(t *testing.T) {
	r, err := New(gltrace.New(), WithMemoryBudget(64))
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Resources().CreateBuffer(resource.BufferDescriptor{
		Usage:  gputypes.BufferUsageVertex,
		Layout: resource.VertexLayout{Format: gputypes.VertexFormatFloat32x2},
	}, make([]byte, 128))
	if !errors.Is(err, resource.ErrBudgetExceeded) {
		t.Errorf("err = %v, want ErrBudgetExceeded", err)
	}
}

func TestWithErrorChecksDisabled(t *testing.T) {
	ctx := gltrace.New()
	r, err := New(ctx, WithErrorChecks(false))
	if err != nil {
		t.Fatal(err)
	}
	// Without checks, an injected error is never observed by the executor.
	ctx.InjectError("Clear", gl.OUT_OF_MEMORY)
	if err := r.Frame(func(rec *recording.Recorder) error {
		return rec.Clear(gputypes.Color{})
	}); err != nil {
		t.Errorf("Frame: %v", err)
	}
	if code := ctx.GetError(); code != gl.OUT_OF_MEMORY {
		t.Errorf("pending error = %s, want it left for the caller", gl.ErrorString(code))
	}
}

func TestWithPresenter(t *testing.T) {
	ctx := gltrace.New()
	presented := 0
	r, err := New(ctx, WithPresenter(frame.PresenterFunc(func() error {
		presented++
		return nil
	})))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Frame(func(*recording.Recorder) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if presented != 1 || ctx.Count("Flush") != 0 {
		t.Errorf("presented = %d, flushes = %d", presented, ctx.Count("Flush"))
	}
}

func TestWithErrorHandler(t *testing.T) {
	ctx := gltrace.New()
	var reported []error
	r, err := New(ctx, WithErrorHandler(func(err error) { reported = append(reported, err) }))
	if err != nil {
		t.Fatal(err)
	}
	ctx.InjectError("Clear", gl.INVALID_OPERATION)
	_ = r.Frame(func(rec *recording.Recorder) error {
		return rec.Clear(gputypes.Color{})
	})
	if len(reported) != 1 || !errors.Is(reported[0], frame.ErrContext) {
		t.Errorf("reported = %v", reported)
	}
}
