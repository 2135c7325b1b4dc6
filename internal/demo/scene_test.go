package demo

import (
	"testing"

	"github.com/chewxy/math32"

	"github.com/gogpu/glcore"
	"github.com/gogpu/glcore/gl/gltrace"
	"github.com/gogpu/glcore/recording"
)

func newScene(t *testing.T) (*glcore.Renderer, *gltrace.Context, *Scene) {
	t.Helper()
	ctx := gltrace.New()
	r, err := glcore.New(ctx)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = r.Close() })
	s, err := NewScene(r.Resources())
	if err != nil {
		t.Fatalf("NewScene: %v", err)
	}
	return r, ctx, s
}

func TestSceneRenders(t *testing.T) {
	r, ctx, s := newScene(t)
	for i := range 3 {
		s.Update(0.1)
		err := r.Frame(func(rec *recording.Recorder) error { return s.Render(rec, 0.5) })
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
	if got := ctx.Count("DrawElements"); got != 3 {
		t.Errorf("DrawElements called %d times, want 3", got)
	}
	// The transform changes every frame; texture and tint do not.
	if got := ctx.Count("UniformMatrix3fv"); got != 3 {
		t.Errorf("UniformMatrix3fv called %d times, want 3", got)
	}
	if got := ctx.Count("Uniform1iv"); got != 1 {
		t.Errorf("Uniform1iv called %d times, want 1", got)
	}
	if got := ctx.Count("BindTexture"); got != 1 {
		t.Errorf("BindTexture called %d times, want 1", got)
	}
}

func TestSceneDestroy(t *testing.T) {
	_, ctx, s := newScene(t)
	if err := s.Destroy(); err != nil {
		t.Fatal(err)
	}
	if n := ctx.LiveBuffers() + ctx.LiveTextures() + ctx.LivePrograms(); n != 0 {
		t.Errorf("%d objects left after Destroy", n)
	}
}

func TestSceneRotation(t *testing.T) {
	s := &Scene{Speed: math32.Pi, aspect: 1}
	if m := s.Transform(0); m != [9]float32{1, 0, 0, 0, 1, 0, 0, 0, 1} {
		t.Errorf("Transform(0) = %v", m)
	}

	s.Update(0.5)
	if got := s.Angle(1); math32.Abs(got-math32.Pi/2) > 1e-5 {
		t.Errorf("Angle(1) = %v, want pi/2", got)
	}
	if got := s.Angle(0.5); math32.Abs(got-math32.Pi/4) > 1e-5 {
		t.Errorf("Angle(0.5) = %v, want pi/4", got)
	}

	// Crossing a full turn keeps interpolation moving forward.
	s.Update(1.75)
	if s.Angle(1) >= 2*math32.Pi || s.Angle(0) > s.Angle(1) {
		t.Errorf("wrapped angles: prev %v, cur %v", s.Angle(0), s.Angle(1))
	}

	s.Resize(200, 100)
	if m := s.Transform(0); m[0] != 0.5 {
		t.Errorf("aspect not applied: %v", m)
	}
}

func TestCheckerboard(t *testing.T) {
	img := Checkerboard(8, 4)
	if img.Bounds().Dx() != 8 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if img.RGBAAt(0, 0) == img.RGBAAt(2, 0) {
		t.Error("adjacent cells share a color")
	}
	if img.RGBAAt(0, 0) != img.RGBAAt(2, 2) {
		t.Error("diagonal cells differ")
	}
}
