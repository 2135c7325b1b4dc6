//go:build js && wasm

// Command glcore-demo draws a rotating textured triangle in the browser.
//
// The page must contain a canvas with id "glcore". Append ?debug to the
// URL for debug logging in the browser console.
package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"syscall/js"

	"github.com/gogpu/glcore"
	"github.com/gogpu/glcore/frame"
	"github.com/gogpu/glcore/gl/webgl"
	"github.com/gogpu/glcore/internal/demo"
)

func main() {
	if err := run(); err != nil {
		js.Global().Get("console").Call("error", "glcore-demo: "+err.Error())
		os.Exit(1)
	}
}

func run() error {
	doc := js.Global().Get("document")
	if strings.Contains(js.Global().Get("location").Get("search").String(), "debug") {
		glcore.SetLogger(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	canvas := doc.Call("getElementById", "glcore")
	ctx, err := webgl.NewContext(canvas)
	if err != nil {
		return err
	}
	r, err := glcore.New(ctx, glcore.WithErrorChecks(false))
	if err != nil {
		return err
	}
	defer r.Close()

	scene, err := demo.NewScene(r.Resources())
	if err != nil {
		return err
	}

	loop := r.NewLoop()
	loop.OnResize = func(w, h int) (int, int) {
		canvas.Set("width", w)
		canvas.Set("height", h)
		scene.Resize(w, h)
		return w, h
	}
	loop.OnUpdate = func(u *frame.UpdateInfo) {
		scene.Update(float32(u.FixedTimeStep().Seconds()))
	}
	loop.OnRender = func(ri *frame.RenderInfo) error {
		return scene.Render(ri.Recorder, ri.BlendingFactor())
	}

	stopResize := observeSize(canvas, loop)
	defer stopResize()

	// A restored context has lost every object: rebuild the scene.
	stopRestore := ctx.OnContextRestored(func() {
		r.ResetState()
		_ = scene.Destroy()
		if s, err := demo.NewScene(r.Resources()); err == nil {
			*scene = *s
		} else {
			glcore.Logger().Error("glcore-demo: recreate scene", "err", err)
		}
	})
	defer stopRestore()

	err = r.Run(context.Background(), webgl.NewHost(), loop.Frame)
	if errors.Is(err, frame.ErrStop) {
		return nil
	}
	return err
}

// observeSize resizes the loop whenever the canvas changes size on the
// page, scaled to device pixels.
func observeSize(canvas js.Value, loop *frame.Loop) (stop func()) {
	resize := func() {
		ratio := js.Global().Get("devicePixelRatio").Float()
		w := int(canvas.Get("clientWidth").Float() * ratio)
		h := int(canvas.Get("clientHeight").Float() * ratio)
		if w > 0 && h > 0 {
			loop.Resize(w, h)
		}
	}
	cb := js.FuncOf(func(this js.Value, args []js.Value) any {
		resize()
		return nil
	})
	observer := js.Global().Get("ResizeObserver").New(cb)
	observer.Call("observe", canvas)
	resize()
	return func() {
		observer.Call("disconnect")
		cb.Release()
	}
}
