//go:build js && wasm

package webgl

import (
	"sync/atomic"
	"syscall/js"
	"time"

	"github.com/gogpu/glcore/frame"
)

// Host paces frames with requestAnimationFrame. The timestamp passed to
// callbacks is the frame time reported by the browser, measured from page
// load.
type Host struct {
	stopped atomic.Bool
}

var _ frame.Host = (*Host)(nil)

// NewHost returns a requestAnimationFrame host.
func NewHost() *Host { return &Host{} }

// RequestFrame implements frame.Host.
func (h *Host) RequestFrame(cb func(now time.Duration)) error {
	if h.stopped.Load() {
		return frame.ErrHostStopped
	}
	var f js.Func
	f = js.FuncOf(func(this js.Value, args []js.Value) any {
		f.Release()
		cb(msToDuration(args[0].Float()))
		return nil
	})
	js.Global().Call("requestAnimationFrame", f)
	return nil
}

// Stop makes further frame requests fail with frame.ErrHostStopped.
func (h *Host) Stop() { h.stopped.Store(true) }

// Now returns performance.now() as a duration.
func Now() time.Duration {
	return msToDuration(js.Global().Get("performance").Call("now").Float())
}

func msToDuration(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}
