package frame

import (
	"sync"
	"time"

	"github.com/gogpu/glcore/internal/slogx"
	"github.com/gogpu/glcore/recording"
)

// Loop defaults.
const (
	DefaultUpdatesPerSecond = 60
	DefaultMaxFrameTime     = 250 * time.Millisecond
)

// UpdateInfo is passed to OnUpdate once per fixed step.
type UpdateInfo struct {
	loop *Loop
}

// Exit stops the loop after the current frame.
func (u *UpdateInfo) Exit() { u.loop.Exit() }

// SetUpdatesPerSecond changes the update rate from the next step on.
func (u *UpdateInfo) SetUpdatesPerSecond(n int) { u.loop.SetUpdatesPerSecond(n) }

// FixedTimeStep returns the duration of one update step.
func (u *UpdateInfo) FixedTimeStep() time.Duration { return u.loop.step }

// NumberOfUpdates returns the updates run so far.
func (u *UpdateInfo) NumberOfUpdates() uint64 { return u.loop.updates }

// NumberOfRenders returns the renders run so far.
func (u *UpdateInfo) NumberOfRenders() uint64 { return u.loop.renders }

// RenderInfo is passed to OnRender once per frame.
type RenderInfo struct {
	// Recorder receives the frame's commands.
	Recorder *recording.Recorder

	loop *Loop
}

// Exit stops the loop after the current frame.
func (r *RenderInfo) Exit() { r.loop.Exit() }

// SetUpdatesPerSecond changes the update rate from the next step on.
func (r *RenderInfo) SetUpdatesPerSecond(n int) { r.loop.SetUpdatesPerSecond(n) }

// FixedTimeStep returns the duration of one update step.
func (r *RenderInfo) FixedTimeStep() time.Duration { return r.loop.step }

// NumberOfUpdates returns the updates run so far.
func (r *RenderInfo) NumberOfUpdates() uint64 { return r.loop.updates }

// NumberOfRenders returns the renders run so far.
func (r *RenderInfo) NumberOfRenders() uint64 { return r.loop.renders }

// BlendingFactor returns how far the loop is between two update steps, in
// [0, 1). Renderers interpolate state with it.
func (r *RenderInfo) BlendingFactor() float64 {
	return float64(r.loop.accumulated) / float64(r.loop.step)
}

// ReAccumulate adds the time spent since the frame started to the
// accumulator. Long renders call it so the next frame catches up.
func (r *RenderInfo) ReAccumulate() {
	l := r.loop
	l.accumulate(l.frameStart + l.clock().Sub(l.frameWall))
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock sets the wall clock used by ReAccumulate.
func WithClock(now func() time.Time) LoopOption {
	return func(l *Loop) { l.clock = now }
}

// Loop runs fixed-timestep updates and one render per host frame. Frame is
// a FrameFunc for Scheduler.Run. A Loop is not safe for concurrent use
// except for Resize.
type Loop struct {
	// OnUpdate runs once per fixed step.
	OnUpdate func(*UpdateInfo)
	// OnRender records the frame.
	OnRender func(*RenderInfo) error
	// OnResize may adjust a new canvas size before the viewport is set.
	OnResize func(width, height int) (int, int)

	step         time.Duration
	maxFrameTime time.Duration
	accumulated  time.Duration
	last         time.Duration
	started      bool
	exit         bool
	updates      uint64
	renders      uint64

	frameStart time.Duration
	frameWall  time.Time
	clock      func() time.Time

	resizeMu sync.Mutex
	resize   *[2]int
}

// NewLoop creates a loop. Non-positive arguments select the defaults.
func NewLoop(updatesPerSecond int, maxFrameTime time.Duration, opts ...LoopOption) *Loop {
	if maxFrameTime <= 0 {
		maxFrameTime = DefaultMaxFrameTime
	}
	l := &Loop{maxFrameTime: maxFrameTime, clock: time.Now}
	l.SetUpdatesPerSecond(updatesPerSecond)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SetUpdatesPerSecond changes the update rate. Non-positive values select
// DefaultUpdatesPerSecond.
func (l *Loop) SetUpdatesPerSecond(n int) {
	if n <= 0 {
		n = DefaultUpdatesPerSecond
	}
	l.step = time.Second / time.Duration(n)
}

// FixedTimeStep returns the duration of one update step.
func (l *Loop) FixedTimeStep() time.Duration { return l.step }

// Exit makes the next Frame return ErrStop.
func (l *Loop) Exit() { l.exit = true }

// Exited reports whether Exit was called.
func (l *Loop) Exited() bool { return l.exit }

// NumberOfUpdates returns the updates run so far.
func (l *Loop) NumberOfUpdates() uint64 { return l.updates }

// NumberOfRenders returns the renders run so far.
func (l *Loop) NumberOfRenders() uint64 { return l.renders }

// Resize records a new drawable size. OnResize may adjust it; the result is
// returned so the host can size its surface, and the next frame sets the
// viewport to it. Resize may be called from any goroutine.
func (l *Loop) Resize(width, height int) (int, int) {
	if l.OnResize != nil {
		width, height = l.OnResize(width, height)
	}
	l.resizeMu.Lock()
	l.resize = &[2]int{width, height}
	l.resizeMu.Unlock()
	slogx.Logger().Debug("frame: resize", "width", width, "height", height)
	return width, height
}

// Frame advances the loop to now and records one frame into r.
func (l *Loop) Frame(r *recording.Recorder, now time.Duration) error {
	if l.exit {
		return ErrStop
	}
	l.frameStart, l.frameWall = now, l.clock()
	if !l.started {
		l.started = true
		l.last = now
	}
	l.accumulate(now)

	l.resizeMu.Lock()
	size := l.resize
	l.resizeMu.Unlock()
	if size != nil {
		if err := r.SetViewport(0, 0, size[0], size[1]); err != nil {
			return err
		}
		// Keep a resize that arrived while recording for the next frame.
		l.resizeMu.Lock()
		if l.resize == size {
			l.resize = nil
		}
		l.resizeMu.Unlock()
	}

	for l.accumulated >= l.step && !l.exit {
		if l.OnUpdate != nil {
			l.OnUpdate(&UpdateInfo{loop: l})
		}
		l.accumulated -= l.step
		l.updates++
	}

	if l.OnRender != nil {
		if err := l.OnRender(&RenderInfo{Recorder: r, loop: l}); err != nil {
			return err
		}
	}
	l.renders++
	return nil
}

// accumulate adds the time since the last accumulation, clamped to the
// maximum frame time.
func (l *Loop) accumulate(now time.Duration) {
	elapsed := now - l.last
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > l.maxFrameTime {
		elapsed = l.maxFrameTime
	}
	l.accumulated += elapsed
	l.last = now
}
