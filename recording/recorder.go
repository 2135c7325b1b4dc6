package recording

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/timeline"
)

// Recording errors.
var (
	// ErrSealed is returned when recording into a finished or discarded
	// recorder.
	ErrSealed = errors.New("recording: recorder is sealed")

	// ErrInvalidDraw is returned for draw parameters that can never be
	// valid, such as fewer than one instance.
	ErrInvalidDraw = errors.New("recording: invalid draw parameters")

	// ErrInvalidCommand is returned for other malformed commands.
	ErrInvalidCommand = errors.New("recording: invalid command")

	// ErrListConsumed is returned when a list is executed a second time.
	ErrListConsumed = errors.New("recording: list already consumed")
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithFinishHook calls fn with the sealed list before Finish returns. An
// error from fn is returned by Finish; the recorder stays sealed.
func WithFinishHook(fn func(*List) error) RecorderOption {
	return func(r *Recorder) { r.onFinish = fn }
}

// WithDiscardHook calls fn when the recorder is discarded.
func WithDiscardHook(fn func() error) RecorderOption {
	return func(r *Recorder) { r.onDiscard = fn }
}

// Recorder captures commands for one frame.
//
// Recording never touches the graphics context. Handles are checked
// against the registry at record time, so only live resources of the right
// kind can be referenced.
//
// The Recorder is safe for concurrent use.
type Recorder struct {
	mu       sync.Mutex
	registry *handle.Registry
	token    timeline.Token
	commands []Command
	sealed   bool

	onFinish  func(*List) error
	onDiscard func() error
}

// NewRecorder creates a recorder for the frame identified by token.
func NewRecorder(reg *handle.Registry, token timeline.Token, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		registry: reg,
		token:    token,
		commands: make([]Command, 0, 64),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Token returns the frame token the recorder was opened for.
func (r *Recorder) Token() timeline.Token { return r.token }

// Len returns the number of recorded commands.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.commands)
}

// Sealed reports whether Finish or Discard was called.
func (r *Recorder) Sealed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// --------------------------------------------------------------------------
// Framebuffer
// --------------------------------------------------------------------------

// Clear records a color clear.
func (r *Recorder) Clear(c gputypes.Color) error {
	return r.append(ClearCommand{Color: c})
}

// ClearWithDepth records a color and depth clear.
func (r *Recorder) ClearWithDepth(c gputypes.Color, depth float64) error {
	if depth < 0 || depth > 1 {
		return fmt.Errorf("%w: clear depth %g outside [0, 1]", ErrInvalidCommand, depth)
	}
	return r.append(ClearCommand{Color: c, Depth: &depth})
}

// SetViewport records a viewport change.
func (r *Recorder) SetViewport(x, y, width, height int) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: viewport size %dx%d", ErrInvalidCommand, width, height)
	}
	return r.append(SetViewportCommand{X: x, Y: y, Width: width, Height: height})
}

// --------------------------------------------------------------------------
// Bindings
// --------------------------------------------------------------------------

// BindProgram records a program switch.
func (r *Recorder) BindProgram(p handle.Handle) error {
	if err := r.check(p, handle.KindProgram); err != nil {
		return err
	}
	return r.append(BindProgramCommand{Program: p})
}

// BindBuffer records a buffer binding. For vertex buffers slot is the
// attribute location; for uniform buffers it is the block binding.
func (r *Recorder) BindBuffer(slot int, b handle.Handle) error {
	if slot < 0 {
		return fmt.Errorf("%w: negative buffer slot %d", ErrInvalidCommand, slot)
	}
	if err := r.check(b, handle.KindBuffer); err != nil {
		return err
	}
	return r.append(BindBufferCommand{Slot: slot, Buffer: b})
}

// BindTexture records a texture binding on unit.
func (r *Recorder) BindTexture(unit int, t handle.Handle) error {
	if unit < 0 {
		return fmt.Errorf("%w: negative texture unit %d", ErrInvalidCommand, unit)
	}
	if err := r.check(t, handle.KindTexture); err != nil {
		return err
	}
	return r.append(BindTextureCommand{Unit: unit, Texture: t})
}

// SetUniform records a uniform assignment on the program bound when the
// command executes.
func (r *Recorder) SetUniform(name string, v UniformValue) error {
	if name == "" {
		return fmt.Errorf("%w: empty uniform name", ErrInvalidCommand)
	}
	if !v.Valid() {
		return fmt.Errorf("%w: uniform %q has no value", ErrInvalidCommand, name)
	}
	return r.append(SetUniformCommand{Location: name, Value: v})
}

// --------------------------------------------------------------------------
// Fixed-function state
// --------------------------------------------------------------------------

// SetBlend records a blend state. Nil disables blending.
func (r *Recorder) SetBlend(b *gputypes.BlendState) error {
	if b != nil {
		cp := *b
		b = &cp
	}
	return r.append(SetBlendCommand{Blend: b})
}

// SetDepth records a depth state.
func (r *Recorder) SetDepth(d DepthState) error {
	if d.Test && !validCompare(d.Compare) {
		return fmt.Errorf("%w: depth compare %d", ErrInvalidCommand, d.Compare)
	}
	return r.append(SetDepthCommand{Depth: d})
}

// --------------------------------------------------------------------------
// Draws
// --------------------------------------------------------------------------

// Draw records a draw call. instances must be at least 1.
func (r *Recorder) Draw(primitive gputypes.PrimitiveTopology, rng Range, instances int) error {
	if instances < 1 {
		return fmt.Errorf("%w: %d instances", ErrInvalidDraw, instances)
	}
	if rng.First < 0 || rng.Count < 0 {
		return fmt.Errorf("%w: range first=%d count=%d", ErrInvalidDraw, rng.First, rng.Count)
	}
	if !validTopology(primitive) {
		return fmt.Errorf("%w: primitive topology %d", ErrInvalidDraw, primitive)
	}
	return r.append(DrawCommand{Primitive: primitive, Range: rng, Instances: instances})
}

// --------------------------------------------------------------------------
// Sealing
// --------------------------------------------------------------------------

// Finish seals the recorder and returns its list.
func (r *Recorder) Finish() (*List, error) {
	r.mu.Lock()
	if r.sealed {
		r.mu.Unlock()
		return nil, ErrSealed
	}
	r.sealed = true
	l := &List{token: r.token, commands: r.commands}
	r.commands = nil
	hook := r.onFinish
	r.mu.Unlock()

	if hook != nil {
		if err := hook(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Discard seals the recorder and drops its commands.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	if r.sealed {
		r.mu.Unlock()
		return ErrSealed
	}
	r.sealed = true
	r.commands = nil
	hook := r.onDiscard
	r.mu.Unlock()

	if hook != nil {
		return hook()
	}
	return nil
}

func (r *Recorder) append(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sealed {
		return ErrSealed
	}
	r.commands = append(r.commands, c)
	return nil
}

func (r *Recorder) check(h handle.Handle, kind handle.Kind) error {
	if h.Kind() != kind {
		return fmt.Errorf("%w: %v is not a %v", handle.ErrInvalidHandle, h, kind)
	}
	if _, err := r.registry.Resolve(h); err != nil {
		return err
	}
	return nil
}

func validTopology(p gputypes.PrimitiveTopology) bool {
	switch p {
	case gputypes.PrimitiveTopologyPointList,
		gputypes.PrimitiveTopologyLineList,
		gputypes.PrimitiveTopologyLineStrip,
		gputypes.PrimitiveTopologyTriangleList,
		gputypes.PrimitiveTopologyTriangleStrip:
		return true
	}
	return false
}

func validCompare(c gputypes.CompareFunction) bool {
	switch c {
	case gputypes.CompareFunctionNever,
		gputypes.CompareFunctionLess,
		gputypes.CompareFunctionEqual,
		gputypes.CompareFunctionLessEqual,
		gputypes.CompareFunctionGreater,
		gputypes.CompareFunctionNotEqual,
		gputypes.CompareFunctionGreaterEqual,
		gputypes.CompareFunctionAlways:
		return true
	}
	return false
}

// --------------------------------------------------------------------------
// List
// --------------------------------------------------------------------------

// List is a sealed, ordered command list for one frame.
type List struct {
	token    timeline.Token
	commands []Command
	consumed atomic.Bool
}

// Token returns the frame token the list was recorded for.
func (l *List) Token() timeline.Token { return l.token }

// Len returns the number of commands.
func (l *List) Len() int { return len(l.commands) }

// Commands returns the commands in recording order. The slice must not be
// modified.
func (l *List) Commands() []Command { return l.commands }

// Consume marks the list as executed. Only the first call succeeds.
func (l *List) Consume() error {
	if !l.consumed.CompareAndSwap(false, true) {
		return ErrListConsumed
	}
	return nil
}

// Consumed reports whether Consume has been called.
func (l *List) Consumed() bool { return l.consumed.Load() }
