// Package state mirrors WebGL binding state so redundant context calls can
// be skipped.
//
// The Cache is the only component that issues binding and fixed-function
// calls. It applies recording commands, compares each requested value with
// the value it last set, and calls the context only on a difference. Upload
// paths in the resource package bind through the Cache as a
// resource.Binder, so the mirror never diverges from the context.
//
// A new Cache assumes the context is in its default WebGL state. After a
// context loss, or after foreign code touched the context, call Reset.
package state

import (
	"errors"
	"fmt"
	"maps"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/gl"
	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/internal/slogx"
	"github.com/gogpu/glcore/recording"
	"github.com/gogpu/glcore/resource"
)

var (
	// ErrNoProgram is returned by draws and uniform updates when no program
	// is bound.
	ErrNoProgram = errors.New("state: no program bound")

	// ErrUnsupported is returned for values WebGL2 cannot express.
	ErrUnsupported = errors.New("state: unsupported value")

	// ErrInvalidSlot is returned for attribute locations or texture units
	// beyond the context limits.
	ErrInvalidSlot = errors.New("state: slot out of range")
)

// cached is a mirrored value that may be unknown.
type cached[T comparable] struct {
	v  T
	ok bool
}

// set stores v and reports whether the context must be told.
func (c *cached[T]) set(v T) bool {
	if c.ok && c.v == v {
		return false
	}
	c.v, c.ok = v, true
	return true
}

func known[T comparable](v T) cached[T] { return cached[T]{v: v, ok: true} }

// Stats counts context calls issued and skipped by the cache.
type Stats struct {
	Issued uint64
	Elided uint64
}

// Cache mirrors context state. It is not safe for concurrent use; it runs
// on the goroutine that owns the context.
type Cache struct {
	ctx      gl.Context
	registry *handle.Registry

	maxAttribs int
	maxUnits   int

	program    cached[handle.Handle]
	targets    map[gl.Enum]handle.Handle
	attribs    map[int]handle.Handle
	enabled    map[int]bool
	blocks     map[int]handle.Handle
	index      handle.Handle
	activeUnit cached[int]
	units      map[int]handle.Handle

	blendOn    cached[bool]
	blend      cached[gputypes.BlendState]
	depthTest  cached[bool]
	depthWrite cached[bool]
	depthFunc  cached[gl.Enum]
	clearColor cached[gputypes.Color]
	clearDepth cached[float64]
	viewport   cached[[4]int]

	uniforms map[handle.Handle]map[string]recording.UniformValue

	stats Stats
}

var _ resource.Binder = (*Cache)(nil)

// New creates a cache for ctx. Handles in commands are looked up in reg.
func New(ctx gl.Context, reg *handle.Registry) *Cache {
	if ctx == nil || reg == nil {
		panic("state: New requires a context and registry")
	}
	c := &Cache{
		ctx:        ctx,
		registry:   reg,
		maxAttribs: ctx.GetInteger(gl.MAX_VERTEX_ATTRIBS),
		maxUnits:   ctx.GetInteger(gl.MAX_COMBINED_TEXTURE_IMAGE_UNITS),
	}
	// WebGL2 guarantees at least 16 attributes and 32 combined units.
	if c.maxAttribs <= 0 {
		c.maxAttribs = 16
	}
	if c.maxUnits <= 0 {
		c.maxUnits = 32
	}
	c.forget()
	c.program = known(handle.Handle{})
	c.activeUnit = known(0)
	c.blendOn = known(false)
	c.depthTest = known(false)
	c.depthWrite = known(true)
	c.depthFunc = known(gl.LESS)
	c.clearColor = known(gputypes.Color{})
	c.clearDepth = known(1.0)
	return c
}

// forget marks every mirrored value unknown.
func (c *Cache) forget() {
	c.program = cached[handle.Handle]{}
	c.targets = make(map[gl.Enum]handle.Handle)
	c.attribs = make(map[int]handle.Handle)
	c.enabled = make(map[int]bool)
	c.blocks = make(map[int]handle.Handle)
	c.index = handle.Handle{}
	c.activeUnit = cached[int]{}
	c.units = make(map[int]handle.Handle)
	c.blendOn = cached[bool]{}
	c.blend = cached[gputypes.BlendState]{}
	c.depthTest = cached[bool]{}
	c.depthWrite = cached[bool]{}
	c.depthFunc = cached[gl.Enum]{}
	c.clearColor = cached[gputypes.Color]{}
	c.clearDepth = cached[float64]{}
	c.viewport = cached[[4]int]{}
	c.uniforms = make(map[handle.Handle]map[string]recording.UniformValue)
}

// Reset forgets all mirrored state. The next command of every kind reaches
// the context. Use after context loss.
func (c *Cache) Reset() {
	c.forget()
	slogx.Logger().Debug("state: cache reset")
}

// BeginFrame starts a new frame. The index buffer selection of the previous
// frame no longer applies, so draws are non-indexed until an index buffer
// is bound again. Context bindings are untouched.
func (c *Cache) BeginFrame() {
	c.index = handle.Handle{}
}

// Stats returns the call counters.
func (c *Cache) Stats() Stats { return c.stats }

func (c *Cache) issued() { c.stats.Issued++ }
func (c *Cache) elided() { c.stats.Elided++ }

// Apply executes one command against the context.
func (c *Cache) Apply(cmd recording.Command) error {
	switch cmd := cmd.(type) {
	case recording.ClearCommand:
		c.applyClear(cmd)
		return nil
	case recording.SetViewportCommand:
		if c.viewport.set([4]int{cmd.X, cmd.Y, cmd.Width, cmd.Height}) {
			c.ctx.Viewport(cmd.X, cmd.Y, cmd.Width, cmd.Height)
			c.issued()
		} else {
			c.elided()
		}
		return nil
	case recording.BindProgramCommand:
		return c.applyProgram(cmd.Program)
	case recording.BindBufferCommand:
		return c.applyBuffer(cmd.Slot, cmd.Buffer)
	case recording.BindTextureCommand:
		return c.applyTexture(cmd.Unit, cmd.Texture)
	case recording.SetUniformCommand:
		return c.applyUniform(cmd.Location, cmd.Value)
	case recording.SetBlendCommand:
		return c.applyBlend(cmd.Blend)
	case recording.SetDepthCommand:
		return c.applyDepth(cmd.Depth)
	case recording.DrawCommand:
		return c.applyDraw(cmd)
	case nil:
		return fmt.Errorf("%w: nil command", ErrUnsupported)
	}
	return fmt.Errorf("%w: command %v", ErrUnsupported, cmd.Type())
}

func (c *Cache) applyClear(cmd recording.ClearCommand) {
	if c.clearColor.set(cmd.Color) {
		c.ctx.ClearColor(float32(cmd.Color.R), float32(cmd.Color.G), float32(cmd.Color.B), float32(cmd.Color.A))
		c.issued()
	} else {
		c.elided()
	}
	mask := gl.COLOR_BUFFER_BIT
	if cmd.Depth != nil {
		if c.clearDepth.set(*cmd.Depth) {
			c.ctx.ClearDepthf(float32(*cmd.Depth))
			c.issued()
		} else {
			c.elided()
		}
		// Depth clears honor the depth write mask.
		if c.depthWrite.set(true) {
			c.ctx.DepthMask(true)
			c.issued()
		}
		mask |= gl.DEPTH_BUFFER_BIT
	}
	c.ctx.Clear(mask)
	c.issued()
}

func (c *Cache) lookup(h handle.Handle, kind handle.Kind) (*handle.Slot, error) {
	if h.Kind() != kind {
		return nil, fmt.Errorf("%w: %v is not a %v", handle.ErrInvalidHandle, h, kind)
	}
	return c.registry.Lookup(h)
}

func (c *Cache) applyProgram(h handle.Handle) error {
	slot, err := c.lookup(h, handle.KindProgram)
	if err != nil {
		return err
	}
	if !c.program.set(h) {
		c.elided()
		return nil
	}
	c.ctx.UseProgram(slot.Backing.(gl.Program))
	c.issued()
	return nil
}

func (c *Cache) applyBuffer(slotIndex int, h handle.Handle) error {
	slot, err := c.lookup(h, handle.KindBuffer)
	if err != nil {
		return err
	}
	meta := slot.Meta.(*resource.Buffer)
	buf := slot.Backing.(gl.Buffer)

	switch {
	case meta.IsVertex():
		if slotIndex >= c.maxAttribs {
			return fmt.Errorf("%w: attribute %d, context has %d", ErrInvalidSlot, slotIndex, c.maxAttribs)
		}
		if cur, ok := c.attribs[slotIndex]; ok && cur == h && c.enabled[slotIndex] {
			c.elided()
			return nil
		}
		size, ty, normalized, err := meta.Layout.Attrib()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		c.bindTarget(gl.ARRAY_BUFFER, h, buf)
		if !c.enabled[slotIndex] {
			c.ctx.EnableVertexAttribArray(slotIndex)
			c.enabled[slotIndex] = true
			c.issued()
		}
		c.ctx.VertexAttribPointer(slotIndex, size, ty, normalized, meta.Layout.Stride, meta.Layout.Offset)
		c.attribs[slotIndex] = h
		c.issued()

	case meta.IsIndex():
		c.index = h
		c.bindTarget(gl.ELEMENT_ARRAY_BUFFER, h, buf)

	case meta.IsUniform():
		if cur, ok := c.blocks[slotIndex]; ok && cur == h {
			c.elided()
			return nil
		}
		c.ctx.BindBufferBase(gl.UNIFORM_BUFFER, slotIndex, buf)
		c.blocks[slotIndex] = h
		c.targets[gl.UNIFORM_BUFFER] = h
		c.issued()
	}
	return nil
}

// bindTarget binds buf to target unless it is already bound there.
func (c *Cache) bindTarget(target gl.Enum, h handle.Handle, buf gl.Buffer) {
	if cur, ok := c.targets[target]; ok && cur == h {
		c.elided()
		return
	}
	c.ctx.BindBuffer(target, buf)
	c.targets[target] = h
	c.issued()
}

func (c *Cache) activate(unit int) {
	if c.activeUnit.set(unit) {
		// #nosec G115 -- unit bounded by maxUnits
		c.ctx.ActiveTexture(gl.TEXTURE0 + gl.Enum(unit))
		c.issued()
	} else {
		c.elided()
	}
}

func (c *Cache) applyTexture(unit int, h handle.Handle) error {
	slot, err := c.lookup(h, handle.KindTexture)
	if err != nil {
		return err
	}
	if unit >= c.maxUnits {
		return fmt.Errorf("%w: texture unit %d, context has %d", ErrInvalidSlot, unit, c.maxUnits)
	}
	if cur, ok := c.units[unit]; ok && cur == h {
		c.elided()
		return nil
	}
	c.activate(unit)
	c.ctx.BindTexture(gl.TEXTURE_2D, slot.Backing.(gl.Texture))
	c.units[unit] = h
	c.issued()
	return nil
}

func (c *Cache) applyUniform(name string, v recording.UniformValue) error {
	prog := c.program.v
	if !c.program.ok || prog.IsZero() {
		return fmt.Errorf("%w: set uniform %q", ErrNoProgram, name)
	}
	slot, err := c.registry.Lookup(prog)
	if err != nil {
		return err
	}
	values := c.uniforms[prog]
	if values == nil {
		values = make(map[string]recording.UniformValue)
		c.uniforms[prog] = values
	}
	if cur, ok := values[name]; ok && cur == v {
		c.elided()
		return nil
	}

	loc := slot.Meta.(*resource.Program).UniformLocation(c.ctx, slot.Backing.(gl.Program), name)
	values[name] = v
	if !loc.Valid() {
		// Inactive uniform; the context would ignore the upload.
		c.elided()
		return nil
	}
	switch v.Kind() {
	case recording.UniformFloat:
		c.ctx.Uniform1fv(loc, v.Floats())
	case recording.UniformVec2:
		c.ctx.Uniform2fv(loc, v.Floats())
	case recording.UniformVec3:
		c.ctx.Uniform3fv(loc, v.Floats())
	case recording.UniformVec4:
		c.ctx.Uniform4fv(loc, v.Floats())
	case recording.UniformInt:
		c.ctx.Uniform1iv(loc, v.Ints())
	case recording.UniformIVec2:
		c.ctx.Uniform2iv(loc, v.Ints())
	case recording.UniformIVec3:
		c.ctx.Uniform3iv(loc, v.Ints())
	case recording.UniformIVec4:
		c.ctx.Uniform4iv(loc, v.Ints())
	case recording.UniformMat2:
		c.ctx.UniformMatrix2fv(loc, v.Floats())
	case recording.UniformMat3:
		c.ctx.UniformMatrix3fv(loc, v.Floats())
	case recording.UniformMat4:
		c.ctx.UniformMatrix4fv(loc, v.Floats())
	default:
		delete(values, name)
		return fmt.Errorf("%w: uniform kind %v", ErrUnsupported, v.Kind())
	}
	c.issued()
	return nil
}

func (c *Cache) applyBlend(b *gputypes.BlendState) error {
	if b == nil {
		if c.blendOn.set(false) {
			c.ctx.Disable(gl.BLEND)
			c.issued()
		} else {
			c.elided()
		}
		return nil
	}
	funcs, eqs, err := blendEnums(*b)
	if err != nil {
		return err
	}
	if c.blendOn.set(true) {
		c.ctx.Enable(gl.BLEND)
		c.issued()
	} else {
		c.elided()
	}
	if !c.blend.set(*b) {
		c.elided()
		return nil
	}
	c.ctx.BlendFuncSeparate(funcs[0], funcs[1], funcs[2], funcs[3])
	c.ctx.BlendEquationSeparate(eqs[0], eqs[1])
	c.stats.Issued += 2
	return nil
}

func (c *Cache) applyDepth(d recording.DepthState) error {
	var fn gl.Enum
	if d.Test {
		var err error
		if fn, err = compareEnum(d.Compare); err != nil {
			return err
		}
	}
	if c.depthTest.set(d.Test) {
		if d.Test {
			c.ctx.Enable(gl.DEPTH_TEST)
		} else {
			c.ctx.Disable(gl.DEPTH_TEST)
		}
		c.issued()
	} else {
		c.elided()
	}
	if c.depthWrite.set(d.Write) {
		c.ctx.DepthMask(d.Write)
		c.issued()
	} else {
		c.elided()
	}
	if d.Test {
		if c.depthFunc.set(fn) {
			c.ctx.DepthFunc(fn)
			c.issued()
		} else {
			c.elided()
		}
	}
	return nil
}

func (c *Cache) applyDraw(cmd recording.DrawCommand) error {
	if !c.program.ok || c.program.v.IsZero() {
		return fmt.Errorf("%w: draw", ErrNoProgram)
	}
	mode, err := topologyEnum(cmd.Primitive)
	if err != nil {
		return err
	}

	if c.index.IsZero() {
		if cmd.Instances > 1 {
			c.ctx.DrawArraysInstanced(mode, cmd.Range.First, cmd.Range.Count, cmd.Instances)
		} else {
			c.ctx.DrawArrays(mode, cmd.Range.First, cmd.Range.Count)
		}
		c.issued()
		return nil
	}

	slot, err := c.lookup(c.index, handle.KindBuffer)
	if err != nil {
		return err
	}
	// An upload may have rebound the element target since the index buffer
	// was selected.
	c.bindTarget(gl.ELEMENT_ARRAY_BUFFER, c.index, slot.Backing.(gl.Buffer))
	ty, size := slot.Meta.(*resource.Buffer).IndexType()
	offset := cmd.Range.First * size
	if cmd.Instances > 1 {
		c.ctx.DrawElementsInstanced(mode, cmd.Range.Count, ty, offset, cmd.Instances)
	} else {
		c.ctx.DrawElements(mode, cmd.Range.Count, ty, offset)
	}
	c.issued()
	return nil
}

// --------------------------------------------------------------------------
// resource.Binder
// --------------------------------------------------------------------------

// BindUploadBuffer implements resource.Binder.
func (c *Cache) BindUploadBuffer(h handle.Handle, target gl.Enum, b gl.Buffer) {
	c.bindTarget(target, h, b)
}

// BindUploadTexture implements resource.Binder. The texture is bound on the
// active unit.
func (c *Cache) BindUploadTexture(h handle.Handle, t gl.Texture) {
	unit := c.activeUnit.v
	if !c.activeUnit.ok {
		unit = 0
		c.activate(0)
	}
	if cur, ok := c.units[unit]; ok && cur == h {
		c.elided()
		return
	}
	c.ctx.BindTexture(gl.TEXTURE_2D, t)
	c.units[unit] = h
	c.issued()
}

// Invalidate implements resource.Binder. Every binding of the reclaimed
// handle becomes unknown, so a new resource reusing the backing object name
// is always rebound.
func (c *Cache) Invalidate(h handle.Handle) {
	if c.program.v == h {
		c.program = cached[handle.Handle]{}
	}
	for target, cur := range c.targets {
		if cur == h {
			delete(c.targets, target)
		}
	}
	for i, cur := range c.attribs {
		if cur == h {
			delete(c.attribs, i)
		}
	}
	for i, cur := range c.blocks {
		if cur == h {
			delete(c.blocks, i)
		}
	}
	for unit, cur := range c.units {
		if cur == h {
			delete(c.units, unit)
		}
	}
	if c.index == h {
		c.index = handle.Handle{}
	}
	delete(c.uniforms, h)
	slogx.Logger().Debug("state: invalidated", "handle", h)
}

// --------------------------------------------------------------------------
// Snapshot
// --------------------------------------------------------------------------

// PipelineState is a snapshot of the mirrored state. Handles are zero and
// Known flags false where the cache does not know the context value.
type PipelineState struct {
	Program     handle.Handle
	Attribs     map[int]handle.Handle
	Blocks      map[int]handle.Handle
	Targets     map[gl.Enum]handle.Handle
	IndexBuffer handle.Handle
	ActiveUnit  int
	Textures    map[int]handle.Handle

	// Blend is nil when blending is disabled or unknown.
	Blend      *gputypes.BlendState
	Depth      recording.DepthState
	ClearColor gputypes.Color
	ClearDepth float64
	Viewport   [4]int

	ProgramKnown  bool
	ViewportKnown bool
}

// State returns a snapshot of the mirrored state.
func (c *Cache) State() PipelineState {
	s := PipelineState{
		Program:     c.program.v,
		Attribs:     maps.Clone(c.attribs),
		Blocks:      maps.Clone(c.blocks),
		Targets:     maps.Clone(c.targets),
		IndexBuffer: c.index,
		ActiveUnit:  c.activeUnit.v,
		Textures:    maps.Clone(c.units),
		Depth: recording.DepthState{
			Test:  c.depthTest.v,
			Write: c.depthWrite.v,
		},
		ClearColor:    c.clearColor.v,
		ClearDepth:    c.clearDepth.v,
		Viewport:      c.viewport.v,
		ProgramKnown:  c.program.ok,
		ViewportKnown: c.viewport.ok,
	}
	if c.blendOn.ok && c.blendOn.v && c.blend.ok {
		b := c.blend.v
		s.Blend = &b
	}
	s.Depth.Compare = compareFunction(c.depthFunc.v)
	return s
}

func compareFunction(e gl.Enum) gputypes.CompareFunction {
	for _, f := range []gputypes.CompareFunction{
		gputypes.CompareFunctionNever, gputypes.CompareFunctionLess,
		gputypes.CompareFunctionEqual, gputypes.CompareFunctionLessEqual,
		gputypes.CompareFunctionGreater, gputypes.CompareFunctionNotEqual,
		gputypes.CompareFunctionGreaterEqual, gputypes.CompareFunctionAlways,
	} {
		if got, _ := compareEnum(f); got == e {
			return f
		}
	}
	return gputypes.CompareFunctionLess
}
