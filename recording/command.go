package recording

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/handle"
)

// CommandType identifies the type of a command.
type CommandType uint8

const (
	// Framebuffer commands
	CmdClear       CommandType = iota // Clear color (and optionally depth)
	CmdSetViewport                    // Set the viewport rectangle

	// Binding commands
	CmdBindProgram // Use a shader program
	CmdBindBuffer  // Bind a buffer to a slot
	CmdBindTexture // Bind a texture to a unit
	CmdSetUniform  // Set a uniform on the bound program

	// Fixed-function state commands
	CmdSetBlend // Set or disable blending
	CmdSetDepth // Set depth test and writes

	// Draw commands
	CmdDraw // Issue a draw call
)

// commandTypeNames maps CommandType values to their string representation.
var commandTypeNames = [...]string{
	CmdClear:       "Clear",
	CmdSetViewport: "SetViewport",
	CmdBindProgram: "BindProgram",
	CmdBindBuffer:  "BindBuffer",
	CmdBindTexture: "BindTexture",
	CmdSetUniform:  "SetUniform",
	CmdSetBlend:    "SetBlend",
	CmdSetDepth:    "SetDepth",
	CmdDraw:        "Draw",
}

// String returns the string representation of a CommandType.
func (c CommandType) String() string {
	if int(c) < len(commandTypeNames) {
		return commandTypeNames[c]
	}
	return "Unknown"
}

// Command is the interface implemented by all command types.
type Command interface {
	// Type returns the CommandType for this command.
	Type() CommandType
}

// --------------------------------------------------------------------------
// Framebuffer Commands
// --------------------------------------------------------------------------

// ClearCommand clears the color buffer, and the depth buffer when Depth is
// non-nil.
type ClearCommand struct {
	Color gputypes.Color
	Depth *float64
}

// Type implements Command.
func (ClearCommand) Type() CommandType { return CmdClear }

// SetViewportCommand sets the viewport rectangle in pixels.
type SetViewportCommand struct {
	X, Y, Width, Height int
}

// Type implements Command.
func (SetViewportCommand) Type() CommandType { return CmdSetViewport }

// --------------------------------------------------------------------------
// Binding Commands
// --------------------------------------------------------------------------

// BindProgramCommand makes a program current.
type BindProgramCommand struct {
	Program handle.Handle
}

// Type implements Command.
func (BindProgramCommand) Type() CommandType { return CmdBindProgram }

// BindBufferCommand binds a buffer. Slot is the attribute location for
// vertex buffers and the block binding for uniform buffers; it is ignored
// for index buffers.
type BindBufferCommand struct {
	Slot   int
	Buffer handle.Handle
}

// Type implements Command.
func (BindBufferCommand) Type() CommandType { return CmdBindBuffer }

// BindTextureCommand binds a texture to a texture unit.
type BindTextureCommand struct {
	Unit    int
	Texture handle.Handle
}

// Type implements Command.
func (BindTextureCommand) Type() CommandType { return CmdBindTexture }

// SetUniformCommand sets a uniform of the bound program by name.
type SetUniformCommand struct {
	Location string
	Value    UniformValue
}

// Type implements Command.
func (SetUniformCommand) Type() CommandType { return CmdSetUniform }

// --------------------------------------------------------------------------
// Fixed-function State Commands
// --------------------------------------------------------------------------

// SetBlendCommand enables blending with the given state, or disables it
// when Blend is nil.
type SetBlendCommand struct {
	Blend *gputypes.BlendState
}

// Type implements Command.
func (SetBlendCommand) Type() CommandType { return CmdSetBlend }

// SetDepthCommand configures the depth test.
type SetDepthCommand struct {
	Depth DepthState
}

// Type implements Command.
func (SetDepthCommand) Type() CommandType { return CmdSetDepth }

// --------------------------------------------------------------------------
// Draw Commands
// --------------------------------------------------------------------------

// DrawCommand draws Range with the bound program and buffers. Indexed
// drawing is used when an index buffer is bound, in which case Range is in
// indices rather than vertices.
type DrawCommand struct {
	Primitive gputypes.PrimitiveTopology
	Range     Range
	Instances int
}

// Type implements Command.
func (DrawCommand) Type() CommandType { return CmdDraw }

// --------------------------------------------------------------------------
// Supporting Types
// --------------------------------------------------------------------------

// Range is a span of vertices or indices.
type Range struct {
	First int
	Count int
}

// DepthState describes depth testing.
type DepthState struct {
	// Test enables the depth test.
	Test bool
	// Write enables depth writes.
	Write bool
	// Compare is the depth comparison. Ignored when Test is false.
	Compare gputypes.CompareFunction
}

// DefaultDepthState returns the context's initial depth state: test
// disabled, writes enabled, less-than comparison.
func DefaultDepthState() DepthState {
	return DepthState{Write: true, Compare: gputypes.CompareFunctionLess}
}

// BlendAlpha returns conventional non-premultiplied alpha blending.
func BlendAlpha() gputypes.BlendState {
	return gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOneMinusSrcAlpha,
			Operation: gputypes.BlendOperationAdd,
		},
	}
}

// Describe formats a command for logs and error messages.
func Describe(c Command) string {
	switch c := c.(type) {
	case ClearCommand:
		if c.Depth != nil {
			return fmt.Sprintf("Clear(%.3g, %.3g, %.3g, %.3g, depth=%.3g)", c.Color.R, c.Color.G, c.Color.B, c.Color.A, *c.Depth)
		}
		return fmt.Sprintf("Clear(%.3g, %.3g, %.3g, %.3g)", c.Color.R, c.Color.G, c.Color.B, c.Color.A)
	case SetViewportCommand:
		return fmt.Sprintf("SetViewport(%d, %d, %d, %d)", c.X, c.Y, c.Width, c.Height)
	case BindProgramCommand:
		return fmt.Sprintf("BindProgram(%v)", c.Program)
	case BindBufferCommand:
		return fmt.Sprintf("BindBuffer(%d, %v)", c.Slot, c.Buffer)
	case BindTextureCommand:
		return fmt.Sprintf("BindTexture(%d, %v)", c.Unit, c.Texture)
	case SetUniformCommand:
		return fmt.Sprintf("SetUniform(%q, %v)", c.Location, c.Value)
	case SetBlendCommand:
		if c.Blend == nil {
			return "SetBlend(off)"
		}
		return "SetBlend(on)"
	case SetDepthCommand:
		return fmt.Sprintf("SetDepth(test=%t, write=%t)", c.Depth.Test, c.Depth.Write)
	case DrawCommand:
		return fmt.Sprintf("Draw(%d, first=%d, count=%d, instances=%d)", c.Primitive, c.Range.First, c.Range.Count, c.Instances)
	case nil:
		return "<nil>"
	}
	return c.Type().String()
}
