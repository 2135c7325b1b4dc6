package recording

import (
	"strings"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/handle"
)

func TestCommandTypeString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{ClearCommand{}, "Clear"},
		{SetViewportCommand{}, "SetViewport"},
		{BindProgramCommand{}, "BindProgram"},
		{BindBufferCommand{}, "BindBuffer"},
		{BindTextureCommand{}, "BindTexture"},
		{SetUniformCommand{}, "SetUniform"},
		{SetBlendCommand{}, "SetBlend"},
		{SetDepthCommand{}, "SetDepth"},
		{DrawCommand{}, "Draw"},
	}
	for _, tt := range tests {
		if got := tt.cmd.Type().String(); got != tt.want {
			t.Errorf("%T.Type().String() = %q, want %q", tt.cmd, got, tt.want)
		}
	}
	if CommandType(200).String() != "Unknown" {
		t.Errorf("unknown command type = %q", CommandType(200).String())
	}
}

func TestDescribe(t *testing.T) {
	depth := 1.0
	tests := []struct {
		cmd  Command
		want string
	}{
		{ClearCommand{Color: gputypes.Color{R: 1, A: 1}}, "Clear(1, 0, 0, 1)"},
		{ClearCommand{Color: gputypes.Color{A: 1}, Depth: &depth}, "Clear(0, 0, 0, 1, depth=1)"},
		{SetViewportCommand{Width: 640, Height: 480}, "SetViewport(0, 0, 640, 480)"},
		{SetUniformCommand{Location: "u_time", Value: Float(0.5)}, `SetUniform("u_time", float[0.5])`},
		{SetBlendCommand{}, "SetBlend(off)"},
		{nil, "<nil>"},
	}
	for _, tt := range tests {
		if got := Describe(tt.cmd); got != tt.want {
			t.Errorf("Describe(%T) = %q, want %q", tt.cmd, got, tt.want)
		}
	}
	if got := Describe(BindBufferCommand{Slot: 2, Buffer: handle.Handle{}}); !strings.HasPrefix(got, "BindBuffer(2, ") {
		t.Errorf("Describe(BindBuffer) = %q", got)
	}
}

func TestBlendAlpha(t *testing.T) {
	b := BlendAlpha()
	if b.Color.SrcFactor != gputypes.BlendFactorSrcAlpha || b.Color.DstFactor != gputypes.BlendFactorOneMinusSrcAlpha {
		t.Errorf("color component = %+v", b.Color)
	}
	if b.Alpha.SrcFactor != gputypes.BlendFactorOne {
		t.Errorf("alpha component = %+v", b.Alpha)
	}
}

func TestDefaultDepthState(t *testing.T) {
	d := DefaultDepthState()
	if d.Test || !d.Write || d.Compare != gputypes.CompareFunctionLess {
		t.Errorf("DefaultDepthState() = %+v", d)
	}
}
