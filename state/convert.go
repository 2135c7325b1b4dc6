package state

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/gl"
)

func topologyEnum(p gputypes.PrimitiveTopology) (gl.Enum, error) {
	switch p {
	case gputypes.PrimitiveTopologyPointList:
		return gl.POINTS, nil
	case gputypes.PrimitiveTopologyLineList:
		return gl.LINES, nil
	case gputypes.PrimitiveTopologyLineStrip:
		return gl.LINE_STRIP, nil
	case gputypes.PrimitiveTopologyTriangleList:
		return gl.TRIANGLES, nil
	case gputypes.PrimitiveTopologyTriangleStrip:
		return gl.TRIANGLE_STRIP, nil
	}
	return 0, fmt.Errorf("%w: primitive topology %d", ErrUnsupported, p)
}

func blendFactorEnum(f gputypes.BlendFactor) (gl.Enum, error) {
	switch f {
	case gputypes.BlendFactorZero:
		return gl.ZERO, nil
	case gputypes.BlendFactorOne:
		return gl.ONE, nil
	case gputypes.BlendFactorSrc:
		return gl.SRC_COLOR, nil
	case gputypes.BlendFactorOneMinusSrc:
		return gl.ONE_MINUS_SRC_COLOR, nil
	case gputypes.BlendFactorSrcAlpha:
		return gl.SRC_ALPHA, nil
	case gputypes.BlendFactorOneMinusSrcAlpha:
		return gl.ONE_MINUS_SRC_ALPHA, nil
	case gputypes.BlendFactorDst:
		return gl.DST_COLOR, nil
	case gputypes.BlendFactorOneMinusDst:
		return gl.ONE_MINUS_DST_COLOR, nil
	case gputypes.BlendFactorDstAlpha:
		return gl.DST_ALPHA, nil
	case gputypes.BlendFactorOneMinusDstAlpha:
		return gl.ONE_MINUS_DST_ALPHA, nil
	case gputypes.BlendFactorSrcAlphaSaturated:
		return gl.SRC_ALPHA_SATURATE, nil
	case gputypes.BlendFactorConstant:
		return gl.CONSTANT_COLOR, nil
	case gputypes.BlendFactorOneMinusConstant:
		return gl.ONE_MINUS_CONSTANT_COLOR, nil
	}
	return 0, fmt.Errorf("%w: blend factor %d", ErrUnsupported, f)
}

func blendOperationEnum(op gputypes.BlendOperation) (gl.Enum, error) {
	switch op {
	case gputypes.BlendOperationAdd:
		return gl.FUNC_ADD, nil
	case gputypes.BlendOperationSubtract:
		return gl.FUNC_SUBTRACT, nil
	case gputypes.BlendOperationReverseSubtract:
		return gl.FUNC_REVERSE_SUBTRACT, nil
	case gputypes.BlendOperationMin:
		return gl.MIN, nil
	case gputypes.BlendOperationMax:
		return gl.MAX, nil
	}
	return 0, fmt.Errorf("%w: blend operation %d", ErrUnsupported, op)
}

func compareEnum(c gputypes.CompareFunction) (gl.Enum, error) {
	switch c {
	case gputypes.CompareFunctionNever:
		return gl.NEVER, nil
	case gputypes.CompareFunctionLess:
		return gl.LESS, nil
	case gputypes.CompareFunctionEqual:
		return gl.EQUAL, nil
	case gputypes.CompareFunctionLessEqual:
		return gl.LEQUAL, nil
	case gputypes.CompareFunctionGreater:
		return gl.GREATER, nil
	case gputypes.CompareFunctionNotEqual:
		return gl.NOTEQUAL, nil
	case gputypes.CompareFunctionGreaterEqual:
		return gl.GEQUAL, nil
	case gputypes.CompareFunctionAlways:
		return gl.ALWAYS, nil
	}
	return 0, fmt.Errorf("%w: compare function %d", ErrUnsupported, c)
}

// blendEnums converts a blend state to BlendFuncSeparate and
// BlendEquationSeparate arguments.
func blendEnums(b gputypes.BlendState) (funcs [4]gl.Enum, eqs [2]gl.Enum, err error) {
	factors := [4]gputypes.BlendFactor{b.Color.SrcFactor, b.Color.DstFactor, b.Alpha.SrcFactor, b.Alpha.DstFactor}
	for i, f := range factors {
		if funcs[i], err = blendFactorEnum(f); err != nil {
			return funcs, eqs, err
		}
	}
	if eqs[0], err = blendOperationEnum(b.Color.Operation); err != nil {
		return funcs, eqs, err
	}
	eqs[1], err = blendOperationEnum(b.Alpha.Operation)
	return funcs, eqs, err
}
