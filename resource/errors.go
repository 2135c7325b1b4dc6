package resource

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Returned errors wrap one of these; use errors.Is.
var (
	// ErrInvalidDescriptor is returned when a descriptor has out-of-range or
	// inconsistent fields.
	ErrInvalidDescriptor = errors.New("resource: invalid descriptor")

	// ErrOutOfRange is returned when an update touches bytes or texels
	// outside the resource.
	ErrOutOfRange = errors.New("resource: out of range")

	// ErrUsage is returned when an operation is not allowed by the
	// resource's declared usage.
	ErrUsage = errors.New("resource: operation not allowed by usage")

	// ErrBudgetExceeded is returned when an allocation would exceed the
	// configured memory budget.
	ErrBudgetExceeded = errors.New("resource: memory budget exceeded")

	// ErrObjectCreation is returned when the context fails to create an
	// object, usually because the context was lost.
	ErrObjectCreation = errors.New("resource: unable to create object")

	// ErrContext wraps an error code the context reported after an upload,
	// such as OUT_OF_MEMORY or CONTEXT_LOST_WEBGL.
	ErrContext = errors.New("resource: context error")

	// ErrCompileFailed is returned when a shader stage fails to compile.
	ErrCompileFailed = errors.New("resource: shader compilation failed")

	// ErrLinkFailed is returned when a program fails to link.
	ErrLinkFailed = errors.New("resource: program link failed")

	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("resource: manager closed")
)

// ResourceError describes a failed resource operation.
type ResourceError struct {
	// Op is the operation, e.g. "create buffer".
	Op string
	// Err is the sentinel or underlying error.
	Err error
	// Reason is a human-readable detail. May be empty.
	Reason string
}

func (e *ResourceError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, e.Reason)
}

func (e *ResourceError) Unwrap() error { return e.Err }

func opError(op string, err error, format string, args ...any) *ResourceError {
	return &ResourceError{Op: op, Err: err, Reason: fmt.Sprintf(format, args...)}
}

// Shader stage labels used in ShaderError.
const (
	StageVertex   = "vertex shader"
	StageFragment = "fragment shader"
	StageProgram  = "program"
)

// ShaderError carries the info log of a failed compile or link.
type ShaderError struct {
	// Stage is StageVertex, StageFragment or StageProgram.
	Stage string
	// Log is the driver info log, verbatim.
	Log string
	// Err is ErrCompileFailed, ErrLinkFailed or ErrObjectCreation.
	Err error
}

func (e *ShaderError) Error() string {
	log := strings.TrimRight(e.Log, "\n")
	if log == "" {
		return fmt.Sprintf("%v (%s)", e.Err, e.Stage)
	}
	return fmt.Sprintf("%v (%s): %s", e.Err, e.Stage, log)
}

func (e *ShaderError) Unwrap() error { return e.Err }
