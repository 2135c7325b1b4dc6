package frame

import (
	"errors"
	"fmt"

	"github.com/gogpu/glcore/gl"
	"github.com/gogpu/glcore/recording"
)

// Sentinel errors for frame operations.
var (
	// ErrOutOfOrder is returned when a list is executed before the frames
	// preceding it have retired.
	ErrOutOfOrder = errors.New("frame: command list executed out of order")

	// ErrStaleList is returned for a list whose frame has already retired.
	ErrStaleList = errors.New("frame: stale command list")

	// ErrBusy is returned by Signal while a frame is in progress.
	ErrBusy = errors.New("frame: frame in progress")

	// ErrNoFrame is returned when an operation needs a frame in a state the
	// scheduler is not in.
	ErrNoFrame = errors.New("frame: no frame in the required state")

	// ErrClosed is returned after Teardown.
	ErrClosed = errors.New("frame: scheduler closed")

	// ErrContext wraps an error code reported by the context.
	ErrContext = errors.New("frame: context error")

	// ErrPresent wraps a presenter failure.
	ErrPresent = errors.New("frame: present failed")

	// ErrStop is returned by a frame function to stop Run.
	ErrStop = errors.New("frame: stop")

	// ErrHostStopped is returned by a Host that will deliver no more frames.
	ErrHostStopped = errors.New("frame: host stopped")
)

// ExecError reports the command that aborted a frame.
type ExecError struct {
	// Index is the position of the failing command in the list.
	Index int
	// Command is the failing command.
	Command recording.Command
	// Err is the underlying error.
	Err error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("frame: command %d %s: %v", e.Index, recording.Describe(e.Command), e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

func contextError(code gl.Enum) error {
	return fmt.Errorf("%w: %s", ErrContext, gl.ErrorString(code))
}
