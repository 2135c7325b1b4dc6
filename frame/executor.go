package frame

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/glcore/gl"
	"github.com/gogpu/glcore/internal/slogx"
	"github.com/gogpu/glcore/recording"
	"github.com/gogpu/glcore/resource"
	"github.com/gogpu/glcore/state"
	"github.com/gogpu/glcore/timeline"
)

// Presenter hands a finished frame to the host.
type Presenter interface {
	Present() error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func() error

// Present calls f.
func (f PresenterFunc) Present() error { return f() }

type flushPresenter struct{ ctx gl.Context }

func (p flushPresenter) Present() error {
	p.ctx.Flush()
	return nil
}

// maxDrainedErrors bounds the GetError loop; a lost context reports
// CONTEXT_LOST_WEBGL forever.
const maxDrainedErrors = 8

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithPresenter sets the presentation hook. The default flushes the context.
func WithPresenter(p Presenter) ExecutorOption {
	return func(e *Executor) {
		if p != nil {
			e.presenter = p
		}
	}
}

// WithErrorChecks makes the executor query GetError after every command.
func WithErrorChecks(enabled bool) ExecutorOption {
	return func(e *Executor) { e.checkErrors = enabled }
}

// ExecStats counts executed frames.
type ExecStats struct {
	Frames   uint64
	Aborted  uint64
	Retired  uint64
	Commands uint64
}

// Executor replays command lists against the context through the state
// cache. Lists execute one at a time, in token order.
type Executor struct {
	mu          sync.Mutex
	ctx         gl.Context
	cache       *state.Cache
	resources   *resource.Manager
	timeline    *timeline.Timeline
	presenter   Presenter
	checkErrors bool
	stats       ExecStats
}

// NewExecutor creates an executor. It panics if any collaborator is nil.
func NewExecutor(ctx gl.Context, cache *state.Cache, res *resource.Manager, tl *timeline.Timeline, opts ...ExecutorOption) *Executor {
	if ctx == nil || cache == nil || res == nil || tl == nil {
		panic("frame: NewExecutor requires a context, cache, resource manager and timeline")
	}
	e := &Executor{
		ctx:       ctx,
		cache:     cache,
		resources: res,
		timeline:  tl,
		presenter: flushPresenter{ctx},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs list. The first failing command aborts the rest of the list
// and is reported as *ExecError; commands before it stay applied. Whether or
// not the list aborted, the frame is presented, its token retired and
// resources waiting on it reclaimed.
func (e *Executor) Execute(list *recording.List) error {
	if list == nil {
		return fmt.Errorf("%w: nil list", ErrStaleList)
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	tok := list.Token()
	if err := e.checkOrderLocked(tok); err != nil {
		return err
	}
	if err := list.Consume(); err != nil {
		return err
	}

	e.cache.BeginFrame()
	if e.checkErrors {
		e.drainErrors()
	}

	var execErr error
	for i, cmd := range list.Commands() {
		err := e.cache.Apply(cmd)
		if err == nil && e.checkErrors {
			if code := e.ctx.GetError(); code != gl.NO_ERROR {
				err = contextError(code)
			}
		}
		if err != nil {
			execErr = &ExecError{Index: i, Command: cmd, Err: err}
			e.stats.Aborted++
			break
		}
		e.stats.Commands++
	}

	if err := e.presenter.Present(); err != nil {
		execErr = errors.Join(execErr, fmt.Errorf("%w: %w", ErrPresent, err))
	}
	e.retireLocked(tok)
	e.stats.Frames++

	slogx.Logger().Debug("frame: executed",
		"token", tok,
		"commands", list.Len(),
		"aborted", execErr != nil)
	return execErr
}

// Retire retires tok without executing anything. The scheduler uses it for
// discarded frames.
func (e *Executor) Retire(tok timeline.Token) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkOrderLocked(tok); err != nil {
		return err
	}
	e.retireLocked(tok)
	return nil
}

// Shutdown waits for a running Execute, retires every issued token and
// closes the resource manager.
func (e *Executor) Shutdown() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	tok := e.timeline.RetireAll()
	e.resources.Collect(tok)
	return e.resources.Close()
}

// Stats returns execution counters.
func (e *Executor) Stats() ExecStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Executor) checkOrderLocked(tok timeline.Token) error {
	next := e.timeline.Retired() + 1
	switch {
	case tok < next:
		return fmt.Errorf("%w: frame %d already retired", ErrStaleList, tok)
	case tok != next:
		return fmt.Errorf("%w: frame %d, expected %d", ErrOutOfOrder, tok, next)
	case tok > e.timeline.Issued():
		return fmt.Errorf("%w: frame %d was never issued", ErrOutOfOrder, tok)
	}
	return nil
}

func (e *Executor) retireLocked(tok timeline.Token) {
	if err := e.timeline.Retire(tok); err != nil {
		// checkOrderLocked ran under the same lock.
		slogx.Logger().Error("frame: retire", "token", tok, "err", err)
		return
	}
	e.stats.Retired++
	if n := e.resources.Collect(tok); n > 0 {
		slogx.Logger().Debug("frame: reclaimed resources", "token", tok, "count", n)
	}
}

// drainErrors clears errors raised outside command execution, so they are
// not blamed on the first command.
func (e *Executor) drainErrors() {
	for range maxDrainedErrors {
		code := e.ctx.GetError()
		if code == gl.NO_ERROR {
			return
		}
		slogx.Logger().Warn("frame: pending context error before frame", "code", gl.ErrorString(code))
	}
}
