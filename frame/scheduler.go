package frame

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/internal/slogx"
	"github.com/gogpu/glcore/recording"
	"github.com/gogpu/glcore/timeline"
)

// State is the scheduler state.
type State uint8

// Scheduler states.
const (
	StateIdle State = iota
	StateRecording
	StateSubmitted
	StateExecuting
	StateClosed
)

var stateNames = [...]string{
	StateIdle:      "Idle",
	StateRecording: "Recording",
	StateSubmitted: "Submitted",
	StateExecuting: "Executing",
	StateClosed:    "Closed",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// FrameFunc records one frame. now is the host timestamp of the frame.
type FrameFunc func(r *recording.Recorder, now time.Duration) error

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithErrorHandler sets a callback for frame errors: aborted lists and
// failing frame functions inside Run.
func WithErrorHandler(fn func(error)) SchedulerOption {
	return func(s *Scheduler) { s.onError = fn }
}

// SchedulerStats counts scheduler events.
type SchedulerStats struct {
	Frames    uint64
	Aborted   uint64
	Discarded uint64
	Dropped   uint64
}

// Scheduler pairs host frame signals with recorders and hands finished
// lists to the executor. One frame is in progress at a time:
//
//	Idle -> Recording -> Submitted -> Executing -> Idle
//
// Teardown moves any state to Closed.
type Scheduler struct {
	mu       sync.Mutex
	state    State
	exec     *Executor
	registry *handle.Registry
	timeline *timeline.Timeline
	recorder *recording.Recorder
	list     *recording.List
	onError  func(error)
	stats    SchedulerStats
}

// NewScheduler creates a scheduler. Recorders validate handles against
// reg; tokens come from tl.
func NewScheduler(exec *Executor, reg *handle.Registry, tl *timeline.Timeline, opts ...SchedulerOption) *Scheduler {
	if exec == nil || reg == nil || tl == nil {
		panic("frame: NewScheduler requires an executor, registry and timeline")
	}
	s := &Scheduler{exec: exec, registry: reg, timeline: tl}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stats returns scheduler counters.
func (s *Scheduler) Stats() SchedulerStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Signal reports that the host is ready for a frame. It returns a fresh
// recorder tagged with the next token. A signal arriving while a frame is in
// progress is dropped and reported with ErrBusy.
func (s *Scheduler) Signal() (*recording.Recorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateClosed:
		return nil, ErrClosed
	case StateIdle:
	default:
		s.stats.Dropped++
		slogx.Logger().Warn("frame: signal dropped", "state", s.state, "dropped", s.stats.Dropped)
		return nil, fmt.Errorf("%w: %v", ErrBusy, s.state)
	}

	tok := s.timeline.Issue()
	rec := recording.NewRecorder(s.registry, tok,
		recording.WithFinishHook(s.submit),
		recording.WithDiscardHook(func() error { return s.discarded(tok) }),
	)
	s.recorder = rec
	s.state = StateRecording
	return rec, nil
}

// submit is the recorder finish hook.
func (s *Scheduler) submit(l *recording.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return ErrClosed
	}
	if s.state != StateRecording || s.recorder == nil || s.recorder.Token() != l.Token() {
		return fmt.Errorf("%w: finish in state %v", ErrNoFrame, s.state)
	}
	s.list = l
	s.recorder = nil
	s.state = StateSubmitted
	return nil
}

// discarded is the recorder discard hook.
func (s *Scheduler) discarded(tok timeline.Token) error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	if s.state != StateRecording || s.recorder == nil || s.recorder.Token() != tok {
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: discard in state %v", ErrNoFrame, st)
	}
	s.recorder = nil
	s.state = StateIdle
	s.stats.Discarded++
	s.mu.Unlock()

	return s.exec.Retire(tok)
}

// Execute runs the submitted list. Aborted frames are logged, passed to the
// error handler and returned; the token retires either way.
func (s *Scheduler) Execute() error {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return ErrClosed
	case StateSubmitted:
	default:
		st := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: execute in state %v", ErrNoFrame, st)
	}
	list := s.list
	s.list = nil
	s.state = StateExecuting
	s.mu.Unlock()

	err := s.exec.Execute(list)

	s.mu.Lock()
	if s.state == StateExecuting {
		s.state = StateIdle
	}
	s.stats.Frames++
	if err != nil {
		s.stats.Aborted++
	}
	onError := s.onError
	s.mu.Unlock()

	if err != nil {
		slogx.Logger().Warn("frame: aborted", "token", list.Token(), "err", err)
		if onError != nil {
			onError(err)
		}
	}
	return err
}

// Discard drops the frame being recorded and retires its token.
func (s *Scheduler) Discard() error {
	s.mu.Lock()
	if s.state != StateRecording {
		st := s.state
		s.mu.Unlock()
		if st == StateClosed {
			return ErrClosed
		}
		return fmt.Errorf("%w: discard in state %v", ErrNoFrame, st)
	}
	rec := s.recorder
	s.mu.Unlock()
	return rec.Discard()
}

// Frame runs one full cycle: signal, record with fn, finish, execute. If fn
// fails while still recording the frame is discarded and fn's error
// returned. fn may finish or discard the recorder itself; a list it already
// finished is executed even when fn then fails, and any execution error is
// joined to fn's.
func (s *Scheduler) Frame(fn func(*recording.Recorder) error) error {
	rec, err := s.Signal()
	if err != nil {
		return err
	}
	if err := fn(rec); err != nil {
		switch s.State() {
		case StateRecording:
			if derr := s.Discard(); derr != nil && !errors.Is(derr, recording.ErrSealed) {
				return errors.Join(err, derr)
			}
		case StateSubmitted:
			if xerr := s.Execute(); xerr != nil {
				return errors.Join(err, xerr)
			}
		}
		return err
	}

	switch s.State() {
	case StateRecording:
		if _, err := rec.Finish(); err != nil {
			return err
		}
	case StateIdle:
		// fn discarded the frame.
		return nil
	}
	return s.Execute()
}

// Teardown closes the scheduler. It is accepted in any state: a frame being
// recorded is discarded, a submitted list is dropped, a running list is
// waited for. Every deferred destruction is flushed and the resource
// manager closed.
func (s *Scheduler) Teardown() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return nil
	}
	prev := s.state
	rec := s.recorder
	s.recorder = nil
	s.list = nil
	s.state = StateClosed
	s.mu.Unlock()

	if rec != nil {
		// Seals the recorder so late producers see ErrSealed.
		_ = rec.Discard()
	}
	err := s.exec.Shutdown()
	slogx.Logger().Info("frame: scheduler closed", "state", prev)
	return err
}

// Run drives frames from host signals until ctx is done, the host stops,
// fn returns ErrStop, or the scheduler is torn down. Other frame errors go
// to the error handler and do not stop the loop.
func (s *Scheduler) Run(ctx context.Context, host Host, fn FrameFunc) error {
	signals := make(chan time.Duration, 1)
	request := func() error {
		return host.RequestFrame(func(now time.Duration) {
			select {
			case signals <- now:
			default:
				s.mu.Lock()
				s.stats.Dropped++
				s.mu.Unlock()
			}
		})
	}
	if err := request(); err != nil {
		return hostDone(err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-signals:
			err := s.Frame(func(r *recording.Recorder) error { return fn(r, now) })
			switch {
			case errors.Is(err, ErrStop), errors.Is(err, ErrClosed):
				return nil
			case err != nil:
				var execErr *ExecError
				if !errors.As(err, &execErr) && !errors.Is(err, ErrPresent) {
					// Execute reports its own failures.
					slogx.Logger().Warn("frame: frame failed", "err", err)
					s.mu.Lock()
					onError := s.onError
					s.mu.Unlock()
					if onError != nil {
						onError(err)
					}
				}
			}
			if err := request(); err != nil {
				return hostDone(err)
			}
		}
	}
}

func hostDone(err error) error {
	if errors.Is(err, ErrHostStopped) {
		return nil
	}
	return err
}
