package glcore

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/glcore/frame"
	"github.com/gogpu/glcore/gl"
	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/recording"
	"github.com/gogpu/glcore/resource"
	"github.com/gogpu/glcore/state"
	"github.com/gogpu/glcore/timeline"
)

// Renderer wires the rendering core around one graphics context: the
// handle registry, the frame timeline, the state cache, the resource
// manager, the executor and the scheduler.
//
// Resource creation and frame execution call into the context and must run
// on the goroutine that owns it.
type Renderer struct {
	ctx       gl.Context
	config    Config
	registry  *handle.Registry
	timeline  *timeline.Timeline
	cache     *state.Cache
	resources *resource.Manager
	executor  *frame.Executor
	scheduler *frame.Scheduler
}

// New creates a renderer over ctx. It panics if ctx is nil and returns
// ErrInvalidConfig if the configuration does not validate.
func New(ctx gl.Context, opts ...Option) (*Renderer, error) {
	if ctx == nil {
		panic("glcore: New requires a context")
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cfg := o.config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	maxTexture := cfg.MaxTextureSize
	if o.maxTextureSize != nil {
		maxTexture = *o.maxTextureSize
	}
	budget := cfg.MemoryBudget()
	if o.memoryBudget != nil {
		budget = *o.memoryBudget
	}
	checks := cfg.CheckErrors
	if o.checkErrors != nil {
		checks = *o.checkErrors
	}

	r := &Renderer{
		ctx:      ctx,
		config:   cfg,
		registry: handle.NewRegistry(),
		timeline: timeline.New(),
	}
	r.cache = state.New(ctx, r.registry)
	r.resources = resource.NewManager(ctx, r.registry, r.timeline,
		resource.WithBinder(r.cache),
		resource.WithMaxTextureSize(maxTexture),
		resource.WithMemoryBudget(budget),
		resource.WithErrorChecks(checks),
	)

	execOpts := []frame.ExecutorOption{frame.WithErrorChecks(checks)}
	if o.presenter != nil {
		execOpts = append(execOpts, frame.WithPresenter(o.presenter))
	}
	r.executor = frame.NewExecutor(ctx, r.cache, r.resources, r.timeline, execOpts...)

	var schedOpts []frame.SchedulerOption
	if o.onError != nil {
		schedOpts = append(schedOpts, frame.WithErrorHandler(o.onError))
	}
	r.scheduler = frame.NewScheduler(r.executor, r.registry, r.timeline, schedOpts...)

	Logger().Info("glcore: renderer created",
		"maxTextureSize", r.resources.MaxTextureSize(),
		"memoryBudget", budget,
		"errorChecks", checks)
	return r, nil
}

// Config returns the configuration the renderer was created with.
func (r *Renderer) Config() Config { return r.config }

// Context returns the graphics context.
func (r *Renderer) Context() gl.Context { return r.ctx }

// Registry returns the handle registry.
func (r *Renderer) Registry() *handle.Registry { return r.registry }

// Resources returns the resource manager.
func (r *Renderer) Resources() *resource.Manager { return r.resources }

// Cache returns the state cache.
func (r *Renderer) Cache() *state.Cache { return r.cache }

// Executor returns the command list executor.
func (r *Renderer) Executor() *frame.Executor { return r.executor }

// Scheduler returns the frame scheduler.
func (r *Renderer) Scheduler() *frame.Scheduler { return r.scheduler }

// Frame records one frame with fn and executes it. See frame.Scheduler.Frame.
func (r *Renderer) Frame(fn func(*recording.Recorder) error) error {
	return r.scheduler.Frame(fn)
}

// Run drives frames from host until ctx is cancelled, fn returns
// frame.ErrStop or the host stops.
func (r *Renderer) Run(ctx context.Context, host frame.Host, fn frame.FrameFunc) error {
	return r.scheduler.Run(ctx, host, fn)
}

// NewLoop returns a fixed-step loop paced by the configured update rate
// and maximum frame time. Pass its Frame method to Run.
func (r *Renderer) NewLoop(opts ...frame.LoopOption) *frame.Loop {
	return frame.NewLoop(r.config.UpdatesPerSecond, time.Duration(r.config.MaxFrameTime), opts...)
}

// ResetState forgets all cached context state. Call it after the context
// was restored from a loss, or after other code changed context state
// directly.
func (r *Renderer) ResetState() {
	r.cache.Reset()
	Logger().Debug("glcore: state cache reset")
}

// Close tears the pipeline down: any frame in progress is discarded, every
// issued frame is retired and all resources are deleted. Close is
// idempotent.
func (r *Renderer) Close() error {
	if err := r.scheduler.Teardown(); err != nil {
		return fmt.Errorf("glcore: close: %w", err)
	}
	return nil
}

// Stats aggregates the counters of every stage.
type Stats struct {
	Resources resource.Stats
	Cache     state.Stats
	Executor  frame.ExecStats
	Scheduler frame.SchedulerStats
	Issued    timeline.Token
	Retired   timeline.Token
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Frames[%d executed, %d aborted, %d discarded, %d dropped, %d retired of %d] Calls[%d issued, %d elided] %s",
		s.Executor.Frames, s.Executor.Aborted, s.Scheduler.Discarded, s.Scheduler.Dropped, s.Retired, s.Issued,
		s.Cache.Issued, s.Cache.Elided, s.Resources)
}

// Stats returns a snapshot of all counters.
func (r *Renderer) Stats() Stats {
	return Stats{
		Resources: r.resources.Stats(),
		Cache:     r.cache.Stats(),
		Executor:  r.executor.Stats(),
		Scheduler: r.scheduler.Stats(),
		Issued:    r.timeline.Issued(),
		Retired:   r.timeline.Retired(),
	}
}

// IsClosed reports whether Close has run.
func (r *Renderer) IsClosed() bool {
	return r.scheduler.State() == frame.StateClosed
}
