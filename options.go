package glcore

import "github.com/gogpu/glcore/frame"

// Option configures a Renderer during creation.
//
// Example:
//
//	cfg, err := glcore.LoadConfig("glcore.yaml")
//	...
//	r, err := glcore.New(ctx, glcore.WithConfig(cfg), glcore.WithErrorChecks(false))
type Option func(*options)

// options holds optional configuration for Renderer creation.
type options struct {
	config    Config
	presenter frame.Presenter
	onError   func(error)

	// Explicit overrides win over config regardless of option order.
	maxTextureSize *int
	memoryBudget   *uint64
	checkErrors    *bool
}

func defaultOptions() options {
	return options{config: DefaultConfig()}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithMaxTextureSize caps texture dimensions below the context limit.
func WithMaxTextureSize(n int) Option {
	return func(o *options) {
		o.maxTextureSize = &n
	}
}

// WithMemoryBudget caps the bytes of buffer and texture storage.
// Zero removes the cap.
func WithMemoryBudget(bytes uint64) Option {
	return func(o *options) {
		o.memoryBudget = &bytes
	}
}

// WithErrorChecks enables or disables GetError checks after uploads and
// after every executed command. Checks force a round trip to the context
// and are usually disabled in release builds.
func WithErrorChecks(enabled bool) Option {
	return func(o *options) {
		o.checkErrors = &enabled
	}
}

// WithPresenter sets the presentation hook run after each frame.
// The default flushes the context.
func WithPresenter(p frame.Presenter) Option {
	return func(o *options) {
		o.presenter = p
	}
}

// WithErrorHandler sets a callback for aborted frames.
func WithErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}
