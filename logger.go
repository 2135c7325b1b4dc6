package glcore

import (
	"log/slog"

	"github.com/gogpu/glcore/internal/slogx"
)

// SetLogger configures the logger for glcore and all its sub-packages.
// By default, glcore produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
//
// Log levels used by glcore:
//   - [slog.LevelDebug]: per-frame diagnostics (executed lists, reclaimed objects, cache resets)
//   - [slog.LevelInfo]: lifecycle events (renderer created, config loaded, teardown)
//   - [slog.LevelWarn]: aborted frames, dropped host signals, pending context errors
//
// Example:
//
//	// Enable debug-level logging for full diagnostics:
//	glcore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	slogx.SetLogger(l)
}

// Logger returns the current logger used by glcore.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return slogx.Logger()
}
