// Package gl defines the graphics context capability that glcore drives.
//
// A [Context] exposes the primitive WebGL2 operations the core needs:
// object creation and deletion, binding, uploads, uniforms, draw calls,
// fixed-function state and error queries. glcore never creates a drawing
// surface itself; the host obtains a context (see package webgl) and injects
// it.
//
// Enum values are the numeric WebGL/OpenGL ES constants, so implementations
// can pass them through to the underlying API unchanged.
//
// A Context is not safe for concurrent use. Every call must come from the
// goroutine that owns the context.
package gl
