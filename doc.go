// Package glcore is a rendering core for WebGL2-class graphics contexts.
//
// # Overview
//
// Producers record frames as lists of commands without touching the
// context. A single executor replays the lists in order through a state
// cache that skips redundant context calls. Resources are addressed by
// generational handles, and destroyed resources are reclaimed only after
// every frame that could still use them has retired.
//
// # Quick Start
//
//	r, err := glcore.New(ctx)
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//
//	prog, err := r.Resources().CreateProgram(vertexSrc, fragmentSrc)
//	vbo, err := r.Resources().CreateBuffer(resource.BufferDescriptor{
//	    Usage:  gputypes.BufferUsageVertex,
//	    Layout: resource.VertexLayout{Format: gputypes.VertexFormatFloat32x2},
//	}, vertices)
//
//	err = r.Frame(func(rec *recording.Recorder) error {
//	    rec.Clear(gputypes.Color{A: 1})
//	    rec.BindProgram(prog)
//	    rec.BindBuffer(0, vbo)
//	    return rec.Draw(gputypes.PrimitiveTopologyTriangleList, recording.Range{Count: 3}, 1)
//	})
//
// # Architecture
//
// The module is organized into:
//   - gl: the context interface, enums and a recording fake (gl/gltrace)
//   - handle, timeline: generational handles and frame tokens
//   - resource: buffer, texture and program lifetimes
//   - recording: commands and per-frame recorders
//   - state: the redundant-call eliminating state cache
//   - frame: executor, scheduler, hosts and the fixed-step loop
//
// # Configuration
//
// Settings can be loaded from YAML or TOML with LoadConfig and passed with
// WithConfig. Explicit options override the loaded values.
//
// # Logging
//
// glcore is silent by default. SetLogger enables structured logging for the
// root package and every sub-package.
package glcore

// Version is the current version of the library.
const Version = "0.1.0"
