// Package recording captures draw operations as an ordered command list.
//
// Producers record commands into a Recorder without touching the graphics
// context. Finish seals the recorder into a List tagged with the frame
// token it was opened for; the frame executor replays the list through the
// state cache exactly once.
//
// # Architecture
//
// The package follows a Command pattern:
//
//   - Command: a typed, immutable description of one operation
//     (ClearCommand, BindProgramCommand, DrawCommand, ...)
//   - Recorder: validates and appends commands for one frame
//   - List: the sealed, ordered result, consumed once
//
// Commands reference resources by handle.Handle. Handles are validated at
// record time against the registry, so a stale or destroyed handle is
// rejected before it can reach the context.
//
// # Basic Usage
//
//	rec := recording.NewRecorder(registry, token)
//	rec.Clear(gputypes.Color{R: 0.1, G: 0.1, B: 0.1, A: 1})
//	rec.BindProgram(program)
//	rec.BindBuffer(0, positions)
//	rec.SetUniform("u_color", recording.Vec4(1, 0, 0, 1))
//	rec.Draw(gputypes.PrimitiveTopologyTriangleList, recording.Range{Count: 3}, 1)
//	list, err := rec.Finish()
//
// # Thread Safety
//
// A Recorder may be filled from several goroutines; commands are appended
// in the order the calls acquire the recorder's lock. A List is immutable.
package recording
