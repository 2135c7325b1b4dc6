// Package frame executes recorded command lists and paces them to the host.
//
// # Architecture
//
//	Host signal -> Scheduler.Signal -> Recorder (producers)
//	            -> Recorder.Finish  -> Scheduler.Execute
//	            -> Executor: state.Cache.Apply per command -> Present
//	            -> retire token -> resource.Manager.Collect
//
// The Executor runs lists strictly in token order. The first failing
// command aborts the rest of its list; the frame is still presented and its
// token retired, so one bad frame never stalls the pipeline.
//
// # Basic Usage
//
//	sched := frame.NewScheduler(exec, registry, tl)
//	err := sched.Frame(func(r *recording.Recorder) error {
//	    r.Clear(gputypes.Color{A: 1})
//	    r.BindProgram(prog)
//	    r.BindBuffer(0, vertices)
//	    return r.Draw(gputypes.PrimitiveTopologyTriangleList, recording.Range{Count: 3}, 1)
//	})
//
// For a host driven application, combine Run with a Loop:
//
//	loop := frame.NewLoop(60, 250*time.Millisecond)
//	loop.OnUpdate = update
//	loop.OnRender = render
//	err := sched.Run(ctx, host, loop.Frame)
//
// # Thread Safety
//
// Scheduler methods are safe for concurrent use. Executor, state cache and
// resource reclamation touch the context and must run on the goroutine that
// owns it; Scheduler.Execute and Run do so on the calling goroutine.
package frame
