//go:build stress

package frame

import (
	"runtime"
	"sync"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/glcore/handle"
	"github.com/gogpu/glcore/recording"
)

// Stress tests run with: go test -tags stress ./frame

// TestStressConcurrentProducers fills each frame from many goroutines.
func TestStressConcurrentProducers(t *testing.T) {
	p := newPipeline(t, nil)
	prog := p.program(t)
	buffers := make([]handle.Handle, 8)
	for i := range buffers {
		buffers[i] = p.triangle(t)
	}

	producers := runtime.GOMAXPROCS(0) * 2
	const frames = 200
	const drawsPerProducer = 25

	for range frames {
		err := p.sched.Frame(func(r *recording.Recorder) error {
			if err := r.BindProgram(prog); err != nil {
				return err
			}
			var wg sync.WaitGroup
			errs := make(chan error, producers)
			for g := range producers {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for i := range drawsPerProducer {
						if err := r.BindBuffer(0, buffers[(g+i)%len(buffers)]); err != nil {
							errs <- err
							return
						}
						if err := r.Draw(gputypes.PrimitiveTopologyTriangleList, recording.Range{Count: 3}, 1); err != nil {
							errs <- err
							return
						}
					}
				}()
			}
			wg.Wait()
			close(errs)
			return <-errs
		})
		if err != nil {
			t.Fatalf("Frame: %v", err)
		}
	}

	_, _, draws := p.ctx.Framebuffer()
	if want := frames * producers * drawsPerProducer; draws != want {
		t.Errorf("draws = %d, want %d", draws, want)
	}
	t.Logf("%d frames, %d draws, cache %+v", frames, draws, p.cache.Stats())
}

// TestStressResourceChurn creates and destroys buffers every frame while
// they are in use.
func TestStressResourceChurn(t *testing.T) {
	p := newPipeline(t, nil)
	prog := p.program(t)

	const frames = 500
	for i := range frames {
		vb := p.triangle(t)
		rec, err := p.sched.Signal()
		if err != nil {
			t.Fatal(err)
		}
		if err := rec.BindProgram(prog); err != nil {
			t.Fatal(err)
		}
		if err := rec.BindBuffer(0, vb); err != nil {
			t.Fatal(err)
		}
		if err := rec.Draw(gputypes.PrimitiveTopologyTriangleList, recording.Range{Count: 3}, 1); err != nil {
			t.Fatal(err)
		}
		if err := p.res.Destroy(vb); err != nil {
			t.Fatal(err)
		}
		if _, err := rec.Finish(); err != nil {
			t.Fatal(err)
		}
		if err := p.sched.Execute(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}

	if n := p.ctx.LiveBuffers(); n != 0 {
		t.Errorf("%d buffers leaked", n)
	}
	// Slots are recycled instead of growing with the frame count.
	if n := p.reg.Len(); n > 4 {
		t.Errorf("registry grew to %d slots", n)
	}
}
