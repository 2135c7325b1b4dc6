// Command glcore-trace renders the demo scene headlessly against a tracing
// context and reports what reached the context.
//
// Usage:
//
//	glcore-trace [-frames 600] [-fps 60] [-config glcore.yaml] [-calls] [-v]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/gogpu/glcore"
	"github.com/gogpu/glcore/frame"
	"github.com/gogpu/glcore/gl/gltrace"
	"github.com/gogpu/glcore/internal/demo"
	"github.com/gogpu/glcore/recording"
)

type options struct {
	frames  int
	fps     float64
	config  string
	calls   bool
	verbose bool
	quiet   bool
}

func main() {
	var o options
	fs := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	fs.IntVar(&o.frames, "frames", 600, "number of display frames to render")
	fs.Float64Var(&o.fps, "fps", 60, "simulated display refresh rate")
	fs.StringVar(&o.config, "config", "", "YAML or TOML configuration file")
	fs.BoolVar(&o.calls, "calls", false, "print per-method context call counts")
	fs.BoolVar(&o.verbose, "v", false, "log at the configured level to stderr")
	fs.BoolVar(&o.quiet, "q", false, "hide the progress bar")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse args: %v\n", err)
		os.Exit(2)
	}

	if err := run(o, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "glcore-trace: %v\n", err)
		os.Exit(1)
	}
}

func run(o options, out io.Writer) error {
	if o.frames <= 0 || o.fps <= 0 {
		return errors.New("frames and fps must be positive")
	}
	cfg := glcore.DefaultConfig()
	if o.config != "" {
		var err error
		if cfg, err = glcore.LoadConfig(o.config); err != nil {
			return err
		}
	}
	if o.verbose {
		level, err := cfg.SlogLevel()
		if err != nil {
			return err
		}
		glcore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		defer glcore.SetLogger(nil)
	}

	ctx := gltrace.New()
	aborted := 0
	r, err := glcore.New(ctx, glcore.WithConfig(cfg), glcore.WithErrorHandler(func(error) { aborted++ }))
	if err != nil {
		return err
	}
	defer r.Close()

	scene, err := demo.NewScene(r.Resources())
	if err != nil {
		return fmt.Errorf("create scene: %w", err)
	}

	loop := r.NewLoop()
	loop.OnResize = func(w, h int) (int, int) {
		scene.Resize(w, h)
		return w, h
	}
	loop.OnUpdate = func(u *frame.UpdateInfo) {
		scene.Update(float32(u.FixedTimeStep().Seconds()))
	}
	loop.OnRender = func(ri *frame.RenderInfo) error {
		return scene.Render(ri.Recorder, ri.BlendingFactor())
	}
	loop.Resize(1280, 720)

	var bar *progressbar.ProgressBar
	if !o.quiet {
		bar = progressbar.Default(int64(o.frames), "rendering")
		defer bar.Close()
	}

	interval := time.Duration(float64(time.Second) / o.fps)
	start := time.Now()
	for i := range o.frames {
		now := time.Duration(i) * interval
		err := r.Frame(func(rec *recording.Recorder) error { return loop.Frame(rec, now) })
		if err != nil && !errors.Is(err, frame.ErrStop) {
			var execErr *frame.ExecError
			if !errors.As(err, &execErr) {
				return fmt.Errorf("frame %d: %w", i, err)
			}
		}
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	elapsed := time.Since(start)

	if err := scene.Destroy(); err != nil {
		return err
	}
	stats := r.Stats()
	if err := r.Close(); err != nil {
		return err
	}

	fmt.Fprintf(out, "\n%d frames in %v (%d updates, %d aborted)\n",
		o.frames, elapsed.Round(time.Millisecond), loop.NumberOfUpdates(), aborted)
	fmt.Fprintln(out, stats)
	if o.calls {
		printCalls(out, ctx)
	}
	return nil
}

func printCalls(out io.Writer, ctx *gltrace.Context) {
	counts := make(map[string]int)
	for _, c := range ctx.Calls() {
		counts[c.Name]++
	}
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	for _, name := range names {
		fmt.Fprintf(out, "%8d  %s\n", counts[name], name)
	}
}
