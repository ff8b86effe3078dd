package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/go-drift/zoetrope/cmd/zoetrope/internal/config"
	"github.com/go-drift/zoetrope/pkg/animation"
	"github.com/go-drift/zoetrope/pkg/engine"
	"github.com/go-drift/zoetrope/pkg/errors"
	"github.com/go-drift/zoetrope/pkg/timeline"
)

func init() {
	RegisterCommand(&Command{
		Name:  "run",
		Short: "Play a timeline on the frame loop",
		Long: `Load a timeline document and play it in real time on a fixed-rate
frame loop, drawing one progress bar per animation.

The command returns once every animation has completed. With --loop or
--repeat it plays until interrupted or until --for has elapsed.

Flags:
  --fps N            Frame rate (default: 60)
  --reverse          Play the timeline backwards
  --repeat           Replay from the start after every traversal
  --loop             Play forwards and backwards alternately
  --loop-delay MS    Pause between loop traversals in milliseconds
  --for DURATION     Stop after DURATION (e.g. 5s, 1500ms)
  --no-progress      Do not draw progress bars
  --debug-port PORT  Serve /health, /frames, /runtime and /clocks on PORT`,
		Usage: "zoetrope run <file> [--fps N] [--reverse | --repeat | --loop [--loop-delay MS]] [--for DURATION] [--no-progress] [--debug-port PORT]",
		Run:   runRun,
	})
}

type runOptions struct {
	path       string
	fps        int
	reverse    bool
	repeat     bool
	loop       bool
	loopDelay  time.Duration
	limit      time.Duration
	noProgress bool
	debugPort  int
}

func parseRunArgs(args []string) (runOptions, error) {
	var opts runOptions
	value := func(i *int, flag string) (string, error) {
		if *i+1 >= len(args) {
			return "", fmt.Errorf("%s requires a value", flag)
		}
		*i++
		return args[*i], nil
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case "--reverse":
			opts.reverse = true
		case "--repeat":
			opts.repeat = true
		case "--loop":
			opts.loop = true
		case "--no-progress":
			opts.noProgress = true
		case "--fps", "--debug-port", "--loop-delay":
			v, err := value(&i, arg)
			if err != nil {
				return opts, err
			}
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return opts, fmt.Errorf("invalid %s %q", arg, v)
			}
			switch arg {
			case "--fps":
				opts.fps = n
			case "--debug-port":
				opts.debugPort = n
			default:
				opts.loopDelay = time.Duration(n) * time.Millisecond
			}
		case "--for":
			v, err := value(&i, arg)
			if err != nil {
				return opts, err
			}
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return opts, fmt.Errorf("invalid --for %q", v)
			}
			opts.limit = d
		default:
			if strings.HasPrefix(arg, "-") {
				return opts, fmt.Errorf("unknown flag %q", arg)
			}
			if opts.path != "" {
				return opts, fmt.Errorf("unexpected argument %q", arg)
			}
			opts.path = arg
		}
	}
	if opts.path == "" {
		return opts, fmt.Errorf("timeline file is required\n\nUsage: zoetrope run <file> [flags]")
	}
	modes := 0
	for _, on := range []bool{opts.reverse, opts.repeat, opts.loop} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return opts, fmt.Errorf("--reverse, --repeat and --loop are mutually exclusive")
	}
	if opts.loopDelay > 0 && !opts.loop {
		return opts, fmt.Errorf("--loop-delay requires --loop")
	}
	return opts, nil
}

func runRun(ctx context.Context, args []string) error {
	opts, err := parseRunArgs(args)
	if err != nil {
		return err
	}

	doc, err := config.Load(opts.path)
	if err != nil {
		return err
	}

	log := slog.Default().With(slog.String("timeline", opts.path))
	frames := animation.NewFrameScheduler()
	tl, clocks, err := doc.Build(
		animation.Options{Frames: frames, Logger: log},
		timeline.WithFrames(frames),
		timeline.WithLogger(log),
	)
	if err != nil {
		return err
	}
	slots := tl.Schedule()

	diag := engine.DefaultDiagnosticsConfig()
	diag.DebugServerPort = opts.debugPort
	if opts.debugPort > 0 {
		diag.RuntimeSampleInterval = time.Second
	}
	endless := opts.loop || opts.repeat
	loop := engine.NewLoop(engine.Config{
		Frames:       frames,
		FPS:          opts.fps,
		ExitWhenIdle: !endless,
		Diagnostics:  diag,
		Logger:       log,
	})
	loop.SetInspector(func() []engine.ClockState {
		states := make([]engine.ClockState, 0, len(clocks)+1)
		states = append(states, engine.ClockStateOf("timeline", tl.Master().Snapshot()))
		for i, c := range clocks {
			states = append(states, engine.ClockStateOf(slots[i].Name, c.Snapshot()))
		}
		return states
	})

	for i, c := range clocks {
		name := slots[i].Name
		c.On(animation.EventStart, func(float64) {
			log.Debug("animation started", slog.String("name", name), slog.Bool("reversed", c.IsReversed()))
		})
		c.On(animation.EventComplete, func(p float64) {
			log.Debug("animation completed", slog.String("name", name), slog.Float64("progress", p))
		})
	}

	var bars *progressBars
	if !opts.noProgress {
		bars = newProgressBars(stdout, slots, endless)
		bars.attach(clocks)
	}

	if opts.limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.limit)
		defer cancel()
	}

	switch {
	case opts.loop:
		tl.Loop(opts.loopDelay)
	case opts.repeat:
		tl.Repeat()
	case opts.reverse:
		tl.Reverse()
	default:
		tl.Play()
	}
	log.Info("timeline started", slog.Int("animations", len(slots)), slog.Duration("runtime", tl.Runtime()))

	err = loop.Run(ctx)
	tl.Stop()
	if bars != nil {
		bars.wait()
	}
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	stats := engine.Stats(loop.Trace().Snapshot())
	log.Info("timeline stopped", slog.Int("frames", stats.Frames), slog.Int("dropped", stats.Dropped))
	fmt.Fprintf(stdout, "frames %d  dropped %d  avg %.2fms  max %.2fms  %s\n",
		stats.Frames, stats.Dropped, stats.AvgMs, stats.MaxMs, engine.FPSLabel(stats.FPS))
	return nil
}

// barTotal is the bar resolution; progress 1 maps to barTotal.
const barTotal = 1000

// progressBars draws one bar per timeline entry. Bars are updated from
// clock handlers on the loop goroutine.
type progressBars struct {
	p       *mpb.Progress
	bars    []*mpb.Bar
	endless bool
}

func newProgressBars(w io.Writer, slots []timeline.Slot, endless bool) *progressBars {
	p := mpb.New(
		mpb.WithOutput(w),
		mpb.WithWidth(48),
		mpb.WithRefreshRate(50*time.Millisecond),
	)
	pb := &progressBars{p: p, endless: endless}
	for _, slot := range slots {
		label := fmt.Sprintf("%s %v+%v", slot.Name, slot.Delay, slot.Duration)
		bar := p.New(0,
			mpb.BarStyle().Lbound("[").Filler("=").Tip(">").Padding(" ").Rbound("]"),
			mpb.PrependDecorators(
				decor.Name(label, decor.WC{C: decor.DSyncWidthR}),
			),
			mpb.AppendDecorators(
				decor.OnComplete(decor.Percentage(decor.WC{W: 5}), "done"),
			),
		)
		bar.SetTotal(barTotal, false)
		pb.bars = append(pb.bars, bar)
	}
	return pb
}

func (pb *progressBars) attach(clocks []*animation.Clock) {
	for i, c := range clocks {
		bar := pb.bars[i]
		c.On(animation.EventTick, func(p float64) {
			bar.SetCurrent(int64(math.Round(min(max(p, 0), 1) * barTotal)))
		})
		if !pb.endless {
			c.On(animation.EventComplete, func(float64) {
				bar.SetTotal(barTotal, true)
			})
		}
	}
}

// wait aborts bars that never completed and waits for the final render.
func (pb *progressBars) wait() {
	for _, bar := range pb.bars {
		bar.Abort(false)
	}
	pb.p.Wait()
}
