// Package engine runs the host frame loop that drives animation clocks.
//
// A [Loop] steps an [animation.FrameScheduler] at a fixed rate, records a
// [FrameSample] per frame and optionally samples runtime statistics and
// serves them over HTTP for inspection.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-drift/zoetrope/pkg/animation"
)

// DefaultFPS is the frame rate used when Config.FPS is not positive.
const DefaultFPS = 60

// Config configures a Loop.
type Config struct {
	// Frames is the scheduler to step (default animation.DefaultFrames()).
	Frames *animation.FrameScheduler
	// FPS is the target frame rate.
	FPS int
	// ExitWhenIdle makes Run return once no frames or dispatches are
	// pending. Leave it unset when timers may post work later, as
	// Clock.Loop does between runs.
	ExitWhenIdle bool
	// Diagnostics controls tracing and the debug server (default
	// DefaultDiagnosticsConfig()).
	Diagnostics *DiagnosticsConfig
	// Time supplies frame timestamps (default animation.Now).
	Time animation.TimeSource
	// Logger receives loop lifecycle records (default slog.Default()).
	Logger *slog.Logger
}

// Loop is a fixed-rate frame driver. Every callback registered with its
// scheduler runs on the goroutine that calls Run.
type Loop struct {
	frames       *animation.FrameScheduler
	interval     time.Duration
	exitWhenIdle bool
	time         animation.TimeSource
	log          *slog.Logger

	trace     *FrameTraceBuffer
	runtime   *RuntimeSampleBuffer
	debugPort int
	debug     debugServer

	inspectMu sync.Mutex
	inspector func() []ClockState

	frame uint64
	last  time.Time
}

// NewLoop creates a loop from cfg.
func NewLoop(cfg Config) *Loop {
	fps := cfg.FPS
	if fps <= 0 {
		fps = DefaultFPS
	}
	diag := cfg.Diagnostics
	if diag == nil {
		diag = DefaultDiagnosticsConfig()
	}
	l := &Loop{
		frames:       cfg.Frames,
		interval:     time.Second / time.Duration(fps),
		exitWhenIdle: cfg.ExitWhenIdle,
		time:         cfg.Time,
		log:          cfg.Logger,
		trace:        NewFrameTraceBuffer(diag.TraceSamples, diag.DroppedFrameThreshold),
		debugPort:    diag.DebugServerPort,
	}
	if l.frames == nil {
		l.frames = animation.DefaultFrames()
	}
	if l.log == nil {
		l.log = slog.Default()
	}
	if diag.RuntimeSampleInterval > 0 {
		l.runtime = NewRuntimeSampleBuffer(diag.RuntimeSampleWindow, diag.RuntimeSampleInterval)
	}
	return l
}

// Interval returns the target time between frames.
func (l *Loop) Interval() time.Duration { return l.interval }

// Frames returns the scheduler stepped by the loop.
func (l *Loop) Frames() *animation.FrameScheduler { return l.frames }

// Trace returns the frame trace buffer.
func (l *Loop) Trace() *FrameTraceBuffer { return l.trace }

// Runtime returns the runtime sample buffer, or nil if sampling is off.
func (l *Loop) Runtime() *RuntimeSampleBuffer { return l.runtime }

// SetInspector sets the function the debug server calls, on the loop
// goroutine, to report clock states.
func (l *Loop) SetInspector(fn func() []ClockState) {
	l.inspectMu.Lock()
	l.inspector = fn
	l.inspectMu.Unlock()
}

// Run steps frames until ctx is done, or until the scheduler is idle when
// ExitWhenIdle is set. It returns ctx.Err() when cancelled and nil when it
// ran to idle.
func (l *Loop) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if l.runtime != nil {
		go l.runtime.Sample(ctx, l.frames.Pending)
	}
	if l.debugPort > 0 {
		port, err := l.startDebugServer(l.debugPort)
		if err != nil {
			return err
		}
		defer l.stopDebugServer()
		l.log.Info("debug server listening", slog.Int("port", port))
	}

	l.log.Debug("frame loop started", slog.Duration("interval", l.interval))
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		if l.exitWhenIdle && !l.frames.HasPending() {
			l.log.Debug("frame loop idle", slog.Uint64("frames", l.frame))
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			l.StepFrame()
		}
	}
}

// StepFrame steps the scheduler once and records a sample. Run calls it
// on every tick; hosts with their own vsync may call it directly.
func (l *Loop) StepFrame() {
	start := time.Now()
	callbacks := l.frames.Pending()

	l.frames.Step(l.now())

	work := time.Since(start)
	l.frame++
	late := !l.last.IsZero() && start.Sub(l.last) > l.interval*3/2
	l.last = start
	l.trace.Add(FrameSample{
		Frame:     l.frame,
		Timestamp: start.UnixMicro(),
		FrameMs:   durationToMillis(work),
		Callbacks: callbacks,
		Late:      late,
	}, work)
}

// Inspect runs fn on the loop goroutine at the start of the next frame and
// waits for it to finish or for ctx to be done.
func (l *Loop) Inspect(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	l.frames.Dispatch(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Loop) now() time.Time {
	if l.time != nil {
		return l.time.Now()
	}
	return animation.Now()
}

// ClockState is the JSON view of a named clock.
type ClockState struct {
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	Progress   float64 `json:"progress"`
	Reversed   bool    `json:"reversed"`
	Looping    bool    `json:"looping"`
	DurationMs float64 `json:"durationMs"`
}

// ClockStateOf converts a clock snapshot to a ClockState.
func ClockStateOf(name string, s animation.Snapshot) ClockState {
	return ClockState{
		Name:       name,
		Status:     s.Status.String(),
		Progress:   s.Progress,
		Reversed:   s.Reversed,
		Looping:    s.Looping,
		DurationMs: durationToMillis(s.Duration),
	}
}
