package animation

import (
	"fmt"
	"log/slog"
	"time"
)

// DefaultDuration is used when Options.Duration is not positive.
const DefaultDuration = 1000 * time.Millisecond

// Event names a Clock lifecycle event.
type Event string

const (
	// EventStart fires when a run begins, before the first frame.
	EventStart Event = "start"
	// EventTick fires once per frame with the eased progress.
	EventTick Event = "tick"
	// EventComplete fires after the final tick of a run.
	EventComplete Event = "complete"
)

// Handler receives an event value. Tick handlers get the eased progress;
// start handlers get 0; complete handlers get the last ticked progress.
type Handler func(progress float64)

// Status represents the state of a Clock.
//
//	         Play()              Pause()
//	Idle ────────────► Running ◄─────────► Paused
//	 ▲                    │       Resume()     │
//	 └────────────────────┴────────────────────┘
//	      Stop() or natural completion
type Status int

const (
	// StatusIdle means no run is in progress.
	StatusIdle Status = iota
	// StatusRunning means frames are advancing progress.
	StatusRunning
	// StatusPaused means a run is in progress but frames do nothing.
	StatusPaused
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Options configures a Clock. The zero value is usable.
type Options struct {
	// Duration is the length of one run (default DefaultDuration).
	Duration time.Duration
	// Easing transforms raw progress (default EaseOutQuart).
	Easing Curve

	// OnStart, OnComplete and OnTick are registered with On in that order.
	OnStart    Handler
	OnComplete Handler
	OnTick     Handler

	// Frames drives the clock (default DefaultFrames()).
	Frames FrameSource
	// Timers delays Loop restarts (default SchedulerTimers on Frames when
	// Frames is a *FrameScheduler, otherwise on DefaultFrames()).
	Timers Timers
	// Time supplies timestamps for Play, Pause and Resume (default Now).
	Time TimeSource
	// Logger receives Debug snapshots (default slog.Default()).
	Logger *slog.Logger
}

type handler struct {
	event Event
	fn    Handler
}

// Clock drives one animation run from progress 0 to 1 over Duration.
//
// A Clock is not safe for concurrent use. All methods and every handler
// are expected to run on the goroutine that steps the FrameSource.
type Clock struct {
	duration time.Duration
	easing   Curve

	running   bool
	reversed  bool
	startedAt time.Time
	pausedAt  time.Time
	run       uint64
	token     FrameToken
	progress  float64

	handlers []handler

	looping   bool
	loopHook  bool
	loopDelay time.Duration
	loopCount int
	loopTimer Timer

	frames FrameSource
	timers Timers
	time   TimeSource
	log    *slog.Logger
}

// NewClock creates a clock from opts.
func NewClock(opts Options) *Clock {
	c := &Clock{
		duration: opts.Duration,
		easing:   opts.Easing,
		running:  true,
		frames:   opts.Frames,
		timers:   opts.Timers,
		time:     opts.Time,
		log:      opts.Logger,
	}
	if c.duration <= 0 {
		c.duration = DefaultDuration
	}
	if c.easing == nil {
		c.easing = EaseOutQuart
	}
	if c.frames == nil {
		c.frames = DefaultFrames()
	}
	if c.timers == nil {
		sched, ok := c.frames.(*FrameScheduler)
		if !ok {
			sched = DefaultFrames()
		}
		c.timers = SchedulerTimers{Frames: sched}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if opts.OnStart != nil {
		c.On(EventStart, opts.OnStart)
	}
	if opts.OnComplete != nil {
		c.On(EventComplete, opts.OnComplete)
	}
	if opts.OnTick != nil {
		c.On(EventTick, opts.OnTick)
	}
	return c
}

func (c *Clock) now() time.Time {
	if c.time != nil {
		return c.time.Now()
	}
	return Now()
}

// SetDuration sets the length of subsequent frames' progress computation.
// Non-positive values are ignored.
func (c *Clock) SetDuration(d time.Duration) *Clock {
	if d > 0 {
		c.duration = d
	}
	return c
}

// Duration returns the length of one run.
func (c *Clock) Duration() time.Duration { return c.duration }

// SetEasing sets the easing curve. A nil curve restores EaseOutQuart.
func (c *Clock) SetEasing(fn Curve) *Clock {
	if fn == nil {
		fn = EaseOutQuart
	}
	c.easing = fn
	return c
}

// On registers fn for event. Earlier registrations are kept; every handler
// for an event is called in registration order.
func (c *Clock) On(event Event, fn Handler) *Clock {
	if fn != nil {
		c.handlers = append(c.handlers, handler{event: event, fn: fn})
	}
	return c
}

// Dispatch calls every handler registered for event with value.
func (c *Clock) Dispatch(event Event, value float64) {
	// Handlers registered during dispatch are not called for this event.
	handlers := c.handlers
	for _, h := range handlers {
		if h.event == event {
			h.fn(value)
		}
	}
}

// Play starts a run. It does nothing if a run is already in progress.
// Passing true runs progress from 1 down to 0.
func (c *Clock) Play(reversed ...bool) *Clock {
	if !c.startedAt.IsZero() {
		return c
	}
	c.reversed = len(reversed) > 0 && reversed[0]
	c.Dispatch(EventStart, 0)
	if !c.startedAt.IsZero() {
		// A start handler began its own run.
		return c
	}
	c.run++
	c.running = true
	c.pausedAt = time.Time{}
	c.startedAt = c.now()
	c.schedule(c.run)
	return c
}

// Reverse is Play(true).
func (c *Clock) Reverse() *Clock {
	return c.Play(true)
}

// Pause freezes progress. Frames keep arriving while paused but compute
// nothing and dispatch nothing. Pause does nothing when idle or already
// paused.
func (c *Clock) Pause() *Clock {
	if c.startedAt.IsZero() || !c.running {
		return c
	}
	c.running = false
	c.pausedAt = c.now()
	return c
}

// Resume continues a paused run, excluding the paused interval from
// elapsed time. It does nothing unless paused.
func (c *Clock) Resume() *Clock {
	if c.running || c.startedAt.IsZero() {
		return c
	}
	c.running = true
	c.startedAt = c.startedAt.Add(c.now().Sub(c.pausedAt))
	c.pausedAt = time.Time{}
	return c
}

// Stop cancels the pending frame and ends the run without dispatching
// complete. A pending Loop restart is also cancelled and looping ends.
// The run cannot be resumed; a later Play starts afresh.
func (c *Clock) Stop() *Clock {
	c.frames.Cancel(c.token)
	c.token = 0
	c.run++
	c.startedAt = time.Time{}
	c.pausedAt = time.Time{}
	c.running = true
	c.looping = false
	if c.loopTimer != nil {
		c.loopTimer.Stop()
		c.loopTimer = nil
	}
	return c
}

// Loop plays the clock and, after each completion, waits delay and runs
// again in the opposite direction: reverse, forward, reverse, ...
func (c *Clock) Loop(delay ...time.Duration) *Clock {
	c.loopDelay = 0
	if len(delay) > 0 && delay[0] > 0 {
		c.loopDelay = delay[0]
	}
	c.loopCount = 0
	c.looping = true
	if !c.loopHook {
		c.loopHook = true
		c.On(EventComplete, c.loopNext)
	}
	return c.Play()
}

func (c *Clock) loopNext(float64) {
	if !c.looping {
		return
	}
	c.loopTimer = c.timers.AfterFunc(c.loopDelay, func() {
		c.loopTimer = nil
		if !c.looping {
			return
		}
		if c.loopCount%2 == 0 {
			c.Reverse()
		} else {
			c.Play()
		}
		c.loopCount++
	})
}

// Status returns the current state of the clock.
func (c *Clock) Status() Status {
	switch {
	case c.startedAt.IsZero():
		return StatusIdle
	case !c.running:
		return StatusPaused
	default:
		return StatusRunning
	}
}

// IsReversed reports whether the current or last run went from 1 to 0.
func (c *Clock) IsReversed() bool { return c.reversed }

// Progress returns the most recently ticked eased progress.
func (c *Clock) Progress() float64 { return c.progress }

func (c *Clock) schedule(run uint64) {
	c.token = c.frames.Schedule(func(ts time.Time) {
		c.frame(run, ts)
	})
}

func (c *Clock) frame(run uint64, ts time.Time) {
	if run != c.run {
		return
	}
	c.token = 0
	if !c.running {
		c.schedule(run)
		return
	}

	elapsed := ts.Sub(c.startedAt)
	progress := min(float64(elapsed)/float64(c.duration), 1)
	if c.reversed {
		progress = 1 - progress
	}
	eased := c.easing(progress)
	c.progress = eased

	c.Dispatch(EventTick, eased)
	if run != c.run {
		// A tick handler stopped or restarted the clock.
		return
	}

	// The boundary frame (elapsed == duration) re-registers once more and
	// the run ends on the following frame.
	if elapsed <= c.duration {
		c.schedule(run)
		return
	}
	c.startedAt = time.Time{}
	c.Dispatch(EventComplete, eased)
}
