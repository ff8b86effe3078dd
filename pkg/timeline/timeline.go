// Package timeline composes several animation clocks into one sequence.
//
// A [Timeline] resolves each entry's [Delay] against its predecessor,
// builds a linear master [animation.Clock] spanning the latest entry end
// and, as the master advances, plays each entry once its start offset is
// reached:
//
//	fade := animation.NewClock(animation.Options{Duration: 200 * time.Millisecond})
//	slide := animation.NewClock(animation.Options{Duration: 300 * time.Millisecond})
//	pop := animation.NewClock(animation.Options{Duration: 100 * time.Millisecond})
//
//	tl, err := timeline.New([]timeline.Entry{
//	    {Name: "fade", Animation: fade},
//	    {Name: "slide", Animation: slide, Delay: timeline.Expr("~")},
//	    {Name: "pop", Animation: pop, Delay: timeline.Expr("+100")},
//	})
//	if err != nil {
//	    return err
//	}
//	tl.Play()
package timeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-drift/zoetrope/pkg/animation"
	"github.com/go-drift/zoetrope/pkg/errors"
)

// Entry is one animation of a timeline and its start delay.
type Entry struct {
	// Name labels the entry in logs and schedules (optional).
	Name string
	// Animation is the clock to play. The timeline does not own it.
	Animation *animation.Clock
	// Delay is when the entry starts (zero value: after its predecessor).
	Delay Delay
}

type entry struct {
	Entry
	delay  time.Duration
	hasRun bool
}

func (e *entry) end() time.Duration {
	return e.delay + e.Animation.Duration()
}

// Slot is the resolved placement of an entry.
type Slot struct {
	Name     string
	Delay    time.Duration
	Duration time.Duration
	End      time.Duration
}

type options struct {
	frames animation.FrameSource
	timers animation.Timers
	time   animation.TimeSource
	log    *slog.Logger
}

// Option configures a Timeline.
type Option func(*options)

// WithFrames sets the frame source driving the master clock.
func WithFrames(f animation.FrameSource) Option {
	return func(o *options) { o.frames = f }
}

// WithTimers sets the timers used by Loop.
func WithTimers(t animation.Timers) Option {
	return func(o *options) { o.timers = t }
}

// WithTimeSource sets the time source of the master clock.
func WithTimeSource(s animation.TimeSource) Option {
	return func(o *options) { o.time = s }
}

// WithLogger sets the logger for trigger and traversal records.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.log = l }
}

// Timeline plays a sequence of clocks from one master clock.
//
// Like Clock, a Timeline is not safe for concurrent use.
type Timeline struct {
	entries   []*entry
	runtime   time.Duration
	master    *animation.Clock
	forwards  bool
	// repeating and looping gate the traversal handler; Stop clears both.
	repeating bool
	looping   bool
	log       *slog.Logger
}

// New resolves the delays of entries and builds the master clock. If a
// delay cannot be resolved the returned error matches
// errors.ErrInvalidDelayExpression and no Timeline is returned.
func New(entries []Entry, opts ...Option) (*Timeline, error) {
	o := options{log: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	if len(entries) == 0 {
		return nil, &errors.ZoetropeError{Op: "timeline.New", Kind: errors.KindConfig, Err: fmt.Errorf("no entries")}
	}

	t := &Timeline{
		entries:  make([]*entry, 0, len(entries)),
		forwards: true,
		log:      o.log,
	}
	var prev *entry
	for i, e := range entries {
		if e.Animation == nil {
			return nil, &errors.ZoetropeError{Op: "timeline.New", Kind: errors.KindConfig, Err: fmt.Errorf("entry %d has no animation", i)}
		}
		d, err := resolveDelay(i, e.Delay, prev)
		if err != nil {
			return nil, &errors.ZoetropeError{Op: "timeline.New", Kind: errors.KindDelay, Err: err}
		}
		cur := &entry{Entry: e, delay: d}
		t.entries = append(t.entries, cur)
		t.runtime = max(t.runtime, cur.end())
		prev = cur
	}

	t.master = animation.NewClock(animation.Options{
		Duration: t.runtime,
		Easing:   animation.LinearCurve,
		OnTick:   t.runAnimations,
		OnComplete: func(float64) {
			t.runAnimations(1)
			t.reset()
		},
		Frames: o.frames,
		Timers: o.timers,
		Time:   o.time,
		Logger: o.log,
	})
	t.master.On(animation.EventComplete, t.traversed)
	return t, nil
}

// Runtime returns the total length of one traversal.
func (t *Timeline) Runtime() time.Duration { return t.runtime }

// Master returns the master clock.
func (t *Timeline) Master() *animation.Clock { return t.master }

// Forwards reports whether the next triggers play entries forward.
func (t *Timeline) Forwards() bool { return t.forwards }

// Schedule returns the resolved placement of every entry in order.
func (t *Timeline) Schedule() []Slot {
	slots := make([]Slot, len(t.entries))
	for i, e := range t.entries {
		slots[i] = Slot{
			Name:     e.Name,
			Delay:    e.delay,
			Duration: e.Animation.Duration(),
			End:      e.end(),
		}
	}
	return slots
}

// Play starts the master clock.
func (t *Timeline) Play() *Timeline {
	t.master.Play()
	return t
}

// Pause pauses the master clock. Entries already playing are not paused.
func (t *Timeline) Pause() *Timeline {
	t.master.Pause()
	return t
}

// Resume resumes the master clock.
func (t *Timeline) Resume() *Timeline {
	t.master.Resume()
	return t
}

// Reverse flips the trigger direction and runs the master backwards, so
// entries are reversed as the master passes their start offsets.
func (t *Timeline) Reverse() *Timeline {
	t.forwards = !t.forwards
	t.master.Reverse()
	return t
}

// Stop stops the master clock and every entry and clears trigger state.
// Repeat and Loop end; a later Play runs a single forward traversal.
func (t *Timeline) Stop() *Timeline {
	t.repeating = false
	t.looping = false
	t.forwards = true
	t.master.Stop()
	for _, e := range t.entries {
		e.Animation.Stop()
	}
	t.reset()
	return t
}

// Repeat plays the timeline and replays it from the start after every
// traversal.
func (t *Timeline) Repeat() *Timeline {
	t.repeating = true
	return t.Play()
}

// Loop plays the timeline forward and backward alternately, waiting delay
// between traversals. The trigger direction flips on every completion.
func (t *Timeline) Loop(delay ...time.Duration) *Timeline {
	t.looping = true
	t.repeating = false
	t.master.Loop(delay...)
	return t
}

// traversed runs after each master completion, once entries have been
// finished and reset.
func (t *Timeline) traversed(float64) {
	switch {
	case t.looping:
		t.forwards = !t.forwards
	case t.repeating:
		t.reset()
		t.master.Play()
	}
}

func (t *Timeline) reset() {
	for _, e := range t.entries {
		e.hasRun = false
	}
}

// runAnimations triggers every entry whose start offset the master has
// reached in the current direction and that has not yet run this
// traversal.
func (t *Timeline) runAnimations(progress float64) {
	for i, e := range t.entries {
		if e.hasRun {
			continue
		}
		at := float64(e.delay) / float64(t.runtime)
		switch {
		case t.forwards && progress >= at:
			e.Animation.Play()
		case !t.forwards && progress <= at:
			e.Animation.Reverse()
		default:
			continue
		}
		e.hasRun = true
		t.log.LogAttrs(context.Background(), slog.LevelDebug, "trigger",
			slog.Int("index", i),
			slog.String("name", e.Name),
			slog.Bool("forwards", t.forwards),
			slog.Float64("progress", progress),
		)
	}
}
