package testing

import (
	"errors"
	"testing"
	"time"

	"github.com/go-drift/zoetrope/pkg/animation"
)

// DefaultFrameDuration is the time one PumpFrame advances the fake clock.
const DefaultFrameDuration = 16 * time.Millisecond

// ErrSettleTimeout is returned when PumpAndSettle exceeds its timeout.
var ErrSettleTimeout = errors.New("PumpAndSettle timed out: frames did not settle")

// FrameTester drives clocks frame by frame against fake time.
// It owns a private FrameScheduler, so tests do not share frame state.
type FrameTester struct {
	clock         *FakeClock
	prevSource    animation.TimeSource
	frames        *animation.FrameScheduler
	timers        *FakeTimers
	frameDuration time.Duration
	frameCount    int
}

// NewFrameTester creates a tester and installs its fake clock as the
// animation time source. Call Cleanup() when done, or use
// NewFrameTesterWithT() instead.
func NewFrameTester() *FrameTester {
	clk := NewFakeClock()
	frames := animation.NewFrameScheduler()
	t := &FrameTester{
		clock:         clk,
		frames:        frames,
		timers:        NewFakeTimers(clk, frames),
		frameDuration: DefaultFrameDuration,
	}
	t.prevSource = animation.SetTimeSource(clk)
	return t
}

// NewFrameTesterWithT creates a tester that auto-cleans up via t.Cleanup().
// This is the recommended constructor for tests.
func NewFrameTesterWithT(t testing.TB) *FrameTester {
	tester := NewFrameTester()
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup restores the previous animation time source.
func (t *FrameTester) Cleanup() {
	animation.SetTimeSource(t.prevSource)
}

// Clock returns the fake clock for advancing time in tests.
func (t *FrameTester) Clock() *FakeClock { return t.clock }

// Frames returns the tester's frame scheduler.
func (t *FrameTester) Frames() *animation.FrameScheduler { return t.frames }

// Timers returns the tester's fake timers.
func (t *FrameTester) Timers() *FakeTimers { return t.timers }

// Frame returns the number of frames stepped so far.
func (t *FrameTester) Frame() int { return t.frameCount }

// SetFrameDuration sets how far PumpFrame advances the clock.
func (t *FrameTester) SetFrameDuration(d time.Duration) {
	if d > 0 {
		t.frameDuration = d
	}
}

// Options returns opts with the tester's frame source, timers and time
// source filled in.
func (t *FrameTester) Options(opts animation.Options) animation.Options {
	opts.Frames = t.frames
	opts.Timers = t.timers
	opts.Time = t.clock
	return opts
}

// NewClock creates a clock wired to the tester.
func (t *FrameTester) NewClock(opts animation.Options) *animation.Clock {
	return animation.NewClock(t.Options(opts))
}

// Pump fires due timers and steps one frame at the current fake time
// without advancing the clock.
func (t *FrameTester) Pump() {
	t.timers.Fire()
	t.frames.Step(t.clock.Now())
	t.frameCount++
}

// PumpFrame advances the clock by one frame duration and pumps.
func (t *FrameTester) PumpFrame() {
	t.clock.Advance(t.frameDuration)
	t.Pump()
}

// PumpFor pumps frames until at least d of fake time has passed.
func (t *FrameTester) PumpFor(d time.Duration) {
	var elapsed time.Duration
	for elapsed < d {
		t.PumpFrame()
		elapsed += t.frameDuration
	}
}

// PumpAndSettle pumps frames until no frame callbacks, dispatches or
// timers are pending, or the timeout is reached. Returns ErrSettleTimeout
// if the frames do not settle within timeout.
func (t *FrameTester) PumpAndSettle(timeout time.Duration) error {
	var elapsed time.Duration
	for elapsed < timeout {
		if !t.needsWork() {
			return nil
		}
		t.PumpFrame()
		elapsed += t.frameDuration
	}
	if !t.needsWork() {
		return nil
	}
	return ErrSettleTimeout
}

func (t *FrameTester) needsWork() bool {
	return t.frames.HasPending() || t.timers.Pending() > 0
}
