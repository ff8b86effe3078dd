package animation_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/zoetrope/pkg/animation"
	zoetest "github.com/go-drift/zoetrope/pkg/testing"
)

type recorder struct {
	events []string
	ticks  []float64
}

func (r *recorder) options(d time.Duration) animation.Options {
	return animation.Options{
		Duration:   d,
		Easing:     animation.LinearCurve,
		OnStart:    func(float64) { r.events = append(r.events, "start") },
		OnTick:     func(p float64) { r.ticks = append(r.ticks, p) },
		OnComplete: func(float64) { r.events = append(r.events, "complete") },
	}
}

func TestClockDefaults(t *testing.T) {
	c := animation.NewClock(animation.Options{})
	if c.Duration() != time.Second {
		t.Errorf("Duration() = %v, want 1s", c.Duration())
	}
	if c.Status() != animation.StatusIdle {
		t.Errorf("Status() = %v, want idle", c.Status())
	}
	if got := c.Snapshot().Handlers; len(got) != 0 {
		t.Errorf("expected no handlers, got %v", got)
	}
}

func TestClockOptionHandlersRegistered(t *testing.T) {
	noop := func(float64) {}
	c := animation.NewClock(animation.Options{OnStart: noop, OnTick: noop, OnComplete: noop})
	c.On(animation.EventTick, noop)

	want := map[animation.Event]int{
		animation.EventStart:    1,
		animation.EventTick:     2,
		animation.EventComplete: 1,
	}
	if diff := cmp.Diff(want, c.Snapshot().Handlers); diff != "" {
		t.Errorf("handler counts mismatch (-want +got):\n%s", diff)
	}
}

func TestClockFluentSetters(t *testing.T) {
	c := animation.NewClock(animation.Options{}).
		SetDuration(9999 * time.Millisecond).
		SetEasing(animation.EaseInCubic).
		SetDuration(0)
	if c.Duration() != 9999*time.Millisecond {
		t.Errorf("Duration() = %v, want 9.999s", c.Duration())
	}
}

func TestClockPlayRunsToCompletion(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	var r recorder
	c := tester.NewClock(r.options(100 * time.Millisecond))

	c.Play()
	if c.Status() != animation.StatusRunning {
		t.Fatalf("Status() = %v, want running", c.Status())
	}
	tester.PumpFor(200 * time.Millisecond)

	if diff := cmp.Diff([]string{"start", "complete"}, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	// Frames at 16, 32, ..., 96 then 112 which clamps to 1 and completes.
	want := []float64{0.16, 0.32, 0.48, 0.64, 0.8, 0.96, 1}
	if diff := cmp.Diff(want, r.ticks, approx()); diff != "" {
		t.Errorf("ticks mismatch (-want +got):\n%s", diff)
	}
	for _, p := range r.ticks {
		if p < 0 || p > 1 {
			t.Errorf("tick %v outside [0,1]", p)
		}
	}
	if c.Status() != animation.StatusIdle {
		t.Errorf("Status() = %v, want idle", c.Status())
	}
	if tester.Frames().HasPending() {
		t.Error("expected no pending frames after completion")
	}
}

func TestClockBoundaryFrameRegistersOnceMore(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	tester.SetFrameDuration(25 * time.Millisecond)
	var r recorder
	c := tester.NewClock(r.options(100 * time.Millisecond))

	c.Play()
	tester.PumpFor(100 * time.Millisecond)
	if len(r.events) != 1 {
		t.Fatalf("complete fired on the elapsed == duration frame: %v", r.events)
	}
	tester.PumpFrame()

	want := []float64{0.25, 0.5, 0.75, 1, 1}
	if diff := cmp.Diff(want, r.ticks, approx()); diff != "" {
		t.Errorf("ticks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"start", "complete"}, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestClockPlayIsIdempotent(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	var r recorder
	c := tester.NewClock(r.options(50 * time.Millisecond))

	c.Play()
	c.Play()
	tester.PumpFrame()
	c.Play(true)

	if err := tester.PumpAndSettle(time.Second); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"start", "complete"}, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if c.IsReversed() {
		t.Error("second Play(true) should not have changed direction")
	}
}

func TestClockReverse(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	var r recorder
	c := tester.NewClock(r.options(100 * time.Millisecond))

	c.Reverse()
	if err := tester.PumpAndSettle(time.Second); err != nil {
		t.Fatal(err)
	}

	if len(r.ticks) < 2 {
		t.Fatalf("expected several ticks, got %v", r.ticks)
	}
	if r.ticks[0] < 0.8 {
		t.Errorf("first reversed tick = %v, want near 1", r.ticks[0])
	}
	for i := 1; i < len(r.ticks); i++ {
		if r.ticks[i] >= r.ticks[i-1] {
			t.Errorf("ticks not strictly decreasing at %d: %v", i, r.ticks)
			break
		}
	}
	if last := r.ticks[len(r.ticks)-1]; last != 0 {
		t.Errorf("last reversed tick = %v, want 0", last)
	}
}

func TestClockPauseResumeExcludesPausedTime(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	tester.SetFrameDuration(10 * time.Millisecond)
	var r recorder
	completedAt := time.Duration(-1)
	start := tester.Clock().Now()
	c := tester.NewClock(r.options(100 * time.Millisecond))
	c.On(animation.EventComplete, func(float64) {
		completedAt = tester.Clock().Now().Sub(start)
	})

	c.Play()
	tester.PumpFor(50 * time.Millisecond)
	c.Pause()
	if c.Status() != animation.StatusPaused {
		t.Fatalf("Status() = %v, want paused", c.Status())
	}
	ticks := len(r.ticks)

	tester.PumpFor(100 * time.Millisecond)
	if len(r.ticks) != ticks {
		t.Errorf("ticks dispatched while paused: %v", r.ticks[ticks:])
	}
	if tester.Frames().Pending() != 1 {
		t.Errorf("paused clock should keep one frame registered, got %d", tester.Frames().Pending())
	}

	c.Resume()
	if c.Status() != animation.StatusRunning {
		t.Fatalf("Status() = %v, want running", c.Status())
	}
	if got := r.ticks[len(r.ticks)-1]; got < 0.49 || got > 0.51 {
		t.Errorf("progress before resume = %v, want 0.5", got)
	}
	if err := tester.PumpAndSettle(time.Second); err != nil {
		t.Fatal(err)
	}

	// 100ms active plus 100ms paused plus the boundary frame.
	if completedAt != 210*time.Millisecond {
		t.Errorf("complete at %v, want 210ms", completedAt)
	}
}

func TestClockIdleMisuseIsNoop(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	var r recorder
	c := tester.NewClock(r.options(50 * time.Millisecond))

	c.Pause().Resume().Stop()
	if c.Status() != animation.StatusIdle {
		t.Errorf("Status() = %v, want idle", c.Status())
	}

	c.Play()
	c.Resume()
	c.Pause()
	c.Pause()
	tester.PumpFor(30 * time.Millisecond)
	c.Resume()
	if err := tester.PumpAndSettle(time.Second); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"start", "complete"}, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestClockStop(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	var r recorder
	c := tester.NewClock(r.options(100 * time.Millisecond))

	c.Play()
	tester.PumpFor(32 * time.Millisecond)
	c.Stop()

	if c.Status() != animation.StatusIdle {
		t.Errorf("Status() = %v, want idle", c.Status())
	}
	if tester.Frames().HasPending() {
		t.Error("Stop should cancel the pending frame")
	}
	ticks := len(r.ticks)
	tester.PumpFor(200 * time.Millisecond)
	if len(r.ticks) != ticks {
		t.Error("ticks after Stop")
	}
	if diff := cmp.Diff([]string{"start"}, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}

	c.Play()
	if err := tester.PumpAndSettle(time.Second); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"start", "start", "complete"}, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if r.ticks[ticks] > 0.2 {
		t.Errorf("replay should start from scratch, first tick %v", r.ticks[ticks])
	}
}

func TestClockStopFromTickHandler(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	var r recorder
	c := tester.NewClock(r.options(100 * time.Millisecond))
	c.On(animation.EventTick, func(p float64) {
		if p > 0.3 {
			c.Stop()
		}
	})

	c.Play()
	if err := tester.PumpAndSettle(time.Second); err != nil {
		t.Fatal(err)
	}
	if len(r.ticks) != 2 {
		t.Errorf("expected ticking to stop after 0.32, got %v", r.ticks)
	}
	if diff := cmp.Diff([]string{"start"}, r.events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
}

func TestClockHandlersCalledInRegistrationOrder(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	var order []string
	c := tester.NewClock(animation.Options{Duration: 10 * time.Millisecond})
	c.On(animation.EventComplete, func(float64) { order = append(order, "first") }).
		On(animation.EventComplete, func(float64) { order = append(order, "second") })

	c.Play()
	if err := tester.PumpAndSettle(time.Second); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"first", "second"}, order); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestClockLoopAlternatesDirection(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	tester.SetFrameDuration(10 * time.Millisecond)
	var directions []bool
	var c *animation.Clock
	c = tester.NewClock(animation.Options{
		Duration:   50 * time.Millisecond,
		OnComplete: func(float64) { directions = append(directions, c.IsReversed()) },
	})

	c.Loop(20 * time.Millisecond)
	tester.PumpFor(time.Second)

	if len(directions) < 4 {
		t.Fatalf("expected at least 4 runs, got %v", directions)
	}
	want := []bool{false, true, false, true}
	if diff := cmp.Diff(want, directions[:4]); diff != "" {
		t.Errorf("directions mismatch (-want +got):\n%s", diff)
	}

	c.Stop()
	n := len(directions)
	tester.PumpFor(time.Second)
	if len(directions) != n {
		t.Error("loop continued after Stop")
	}
	if tester.Timers().Pending() != 0 {
		t.Errorf("Stop should cancel the loop timer, %d pending", tester.Timers().Pending())
	}
}

func TestClockLoopWaitsDelay(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	tester.SetFrameDuration(10 * time.Millisecond)
	starts := 0
	c := tester.NewClock(animation.Options{
		Duration: 50 * time.Millisecond,
		OnStart:  func(float64) { starts++ },
	})

	c.Loop(100 * time.Millisecond)
	// Completes at 60ms; the next run may not start before 160ms.
	tester.PumpFor(150 * time.Millisecond)
	if starts != 1 {
		t.Errorf("starts = %d before delay elapsed, want 1", starts)
	}
	tester.PumpFor(20 * time.Millisecond)
	if starts != 2 {
		t.Errorf("starts = %d after delay elapsed, want 2", starts)
	}
}

func TestClockDebugLogsSnapshot(t *testing.T) {
	tester := zoetest.NewFrameTesterWithT(t)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := tester.NewClock(animation.Options{Duration: 100 * time.Millisecond, Logger: logger})

	c.Debug(false)
	if buf.Len() != 0 {
		t.Errorf("Debug(false) logged %q", buf.String())
	}
	c.Play().Debug()
	if !strings.Contains(buf.String(), "state.status=running") {
		t.Errorf("Debug() output %q missing running status", buf.String())
	}
}

func TestStatusString(t *testing.T) {
	tests := []struct {
		status animation.Status
		want   string
	}{
		{animation.StatusIdle, "idle"},
		{animation.StatusRunning, "running"},
		{animation.StatusPaused, "paused"},
		{animation.Status(7), "Status(7)"},
	}
	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

func approx() cmp.Option {
	return cmp.Comparer(func(a, b float64) bool {
		d := a - b
		return d < 1e-9 && d > -1e-9
	})
}
