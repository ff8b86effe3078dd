package testing

import (
	"sort"
	"sync"
	"time"

	"github.com/go-drift/zoetrope/pkg/animation"
)

// FakeClock provides controllable time for deterministic animation tests.
// All methods are safe for concurrent use.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a FakeClock starting at a fixed epoch.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set sets the clock to an exact time.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// FakeTimers is an animation.Timers whose timers fire against a FakeClock.
// Due callbacks are posted to a frame scheduler's dispatch queue by Fire.
type FakeTimers struct {
	mu     sync.Mutex
	clock  *FakeClock
	frames *animation.FrameScheduler
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	owner    *FakeTimers
	seq      int
	deadline time.Time
	fn       func()
	stopped  bool
}

// NewFakeTimers returns timers reading clock and dispatching onto frames.
func NewFakeTimers(clock *FakeClock, frames *animation.FrameScheduler) *FakeTimers {
	return &FakeTimers{clock: clock, frames: frames}
}

// AfterFunc schedules f to be dispatched once the clock reaches now+d.
func (ft *FakeTimers) AfterFunc(d time.Duration, f func()) animation.Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	ft.seq++
	t := &fakeTimer{owner: ft, seq: ft.seq, deadline: ft.clock.Now().Add(d), fn: f}
	ft.timers = append(ft.timers, t)
	return t
}

// Stop prevents the timer from firing. It reports whether the call
// stopped a pending timer.
func (t *fakeTimer) Stop() bool {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	for i, p := range t.owner.timers {
		if p == t {
			t.owner.timers = append(t.owner.timers[:i], t.owner.timers[i+1:]...)
			return true
		}
	}
	return false
}

// Fire dispatches every timer whose deadline has passed, earliest first.
// It returns the number of timers fired.
func (ft *FakeTimers) Fire() int {
	now := ft.clock.Now()
	ft.mu.Lock()
	var due, rest []*fakeTimer
	for _, t := range ft.timers {
		if !t.deadline.After(now) {
			t.stopped = true
			due = append(due, t)
		} else {
			rest = append(rest, t)
		}
	}
	ft.timers = rest
	ft.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		if due[i].deadline.Equal(due[j].deadline) {
			return due[i].seq < due[j].seq
		}
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, t := range due {
		ft.frames.Dispatch(t.fn)
	}
	return len(due)
}

// Pending returns the number of timers that have not fired or stopped.
func (ft *FakeTimers) Pending() int {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return len(ft.timers)
}
