package animation

import "time"

// TimeSource provides time for clocks. The default implementation uses
// system time. Tests can inject a fake source via SetTimeSource to control
// animation timing deterministically.
type TimeSource interface {
	Now() time.Time
}

// realTimeSource uses system time.
type realTimeSource struct{}

func (realTimeSource) Now() time.Time { return time.Now() }

// timeSource is the package-level time source, replaceable for testing.
var timeSource TimeSource = realTimeSource{}

// SetTimeSource replaces the package time source. Returns the previous
// source so callers can restore it during cleanup.
func SetTimeSource(s TimeSource) TimeSource {
	prev := timeSource
	timeSource = s
	return prev
}

// Now returns the current time from the active time source.
func Now() time.Time { return timeSource.Now() }

// FrameToken identifies a pending frame registration. The zero token
// never identifies a registration.
type FrameToken uint64

// FrameSource arranges for callbacks to run once at the next display frame.
type FrameSource interface {
	// Schedule registers f to be called once with the frame timestamp.
	Schedule(f func(time.Time)) FrameToken
	// Cancel drops a pending registration. Unknown tokens are ignored.
	Cancel(token FrameToken)
}

// Timer is a pending delayed call that can be stopped.
type Timer interface {
	Stop() bool
}

// Timers schedules delayed calls. Clock.Loop uses it to wait between runs.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// SchedulerTimers is the default Timers implementation. It waits on a
// system timer and then posts the callback to the scheduler's dispatch
// queue, so the callback runs on the goroutine that steps frames.
type SchedulerTimers struct {
	Frames *FrameScheduler
}

// AfterFunc calls f on the next frame step after d has elapsed.
func (t SchedulerTimers) AfterFunc(d time.Duration, f func()) Timer {
	frames := t.Frames
	if frames == nil {
		frames = DefaultFrames()
	}
	return time.AfterFunc(d, func() {
		frames.Dispatch(f)
	})
}
