// Package animation provides a frame-driven animation clock.
//
// # Core Components
//
//   - [Clock]: advances a progress value from 0 to 1 over a fixed duration,
//     applies an easing [Curve] and emits start, tick and complete events.
//
//   - [FrameScheduler]: the default [FrameSource]. It holds one-shot frame
//     registrations and runs them when the host calls [FrameScheduler.Step]
//     once per display frame.
//
//   - Curves: easing functions such as [EaseOutQuart] (the default),
//     [LinearCurve] and [CubicBezier].
//
// # Basic Usage
//
//	clock := animation.NewClock(animation.Options{
//	    Duration: 300 * time.Millisecond,
//	    OnTick: func(p float64) {
//	        fmt.Printf("progress %.2f\n", p)
//	    },
//	})
//	clock.Play()
//
//	// In the host frame loop
//	animation.StepFrames()
//
// All callbacks run inside StepFrames on the goroutine that calls it.
package animation

import (
	"sync"
	"time"

	"github.com/go-drift/zoetrope/pkg/errors"
)

var defaultFrames = NewFrameScheduler()

// DefaultFrames returns the package frame scheduler used by clocks that
// are not given their own FrameSource.
func DefaultFrames() *FrameScheduler { return defaultFrames }

// StepFrames advances the default scheduler by one frame at Now().
// This should be called once per frame from the host loop.
func StepFrames() {
	defaultFrames.Step(Now())
}

// HasPendingFrames returns true if the default scheduler has work queued.
func HasPendingFrames() bool {
	return defaultFrames.HasPending()
}

type frameRequest struct {
	token FrameToken
	fn    func(time.Time)
}

// FrameScheduler is a FrameSource driven by explicit Step calls.
//
// Schedule, Cancel and Dispatch may be called from any goroutine.
// Registered callbacks and dispatched functions only ever run inside Step.
type FrameScheduler struct {
	mu         sync.Mutex
	next       FrameToken
	pending    []frameRequest
	inflight   []frameRequest
	dispatches []func()
}

// NewFrameScheduler creates an empty scheduler.
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{}
}

// Schedule registers f to run once on the next Step.
func (s *FrameScheduler) Schedule(f func(time.Time)) FrameToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.pending = append(s.pending, frameRequest{token: s.next, fn: f})
	return s.next
}

// Cancel removes a pending registration.
func (s *FrameScheduler) Cancel(token FrameToken) {
	if token == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, req := range s.pending {
		if req.token == token {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return
		}
	}
	for i, req := range s.inflight {
		if req.token == token {
			s.inflight[i].fn = nil
			return
		}
	}
}

// Dispatch queues fn to run at the start of the next Step, before frame
// callbacks.
func (s *FrameScheduler) Dispatch(fn func()) {
	s.mu.Lock()
	s.dispatches = append(s.dispatches, fn)
	s.mu.Unlock()
}

// Step runs queued dispatches and then every frame callback that was
// registered before Step was called, in registration order. Callbacks
// registered during Step run on the following Step. A panicking callback
// is reported to the error handler and does not stop the others.
func (s *FrameScheduler) Step(now time.Time) {
	s.mu.Lock()
	dispatches := s.dispatches
	s.dispatches = nil
	s.mu.Unlock()

	for _, fn := range dispatches {
		runDispatch(fn)
	}

	// The lock is not held during callbacks. A request cancelled by an
	// earlier callback in the same frame has its fn cleared and is skipped.
	s.mu.Lock()
	s.inflight = s.pending
	s.pending = nil
	n := len(s.inflight)
	s.mu.Unlock()

	for i := range n {
		s.mu.Lock()
		fn := s.inflight[i].fn
		s.mu.Unlock()
		if fn != nil {
			runFrame(fn, now)
		}
	}

	s.mu.Lock()
	s.inflight = nil
	s.mu.Unlock()
}

// HasPending returns true if any frame callbacks or dispatches are queued.
func (s *FrameScheduler) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) > 0 || len(s.dispatches) > 0
}

// Pending returns the number of frame registrations waiting for Step.
func (s *FrameScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func runDispatch(fn func()) {
	defer errors.Recover("animation.FrameScheduler.Dispatch")
	fn()
}

func runFrame(fn func(time.Time), now time.Time) {
	defer errors.Recover("animation.FrameScheduler.Step")
	fn(now)
}
