package engine

import (
	"sync/atomic"
	"time"
)

const (
	frameTraceSamplesDefault   = 240
	defaultFrameTraceThreshold = 16667 * time.Microsecond
)

// FrameSample describes one step of the loop.
type FrameSample struct {
	// Frame is the 1-based frame number since the loop started.
	Frame uint64 `json:"frame"`
	// Timestamp is the wall-clock start of the frame in Unix microseconds.
	Timestamp int64 `json:"ts"`
	// FrameMs is the time spent stepping the scheduler.
	FrameMs float64 `json:"frameMs"`
	// Callbacks is the number of frame registrations run by this step.
	Callbacks int `json:"callbacks"`
	// Late reports that the frame started after the next tick was due.
	Late bool `json:"late,omitempty"`
}

// FrameTimeline is the /frames response body.
type FrameTimeline struct {
	Samples       []FrameSample `json:"samples"`
	DroppedFrames int           `json:"droppedFrames"`
	ThresholdMs   float64       `json:"thresholdMs"`
}

// FrameTraceBuffer keeps the most recent frame samples and counts every
// frame whose work exceeded the threshold, including frames that have
// since been overwritten.
type FrameTraceBuffer struct {
	samples   *ring[FrameSample]
	dropped   atomic.Int64
	threshold time.Duration
}

// NewFrameTraceBuffer creates a buffer of capacity samples. Non-positive
// arguments select the defaults (240 samples, one 60Hz frame).
func NewFrameTraceBuffer(capacity int, threshold time.Duration) *FrameTraceBuffer {
	if capacity <= 0 {
		capacity = frameTraceSamplesDefault
	}
	if threshold <= 0 {
		threshold = defaultFrameTraceThreshold
	}
	return &FrameTraceBuffer{
		samples:   newRing[FrameSample](capacity),
		threshold: threshold,
	}
}

// Capacity returns the number of samples kept.
func (b *FrameTraceBuffer) Capacity() int { return b.samples.cap() }

// Threshold returns the work duration above which a frame is dropped.
func (b *FrameTraceBuffer) Threshold() time.Duration { return b.threshold }

// Add records sample; work is the time the frame took.
func (b *FrameTraceBuffer) Add(sample FrameSample, work time.Duration) {
	b.samples.push(sample)
	if work > b.threshold {
		b.dropped.Add(1)
	}
}

// Count returns the number of samples held.
func (b *FrameTraceBuffer) Count() int { return b.samples.len() }

// Snapshot returns the held samples, oldest first, with the dropped count.
func (b *FrameTraceBuffer) Snapshot() FrameTimeline {
	return FrameTimeline{
		Samples:       b.samples.values(),
		DroppedFrames: int(b.dropped.Load()),
		ThresholdMs:   durationToMillis(b.threshold),
	}
}
