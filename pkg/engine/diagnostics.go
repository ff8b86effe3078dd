package engine

import (
	"strconv"
	"time"
)

// DiagnosticsConfig controls what the frame loop records and exposes.
type DiagnosticsConfig struct {
	// TraceSamples is the number of recent frames kept by the trace buffer.
	// Defaults to 240 if zero.
	TraceSamples int
	// DroppedFrameThreshold is the frame work duration above which a frame
	// counts as dropped. Defaults to 16.67ms (60fps) if zero.
	DroppedFrameThreshold time.Duration
	// RuntimeSampleInterval controls how often memory/GC stats are sampled.
	// 0 disables runtime sampling.
	RuntimeSampleInterval time.Duration
	// RuntimeSampleWindow is the history kept for runtime samples.
	// Defaults to 60s if zero.
	RuntimeSampleWindow time.Duration
	// DebugServerPort enables an HTTP debug server on the specified port.
	// 0 = disabled, >0 = port number (e.g., 9999).
	// The server exposes /health, /frames, /runtime and /clocks endpoints.
	DebugServerPort int
}

// DefaultDiagnosticsConfig returns a DiagnosticsConfig with sensible defaults.
func DefaultDiagnosticsConfig() *DiagnosticsConfig {
	return &DiagnosticsConfig{
		TraceSamples:          frameTraceSamplesDefault,
		DroppedFrameThreshold: defaultFrameTraceThreshold,
	}
}

// FrameStats summarizes a run of frame samples.
type FrameStats struct {
	Frames  int     `json:"frames"`
	Dropped int     `json:"dropped"`
	AvgMs   float64 `json:"avgMs"`
	MaxMs   float64 `json:"maxMs"`
	// FPS is the observed frame rate from sample timestamps.
	FPS float64 `json:"fps"`
}

// Stats computes FrameStats from a trace snapshot.
func Stats(tl FrameTimeline) FrameStats {
	stats := FrameStats{
		Frames:  len(tl.Samples),
		Dropped: tl.DroppedFrames,
	}
	if stats.Frames == 0 {
		return stats
	}
	var total float64
	for _, s := range tl.Samples {
		total += s.FrameMs
		stats.MaxMs = max(stats.MaxMs, s.FrameMs)
	}
	stats.AvgMs = total / float64(stats.Frames)

	if stats.Frames > 1 {
		first := tl.Samples[0].Timestamp
		last := tl.Samples[len(tl.Samples)-1].Timestamp
		if span := time.Duration(last-first) * time.Microsecond; span > 0 {
			stats.FPS = float64(stats.Frames-1) / span.Seconds()
		}
	}
	return stats
}

// FPSLabel formats an FPS value for display.
func FPSLabel(fps float64) string {
	if fps <= 0 {
		return "FPS: --"
	}
	return "FPS: " + strconv.Itoa(int(fps+0.5))
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
