package engine

import (
	"context"
	"runtime"
	"time"
)

const (
	runtimeSampleIntervalDefault = 5 * time.Second
	runtimeSampleWindowDefault   = 60 * time.Second
	runtimeSampleMinInterval     = 100 * time.Millisecond
	runtimeSampleMaxSamples      = 120
)

// RuntimeSample is one reading of process and scheduler load.
type RuntimeSample struct {
	Timestamp    int64  `json:"ts"`
	HeapAlloc    uint64 `json:"heapAlloc"`
	HeapInuse    uint64 `json:"heapInuse"`
	NumGC        uint32 `json:"numGC"`
	PauseTotalNs uint64 `json:"pauseTotalNs"`
	Goroutines   int    `json:"goroutines"`
	// PendingFrames is the number of frame registrations waiting for the
	// next step when the sample was taken.
	PendingFrames int `json:"pendingFrames"`
}

// RuntimeSampleBuffer keeps runtime samples covering a time window.
type RuntimeSampleBuffer struct {
	samples  *ring[RuntimeSample]
	interval time.Duration
}

// NewRuntimeSampleBuffer sizes a buffer to hold window worth of samples
// taken every interval, capped at 120 samples. The interval is at least
// 100ms and defaults to 5s; the window defaults to one minute.
func NewRuntimeSampleBuffer(window, interval time.Duration) *RuntimeSampleBuffer {
	if interval <= 0 {
		interval = runtimeSampleIntervalDefault
	}
	interval = max(interval, runtimeSampleMinInterval)
	if window <= 0 {
		window = runtimeSampleWindowDefault
	}
	n := min(max(int(window/interval), 1), runtimeSampleMaxSamples)
	return &RuntimeSampleBuffer{
		samples:  newRing[RuntimeSample](n),
		interval: interval,
	}
}

// Interval returns the sampling interval.
func (b *RuntimeSampleBuffer) Interval() time.Duration { return b.interval }

// Add stores a sample, evicting the oldest when full.
func (b *RuntimeSampleBuffer) Add(sample RuntimeSample) { b.samples.push(sample) }

// Snapshot returns the held samples, oldest first.
func (b *RuntimeSampleBuffer) Snapshot() []RuntimeSample { return b.samples.values() }

// Sample records one sample immediately and then one per interval until
// ctx is done. pending, if non-nil, reports the scheduler backlog and must
// be safe to call from another goroutine.
func (b *RuntimeSampleBuffer) Sample(ctx context.Context, pending func() int) {
	read := func() {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		s := RuntimeSample{
			Timestamp:    time.Now().UnixMilli(),
			HeapAlloc:    ms.HeapAlloc,
			HeapInuse:    ms.HeapInuse,
			NumGC:        ms.NumGC,
			PauseTotalNs: ms.PauseTotalNs,
			Goroutines:   runtime.NumGoroutine(),
		}
		if pending != nil {
			s.PendingFrames = pending()
		}
		b.Add(s)
	}

	read()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			read()
		}
	}
}
