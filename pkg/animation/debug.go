package animation

import (
	"context"
	"log/slog"
	"time"
)

// Snapshot is a shallow copy of a Clock's state for inspection.
type Snapshot struct {
	Status    Status
	Duration  time.Duration
	Reversed  bool
	StartedAt time.Time
	PausedAt  time.Time
	Progress  float64
	Handlers  map[Event]int
	Looping   bool
	Pending   bool
}

// Snapshot returns the current state of the clock.
func (c *Clock) Snapshot() Snapshot {
	counts := make(map[Event]int)
	for _, h := range c.handlers {
		counts[h.event]++
	}
	return Snapshot{
		Status:    c.Status(),
		Duration:  c.duration,
		Reversed:  c.reversed,
		StartedAt: c.startedAt,
		PausedAt:  c.pausedAt,
		Progress:  c.progress,
		Handlers:  counts,
		Looping:   c.looping,
		Pending:   c.token != 0,
	}
}

// LogValue implements slog.LogValuer.
func (s Snapshot) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("status", s.Status.String()),
		slog.Duration("duration", s.Duration),
		slog.Bool("reversed", s.Reversed),
		slog.Float64("progress", s.Progress),
		slog.Bool("looping", s.Looping),
		slog.Bool("pending", s.Pending),
		slog.Int("start_handlers", s.Handlers[EventStart]),
		slog.Int("tick_handlers", s.Handlers[EventTick]),
		slog.Int("complete_handlers", s.Handlers[EventComplete]),
	}
	if !s.StartedAt.IsZero() {
		attrs = append(attrs, slog.Time("started_at", s.StartedAt))
	}
	if !s.PausedAt.IsZero() {
		attrs = append(attrs, slog.Time("paused_at", s.PausedAt))
	}
	return slog.GroupValue(attrs...)
}

// Debug logs a Snapshot of the clock at debug level. Passing false
// disables the dump. It has no effect on behavior.
func (c *Clock) Debug(enabled ...bool) *Clock {
	if len(enabled) > 0 && !enabled[0] {
		return c
	}
	c.log.LogAttrs(context.Background(), slog.LevelDebug, "clock", slog.Any("state", c.Snapshot()))
	return c
}
