package engine

import "sync"

// ring keeps the most recent values up to a fixed capacity. It is safe
// for concurrent use.
type ring[T any] struct {
	mu   sync.RWMutex
	buf  []T
	next int
	n    int
}

func newRing[T any](capacity int) *ring[T] {
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	r.mu.Lock()
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	r.n = min(r.n+1, len(r.buf))
	r.mu.Unlock()
}

func (r *ring[T]) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.n
}

func (r *ring[T]) cap() int { return len(r.buf) }

// values returns a copy, oldest first, or nil when empty.
func (r *ring[T]) values() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.n == 0 {
		return nil
	}
	out := make([]T, 0, r.n)
	if r.n == len(r.buf) {
		out = append(out, r.buf[r.next:]...)
		return append(out, r.buf[:r.next]...)
	}
	return append(out, r.buf[:r.n]...)
}
