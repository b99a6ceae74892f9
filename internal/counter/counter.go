// Package counter implements the lock-free monotonic tally each Job owns
// (spec.md §4.1): a single 64-bit atomic, incremented once per completed
// runner invocation, read as unsynchronized snapshots by the Sampler.
package counter

import "sync/atomic"

// Counter is a 64-bit monotonic tally. The zero value is ready to use.
// Wraparound is not defended against: sample windows are seconds and
// rates stay far below 2^63/sec (spec.md §3).
type Counter struct {
	n atomic.Uint64
}

// Inc increments the tally by one, with relaxed/monotonic ordering.
func (c *Counter) Inc() {
	c.n.Add(1)
}

// Load returns the current value. Unsynchronized with respect to writers;
// callers (the Sampler) tolerate skew because they difference over
// intervals orders of magnitude longer than any single increment.
func (c *Counter) Load() uint64 {
	return c.n.Load()
}

// Handle is a shareable read-only view over a Counter, returned by
// Job.Counter so callers cannot increment another Job's tally.
type Handle struct {
	c *Counter
}

// Load returns the current value of the underlying Counter.
func (h Handle) Load() uint64 {
	if h.c == nil {
		return 0
	}
	return h.c.Load()
}

// HandleOf returns a read-only Handle over c.
func HandleOf(c *Counter) Handle {
	return Handle{c: c}
}
