package stream

import "sync/atomic"

// IDCounter hands out interaction ids.
//
// Ids are process-wide for a run and strictly increasing across events.
//
// Thread-safety: IDCounter is safe for concurrent use (atomic operations).
type IDCounter struct {
	last atomic.Int64
}

// NewIDCounter creates a counter whose first id is 1.
func NewIDCounter() *IDCounter {
	return &IDCounter{}
}

// NewIDCounterAt creates a counter that resumes after last.
// Used when continuing a persisted run.
func NewIDCounterAt(last int64) *IDCounter {
	c := &IDCounter{}
	c.last.Store(last)
	return c
}

// Next returns the next interaction id.
func (c *IDCounter) Next() int64 {
	return c.last.Add(1)
}

// Current returns the last id handed out without advancing.
func (c *IDCounter) Current() int64 {
	return c.last.Load()
}

// AdvanceTo moves the counter forward so that the next id is greater than
// floor. It never moves the counter back.
func (c *IDCounter) AdvanceTo(floor int64) {
	for {
		cur := c.last.Load()
		if cur >= floor {
			return
		}
		if c.last.CompareAndSwap(cur, floor) {
			return
		}
	}
}
