package testutil

import "sync"

// Sequence is a monotonic counter that numbers the entries of a scenario
// trace. The first call to Next returns 1.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type Sequence struct {
	mu  sync.Mutex
	seq int64
}

// NewSequence creates a counter at 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next increments and returns the next number.
func (s *Sequence) Next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.seq
}

// Current returns the last number handed out without incrementing.
func (s *Sequence) Current() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset moves the counter back to 0 so that a scenario can be rerun with
// identical numbering.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
