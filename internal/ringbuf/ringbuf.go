// Package ringbuf provides a bounded, append-only series of finite float64
// observations. When full, the oldest value is evicted to make room.
//
// Series is a plain numeric buffer: it does not deduplicate repeated values
// and it is not safe for concurrent use. Owners serialise access.
package ringbuf

import "math"

// Series is a fixed-capacity ring of float64 values, oldest evicted first.
type Series struct {
	buf   []float64
	head  int // index of the oldest element
	count int

	// evicted counts values dropped due to capacity
	evicted uint64
}

// New creates a series holding at most capacity values. Minimum capacity is 1.
func New(capacity int) *Series {
	if capacity < 1 {
		capacity = 1
	}
	return &Series{buf: make([]float64, capacity)}
}

// Push appends v. Non-finite values are rejected and Push returns false.
func (s *Series) Push(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if s.count < len(s.buf) {
		s.buf[(s.head+s.count)%len(s.buf)] = v
		s.count++
		return true
	}
	// Full: overwrite the oldest slot and advance head.
	s.buf[s.head] = v
	s.head = (s.head + 1) % len(s.buf)
	s.evicted++
	return true
}

// Values returns a copy of the contents, oldest to newest.
func (s *Series) Values() []float64 {
	out := make([]float64, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Last returns the newest value.
func (s *Series) Last() (float64, bool) {
	if s.count == 0 {
		return 0, false
	}
	return s.buf[(s.head+s.count-1)%len(s.buf)], true
}

// Len returns the number of stored values.
func (s *Series) Len() int {
	return s.count
}

// Cap returns the series capacity.
func (s *Series) Cap() int {
	return len(s.buf)
}

// Evicted returns the total number of values dropped due to capacity.
func (s *Series) Evicted() uint64 {
	return s.evicted
}

// Reset empties the series without releasing its storage.
func (s *Series) Reset() {
	s.head = 0
	s.count = 0
	for i := range s.buf {
		s.buf[i] = 0
	}
}
