package gateway

import "sync"

type replayEntry struct {
	Seq  int64
	Data []byte // encoded envelope
}

// ReplayBuffer keeps the most recent envelopes so a reconnecting client
// can catch up on events it missed.
type ReplayBuffer struct {
	mu   sync.RWMutex
	buf  []replayEntry
	cap  int
	pos  int
	full bool
}

// NewReplayBuffer creates a buffer. capacity <= 0 means 200.
func NewReplayBuffer(capacity int) *ReplayBuffer {
	if capacity <= 0 {
		capacity = 200
	}
	return &ReplayBuffer{buf: make([]replayEntry, capacity), cap: capacity}
}

// Push stores an envelope, overwriting the oldest when full.
func (rb *ReplayBuffer) Push(seq int64, data []byte) {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.buf[rb.pos] = replayEntry{Seq: seq, Data: data}
	rb.pos = (rb.pos + 1) % rb.cap
	if rb.pos == 0 {
		rb.full = true
	}
}

// Since returns the envelopes with seq > after, oldest first.
func (rb *ReplayBuffer) Since(after int64) [][]byte {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	n := rb.pos
	start := 0
	if rb.full {
		n = rb.cap
		start = rb.pos
	}
	var out [][]byte
	for i := 0; i < n; i++ {
		e := rb.buf[(start+i)%rb.cap]
		if e.Seq > after {
			out = append(out, e.Data)
		}
	}
	return out
}

// Len returns the number of buffered envelopes.
func (rb *ReplayBuffer) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	if rb.full {
		return rb.cap
	}
	return rb.pos
}
