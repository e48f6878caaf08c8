package gateway

import (
	"strconv"
	"testing"
)

func TestReplayBuffer_Since(t *testing.T) {
	rb := NewReplayBuffer(100)
	for i := int64(1); i <= 10; i++ {
		rb.Push(i, []byte(strconv.FormatInt(i, 10)))
	}

	got := rb.Since(7)
	if len(got) != 3 || string(got[0]) != "8" || string(got[2]) != "10" {
		t.Errorf("Since(7) = %q", got)
	}
	if len(rb.Since(0)) != 10 {
		t.Errorf("Since(0) len = %d", len(rb.Since(0)))
	}
}

func TestReplayBuffer_Wraparound(t *testing.T) {
	rb := NewReplayBuffer(5)
	for i := int64(1); i <= 8; i++ {
		rb.Push(i, []byte(strconv.FormatInt(i, 10)))
	}
	if rb.Len() != 5 {
		t.Fatalf("len = %d", rb.Len())
	}
	got := rb.Since(0)
	if len(got) != 5 || string(got[0]) != "4" || string(got[4]) != "8" {
		t.Errorf("Since(0) = %q, want 4..8", got)
	}
}
