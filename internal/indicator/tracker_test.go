package indicator

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

func sample(sym string, p float64) model.PriceSample {
	return model.PriceSample{Symbol: sym, Price: p, TS: time.Unix(0, 0).UTC()}
}

func TestTracker_RSIAppearsAfterPeriod(t *testing.T) {
	tr := NewTracker(TrackerConfig{RSIPeriod: 5})
	prices := []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83}

	var snap Snapshot
	for i, p := range prices {
		var ok bool
		snap, ok = tr.Process(sample("BTCUSD", p))
		if !ok {
			t.Fatalf("sample %d rejected", i)
		}
		if i < 5 && snap.RSI != nil {
			t.Fatalf("sample %d: RSI defined too early", i)
		}
	}
	if snap.RSI == nil {
		t.Fatal("expected RSI after period+1 samples")
	}
	assertClose(t, "tracker RSI", *snap.RSI, 68.12, 0.001)
	if snap.Samples != 6 || len(snap.RSITrail) != 1 {
		t.Errorf("samples=%d trail=%v", snap.Samples, snap.RSITrail)
	}
}

func TestTracker_HistoryCapEvicts(t *testing.T) {
	tr := NewTracker(TrackerConfig{RSIPeriod: 3, HistoryCap: 5, MomentumWindow: 3})
	for i := 0; i < 12; i++ {
		tr.Process(sample("X", float64(100+i)))
	}
	closes := tr.Closes("X")
	want := []float64{107, 108, 109, 110, 111}
	if len(closes) != len(want) {
		t.Fatalf("closes = %v, want %v", closes, want)
	}
	for i := range want {
		if closes[i] != want[i] {
			t.Fatalf("closes = %v, want %v", closes, want)
		}
	}
}

func TestTracker_RejectsNonFinite(t *testing.T) {
	tr := NewTracker(TrackerConfig{})
	tr.Process(sample("X", 10))
	if _, ok := tr.Process(sample("X", math.NaN())); ok {
		t.Error("NaN sample accepted")
	}
	if got := len(tr.Closes("X")); got != 1 {
		t.Errorf("closes len = %d, want 1", got)
	}
}

func TestTracker_SymbolsIsolated(t *testing.T) {
	tr := NewTracker(TrackerConfig{MomentumWindow: 3})
	for _, p := range []float64{100, 101, 102} {
		tr.Process(sample("UP", p))
	}
	for _, p := range []float64{100, 99, 98} {
		tr.Process(sample("DOWN", p))
	}

	up, _ := tr.Latest("UP")
	down, _ := tr.Latest("DOWN")
	if up.Momentum.Label != StrongBull || down.Momentum.Label != StrongBear {
		t.Errorf("up=%s down=%s", up.Momentum.Label, down.Momentum.Label)
	}

	tr.Reset("UP")
	if _, ok := tr.Latest("UP"); ok {
		t.Error("expected no snapshot after reset")
	}
}

func TestTracker_IncrementalMode(t *testing.T) {
	batch := NewTracker(TrackerConfig{RSIPeriod: 5})
	inc := NewTracker(TrackerConfig{RSIPeriod: 5, Incremental: true})
	for _, p := range []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84} {
		a, _ := batch.Process(sample("X", p))
		b, _ := inc.Process(sample("X", p))
		if (a.RSI == nil) != (b.RSI == nil) {
			t.Fatalf("price %v: readiness differs", p)
		}
		if a.RSI != nil && *a.RSI != *b.RSI {
			t.Errorf("price %v: batch %v, incremental %v", p, *a.RSI, *b.RSI)
		}
	}
}

func TestTracker_Run(t *testing.T) {
	tr := NewTracker(TrackerConfig{})
	in := make(chan model.PriceSample, 4)
	out := make(chan Snapshot, 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		tr.Run(ctx, in, out)
		close(done)
	}()

	in <- sample("X", 1)
	in <- sample("X", 2)

	for i := 0; i < 2; i++ {
		select {
		case s := <-out:
			if s.Samples != i+1 {
				t.Errorf("snapshot %d: samples=%d", i, s.Samples)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for snapshot")
		}
	}

	close(in)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after input closed")
	}
}
