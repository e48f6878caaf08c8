package indicator

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol %.6f)", label, got, want, tol)
	}
}

func risingSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func TestComputeRSI_MonotonicRiseIs100(t *testing.T) {
	v, ok := ComputeRSI(risingSeries(20), 14)
	if !ok {
		t.Fatal("expected RSI to be defined")
	}
	if v != 100 {
		t.Errorf("RSI = %v, want exactly 100", v)
	}
}

func TestComputeRSI_TooShort(t *testing.T) {
	for _, period := range []int{1, 2, 5, 14, 30} {
		for n := 0; n <= period; n++ {
			if _, ok := ComputeRSI(risingSeries(n), period); ok {
				t.Errorf("period=%d len=%d: expected undefined", period, n)
			}
		}
	}
}

func TestComputeRSI_RejectsNonFinite(t *testing.T) {
	closes := risingSeries(20)
	closes[7] = math.NaN()
	if _, ok := ComputeRSI(closes, 14); ok {
		t.Error("NaN close: expected undefined")
	}
	closes[7] = math.Inf(1)
	if _, ok := ComputeRSI(closes, 14); ok {
		t.Error("+Inf close: expected undefined")
	}
}

func TestComputeRSI_Deterministic(t *testing.T) {
	closes := []float64{44, 44.25, 44.5, 43.75, 44.5, 44.75, 45, 45.1, 45.25, 45, 45.5, 45.75, 46, 46.25, 46.5, 46.1, 45.9}
	a, okA := ComputeRSI(closes, 14)
	b, okB := ComputeRSI(closes, 14)
	if okA != okB || a != b {
		t.Errorf("two calls differ: (%v,%v) vs (%v,%v)", a, okA, b, okB)
	}
}

func TestComputeRSI_KnownSeries(t *testing.T) {
	closes := []float64{44, 44.25, 44.5, 43.75, 44.5, 44.75, 45, 45.1, 45.25, 45, 45.5, 45.75, 46, 46.25, 46.5}
	v, ok := ComputeRSI(closes, 14)
	if !ok {
		t.Fatal("expected RSI to be defined")
	}
	if v < 0 || v > 100 {
		t.Fatalf("RSI %v outside [0,100]", v)
	}
	// avgGain = 2.75/14, avgLoss = 0.25/14 -> RS = 11
	if v != 77.78 {
		t.Errorf("RSI = %v, want 77.78", v)
	}
}

func TestComputeRSI_Falling(t *testing.T) {
	closes := []float64{10, 9.5, 9, 8.8, 8.5, 8.4, 8.0, 7.9, 7.5, 7.2, 7.0, 6.9, 6.5, 6.4, 6.3, 6.6}
	v, ok := ComputeRSI(closes, 14)
	if !ok {
		t.Fatal("expected RSI to be defined")
	}
	assertClose(t, "falling RSI", v, 8.03, 0.001)
	if v >= 30 {
		t.Errorf("falling series should be oversold, got %v", v)
	}
}

// Hand-computed RSI(5) over a textbook series; each value applies
// Wilder's smoothing to the previous averages.
func TestComputeRSI_WilderSmoothing(t *testing.T) {
	prices := []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}
	want := []float64{68.12, 72.22, 76.66, 81.51}

	for i, w := range want {
		v, ok := ComputeRSI(prices[:6+i], 5)
		if !ok {
			t.Fatalf("prefix %d: expected defined", 6+i)
		}
		assertClose(t, "RSI(5)", v, w, 0.001)
	}
}

func TestRSISeries_TrailingPoints(t *testing.T) {
	prices := []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}

	got := RSISeries(prices, 5, 10)
	want := []float64{68.12, 72.22, 76.66, 81.51}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		assertClose(t, "series point", got[i], want[i], 0.001)
	}

	last2 := RSISeries(prices, 5, 2)
	if len(last2) != 2 || last2[0] != got[2] || last2[1] != got[3] {
		t.Errorf("RSISeries(points=2) = %v, want tail of %v", last2, got)
	}

	if s := RSISeries(prices[:5], 5, 10); len(s) != 0 {
		t.Errorf("short input: expected empty series, got %v", s)
	}
}

func TestRSI_IncrementalMatchesBatch(t *testing.T) {
	closes := []float64{44, 44.25, 44.5, 43.75, 44.5, 44.75, 45, 45.1, 45.25, 45, 45.5, 45.75, 46, 46.25, 46.5, 46.1, 45.9, 46.3, 45.2, 44.8}
	r := NewRSI(14)
	for i, c := range closes {
		r.Update(c)
		batch, ok := ComputeRSI(closes[:i+1], 14)
		if ok != r.Ready() {
			t.Fatalf("after %d closes: Ready=%v, batch ok=%v", i+1, r.Ready(), ok)
		}
		if ok && Round2(r.Value()) != batch {
			t.Errorf("after %d closes: incremental %.2f, batch %.2f", i+1, Round2(r.Value()), batch)
		}
	}
}

func TestRSI_PeekDoesNotMutate(t *testing.T) {
	r := NewRSI(5)
	for _, p := range []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83} {
		r.Update(p)
	}
	before := r.Snapshot()
	peeked := r.Peek(45.10)
	if r.Snapshot() != before {
		t.Fatal("Peek mutated state")
	}

	r.Update(45.10)
	assertClose(t, "peek vs update", peeked, r.Value(), 1e-12)
}

func TestRSI_SnapshotRestore(t *testing.T) {
	prices := []float64{44, 44.34, 44.09, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84}

	orig := NewRSI(5)
	for _, p := range prices[:7] {
		orig.Update(p)
	}

	restored := NewRSI(14)
	restored.Restore(orig.Snapshot())

	for _, p := range prices[7:] {
		orig.Update(p)
		restored.Update(p)
	}
	if orig.Value() != restored.Value() || orig.Ready() != restored.Ready() {
		t.Errorf("restored RSI diverged: %v vs %v", restored.Value(), orig.Value())
	}
}

func TestRSI_IgnoresNonFinite(t *testing.T) {
	r := NewRSI(3)
	r.Update(10)
	r.Update(math.NaN())
	r.Update(math.Inf(-1))
	if r.Snapshot().Count != 1 {
		t.Errorf("count = %d, want 1", r.Snapshot().Count)
	}
}
