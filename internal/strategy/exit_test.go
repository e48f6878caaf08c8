package strategy

import (
	"testing"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

func TestTrailingStop_FiresAtDrawdownFromPeak(t *testing.T) {
	ts := NewTrailingStop(0.02)
	pos := model.Position{Symbol: "AAPL", EntryPrice: 10, Qty: 1}

	path := []float64{10, 12, 11.5, 11.75}
	firedAt := -1
	for i, p := range path {
		if ts.Evaluate(pos, p).ShouldSell() {
			firedAt = i
			break
		}
	}
	if firedAt != 2 {
		t.Fatalf("fired at index %d, want 2", firedAt)
	}
	if peak, _ := ts.Peak("AAPL"); peak != 12 {
		t.Errorf("peak = %v, want 12", peak)
	}
}

func TestTrailingStop_HoldsWhileRising(t *testing.T) {
	ts := NewTrailingStop(0.02)
	pos := model.Position{Symbol: "X"}
	for _, p := range []float64{100, 101, 100.5, 102, 101} {
		if d := ts.Evaluate(pos, p); d.ShouldSell() {
			t.Fatalf("sold at %v: %s", p, d.Reason)
		}
	}
}

func TestTrailingStop_PeaksPerSymbolAndForget(t *testing.T) {
	ts := NewTrailingStop(0.02)
	ts.Evaluate(model.Position{Symbol: "A"}, 100)
	ts.Evaluate(model.Position{Symbol: "B"}, 10)

	if d := ts.Evaluate(model.Position{Symbol: "B"}, 9.9); d.ShouldSell() {
		t.Error("B sold using A's peak")
	}
	ts.Forget("A")
	if _, ok := ts.Peak("A"); ok {
		t.Error("peak survived Forget")
	}
	if d := ts.Evaluate(model.Position{Symbol: "A"}, 50); d.ShouldSell() {
		t.Error("forgotten symbol sold on first observation")
	}
}

func TestProfitLossBands(t *testing.T) {
	b := NewProfitLossBands(0, 0)
	pos := model.Position{Symbol: "X", EntryPrice: 100, Qty: 1}

	tests := []struct {
		price float64
		want  ExitAction
	}{
		{102, ExitSellProfit},
		{105, ExitSellProfit},
		{101.99, ExitHold},
		{100, ExitHold},
		{99.5, ExitHold},
		{99, ExitSellLoss},
		{90, ExitSellLoss},
	}
	for _, tc := range tests {
		if got := b.Evaluate(pos, tc.price).Action; got != tc.want {
			t.Errorf("price %v: %s, want %s", tc.price, got, tc.want)
		}
	}
}

func TestBandsAndTrailingAreIndependent(t *testing.T) {
	// +3% then -1.5% from peak: bands take profit, trailing holds.
	pos := model.Position{Symbol: "X", EntryPrice: 100, Qty: 1}
	ts := NewTrailingStop(0.02)
	b := NewProfitLossBands(0.02, 0.01)

	ts.Evaluate(pos, 103)
	if ts.Evaluate(pos, 101.5).ShouldSell() {
		t.Error("trailing sold within 2% of peak")
	}
	if b.Evaluate(pos, 103).Action != ExitSellProfit {
		t.Error("bands did not take profit at +3%")
	}
}

func TestBestExit(t *testing.T) {
	if BestExit(96, 100, 2, 2) != ExitSellNow {
		t.Error("expected SELL_NOW at exactly high - 2*atr")
	}
	if BestExit(96.01, 100, 2, 2) != ExitHold {
		t.Error("expected HOLD above stop level")
	}
}

func TestATRTrailing(t *testing.T) {
	a := NewATRTrailing(3, 2)
	pos := model.Position{Symbol: "X"}

	for _, p := range []float64{100, 101, 102} {
		if a.Evaluate(pos, p).ShouldSell() {
			t.Fatal("sold before ATR was ready")
		}
	}
	if a.Evaluate(pos, 103).ShouldSell() {
		t.Fatal("sold on a new high")
	}
	// closes 101,102,103,101.5: atr 1.1667, stop 100.67
	if a.Evaluate(pos, 101.5).ShouldSell() {
		t.Fatal("sold above ATR stop")
	}
	// closes 102,103,101.5,100: atr 1.3333, stop 100.33
	d := a.Evaluate(pos, 100)
	if d.Action != ExitSellNow {
		t.Fatalf("action = %s, want SELL_NOW", d.Action)
	}

	a.Forget("X")
	if a.Evaluate(pos, 50).ShouldSell() {
		t.Error("state survived Forget")
	}
}

func TestNewExitStrategy(t *testing.T) {
	for name, want := range map[string]string{"": "trailing", "trailing": "trailing", "bands": "bands", "atr": "atr"} {
		s, err := NewExitStrategy(name)
		if err != nil || s.Name() != want {
			t.Errorf("%q: (%v, %v)", name, s, err)
		}
	}
	if _, err := NewExitStrategy("moon"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}
