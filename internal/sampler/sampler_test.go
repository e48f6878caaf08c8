package sampler

import (
	"context"
	"testing"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

type fixedSymbol string

func (f fixedSymbol) CurrentSymbol(context.Context) string { return string(f) }

type scriptedPrices struct {
	prices []float64
	i      int
	during func() // runs while the fetch is "in flight"
}

func (p *scriptedPrices) CurrentPrice(_ context.Context, _ string) (float64, bool) {
	if p.during != nil {
		p.during()
	}
	if p.i >= len(p.prices) {
		return 0, false
	}
	v := p.prices[p.i]
	p.i++
	return v, true
}

func drain(ch <-chan model.PriceSample) []float64 {
	var out []float64
	for {
		select {
		case s := <-ch:
			out = append(out, s.Price)
		default:
			return out
		}
	}
}

func TestSampler_DedupsConsecutiveEqualPrices(t *testing.T) {
	out := make(chan model.PriceSample, 16)
	src := &scriptedPrices{prices: []float64{100, 100, 101, 101, 101, 100}}
	s := New(src, fixedSymbol("BTCUSD"), 0, out)

	for range src.prices {
		s.Poll(context.Background())
	}

	got := drain(out)
	want := []float64{100, 101, 100}
	if len(got) != len(want) {
		t.Fatalf("emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("emitted %v, want %v", got, want)
		}
	}
	if st := s.Stats(); st.Duplicates != 3 || st.Emitted != 3 {
		t.Errorf("stats = %+v", st)
	}
}

func TestSampler_DiscardsStaleResponseAfterDisable(t *testing.T) {
	out := make(chan model.PriceSample, 4)
	src := &scriptedPrices{prices: []float64{100, 200}}
	s := New(src, fixedSymbol("BTCUSD"), 0, out)

	// Toggle off while the fetch is in flight.
	src.during = s.Disable
	if _, ok := s.Poll(context.Background()); ok {
		t.Fatal("stale sample was published")
	}
	if len(out) != 0 {
		t.Fatal("stale sample reached the channel")
	}
	if s.Stats().Stale != 1 {
		t.Errorf("stale = %d, want 1", s.Stats().Stale)
	}

	// Disabled: no fetch at all.
	src.during = nil
	if _, ok := s.Poll(context.Background()); ok {
		t.Fatal("disabled sampler published")
	}

	s.Enable()
	smp, ok := s.Poll(context.Background())
	if !ok || smp.Price != 200 {
		t.Errorf("after re-enable got (%+v, %v), want price 200", smp, ok)
	}
}

func TestSampler_SkipsMissingAndInvalidPrices(t *testing.T) {
	out := make(chan model.PriceSample, 4)
	src := &scriptedPrices{prices: []float64{0, -5}}
	s := New(src, fixedSymbol("X"), 0, out)

	for i := 0; i < 3; i++ {
		s.Poll(context.Background())
	}
	if len(out) != 0 {
		t.Fatalf("published %v", drain(out))
	}
	if s.Stats().Missing != 3 {
		t.Errorf("missing = %d, want 3", s.Stats().Missing)
	}

	s2 := New(src, fixedSymbol(""), 0, out)
	if _, ok := s2.Poll(context.Background()); ok {
		t.Error("empty symbol should not sample")
	}
}

type switchingSymbol struct{ syms []string }

func (s *switchingSymbol) CurrentSymbol(context.Context) string {
	v := s.syms[0]
	if len(s.syms) > 1 {
		s.syms = s.syms[1:]
	}
	return v
}

func TestSampler_SymbolChangeResetsDedup(t *testing.T) {
	out := make(chan model.PriceSample, 4)
	src := &scriptedPrices{prices: []float64{50, 50}}
	s := New(src, &switchingSymbol{syms: []string{"AAA", "BBB"}}, 0, out)

	var changes []string
	s.OnSymbolChange = func(prev, next string) { changes = append(changes, prev+">"+next) }

	s.Poll(context.Background())
	s.Poll(context.Background())

	if got := drain(out); len(got) != 2 {
		t.Errorf("expected same price on a new symbol to be emitted, got %v", got)
	}
	if len(changes) != 1 || changes[0] != "AAA>BBB" {
		t.Errorf("changes = %v", changes)
	}
}
