package replay

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

func series(symbol string, start time.Time, prices ...float64) []model.PriceSample {
	out := make([]model.PriceSample, len(prices))
	for i, p := range prices {
		out[i] = model.PriceSample{Symbol: symbol, Price: p, TS: start.Add(time.Duration(i) * time.Second)}
	}
	return out
}

func TestLoad(t *testing.T) {
	in := `timestamp,symbol,price
2024-03-01T10:00:05Z, AAPL, 101.5
# comment
1709287200,AAPL,100
`
	samples, err := Load(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("got %d samples, want 2", len(samples))
	}
	if samples[0].Price != 100 || samples[1].Price != 101.5 {
		t.Fatalf("not sorted by time: %+v", samples)
	}
	if samples[1].Symbol != "AAPL" {
		t.Fatalf("symbol = %q", samples[1].Symbol)
	}
}

func TestLoad_BadRow(t *testing.T) {
	_, err := Load(strings.NewReader("1709287200,AAPL,abc\n"))
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Fatalf("err = %v, want line 1 error", err)
	}
}

func TestStream_MaxSpeed(t *testing.T) {
	in := series("AAPL", time.Unix(0, 0), 1, 2, 3)
	out := make(chan model.PriceSample, len(in))
	if err := Stream(context.Background(), in, 0, out); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	var got []float64
	for s := range out {
		got = append(got, s.Price)
	}
	if len(got) != 3 || got[2] != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestRun_TrailingRoundTrip(t *testing.T) {
	prices := make([]float64, 0, 18)
	for p := 100.0; p >= 86; p-- {
		prices = append(prices, p)
	}
	prices = append(prices, 90, 95, 92)

	rep, err := Run(context.Background(), series("AAPL", time.Unix(0, 0), prices...), Options{ExitStrategy: "trailing"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Samples != len(prices) {
		t.Fatalf("samples = %d", rep.Samples)
	}
	if rep.Signals != 1 || rep.Decisions[model.StatusBought] != 1 {
		t.Fatalf("signals = %d decisions = %v", rep.Signals, rep.Decisions)
	}
	if rep.Sells != 1 || math.Abs(rep.RealizedPnL-6) > 1e-9 {
		t.Fatalf("sells = %d realized = %v, want 1 and 6", rep.Sells, rep.RealizedPnL)
	}
	if rep.OpenPositions != 0 || math.Abs(rep.FinalBalance-10006) > 1e-9 {
		t.Fatalf("open = %d balance = %v", rep.OpenPositions, rep.FinalBalance)
	}
	if len(rep.Trades) != 2 {
		t.Fatalf("trades = %d, want buy and sell", len(rep.Trades))
	}
}

func TestRun_NoSignalOnFlatSeries(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 50 + float64(i%2)
	}
	rep, err := Run(context.Background(), series("MSFT", time.Unix(0, 0), prices...), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Signals != 0 || rep.FinalBalance != model.DefaultBalance {
		t.Fatalf("report = %+v", rep)
	}
}

func TestNewBacktester_UnknownExit(t *testing.T) {
	if _, err := NewBacktester(Options{ExitStrategy: "moon"}); err == nil {
		t.Fatal("expected error for unknown exit strategy")
	}
}
