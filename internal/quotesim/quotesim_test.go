package quotesim

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abhay-codes07/dream-trade-bot/internal/execution"
)

func TestWalk_StaysWithinStep(t *testing.T) {
	m := NewMarket(map[string]float64{"aapl": 200}, 0.01, 42)
	prev := m.Price("AAPL")
	for i := 0; i < 500; i++ {
		m.Walk()
		cur := m.Price("AAPL")
		if math.Abs(cur-prev) > prev*0.01+0.01 {
			t.Fatalf("step %d moved %v -> %v", i, prev, cur)
		}
		prev = cur
	}
}

func TestWalk_Floor(t *testing.T) {
	if got := walk(0.01, -0.5); got != 0.01 {
		t.Fatalf("walk floor = %v", got)
	}
}

func TestRouter_ServesQuotesReadableByHTTPQuoteSource(t *testing.T) {
	m := NewMarket(map[string]float64{"MSFT": 410.25}, 0, 1)
	srv := httptest.NewServer(m.Router())
	defer srv.Close()

	src := execution.NewHTTPQuoteSource(srv.URL+"/quote?symbol={symbol}", 0)
	p, err := src.Fetch(context.Background(), "msft")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p != 410.25 {
		t.Fatalf("price = %v", p)
	}

	if p, _ := src.Fetch(context.Background(), "NEW"); p != DefaultStart {
		t.Fatalf("new symbol price = %v", p)
	}
}

func TestRouter_MissingSymbol(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMarket(nil, 0, 1).Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/quote", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
