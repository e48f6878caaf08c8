package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
)

func TestClient_SendSignal(t *testing.T) {
	var got model.TradeSignal
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/trade-signal" || r.Method != http.MethodPost {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(model.Decision{Status: model.StatusBought, Symbol: got.Symbol})
	}))
	defer srv.Close()

	rsi := 25.0
	c := NewClient(srv.URL+"/", 0)
	dec, err := c.SendSignal(context.Background(), model.TradeSignal{Symbol: "AAPL", Price: 100, RSI: &rsi})
	if err != nil {
		t.Fatalf("SendSignal: %v", err)
	}
	if dec.Status != model.StatusBought || dec.Symbol != "AAPL" {
		t.Fatalf("decision = %+v", dec)
	}
	if got.RSI == nil || *got.RSI != 25 {
		t.Fatalf("server saw rsi %v", got.RSI)
	}
}

func TestClient_SendSignalServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(model.Decision{Status: model.StatusError, Message: "disk full"})
	}))
	defer srv.Close()

	dec, err := NewClient(srv.URL, 0).SendSignal(context.Background(), model.TradeSignal{Symbol: "AAPL", Price: 1})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusInternalServerError {
		t.Fatalf("err = %v, want StatusError 500", err)
	}
	if dec.Status != model.StatusError {
		t.Fatalf("status = %q", dec.Status)
	}
}

func TestClient_LiquidateForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["code"] != "000000" {
			t.Errorf("code = %v", body["code"])
		}
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"Error","message":"invalid code"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).Liquidate(context.Background(), 0, nil, "000000")
	var se *StatusError
	if !errors.As(err, &se) || se.Code != http.StatusForbidden {
		t.Fatalf("err = %v, want 403", err)
	}
}

func TestClient_ReportEscapesSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sym := r.URL.Query().Get("symbol")
		json.NewEncoder(w).Encode(model.NewsReport{Symbol: sym})
	}))
	defer srv.Close()

	rep, err := NewClient(srv.URL, 0).Report(context.Background(), "BRK B&X")
	if err != nil {
		t.Fatalf("Report: %v", err)
	}
	if rep.Symbol != "BRK B&X" {
		t.Fatalf("symbol = %q", rep.Symbol)
	}
}
