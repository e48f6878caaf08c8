// cmd/quoteserver serves simulated quotes for local runs.
//
// Config (env vars):
//
//	QUOTE_SERVER_ADDR    listen address (default ":9001")
//	QUOTE_SYMBOLS        SYMBOL:PRICE pairs (default "AAPL:190,MSFT:410")
//	QUOTE_INTERVAL       walk interval (default "1s")
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/quotesim"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	log.Println("[quoteserver] starting...")

	addr := envOrDefault("QUOTE_SERVER_ADDR", ":9001")
	start := parseSymbols(envOrDefault("QUOTE_SYMBOLS", "AAPL:190,MSFT:410"))
	interval, err := time.ParseDuration(envOrDefault("QUOTE_INTERVAL", "1s"))
	if err != nil || interval <= 0 {
		log.Fatalf("[quoteserver] invalid QUOTE_INTERVAL: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	market := quotesim.NewMarket(start, 0, time.Now().UnixNano())
	go market.Run(ctx, interval)

	srv := &http.Server{Addr: addr, Handler: market.Router(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Printf("[quoteserver] listening on %s (GET /quote?symbol=...)", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[quoteserver] server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	srv.Shutdown(shutdownCtx)
	log.Println("[quoteserver] stopped")
}

func parseSymbols(s string) map[string]float64 {
	out := make(map[string]float64)
	for _, part := range strings.Split(s, ",") {
		seg := strings.SplitN(strings.TrimSpace(part), ":", 2)
		if len(seg) != 2 {
			log.Printf("[quoteserver] skipping invalid symbol spec: %q", part)
			continue
		}
		p, err := strconv.ParseFloat(strings.TrimSpace(seg[1]), 64)
		if err != nil || p <= 0 {
			log.Printf("[quoteserver] skipping invalid price in %q", part)
			continue
		}
		out[strings.TrimSpace(seg[0])] = p
	}
	return out
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
