// cmd/backtest replays recorded prices through the indicator tracker and
// the trade decision engine against an in-memory account.
//
// Usage:
//
//	go run ./cmd/backtest --file=prices.csv --exit=trailing --speed=0
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/replay"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	file := flag.String("file", "data/prices.csv", "CSV of timestamp,symbol,price")
	speed := flag.Float64("speed", 0, "Playback speed multiplier (0=max, 1=realtime, 100=100x)")
	exit := flag.String("exit", "trailing", "Exit strategy: trailing, bands or atr")
	limit := flag.Float64("daily-limit", 200, "Daily loss limit (negative disables)")
	period := flag.Int("rsi-period", 14, "RSI lookback")
	balance := flag.Float64("balance", model.DefaultBalance, "Starting balance")
	asJSON := flag.Bool("json", false, "Print the full report as JSON")
	flag.Parse()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatalf("[backtest] open: %v", err)
	}
	samples, err := replay.Load(f)
	f.Close()
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	log.Printf("[backtest] loaded %d samples from %s", len(samples), *file)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	bt, err := replay.NewBacktester(replay.Options{
		Balance:        *balance,
		ExitStrategy:   *exit,
		DailyLossLimit: *limit,
		RSIPeriod:      *period,
	})
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}

	stream := make(chan model.PriceSample, 1024)
	go func() {
		if err := replay.Stream(ctx, samples, *speed, stream); err != nil {
			log.Printf("[backtest] replay error: %v", err)
		}
	}()
	for s := range stream {
		if err := bt.Step(ctx, s); err != nil {
			log.Fatalf("[backtest] %v", err)
		}
	}

	rep, err := bt.Finish(context.Background())
	if err != nil {
		log.Fatalf("[backtest] %v", err)
	}
	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(rep)
		return
	}

	fmt.Println()
	fmt.Println("BACKTEST COMPLETE")
	fmt.Printf("  Samples processed: %d\n", rep.Samples)
	fmt.Printf("  Entry signals:     %d\n", rep.Signals)
	for status, n := range rep.Decisions {
		fmt.Printf("    %-18s %d\n", status+":", n)
	}
	fmt.Printf("  Sells:             %d\n", rep.Sells)
	fmt.Printf("  Realized P&L:      %.2f\n", rep.RealizedPnL)
	fmt.Printf("  Unrealized P&L:    %.2f (%d open)\n", rep.Unrealized, rep.OpenPositions)
	fmt.Printf("  Final balance:     %.2f\n", rep.FinalBalance)
}
