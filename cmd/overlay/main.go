package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/abhay-codes07/dream-trade-bot/config"
	"github.com/abhay-codes07/dream-trade-bot/internal/alert"
	"github.com/abhay-codes07/dream-trade-bot/internal/execution"
	"github.com/abhay-codes07/dream-trade-bot/internal/indicator"
	"github.com/abhay-codes07/dream-trade-bot/internal/logger"
	"github.com/abhay-codes07/dream-trade-bot/internal/metrics"
	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/notification"
	"github.com/abhay-codes07/dream-trade-bot/internal/overlay"
	"github.com/abhay-codes07/dream-trade-bot/internal/risk"
	"github.com/abhay-codes07/dream-trade-bot/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	cfg := config.Load()
	logger.Init("overlay", logger.ParseLevel(cfg.LogLevel))

	if cfg.Symbol == "" || cfg.PriceURL == "" {
		log.Fatalf("[overlay] SYMBOL and PRICE_URL are required")
	}
	log.Printf("[overlay] starting for %s (server=%s)", cfg.Symbol, cfg.ServerURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prom := metrics.NewMetrics(prometheus.NewRegistry())
	health := metrics.NewHealthStatus()
	health.SetStoreOK(true)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, prom, health)
	metricsSrv.Start()

	client := overlay.NewClient(cfg.ServerURL, cfg.HTTPTimeout)
	symbols := overlay.StaticSymbol(cfg.Symbol)

	var notifier notification.Notifier = notification.NewLogNotifier()
	if cfg.WebhookURL != "" {
		notifier = notification.Multi{notifier, notification.NewWebhookNotifier(cfg.WebhookURL)}
	}

	var watchers []*alert.Watcher
	for _, a := range []struct {
		target float64
		dir    alert.Direction
	}{{cfg.AlertAbove, alert.Above}, {cfg.AlertBelow, alert.Below}} {
		if a.target <= 0 {
			continue
		}
		w := alert.NewWatcher(notifier)
		if err := w.Arm(cfg.Symbol, a.target, a.dir); err != nil {
			log.Fatalf("[overlay] alert: %v", err)
		}
		watchers = append(watchers, w)
	}

	mood := overlay.NewMoodPoller(client, symbols, cfg.MoodInterval)
	mood.OnUpdate = func(r model.NewsReport) {
		slog.Info("news mood", "symbol", r.Symbol, "mood", r.Mood.Mood,
			"sentiment", r.Mood.SentimentScore, "risk", r.Mood.RiskScore)
	}

	agent := &overlay.Agent{
		Prices:  execution.NewHTTPQuoteSource(cfg.PriceURL, cfg.HTTPTimeout),
		Symbols: symbols,
		Sender:  client,
		Guard:   risk.NewGuard(client, cfg.HTTPTimeout),
		Mood:    mood,
		Alerts:  watchers,
		Metrics: prom,
		Tracker: indicator.NewTracker(indicator.TrackerConfig{
			RSIPeriod:      cfg.RSIPeriod,
			MomentumWindow: cfg.MomentumWindow,
			Incremental:    cfg.IncrementalRSI,
		}),
		Strategies: []strategy.Strategy{strategy.NewRSIOversold(strategy.DefaultOversold)},
		AutoSignal: cfg.AutoSignal,
		OnSnapshot: func(s indicator.Snapshot) {
			if s.RSI == nil {
				slog.Debug("collecting", "symbol", s.Symbol, "samples", s.Samples)
				return
			}
			slog.Debug("snapshot", "symbol", s.Symbol, "price", s.Price, "rsi", *s.RSI,
				"momentum", s.Momentum.Label, "volatility", s.Momentum.Volatility)
		},
	}

	done := make(chan struct{})
	go func() {
		agent.Run(ctx, cfg.SampleInterval)
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[overlay] received %v, shutting down...", sig)

	cancel()
	<-done
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	metricsSrv.Stop(shutdownCtx)
	log.Println("[overlay] stopped")
}
