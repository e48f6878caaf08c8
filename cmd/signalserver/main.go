package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/abhay-codes07/dream-trade-bot/config"
	"github.com/abhay-codes07/dream-trade-bot/internal/api"
	"github.com/abhay-codes07/dream-trade-bot/internal/execution"
	"github.com/abhay-codes07/dream-trade-bot/internal/gateway"
	"github.com/abhay-codes07/dream-trade-bot/internal/logger"
	"github.com/abhay-codes07/dream-trade-bot/internal/markethours"
	"github.com/abhay-codes07/dream-trade-bot/internal/metrics"
	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/news"
	"github.com/abhay-codes07/dream-trade-bot/internal/notification"
	"github.com/abhay-codes07/dream-trade-bot/internal/portfolio"
	"github.com/abhay-codes07/dream-trade-bot/internal/risk"
	filestore "github.com/abhay-codes07/dream-trade-bot/internal/store/file"
	pgstore "github.com/abhay-codes07/dream-trade-bot/internal/store/postgres"
	redisstore "github.com/abhay-codes07/dream-trade-bot/internal/store/redis"
	sqlitestore "github.com/abhay-codes07/dream-trade-bot/internal/store/sqlite"
	"github.com/abhay-codes07/dream-trade-bot/internal/strategy"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	cfg := config.Load()
	logger.Init("signalserver", logger.ParseLevel(cfg.LogLevel))
	log.Println("[signalserver] starting...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loc, err := markethours.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatalf("[signalserver] timezone: %v", err)
	}
	log.Printf("[signalserver] %s", markethours.StatusString(time.Now(), loc))

	reg := prometheus.NewRegistry()
	prom := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus()

	// ---- Account store ----
	var store model.AccountStore
	if cfg.AccountDSN != "" {
		pool, err := pgstore.NewPool(ctx, cfg.AccountDSN)
		if err != nil {
			log.Fatalf("[signalserver] postgres: %v", err)
		}
		defer pool.Close()
		pg := pgstore.NewAccountStore(pool, cfg.AccountID)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Fatalf("[signalserver] postgres schema: %v", err)
		}
		store = pg
		log.Printf("[signalserver] account store: postgres (id=%s)", cfg.AccountID)
	} else {
		store = filestore.New(cfg.AccountFile)
		log.Printf("[signalserver] account store: %s", cfg.AccountFile)
	}

	// ---- Trade journal (optional, non-fatal) ----
	var journal *sqlitestore.Journal
	var journalDB *sql.DB
	if cfg.JournalPath != "" {
		journal, err = sqlitestore.Open(cfg.JournalPath)
		if err != nil {
			log.Printf("[signalserver] WARNING: journal disabled: %v", err)
			journal = nil
		} else {
			defer journal.Close()
			journalDB = journal.DB()
		}
	}
	var tradeJournal model.TradeJournal
	var journalReader api.JournalReader
	if journal != nil {
		tradeJournal = journal
		journalReader = journal
	}

	// ---- Redis (optional) ----
	var rdb *goredis.Client
	var relay *redisstore.Relay
	var remote news.RemoteCache
	if cfg.RedisAddr != "" {
		rdb, err = redisstore.Dial(redisstore.Config{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			log.Printf("[signalserver] WARNING: redis unavailable, continuing without it: %v", err)
			rdb = nil
		} else {
			defer rdb.Close()
			relay = redisstore.NewRelay(rdb, redisstore.EventChannel)
			remote = redisstore.NewNewsCache(rdb, cfg.NewsCacheTTL)
		}
	}

	// ---- Notifications ----
	notifier := buildNotifier(cfg)

	// ---- News + risk ----
	newsSvc := news.NewService(news.NewFeedFetcher(cfg.NewsFeedURL, cfg.HTTPTimeout), news.Options{
		TTL:     cfg.NewsCacheTTL,
		Remote:  remote,
		Metrics: prom,
	})
	var guard *risk.Guard
	if cfg.ServerRiskGuard {
		guard = risk.NewGuard(newsSvc, cfg.HTTPTimeout)
	}
	daily := risk.NewDailyState(cfg.DailyLossLimit, loc, cfg.DailyResetAuto)
	daily.OnBreach = execution.BreachAlert(notifier)

	exit, err := strategy.NewExitStrategy(cfg.ExitStrategy)
	if err != nil {
		log.Fatalf("[signalserver] %v", err)
	}

	// ---- Engine ----
	ledger := portfolio.NewLedger(store, tradeJournal)
	engine := execution.NewEngine(ledger, execution.Options{
		Daily:     daily,
		Guard:     guard,
		Exit:      exit,
		RSIPeriod: cfg.RSIPeriod,
		Notifier:  notifier,
		Metrics:   prom,
	})

	if acct, err := ledger.Snapshot(ctx); err != nil {
		health.SetStoreOK(false)
		log.Printf("[signalserver] WARNING: account load failed: %v", err)
	} else {
		health.SetStoreOK(true)
		prom.ObserveAccount(acct.Balance, len(acct.Positions))
		log.Printf("[signalserver] account loaded: balance=%.2f positions=%d", acct.Balance, len(acct.Positions))
	}

	hub := gateway.NewHub(256, prom)
	engine.OnEvent = func(ev execution.Event) {
		hub.Publish(string(ev.Kind), ev)
		if relay != nil {
			if err := relay.Publish(ctx, ev); err != nil {
				slog.Warn("event relay failed", "kind", ev.Kind, "error", err)
			}
		}
	}

	// ---- Exit monitor ----
	var quotes model.PriceSource
	if cfg.QuoteURL != "" {
		quotes = execution.NewHTTPQuoteSource(cfg.QuoteURL, cfg.HTTPTimeout)
	}
	monitorPrices := execution.QuoteChain{quotes, engine.Prices()}
	go execution.NewExitMonitor(engine, monitorPrices, cfg.ExitInterval).Run(ctx)

	if cfg.DailyResetAuto {
		go rollDaily(ctx, daily, loc, prom)
	}

	health.StartLivenessChecker(ctx, rdb, journalDB, 15*time.Second)

	// ---- HTTP ----
	srv := api.NewServer(api.Deps{
		Engine:              engine,
		News:                newsSvc,
		Journal:             journalReader,
		Quotes:              quotes,
		Events:              hub,
		Metrics:             prom,
		Health:              health,
		LiquidateTOTPSecret: cfg.LiquidateTOTPSecret,
	})
	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("[signalserver] listening on %s", cfg.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[signalserver] http: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("[signalserver] received %v, shutting down...", sig)

	cancel()
	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[signalserver] shutdown: %v", err)
	}
	log.Println("[signalserver] stopped")
}

func buildNotifier(cfg *config.Config) notification.Notifier {
	multi := notification.Multi{notification.NewLogNotifier()}
	if cfg.WebhookURL != "" {
		multi = append(multi, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	if cfg.TelegramBotToken != "" {
		multi = append(multi, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	return multi
}

// rollDaily resets the breaker at each local midnight.
func rollDaily(ctx context.Context, daily *risk.DailyState, loc *time.Location, m *metrics.Metrics) {
	for {
		wait := markethours.TimeUntilRollover(time.Now(), loc)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait + time.Second):
		}
		if daily.RollIfNewDay() {
			snap := daily.Snapshot()
			m.ObserveDaily(snap.CumulativePnL, snap.Breached)
			log.Printf("[signalserver] daily breaker rolled over to %s", snap.Date)
		}
	}
}
