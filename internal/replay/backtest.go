package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/execution"
	"github.com/abhay-codes07/dream-trade-bot/internal/indicator"
	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/portfolio"
	"github.com/abhay-codes07/dream-trade-bot/internal/risk"
	"github.com/abhay-codes07/dream-trade-bot/internal/store/memory"
	"github.com/abhay-codes07/dream-trade-bot/internal/strategy"
)

// Options configures a backtest. Zero values give the server defaults.
type Options struct {
	Balance        float64 // starting balance, default model.DefaultBalance
	ExitStrategy   string  // trailing, bands or atr
	DailyLossLimit float64 // default 200; negative disables the breaker
	RSIPeriod      int
	MomentumWindow int
	Oversold       float64
}

// Report summarises a backtest run.
type Report struct {
	Samples       int                  `json:"samples"`
	Signals       int                  `json:"signals"`
	Decisions     map[model.Status]int `json:"decisions"`
	Sells         int                  `json:"sells"`
	RealizedPnL   float64              `json:"realizedPnL"`
	FinalBalance  float64              `json:"finalBalance"`
	OpenPositions int                  `json:"openPositions"`
	Unrealized    float64              `json:"unrealizedPnL"`
	Trades        []model.HistoryEntry `json:"trades"`
}

// Backtester runs samples through a fresh in-memory engine.
type Backtester struct {
	engine  *execution.Engine
	monitor *execution.ExitMonitor
	tracker *indicator.Tracker
	entry   *strategy.RSIOversold
	report  Report
}

// NewBacktester builds the engine stack for one run.
func NewBacktester(opts Options) (*Backtester, error) {
	name := opts.ExitStrategy
	if name == "" {
		name = "trailing"
	}
	exit, err := strategy.NewExitStrategy(name)
	if err != nil {
		return nil, err
	}

	acct := model.NewAccount()
	if opts.Balance > 0 {
		acct.Balance = opts.Balance
	}
	var daily *risk.DailyState
	switch {
	case opts.DailyLossLimit == 0:
		daily = risk.NewDailyState(200, time.UTC, true)
	case opts.DailyLossLimit > 0:
		daily = risk.NewDailyState(opts.DailyLossLimit, time.UTC, true)
	}

	engine := execution.NewEngine(portfolio.NewLedger(memory.New(acct), nil), execution.Options{
		Daily:     daily,
		Exit:      exit,
		Oversold:  opts.Oversold,
		RSIPeriod: opts.RSIPeriod,
	})
	b := &Backtester{
		engine:  engine,
		monitor: execution.NewExitMonitor(engine, engine.Prices(), 0),
		tracker: indicator.NewTracker(indicator.TrackerConfig{
			RSIPeriod:      opts.RSIPeriod,
			MomentumWindow: opts.MomentumWindow,
			TrailPoints:    -1,
		}),
		entry:  strategy.NewRSIOversold(opts.Oversold),
		report: Report{Decisions: make(map[model.Status]int)},
	}
	engine.OnEvent = b.record
	return b, nil
}

func (b *Backtester) record(ev execution.Event) {
	switch ev.Kind {
	case execution.EventDecision:
		b.report.Decisions[ev.Decision.Status]++
	case execution.EventSell:
		b.report.Sells++
		if ev.Fill != nil && ev.Fill.Entry.Profit != nil {
			b.report.RealizedPnL += *ev.Fill.Entry.Profit
		}
	}
}

// Step applies one sample: exits are evaluated at the new price first,
// then the entry rule may signal a buy.
func (b *Backtester) Step(ctx context.Context, s model.PriceSample) error {
	snap, ok := b.tracker.Process(s)
	if !ok {
		return nil
	}
	b.report.Samples++
	b.engine.Prices().Set(s.Symbol, s.Price)

	if _, err := b.monitor.Tick(ctx); err != nil {
		return fmt.Errorf("exit tick at %s: %w", s.TS.Format(time.RFC3339), err)
	}

	sig := b.entry.OnSnapshot(snap)
	if sig == nil {
		return nil
	}
	b.report.Signals++
	_, err := b.engine.HandleSignal(ctx, model.TradeSignal{
		Symbol: s.Symbol,
		Price:  s.Price,
		RSI:    sig.RSI,
		Closes: b.tracker.Closes(s.Symbol),
	})
	return err
}

// Finish marks open positions to the last seen prices and returns the report.
func (b *Backtester) Finish(ctx context.Context) (Report, error) {
	acct, err := b.engine.Ledger().Snapshot(ctx)
	if err != nil {
		return b.report, err
	}
	sum := portfolio.Summarize(acct, b.engine.Prices().Snapshot())
	b.report.FinalBalance = acct.Balance
	b.report.OpenPositions = len(acct.Positions)
	b.report.Unrealized = sum.UnrealizedPnL
	b.report.Trades = acct.History
	return b.report, nil
}

// Run backtests samples in order.
func Run(ctx context.Context, samples []model.PriceSample, opts Options) (Report, error) {
	b, err := NewBacktester(opts)
	if err != nil {
		return Report{}, err
	}
	for _, s := range samples {
		if err := ctx.Err(); err != nil {
			return b.report, err
		}
		if err := b.Step(ctx, s); err != nil {
			return b.report, err
		}
	}
	return b.Finish(ctx)
}
