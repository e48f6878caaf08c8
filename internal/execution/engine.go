// Package execution turns trade signals into simulated fills against the
// virtual ledger. It owns the entry rule, the daily loss breaker check,
// the server-side risk guard and the exit/liquidation sell paths.
package execution

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/indicator"
	"github.com/abhay-codes07/dream-trade-bot/internal/logger"
	"github.com/abhay-codes07/dream-trade-bot/internal/metrics"
	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/notification"
	"github.com/abhay-codes07/dream-trade-bot/internal/portfolio"
	"github.com/abhay-codes07/dream-trade-bot/internal/risk"
	"github.com/abhay-codes07/dream-trade-bot/internal/strategy"
)

// EventKind labels an Engine event.
type EventKind string

const (
	EventDecision    EventKind = "decision"
	EventSell        EventKind = "sell"
	EventLiquidation EventKind = "liquidation"
)

// Event is published after every decision and every sale.
type Event struct {
	Kind     EventKind       `json:"kind"`
	Symbol   string          `json:"symbol,omitempty"`
	Decision *model.Decision `json:"decision,omitempty"`
	Fill     *portfolio.Fill `json:"fill,omitempty"`
	At       time.Time       `json:"at"`
}

// Options configures an Engine. Zero values give the defaults.
type Options struct {
	Daily     *risk.DailyState      // nil: breaker disabled
	Guard     *risk.Guard           // nil: server-side guard disabled
	Exit      strategy.ExitStrategy // nil: trailing stop
	Oversold  float64               // entry threshold, default 30
	RSIPeriod int                   // default 14
	Notifier  notification.Notifier
	Metrics   *metrics.Metrics
}

// Engine is the trade decision engine.
type Engine struct {
	ledger    *portfolio.Ledger
	daily     *risk.DailyState
	guard     *risk.Guard
	entry     *strategy.RSIOversold
	exit      strategy.ExitStrategy
	rsiPeriod int
	notifier  notification.Notifier
	metrics   *metrics.Metrics
	book      *PriceBook
	now       func() time.Time

	// OnEvent, when set, receives every decision and sale.
	OnEvent func(Event)
}

// NewEngine creates an engine that trades through ledger.
func NewEngine(ledger *portfolio.Ledger, opts Options) *Engine {
	exit := opts.Exit
	if exit == nil {
		exit = strategy.NewTrailingStop(0.02)
	}
	period := opts.RSIPeriod
	if period < 1 {
		period = indicator.DefaultRSIPeriod
	}
	return &Engine{
		ledger:    ledger,
		daily:     opts.Daily,
		guard:     opts.Guard,
		entry:     strategy.NewRSIOversold(opts.Oversold),
		exit:      exit,
		rsiPeriod: period,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		book:      NewPriceBook(),
		now:       time.Now,
	}
}

// Ledger returns the underlying ledger.
func (e *Engine) Ledger() *portfolio.Ledger { return e.ledger }

// Daily returns the daily breaker, or nil.
func (e *Engine) Daily() *risk.DailyState { return e.daily }

// Prices returns the book of last prices seen on signals.
func (e *Engine) Prices() *PriceBook { return e.book }

// Exit returns the active exit policy.
func (e *Engine) Exit() strategy.ExitStrategy { return e.exit }

// HandleSignal evaluates an inbound trade signal. Expected outcomes,
// including declines, are reported in the Decision; the error is non-nil
// only when the ledger could not be read or persisted.
func (e *Engine) HandleSignal(ctx context.Context, sig model.TradeSignal) (model.Decision, error) {
	dec, err := e.handle(ctx, sig)
	e.metrics.ObserveSignal(string(dec.Status))
	e.publish(Event{Kind: EventDecision, Symbol: dec.Symbol, Decision: &dec})
	return dec, err
}

func (e *Engine) handle(ctx context.Context, sig model.TradeSignal) (model.Decision, error) {
	lg := slog.With(logger.LogWithTrace(ctx)...)

	symbol := strings.TrimSpace(sig.Symbol)
	if symbol == "" {
		return invalid("symbol is required"), nil
	}
	if !validPrice(sig.Price) {
		return invalid(fmt.Sprintf("price must be a positive number, got %v", sig.Price)), nil
	}
	rsi, ok := e.resolveRSI(sig)
	if !ok {
		d := invalid(fmt.Sprintf("RSI unavailable: send rsi or at least %d closes", e.rsiPeriod+1))
		d.Symbol = symbol
		return d, nil
	}
	e.book.Set(symbol, sig.Price)

	dec := model.Decision{Symbol: symbol, RSI: &rsi}

	verdict := e.entry.Decide(symbol, sig.Price, rsi)
	if verdict.Action != strategy.ActionBuy {
		dec.Status = model.StatusIgnored
		dec.Message = verdict.Reason
		return dec, nil
	}

	if e.daily != nil && e.daily.Breached() {
		snap := e.daily.Snapshot()
		dec.Status = model.StatusDailyLimitHit
		dec.Message = fmt.Sprintf("daily P&L %.2f reached the -%.2f limit", snap.CumulativePnL, snap.Limit)
		lg.Warn("buy declined by daily breaker", "symbol", symbol, "pnl", snap.CumulativePnL)
		return dec, nil
	}

	if e.guard != nil && !sig.Force {
		v := e.guard.Evaluate(ctx, symbol)
		switch {
		case !v.Allow:
			e.metrics.ObserveRiskVerdict("block")
			dec.Status = model.StatusRiskBlocked
			dec.Message = v.Reason
			dec.Headline = v.Headline
			lg.Info("buy blocked by risk guard", "symbol", symbol, "reason", v.Reason)
			return dec, nil
		case v.Degraded:
			e.metrics.ObserveRiskVerdict("degraded")
		default:
			e.metrics.ObserveRiskVerdict("allow")
		}
	}

	fill, err := e.ledger.Buy(ctx, symbol, sig.Price, verdict.Reason)
	if errors.Is(err, portfolio.ErrInsufficientFunds) {
		dec.Status = model.StatusInsufficientFunds
		dec.Message = fmt.Sprintf("balance %.2f is below price %.2f", fill.Balance, sig.Price)
		return dec, nil
	}
	if err != nil {
		dec.Status = model.StatusError
		dec.Message = "could not persist the order"
		return dec, fmt.Errorf("execution: buy %s: %w", symbol, err)
	}

	e.metrics.ObserveAccount(fill.Balance, fill.OpenPositions)
	dec.Status = model.StatusBought
	dec.Message = fmt.Sprintf("bought 1 %s @ %.2f (%s)", symbol, sig.Price, verdict.Reason)
	dec.Position = &fill.Position
	lg.Info("bought", "symbol", symbol, "price", sig.Price, "rsi", rsi, "balance", fill.Balance)
	return dec, nil
}

// resolveRSI prefers a finite client RSI and falls back to computing it
// from closes.
func (e *Engine) resolveRSI(sig model.TradeSignal) (float64, bool) {
	if sig.RSI != nil && !math.IsNaN(*sig.RSI) && !math.IsInf(*sig.RSI, 0) {
		return *sig.RSI, true
	}
	return indicator.ComputeRSI(sig.Closes, e.rsiPeriod)
}

// Sell closes the earliest open position for symbol. With nothing open it
// is a no-op and returns ok=false.
func (e *Engine) Sell(ctx context.Context, symbol string, price float64, reason string) (portfolio.Fill, bool, error) {
	if !validPrice(price) {
		return portfolio.Fill{}, false, fmt.Errorf("execution: sell %s: invalid price %v", symbol, price)
	}
	fill, err := e.ledger.Sell(ctx, symbol, price, reason)
	return e.afterSell(fill, err, "signal")
}

// SellPosition closes one specific position. Used by the exit monitor and
// liquidation, which work position by position.
func (e *Engine) SellPosition(ctx context.Context, pos model.Position, price float64, reason, trigger string) (portfolio.Fill, bool, error) {
	if !validPrice(price) {
		return portfolio.Fill{}, false, fmt.Errorf("execution: sell %s: invalid price %v", pos.Symbol, price)
	}
	fill, err := e.ledger.SellPosition(ctx, pos.ID, price, reason)
	return e.afterSell(fill, err, trigger)
}

func (e *Engine) afterSell(fill portfolio.Fill, err error, trigger string) (portfolio.Fill, bool, error) {
	if errors.Is(err, portfolio.ErrNoPosition) {
		return fill, false, nil
	}
	if err != nil {
		return fill, false, fmt.Errorf("execution: %w", err)
	}

	profit := 0.0
	if fill.Entry.Profit != nil {
		profit = *fill.Entry.Profit
	}
	if e.daily != nil {
		snap := e.daily.Record(profit)
		e.metrics.ObserveDaily(snap.CumulativePnL, snap.Breached)
	}
	if fill.Remaining == 0 {
		e.exit.Forget(fill.Position.Symbol)
	}

	e.metrics.ObserveSell(trigger, profit)
	e.metrics.ObserveAccount(fill.Balance, fill.OpenPositions)
	e.publish(Event{Kind: EventSell, Symbol: fill.Position.Symbol, Fill: &fill})

	level := notification.AlertInfo
	if profit < 0 {
		level = notification.AlertWarning
	}
	notification.SendAsync(e.notifier, notification.Alert{
		Level:   level,
		Title:   "Position sold",
		Message: fmt.Sprintf("%s @ %.2f, profit %.2f (%s)", fill.Position.Symbol, fill.Entry.Price, profit, fill.Entry.Reason),
		Symbol:  fill.Position.Symbol,
	})
	return fill, true, nil
}

func (e *Engine) publish(ev Event) {
	if e.OnEvent == nil {
		return
	}
	ev.At = e.now().UTC()
	e.OnEvent(ev)
}

// BreachAlert builds the daily breaker OnBreach callback that notifies n.
func BreachAlert(n notification.Notifier) func(risk.DailySnapshot) {
	return func(s risk.DailySnapshot) {
		log.Printf("[execution] daily loss limit hit: pnl %.2f <= -%.2f", s.CumulativePnL, s.Limit)
		notification.SendAsync(n, notification.Alert{
			Level:   notification.AlertCritical,
			Title:   "Daily loss limit hit",
			Message: fmt.Sprintf("realized P&L %.2f on %s; new buys are paused", s.CumulativePnL, s.Date),
		})
	}
}

func invalid(msg string) model.Decision {
	return model.Decision{Status: model.StatusInvalidInput, Message: msg}
}

func validPrice(p float64) bool {
	return p > 0 && !math.IsInf(p, 0) && !math.IsNaN(p)
}
