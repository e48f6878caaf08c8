package overlay

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/alert"
	"github.com/abhay-codes07/dream-trade-bot/internal/bus"
	"github.com/abhay-codes07/dream-trade-bot/internal/indicator"
	"github.com/abhay-codes07/dream-trade-bot/internal/metrics"
	"github.com/abhay-codes07/dream-trade-bot/internal/model"
	"github.com/abhay-codes07/dream-trade-bot/internal/risk"
	"github.com/abhay-codes07/dream-trade-bot/internal/sampler"
	"github.com/abhay-codes07/dream-trade-bot/internal/strategy"
)

// SignalSender delivers trade signals to the server.
type SignalSender interface {
	SendSignal(ctx context.Context, sig model.TradeSignal) (model.Decision, error)
}

// Agent wires sampler → fan-out → {tracker, alerts} and, with AutoSignal,
// tracker → strategy → guard → server.
type Agent struct {
	Prices  model.PriceSource
	Symbols model.SymbolSource
	Sender  SignalSender
	Guard   *risk.Guard // client-side check; nil disables
	Mood    *MoodPoller // nil disables
	Alerts  []*alert.Watcher
	Metrics *metrics.Metrics

	Tracker    *indicator.Tracker
	Strategies []strategy.Strategy // entry rules run when AutoSignal is set
	AutoSignal bool
	Sampler    *sampler.Sampler // built by Run

	// OnSnapshot receives every indicator snapshot.
	OnSnapshot func(indicator.Snapshot)
	// OnDecision receives the server's reply to each forwarded signal.
	OnDecision func(model.Decision)
}

// Run blocks until ctx is cancelled.
func (a *Agent) Run(ctx context.Context, interval time.Duration) {
	if a.Tracker == nil {
		a.Tracker = indicator.NewTracker(indicator.TrackerConfig{})
	}
	samples := make(chan model.PriceSample, 64)
	a.Sampler = sampler.New(a.Prices, a.Symbols, interval, samples)
	a.Sampler.OnSymbolChange = func(prev, next string) {
		log.Printf("[overlay] symbol changed %s -> %s, resetting series", prev, next)
		a.Tracker.Reset(prev)
	}

	fan := bus.New(64)
	fan.OnDrop = a.Metrics.ObserveFanoutDrop
	toTracker := fan.Subscribe()
	toAlerts := fan.Subscribe()

	snaps := make(chan indicator.Snapshot, 64)
	var toStrategies chan indicator.Snapshot
	var wg sync.WaitGroup
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}

	run(func() { a.Sampler.Run(ctx) })
	run(func() { fan.Run(ctx, samples) })
	run(func() { a.Tracker.Run(ctx, toTracker, snaps) })
	run(func() { a.watchAlerts(ctx, toAlerts) })
	if a.AutoSignal && len(a.Strategies) > 0 {
		toStrategies = make(chan indicator.Snapshot, 64)
		rules := strategy.NewEngine(16)
		for _, st := range a.Strategies {
			rules.Register(st)
		}
		run(func() { rules.Run(ctx, toStrategies) })
		run(func() { a.forwardSignals(ctx, rules.Signals()) })
	}
	run(func() { a.consumeSnapshots(ctx, snaps, toStrategies) })
	run(func() { a.reportSamplerStats(ctx, 10*time.Second) })
	if a.Mood != nil {
		run(func() { a.Mood.Run(ctx) })
	}

	log.Printf("[overlay] agent running (auto signal=%v)", a.AutoSignal)
	wg.Wait()
}

func (a *Agent) reportSamplerStats(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	var prev sampler.Stats
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			cur := a.Sampler.Stats()
			a.Metrics.ObserveSamplerSkips(cur.Duplicates-prev.Duplicates, cur.Stale-prev.Stale)
			prev = cur
		}
	}
}

func (a *Agent) watchAlerts(ctx context.Context, in <-chan model.PriceSample) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-in:
			if !ok {
				return
			}
			a.Metrics.ObserveSample()
			for _, w := range a.Alerts {
				if w.Check(s.Price) {
					a.Metrics.ObserveAlert()
					log.Printf("[overlay] alert fired: %s", w.Status().LastFired)
				}
			}
		}
	}
}

func (a *Agent) consumeSnapshots(ctx context.Context, in <-chan indicator.Snapshot, rules chan<- indicator.Snapshot) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-in:
			if !ok {
				return
			}
			if snap.RSI != nil {
				a.Metrics.SetRSI(snap.Symbol, *snap.RSI)
			}
			if a.OnSnapshot != nil {
				a.OnSnapshot(snap)
			}
			if rules == nil {
				continue
			}
			select {
			case rules <- snap:
			default:
				log.Printf("[overlay] strategy queue full, dropping %s snapshot", snap.Symbol)
			}
		}
	}
}

func (a *Agent) forwardSignals(ctx context.Context, in <-chan strategy.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-in:
			if sig.Action == strategy.ActionBuy {
				a.Forward(ctx, sig)
			}
		}
	}
}

// Forward runs the client-side guard and, if allowed, sends the signal
// with the RSI and closes it was derived from. It reports whether the
// signal reached the server.
func (a *Agent) Forward(ctx context.Context, sig strategy.Signal) bool {
	if a.Guard != nil {
		v := a.Guard.Evaluate(ctx, sig.Symbol)
		if !v.Allow {
			log.Printf("[overlay] %s buy held back: %s (%s)", sig.Symbol, v.Reason, v.Headline)
			return false
		}
	}

	ts := model.TradeSignal{Symbol: sig.Symbol, Price: sig.Price, RSI: sig.RSI}
	if a.Tracker != nil {
		ts.Closes = a.Tracker.Closes(sig.Symbol)
	}
	dec, err := a.Sender.SendSignal(ctx, ts)
	if err != nil {
		log.Printf("[overlay] send signal %s: %v", sig.Symbol, err)
		return false
	}
	log.Printf("[overlay] %s: %s (%s)", sig.Symbol, dec.Status, dec.Message)
	if a.OnDecision != nil {
		a.OnDecision(dec)
	}
	return true
}
