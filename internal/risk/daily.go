package risk

import (
	"log"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/abhay-codes07/dream-trade-bot/internal/markethours"
)

// DefaultDailyLossLimit is the realized loss at which new BUYs stop.
const DefaultDailyLossLimit = 200

// DailySnapshot is the externally visible daily risk state.
type DailySnapshot struct {
	Date          string  `json:"date"`
	CumulativePnL float64 `json:"cumulativePnL"`
	Limit         float64 `json:"limit"`
	Breached      bool    `json:"breached"`
	AutoRollover  bool    `json:"autoRollover"`
}

// DailyState accumulates realized PnL for the current trading day.
//
// Rollover only happens through Reset or RollIfNewDay. With autoRoll set,
// Breached and Record call RollIfNewDay first.
type DailyState struct {
	mu       sync.Mutex
	limit    decimal.Decimal
	loc      *time.Location
	autoRoll bool
	now      func() time.Time

	date     string
	pnl      decimal.Decimal
	breached bool

	// OnBreach is called once each time the limit is first crossed.
	OnBreach func(DailySnapshot)
}

// NewDailyState creates the breaker. limit <= 0 uses DefaultDailyLossLimit.
func NewDailyState(limit float64, loc *time.Location, autoRoll bool) *DailyState {
	if limit <= 0 {
		limit = DefaultDailyLossLimit
	}
	if loc == nil {
		loc = time.UTC
	}
	d := &DailyState{
		limit:    decimal.NewFromFloat(limit),
		loc:      loc,
		autoRoll: autoRoll,
		now:      time.Now,
	}
	d.date = markethours.DayKey(d.now(), loc)
	return d
}

// Record adds a realized profit (negative for a loss).
func (d *DailyState) Record(profit float64) DailySnapshot {
	d.mu.Lock()
	if d.autoRoll {
		d.rollLocked()
	}
	d.pnl = d.pnl.Add(decimal.NewFromFloat(profit))
	was := d.breached
	d.breached = d.isBreachedLocked()
	crossed := !was && d.breached
	snap := d.snapshotLocked()
	cb := d.OnBreach
	d.mu.Unlock()

	log.Printf("[risk] daily P&L: %.2f (limit -%.2f)", snap.CumulativePnL, snap.Limit)
	if crossed && cb != nil {
		cb(snap)
	}
	return snap
}

// Breached reports whether cumulative PnL is at or below -limit.
func (d *DailyState) Breached() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.autoRoll {
		d.rollLocked()
	}
	return d.isBreachedLocked()
}

func (d *DailyState) isBreachedLocked() bool {
	return d.pnl.LessThanOrEqual(d.limit.Neg())
}

// Reset zeroes the counter and stamps the current day.
func (d *DailyState) Reset() {
	d.mu.Lock()
	d.resetLocked(markethours.DayKey(d.now(), d.loc))
	d.mu.Unlock()
	log.Printf("[risk] daily P&L reset")
}

// RollIfNewDay resets the counter when the calendar day has changed.
// Returns true if a reset happened.
func (d *DailyState) RollIfNewDay() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rollLocked()
}

func (d *DailyState) rollLocked() bool {
	today := markethours.DayKey(d.now(), d.loc)
	if today == d.date {
		return false
	}
	log.Printf("[risk] day rolled %s -> %s, resetting P&L %s", d.date, today, d.pnl.StringFixed(2))
	d.resetLocked(today)
	return true
}

func (d *DailyState) resetLocked(day string) {
	d.date = day
	d.pnl = decimal.Zero
	d.breached = false
}

// Snapshot returns the current state.
func (d *DailyState) Snapshot() DailySnapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *DailyState) snapshotLocked() DailySnapshot {
	return DailySnapshot{
		Date:          d.date,
		CumulativePnL: d.pnl.InexactFloat64(),
		Limit:         d.limit.InexactFloat64(),
		Breached:      d.isBreachedLocked(),
		AutoRollover:  d.autoRoll,
	}
}
