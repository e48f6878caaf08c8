// Package alert implements a one-shot price alert: armed with a target and a
// direction, it fires once when a checked price crosses the target and then
// disarms itself until re-armed.
package alert

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/abhay-codes07/dream-trade-bot/internal/notification"
)

// Direction is the crossing side that fires the alert.
type Direction string

const (
	Above Direction = "above"
	Below Direction = "below"
)

var (
	ErrInvalidTarget    = errors.New("alert: target must be a positive finite number")
	ErrInvalidDirection = errors.New("alert: direction must be above or below")
)

// Status is what the overlay displays for the alert.
type Status struct {
	Armed     bool      `json:"armed"`
	Target    float64   `json:"target,omitempty"`
	Direction Direction `json:"direction,omitempty"`
	LastFired string    `json:"last_fired,omitempty"`
}

// Watcher holds at most one armed alert. Safe for concurrent use.
type Watcher struct {
	mu        sync.Mutex
	armed     bool
	target    float64
	direction Direction
	symbol    string
	lastFired string

	notifier notification.Notifier
	now      func() time.Time
}

// NewWatcher creates a disarmed watcher. notifier may be nil.
func NewWatcher(notifier notification.Notifier) *Watcher {
	return &Watcher{notifier: notifier, now: time.Now}
}

// Arm sets (or replaces) the alert for symbol.
func (w *Watcher) Arm(symbol string, target float64, dir Direction) error {
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return ErrInvalidTarget
	}
	if dir != Above && dir != Below {
		return fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	w.mu.Lock()
	w.armed, w.target, w.direction, w.symbol = true, target, dir, symbol
	w.mu.Unlock()
	return nil
}

// Disarm clears the alert without firing.
func (w *Watcher) Disarm() {
	w.mu.Lock()
	w.armed = false
	w.mu.Unlock()
}

// Check evaluates price against the armed alert. It returns true exactly
// once per Arm, on the first price at or beyond the target.
func (w *Watcher) Check(price float64) bool {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return false
	}

	w.mu.Lock()
	if !w.armed {
		w.mu.Unlock()
		return false
	}
	hit := (w.direction == Above && price >= w.target) ||
		(w.direction == Below && price <= w.target)
	if !hit {
		w.mu.Unlock()
		return false
	}
	w.armed = false
	desc := fmt.Sprintf("%s crossed %s %.4f at %.4f (%s)",
		w.symbolOrPrice(), w.direction, w.target, price, w.now().UTC().Format(time.RFC3339))
	w.lastFired = desc
	symbol := w.symbol
	w.mu.Unlock()

	notification.SendAsync(w.notifier, notification.Alert{
		Level:   notification.AlertWarning,
		Title:   "Price alert",
		Message: desc,
		Symbol:  symbol,
	})
	return true
}

func (w *Watcher) symbolOrPrice() string {
	if w.symbol == "" {
		return "price"
	}
	return w.symbol
}

// Status returns the armed flag and the last fired description.
func (w *Watcher) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := Status{Armed: w.armed, LastFired: w.lastFired}
	if w.armed {
		st.Target, st.Direction = w.target, w.direction
	}
	return st
}
