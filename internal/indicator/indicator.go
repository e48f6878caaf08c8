// Package indicator provides technical indicator calculations over price series.
//
// The batch functions (ComputeRSI, RSISeries, ComputeMomentum) rescan their
// input on every call and keep no state. The RSI type is the incremental
// alternative for callers that want O(1) updates.
package indicator

import "math"

// Indicator is the interface for incrementally updated indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "RSI").
	Name() string

	// Update feeds a new price and recalculates.
	Update(price float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool

	// Peek computes what Value() would be if price were added next,
	// WITHOUT mutating internal state.
	Peek(price float64) float64
}

var _ Indicator = (*RSI)(nil)

// Round2 rounds v to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func allFinite(vs []float64) bool {
	for _, v := range vs {
		if !isFinite(v) {
			return false
		}
	}
	return true
}
