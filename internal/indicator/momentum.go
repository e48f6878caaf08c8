package indicator

import "math"

// MomentumLabel classifies the signed window momentum.
type MomentumLabel string

const (
	StrongBull MomentumLabel = "STRONG_BULL"
	Bullish    MomentumLabel = "BULLISH"
	Neutral    MomentumLabel = "NEUTRAL"
	Bearish    MomentumLabel = "BEARISH"
	StrongBear MomentumLabel = "STRONG_BEAR"
)

// Momentum label thresholds on (last-first)/first.
const (
	strongThreshold = 0.006
	mildThreshold   = 0.002
)

// Momentum summarises the move and noise over a bounded price window.
type Momentum struct {
	Label      MomentumLabel `json:"label"`
	Strength   int           `json:"strength"`   // [0, 100]
	Volatility float64       `json:"volatility"` // sample stddev of simple returns
}

// ComputeMomentum classifies the window. Fewer than 3 samples, or a zero or
// non-finite first value, yields {NEUTRAL, 0, 0}.
func ComputeMomentum(window []float64) Momentum {
	flat := Momentum{Label: Neutral}
	if len(window) < 3 {
		return flat
	}
	first, last := window[0], window[len(window)-1]
	if first == 0 || !isFinite(first) || !isFinite(last) {
		return flat
	}

	m := (last - first) / first
	strength := int(math.Round(math.Abs(m) * 10000))
	if strength > 100 {
		strength = 100
	}

	return Momentum{
		Label:      labelFor(m),
		Strength:   strength,
		Volatility: returnsStdDev(window),
	}
}

func labelFor(m float64) MomentumLabel {
	switch {
	case m >= strongThreshold:
		return StrongBull
	case m >= mildThreshold:
		return Bullish
	case m <= -strongThreshold:
		return StrongBear
	case m <= -mildThreshold:
		return Bearish
	default:
		return Neutral
	}
}

// returnsStdDev is the sample standard deviation of period-over-period
// returns. Pairs with a non-finite value or zero denominator are skipped.
func returnsStdDev(window []float64) float64 {
	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		prev, cur := window[i-1], window[i]
		if !isFinite(prev) || !isFinite(cur) || prev == 0 {
			continue
		}
		returns = append(returns, (cur-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	return math.Sqrt(sq / float64(len(returns)-1))
}
