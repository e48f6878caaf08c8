package indicator

import "math"

// CloseATR approximates Average True Range from closes alone: the mean
// absolute close-to-close move over the last period deltas.
// Returns ok=false when fewer than period+1 finite closes are available.
func CloseATR(closes []float64, period int) (float64, bool) {
	if period < 1 || len(closes) <= period || !allFinite(closes) {
		return 0, false
	}
	tail := closes[len(closes)-period-1:]
	var sum float64
	for i := 1; i < len(tail); i++ {
		sum += math.Abs(tail[i] - tail[i-1])
	}
	return sum / float64(period), true
}
