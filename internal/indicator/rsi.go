package indicator

// DefaultRSIPeriod is the standard Wilder lookback.
const DefaultRSIPeriod = 14

// ComputeRSI calculates Wilder's Relative Strength Index over closes.
//
// The first period deltas seed avgGain/avgLoss as simple means; every later
// delta applies Wilder's smoothing avg = (avg*(period-1) + x) / period.
// Returns ok=false when len(closes) <= period or any close is non-finite.
// The result is rounded to 2 decimals; a zero avgLoss yields exactly 100.
func ComputeRSI(closes []float64, period int) (float64, bool) {
	if period < 1 || len(closes) <= period || !allFinite(closes) {
		return 0, false
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change >= 0 {
			gainSum += change
		} else {
			lossSum -= change
		}
	}

	p := float64(period)
	avgGain := gainSum / p
	avgLoss := lossSum / p

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
	}

	return rsiFromAverages(avgGain, avgLoss, true), true
}

// RSISeries returns up to points trailing RSI values for charting.
// Each value is computed independently over a growing prefix of closes,
// oldest first. Prefixes too short to define an RSI are skipped.
func RSISeries(closes []float64, period, points int) []float64 {
	if points <= 0 || period < 1 {
		return nil
	}
	start := len(closes) - points + 1
	if start < period+1 {
		start = period + 1
	}
	out := make([]float64, 0, points)
	for end := start; end <= len(closes); end++ {
		if v, ok := ComputeRSI(closes[:end], period); ok {
			out = append(out, v)
		}
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64, round bool) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	v := 100.0 - (100.0 / (1.0 + rs))
	if round {
		return Round2(v)
	}
	return v
}

// RSI calculates the Relative Strength Index incrementally using Wilder's
// smoothing. Update is O(1) per price, no history scans.
//
// Fed the same closes, Round2(Value()) equals ComputeRSI.
type RSI struct {
	period    int
	count     int
	prevClose float64
	avgGain   float64
	avgLoss   float64
	current   float64
}

// NewRSI creates a new RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	if period < 1 {
		period = DefaultRSIPeriod
	}
	return &RSI{period: period}
}

func (r *RSI) Name() string { return "RSI" }

// Update feeds the next close. Non-finite prices are ignored.
func (r *RSI) Update(price float64) {
	if !isFinite(price) {
		return
	}
	r.count++

	if r.count == 1 {
		// First price, just record it, no delta yet
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}

	if r.count <= r.period+1 {
		// Accumulation phase: build initial averages
		r.avgGain += gain
		r.avgLoss += loss

		if r.count == r.period+1 {
			r.avgGain /= float64(r.period)
			r.avgLoss /= float64(r.period)
			r.current = rsiFromAverages(r.avgGain, r.avgLoss, false)
		}
		return
	}

	p := float64(r.period)
	r.avgGain = (r.avgGain*(p-1) + gain) / p
	r.avgLoss = (r.avgLoss*(p-1) + loss) / p
	r.current = rsiFromAverages(r.avgGain, r.avgLoss, false)
}

func (r *RSI) Value() float64 { return r.current }
func (r *RSI) Ready() bool    { return r.count > r.period }

// Peek computes what RSI would be with an additional price without mutating state.
func (r *RSI) Peek(price float64) float64 {
	if r.count <= r.period || !isFinite(price) {
		return r.current
	}
	delta := price - r.prevClose
	gain, loss := 0.0, 0.0
	if delta > 0 {
		gain = delta
	} else {
		loss = -delta
	}
	p := float64(r.period)
	ag := (r.avgGain*(p-1) + gain) / p
	al := (r.avgLoss*(p-1) + loss) / p
	return rsiFromAverages(ag, al, false)
}

// RSIState is the serialized state of an incremental RSI.
type RSIState struct {
	Period    int     `json:"period"`
	Count     int     `json:"count"`
	PrevClose float64 `json:"prev_close,omitempty"`
	AvgGain   float64 `json:"avg_gain,omitempty"`
	AvgLoss   float64 `json:"avg_loss,omitempty"`
	Current   float64 `json:"current"`
}

// Snapshot serializes the RSI state.
func (r *RSI) Snapshot() RSIState {
	return RSIState{
		Period:    r.period,
		Count:     r.count,
		PrevClose: r.prevClose,
		AvgGain:   r.avgGain,
		AvgLoss:   r.avgLoss,
		Current:   r.current,
	}
}

// Restore replaces the RSI state with a previously captured snapshot.
func (r *RSI) Restore(s RSIState) {
	r.period = s.Period
	r.count = s.Count
	r.prevClose = s.PrevClose
	r.avgGain = s.AvgGain
	r.avgLoss = s.AvgLoss
	r.current = s.Current
}
