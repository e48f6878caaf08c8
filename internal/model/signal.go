package model

// TradeSignal is an inbound request to consider buying an instrument.
// At least one of RSI or a sufficiently long Closes must yield a defined RSI.
type TradeSignal struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	RSI    *float64  `json:"rsi,omitempty"`
	Closes []float64 `json:"closes,omitempty"`

	// Force confirms an explicit override of an advisory risk block.
	Force bool `json:"force,omitempty"`
}

// Status is the outcome label of a trade decision.
type Status string

const (
	StatusBought            Status = "Bought"
	StatusIgnored           Status = "Ignored"
	StatusInvalidInput      Status = "Invalid Input"
	StatusDailyLimitHit     Status = "Daily Limit Hit"
	StatusInsufficientFunds Status = "Insufficient Funds"
	StatusRiskBlocked       Status = "Risk Blocked"
	StatusSold              Status = "Sold"
	StatusLiquidated        Status = "Liquidated"
	StatusError             Status = "Error"
)

// Decision is the result of evaluating a TradeSignal.
type Decision struct {
	Status   Status    `json:"status"`
	Message  string    `json:"message"`
	Symbol   string    `json:"symbol,omitempty"`
	RSI      *float64  `json:"rsi,omitempty"`
	Position *Position `json:"position,omitempty"`
	Headline string    `json:"headline,omitempty"`
}
