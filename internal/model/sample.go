package model

import "time"

// PriceSample is a single scalar price observation for the active instrument.
type PriceSample struct {
	Symbol string    `json:"symbol"`
	Price  float64   `json:"price"`
	TS     time.Time `json:"ts"` // UTC sampling time
}

// Key returns the instrument key for this sample.
func (s *PriceSample) Key() string {
	return s.Symbol
}
