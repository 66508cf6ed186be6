package contracts

import "time"

// SymbolRecord is one normalized feed row; fetched fresh for every trigger
type SymbolRecord struct {
	Symbol    string    `json:"symbol"`
	Name      *string   `json:"name,omitempty"`
	Price     *float64  `json:"price,omitempty"`
	Volume    *float64  `json:"volume,omitempty"`
	AvgVolume *float64  `json:"avg_volume,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Split is a corporate split effective today
type Split struct {
	Numerator   float64 `json:"numerator"`
	Denominator float64 `json:"denominator"`
}

// Splits maps symbol to its split
type Splits map[string]Split
