package model

import (
	"encoding/json"
	"time"
)

// Observation is a single stored market data point for the tracked asset.
// Observations are produced by the external collector; the engine only
// ever reads them. Volume, High and Low are optional — sources differ in
// what they report.
type Observation struct {
	Timestamp time.Time `json:"timestamp"` // UTC
	Price     float64   `json:"price"`
	Volume    *float64  `json:"volume,omitempty"`
	High      *float64  `json:"high,omitempty"`
	Low       *float64  `json:"low,omitempty"`
	Source    string    `json:"source"`
}

// JSON returns the JSON-encoded observation.
func (o *Observation) JSON() []byte {
	b, _ := json.Marshal(o)
	return b
}
