package model

import "encoding/json"

// Classification labels shared between the indicator calculator, the
// trend classifier and the rationale composer.
const (
	RSIOversold   = "oversold"
	RSIOverbought = "overbought"
	RSINeutral    = "neutral"

	MACDBullish = "bullish"
	MACDBearish = "bearish"
	MACDNeutral = "neutral"

	VolumeHigh   = "high"
	VolumeLow    = "low"
	VolumeNormal = "normal"
)

// RSIValue is the Relative Strength Index with its zone classification.
type RSIValue struct {
	Value float64 `json:"value"` // [0,100]
	Zone  string  `json:"zone"`  // oversold / overbought / neutral
}

// MACDValue holds the MACD line, signal line and histogram, plus the
// line-vs-signal momentum classification (with a tolerance band so
// near-equal lines read neutral instead of flapping).
type MACDValue struct {
	Line      float64 `json:"line"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Momentum  string  `json:"momentum"` // bullish / bearish / neutral
}

// BollingerValue holds the 20-period bands at ±2σ. Width is the band
// spread relative to the middle band, used as a volatility proxy.
type BollingerValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
	Width  float64 `json:"width"`
}

// VolumeValue is current volume against its trailing average.
type VolumeValue struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Ratio   float64 `json:"ratio"`
	Level   string  `json:"level"` // high / low / normal
}

// IndicatorSet is the full indicator output of one analysis run.
// Nil members mean the indicator was unavailable (not enough history,
// or no volume data). A set is built once per run and never mutated.
type IndicatorSet struct {
	CurrentPrice float64         `json:"current_price"`
	Momentum     *float64        `json:"momentum_pct,omitempty"` // last-step % change
	RSI          *RSIValue       `json:"rsi,omitempty"`
	SMA          map[int]float64 `json:"sma,omitempty"` // period → value
	EMA          map[int]float64 `json:"ema,omitempty"` // period → value
	MACD         *MACDValue      `json:"macd,omitempty"`
	Bollinger    *BollingerValue `json:"bollinger,omitempty"`
	Volume       *VolumeValue    `json:"volume,omitempty"`
}

// Available counts how many of the named indicators were computed.
// SMA and EMA count per period, matching how the confidence penalty
// treats a shortened history.
func (s *IndicatorSet) Available() int {
	n := 0
	if s.RSI != nil {
		n++
	}
	n += len(s.SMA)
	n += len(s.EMA)
	if s.MACD != nil {
		n++
	}
	if s.Bollinger != nil {
		n++
	}
	if s.Volume != nil {
		n++
	}
	return n
}

// JSON returns the serialized set for the technical_indicators column.
func (s *IndicatorSet) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
