// Package trend fuses an indicator set into a single directional
// verdict via a fixed weighted vote. Classification is a pure function
// of the set — no history, no randomness, no external calls — so the
// same IndicatorSet always produces the same verdict and the vote order
// never matters.
package trend

import (
	"forecast-systemv1/internal/model"
)

// Weights are the per-signal vote weights. Trend-following signals
// (MACD, price vs long SMAs) weigh more than short-period oscillator
// noise. Tuned against the regression fixtures in classifier_test.go;
// override individual fields rather than guessing new absolute values.
type Weights struct {
	RSI           float64
	PriceVsSMA20  float64
	PriceVsSMA50  float64
	PriceVsSMA200 float64
	EMACross      float64 // EMA12 vs EMA26
	MACDLine      float64 // line vs signal classification
	MACDHistogram float64
	Bollinger     float64 // band-touch reversal
	Momentum      float64 // last-step price change
	VolumeConfirm float64 // high volume amplifies the prevailing side
}

// DefaultWeights returns the standard vote weighting.
func DefaultWeights() Weights {
	return Weights{
		RSI:           1.0,
		PriceVsSMA20:  1.5,
		PriceVsSMA50:  1.5,
		PriceVsSMA200: 1.0,
		EMACross:      1.5,
		MACDLine:      2.0,
		MACDHistogram: 1.0,
		Bollinger:     1.0,
		Momentum:      0.5,
		VolumeConfirm: 0.5,
	}
}

// Config holds the classifier parameters.
type Config struct {
	Weights Weights

	// DeadZone maps strengths with |s| below this bound to neutral,
	// so a near-balanced vote doesn't report a direction.
	DeadZone float64
}

// DefaultConfig returns DefaultWeights with a 0.15 dead zone.
func DefaultConfig() Config {
	return Config{Weights: DefaultWeights(), DeadZone: 0.15}
}

// Classifier turns indicator sets into trend verdicts.
type Classifier struct {
	cfg Config
}

// New creates a Classifier with the given config.
func New(cfg Config) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify computes the weighted vote over the available indicators.
// Strength is the weighted sum normalized by the total weight of the
// votes that could actually be cast, clamped to [-1,1]; unavailable
// indicators neither help nor hurt.
func (c *Classifier) Classify(set *model.IndicatorSet) model.TrendVerdict {
	w := c.cfg.Weights
	sum := 0.0
	total := 0.0

	vote := func(v int, weight float64) {
		sum += float64(v) * weight
		total += weight
	}

	if set.RSI != nil {
		switch set.RSI.Zone {
		case model.RSIOversold:
			vote(1, w.RSI) // oversold: bounce expected
		case model.RSIOverbought:
			vote(-1, w.RSI)
		default:
			vote(0, w.RSI)
		}
	}

	price := set.CurrentPrice
	if v, ok := set.SMA[20]; ok {
		vote(sign(price-v), w.PriceVsSMA20)
	}
	if v, ok := set.SMA[50]; ok {
		vote(sign(price-v), w.PriceVsSMA50)
	}
	if v, ok := set.SMA[200]; ok {
		vote(sign(price-v), w.PriceVsSMA200)
	}

	if fast, ok := set.EMA[12]; ok {
		if slow, ok := set.EMA[26]; ok {
			vote(sign(fast-slow), w.EMACross)
		}
	}

	if set.MACD != nil {
		switch set.MACD.Momentum {
		case model.MACDBullish:
			vote(1, w.MACDLine)
		case model.MACDBearish:
			vote(-1, w.MACDLine)
		default:
			vote(0, w.MACDLine)
		}
		vote(sign(set.MACD.Histogram), w.MACDHistogram)
	}

	if set.Bollinger != nil {
		switch {
		case price < set.Bollinger.Lower:
			vote(1, w.Bollinger) // at the lower band: potential bounce
		case price > set.Bollinger.Upper:
			vote(-1, w.Bollinger)
		default:
			vote(0, w.Bollinger)
		}
	}

	if set.Momentum != nil {
		switch {
		case *set.Momentum > 1.0:
			vote(1, w.Momentum)
		case *set.Momentum < -1.0:
			vote(-1, w.Momentum)
		default:
			vote(0, w.Momentum)
		}
	}

	// High volume confirms whichever side the vote already leans to.
	// Depends only on the aggregate sign, so the fusion stays
	// order-independent.
	if set.Volume != nil && set.Volume.Level == model.VolumeHigh {
		vote(sign(sum), w.VolumeConfirm)
	}

	if total == 0 {
		return model.TrendVerdict{Direction: model.TrendNeutral, Strength: 0}
	}

	strength := sum / total
	if strength > 1 {
		strength = 1
	} else if strength < -1 {
		strength = -1
	}

	dir := model.TrendNeutral
	if strength > c.cfg.DeadZone {
		dir = model.TrendBullish
	} else if strength < -c.cfg.DeadZone {
		dir = model.TrendBearish
	}
	return model.TrendVerdict{Direction: dir, Strength: strength}
}

func sign(v float64) int {
	if v > 0 {
		return 1
	}
	if v < 0 {
		return -1
	}
	return 0
}
