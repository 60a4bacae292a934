// Package predict turns a trend verdict into a per-timeframe price
// forecast with a confidence score. Pure compute — persistence and
// rationale rendering happen upstream in the engine.
package predict

import (
	"math"

	"forecast-systemv1/internal/model"
)

// Config holds the tunable prediction parameters. The drift envelope
// and penalty values were carried over from the tracked system's
// empirical tuning; the regression tests in predictor_test.go pin the
// behavior they produce.
type Config struct {
	// Drift cap curve: a horizon of h hours may move the prediction at
	// most min(MaxDriftPct, BaseDriftPct*sqrt(h)) percent from the
	// current price. With the defaults that yields ≈2% at 1h, ≈4% at
	// 4h, ≈10% at 24h and caps long horizons at 40%.
	BaseDriftPct float64
	MaxDriftPct  float64

	// VolatilityRef is the Bollinger band width at which drift is
	// damped to half. Wider bands pull the drift further toward zero.
	VolatilityRef float64

	// MinIndicators is the availability threshold: sets with fewer
	// computed indicators take the ShortHistoryPenalty on confidence.
	MinIndicators       int
	ShortHistoryPenalty int

	// MaxConfidence caps the score below 100 — a forecast is never
	// reported as certain.
	MaxConfidence int
}

// DefaultConfig returns the standard prediction parameters.
func DefaultConfig() Config {
	return Config{
		BaseDriftPct:        2.0,
		MaxDriftPct:         40.0,
		VolatilityRef:       0.08,
		MinIndicators:       5,
		ShortHistoryPenalty: 15,
		MaxConfidence:       95,
	}
}

// Prediction is the forecast for one timeframe.
type Prediction struct {
	Timeframe      model.Timeframe
	PredictedPrice float64
	Confidence     int // [0, MaxConfidence]
}

// Predictor computes predictions from indicator sets and trend verdicts.
type Predictor struct {
	cfg Config
}

// New creates a Predictor with the given config.
func New(cfg Config) *Predictor {
	return &Predictor{cfg: cfg}
}

// Predict produces the forecast for one timeframe. The timeframe is
// just a horizon value — a dynamic "10m" tag goes through the same
// cap curve as the fixed set.
func (p *Predictor) Predict(set *model.IndicatorSet, verdict model.TrendVerdict, tf model.Timeframe) Prediction {
	price := set.CurrentPrice
	drift := verdict.Strength * p.maxDrift(tf) / 100
	drift *= p.volatilityDamp(set)

	predicted := price * (1 + drift)

	// Bollinger bands act as soft support/resistance: the forecast
	// stays within a small margin outside the bands.
	if set.Bollinger != nil {
		predicted = math.Max(set.Bollinger.Lower*0.95, math.Min(set.Bollinger.Upper*1.05, predicted))
	}

	return Prediction{
		Timeframe:      tf,
		PredictedPrice: round8(predicted),
		Confidence:     p.confidence(set, verdict, tf),
	}
}

// maxDrift returns the per-horizon drift cap in percent.
func (p *Predictor) maxDrift(tf model.Timeframe) float64 {
	capPct := p.cfg.BaseDriftPct * math.Sqrt(tf.Hours())
	return math.Min(p.cfg.MaxDriftPct, math.Max(capPct, p.cfg.BaseDriftPct))
}

// volatilityDamp maps the Bollinger width to a (0,1] damping factor:
// 1 at zero width, 0.5 at VolatilityRef. No bands, no damping.
func (p *Predictor) volatilityDamp(set *model.IndicatorSet) float64 {
	if set.Bollinger == nil || p.cfg.VolatilityRef <= 0 {
		return 1.0
	}
	return p.cfg.VolatilityRef / (p.cfg.VolatilityRef + set.Bollinger.Width)
}

// confidence scores the forecast 0..MaxConfidence. Monotone in
// |strength| and in the number of available indicators; penalized for
// long horizons, short history and conflicting moving averages.
func (p *Predictor) confidence(set *model.IndicatorSet, verdict model.TrendVerdict, tf model.Timeframe) int {
	conf := 50

	// Longer horizons start lower: ≈0 at 1h, -4 at 24h, -12 at 7d,
	// -26 at 30d (matches the tracked system's per-tag table).
	horizonPenalty := int(math.Round(math.Sqrt(tf.Hours()))) - 1
	if horizonPenalty > 0 {
		conf -= horizonPenalty
	}

	available := set.Available()
	conf += min(20, available*2)

	if verdict.Direction != model.TrendNeutral {
		conf += 10
	}
	conf += int(math.Round(15 * math.Abs(verdict.Strength)))

	// Extreme RSI zones are stronger signals.
	if set.RSI != nil {
		switch v := set.RSI.Value; {
		case v < 25 || v > 75:
			conf += 10
		case (v > 30 && v < 40) || (v > 60 && v < 70):
			conf += 5
		}
	}

	if available < p.cfg.MinIndicators {
		conf -= p.cfg.ShortHistoryPenalty
	}

	// Price sandwiched between the short and medium SMA reads as
	// conflicting signals.
	if s20, ok := set.SMA[20]; ok {
		if s50, ok := set.SMA[50]; ok {
			price := set.CurrentPrice
			if (price > s20 && price < s50) || (price < s20 && price > s50) {
				conf -= 10
			}
		}
	}

	if conf < 0 {
		conf = 0
	}
	if conf > p.cfg.MaxConfidence {
		conf = p.cfg.MaxConfidence
	}
	return conf
}

func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
