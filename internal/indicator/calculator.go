package indicator

import (
	"forecast-systemv1/internal/model"
)

// Config selects the indicator set computed per analysis run. Periods
// longer than the available window leave that indicator out of the
// result rather than zero-filling it.
type Config struct {
	RSIPeriod       int
	SMAPeriods      []int
	EMAPeriods      []int
	MACDFast        int
	MACDSlow        int
	MACDSignal      int
	BollingerPeriod int
	BollingerStdDev float64

	// MACDNeutralBand classifies MACD as neutral while the histogram
	// stays within this fraction of the current price, so near-equal
	// lines don't flap between bullish and bearish on noise.
	MACDNeutralBand float64
}

// DefaultConfig returns the standard indicator selection:
// RSI(14), SMA 20/50/200, EMA 12/26, MACD(12,26,9), Bollinger(20, 2σ).
func DefaultConfig() Config {
	return Config{
		RSIPeriod:       14,
		SMAPeriods:      []int{20, 50, 200},
		EMAPeriods:      []int{12, 26},
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
		MACDNeutralBand: 0.0005,
	}
}

// Calculate computes all configured indicators over an ordered
// observation window. Pure and deterministic: identical input yields an
// identical set. Requires at least one observation; callers guarantee
// the window is non-empty, ascending and deduplicated.
func Calculate(cfg Config, window []model.Observation) *model.IndicatorSet {
	rsi := NewRSI(cfg.RSIPeriod)
	macd := NewMACD(cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	bb := NewBollinger(cfg.BollingerPeriod, cfg.BollingerStdDev)

	smas := make([]*SMA, len(cfg.SMAPeriods))
	for i, p := range cfg.SMAPeriods {
		smas[i] = NewSMA(p)
	}
	emas := make([]*EMA, len(cfg.EMAPeriods))
	for i, p := range cfg.EMAPeriods {
		emas[i] = NewEMA(p)
	}

	volumeSum := 0.0
	volumeCount := 0

	for _, obs := range window {
		rsi.Update(obs.Price)
		macd.Update(obs.Price)
		bb.Update(obs.Price)
		for _, s := range smas {
			s.Update(obs.Price)
		}
		for _, e := range emas {
			e.Update(obs.Price)
		}
		if obs.Volume != nil {
			volumeSum += *obs.Volume
			volumeCount++
		}
	}

	last := window[len(window)-1]
	set := &model.IndicatorSet{CurrentPrice: last.Price}

	if len(window) >= 2 {
		prev := window[len(window)-2].Price
		if prev != 0 {
			pct := (last.Price - prev) / prev * 100
			set.Momentum = &pct
		}
	}

	if rsi.Ready() {
		v := rsi.Value()
		set.RSI = &model.RSIValue{Value: v, Zone: classifyRSI(v)}
	}

	for i, s := range smas {
		if s.Ready() {
			if set.SMA == nil {
				set.SMA = make(map[int]float64, len(smas))
			}
			set.SMA[cfg.SMAPeriods[i]] = s.Value()
		}
	}
	for i, e := range emas {
		if e.Ready() {
			if set.EMA == nil {
				set.EMA = make(map[int]float64, len(emas))
			}
			set.EMA[cfg.EMAPeriods[i]] = e.Value()
		}
	}

	if macd.Ready() {
		line, sig, hist := macd.Value(), macd.SignalLine(), macd.Histogram()
		set.MACD = &model.MACDValue{
			Line:      line,
			Signal:    sig,
			Histogram: hist,
			Momentum:  classifyMACD(hist, last.Price, cfg.MACDNeutralBand),
		}
	}

	if bb.Ready() {
		upper, mid, lower := bb.Bands()
		width := 0.0
		if mid != 0 {
			width = (upper - lower) / mid
		}
		set.Bollinger = &model.BollingerValue{Upper: upper, Middle: mid, Lower: lower, Width: width}
	}

	// Volume ratio only when the latest observation actually carries
	// volume — a missing reading omits the indicator instead of
	// pretending the ratio is 1.
	if last.Volume != nil && volumeCount > 0 {
		avg := volumeSum / float64(volumeCount)
		if avg > 0 {
			ratio := *last.Volume / avg
			set.Volume = &model.VolumeValue{
				Current: *last.Volume,
				Average: avg,
				Ratio:   ratio,
				Level:   classifyVolume(ratio),
			}
		}
	}

	return set
}

func classifyRSI(v float64) string {
	switch {
	case v < 30:
		return model.RSIOversold
	case v > 70:
		return model.RSIOverbought
	default:
		return model.RSINeutral
	}
}

func classifyMACD(histogram, price, band float64) string {
	tol := band * price
	if tol < 0 {
		tol = -tol
	}
	switch {
	case histogram > tol:
		return model.MACDBullish
	case histogram < -tol:
		return model.MACDBearish
	default:
		return model.MACDNeutral
	}
}

func classifyVolume(ratio float64) string {
	switch {
	case ratio > 1.5:
		return model.VolumeHigh
	case ratio < 0.5:
		return model.VolumeLow
	default:
		return model.VolumeNormal
	}
}
