// Package rationale renders an analysis into its explanation string.
// The output is deterministic — fixed field order, " | " delimiter —
// so the dashboard can both display it and re-parse it mechanically.
// Optional augmented commentary is appended as a separate section and
// never replaces the structured fields.
package rationale

import (
	"fmt"
	"strconv"
	"strings"

	"forecast-systemv1/internal/model"
)

// Delimiter separates the structured fields.
const Delimiter = " | "

// AugmentMarker separates the structured rationale from augmented
// free-form commentary.
const AugmentMarker = "--- Enhanced Analysis ---"

// Facts is everything the composer needs for one timeframe.
type Facts struct {
	Timeframe      model.Timeframe
	CurrentPrice   float64
	PredictedPrice float64
	Verdict        model.TrendVerdict
	Set            *model.IndicatorSet
}

// Compose renders the deterministic rationale. Field order is fixed:
// header, current price, predicted price with signed change, trend,
// RSI, MACD, volume — then supplementary notes.
func Compose(f Facts) string {
	parts := make([]string, 0, 10)

	parts = append(parts, fmt.Sprintf("Analysis for %s timeframe:", displayTimeframe(f.Timeframe)))
	parts = append(parts, fmt.Sprintf("Current price: $%.8f", f.CurrentPrice))

	changePct := 0.0
	if f.CurrentPrice != 0 {
		changePct = (f.PredictedPrice - f.CurrentPrice) / f.CurrentPrice * 100
	}
	direction := "increase"
	if changePct < 0 {
		direction = "decrease"
	}
	parts = append(parts, fmt.Sprintf("Predicted price: $%.8f (%.2f%% %s)", f.PredictedPrice, abs(changePct), direction))

	parts = append(parts, fmt.Sprintf("Trend: %s", strings.ToUpper(string(f.Verdict.Direction))))

	parts = append(parts, rsiField(f.Set))
	parts = append(parts, macdField(f.Set))
	parts = append(parts, volumeField(f.Set))

	// Supplementary notes after the required fields.
	if s20, ok := f.Set.SMA[20]; ok {
		if s50, ok := f.Set.SMA[50]; ok {
			if f.CurrentPrice > s20 && s20 > s50 {
				parts = append(parts, "Price is above both SMA 20 and SMA 50 (bullish)")
			} else if f.CurrentPrice < s20 && s20 < s50 {
				parts = append(parts, "Price is below both SMA 20 and SMA 50 (bearish)")
			}
		}
	}
	if f.Timeframe.Hours() >= 168 {
		parts = append(parts, fmt.Sprintf("Note: Longer-term predictions (%s) have higher uncertainty", displayTimeframe(f.Timeframe)))
	}

	return strings.Join(parts, Delimiter)
}

// ComposeWith appends augmented commentary to the deterministic
// rationale. Empty commentary returns the plain rationale unchanged.
func ComposeWith(f Facts, commentary string) string {
	base := Compose(f)
	commentary = strings.TrimSpace(commentary)
	if commentary == "" {
		return base
	}
	return base + "\n\n" + AugmentMarker + "\n" + commentary
}

func rsiField(set *model.IndicatorSet) string {
	if set.RSI == nil {
		return "RSI unavailable (insufficient history)"
	}
	switch set.RSI.Zone {
	case model.RSIOversold:
		return fmt.Sprintf("RSI (%.2f) indicates oversold conditions", set.RSI.Value)
	case model.RSIOverbought:
		return fmt.Sprintf("RSI (%.2f) indicates overbought conditions", set.RSI.Value)
	default:
		return fmt.Sprintf("RSI (%.2f) is in neutral range", set.RSI.Value)
	}
}

func macdField(set *model.IndicatorSet) string {
	if set.MACD == nil {
		return "MACD unavailable (insufficient history)"
	}
	switch set.MACD.Momentum {
	case model.MACDBullish:
		return "MACD is above signal line (bullish momentum)"
	case model.MACDBearish:
		return "MACD is below signal line (bearish momentum)"
	default:
		return "MACD is flat (no clear momentum)"
	}
}

func volumeField(set *model.IndicatorSet) string {
	if set.Volume == nil {
		return "Volume data unavailable"
	}
	return fmt.Sprintf("Volume is %s (%.2fx average)", set.Volume.Level, set.Volume.Ratio)
}

// displayTimeframe expands a tag like "4h" into "4 hours".
func displayTimeframe(tf model.Timeframe) string {
	tag := tf.Tag
	if len(tag) < 2 {
		return tag
	}
	n, err := strconv.Atoi(tag[:len(tag)-1])
	if err != nil {
		return tag
	}
	var unit string
	switch tag[len(tag)-1] {
	case 'm':
		unit = "minute"
	case 'h':
		unit = "hour"
	case 'd':
		unit = "day"
	default:
		return tag
	}
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
