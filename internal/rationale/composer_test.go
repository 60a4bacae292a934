package rationale

import (
	"strings"
	"testing"
	"time"

	"forecast-systemv1/internal/model"
)

func fullFacts() Facts {
	return Facts{
		Timeframe:      model.Timeframe{Tag: "4h", Horizon: 4 * time.Hour},
		CurrentPrice:   0.25000000,
		PredictedPrice: 0.26250000,
		Verdict:        model.TrendVerdict{Direction: model.TrendBullish, Strength: 0.7},
		Set: &model.IndicatorSet{
			CurrentPrice: 0.25,
			RSI:          &model.RSIValue{Value: 28.5, Zone: model.RSIOversold},
			SMA:          map[int]float64{20: 0.24, 50: 0.23},
			MACD:         &model.MACDValue{Histogram: 0.001, Momentum: model.MACDBullish},
			Volume:       &model.VolumeValue{Ratio: 2.1, Level: model.VolumeHigh},
		},
	}
}

func TestCompose_FieldOrder(t *testing.T) {
	out := Compose(fullFacts())
	fields := strings.Split(out, Delimiter)

	if len(fields) < 7 {
		t.Fatalf("expected at least 7 fields, got %d: %q", len(fields), out)
	}

	prefixes := []string{
		"Analysis for 4 hours timeframe:",
		"Current price: $0.25000000",
		"Predicted price: $0.26250000 (5.00% increase)",
		"Trend: BULLISH",
		"RSI (28.50) indicates oversold conditions",
		"MACD is above signal line (bullish momentum)",
		"Volume is high (2.10x average)",
	}
	for i, want := range prefixes {
		if fields[i] != want {
			t.Errorf("field %d = %q, want %q", i, fields[i], want)
		}
	}
}

func TestCompose_Deterministic(t *testing.T) {
	f := fullFacts()
	first := Compose(f)
	for i := 0; i < 5; i++ {
		if got := Compose(f); got != first {
			t.Fatalf("rationale drifted on repeat %d", i)
		}
	}
}

func TestCompose_DecreaseDirection(t *testing.T) {
	f := fullFacts()
	f.PredictedPrice = 0.2375
	f.Verdict = model.TrendVerdict{Direction: model.TrendBearish, Strength: -0.6}

	out := Compose(f)
	if !strings.Contains(out, "(5.00% decrease)") {
		t.Errorf("expected decrease wording, got %q", out)
	}
	if !strings.Contains(out, "Trend: BEARISH") {
		t.Errorf("expected BEARISH trend, got %q", out)
	}
}

func TestCompose_UnavailableIndicators(t *testing.T) {
	f := fullFacts()
	f.Set = &model.IndicatorSet{CurrentPrice: 0.25}

	out := Compose(f)
	for _, want := range []string{
		"RSI unavailable (insufficient history)",
		"MACD unavailable (insufficient history)",
		"Volume data unavailable",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestCompose_SMAAlignmentNote(t *testing.T) {
	f := fullFacts()
	// price 0.25 > SMA20 0.24 > SMA50 0.23
	out := Compose(f)
	if !strings.Contains(out, "Price is above both SMA 20 and SMA 50 (bullish)") {
		t.Errorf("missing bullish SMA note in %q", out)
	}

	f.Set.SMA = map[int]float64{20: 0.26, 50: 0.27}
	f.CurrentPrice = 0.25
	out = Compose(f)
	if !strings.Contains(out, "Price is below both SMA 20 and SMA 50 (bearish)") {
		t.Errorf("missing bearish SMA note in %q", out)
	}

	// Sandwiched price gets no alignment note either way.
	f.Set.SMA = map[int]float64{20: 0.24, 50: 0.26}
	out = Compose(f)
	if strings.Contains(out, "SMA 20 and SMA 50") {
		t.Errorf("unexpected SMA note for sandwiched price: %q", out)
	}
}

func TestCompose_LongHorizonUncertaintyNote(t *testing.T) {
	f := fullFacts()
	f.Timeframe = model.Timeframe{Tag: "7d", Horizon: 7 * 24 * time.Hour}
	out := Compose(f)
	if !strings.Contains(out, "Longer-term predictions (7 days) have higher uncertainty") {
		t.Errorf("missing uncertainty note in %q", out)
	}

	f.Timeframe = model.Timeframe{Tag: "24h", Horizon: 24 * time.Hour}
	out = Compose(f)
	if strings.Contains(out, "higher uncertainty") {
		t.Errorf("uncertainty note should only appear at 7d and beyond: %q", out)
	}
}

func TestComposeWith_AppendsCommentary(t *testing.T) {
	f := fullFacts()
	out := ComposeWith(f, "The confluence of oversold RSI and rising volume supports a rebound.")

	base := Compose(f)
	if !strings.HasPrefix(out, base) {
		t.Error("augmented rationale must start with the deterministic rationale")
	}
	if !strings.Contains(out, AugmentMarker) {
		t.Errorf("missing marker %q", AugmentMarker)
	}
	idx := strings.Index(out, AugmentMarker)
	if !strings.Contains(out[idx:], "supports a rebound") {
		t.Error("commentary must follow the marker")
	}
}

func TestComposeWith_EmptyCommentaryIsPlain(t *testing.T) {
	f := fullFacts()
	for _, c := range []string{"", "   ", "\n\t"} {
		if got := ComposeWith(f, c); got != Compose(f) {
			t.Errorf("blank commentary %q should yield the plain rationale", c)
		}
	}
}

func TestDisplayTimeframe(t *testing.T) {
	cases := []struct {
		tag  string
		want string
	}{
		{"1h", "1 hour"},
		{"4h", "4 hours"},
		{"24h", "24 hours"},
		{"7d", "7 days"},
		{"30d", "30 days"},
		{"10m", "10 minutes"},
		{"1m", "1 minute"},
		{"weird", "weird"},
	}
	for _, c := range cases {
		got := displayTimeframe(model.Timeframe{Tag: c.tag})
		if got != c.want {
			t.Errorf("displayTimeframe(%q) = %q, want %q", c.tag, got, c.want)
		}
	}
}
