// Package augment provides optional free-form commentary for analysis
// rationales from an external language model. It is a capability, not a
// pipeline stage: implementations are injected at construction and the
// engine behaves identically — same predicted price, same confidence —
// whether augmentation is wired in, disabled, or failing.
package augment

import (
	"context"

	"forecast-systemv1/internal/model"
)

// Facts is the structured input handed to an augmenter: everything the
// deterministic pipeline already decided, never to be contradicted.
type Facts struct {
	Timeframe      model.Timeframe
	CurrentPrice   float64
	PredictedPrice float64
	Verdict        model.TrendVerdict
	Set            *model.IndicatorSet
	BasicReasoning string
}

// Augmenter generates enhanced commentary for a rationale.
type Augmenter interface {
	// Enhance returns free-form commentary text for the given facts.
	// Any error means the caller falls back to the deterministic
	// rationale — augmentation failures never abort a run.
	Enhance(ctx context.Context, f Facts) (string, error)
}

// Noop is the default augmenter: no commentary, never fails.
type Noop struct{}

// NewNoop creates the no-op augmenter.
func NewNoop() *Noop { return &Noop{} }

func (*Noop) Enhance(ctx context.Context, f Facts) (string, error) {
	return "", nil
}
