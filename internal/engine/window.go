package engine

import (
	"sort"

	"forecast-systemv1/internal/model"
)

// BuildWindow normalizes raw observations into the analysis window:
// ascending by timestamp, deduplicated (last write wins), non-positive
// prices dropped. Returns ErrInsufficientData only when nothing usable
// remains — a short window is fine, it just leaves long-period
// indicators unavailable.
func BuildWindow(obs []model.Observation) ([]model.Observation, error) {
	window := make([]model.Observation, 0, len(obs))
	for i := range obs {
		if obs[i].Price > 0 {
			window = append(window, obs[i])
		}
	}
	if len(window) == 0 {
		return nil, model.ErrInsufficientData
	}

	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Timestamp.Before(window[j].Timestamp)
	})

	// Dedup by timestamp, keeping the later entry.
	out := window[:0]
	for i := range window {
		if len(out) > 0 && out[len(out)-1].Timestamp.Equal(window[i].Timestamp) {
			out[len(out)-1] = window[i]
			continue
		}
		out = append(out, window[i])
	}
	return out, nil
}
