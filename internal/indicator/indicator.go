// Package indicator provides technical indicator calculations over an
// ordered price/volume window.
//
// All indicators implement the Indicator interface, receiving prices and
// producing float64 values. Instances are cheap and single-use: the
// calculator creates a fresh set per analysis run, feeds the window
// through them, and reads the final values — the package stays a pure
// function of the input series with no shared state.
package indicator

// Indicator is the interface for streaming technical indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA_20", "RSI_14").
	Name() string

	// Update feeds the next price and recalculates.
	Update(price float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}
