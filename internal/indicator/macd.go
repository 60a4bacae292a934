package indicator

import "strconv"

// MACD calculates Moving Average Convergence Divergence: the fast/slow
// EMA spread plus a signal EMA over the spread. The signal line starts
// accumulating only once the slow EMA is seeded, so Ready flips after
// slowPeriod + signalPeriod prices.
type MACD struct {
	fast   *EMA
	slow   *EMA
	signal *EMA
}

// NewMACD creates a MACD indicator (typically 12, 26, 9).
func NewMACD(fastPeriod, slowPeriod, signalPeriod int) *MACD {
	return &MACD{
		fast:   NewEMA(fastPeriod),
		slow:   NewEMA(slowPeriod),
		signal: NewEMA(signalPeriod),
	}
}

func (m *MACD) Name() string {
	return "MACD_" + strconv.Itoa(m.fast.period) + "_" + strconv.Itoa(m.slow.period) + "_" + strconv.Itoa(m.signal.period)
}

func (m *MACD) Update(price float64) {
	m.fast.Update(price)
	m.slow.Update(price)
	if m.slow.Ready() {
		m.signal.Update(m.fast.Value() - m.slow.Value())
	}
}

// Value returns the MACD line (fast EMA − slow EMA).
func (m *MACD) Value() float64 {
	if !m.slow.Ready() {
		return 0
	}
	return m.fast.Value() - m.slow.Value()
}

// SignalLine returns the signal EMA over the MACD line.
func (m *MACD) SignalLine() float64 { return m.signal.Value() }

// Histogram returns MACD line − signal line.
func (m *MACD) Histogram() float64 { return m.Value() - m.signal.Value() }

func (m *MACD) Ready() bool { return m.slow.Ready() && m.signal.Ready() }
