package indicator

import (
	"math"
	"strconv"
)

// Bollinger calculates Bollinger Bands: an SMA middle band with upper
// and lower bands at ±k standard deviations. Keeps the window in a
// circular buffer like SMA; the deviation is recomputed from the buffer
// on read, which is fine at the window sizes used here.
type Bollinger struct {
	period int
	stddev float64
	buf    []float64
	idx    int
	count  int
	sum    float64
}

// NewBollinger creates a Bollinger Bands indicator (typically 20, 2.0).
func NewBollinger(period int, stddev float64) *Bollinger {
	return &Bollinger{
		period: period,
		stddev: stddev,
		buf:    make([]float64, period),
	}
}

func (b *Bollinger) Name() string { return "BB_" + strconv.Itoa(b.period) }

func (b *Bollinger) Update(price float64) {
	if b.count >= b.period {
		b.sum -= b.buf[b.idx]
	}
	b.buf[b.idx] = price
	b.sum += price
	b.idx = (b.idx + 1) % b.period
	b.count++
}

// Value returns the middle band (SMA).
func (b *Bollinger) Value() float64 {
	if !b.Ready() {
		return 0
	}
	return b.sum / float64(b.period)
}

// Bands returns (upper, middle, lower).
func (b *Bollinger) Bands() (float64, float64, float64) {
	if !b.Ready() {
		return 0, 0, 0
	}
	mid := b.sum / float64(b.period)
	variance := 0.0
	for _, p := range b.buf {
		d := p - mid
		variance += d * d
	}
	sd := math.Sqrt(variance / float64(b.period))
	return mid + b.stddev*sd, mid, mid - b.stddev*sd
}

func (b *Bollinger) Ready() bool { return b.count >= b.period }
