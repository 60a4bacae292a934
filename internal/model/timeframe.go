package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Timeframe is a prediction horizon: a string tag plus its canonical
// duration. Tags are open-ended ("1h", "4h", "24h", "7d", "30d", or a
// derived minute tag like "10m") — the rest of the pipeline only ever
// looks at the duration, so arbitrary horizons compose uniformly.
type Timeframe struct {
	Tag     string        `json:"tag"`
	Horizon time.Duration `json:"horizon"`
}

func (tf Timeframe) String() string { return tf.Tag }

// Hours returns the horizon in fractional hours.
func (tf Timeframe) Hours() float64 {
	return tf.Horizon.Hours()
}

// ParseTimeframe parses a tag of the form "<n>m", "<n>h" or "<n>d".
func ParseTimeframe(tag string) (Timeframe, error) {
	tag = strings.TrimSpace(tag)
	if len(tag) < 2 {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q", tag)
	}
	unit := tag[len(tag)-1]
	n, err := strconv.Atoi(tag[:len(tag)-1])
	if err != nil || n <= 0 {
		return Timeframe{}, fmt.Errorf("invalid timeframe %q", tag)
	}
	var d time.Duration
	switch unit {
	case 'm':
		d = time.Duration(n) * time.Minute
	case 'h':
		d = time.Duration(n) * time.Hour
	case 'd':
		d = time.Duration(n) * 24 * time.Hour
	default:
		return Timeframe{}, fmt.Errorf("invalid timeframe unit %q", tag)
	}
	return Timeframe{Tag: tag, Horizon: d}, nil
}

// TimeframeFromInterval derives a minute-tag timeframe from a run
// interval, e.g. 10*time.Minute → "10m". Sub-minute intervals round up
// to one minute.
func TimeframeFromInterval(interval time.Duration) Timeframe {
	mins := int(interval.Round(time.Minute) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	return Timeframe{
		Tag:     strconv.Itoa(mins) + "m",
		Horizon: time.Duration(mins) * time.Minute,
	}
}

// ParseTimeframes parses a comma-separated tag list into timeframes,
// skipping invalid entries, deduplicating by tag, sorted by horizon.
func ParseTimeframes(s string) []Timeframe {
	parts := strings.Split(s, ",")
	seen := make(map[string]bool, len(parts))
	tfs := make([]Timeframe, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		tf, err := ParseTimeframe(p)
		if err != nil || seen[tf.Tag] {
			continue
		}
		seen[tf.Tag] = true
		tfs = append(tfs, tf)
	}
	sort.Slice(tfs, func(i, j int) bool { return tfs[i].Horizon < tfs[j].Horizon })
	return tfs
}
