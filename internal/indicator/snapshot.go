// Package indicator derives moving averages, resampled series and running
// extremes from daily price history. Everything here is a pure function of its
// input: recomputing on the same series yields bit-identical output.
package indicator

import (
	"math"

	"github.com/yourusername/market-lens/internal/models"
)

// VolumeAvgWindow is the rolling window used for the volume average column
const VolumeAvgWindow = 20

// Snapshot is a read-only view of indicator columns aligned index-for-index
// with the series it was computed from. Undefined values (insufficient
// trailing history) are NaN; consumers must treat them as "no signal".
type Snapshot struct {
	size   int
	sma    map[int][]float64
	ath    []float64
	volAvg []float64
}

// Compute builds a snapshot over bars with a simple moving average for every
// requested window, the running all-time high of the High column, and a
// 20-day rolling volume average.
func Compute(bars models.PriceSeries, windows ...int) *Snapshot {
	snap := &Snapshot{
		size: len(bars),
		sma:  make(map[int][]float64, len(windows)),
	}
	closes := bars.Closes()
	for _, w := range windows {
		if _, ok := snap.sma[w]; !ok {
			snap.sma[w] = SMA(closes, w)
		}
	}

	snap.ath = make([]float64, len(bars))
	peak := math.Inf(-1)
	for i, bar := range bars {
		if bar.High > peak {
			peak = bar.High
		}
		snap.ath[i] = peak
	}

	volumes := make([]float64, len(bars))
	for i, bar := range bars {
		volumes[i] = bar.Volume
	}
	snap.volAvg = SMA(volumes, VolumeAvgWindow)

	return snap
}

// Len returns the number of bars the snapshot covers
func (s *Snapshot) Len() int { return s.size }

// SMA returns the moving-average column for window, or nil if the window was
// not requested at Compute time.
func (s *Snapshot) SMA(window int) []float64 { return s.sma[window] }

// SMAAt returns the moving average for window at index i and whether it is
// defined there.
func (s *Snapshot) SMAAt(window, i int) (float64, bool) {
	col := s.sma[window]
	if col == nil || i < 0 || i >= len(col) {
		return math.NaN(), false
	}
	return col[i], !math.IsNaN(col[i])
}

// ATH returns the running all-time-high column
func (s *Snapshot) ATH() []float64 { return s.ath }

// VolumeAvg returns the rolling volume average column
func (s *Snapshot) VolumeAvg() []float64 { return s.volAvg }

// SMA computes a trailing simple moving average: out[i] is the mean of
// values[i-window+1..i], NaN for i < window-1.
func SMA(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 0 {
		for i := range out {
			out[i] = math.NaN()
		}
		return out
	}
	sum := 0.0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Defined reports whether an indicator value is usable
func Defined(v float64) bool {
	return !math.IsNaN(v)
}
