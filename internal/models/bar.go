package models

import (
	"fmt"
	"sort"
	"time"
)

// PriceBar represents one daily OHLCV bar
type PriceBar struct {
	Date   time.Time `db:"bar_date" json:"date"`
	Open   float64   `db:"open" json:"open"`
	High   float64   `db:"high" json:"high"`
	Low    float64   `db:"low" json:"low"`
	Close  float64   `db:"close" json:"close"`
	Volume float64   `db:"volume" json:"volume"`
}

// PriceSeries is an ascending sequence of daily bars, one per trading day.
// Gaps between dates are non-trading days, never missing data.
type PriceSeries []PriceBar

// Validate checks internal consistency of the series. A malformed series is a
// fatal input error: the simulators refuse to run on it rather than repair it.
func (s PriceSeries) Validate() error {
	if len(s) == 0 {
		return ErrEmptySeries
	}
	for i, bar := range s {
		if i > 0 && !bar.Date.After(s[i-1].Date) {
			return fmt.Errorf("%w: bar %d (%s) not after bar %d (%s)",
				ErrUnorderedSeries, i, bar.Date.Format("2006-01-02"), i-1, s[i-1].Date.Format("2006-01-02"))
		}
		if bar.Open <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Close <= 0 {
			return fmt.Errorf("%w: bar %d (%s)", ErrInvalidPrice, i, bar.Date.Format("2006-01-02"))
		}
		if bar.Volume < 0 {
			return fmt.Errorf("%w: bar %d (%s)", ErrInvalidVolume, i, bar.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// IndexOf returns the position of the bar traded on date, or -1
func (s PriceSeries) IndexOf(date time.Time) int {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(date) })
	if i < len(s) && s[i].Date.Equal(date) {
		return i
	}
	return -1
}

// SearchDate returns the index of the first bar on or after date
func (s PriceSeries) SearchDate(date time.Time) int {
	return sort.Search(len(s), func(i int) bool { return !s[i].Date.Before(date) })
}

// Slice returns the sub-series with dates in [start, end] inclusive.
// A zero start or end leaves that side unbounded.
func (s PriceSeries) Slice(start, end time.Time) PriceSeries {
	lo := 0
	if !start.IsZero() {
		lo = s.SearchDate(start)
	}
	hi := len(s)
	if !end.IsZero() {
		hi = sort.Search(len(s), func(i int) bool { return s[i].Date.After(end) })
	}
	if lo >= hi {
		return PriceSeries{}
	}
	return s[lo:hi]
}

// Closes extracts the close column
func (s PriceSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, bar := range s {
		out[i] = bar.Close
	}
	return out
}

// LastDate returns the final bar's date, or the zero time for an empty series
func (s PriceSeries) LastDate() time.Time {
	if len(s) == 0 {
		return time.Time{}
	}
	return s[len(s)-1].Date
}

// Fundamentals carries per-ticker fundamental data supplied by the data layer.
// The core passes it through to scanners without interpreting it.
type Fundamentals struct {
	Ticker    string  `db:"ticker" json:"ticker"`
	MarketCap float64 `db:"market_cap" json:"market_cap"`
	Exchange  string  `db:"exchange" json:"exchange"`
	Sector    string  `db:"sector" json:"sector"`
	Name      string  `db:"name" json:"name"`
}
