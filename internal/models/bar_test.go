package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seriesFrom(start time.Time, closes ...float64) PriceSeries {
	s := make(PriceSeries, len(closes))
	for i, c := range closes {
		s[i] = PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return s
}

func TestPriceSeriesValidate(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("valid series", func(t *testing.T) {
		s := seriesFrom(start, 10, 11, 12)
		assert.NoError(t, s.Validate())
	})

	t.Run("empty series", func(t *testing.T) {
		assert.ErrorIs(t, PriceSeries{}.Validate(), ErrEmptySeries)
	})

	t.Run("out of order dates", func(t *testing.T) {
		s := seriesFrom(start, 10, 11)
		s[1].Date = s[0].Date
		assert.ErrorIs(t, s.Validate(), ErrUnorderedSeries)
	})

	t.Run("non-positive price", func(t *testing.T) {
		s := seriesFrom(start, 10, 11)
		s[1].Low = 0
		assert.ErrorIs(t, s.Validate(), ErrInvalidPrice)
	})

	t.Run("negative volume", func(t *testing.T) {
		s := seriesFrom(start, 10, 11)
		s[1].Volume = -5
		assert.ErrorIs(t, s.Validate(), ErrInvalidVolume)
	})
}

func TestPriceSeriesIndexOf(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := seriesFrom(start, 10, 11, 12)

	assert.Equal(t, 0, s.IndexOf(start))
	assert.Equal(t, 2, s.IndexOf(start.AddDate(0, 0, 2)))
	assert.Equal(t, -1, s.IndexOf(start.AddDate(0, 0, 10)), "missing date")
}

func TestPriceSeriesSlice(t *testing.T) {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := seriesFrom(start, 10, 11, 12, 13, 14)

	t.Run("inclusive bounds", func(t *testing.T) {
		sub := s.Slice(start.AddDate(0, 0, 1), start.AddDate(0, 0, 3))
		require.Len(t, sub, 3)
		assert.Equal(t, 11.0, sub[0].Close)
		assert.Equal(t, 13.0, sub[2].Close)
	})

	t.Run("zero bounds are unbounded", func(t *testing.T) {
		assert.Len(t, s.Slice(time.Time{}, time.Time{}), 5)
	})

	t.Run("disjoint window", func(t *testing.T) {
		assert.Empty(t, s.Slice(start.AddDate(0, 0, 10), start.AddDate(0, 0, 20)))
	})
}

func TestSignalForScore(t *testing.T) {
	assert.Equal(t, SignalStrongBuy, SignalForScore(65))
	assert.Equal(t, SignalBuy, SignalForScore(40))
	assert.Equal(t, SignalWatch, SignalForScore(39.9))
}

func TestCloseTrade(t *testing.T) {
	entry := EntrySignal{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Price: 100}
	pos := &Position{Ticker: "AAPL", Entry: entry, Shares: 10, CapitalCommitted: 1000}
	exit := ExitSignal{Date: entry.Date.AddDate(0, 0, 7), Price: 110, Reason: ExitProfitTarget}

	trade := CloseTrade(pos, exit)
	assert.Equal(t, "AAPL", trade.Ticker)
	assert.InDelta(t, 10.0, trade.ReturnPct, 1e-9)
	assert.Equal(t, 7, trade.HoldDays)
	assert.Equal(t, ExitProfitTarget, trade.ExitReason)
	assert.True(t, trade.IsWin())
}
