package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/market-lens/internal/models"
)

func bar(date time.Time, open, high, low, close, volume float64) models.PriceBar {
	return models.PriceBar{Date: date, Open: open, High: high, Low: low, Close: close, Volume: volume}
}

func TestResampleWeekly(t *testing.T) {
	// Mon 2024-01-01 through Wed 2024-01-10, two ISO weeks
	mon := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := models.PriceSeries{
		bar(mon, 10, 12, 9, 11, 100),
		bar(mon.AddDate(0, 0, 1), 11, 15, 10, 14, 200),
		bar(mon.AddDate(0, 0, 4), 14, 14, 8, 9, 300), // Friday
		bar(mon.AddDate(0, 0, 7), 9, 10, 9, 10, 400), // next Monday
		bar(mon.AddDate(0, 0, 9), 10, 13, 10, 12, 500),
	}

	weekly := Resample(bars, Weekly)
	require.Len(t, weekly, 2)

	first := weekly[0]
	assert.Equal(t, mon.AddDate(0, 0, 4), first.Date, "stamped with last trading day of the week")
	assert.Equal(t, 10.0, first.Open)
	assert.Equal(t, 15.0, first.High)
	assert.Equal(t, 8.0, first.Low)
	assert.Equal(t, 9.0, first.Close)
	assert.Equal(t, 600.0, first.Volume)

	second := weekly[1]
	assert.Equal(t, mon.AddDate(0, 0, 9), second.Date)
	assert.Equal(t, 9.0, second.Open)
	assert.Equal(t, 12.0, second.Close)
	assert.Equal(t, 900.0, second.Volume)
}

func TestResampleMonthly(t *testing.T) {
	bars := models.PriceSeries{
		bar(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), 10, 11, 9, 10, 100),
		bar(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), 10, 14, 10, 13, 100),
		bar(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), 13, 13, 12, 12, 100),
	}

	monthly := Resample(bars, Monthly)
	require.Len(t, monthly, 2)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), monthly[0].Date)
	assert.Equal(t, 13.0, monthly[0].Close)
	assert.Equal(t, 12.0, monthly[1].Close)
}

func TestResampleEmpty(t *testing.T) {
	assert.Empty(t, Resample(models.PriceSeries{}, Weekly))
}

func TestForwardFill(t *testing.T) {
	mon := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	daily := models.PriceSeries{
		bar(mon, 1, 1, 1, 1, 1),
		bar(mon.AddDate(0, 0, 1), 1, 1, 1, 1, 1),
		bar(mon.AddDate(0, 0, 4), 1, 1, 1, 1, 1), // Friday, week closes
		bar(mon.AddDate(0, 0, 7), 1, 1, 1, 1, 1),
		bar(mon.AddDate(0, 0, 8), 1, 1, 1, 1, 1),
	}
	weekly := Resample(daily, Weekly)
	require.Len(t, weekly, 2)
	values := []float64{42.0, 77.0}

	filled := ForwardFill(values, weekly, daily)
	require.Len(t, filled, len(daily))

	// Before the first weekly close nothing is visible
	assert.True(t, math.IsNaN(filled[0]))
	assert.True(t, math.IsNaN(filled[1]))
	// The Friday close makes the first weekly value visible from Friday on
	assert.Equal(t, 42.0, filled[2])
	assert.Equal(t, 42.0, filled[3])
	// The second week's value only appears at its own last bar
	assert.Equal(t, 77.0, filled[4])
}
