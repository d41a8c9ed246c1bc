package indicator

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/market-lens/internal/models"
)

// Frequency selects the resampling period
type Frequency int

const (
	Weekly Frequency = iota
	Monthly
)

// Resample aggregates daily bars into weekly or monthly bars. Each output bar
// is stamped with the last trading day of its period, so its values become
// visible to consumers exactly at that day's close and never earlier.
// Aggregation: open=first, high=max, low=min, close=last, volume=sum.
func Resample(bars models.PriceSeries, freq Frequency) models.PriceSeries {
	if len(bars) == 0 {
		return models.PriceSeries{}
	}

	out := make(models.PriceSeries, 0, len(bars)/5+1)
	var current models.PriceBar
	var currentKey string
	open := false

	for _, bar := range bars {
		key := periodKey(bar.Date, freq)
		if !open || key != currentKey {
			if open {
				out = append(out, current)
			}
			current = bar
			currentKey = key
			open = true
			continue
		}
		if bar.High > current.High {
			current.High = bar.High
		}
		if bar.Low < current.Low {
			current.Low = bar.Low
		}
		current.Close = bar.Close
		current.Volume += bar.Volume
		current.Date = bar.Date
	}
	if open {
		out = append(out, current)
	}
	return out
}

// ForwardFill aligns a column computed on a resampled series back onto the
// daily index: daily index i takes the value of the latest resampled bar
// whose date is on or before the daily bar's date, NaN before the first one.
func ForwardFill(values []float64, resampled, daily models.PriceSeries) []float64 {
	out := make([]float64, len(daily))
	j := -1
	for i, bar := range daily {
		for j+1 < len(resampled) && !resampled[j+1].Date.After(bar.Date) {
			j++
		}
		if j < 0 || j >= len(values) {
			out[i] = math.NaN()
		} else {
			out[i] = values[j]
		}
	}
	return out
}

func periodKey(date time.Time, freq Frequency) string {
	switch freq {
	case Monthly:
		return date.Format("2006-01")
	default:
		year, week := date.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	}
}
