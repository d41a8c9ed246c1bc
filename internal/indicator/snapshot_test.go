package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/market-lens/internal/models"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func flatBars(closes []float64) models.PriceSeries {
	bars := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Date:   day(i),
			Open:   c,
			High:   c,
			Low:    c,
			Close:  c,
			Volume: 1000,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	out := SMA(values, 3)

	require.Len(t, out, 5)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestSMAWindowLargerThanInput(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	require.Len(t, out, 2)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSMAZeroWindow(t *testing.T) {
	out := SMA([]float64{1, 2, 3}, 0)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestSnapshotATHTracksHighs(t *testing.T) {
	bars := flatBars([]float64{10, 12, 11, 15, 14})
	bars[1].High = 13 // intraday spike above the close
	snap := Compute(bars, 2)

	ath := snap.ATH()
	require.Len(t, ath, 5)
	assert.Equal(t, 10.0, ath[0])
	assert.Equal(t, 13.0, ath[1])
	assert.Equal(t, 13.0, ath[2], "ATH never decreases")
	assert.Equal(t, 15.0, ath[3])
	assert.Equal(t, 15.0, ath[4])
}

func TestSnapshotSMAAt(t *testing.T) {
	bars := flatBars([]float64{2, 4, 6, 8})
	snap := Compute(bars, 2)

	v, ok := snap.SMAAt(2, 0)
	assert.False(t, ok)
	assert.True(t, math.IsNaN(v))

	v, ok = snap.SMAAt(2, 1)
	assert.True(t, ok)
	assert.InDelta(t, 3.0, v, 1e-9)

	_, ok = snap.SMAAt(99, 1)
	assert.False(t, ok, "unrequested window is undefined")

	_, ok = snap.SMAAt(2, 100)
	assert.False(t, ok, "out-of-range index is undefined")
}

func TestSnapshotIsDeterministic(t *testing.T) {
	bars := flatBars([]float64{5, 7, 6, 9, 8, 10, 12, 11})
	a := Compute(bars, 3)
	b := Compute(bars, 3)

	for i := 0; i < len(bars); i++ {
		av, aok := a.SMAAt(3, i)
		bv, bok := b.SMAAt(3, i)
		assert.Equal(t, aok, bok)
		if aok {
			assert.Equal(t, av, bv)
		}
		assert.Equal(t, a.ATH()[i], b.ATH()[i])
	}
}
