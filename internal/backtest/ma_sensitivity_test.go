package backtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/market-lens/internal/models"
)

// risingSeries yields close[i] = 100+i, a clean uptrend where SMA5 > SMA10 >
// SMA20 holds everywhere the slow MA is defined. Lows sit on the close, so no
// bar touches an MA unless a test dips one deliberately.
func risingSeries(days int) models.PriceSeries {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make(models.PriceSeries, days)
	for i := range bars {
		c := 100.0 + float64(i)
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return bars
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.HoldDays = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Strategy = "guess"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.TargetWindows = nil
	assert.Error(t, cfg.Validate())
}

func TestRunFindsTrendAlignedTouch(t *testing.T) {
	bars := risingSeries(30)
	dip := 22
	bars[dip].Low = bars[dip].Close - 20 // pierces both MA10 and MA20

	cfg := DefaultConfig()
	summary, err := Run("TEST", bars, cfg)
	require.NoError(t, err)

	// One dip bar, counted once per probed window
	assert.Equal(t, 2, summary.TotalTouches)
	assert.Equal(t, 2, summary.Wins)
	assert.Equal(t, 100.0, summary.WinRatePct)

	wantReturn := (bars[dip+cfg.HoldDays].Close/bars[dip].Close - 1) * 100
	for _, ev := range summary.Events {
		assert.Equal(t, bars[dip].Date, ev.TouchDate)
		assert.InDelta(t, wantReturn, ev.ReturnPct, 1e-9)
		assert.True(t, ev.Win)
	}

	require.Contains(t, summary.Windows, 10)
	require.Contains(t, summary.Windows, 20)
	assert.Equal(t, 1, summary.Windows[10].Touches)
	assert.Equal(t, 1, summary.Windows[20].Touches)
}

func TestRunDropsTruncatedTouches(t *testing.T) {
	bars := risingSeries(30)
	dip := 27 // fewer than HoldDays future bars remain
	bars[dip].Low = bars[dip].Close - 20

	summary, err := Run("TEST", bars, DefaultConfig())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalTouches, "touch without a full forward window is dropped")
	assert.Zero(t, summary.Score)
}

func TestRunNoTouchesWithoutTrend(t *testing.T) {
	// Falling series: SMA5 < SMA10 < SMA20, filter never passes
	bars := risingSeries(30)
	for i := range bars {
		c := 200.0 - float64(i)
		bars[i].Open, bars[i].High, bars[i].Low, bars[i].Close = c, c, c-20, c
	}

	summary, err := Run("TEST", bars, DefaultConfig())
	require.NoError(t, err)
	assert.Zero(t, summary.TotalTouches)
}

func TestRunMaxReturnStrategy(t *testing.T) {
	bars := risingSeries(35)
	dip := 22
	bars[dip].Low = bars[dip].Close - 20
	// A spike inside the forward window that the terminal close gives back
	bars[dip+2].Close = 200

	bounceCfg := DefaultConfig()
	bounce, err := Run("TEST", bars, bounceCfg)
	require.NoError(t, err)

	maxCfg := DefaultConfig()
	maxCfg.Strategy = StrategyMaxReturn
	maxRet, err := Run("TEST", bars, maxCfg)
	require.NoError(t, err)

	require.NotEmpty(t, bounce.Events)
	require.NotEmpty(t, maxRet.Events)
	assert.Greater(t, maxRet.Events[0].ReturnPct, bounce.Events[0].ReturnPct,
		"max_return credits the intra-window peak")
}

func TestRunRejectsInvalidSeries(t *testing.T) {
	bars := risingSeries(30)
	bars[5].Close = -1
	_, err := Run("TEST", bars, DefaultConfig())
	assert.ErrorIs(t, err, models.ErrInvalidPrice)
}

func TestRunIsDeterministic(t *testing.T) {
	bars := risingSeries(60)
	for _, dip := range []int{25, 33, 41} {
		bars[dip].Low = bars[dip].Close - 15
	}

	a, err := Run("TEST", bars, DefaultConfig())
	require.NoError(t, err)
	b, err := Run("TEST", bars, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestScoreConfidencePenalty(t *testing.T) {
	// Identical performance, growing sample count: score must be strictly
	// increasing until minSamples, then flat.
	prev := Score(80, 2, 1, 10)
	for samples := 2; samples <= 10; samples++ {
		cur := Score(80, 2, samples, 10)
		assert.Greater(t, cur, prev, "samples=%d", samples)
		prev = cur
	}
	assert.Equal(t, Score(80, 2, 10, 10), Score(80, 2, 50, 10), "no bonus beyond the minimum")
}

func TestScoreBounds(t *testing.T) {
	assert.Zero(t, Score(0, 0, 0, 10))
	assert.LessOrEqual(t, Score(100, 100, 100, 10), 100.0)
	assert.GreaterOrEqual(t, Score(0, -100, 5, 10), 0.0)

	// Half weight at one sample approaching zero confidence
	full := Score(80, 2, 10, 10)
	one := Score(80, 2, 1, 10)
	assert.InDelta(t, full*(0.5+0.5*0.1), one, 1e-9)
}
