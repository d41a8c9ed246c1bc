package simulation

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/market-lens/internal/models"
)

func portfolioData(tickers []string, start time.Time, days int) map[string]TickerData {
	data := make(map[string]TickerData, len(tickers))
	for _, ticker := range tickers {
		closes := make([]float64, days)
		for i := range closes {
			closes[i] = 100
		}
		data[ticker] = TickerData{Bars: simSeries(start, closes...), Fund: models.Fundamentals{Ticker: ticker}}
	}
	return data
}

func TestPortfolioCapacityLimit(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tickers := []string{"A", "B", "C", "D", "E"}
	data := portfolioData(tickers, start, 5)

	sc := newScriptedScanner()
	for i, ticker := range tickers {
		// All five want in on day 1, with distinct scores
		sc.addEntry(ticker, start.AddDate(0, 0, 1), 100, float64(90-i*10))
	}

	p, err := NewPortfolio(sc, 10000, 2, 0.10, nil)
	require.NoError(t, err)

	result, err := p.Simulate(data, start, start.AddDate(0, 0, 4))
	require.NoError(t, err)

	// Only the two highest-scored candidates got slots, and END_OF_DATA
	// closed both at the final bar.
	require.Len(t, result.Trades, 2)
	held := map[string]bool{}
	for _, trade := range result.Trades {
		held[trade.Ticker] = true
	}
	assert.True(t, held["A"])
	assert.True(t, held["B"])

	for _, point := range result.EquityCurve[1 : len(result.EquityCurve)-1] {
		assert.LessOrEqual(t, point.NumPositions, 2)
	}
}

func TestPortfolioTieBreakIsDeterministic(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tickers := []string{"ZZZ", "AAA", "MMM"}

	pick := func() string {
		data := portfolioData(tickers, start, 4)
		sc := newScriptedScanner()
		for _, ticker := range tickers {
			sc.addEntry(ticker, start.AddDate(0, 0, 1), 100, 75) // identical scores
		}
		p, err := NewPortfolio(sc, 10000, 1, 0.10, nil)
		require.NoError(t, err)
		result, err := p.Simulate(data, start, start.AddDate(0, 0, 3))
		require.NoError(t, err)
		require.Len(t, result.Trades, 1)
		return result.Trades[0].Ticker
	}

	first := pick()
	assert.Equal(t, "AAA", first, "score ties fall back to ticker order")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, pick(), "run %d disagreed", i)
	}
}

func TestPortfolioExitFreesSlotSameDay(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := portfolioData([]string{"A", "B"}, start, 6)

	sc := newScriptedScanner()
	sc.addEntry("A", start.AddDate(0, 0, 1), 100, 90)
	sc.addExit("A", start.AddDate(0, 0, 3), 110, models.ExitProfitTarget)
	// B's entry fires on A's exit day; with capacity 1 it can only be taken
	// if the exit phase runs first.
	sc.addEntry("B", start.AddDate(0, 0, 3), 100, 80)

	p, err := NewPortfolio(sc, 10000, 1, 0.10, nil)
	require.NoError(t, err)

	result, err := p.Simulate(data, start, start.AddDate(0, 0, 5))
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, "A", result.Trades[0].Ticker)
	assert.Equal(t, "B", result.Trades[1].Ticker)
}

func TestPortfolioSharedCapitalExhaustion(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tickers := make([]string, 6)
	for i := range tickers {
		tickers[i] = fmt.Sprintf("T%02d", i)
	}
	data := portfolioData(tickers, start, 4)

	sc := newScriptedScanner()
	for i, ticker := range tickers {
		sc.addEntry(ticker, start.AddDate(0, 0, 1), 100, float64(90-i))
	}

	// Position budget is half the pool, so only two entries can ever fund
	// even though capacity allows ten.
	p, err := NewPortfolio(sc, 10000, 10, 0.50, nil)
	require.NoError(t, err)

	result, err := p.Simulate(data, start, start.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Len(t, result.Trades, 2)
}

func TestPortfolioExcludesFailedTickers(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	data := portfolioData([]string{"GOOD", "BAD"}, start, 4)

	sc := newScriptedScanner()
	sc.fail["BAD"] = errors.New("session exploded")
	sc.addEntry("GOOD", start.AddDate(0, 0, 1), 100, 50)

	p, err := NewPortfolio(sc, 10000, 2, 0.10, nil)
	require.NoError(t, err)

	result, err := p.Simulate(data, start, start.AddDate(0, 0, 3))
	require.NoError(t, err)

	assert.Contains(t, result.FailedTickers, "BAD")
	require.Len(t, result.Trades, 1)
	assert.Equal(t, "GOOD", result.Trades[0].Ticker)
}

func TestPortfolioEmptyUniverse(t *testing.T) {
	p, err := NewPortfolio(newScriptedScanner(), 10000, 2, 0.10, nil)
	require.NoError(t, err)

	result, err := p.Simulate(map[string]TickerData{}, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Equal(t, 10000.0, result.FinalEquity)
}
