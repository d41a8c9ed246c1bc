package simulation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/scanner"
)

// scriptedScanner drives the simulators from fixed entry/exit schedules so
// tests control exactly when positions open and close.
type scriptedScanner struct {
	entries map[string]map[string]*models.EntrySignal // ticker -> date -> signal
	exits   map[string]map[string]*models.ExitSignal
	fail    map[string]error // NewSession failures by ticker
}

func newScriptedScanner() *scriptedScanner {
	return &scriptedScanner{
		entries: make(map[string]map[string]*models.EntrySignal),
		exits:   make(map[string]map[string]*models.ExitSignal),
		fail:    make(map[string]error),
	}
}

func (s *scriptedScanner) addEntry(ticker string, date time.Time, price, score float64) {
	if s.entries[ticker] == nil {
		s.entries[ticker] = make(map[string]*models.EntrySignal)
	}
	s.entries[ticker][date.Format("2006-01-02")] = &models.EntrySignal{Date: date, Price: price, Score: score}
}

func (s *scriptedScanner) addExit(ticker string, date time.Time, price float64, reason models.ExitReason) {
	if s.exits[ticker] == nil {
		s.exits[ticker] = make(map[string]*models.ExitSignal)
	}
	s.exits[ticker][date.Format("2006-01-02")] = &models.ExitSignal{Date: date, Price: price, Reason: reason}
}

func (s *scriptedScanner) Name() string                             { return "scripted" }
func (s *scriptedScanner) Description() string                      { return "test fixture" }
func (s *scriptedScanner) Configure(params map[string]string) error { return nil }

func (s *scriptedScanner) Scan(ticker string, bars models.PriceSeries, fund models.Fundamentals) (*models.ScanResult, error) {
	return nil, nil
}

func (s *scriptedScanner) NewSession(ticker string, bars models.PriceSeries, fund models.Fundamentals) (scanner.Session, error) {
	if err := s.fail[ticker]; err != nil {
		return nil, err
	}
	return &scriptedSession{
		entries: s.entries[ticker],
		exits:   s.exits[ticker],
	}, nil
}

type scriptedSession struct {
	entries map[string]*models.EntrySignal
	exits   map[string]*models.ExitSignal
}

func (ss *scriptedSession) CheckEntry(date time.Time) *models.EntrySignal {
	return ss.entries[date.Format("2006-01-02")]
}

func (ss *scriptedSession) CheckExit(entry *models.EntrySignal, date time.Time) *models.ExitSignal {
	return ss.exits[date.Format("2006-01-02")]
}

func simSeries(start time.Time, closes ...float64) models.PriceSeries {
	bars := make(models.PriceSeries, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 100}
	}
	return bars
}

func TestNewEngineValidation(t *testing.T) {
	sc := newScriptedScanner()

	_, err := NewEngine(nil, 1000, 0.1, nil)
	assert.Error(t, err)
	_, err = NewEngine(sc, 0, 0.1, nil)
	assert.Error(t, err)
	_, err = NewEngine(sc, 1000, 1.5, nil)
	assert.Error(t, err)
	_, err = NewEngine(sc, 1000, 0.1, nil)
	assert.NoError(t, err)
}

func TestSimulateTickerRoundTrip(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := simSeries(start, 100, 100, 102, 105, 110, 110, 108)

	sc := newScriptedScanner()
	sc.addEntry("TEST", bars[1].Date, 100, 50)
	sc.addExit("TEST", bars[4].Date, 110, models.ExitProfitTarget)

	engine, err := NewEngine(sc, 10000, 0.10, nil)
	require.NoError(t, err)

	result, err := engine.SimulateTicker("TEST", bars, models.Fundamentals{}, bars[0].Date, bars[len(bars)-1].Date)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, models.ExitProfitTarget, trade.ExitReason)
	assert.InDelta(t, 10.0, trade.ReturnPct, 1e-9)
	assert.Equal(t, 100.0, result.WinRatePct)

	// 10% of capital bought at 100 and sold at 110: +100 on 10000
	final := result.EquityCurve[len(result.EquityCurve)-1]
	assert.InDelta(t, 10100.0, final.Equity, 1e-6)
	assert.InDelta(t, 1.0, result.TotalReturnPct, 1e-6)
}

func TestSimulateTickerNoSignals(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := simSeries(start, 100, 101, 102, 103)

	engine, err := NewEngine(newScriptedScanner(), 10000, 0.10, nil)
	require.NoError(t, err)

	result, err := engine.SimulateTicker("TEST", bars, models.Fundamentals{}, bars[0].Date, bars[3].Date)
	require.NoError(t, err)
	assert.Empty(t, result.Trades)
	assert.Equal(t, 0, result.NumTrades)
	assert.Len(t, result.EquityCurve, 4)
	assert.Equal(t, 10000.0, result.EquityCurve[3].Equity, "equity is flat without trades")
}

func TestSimulateTickerForceCloseAtEnd(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := simSeries(start, 100, 100, 120, 120)

	sc := newScriptedScanner()
	sc.addEntry("TEST", bars[1].Date, 100, 50)
	// no scripted exit: position survives to the last bar

	engine, err := NewEngine(sc, 10000, 0.10, nil)
	require.NoError(t, err)

	result, err := engine.SimulateTicker("TEST", bars, models.Fundamentals{}, bars[0].Date, bars[3].Date)
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, models.ExitEndOfData, result.Trades[0].ExitReason)
	assert.InDelta(t, 20.0, result.Trades[0].ReturnPct, 1e-9)
}

func TestSimulateTickerInvalidSeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := simSeries(start, 100, 101)
	bars[1].Close = -1

	engine, err := NewEngine(newScriptedScanner(), 10000, 0.10, nil)
	require.NoError(t, err)

	_, err = engine.SimulateTicker("TEST", bars, models.Fundamentals{}, time.Time{}, time.Time{})
	assert.ErrorIs(t, err, models.ErrInvalidPrice)
}

func TestRunTickerJobs(t *testing.T) {
	jobs := []TickerJob{
		{Ticker: "A"}, {Ticker: "B"}, {Ticker: "C"},
	}

	results := RunTickerJobs(jobs, 2, func(job TickerJob) (any, error) {
		switch job.Ticker {
		case "B":
			return nil, errors.New("boom")
		case "C":
			panic("scanner bug")
		default:
			return job.Ticker + "!", nil
		}
	})

	require.Len(t, results, 3)
	assert.Equal(t, "A!", results[0].Value)
	assert.EqualError(t, results[1].Err, "boom")
	require.Error(t, results[2].Err)
	assert.Contains(t, results[2].Err.Error(), "panic")
}

func TestEquityCurveStats(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	curve := EquityCurve{
		{Date: start, Equity: 100},
		{Date: start.AddDate(0, 0, 1), Equity: 120},
		{Date: start.AddDate(0, 0, 2), Equity: 90},
		{Date: start.AddDate(0, 0, 3), Equity: 110},
	}

	assert.InDelta(t, 10.0, curve.TotalReturnPct(), 1e-9)
	assert.InDelta(t, -25.0, curve.MaxDrawdownPct(), 1e-9)
	assert.Len(t, curve.GetReturns(), 3)
}
