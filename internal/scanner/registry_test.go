package scanner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/market-lens/internal/models"
)

var registerOnce sync.Once

func setupRegistry() {
	registerOnce.Do(RegisterBuiltins)
}

func TestRegistryGet(t *testing.T) {
	setupRegistry()

	sc, err := Get("entry_point")
	require.NoError(t, err)
	assert.Equal(t, "entry_point", sc.Name())

	_, err = Get("no_such_scanner")
	assert.ErrorIs(t, err, models.ErrScannerNotFound)
}

func TestRegistryGetReturnsFreshInstance(t *testing.T) {
	setupRegistry()

	a, err := Get("entry_point")
	require.NoError(t, err)
	require.NoError(t, a.Configure(map[string]string{"stop_loss_pct": "0.25"}))

	b, err := Get("entry_point")
	require.NoError(t, err)
	assert.Equal(t, 0.25, a.(*EntryPointScanner).StopLossPct)
	assert.Equal(t, 0.10, b.(*EntryPointScanner).StopLossPct, "configuration must not leak between instances")
}

func TestRegisterDuplicate(t *testing.T) {
	require.NoError(t, Register("dup_test", func() Scanner { return NewEntryPointScanner() }))
	assert.Error(t, Register("dup_test", func() Scanner { return NewEntryPointScanner() }))
}

func TestNamesSorted(t *testing.T) {
	setupRegistry()
	names := Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.LessOrEqual(t, names[i-1], names[i])
	}
}

func TestEntryPointConfigure(t *testing.T) {
	sc := NewEntryPointScanner()

	t.Run("int and float params", func(t *testing.T) {
		err := sc.Configure(map[string]string{
			"lookback":          "5",
			"profit_target_pct": "0.2",
		})
		require.NoError(t, err)
		assert.Equal(t, 5, sc.Lookback)
		assert.Equal(t, 0.2, sc.ProfitTargetPct)
	})

	t.Run("unknown key", func(t *testing.T) {
		err := sc.Configure(map[string]string{"bogus": "1"})
		assert.ErrorIs(t, err, models.ErrUnknownParameter)
	})

	t.Run("unparseable value", func(t *testing.T) {
		err := sc.Configure(map[string]string{"lookback": "five"})
		assert.Error(t, err)
	})
}

func TestDetectHammer(t *testing.T) {
	sc := NewEntryPointScanner()

	tests := []struct {
		name                    string
		open, high, low, close_ float64
		want                    bool
	}{
		{"classic hammer", 100, 101, 94, 100.5, true},
		{"long upper wick rejected", 100, 108, 97, 100.5, false},
		{"full-bodied candle", 95, 101, 94.5, 100.5, false},
		{"dragonfly doji", 100, 100.5, 94, 100.05, true},
		{"zero range", 100, 100, 100, 100, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sc.detectHammer(tt.open, tt.high, tt.low, tt.close_))
		})
	}
}

func TestScanTooShortHistory(t *testing.T) {
	sc := NewEntryPointScanner()
	bars := make(models.PriceSeries, 10)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.PriceBar{Date: base.AddDate(0, 0, i), Open: 10, High: 10, Low: 10, Close: 10, Volume: 100}
	}

	res, err := sc.Scan("TEST", bars, models.Fundamentals{})
	require.NoError(t, err)
	assert.Nil(t, res, "short history means no signal, not an error")
}

func TestSessionExitRulePriority(t *testing.T) {
	sc := NewEntryPointScanner()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	// Enough flat history for the daily and weekly MA warmup, then a crash
	// bar that violates both the stop-loss and the sharp-drop rule at once.
	bars := make(models.PriceSeries, 170)
	for i := range bars {
		bars[i] = models.PriceBar{Date: base.AddDate(0, 0, i), Open: 100, High: 101, Low: 99, Close: 100, Volume: 1000}
	}
	last := len(bars) - 1
	crash := &bars[last]
	crash.Open, crash.High, crash.Low, crash.Close = 100, 100, 70, 72

	session, err := sc.NewSession("TEST", bars, models.Fundamentals{})
	require.NoError(t, err)

	entry := &models.EntrySignal{Date: bars[last-9].Date, Price: 100}
	exit := session.CheckExit(entry, bars[last].Date)
	require.NotNil(t, exit)
	assert.Equal(t, models.ExitStopLoss, exit.Reason, "stop-loss outranks every other exit rule")
}
