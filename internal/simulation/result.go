package simulation

import (
	"math"
	"sort"
	"time"

	"github.com/yourusername/market-lens/internal/models"
)

// Result holds a single-ticker simulation outcome
type Result struct {
	Ticker      string         `json:"ticker"`
	Trades      []models.Trade `json:"trades"`
	EquityCurve EquityCurve    `json:"equity_curve"`

	TotalReturnPct float64 `json:"total_return_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	AvgReturnPct   float64 `json:"avg_return_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	NumTrades      int     `json:"num_trades"`
	AvgHoldDays    float64 `json:"avg_hold_days"`
	TotalDays      int     `json:"total_days"`

	ExitBreakdown map[models.ExitReason]int `json:"exit_breakdown"`

	// ScanResult carries the current scan verdict when the caller ran the
	// scanner first; display only.
	ScanResult *models.ScanResult `json:"scan_result,omitempty"`
}

// TickerStats summarizes a single ticker's trades inside a portfolio run
type TickerStats struct {
	NumTrades      int     `json:"num_trades"`
	WinRatePct     float64 `json:"win_rate_pct"`
	AvgReturnPct   float64 `json:"avg_return_pct"`
	TotalReturnPct float64 `json:"total_return_pct"`
}

// PortfolioResult holds a shared-capital portfolio simulation outcome
type PortfolioResult struct {
	Trades      []models.Trade `json:"trades"`
	EquityCurve EquityCurve    `json:"equity_curve"`

	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`
	TotalReturnPct float64 `json:"total_return_pct"`
	CAGRPct        float64 `json:"cagr_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	WinRatePct     float64 `json:"win_rate_pct"`
	AvgReturnPct   float64 `json:"avg_return_pct"`
	NumTrades      int     `json:"num_trades"`
	AvgHoldDays    float64 `json:"avg_hold_days"`
	TotalDays      int     `json:"total_days"`

	ExitBreakdown   map[models.ExitReason]int `json:"exit_breakdown"`
	TickerBreakdown map[string]TickerStats    `json:"ticker_breakdown"`

	MaxPositions    int       `json:"max_positions"`
	PositionSizePct float64   `json:"position_size_pct"`
	ScannerName     string    `json:"scanner_name"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`

	// FailedTickers lists tickers excluded because their scanner session
	// errored; their absence is visible rather than silent.
	FailedTickers map[string]string `json:"failed_tickers,omitempty"`
}

func tradeStats(trades []models.Trade) (winRatePct, avgReturnPct, avgHoldDays float64) {
	if len(trades) == 0 {
		return 0, 0, 0
	}
	wins := 0
	sumReturn := 0.0
	sumHold := 0
	for _, t := range trades {
		if t.IsWin() {
			wins++
		}
		sumReturn += t.ReturnPct
		sumHold += t.HoldDays
	}
	n := float64(len(trades))
	return float64(wins) / n * 100, sumReturn / n, float64(sumHold) / n
}

func exitBreakdown(trades []models.Trade) map[models.ExitReason]int {
	out := make(map[models.ExitReason]int)
	for _, t := range trades {
		out[t.ExitReason]++
	}
	return out
}

func tickerBreakdown(trades []models.Trade) map[string]TickerStats {
	byTicker := make(map[string][]models.Trade)
	for _, t := range trades {
		byTicker[t.Ticker] = append(byTicker[t.Ticker], t)
	}
	out := make(map[string]TickerStats, len(byTicker))
	for ticker, ts := range byTicker {
		winRate, avgReturn, _ := tradeStats(ts)
		total := 0.0
		for _, t := range ts {
			total += t.ReturnPct
		}
		out[ticker] = TickerStats{
			NumTrades:      len(ts),
			WinRatePct:     winRate,
			AvgReturnPct:   avgReturn,
			TotalReturnPct: total,
		}
	}
	return out
}

// cagrPct annualizes the initial-to-final return over elapsed calendar days
func cagrPct(initial, final float64, elapsedDays int) float64 {
	if initial <= 0 || final <= 0 || elapsedDays <= 0 {
		return 0
	}
	years := float64(elapsedDays) / 365.25
	return (math.Pow(final/initial, 1/years) - 1) * 100
}

// sortTradesByEntry orders a trade log by entry date, then ticker
func sortTradesByEntry(trades []models.Trade) {
	sort.SliceStable(trades, func(i, j int) bool {
		if !trades[i].EntryDate.Equal(trades[j].EntryDate) {
			return trades[i].EntryDate.Before(trades[j].EntryDate)
		}
		return trades[i].Ticker < trades[j].Ticker
	})
}
