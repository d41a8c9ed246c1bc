// Package simulation replays scanner entry/exit decisions day by day against
// historical prices, for one ticker at a time or for a shared-capital
// portfolio across a whole universe.
package simulation

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/scanner"
)

// Engine is the day-by-day single-ticker simulator. Each walk holds at most
// one open position: FLAT to OPEN on an entry signal, OPEN to FLAT on the
// first matching exit rule, repeating until history runs out.
type Engine struct {
	scanner        scanner.Scanner
	initialCapital float64
	positionSize   float64
	logger         *logrus.Logger
}

// NewEngine creates a single-ticker simulation engine. positionSize is the
// fraction of initial capital committed per trade.
func NewEngine(sc scanner.Scanner, initialCapital, positionSize float64, logger *logrus.Logger) (*Engine, error) {
	if sc == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive")
	}
	if positionSize <= 0 || positionSize > 1 {
		return nil, fmt.Errorf("position size must be in (0, 1]")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Engine{
		scanner:        sc,
		initialCapital: initialCapital,
		positionSize:   positionSize,
		logger:         logger,
	}, nil
}

// minWarmupBars keeps the simulation window from starting before any scanner
// could have enough trailing history.
const minWarmupBars = 50

// SimulateTicker walks one ticker's history through [start, end]. A zero end
// defaults to the last bar; a zero start defaults to one year before end,
// never earlier than the warmup cutoff. Invalid price data is a fatal error;
// a window with no tradable bars yields an empty result, not an error.
func (e *Engine) SimulateTicker(ticker string, bars models.PriceSeries, fund models.Fundamentals, start, end time.Time) (*Result, error) {
	if err := bars.Validate(); err != nil {
		return nil, fmt.Errorf("ticker %s: %w", ticker, err)
	}

	if end.IsZero() {
		end = bars.LastDate()
	}
	if start.IsZero() {
		idx := bars.SearchDate(end.AddDate(-1, 0, 0))
		if idx < minWarmupBars {
			idx = minWarmupBars
		}
		if idx >= len(bars) {
			return emptyResult(ticker), nil
		}
		start = bars[idx].Date
	}

	sim := bars.Slice(start, end)
	if len(sim) == 0 {
		return emptyResult(ticker), nil
	}

	// Sessions see full history so indicators warm up before the window
	session, err := e.scanner.NewSession(ticker, bars, fund)
	if err != nil {
		return nil, fmt.Errorf("ticker %s: session: %w", ticker, err)
	}

	var (
		position *models.Position
		trades   []models.Trade
		curve    = make(EquityCurve, 0, len(sim))
		cash     = e.initialCapital
	)

	for _, bar := range sim {
		positionValue := 0.0

		if position == nil {
			if entry := session.CheckEntry(bar.Date); entry != nil {
				commit := e.initialCapital * e.positionSize
				if commit > cash {
					commit = cash
				}
				shares := commit / entry.Price
				cash -= shares * entry.Price
				position = &models.Position{
					Ticker:           ticker,
					Entry:            *entry,
					Shares:           shares,
					CapitalCommitted: shares * entry.Price,
				}
				positionValue = shares * bar.Close
			}
		} else {
			positionValue = position.Shares * bar.Close
			if exit := session.CheckExit(&position.Entry, bar.Date); exit != nil {
				cash += position.Shares * exit.Price
				trades = append(trades, models.CloseTrade(position, *exit))
				position = nil
				positionValue = 0
			}
		}

		numPositions := 0
		if position != nil {
			numPositions = 1
		}
		curve = append(curve, EquityPoint{
			Date:           bar.Date,
			Equity:         cash + positionValue,
			Cash:           cash,
			PositionsValue: positionValue,
			NumPositions:   numPositions,
		})
	}

	// A position still open at the end of history is force-closed at the
	// final price rather than silently dropped.
	if position != nil {
		last := sim[len(sim)-1]
		cash += position.Shares * last.Close
		trades = append(trades, models.CloseTrade(position, models.ExitSignal{
			Date:   last.Date,
			Price:  last.Close,
			Reason: models.ExitEndOfData,
		}))
		curve[len(curve)-1] = EquityPoint{
			Date:   last.Date,
			Equity: cash,
			Cash:   cash,
		}
	}

	e.logger.WithFields(logrus.Fields{
		"ticker": ticker,
		"trades": len(trades),
		"days":   len(sim),
	}).Debug("Ticker simulation complete")

	return buildResult(ticker, trades, curve, len(sim)), nil
}

func emptyResult(ticker string) *Result {
	return &Result{
		Ticker:        ticker,
		Trades:        []models.Trade{},
		EquityCurve:   EquityCurve{},
		ExitBreakdown: map[models.ExitReason]int{},
	}
}

func buildResult(ticker string, trades []models.Trade, curve EquityCurve, totalDays int) *Result {
	result := emptyResult(ticker)
	result.EquityCurve = curve
	result.TotalDays = totalDays
	if len(trades) == 0 {
		return result
	}

	winRate, avgReturn, avgHold := tradeStats(trades)
	result.Trades = trades
	result.NumTrades = len(trades)
	result.WinRatePct = winRate
	result.AvgReturnPct = avgReturn
	result.AvgHoldDays = avgHold
	result.TotalReturnPct = curve.TotalReturnPct()
	result.MaxDrawdownPct = curve.MaxDrawdownPct()
	result.ExitBreakdown = exitBreakdown(trades)
	return result
}
