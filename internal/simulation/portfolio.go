package simulation

import (
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/scanner"
)

// TickerData bundles one ticker's inputs for a portfolio run
type TickerData struct {
	Bars models.PriceSeries
	Fund models.Fundamentals
}

// Portfolio simulates trading across a whole universe against one shared
// capital pool and a global position-capacity limit. Session preparation per
// ticker is parallelized; the day-by-day walk is a single-threaded control
// loop because each day's exit phase and entry phase form one atomic step
// against the shared pool.
type Portfolio struct {
	scanner        scanner.Scanner
	initialCapital float64
	maxPositions   int
	positionSize   float64
	prepWorkers    int
	logger         *logrus.Logger
}

// NewPortfolio creates a portfolio simulator. positionSize is the fraction of
// the original starting capital committed per position; sizing never
// compounds with performance.
func NewPortfolio(sc scanner.Scanner, initialCapital float64, maxPositions int, positionSize float64, logger *logrus.Logger) (*Portfolio, error) {
	if sc == nil {
		return nil, fmt.Errorf("scanner is required")
	}
	if initialCapital <= 0 {
		return nil, fmt.Errorf("initial capital must be positive")
	}
	if maxPositions <= 0 {
		return nil, fmt.Errorf("max positions must be positive")
	}
	if positionSize <= 0 || positionSize > 1 {
		return nil, fmt.Errorf("position size must be in (0, 1]")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Portfolio{
		scanner:        sc,
		initialCapital: initialCapital,
		maxPositions:   maxPositions,
		positionSize:   positionSize,
		prepWorkers:    4,
		logger:         logger,
	}, nil
}

type preparedTicker struct {
	bars    models.PriceSeries
	session scanner.Session
}

// Simulate runs the shared-capital walk over [start, end]. Zero bounds
// default to the latest bar across the universe and one year before it.
func (p *Portfolio) Simulate(data map[string]TickerData, start, end time.Time) (*PortfolioResult, error) {
	prepared, failed := p.prepareSessions(data)

	tickers := make([]string, 0, len(prepared))
	for ticker := range prepared {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	simDates := p.unifiedDates(prepared, tickers, &start, &end)
	if len(tickers) == 0 || len(simDates) == 0 {
		result := p.emptyPortfolioResult(start, end)
		result.FailedTickers = failed
		return result, nil
	}

	var (
		cash          = p.initialCapital
		positionBudget = p.initialCapital * p.positionSize
		open          = make(map[string]*models.Position)
		trades        []models.Trade
		curve         = make(EquityCurve, 0, len(simDates))
	)

	for _, date := range simDates {
		// Exit phase: capital released here is available for entries on the
		// same date.
		for _, ticker := range tickers {
			pos, ok := open[ticker]
			if !ok {
				continue
			}
			pt := prepared[ticker]
			if pt.bars.IndexOf(date) < 0 {
				continue
			}
			exit := pt.session.CheckExit(&pos.Entry, date)
			if exit == nil {
				continue
			}
			cash += pos.Shares * exit.Price
			trades = append(trades, models.CloseTrade(pos, *exit))
			delete(open, ticker)
		}

		// Entry phase: rank candidates by score, ties broken by ticker so
		// the same inputs always pick the same winner.
		slots := p.maxPositions - len(open)
		if slots > 0 && cash >= positionBudget*0.5 {
			type candidate struct {
				ticker string
				entry  *models.EntrySignal
			}
			var candidates []candidate
			for _, ticker := range tickers {
				if _, held := open[ticker]; held {
					continue
				}
				pt := prepared[ticker]
				if pt.bars.IndexOf(date) < 0 {
					continue
				}
				if entry := pt.session.CheckEntry(date); entry != nil {
					candidates = append(candidates, candidate{ticker, entry})
				}
			}
			sort.SliceStable(candidates, func(i, j int) bool {
				if candidates[i].entry.Score != candidates[j].entry.Score {
					return candidates[i].entry.Score > candidates[j].entry.Score
				}
				return candidates[i].ticker < candidates[j].ticker
			})
			if len(candidates) > slots {
				candidates = candidates[:slots]
			}
			for _, cand := range candidates {
				commit := positionBudget
				if commit > cash {
					commit = cash
				}
				if commit < positionBudget*0.5 {
					break
				}
				shares := commit / cand.entry.Price
				cash -= shares * cand.entry.Price
				open[cand.ticker] = &models.Position{
					Ticker:           cand.ticker,
					Entry:            *cand.entry,
					Shares:           shares,
					CapitalCommitted: shares * cand.entry.Price,
				}
			}
		}

		// Mark to market: tickers not trading today are valued at their
		// last known close.
		positionsValue := 0.0
		for ticker, pos := range open {
			positionsValue += pos.Shares * lastCloseOnOrBefore(prepared[ticker].bars, date, pos.Entry.Price)
		}
		curve = append(curve, EquityPoint{
			Date:           date,
			Equity:         cash + positionsValue,
			Cash:           cash,
			PositionsValue: positionsValue,
			NumPositions:   len(open),
		})
	}

	// Force-close whatever is still open at the final simulated date
	lastDate := simDates[len(simDates)-1]
	for _, ticker := range tickers {
		pos, ok := open[ticker]
		if !ok {
			continue
		}
		price := lastCloseOnOrBefore(prepared[ticker].bars, lastDate, pos.Entry.Price)
		cash += pos.Shares * price
		trades = append(trades, models.CloseTrade(pos, models.ExitSignal{
			Date:   lastDate,
			Price:  price,
			Reason: models.ExitEndOfData,
		}))
		delete(open, ticker)
	}
	if len(curve) > 0 {
		curve[len(curve)-1] = EquityPoint{Date: lastDate, Equity: cash, Cash: cash}
	}

	result := p.buildPortfolioResult(trades, curve, simDates, start, end)
	result.FailedTickers = failed
	p.logger.WithFields(logrus.Fields{
		"tickers": len(tickers),
		"trades":  result.NumTrades,
		"days":    result.TotalDays,
		"failed":  len(failed),
	}).Info("Portfolio simulation complete")
	return result, nil
}

// prepareSessions validates each ticker and builds its private session.
// Failures are isolated: the ticker is recorded and excluded, the run
// continues. Preparation fans out across workers since sessions share
// nothing with each other.
func (p *Portfolio) prepareSessions(data map[string]TickerData) (map[string]*preparedTicker, map[string]string) {
	jobs := make([]TickerJob, 0, len(data))
	for ticker, td := range data {
		jobs = append(jobs, TickerJob{Ticker: ticker, Bars: td.Bars, Fund: td.Fund})
	}

	prepared := make(map[string]*preparedTicker, len(data))
	failed := make(map[string]string)
	results := RunTickerJobs(jobs, p.prepWorkers, func(job TickerJob) (any, error) {
		if len(job.Bars) == 0 {
			return nil, nil // no bars in range: excluded, not an error
		}
		if err := job.Bars.Validate(); err != nil {
			return nil, err
		}
		session, err := p.scanner.NewSession(job.Ticker, job.Bars, job.Fund)
		if err != nil {
			return nil, err
		}
		return &preparedTicker{bars: job.Bars, session: session}, nil
	})
	for _, r := range results {
		if r.Err != nil {
			p.logger.WithFields(logrus.Fields{"ticker": r.Ticker, "error": r.Err}).Warn("Excluding ticker from portfolio run")
			failed[r.Ticker] = r.Err.Error()
			continue
		}
		if r.Value == nil {
			continue
		}
		prepared[r.Ticker] = r.Value.(*preparedTicker)
	}
	return prepared, failed
}

// unifiedDates merges all tickers' trading calendars, resolves default
// bounds, and clips to [start, end].
func (p *Portfolio) unifiedDates(prepared map[string]*preparedTicker, tickers []string, start, end *time.Time) []time.Time {
	seen := make(map[string]time.Time)
	for _, ticker := range tickers {
		for _, bar := range prepared[ticker].bars {
			seen[bar.Date.Format("2006-01-02")] = bar.Date
		}
	}
	all := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		all = append(all, d)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Before(all[j]) })
	if len(all) == 0 {
		return nil
	}

	if end.IsZero() {
		*end = all[len(all)-1]
	}
	if start.IsZero() {
		*start = end.AddDate(-1, 0, 0)
	}

	out := all[:0:0]
	for _, d := range all {
		if d.Before(*start) || d.After(*end) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func lastCloseOnOrBefore(bars models.PriceSeries, date time.Time, fallback float64) float64 {
	i := bars.IndexOf(date)
	if i >= 0 {
		return bars[i].Close
	}
	i = bars.SearchDate(date) - 1
	if i >= 0 {
		return bars[i].Close
	}
	return fallback
}

func (p *Portfolio) emptyPortfolioResult(start, end time.Time) *PortfolioResult {
	return &PortfolioResult{
		Trades:          []models.Trade{},
		EquityCurve:     EquityCurve{},
		InitialCapital:  p.initialCapital,
		FinalEquity:     p.initialCapital,
		ExitBreakdown:   map[models.ExitReason]int{},
		TickerBreakdown: map[string]TickerStats{},
		MaxPositions:    p.maxPositions,
		PositionSizePct: p.positionSize,
		ScannerName:     p.scanner.Name(),
		StartDate:       start,
		EndDate:         end,
	}
}

func (p *Portfolio) buildPortfolioResult(trades []models.Trade, curve EquityCurve, simDates []time.Time, start, end time.Time) *PortfolioResult {
	result := p.emptyPortfolioResult(start, end)
	result.EquityCurve = curve
	result.TotalDays = len(simDates)
	if len(curve) > 0 {
		result.FinalEquity = curve[len(curve)-1].Equity
		result.TotalReturnPct = curve.TotalReturnPct()
		result.MaxDrawdownPct = curve.MaxDrawdownPct()
	}
	if len(simDates) > 1 {
		elapsed := int(simDates[len(simDates)-1].Sub(simDates[0]).Hours() / 24)
		result.CAGRPct = cagrPct(curve[0].Equity, result.FinalEquity, elapsed)
	}
	if len(trades) > 0 {
		sortTradesByEntry(trades)
		winRate, avgReturn, avgHold := tradeStats(trades)
		result.Trades = trades
		result.NumTrades = len(trades)
		result.WinRatePct = winRate
		result.AvgReturnPct = avgReturn
		result.AvgHoldDays = avgHold
		result.ExitBreakdown = exitBreakdown(trades)
		result.TickerBreakdown = tickerBreakdown(trades)
	}
	return result
}
