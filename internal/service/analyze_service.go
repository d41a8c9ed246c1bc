package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/backtest"
	"github.com/yourusername/market-lens/internal/metrics"
	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/repository"
	"github.com/yourusername/market-lens/internal/scanner"
)

// Scan and backtest weights for the combined ranking
const (
	scanWeight     = 0.6
	backtestWeight = 0.4
)

// AnalyzedTicker combines a live scan hit with that ticker's historical
// moving-average bounce quality
type AnalyzedTicker struct {
	Scan          *models.ScanResult      `json:"scan"`
	Backtest      *backtest.TickerSummary `json:"backtest,omitempty"`
	BacktestScore float64                 `json:"backtest_score"`
	CombinedScore float64                 `json:"combined_score"`
}

// AnalyzeService layers MA-sensitivity evidence on top of scan results
type AnalyzeService struct {
	data    *MarketDataService
	runRepo repository.BacktestRunRepository
	logger  logrus.FieldLogger
}

// NewAnalyzeService creates a new analyze service
func NewAnalyzeService(data *MarketDataService, runRepo repository.BacktestRunRepository, logger logrus.FieldLogger) *AnalyzeService {
	return &AnalyzeService{
		data:    data,
		runRepo: runRepo,
		logger:  logger,
	}
}

// Analyze backtests the top scan hits and re-ranks them by the weighted blend
// of scan score and backtest score. A ticker whose backtest fails keeps its
// scan ranking with a zero backtest contribution.
func (a *AnalyzeService) Analyze(ctx context.Context, sc scanner.Scanner, hits []*models.ScanResult, topN int, cfg backtest.Config) ([]*AnalyzedTicker, error) {
	if topN > 0 && len(hits) > topN {
		hits = hits[:topN]
	}

	analyzed := make([]*AnalyzedTicker, 0, len(hits))
	for _, hit := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		entry := &AnalyzedTicker{Scan: hit}

		bars, err := a.data.GetHistory(ctx, hit.Ticker)
		if err == nil {
			summary, btErr := backtest.Run(hit.Ticker, bars, cfg)
			if btErr != nil {
				a.logger.WithFields(logrus.Fields{
					"ticker": hit.Ticker,
					"error":  btErr.Error(),
				}).Debug("Backtest skipped for scan hit")
			} else {
				entry.Backtest = summary
				entry.BacktestScore = summary.Score
			}
		}

		entry.CombinedScore = hit.Score*scanWeight + entry.BacktestScore*backtestWeight
		analyzed = append(analyzed, entry)
	}

	sort.Slice(analyzed, func(i, j int) bool {
		if analyzed[i].CombinedScore != analyzed[j].CombinedScore {
			return analyzed[i].CombinedScore > analyzed[j].CombinedScore
		}
		return analyzed[i].Scan.Ticker < analyzed[j].Scan.Ticker
	})

	return analyzed, nil
}

// BacktestTicker runs the MA-sensitivity walk for one ticker and persists
// the per-window summaries when a repository is wired
func (a *AnalyzeService) BacktestTicker(ctx context.Context, ticker string, cfg backtest.Config) (*backtest.TickerSummary, error) {
	bars, err := a.data.GetHistory(ctx, ticker)
	if err != nil {
		return nil, err
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no stored history for %s", ticker)
	}

	summary, err := backtest.Run(ticker, bars, cfg)
	if err != nil {
		return nil, err
	}

	for window, ws := range summary.Windows {
		metrics.RecordBacktestScore(fmt.Sprintf("%d", window), backtest.Score(ws.WinRatePct, ws.AvgReturnPct, ws.Touches, cfg.MinSamples))
	}

	if a.runRepo != nil {
		if err := a.persistSummary(ctx, summary, cfg); err != nil {
			a.logger.WithFields(logrus.Fields{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Failed to persist backtest runs")
		}
	}

	return summary, nil
}

// persistSummary writes one row per target window
func (a *AnalyzeService) persistSummary(ctx context.Context, summary *backtest.TickerSummary, cfg backtest.Config) error {
	now := time.Now().UTC()
	for window, ws := range summary.Windows {
		run := &models.BacktestRun{
			ID:           uuid.New(),
			Ticker:       summary.Ticker,
			RunDate:      now,
			Strategy:     string(cfg.Strategy),
			HoldDays:     cfg.HoldDays,
			MAWindow:     window,
			Touches:      ws.Touches,
			Wins:         ws.Wins,
			WinRatePct:   ws.WinRatePct,
			AvgReturnPct: ws.AvgReturnPct,
			Score:        backtest.Score(ws.WinRatePct, ws.AvgReturnPct, ws.Touches, cfg.MinSamples),
			CreatedAt:    now,
		}
		if err := a.runRepo.SaveRun(ctx, run); err != nil {
			return err
		}
	}
	return nil
}
