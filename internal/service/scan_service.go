package service

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/metrics"
	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/repository"
	"github.com/yourusername/market-lens/internal/scanner"
	"github.com/yourusername/market-lens/internal/simulation"
)

// ScanService runs a scanner across the ticker universe
type ScanService struct {
	data     *MarketDataService
	scanRepo repository.ScanResultRepository
	logger   logrus.FieldLogger
	workers  int
}

// NewScanService creates a new scan service
func NewScanService(data *MarketDataService, scanRepo repository.ScanResultRepository, workers int, logger logrus.FieldLogger) *ScanService {
	if workers <= 0 {
		workers = 4
	}
	return &ScanService{
		data:     data,
		scanRepo: scanRepo,
		logger:   logger,
		workers:  workers,
	}
}

// ScanOutcome is the result of one universe scan
type ScanOutcome struct {
	Results []*models.ScanResult
	Failed  map[string]string
}

// ScanUniverse evaluates the scanner against every symbol and returns hits
// sorted by score descending with symbol as the tie-break. Per-ticker
// failures are collected, never fatal.
func (s *ScanService) ScanUniverse(ctx context.Context, sc scanner.Scanner, symbols []string) (*ScanOutcome, error) {
	startTime := time.Now()

	jobs := make([]simulation.TickerJob, 0, len(symbols))
	failed := make(map[string]string)

	for _, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		bars, err := s.data.GetHistory(ctx, symbol)
		if err != nil {
			failed[symbol] = err.Error()
			continue
		}
		if len(bars) == 0 {
			continue
		}

		fund, err := s.data.GetFundamentals(ctx, symbol)
		if err != nil {
			failed[symbol] = err.Error()
			continue
		}

		jobs = append(jobs, simulation.TickerJob{Ticker: symbol, Bars: bars, Fund: fund})
	}

	results := simulation.RunTickerJobs(jobs, s.workers, func(job simulation.TickerJob) (any, error) {
		return sc.Scan(job.Ticker, job.Bars, job.Fund)
	})

	var hits []*models.ScanResult
	for _, res := range results {
		if res.Err != nil {
			failed[res.Ticker] = res.Err.Error()
			continue
		}
		hit, ok := res.Value.(*models.ScanResult)
		if !ok || hit == nil {
			continue
		}
		hits = append(hits, hit)
		metrics.RecordSignal()
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Ticker < hits[j].Ticker
	})

	metrics.RecordScan(time.Since(startTime).Seconds())
	s.logger.WithFields(logrus.Fields{
		"scanner":  sc.Name(),
		"universe": len(symbols),
		"signals":  len(hits),
		"failed":   len(failed),
		"duration": time.Since(startTime).String(),
	}).Info("Universe scan complete")

	return &ScanOutcome{Results: hits, Failed: failed}, nil
}

// PersistResults stores one scan run's hits
func (s *ScanService) PersistResults(ctx context.Context, sc scanner.Scanner, scanDate time.Time, outcome *ScanOutcome) error {
	if s.scanRepo == nil || len(outcome.Results) == 0 {
		return nil
	}

	records := make([]*models.ScanRecord, 0, len(outcome.Results))
	for _, hit := range outcome.Results {
		bars, err := s.data.GetHistory(ctx, hit.Ticker)
		if err != nil || len(bars) == 0 {
			continue
		}
		lastClose := bars[len(bars)-1].Close
		records = append(records, models.NewScanRecord(sc.Name(), scanDate, lastClose, hit))
	}

	return s.scanRepo.InsertBatch(ctx, records)
}
