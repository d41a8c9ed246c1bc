package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/datasource"
	"github.com/yourusername/market-lens/internal/metrics"
	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/repository"
)

const dateLayout = "2006-01-02"

// IngestionService handles the market data ingestion workflow
type IngestionService struct {
	sources    []datasource.DataSource
	barRepo    repository.BarRepository
	tickerRepo repository.TickerRepository
	metrics    *IngestionMetrics
	logger     logrus.FieldLogger
	batchSize  int
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	sources []datasource.DataSource,
	barRepo repository.BarRepository,
	tickerRepo repository.TickerRepository,
	logger logrus.FieldLogger,
	batchSize int,
) *IngestionService {
	if batchSize <= 0 {
		batchSize = 100
	}

	return &IngestionService{
		sources:    sources,
		barRepo:    barRepo,
		tickerRepo: tickerRepo,
		metrics:    NewIngestionMetrics(),
		logger:     logger,
		batchSize:  batchSize,
	}
}

// findSource looks up a configured data source by name
func (s *IngestionService) findSource(sourceName string) (datasource.DataSource, error) {
	for _, src := range s.sources {
		if src.Name() == sourceName {
			return src, nil
		}
	}
	return nil, fmt.Errorf("data source not found: %s", sourceName)
}

// RefreshUniverse fetches the provider's listing universe and upserts it
func (s *IngestionService) RefreshUniverse(ctx context.Context, sourceName string) (int, error) {
	source, err := s.findSource(sourceName)
	if err != nil {
		return 0, err
	}

	records, err := source.FetchUniverse(ctx)
	if err != nil {
		metrics.RecordDataFetchError()
		return 0, fmt.Errorf("failed to fetch universe: %w", err)
	}

	upserted := 0
	for _, record := range records {
		if err := s.tickerRepo.Upsert(ctx, record); err != nil {
			s.logger.WithFields(logrus.Fields{
				"symbol": record.Symbol,
				"error":  err.Error(),
			}).Warn("Failed to upsert ticker")
			s.metrics.RecordError()
			continue
		}
		upserted++
	}

	metrics.UpdateUniverseSize(upserted)
	s.logger.WithFields(logrus.Fields{
		"source":   sourceName,
		"fetched":  len(records),
		"upserted": upserted,
	}).Info("Universe refresh complete")

	return upserted, nil
}

// IngestHistory fetches and stores daily bars for the given tickers. Tickers
// already holding bars only fetch the gap since their latest stored date.
func (s *IngestionService) IngestHistory(ctx context.Context, sourceName string, tickers []string, startDate, endDate time.Time) (*IngestionMetrics, error) {
	source, err := s.findSource(sourceName)
	if err != nil {
		return nil, err
	}

	s.metrics.Reset()
	s.metrics.TotalTickers = len(tickers)
	startTime := time.Now()

	s.logger.WithFields(logrus.Fields{
		"source":  sourceName,
		"tickers": len(tickers),
		"from":    startDate.Format(dateLayout),
		"to":      endDate.Format(dateLayout),
	}).Info("Starting history ingestion")

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return s.metrics, err
		}

		written, err := s.ingestTicker(ctx, source, ticker, startDate, endDate)
		if err != nil {
			s.metrics.RecordError()
			s.logger.WithFields(logrus.Fields{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Ticker ingestion failed")
			continue
		}
		if written == 0 {
			s.metrics.RecordSkipped()
			continue
		}
		s.metrics.RecordTicker(written)
		metrics.RecordIngestedBars(written)
	}

	s.metrics.Duration = time.Since(startTime)
	s.logger.WithField("summary", s.metrics.String()).Info("History ingestion complete")

	return s.metrics, nil
}

// ingestTicker fetches, validates, and stores one ticker's bars
func (s *IngestionService) ingestTicker(ctx context.Context, source datasource.DataSource, ticker string, startDate, endDate time.Time) (int, error) {
	from := startDate

	// Incremental fetch: resume from the day after the latest stored bar
	latest, err := s.barRepo.GetLatestDate(ctx, ticker)
	if err == nil && latest.After(from) {
		from = latest.AddDate(0, 0, 1)
	}
	if from.After(endDate) {
		return 0, nil
	}

	bars, err := source.FetchDailyBars(ctx, ticker, from, endDate)
	if err != nil {
		metrics.RecordDataFetchError()
		return 0, fmt.Errorf("fetch failed: %w", err)
	}
	if len(bars) == 0 {
		return 0, nil
	}

	if err := bars.Validate(); err != nil {
		s.metrics.RecordValidationError()
		return 0, fmt.Errorf("series validation failed: %w", err)
	}

	written, err := s.barRepo.UpsertBars(ctx, ticker, bars)
	if err != nil {
		return written, fmt.Errorf("store failed: %w", err)
	}

	return written, nil
}

// RefreshFundamentals updates listing metadata for the given tickers
func (s *IngestionService) RefreshFundamentals(ctx context.Context, sourceName string, tickers []string) error {
	source, err := s.findSource(sourceName)
	if err != nil {
		return err
	}

	for _, ticker := range tickers {
		if err := ctx.Err(); err != nil {
			return err
		}

		fund, err := source.FetchFundamentals(ctx, ticker)
		if err != nil {
			metrics.RecordDataFetchError()
			s.logger.WithFields(logrus.Fields{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Fundamentals fetch failed")
			continue
		}

		record, err := s.tickerRepo.GetBySymbol(ctx, ticker)
		if errors.Is(err, models.ErrNotFound) {
			record = &models.TickerRecord{Symbol: ticker, Active: true}
		} else if err != nil {
			return fmt.Errorf("failed to load ticker %s: %w", ticker, err)
		}

		record.Name = fund.Name
		record.Exchange = fund.Exchange
		record.Sector = fund.Sector
		record.MarketCap = fund.MarketCap

		if err := s.tickerRepo.Upsert(ctx, record); err != nil {
			s.logger.WithFields(logrus.Fields{
				"ticker": ticker,
				"error":  err.Error(),
			}).Warn("Failed to upsert fundamentals")
		}
	}

	return nil
}

// GetMetrics returns current ingestion metrics
func (s *IngestionService) GetMetrics() *IngestionMetrics {
	return s.metrics
}
