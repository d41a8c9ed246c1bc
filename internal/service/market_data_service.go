package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	cache "github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/repository"
)

// MarketDataService is the read path for stored market data. Histories are
// cached in memory so a scan followed by a simulation does not hit the
// database twice for the same ticker.
type MarketDataService struct {
	barRepo    repository.BarRepository
	tickerRepo repository.TickerRepository
	cache      *cache.Cache
	logger     logrus.FieldLogger
}

// NewMarketDataService creates a new market data read service
func NewMarketDataService(
	barRepo repository.BarRepository,
	tickerRepo repository.TickerRepository,
	cacheTTL time.Duration,
	logger logrus.FieldLogger,
) *MarketDataService {
	if cacheTTL <= 0 {
		cacheTTL = 15 * time.Minute
	}

	return &MarketDataService{
		barRepo:    barRepo,
		tickerRepo: tickerRepo,
		cache:      cache.New(cacheTTL, cacheTTL*2),
		logger:     logger,
	}
}

// GetHistory returns the full stored daily history for a ticker
func (m *MarketDataService) GetHistory(ctx context.Context, ticker string) (models.PriceSeries, error) {
	key := "bars:" + ticker
	if cached, found := m.cache.Get(key); found {
		if bars, ok := cached.(models.PriceSeries); ok {
			return bars, nil
		}
	}

	bars, err := m.barRepo.GetAllBars(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", ticker, err)
	}

	m.cache.SetDefault(key, bars)
	return bars, nil
}

// GetHistoryRange returns stored bars for a ticker within a date range
func (m *MarketDataService) GetHistoryRange(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error) {
	bars, err := m.barRepo.GetBars(ctx, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for %s: %w", ticker, err)
	}
	return bars, nil
}

// GetFundamentals returns listing metadata for a ticker, falling back to a
// bare record when the universe table has no row
func (m *MarketDataService) GetFundamentals(ctx context.Context, ticker string) (models.Fundamentals, error) {
	key := "fund:" + ticker
	if cached, found := m.cache.Get(key); found {
		if fund, ok := cached.(models.Fundamentals); ok {
			return fund, nil
		}
	}

	record, err := m.tickerRepo.GetBySymbol(ctx, ticker)
	if errors.Is(err, models.ErrNotFound) {
		return models.Fundamentals{Ticker: ticker}, nil
	}
	if err != nil {
		return models.Fundamentals{}, fmt.Errorf("failed to load fundamentals for %s: %w", ticker, err)
	}

	fund := *record.Fundamentals()
	m.cache.SetDefault(key, fund)
	return fund, nil
}

// ActiveSymbols returns the active universe symbols in sorted order
func (m *MarketDataService) ActiveSymbols(ctx context.Context) ([]string, error) {
	records, err := m.tickerRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tickers: %w", err)
	}

	symbols := make([]string, 0, len(records))
	for _, record := range records {
		symbols = append(symbols, record.Symbol)
	}
	return symbols, nil
}

// InvalidateTicker drops cached entries for a ticker after re-ingestion
func (m *MarketDataService) InvalidateTicker(ticker string) {
	m.cache.Delete("bars:" + ticker)
	m.cache.Delete("fund:" + ticker)
}
