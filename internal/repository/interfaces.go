package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/market-lens/internal/models"
)

// BarRepository defines the interface for daily price bar data access
type BarRepository interface {
	UpsertBars(ctx context.Context, ticker string, bars models.PriceSeries) (int, error)
	GetBars(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error)
	GetAllBars(ctx context.Context, ticker string) (models.PriceSeries, error)
	GetLatestDate(ctx context.Context, ticker string) (time.Time, error)
	DeleteBars(ctx context.Context, ticker string) error
}

// TickerRepository defines the interface for ticker universe data access
type TickerRepository interface {
	Upsert(ctx context.Context, record *models.TickerRecord) error
	GetBySymbol(ctx context.Context, symbol string) (*models.TickerRecord, error)
	ListActive(ctx context.Context) ([]*models.TickerRecord, error)
	Deactivate(ctx context.Context, symbol string) error
}

// ScanResultRepository defines the interface for scan result persistence
type ScanResultRepository interface {
	InsertBatch(ctx context.Context, records []*models.ScanRecord) error
	GetByDate(ctx context.Context, scanner string, date time.Time) ([]*models.ScanRecord, error)
	GetLatestForTicker(ctx context.Context, ticker string, limit int) ([]*models.ScanRecord, error)
}

// BacktestRunRepository defines backtest summary persistence
type BacktestRunRepository interface {
	SaveRun(ctx context.Context, run *models.BacktestRun) error
	GetByTicker(ctx context.Context, ticker string) ([]*models.BacktestRun, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRun, error)
	GetLatest(ctx context.Context, limit int) ([]*models.BacktestRun, error)
}
