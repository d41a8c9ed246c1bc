package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/market-lens/internal/database"
	"github.com/yourusername/market-lens/internal/models"
)

const errScanBar = "failed to scan price bar: %w"

// PostgresBarRepository implements BarRepository for PostgreSQL
type PostgresBarRepository struct {
	db *database.DB
}

// NewPostgresBarRepository creates a new bar repository
func NewPostgresBarRepository(db *database.DB) BarRepository {
	return &PostgresBarRepository{db: db}
}

// UpsertBars inserts or replaces daily bars for a ticker and returns the
// number of rows written. Bars on existing dates are overwritten so that
// provider restatements win.
func (r *PostgresBarRepository) UpsertBars(ctx context.Context, ticker string, bars models.PriceSeries) (int, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO daily_bars (ticker, bar_date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, bar_date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`

	batch := &pgx.Batch{}
	for _, bar := range bars {
		batch.Queue(query, ticker, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume)
	}

	results := r.db.GetPool().SendBatch(ctx, batch)
	defer results.Close()

	written := 0
	for range bars {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("failed to upsert bars for %s: %w", ticker, err)
		}
		written++
	}

	return written, nil
}

// GetBars retrieves bars for a ticker within a date range, ordered by date
func (r *PostgresBarRepository) GetBars(ctx context.Context, ticker string, start, end time.Time) (models.PriceSeries, error) {
	query := `
		SELECT bar_date, open, high, low, close, volume
		FROM daily_bars
		WHERE ticker = $1 AND bar_date >= $2 AND bar_date <= $3
		ORDER BY bar_date ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars for %s: %w", ticker, err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetAllBars retrieves the full daily history for a ticker, ordered by date
func (r *PostgresBarRepository) GetAllBars(ctx context.Context, ticker string) (models.PriceSeries, error) {
	query := `
		SELECT bar_date, open, high, low, close, volume
		FROM daily_bars
		WHERE ticker = $1
		ORDER BY bar_date ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query bars for %s: %w", ticker, err)
	}
	defer rows.Close()

	return scanBars(rows)
}

// GetLatestDate returns the most recent bar date stored for a ticker
func (r *PostgresBarRepository) GetLatestDate(ctx context.Context, ticker string) (time.Time, error) {
	query := `SELECT MAX(bar_date) FROM daily_bars WHERE ticker = $1`

	var latest *time.Time
	err := r.db.GetPool().QueryRow(ctx, query, ticker).Scan(&latest)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest bar date for %s: %w", ticker, err)
	}
	if latest == nil {
		return time.Time{}, models.ErrNotFound
	}

	return *latest, nil
}

// DeleteBars removes all stored bars for a ticker
func (r *PostgresBarRepository) DeleteBars(ctx context.Context, ticker string) error {
	_, err := r.db.GetPool().Exec(ctx, `DELETE FROM daily_bars WHERE ticker = $1`, ticker)
	if err != nil {
		return fmt.Errorf("failed to delete bars for %s: %w", ticker, err)
	}
	return nil
}

func scanBars(rows pgx.Rows) (models.PriceSeries, error) {
	var bars models.PriceSeries
	for rows.Next() {
		var bar models.PriceBar
		if err := rows.Scan(&bar.Date, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, fmt.Errorf(errScanBar, err)
		}
		bars = append(bars, bar)
	}
	return bars, rows.Err()
}
