package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/market-lens/internal/database"
	"github.com/yourusername/market-lens/internal/models"
)

const errScanTicker = "failed to scan ticker record: %w"

// PostgresTickerRepository implements TickerRepository for PostgreSQL
type PostgresTickerRepository struct {
	db *database.DB
}

// NewPostgresTickerRepository creates a new ticker repository
func NewPostgresTickerRepository(db *database.DB) TickerRepository {
	return &PostgresTickerRepository{db: db}
}

// Upsert inserts or updates a ticker universe row keyed by symbol
func (r *PostgresTickerRepository) Upsert(ctx context.Context, record *models.TickerRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	query := `
		INSERT INTO tickers (id, symbol, name, exchange, sector, market_cap, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (symbol) DO UPDATE SET
			name = EXCLUDED.name,
			exchange = EXCLUDED.exchange,
			sector = EXCLUDED.sector,
			market_cap = EXCLUDED.market_cap,
			active = EXCLUDED.active,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		record.ID, record.Symbol, record.Name, record.Exchange, record.Sector,
		record.MarketCap, record.Active, record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert ticker %s: %w", record.Symbol, err)
	}

	return nil
}

// GetBySymbol retrieves a ticker record by its symbol
func (r *PostgresTickerRepository) GetBySymbol(ctx context.Context, symbol string) (*models.TickerRecord, error) {
	query := `
		SELECT id, symbol, name, exchange, sector, market_cap, active, created_at, updated_at
		FROM tickers WHERE symbol = $1
	`

	record := &models.TickerRecord{}
	err := r.db.GetPool().QueryRow(ctx, query, symbol).Scan(
		&record.ID, &record.Symbol, &record.Name, &record.Exchange, &record.Sector,
		&record.MarketCap, &record.Active, &record.CreatedAt, &record.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker %s: %w", symbol, err)
	}

	return record, nil
}

// ListActive retrieves all active universe tickers ordered by symbol
func (r *PostgresTickerRepository) ListActive(ctx context.Context) ([]*models.TickerRecord, error) {
	query := `
		SELECT id, symbol, name, exchange, sector, market_cap, active, created_at, updated_at
		FROM tickers WHERE active = true ORDER BY symbol ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query active tickers: %w", err)
	}
	defer rows.Close()

	var records []*models.TickerRecord
	for rows.Next() {
		record := &models.TickerRecord{}
		if err := rows.Scan(
			&record.ID, &record.Symbol, &record.Name, &record.Exchange, &record.Sector,
			&record.MarketCap, &record.Active, &record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf(errScanTicker, err)
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// Deactivate marks a ticker as removed from the scan universe
func (r *PostgresTickerRepository) Deactivate(ctx context.Context, symbol string) error {
	query := `UPDATE tickers SET active = false, updated_at = $2 WHERE symbol = $1`

	tag, err := r.db.GetPool().Exec(ctx, query, symbol, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to deactivate ticker %s: %w", symbol, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
