package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/market-lens/internal/database"
	"github.com/yourusername/market-lens/internal/models"
)

const errScanScanRecord = "failed to scan scan record: %w"

// PostgresScanResultRepository implements ScanResultRepository for PostgreSQL
type PostgresScanResultRepository struct {
	db *database.DB
}

// NewPostgresScanResultRepository creates a new scan result repository
func NewPostgresScanResultRepository(db *database.DB) ScanResultRepository {
	return &PostgresScanResultRepository{db: db}
}

// InsertBatch persists one scan run's results in a single batch
func (r *PostgresScanResultRepository) InsertBatch(ctx context.Context, records []*models.ScanRecord) error {
	if len(records) == 0 {
		return nil
	}

	query := `
		INSERT INTO scan_results (id, scanner, ticker, scan_date, score, signal, reason, price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(query,
			rec.ID, rec.Scanner, rec.Ticker, rec.ScanDate, rec.Score,
			string(rec.Signal), rec.Reason, rec.Price, rec.CreatedAt,
		)
	}

	results := r.db.GetPool().SendBatch(ctx, batch)
	defer results.Close()

	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert scan results: %w", err)
		}
	}

	return nil
}

// GetByDate retrieves one scanner's results for a scan date, best score first
func (r *PostgresScanResultRepository) GetByDate(ctx context.Context, scanner string, date time.Time) ([]*models.ScanRecord, error) {
	query := `
		SELECT id, scanner, ticker, scan_date, score, signal, reason, price, created_at
		FROM scan_results
		WHERE scanner = $1 AND scan_date = $2
		ORDER BY score DESC, ticker ASC
	`

	rows, err := r.db.GetPool().Query(ctx, query, scanner, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan results: %w", err)
	}
	defer rows.Close()

	return scanScanRecords(rows)
}

// GetLatestForTicker retrieves the most recent scan rows for a ticker
func (r *PostgresScanResultRepository) GetLatestForTicker(ctx context.Context, ticker string, limit int) ([]*models.ScanRecord, error) {
	query := `
		SELECT id, scanner, ticker, scan_date, score, signal, reason, price, created_at
		FROM scan_results
		WHERE ticker = $1
		ORDER BY scan_date DESC
		LIMIT $2
	`

	rows, err := r.db.GetPool().Query(ctx, query, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan results for %s: %w", ticker, err)
	}
	defer rows.Close()

	return scanScanRecords(rows)
}

func scanScanRecords(rows pgx.Rows) ([]*models.ScanRecord, error) {
	var records []*models.ScanRecord
	for rows.Next() {
		rec := &models.ScanRecord{}
		var signal string
		if err := rows.Scan(
			&rec.ID, &rec.Scanner, &rec.Ticker, &rec.ScanDate, &rec.Score,
			&signal, &rec.Reason, &rec.Price, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf(errScanScanRecord, err)
		}
		rec.Signal = models.Signal(signal)
		records = append(records, rec)
	}
	return records, rows.Err()
}
