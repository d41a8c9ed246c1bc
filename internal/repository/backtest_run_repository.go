package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/market-lens/internal/database"
	"github.com/yourusername/market-lens/internal/models"
)

const errScanBacktestRun = "failed to scan backtest run: %w"

// PostgresBacktestRunRepository implements BacktestRunRepository for PostgreSQL
type PostgresBacktestRunRepository struct {
	db *database.DB
}

// NewPostgresBacktestRunRepository creates a new backtest run repository
func NewPostgresBacktestRunRepository(db *database.DB) BacktestRunRepository {
	return &PostgresBacktestRunRepository{db: db}
}

// SaveRun inserts a per-window backtest summary
func (r *PostgresBacktestRunRepository) SaveRun(ctx context.Context, run *models.BacktestRun) error {
	query := `
		INSERT INTO backtest_runs (
			id, ticker, run_date, strategy, hold_days, ma_window,
			touches, wins, win_rate_pct, avg_return_pct, score, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.GetPool().Exec(ctx, query,
		run.ID, run.Ticker, run.RunDate, run.Strategy, run.HoldDays, run.MAWindow,
		run.Touches, run.Wins, run.WinRatePct, run.AvgReturnPct, run.Score, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest run: %w", err)
	}
	return nil
}

// GetByTicker retrieves backtest runs for a ticker, newest first
func (r *PostgresBacktestRunRepository) GetByTicker(ctx context.Context, ticker string) ([]*models.BacktestRun, error) {
	query := `
		SELECT id, ticker, run_date, strategy, hold_days, ma_window,
			touches, wins, win_rate_pct, avg_return_pct, score, created_at
		FROM backtest_runs WHERE ticker = $1 ORDER BY run_date DESC, ma_window ASC
	`
	rows, err := r.db.GetPool().Query(ctx, query, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query backtest runs for %s: %w", ticker, err)
	}
	defer rows.Close()

	return scanBacktestRuns(rows)
}

// GetByID retrieves a single backtest run by ID
func (r *PostgresBacktestRunRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestRun, error) {
	query := `
		SELECT id, ticker, run_date, strategy, hold_days, ma_window,
			touches, wins, win_rate_pct, avg_return_pct, score, created_at
		FROM backtest_runs WHERE id = $1
	`

	run := &models.BacktestRun{}
	err := r.db.GetPool().QueryRow(ctx, query, id).Scan(
		&run.ID, &run.Ticker, &run.RunDate, &run.Strategy, &run.HoldDays, &run.MAWindow,
		&run.Touches, &run.Wins, &run.WinRatePct, &run.AvgReturnPct, &run.Score, &run.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest run: %w", err)
	}

	return run, nil
}

// GetLatest retrieves the most recent backtest runs across all tickers
func (r *PostgresBacktestRunRepository) GetLatest(ctx context.Context, limit int) ([]*models.BacktestRun, error) {
	query := `
		SELECT id, ticker, run_date, strategy, hold_days, ma_window,
			touches, wins, win_rate_pct, avg_return_pct, score, created_at
		FROM backtest_runs ORDER BY run_date DESC LIMIT $1
	`
	rows, err := r.db.GetPool().Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest backtest runs: %w", err)
	}
	defer rows.Close()

	return scanBacktestRuns(rows)
}

func scanBacktestRuns(rows pgx.Rows) ([]*models.BacktestRun, error) {
	var runs []*models.BacktestRun
	for rows.Next() {
		run := &models.BacktestRun{}
		if err := rows.Scan(
			&run.ID, &run.Ticker, &run.RunDate, &run.Strategy, &run.HoldDays, &run.MAWindow,
			&run.Touches, &run.Wins, &run.WinRatePct, &run.AvgReturnPct, &run.Score, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf(errScanBacktestRun, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
