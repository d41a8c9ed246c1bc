package repository

import (
	"fmt"

	"github.com/yourusername/market-lens/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Bar         BarRepository
	Ticker      TickerRepository
	ScanResult  ScanResultRepository
	BacktestRun BacktestRunRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Bar:         NewPostgresBarRepository(db),
		Ticker:      NewPostgresTickerRepository(db),
		ScanResult:  NewPostgresScanResultRepository(db),
		BacktestRun: NewPostgresBacktestRunRepository(db),
	}, nil
}
