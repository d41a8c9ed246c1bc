package models

import (
	"time"

	"github.com/google/uuid"
)

// TickerRecord is a row in the ticker universe table.
type TickerRecord struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Symbol    string    `db:"symbol" json:"symbol"`
	Name      string    `db:"name" json:"name"`
	Exchange  string    `db:"exchange" json:"exchange"`
	Sector    string    `db:"sector" json:"sector"`
	MarketCap float64   `db:"market_cap" json:"market_cap"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Fundamentals converts the record into the scanner-facing shape.
func (t *TickerRecord) Fundamentals() *Fundamentals {
	return &Fundamentals{
		Ticker:    t.Symbol,
		MarketCap: t.MarketCap,
		Exchange:  t.Exchange,
		Sector:    t.Sector,
		Name:      t.Name,
	}
}

// ScanRecord is a persisted scan result, one row per ticker per scan run.
type ScanRecord struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Scanner   string    `db:"scanner" json:"scanner"`
	Ticker    string    `db:"ticker" json:"ticker"`
	ScanDate  time.Time `db:"scan_date" json:"scan_date"`
	Score     float64   `db:"score" json:"score"`
	Signal    Signal    `db:"signal" json:"signal"`
	Reason    string    `db:"reason" json:"reason"`
	Price     float64   `db:"price" json:"price"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// NewScanRecord builds a persistable row from a scan result.
func NewScanRecord(scanner string, scanDate time.Time, price float64, res *ScanResult) *ScanRecord {
	return &ScanRecord{
		ID:        uuid.New(),
		Scanner:   scanner,
		Ticker:    res.Ticker,
		ScanDate:  scanDate,
		Score:     res.Score,
		Signal:    res.Signal,
		Reason:    res.Details["entry"],
		Price:     price,
		CreatedAt: time.Now().UTC(),
	}
}

// BacktestRun is a persisted per-window summary of a moving-average
// sensitivity run over one ticker.
type BacktestRun struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Ticker       string    `db:"ticker" json:"ticker"`
	RunDate      time.Time `db:"run_date" json:"run_date"`
	Strategy     string    `db:"strategy" json:"strategy"`
	HoldDays     int       `db:"hold_days" json:"hold_days"`
	MAWindow     int       `db:"ma_window" json:"ma_window"`
	Touches      int       `db:"touches" json:"touches"`
	Wins         int       `db:"wins" json:"wins"`
	WinRatePct   float64   `db:"win_rate_pct" json:"win_rate_pct"`
	AvgReturnPct float64   `db:"avg_return_pct" json:"avg_return_pct"`
	Score        float64   `db:"score" json:"score"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
