// Package scanner defines the pluggable scoring contract the evaluation
// pipeline consumes, plus the built-in scanners that implement it.
package scanner

import (
	"time"

	"github.com/yourusername/market-lens/internal/models"
)

// Scanner evaluates tickers for trading opportunities. Implementations own
// their parameter semantics; the core passes Configure values through
// unvalidated beyond key recognition.
type Scanner interface {
	// Name is the short identifier used on the CLI
	Name() string

	// Description is the human-readable help text
	Description() string

	// Configure accepts runtime key=value parameters
	Configure(params map[string]string) error

	// Scan evaluates a ticker's full history at its final bar. A nil result
	// with nil error means the ticker does not pass the scan.
	Scan(ticker string, bars models.PriceSeries, fund models.Fundamentals) (*models.ScanResult, error)

	// NewSession precomputes per-ticker state for a simulation run. The
	// returned session is private to one ticker and one run.
	NewSession(ticker string, bars models.PriceSeries, fund models.Fundamentals) (Session, error)
}

// Session answers entry and exit questions during a simulation walk. The
// simulators call it in strictly increasing date order and never revisit a
// date, so implementations may precompute against full history as long as
// every answer uses only bars up to and including the queried date.
type Session interface {
	// CheckEntry reports an entry signal for date, or nil
	CheckEntry(date time.Time) *models.EntrySignal

	// CheckExit reports an exit signal for an open position at date, or nil
	CheckExit(entry *models.EntrySignal, date time.Time) *models.ExitSignal
}
