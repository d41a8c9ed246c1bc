package datasource

import (
	"context"
	"errors"
	"time"

	"github.com/yourusername/market-lens/internal/models"
)

// DataSource defines the interface for fetching market data from external providers
type DataSource interface {
	// FetchDailyBars retrieves daily OHLCV bars for a ticker within the date range
	FetchDailyBars(ctx context.Context, ticker string, startDate, endDate time.Time) (models.PriceSeries, error)

	// FetchFundamentals retrieves listing metadata for a ticker
	FetchFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error)

	// FetchUniverse retrieves the provider's current US-listed ticker universe
	FetchUniverse(ctx context.Context) ([]*models.TickerRecord, error)

	// Name returns the name of the data source
	Name() string

	// IsEnabled returns whether this data source is currently enabled
	IsEnabled() bool
}

// DataSourceError represents errors from data source operations
type DataSourceError struct {
	Source  string // Data source name
	Code    string // Error code (e.g., "rate_limit_exceeded")
	Message string // Error message
	Err     error  // Underlying error
}

func (e DataSourceError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Source + ": " + e.Code + ": " + e.Message
}

func (e DataSourceError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeDisabled             = "source_disabled"
)

const dataSourceDisabledMsg = "data source is disabled"

// Sentinel errors
var (
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNotFound             = errors.New("data not found")
	ErrInvalidData          = errors.New("invalid data format")
	ErrNetworkError         = errors.New("network error")
	ErrServerError          = errors.New("server error")
)

// NewDataSourceError creates a new data source error
func NewDataSourceError(source, code, message string, err error) DataSourceError {
	return DataSourceError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}
