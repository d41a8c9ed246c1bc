package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/models"
)

const csvSourceName = "csv"

// CSVSource implements DataSource over a directory of per-ticker CSV files.
// Each file is <TICKER>.csv with a Date,Open,High,Low,Close,Volume header.
// Useful for offline backfills and deterministic local runs.
type CSVSource struct {
	dir     string
	enabled bool
	logger  logrus.FieldLogger
}

// NewCSVSource creates a CSV-backed data source rooted at dir
func NewCSVSource(dir string, enabled bool, logger logrus.FieldLogger) *CSVSource {
	return &CSVSource{dir: dir, enabled: enabled, logger: logger}
}

// Name returns the data source name
func (s *CSVSource) Name() string {
	return csvSourceName
}

// IsEnabled returns whether the source is enabled
func (s *CSVSource) IsEnabled() bool {
	return s.enabled
}

// FetchDailyBars reads a ticker's CSV file and returns bars within the date range
func (s *CSVSource) FetchDailyBars(ctx context.Context, ticker string, startDate, endDate time.Time) (models.PriceSeries, error) {
	if !s.enabled {
		return nil, NewDataSourceError(csvSourceName, ErrCodeDisabled, dataSourceDisabledMsg, nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(s.dir, fmt.Sprintf("%s.csv", strings.ToUpper(ticker)))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, NewDataSourceError(csvSourceName, ErrCodeNotFound, fmt.Sprintf("no file for %s", ticker), err)
		}
		return nil, NewDataSourceError(csvSourceName, ErrCodeInvalidData, "failed to open file", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 6

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, NewDataSourceError(csvSourceName, ErrCodeInvalidData, "failed to read CSV", err)
	}
	if len(rows) < 2 {
		return models.PriceSeries{}, nil
	}

	// First row is the header
	var bars models.PriceSeries
	for i, row := range rows[1:] {
		bar, err := parseCSVRow(row)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"ticker": ticker,
				"line":   i + 2,
				"error":  err.Error(),
			}).Warn("Skipping malformed CSV row")
			continue
		}
		if bar.Date.Before(startDate) || bar.Date.After(endDate) {
			continue
		}
		bars = append(bars, *bar)
	}

	return bars, nil
}

// FetchFundamentals is unsupported for CSV sources
func (s *CSVSource) FetchFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	return nil, NewDataSourceError(csvSourceName, ErrCodeNotFound, "fundamentals not available from CSV", nil)
}

// FetchUniverse lists the tickers present in the directory
func (s *CSVSource) FetchUniverse(ctx context.Context) ([]*models.TickerRecord, error) {
	if !s.enabled {
		return nil, NewDataSourceError(csvSourceName, ErrCodeDisabled, dataSourceDisabledMsg, nil)
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, NewDataSourceError(csvSourceName, ErrCodeInvalidData, "failed to read directory", err)
	}

	var records []*models.TickerRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSuffix(entry.Name(), ".csv"))
		records = append(records, &models.TickerRecord{
			Symbol: symbol,
			Active: true,
		})
	}

	return records, nil
}

// parseCSVRow parses Date,Open,High,Low,Close,Volume
func parseCSVRow(row []string) (*models.PriceBar, error) {
	date, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", row[0], err)
	}

	prices := make([]float64, 4)
	for i, field := range row[1:5] {
		d, err := decimal.NewFromString(strings.TrimSpace(field))
		if err != nil {
			return nil, fmt.Errorf("invalid price %q: %w", field, err)
		}
		if d.Sign() <= 0 {
			return nil, fmt.Errorf("non-positive price %q", field)
		}
		prices[i] = d.InexactFloat64()
	}

	volume, err := strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid volume %q: %w", row[5], err)
	}
	if volume < 0 {
		return nil, fmt.Errorf("negative volume %d", volume)
	}

	return &models.PriceBar{
		Date:   date.UTC(),
		Open:   prices[0],
		High:   prices[1],
		Low:    prices[2],
		Close:  prices[3],
		Volume: float64(volume),
	}, nil
}
