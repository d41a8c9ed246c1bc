package datasource

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func testCSVLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.ErrorLevel)
	return l
}

func TestCSVSourceFetchDailyBars(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "AAPL.csv", `Date,Open,High,Low,Close,Volume
2024-01-02,185.50,187.00,184.25,186.10,50000000
2024-01-03,186.00,186.80,183.90,184.20,48000000
not-a-date,1,1,1,1,1
2024-01-04,184.00,185.50,182.00,185.00,52000000
`)

	src := NewCSVSource(dir, true, testCSVLogger())
	bars, err := src.FetchDailyBars(context.Background(),
		"aapl",
		time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Malformed row skipped, range filter excludes Jan 4
	require.Len(t, bars, 2)
	assert.Equal(t, 186.10, bars[0].Close)
	assert.Equal(t, 50000000.0, bars[0].Volume)
	assert.NoError(t, bars.Validate())
}

func TestCSVSourceMissingTicker(t *testing.T) {
	src := NewCSVSource(t.TempDir(), true, testCSVLogger())
	_, err := src.FetchDailyBars(context.Background(), "MISSING", time.Time{}, time.Now())

	var dsErr DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ErrCodeNotFound, dsErr.Code)
}

func TestCSVSourceDisabled(t *testing.T) {
	src := NewCSVSource(t.TempDir(), false, testCSVLogger())
	_, err := src.FetchDailyBars(context.Background(), "AAPL", time.Time{}, time.Now())

	var dsErr DataSourceError
	require.ErrorAs(t, err, &dsErr)
	assert.Equal(t, ErrCodeDisabled, dsErr.Code)
}

func TestCSVSourceFetchUniverse(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "aapl.csv", "Date,Open,High,Low,Close,Volume\n")
	writeCSV(t, dir, "MSFT.csv", "Date,Open,High,Low,Close,Volume\n")
	writeCSV(t, dir, "notes.txt", "ignored")

	src := NewCSVSource(dir, true, testCSVLogger())
	records, err := src.FetchUniverse(context.Background())
	require.NoError(t, err)

	symbols := make([]string, len(records))
	for i, r := range records {
		symbols[i] = r.Symbol
	}
	assert.ElementsMatch(t, []string{"AAPL", "MSFT"}, symbols)
}

func TestParseCSVRow(t *testing.T) {
	tests := []struct {
		name    string
		row     []string
		wantErr bool
	}{
		{"valid", []string{"2024-01-02", "10", "11", "9", "10.5", "1000"}, false},
		{"bad date", []string{"02/01/2024", "10", "11", "9", "10.5", "1000"}, true},
		{"zero price", []string{"2024-01-02", "0", "11", "9", "10.5", "1000"}, true},
		{"negative volume", []string{"2024-01-02", "10", "11", "9", "10.5", "-1"}, true},
		{"garbage price", []string{"2024-01-02", "ten", "11", "9", "10.5", "1000"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar, err := parseCSVRow(tt.row)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 10.5, bar.Close)
		})
	}
}
