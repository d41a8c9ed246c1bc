package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/yourusername/market-lens/internal/models"
)

// WriteJSON marshals v with indentation and writes it to path, creating
// parent directories as needed
func WriteJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}

// WriteTradesCSV exports a trade log as CSV
func WriteTradesCSV(path string, trades []models.Trade) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{"ticker", "entry_date", "entry_price", "entry_reason", "exit_date", "exit_price", "exit_reason", "return_pct", "hold_days"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, t := range trades {
		row := []string{
			t.Ticker,
			t.EntryDate.Format(dateLayout),
			fmt.Sprintf("%.4f", t.EntryPrice),
			t.EntryReason,
			t.ExitDate.Format(dateLayout),
			fmt.Sprintf("%.4f", t.ExitPrice),
			string(t.ExitReason),
			fmt.Sprintf("%.4f", t.ReturnPct),
			fmt.Sprintf("%d", t.HoldDays),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	return w.Error()
}

// WriteEquityCSV exports an equity curve as CSV using its own encoder
func WriteEquityCSV(path string, csvBody string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(csvBody), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
