package service

import (
	"fmt"
	"sync"
	"time"
)

// IngestionMetrics tracks statistics about data ingestion
type IngestionMetrics struct {
	mu                sync.RWMutex
	StartTime         time.Time
	Duration          time.Duration
	TotalTickers      int
	SuccessfulTickers int
	BarsWritten       int
	Skipped           int
	ValidationErrors  int
	Errors            int
}

// NewIngestionMetrics creates a new metrics tracker
func NewIngestionMetrics() *IngestionMetrics {
	return &IngestionMetrics{
		StartTime: time.Now(),
	}
}

// Reset resets all metrics
func (m *IngestionMetrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StartTime = time.Now()
	m.Duration = 0
	m.TotalTickers = 0
	m.SuccessfulTickers = 0
	m.BarsWritten = 0
	m.Skipped = 0
	m.ValidationErrors = 0
	m.Errors = 0
}

// RecordTicker increments the successful ticker count
func (m *IngestionMetrics) RecordTicker(barsWritten int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SuccessfulTickers++
	m.BarsWritten += barsWritten
}

// RecordSkipped increments the up-to-date skip count
func (m *IngestionMetrics) RecordSkipped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Skipped++
}

// RecordError increments the error count
func (m *IngestionMetrics) RecordError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
}

// RecordValidationError increments the validation error count
func (m *IngestionMetrics) RecordValidationError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ValidationErrors++
}

// String returns a formatted string representation of metrics
func (m *IngestionMetrics) String() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return fmt.Sprintf("tickers=%d/%d bars=%d skipped=%d validation_errors=%d errors=%d duration=%v",
		m.SuccessfulTickers, m.TotalTickers, m.BarsWritten, m.Skipped, m.ValidationErrors, m.Errors, m.Duration)
}
