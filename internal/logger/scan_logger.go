// Package logger provides scan-specific logging.
package logger

import (
	"github.com/sirupsen/logrus"
)

// ScanLogger provides dedicated logging for scanner runs.
type ScanLogger struct {
	*logrus.Entry
}

// NewScanLogger creates a new scan logger.
func NewScanLogger(baseLogger *logrus.Logger) *ScanLogger {
	return &ScanLogger{
		Entry: baseLogger.WithField("component", "scan"),
	}
}

// LogScanRun logs a completed scan over the ticker universe.
func (sl *ScanLogger) LogScanRun(scannerName string, tickersScanned, signalsFound, errors int, durationMs float64) {
	sl.WithFields(logrus.Fields{
		"scanner":          scannerName,
		"tickers_scanned":  tickersScanned,
		"signals_found":    signalsFound,
		"errors":           errors,
		"scan_duration_ms": durationMs,
	}).Info("Scan run completed")
}

// LogSignal logs an individual entry signal.
func (sl *ScanLogger) LogSignal(scannerName, ticker string, score float64, signal, reason string, price float64) {
	sl.WithFields(logrus.Fields{
		"scanner": scannerName,
		"ticker":  ticker,
		"score":   score,
		"signal":  signal,
		"reason":  reason,
		"price":   price,
	}).Info("Entry signal generated")
}

// LogSimulationRun logs a completed simulation.
func (sl *ScanLogger) LogSimulationRun(scannerName, ticker string, trades int, totalReturnPct, winRatePct float64) {
	sl.WithFields(logrus.Fields{
		"scanner":          scannerName,
		"ticker":           ticker,
		"trades":           trades,
		"total_return_pct": totalReturnPct,
		"win_rate_pct":     winRatePct,
	}).Info("Simulation completed")
}
