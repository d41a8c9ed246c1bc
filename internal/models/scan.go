package models

import "time"

// Signal represents the strength bucket a scanner assigns to a ticker
type Signal string

const (
	SignalStrongBuy Signal = "STRONG_BUY"
	SignalBuy       Signal = "BUY"
	SignalWatch     Signal = "WATCH"
)

// SignalForScore maps a 0-100 score onto a signal bucket
func SignalForScore(score float64) Signal {
	switch {
	case score >= 65:
		return SignalStrongBuy
	case score >= 40:
		return SignalBuy
	default:
		return SignalWatch
	}
}

// ScanResult is a scanner's verdict on a single ticker at evaluation time.
// Details is a free-form sidecar for display only; nothing in the core
// depends on its keys.
type ScanResult struct {
	Ticker  string            `json:"ticker"`
	Score   float64           `json:"score"`
	Signal  Signal            `json:"signal"`
	Details map[string]string `json:"details,omitempty"`
}

// NewScanResult builds a result with the score clamped to [0, 100]
func NewScanResult(ticker string, score float64, signal Signal, details map[string]string) *ScanResult {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	if details == nil {
		details = map[string]string{}
	}
	return &ScanResult{Ticker: ticker, Score: score, Signal: signal, Details: details}
}

// EntrySignal marks a date where a scanner wants to open a position
type EntrySignal struct {
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Reason string    `json:"reason"`
	Score  float64   `json:"score"`
}

// ExitSignal marks a date where a scanner wants to close an open position
type ExitSignal struct {
	Date   time.Time  `json:"date"`
	Price  float64    `json:"price"`
	Reason ExitReason `json:"reason"`
}
