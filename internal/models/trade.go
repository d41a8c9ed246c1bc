package models

import "time"

// ExitReason identifies the rule that closed a position
type ExitReason string

const (
	ExitStopLoss        ExitReason = "STOP_LOSS"
	ExitProfitTarget    ExitReason = "PROFIT_TARGET"
	ExitMABreakdown     ExitReason = "MA20_BREAKDOWN"
	ExitSharpDrop       ExitReason = "SHARP_DROP"
	ExitVolumeBreakdown ExitReason = "VOLUME_BREAKDOWN"
	ExitTimeStop        ExitReason = "TIME_EXIT"
	ExitEndOfData       ExitReason = "END_OF_DATA"
)

// Position is an open holding owned by a simulator. At most one position per
// ticker is open at any time, in both the single-ticker and portfolio runs.
type Position struct {
	Ticker           string      `json:"ticker"`
	Entry            EntrySignal `json:"entry"`
	Shares           float64     `json:"shares"`
	CapitalCommitted float64     `json:"capital_committed"`
}

// Trade is the immutable record of a closed position
type Trade struct {
	Ticker      string     `json:"ticker"`
	EntryDate   time.Time  `json:"entry_date"`
	EntryPrice  float64    `json:"entry_price"`
	EntryReason string     `json:"entry_reason"`
	ExitDate    time.Time  `json:"exit_date"`
	ExitPrice   float64    `json:"exit_price"`
	ExitReason  ExitReason `json:"exit_reason"`
	ReturnPct   float64    `json:"return_pct"`
	HoldDays    int        `json:"hold_days"`
}

// IsWin reports whether the trade closed with a positive return
func (t Trade) IsWin() bool {
	return t.ReturnPct > 0
}

// CloseTrade settles a position into a trade record. ReturnPct is expressed
// in percent of entry price, HoldDays in calendar days.
func CloseTrade(pos *Position, exit ExitSignal) Trade {
	returnPct := (exit.Price - pos.Entry.Price) / pos.Entry.Price * 100
	return Trade{
		Ticker:      pos.Ticker,
		EntryDate:   pos.Entry.Date,
		EntryPrice:  pos.Entry.Price,
		EntryReason: pos.Entry.Reason,
		ExitDate:    exit.Date,
		ExitPrice:   exit.Price,
		ExitReason:  exit.Reason,
		ReturnPct:   returnPct,
		HoldDays:    int(exit.Date.Sub(pos.Entry.Date).Hours() / 24),
	}
}
