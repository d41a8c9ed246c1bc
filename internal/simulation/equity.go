package simulation

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// EquityPoint represents one simulated day's portfolio value. Equity always
// equals Cash plus the mark-to-market value of open positions at that day's
// close; the curve never free-floats.
type EquityPoint struct {
	Date           time.Time `json:"date"`
	Equity         float64   `json:"equity"`
	Cash           float64   `json:"cash"`
	PositionsValue float64   `json:"positions_value"`
	NumPositions   int       `json:"num_positions"`
}

// EquityCurve is a date-ascending series of equity points
type EquityCurve []EquityPoint

// TotalReturnPct returns the percent change from the first to the last point
func (e EquityCurve) TotalReturnPct() float64 {
	if len(e) == 0 || e[0].Equity == 0 {
		return 0
	}
	return (e[len(e)-1].Equity - e[0].Equity) / e[0].Equity * 100
}

// MaxDrawdownPct returns the deepest peak-to-trough decline as a negative
// percentage, 0 for a curve that never declines.
func (e EquityCurve) MaxDrawdownPct() float64 {
	maxDD := 0.0
	peak := 0.0
	for _, p := range e {
		if p.Equity > peak {
			peak = p.Equity
		}
		if peak == 0 {
			continue
		}
		dd := (p.Equity - peak) / peak * 100
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// GetReturns calculates day-over-day returns from the curve
func (e EquityCurve) GetReturns() []float64 {
	if len(e) < 2 {
		return []float64{}
	}
	returns := make([]float64, 0, len(e)-1)
	for i := 1; i < len(e); i++ {
		prev := e[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (e[i].Equity-prev)/prev)
	}
	return returns
}

// ToCSV exports the curve as a CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,equity,cash,positions_value,num_positions\n")
	for _, p := range e {
		buf.WriteString(p.Date.Format("2006-01-02"))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(p.Equity, 'f', 2, 64))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(p.Cash, 'f', 2, 64))
		buf.WriteString(",")
		buf.WriteString(strconv.FormatFloat(p.PositionsValue, 'f', 2, 64))
		buf.WriteString(",")
		buf.WriteString(strconv.Itoa(p.NumPositions))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports the curve as a JSON string
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}
