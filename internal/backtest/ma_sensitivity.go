// Package backtest measures how often a price touching a moving average in a
// trend-aligned regime is followed by a profitable bounce. It shares the
// indicator engine with the simulators but is otherwise independent of them.
package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/yourusername/market-lens/internal/indicator"
	"github.com/yourusername/market-lens/internal/models"
)

// OutcomeStrategy selects how the forward return of a touch is measured
type OutcomeStrategy string

const (
	// StrategyBounce measures close[touch+N] against close[touch]
	StrategyBounce OutcomeStrategy = "bounce"
	// StrategyMaxReturn measures the best close in (touch, touch+N]
	StrategyMaxReturn OutcomeStrategy = "max_return"
)

// Config parameterizes a sensitivity run
type Config struct {
	HoldDays      int
	Strategy      OutcomeStrategy
	ShortWindow   int
	MidWindow     int
	LongWindow    int
	TargetWindows []int
	MinSamples    int
}

// DefaultConfig returns the standard 5/10/20 trend filter probing MA10 and
// MA20 touches over a 5-day hold.
func DefaultConfig() Config {
	return Config{
		HoldDays:      5,
		Strategy:      StrategyBounce,
		ShortWindow:   5,
		MidWindow:     10,
		LongWindow:    20,
		TargetWindows: []int{10, 20},
		MinSamples:    10,
	}
}

// Validate checks run parameters
func (c Config) Validate() error {
	if c.HoldDays <= 0 {
		return fmt.Errorf("hold days must be positive")
	}
	if c.Strategy != StrategyBounce && c.Strategy != StrategyMaxReturn {
		return fmt.Errorf("unknown outcome strategy %q", c.Strategy)
	}
	if len(c.TargetWindows) == 0 {
		return fmt.Errorf("at least one target MA window is required")
	}
	return nil
}

// TouchEvent records one qualifying MA touch and its forward outcome.
// Never mutated after creation.
type TouchEvent struct {
	Ticker    string    `json:"ticker"`
	TouchDate time.Time `json:"touch_date"`
	MAWindow  int       `json:"ma_window"`
	ReturnPct float64   `json:"return_pct"`
	Win       bool      `json:"win"`
}

// WindowSummary aggregates touch outcomes for one MA window
type WindowSummary struct {
	MAWindow     int     `json:"ma_window"`
	Touches      int     `json:"touches"`
	Wins         int     `json:"wins"`
	WinRatePct   float64 `json:"win_rate_pct"`
	AvgReturnPct float64 `json:"avg_return_pct"`
}

// TickerSummary is the full sensitivity result for one ticker
type TickerSummary struct {
	Ticker       string                `json:"ticker"`
	Events       []TouchEvent          `json:"events"`
	TotalTouches int                   `json:"total_touches"`
	Wins         int                   `json:"wins"`
	WinRatePct   float64               `json:"win_rate_pct"`
	AvgReturnPct float64               `json:"avg_return_pct"`
	Windows      map[int]WindowSummary `json:"windows"`
	Score        float64               `json:"score"`
}

// Run scans one ticker's history for trend-aligned MA touches and measures
// forward returns. The walk is a pure function of its inputs: identical
// history and config always produce identical events and aggregates.
func Run(ticker string, bars models.PriceSeries, cfg Config) (*TickerSummary, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := bars.Validate(); err != nil {
		return nil, fmt.Errorf("ticker %s: %w", ticker, err)
	}

	windows := append([]int{cfg.ShortWindow, cfg.MidWindow, cfg.LongWindow}, cfg.TargetWindows...)
	snap := indicator.Compute(bars, windows...)

	shortMA := snap.SMA(cfg.ShortWindow)
	midMA := snap.SMA(cfg.MidWindow)
	longMA := snap.SMA(cfg.LongWindow)

	var events []TouchEvent
	for i := range bars {
		if !indicator.Defined(longMA[i]) {
			continue
		}
		// Trend filter: fast above mid above slow, matching the analyzer's
		// declared alignment
		if !(shortMA[i] > midMA[i] && midMA[i] > longMA[i]) {
			continue
		}
		// Outcomes need N full future bars; truncated touches are dropped,
		// not emitted.
		if i+cfg.HoldDays >= len(bars) {
			continue
		}

		for _, w := range cfg.TargetWindows {
			ma, defined := snap.SMAAt(w, i)
			if !defined {
				continue
			}
			if bars[i].Low > ma || bars[i].Close <= ma {
				continue
			}
			ret := outcomeReturnPct(bars, i, cfg)
			events = append(events, TouchEvent{
				Ticker:    ticker,
				TouchDate: bars[i].Date,
				MAWindow:  w,
				ReturnPct: ret,
				Win:       ret > 0,
			})
		}
	}

	return summarize(ticker, events, cfg), nil
}

func outcomeReturnPct(bars models.PriceSeries, touch int, cfg Config) float64 {
	base := bars[touch].Close
	switch cfg.Strategy {
	case StrategyMaxReturn:
		best := math.Inf(-1)
		for j := touch + 1; j <= touch+cfg.HoldDays; j++ {
			if bars[j].Close > best {
				best = bars[j].Close
			}
		}
		return (best/base - 1) * 100
	default:
		return (bars[touch+cfg.HoldDays].Close/base - 1) * 100
	}
}

func summarize(ticker string, events []TouchEvent, cfg Config) *TickerSummary {
	summary := &TickerSummary{
		Ticker:  ticker,
		Events:  events,
		Windows: make(map[int]WindowSummary, len(cfg.TargetWindows)),
	}

	byWindow := make(map[int][]TouchEvent)
	sumReturn := 0.0
	for _, ev := range events {
		byWindow[ev.MAWindow] = append(byWindow[ev.MAWindow], ev)
		sumReturn += ev.ReturnPct
		if ev.Win {
			summary.Wins++
		}
	}
	summary.TotalTouches = len(events)
	if summary.TotalTouches > 0 {
		summary.WinRatePct = float64(summary.Wins) / float64(summary.TotalTouches) * 100
		summary.AvgReturnPct = sumReturn / float64(summary.TotalTouches)
	}

	for _, w := range cfg.TargetWindows {
		ws := WindowSummary{MAWindow: w}
		evs := byWindow[w]
		ws.Touches = len(evs)
		ret := 0.0
		for _, ev := range evs {
			if ev.Win {
				ws.Wins++
			}
			ret += ev.ReturnPct
		}
		if ws.Touches > 0 {
			ws.WinRatePct = float64(ws.Wins) / float64(ws.Touches) * 100
			ws.AvgReturnPct = ret / float64(ws.Touches)
		}
		summary.Windows[w] = ws
	}

	summary.Score = Score(summary.WinRatePct, summary.AvgReturnPct, summary.TotalTouches, cfg.MinSamples)
	return summary
}

// Score blends win rate and average return into a 0-100 score, discounted
// when the sample count is too small to trust. The penalty is multiplicative
// and strictly decreasing as samples fall below minSamples, bottoming out at
// half weight with zero samples.
func Score(winRatePct, avgReturnPct float64, samples, minSamples int) float64 {
	if samples == 0 {
		return 0
	}
	returnScore := math.Max(0, math.Min(100, 50+avgReturnPct*10))
	score := winRatePct*0.6 + returnScore*0.4
	score *= confidencePenalty(samples, minSamples)
	return math.Max(0, math.Min(100, score))
}

func confidencePenalty(samples, minSamples int) float64 {
	if minSamples <= 0 || samples >= minSamples {
		return 1.0
	}
	return 0.5 + 0.5*float64(samples)/float64(minSamples)
}
