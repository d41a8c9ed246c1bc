package scanner

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/yourusername/market-lens/internal/indicator"
	"github.com/yourusername/market-lens/internal/models"
)

// EntryPointScanner detects actionable entry points on stocks in a confirmed
// uptrend: price approaching or touching daily MA10/MA20 with signs of holding
// support, either the candle closing near the MA or a hammer whose wick tested
// it. A hammer at the MA is the strongest signal since it shows sellers pushed
// price to the MA and got rejected.
//
// Trend filter (must pass): daily MA5 > MA10 > MA20, weekly close above
// weekly MA20. MA20 > MA50 and full weekly alignment earn bonus points.
type EntryPointScanner struct {
	// Daily moving-average windows
	DailyXFast int
	DailyFast  int
	DailyMid   int
	DailySlow  int
	// Weekly moving-average windows
	WeeklyFast int
	WeeklyMid  int
	// Detection thresholds
	ApproachPct float64 // close within X% of the MA counts as approaching
	TouchPct    float64 // low within X% of the MA counts as a touch
	Lookback    int     // check the last N candles for signals
	// Hammer detection
	WickBodyRatio float64 // lower wick must be >= N x body size
	UpperWickMax  float64 // upper wick < this fraction of total range
	// Exit policy
	StopLossPct      float64
	ProfitTargetPct  float64
	SharpDropPct     float64
	VolumeSpikeRatio float64
	BreakdownDays    int
	MaxHoldDays      int
}

// NewEntryPointScanner returns the scanner with its default parameters
func NewEntryPointScanner() *EntryPointScanner {
	return &EntryPointScanner{
		DailyXFast:       5,
		DailyFast:        10,
		DailyMid:         20,
		DailySlow:        50,
		WeeklyFast:       10,
		WeeklyMid:        20,
		ApproachPct:      3.0,
		TouchPct:         0.5,
		Lookback:         3,
		WickBodyRatio:    2.0,
		UpperWickMax:     0.3,
		StopLossPct:      0.10,
		ProfitTargetPct:  0.15,
		SharpDropPct:     5.0,
		VolumeSpikeRatio: 2.0,
		BreakdownDays:    3,
		MaxHoldDays:      30,
	}
}

// Name implements Scanner
func (s *EntryPointScanner) Name() string { return "entry_point" }

// Description implements Scanner
func (s *EntryPointScanner) Description() string {
	return "Trend entry: approaching/touching MA10/20 or hammer at MA"
}

// Configure implements Scanner
func (s *EntryPointScanner) Configure(params map[string]string) error {
	for key, raw := range params {
		switch key {
		case "d_xfast", "d_fast", "d_mid", "d_slow", "w_fast", "w_mid", "lookback", "breakdown_days", "max_hold_days":
			v, err := strconv.Atoi(raw)
			if err != nil {
				return fmt.Errorf("parameter %s: %w", key, err)
			}
			s.setIntParam(key, v)
		case "approach_pct", "touch_pct", "wick_body_ratio", "upper_wick_max", "stop_loss_pct", "profit_target_pct", "sharp_drop_pct", "volume_spike_ratio":
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("parameter %s: %w", key, err)
			}
			s.setFloatParam(key, v)
		default:
			return fmt.Errorf("%w: %q", models.ErrUnknownParameter, key)
		}
	}
	return nil
}

func (s *EntryPointScanner) setIntParam(key string, v int) {
	switch key {
	case "d_xfast":
		s.DailyXFast = v
	case "d_fast":
		s.DailyFast = v
	case "d_mid":
		s.DailyMid = v
	case "d_slow":
		s.DailySlow = v
	case "w_fast":
		s.WeeklyFast = v
	case "w_mid":
		s.WeeklyMid = v
	case "lookback":
		s.Lookback = v
	case "breakdown_days":
		s.BreakdownDays = v
	case "max_hold_days":
		s.MaxHoldDays = v
	}
}

func (s *EntryPointScanner) setFloatParam(key string, v float64) {
	switch key {
	case "approach_pct":
		s.ApproachPct = v
	case "touch_pct":
		s.TouchPct = v
	case "wick_body_ratio":
		s.WickBodyRatio = v
	case "upper_wick_max":
		s.UpperWickMax = v
	case "stop_loss_pct":
		s.StopLossPct = v
	case "profit_target_pct":
		s.ProfitTargetPct = v
	case "sharp_drop_pct":
		s.SharpDropPct = v
	case "volume_spike_ratio":
		s.VolumeSpikeRatio = v
	}
}

// entryIndicators bundles the precomputed columns one ticker needs, all
// aligned with the daily series.
type entryIndicators struct {
	snap   *indicator.Snapshot
	wClose []float64
	wFast  []float64
	wMid   []float64
}

func (s *EntryPointScanner) minIndex() int {
	return s.DailySlow + 20
}

// computeIndicators builds the daily and weekly columns. Returns nil when the
// history is too short for the configured windows.
func (s *EntryPointScanner) computeIndicators(bars models.PriceSeries) *entryIndicators {
	if len(bars) < s.minIndex() {
		return nil
	}

	snap := indicator.Compute(bars, s.DailyXFast, s.DailyFast, s.DailyMid, s.DailySlow)

	weekly := indicator.Resample(bars, indicator.Weekly)
	if len(weekly) < s.WeeklyMid+2 {
		return nil
	}
	wCloses := weekly.Closes()
	wFast := indicator.SMA(wCloses, s.WeeklyFast)
	wMid := indicator.SMA(wCloses, s.WeeklyMid)

	return &entryIndicators{
		snap:   snap,
		wClose: indicator.ForwardFill(wCloses, weekly, bars),
		wFast:  indicator.ForwardFill(wFast, weekly, bars),
		wMid:   indicator.ForwardFill(wMid, weekly, bars),
	}
}

// entryHit is a candidate entry found at one bar
type entryHit struct {
	Score           float64
	Signal          models.Signal
	Label           string
	MALabel         string
	CloseDistPct    float64
	LowDistPct      float64
	CandleAgo       int
	PctFromATH      float64
	WeeklyFullAlign bool
}

// checkEntryAt evaluates the entry conditions at bar index i using only bars
// up to and including i.
func (s *EntryPointScanner) checkEntryAt(bars models.PriceSeries, ind *entryIndicators, i int) *entryHit {
	minIdx := s.minIndex()
	if i < minIdx || i >= len(bars) {
		return nil
	}

	c := bars[i].Close

	// Weekly filter: close above weekly MA20, undefined means no signal
	wLast, wf, wm := ind.wClose[i], ind.wFast[i], ind.wMid[i]
	if !indicator.Defined(wm) || wLast <= wm {
		return nil
	}
	weeklyFullAlign := indicator.Defined(wf) && wLast > wf && wf > wm

	// Daily filter: MA5 > MA10 > MA20 and close holding above MA20
	mxf, okXF := ind.snap.SMAAt(s.DailyXFast, i)
	mf, okF := ind.snap.SMAAt(s.DailyFast, i)
	mm, okM := ind.snap.SMAAt(s.DailyMid, i)
	ms, okS := ind.snap.SMAAt(s.DailySlow, i)
	if !okXF || !okF || !okM || !(mxf > mf && mf > mm) {
		return nil
	}
	if c < mm {
		return nil
	}
	ma50Aligned := okS && mm > ms

	ma10Col := ind.snap.SMA(s.DailyFast)
	ma20Col := ind.snap.SMA(s.DailyMid)

	var best *entryHit
	bestScore := 0.0
	var bestKind string

	start := i - s.Lookback + 1
	if start < minIdx {
		start = minIdx
	}
	for j := start; j <= i; j++ {
		ago := i - j
		recency := 1.0 - float64(ago)*0.3
		if recency < 0 {
			recency = 0
		}

		bar := bars[j]
		isHammer := s.detectHammer(bar.Open, bar.High, bar.Low, bar.Close)

		for _, probe := range []struct {
			ma    float64
			label string
			isMid bool
		}{
			{ma10Col[j], fmt.Sprintf("MA%d", s.DailyFast), false},
			{ma20Col[j], fmt.Sprintf("MA%d", s.DailyMid), true},
		} {
			if !indicator.Defined(probe.ma) || probe.ma <= 0 {
				continue
			}
			closeDistPct := (bar.Close - probe.ma) / probe.ma * 100
			lowDistPct := (bar.Low - probe.ma) / probe.ma * 100

			// Price below MA10 is allowed since that IS the entry zone,
			// but close must stay above MA20.
			if probe.isMid && bar.Close < probe.ma {
				continue
			}

			lowNearMA := math.Abs(lowDistPct) <= s.TouchPct || lowDistPct <= 0

			kind := ""
			score := 0.0
			switch {
			case isHammer && lowNearMA:
				proximity := math.Max(0, 1-math.Abs(lowDistPct)/math.Max(s.TouchPct, 0.01)) * 20
				kind, score = "HAMMER", (40+proximity)*recency
			case lowNearMA:
				proximity := math.Max(0, 1-math.Abs(lowDistPct)/math.Max(s.TouchPct, 0.01)) * 15
				kind, score = "TOUCH", (25+proximity)*recency
			case math.Abs(closeDistPct) <= s.ApproachPct:
				proximity := math.Max(0, 1-math.Abs(closeDistPct)/s.ApproachPct) * 15
				kind, score = "APPROACHING", (10+proximity)*recency
			default:
				continue
			}

			if score > bestScore {
				bestScore = score
				bestKind = kind
				best = &entryHit{
					MALabel:      probe.label,
					CloseDistPct: closeDistPct,
					LowDistPct:   math.Abs(lowDistPct),
					CandleAgo:    ago,
				}
			}
		}
	}

	if best == nil {
		return nil
	}

	// Bonus: proximity to the all-time high rewards strength near resistance
	ath := ind.snap.ATH()[i]
	pctFromATH := (ath - c) / ath * 100
	switch {
	case pctFromATH <= 3:
		bestScore += 20
	case pctFromATH <= 5:
		bestScore += 15
	case pctFromATH <= 10:
		bestScore += 8
	}
	recentHigh := 0.0
	for j := max(0, i-20); j <= i; j++ {
		if bars[j].High > recentHigh {
			recentHigh = bars[j].High
		}
	}
	if (ath-recentHigh)/ath*100 <= 2 {
		bestScore += 5
	}

	// Bonus: trend quality
	if ma50Aligned {
		bestScore += 15
	}
	dSpreadPct := (mxf - mm) / mm * 100
	bestScore += math.Min(15, dSpreadPct*3)
	wSpreadPct := (wf - wm) / wm * 100
	if weeklyFullAlign {
		bestScore += math.Min(15, wSpreadPct*2+5)
	} else if indicator.Defined(wSpreadPct) {
		bestScore += math.Min(5, math.Max(0, wSpreadPct))
	}
	if c > bars[i].Open {
		bestScore += 5
	}

	score := math.Min(100, bestScore)
	best.Score = score
	best.Signal = models.SignalForScore(score)
	best.PctFromATH = pctFromATH
	best.WeeklyFullAlign = weeklyFullAlign

	short := map[string]string{"HAMMER": "HMR", "TOUCH": "TCH", "APPROACHING": "APR"}
	maShort := "M" + best.MALabel[2:]
	best.Label = fmt.Sprintf("%s@%s(%dd)", short[bestKind], maShort, best.CandleAgo)
	return best
}

// detectHammer identifies a hammer / dragonfly doji (reversed T) candle
func (s *EntryPointScanner) detectHammer(open, high, low, close float64) bool {
	totalRange := high - low
	if totalRange <= 0 {
		return false
	}

	body := math.Abs(close - open)
	bodyTop := math.Max(close, open)
	bodyBottom := math.Min(close, open)
	lowerWick := bodyBottom - low
	upperWick := high - bodyTop

	if body < totalRange*0.05 {
		return lowerWick > totalRange*0.6 && upperWick < totalRange*s.UpperWickMax
	}
	return lowerWick >= body*s.WickBodyRatio && upperWick < totalRange*s.UpperWickMax
}

// Scan implements Scanner: point-in-time evaluation at the final bar
func (s *EntryPointScanner) Scan(ticker string, bars models.PriceSeries, fund models.Fundamentals) (*models.ScanResult, error) {
	ind := s.computeIndicators(bars)
	if ind == nil {
		return nil, nil
	}

	hit := s.checkEntryAt(bars, ind, len(bars)-1)
	if hit == nil {
		return nil, nil
	}

	weeklyFlag := ""
	if hit.WeeklyFullAlign {
		weeklyFlag = "Y"
	}
	details := map[string]string{
		"entry": hit.Label,
		"dist%": fmt.Sprintf("%.1f", hit.CloseDistPct),
		"ath%":  fmt.Sprintf("%.1f", hit.PctFromATH),
		"wk":    weeklyFlag,
		"cap$B": fmt.Sprintf("%.0f", fund.MarketCap/1e9),
	}
	return models.NewScanResult(ticker, round1(hit.Score), hit.Signal, details), nil
}

// NewSession implements Scanner. Entry signals for every bar are precomputed
// so simulation lookups are O(1) per day.
func (s *EntryPointScanner) NewSession(ticker string, bars models.PriceSeries, fund models.Fundamentals) (Session, error) {
	session := &entrySession{
		scanner: s,
		ticker:  ticker,
		bars:    bars,
		index:   make(map[string]int, len(bars)),
		entries: make(map[string]*models.EntrySignal),
	}
	for i, bar := range bars {
		session.index[dateKey(bar.Date)] = i
	}

	session.ind = s.computeIndicators(bars)
	if session.ind == nil {
		// Not enough history: the session answers "no signal" everywhere
		return session, nil
	}

	for i := s.minIndex(); i < len(bars); i++ {
		hit := s.checkEntryAt(bars, session.ind, i)
		if hit == nil {
			continue
		}
		session.entries[dateKey(bars[i].Date)] = &models.EntrySignal{
			Date:   bars[i].Date,
			Price:  bars[i].Close,
			Reason: string(hit.Signal),
			Score:  hit.Score,
		}
	}
	return session, nil
}

// entrySession holds one ticker's precomputed simulation state
type entrySession struct {
	scanner *EntryPointScanner
	ticker  string
	bars    models.PriceSeries
	ind     *entryIndicators
	index   map[string]int
	entries map[string]*models.EntrySignal
}

// CheckEntry implements Session
func (es *entrySession) CheckEntry(date time.Time) *models.EntrySignal {
	return es.entries[dateKey(date)]
}

// CheckExit implements Session. Rules are evaluated in fixed priority order:
// stop-loss, profit target, MA20 breakdown, sharp drop, volume breakdown,
// time stop. First match wins.
func (es *entrySession) CheckExit(entry *models.EntrySignal, date time.Time) *models.ExitSignal {
	if es.ind == nil || entry == nil {
		return nil
	}
	i, ok := es.index[dateKey(date)]
	if !ok || i+1 < es.scanner.DailyMid+5 {
		return nil
	}

	close := es.bars[i].Close
	ma20, defined := es.ind.snap.SMAAt(es.scanner.DailyMid, i)
	if !defined {
		return nil
	}

	exit := func(reason models.ExitReason) *models.ExitSignal {
		return &models.ExitSignal{Date: date, Price: close, Reason: reason}
	}

	if close <= entry.Price*(1-es.scanner.StopLossPct) {
		return exit(models.ExitStopLoss)
	}
	if close >= entry.Price*(1+es.scanner.ProfitTargetPct) {
		return exit(models.ExitProfitTarget)
	}

	if es.breakdownBelowMA(i) {
		return exit(models.ExitMABreakdown)
	}

	if (close-ma20)/ma20*100 < -es.scanner.SharpDropPct {
		return exit(models.ExitSharpDrop)
	}

	if close < ma20 {
		volAvg := es.ind.snap.VolumeAvg()[i]
		if indicator.Defined(volAvg) && volAvg > 0 && es.bars[i].Volume > volAvg*es.scanner.VolumeSpikeRatio {
			return exit(models.ExitVolumeBreakdown)
		}
	}

	if int(date.Sub(entry.Date).Hours()/24) >= es.scanner.MaxHoldDays {
		return exit(models.ExitTimeStop)
	}
	return nil
}

// breakdownBelowMA reports N consecutive closes below the mid MA ending at i
func (es *entrySession) breakdownBelowMA(i int) bool {
	n := es.scanner.BreakdownDays
	if i < n-1 {
		return false
	}
	ma20Col := es.ind.snap.SMA(es.scanner.DailyMid)
	for k := 0; k < n; k++ {
		ma := ma20Col[i-k]
		if !indicator.Defined(ma) || es.bars[i-k].Close >= ma {
			return false
		}
	}
	return true
}

func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
