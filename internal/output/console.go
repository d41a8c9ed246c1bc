// Package output renders pipeline results for the console and for export.
package output

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/yourusername/market-lens/internal/backtest"
	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/service"
	"github.com/yourusername/market-lens/internal/simulation"
)

const dateLayout = "2006-01-02"

// PrintScanResults renders scan hits as an aligned table
func PrintScanResults(w io.Writer, results []*models.ScanResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No signals found.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tSCORE\tSIGNAL\tENTRY\tDIST%\tATH%\tWK\tCAP$B")
	for _, res := range results {
		fmt.Fprintf(tw, "%s\t%.1f\t%s\t%s\t%s\t%s\t%s\t%s\n",
			res.Ticker, res.Score, res.Signal,
			res.Details["entry"], res.Details["dist%"], res.Details["ath%"],
			res.Details["wk"], res.Details["cap$B"])
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d signal(s)\n", len(results))
}

// PrintAnalyzed renders the combined scan + backtest ranking
func PrintAnalyzed(w io.Writer, analyzed []*service.AnalyzedTicker) {
	if len(analyzed) == 0 {
		fmt.Fprintln(w, "Nothing to analyze.")
		return
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTICKER\tCOMBINED\tSCAN\tBACKTEST\tTOUCHES\tWIN%\tENTRY")
	for i, a := range analyzed {
		touches := "-"
		winRate := "-"
		if a.Backtest != nil {
			touches = fmt.Sprintf("%d", a.Backtest.TotalTouches)
			winRate = fmt.Sprintf("%.1f", a.Backtest.WinRatePct)
		}
		fmt.Fprintf(tw, "%d\t%s\t%.1f\t%.1f\t%.1f\t%s\t%s\t%s\n",
			i+1, a.Scan.Ticker, a.CombinedScore, a.Scan.Score, a.BacktestScore,
			touches, winRate, a.Scan.Details["entry"])
	}
	tw.Flush()
}

// PrintSimulationResult renders a single-ticker simulation summary
func PrintSimulationResult(w io.Writer, res *simulation.Result) {
	fmt.Fprintf(w, "Simulation: %s\n", res.Ticker)
	fmt.Fprintf(w, "  Trades:        %d\n", res.NumTrades)
	fmt.Fprintf(w, "  Total return:  %.2f%%\n", res.TotalReturnPct)
	fmt.Fprintf(w, "  Win rate:      %.1f%%\n", res.WinRatePct)
	fmt.Fprintf(w, "  Avg return:    %.2f%%\n", res.AvgReturnPct)
	fmt.Fprintf(w, "  Max drawdown:  %.2f%%\n", res.MaxDrawdownPct)
	fmt.Fprintf(w, "  Avg hold:      %.1f days\n", res.AvgHoldDays)
	fmt.Fprintf(w, "  Period:        %d days\n", res.TotalDays)

	if len(res.ExitBreakdown) > 0 {
		fmt.Fprintln(w, "  Exits:")
		printExitBreakdown(w, res.ExitBreakdown)
	}
	if len(res.Trades) > 0 {
		fmt.Fprintln(w)
		PrintTrades(w, res.Trades)
	}
}

// PrintPortfolioResult renders a portfolio simulation summary
func PrintPortfolioResult(w io.Writer, res *simulation.PortfolioResult) {
	fmt.Fprintf(w, "Portfolio simulation: %s (%s to %s)\n",
		res.ScannerName, res.StartDate.Format(dateLayout), res.EndDate.Format(dateLayout))
	fmt.Fprintf(w, "  Initial capital: %.2f\n", res.InitialCapital)
	fmt.Fprintf(w, "  Final equity:    %.2f\n", res.FinalEquity)
	fmt.Fprintf(w, "  Total return:    %.2f%%\n", res.TotalReturnPct)
	fmt.Fprintf(w, "  CAGR:            %.2f%%\n", res.CAGRPct)
	fmt.Fprintf(w, "  Max drawdown:    %.2f%%\n", res.MaxDrawdownPct)
	fmt.Fprintf(w, "  Trades:          %d (win rate %.1f%%, avg %.2f%%)\n",
		res.NumTrades, res.WinRatePct, res.AvgReturnPct)
	fmt.Fprintf(w, "  Capacity:        %d positions at %.0f%% each\n",
		res.MaxPositions, res.PositionSizePct*100)

	if len(res.ExitBreakdown) > 0 {
		fmt.Fprintln(w, "  Exits:")
		printExitBreakdown(w, res.ExitBreakdown)
	}

	if len(res.TickerBreakdown) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Per-ticker breakdown:")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "TICKER\tTRADES\tWIN%\tAVG%\tTOTAL%")

		tickers := make([]string, 0, len(res.TickerBreakdown))
		for ticker := range res.TickerBreakdown {
			tickers = append(tickers, ticker)
		}
		sort.Strings(tickers)

		for _, ticker := range tickers {
			st := res.TickerBreakdown[ticker]
			fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.2f\t%.2f\n",
				ticker, st.NumTrades, st.WinRatePct, st.AvgReturnPct, st.TotalReturnPct)
		}
		tw.Flush()
	}

	if len(res.FailedTickers) > 0 {
		fmt.Fprintf(w, "\n%d ticker(s) excluded:\n", len(res.FailedTickers))
		tickers := make([]string, 0, len(res.FailedTickers))
		for ticker := range res.FailedTickers {
			tickers = append(tickers, ticker)
		}
		sort.Strings(tickers)
		for _, ticker := range tickers {
			fmt.Fprintf(w, "  %s: %s\n", ticker, res.FailedTickers[ticker])
		}
	}
}

// PrintTrades renders a trade log table
func PrintTrades(w io.Writer, trades []models.Trade) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TICKER\tENTRY\tPRICE\tEXIT\tPRICE\tRETURN%\tDAYS\tREASON")
	for _, t := range trades {
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%.2f\t%+.2f\t%d\t%s\n",
			t.Ticker,
			t.EntryDate.Format(dateLayout), t.EntryPrice,
			t.ExitDate.Format(dateLayout), t.ExitPrice,
			t.ReturnPct, t.HoldDays, t.ExitReason)
	}
	tw.Flush()
}

// PrintBacktestSummary renders an MA-sensitivity summary for one ticker
func PrintBacktestSummary(w io.Writer, summary *backtest.TickerSummary) {
	fmt.Fprintf(w, "MA sensitivity: %s\n", summary.Ticker)
	fmt.Fprintf(w, "  Touches:    %d\n", summary.TotalTouches)
	fmt.Fprintf(w, "  Wins:       %d (%.1f%%)\n", summary.Wins, summary.WinRatePct)
	fmt.Fprintf(w, "  Avg return: %.2f%%\n", summary.AvgReturnPct)
	fmt.Fprintf(w, "  Score:      %.1f\n", summary.Score)

	if len(summary.Windows) > 0 {
		fmt.Fprintln(w)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "WINDOW\tTOUCHES\tWINS\tWIN%\tAVG%")

		windows := make([]int, 0, len(summary.Windows))
		for window := range summary.Windows {
			windows = append(windows, window)
		}
		sort.Ints(windows)

		for _, window := range windows {
			ws := summary.Windows[window]
			fmt.Fprintf(tw, "MA%d\t%d\t%d\t%.1f\t%.2f\n",
				window, ws.Touches, ws.Wins, ws.WinRatePct, ws.AvgReturnPct)
		}
		tw.Flush()
	}
}

func printExitBreakdown(w io.Writer, breakdown map[models.ExitReason]int) {
	reasons := make([]string, 0, len(breakdown))
	for reason := range breakdown {
		reasons = append(reasons, string(reason))
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		fmt.Fprintf(w, "    %-16s %d\n", reason, breakdown[models.ExitReason(reason)])
	}
}
