package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourusername/market-lens/internal/backtest"
	"github.com/yourusername/market-lens/internal/output"
)

var (
	btHoldDays int
	btStrategy string
	btWindows  []int
	btJSONPath string
)

func init() {
	backtestCmd.Flags().IntVar(&btHoldDays, "hold-days", 0, "Forward window in trading days (default: config)")
	backtestCmd.Flags().StringVar(&btStrategy, "strategy", "", "Outcome strategy: bounce or max_return (default: config)")
	backtestCmd.Flags().IntSliceVar(&btWindows, "windows", nil, "MA windows to score (default: config)")
	backtestCmd.Flags().StringVar(&btJSONPath, "json", "", "Write the summaries as JSON to this path")
}

var backtestCmd = &cobra.Command{
	Use:   "backtest TICKER [TICKER...]",
	Short: "Score MA-touch sensitivity over stored history",
	Long: `Backtest replays each ticker's stored history looking for trend-aligned
touches of the configured moving averages, measures the forward return of
each touch, and scores every MA window by win rate and average return.
Results are persisted for the analyze command to blend with scan scores.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		btCfg, err := backtestConfigFromSettings()
		if err != nil {
			return err
		}

		summaries := make([]*backtest.TickerSummary, 0, len(args))
		for _, arg := range args {
			ticker := strings.ToUpper(arg)
			summary, err := analyzeSvc.BacktestTicker(ctx, ticker, btCfg)
			if err != nil {
				logger.WithError(err).WithField("ticker", ticker).Warn("Backtest failed")
				continue
			}
			output.PrintBacktestSummary(os.Stdout, summary)
			summaries = append(summaries, summary)
		}
		if len(summaries) == 0 {
			return fmt.Errorf("no ticker could be backtested")
		}

		if btJSONPath != "" {
			if err := output.WriteJSON(btJSONPath, summaries); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", btJSONPath)
		}
		return nil
	},
}

// backtestConfigFromSettings builds a backtest.Config from the loaded
// configuration, letting command-line flags override individual fields.
func backtestConfigFromSettings() (backtest.Config, error) {
	btCfg := backtest.Config{
		HoldDays:      cfg.Backtest.HoldDays,
		Strategy:      backtest.OutcomeStrategy(cfg.Backtest.Strategy),
		ShortWindow:   cfg.Backtest.ShortWindow,
		MidWindow:     cfg.Backtest.MidWindow,
		LongWindow:    cfg.Backtest.LongWindow,
		TargetWindows: cfg.Backtest.TargetWindows,
		MinSamples:    cfg.Backtest.MinSamples,
	}
	if btHoldDays > 0 {
		btCfg.HoldDays = btHoldDays
	}
	if btStrategy != "" {
		btCfg.Strategy = backtest.OutcomeStrategy(btStrategy)
	}
	if len(btWindows) > 0 {
		btCfg.TargetWindows = btWindows
	}
	if err := btCfg.Validate(); err != nil {
		return backtest.Config{}, fmt.Errorf("invalid backtest settings: %w", err)
	}
	return btCfg, nil
}
