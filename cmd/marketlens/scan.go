package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/output"
	"github.com/yourusername/market-lens/internal/scanner"
)

var (
	scanTickers  []string
	scanSave     bool
	scanJSONPath string
	analyzeTopN  int
)

func init() {
	scanCmd.Flags().StringSliceVarP(&scanTickers, "tickers", "t", nil, "Explicit tickers to scan (default: stored universe)")
	scanCmd.Flags().BoolVar(&scanSave, "save", false, "Persist scan results to the database")
	scanCmd.Flags().StringVar(&scanJSONPath, "json", "", "Write results as JSON to this path")

	analyzeCmd.Flags().StringSliceVarP(&scanTickers, "tickers", "t", nil, "Explicit tickers to scan (default: stored universe)")
	analyzeCmd.Flags().IntVarP(&analyzeTopN, "top", "n", 0, "Backtest only the top N scan hits (default: config scan.top_n)")
	analyzeCmd.Flags().StringVar(&scanJSONPath, "json", "", "Write results as JSON to this path")
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan the universe for entry setups",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sc, err := buildScanner()
		if err != nil {
			return err
		}

		symbols, err := resolveSymbols(ctx, scanTickers)
		if err != nil {
			return err
		}

		outcome, err := scanSvc.ScanUniverse(ctx, sc, symbols)
		if err != nil {
			return err
		}

		hits := outcome.Results
		if cfg.Scan.MinScore > 0 {
			hits = filterByScore(hits, cfg.Scan.MinScore)
		}

		output.PrintScanResults(os.Stdout, hits)

		if scanSave {
			if err := scanSvc.PersistResults(ctx, sc, time.Now().UTC(), outcome); err != nil {
				return fmt.Errorf("failed to persist scan results: %w", err)
			}
			logger.WithField("results", len(hits)).Info("Scan results saved")
		}
		if scanJSONPath != "" {
			if err := output.WriteJSON(scanJSONPath, hits); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", scanJSONPath)
		}

		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Scan, then re-rank top hits by historical MA bounce quality",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sc, err := buildScanner()
		if err != nil {
			return err
		}

		symbols, err := resolveSymbols(ctx, scanTickers)
		if err != nil {
			return err
		}

		outcome, err := scanSvc.ScanUniverse(ctx, sc, symbols)
		if err != nil {
			return err
		}

		topN := analyzeTopN
		if topN <= 0 {
			topN = cfg.Scan.TopN
		}

		btCfg, err := backtestConfigFromSettings()
		if err != nil {
			return err
		}

		analyzed, err := analyzeSvc.Analyze(ctx, sc, outcome.Results, topN, btCfg)
		if err != nil {
			return err
		}

		output.PrintAnalyzed(os.Stdout, analyzed)

		if scanJSONPath != "" {
			if err := output.WriteJSON(scanJSONPath, analyzed); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", scanJSONPath)
		}

		return nil
	},
}

var scannersCmd = &cobra.Command{
	Use:     "scanners",
	Aliases: []string{"list-scanners"},
	Short:   "List available scanners",
	// Listing the registry needs no config or database
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, name := range scanner.Names() {
			sc, err := scanner.Get(name)
			if err != nil {
				continue
			}
			fmt.Printf("%-16s %s\n", name, sc.Description())
		}
		return nil
	},
}

func filterByScore(hits []*models.ScanResult, minScore float64) []*models.ScanResult {
	filtered := make([]*models.ScanResult, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= minScore {
			filtered = append(filtered, hit)
		}
	}
	return filtered
}
