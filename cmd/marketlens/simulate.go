package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/market-lens/internal/metrics"
	"github.com/yourusername/market-lens/internal/models"
	"github.com/yourusername/market-lens/internal/output"
	"github.com/yourusername/market-lens/internal/simulation"
)

var (
	simStart     string
	simEnd       string
	simCapital   float64
	simPosSize   float64
	simMaxPos    int
	simTickers   []string
	simTradesCSV string
	simEquityCSV string
	simJSONPath  string
)

func init() {
	for _, cmd := range []*cobra.Command{simulateCmd, portfolioCmd} {
		cmd.Flags().StringVar(&simStart, "start", "", "Simulation start date (YYYY-MM-DD)")
		cmd.Flags().StringVar(&simEnd, "end", "", "Simulation end date (YYYY-MM-DD)")
		cmd.Flags().Float64Var(&simCapital, "capital", 0, "Initial capital (default: config)")
		cmd.Flags().Float64Var(&simPosSize, "position-size", 0, "Position size as a fraction of initial capital (default: config)")
		cmd.Flags().StringVar(&simTradesCSV, "trades-csv", "", "Write the trade log as CSV to this path")
		cmd.Flags().StringVar(&simEquityCSV, "equity-csv", "", "Write the equity curve as CSV to this path")
		cmd.Flags().StringVar(&simJSONPath, "json", "", "Write the full result as JSON to this path")
	}
	portfolioCmd.Flags().IntVar(&simMaxPos, "max-positions", 0, "Concurrent position capacity (default: config)")
	portfolioCmd.Flags().StringSliceVarP(&simTickers, "tickers", "t", nil, "Explicit tickers (default: stored universe)")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate TICKER",
	Short: "Replay the scanner's signals over one ticker's history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		ticker := strings.ToUpper(args[0])

		sc, err := buildScanner()
		if err != nil {
			return err
		}

		start, err := parseDateFlag(simStart, "start date")
		if err != nil {
			return err
		}
		end, err := parseDateFlag(simEnd, "end date")
		if err != nil {
			return err
		}

		capital, posSize := simulationSettings()
		engine, err := simulation.NewEngine(sc, capital, posSize, logger)
		if err != nil {
			return err
		}

		bars, err := data.GetHistory(ctx, ticker)
		if err != nil {
			return err
		}
		if len(bars) == 0 {
			return fmt.Errorf("no stored history for %s; run 'marketlens ingest history -t %s' first", ticker, ticker)
		}
		fund, err := data.GetFundamentals(ctx, ticker)
		if err != nil {
			return err
		}

		simStarted := time.Now()
		result, err := engine.SimulateTicker(ticker, bars, fund, start, end)
		if err != nil {
			return err
		}
		metrics.RecordSimulation(time.Since(simStarted).Seconds(), len(result.Trades))

		output.PrintSimulationResult(os.Stdout, result)
		return exportSimulation(result.Trades, result.EquityCurve, result)
	},
}

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Simulate the scanner across the universe with shared capital",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sc, err := buildScanner()
		if err != nil {
			return err
		}

		start, err := parseDateFlag(simStart, "start date")
		if err != nil {
			return err
		}
		end, err := parseDateFlag(simEnd, "end date")
		if err != nil {
			return err
		}

		symbols, err := resolveSymbols(ctx, simTickers)
		if err != nil {
			return err
		}

		capital, posSize := simulationSettings()
		maxPositions := simMaxPos
		if maxPositions <= 0 {
			maxPositions = cfg.Simulation.MaxPositions
		}

		portfolio, err := simulation.NewPortfolio(sc, capital, maxPositions, posSize, logger)
		if err != nil {
			return err
		}

		universe := make(map[string]simulation.TickerData, len(symbols))
		for _, symbol := range symbols {
			bars, err := data.GetHistory(ctx, symbol)
			if err != nil || len(bars) == 0 {
				continue
			}
			fund, err := data.GetFundamentals(ctx, symbol)
			if err != nil {
				continue
			}
			universe[symbol] = simulation.TickerData{Bars: bars, Fund: fund}
		}
		if len(universe) == 0 {
			return fmt.Errorf("no stored history for any requested ticker")
		}

		simStarted := time.Now()
		result, err := portfolio.Simulate(universe, start, end)
		if err != nil {
			return err
		}
		metrics.RecordSimulation(time.Since(simStarted).Seconds(), len(result.Trades))
		metrics.UpdatePortfolioEquity(result.FinalEquity)

		output.PrintPortfolioResult(os.Stdout, result)
		return exportSimulation(result.Trades, result.EquityCurve, result)
	},
}

// simulationSettings resolves capital and position size from flags and config
func simulationSettings() (capital, posSize float64) {
	capital = simCapital
	if capital <= 0 {
		capital = cfg.Simulation.InitialCapital
	}
	posSize = simPosSize
	if posSize <= 0 {
		posSize = cfg.Simulation.PositionSize
	}
	return capital, posSize
}

// exportSimulation writes the optional CSV/JSON artifacts
func exportSimulation(trades []models.Trade, curve simulation.EquityCurve, full any) error {
	if simTradesCSV != "" {
		if err := output.WriteTradesCSV(simTradesCSV, trades); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", simTradesCSV)
	}
	if simEquityCSV != "" {
		if err := output.WriteEquityCSV(simEquityCSV, curve.ToCSV()); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", simEquityCSV)
	}
	if simJSONPath != "" {
		if err := output.WriteJSON(simJSONPath, full); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", simJSONPath)
	}
	return nil
}
