// Package main provides the market-lens CLI: scan, analyze, simulate, and
// backtest US equities against stored daily history.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/market-lens/internal/config"
	"github.com/yourusername/market-lens/internal/database"
	applogger "github.com/yourusername/market-lens/internal/logger"
	"github.com/yourusername/market-lens/internal/repository"
	"github.com/yourusername/market-lens/internal/scanner"
	"github.com/yourusername/market-lens/internal/service"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile string
	logger     *logrus.Logger
	cfg        *config.Config
	db         *database.DB
	repos      *repository.Repositories
	data       *service.MarketDataService
	scanSvc    *service.ScanService
	analyzeSvc *service.AnalyzeService
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
}

var rootCmd = &cobra.Command{
	Use:   "marketlens",
	Short: "Signal-to-outcome evaluation for US equities",
	Long: `market-lens scans daily US equity history for entry setups, simulates
what acting on those signals would have returned, and backtests how reliably
each stock bounces off its moving averages.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if err := setupDependencies(cmd.Context()); err != nil {
			return fmt.Errorf("failed to setup dependencies: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if db != nil {
			db.Close()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	// No config or database needed to print a version string
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("marketlens %s (commit %s, built %s)\n", Version, GitCommit, BuildDate)
	},
}

func main() {
	scanner.RegisterBuiltins()

	rootCmd.AddCommand(scanCmd, analyzeCmd, scannersCmd, simulateCmd, portfolioCmd, backtestCmd, ingestCmd, versionCmd)

	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func loadConfig() error {
	loaded, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	cfg = loaded

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	return config.Validate(cfg)
}

func setupDependencies(ctx context.Context) error {
	logger = applogger.NewLogger(cfg.App.LogLevel)

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	db, err = database.Initialize(connCtx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	repos, err = repository.NewRepositories(db)
	if err != nil {
		return err
	}

	cacheTTL := time.Duration(cfg.MarketData.CacheTTLSeconds) * time.Second
	data = service.NewMarketDataService(repos.Bar, repos.Ticker, cacheTTL, logger)
	scanSvc = service.NewScanService(data, repos.ScanResult, cfg.Simulation.PrepWorkers, logger)
	analyzeSvc = service.NewAnalyzeService(data, repos.BacktestRun, logger)

	return nil
}

// buildScanner resolves, configures, and returns the configured scanner
func buildScanner() (scanner.Scanner, error) {
	sc, err := scanner.Get(cfg.Scan.Scanner)
	if err != nil {
		return nil, err
	}
	if len(cfg.Scan.Params) > 0 {
		if err := sc.Configure(cfg.Scan.Params); err != nil {
			return nil, fmt.Errorf("failed to configure scanner %s: %w", sc.Name(), err)
		}
	}
	return sc, nil
}

// resolveSymbols returns the explicit ticker list when given, otherwise the
// active stored universe
func resolveSymbols(ctx context.Context, tickers []string) ([]string, error) {
	if len(tickers) > 0 {
		return tickers, nil
	}
	symbols, err := data.ActiveSymbols(ctx)
	if err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("ticker universe is empty; run 'marketlens ingest universe' first")
	}
	return symbols, nil
}

// parseDateFlag parses an optional YYYY-MM-DD flag value
func parseDateFlag(value, name string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: expected YYYY-MM-DD", name, value)
	}
	return parsed, nil
}
