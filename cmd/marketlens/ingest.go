package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/yourusername/market-lens/internal/datasource"
	"github.com/yourusername/market-lens/internal/health"
	"github.com/yourusername/market-lens/internal/scheduler"
	"github.com/yourusername/market-lens/internal/service"
)

var (
	ingestSource  string
	ingestFrom    string
	ingestTo      string
	ingestTickers []string
)

func init() {
	ingestCmd.PersistentFlags().StringVar(&ingestSource, "source", "", "Data source name (default: first enabled source)")
	ingestHistoryCmd.Flags().StringVar(&ingestFrom, "from", "", "Start date (YYYY-MM-DD, default: lookback from today)")
	ingestHistoryCmd.Flags().StringVar(&ingestTo, "to", "", "End date (YYYY-MM-DD, default: today)")
	ingestHistoryCmd.Flags().StringSliceVarP(&ingestTickers, "tickers", "t", nil, "Explicit tickers (default: stored universe)")
	ingestFundamentalsCmd.Flags().StringSliceVarP(&ingestTickers, "tickers", "t", nil, "Explicit tickers (default: stored universe)")

	ingestCmd.AddCommand(ingestUniverseCmd, ingestHistoryCmd, ingestFundamentalsCmd, ingestDaemonCmd)
}

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load tickers and daily bars into the database",
}

var ingestUniverseCmd = &cobra.Command{
	Use:   "universe",
	Short: "Refresh the tradable US ticker universe",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newIngestionService()
		if err != nil {
			return err
		}
		count, err := svc.RefreshUniverse(cmd.Context(), resolveSourceName())
		if err != nil {
			return err
		}
		fmt.Printf("Upserted %d tickers\n", count)
		return nil
	},
}

var ingestHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Fetch daily bars and upsert them incrementally",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := newIngestionService()
		if err != nil {
			return err
		}

		symbols, err := resolveSymbols(ctx, upperAll(ingestTickers))
		if err != nil {
			return err
		}

		endDate, err := parseDateFlag(ingestTo, "end date")
		if err != nil {
			return err
		}
		if endDate.IsZero() {
			endDate = time.Now().UTC().Truncate(24 * time.Hour)
		}
		startDate, err := parseDateFlag(ingestFrom, "start date")
		if err != nil {
			return err
		}
		if startDate.IsZero() {
			lookback := cfg.Ingestion.Schedule.LookbackYears
			if lookback <= 0 {
				lookback = 2
			}
			startDate = endDate.AddDate(-lookback, 0, 0)
		}

		ingestMetrics, err := svc.IngestHistory(ctx, resolveSourceName(), symbols, startDate, endDate)
		if err != nil {
			return err
		}
		fmt.Println(ingestMetrics.String())
		return nil
	},
}

var ingestFundamentalsCmd = &cobra.Command{
	Use:   "fundamentals",
	Short: "Refresh market cap and profile data for the universe",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := newIngestionService()
		if err != nil {
			return err
		}
		symbols, err := resolveSymbols(ctx, upperAll(ingestTickers))
		if err != nil {
			return err
		}
		return svc.RefreshFundamentals(ctx, resolveSourceName(), symbols)
	},
}

var ingestDaemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run scheduled nightly bar and universe refreshes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := newIngestionService()
		if err != nil {
			return err
		}
		sourceName := resolveSourceName()

		sched := scheduler.NewScheduler(svc, data, logger)
		schedule := cfg.Ingestion.Schedule
		if err := sched.ScheduleNightlyRefresh(schedule.NightlyRefresh, sourceName, schedule.LookbackYears); err != nil {
			return err
		}
		if err := sched.ScheduleUniverseRefresh(schedule.UniverseRefreshCron, sourceName); err != nil {
			return err
		}

		healthServer := health.NewServer(health.Config{
			ServiceName: cfg.App.Name,
			Version:     Version,
			Port:        fmt.Sprintf("%d", cfg.Metrics.Port),
			MetricsPath: cfg.Metrics.Path,
			Logger:      logger,
			DB:          db.GetPool(),
		})
		if err := healthServer.Start(ctx); err != nil {
			return err
		}
		healthServer.SetReady(true)

		if err := sched.Start(); err != nil {
			return err
		}
		logger.WithFields(map[string]interface{}{
			"nightly_refresh":  schedule.NightlyRefresh,
			"universe_refresh": schedule.UniverseRefreshCron,
			"source":           sourceName,
		}).Info("Ingestion daemon started")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			logger.WithField("signal", sig.String()).Info("Shutting down")
		case <-ctx.Done():
		}

		healthServer.SetReady(false)
		if err := sched.Stop(); err != nil {
			logger.WithError(err).Warn("Scheduler stop failed")
		}
		return healthServer.Shutdown()
	},
}

// newIngestionService wires the configured data sources behind a shared
// rate-limited HTTP client.
func newIngestionService() (*service.IngestionService, error) {
	httpCfg := datasource.DefaultHTTPClientConfig()
	httpCfg.Timeout = time.Duration(cfg.MarketData.TimeoutSeconds) * time.Second
	httpCfg.MaxRetries = cfg.MarketData.RetryAttempts
	httpCfg.RateLimit = cfg.MarketData.RequestsPerSecond
	httpClient := datasource.NewRateLimitedHTTPClient(httpCfg, logger)

	factory := datasource.NewFactory(cfg, logger)
	sources, err := factory.NewDataSources(cfg.Ingestion, httpClient)
	if err != nil {
		return nil, err
	}

	batchSize := 0
	for _, src := range cfg.Ingestion.Sources {
		if src.Enabled && src.BatchSize > batchSize {
			batchSize = src.BatchSize
		}
	}
	return service.NewIngestionService(sources, repos.Bar, repos.Ticker, logger, batchSize), nil
}

// resolveSourceName returns the --source flag value or the first enabled
// configured source.
func resolveSourceName() string {
	if ingestSource != "" {
		return ingestSource
	}
	for _, src := range cfg.Ingestion.Sources {
		if src.Enabled {
			return src.Name
		}
	}
	return ""
}

func upperAll(tickers []string) []string {
	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = strings.ToUpper(t)
	}
	return out
}
