// Package metrics provides the centralized Prometheus metrics registry for the scanner pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	ScansTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "market_lens",
		Name:      "scans_total",
		Help:      "Total number of ticker scans performed",
	})
	SignalsGeneratedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "market_lens",
		Name:      "signals_generated_total",
		Help:      "Total number of entry signals generated by scanners",
	})
	ScannerErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "market_lens",
		Name:      "scanner_errors_total",
		Help:      "Total number of scanner or simulation worker errors",
	})
	SimulationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "market_lens",
		Name:      "simulations_total",
		Help:      "Total number of single-ticker simulations run",
	})
	TradesSimulatedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "market_lens",
		Name:      "trades_simulated_total",
		Help:      "Total number of round-trip trades produced by simulations",
	})
	IngestionBarsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "market_lens",
		Name:      "ingestion_bars_total",
		Help:      "Total number of daily price bars ingested",
	})
	DataFetchErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "market_lens",
		Name:      "data_fetch_errors_total",
		Help:      "Total number of market data fetch failures",
	})
)

// Gauge metrics
var (
	UniverseSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "market_lens",
		Name:      "universe_size",
		Help:      "Number of tickers in the active scan universe",
	})
	PortfolioEquity = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "market_lens",
		Name:      "portfolio_equity",
		Help:      "Current simulated portfolio equity in currency units",
	})
	OpenPositions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "market_lens",
		Name:      "open_positions",
		Help:      "Number of currently open simulated positions",
	})
)

// Histogram metrics
var (
	ScanDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "market_lens",
		Name:      "scan_duration_seconds",
		Help:      "Duration of a full universe scan in seconds",
		Buckets:   prometheus.DefBuckets,
	})
	SimulationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "market_lens",
		Name:      "simulation_duration_seconds",
		Help:      "Duration of simulation runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	})
	BacktestScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "market_lens",
		Name:      "backtest_score",
		Help:      "Composite scores from moving-average backtest runs by window",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	}, []string{"window"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		// Register counter metrics
		registry.MustRegister(ScansTotal)
		registry.MustRegister(SignalsGeneratedTotal)
		registry.MustRegister(ScannerErrorsTotal)
		registry.MustRegister(SimulationsTotal)
		registry.MustRegister(TradesSimulatedTotal)
		registry.MustRegister(IngestionBarsTotal)
		registry.MustRegister(DataFetchErrorsTotal)

		// Register gauge metrics
		registry.MustRegister(UniverseSize)
		registry.MustRegister(PortfolioEquity)
		registry.MustRegister(OpenPositions)

		// Register histogram metrics
		registry.MustRegister(ScanDuration)
		registry.MustRegister(SimulationDuration)
		registry.MustRegister(BacktestScore)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordScan records a completed universe scan.
func RecordScan(durationSeconds float64) {
	ScansTotal.Inc()
	ScanDuration.Observe(durationSeconds)
}

// RecordSignal records an entry signal event.
func RecordSignal() {
	SignalsGeneratedTotal.Inc()
}

// RecordSimulation records a completed simulation run.
func RecordSimulation(durationSeconds float64, trades int) {
	SimulationsTotal.Inc()
	SimulationDuration.Observe(durationSeconds)
	TradesSimulatedTotal.Add(float64(trades))
}

// RecordIngestedBars records bars written during an ingestion run.
func RecordIngestedBars(count int) {
	IngestionBarsTotal.Add(float64(count))
}

// RecordDataFetchError records a market data fetch failure.
func RecordDataFetchError() {
	DataFetchErrorsTotal.Inc()
}

// RecordBacktestScore records a composite score for a moving-average window.
func RecordBacktestScore(window string, score float64) {
	BacktestScore.WithLabelValues(window).Observe(score)
}

// UpdateUniverseSize updates the active universe size gauge.
func UpdateUniverseSize(count int) {
	UniverseSize.Set(float64(count))
}

// UpdatePortfolioEquity updates the simulated equity gauge.
func UpdatePortfolioEquity(equity float64) {
	PortfolioEquity.Set(equity)
}

// UpdateOpenPositions updates the open positions gauge.
func UpdateOpenPositions(count int) {
	OpenPositions.Set(float64(count))
}
