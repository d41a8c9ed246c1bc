// Package config provides configuration management for the Market Lens application.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	MarketData MarketDataConfig `mapstructure:"market_data" validate:"required"`
	Scan       ScanConfig       `mapstructure:"scan" validate:"required"`
	Simulation SimulationConfig `mapstructure:"simulation" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// MarketDataConfig represents the OHLCV data provider configuration
type MarketDataConfig struct {
	BaseURL           string  `mapstructure:"base_url" validate:"required,url"`
	APIKey            string  `mapstructure:"api_key"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts     int     `mapstructure:"retry_attempts" validate:"required,gte=0"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	CacheTTLSeconds   int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// ScanConfig represents scanner run configuration
type ScanConfig struct {
	Scanner   string            `mapstructure:"scanner" validate:"required"`
	Params    map[string]string `mapstructure:"params"`
	MinScore  float64           `mapstructure:"min_score" validate:"gte=0,lte=100"`
	TopN      int               `mapstructure:"top_n" validate:"required,gt=0"`
	MinPrice  float64           `mapstructure:"min_price" validate:"gte=0"`
	MinVolume int64             `mapstructure:"min_volume" validate:"gte=0"`
}

// SimulationConfig represents simulation configuration
type SimulationConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital" validate:"required,gt=0"`
	PositionSize   float64 `mapstructure:"position_size" validate:"required,gt=0,lte=1"`
	MaxPositions   int     `mapstructure:"max_positions" validate:"required,gt=0"`
	StartDate      string  `mapstructure:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate        string  `mapstructure:"end_date" validate:"omitempty,datetime=2006-01-02"`
	PrepWorkers    int     `mapstructure:"prep_workers" validate:"required,gt=0"`
}

// BacktestConfig represents moving-average sensitivity backtest configuration
type BacktestConfig struct {
	HoldDays      int    `mapstructure:"hold_days" validate:"required,gt=0"`
	Strategy      string `mapstructure:"strategy" validate:"required,outcomestrategy"`
	ShortWindow   int    `mapstructure:"short_window" validate:"required,gt=0"`
	MidWindow     int    `mapstructure:"mid_window" validate:"required,gt=0"`
	LongWindow    int    `mapstructure:"long_window" validate:"required,gt=0"`
	TargetWindows []int  `mapstructure:"target_windows" validate:"required,min=1,dive,gt=0"`
	MinSamples    int    `mapstructure:"min_samples" validate:"required,gt=0"`
}

// IngestionConfig represents data ingestion configuration
type IngestionConfig struct {
	Sources  []DataSourceConfig `mapstructure:"sources" validate:"required,min=1"`
	Schedule ScheduleConfig     `mapstructure:"schedule" validate:"required"`
}

// DataSourceConfig represents a single data source configuration
type DataSourceConfig struct {
	Name      string `mapstructure:"name" validate:"required"`
	Enabled   bool   `mapstructure:"enabled"`
	BatchSize int    `mapstructure:"batch_size" validate:"omitempty,gt=0"`
	APIKey    string `mapstructure:"api_key"`
	Dir       string `mapstructure:"dir"`
}

// ScheduleConfig represents data ingestion scheduling
type ScheduleConfig struct {
	NightlyRefresh      string `mapstructure:"nightly_refresh" validate:"required"`
	LookbackYears       int    `mapstructure:"lookback_years" validate:"required,gt=0"`
	UniverseRefreshCron string `mapstructure:"universe_refresh_cron" validate:"required"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
