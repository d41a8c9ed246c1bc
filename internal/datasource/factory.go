package datasource

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/config"
)

// Factory creates DataSource implementations based on configuration
type Factory struct {
	logger logrus.FieldLogger
	config *config.Config
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.Config, logger logrus.FieldLogger) *Factory {
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// NewDataSource creates a new DataSource based on the provided configuration
func (f *Factory) NewDataSource(cfg config.DataSourceConfig, httpClient *RateLimitedHTTPClient) (DataSource, error) {
	switch cfg.Name {
	case marketFeedSourceName:
		if httpClient == nil {
			return nil, fmt.Errorf("HTTP client is required for %s", marketFeedSourceName)
		}
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = f.config.MarketData.APIKey
		}
		if apiKey == "" {
			return nil, fmt.Errorf("market feed API key is required")
		}
		return NewMarketFeedClient(httpClient, f.config.MarketData.BaseURL, apiKey, cfg.Enabled, f.logger), nil

	case csvSourceName:
		if cfg.Dir == "" {
			return nil, fmt.Errorf("csv source requires a directory")
		}
		return NewCSVSource(cfg.Dir, cfg.Enabled, f.logger), nil

	default:
		return nil, fmt.Errorf("unknown data source: %s", cfg.Name)
	}
}

// NewDataSources creates all enabled data sources from configuration
func (f *Factory) NewDataSources(ingestCfg config.IngestionConfig, httpClient *RateLimitedHTTPClient) ([]DataSource, error) {
	var sources []DataSource

	for _, srcCfg := range ingestCfg.Sources {
		if !srcCfg.Enabled {
			f.logger.WithField("source", srcCfg.Name).Info("Skipping disabled data source")
			continue
		}

		source, err := f.NewDataSource(srcCfg, httpClient)
		if err != nil {
			return nil, fmt.Errorf("failed to create data source %s: %w", srcCfg.Name, err)
		}

		sources = append(sources, source)
		f.logger.WithField("source", srcCfg.Name).Info("Created data source")
	}

	if len(sources) == 0 {
		return nil, fmt.Errorf("no enabled data sources configured")
	}

	return sources, nil
}
