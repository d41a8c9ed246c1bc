package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/market-lens/internal/models"
)

const marketFeedSourceName = "marketfeed"

// MarketFeedClient implements DataSource for a JSON OHLCV market data API.
// Prices arrive as strings and are parsed through decimal so fractional
// cents survive the trip intact before the float conversion.
type MarketFeedClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	enabled    bool
	logger     logrus.FieldLogger
}

// marketFeedBar is one daily row from the provider
type marketFeedBar struct {
	Date   string `json:"date"`
	Open   string `json:"open"`
	High   string `json:"high"`
	Low    string `json:"low"`
	Close  string `json:"close"`
	Volume int64  `json:"volume"`
}

// marketFeedProfile is the provider's listing metadata shape
type marketFeedProfile struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"companyName"`
	Exchange  string  `json:"exchange"`
	Sector    string  `json:"sector"`
	MarketCap float64 `json:"marketCap"`
	Active    bool    `json:"isActivelyTrading"`
}

// NewMarketFeedClient creates a new market feed API client
func NewMarketFeedClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey string, enabled bool, logger logrus.FieldLogger) *MarketFeedClient {
	return &MarketFeedClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     apiKey,
		enabled:    enabled,
		logger:     logger,
	}
}

// Name returns the data source name
func (c *MarketFeedClient) Name() string {
	return marketFeedSourceName
}

// IsEnabled returns whether the source is enabled
func (c *MarketFeedClient) IsEnabled() bool {
	return c.enabled
}

// FetchDailyBars retrieves daily OHLCV bars for a ticker within the date range
func (c *MarketFeedClient) FetchDailyBars(ctx context.Context, ticker string, startDate, endDate time.Time) (models.PriceSeries, error) {
	if !c.enabled {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeDisabled, dataSourceDisabledMsg, nil)
	}

	endpoint := fmt.Sprintf("%s/historical/%s?from=%s&to=%s",
		c.baseURL, url.PathEscape(ticker),
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var rows []marketFeedBar
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeInvalidData, "failed to parse bar response", err)
	}

	bars := make(models.PriceSeries, 0, len(rows))
	for _, row := range rows {
		bar, err := convertBar(row)
		if err != nil {
			c.logger.WithFields(logrus.Fields{
				"ticker": ticker,
				"date":   row.Date,
				"error":  err.Error(),
			}).Warn("Skipping malformed bar")
			continue
		}
		bars = append(bars, *bar)
	}

	return bars, nil
}

// FetchFundamentals retrieves listing metadata for a ticker
func (c *MarketFeedClient) FetchFundamentals(ctx context.Context, ticker string) (*models.Fundamentals, error) {
	if !c.enabled {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeDisabled, dataSourceDisabledMsg, nil)
	}

	endpoint := fmt.Sprintf("%s/profile/%s", c.baseURL, url.PathEscape(ticker))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var profile marketFeedProfile
	if err := json.Unmarshal(body, &profile); err != nil {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeInvalidData, "failed to parse profile response", err)
	}
	if profile.Symbol == "" {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeNotFound, fmt.Sprintf("no profile for %s", ticker), nil)
	}

	return &models.Fundamentals{
		Ticker:    profile.Symbol,
		MarketCap: profile.MarketCap,
		Exchange:  profile.Exchange,
		Sector:    profile.Sector,
		Name:      profile.Name,
	}, nil
}

// FetchUniverse retrieves the provider's actively traded US listings
func (c *MarketFeedClient) FetchUniverse(ctx context.Context) ([]*models.TickerRecord, error) {
	if !c.enabled {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeDisabled, dataSourceDisabledMsg, nil)
	}

	endpoint := fmt.Sprintf("%s/listings?country=US", c.baseURL)

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var profiles []marketFeedProfile
	if err := json.Unmarshal(body, &profiles); err != nil {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeInvalidData, "failed to parse listings response", err)
	}

	records := make([]*models.TickerRecord, 0, len(profiles))
	for _, p := range profiles {
		if p.Symbol == "" {
			continue
		}
		records = append(records, &models.TickerRecord{
			Symbol:    p.Symbol,
			Name:      p.Name,
			Exchange:  p.Exchange,
			Sector:    p.Sector,
			MarketCap: p.MarketCap,
			Active:    p.Active,
		})
	}

	return records, nil
}

// get executes an authenticated GET and maps HTTP failures onto source errors
func (c *MarketFeedClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeNetworkError, "failed to create request", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeNetworkError, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeNotFound, "resource not found", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeServerError,
			fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewDataSourceError(marketFeedSourceName, ErrCodeNetworkError, "failed to read response", err)
	}

	return body, nil
}

// convertBar parses one provider row into a price bar
func convertBar(row marketFeedBar) (*models.PriceBar, error) {
	date, err := time.Parse("2006-01-02", row.Date)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", row.Date, err)
	}

	open, err := parsePrice(row.Open)
	if err != nil {
		return nil, fmt.Errorf("invalid open: %w", err)
	}
	high, err := parsePrice(row.High)
	if err != nil {
		return nil, fmt.Errorf("invalid high: %w", err)
	}
	low, err := parsePrice(row.Low)
	if err != nil {
		return nil, fmt.Errorf("invalid low: %w", err)
	}
	closePx, err := parsePrice(row.Close)
	if err != nil {
		return nil, fmt.Errorf("invalid close: %w", err)
	}
	if row.Volume < 0 {
		return nil, fmt.Errorf("negative volume %d", row.Volume)
	}

	return &models.PriceBar{
		Date:   date.UTC(),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePx,
		Volume: float64(row.Volume),
	}, nil
}

// parsePrice converts a decimal price string into a positive float
func parsePrice(s string) (float64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.Sign() <= 0 {
		return 0, fmt.Errorf("non-positive price %s", s)
	}
	return d.InexactFloat64(), nil
}
