package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yourusername/market-lens/internal/database"
	"github.com/yourusername/market-lens/internal/models"
)

// These tests need a running Postgres with migrations applied; see
// config/config.yaml.test. They are skipped unless MARKET_LENS_TEST_DB is set.
func setupRepos(t *testing.T) (*Repositories, func()) {
	t.Helper()
	if os.Getenv("MARKET_LENS_TEST_DB") == "" {
		t.Skip("set MARKET_LENS_TEST_DB to run database-backed tests")
	}

	db := database.SetupTestDB(t)
	repos, err := NewRepositories(db)
	require.NoError(t, err)

	return repos, func() { database.TeardownTestDB(t, db) }
}

func TestBarRepositoryRoundTrip(t *testing.T) {
	repos, teardown := setupRepos(t)
	defer teardown()

	ctx := context.Background()
	ticker := "ITEST_BARS"
	defer repos.Bar.DeleteBars(ctx, ticker)

	day := func(offset int) time.Time {
		return time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
	}
	bars := models.PriceSeries{
		{Date: day(0), Open: 100, High: 102, Low: 99, Close: 101, Volume: 1000},
		{Date: day(1), Open: 101, High: 103, Low: 100, Close: 102, Volume: 1100},
	}

	written, err := repos.Bar.UpsertBars(ctx, ticker, bars)
	require.NoError(t, err)
	require.Equal(t, 2, written)

	// Restated bar on an existing date overwrites the stored row.
	restated := models.PriceSeries{
		{Date: day(1), Open: 101, High: 104, Low: 100, Close: 103.5, Volume: 1200},
	}
	_, err = repos.Bar.UpsertBars(ctx, ticker, restated)
	require.NoError(t, err)

	stored, err := repos.Bar.GetAllBars(ctx, ticker)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	require.InDelta(t, 103.5, stored[1].Close, 1e-9)

	latest, err := repos.Bar.GetLatestDate(ctx, ticker)
	require.NoError(t, err)
	require.Equal(t, day(1), latest.UTC())

	require.NoError(t, repos.Bar.DeleteBars(ctx, ticker))
	_, err = repos.Bar.GetLatestDate(ctx, ticker)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestTickerRepositoryUpsertAndDeactivate(t *testing.T) {
	repos, teardown := setupRepos(t)
	defer teardown()

	ctx := context.Background()
	record := &models.TickerRecord{
		Symbol:    "ITEST_TKR",
		Name:      "Integration Test Corp",
		Exchange:  "NASDAQ",
		Sector:    "Technology",
		MarketCap: 1e9,
		Active:    true,
	}

	require.NoError(t, repos.Ticker.Upsert(ctx, record))

	fetched, err := repos.Ticker.GetBySymbol(ctx, record.Symbol)
	require.NoError(t, err)
	require.Equal(t, record.Name, fetched.Name)
	require.True(t, fetched.Active)

	// A fresh record for the same symbol updates the existing row.
	update := &models.TickerRecord{
		Symbol:    record.Symbol,
		Name:      record.Name,
		Exchange:  record.Exchange,
		Sector:    record.Sector,
		MarketCap: 2e9,
		Active:    true,
	}
	require.NoError(t, repos.Ticker.Upsert(ctx, update))
	fetched, err = repos.Ticker.GetBySymbol(ctx, record.Symbol)
	require.NoError(t, err)
	require.InDelta(t, 2e9, fetched.MarketCap, 1)

	require.NoError(t, repos.Ticker.Deactivate(ctx, record.Symbol))
	fetched, err = repos.Ticker.GetBySymbol(ctx, record.Symbol)
	require.NoError(t, err)
	require.False(t, fetched.Active)

	require.ErrorIs(t, repos.Ticker.Deactivate(ctx, "ITEST_MISSING"), models.ErrNotFound)
}
