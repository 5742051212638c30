package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/aurum/internal/backtest"
	"github.com/yourusername/aurum/internal/config"
	"github.com/yourusername/aurum/internal/database"
	"github.com/yourusername/aurum/internal/datasource"
	"github.com/yourusername/aurum/internal/repository"
	"github.com/yourusername/aurum/test/helpers"
)

// TestSyncThenBacktest runs the daily sync against a mock provider into a real
// database and evaluates the stored series.
func TestSyncThenBacktest(t *testing.T) {
	helpers.SkipIfShort(t)

	db := database.SetupTestDB(t)
	database.TruncateTables(t, db)
	repos, err := repository.NewRepositories(db)
	require.NoError(t, err)

	bars := helpers.BarsFromCloses(helpers.RandomWalkCloses(120, 1900, 0.01, 11))
	server := helpers.MockAlphaVantageServer(t, helpers.AlphaVantageDailyPayload("XAUUSD", bars), nil)

	cfg := &config.MarketDataConfig{
		Provider:       "alphavantage",
		BaseURL:        server.URL,
		APIKey:         "test",
		Symbol:         "XAUUSD",
		OutputSize:     "full",
		RequestsPerMin: 600,
		TimeoutSeconds: 5,
	}
	log := quietLogger()
	httpClient := datasource.NewRateLimitedHTTPClient(datasource.HTTPClientConfigFrom(cfg), log)
	defer httpClient.Close()

	source, err := datasource.NewFactory(cfg, log).NewPriceSource(httpClient)
	require.NoError(t, err)

	ctx := helpers.CreateTestContext(t, 30*time.Second)

	ingestion, err := NewIngestionService(source, repos.Price, nil, nil, log, IngestionConfig{Symbol: cfg.Symbol, HistoryStart: bars[20].Date})
	require.NoError(t, err)

	stats, err := ingestion.Sync(ctx)
	require.NoError(t, err)
	assert.Equal(t, 100, stats.Stored)

	pipeline := testPipeline(t, func(c *backtest.PipelineConfig) {
		c.WalkForward = backtest.WalkForwardConfig{TrainSize: 40, TestSize: 20}
	})
	svc, err := NewBacktestService(repos.Price, repos.Indicator, repos.BacktestResult, pipeline, "XAUUSD", log)
	require.NoError(t, err)

	report, err := svc.Run(ctx, BacktestOptions{WalkForward: true, PersistIndicators: true, PersistResults: true})
	require.NoError(t, err)
	assert.Equal(t, 100, report.Bars)
	assert.Len(t, report.Saved, 2)

	latest, err := repos.BacktestResult.GetLatest(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, latest, 2)
}
