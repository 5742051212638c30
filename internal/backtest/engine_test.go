package backtest

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/aurum/internal/config"
	"github.com/yourusername/aurum/internal/indicator"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/strategy"
	"github.com/yourusername/aurum/test/helpers"
)

func testPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Window:        indicator.DefaultWindow,
		Annualization: DefaultAnnualization,
		Strategies: []strategy.Config{
			strategy.ZScore(strategy.DefaultParams()),
			strategy.Combined(strategy.DefaultParams()),
		},
	}
}

func testBars(n int) []models.PriceBar {
	return helpers.BarsFromCloses(helpers.RandomWalkCloses(n, 1800, 0.012, 11))
}

func TestNewPipelineValidation(t *testing.T) {
	tests := []struct {
		name string
		mut  func(c *PipelineConfig)
	}{
		{"zero window", func(c *PipelineConfig) { c.Window = 0 }},
		{"zero annualization", func(c *PipelineConfig) { c.Annualization = 0 }},
		{"no strategies", func(c *PipelineConfig) { c.Strategies = nil }},
		{"duplicate names", func(c *PipelineConfig) { c.Strategies[1].Name = c.Strategies[0].Name }},
		{"start after end", func(c *PipelineConfig) {
			c.StartDate = helpers.SeriesStart.AddDate(0, 1, 0)
			c.EndDate = helpers.SeriesStart
		}},
		{"invalid strategy", func(c *PipelineConfig) { c.Strategies[0].PercentileMode = "weekly" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testPipelineConfig()
			tt.mut(&cfg)
			_, err := NewPipeline(cfg)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidConfig))
		})
	}
}

func TestPipelineRun(t *testing.T) {
	bars := testBars(300)
	pipeline, err := NewPipeline(testPipelineConfig())
	require.NoError(t, err)

	result, err := pipeline.Run(bars)
	require.NoError(t, err)

	assert.False(t, result.InsufficientHistory)
	assert.Len(t, result.Indicators, 300-indicator.DefaultWindow)
	assert.Equal(t, []string{"zscore", "combined"}, result.Order)
	require.Len(t, result.Runs, 2)

	for _, run := range result.Ordered() {
		assert.Len(t, run.Signals, len(result.Indicators))
		assert.Equal(t, len(result.Indicators), run.Performance.Periods)
		assert.Equal(t, 0.0, run.Performance.StrategyReturn[0])
		assert.LessOrEqual(t, run.Performance.MaxDrawdown.Unwrap(), 0.0)
	}
}

func TestPipelineRunIsDeterministic(t *testing.T) {
	bars := testBars(250)
	pipeline, err := NewPipeline(testPipelineConfig())
	require.NoError(t, err)

	first, err := pipeline.Run(bars)
	require.NoError(t, err)
	second, err := pipeline.Run(bars)
	require.NoError(t, err)

	for _, name := range first.Order {
		assert.Equal(t, first.Runs[name].Performance.CumulativeReturn, second.Runs[name].Performance.CumulativeReturn)
	}
}

func TestPipelineParallelMatchesSequential(t *testing.T) {
	bars := testBars(400)

	cfg := testPipelineConfig()
	rolling := strategy.Combined(strategy.Params{
		ZThresholdLow: -1, ZThresholdHigh: 1, VolPercentile: 0.5, RangePercentile: 0.5,
		PercentileMode: strategy.PercentileRolling, PercentileLookback: 60,
	})
	rolling.Name = "combined_rolling"
	cfg.Strategies = append(cfg.Strategies, rolling)

	sequential, err := NewPipeline(cfg)
	require.NoError(t, err)
	cfg.Parallel = true
	parallel, err := NewPipeline(cfg)
	require.NoError(t, err)

	seqResult, err := sequential.Run(bars)
	require.NoError(t, err)
	parResult, err := parallel.Run(bars)
	require.NoError(t, err)

	assert.Equal(t, seqResult.Order, parResult.Order)
	for _, name := range seqResult.Order {
		assert.Equal(t, seqResult.Runs[name].Signals, parResult.Runs[name].Signals, name)
		assert.Equal(t, seqResult.Runs[name].Performance, parResult.Runs[name].Performance, name)
	}
}

func TestPipelineRunsDoNotShareRows(t *testing.T) {
	pipeline, err := NewPipeline(testPipelineConfig())
	require.NoError(t, err)

	result, err := pipeline.Run(testBars(120))
	require.NoError(t, err)

	zs := result.Runs["zscore"]
	original := result.Runs["combined"].Signals[0].Close
	zs.Signals[0].Close = -1

	assert.Equal(t, original, result.Runs["combined"].Signals[0].Close)
	assert.Equal(t, original, result.Indicators[0].Close)
}

func TestPipelineDateRangeKeepsWarmUp(t *testing.T) {
	bars := testBars(200)
	cfg := testPipelineConfig()
	cfg.StartDate = bars[100].Date
	cfg.EndDate = bars[149].Date

	pipeline, err := NewPipeline(cfg)
	require.NoError(t, err)
	result, err := pipeline.Run(bars)
	require.NoError(t, err)

	require.Len(t, result.Indicators, 50)
	assert.Equal(t, bars[100].Date, result.Indicators[0].Date)
	assert.Equal(t, bars[149].Date, result.Indicators[49].Date)

	full, err := indicator.Compute(bars, cfg.Window)
	require.NoError(t, err)
	assert.Equal(t, full[100-cfg.Window], result.Indicators[0])
}

func TestPipelineInsufficientHistory(t *testing.T) {
	pipeline, err := NewPipeline(testPipelineConfig())
	require.NoError(t, err)

	result, err := pipeline.Run(testBars(indicator.DefaultWindow))
	require.NoError(t, err)

	assert.True(t, result.InsufficientHistory)
	assert.Empty(t, result.Indicators)
	for _, run := range result.Runs {
		assert.True(t, run.Performance.Empty())
		assert.True(t, run.Performance.Sharpe.IsNone())
		assert.True(t, run.Performance.TotalReturn.IsNone())
	}
}

func TestPipelineReturnsIntegrityErrors(t *testing.T) {
	bars := testBars(60)
	bars[30].Close = -5

	pipeline, err := NewPipeline(testPipelineConfig())
	require.NoError(t, err)

	_, err = pipeline.Run(bars)
	require.Error(t, err)

	var integrityErr *models.DataIntegrityError
	require.True(t, errors.As(err, &integrityErr))
	assert.Equal(t, bars[30].Date, integrityErr.Date)
}

func TestFromConfig(t *testing.T) {
	low, high, vol := -1.5, 1.5, 0.6
	cfg := &config.BacktestConfig{
		Window:               10,
		AnnualizationFactor:  DefaultAnnualization,
		StartDate:            "2021-01-01",
		EndDate:              "2022-12-31",
		Parallel:             true,
		MonteCarloIterations: 200,
		WalkForward:          config.WalkForwardConfig{TrainDays: 120, TestDays: 30},
		Strategies: []config.StrategyConfig{
			{Name: "base", Kind: "zscore"},
			{Name: "wide", Kind: "combined", ZThresholdLow: &low, ZThresholdHigh: &high, VolPercentile: &vol, PercentileMode: "expanding"},
		},
	}

	pc, err := FromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, 10, pc.Window)
	assert.Equal(t, time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), pc.StartDate)
	assert.True(t, pc.Parallel)
	assert.True(t, pc.WalkForward.Enabled())
	require.Len(t, pc.Strategies, 2)

	assert.Equal(t, "base", pc.Strategies[0].Name)
	assert.Equal(t, -2.0, pc.Strategies[0].Rules[0].Conditions[0].Value)

	wide := pc.Strategies[1]
	assert.Equal(t, "wide", wide.Name)
	assert.Equal(t, strategy.KindCombined, wide.Kind)
	assert.Equal(t, strategy.PercentileExpanding, wide.PercentileMode)
	assert.Equal(t, -1.5, wide.Rules[0].Conditions[0].Value)
	assert.Equal(t, optional.Some(0.6), wide.Rules[0].Conditions[1].Percentile)
	assert.Equal(t, optional.Some(0.5), wide.Rules[0].Conditions[2].Percentile)

	cfg.Strategies[0].Kind = "momentum"
	_, err = FromConfig(cfg)
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}

func TestStrategyFromConfigRejectsNaNPercentile(t *testing.T) {
	nan := math.NaN()
	_, err := StrategyFromConfig(config.StrategyConfig{Name: "bad", Kind: "zscore", VolPercentile: &nan})
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))

	pc := testPipelineConfig()
	p := strategy.DefaultParams()
	p.VolPercentile = nan
	pc.Strategies = []strategy.Config{strategy.ZScore(p)}
	_, err = NewPipeline(pc)
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}
