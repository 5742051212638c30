package backtest

import (
	"errors"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/aurum/internal/indicator"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/strategy"
)

func walkForwardRows(t *testing.T, n int) []models.IndicatorRow {
	t.Helper()
	rows, err := indicator.Compute(testBars(n), indicator.DefaultWindow)
	require.NoError(t, err)
	return rows
}

func TestRunWalkForwardWindows(t *testing.T) {
	rows := walkForwardRows(t, 220) // 200 complete rows
	cfg := WalkForwardConfig{TrainSize: 100, TestSize: 40}

	result, err := RunWalkForward(rows, strategy.Combined(strategy.DefaultParams()), cfg, DefaultAnnualization)
	require.NoError(t, err)

	// test windows start at 100, 140 and 180; the last one is truncated to 20 rows
	require.Len(t, result.Windows, 3)
	assert.Equal(t, "combined", result.Strategy)

	first := result.Windows[0]
	assert.Equal(t, 1, first.WindowID)
	assert.Equal(t, rows[0].Date, first.TrainStart)
	assert.Equal(t, rows[99].Date, first.TrainEnd)
	assert.Equal(t, rows[100].Date, first.TestStart)
	assert.Equal(t, rows[139].Date, first.TestEnd)
	assert.Equal(t, 40, first.TestPerformance.Periods)

	last := result.Windows[2]
	assert.Equal(t, rows[199].Date, last.TestEnd)
	assert.Equal(t, 20, last.TestPerformance.Periods)

	assert.GreaterOrEqual(t, result.ConsistencyScore, 0.0)
	assert.LessOrEqual(t, result.ConsistencyScore, 1.0)
	assert.True(t, result.MeanTestReturn.IsSome())
}

func TestRunWalkForwardUsesTrainThresholds(t *testing.T) {
	rows := walkForwardRows(t, 180)
	strat := strategy.ZScore(strategy.Params{ZThresholdLow: -1, ZThresholdHigh: 1, VolPercentile: 0.5})
	cfg := WalkForwardConfig{TrainSize: 80, TestSize: 40, StepSize: 40}

	result, err := RunWalkForward(rows, strat, cfg, DefaultAnnualization)
	require.NoError(t, err)
	require.NotEmpty(t, result.Windows)

	train := rows[:80]
	test := rows[80:120]
	expected, err := strategy.GenerateWithReference(test, train, strat)
	require.NoError(t, err)
	assert.Equal(t, Evaluate(expected, DefaultAnnualization), result.Windows[0].TestPerformance)
}

func TestRunWalkForwardTooShort(t *testing.T) {
	rows := walkForwardRows(t, 60)

	result, err := RunWalkForward(rows, strategy.ZScore(strategy.DefaultParams()), WalkForwardConfig{TrainSize: 100, TestSize: 20}, DefaultAnnualization)
	require.NoError(t, err)
	assert.Empty(t, result.Windows)
	assert.True(t, result.MeanTestReturn.IsNone())
	assert.Equal(t, 0.0, result.ConsistencyScore)
}

func TestRunWalkForwardRequiresSizes(t *testing.T) {
	_, err := RunWalkForward(nil, strategy.ZScore(strategy.DefaultParams()), WalkForwardConfig{TrainSize: 100}, DefaultAnnualization)
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}

func TestPipelineWalkForward(t *testing.T) {
	cfg := testPipelineConfig()
	cfg.WalkForward = WalkForwardConfig{TrainSize: 60, TestSize: 30}
	pipeline, err := NewPipeline(cfg)
	require.NoError(t, err)

	result, err := pipeline.Run(testBars(200))
	require.NoError(t, err)

	wf, err := pipeline.WalkForward(result.Indicators)
	require.NoError(t, err)
	assert.Len(t, wf, 2)
	assert.NotEmpty(t, wf["zscore"].Windows)
	assert.Contains(t, wf["combined"].ToJSON(), `"consistency_score"`)
}

func TestCalculateConsistency(t *testing.T) {
	windows := []WalkForwardWindow{
		{TestReturn: optional.Some(0.02)},
		{TestReturn: optional.Some(-0.01)},
		{TestReturn: optional.Some(0.0)},
		{TestReturn: optional.Some(0.05)},
	}
	assert.Equal(t, 0.5, CalculateConsistency(windows))
	assert.Equal(t, 0.0, CalculateConsistency(nil))
}
