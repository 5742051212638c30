package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// PipelineLogger provides dedicated logging for indicator and backtest runs.
type PipelineLogger struct {
	*logrus.Entry
}

// NewPipelineLogger creates a new pipeline logger.
func NewPipelineLogger(baseLogger *logrus.Logger) *PipelineLogger {
	return &PipelineLogger{
		Entry: baseLogger.WithField("component", "pipeline"),
	}
}

// LogPipelineRun logs a completed pipeline run.
func (pl *PipelineLogger) LogPipelineRun(symbol string, bars, rows, strategies int, duration time.Duration) {
	pl.WithFields(logrus.Fields{
		"event":       "pipeline_run_completed",
		"symbol":      symbol,
		"bars":        bars,
		"rows":        rows,
		"strategies":  strategies,
		"duration_ms": duration.Milliseconds(),
	}).Info("Pipeline run completed")
}

// LogInsufficientHistory logs a run that produced no complete indicator rows.
func (pl *PipelineLogger) LogInsufficientHistory(symbol string, bars, window int) {
	pl.WithFields(logrus.Fields{
		"event":  "insufficient_history",
		"symbol": symbol,
		"bars":   bars,
		"window": window,
	}).Warn("Not enough bars for a complete indicator row")
}

// LogStrategyEvaluated logs the evaluation of one strategy. Undefined
// metrics are passed as nil and logged as null.
func (pl *PipelineLogger) LogStrategyEvaluated(strategyName string, periods, buys, sells int, sharpe, maxDrawdown, totalReturn *float64) {
	pl.WithFields(logrus.Fields{
		"event":         "strategy_evaluated",
		"strategy_name": strategyName,
		"periods":       periods,
		"buy_signals":   buys,
		"sell_signals":  sells,
		"sharpe":        sharpe,
		"max_drawdown":  maxDrawdown,
		"total_return":  totalReturn,
	}).Info("Strategy evaluated")
}

// LogStrategyRanked logs the ranking outcome of a strategy.
func (pl *PipelineLogger) LogStrategyRanked(strategyName string, rank int, compositeScore float64, recommendation string) {
	pl.WithFields(logrus.Fields{
		"event":           "strategy_ranked",
		"strategy_name":   strategyName,
		"rank":            rank,
		"composite_score": compositeScore,
		"recommendation":  recommendation,
	}).Info("Strategy ranked")
}

// LogWalkForward logs a walk-forward evaluation summary.
func (pl *PipelineLogger) LogWalkForward(strategyName string, windows int, consistency, overfit float64) {
	pl.WithFields(logrus.Fields{
		"event":             "walk_forward_completed",
		"strategy_name":     strategyName,
		"windows":           windows,
		"consistency_score": consistency,
		"overfit_score":     overfit,
	}).Info("Walk-forward evaluation completed")
}

// LogMonteCarlo logs a Monte Carlo bootstrap summary.
func (pl *PipelineLogger) LogMonteCarlo(strategyName string, iterations int, meanReturn, var95, probabilityOfProfit float64) {
	pl.WithFields(logrus.Fields{
		"event":                 "monte_carlo_completed",
		"strategy_name":         strategyName,
		"iterations":            iterations,
		"mean_return":           meanReturn,
		"var_95":                var95,
		"probability_of_profit": probabilityOfProfit,
	}).Info("Monte Carlo simulation completed")
}
