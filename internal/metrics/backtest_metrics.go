package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline metrics
var (
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pipeline_runs_total",
		Help:      "Total number of pipeline runs by status",
	}, []string{"status"})
	PipelineDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pipeline_duration_seconds",
		Help:      "Duration of pipeline runs in seconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
	IndicatorRowsComputed = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "indicator_rows_computed",
		Help:      "Number of complete indicator rows in the last pipeline run",
	})
)

// Backtest metrics
var (
	BacktestRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backtest_runs_total",
		Help:      "Total number of backtest runs by method and status",
	}, []string{"method", "status"})
	BacktestCompositeScore = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "backtest_composite_score",
		Help:      "Composite score of the last run for each strategy",
	}, []string{"strategy"})
	StrategySharpeRatio = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "strategy_sharpe_ratio",
		Help:      "Annualized Sharpe ratio of the last run; absent when undefined",
	}, []string{"strategy"})
	StrategyTotalReturn = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "strategy_total_return",
		Help:      "Total compounded return of the last run",
	}, []string{"strategy"})
	StrategyMaxDrawdown = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "strategy_max_drawdown",
		Help:      "Maximum drawdown of the last run (non-positive)",
	}, []string{"strategy"})
)

// RecordPipelineRun records a pipeline run outcome.
// status should be one of: "success", "failure", "insufficient_history"
func RecordPipelineRun(status string, durationSeconds float64, rows int) {
	PipelineRunsTotal.WithLabelValues(status).Inc()
	PipelineDuration.Observe(durationSeconds)
	IndicatorRowsComputed.Set(float64(rows))
}

// RecordBacktestRun records a backtest run event.
// method should be one of: "historical", "monte_carlo", "walk_forward"
func RecordBacktestRun(method, status string) {
	BacktestRunsTotal.WithLabelValues(method, status).Inc()
}

// UpdateStrategyPerformance publishes the last run's metrics. A nil value
// removes the series so undefined metrics are not reported as zero.
func UpdateStrategyPerformance(strategy string, sharpe, totalReturn, maxDrawdown *float64, composite float64) {
	setOrDelete(StrategySharpeRatio, strategy, sharpe)
	setOrDelete(StrategyTotalReturn, strategy, totalReturn)
	setOrDelete(StrategyMaxDrawdown, strategy, maxDrawdown)
	BacktestCompositeScore.WithLabelValues(strategy).Set(composite)
}

func setOrDelete(vec *prometheus.GaugeVec, label string, v *float64) {
	if v == nil {
		vec.DeleteLabelValues(label)
		return
	}
	vec.WithLabelValues(label).Set(*v)
}
