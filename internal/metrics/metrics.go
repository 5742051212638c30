// Package metrics provides the Prometheus registry for ingestion and backtest runs.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "aurum"

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Ingestion metrics
var (
	BarsIngestedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bars_ingested_total",
		Help:      "Total number of daily bars stored, by symbol",
	}, []string{"symbol"})
	BarsRejectedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bars_rejected_total",
		Help:      "Total number of bars rejected by validation, by symbol",
	}, []string{"symbol"})
	IngestionRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingestion_runs_total",
		Help:      "Total number of ingestion runs by source and status",
	}, []string{"source", "status"})
	DataSourceErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "data_source_errors_total",
		Help:      "Total number of data source errors by source and code",
	}, []string{"source", "code"})
	LatestBarTimestamp = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "latest_bar_timestamp_seconds",
		Help:      "Unix time of the most recent stored bar, by symbol",
	}, []string{"symbol"})
	IngestionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingestion_duration_seconds",
		Help:      "Duration of ingestion runs in seconds",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(BarsIngestedTotal)
		registry.MustRegister(BarsRejectedTotal)
		registry.MustRegister(IngestionRunsTotal)
		registry.MustRegister(DataSourceErrorsTotal)
		registry.MustRegister(LatestBarTimestamp)
		registry.MustRegister(IngestionDuration)

		registry.MustRegister(PipelineRunsTotal)
		registry.MustRegister(PipelineDuration)
		registry.MustRegister(IndicatorRowsComputed)
		registry.MustRegister(BacktestRunsTotal)
		registry.MustRegister(BacktestCompositeScore)
		registry.MustRegister(StrategySharpeRatio)
		registry.MustRegister(StrategyTotalReturn)
		registry.MustRegister(StrategyMaxDrawdown)

		registry.MustRegister(StrategySignalsTotal)
		registry.MustRegister(StrategyRecommendationsTotal)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	return InitRegistry()
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordBarsIngested records stored and rejected bar counts for one run.
func RecordBarsIngested(symbol string, stored, rejected int) {
	BarsIngestedTotal.WithLabelValues(symbol).Add(float64(stored))
	BarsRejectedTotal.WithLabelValues(symbol).Add(float64(rejected))
}

// RecordIngestionRun records an ingestion run outcome and duration.
// status should be one of: "success", "failure"
func RecordIngestionRun(source, status string, durationSeconds float64) {
	IngestionRunsTotal.WithLabelValues(source, status).Inc()
	IngestionDuration.Observe(durationSeconds)
}

// RecordDataSourceError records a failed provider call.
func RecordDataSourceError(source, code string) {
	DataSourceErrorsTotal.WithLabelValues(source, code).Inc()
}

// UpdateLatestBar sets the most recent stored bar time.
func UpdateLatestBar(symbol string, unixSeconds float64) {
	LatestBarTimestamp.WithLabelValues(symbol).Set(unixSeconds)
}
