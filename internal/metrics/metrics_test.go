package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRegistry(t *testing.T) {
	InitRegistry()
	registry := GetRegistry()

	assert.NotNil(t, registry)
	assert.IsType(t, &prometheus.Registry{}, registry)
	assert.Same(t, registry, InitRegistry())
}

func TestRecordBarsIngested(t *testing.T) {
	InitRegistry()
	before := testutil.ToFloat64(BarsIngestedTotal.WithLabelValues("TEST1"))

	RecordBarsIngested("TEST1", 10, 2)

	assert.Equal(t, before+10, testutil.ToFloat64(BarsIngestedTotal.WithLabelValues("TEST1")))
	assert.Equal(t, 2.0, testutil.ToFloat64(BarsRejectedTotal.WithLabelValues("TEST1")))
}

func TestRecordIngestionRun(t *testing.T) {
	InitRegistry()

	RecordIngestionRun("test_source", "failure", 0.2)
	RecordDataSourceError("test_source", "rate_limit_exceeded")

	assert.Equal(t, 1.0, testutil.ToFloat64(IngestionRunsTotal.WithLabelValues("test_source", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(DataSourceErrorsTotal.WithLabelValues("test_source", "rate_limit_exceeded")))
}

func TestUpdateStrategyPerformanceDropsUndefined(t *testing.T) {
	InitRegistry()
	sharpe, ret, dd := 1.2, 0.1, -0.05

	UpdateStrategyPerformance("test_strategy", &sharpe, &ret, &dd, 0.7)
	assert.Equal(t, 1, testutil.CollectAndCount(StrategySharpeRatio, "aurum_strategy_sharpe_ratio"))
	assert.Equal(t, 1.2, testutil.ToFloat64(StrategySharpeRatio.WithLabelValues("test_strategy")))

	UpdateStrategyPerformance("test_strategy", nil, &ret, &dd, 0.5)
	assert.Equal(t, 0, testutil.CollectAndCount(StrategySharpeRatio, "aurum_strategy_sharpe_ratio"))
	assert.Equal(t, 0.5, testutil.ToFloat64(BacktestCompositeScore.WithLabelValues("test_strategy")))
}

func TestRecordSignals(t *testing.T) {
	InitRegistry()

	RecordSignals("signals_test", 3, 10, 2)
	RecordRecommendation("signals_test", "REJECT")

	assert.Equal(t, 3.0, testutil.ToFloat64(StrategySignalsTotal.WithLabelValues("signals_test", "buy")))
	assert.Equal(t, 2.0, testutil.ToFloat64(StrategySignalsTotal.WithLabelValues("signals_test", "sell")))
	assert.Equal(t, 1.0, testutil.ToFloat64(StrategyRecommendationsTotal.WithLabelValues("signals_test", "REJECT")))
}

func TestRecordPipelineRun(t *testing.T) {
	InitRegistry()

	assert.NotPanics(t, func() {
		RecordPipelineRun("success", 0.02, 280)
		RecordBacktestRun("historical", "success")
		UpdateLatestBar("XAUUSD", 1.7e9)
	})
	assert.Equal(t, 280.0, testutil.ToFloat64(IndicatorRowsComputed))
}

func TestHandler(t *testing.T) {
	InitRegistry()
	RecordPipelineRun("success", 0.01, 10)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aurum_pipeline_runs_total")
}
