package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Strategy signal metrics
var (
	StrategySignalsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_signals_total",
		Help:      "Total number of generated positions by strategy and signal",
	}, []string{"strategy", "signal"})

	StrategyRecommendationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "strategy_recommendations_total",
		Help:      "Total number of ranking recommendations by strategy and outcome",
	}, []string{"strategy", "recommendation"})
)

// RecordSignals adds the count of buy, flat and sell positions of one run.
func RecordSignals(strategy string, buys, flats, sells int) {
	StrategySignalsTotal.WithLabelValues(strategy, "buy").Add(float64(buys))
	StrategySignalsTotal.WithLabelValues(strategy, "flat").Add(float64(flats))
	StrategySignalsTotal.WithLabelValues(strategy, "sell").Add(float64(sells))
}

// RecordRecommendation records a ranking recommendation.
func RecordRecommendation(strategy, recommendation string) {
	StrategyRecommendationsTotal.WithLabelValues(strategy, recommendation).Inc()
}
