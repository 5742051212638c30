package backtest

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/models"
)

// Recommendations
const (
	RecommendationAccept      = "ACCEPT"
	RecommendationNeedsReview = "NEEDS_REVIEW"
	RecommendationReject      = "REJECT"
)

// AggregatedResult represents combined backtest outcomes for one strategy
type AggregatedResult struct {
	Strategy          string                   `json:"strategy"`
	Sharpe            optional.Option[float64] `json:"sharpe_annualized"`
	MaxDrawdown       optional.Option[float64] `json:"max_drawdown"`
	TotalReturn       optional.Option[float64] `json:"total_return"`
	Periods           int                      `json:"periods"`
	MonteCarloResult  *MonteCarloResult        `json:"monte_carlo_result,omitempty"`
	WalkForwardResult *WalkForwardResult       `json:"walk_forward_result,omitempty"`
	CompositeScore    float64                  `json:"composite_score"`
	Weights           AggregationWeights       `json:"weights"`
	Recommendation    string                   `json:"recommendation"`
	Features          map[string]float64       `json:"features"`
}

// AggregationWeights define weighting per method
type AggregationWeights struct {
	HistoricalReplay float64 `json:"historical_replay"`
	MonteCarlo       float64 `json:"monte_carlo"`
	WalkForward      float64 `json:"walk_forward"`
}

// DefaultWeights favours the full-history evaluation
func DefaultWeights() AggregationWeights {
	return AggregationWeights{HistoricalReplay: 0.6, MonteCarlo: 0.2, WalkForward: 0.2}
}

// AggregateResults combines the historical evaluation with the optional monte
// carlo and walk-forward results. Weights of missing methods are redistributed.
func AggregateResults(name string, perf models.PerformanceResult, monteCarlo *MonteCarloResult, walkForward *WalkForwardResult, weights AggregationWeights) AggregatedResult {
	if monteCarlo == nil {
		weights.MonteCarlo = 0
	}
	if walkForward == nil {
		weights.WalkForward = 0
	}
	total := weights.HistoricalReplay + weights.MonteCarlo + weights.WalkForward

	composite := 0.0
	if total > 0 {
		composite = CalculateCompositeScore(perf) * weights.HistoricalReplay
		if monteCarlo != nil {
			composite += normalize(monteCarlo.MeanReturn, -0.5, 1.0) * weights.MonteCarlo
		}
		if walkForward != nil {
			composite += normalize(walkForward.MeanTestReturn.TakeOr(0), -0.5, 1.0) * weights.WalkForward
		}
		composite /= total
	}

	return AggregatedResult{
		Strategy:          name,
		Sharpe:            perf.Sharpe,
		MaxDrawdown:       perf.MaxDrawdown,
		TotalReturn:       perf.TotalReturn,
		Periods:           perf.Periods,
		MonteCarloResult:  monteCarlo,
		WalkForwardResult: walkForward,
		CompositeScore:    composite,
		Weights:           weights,
		Recommendation:    GenerateRecommendation(composite, perf.TotalReturn, walkForward),
		Features:          extractFeatures(perf, monteCarlo, walkForward),
	}
}

// CalculateCompositeScore scores a single evaluation in [0,1].
// An undefined Sharpe contributes nothing.
func CalculateCompositeScore(perf models.PerformanceResult) float64 {
	if perf.Empty() {
		return 0
	}
	sharpeScore := 0.0
	if perf.Sharpe.IsSome() {
		sharpeScore = normalize(perf.Sharpe.Unwrap(), -2, 3)
	}
	returnScore := normalize(perf.TotalReturn.TakeOr(0), -0.5, 1.0)
	drawdownPenalty := 1.0 - normalize(-perf.MaxDrawdown.TakeOr(0), 0, 0.5)

	return sharpeScore*0.40 + returnScore*0.35 + drawdownPenalty*0.25
}

// GenerateRecommendation determines if strategy is acceptable
func GenerateRecommendation(score float64, historicalReturn optional.Option[float64], walkForward *WalkForwardResult) string {
	if historicalReturn.IsNone() {
		return RecommendationReject
	}
	hist := historicalReturn.Unwrap()

	consistency := 1.0
	wfReturn := hist
	if walkForward != nil {
		consistency = walkForward.ConsistencyScore
		wfReturn = walkForward.MeanTestReturn.TakeOr(0)
	}

	if score > 0.6 && hist > 0 && wfReturn > 0 && consistency > 0.6 {
		return RecommendationAccept
	}
	if score < 0.4 || hist < 0 || wfReturn < 0 || consistency < 0.4 {
		return RecommendationReject
	}
	return RecommendationNeedsReview
}

// RankStrategies aggregates every run and orders them by composite score,
// best first. Ties keep configuration order.
func RankStrategies(result *RunResult, monteCarlo map[string]MonteCarloResult, walkForward map[string]WalkForwardResult, weights AggregationWeights) []AggregatedResult {
	ranked := make([]AggregatedResult, 0, len(result.Order))
	for _, name := range result.Order {
		var mc *MonteCarloResult
		if v, ok := monteCarlo[name]; ok {
			mc = &v
		}
		var wf *WalkForwardResult
		if v, ok := walkForward[name]; ok {
			wf = &v
		}
		ranked = append(ranked, AggregateResults(name, result.Runs[name].Performance, mc, wf, weights))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CompositeScore > ranked[j].CompositeScore
	})
	return ranked
}

// ToJSON exports the aggregated result
func (a AggregatedResult) ToJSON() string {
	data, _ := json.Marshal(a)
	return string(data)
}

func extractFeatures(perf models.PerformanceResult, mc *MonteCarloResult, wf *WalkForwardResult) map[string]float64 {
	features := map[string]float64{
		"periods": float64(perf.Periods),
	}
	if perf.TotalReturn.IsSome() {
		features["total_return"] = perf.TotalReturn.Unwrap()
	}
	if perf.Sharpe.IsSome() {
		features["sharpe_ratio"] = perf.Sharpe.Unwrap()
	}
	if perf.MaxDrawdown.IsSome() {
		features["max_drawdown"] = perf.MaxDrawdown.Unwrap()
	}
	if mc != nil {
		features["monte_carlo_var95"] = mc.VaR95
		features["monte_carlo_var99"] = mc.VaR99
		features["monte_carlo_profit_probability"] = mc.ProbabilityOfProfit
	}
	if wf != nil {
		features["consistency_score"] = wf.ConsistencyScore
		features["overfit_score"] = wf.OverfitScore
	}
	return features
}

func normalize(value, min, max float64) float64 {
	if max-min == 0 {
		return 0
	}
	v := (value - min) / (max - min)
	return math.Max(0, math.Min(1, v))
}
