package models

import (
	"github.com/moznion/go-optional"
)

// PerformanceResult is the evaluator output for one strategy run.
//
// Scalars are None when they cannot be computed: Sharpe for zero variance,
// all three for an empty series. Consumers must check before using them.
type PerformanceResult struct {
	StrategyReturn   []float64                `json:"strategy_return"`
	CumulativeReturn []float64                `json:"cumulative_return"`
	Sharpe           optional.Option[float64] `json:"sharpe_annualized"`
	MaxDrawdown      optional.Option[float64] `json:"max_drawdown"`
	TotalReturn      optional.Option[float64] `json:"total_return"`
	Periods          int                      `json:"periods"`
}

// Empty reports whether no period was evaluated
func (p PerformanceResult) Empty() bool {
	return p.Periods == 0
}
