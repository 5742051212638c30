package backtest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/strategy"
)

// WalkForwardWindow represents one train/test split
type WalkForwardWindow struct {
	WindowID         int                      `json:"window_id"`
	TrainStart       time.Time                `json:"train_start"`
	TrainEnd         time.Time                `json:"train_end"`
	TestStart        time.Time                `json:"test_start"`
	TestEnd          time.Time                `json:"test_end"`
	TrainPerformance models.PerformanceResult `json:"-"`
	TestPerformance  models.PerformanceResult `json:"-"`
	TrainReturn      optional.Option[float64] `json:"train_return"`
	TestReturn       optional.Option[float64] `json:"test_return"`
	TestSharpe       optional.Option[float64] `json:"test_sharpe"`
	TestDrawdown     optional.Option[float64] `json:"test_drawdown"`
}

// WalkForwardResult represents walk-forward evaluation of one strategy
type WalkForwardResult struct {
	Strategy         string                   `json:"strategy"`
	Windows          []WalkForwardWindow      `json:"windows"`
	MeanTestReturn   optional.Option[float64] `json:"mean_test_return"`
	MeanTestSharpe   optional.Option[float64] `json:"mean_test_sharpe"`
	MeanTestDrawdown optional.Option[float64] `json:"mean_test_drawdown"`
	ConsistencyScore float64                  `json:"consistency_score"`
	OverfitScore     float64                  `json:"overfit_score"`
}

// RunWalkForward slides train/test windows over rows. Percentile thresholds
// for each test window come from its train window only, so no test row sees
// its own future.
func RunWalkForward(rows []models.IndicatorRow, strat strategy.Config, cfg WalkForwardConfig, annualization float64) (WalkForwardResult, error) {
	if !cfg.Enabled() {
		return WalkForwardResult{}, fmt.Errorf("%w: walk-forward needs positive train and test sizes", models.ErrInvalidConfig)
	}
	if cfg.StepSize <= 0 {
		cfg.StepSize = cfg.TestSize
	}

	result := WalkForwardResult{Strategy: strat.Name}
	windowID := 0

	for start := 0; start+cfg.TrainSize < len(rows); start += cfg.StepSize {
		train := rows[start : start+cfg.TrainSize]
		testEnd := start + cfg.TrainSize + cfg.TestSize
		if testEnd > len(rows) {
			testEnd = len(rows)
		}
		test := rows[start+cfg.TrainSize : testEnd]

		trainSignals, err := strategy.GenerateWithReference(train, train, strat)
		if err != nil {
			return WalkForwardResult{}, err
		}
		testSignals, err := strategy.GenerateWithReference(test, train, strat)
		if err != nil {
			return WalkForwardResult{}, err
		}

		windowID++
		trainPerf := Evaluate(trainSignals, annualization)
		testPerf := Evaluate(testSignals, annualization)
		result.Windows = append(result.Windows, WalkForwardWindow{
			WindowID:         windowID,
			TrainStart:       train[0].Date,
			TrainEnd:         train[len(train)-1].Date,
			TestStart:        test[0].Date,
			TestEnd:          test[len(test)-1].Date,
			TrainPerformance: trainPerf,
			TestPerformance:  testPerf,
			TrainReturn:      trainPerf.TotalReturn,
			TestReturn:       testPerf.TotalReturn,
			TestSharpe:       testPerf.Sharpe,
			TestDrawdown:     testPerf.MaxDrawdown,
		})

		if testEnd == len(rows) {
			break
		}
	}

	result.MeanTestReturn = meanDefined(result.Windows, func(w WalkForwardWindow) optional.Option[float64] { return w.TestReturn })
	result.MeanTestSharpe = meanDefined(result.Windows, func(w WalkForwardWindow) optional.Option[float64] { return w.TestSharpe })
	result.MeanTestDrawdown = meanDefined(result.Windows, func(w WalkForwardWindow) optional.Option[float64] { return w.TestDrawdown })
	result.ConsistencyScore = CalculateConsistency(result.Windows)
	result.OverfitScore = calculateOverfitScore(result.Windows)

	return result, nil
}

// WalkForward runs walk-forward evaluation for every configured strategy
func (p *Pipeline) WalkForward(rows []models.IndicatorRow) (map[string]WalkForwardResult, error) {
	out := make(map[string]WalkForwardResult, len(p.config.Strategies))
	for _, strat := range p.config.Strategies {
		res, err := RunWalkForward(rows, strat, p.config.WalkForward, p.config.Annualization)
		if err != nil {
			return nil, fmt.Errorf("walk-forward %s: %w", strat.Name, err)
		}
		out[strat.Name] = res
	}
	return out, nil
}

// CalculateConsistency calculates the share of windows with a positive test return
func CalculateConsistency(windows []WalkForwardWindow) float64 {
	if len(windows) == 0 {
		return 0
	}
	profitable := 0
	for _, w := range windows {
		if w.TestReturn.IsSome() && w.TestReturn.Unwrap() > 0 {
			profitable++
		}
	}
	return float64(profitable) / float64(len(windows))
}

func calculateOverfitScore(windows []WalkForwardWindow) float64 {
	trainReturn := 0.0
	testReturn := 0.0
	for _, w := range windows {
		trainReturn += w.TrainReturn.TakeOr(0)
		testReturn += w.TestReturn.TakeOr(0)
	}
	if trainReturn == 0 {
		return 0
	}
	return (trainReturn - testReturn) / trainReturn
}

func meanDefined(windows []WalkForwardWindow, get func(WalkForwardWindow) optional.Option[float64]) optional.Option[float64] {
	sum := 0.0
	count := 0
	for _, w := range windows {
		if v := get(w); v.IsSome() {
			sum += v.Unwrap()
			count++
		}
	}
	if count == 0 {
		return optional.None[float64]()
	}
	return optional.Some(sum / float64(count))
}

// ToJSON exports the walk-forward result
func (w WalkForwardResult) ToJSON() string {
	data, _ := json.Marshal(w)
	return string(data)
}
