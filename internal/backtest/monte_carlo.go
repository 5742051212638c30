package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/strategy"
)

// MonteCarloConfig configures monte carlo simulation
type MonteCarloConfig struct {
	Iterations int
	// Seed of 0 seeds from the clock
	Seed int64
}

// MonteCarloResult represents the bootstrap distribution of total returns
type MonteCarloResult struct {
	Iterations          int                `json:"iterations"`
	Seed                int64              `json:"seed"`
	MeanReturn          float64            `json:"mean_return"`
	StdReturn           float64            `json:"std_return"`
	VaR95               float64            `json:"var_95"`
	VaR99               float64            `json:"var_99"`
	ProbabilityOfProfit float64            `json:"probability_of_profit"`
	MeanMaxDrawdown     float64            `json:"mean_max_drawdown"`
	WorstMaxDrawdown    float64            `json:"worst_max_drawdown"`
	ConfidenceIntervals map[string]float64 `json:"confidence_intervals"`
	Distribution        []float64          `json:"distribution"`
}

// RunMonteCarlo resamples strategy returns with replacement and compounds each
// path. The first period of every evaluated series is a fixed 0 and is
// excluded from the sample.
func RunMonteCarlo(ctx context.Context, returns []float64, cfg MonteCarloConfig) (MonteCarloResult, error) {
	if len(returns) < 2 {
		return MonteCarloResult{}, fmt.Errorf("%w: need at least two periods to resample", models.ErrInsufficientHistory)
	}
	sample := returns[1:]

	if cfg.Iterations <= 0 {
		cfg.Iterations = 1000
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	rng := rand.New(rand.NewSource(seed))
	distribution := make([]float64, cfg.Iterations)
	drawdowns := make([]float64, cfg.Iterations)
	path := make([]float64, len(sample)+1)

	for i := 0; i < cfg.Iterations; i++ {
		if i%100 == 0 {
			if err := ctx.Err(); err != nil {
				return MonteCarloResult{}, err
			}
		}

		path[0] = 1.0
		for t := 1; t < len(path); t++ {
			r := sample[rng.Intn(len(sample))]
			path[t] = path[t-1] * (1 + r)
		}
		distribution[i] = path[len(path)-1] - 1
		drawdowns[i] = calculateMaxDrawdown(path)
	}

	mean, std := meanStd(distribution)
	meanDD, _ := meanStd(drawdowns)

	return MonteCarloResult{
		Iterations:          cfg.Iterations,
		Seed:                seed,
		MeanReturn:          mean,
		StdReturn:           std,
		VaR95:               percentile(distribution, 0.05),
		VaR99:               percentile(distribution, 0.01),
		ProbabilityOfProfit: probabilityAbove(distribution, 0),
		MeanMaxDrawdown:     meanDD,
		WorstMaxDrawdown:    percentile(drawdowns, 0),
		ConfidenceIntervals: CalculateConfidenceIntervals(distribution, []float64{0.9, 0.95, 0.99}),
		Distribution:        distribution,
	}, nil
}

// MonteCarlo runs the bootstrap for every strategy in a pipeline result
func (p *Pipeline) MonteCarlo(ctx context.Context, result *RunResult) (map[string]MonteCarloResult, error) {
	out := make(map[string]MonteCarloResult, len(result.Runs))
	for _, name := range result.Order {
		mc, err := RunMonteCarlo(ctx, result.Runs[name].Performance.StrategyReturn, MonteCarloConfig{
			Iterations: p.config.MonteCarloIterations,
			Seed:       p.config.MonteCarloSeed,
		})
		if err != nil {
			return nil, fmt.Errorf("monte carlo %s: %w", name, err)
		}
		out[name] = mc
	}
	return out, nil
}

// CalculateConfidenceIntervals returns the width of the central interval per level
func CalculateConfidenceIntervals(distribution []float64, levels []float64) map[string]float64 {
	results := make(map[string]float64)
	for _, level := range levels {
		p := (1.0 - level) / 2.0
		low := percentile(distribution, p)
		high := percentile(distribution, 1.0-p)
		results[formatPercent(level)] = high - low
	}
	return results
}

// ToJSON exports the monte carlo result
func (m MonteCarloResult) ToJSON() string {
	data, _ := json.Marshal(m)
	return string(data)
}

func meanStd(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values))
	return mean, math.Sqrt(variance)
}

func percentile(values []float64, p float64) float64 {
	v, ok := strategy.Percentile(values, p)
	if !ok {
		return 0
	}
	return v
}

func probabilityAbove(values []float64, threshold float64) float64 {
	if len(values) == 0 {
		return 0
	}
	count := 0
	for _, v := range values {
		if v > threshold {
			count++
		}
	}
	return float64(count) / float64(len(values))
}

func formatPercent(level float64) string {
	return fmt.Sprintf("%.0f%%", level*100)
}
