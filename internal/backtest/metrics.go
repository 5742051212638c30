package backtest

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/models"
)

// TradingDaysPerYear is the daily-bar annualization basis
const TradingDaysPerYear = 252

// DefaultAnnualization is the Sharpe multiplier for daily bars
var DefaultAnnualization = math.Sqrt(TradingDaysPerYear)

// Evaluate computes position-adjusted returns and summary statistics.
//
// The return on row t uses the signal from row t-1, so row 0 always earns 0
// and the cumulative index starts at exactly 1. A row whose log return is
// undefined is held flat and earns 0; Compute output never has such rows, but
// ComputeAll warm-up rows do. An empty series yields empty curves and
// undefined scalars.
func Evaluate(rows []models.SignalRow, annualization float64) models.PerformanceResult {
	n := len(rows)
	result := models.PerformanceResult{
		StrategyReturn:   make([]float64, n),
		CumulativeReturn: make([]float64, n),
		Sharpe:           optional.None[float64](),
		MaxDrawdown:      optional.None[float64](),
		TotalReturn:      optional.None[float64](),
		Periods:          n,
	}
	if n == 0 {
		return result
	}

	result.CumulativeReturn[0] = 1.0
	for t := 1; t < n; t++ {
		r := 0.0
		if rows[t-1].Signal != models.SignalFlat && rows[t].LogReturn.IsSome() {
			r = float64(rows[t-1].Signal) * rows[t].LogReturn.Unwrap()
		}
		result.StrategyReturn[t] = r
		result.CumulativeReturn[t] = result.CumulativeReturn[t-1] * (1 + r)
	}

	result.Sharpe = calculateSharpeRatio(result.StrategyReturn, annualization)
	result.MaxDrawdown = optional.Some(calculateMaxDrawdown(result.CumulativeReturn))
	result.TotalReturn = optional.Some(result.CumulativeReturn[n-1] - 1)
	return result
}

// calculateSharpeRatio returns mean/std scaled by annualization. It is
// undefined for fewer than two periods or zero variance.
func calculateSharpeRatio(returns []float64, annualization float64) optional.Option[float64] {
	if len(returns) < 2 {
		return optional.None[float64]()
	}
	std := sampleStdDev(returns)
	if std == 0 || math.IsNaN(std) {
		return optional.None[float64]()
	}
	return optional.Some(average(returns) / std * annualization)
}

// calculateMaxDrawdown returns the deepest relative decline from a running
// peak. The result is <= 0 and exactly 0 for a non-decreasing path.
func calculateMaxDrawdown(cumulative []float64) float64 {
	maxDD := 0.0
	peak := math.Inf(-1)
	for _, v := range cumulative {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := v/peak - 1; dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// drawdownSeries returns v/peak - 1 per point
func drawdownSeries(cumulative []float64) []float64 {
	out := make([]float64, len(cumulative))
	peak := math.Inf(-1)
	for i, v := range cumulative {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			out[i] = v/peak - 1
		}
	}
	return out
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	return mean / float64(len(values))
}

// sampleStdDev is the Bessel-corrected standard deviation
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := average(values)
	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}

// HashParameters creates a stable hash for parameter maps
func HashParameters(params map[string]interface{}) string {
	data, _ := json.Marshal(params)
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash)
}
