package strategy

import (
	"sort"

	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/models"
)

// Percentile returns the q-quantile of values using linear interpolation
// between the closest ranks. ok is false for an empty sample.
func Percentile(values []float64, q float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return percentileSorted(sorted, q), true
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lower := int(pos)
	if lower >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[lower+1]-sorted[lower])*frac
}

// definedValues collects the defined values of field across rows
func definedValues(rows []models.IndicatorRow, field models.IndicatorField) []float64 {
	values := make([]float64, 0, len(rows))
	for _, row := range rows {
		if v := row.Field(field); v.IsSome() {
			values = append(values, v.Unwrap())
		}
	}
	return values
}

// thresholdSeries returns the per-row percentile threshold of field under mode.
// A row whose sample holds no defined value gets None.
func thresholdSeries(rows []models.IndicatorRow, field models.IndicatorField, q float64, mode PercentileMode, lookback int) []optional.Option[float64] {
	out := make([]optional.Option[float64], len(rows))

	switch mode {
	case PercentileExpanding, PercentileRolling:
		for t := range rows {
			start := 0
			if mode == PercentileRolling && t-lookback+1 > 0 {
				start = t - lookback + 1
			}
			out[t] = optionalPercentile(definedValues(rows[start:t+1], field), q)
		}
	default:
		static := optionalPercentile(definedValues(rows, field), q)
		for t := range out {
			out[t] = static
		}
	}
	return out
}

func optionalPercentile(values []float64, q float64) optional.Option[float64] {
	p, ok := Percentile(values, q)
	if !ok {
		return optional.None[float64]()
	}
	return optional.Some(p)
}
