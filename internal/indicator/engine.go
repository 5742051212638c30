// Package indicator derives rolling statistics from a daily price series.
package indicator

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/models"
)

// DefaultWindow is the rolling window length used when none is configured
const DefaultWindow = 20

// Compute derives indicators for bars and returns only complete rows.
//
// A row is complete once a log return, a full volatility window and a full
// SMA window exist, i.e. from index window onwards. Warm-up rows are dropped
// here rather than left to NaN filtering downstream. Fewer than window+1 bars
// yields an empty slice and no error. A window of 1 never defines volatility,
// so no row is complete and the result is always empty.
func Compute(bars []models.PriceBar, window int) ([]models.IndicatorRow, error) {
	all, err := ComputeAll(bars, window)
	if err != nil {
		return nil, err
	}
	return CompleteRows(all), nil
}

// ComputeAll derives indicators for every bar, warm-up rows included.
func ComputeAll(bars []models.PriceBar, window int) ([]models.IndicatorRow, error) {
	if window <= 0 {
		return nil, fmt.Errorf("%w: window must be positive, got %d", models.ErrInvalidConfig, window)
	}
	if err := ValidateBars(bars); err != nil {
		return nil, err
	}

	n := len(bars)
	closes := make([]float64, n)
	for i, bar := range bars {
		closes[i] = bar.Close
	}

	// logReturns[i] is the return into bar i; index 0 is unused
	logReturns := make([]float64, n)
	for i := 1; i < n; i++ {
		logReturns[i] = math.Log(closes[i] / closes[i-1])
	}

	rows := make([]models.IndicatorRow, n)
	for i, bar := range bars {
		row := models.IndicatorRow{
			PriceBar:   bar,
			Window:     window,
			LogReturn:  optional.None[float64](),
			Volatility: optional.None[float64](),
			DailyRange: bar.DailyRange(),
			SMA:        optional.None[float64](),
			ZScore:     optional.None[float64](),
		}

		if i >= 1 {
			row.LogReturn = optional.Some(logReturns[i])
		}
		if i >= window-1 {
			row.SMA = optional.Some(rollingMean(closes, i, window))
		}
		// volatility needs window returns, the first of which is at index 1
		if i >= window {
			if vol, ok := rollingStdDev(logReturns, i, window); ok {
				row.Volatility = optional.Some(vol)
			}
		}
		row.ZScore = zScore(bar.Close, row.SMA, row.Volatility)

		rows[i] = row
	}

	return rows, nil
}

// CompleteRows filters rows down to those with every window-dependent field defined
func CompleteRows(rows []models.IndicatorRow) []models.IndicatorRow {
	complete := make([]models.IndicatorRow, 0, len(rows))
	for _, row := range rows {
		if row.Complete() {
			complete = append(complete, row)
		}
	}
	return complete
}

// Bars strips derived columns and returns the underlying price bars
func Bars(rows []models.IndicatorRow) []models.PriceBar {
	bars := make([]models.PriceBar, len(rows))
	for i, row := range rows {
		bars[i] = row.PriceBar
	}
	return bars
}

func zScore(close float64, sma, volatility optional.Option[float64]) optional.Option[float64] {
	if sma.IsNone() || volatility.IsNone() {
		return optional.None[float64]()
	}
	vol := volatility.Unwrap()
	if vol == 0 {
		return optional.None[float64]()
	}
	return optional.Some((close - sma.Unwrap()) / vol)
}
