// Package strategy turns indicator rows into discrete positions using ordered
// threshold rules.
package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/models"
)

// Generate assigns a signal to every row.
//
// Percentile thresholds are computed over rows according to the config's
// PercentileMode. A row missing any field the rule set reads is flat.
func Generate(rows []models.IndicatorRow, cfg Config) ([]models.SignalRow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	thresholds := resolveThresholds(cfg, func(c Condition) []optional.Option[float64] {
		return thresholdSeries(rows, c.Field, c.Percentile.Unwrap(), cfg.PercentileMode, cfg.PercentileLookback)
	})
	return apply(rows, cfg, thresholds), nil
}

// GenerateWithReference assigns signals to rows using static percentile
// thresholds taken from reference. The config's PercentileMode is ignored.
func GenerateWithReference(rows, reference []models.IndicatorRow, cfg Config) ([]models.SignalRow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	thresholds := resolveThresholds(cfg, func(c Condition) []optional.Option[float64] {
		static := optionalPercentile(definedValues(reference, c.Field), c.Percentile.Unwrap())
		series := make([]optional.Option[float64], len(rows))
		for i := range series {
			series[i] = static
		}
		return series
	})
	return apply(rows, cfg, thresholds), nil
}

// thresholdKey identifies a percentile condition so shared conditions are computed once
type thresholdKey struct {
	field models.IndicatorField
	q     float64
}

func resolveThresholds(cfg Config, series func(Condition) []optional.Option[float64]) map[thresholdKey][]optional.Option[float64] {
	out := make(map[thresholdKey][]optional.Option[float64])
	for _, r := range cfg.Rules {
		for _, c := range r.Conditions {
			if c.Percentile.IsNone() {
				continue
			}
			key := thresholdKey{field: c.Field, q: c.Percentile.Unwrap()}
			if _, ok := out[key]; !ok {
				out[key] = series(c)
			}
		}
	}
	return out
}

func apply(rows []models.IndicatorRow, cfg Config, thresholds map[thresholdKey][]optional.Option[float64]) []models.SignalRow {
	fields := cfg.Fields()
	out := make([]models.SignalRow, len(rows))

	for t, row := range rows {
		out[t] = models.SignalRow{IndicatorRow: row, Signal: models.SignalFlat}
		if !defined(row, fields) {
			continue
		}

		for _, r := range cfg.Rules {
			if matches(row, t, r, thresholds) {
				out[t].Signal = r.Signal
				out[t].Rule = r.Name
				break
			}
		}
	}
	return out
}

func defined(row models.IndicatorRow, fields []models.IndicatorField) bool {
	for _, f := range fields {
		if row.Field(f).IsNone() {
			return false
		}
	}
	return true
}

func matches(row models.IndicatorRow, t int, r Rule, thresholds map[thresholdKey][]optional.Option[float64]) bool {
	for _, c := range r.Conditions {
		threshold := c.Value
		if c.Percentile.IsSome() {
			th := thresholds[thresholdKey{field: c.Field, q: c.Percentile.Unwrap()}][t]
			if th.IsNone() {
				return false
			}
			threshold = th.Unwrap()
		}
		if !c.Op.Compare(row.Field(c.Field).Unwrap(), threshold) {
			return false
		}
	}
	return true
}
