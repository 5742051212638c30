package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/models"
)

// Kind names a built-in rule set shape
type Kind string

// Built-in strategy kinds
const (
	KindZScore   Kind = "zscore"
	KindCombined Kind = "combined"
	KindCustom   Kind = "custom"
)

// Params parameterizes the built-in strategies
type Params struct {
	ZThresholdLow      float64
	ZThresholdHigh     float64
	VolPercentile      float64
	RangePercentile    float64
	PercentileMode     PercentileMode
	PercentileLookback int
}

// DefaultParams returns the reference thresholds
func DefaultParams() Params {
	return Params{
		ZThresholdLow:   -2,
		ZThresholdHigh:  2,
		VolPercentile:   0.75,
		RangePercentile: 0.50,
		PercentileMode:  PercentileStatic,
	}
}

// ZScore buys on a low z-score and sells on a high one, both only while
// volatility is above its VolPercentile.
func ZScore(p Params) Config {
	vol := Condition{Field: models.FieldVolatility, Op: OpGreaterThan, Percentile: optional.Some(p.VolPercentile)}
	return Config{
		Name: string(KindZScore),
		Kind: KindZScore,
		Rules: []Rule{
			{
				Name:   "buy",
				Signal: models.SignalBuy,
				Conditions: []Condition{
					{Field: models.FieldZScore, Op: OpLessThan, Value: p.ZThresholdLow},
					vol,
				},
			},
			{
				Name:   "sell",
				Signal: models.SignalSell,
				Conditions: []Condition{
					{Field: models.FieldZScore, Op: OpGreaterThan, Value: p.ZThresholdHigh},
					vol,
				},
			},
		},
		PercentileMode:     p.PercentileMode,
		PercentileLookback: p.PercentileLookback,
	}
}

// Combined is ZScore with an additional daily range filter
func Combined(p Params) Config {
	cfg := ZScore(p)
	cfg.Name = string(KindCombined)
	cfg.Kind = KindCombined

	rng := Condition{Field: models.FieldDailyRange, Op: OpGreaterThan, Percentile: optional.Some(p.RangePercentile)}
	for i := range cfg.Rules {
		conds := make([]Condition, 0, len(cfg.Rules[i].Conditions)+1)
		conds = append(conds, cfg.Rules[i].Conditions...)
		cfg.Rules[i].Conditions = append(conds, rng)
	}
	return cfg
}

// FromKind builds the named built-in strategy
func FromKind(kind string, p Params) (Config, error) {
	switch Kind(kind) {
	case KindZScore:
		return ZScore(p), nil
	case KindCombined:
		return Combined(p), nil
	default:
		return Config{}, fmt.Errorf("%w: unknown strategy kind %q", models.ErrInvalidConfig, kind)
	}
}
