package strategy

import (
	"fmt"

	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/models"
)

// Operator compares an indicator value against a threshold
type Operator string

// Supported operators. Both comparisons are strict.
const (
	OpLessThan    Operator = "lt"
	OpGreaterThan Operator = "gt"
)

// Valid reports whether the operator is known
func (o Operator) Valid() bool {
	return o == OpLessThan || o == OpGreaterThan
}

// Compare applies the operator to value and threshold
func (o Operator) Compare(value, threshold float64) bool {
	switch o {
	case OpLessThan:
		return value < threshold
	case OpGreaterThan:
		return value > threshold
	default:
		return false
	}
}

// Condition tests one indicator field against a threshold.
//
// When Percentile is set the threshold is that quantile of the field's
// distribution and Value is ignored.
type Condition struct {
	Field      models.IndicatorField
	Op         Operator
	Value      float64
	Percentile optional.Option[float64]
}

func (c Condition) String() string {
	if c.Percentile.IsSome() {
		return fmt.Sprintf("%s %s p%.0f", c.Field, c.Op, c.Percentile.Unwrap()*100)
	}
	return fmt.Sprintf("%s %s %g", c.Field, c.Op, c.Value)
}

// Validate checks the condition is well formed
func (c Condition) Validate() error {
	if !c.Field.Valid() {
		return fmt.Errorf("%w: unknown field %q", models.ErrInvalidConfig, c.Field)
	}
	if !c.Op.Valid() {
		return fmt.Errorf("%w: unknown operator %q", models.ErrInvalidConfig, c.Op)
	}
	if c.Percentile.IsSome() {
		q := c.Percentile.Unwrap()
		if !(q >= 0 && q <= 1) {
			return fmt.Errorf("%w: percentile %v outside [0,1]", models.ErrInvalidConfig, q)
		}
	}
	return nil
}

// Rule emits Signal when every condition holds
type Rule struct {
	Name       string
	Signal     models.Signal
	Conditions []Condition
}

// Validate checks the rule and its conditions
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: rule name is required", models.ErrInvalidConfig)
	}
	if !r.Signal.Valid() {
		return fmt.Errorf("%w: rule %s has invalid signal %d", models.ErrInvalidConfig, r.Name, r.Signal)
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("%w: rule %s has no conditions", models.ErrInvalidConfig, r.Name)
	}
	for i, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("rule %s condition %d: %w", r.Name, i, err)
		}
	}
	return nil
}

// PercentileMode selects the sample percentile thresholds are computed over
type PercentileMode string

// Percentile modes
const (
	// PercentileStatic uses the whole evaluated series. Thresholds on early
	// rows see later data.
	PercentileStatic PercentileMode = "static"
	// PercentileExpanding uses rows 0..t
	PercentileExpanding PercentileMode = "expanding"
	// PercentileRolling uses the trailing PercentileLookback rows ending at t
	PercentileRolling PercentileMode = "rolling"
)

// Valid reports whether the mode is known. The empty mode means static.
func (m PercentileMode) Valid() bool {
	switch m {
	case "", PercentileStatic, PercentileExpanding, PercentileRolling:
		return true
	default:
		return false
	}
}

// Config is a named, ordered rule set. The first matching rule wins.
type Config struct {
	Name               string
	Kind               Kind
	Rules              []Rule
	PercentileMode     PercentileMode
	PercentileLookback int
}

// Validate checks the strategy definition
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: strategy name is required", models.ErrInvalidConfig)
	}
	if len(c.Rules) == 0 {
		return fmt.Errorf("%w: strategy %s has no rules", models.ErrInvalidConfig, c.Name)
	}
	if !c.PercentileMode.Valid() {
		return fmt.Errorf("%w: strategy %s has unknown percentile mode %q", models.ErrInvalidConfig, c.Name, c.PercentileMode)
	}
	if c.PercentileMode == PercentileRolling && c.PercentileLookback < 1 {
		return fmt.Errorf("%w: strategy %s needs a positive percentile lookback for rolling mode", models.ErrInvalidConfig, c.Name)
	}
	for _, r := range c.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("strategy %s: %w", c.Name, err)
		}
	}
	return nil
}

// Fields returns the distinct indicator fields referenced by any rule
func (c Config) Fields() []models.IndicatorField {
	seen := make(map[models.IndicatorField]bool)
	var fields []models.IndicatorField
	for _, r := range c.Rules {
		for _, cond := range r.Conditions {
			if !seen[cond.Field] {
				seen[cond.Field] = true
				fields = append(fields, cond.Field)
			}
		}
	}
	return fields
}

// Parameters describes the strategy for persistence and reports
func (c Config) Parameters() map[string]interface{} {
	rules := make([]map[string]interface{}, 0, len(c.Rules))
	for _, r := range c.Rules {
		conds := make([]string, 0, len(r.Conditions))
		for _, cond := range r.Conditions {
			conds = append(conds, cond.String())
		}
		rules = append(rules, map[string]interface{}{
			"name":       r.Name,
			"signal":     int(r.Signal),
			"conditions": conds,
		})
	}

	mode := c.PercentileMode
	if mode == "" {
		mode = PercentileStatic
	}
	params := map[string]interface{}{
		"name":            c.Name,
		"kind":            string(c.Kind),
		"percentile_mode": string(mode),
		"rules":           rules,
	}
	if mode == PercentileRolling {
		params["percentile_lookback"] = c.PercentileLookback
	}
	return params
}
