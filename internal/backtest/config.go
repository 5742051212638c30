package backtest

import (
	"fmt"
	"time"

	"github.com/yourusername/aurum/internal/config"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/strategy"
)

// PipelineConfig is the explicit parameter bundle for one pipeline run
type PipelineConfig struct {
	Window        int
	Annualization float64
	// StartDate and EndDate restrict the evaluated rows. Zero means unbounded.
	// Bars before StartDate still feed indicator warm-up.
	StartDate  time.Time
	EndDate    time.Time
	Strategies []strategy.Config
	Parallel   bool

	OutputPath           string
	MonteCarloIterations int
	MonteCarloSeed       int64
	WalkForward          WalkForwardConfig
}

// WalkForwardConfig sizes walk-forward windows in rows
type WalkForwardConfig struct {
	TrainSize int
	TestSize  int
	StepSize  int
}

// Enabled reports whether walk-forward windows are configured
func (w WalkForwardConfig) Enabled() bool {
	return w.TrainSize > 0 && w.TestSize > 0
}

// FromConfig converts app config to pipeline config
func FromConfig(cfg *config.BacktestConfig) (PipelineConfig, error) {
	if cfg == nil {
		return PipelineConfig{}, fmt.Errorf("backtest config is required")
	}

	pc := PipelineConfig{
		Window:               cfg.Window,
		Annualization:        cfg.AnnualizationFactor,
		Parallel:             cfg.Parallel,
		OutputPath:           cfg.OutputPath,
		MonteCarloIterations: cfg.MonteCarloIterations,
		MonteCarloSeed:       cfg.MonteCarloSeed,
		WalkForward: WalkForwardConfig{
			TrainSize: cfg.WalkForward.TrainDays,
			TestSize:  cfg.WalkForward.TestDays,
			StepSize:  cfg.WalkForward.StepDays,
		},
	}

	var err error
	if cfg.StartDate != "" {
		if pc.StartDate, err = time.Parse(models.DateLayout, cfg.StartDate); err != nil {
			return PipelineConfig{}, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if cfg.EndDate != "" {
		if pc.EndDate, err = time.Parse(models.DateLayout, cfg.EndDate); err != nil {
			return PipelineConfig{}, fmt.Errorf("invalid end date: %w", err)
		}
	}

	for _, sc := range cfg.Strategies {
		strat, err := StrategyFromConfig(sc)
		if err != nil {
			return PipelineConfig{}, err
		}
		pc.Strategies = append(pc.Strategies, strat)
	}

	return pc, pc.Validate()
}

// StrategyFromConfig builds a strategy from its configured kind and thresholds
func StrategyFromConfig(sc config.StrategyConfig) (strategy.Config, error) {
	params := strategy.DefaultParams()
	if sc.ZThresholdLow != nil {
		params.ZThresholdLow = *sc.ZThresholdLow
	}
	if sc.ZThresholdHigh != nil {
		params.ZThresholdHigh = *sc.ZThresholdHigh
	}
	if sc.VolPercentile != nil {
		params.VolPercentile = *sc.VolPercentile
	}
	if sc.RangePercentile != nil {
		params.RangePercentile = *sc.RangePercentile
	}
	if sc.PercentileMode != "" {
		params.PercentileMode = strategy.PercentileMode(sc.PercentileMode)
	}
	params.PercentileLookback = sc.PercentileLookback

	strat, err := strategy.FromKind(sc.Kind, params)
	if err != nil {
		return strategy.Config{}, fmt.Errorf("strategy %s: %w", sc.Name, err)
	}
	if sc.Name != "" {
		strat.Name = sc.Name
	}
	if err := strat.Validate(); err != nil {
		return strategy.Config{}, fmt.Errorf("strategy %s: %w", sc.Name, err)
	}
	return strat, nil
}

// Validate validates pipeline config parameters
func (c PipelineConfig) Validate() error {
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive", models.ErrInvalidConfig)
	}
	if c.Annualization <= 0 {
		return fmt.Errorf("%w: annualization factor must be positive", models.ErrInvalidConfig)
	}
	if !c.StartDate.IsZero() && !c.EndDate.IsZero() && c.StartDate.After(c.EndDate) {
		return fmt.Errorf("%w: start date must not be after end date", models.ErrInvalidConfig)
	}
	if len(c.Strategies) == 0 {
		return fmt.Errorf("%w: at least one strategy is required", models.ErrInvalidConfig)
	}
	if c.MonteCarloIterations < 0 {
		return fmt.Errorf("%w: monte carlo iterations cannot be negative", models.ErrInvalidConfig)
	}

	names := make(map[string]bool, len(c.Strategies))
	for _, s := range c.Strategies {
		if names[s.Name] {
			return fmt.Errorf("%w: duplicate strategy name %q", models.ErrInvalidConfig, s.Name)
		}
		names[s.Name] = true
		if err := s.Validate(); err != nil {
			return err
		}
	}
	return nil
}
