// Package backtest evaluates strategies over indicator series and aggregates
// the resulting performance.
package backtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/aurum/internal/indicator"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/strategy"
)

// StrategyRun holds one strategy's signals and performance
type StrategyRun struct {
	Strategy    strategy.Config
	Signals     []models.SignalRow
	Performance models.PerformanceResult
}

// EquityCurve returns the run's cumulative return path
func (r StrategyRun) EquityCurve() EquityCurve {
	return NewEquityCurve(r.Signals, r.Performance)
}

// RunResult is the output of one pipeline invocation
type RunResult struct {
	// Indicators are the complete rows inside the configured date range
	Indicators []models.IndicatorRow
	Runs       map[string]StrategyRun
	// Order lists strategy names in configuration order
	Order []string
	// InsufficientHistory is set when no complete row falls in range
	InsufficientHistory bool
}

// Ordered returns runs in configuration order
func (r *RunResult) Ordered() []StrategyRun {
	runs := make([]StrategyRun, 0, len(r.Order))
	for _, name := range r.Order {
		runs = append(runs, r.Runs[name])
	}
	return runs
}

// Pipeline runs Engine, Generator and Evaluator for each configured strategy
type Pipeline struct {
	config PipelineConfig
}

// NewPipeline creates a pipeline after validating its configuration
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{config: cfg}, nil
}

// Config returns the pipeline configuration
func (p *Pipeline) Config() PipelineConfig {
	return p.config
}

// Run computes indicators once and evaluates every strategy on its own copy.
// Data integrity errors are returned unchanged.
func (p *Pipeline) Run(bars []models.PriceBar) (*RunResult, error) {
	rows, err := p.Indicators(bars)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Indicators:          rows,
		Runs:                make(map[string]StrategyRun, len(p.config.Strategies)),
		InsufficientHistory: len(rows) == 0,
	}

	runs := make([]StrategyRun, len(p.config.Strategies))
	errs := make([]error, len(p.config.Strategies))

	if p.config.Parallel {
		var wg sync.WaitGroup
		for i, strat := range p.config.Strategies {
			wg.Add(1)
			go func(i int, strat strategy.Config) {
				defer wg.Done()
				runs[i], errs[i] = RunStrategy(copyRows(rows), strat, p.config.Annualization)
			}(i, strat)
		}
		wg.Wait()
	} else {
		for i, strat := range p.config.Strategies {
			runs[i], errs[i] = RunStrategy(copyRows(rows), strat, p.config.Annualization)
		}
	}

	for i, strat := range p.config.Strategies {
		if errs[i] != nil {
			return nil, fmt.Errorf("strategy %s: %w", strat.Name, errs[i])
		}
		result.Runs[strat.Name] = runs[i]
		result.Order = append(result.Order, strat.Name)
	}

	return result, nil
}

// Indicators computes complete indicator rows and restricts them to the
// configured date range.
func (p *Pipeline) Indicators(bars []models.PriceBar) ([]models.IndicatorRow, error) {
	rows, err := indicator.Compute(bars, p.config.Window)
	if err != nil {
		return nil, err
	}
	return restrictToRange(rows, p.config.StartDate, p.config.EndDate), nil
}

// RunStrategy generates signals for rows and evaluates them
func RunStrategy(rows []models.IndicatorRow, strat strategy.Config, annualization float64) (StrategyRun, error) {
	signals, err := strategy.Generate(rows, strat)
	if err != nil {
		return StrategyRun{}, err
	}
	return StrategyRun{
		Strategy:    strat,
		Signals:     signals,
		Performance: Evaluate(signals, annualization),
	}, nil
}

func restrictToRange(rows []models.IndicatorRow, start, end time.Time) []models.IndicatorRow {
	if start.IsZero() && end.IsZero() {
		return rows
	}
	out := make([]models.IndicatorRow, 0, len(rows))
	for _, row := range rows {
		if !start.IsZero() && row.Date.Before(start) {
			continue
		}
		if !end.IsZero() && row.Date.After(end) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func copyRows(rows []models.IndicatorRow) []models.IndicatorRow {
	out := make([]models.IndicatorRow, len(rows))
	copy(out, rows)
	return out
}
