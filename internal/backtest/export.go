package backtest

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/repository"
	"github.com/yourusername/aurum/internal/strategy"
)

// Export is the full record of one strategy run
type Export struct {
	Strategy       strategy.Metadata  `json:"strategy"`
	Summary        RunSummary         `json:"summary"`
	Metrics        map[string]any     `json:"metrics"`
	EquityCurve    EquityCurve        `json:"equity_curve"`
	WalkForward    *WalkForwardResult `json:"walk_forward,omitempty"`
	MonteCarlo     *MonteCarloResult  `json:"monte_carlo,omitempty"`
	Recommendation string             `json:"recommendation"`
	CompositeScore float64            `json:"composite_score"`
}

// RunSummary summarizes a backtest run
type RunSummary struct {
	Symbol    string    `json:"symbol"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Window    int       `json:"window"`
	Periods   int       `json:"periods"`
}

// ExportDBParams groups parameters for database export
type ExportDBParams struct {
	Symbol string
	Window int
}

// NewExport assembles the export record for a run and its aggregate
func NewExport(run StrategyRun, agg AggregatedResult, symbol string, window int) Export {
	summary := RunSummary{Symbol: symbol, Window: window, Periods: run.Performance.Periods}
	if n := len(run.Signals); n > 0 {
		summary.StartDate = run.Signals[0].Date
		summary.EndDate = run.Signals[n-1].Date
	}

	return Export{
		Strategy: run.Strategy.Metadata(),
		Summary:  summary,
		Metrics: map[string]any{
			"sharpe_annualized": run.Performance.Sharpe,
			"max_drawdown":      run.Performance.MaxDrawdown,
			"total_return":      run.Performance.TotalReturn,
		},
		EquityCurve:    run.EquityCurve(),
		WalkForward:    agg.WalkForwardResult,
		MonteCarlo:     agg.MonteCarloResult,
		Recommendation: agg.Recommendation,
		CompositeScore: agg.CompositeScore,
	}
}

// ExportToJSON writes export data to JSON file
func ExportToJSON(export Export, outputPath string) error {
	if outputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	return os.WriteFile(outputPath, data, 0o644)
}

// ToBacktestResult converts a run and its aggregate to the persisted model
func ToBacktestResult(run StrategyRun, agg AggregatedResult, params ExportDBParams) models.BacktestResult {
	export := NewExport(run, agg, params.Symbol, params.Window)
	now := time.Now().UTC()

	method := "historical"
	if agg.WalkForwardResult != nil || agg.MonteCarloResult != nil {
		method = "aggregated"
	}

	return models.BacktestResult{
		ID:             uuid.New(),
		StrategyID:     export.Strategy.ID,
		StrategyName:   run.Strategy.Name,
		Symbol:         params.Symbol,
		RunDate:        now,
		StartDate:      export.Summary.StartDate,
		EndDate:        export.Summary.EndDate,
		Window:         params.Window,
		Periods:        run.Performance.Periods,
		SharpeRatio:    optionalPtr(run.Performance.Sharpe),
		MaxDrawdown:    optionalPtr(run.Performance.MaxDrawdown),
		TotalReturn:    optionalPtr(run.Performance.TotalReturn),
		Method:         method,
		CompositeScore: agg.CompositeScore,
		Recommendation: agg.Recommendation,
		Parameters:     mustMarshalJSON(export.Strategy.Parameters),
		FullResults:    mustMarshalJSON(agg),
		CreatedAt:      now,
	}
}

// ExportToDatabase persists backtest result to database
func ExportToDatabase(ctx context.Context, run StrategyRun, agg AggregatedResult, repo repository.BacktestResultRepository, params ExportDBParams) (*models.BacktestResult, error) {
	if repo == nil {
		return nil, fmt.Errorf("backtest result repository is required")
	}
	model := ToBacktestResult(run, agg, params)
	if err := repo.SaveResult(ctx, &model); err != nil {
		return nil, err
	}
	return &model, nil
}

func optionalPtr(v optional.Option[float64]) *float64 {
	if v.IsNone() {
		return nil
	}
	val := v.Unwrap()
	return &val
}

func mustMarshalJSON(value any) json.RawMessage {
	data, _ := json.Marshal(value)
	return data
}
