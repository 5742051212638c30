package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/aurum/internal/backtest"
	"github.com/yourusername/aurum/internal/logger"
	"github.com/yourusername/aurum/internal/metrics"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/repository"
)

// BacktestOptions selects the optional stages of a backtest run
type BacktestOptions struct {
	WalkForward       bool
	MonteCarlo        bool
	PersistIndicators bool
	PersistResults    bool
}

// BacktestReport is the outcome of BacktestService.Run
type BacktestReport struct {
	Symbol      string
	Bars        int
	Result      *backtest.RunResult
	WalkForward map[string]backtest.WalkForwardResult
	MonteCarlo  map[string]backtest.MonteCarloResult
	Ranked      []backtest.AggregatedResult
	Saved       []*models.BacktestResult
	Duration    time.Duration
}

// BacktestService loads stored bars and runs the strategy pipeline over them
type BacktestService struct {
	priceRepo     repository.PriceRepository
	indicatorRepo repository.IndicatorRepository
	resultRepo    repository.BacktestResultRepository
	pipeline      *backtest.Pipeline
	symbol        string
	weights       backtest.AggregationWeights
	logger        *logger.PipelineLogger
	audit         *logger.AuditLogger
}

// NewBacktestService creates a backtest service. indicatorRepo and resultRepo
// may be nil when nothing is persisted.
func NewBacktestService(
	priceRepo repository.PriceRepository,
	indicatorRepo repository.IndicatorRepository,
	resultRepo repository.BacktestResultRepository,
	pipeline *backtest.Pipeline,
	symbol string,
	log *logrus.Logger,
) (*BacktestService, error) {
	if priceRepo == nil {
		return nil, fmt.Errorf("price repository is required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", models.ErrInvalidConfig)
	}
	if log == nil {
		log = logrus.New()
	}

	return &BacktestService{
		priceRepo:     priceRepo,
		indicatorRepo: indicatorRepo,
		resultRepo:    resultRepo,
		pipeline:      pipeline,
		symbol:        symbol,
		weights:       backtest.DefaultWeights(),
		logger:        logger.NewPipelineLogger(log),
		audit:         logger.NewAuditLogger(log),
	}, nil
}

// Run evaluates every configured strategy over the stored series.
// Bars before the configured start date are loaded for indicator warm-up.
// Insufficient history is reported on the result, not as an error.
func (s *BacktestService) Run(ctx context.Context, opts BacktestOptions) (*BacktestReport, error) {
	start := time.Now()
	cfg := s.pipeline.Config()

	bars, err := s.priceRepo.GetByDateRange(ctx, s.symbol, time.Time{}, cfg.EndDate)
	if err != nil {
		metrics.RecordPipelineRun("failure", time.Since(start).Seconds(), 0)
		return nil, fmt.Errorf("failed to load bars: %w", err)
	}

	result, err := s.pipeline.Run(bars)
	if err != nil {
		metrics.RecordPipelineRun("failure", time.Since(start).Seconds(), 0)
		return nil, err
	}

	report := &BacktestReport{Symbol: s.symbol, Bars: len(bars), Result: result}

	if result.InsufficientHistory {
		report.Duration = time.Since(start)
		s.logger.LogInsufficientHistory(s.symbol, len(bars), cfg.Window)
		metrics.RecordPipelineRun("insufficient_history", report.Duration.Seconds(), 0)
		return report, nil
	}

	for _, run := range result.Ordered() {
		buys, flats, sells := countSignals(run.Signals)
		s.logger.LogStrategyEvaluated(run.Strategy.Name, run.Performance.Periods, buys, sells,
			optionPtr(run.Performance.Sharpe), optionPtr(run.Performance.MaxDrawdown), optionPtr(run.Performance.TotalReturn))
		metrics.RecordSignals(run.Strategy.Name, buys, flats, sells)
	}
	metrics.RecordBacktestRun("historical", "success")

	if opts.WalkForward && cfg.WalkForward.Enabled() {
		report.WalkForward, err = s.pipeline.WalkForward(result.Indicators)
		if err != nil {
			metrics.RecordBacktestRun("walk_forward", "failure")
			return nil, err
		}
		for _, name := range result.Order {
			wf := report.WalkForward[name]
			s.logger.LogWalkForward(name, len(wf.Windows), wf.ConsistencyScore, wf.OverfitScore)
		}
		metrics.RecordBacktestRun("walk_forward", "success")
	}

	if opts.MonteCarlo {
		report.MonteCarlo, err = s.pipeline.MonteCarlo(ctx, result)
		switch {
		case errors.Is(err, models.ErrInsufficientHistory):
			// too few periods to resample; ranking proceeds without it
			report.MonteCarlo = nil
			metrics.RecordBacktestRun("monte_carlo", "insufficient_history")
		case err != nil:
			metrics.RecordBacktestRun("monte_carlo", "failure")
			return nil, err
		default:
			for _, name := range result.Order {
				mc := report.MonteCarlo[name]
				s.logger.LogMonteCarlo(name, mc.Iterations, mc.MeanReturn, mc.VaR95, mc.ProbabilityOfProfit)
			}
			metrics.RecordBacktestRun("monte_carlo", "success")
		}
	}

	report.Ranked = backtest.RankStrategies(result, report.MonteCarlo, report.WalkForward, s.weights)
	for i, agg := range report.Ranked {
		s.logger.LogStrategyRanked(agg.Strategy, i+1, agg.CompositeScore, agg.Recommendation)
		metrics.RecordRecommendation(agg.Strategy, agg.Recommendation)
		metrics.UpdateStrategyPerformance(agg.Strategy,
			optionPtr(agg.Sharpe), optionPtr(agg.TotalReturn), optionPtr(agg.MaxDrawdown), agg.CompositeScore)
	}

	if opts.PersistIndicators {
		if err := s.persistIndicators(ctx, result.Indicators); err != nil {
			return nil, err
		}
	}
	if opts.PersistResults {
		if report.Saved, err = s.persistResults(ctx, result, report.Ranked); err != nil {
			return nil, err
		}
	}

	report.Duration = time.Since(start)
	s.logger.LogPipelineRun(s.symbol, len(bars), len(result.Indicators), len(result.Order), report.Duration)
	metrics.RecordPipelineRun("success", report.Duration.Seconds(), len(result.Indicators))

	return report, nil
}

func (s *BacktestService) persistIndicators(ctx context.Context, rows []models.IndicatorRow) error {
	if s.indicatorRepo == nil {
		return fmt.Errorf("indicator repository is required to persist indicators")
	}
	if _, err := s.indicatorRepo.UpsertRows(ctx, s.symbol, rows); err != nil {
		return fmt.Errorf("failed to persist indicators: %w", err)
	}
	return nil
}

func (s *BacktestService) persistResults(ctx context.Context, result *backtest.RunResult, ranked []backtest.AggregatedResult) ([]*models.BacktestResult, error) {
	if s.resultRepo == nil {
		return nil, fmt.Errorf("backtest result repository is required to persist results")
	}

	params := backtest.ExportDBParams{Symbol: s.symbol, Window: s.pipeline.Config().Window}
	saved := make([]*models.BacktestResult, 0, len(ranked))
	for _, agg := range ranked {
		model, err := backtest.ExportToDatabase(ctx, result.Runs[agg.Strategy], agg, s.resultRepo, params)
		if err != nil {
			return nil, fmt.Errorf("failed to save result for %s: %w", agg.Strategy, err)
		}
		s.audit.LogBacktestResultSaved(model.ID.String(), model.StrategyID.String(), model.StrategyName, model.Method, model.Recommendation)
		saved = append(saved, model)
	}
	return saved, nil
}

func countSignals(rows []models.SignalRow) (buys, flats, sells int) {
	for _, row := range rows {
		switch row.Signal {
		case models.SignalBuy:
			buys++
		case models.SignalSell:
			sells++
		default:
			flats++
		}
	}
	return buys, flats, sells
}

func optionPtr(v optional.Option[float64]) *float64 {
	if v.IsNone() {
		return nil
	}
	val := v.Unwrap()
	return &val
}
