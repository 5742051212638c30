package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/aurum/internal/datasource"
	"github.com/yourusername/aurum/internal/logger"
	"github.com/yourusername/aurum/internal/metrics"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/internal/repository"
)

// IngestionConfig configures a sync run
type IngestionConfig struct {
	Symbol string
	// HistoryStart drops and prunes bars dated before it. Zero keeps all history.
	HistoryStart time.Time
}

// IngestionService fetches daily bars and stores them
type IngestionService struct {
	source     datasource.PriceSource
	priceRepo  repository.PriceRepository
	validator  *DataValidator
	normalizer *DataNormalizer
	logger     *logger.IngestionLogger
	config     IngestionConfig
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(
	source datasource.PriceSource,
	priceRepo repository.PriceRepository,
	validator *DataValidator,
	normalizer *DataNormalizer,
	log *logrus.Logger,
	cfg IngestionConfig,
) (*IngestionService, error) {
	if source == nil {
		return nil, fmt.Errorf("price source is required")
	}
	if priceRepo == nil {
		return nil, fmt.Errorf("price repository is required")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", models.ErrInvalidConfig)
	}
	if log == nil {
		log = logrus.New()
	}
	if validator == nil {
		validator = NewDataValidator(log)
	}
	if normalizer == nil {
		normalizer = NewDataNormalizer(log)
	}

	return &IngestionService{
		source:     source,
		priceRepo:  priceRepo,
		validator:  validator,
		normalizer: normalizer,
		logger:     logger.NewIngestionLogger(log),
		config:     cfg,
	}, nil
}

// Sync fetches the full daily series, stores valid bars and prunes history
// before the configured cutoff.
func (s *IngestionService) Sync(ctx context.Context) (*IngestionMetrics, error) {
	symbol := s.normalizer.NormalizeSymbol(s.config.Symbol)
	stats := NewIngestionMetrics(s.source.Name(), symbol)

	bars, err := s.source.FetchDaily(ctx, s.config.Symbol)
	if err != nil {
		return s.fail(stats, fmt.Errorf("failed to fetch bars: %w", err))
	}
	stats.Fetched = len(bars)

	bars = s.normalizer.FilterFrom(s.normalizer.NormalizeBars(bars), s.config.HistoryStart)

	valid, rejected := s.validator.ValidateSeries(bars)
	stats.Rejected = len(rejected)
	for _, r := range rejected {
		s.logger.LogBarRejected(symbol, r.Bar.Date, r.Errors[0])
	}

	if len(valid) > 0 {
		stored, err := s.priceRepo.UpsertBars(ctx, symbol, s.source.Name(), valid)
		if err != nil {
			return s.fail(stats, fmt.Errorf("failed to store bars: %w", err))
		}
		stats.Stored = int(stored)
		stats.Latest = valid[len(valid)-1].Date
	}

	if !s.config.HistoryStart.IsZero() {
		pruned, err := s.priceRepo.DeleteBefore(ctx, symbol, s.config.HistoryStart)
		if err != nil {
			return s.fail(stats, fmt.Errorf("failed to prune history: %w", err))
		}
		stats.Pruned = pruned
		if pruned > 0 {
			s.logger.LogHistoryPruned(symbol, s.config.HistoryStart, pruned)
		}
	}

	stats.Finish()
	metrics.RecordBarsIngested(symbol, stats.Stored, stats.Rejected)
	metrics.RecordIngestionRun(stats.Source, "success", stats.Duration.Seconds())
	if !stats.Latest.IsZero() {
		metrics.UpdateLatestBar(symbol, float64(stats.Latest.Unix()))
	}
	s.logger.LogBarsIngested(stats.Source, symbol, stats.Fetched, stats.Stored, stats.Rejected, stats.Duration)

	return stats, nil
}

func (s *IngestionService) fail(stats *IngestionMetrics, err error) (*IngestionMetrics, error) {
	stats.Finish()
	code := datasource.ErrorCode(err)
	metrics.RecordDataSourceError(stats.Source, code)
	metrics.RecordIngestionRun(stats.Source, "failure", stats.Duration.Seconds())
	s.logger.LogSourceError(stats.Source, stats.Symbol, code, err)
	return stats, err
}
