package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/aurum/internal/models"
)

// PriceRepository defines the interface for daily bar storage.
// A zero start or end leaves that side of a range unbounded.
type PriceRepository interface {
	UpsertBars(ctx context.Context, symbol, source string, bars []models.PriceBar) (int64, error)
	GetByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error)
	GetLatestDate(ctx context.Context, symbol string) (time.Time, error)
	Count(ctx context.Context, symbol string) (int64, error)
	DeleteBefore(ctx context.Context, symbol string, cutoff time.Time) (int64, error)
}

// IndicatorRepository defines the interface for computed indicator rows
type IndicatorRepository interface {
	UpsertRows(ctx context.Context, symbol string, rows []models.IndicatorRow) (int64, error)
	GetByDateRange(ctx context.Context, symbol string, window int, start, end time.Time) ([]models.IndicatorRow, error)
}

// BacktestResultRepository defines backtest result persistence
type BacktestResultRepository interface {
	SaveResult(ctx context.Context, result *models.BacktestResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error)
	GetByStrategyName(ctx context.Context, name string, limit int) ([]*models.BacktestResult, error)
	GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error)
	GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.BacktestResult, error)
	GetTopPerforming(ctx context.Context, limit int) ([]*models.BacktestResult, error)
}
