package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/yourusername/aurum/internal/database"
	"github.com/yourusername/aurum/internal/models"
)

const (
	errScanBacktestResult = "failed to scan backtest result: %w"

	backtestResultColumns = `
		id, strategy_id, strategy_name, symbol, run_date, start_date, end_date,
		window_size, periods, sharpe_ratio, max_drawdown, total_return,
		method, composite_score, recommendation, parameters, full_results, created_at
	`
)

// PostgresBacktestResultRepository implements BacktestResultRepository for PostgreSQL
type PostgresBacktestResultRepository struct {
	db *database.DB
}

// NewPostgresBacktestResultRepository creates a new backtest result repository
func NewPostgresBacktestResultRepository(db *database.DB) BacktestResultRepository {
	return &PostgresBacktestResultRepository{db: db}
}

// SaveResult inserts a backtest result
func (r *PostgresBacktestResultRepository) SaveResult(ctx context.Context, result *models.BacktestResult) error {
	query := `INSERT INTO backtest_results (` + backtestResultColumns + `)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

	_, err := r.db.Exec(ctx, query,
		result.ID, result.StrategyID, result.StrategyName, result.Symbol, result.RunDate, result.StartDate, result.EndDate,
		result.Window, result.Periods, result.SharpeRatio, result.MaxDrawdown, result.TotalReturn,
		result.Method, result.CompositeScore, result.Recommendation, result.Parameters, result.FullResults, result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save backtest result: %w", err)
	}
	return nil
}

// GetByID retrieves a single backtest result
func (r *PostgresBacktestResultRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error) {
	query := `SELECT ` + backtestResultColumns + ` FROM backtest_results WHERE id = $1`

	result, err := scanBacktestResult(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf(errScanBacktestResult, err)
	}
	return result, nil
}

// GetByStrategyName retrieves the most recent results of one strategy
func (r *PostgresBacktestResultRepository) GetByStrategyName(ctx context.Context, name string, limit int) ([]*models.BacktestResult, error) {
	query := `SELECT ` + backtestResultColumns + `
		FROM backtest_results WHERE strategy_name = $1 ORDER BY run_date DESC LIMIT $2`
	return r.queryResults(ctx, "by strategy", query, name, limit)
}

// GetLatest retrieves latest backtest results
func (r *PostgresBacktestResultRepository) GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	query := `SELECT ` + backtestResultColumns + ` FROM backtest_results ORDER BY run_date DESC LIMIT $1`
	return r.queryResults(ctx, "latest", query, limit)
}

// GetByDateRange retrieves backtest results within a run date range
func (r *PostgresBacktestResultRepository) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.BacktestResult, error) {
	query := `SELECT ` + backtestResultColumns + `
		FROM backtest_results WHERE run_date >= $1 AND run_date <= $2 ORDER BY run_date DESC`
	return r.queryResults(ctx, "by date range", query, start, end)
}

// GetTopPerforming retrieves results with the highest composite score
func (r *PostgresBacktestResultRepository) GetTopPerforming(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	query := `SELECT ` + backtestResultColumns + `
		FROM backtest_results ORDER BY composite_score DESC, run_date DESC LIMIT $1`
	return r.queryResults(ctx, "top performing", query, limit)
}

func (r *PostgresBacktestResultRepository) queryResults(ctx context.Context, label, query string, args ...any) ([]*models.BacktestResult, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s backtest results: %w", label, err)
	}
	defer rows.Close()

	var results []*models.BacktestResult
	for rows.Next() {
		result, err := scanBacktestResult(rows)
		if err != nil {
			return nil, fmt.Errorf(errScanBacktestResult, err)
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

func scanBacktestResult(row pgx.Row) (*models.BacktestResult, error) {
	result := &models.BacktestResult{}
	err := row.Scan(
		&result.ID, &result.StrategyID, &result.StrategyName, &result.Symbol, &result.RunDate, &result.StartDate, &result.EndDate,
		&result.Window, &result.Periods, &result.SharpeRatio, &result.MaxDrawdown, &result.TotalReturn,
		&result.Method, &result.CompositeScore, &result.Recommendation, &result.Parameters, &result.FullResults, &result.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return result, nil
}
