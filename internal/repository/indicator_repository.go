package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/aurum/internal/database"
	"github.com/yourusername/aurum/internal/models"
)

const upsertIndicatorRow = `
	INSERT INTO indicator_rows (
		symbol, date, window_size, open, high, low, close,
		log_return, volatility, daily_range, sma, z_score
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (symbol, window_size, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		log_return = EXCLUDED.log_return,
		volatility = EXCLUDED.volatility,
		daily_range = EXCLUDED.daily_range,
		sma = EXCLUDED.sma,
		z_score = EXCLUDED.z_score
`

// PostgresIndicatorRepository implements IndicatorRepository for PostgreSQL
type PostgresIndicatorRepository struct {
	db *database.DB
}

// NewPostgresIndicatorRepository creates a new indicator repository
func NewPostgresIndicatorRepository(db *database.DB) IndicatorRepository {
	return &PostgresIndicatorRepository{db: db}
}

// UpsertRows stores computed rows in one batch. Undefined values are stored as NULL.
func (r *PostgresIndicatorRepository) UpsertRows(ctx context.Context, symbol string, rows []models.IndicatorRow) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(upsertIndicatorRow,
			symbol, row.Date, row.Window, row.Open, row.High, row.Low, row.Close,
			nullable(row.LogReturn), nullable(row.Volatility), row.DailyRange, nullable(row.SMA), nullable(row.ZScore),
		)
	}

	var affected int64
	err := r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		results := r.db.SendBatch(txCtx, batch)
		for i := range rows {
			tag, err := results.Exec()
			if err != nil {
				results.Close()
				return fmt.Errorf("failed to upsert indicator row %s: %w", rows[i].DateString(), err)
			}
			affected += tag.RowsAffected()
		}
		return results.Close()
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// GetByDateRange retrieves indicator rows for a symbol and window in ascending date order
func (r *PostgresIndicatorRepository) GetByDateRange(ctx context.Context, symbol string, window int, start, end time.Time) ([]models.IndicatorRow, error) {
	query := `
		SELECT date, window_size, open, high, low, close, log_return, volatility, daily_range, sma, z_score
		FROM indicator_rows
		WHERE symbol = $1 AND window_size = $2
			AND ($3::date IS NULL OR date >= $3)
			AND ($4::date IS NULL OR date <= $4)
		ORDER BY date ASC
	`

	rows, err := r.db.Query(ctx, query, symbol, window, rangeArg(start), rangeArg(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query indicator rows: %w", err)
	}
	defer rows.Close()

	var out []models.IndicatorRow
	for rows.Next() {
		var row models.IndicatorRow
		var logReturn, vol, sma, zScore *float64
		if err := rows.Scan(
			&row.Date, &row.Window, &row.Open, &row.High, &row.Low, &row.Close,
			&logReturn, &vol, &row.DailyRange, &sma, &zScore,
		); err != nil {
			return nil, fmt.Errorf("failed to scan indicator row: %w", err)
		}
		row.LogReturn = fromNullable(logReturn)
		row.Volatility = fromNullable(vol)
		row.SMA = fromNullable(sma)
		row.ZScore = fromNullable(zScore)
		out = append(out, row)
	}
	return out, rows.Err()
}
