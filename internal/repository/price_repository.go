package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/yourusername/aurum/internal/database"
	"github.com/yourusername/aurum/internal/models"
)

// PostgresPriceRepository implements PriceRepository for PostgreSQL
type PostgresPriceRepository struct {
	db *database.DB
}

// NewPostgresPriceRepository creates a new price repository
func NewPostgresPriceRepository(db *database.DB) PriceRepository {
	return &PostgresPriceRepository{db: db}
}

// UpsertBars bulk loads bars through COPY into a staging table and merges
// them by (symbol, date). Re-ingesting a date overwrites the stored bar.
func (r *PostgresPriceRepository) UpsertBars(ctx context.Context, symbol, source string, bars []models.PriceBar) (int64, error) {
	if len(bars) == 0 {
		return 0, nil
	}

	var affected int64
	err := r.db.WithTransaction(ctx, func(txCtx context.Context) error {
		tx, _ := database.TxFromContext(txCtx)

		if _, err := tx.Exec(txCtx, `
			CREATE TEMP TABLE price_bars_staging (LIKE price_bars INCLUDING DEFAULTS) ON COMMIT DROP
		`); err != nil {
			return fmt.Errorf("failed to create staging table: %w", err)
		}

		columns := []string{"symbol", "date", "open", "high", "low", "close", "source"}
		rowSrc := pgx.CopyFromSlice(len(bars), func(i int) ([]any, error) {
			b := bars[i]
			return []any{symbol, b.Date, b.Open, b.High, b.Low, b.Close, source}, nil
		})
		count, err := tx.CopyFrom(txCtx, pgx.Identifier{"price_bars_staging"}, columns, rowSrc)
		if err != nil {
			return fmt.Errorf("failed to copy price bars: %w", err)
		}
		if count != int64(len(bars)) {
			return fmt.Errorf("copied %d rows, expected %d", count, len(bars))
		}

		tag, err := tx.Exec(txCtx, `
			INSERT INTO price_bars (symbol, date, open, high, low, close, source, ingested_at)
			SELECT symbol, date, open, high, low, close, source, NOW() FROM price_bars_staging
			ON CONFLICT (symbol, date) DO UPDATE SET
				open = EXCLUDED.open,
				high = EXCLUDED.high,
				low = EXCLUDED.low,
				close = EXCLUDED.close,
				source = EXCLUDED.source,
				ingested_at = EXCLUDED.ingested_at
		`)
		if err != nil {
			return fmt.Errorf("failed to merge price bars: %w", err)
		}
		affected = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return 0, err
	}
	return affected, nil
}

// GetByDateRange retrieves bars for a symbol in ascending date order
func (r *PostgresPriceRepository) GetByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	query := `
		SELECT date, open, high, low, close
		FROM price_bars
		WHERE symbol = $1
			AND ($2::date IS NULL OR date >= $2)
			AND ($3::date IS NULL OR date <= $3)
		ORDER BY date ASC
	`

	rows, err := r.db.Query(ctx, query, symbol, rangeArg(start), rangeArg(end))
	if err != nil {
		return nil, fmt.Errorf("failed to query price bars: %w", err)
	}
	defer rows.Close()

	var bars []models.PriceBar
	for rows.Next() {
		var b models.PriceBar
		if err := rows.Scan(&b.Date, &b.Open, &b.High, &b.Low, &b.Close); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// GetLatestDate returns the most recent stored date for a symbol
func (r *PostgresPriceRepository) GetLatestDate(ctx context.Context, symbol string) (time.Time, error) {
	var latest *time.Time
	err := r.db.QueryRow(ctx, `SELECT MAX(date) FROM price_bars WHERE symbol = $1`, symbol).Scan(&latest)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, models.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("failed to query latest price date: %w", err)
	}
	if latest == nil {
		return time.Time{}, models.ErrNotFound
	}
	return *latest, nil
}

// Count returns the number of stored bars for a symbol
func (r *PostgresPriceRepository) Count(ctx context.Context, symbol string) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM price_bars WHERE symbol = $1`, symbol).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count price bars: %w", err)
	}
	return count, nil
}

// DeleteBefore removes bars dated strictly before cutoff
func (r *PostgresPriceRepository) DeleteBefore(ctx context.Context, symbol string, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM price_bars WHERE symbol = $1 AND date < $2`, symbol, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete price bars: %w", err)
	}
	return tag.RowsAffected(), nil
}
