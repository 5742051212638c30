package database

import (
	"context"
	"fmt"

	"github.com/yourusername/aurum/internal/config"
)

// schema is applied idempotently at startup
var schema = []string{
	`CREATE TABLE IF NOT EXISTS price_bars (
		symbol      TEXT             NOT NULL,
		date        DATE             NOT NULL,
		open        DOUBLE PRECISION NOT NULL,
		high        DOUBLE PRECISION NOT NULL,
		low         DOUBLE PRECISION NOT NULL,
		close       DOUBLE PRECISION NOT NULL,
		source      TEXT             NOT NULL DEFAULT '',
		ingested_at TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (symbol, date)
	)`,
	`CREATE TABLE IF NOT EXISTS indicator_rows (
		symbol      TEXT             NOT NULL,
		date        DATE             NOT NULL,
		window_size INTEGER          NOT NULL,
		open        DOUBLE PRECISION NOT NULL,
		high        DOUBLE PRECISION NOT NULL,
		low         DOUBLE PRECISION NOT NULL,
		close       DOUBLE PRECISION NOT NULL,
		log_return  DOUBLE PRECISION,
		volatility  DOUBLE PRECISION,
		daily_range DOUBLE PRECISION NOT NULL,
		sma         DOUBLE PRECISION,
		z_score     DOUBLE PRECISION,
		PRIMARY KEY (symbol, window_size, date)
	)`,
	`CREATE TABLE IF NOT EXISTS backtest_results (
		id              UUID PRIMARY KEY,
		strategy_id     UUID             NOT NULL,
		strategy_name   TEXT             NOT NULL,
		symbol          TEXT             NOT NULL,
		run_date        TIMESTAMPTZ      NOT NULL,
		start_date      DATE,
		end_date        DATE,
		window_size     INTEGER          NOT NULL,
		periods         INTEGER          NOT NULL,
		sharpe_ratio    DOUBLE PRECISION,
		max_drawdown    DOUBLE PRECISION,
		total_return    DOUBLE PRECISION,
		method          TEXT             NOT NULL,
		composite_score DOUBLE PRECISION NOT NULL,
		recommendation  TEXT             NOT NULL,
		parameters      JSONB,
		full_results    JSONB,
		created_at      TIMESTAMPTZ      NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_backtest_results_strategy ON backtest_results (strategy_name, run_date DESC)`,
}

// Initialize creates a database connection pool and ensures the schema exists
func Initialize(ctx context.Context, cfg *config.Config) (*DB, error) {
	db, err := NewDB(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// EnsureSchema creates missing tables and indexes
func (db *DB) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
