package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BacktestResult represents a persisted strategy run
type BacktestResult struct {
	ID             uuid.UUID       `db:"id" json:"id"`
	StrategyID     uuid.UUID       `db:"strategy_id" json:"strategy_id"`
	StrategyName   string          `db:"strategy_name" json:"strategy_name"`
	Symbol         string          `db:"symbol" json:"symbol"`
	RunDate        time.Time       `db:"run_date" json:"run_date"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        time.Time       `db:"end_date" json:"end_date"`
	Window         int             `db:"window_size" json:"window"`
	Periods        int             `db:"periods" json:"periods"`
	SharpeRatio    *float64        `db:"sharpe_ratio" json:"sharpe_ratio"`
	MaxDrawdown    *float64        `db:"max_drawdown" json:"max_drawdown"`
	TotalReturn    *float64        `db:"total_return" json:"total_return"`
	Method         string          `db:"method" json:"method"`
	CompositeScore float64         `db:"composite_score" json:"composite_score"`
	Recommendation string          `db:"recommendation" json:"recommendation"`
	Parameters     json.RawMessage `db:"parameters" json:"parameters"`
	FullResults    json.RawMessage `db:"full_results" json:"full_results"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
}
