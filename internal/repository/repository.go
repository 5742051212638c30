// Package repository provides PostgreSQL persistence for bars, indicators and results.
package repository

import (
	"fmt"
	"time"

	"github.com/moznion/go-optional"
	"github.com/yourusername/aurum/internal/database"
)

// Repositories holds all repository implementations
type Repositories struct {
	Price          PriceRepository
	Indicator      IndicatorRepository
	BacktestResult BacktestResultRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Price:          NewPostgresPriceRepository(db),
		Indicator:      NewPostgresIndicatorRepository(db),
		BacktestResult: NewPostgresBacktestResultRepository(db),
	}, nil
}

// nullable maps an undefined value to SQL NULL
func nullable(v optional.Option[float64]) *float64 {
	if v.IsNone() {
		return nil
	}
	val := v.Unwrap()
	return &val
}

func fromNullable(v *float64) optional.Option[float64] {
	if v == nil {
		return optional.None[float64]()
	}
	return optional.Some(*v)
}

// rangeArg turns a zero bound into NULL so queries can use COALESCE
func rangeArg(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
