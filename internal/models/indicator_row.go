package models

import (
	"github.com/moznion/go-optional"
)

// IndicatorRow is a PriceBar extended with rolling statistics.
//
// Window-dependent fields are optional: they are None during the warm-up
// period. ZScore is additionally None whenever volatility is zero.
type IndicatorRow struct {
	PriceBar
	Window     int                      `db:"window_size" json:"window"`
	LogReturn  optional.Option[float64] `db:"log_return" json:"log_return"`
	Volatility optional.Option[float64] `db:"volatility" json:"volatility"`
	DailyRange float64                  `db:"daily_range" json:"daily_range"`
	SMA        optional.Option[float64] `db:"sma" json:"sma"`
	ZScore     optional.Option[float64] `db:"z_score" json:"z_score"`
}

// Complete reports whether every window-dependent field is defined.
// ZScore is not part of completeness; it may be undefined on a complete row.
func (r IndicatorRow) Complete() bool {
	return r.LogReturn.IsSome() && r.Volatility.IsSome() && r.SMA.IsSome()
}

// Field returns the named indicator value. Unknown names are None.
func (r IndicatorRow) Field(name IndicatorField) optional.Option[float64] {
	switch name {
	case FieldZScore:
		return r.ZScore
	case FieldVolatility:
		return r.Volatility
	case FieldDailyRange:
		return optional.Some(r.DailyRange)
	case FieldLogReturn:
		return r.LogReturn
	case FieldSMA:
		return r.SMA
	case FieldClose:
		return optional.Some(r.Close)
	default:
		return optional.None[float64]()
	}
}

// IndicatorField names a column of an IndicatorRow that rules can test
type IndicatorField string

// Indicator fields
const (
	FieldZScore     IndicatorField = "z_score"
	FieldVolatility IndicatorField = "volatility"
	FieldDailyRange IndicatorField = "daily_range"
	FieldLogReturn  IndicatorField = "log_return"
	FieldSMA        IndicatorField = "sma"
	FieldClose      IndicatorField = "close"
)

// Valid reports whether the field is a known indicator column
func (f IndicatorField) Valid() bool {
	switch f {
	case FieldZScore, FieldVolatility, FieldDailyRange, FieldLogReturn, FieldSMA, FieldClose:
		return true
	default:
		return false
	}
}
