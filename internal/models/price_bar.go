package models

import "time"

// DateLayout is the calendar-date format used for bars, config and storage keys
const DateLayout = "2006-01-02"

// PriceBar represents one trading day's OHLC record for an instrument
type PriceBar struct {
	Date  time.Time `db:"date" json:"date" validate:"required"`
	Open  float64   `db:"open" json:"open" validate:"gt=0"`
	High  float64   `db:"high" json:"high" validate:"gt=0"`
	Low   float64   `db:"low" json:"low" validate:"gt=0"`
	Close float64   `db:"close" json:"close" validate:"gt=0"`
}

// DailyRange returns high minus low
func (b PriceBar) DailyRange() float64 {
	return b.High - b.Low
}

// DateString returns the bar date formatted as YYYY-MM-DD
func (b PriceBar) DateString() string {
	return b.Date.Format(DateLayout)
}
