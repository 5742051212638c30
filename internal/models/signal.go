package models

import "fmt"

// Signal is a discrete position: sell, flat or buy
type Signal int8

// Signal values
const (
	SignalSell Signal = -1
	SignalFlat Signal = 0
	SignalBuy  Signal = 1
)

// String returns the signal name
func (s Signal) String() string {
	switch s {
	case SignalSell:
		return "sell"
	case SignalFlat:
		return "flat"
	case SignalBuy:
		return "buy"
	default:
		return fmt.Sprintf("signal(%d)", int8(s))
	}
}

// Valid reports whether the signal is one of -1, 0, +1
func (s Signal) Valid() bool {
	return s >= SignalSell && s <= SignalBuy
}

// SignalRow is an IndicatorRow with the position chosen by one strategy
type SignalRow struct {
	IndicatorRow
	Signal Signal `db:"signal" json:"signal"`
	// Rule is the name of the rule that fired; empty when no rule matched
	Rule string `db:"rule" json:"rule,omitempty"`
}
