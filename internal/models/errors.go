package models

import (
	"errors"
	"fmt"
	"time"
)

// Custom errors
var (
	ErrNotFound            = errors.New("record not found")
	ErrDataIntegrity       = errors.New("data integrity violation")
	ErrInsufficientHistory = errors.New("insufficient history")
	ErrInvalidConfig       = errors.New("invalid configuration")
)

// DataIntegrityError reports malformed price input with the offending date and value
type DataIntegrityError struct {
	Date   time.Time
	Field  string
	Value  float64
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity: %s on %s (%s=%v)", e.Reason, e.Date.Format(DateLayout), e.Field, e.Value)
}

// Unwrap allows errors.Is(err, ErrDataIntegrity)
func (e *DataIntegrityError) Unwrap() error {
	return ErrDataIntegrity
}

// NewDataIntegrityError creates a data integrity error for a bar field
func NewDataIntegrityError(date time.Time, field string, value float64, reason string) *DataIntegrityError {
	return &DataIntegrityError{Date: date, Field: field, Value: value, Reason: reason}
}
