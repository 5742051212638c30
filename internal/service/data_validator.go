package service

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/aurum/internal/models"
)

// DataValidator validates daily bars before they are stored
type DataValidator struct {
	validate *validator.Validate
	logger   *logrus.Logger
	now      func() time.Time
}

// RejectedBar is a bar dropped by validation with its reasons
type RejectedBar struct {
	Bar    models.PriceBar
	Errors []string
}

// NewDataValidator creates a new data validator
func NewDataValidator(logger *logrus.Logger) *DataValidator {
	if logger == nil {
		logger = logrus.New()
	}
	return &DataValidator{
		validate: validator.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// ValidateBar validates a bar for required fields and the OHLC envelope
func (v *DataValidator) ValidateBar(bar models.PriceBar) []string {
	var errors []string

	fields := []struct {
		name  string
		value float64
	}{{"open", bar.Open}, {"high", bar.High}, {"low", bar.Low}, {"close", bar.Close}}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			errors = append(errors, fmt.Sprintf("%s must be finite, got %v", f.name, f.value))
		}
	}
	if len(errors) > 0 {
		return errors
	}

	if err := v.validate.Struct(bar); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				errors = append(errors, fmt.Sprintf("%s failed '%s' (value %v)", fe.Field(), fe.Tag(), fe.Value()))
			}
		} else {
			errors = append(errors, err.Error())
		}
		return errors
	}

	if bar.High < math.Max(bar.Open, bar.Close) {
		errors = append(errors, fmt.Sprintf("high %v below max(open, close)", bar.High))
	}
	if bar.Low > math.Min(bar.Open, bar.Close) {
		errors = append(errors, fmt.Sprintf("low %v above min(open, close)", bar.Low))
	}
	if bar.Date.After(v.now().Add(24 * time.Hour)) {
		errors = append(errors, fmt.Sprintf("date %s is in the future", bar.DateString()))
	}

	return errors
}

// ValidateSeries splits bars into valid and rejected ones. Input order is kept.
func (v *DataValidator) ValidateSeries(bars []models.PriceBar) ([]models.PriceBar, []RejectedBar) {
	valid := make([]models.PriceBar, 0, len(bars))
	var rejected []RejectedBar

	for _, bar := range bars {
		if errs := v.ValidateBar(bar); len(errs) > 0 {
			rejected = append(rejected, RejectedBar{Bar: bar, Errors: errs})
			continue
		}
		valid = append(valid, bar)
	}

	if len(rejected) > 0 {
		v.logger.WithFields(logrus.Fields{
			"rejected": len(rejected),
			"total":    len(bars),
		}).Warn("Bars failed validation")
	}
	return valid, rejected
}
