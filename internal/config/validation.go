package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

const dateLayout = "2006-01-02"

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("strategykind", validateStrategyKind)
	_ = v.RegisterValidation("percentilemode", validatePercentileMode)
	_ = v.RegisterValidation("datetime", validateDateTime)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateStrategyKind(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "zscore", "combined":
		return true
	default:
		return false
	}
}

func validatePercentileMode(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "static", "expanding", "rolling":
		return true
	default:
		return false
	}
}

// validateDateTime accepts YYYY-MM-DD dates
func validateDateTime(fl validator.FieldLevel) bool {
	_, err := time.Parse(dateLayout, fl.Field().String())
	return err == nil
}

func validateCrossField(cfg *Config) error {
	bt := cfg.Backtest
	if bt.StartDate != "" && bt.EndDate != "" {
		start, err := time.Parse(dateLayout, bt.StartDate)
		if err != nil {
			return fmt.Errorf("invalid backtest start_date format: %w", err)
		}
		end, err := time.Parse(dateLayout, bt.EndDate)
		if err != nil {
			return fmt.Errorf("invalid backtest end_date format: %w", err)
		}
		if start.After(end) {
			return fmt.Errorf("backtest start_date must not be after end_date")
		}
	}

	seen := make(map[string]bool, len(bt.Strategies))
	for _, s := range bt.Strategies {
		if seen[s.Name] {
			return fmt.Errorf("duplicate strategy name %q", s.Name)
		}
		seen[s.Name] = true

		if s.PercentileMode == "rolling" && s.PercentileLookback < 1 {
			return fmt.Errorf("strategy %q: percentile_lookback is required for rolling mode", s.Name)
		}
		if s.ZThresholdLow != nil && s.ZThresholdHigh != nil && *s.ZThresholdLow >= *s.ZThresholdHigh {
			return fmt.Errorf("strategy %q: z_threshold_low must be below z_threshold_high", s.Name)
		}
	}

	wf := bt.WalkForward
	if (wf.TrainDays > 0) != (wf.TestDays > 0) {
		return fmt.Errorf("walk_forward requires both train_days and test_days")
	}

	if cfg.Schedule.DailySync != "" {
		parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
		if _, err := parser.Parse(cfg.Schedule.DailySync); err != nil {
			return fmt.Errorf("invalid schedule.daily_sync: %w", err)
		}
	}

	if cfg.IsProduction() {
		if cfg.Database.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
		if cfg.MarketData.APIKey == "" && cfg.Secrets.AWSSecretName == "" {
			return fmt.Errorf("production environment requires a market data API key or an AWS secret")
		}
	}

	if cfg.Database.MaxIdleConnections > cfg.Database.MaxConnections {
		return fmt.Errorf("max_idle_connections cannot exceed max_connections")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var b strings.Builder
	for _, fieldError := range validationErrors {
		field := fieldError.StructNamespace()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			fmt.Fprintf(&b, "- Field '%s' is required\n", field)
		case "url":
			fmt.Fprintf(&b, "- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			fmt.Fprintf(&b, "- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			fmt.Fprintf(&b, "- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			fmt.Fprintf(&b, "- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			fmt.Fprintf(&b, "- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "strategykind":
			fmt.Fprintf(&b, "- Field '%s' must be one of: zscore, combined, got '%v'\n", field, value)
		case "percentilemode":
			fmt.Fprintf(&b, "- Field '%s' must be one of: static, expanding, rolling, got '%v'\n", field, value)
		case "datetime":
			fmt.Fprintf(&b, "- Field '%s' must be a YYYY-MM-DD date, got '%v'\n", field, value)
		case "oneof":
			fmt.Fprintf(&b, "- Field '%s' has invalid value '%v'\n", field, value)
		default:
			fmt.Fprintf(&b, "- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", b.String())
}
