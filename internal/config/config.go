// Package config provides configuration management for the Aurum application.
package config

import (
	"fmt"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	MarketData MarketDataConfig `mapstructure:"market_data" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// MarketDataConfig represents the daily price provider configuration
type MarketDataConfig struct {
	Provider        string `mapstructure:"provider" validate:"required,oneof=alphavantage"`
	BaseURL         string `mapstructure:"base_url" validate:"required,url"`
	APIKey          string `mapstructure:"api_key"`
	Symbol          string `mapstructure:"symbol" validate:"required"`
	OutputSize      string `mapstructure:"output_size" validate:"required,oneof=compact full"`
	HistoryStart    string `mapstructure:"history_start" validate:"omitempty,datetime"`
	RequestsPerMin  int    `mapstructure:"requests_per_minute" validate:"required,gt=0"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds" validate:"required,gt=0"`
	RetryAttempts   int    `mapstructure:"retry_attempts" validate:"gte=0"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"gte=0"`
}

// BacktestConfig represents the indicator and backtest pipeline configuration
type BacktestConfig struct {
	Window               int               `mapstructure:"window" validate:"required,gt=0"`
	AnnualizationFactor  float64           `mapstructure:"annualization_factor" validate:"required,gt=0"`
	StartDate            string            `mapstructure:"start_date" validate:"omitempty,datetime"`
	EndDate              string            `mapstructure:"end_date" validate:"omitempty,datetime"`
	Parallel             bool              `mapstructure:"parallel"`
	PersistIndicators    bool              `mapstructure:"persist_indicators"`
	PersistResults       bool              `mapstructure:"persist_results"`
	OutputPath           string            `mapstructure:"output_path"`
	MonteCarloIterations int               `mapstructure:"monte_carlo_iterations" validate:"gte=0"`
	MonteCarloSeed       int64             `mapstructure:"monte_carlo_seed"`
	WalkForward          WalkForwardConfig `mapstructure:"walk_forward"`
	Strategies           []StrategyConfig  `mapstructure:"strategies" validate:"required,min=1,dive"`
}

// StrategyConfig represents one configured strategy variant.
// Unset thresholds fall back to the strategy defaults.
type StrategyConfig struct {
	Name               string   `mapstructure:"name" validate:"required"`
	Kind               string   `mapstructure:"kind" validate:"required,strategykind"`
	ZThresholdLow      *float64 `mapstructure:"z_threshold_low"`
	ZThresholdHigh     *float64 `mapstructure:"z_threshold_high"`
	VolPercentile      *float64 `mapstructure:"vol_percentile" validate:"omitempty,gte=0,lte=1"`
	RangePercentile    *float64 `mapstructure:"range_percentile" validate:"omitempty,gte=0,lte=1"`
	PercentileMode     string   `mapstructure:"percentile_mode" validate:"omitempty,percentilemode"`
	PercentileLookback int      `mapstructure:"percentile_lookback" validate:"gte=0"`
}

// WalkForwardConfig represents walk-forward window sizes in trading days
type WalkForwardConfig struct {
	TrainDays int `mapstructure:"train_days" validate:"gte=0"`
	TestDays  int `mapstructure:"test_days" validate:"gte=0"`
	StepDays  int `mapstructure:"step_days" validate:"gte=0"`
}

// ScheduleConfig represents cron schedules for the ingestion service
type ScheduleConfig struct {
	DailySync   string `mapstructure:"daily_sync"`
	DailyReport string `mapstructure:"daily_report"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Port       int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Path       string `mapstructure:"path"`
	HealthPort int    `mapstructure:"health_port" validate:"omitempty,min=1,max=65535"`
}

// SecretsConfig selects an AWS Secrets Manager overlay
type SecretsConfig struct {
	AWSSecretName string `mapstructure:"aws_secret_name"`
	AWSRegion     string `mapstructure:"aws_region"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}
