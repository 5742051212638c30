package config

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "config/config.yaml"
	envPrefix         = "AURUM"
)

// Load reads and parses the configuration from file and environment variables
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// A missing file is not an error; defaults and environment variables still apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = defaultConfigPath
	}

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := v.ReadConfig(bytes.NewBufferString(os.ExpandEnv(string(data)))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	// backtest.window is read from AURUM_BACKTEST_WINDOW
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "aurum")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "aurum")
	v.SetDefault("database.user", "aurum")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.max_idle_connections", 2)

	v.SetDefault("market_data.provider", "alphavantage")
	v.SetDefault("market_data.base_url", "https://www.alphavantage.co")
	v.SetDefault("market_data.symbol", "XAUUSD")
	v.SetDefault("market_data.output_size", "full")
	v.SetDefault("market_data.history_start", "2020-01-01")
	v.SetDefault("market_data.requests_per_minute", 5)
	v.SetDefault("market_data.timeout_seconds", 30)
	v.SetDefault("market_data.retry_attempts", 3)
	v.SetDefault("market_data.cache_ttl_seconds", 3600)

	v.SetDefault("backtest.window", 20)
	v.SetDefault("backtest.annualization_factor", math.Sqrt(252))
	v.SetDefault("backtest.output_path", "output")
	v.SetDefault("backtest.monte_carlo_seed", 42)
	v.SetDefault("backtest.strategies", []map[string]interface{}{
		{"name": "zscore", "kind": "zscore"},
		{"name": "combined", "kind": "combined"},
	})

	v.SetDefault("schedule.daily_sync", "0 30 22 * * 1-5")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.health_port", 8080)
}
