package datasource

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/aurum/internal/config"
)

// SourceType represents the type of data source
type SourceType string

// AlphaVantageSourceType is the Alpha Vantage daily series provider
const AlphaVantageSourceType SourceType = "alphavantage"

// Factory creates PriceSource implementations based on configuration
type Factory struct {
	logger *logrus.Logger
	config *config.MarketDataConfig
}

// NewFactory creates a new data source factory
func NewFactory(cfg *config.MarketDataConfig, logger *logrus.Logger) *Factory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Factory{
		logger: logger,
		config: cfg,
	}
}

// HTTPClientConfigFrom derives client settings from market data configuration
func HTTPClientConfigFrom(cfg *config.MarketDataConfig) HTTPClientConfig {
	httpCfg := DefaultHTTPClientConfig()
	if cfg.TimeoutSeconds > 0 {
		httpCfg.Timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	httpCfg.MaxRetries = cfg.RetryAttempts
	if cfg.RequestsPerMin > 0 {
		httpCfg.RateLimit = float64(cfg.RequestsPerMin) / 60.0
	}
	return httpCfg
}

// NewPriceSource creates the configured source, wrapped in a cache when a TTL is set
func (f *Factory) NewPriceSource(httpClient *RateLimitedHTTPClient) (PriceSource, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("HTTP client is required")
	}

	var source PriceSource
	switch SourceType(f.config.Provider) {
	case AlphaVantageSourceType:
		if f.config.APIKey == "" {
			f.logger.Warn("Alpha Vantage API key is empty; requests will be rejected")
		}
		source = NewAlphaVantageClient(httpClient, f.config.BaseURL, f.config.APIKey, f.config.OutputSize, f.logger)
	default:
		return nil, fmt.Errorf("unknown data source: %s", f.config.Provider)
	}

	if f.config.CacheTTLSeconds > 0 {
		source = NewCachedSource(source, time.Duration(f.config.CacheTTLSeconds)*time.Second)
	}

	f.logger.WithField("source", source.Name()).Info("Created price source")
	return source, nil
}
