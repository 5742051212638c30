package datasource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/yourusername/aurum/internal/models"
)

const (
	alphaVantageName   = "alphavantage"
	dailySeriesKey     = "Time Series (Daily)"
	maxErrorBodyLength = 512
)

// AlphaVantageClient implements PriceSource for the Alpha Vantage TIME_SERIES_DAILY endpoint
type AlphaVantageClient struct {
	httpClient *RateLimitedHTTPClient
	baseURL    string
	apiKey     string
	outputSize string
	logger     *logrus.Logger
}

// alphaVantageBar is one entry of the daily series; prices arrive as strings
type alphaVantageBar struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

type alphaVantageResponse struct {
	Series       map[string]alphaVantageBar `json:"Time Series (Daily)"`
	ErrorMessage string                     `json:"Error Message"`
	Note         string                     `json:"Note"`
	Information  string                     `json:"Information"`
}

// NewAlphaVantageClient creates a new Alpha Vantage client. outputSize is
// "compact" (latest 100 days) or "full".
func NewAlphaVantageClient(httpClient *RateLimitedHTTPClient, baseURL, apiKey, outputSize string, logger *logrus.Logger) *AlphaVantageClient {
	if outputSize == "" {
		outputSize = "compact"
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &AlphaVantageClient{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		outputSize: outputSize,
		logger:     logger,
	}
}

// Name returns the name of the data source
func (c *AlphaVantageClient) Name() string {
	return alphaVantageName
}

// FetchDaily retrieves the daily series for symbol
func (c *AlphaVantageClient) FetchDaily(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	params := url.Values{}
	params.Set("function", "TIME_SERIES_DAILY")
	params.Set("symbol", symbol)
	params.Set("outputsize", c.outputSize)
	params.Set("datatype", "json")
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return nil, NewDataSourceError(alphaVantageName, ErrCodeNetworkError, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, NewDataSourceError(alphaVantageName, ErrCodeNetworkError, "failed to fetch daily series", c.redact(ctx, err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, NewDataSourceError(alphaVantageName, ErrCodeAuthenticationFailed, "invalid API key", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(alphaVantageName, ErrCodeRateLimitExceeded, "rate limit exceeded", nil)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return nil, NewDataSourceError(alphaVantageName, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body)), nil)
	}

	var payload alphaVantageResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, NewDataSourceError(alphaVantageName, ErrCodeInvalidData, "failed to parse response", err)
	}

	if err := payloadError(payload); err != nil {
		return nil, err
	}

	bars, err := parseDailySeries(payload.Series)
	if err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{
		"source":      alphaVantageName,
		"symbol":      symbol,
		"bars":        len(bars),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Fetched daily series")

	return bars, nil
}

// payloadError maps the provider's in-body error messages to error codes.
// The API answers 200 for throttling and bad requests.
func payloadError(payload alphaVantageResponse) error {
	switch {
	case payload.ErrorMessage != "":
		return NewDataSourceError(alphaVantageName, ErrCodeNotFound, payload.ErrorMessage, nil)
	case payload.Note != "":
		return NewDataSourceError(alphaVantageName, ErrCodeRateLimitExceeded, payload.Note, nil)
	case payload.Information != "":
		lower := strings.ToLower(payload.Information)
		if strings.Contains(lower, "rate limit") || strings.Contains(lower, "requests per") {
			return NewDataSourceError(alphaVantageName, ErrCodeRateLimitExceeded, payload.Information, nil)
		}
		return NewDataSourceError(alphaVantageName, ErrCodeAuthenticationFailed, payload.Information, nil)
	case payload.Series == nil:
		return NewDataSourceError(alphaVantageName, ErrCodeInvalidData, "response has no "+dailySeriesKey, nil)
	}
	return nil
}

func parseDailySeries(series map[string]alphaVantageBar) ([]models.PriceBar, error) {
	bars := make([]models.PriceBar, 0, len(series))
	for day, raw := range series {
		date, err := time.Parse(models.DateLayout, day)
		if err != nil {
			return nil, NewDataSourceError(alphaVantageName, ErrCodeInvalidData, fmt.Sprintf("invalid date %q", day), err)
		}

		prices := [4]float64{}
		for i, s := range []string{raw.Open, raw.High, raw.Low, raw.Close} {
			d, err := decimal.NewFromString(strings.TrimSpace(s))
			if err != nil {
				return nil, NewDataSourceError(alphaVantageName, ErrCodeInvalidData, fmt.Sprintf("invalid price %q on %s", s, day), err)
			}
			prices[i] = d.InexactFloat64()
		}

		bars = append(bars, models.PriceBar{
			Date:  date,
			Open:  prices[0],
			High:  prices[1],
			Low:   prices[2],
			Close: prices[3],
		})
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
	return bars, nil
}

// redact strips the API key from transport errors, which embed the request URL
func (c *AlphaVantageClient) redact(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if c.apiKey == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), c.apiKey, "REDACTED"))
}
