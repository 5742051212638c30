package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/aurum/internal/config"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/test/helpers"
)

const testAPIKey = "secret-key"

func fastHTTPClient(maxRetries, breakerMax int) *RateLimitedHTTPClient {
	return NewRateLimitedHTTPClient(HTTPClientConfig{
		Timeout:           2 * time.Second,
		MaxRetries:        maxRetries,
		RetryWaitMin:      time.Millisecond,
		RetryWaitMax:      5 * time.Millisecond,
		CircuitBreakerMax: breakerMax,
	}, nil)
}

func newTestClient(baseURL string) *AlphaVantageClient {
	return NewAlphaVantageClient(fastHTTPClient(0, 10), baseURL, testAPIKey, "full", nil)
}

func TestAlphaVantageFetchDaily(t *testing.T) {
	bars := helpers.BarsFromCloses([]float64{2050.5, 2061.25, 2043.1, 2070})
	hits := 0
	server := helpers.MockAlphaVantageServer(t, helpers.AlphaVantageDailyPayload("XAUUSD", bars), &hits)

	got, err := newTestClient(server.URL).FetchDaily(context.Background(), "XAUUSD")
	require.NoError(t, err)
	require.Len(t, got, len(bars))
	assert.Equal(t, 1, hits)

	for i := range bars {
		assert.True(t, bars[i].Date.Equal(got[i].Date), "date %d", i)
		assert.InDelta(t, bars[i].Open, got[i].Open, 1e-9)
		assert.InDelta(t, bars[i].High, got[i].High, 1e-9)
		assert.InDelta(t, bars[i].Low, got[i].Low, 1e-9)
		assert.InDelta(t, bars[i].Close, got[i].Close, 1e-9)
	}
}

func TestAlphaVantageRequestParameters(t *testing.T) {
	var query string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"Time Series (Daily)": {}}`))
	}))
	defer server.Close()

	got, err := newTestClient(server.URL).FetchDaily(context.Background(), "XAUUSD")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.Contains(t, query, "function=TIME_SERIES_DAILY")
	assert.Contains(t, query, "symbol=XAUUSD")
	assert.Contains(t, query, "outputsize=full")
	assert.Contains(t, query, "apikey="+testAPIKey)
}

func TestAlphaVantagePayloadErrors(t *testing.T) {
	tests := []struct {
		name     string
		payload  map[string]interface{}
		code     string
		sentinel error
	}{
		{"invalid call", map[string]interface{}{"Error Message": "Invalid API call."}, ErrCodeNotFound, ErrNotFound},
		{"throttled note", map[string]interface{}{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}, ErrCodeRateLimitExceeded, ErrRateLimitExceeded},
		{"daily limit", map[string]interface{}{"Information": "Our standard API rate limit is 25 requests per day."}, ErrCodeRateLimitExceeded, ErrRateLimitExceeded},
		{"premium endpoint", map[string]interface{}{"Information": "This is a premium endpoint."}, ErrCodeAuthenticationFailed, ErrAuthenticationFailed},
		{"missing series", map[string]interface{}{"Meta Data": map[string]string{}}, ErrCodeInvalidData, ErrInvalidData},
		{"bad price", map[string]interface{}{"Time Series (Daily)": map[string]interface{}{
			"2024-01-02": map[string]string{"1. open": "abc", "2. high": "1", "3. low": "1", "4. close": "1"},
		}}, ErrCodeInvalidData, ErrInvalidData},
		{"bad date", map[string]interface{}{"Time Series (Daily)": map[string]interface{}{
			"02/01/2024": map[string]string{"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1"},
		}}, ErrCodeInvalidData, ErrInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := helpers.MockAlphaVantageServer(t, tt.payload, nil)

			_, err := newTestClient(server.URL).FetchDaily(context.Background(), "XAUUSD")
			require.Error(t, err)
			assert.Equal(t, tt.code, ErrorCode(err))
			assert.True(t, errors.Is(err, tt.sentinel))
		})
	}
}

func TestAlphaVantageHTTPStatus(t *testing.T) {
	tests := []struct {
		status int
		code   string
	}{
		{http.StatusUnauthorized, ErrCodeAuthenticationFailed},
		{http.StatusTooManyRequests, ErrCodeRateLimitExceeded},
		{http.StatusNotFound, ErrCodeServerError},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).FetchDaily(context.Background(), "XAUUSD")
			assert.Equal(t, tt.code, ErrorCode(err))
		})
	}
}

func TestAlphaVantageRedactsAPIKey(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	_, err := newTestClient(server.URL).FetchDaily(context.Background(), "XAUUSD")
	require.Error(t, err)
	assert.Equal(t, ErrCodeNetworkError, ErrorCode(err))
	assert.NotContains(t, err.Error(), testAPIKey)
}

func TestRateLimitedHTTPClientRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	resp, err := fastHTTPClient(3, 5).Get(context.Background(), server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRateLimitedHTTPClientCircuitBreaker(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := fastHTTPClient(0, 2)
	for i := 0; i < 2; i++ {
		_, err := client.Get(context.Background(), server.URL)
		require.Error(t, err)
	}
	assert.True(t, client.IsOpen())

	_, err := client.Get(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "circuit breaker open"))
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

type fakeSource struct {
	calls int
	bars  []models.PriceBar
	err   error
}

func (f *fakeSource) FetchDaily(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bars, nil
}

func (f *fakeSource) Name() string { return "fake" }

func TestCachedSource(t *testing.T) {
	fake := &fakeSource{bars: helpers.BarsFromCloses([]float64{1, 2, 3})}
	cached := NewCachedSource(fake, time.Minute)

	first, err := cached.FetchDaily(context.Background(), "XAUUSD")
	require.NoError(t, err)
	first[0].Close = 99

	second, err := cached.FetchDaily(context.Background(), "XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.calls)
	assert.Equal(t, 1.0, second[0].Close)
	assert.Equal(t, "fake", cached.Name())

	cached.Invalidate("XAUUSD")
	_, err = cached.FetchDaily(context.Background(), "XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	fake := &fakeSource{err: NewDataSourceError("fake", ErrCodeRateLimitExceeded, "slow down", nil)}
	cached := NewCachedSource(fake, time.Minute)

	_, err := cached.FetchDaily(context.Background(), "XAUUSD")
	require.Error(t, err)
	_, err = cached.FetchDaily(context.Background(), "XAUUSD")
	require.Error(t, err)
	assert.Equal(t, 2, fake.calls)
}

func TestFactoryNewPriceSource(t *testing.T) {
	cfg := &config.MarketDataConfig{
		Provider:        "alphavantage",
		BaseURL:         "https://www.alphavantage.co",
		APIKey:          testAPIKey,
		OutputSize:      "compact",
		CacheTTLSeconds: 60,
	}
	factory := NewFactory(cfg, nil)

	source, err := factory.NewPriceSource(fastHTTPClient(0, 1))
	require.NoError(t, err)
	assert.IsType(t, &CachedSource{}, source)
	assert.Equal(t, "alphavantage", source.Name())

	cfg.CacheTTLSeconds = 0
	source, err = factory.NewPriceSource(fastHTTPClient(0, 1))
	require.NoError(t, err)
	assert.IsType(t, &AlphaVantageClient{}, source)

	cfg.Provider = "stooq"
	_, err = factory.NewPriceSource(fastHTTPClient(0, 1))
	assert.Error(t, err)

	_, err = factory.NewPriceSource(nil)
	assert.Error(t, err)
}

func TestHTTPClientConfigFrom(t *testing.T) {
	httpCfg := HTTPClientConfigFrom(&config.MarketDataConfig{RequestsPerMin: 30, TimeoutSeconds: 5, RetryAttempts: 2})
	assert.Equal(t, 0.5, httpCfg.RateLimit)
	assert.Equal(t, 5*time.Second, httpCfg.Timeout)
	assert.Equal(t, 2, httpCfg.MaxRetries)
}

func TestErrorCodeUnknown(t *testing.T) {
	assert.Equal(t, ErrCodeUnknown, ErrorCode(errors.New("boom")))
}
