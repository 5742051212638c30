package helpers

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/yourusername/aurum/internal/models"
)

// SeriesStart is the first date of generated test series
var SeriesStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// BarsFromCloses builds one bar per close on consecutive days. Open equals the
// previous close and high/low wrap both with a one-percent margin.
func BarsFromCloses(closes []float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}
		bars[i] = models.PriceBar{
			Date:  SeriesStart.AddDate(0, 0, i),
			Open:  open,
			High:  math.Max(open, c) * 1.01,
			Low:   math.Min(open, c) * 0.99,
			Close: c,
		}
	}
	return bars
}

// ConstantBars builds n bars with every price equal to price
func ConstantBars(n int, price float64) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	for i := range bars {
		bars[i] = models.PriceBar{
			Date:  SeriesStart.AddDate(0, 0, i),
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
		}
	}
	return bars
}

// TrendingCloses returns n closes rising by step from start
func TrendingCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + float64(i)*step
	}
	return closes
}

// RandomWalkCloses returns a seeded geometric random walk of n closes
func RandomWalkCloses(n int, start float64, dailyVol float64, seed int64) []float64 {
	rng := rand.New(rand.NewSource(seed))
	closes := make([]float64, n)
	price := start
	for i := range closes {
		if i > 0 {
			price *= math.Exp(rng.NormFloat64() * dailyVol)
		}
		closes[i] = price
	}
	return closes
}

// AlphaVantageDailyPayload renders bars as a TIME_SERIES_DAILY response body
func AlphaVantageDailyPayload(symbol string, bars []models.PriceBar) map[string]interface{} {
	series := make(map[string]interface{}, len(bars))
	for _, bar := range bars {
		series[bar.DateString()] = map[string]string{
			"1. open":   formatPrice(bar.Open),
			"2. high":   formatPrice(bar.High),
			"3. low":    formatPrice(bar.Low),
			"4. close":  formatPrice(bar.Close),
			"5. volume": "0",
		}
	}
	return map[string]interface{}{
		"Meta Data": map[string]string{
			"1. Information": "Daily Prices (open, high, low, close) and Volumes",
			"2. Symbol":      symbol,
		},
		"Time Series (Daily)": series,
	}
}

// MockAlphaVantageServer serves payload for every /query request and counts hits
func MockAlphaVantageServer(t *testing.T, payload interface{}, hits *int) *httptest.Server {
	t.Helper()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/query" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if hits != nil {
			*hits++
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(payload)
	})

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server
}

// CreateTestContext creates a context with a timeout for testing.
func CreateTestContext(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)

	return ctx
}

// GetEnvOrDefault returns an environment variable or a default value.
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// SkipIfShort skips long-running tests in short mode.
func SkipIfShort(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
}

func formatPrice(v float64) string {
	b, _ := json.Marshal(v)
	return string(b)
}
