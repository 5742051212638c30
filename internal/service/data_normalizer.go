package service

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/aurum/internal/models"
)

// DataNormalizer normalizes provider data to the stored form
type DataNormalizer struct {
	symbolMap map[string]string // Maps provider spellings to canonical symbols
	logger    *logrus.Logger
}

// NewDataNormalizer creates a new data normalizer
func NewDataNormalizer(logger *logrus.Logger) *DataNormalizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &DataNormalizer{
		symbolMap: buildSymbolMap(),
		logger:    logger,
	}
}

// NormalizeSymbol maps provider spellings such as "XAU/USD" to "XAUUSD"
func (n *DataNormalizer) NormalizeSymbol(symbol string) string {
	key := strings.ToUpper(strings.TrimSpace(symbol))
	if canonical, ok := n.symbolMap[key]; ok {
		return canonical
	}
	return strings.NewReplacer("/", "", "-", "", " ", "").Replace(key)
}

// NormalizeBars returns bars at UTC midnight in ascending date order.
// When a date repeats, the last occurrence wins.
func (n *DataNormalizer) NormalizeBars(bars []models.PriceBar) []models.PriceBar {
	byDate := make(map[time.Time]models.PriceBar, len(bars))
	duplicates := 0
	for _, bar := range bars {
		bar.Date = truncateToDay(bar.Date)
		if _, seen := byDate[bar.Date]; seen {
			duplicates++
		}
		byDate[bar.Date] = bar
	}

	out := make([]models.PriceBar, 0, len(byDate))
	for _, bar := range byDate {
		out = append(out, bar)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	if duplicates > 0 {
		n.logger.WithField("duplicates", duplicates).Debug("Collapsed duplicate bar dates")
	}
	return out
}

// FilterFrom drops bars dated before start. A zero start keeps everything.
func (n *DataNormalizer) FilterFrom(bars []models.PriceBar, start time.Time) []models.PriceBar {
	if start.IsZero() {
		return bars
	}
	out := bars[:0:0]
	for _, bar := range bars {
		if !bar.Date.Before(start) {
			out = append(out, bar)
		}
	}
	return out
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func buildSymbolMap() map[string]string {
	return map[string]string{
		"XAU/USD": "XAUUSD",
		"XAU-USD": "XAUUSD",
		"GOLD":    "XAUUSD",
		"XAG/USD": "XAGUSD",
	}
}
