package indicator

import (
	"math"

	"github.com/yourusername/aurum/internal/models"
)

// ValidateBars checks structural and numeric integrity of a bar series.
// The first violation is returned as a *models.DataIntegrityError.
func ValidateBars(bars []models.PriceBar) error {
	for i, bar := range bars {
		if err := ValidateBar(bar); err != nil {
			return err
		}
		if i > 0 && !bar.Date.After(bars[i-1].Date) {
			return models.NewDataIntegrityError(bar.Date, "date", 0, "dates must be strictly ascending and unique")
		}
	}
	return nil
}

// ValidateBar checks that every price is finite and positive and that high/low
// bound open and close.
func ValidateBar(bar models.PriceBar) error {
	prices := []struct {
		field string
		value float64
	}{
		{"open", bar.Open},
		{"high", bar.High},
		{"low", bar.Low},
		{"close", bar.Close},
	}
	for _, p := range prices {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return models.NewDataIntegrityError(bar.Date, p.field, p.value, "price is not finite")
		}
		if p.value <= 0 {
			return models.NewDataIntegrityError(bar.Date, p.field, p.value, "price must be positive")
		}
	}

	if bar.High < math.Max(bar.Open, bar.Close) {
		return models.NewDataIntegrityError(bar.Date, "high", bar.High, "high below open/close")
	}
	if bar.Low > math.Min(bar.Open, bar.Close) {
		return models.NewDataIntegrityError(bar.Date, "low", bar.Low, "low above open/close")
	}
	return nil
}
