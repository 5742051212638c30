package datasource

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/yourusername/aurum/internal/models"
)

// CachedSource memoizes FetchDaily results per symbol for a TTL.
// Errors are never cached.
type CachedSource struct {
	source PriceSource
	cache  *cache.Cache
}

// NewCachedSource wraps source with a TTL cache
func NewCachedSource(source PriceSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		cache:  cache.New(ttl, 2*ttl),
	}
}

// Name returns the wrapped source name
func (c *CachedSource) Name() string {
	return c.source.Name()
}

// FetchDaily returns a copy of the cached series or fetches it
func (c *CachedSource) FetchDaily(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	if cached, ok := c.cache.Get(symbol); ok {
		return copyBars(cached.([]models.PriceBar)), nil
	}

	bars, err := c.source.FetchDaily(ctx, symbol)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(symbol, copyBars(bars))
	return bars, nil
}

// Invalidate drops the cached series for symbol
func (c *CachedSource) Invalidate(symbol string) {
	c.cache.Delete(symbol)
}

func copyBars(bars []models.PriceBar) []models.PriceBar {
	out := make([]models.PriceBar, len(bars))
	copy(out, bars)
	return out
}
