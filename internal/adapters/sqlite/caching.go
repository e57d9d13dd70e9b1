package sqlite

import (
	"context"
	"fmt"
	"time"

	"usdRsiScreener/internal/domain"
	"usdRsiScreener/internal/ports"
)

// freshnessWindow is how close the cached boundary bars must be to the ends
// of the requested range for the cache to be considered complete. Three
// calendar days cover a weekend without a fetch.
const freshnessWindow = 3 * 24 * time.Hour

// CachingSource decorates a MarketDataSource with the daily-bar cache:
// fresh cached ranges are served locally, everything else falls through to
// the wrapped source and is cached on the way back. A source failure over a
// non-empty cache degrades to the stale cached bars with a warning instead
// of failing the symbol.
type CachingSource struct {
	source ports.MarketDataSource
	repo   ports.BarRepository
	logger ports.Logger
}

// NewCachingSource wraps a source with the bar cache.
func NewCachingSource(source ports.MarketDataSource, repo ports.BarRepository, logger ports.Logger) (*CachingSource, error) {
	if source == nil || repo == nil || logger == nil {
		return nil, fmt.Errorf("missing required dependencies for caching source")
	}
	return &CachingSource{source: source, repo: repo, logger: logger}, nil
}

// Name identifies the data source for logging.
func (c *CachingSource) Name() string { return c.source.Name() + "+cache" }

// FetchDailyCloses serves from the cache when it covers the requested range,
// otherwise fetches from the wrapped source and stores the result. Coverage is
// checked on both ends: a cache populated by an earlier, narrower run must not
// quietly shorten the history a wider run asks for.
func (c *CachingSource) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	firstCached, lastCached, ok, err := c.repo.DateRange(ctx, symbol)
	if err == nil && ok &&
		domain.Day(end).Sub(lastCached) <= freshnessWindow &&
		firstCached.Sub(domain.Day(start)) <= freshnessWindow {
		cached, err := c.repo.LoadBars(ctx, symbol, start, end)
		if err == nil && !cached.IsEmpty() {
			c.logger.Debug(ctx, "Serving bars from cache", map[string]interface{}{
				"symbol": symbol,
				"bars":   cached.Len(),
			})
			return cached, nil
		}
	}

	fetched, err := c.source.FetchDailyCloses(ctx, symbol, start, end)
	if err != nil {
		// Stale cache beats no data for a screener run.
		cached, loadErr := c.repo.LoadBars(ctx, symbol, start, end)
		if loadErr == nil && !cached.IsEmpty() {
			c.logger.Warn(ctx, "Source failed, serving stale cached bars", map[string]interface{}{
				"symbol": symbol,
				"bars":   cached.Len(),
				"reason": err.Error(),
			})
			return cached, nil
		}
		return domain.PriceSeries{}, err
	}

	if saveErr := c.repo.SaveBars(ctx, fetched); saveErr != nil {
		// Caching is best effort; the fetched data is still good.
		c.logger.Warn(ctx, "Failed to cache fetched bars", map[string]interface{}{
			"symbol": symbol,
			"reason": saveErr.Error(),
		})
	}
	return fetched, nil
}
