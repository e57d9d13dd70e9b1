package ports

import (
	"context"
	"time"

	"usdRsiScreener/internal/domain"
)

// MarketDataSource defines the interface for retrieving historical daily
// closes. This abstraction decouples the screener core from any specific
// provider; the core only ever sees already-fetched series.
type MarketDataSource interface {
	// FetchDailyCloses retrieves the daily closing prices for a symbol over
	// [start, end]. Implementations return an error wrapping
	// ErrDataUnavailable when the provider has no data for the symbol or
	// range; callers treat that as a per-symbol condition, not a run failure.
	FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)

	// Name identifies the data source for logging.
	Name() string
}
