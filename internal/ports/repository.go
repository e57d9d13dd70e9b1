package ports

import (
	"context"
	"time"

	"usdRsiScreener/internal/domain"
)

// BarRepository defines the interface for the local daily-bar cache.
type BarRepository interface {
	// SaveBars upserts the bars of a series, keyed by (symbol, date).
	SaveBars(ctx context.Context, series domain.PriceSeries) error
	// LoadBars retrieves the cached bars for a symbol over [start, end],
	// ordered by date ascending. An empty series is not an error.
	LoadBars(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error)
	// DateRange returns the earliest and latest cached dates for a symbol.
	// Returns ok=false when the symbol has no cached bars.
	DateRange(ctx context.Context, symbol string) (first, last time.Time, ok bool, err error)
}

// RunRepository defines the interface for recording screener runs, so that
// successive watch-mode executions leave an auditable history.
type RunRepository interface {
	// SaveRun persists the per-symbol outcomes of one batch.
	SaveRun(ctx context.Context, result *domain.BatchResult) (int64, error)
}
