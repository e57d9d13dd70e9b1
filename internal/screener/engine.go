// Package screener orchestrates the full analysis for a basket of symbols:
// implied-rate synthesis, alignment, currency conversion and RSI computation,
// aggregating one report per requested symbol with partial-success semantics.
package screener

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"usdRsiScreener/internal/domain"
	"usdRsiScreener/internal/fx"
	"usdRsiScreener/internal/indicators"
	"usdRsiScreener/internal/ports"
)

// Config holds the screening parameters.
type Config struct {
	Reference  domain.ReferencePair // Dual-listed instrument used as the FX proxy
	Symbols    []string             // Target symbols, local-venue tickers
	Period     int                  // RSI lookback period
	Overbought float64              // Signal threshold, RSI above is overbought
	Oversold   float64              // Signal threshold, RSI below is oversold
	Workers    int                  // Concurrent symbol workers; <= 1 runs sequentially
}

// Engine runs the screening pipeline over a configured basket.
type Engine struct {
	cfg    Config
	logger ports.Logger
	source ports.MarketDataSource
}

// New creates a screener engine. Configuration is validated eagerly so that a
// bad period, ratio or symbol set fails before any data is fetched.
func New(cfg Config, logger ports.Logger, source ports.MarketDataSource) (*Engine, error) {
	if logger == nil || source == nil {
		return nil, fmt.Errorf("missing required dependencies for screener engine")
	}

	var errs []string
	if cfg.Period < 1 {
		errs = append(errs, fmt.Sprintf("RSI period must be at least 1, got %d", cfg.Period))
	}
	if cfg.Reference.Ratio <= 0 {
		errs = append(errs, fmt.Sprintf("reference ratio must be positive, got %v", cfg.Reference.Ratio))
	}
	if cfg.Reference.LocalSymbol == "" || cfg.Reference.ForeignSymbol == "" {
		errs = append(errs, "both reference pair symbols must be set")
	}
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "at least one target symbol is required")
	}
	if cfg.Overbought <= cfg.Oversold || cfg.Overbought > 100 || cfg.Oversold < 0 {
		errs = append(errs, "invalid RSI thresholds (overbought must be > oversold, between 0-100)")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%s: %w", strings.Join(errs, "; "), ports.ErrInvalidConfiguration)
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &Engine{cfg: cfg, logger: logger, source: source}, nil
}

// Run screens every configured symbol over [start, end] and returns one report
// per symbol. A symbol's failure or lack of history never aborts the batch;
// the only run-level failures are an unusable reference pair (no rate means
// nothing is computable) and an internal alignment contract breach.
func (e *Engine) Run(ctx context.Context, start, end time.Time) (*domain.BatchResult, error) {
	rate, err := e.synthesizeRate(ctx, start, end)
	if err != nil {
		return nil, err
	}
	lastRate, _ := rate.Last()
	e.logger.Info(ctx, "Implied exchange rate synthesized", map[string]interface{}{
		"points":   rate.Len(),
		"lastDate": lastRate.Date.Format("2006-01-02"),
		"lastRate": lastRate.Close,
	})

	reports := make([]domain.SymbolReport, len(e.cfg.Symbols))

	if e.cfg.Workers == 1 {
		for i, symbol := range e.cfg.Symbols {
			reports[i], err = e.analyzeSymbol(ctx, symbol, rate, start, end)
			if err != nil {
				return nil, err
			}
		}
	} else {
		// Reports are written to disjoint pre-indexed slots, so the output is
		// identical to the sequential path regardless of scheduling.
		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			runErr error
		)
		jobs := make(chan int)
		for w := 0; w < e.cfg.Workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := range jobs {
					report, aerr := e.analyzeSymbol(ctx, e.cfg.Symbols[i], rate, start, end)
					if aerr != nil {
						mu.Lock()
						if runErr == nil {
							runErr = aerr
						}
						mu.Unlock()
						continue
					}
					reports[i] = report
				}
			}()
		}
		for i := range e.cfg.Symbols {
			jobs <- i
		}
		close(jobs)
		wg.Wait()
		if runErr != nil {
			return nil, runErr
		}
	}

	return &domain.BatchResult{
		GeneratedAt: time.Now().UTC(),
		Rate:        rate,
		Reports:     reports,
	}, nil
}

// synthesizeRate fetches both legs of the reference pair and derives the
// implied rate series. An unusable reference pair is fatal for the whole run,
// unlike per-symbol data problems.
func (e *Engine) synthesizeRate(ctx context.Context, start, end time.Time) (domain.PriceSeries, error) {
	ref := e.cfg.Reference

	local, err := e.source.FetchDailyCloses(ctx, ref.LocalSymbol, start, end)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("fetching reference local leg %s: %w", ref.LocalSymbol, err)
	}
	foreign, err := e.source.FetchDailyCloses(ctx, ref.ForeignSymbol, start, end)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("fetching reference foreign leg %s: %w", ref.ForeignSymbol, err)
	}

	rate, err := fx.SynthesizeRate(local, foreign, ref.Ratio)
	if err != nil {
		return domain.PriceSeries{}, err
	}
	if rate.IsEmpty() {
		return domain.PriceSeries{}, fmt.Errorf("reference legs %s/%s share no trading days in range: %w",
			ref.LocalSymbol, ref.ForeignSymbol, ports.ErrDataUnavailable)
	}
	return rate, nil
}

// analyzeSymbol runs the per-symbol pipeline. The returned error is non-nil
// only for internal contract breaches (misaligned series); every data-quality
// outcome is expressed in the report status instead.
func (e *Engine) analyzeSymbol(ctx context.Context, symbol string, rate domain.PriceSeries, start, end time.Time) (domain.SymbolReport, error) {
	series, err := e.source.FetchDailyCloses(ctx, symbol, start, end)
	if err != nil {
		e.logger.Warn(ctx, "Symbol data unavailable", map[string]interface{}{"symbol": symbol, "reason": err.Error()})
		return domain.SymbolReport{
			Symbol: symbol,
			Status: domain.StatusUnavailable,
			Reason: err.Error(),
		}, nil
	}
	if series.IsEmpty() {
		e.logger.Warn(ctx, "Symbol returned no bars", map[string]interface{}{"symbol": symbol})
		return domain.SymbolReport{
			Symbol: symbol,
			Status: domain.StatusUnavailable,
			Reason: "no price bars returned for the requested range",
		}, nil
	}

	alignedTarget, alignedRate := fx.Align(series, rate)
	converted, err := fx.Convert(alignedTarget, alignedRate)
	if err != nil {
		// Possible only if Align and Convert disagree about the date set,
		// which is a bug, not bad market data.
		return domain.SymbolReport{}, err
	}

	values, err := indicators.RSISeries(converted.Closes(), e.cfg.Period)
	if err != nil {
		if errors.Is(err, ports.ErrInsufficientHistory) {
			e.logger.Info(ctx, "Insufficient aligned history for symbol", map[string]interface{}{
				"symbol":  symbol,
				"aligned": converted.Len(),
				"needed":  e.cfg.Period + 1,
			})
			return domain.SymbolReport{
				Symbol: symbol,
				Status: domain.StatusInsufficient,
				Reason: fmt.Sprintf("%d aligned points, need at least %d for period %d",
					converted.Len(), e.cfg.Period+1, e.cfg.Period),
			}, nil
		}
		return domain.SymbolReport{}, err
	}

	result := &domain.RSIResult{
		Symbol: symbol,
		Period: e.cfg.Period,
		Points: make([]domain.RSIPoint, len(values)),
	}
	for i, v := range values {
		result.Points[i] = domain.RSIPoint{
			Date:  converted.Bars[e.cfg.Period+i].Date,
			Value: v,
		}
	}

	lastLocal, _ := alignedTarget.Last()
	lastUSD, _ := converted.Last()
	lastRSI := values[len(values)-1]

	e.logger.Debug(ctx, "Symbol analyzed", map[string]interface{}{
		"symbol":   symbol,
		"aligned":  converted.Len(),
		"lastRSI":  lastRSI,
		"lastUSD":  lastUSD.Close,
		"lastDate": lastUSD.Date.Format("2006-01-02"),
	})

	return domain.SymbolReport{
		Symbol:         symbol,
		Status:         domain.StatusComputed,
		Converted:      converted,
		RSI:            result,
		LastLocalClose: lastLocal.Close,
		LastUSDClose:   lastUSD.Close,
		LastRSI:        lastRSI,
		Signal:         domain.ClassifySignal(lastRSI, e.cfg.Overbought, e.cfg.Oversold),
	}, nil
}
