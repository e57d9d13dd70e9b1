// Package fx derives the implied local-per-hard-currency exchange rate from a
// dual-listed reference instrument and converts local-currency price series
// into hard-currency terms with it. All functions are pure: inputs are never
// mutated and outputs are freshly allocated series.
package fx

import (
	"fmt"

	"usdRsiScreener/internal/domain"
	"usdRsiScreener/internal/ports"
)

// SynthesizeRate derives the implied exchange-rate series from the two legs of
// a reference pair. For every date present in both legs with a nonzero foreign
// close, rate = local * ratio / foreign, i.e. local currency units per one
// hard-currency unit. Dates with a missing leg or a zero foreign close are
// absent from the output; there is no interpolation or forward-fill. Empty
// inputs yield an empty series, not an error.
func SynthesizeRate(local, foreign domain.PriceSeries, ratio float64) (domain.PriceSeries, error) {
	if ratio <= 0 {
		return domain.PriceSeries{}, fmt.Errorf("reference pair ratio must be positive, got %v: %w", ratio, ports.ErrInvalidConfiguration)
	}

	rate := domain.PriceSeries{
		Symbol: local.Symbol + "/" + foreign.Symbol,
		Bars:   make([]domain.PriceBar, 0, min(len(local.Bars), len(foreign.Bars))),
	}

	// Both legs are sorted by date, a single merge pass finds the intersection.
	i, j := 0, 0
	for i < len(local.Bars) && j < len(foreign.Bars) {
		li, fj := local.Bars[i], foreign.Bars[j]
		switch {
		case li.Date.Before(fj.Date):
			i++
		case fj.Date.Before(li.Date):
			j++
		default:
			if fj.Close != 0 {
				rate.Bars = append(rate.Bars, domain.PriceBar{
					Date:  li.Date,
					Close: li.Close * ratio / fj.Close,
				})
			}
			i++
			j++
		}
	}
	return rate, nil
}
