package fx

import (
	"fmt"

	"usdRsiScreener/internal/domain"
	"usdRsiScreener/internal/ports"
)

// Convert divides each target close by the rate for the same date, producing
// the hard-currency series. The two inputs must already share exactly the
// same date set (the aligner's output); any mismatch is an internal contract
// breach and fails with ports.ErrMisalignedSeries instead of padding.
// Rate positivity is guaranteed by SynthesizeRate, so no division by zero can
// occur here.
func Convert(target, rate domain.PriceSeries) (domain.PriceSeries, error) {
	if len(target.Bars) != len(rate.Bars) {
		return domain.PriceSeries{}, fmt.Errorf("converting %s: %d target bars vs %d rate bars: %w",
			target.Symbol, len(target.Bars), len(rate.Bars), ports.ErrMisalignedSeries)
	}

	converted := domain.PriceSeries{
		Symbol: target.Symbol,
		Bars:   make([]domain.PriceBar, len(target.Bars)),
	}
	for i, bar := range target.Bars {
		if !bar.Date.Equal(rate.Bars[i].Date) {
			return domain.PriceSeries{}, fmt.Errorf("converting %s: date mismatch at index %d (%s vs %s): %w",
				target.Symbol, i,
				bar.Date.Format("2006-01-02"), rate.Bars[i].Date.Format("2006-01-02"),
				ports.ErrMisalignedSeries)
		}
		converted.Bars[i] = domain.PriceBar{
			Date:  bar.Date,
			Close: bar.Close / rate.Bars[i].Close,
		}
	}
	return converted, nil
}
