package fx

import "usdRsiScreener/internal/domain"

// Align restricts a target series and the rate series to their shared trading
// days, preserving ascending date order. The result depends only on the two
// date sets, never on supply order. A target sharing no dates with the rate
// yields two empty series; downstream stages then report insufficient data
// rather than failing.
func Align(target, rate domain.PriceSeries) (alignedTarget, alignedRate domain.PriceSeries) {
	alignedTarget = domain.PriceSeries{Symbol: target.Symbol}
	alignedRate = domain.PriceSeries{Symbol: rate.Symbol}

	i, j := 0, 0
	for i < len(target.Bars) && j < len(rate.Bars) {
		ti, rj := target.Bars[i], rate.Bars[j]
		switch {
		case ti.Date.Before(rj.Date):
			i++
		case rj.Date.Before(ti.Date):
			j++
		default:
			alignedTarget.Bars = append(alignedTarget.Bars, ti)
			alignedRate.Bars = append(alignedRate.Bars, rj)
			i++
			j++
		}
	}
	return alignedTarget, alignedRate
}
