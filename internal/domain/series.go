package domain

import "time"

// PriceBar represents a single daily close.
type PriceBar struct {
	Date  time.Time // Trading day, normalized to midnight UTC
	Close float64   // Closing price, local currency unless stated otherwise
}

// PriceSeries holds the ordered daily closes of one symbol.
// Bars are strictly increasing by date with no duplicate dates.
// Series are value objects: transforms never mutate a series in place,
// they return a new one.
type PriceSeries struct {
	Symbol string
	Bars   []PriceBar
}

// Day normalizes a timestamp to midnight UTC, the canonical key for
// aligning bars across venues in different time zones.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Len returns the number of bars in the series.
func (s PriceSeries) Len() int { return len(s.Bars) }

// IsEmpty reports whether the series has no bars.
func (s PriceSeries) IsEmpty() bool { return len(s.Bars) == 0 }

// Closes returns the closing prices in date order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		closes[i] = b.Close
	}
	return closes
}

// Dates returns the trading days in ascending order.
func (s PriceSeries) Dates() []time.Time {
	dates := make([]time.Time, len(s.Bars))
	for i, b := range s.Bars {
		dates[i] = b.Date
	}
	return dates
}

// At returns the close for the given day, if the series has a bar for it.
func (s PriceSeries) At(date time.Time) (float64, bool) {
	d := Day(date)
	// Bars are sorted, binary search keeps lookups cheap on long histories.
	lo, hi := 0, len(s.Bars)
	for lo < hi {
		mid := (lo + hi) / 2
		if s.Bars[mid].Date.Before(d) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(s.Bars) && s.Bars[lo].Date.Equal(d) {
		return s.Bars[lo].Close, true
	}
	return 0, false
}

// Last returns the most recent bar.
func (s PriceSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// ReferencePair identifies the dual-listed instrument used as the
// exchange-rate proxy: the same underlying traded on the local venue in
// local currency and abroad in the hard currency. Ratio is the fixed
// number of local shares per one foreign-quoted unit (e.g. 10 for the
// GGAL ADR) and always comes from configuration, never from data.
type ReferencePair struct {
	LocalSymbol   string
	ForeignSymbol string
	Ratio         float64
}
