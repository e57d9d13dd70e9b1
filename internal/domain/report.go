package domain

import "time"

// SymbolStatus represents the terminal outcome for one requested symbol.
type SymbolStatus string

const (
	StatusComputed     SymbolStatus = "computed"
	StatusInsufficient SymbolStatus = "insufficient_data"
	StatusUnavailable  SymbolStatus = "unavailable"
)

// Signal classifies an RSI reading against the configured thresholds.
type Signal string

const (
	SignalOverbought Signal = "OVERBOUGHT"
	SignalOversold   Signal = "OVERSOLD"
	SignalNeutral    Signal = "NEUTRAL"
)

// ClassifySignal maps an RSI value to a signal given the thresholds.
func ClassifySignal(rsi, overbought, oversold float64) Signal {
	switch {
	case rsi > overbought:
		return SignalOverbought
	case rsi < oversold:
		return SignalOversold
	default:
		return SignalNeutral
	}
}

// RSIPoint is one computed RSI value. Dates before the first computable
// index have no point at all rather than a zero value.
type RSIPoint struct {
	Date  time.Time
	Value float64 // Always within [0, 100]
}

// RSIResult holds the RSI series computed for one symbol.
type RSIResult struct {
	Symbol string
	Period int
	Points []RSIPoint
}

// Last returns the most recent RSI point.
func (r RSIResult) Last() (RSIPoint, bool) {
	if len(r.Points) == 0 {
		return RSIPoint{}, false
	}
	return r.Points[len(r.Points)-1], true
}

// SymbolReport is the per-symbol outcome of a screener run. Exactly one
// report is produced per requested symbol regardless of outcome.
type SymbolReport struct {
	Symbol string
	Status SymbolStatus
	Reason string // Human-readable explanation when Status != computed

	// Populated only when Status == computed.
	Converted      PriceSeries // Hard-currency price series, for display/export
	RSI            *RSIResult
	LastLocalClose float64
	LastUSDClose   float64
	LastRSI        float64
	Signal         Signal
}

// BatchResult aggregates one screener run. Reports preserve the order in
// which symbols were requested.
type BatchResult struct {
	GeneratedAt time.Time
	Rate        PriceSeries // Implied local-per-USD rate series used for the run
	Reports     []SymbolReport
}

// Computed returns the reports that produced an RSI series.
func (b BatchResult) Computed() []SymbolReport {
	out := make([]SymbolReport, 0, len(b.Reports))
	for _, r := range b.Reports {
		if r.Status == StatusComputed {
			out = append(out, r)
		}
	}
	return out
}
