package indicators

import (
	"fmt"

	"usdRsiScreener/internal/ports"
)

// RSISeries computes the Relative Strength Index over a series of closing
// prices using Wilder's smoothing method. It returns one value per input
// index from period onward, so the result has len(closes)-period entries and
// result[k] corresponds to closes[period+k]. Earlier indexes have no RSI by
// definition and are simply not represented.
//
// The seed averages are the simple means of the first period gains and
// losses; every later average is smoothed as (avg*(period-1) + x) / period.
// A window with no losses yields 100, a perfectly flat window yields 50.
func RSISeries(closes []float64, period int) ([]float64, error) {
	if period < 1 {
		return nil, fmt.Errorf("RSI period must be at least 1, got %d: %w", period, ports.ErrInvalidConfiguration)
	}
	if len(closes) < period+1 {
		return nil, fmt.Errorf("RSI period %d needs at least %d closes, got %d: %w",
			period, period+1, len(closes), ports.ErrInsufficientHistory)
	}

	// Initial average gain/loss over the first `period` changes
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change // make positive
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	values := make([]float64, 0, len(closes)-period)
	values = append(values, rsiFromAverages(avgGain, avgLoss))

	// Wilder smoothing for the remaining bars
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		values = append(values, rsiFromAverages(avgGain, avgLoss))
	}
	return values, nil
}

// RSILatest returns only the most recent RSI value for the series.
func RSILatest(closes []float64, period int) (float64, error) {
	values, err := RSISeries(closes, period)
	if err != nil {
		return 0, err
	}
	return values[len(values)-1], nil
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // flat price run, neutral by definition
		}
		return 100
	}
	rs := avgGain / avgLoss
	rsi := 100 - (100 / (1 + rs))

	// Ensure RSI is within bounds
	if rsi > 100 {
		rsi = 100
	} else if rsi < 0 {
		rsi = 0
	}
	return rsi
}
