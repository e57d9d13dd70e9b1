package utils

import (
	"encoding/csv"
	"os"
	"strconv"

	"usdRsiScreener/internal/domain"
)

// WriteReportsToCSV exports one row per symbol of a batch result, matching
// the on-screen results table.
func WriteReportsToCSV(result *domain.BatchResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	writer.Write([]string{"symbol", "status", "last_local_close", "last_usd_close", "rsi", "signal", "reason"})

	for _, r := range result.Reports {
		writer.Write([]string{
			r.Symbol,
			string(r.Status),
			strconv.FormatFloat(r.LastLocalClose, 'f', 2, 64),
			strconv.FormatFloat(r.LastUSDClose, 'f', 4, 64),
			strconv.FormatFloat(r.LastRSI, 'f', 2, 64),
			string(r.Signal),
			r.Reason,
		})
	}
	return writer.Error()
}

// WriteBarsToCSV dumps a price series, one row per trading day.
func WriteBarsToCSV(series domain.PriceSeries, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	writer.Write([]string{"symbol", "date", "close"})
	for _, bar := range series.Bars {
		writer.Write([]string{
			series.Symbol,
			bar.Date.Format("2006-01-02"),
			strconv.FormatFloat(bar.Close, 'f', -1, 64),
		})
	}
	return writer.Error()
}
