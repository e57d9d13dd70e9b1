// Prefetches daily bars for the configured basket (targets plus both
// reference legs) into the SQLite cache, optionally dumping each series to
// CSV under data/. Useful before running the screener offline or in watch
// mode on a flaky connection.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"usdRsiScreener/config"
	"usdRsiScreener/internal/adapters/logger"
	"usdRsiScreener/internal/adapters/sqlite"
	"usdRsiScreener/internal/adapters/yahoo"
	"usdRsiScreener/internal/utils"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()

	// 3. Initialize Yahoo client and repository
	client, err := yahoo.New(yahoo.Config{Logger: appLogger, Proxy: cfg.Proxy})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Yahoo client: %v", err)
	}
	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
	}
	defer repo.Close()

	end := time.Now()
	start := end.AddDate(0, 0, -cfg.HistoryDays)

	symbols := append([]string{cfg.Reference.LocalSymbol, cfg.Reference.ForeignSymbol}, cfg.Symbols...)
	fetched, failed := 0, 0
	for _, symbol := range symbols {
		series, err := client.FetchDailyCloses(ctx, symbol, start, end)
		if err != nil {
			appLogger.Warn(ctx, "Fetch failed", map[string]interface{}{"symbol": symbol, "reason": err.Error()})
			failed++
			continue
		}
		if err := repo.SaveBars(ctx, series); err != nil {
			appLogger.Error(ctx, err, "Failed to cache bars", map[string]interface{}{"symbol": symbol})
			failed++
			continue
		}

		if cfg.CSVPath != "" {
			filename := fmt.Sprintf("data/%s_%s_to_%s.csv", symbol, start.Format("20060102"), end.Format("20060102"))
			if err := utils.WriteBarsToCSV(series, filename); err != nil {
				appLogger.Warn(ctx, "Failed to write CSV", map[string]interface{}{"symbol": symbol, "reason": err.Error()})
			}
		}

		appLogger.Info(ctx, "Cached bars", map[string]interface{}{"symbol": symbol, "count": series.Len()})
		fetched++
	}

	appLogger.Info(ctx, "Prefetch finished", map[string]interface{}{"fetched": fetched, "failed": failed})
}
