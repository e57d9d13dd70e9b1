package main

import (
	"context"
	"fmt"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"usdRsiScreener/config"
	"usdRsiScreener/internal/adapters/logger"
	"usdRsiScreener/internal/adapters/sqlite"
	"usdRsiScreener/internal/adapters/yahoo"
	"usdRsiScreener/internal/domain"
	"usdRsiScreener/internal/ports"
	"usdRsiScreener/internal/screener"
	"usdRsiScreener/internal/utils"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := logger.NewStdLogger(cfg.LogLevel)
	ctx := context.Background()
	appLogger.Info(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Data Source (Yahoo Finance adapter)
	yahooClient, err := yahoo.New(yahoo.Config{Logger: appLogger, Proxy: cfg.Proxy})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize Yahoo client: %v", err)
	}
	var source ports.MarketDataSource = yahooClient

	// 4. Initialize Repository (optional bar cache + run history)
	var repo *sqlite.Repository
	if cfg.DBPath != "" {
		repo, err = sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			log.Fatalf("FATAL: Failed to initialize database repository: %v", err)
		}
		defer func() {
			if err := repo.Close(); err != nil {
				appLogger.Error(ctx, err, "Error closing database repository")
			}
		}()
		if cfg.UseCache {
			source, err = sqlite.NewCachingSource(yahooClient, repo, appLogger)
			if err != nil {
				log.Fatalf("FATAL: Failed to initialize caching source: %v", err)
			}
		}
	}
	appLogger.Info(ctx, "Data source initialized", map[string]interface{}{"source": source.Name()})

	// 5. Initialize Screener Engine
	engine, err := screener.New(screener.Config{
		Reference:  cfg.Reference,
		Symbols:    cfg.Symbols,
		Period:     cfg.RSIPeriod,
		Overbought: cfg.Overbought,
		Oversold:   cfg.Oversold,
		Workers:    cfg.Workers,
	}, appLogger, source)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize screener engine: %v", err)
	}

	runOnce := func() error {
		end := time.Now()
		start := end.AddDate(0, 0, -cfg.HistoryDays)

		result, err := engine.Run(ctx, start, end)
		if err != nil {
			return err
		}
		printResults(cfg, result)

		if repo != nil {
			if _, err := repo.SaveRun(ctx, result); err != nil {
				appLogger.Warn(ctx, "Failed to record run", map[string]interface{}{"reason": err.Error()})
			}
		}
		if cfg.CSVPath != "" {
			if err := utils.WriteReportsToCSV(result, cfg.CSVPath); err != nil {
				appLogger.Warn(ctx, "Failed to export CSV", map[string]interface{}{"path": cfg.CSVPath, "reason": err.Error()})
			} else {
				appLogger.Info(ctx, "Results exported", map[string]interface{}{"path": cfg.CSVPath})
			}
		}
		return nil
	}

	// 6. Run once, or keep re-running on the configured cron schedule.
	if cfg.WatchCron == "" {
		if err := runOnce(); err != nil {
			appLogger.Error(ctx, err, "Screener run failed")
			log.Fatalf("FATAL: Screener run failed: %v", err)
		}
		return
	}

	if err := runOnce(); err != nil {
		appLogger.Error(ctx, err, "Initial screener run failed")
	}

	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.WatchCron, func() {
		if err := runOnce(); err != nil {
			appLogger.Error(ctx, err, "Scheduled screener run failed")
		}
	}); err != nil {
		log.Fatalf("FATAL: Invalid WATCH_CRON expression %q: %v", cfg.WatchCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()
	appLogger.Info(ctx, "Watch mode started", map[string]interface{}{"cron": cfg.WatchCron})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	appLogger.Info(ctx, "Shutdown signal received, stopping")
}

func printResults(cfg *config.Config, result *domain.BatchResult) {
	lastRate, _ := result.Rate.Last()
	fmt.Printf("\nImplied %s/%s rate: %.2f ARS/USD (as of %s, ratio %g)\n\n",
		cfg.Reference.LocalSymbol, cfg.Reference.ForeignSymbol,
		lastRate.Close, lastRate.Date.Format("2006-01-02"), cfg.Reference.Ratio)

	fmt.Printf("%-10s %14s %12s %8s %-12s %s\n", "SYMBOL", "CLOSE (ARS)", "CLOSE (USD)", "RSI", "SIGNAL", "STATUS")
	for _, r := range result.Reports {
		switch r.Status {
		case domain.StatusComputed:
			fmt.Printf("%-10s %14.2f %12.4f %8.2f %-12s %s\n",
				r.Symbol, r.LastLocalClose, r.LastUSDClose, r.LastRSI, r.Signal, r.Status)
		default:
			fmt.Printf("%-10s %14s %12s %8s %-12s %s (%s)\n",
				r.Symbol, "-", "-", "-", "-", r.Status, r.Reason)
		}
	}
	fmt.Println()
}
