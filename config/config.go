package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"usdRsiScreener/internal/adapters/logger" // Import the logger package for LogLevel
	"usdRsiScreener/internal/domain"
)

// Default basket: the liquid BYMA names the screener was built around.
var defaultSymbols = []string{
	"GGAL.BA", "YPFD.BA", "BBAR.BA", "BMA.BA", "CEPU.BA",
	"EDN.BA", "LOMA.BA", "PAMP.BA", "TXAR.BA",
}

// Config holds all application configuration.
type Config struct {
	// Reference pair used as the implied exchange-rate proxy.
	Reference domain.ReferencePair

	// Target symbols, local-venue tickers.
	Symbols []string

	// Analysis parameters.
	RSIPeriod   int     // e.g., 14
	HistoryDays int     // Calendar days of history to fetch, e.g., 90
	Overbought  float64 // e.g., 70.0
	Oversold    float64 // e.g., 30.0
	Workers     int     // Concurrent symbol workers

	// Storage & export.
	DBPath   string // SQLite bar cache and run history; empty disables persistence
	CSVPath  string // Results CSV export; empty disables export
	UseCache bool   // Serve bars from the SQLite cache when fresh

	// Watch mode.
	WatchCron string // Cron expression for periodic re-runs; empty means run once

	// Networking.
	Proxy string // Optional HTTPS proxy for the data source

	// Logging.
	LogLevel logger.LogLevel
}

// basketFile is the optional YAML document listing the reference pair and
// target symbols, so baskets can be versioned separately from the environment.
type basketFile struct {
	Reference struct {
		Local   string  `yaml:"local"`
		Foreign string  `yaml:"foreign"`
		Ratio   float64 `yaml:"ratio"`
	} `yaml:"reference"`
	Symbols []string `yaml:"symbols"`
}

// LoadConfig loads configuration from environment variables (.env file),
// layered over the optional basket file named by BASKET_FILE.
// Precedence: environment > basket file > defaults.
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// Defaults
	cfg.Reference = domain.ReferencePair{
		LocalSymbol:   "GGAL.BA",
		ForeignSymbol: "GGAL",
		Ratio:         10, // 10 BYMA shares per NASDAQ ADR
	}
	cfg.Symbols = defaultSymbols

	// Basket file layer
	if path := getEnv("BASKET_FILE", ""); path != "" {
		if err := cfg.applyBasketFile(path); err != nil {
			return nil, fmt.Errorf("loading basket file %s: %w", path, err)
		}
	}

	// Environment layer
	cfg.Reference.LocalSymbol = getEnv("REFERENCE_LOCAL", cfg.Reference.LocalSymbol)
	cfg.Reference.ForeignSymbol = getEnv("REFERENCE_FOREIGN", cfg.Reference.ForeignSymbol)
	cfg.Reference.Ratio, err = getEnvAsFloatRequired("REFERENCE_RATIO", cfg.Reference.Ratio)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid REFERENCE_RATIO: %v", err))
	}
	if symbols := getEnvAsSlice("SYMBOLS"); len(symbols) > 0 {
		cfg.Symbols = symbols
	}

	cfg.RSIPeriod, err = getEnvAsIntRequired("RSI_PERIOD", 14)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RSI_PERIOD: %v", err))
	}
	cfg.HistoryDays, err = getEnvAsIntRequired("HISTORY_DAYS", 90)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid HISTORY_DAYS: %v", err))
	}
	cfg.Overbought = getEnvAsFloat("RSI_OVERBOUGHT", 70.0)
	cfg.Oversold = getEnvAsFloat("RSI_OVERSOLD", 30.0)
	cfg.Workers, err = getEnvAsIntRequired("WORKERS", 1)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid WORKERS: %v", err))
	}

	cfg.DBPath = getEnv("DB_PATH", "./data/screener.db")
	cfg.CSVPath = getEnv("CSV_PATH", "")
	cfg.UseCache = getEnvAsBool("USE_CACHE", true)
	cfg.WatchCron = getEnv("WATCH_CRON", "")
	cfg.Proxy = getEnv("HTTPS_PROXY", "")

	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package

	// Validation
	if cfg.Reference.LocalSymbol == "" || cfg.Reference.ForeignSymbol == "" {
		errs = append(errs, "REFERENCE_LOCAL and REFERENCE_FOREIGN must be set")
	}
	if cfg.Reference.Ratio <= 0 {
		errs = append(errs, "REFERENCE_RATIO must be positive")
	}
	if len(cfg.Symbols) == 0 {
		errs = append(errs, "SYMBOLS must list at least one ticker")
	}
	if cfg.RSIPeriod < 1 {
		errs = append(errs, "RSI_PERIOD must be at least 1")
	}
	if cfg.HistoryDays < cfg.RSIPeriod+1 {
		errs = append(errs, fmt.Sprintf("HISTORY_DAYS (%d) cannot be below RSI_PERIOD+1 (%d)", cfg.HistoryDays, cfg.RSIPeriod+1))
	}
	if cfg.Overbought <= cfg.Oversold || cfg.Overbought > 100 || cfg.Oversold < 0 {
		errs = append(errs, "invalid RSI thresholds (RSI_OVERBOUGHT must be > RSI_OVERSOLD, between 0-100)")
	}
	if cfg.Workers < 1 {
		errs = append(errs, "WORKERS must be at least 1")
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

func (c *Config) applyBasketFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read basket file: %w", err)
	}
	var basket basketFile
	if err := yaml.Unmarshal(data, &basket); err != nil {
		return fmt.Errorf("parse basket file: %w", err)
	}

	if basket.Reference.Local != "" {
		c.Reference.LocalSymbol = basket.Reference.Local
	}
	if basket.Reference.Foreign != "" {
		c.Reference.ForeignSymbol = basket.Reference.Foreign
	}
	if basket.Reference.Ratio != 0 {
		c.Reference.Ratio = basket.Reference.Ratio
	}
	if len(basket.Symbols) > 0 {
		c.Symbols = basket.Symbols
	}
	return nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Log warning? For non-required fields, default is often acceptable.
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloatRequired(key string, defaultValue float64) (float64, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsSlice(key string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return nil
	}
	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
