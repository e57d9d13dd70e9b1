// Package sqlite persists the daily-bar cache and the history of screener
// runs. The cache lets repeated runs over the same range skip the network,
// and the run history leaves an auditable trail in watch mode.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"usdRsiScreener/internal/domain"
	"usdRsiScreener/internal/ports"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const dateFormat = "2006-01-02"

// Repository implements ports.BarRepository and ports.RunRepository using SQLite.
type Repository struct {
	db     *sql.DB
	logger ports.Logger
}

// Config holds configuration for the SQLite repository.
type Config struct {
	DBPath string
	Logger ports.Logger
}

// NewRepository creates a new SQLite repository instance.
func NewRepository(cfg Config) (*Repository, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for SQLite repository")
	}
	dbPath := cfg.DBPath
	if dbPath == "" {
		dbPath = "./data/screener.db" // Default path
	}

	// Create data directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		err = fmt.Errorf("failed to create data directory '%s': %w", filepath.Dir(dbPath), err)
		cfg.Logger.Error(context.Background(), err, "SQLite repository initialization failed")
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000") // WAL mode for better concurrency
	if err != nil {
		return nil, fmt.Errorf("failed to open database at '%s': %w: %w", dbPath, err, ports.ErrDBConnection)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database at '%s': %w: %w", dbPath, err, ports.ErrDBConnection)
	}

	// SQLite handles concurrency internally, the Go driver benefits from limiting connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	repo := &Repository{db: db, logger: cfg.Logger}
	if err := repo.initializeSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}
	cfg.Logger.Info(context.Background(), "SQLite database ready", map[string]interface{}{"path": dbPath})
	return repo, nil
}

func (r *Repository) initializeSchema(ctx context.Context) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS daily_bars (
		symbol TEXT NOT NULL,
		date TEXT NOT NULL,
		close REAL NOT NULL,
		PRIMARY KEY (symbol, date)
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		generated_at TIMESTAMP NOT NULL,
		rate_points INTEGER NOT NULL,
		last_rate REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL,
		symbol TEXT NOT NULL,
		status TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		last_local_close REAL NOT NULL DEFAULT 0,
		last_usd_close REAL NOT NULL DEFAULT 0,
		last_rsi REAL NOT NULL DEFAULT 0,
		signal TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_daily_bars_symbol_date ON daily_bars (symbol, date);
	CREATE INDEX IF NOT EXISTS idx_run_reports_run_id ON run_reports (run_id);
	`
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to execute schema initialization: %w: %w", err, ports.ErrQueryFailed)
	}
	return nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	if r.db != nil {
		r.logger.Info(context.Background(), "Closing SQLite database connection")
		return r.db.Close()
	}
	return nil
}

// --- BarRepository implementation ---

// SaveBars upserts the bars of a series, keyed by (symbol, date).
func (r *Repository) SaveBars(ctx context.Context, series domain.PriceSeries) error {
	if series.IsEmpty() {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin bar upsert for %s: %w: %w", series.Symbol, err, ports.ErrQueryFailed)
	}
	defer tx.Rollback()

	const query = `
	INSERT INTO daily_bars (symbol, date, close) VALUES (?, ?, ?)
	ON CONFLICT(symbol, date) DO UPDATE SET close = excluded.close`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare bar upsert for %s: %w: %w", series.Symbol, err, ports.ErrQueryFailed)
	}
	defer stmt.Close()

	for _, bar := range series.Bars {
		if _, err := stmt.ExecContext(ctx, series.Symbol, bar.Date.Format(dateFormat), bar.Close); err != nil {
			return fmt.Errorf("failed to upsert bar %s %s: %w: %w",
				series.Symbol, bar.Date.Format(dateFormat), err, ports.ErrQueryFailed)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bar upsert for %s: %w: %w", series.Symbol, err, ports.ErrQueryFailed)
	}
	r.logger.Debug(ctx, "Bars cached", map[string]interface{}{"symbol": series.Symbol, "count": series.Len()})
	return nil
}

// LoadBars retrieves cached bars for a symbol over [start, end], date ascending.
func (r *Repository) LoadBars(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	const query = `
	SELECT date, close FROM daily_bars
	WHERE symbol = ? AND date >= ? AND date <= ?
	ORDER BY date ASC`

	rows, err := r.db.QueryContext(ctx, query, symbol,
		domain.Day(start).Format(dateFormat), domain.Day(end).Format(dateFormat))
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("failed to query bars for %s: %w: %w", symbol, err, ports.ErrQueryFailed)
	}
	defer rows.Close()

	series := domain.PriceSeries{Symbol: symbol}
	for rows.Next() {
		var dateStr string
		var closePx float64
		if err := rows.Scan(&dateStr, &closePx); err != nil {
			return domain.PriceSeries{}, fmt.Errorf("failed to scan bar for %s: %w: %w", symbol, err, ports.ErrQueryFailed)
		}
		date, err := time.ParseInLocation(dateFormat, dateStr, time.UTC)
		if err != nil {
			return domain.PriceSeries{}, fmt.Errorf("corrupt date %q cached for %s: %w", dateStr, symbol, err)
		}
		series.Bars = append(series.Bars, domain.PriceBar{Date: date, Close: closePx})
	}
	if err := rows.Err(); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("error iterating bars for %s: %w: %w", symbol, err, ports.ErrQueryFailed)
	}
	return series, nil
}

// DateRange returns the earliest and latest cached dates for a symbol.
func (r *Repository) DateRange(ctx context.Context, symbol string) (time.Time, time.Time, bool, error) {
	const query = `SELECT MIN(date), MAX(date) FROM daily_bars WHERE symbol = ?`

	var firstStr, lastStr sql.NullString
	if err := r.db.QueryRowContext(ctx, query, symbol).Scan(&firstStr, &lastStr); err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("failed to query date range for %s: %w: %w", symbol, err, ports.ErrQueryFailed)
	}
	if !firstStr.Valid || !lastStr.Valid {
		return time.Time{}, time.Time{}, false, nil
	}
	first, err := time.ParseInLocation(dateFormat, firstStr.String, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("corrupt date %q cached for %s: %w", firstStr.String, symbol, err)
	}
	last, err := time.ParseInLocation(dateFormat, lastStr.String, time.UTC)
	if err != nil {
		return time.Time{}, time.Time{}, false, fmt.Errorf("corrupt date %q cached for %s: %w", lastStr.String, symbol, err)
	}
	return first, last, true, nil
}

// --- RunRepository implementation ---

// SaveRun persists the per-symbol outcomes of one batch and returns the run ID.
func (r *Repository) SaveRun(ctx context.Context, result *domain.BatchResult) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin run insert: %w: %w", err, ports.ErrQueryFailed)
	}
	defer tx.Rollback()

	lastRate, _ := result.Rate.Last()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO runs (generated_at, rate_points, last_rate) VALUES (?, ?, ?)`,
		result.GeneratedAt, result.Rate.Len(), lastRate.Close)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w: %w", err, ports.ErrQueryFailed)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w: %w", err, ports.ErrQueryFailed)
	}

	const reportQuery = `
	INSERT INTO run_reports (run_id, symbol, status, reason, last_local_close, last_usd_close, last_rsi, signal)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	for _, report := range result.Reports {
		if _, err := tx.ExecContext(ctx, reportQuery,
			runID, report.Symbol, string(report.Status), report.Reason,
			report.LastLocalClose, report.LastUSDClose, report.LastRSI, string(report.Signal)); err != nil {
			return 0, fmt.Errorf("failed to insert report for %s: %w: %w", report.Symbol, err, ports.ErrQueryFailed)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w: %w", err, ports.ErrQueryFailed)
	}
	r.logger.Debug(ctx, "Run recorded", map[string]interface{}{"runID": runID, "reports": len(result.Reports)})
	return runID, nil
}
