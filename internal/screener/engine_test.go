package screener

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usdRsiScreener/internal/domain"
	"usdRsiScreener/internal/ports"
)

// mockLogger implements ports.Logger for testing
type mockLogger struct {
	warnMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.warnMsgs = append(m.warnMsgs, msg)
}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// mockSource implements ports.MarketDataSource from canned per-symbol series.
type mockSource struct {
	series map[string]domain.PriceSeries
	errs   map[string]error
}

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	if err, ok := m.errs[symbol]; ok {
		return domain.PriceSeries{}, err
	}
	s, ok := m.series[symbol]
	if !ok {
		return domain.PriceSeries{}, fmt.Errorf("mock has no data for %s: %w", symbol, ports.ErrDataUnavailable)
	}
	return s, nil
}

func day(n int) time.Time {
	return time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func series(symbol string, closes ...float64) domain.PriceSeries {
	s := domain.PriceSeries{Symbol: symbol}
	for i, c := range closes {
		s.Bars = append(s.Bars, domain.PriceBar{Date: day(i), Close: c})
	}
	return s
}

func validConfig() Config {
	return Config{
		Reference: domain.ReferencePair{
			LocalSymbol:   "GGAL.BA",
			ForeignSymbol: "GGAL",
			Ratio:         1,
		},
		Symbols:    []string{"GGAL.BA"},
		Period:     3,
		Overbought: 70,
		Oversold:   30,
	}
}

func TestNew(t *testing.T) {
	source := &mockSource{}

	tests := []struct {
		name    string
		mutate  func(*Config)
		logger  ports.Logger
		source  ports.MarketDataSource
		wantErr error
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
			logger: &mockLogger{},
			source: source,
		},
		{
			name:    "nil logger",
			mutate:  func(c *Config) {},
			source:  source,
			wantErr: nil, // plain error, not a sentinel
		},
		{
			name:    "zero period",
			mutate:  func(c *Config) { c.Period = 0 },
			logger:  &mockLogger{},
			source:  source,
			wantErr: ports.ErrInvalidConfiguration,
		},
		{
			name:    "negative ratio",
			mutate:  func(c *Config) { c.Reference.Ratio = -10 },
			logger:  &mockLogger{},
			source:  source,
			wantErr: ports.ErrInvalidConfiguration,
		},
		{
			name:    "empty symbol set",
			mutate:  func(c *Config) { c.Symbols = nil },
			logger:  &mockLogger{},
			source:  source,
			wantErr: ports.ErrInvalidConfiguration,
		},
		{
			name:    "missing reference symbols",
			mutate:  func(c *Config) { c.Reference.LocalSymbol = "" },
			logger:  &mockLogger{},
			source:  source,
			wantErr: ports.ErrInvalidConfiguration,
		},
		{
			name:    "inverted thresholds",
			mutate:  func(c *Config) { c.Overbought, c.Oversold = 30, 70 },
			logger:  &mockLogger{},
			source:  source,
			wantErr: ports.ErrInvalidConfiguration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			engine, err := New(cfg, tt.logger, tt.source)
			if tt.logger == nil || tt.source == nil {
				require.Error(t, err)
				return
			}
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, engine)
		})
	}
}

func TestRunComputesRSIInHardCurrency(t *testing.T) {
	// Foreign leg constant at 1 with ratio 1, so the rate equals the local
	// leg and a target priced like the local leg converts to a flat 1.
	source := &mockSource{series: map[string]domain.PriceSeries{
		"GGAL.BA": series("GGAL.BA", 100, 102, 101, 105, 107),
		"GGAL":    series("GGAL", 1, 1, 1, 1, 1),
	}}
	cfg := validConfig()

	engine, err := New(cfg, &mockLogger{}, source)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), day(0), day(4))
	require.NoError(t, err)

	require.Equal(t, 5, result.Rate.Len())
	assert.Equal(t, []float64{100, 102, 101, 105, 107}, result.Rate.Closes())

	require.Len(t, result.Reports, 1)
	report := result.Reports[0]
	require.Equal(t, domain.StatusComputed, report.Status)
	require.NotNil(t, report.RSI)

	// 5 converted points, period 3: RSI defined on the last two dates.
	require.Len(t, report.RSI.Points, 2)
	assert.True(t, report.RSI.Points[0].Date.Equal(day(3)))
	assert.True(t, report.RSI.Points[1].Date.Equal(day(4)))
	// Flat converted series stays neutral.
	assert.Equal(t, 50.0, report.RSI.Points[0].Value)
	assert.Equal(t, 50.0, report.RSI.Points[1].Value)

	assert.Equal(t, 107.0, report.LastLocalClose)
	assert.InEpsilon(t, 1.0, report.LastUSDClose, 1e-12)
	assert.Equal(t, domain.SignalNeutral, report.Signal)
}

func TestRunPartialFailure(t *testing.T) {
	source := &mockSource{
		series: map[string]domain.PriceSeries{
			"GGAL.BA": series("GGAL.BA", 100, 102, 101, 105, 107),
			"GGAL":    series("GGAL", 1, 1, 1, 1, 1),
			"YPFD.BA": series("YPFD.BA", 200, 210, 220, 230, 240),
			"EDN.BA":  {Symbol: "EDN.BA"}, // no bars at all
		},
		errs: map[string]error{
			"BMA.BA": fmt.Errorf("provider outage: %w", ports.ErrDataUnavailable),
		},
	}
	cfg := validConfig()
	cfg.Symbols = []string{"GGAL.BA", "YPFD.BA", "EDN.BA", "BMA.BA"}

	engine, err := New(cfg, &mockLogger{}, source)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), day(0), day(4))
	require.NoError(t, err, "one bad symbol must not abort the batch")

	require.Len(t, result.Reports, 4)
	byStatus := map[domain.SymbolStatus][]string{}
	for _, r := range result.Reports {
		byStatus[r.Status] = append(byStatus[r.Status], r.Symbol)
	}
	assert.ElementsMatch(t, []string{"GGAL.BA", "YPFD.BA"}, byStatus[domain.StatusComputed])
	assert.ElementsMatch(t, []string{"EDN.BA", "BMA.BA"}, byStatus[domain.StatusUnavailable])

	// Request order is preserved regardless of outcome.
	for i, symbol := range cfg.Symbols {
		assert.Equal(t, symbol, result.Reports[i].Symbol)
	}
	// A strictly rising target against a flat rate pins RSI at 100.
	assert.Equal(t, 100.0, result.Reports[1].LastRSI)
	assert.Equal(t, domain.SignalOverbought, result.Reports[1].Signal)
}

func TestRunInsufficientHistory(t *testing.T) {
	short := domain.PriceSeries{Symbol: "LOMA.BA", Bars: []domain.PriceBar{
		{Date: day(0), Close: 10},
		{Date: day(1), Close: 11},
	}}
	source := &mockSource{series: map[string]domain.PriceSeries{
		"GGAL.BA": series("GGAL.BA", 100, 102, 101, 105, 107),
		"GGAL":    series("GGAL", 1, 1, 1, 1, 1),
		"LOMA.BA": short,
	}}
	cfg := validConfig()
	cfg.Symbols = []string{"LOMA.BA"}

	engine, err := New(cfg, &mockLogger{}, source)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), day(0), day(4))
	require.NoError(t, err)

	require.Len(t, result.Reports, 1)
	report := result.Reports[0]
	assert.Equal(t, domain.StatusInsufficient, report.Status)
	assert.Nil(t, report.RSI)
	assert.NotEmpty(t, report.Reason)
}

func TestRunReferenceUnavailable(t *testing.T) {
	t.Run("missing foreign leg", func(t *testing.T) {
		source := &mockSource{series: map[string]domain.PriceSeries{
			"GGAL.BA": series("GGAL.BA", 100, 102),
		}}
		engine, err := New(validConfig(), &mockLogger{}, source)
		require.NoError(t, err)

		_, err = engine.Run(context.Background(), day(0), day(4))
		require.ErrorIs(t, err, ports.ErrDataUnavailable)
	})

	t.Run("legs share no dates", func(t *testing.T) {
		foreign := domain.PriceSeries{Symbol: "GGAL", Bars: []domain.PriceBar{
			{Date: day(10), Close: 30},
		}}
		source := &mockSource{series: map[string]domain.PriceSeries{
			"GGAL.BA": series("GGAL.BA", 100, 102),
			"GGAL":    foreign,
		}}
		engine, err := New(validConfig(), &mockLogger{}, source)
		require.NoError(t, err)

		_, err = engine.Run(context.Background(), day(0), day(10))
		require.ErrorIs(t, err, ports.ErrDataUnavailable)
	})
}

func TestRunParallelMatchesSequential(t *testing.T) {
	seriesBySymbol := map[string]domain.PriceSeries{
		"GGAL.BA": series("GGAL.BA", 100, 102, 101, 105, 107, 106, 109),
		"GGAL":    series("GGAL", 34, 35, 33, 36, 37, 36, 38),
	}
	symbols := []string{"GGAL.BA", "YPFD.BA", "BMA.BA", "CEPU.BA", "TXAR.BA", "MISSING.BA"}
	base := 50.0
	for _, sym := range symbols[1 : len(symbols)-1] {
		closes := make([]float64, 7)
		for i := range closes {
			closes[i] = base + float64(i*3%5)
		}
		seriesBySymbol[sym] = series(sym, closes...)
		base += 25
	}

	cfg := validConfig()
	cfg.Reference.Ratio = 10
	cfg.Symbols = symbols

	run := func(workers int) *domain.BatchResult {
		cfg := cfg
		cfg.Workers = workers
		engine, err := New(cfg, &mockLogger{}, &mockSource{series: seriesBySymbol})
		require.NoError(t, err)
		result, err := engine.Run(context.Background(), day(0), day(6))
		require.NoError(t, err)
		return result
	}

	sequential := run(1)
	parallel := run(4)

	assert.Equal(t, sequential.Reports, parallel.Reports)
	assert.Equal(t, sequential.Rate, parallel.Rate)
}
