// Package yahoo implements ports.MarketDataSource against the public Yahoo
// Finance chart API, which carries both BYMA tickers (".BA" suffix) and the
// US-listed ADRs used as the reference pair's foreign leg.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"usdRsiScreener/internal/domain"
	"usdRsiScreener/internal/ports"
)

const defaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds configuration for the Yahoo client.
type Config struct {
	Logger  ports.Logger
	Proxy   string        // Optional HTTPS proxy URL
	BaseURL string        // Overridable for testing; defaults to the public API
	Timeout time.Duration // HTTP timeout; defaults to 30s
}

// Client fetches daily closes from Yahoo Finance.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     ports.Logger
}

// New creates a new Yahoo Finance client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Yahoo client")
	}

	transport := &http.Transport{}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout, Transport: transport},
		baseURL:    baseURL,
		logger:     cfg.Logger,
	}, nil
}

// Name identifies the data source for logging.
func (c *Client) Name() string { return "yahoo" }

// chartResponse is the response structure of the Yahoo Finance chart API.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []interface{} `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// toFloat handles Yahoo's habit of mixing nulls and numbers in quote arrays.
func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// FetchDailyCloses retrieves the daily closing prices for a symbol over
// [start, end]. Days where Yahoo reports a null close (local holidays,
// suspended sessions) are omitted from the series entirely.
func (c *Client) FetchDailyCloses(ctx context.Context, symbol string, start, end time.Time) (domain.PriceSeries, error) {
	// period2 is exclusive on Yahoo's side, push it past the end of day.
	u := fmt.Sprintf("%s/v8/finance/chart/%s?interval=1d&period1=%d&period2=%d",
		c.baseURL, url.PathEscape(symbol), start.Unix(), end.AddDate(0, 0, 1).Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("yahoo request for %s: %w", symbol, err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.PriceSeries{}, fmt.Errorf("yahoo read body for %s: %w", symbol, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return domain.PriceSeries{}, fmt.Errorf("yahoo: unknown symbol %s: %w", symbol, ports.ErrDataUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		return domain.PriceSeries{}, fmt.Errorf("yahoo: status %d for %s: %s", resp.StatusCode, symbol, string(body))
	}

	var chart chartResponse
	if err := json.Unmarshal(body, &chart); err != nil {
		return domain.PriceSeries{}, fmt.Errorf("yahoo decode for %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return domain.PriceSeries{}, fmt.Errorf("yahoo api error for %s (%s): %s: %w",
			symbol, chart.Chart.Error.Code, chart.Chart.Error.Description, ports.ErrDataUnavailable)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Timestamp) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("yahoo: no data returned for %s: %w", symbol, ports.ErrDataUnavailable)
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return domain.PriceSeries{}, fmt.Errorf("yahoo: missing quote block for %s: %w", symbol, ports.ErrDataUnavailable)
	}
	quote := result.Indicators.Quote[0]

	series := domain.PriceSeries{Symbol: symbol, Bars: make([]domain.PriceBar, 0, len(result.Timestamp))}
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		closePx := toFloat(quote.Close[i])
		if closePx <= 0 {
			continue // null bar (holiday) or junk tick
		}
		series.Bars = append(series.Bars, domain.PriceBar{
			Date:  domain.Day(time.Unix(ts, 0)),
			Close: closePx,
		})
	}

	sort.Slice(series.Bars, func(i, j int) bool { return series.Bars[i].Date.Before(series.Bars[j].Date) })
	series.Bars = dedupeByDate(series.Bars)

	c.logger.Debug(ctx, "Fetched daily closes", map[string]interface{}{
		"symbol": symbol,
		"bars":   len(series.Bars),
	})
	return series, nil
}

// dedupeByDate keeps the last bar for each day. Yahoo occasionally repeats
// the current session's timestamp in intraday-adjacent responses.
func dedupeByDate(bars []domain.PriceBar) []domain.PriceBar {
	out := bars[:0]
	for _, b := range bars {
		if len(out) > 0 && out[len(out)-1].Date.Equal(b.Date) {
			out[len(out)-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
