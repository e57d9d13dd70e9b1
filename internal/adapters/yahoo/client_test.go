package yahoo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"usdRsiScreener/internal/ports"
)

type nopLogger struct{}

func (nopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (nopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (nopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

// Trimmed-down chart payload: three sessions, the middle close is null
// (local holiday), timestamps are 2024-03-01..03 UTC.
const chartPayload = `{
  "chart": {
    "result": [{
      "timestamp": [1709251200, 1709337600, 1709424000],
      "indicators": {"quote": [{"close": [4200.5, null, 4310.0]}]}
    }],
    "error": null
  }
}`

const errorPayload = `{
  "chart": {
    "result": null,
    "error": {"code": "Not Found", "description": "No data found, symbol may be delisted"}
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(Config{Logger: nopLogger{}, BaseURL: server.URL})
	require.NoError(t, err)
	return client, server
}

func TestFetchDailyCloses(t *testing.T) {
	var gotPath string
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(chartPayload))
	})

	start := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	series, err := client.FetchDailyCloses(context.Background(), "GGAL.BA", start, end)
	require.NoError(t, err)

	assert.Equal(t, "/v8/finance/chart/GGAL.BA", gotPath)
	assert.Equal(t, "GGAL.BA", series.Symbol)

	// The null middle session is absent, not zero.
	require.Equal(t, 2, series.Len())
	assert.True(t, series.Bars[0].Date.Equal(start))
	assert.Equal(t, 4200.5, series.Bars[0].Close)
	assert.True(t, series.Bars[1].Date.Equal(end))
	assert.Equal(t, 4310.0, series.Bars[1].Close)
}

func TestFetchDailyClosesAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(errorPayload))
	})

	_, err := client.FetchDailyCloses(context.Background(), "NOPE.BA", time.Now().AddDate(0, -3, 0), time.Now())
	require.ErrorIs(t, err, ports.ErrDataUnavailable)
}

func TestFetchDailyClosesHTTPNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchDailyCloses(context.Background(), "NOPE.BA", time.Now().AddDate(0, -3, 0), time.Now())
	require.ErrorIs(t, err, ports.ErrDataUnavailable)
}

func TestNewRejectsMissingLogger(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestNewRejectsBadProxy(t *testing.T) {
	_, err := New(Config{Logger: nopLogger{}, Proxy: "://bad"})
	require.Error(t, err)
}
