package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioscope/folioscope/pkg/config"
	"github.com/folioscope/folioscope/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{LogLevel: "error", LogFormat: "console"})
}

func newTestClient(serverURL string) *Client {
	return NewClient(config.MarketDataConfig{
		BaseURL:      serverURL,
		APIKey:       "test-key",
		FetchTimeout: 5 * time.Second,
	}, testLogger(), nil)
}

func TestFetchPriceHistory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "AAPL", r.URL.Query().Get("ticker"))
		assert.Equal(t, "day", r.URL.Query().Get("interval"))
		assert.Equal(t, "2026-03-02", r.URL.Query().Get("start_date"))

		fmt.Fprint(w, `{"prices":[
			{"open":99.5,"high":101.0,"low":99.0,"close":100.5,"volume":1200000,"time":"2026-03-02"},
			{"open":100.5,"high":102.0,"low":100.0,"close":101.5,"volume":900000,"time":"2026-03-03T00:00:00Z"}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	points, err := client.FetchPriceHistory(context.Background(), "aapl",
		time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "AAPL", points[0].Ticker)
	assert.Equal(t, 100.5, points[0].Close)
	assert.Equal(t, int64(1200000), points[0].Volume)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), points[0].Date)
	// RFC 3339 timestamps collapse to the calendar date.
	assert.Equal(t, time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), points[1].Date)
}

func TestFetchLatestPriceEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prices":[]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	point, err := client.FetchLatestPrice(context.Background(), "AAPL", time.Now().UTC())
	require.NoError(t, err)
	assert.Nil(t, point, "no price yet is not an error")
}

func TestFetchPriceHistoryUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchPriceHistory(context.Background(), "NOPE",
		time.Now().UTC(), time.Now().UTC())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchPriceHistorySkipsBadTimestamps(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"prices":[
			{"open":1,"high":1,"low":1,"close":1,"volume":1,"time":"not-a-date"},
			{"open":2,"high":2,"low":2,"close":2,"volume":2,"time":"2026-03-02"}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	points, err := client.FetchPriceHistory(context.Background(), "AAPL",
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 2.0, points[0].Close)
}
