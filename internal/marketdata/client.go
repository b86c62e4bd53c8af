package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/folioscope/folioscope/internal/contracts"
	"github.com/folioscope/folioscope/pkg/config"
	"github.com/folioscope/folioscope/pkg/httputil"
	"github.com/folioscope/folioscope/pkg/logger"
	"github.com/folioscope/folioscope/pkg/redis"
)

// Client fetches daily price data from the financialdatasets.ai REST API.
// All provider calls go through this client.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cache      *redis.Cache
	baseURL    string
	apiKey     string
}

// NewClient creates a provider client. The cache may be nil; caching then
// degrades to pass-through.
func NewClient(cfg config.MarketDataConfig, log *logger.Logger, cache *redis.Cache) *Client {
	httpClient := httputil.NewWithTimeout(log, cfg.FetchTimeout)
	if cfg.RateLimit > 0 {
		httpClient = httpClient.WithRateLimit(cfg.RateLimit)
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		cache:      cache,
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
	}
}

// priceResponse mirrors the provider's /prices payload.
type priceResponse struct {
	Prices []struct {
		Open   float64 `json:"open"`
		High   float64 `json:"high"`
		Low    float64 `json:"low"`
		Close  float64 `json:"close"`
		Volume int64   `json:"volume"`
		Time   string  `json:"time"`
	} `json:"prices"`
}

// FetchPriceHistory retrieves daily prices for a ticker over [from, to].
// An empty result is not an error; callers decide whether a gap matters.
func (c *Client) FetchPriceHistory(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PricePoint, error) {
	ticker = contracts.CanonicalTicker(ticker)
	fromStr := from.Format("2006-01-02")
	toStr := to.Format("2006-01-02")

	if c.cache != nil {
		key := redis.PriceHistoryKey(ticker, fromStr, toStr)
		var cached []contracts.PricePoint
		if found, err := c.cache.Get(ctx, key, &cached); err == nil && found {
			return cached, nil
		}
	}

	params := url.Values{}
	params.Set("ticker", ticker)
	params.Set("interval", "day")
	params.Set("start_date", fromStr)
	params.Set("end_date", toStr)

	body, err := c.get(ctx, "/prices/", params)
	if err != nil {
		return nil, err
	}

	var payload priceResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode price response for %s: %w", ticker, err)
	}

	points := make([]contracts.PricePoint, 0, len(payload.Prices))
	for _, p := range payload.Prices {
		date, err := parsePriceTime(p.Time)
		if err != nil {
			c.logger.WithField("ticker", ticker).WithError(err).Warn("Skipping price record with unparseable time")
			continue
		}
		points = append(points, contracts.PricePoint{
			Ticker: ticker,
			Date:   date,
			Open:   p.Open,
			High:   p.High,
			Low:    p.Low,
			Close:  p.Close,
			Volume: p.Volume,
		})
	}

	if c.cache != nil && len(points) > 0 {
		// A range ending before today can no longer change.
		ttl := redis.TTLMedium
		if to.Before(time.Now().UTC().Truncate(24 * time.Hour)) {
			ttl = redis.TTLDaily
		}
		key := redis.PriceHistoryKey(ticker, fromStr, toStr)
		if err := c.cache.Set(ctx, key, points, ttl); err != nil {
			c.logger.WithError(err).Warn("Failed to cache price history")
		}
	}

	return points, nil
}

// FetchLatestPrice retrieves today's price record for a ticker, or nil when
// the provider has none yet (market closed, unknown ticker). Hits are cached
// briefly so repeated collects within a run stay off the provider.
func (c *Client) FetchLatestPrice(ctx context.Context, ticker string, today time.Time) (*contracts.PricePoint, error) {
	ticker = contracts.CanonicalTicker(ticker)

	if c.cache != nil {
		var cached contracts.PricePoint
		if found, err := c.cache.Get(ctx, redis.LatestPriceKey(ticker), &cached); err == nil && found {
			return &cached, nil
		}
	}

	points, err := c.FetchPriceHistory(ctx, ticker, today, today)
	if err != nil {
		return nil, err
	}
	if len(points) == 0 {
		return nil, nil
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, redis.LatestPriceKey(ticker), points[0], redis.TTLShort); err != nil {
			c.logger.WithError(err).Warn("Failed to cache latest price")
		}
	}
	return &points[0], nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	resp, err := c.httpClient.GetWithHeaders(ctx, fullURL, map[string]string{
		"X-API-KEY": c.apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}
	return body, nil
}

// parsePriceTime accepts the provider's timestamp formats, date-only and
// RFC 3339.
func parsePriceTime(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
