package collector

import (
	"context"
	"sync"
	"time"

	"github.com/folioscope/folioscope/internal/contracts"
	"github.com/folioscope/folioscope/internal/engine"
	"github.com/folioscope/folioscope/internal/marketdata"
	"github.com/folioscope/folioscope/pkg/logger"
)

// Collector orchestrates the daily price update: fetch the latest close for
// every held ticker plus the benchmark, persist it, then refresh the cached
// valuation columns. All price collection goes through this package.
type Collector struct {
	provider  *marketdata.Client
	positions contracts.PositionRepository
	prices    contracts.PriceRepository
	settings  contracts.SettingsRepository
	logger    *logger.Logger
}

// Config holds collector configuration.
type Config struct {
	Workers      int           // concurrent fetch workers
	FetchTimeout time.Duration // per-ticker timeout
}

// New creates a new Collector.
func New(
	provider *marketdata.Client,
	positions contracts.PositionRepository,
	prices contracts.PriceRepository,
	settings contracts.SettingsRepository,
	log *logger.Logger,
) *Collector {
	return &Collector{
		provider:  provider,
		positions: positions,
		prices:    prices,
		settings:  settings,
		logger:    log.WithField("module", "collector"),
	}
}

// FetchResult is the outcome of one ticker's update.
type FetchResult struct {
	Ticker string
	Close  float64
	Saved  bool
	Error  error
}

// UpdatePrices fetches today's close for every held ticker and the
// benchmark, skipping tickers already priced today. A per-ticker failure
// degrades that ticker; the run fails only when every fetch failed.
func (c *Collector) UpdatePrices(ctx context.Context, cfg Config) ([]FetchResult, error) {
	positions, err := c.positions.List(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := c.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	benchmark := contracts.CanonicalTicker(settings.BenchmarkTicker)

	today := engine.Day(time.Now().UTC())

	// Dedup tickers across positions, then append the benchmark.
	seen := make(map[string]bool, len(positions)+1)
	tickers := make([]string, 0, len(positions)+1)
	for _, pos := range positions {
		ticker := contracts.CanonicalTicker(pos.Ticker)
		if !seen[ticker] {
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
	}
	if benchmark != "" && !seen[benchmark] {
		tickers = append(tickers, benchmark)
	}

	alreadyPriced, err := c.prices.TickersWithPriceOn(ctx, today)
	if err != nil {
		return nil, err
	}

	pending := make([]string, 0, len(tickers))
	for _, ticker := range tickers {
		if !alreadyPriced[ticker] {
			pending = append(pending, ticker)
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"pending": len(pending),
		"workers": cfg.Workers,
		"date":    today.Format("2006-01-02"),
	}).Info("Starting price update")

	if len(pending) == 0 {
		c.logger.Info("Prices already up to date for today")
		return nil, nil
	}

	results := c.fetchAll(ctx, pending, benchmark, today, cfg)

	successCount := 0
	for _, result := range results {
		if result.Error == nil && result.Saved {
			successCount++
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"failed":  len(results) - successCount,
	}).Info("Price update completed")

	if successCount == 0 {
		return results, contracts.ErrAllFetchesFailed
	}

	if err := c.refreshValuations(ctx, positions, results); err != nil {
		return results, err
	}

	if err := c.settings.TouchPriceUpdate(ctx, time.Now().UTC()); err != nil {
		c.logger.WithError(err).Warn("Failed to stamp price update time")
	}

	return results, nil
}

// fetchAll runs the fetch/save worker pool and joins on completion.
func (c *Collector) fetchAll(ctx context.Context, tickers []string, benchmark string, today time.Time, cfg Config) []FetchResult {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	tickerCh := make(chan string, len(tickers))
	resultCh := make(chan FetchResult, len(tickers))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.fetchWorker(ctx, workerID, tickerCh, resultCh, benchmark, today, cfg.FetchTimeout)
		}(i)
	}

	for _, ticker := range tickers {
		tickerCh <- ticker
	}
	close(tickerCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]FetchResult, 0, len(tickers))
	for result := range resultCh {
		results = append(results, result)
	}
	return results
}

func (c *Collector) fetchWorker(ctx context.Context, workerID int, tickerCh <-chan string, resultCh chan<- FetchResult, benchmark string, today time.Time, timeout time.Duration) {
	for ticker := range tickerCh {
		select {
		case <-ctx.Done():
			resultCh <- FetchResult{Ticker: ticker, Error: ctx.Err()}
			return
		default:
		}

		resultCh <- c.fetchOne(ctx, workerID, ticker, benchmark, today, timeout)
	}
}

func (c *Collector) fetchOne(ctx context.Context, workerID int, ticker, benchmark string, today time.Time, timeout time.Duration) FetchResult {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	point, err := c.provider.FetchLatestPrice(ctx, ticker, today)
	if err != nil {
		c.logger.WithError(err).WithFields(map[string]interface{}{
			"worker": workerID,
			"ticker": ticker,
		}).Error("Failed to fetch price")
		return FetchResult{Ticker: ticker, Error: err}
	}
	if point == nil {
		c.logger.WithField("ticker", ticker).Debug("No price returned")
		return FetchResult{Ticker: ticker}
	}

	var saveErr error
	if ticker == benchmark {
		saveErr = c.prices.SaveBenchmark(ctx, point)
	} else {
		saveErr = c.prices.Save(ctx, point)
	}
	if saveErr != nil {
		c.logger.WithError(saveErr).WithField("ticker", ticker).Error("Failed to save price")
		return FetchResult{Ticker: ticker, Close: point.Close, Error: saveErr}
	}

	return FetchResult{Ticker: ticker, Close: point.Close, Saved: true}
}

// refreshValuations recomputes current price, market value and weight for
// every position from the fetch results, falling back to the stored current
// price for tickers that did not update.
func (c *Collector) refreshValuations(ctx context.Context, positions []contracts.Position, results []FetchResult) error {
	latest := make(map[string]float64, len(results))
	for _, result := range results {
		if result.Error == nil && result.Saved {
			latest[result.Ticker] = result.Close
		}
	}

	priceFor := func(pos contracts.Position) float64 {
		if price, ok := latest[contracts.CanonicalTicker(pos.Ticker)]; ok {
			return price
		}
		return pos.CurrentPrice
	}

	totalValue := 0.0
	for _, pos := range positions {
		if price := priceFor(pos); price > 0 {
			totalValue += price * pos.Shares
		}
	}

	for _, pos := range positions {
		price := priceFor(pos)
		if price <= 0 {
			continue
		}
		marketValue := price * pos.Shares
		weight := 0.0
		if totalValue > 0 {
			weight = marketValue / totalValue * 100
		}
		if err := c.positions.UpdateValuation(ctx, pos.ID, price, marketValue, weight); err != nil {
			c.logger.WithError(err).WithField("ticker", pos.Ticker).Error("Failed to update valuation")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"total_value": totalValue,
		"positions":   len(positions),
	}).Info("Valuations refreshed")

	return nil
}

// Backfill fetches full daily history for every held ticker and the
// benchmark over [from, to] and persists it. Used to seed a new deployment.
func (c *Collector) Backfill(ctx context.Context, from, to time.Time, cfg Config) error {
	positions, err := c.positions.List(ctx)
	if err != nil {
		return err
	}
	settings, err := c.settings.Get(ctx)
	if err != nil {
		return err
	}
	benchmark := contracts.CanonicalTicker(settings.BenchmarkTicker)

	seen := make(map[string]bool)
	tickers := make([]string, 0, len(positions)+1)
	for _, pos := range positions {
		ticker := contracts.CanonicalTicker(pos.Ticker)
		if !seen[ticker] {
			seen[ticker] = true
			tickers = append(tickers, ticker)
		}
	}
	if benchmark != "" && !seen[benchmark] {
		tickers = append(tickers, benchmark)
	}

	c.logger.WithFields(map[string]interface{}{
		"tickers": len(tickers),
		"from":    from.Format("2006-01-02"),
		"to":      to.Format("2006-01-02"),
	}).Info("Starting history backfill")

	failures := 0
	for _, ticker := range tickers {
		history, err := c.provider.FetchPriceHistory(ctx, ticker, from, to)
		if err != nil {
			c.logger.WithError(err).WithField("ticker", ticker).Error("Failed to backfill ticker")
			failures++
			continue
		}
		for i := range history {
			var saveErr error
			if ticker == benchmark {
				saveErr = c.prices.SaveBenchmark(ctx, &history[i])
			} else {
				saveErr = c.prices.Save(ctx, &history[i])
			}
			if saveErr != nil {
				c.logger.WithError(saveErr).WithField("ticker", ticker).Error("Failed to save backfill record")
				failures++
				break
			}
		}
	}

	if failures == len(tickers) && len(tickers) > 0 {
		return contracts.ErrAllFetchesFailed
	}
	return nil
}
