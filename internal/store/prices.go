package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folioscope/folioscope/internal/contracts"
)

// PriceRepository implements contracts.PriceRepository on Postgres. Held
// instruments and the benchmark live in separate tables with the same
// shape, so each method pair shares an implementation parameterized by
// table name.
type PriceRepository struct {
	pool *pgxpool.Pool
}

// NewPriceRepository creates a new price repository.
func NewPriceRepository(pool *pgxpool.Pool) *PriceRepository {
	return &PriceRepository{pool: pool}
}

// GetHistory retrieves daily prices for a held instrument within [from, to].
func (r *PriceRepository) GetHistory(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PricePoint, error) {
	return r.history(ctx, "price_history", ticker, from, to)
}

// GetBenchmarkHistory retrieves daily benchmark prices within [from, to].
func (r *PriceRepository) GetBenchmarkHistory(ctx context.Context, ticker string, from, to time.Time) ([]contracts.PricePoint, error) {
	return r.history(ctx, "benchmark_history", ticker, from, to)
}

func (r *PriceRepository) history(ctx context.Context, table, ticker string, from, to time.Time) ([]contracts.PricePoint, error) {
	query := fmt.Sprintf(`
		SELECT ticker, date, open, high, low, close, volume
		FROM %s
		WHERE ticker = $1 AND date BETWEEN $2 AND $3
		ORDER BY date ASC
	`, table)

	rows, err := r.pool.Query(ctx, query, contracts.CanonicalTicker(ticker), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	var points []contracts.PricePoint
	for rows.Next() {
		var p contracts.PricePoint
		if err := rows.Scan(&p.Ticker, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// TickersWithPriceOn returns the set of tickers that already have a record
// for the given date, in either table. Used to skip redundant provider
// calls, so the benchmark counts too.
func (r *PriceRepository) TickersWithPriceOn(ctx context.Context, date time.Time) (map[string]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ticker FROM price_history WHERE date = $1
		UNION
		SELECT ticker FROM benchmark_history WHERE date = $1
	`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to query priced tickers: %w", err)
	}
	defer rows.Close()

	tickers := make(map[string]bool)
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers[ticker] = true
	}
	return tickers, rows.Err()
}

// Save upserts a single held-instrument price record.
func (r *PriceRepository) Save(ctx context.Context, p *contracts.PricePoint) error {
	return r.save(ctx, "price_history", p)
}

// SaveBenchmark upserts a single benchmark price record.
func (r *PriceRepository) SaveBenchmark(ctx context.Context, p *contracts.PricePoint) error {
	return r.save(ctx, "benchmark_history", p)
}

func (r *PriceRepository) save(ctx context.Context, table string, p *contracts.PricePoint) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (ticker, date, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, date) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`, table)

	_, err := r.pool.Exec(ctx, query,
		contracts.CanonicalTicker(p.Ticker), p.Date, p.Open, p.High, p.Low, p.Close, p.Volume,
	)
	if err != nil {
		return fmt.Errorf("failed to save price to %s: %w", table, err)
	}
	return nil
}
