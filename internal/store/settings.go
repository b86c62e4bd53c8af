package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folioscope/folioscope/internal/contracts"
)

// SettingsRepository implements contracts.SettingsRepository. The settings
// table holds exactly one row.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository creates a new settings repository.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// Get retrieves the settings row.
func (r *SettingsRepository) Get(ctx context.Context) (*contracts.Settings, error) {
	query := `
		SELECT benchmark_ticker, risk_free_rate, report_day,
		       last_price_update, last_report_generation
		FROM settings
		LIMIT 1
	`

	var s contracts.Settings
	err := r.pool.QueryRow(ctx, query).Scan(
		&s.BenchmarkTicker, &s.RiskFreeRate, &s.ReportDay,
		&s.LastPriceUpdate, &s.LastReportGeneration,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, contracts.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &s, nil
}

// TouchPriceUpdate stamps the last successful price update.
func (r *SettingsRepository) TouchPriceUpdate(ctx context.Context, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE settings SET last_price_update = $1`, at)
	if err != nil {
		return fmt.Errorf("failed to stamp price update: %w", err)
	}
	return nil
}

// TouchReportGeneration stamps the last successful report generation.
func (r *SettingsRepository) TouchReportGeneration(ctx context.Context, at time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE settings SET last_report_generation = $1`, at)
	if err != nil {
		return fmt.Errorf("failed to stamp report generation: %w", err)
	}
	return nil
}
