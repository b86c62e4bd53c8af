package contracts

import (
	"context"
	"time"
)

// Repository interfaces are defined here; implementations live in
// internal/store.

// PositionRepository manages holding records.
type PositionRepository interface {
	List(ctx context.Context) ([]Position, error)
	Create(ctx context.Context, p *Position) error
	Update(ctx context.Context, p *Position) error
	Delete(ctx context.Context, id string) error
	UpdateValuation(ctx context.Context, id string, currentPrice, marketValue, weight float64) error
}

// PriceRepository manages daily price history for held instruments and the
// benchmark (stored separately, same record shape).
type PriceRepository interface {
	GetHistory(ctx context.Context, ticker string, from, to time.Time) ([]PricePoint, error)
	GetBenchmarkHistory(ctx context.Context, ticker string, from, to time.Time) ([]PricePoint, error)
	TickersWithPriceOn(ctx context.Context, date time.Time) (map[string]bool, error)
	Save(ctx context.Context, p *PricePoint) error
	SaveBenchmark(ctx context.Context, p *PricePoint) error
}

// SettingsRepository manages the single settings row.
type SettingsRepository interface {
	Get(ctx context.Context) (*Settings, error)
	TouchPriceUpdate(ctx context.Context, at time.Time) error
	TouchReportGeneration(ctx context.Context, at time.Time) error
}

// ReportRepository manages persisted reports.
type ReportRepository interface {
	Insert(ctx context.Context, r *Report) error
	List(ctx context.Context, limit int) ([]Report, error)
}
