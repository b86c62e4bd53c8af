package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folioscope/folioscope/internal/contracts"
)

// ReportRepository implements contracts.ReportRepository on Postgres.
type ReportRepository struct {
	pool *pgxpool.Pool
}

// NewReportRepository creates a new report repository.
func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Insert persists a generated report and fills in the generated ID.
func (r *ReportRepository) Insert(ctx context.Context, report *contracts.Report) error {
	query := `
		INSERT INTO reports (date, file_url, portfolio_value, benchmark_value,
		                     top_gainers, top_losers, commentary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query,
		report.Date, report.FileURL, report.PortfolioValue, report.BenchmarkValue,
		report.TopGainers, report.TopLosers, report.Commentary,
	).Scan(&report.ID)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// List retrieves the most recent reports, newest first.
func (r *ReportRepository) List(ctx context.Context, limit int) ([]contracts.Report, error) {
	query := `
		SELECT id, date, file_url, portfolio_value, benchmark_value,
		       top_gainers, top_losers, commentary
		FROM reports
		ORDER BY date DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []contracts.Report
	for rows.Next() {
		var report contracts.Report
		if err := rows.Scan(
			&report.ID, &report.Date, &report.FileURL, &report.PortfolioValue,
			&report.BenchmarkValue, &report.TopGainers, &report.TopLosers, &report.Commentary,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}
