package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/folioscope/folioscope/internal/contracts"
)

// PositionRepository implements contracts.PositionRepository on Postgres.
type PositionRepository struct {
	pool *pgxpool.Pool
}

// NewPositionRepository creates a new position repository.
func NewPositionRepository(pool *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{pool: pool}
}

// List retrieves every holding ordered by market value descending.
func (r *PositionRepository) List(ctx context.Context) ([]contracts.Position, error) {
	query := `
		SELECT id, ticker, company_name, shares, purchase_price, purchase_date,
		       cost_basis, sector, current_price, market_value, weight
		FROM positions
		ORDER BY market_value DESC, ticker ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list positions: %w", err)
	}
	defer rows.Close()

	var positions []contracts.Position
	for rows.Next() {
		var p contracts.Position
		if err := rows.Scan(
			&p.ID, &p.Ticker, &p.CompanyName, &p.Shares, &p.PurchasePrice, &p.PurchaseDate,
			&p.CostBasis, &p.Sector, &p.CurrentPrice, &p.MarketValue, &p.Weight,
		); err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

// Create inserts a new holding and fills in the generated ID.
func (r *PositionRepository) Create(ctx context.Context, p *contracts.Position) error {
	query := `
		INSERT INTO positions (ticker, company_name, shares, purchase_price, purchase_date,
		                       cost_basis, sector, current_price, market_value, weight)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	p.Ticker = contracts.CanonicalTicker(p.Ticker)
	err := r.pool.QueryRow(ctx, query,
		p.Ticker, p.CompanyName, p.Shares, p.PurchasePrice, p.PurchaseDate,
		p.CostBasis, p.Sector, p.CurrentPrice, p.MarketValue, p.Weight,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// Update rewrites the holding columns of an existing position.
func (r *PositionRepository) Update(ctx context.Context, p *contracts.Position) error {
	query := `
		UPDATE positions
		SET ticker = $2, company_name = $3, shares = $4, purchase_price = $5,
		    purchase_date = $6, cost_basis = $7, sector = $8
		WHERE id = $1
	`

	p.Ticker = contracts.CanonicalTicker(p.Ticker)
	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Ticker, p.CompanyName, p.Shares, p.PurchasePrice,
		p.PurchaseDate, p.CostBasis, p.Sector,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrNotFound
	}
	return nil
}

// Delete removes a holding.
func (r *PositionRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrNotFound
	}
	return nil
}

// UpdateValuation refreshes the cached valuation columns of a holding.
func (r *PositionRepository) UpdateValuation(ctx context.Context, id string, currentPrice, marketValue, weight float64) error {
	query := `
		UPDATE positions
		SET current_price = $2, market_value = $3, weight = $4
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, currentPrice, marketValue, weight)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.ErrNotFound
		}
		return fmt.Errorf("failed to update valuation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return contracts.ErrNotFound
	}
	return nil
}
