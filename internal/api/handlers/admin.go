package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/folioscope/folioscope/internal/collector"
	"github.com/folioscope/folioscope/internal/contracts"
	"github.com/folioscope/folioscope/internal/report"
	"github.com/folioscope/folioscope/pkg/logger"
)

// AdminHandler serves the write endpoints behind the admin token.
type AdminHandler struct {
	collector    *collector.Collector
	collectorCfg collector.Config
	generator    *report.Generator
	positions    contracts.PositionRepository
	logger       *logger.Logger
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(
	c *collector.Collector,
	collectorCfg collector.Config,
	g *report.Generator,
	positions contracts.PositionRepository,
	log *logger.Logger,
) *AdminHandler {
	return &AdminHandler{
		collector:    c,
		collectorCfg: collectorCfg,
		generator:    g,
		positions:    positions,
		logger:       log,
	}
}

// Collect triggers the daily price update.
// POST /api/admin/collect
func (h *AdminHandler) Collect(w http.ResponseWriter, r *http.Request) {
	results, err := h.collector.UpdatePrices(r.Context(), h.collectorCfg)
	if err != nil {
		if errors.Is(err, contracts.ErrAllFetchesFailed) {
			respondError(w, http.StatusServiceUnavailable, "All price fetches failed")
			return
		}
		h.logger.WithError(err).Error("Price update failed")
		respondError(w, http.StatusInternalServerError, "Price update failed")
		return
	}

	updated := make([]string, 0, len(results))
	for _, result := range results {
		if result.Error == nil && result.Saved {
			updated = append(updated, result.Ticker)
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message":         "Prices updated successfully",
		"updated_tickers": updated,
	})
}

// BackfillRequest is the body for a history backfill.
type BackfillRequest struct {
	From string `json:"from"` // YYYY-MM-DD
	To   string `json:"to"`   // YYYY-MM-DD, defaults to today
}

// Backfill seeds price history over a date range.
// POST /api/admin/backfill
func (h *AdminHandler) Backfill(w http.ResponseWriter, r *http.Request) {
	var req BackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	from, err := time.Parse("2006-01-02", req.From)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid 'from' date format (expected YYYY-MM-DD)")
		return
	}
	to := time.Now().UTC()
	if req.To != "" {
		to, err = time.Parse("2006-01-02", req.To)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'to' date format (expected YYYY-MM-DD)")
			return
		}
	}

	if err := h.collector.Backfill(r.Context(), from, to, h.collectorCfg); err != nil {
		if errors.Is(err, contracts.ErrAllFetchesFailed) {
			respondError(w, http.StatusServiceUnavailable, "All history fetches failed")
			return
		}
		h.logger.WithError(err).Error("Backfill failed")
		respondError(w, http.StatusInternalServerError, "Backfill failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Backfill completed"})
}

// GenerateReport triggers report generation.
// POST /api/admin/reports
func (h *AdminHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	data, err := h.generator.Generate(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, contracts.ErrMissingBenchmark):
			respondError(w, http.StatusPreconditionFailed, "Benchmark ticker not configured")
		case errors.Is(err, contracts.ErrMissingRiskFreeRate):
			respondError(w, http.StatusPreconditionFailed, "Risk-free rate not configured")
		case errors.Is(err, contracts.ErrAllFetchesFailed):
			respondError(w, http.StatusServiceUnavailable, "Price data unavailable")
		default:
			h.logger.WithError(err).Error("Report generation failed")
			respondError(w, http.StatusInternalServerError, "Report generation failed")
		}
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Report generated successfully",
		"report":  data,
	})
}

// PositionRequest is the body for creating or updating a position.
type PositionRequest struct {
	Ticker        string  `json:"ticker"`
	CompanyName   string  `json:"company_name"`
	Shares        float64 `json:"shares"`
	PurchasePrice float64 `json:"purchase_price"`
	PurchaseDate  string  `json:"purchase_date"` // YYYY-MM-DD
	Sector        string  `json:"sector"`
}

func (req *PositionRequest) toPosition() (*contracts.Position, error) {
	if req.Ticker == "" {
		return nil, errors.New("ticker is required")
	}
	if req.Shares <= 0 {
		return nil, errors.New("shares must be positive")
	}
	if req.PurchasePrice <= 0 {
		return nil, errors.New("purchase_price must be positive")
	}

	purchaseDate, err := time.Parse("2006-01-02", req.PurchaseDate)
	if err != nil {
		return nil, errors.New("invalid purchase_date format (expected YYYY-MM-DD)")
	}

	return &contracts.Position{
		Ticker:        contracts.CanonicalTicker(req.Ticker),
		CompanyName:   req.CompanyName,
		Shares:        req.Shares,
		PurchasePrice: req.PurchasePrice,
		PurchaseDate:  purchaseDate,
		CostBasis:     req.Shares * req.PurchasePrice,
		Sector:        req.Sector,
		// Seed the valuation from the purchase until the next price
		// collect refreshes it.
		CurrentPrice: req.PurchasePrice,
		MarketValue:  req.Shares * req.PurchasePrice,
	}, nil
}

// CreatePosition adds a holding.
// POST /api/admin/positions
func (h *AdminHandler) CreatePosition(w http.ResponseWriter, r *http.Request) {
	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	position, err := req.toPosition()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.positions.Create(r.Context(), position); err != nil {
		h.logger.WithError(err).Error("Failed to create position")
		respondError(w, http.StatusInternalServerError, "Failed to create position")
		return
	}

	respondJSON(w, http.StatusCreated, position)
}

// UpdatePosition rewrites a holding.
// PUT /api/admin/positions/{id}
func (h *AdminHandler) UpdatePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req PositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	position, err := req.toPosition()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	position.ID = id

	if err := h.positions.Update(r.Context(), position); err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Position not found")
			return
		}
		h.logger.WithError(err).Error("Failed to update position")
		respondError(w, http.StatusInternalServerError, "Failed to update position")
		return
	}

	respondJSON(w, http.StatusOK, position)
}

// DeletePosition removes a holding.
// DELETE /api/admin/positions/{id}
func (h *AdminHandler) DeletePosition(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.positions.Delete(r.Context(), id); err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Position not found")
			return
		}
		h.logger.WithError(err).Error("Failed to delete position")
		respondError(w, http.StatusInternalServerError, "Failed to delete position")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"message": "Position deleted"})
}
