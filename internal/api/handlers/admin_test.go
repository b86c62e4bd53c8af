package handlers

import (
	"testing"
)

func TestPositionRequestValidation(t *testing.T) {
	valid := PositionRequest{
		Ticker:        "aapl",
		CompanyName:   "Apple Inc.",
		Shares:        10,
		PurchasePrice: 150.25,
		PurchaseDate:  "2025-01-15",
		Sector:        "Technology",
	}

	tests := []struct {
		name    string
		mutate  func(*PositionRequest)
		wantErr bool
	}{
		{"valid", func(r *PositionRequest) {}, false},
		{"missing ticker", func(r *PositionRequest) { r.Ticker = "" }, true},
		{"zero shares", func(r *PositionRequest) { r.Shares = 0 }, true},
		{"negative price", func(r *PositionRequest) { r.PurchasePrice = -1 }, true},
		{"bad date", func(r *PositionRequest) { r.PurchaseDate = "01/15/2025" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			position, err := req.toPosition()
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if position.Ticker != "AAPL" {
				t.Errorf("expected canonical ticker AAPL, got %s", position.Ticker)
			}
			if position.CostBasis != 1502.5 {
				t.Errorf("expected cost basis 1502.5, got %v", position.CostBasis)
			}
			if position.CurrentPrice != 150.25 {
				t.Errorf("expected valuation seeded from purchase price, got %v", position.CurrentPrice)
			}
			if position.MarketValue != 1502.5 {
				t.Errorf("expected seeded market value 1502.5, got %v", position.MarketValue)
			}
		})
	}
}
