package engine

import (
	"testing"

	"github.com/folioscope/folioscope/internal/contracts"
)

func TestComputeSectorAllocationJoin(t *testing.T) {
	positions := []contracts.Position{
		{Ticker: "AAPL", Sector: "Technology", Weight: 40},
	}

	allocation := ComputeSectorAllocation(positions, nil)

	if len(allocation) != 1 {
		t.Fatalf("expected 1 sector, got %d", len(allocation))
	}
	got := allocation[0]
	if got.Sector != "Technology" || got.Weight != 40 || got.BenchmarkWeight != 25.5 {
		t.Errorf("unexpected allocation: %+v", got)
	}
	if diff := got.Difference; diff != 14.5 {
		t.Errorf("expected difference 14.5, got %v", diff)
	}
}

func TestComputeSectorAllocationAsymmetric(t *testing.T) {
	positions := []contracts.Position{
		{Ticker: "AAA", Sector: "Shipping", Weight: 60},
		{Ticker: "BBB", Sector: "Energy", Weight: 40},
	}

	allocation := ComputeSectorAllocation(positions, nil)

	if len(allocation) != 2 {
		t.Fatalf("expected 2 sectors, got %d", len(allocation))
	}

	// Benchmark-only sectors never appear; a sector the benchmark lacks
	// joins with weight zero.
	if allocation[0].Sector != "Shipping" {
		t.Errorf("expected Shipping first (sorted by weight desc), got %s", allocation[0].Sector)
	}
	if allocation[0].BenchmarkWeight != 0 {
		t.Errorf("expected zero benchmark weight for Shipping, got %v", allocation[0].BenchmarkWeight)
	}
	if allocation[1].Sector != "Energy" || allocation[1].BenchmarkWeight != 5.2 {
		t.Errorf("unexpected Energy row: %+v", allocation[1])
	}
}

func TestComputeSectorAllocationGroupsBySector(t *testing.T) {
	positions := []contracts.Position{
		{Ticker: "AAPL", Sector: "Technology", Weight: 30},
		{Ticker: "MSFT", Sector: "Technology", Weight: 25},
		{Ticker: "JNJ", Sector: "Healthcare", Weight: 45},
	}

	allocation := ComputeSectorAllocation(positions, nil)

	if len(allocation) != 2 {
		t.Fatalf("expected 2 sectors, got %d", len(allocation))
	}
	if allocation[0].Sector != "Technology" || allocation[0].Weight != 55 {
		t.Errorf("unexpected first row: %+v", allocation[0])
	}
}

func TestComputeSectorAllocationEmpty(t *testing.T) {
	allocation := ComputeSectorAllocation(nil, nil)
	if len(allocation) != 0 {
		t.Errorf("expected empty allocation for empty positions, got %d rows", len(allocation))
	}
}
