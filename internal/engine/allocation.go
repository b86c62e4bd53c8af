package engine

import (
	"sort"

	"github.com/folioscope/folioscope/internal/contracts"
)

// SectorAllocation is a portfolio sector weight joined against the
// benchmark's weight for the same sector. Weights are percentages.
type SectorAllocation struct {
	Sector          string  `json:"sector"`
	Weight          float64 `json:"weight"`
	BenchmarkWeight float64 `json:"benchmark_weight"`
	Difference      float64 `json:"difference"`
}

// DefaultBenchmarkSectorWeights is the reference sector mix used when no
// benchmark composition feed is configured. Values are S&P 500 style
// approximations.
var DefaultBenchmarkSectorWeights = map[string]float64{
	"Technology":             25.5,
	"Healthcare":             14.2,
	"Financials":             13.7,
	"Consumer Discretionary": 10.8,
	"Communication Services": 8.5,
	"Industrials":            7.9,
	"Consumer Staples":       6.5,
	"Energy":                 5.2,
	"Utilities":              3.2,
	"Real Estate":            2.8,
	"Materials":              1.7,
}

// ComputeSectorAllocation groups position weights by sector and joins each
// group against the benchmark weight map. The join is asymmetric: sectors
// held only by the benchmark do not appear, and sectors the benchmark lacks
// get a benchmark weight of zero. Sorted by portfolio weight descending.
func ComputeSectorAllocation(positions []contracts.Position, benchmarkWeights map[string]float64) []SectorAllocation {
	if benchmarkWeights == nil {
		benchmarkWeights = DefaultBenchmarkSectorWeights
	}

	bySector := make(map[string]float64)
	order := make([]string, 0)
	for _, pos := range positions {
		if _, seen := bySector[pos.Sector]; !seen {
			order = append(order, pos.Sector)
		}
		bySector[pos.Sector] += pos.Weight
	}

	allocation := make([]SectorAllocation, 0, len(bySector))
	for _, sector := range order {
		weight := bySector[sector]
		bench := benchmarkWeights[sector]
		allocation = append(allocation, SectorAllocation{
			Sector:          sector,
			Weight:          weight,
			BenchmarkWeight: bench,
			Difference:      weight - bench,
		})
	}

	sort.SliceStable(allocation, func(i, j int) bool {
		return allocation[i].Weight > allocation[j].Weight
	})

	return allocation
}
