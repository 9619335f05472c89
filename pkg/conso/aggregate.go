package conso

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/hazyhaar/conso-energie/pkg/sector"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

// ResolvePopulation sums the population of the zone for each reference year
// and returns the mean of those sums.
func ResolvePopulation(pop *Population, code zone.Code, kind zone.Kind) (float64, error) {
	sums := make([]float64, ReferenceYears)
	matched := 0
	for i := range pop.Rows {
		row := &pop.Rows[i]
		if row.Code(kind) != code {
			continue
		}
		floats.Add(sums, row.Counts[:])
		matched++
	}
	if matched == 0 {
		return 0, &MissingPopulationError{Kind: kind, Zone: code}
	}
	return stat.Mean(sums, nil), nil
}

// AggregateConsumption sums the consumption of the records located in the
// zone. A zone without records sums to 0. Records must all belong to the
// same year.
func AggregateConsumption(records []Record, code zone.Code, kind zone.Kind) (float64, error) {
	values := make([]float64, 0, len(records))
	year := 0
	for _, r := range records {
		if r.Code(kind) != code {
			continue
		}
		if len(values) > 0 && r.Year != year {
			return 0, ErrMixedYears
		}
		year = r.Year
		values = append(values, r.Consumption)
	}
	if len(values) == 0 {
		return 0, nil
	}
	return floats.Sum(values), nil
}

// SectorBreakdown is the consumption of a zone split by canonical sector.
type SectorBreakdown struct {
	Vector sector.Vector
	// Unmatched holds the consumption of labels outside the canonical set,
	// keyed by raw label. It is not part of Vector.
	Unmatched map[string]float64
}

// AggregateSectors sums the consumption of the zone's records per sector.
// All four canonical sectors are present in the result, zero when absent.
func AggregateSectors(records []Record, code zone.Code, kind zone.Kind) (SectorBreakdown, error) {
	var out SectorBreakdown
	year := 0
	seen := false
	for _, r := range records {
		if r.Code(kind) != code {
			continue
		}
		if seen && r.Year != year {
			return SectorBreakdown{}, ErrMixedYears
		}
		year, seen = r.Year, true

		s, err := sector.Parse(r.Sector)
		if err != nil {
			if out.Unmatched == nil {
				out.Unmatched = make(map[string]float64)
			}
			out.Unmatched[r.Sector] += r.Consumption
			continue
		}
		out.Vector.Add(s, r.Consumption)
	}
	return out, nil
}

// PerCapita divides a zone's consumption by its population.
func PerCapita(total, population float64) (float64, error) {
	if population == 0 || math.IsNaN(population) || math.IsInf(population, 0) {
		return 0, ErrZeroPopulation
	}
	return total / population, nil
}
