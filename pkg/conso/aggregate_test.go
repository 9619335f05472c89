package conso

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/hazyhaar/conso-energie/pkg/sector"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

func popRow(dep, reg zone.Code, counts ...float64) PopulationRow {
	r := PopulationRow{Department: dep, Region: reg}
	copy(r.Counts[:], counts)
	return r
}

func TestResolvePopulation_Department(t *testing.T) {
	pop := &Population{Rows: []PopulationRow{
		popRow("01", "84", 100, 110, 120, 130),
		popRow("01", "84", 10, 10, 10, 10),
		popRow("02", "32", 999, 999, 999, 999),
	}}

	got, err := ResolvePopulation(pop, "01", zone.Department)
	if err != nil {
		t.Fatalf("ResolvePopulation: %v", err)
	}
	// yearly sums 110,120,130,140 -> mean 125
	if got != 125 {
		t.Errorf("population = %v, want 125", got)
	}
}

func TestResolvePopulation_Region(t *testing.T) {
	pop := &Population{Rows: []PopulationRow{
		popRow("75", "11", 2000, 2000, 2000, 2000),
		popRow("77", "11", 1000, 1100, 1200, 1300),
		popRow("01", "84", 5, 5, 5, 5),
	}}

	got, err := ResolvePopulation(pop, "11", zone.Region)
	if err != nil {
		t.Fatalf("ResolvePopulation: %v", err)
	}
	if got != 3150 {
		t.Errorf("population = %v, want 3150", got)
	}
}

func TestResolvePopulation_Missing(t *testing.T) {
	pop := &Population{Rows: []PopulationRow{popRow("01", "84", 1, 1, 1, 1)}}

	_, err := ResolvePopulation(pop, "971", zone.Department)
	if !errors.Is(err, ErrMissingPopulation) {
		t.Fatalf("err = %v, want ErrMissingPopulation", err)
	}
	var mpe *MissingPopulationError
	if !errors.As(err, &mpe) {
		t.Fatalf("err = %T, want *MissingPopulationError", err)
	}
	if mpe.Zone != "971" || mpe.Kind != zone.Department {
		t.Errorf("error zone = %s %s, want departement 971", mpe.Kind, mpe.Zone)
	}
}

func TestAggregateConsumption(t *testing.T) {
	records := []Record{
		{Year: 2021, Department: "01", Region: "84", Consumption: 10.5},
		{Year: 2021, Department: "01", Region: "84", Consumption: 4.5},
		{Year: 2021, Department: "03", Region: "84", Consumption: 100},
	}

	got, err := AggregateConsumption(records, "01", zone.Department)
	if err != nil {
		t.Fatalf("AggregateConsumption: %v", err)
	}
	if got != 15 {
		t.Errorf("department total = %v, want 15", got)
	}

	got, err = AggregateConsumption(records, "84", zone.Region)
	if err != nil {
		t.Fatalf("AggregateConsumption: %v", err)
	}
	if got != 115 {
		t.Errorf("region total = %v, want 115", got)
	}
}

func TestAggregateConsumption_NoMatchIsZero(t *testing.T) {
	records := []Record{{Year: 2021, Department: "01", Consumption: 10}}
	got, err := AggregateConsumption(records, "02", zone.Department)
	if err != nil {
		t.Fatalf("AggregateConsumption: %v", err)
	}
	if got != 0 {
		t.Errorf("total = %v, want 0", got)
	}
}

func TestAggregateConsumption_MixedYears(t *testing.T) {
	records := []Record{
		{Year: 2020, Department: "01", Consumption: 1},
		{Year: 2021, Department: "01", Consumption: 1},
	}
	if _, err := AggregateConsumption(records, "01", zone.Department); !errors.Is(err, ErrMixedYears) {
		t.Errorf("err = %v, want ErrMixedYears", err)
	}
}

func TestAggregateSectors_ZeroFill(t *testing.T) {
	records := []Record{
		{Year: 2020, Department: "01", Region: "84", Sector: "INDUSTRIE", Consumption: 100},
		{Year: 2020, Department: "01", Region: "84", Sector: "TERTIAIRE", Consumption: 50},
	}

	got, err := AggregateSectors(records, "01", zone.Department)
	if err != nil {
		t.Fatalf("AggregateSectors: %v", err)
	}
	want := sector.Vector{50, 100, 0, 0}
	if got.Vector != want {
		t.Errorf("vector = %v, want %v", got.Vector, want)
	}
	if len(got.Unmatched) != 0 {
		t.Errorf("unmatched = %v, want none", got.Unmatched)
	}

	total, _ := AggregateConsumption(records, "01", zone.Department)
	if total != 150 || got.Vector.Total() != total {
		t.Errorf("total = %v, vector total = %v, want 150", total, got.Vector.Total())
	}
}

func TestAggregateSectors_Unmatched(t *testing.T) {
	records := []Record{
		{Year: 2020, Department: "01", Sector: "Agriculture", Consumption: 7},
		{Year: 2020, Department: "01", Sector: "RESIDENTIEL", Consumption: 3},
		{Year: 2020, Department: "01", Sector: "INCONNU", Consumption: 2},
	}

	got, err := AggregateSectors(records, "01", zone.Department)
	if err != nil {
		t.Fatalf("AggregateSectors: %v", err)
	}
	if got.Vector.Get(sector.Agriculture) != 7 || got.Vector.Get(sector.Inconnu) != 2 {
		t.Errorf("vector = %v", got.Vector)
	}
	if got.Unmatched["RESIDENTIEL"] != 3 {
		t.Errorf("unmatched = %v, want RESIDENTIEL=3", got.Unmatched)
	}

	total, _ := AggregateConsumption(records, "01", zone.Department)
	if got.Vector.Total() != total-got.Unmatched["RESIDENTIEL"] {
		t.Errorf("vector total = %v, want total %v minus unmatched", got.Vector.Total(), total)
	}
}

func TestPerCapita(t *testing.T) {
	got, err := PerCapita(150, 60)
	if err != nil {
		t.Fatalf("PerCapita: %v", err)
	}
	if !scalar.EqualWithinAbsOrRel(got, 2.5, 1e-12, 1e-12) {
		t.Errorf("PerCapita = %v, want 2.5", got)
	}

	for _, pop := range []float64{0, math.NaN(), math.Inf(1)} {
		v, err := PerCapita(150, pop)
		if !errors.Is(err, ErrZeroPopulation) {
			t.Errorf("PerCapita(150, %v) err = %v, want ErrZeroPopulation", pop, err)
		}
		if v != 0 {
			t.Errorf("PerCapita(150, %v) = %v, want 0", pop, v)
		}
	}
}
