// Package conso turns per-address annual energy consumption records into
// per-capita metrics and sector breakdowns by department and region.
package conso

import (
	"fmt"
	"strings"

	"github.com/hazyhaar/conso-energie/pkg/zone"
)

// Dataset identifies a consumption source.
type Dataset int

const (
	Residential Dataset = iota
	Business
)

// Datasets lists the datasets in processing order.
var Datasets = []Dataset{Residential, Business}

func (d Dataset) String() string {
	switch d {
	case Residential:
		return "residentiel"
	case Business:
		return "entreprise"
	default:
		return fmt.Sprintf("dataset(%d)", int(d))
	}
}

// Short returns the prefix used in output table names ("res", "ent").
func (d Dataset) Short() string {
	if d == Business {
		return "ent"
	}
	return "res"
}

// ParseDataset accepts "res", "residentiel", "ent", "entreprise" and the
// English forms.
func ParseDataset(s string) (Dataset, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "res", "residentiel", "residential":
		return Residential, nil
	case "ent", "entreprise", "business":
		return Business, nil
	}
	return 0, fmt.Errorf("unknown dataset %q", s)
}

// Record is the annual consumption of one address.
type Record struct {
	Year       int
	Department zone.Code
	Region     zone.Code
	// Sector is the raw activity label; business records only.
	Sector      string
	Consumption float64 // MWh
}

// Code returns the record's code at the given granularity.
func (r Record) Code(kind zone.Kind) zone.Code {
	if kind == zone.Region {
		return r.Region
	}
	return r.Department
}

// ReferenceYears is the number of census years averaged into a zone population.
const ReferenceYears = 4

// PopulationRow is the municipal population of one commune.
type PopulationRow struct {
	Department zone.Code
	Region     zone.Code
	Counts     [ReferenceYears]float64
}

// Code returns the row's code at the given granularity.
func (r PopulationRow) Code(kind zone.Kind) zone.Code {
	if kind == zone.Region {
		return r.Region
	}
	return r.Department
}

// Population is the municipal population reference table.
type Population struct {
	// Years labels the Counts columns (e.g. 2018..2021); informational.
	Years [ReferenceYears]int
	Rows  []PopulationRow
}

// Clone returns a deep copy, so that region corrections stay scoped to one pass.
func (p *Population) Clone() *Population {
	c := &Population{Years: p.Years, Rows: make([]PopulationRow, len(p.Rows))}
	copy(c.Rows, p.Rows)
	return c
}
