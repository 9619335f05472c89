package conso

import (
	"encoding/json"

	"github.com/hazyhaar/conso-energie/pkg/sector"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

// MetricRow is the per-resident consumption of a zone for one year.
type MetricRow struct {
	Zone        zone.Code `json:"zone"`
	Year        int       `json:"year"`
	PerResident float64   `json:"consumption_per_resident"`
}

// SectorRow is the business consumption of a zone for one year, by sector.
type SectorRow struct {
	Zone    zone.Code
	Year    int
	Sectors sector.Vector
}

// MarshalJSON flattens the sectors and their total next to the key columns.
func (r SectorRow) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, sector.Count+3)
	for label, v := range r.Sectors.Map() {
		m[label] = v
	}
	m["total"] = r.Sectors.Total()
	m["zone"] = r.Zone
	m["year"] = r.Year
	return json.Marshal(m)
}

// Tables accumulates the six output tables of a run.
type Tables struct {
	ResidentialDepartments []MetricRow
	ResidentialRegions     []MetricRow
	BusinessDepartments    []MetricRow
	BusinessRegions        []MetricRow
	SectorDepartments      []SectorRow
	SectorRegions          []SectorRow
}

// Consumption returns the per-resident table of a dataset at a level.
func (t *Tables) Consumption(ds Dataset, level zone.Kind) []MetricRow {
	switch {
	case ds == Residential && level == zone.Department:
		return t.ResidentialDepartments
	case ds == Residential:
		return t.ResidentialRegions
	case level == zone.Department:
		return t.BusinessDepartments
	default:
		return t.BusinessRegions
	}
}

// Sectors returns the sector table at a level.
func (t *Tables) Sectors(level zone.Kind) []SectorRow {
	if level == zone.Department {
		return t.SectorDepartments
	}
	return t.SectorRegions
}

func (t *Tables) appendConsumption(ds Dataset, level zone.Kind, rows ...MetricRow) {
	switch {
	case ds == Residential && level == zone.Department:
		t.ResidentialDepartments = append(t.ResidentialDepartments, rows...)
	case ds == Residential:
		t.ResidentialRegions = append(t.ResidentialRegions, rows...)
	case level == zone.Department:
		t.BusinessDepartments = append(t.BusinessDepartments, rows...)
	default:
		t.BusinessRegions = append(t.BusinessRegions, rows...)
	}
}

func (t *Tables) appendSectors(level zone.Kind, rows ...SectorRow) {
	if level == zone.Department {
		t.SectorDepartments = append(t.SectorDepartments, rows...)
		return
	}
	t.SectorRegions = append(t.SectorRegions, rows...)
}

// Merge appends every table of o to t.
func (t *Tables) Merge(o *Tables) {
	for _, ds := range Datasets {
		for _, lvl := range Levels {
			t.appendConsumption(ds, lvl, o.Consumption(ds, lvl)...)
		}
	}
	for _, lvl := range Levels {
		t.appendSectors(lvl, o.Sectors(lvl)...)
	}
}

// Levels lists the granularities in processing order.
var Levels = []zone.Kind{zone.Department, zone.Region}

// ConsumptionTable names the per-resident table of a dataset at a level
// ("res_dep_consumption", "ent_reg_consumption", ...).
func ConsumptionTable(ds Dataset, level zone.Kind) string {
	return ds.Short() + "_" + levelShort(level) + "_consumption"
}

// SectorTable names the sector table at a level ("dep_sectors", "reg_sectors").
func SectorTable(level zone.Kind) string {
	return levelShort(level) + "_sectors"
}

func levelShort(level zone.Kind) string {
	if level == zone.Region {
		return "reg"
	}
	return "dep"
}
