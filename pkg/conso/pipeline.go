package conso

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/hazyhaar/conso-energie/pkg/zone"
)

// Input is the parsed content of the three source tables.
type Input struct {
	Residential []Record
	Business    []Record
	Population  *Population
}

// Result is the outcome of a run.
type Result struct {
	Tables Tables
	// Years lists every year that produced at least one dataset pass.
	Years []int
	// Failures lists the zones skipped when ContinueOnError is set.
	Failures []*ZoneError
}

// Pipeline drives the yearly aggregation. The zero value uses the default
// catalog, slog.Default() and fails on the first zone error.
type Pipeline struct {
	Catalog *zone.Catalog
	Logger  *slog.Logger
	// ContinueOnError skips failing zones instead of aborting the run.
	ContinueOnError bool
}

func (p *Pipeline) catalog() *zone.Catalog {
	if p.Catalog == nil {
		p.Catalog = zone.DefaultCatalog()
	}
	return p.Catalog
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

// Run processes every year of both datasets, residential first, in
// ascending year order.
func (p *Pipeline) Run(in Input) (*Result, error) {
	if in.Population == nil {
		return nil, fmt.Errorf("no population table")
	}

	byYear := map[Dataset]map[int][]Record{
		Residential: groupByYear(in.Residential),
		Business:    groupByYear(in.Business),
	}

	yearSet := make(map[int]struct{})
	for _, groups := range byYear {
		for y := range groups {
			yearSet[y] = struct{}{}
		}
	}
	years := make([]int, 0, len(yearSet))
	for y := range yearSet {
		years = append(years, y)
	}
	sort.Ints(years)

	res := &Result{}
	for _, year := range years {
		processed := false
		for _, ds := range Datasets {
			records := byYear[ds][year]
			if len(records) == 0 {
				p.logger().Debug("empty year slice, skipped", "dataset", ds.String(), "year", year)
				continue
			}
			failures, err := p.ProcessYear(&res.Tables, ds, year, records, in.Population)
			res.Failures = append(res.Failures, failures...)
			if err != nil {
				return nil, err
			}
			processed = true
		}
		if processed {
			res.Years = append(res.Years, year)
		}
	}

	p.logger().Info("pipeline complete",
		"years", len(res.Years),
		"res_dep", len(res.Tables.ResidentialDepartments),
		"ent_dep", len(res.Tables.BusinessDepartments),
		"failures", len(res.Failures),
	)
	return res, nil
}

// ProcessYear aggregates one dataset for one year and appends its rows to
// acc. records must all belong to year. The population table is cloned and
// corrected for the regions active in records, so base is never modified.
// Rows are only appended once the whole pass succeeded.
func (p *Pipeline) ProcessYear(acc *Tables, ds Dataset, year int, records []Record, base *Population) ([]*ZoneError, error) {
	if len(records) == 0 {
		return nil, nil
	}
	log := p.logger().With("dataset", ds.String(), "year", year)

	groups := map[zone.Kind]map[zone.Code][]Record{
		zone.Department: groupByCode(records, zone.Department),
		zone.Region:     groupByCode(records, zone.Region),
	}
	codes := map[zone.Kind][]zone.Code{
		zone.Department: distinctCodes(records, zone.Department),
		zone.Region:     distinctCodes(records, zone.Region),
	}

	pop, unknown := CorrectRegionCodes(base.Clone(), p.catalog(), codes[zone.Region])
	if len(unknown) > 0 {
		log.Debug("regions outside catalog, population left uncorrected", "regions", unknown)
	}

	var (
		staged   Tables
		failures []*ZoneError
	)
	for _, level := range Levels {
		for _, code := range codes[level] {
			row, sectors, err := p.processZone(log, ds, level, code, year, groups[level][code], pop)
			if err != nil {
				zerr := &ZoneError{Dataset: ds, Level: level, Zone: code, Year: year, Err: err}
				if !p.ContinueOnError {
					return failures, zerr
				}
				log.Warn("zone skipped", "level", level.String(), "zone", code.String(), "error", err)
				failures = append(failures, zerr)
				continue
			}
			staged.appendConsumption(ds, level, row)
			if sectors != nil {
				staged.appendSectors(level, *sectors)
			}
		}
	}

	acc.Merge(&staged)
	log.Debug("year processed", "departments", len(codes[zone.Department]), "regions", len(codes[zone.Region]))
	return failures, nil
}

func (p *Pipeline) processZone(log *slog.Logger, ds Dataset, level zone.Kind, code zone.Code, year int, records []Record, pop *Population) (MetricRow, *SectorRow, error) {
	population, err := ResolvePopulation(pop, code, level)
	if err != nil {
		return MetricRow{}, nil, err
	}
	total, err := AggregateConsumption(records, code, level)
	if err != nil {
		return MetricRow{}, nil, err
	}
	perResident, err := PerCapita(total, population)
	if err != nil {
		return MetricRow{}, nil, err
	}
	row := MetricRow{Zone: code, Year: year, PerResident: perResident}

	if ds != Business {
		return row, nil, nil
	}

	breakdown, err := AggregateSectors(records, code, level)
	if err != nil {
		return MetricRow{}, nil, err
	}
	labels := make([]string, 0, len(breakdown.Unmatched))
	for l := range breakdown.Unmatched {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	for _, l := range labels {
		log.Warn("unmatched sector excluded from breakdown",
			"level", level.String(),
			"zone", code.String(),
			"sector", l,
			"consumption", breakdown.Unmatched[l],
		)
	}
	return row, &SectorRow{Zone: code, Year: year, Sectors: breakdown.Vector}, nil
}

func groupByYear(records []Record) map[int][]Record {
	out := make(map[int][]Record)
	for _, r := range records {
		out[r.Year] = append(out[r.Year], r)
	}
	return out
}

// groupByCode drops records without a code at that level.
func groupByCode(records []Record, kind zone.Kind) map[zone.Code][]Record {
	out := make(map[zone.Code][]Record)
	for _, r := range records {
		c := r.Code(kind)
		if c.IsZero() {
			continue
		}
		out[c] = append(out[c], r)
	}
	return out
}

// distinctCodes lists the codes present at that level, ascending.
func distinctCodes(records []Record, kind zone.Kind) []zone.Code {
	codes := make([]zone.Code, len(records))
	for i, r := range records {
		codes[i] = r.Code(kind)
	}
	return zone.Distinct(codes)
}
