// Package export writes the six output tables of a run to disk as CSV,
// JSON or XLSX, plus a manifest.yaml describing the run.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hazyhaar/conso-energie/pkg/conso"
	"github.com/hazyhaar/conso-energie/pkg/sector"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

// Format is an output file format.
type Format string

const (
	CSV  Format = "csv"
	JSON Format = "json"
	XLSX Format = "xlsx"
)

// ParseFormats validates a list of format names. An empty list means CSV.
func ParseFormats(names []string) ([]Format, error) {
	if len(names) == 0 {
		return []Format{CSV}, nil
	}
	out := make([]Format, 0, len(names))
	for _, n := range names {
		f := Format(strings.ToLower(strings.TrimSpace(n)))
		switch f {
		case CSV, JSON, XLSX:
			out = append(out, f)
		default:
			return nil, fmt.Errorf("unknown output format %q", n)
		}
	}
	return out, nil
}

// table is one output table flattened to a header and cell rows.
type table struct {
	name   string
	header []string
	rows   [][]any
}

// tables flattens a result in the fixed output order. Column names follow
// the files the downstream dashboards already read.
func tables(res *conso.Result) []table {
	var out []table
	for _, ds := range conso.Datasets {
		for _, lvl := range conso.Levels {
			t := table{
				name:   conso.ConsumptionTable(ds, lvl),
				header: []string{zoneColumn(lvl, false), "year", "consumption_per_resident"},
			}
			for _, r := range res.Tables.Consumption(ds, lvl) {
				t.rows = append(t.rows, []any{string(r.Zone), r.Year, r.PerResident})
			}
			out = append(out, t)
		}
	}
	for _, lvl := range conso.Levels {
		t := table{
			name:   conso.SectorTable(lvl),
			header: append(sector.Labels(), zoneColumn(lvl, true), "year"),
		}
		for _, r := range res.Tables.Sectors(lvl) {
			row := make([]any, 0, sector.Count+2)
			for _, s := range sector.All {
				row = append(row, r.Sectors.Get(s))
			}
			t.rows = append(t.rows, append(row, string(r.Zone), r.Year))
		}
		out = append(out, t)
	}
	return out
}

func zoneColumn(level zone.Kind, sectors bool) string {
	switch {
	case level == zone.Region:
		return "region"
	case sectors:
		return "departement"
	default:
		return "department"
	}
}

// Writer writes run outputs into Dir.
type Writer struct {
	Dir     string
	Formats []Format
	Logger  *slog.Logger
}

// Write writes every table in every format, then the manifest. The output
// directory is created if missing. It returns the manifest written.
func (w *Writer) Write(res *conso.Result, runID string, inputs map[string]string) (*Manifest, error) {
	logger := w.Logger
	if logger == nil {
		logger = slog.Default()
	}
	formats := w.Formats
	if len(formats) == 0 {
		formats = []Format{CSV}
	}
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	m := newManifest(runID, res, formats, inputs)
	tabs := tables(res)
	m.Tables = make([]TableInfo, len(tabs))
	for i, t := range tabs {
		m.Tables[i].Name = t.name
		m.Tables[i].Rows = len(t.rows)
	}

	for _, f := range formats {
		switch f {
		case CSV:
			for i, t := range tabs {
				path := filepath.Join(w.Dir, t.name+".csv")
				if err := writeCSV(path, t); err != nil {
					return nil, err
				}
				m.Tables[i].Files = append(m.Tables[i].Files, filepath.Base(path))
			}
		case JSON:
			for i, t := range tabs {
				path := filepath.Join(w.Dir, t.name+".json")
				if err := writeJSON(path, t); err != nil {
					return nil, err
				}
				m.Tables[i].Files = append(m.Tables[i].Files, filepath.Base(path))
			}
		case XLSX:
			path := filepath.Join(w.Dir, "consommation.xlsx")
			if err := writeXLSX(path, tabs); err != nil {
				return nil, err
			}
			for i := range tabs {
				m.Tables[i].Files = append(m.Tables[i].Files, filepath.Base(path)+"#"+tabs[i].name)
			}
		default:
			return nil, fmt.Errorf("unknown output format %q", f)
		}
	}

	if err := writeManifest(w.Dir, m); err != nil {
		return nil, err
	}
	logger.Info("outputs written", "dir", w.Dir, "formats", formats, "tables", len(tabs))
	return m, nil
}
