package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cast"

	"github.com/hazyhaar/conso-energie/pkg/conso"
	"github.com/hazyhaar/conso-energie/pkg/norm"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

// ConsumptionColumns names the CSV headers of a consumption export.
// Headers are matched with norm.Header, so case and accents do not matter.
type ConsumptionColumns struct {
	Year        string `yaml:"year"`
	Department  string `yaml:"department"`
	Region      string `yaml:"region"`
	Sector      string `yaml:"sector"`
	Consumption string `yaml:"consumption"`
}

// DefaultConsumptionColumns are the Enedis export headers.
var DefaultConsumptionColumns = ConsumptionColumns{
	Year:        "Année",
	Department:  "Code Département",
	Region:      "Code Région",
	Sector:      "Secteur d'activité",
	Consumption: "Consommation annuelle totale de l'adresse (MWh)",
}

// CSVOptions controls how consumption exports are decoded.
type CSVOptions struct {
	Delimiter string // default ";"
	Encoding  string // default UTF-8
	Columns   ConsumptionColumns
	Logger    *slog.Logger
}

func (o CSVOptions) withDefaults() CSVOptions {
	if o.Delimiter == "" {
		o.Delimiter = ";"
	}
	def := DefaultConsumptionColumns
	if o.Columns.Year == "" {
		o.Columns.Year = def.Year
	}
	if o.Columns.Department == "" {
		o.Columns.Department = def.Department
	}
	if o.Columns.Region == "" {
		o.Columns.Region = def.Region
	}
	if o.Columns.Sector == "" {
		o.Columns.Sector = def.Sector
	}
	if o.Columns.Consumption == "" {
		o.Columns.Consumption = def.Consumption
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// ReadConsumptionFile opens path and decodes it with ReadConsumptionCSV.
func ReadConsumptionFile(path string, ds conso.Dataset, opts CSVOptions) ([]conso.Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := ReadConsumptionCSV(f, ds, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// ReadConsumptionCSV decodes a per-address consumption export. Only the
// year, zone codes, consumption and, for business data, sector columns are
// kept. Rows with an unreadable year are dropped; unreadable zone codes are
// kept with an empty code so their consumption still counts at the other level.
func ReadConsumptionCSV(r io.Reader, ds conso.Dataset, opts CSVOptions) ([]conso.Record, error) {
	opts = opts.withDefaults()

	reader, err := norm.NewReader(r, opts.Encoding)
	if err != nil {
		return nil, err
	}
	cr := csv.NewReader(reader)
	cr.Comma = []rune(opts.Delimiter)[0]
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[norm.Header(h)] = i
	}
	col := func(name string, required bool) (int, error) {
		if i, ok := colIdx[norm.Header(name)]; ok {
			return i, nil
		}
		if required {
			return -1, fmt.Errorf("column %q not found in header %v", name, header)
		}
		return -1, nil
	}

	yearCol, err := col(opts.Columns.Year, true)
	if err != nil {
		return nil, err
	}
	depCol, err := col(opts.Columns.Department, true)
	if err != nil {
		return nil, err
	}
	regCol, err := col(opts.Columns.Region, true)
	if err != nil {
		return nil, err
	}
	consCol, err := col(opts.Columns.Consumption, true)
	if err != nil {
		return nil, err
	}
	sectorCol, err := col(opts.Columns.Sector, ds == conso.Business)
	if err != nil {
		return nil, err
	}

	var (
		records               []conso.Record
		badYear, badCode, bad int
	)
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		year, err := cast.ToIntE(strings.TrimSpace(field(row, yearCol)))
		if err != nil || year == 0 {
			badYear++
			continue
		}
		dep, err := zone.ParseDepartment(field(row, depCol))
		if err != nil {
			badCode++
		}
		reg, err := zone.ParseRegion(field(row, regCol))
		if err != nil {
			badCode++
		}
		value, err := ParseNumber(field(row, consCol))
		if err != nil {
			bad++
			continue
		}

		rec := conso.Record{Year: year, Department: dep, Region: reg, Consumption: value}
		if sectorCol >= 0 {
			rec.Sector = strings.TrimSpace(field(row, sectorCol))
		}
		records = append(records, rec)
	}

	if badYear+badCode+bad > 0 {
		opts.Logger.Warn("consumption rows with unreadable cells",
			"dataset", ds.String(), "bad_year", badYear, "bad_code", badCode, "bad_value", bad)
	}
	opts.Logger.Info("consumption loaded", "dataset", ds.String(), "rows", len(records))
	return records, nil
}

// ParseNumber reads a numeric cell written either way ("1234.5", "1 234,5",
// "1,234.5", "1.234,5"). With both separators present the last one is the
// decimal mark; a lone comma is a decimal comma unless it repeats.
// An empty cell is 0.
func ParseNumber(s string) (float64, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "").Replace(strings.TrimSpace(s))
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, nil
	}
	comma, dot := strings.LastIndexByte(s, ','), strings.LastIndexByte(s, '.')
	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case comma >= 0 && dot >= 0:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0 && strings.Count(s, ",") > 1:
		s = strings.ReplaceAll(s, ",", "")
	case comma >= 0:
		s = strings.Replace(s, ",", ".", 1)
	}
	return cast.ToFloat64E(s)
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
