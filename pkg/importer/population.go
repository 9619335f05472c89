package importer

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hazyhaar/conso-energie/pkg/conso"
	"github.com/hazyhaar/conso-energie/pkg/norm"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

// PopulationColumns names the workbook columns of the population table.
type PopulationColumns struct {
	Department string                       `yaml:"department"`
	Region     string                       `yaml:"region"`
	Counts     [conso.ReferenceYears]string `yaml:"counts"`
	Years      [conso.ReferenceYears]int    `yaml:"years"`
}

// DefaultPopulationColumns match the INSEE communes workbook.
var DefaultPopulationColumns = PopulationColumns{
	Department: "dep",
	Region:     "reg",
	Counts:     [conso.ReferenceYears]string{"p18_pop", "p19_pop", "p20_pop", "p21_pop"},
	Years:      [conso.ReferenceYears]int{2018, 2019, 2020, 2021},
}

// XLSXOptions controls how the population workbook is read.
type XLSXOptions struct {
	Sheet   string // default: first sheet
	Columns PopulationColumns
	Logger  *slog.Logger
}

// ReadPopulationXLSX reads the municipal population table. The first row of
// the sheet is the header. Codes are canonicalised once here.
func ReadPopulationXLSX(path string, opts XLSXOptions) (*conso.Population, error) {
	if opts.Columns.Department == "" {
		opts.Columns = DefaultPopulationColumns
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	sheet := opts.Sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheet", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	colIdx := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		colIdx[norm.Header(h)] = i
	}
	find := func(name string) (int, error) {
		i, ok := colIdx[norm.Header(name)]
		if !ok {
			return -1, fmt.Errorf("column %q not found in sheet %q", name, sheet)
		}
		return i, nil
	}

	depCol, err := find(opts.Columns.Department)
	if err != nil {
		return nil, err
	}
	regCol, err := find(opts.Columns.Region)
	if err != nil {
		return nil, err
	}
	var countCols [conso.ReferenceYears]int
	for i, name := range opts.Columns.Counts {
		if countCols[i], err = find(name); err != nil {
			return nil, err
		}
	}

	pop := &conso.Population{Years: opts.Columns.Years}
	var badCode, badCount int
	for n, row := range rows[1:] {
		if isBlank(row) {
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
		pr := conso.PopulationRow{Department: dep, Region: reg}
		for i, c := range countCols {
			v, err := ParseNumber(field(row, c))
			if err != nil {
				badCount++
				opts.Logger.Debug("unreadable population count", "row", n+2, "column", opts.Columns.Counts[i])
				continue
			}
			pr.Counts[i] = v
		}
		pop.Rows = append(pop.Rows, pr)
	}

	if badCode+badCount > 0 {
		opts.Logger.Warn("population rows with unreadable cells", "bad_code", badCode, "bad_count", badCount)
	}
	opts.Logger.Info("population loaded", "sheet", sheet, "communes", len(pop.Rows))
	return pop, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
