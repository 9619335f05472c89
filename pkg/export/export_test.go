package export

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/conso-energie/pkg/conso"
	"github.com/hazyhaar/conso-energie/pkg/sector"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

func testResult() *conso.Result {
	res := &conso.Result{Years: []int{2020}}
	res.Tables.ResidentialDepartments = []conso.MetricRow{
		{Zone: "01", Year: 2020, PerResident: 0.5},
		{Zone: "03", Year: 2020, PerResident: 2},
	}
	res.Tables.ResidentialRegions = []conso.MetricRow{{Zone: "84", Year: 2020, PerResident: 0.125}}
	res.Tables.BusinessDepartments = []conso.MetricRow{{Zone: "01", Year: 2020, PerResident: 1.5}}
	res.Tables.BusinessRegions = []conso.MetricRow{{Zone: "84", Year: 2020, PerResident: 0.75}}
	res.Tables.SectorDepartments = []conso.SectorRow{{Zone: "01", Year: 2020, Sectors: sector.Vector{50, 100, 0, 0}}}
	res.Tables.SectorRegions = []conso.SectorRow{{Zone: "84", Year: 2020, Sectors: sector.Vector{50, 100, 0, 0}}}
	return res
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseFormats(t *testing.T) {
	got, err := ParseFormats(nil)
	if err != nil || len(got) != 1 || got[0] != CSV {
		t.Fatalf("ParseFormats(nil) = %v, %v", got, err)
	}
	got, err = ParseFormats([]string{" CSV", "json", "xlsx"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[2] != XLSX {
		t.Errorf("got %v", got)
	}
	if _, err := ParseFormats([]string{"parquet"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWrite_CSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	w := &Writer{Dir: dir, Logger: quietLogger()}
	m, err := w.Write(testResult(), "run-1", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(m.Tables) != 6 {
		t.Fatalf("tables = %d, want 6", len(m.Tables))
	}

	data, err := os.ReadFile(filepath.Join(dir, "res_dep_consumption.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want := "department,year,consumption_per_resident\n01,2020,0.5\n03,2020,2\n"
	if string(data) != want {
		t.Errorf("res_dep_consumption.csv =\n%s\nwant\n%s", data, want)
	}

	data, err = os.ReadFile(filepath.Join(dir, "reg_sectors.csv"))
	if err != nil {
		t.Fatal(err)
	}
	want = "TERTIAIRE,INDUSTRIE,AGRICULTURE,INCONNU,region,year\n50,100,0,0,84,2020\n"
	if string(data) != want {
		t.Errorf("reg_sectors.csv =\n%s\nwant\n%s", data, want)
	}

	data, err = os.ReadFile(filepath.Join(dir, "dep_sectors.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "TERTIAIRE,INDUSTRIE,AGRICULTURE,INCONNU,departement,year\n") {
		t.Errorf("dep_sectors.csv header: %q", data)
	}
}

func TestWrite_EmptyTableKeepsHeader(t *testing.T) {
	dir := t.TempDir()
	res := &conso.Result{}
	w := &Writer{Dir: dir, Formats: []Format{CSV}, Logger: quietLogger()}
	if _, err := w.Write(res, "run-empty", nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "ent_reg_consumption.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "region,year,consumption_per_resident\n" {
		t.Errorf("got %q", data)
	}
}

func TestWrite_JSON(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Formats: []Format{JSON}, Logger: quietLogger()}
	if _, err := w.Write(testResult(), "run-2", nil); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "dep_sectors.json"))
	if err != nil {
		t.Fatal(err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0]["departement"] != "01" || rows[0]["INDUSTRIE"] != 100.0 {
		t.Errorf("row = %v", rows[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "dep_sectors.csv")); !os.IsNotExist(err) {
		t.Error("csv written although only json was requested")
	}
}

func TestWrite_XLSX(t *testing.T) {
	dir := t.TempDir()
	w := &Writer{Dir: dir, Formats: []Format{XLSX}, Logger: quietLogger()}
	m, err := w.Write(testResult(), "run-3", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := m.Tables[0].Files[0]; got != "consommation.xlsx#res_dep_consumption" {
		t.Errorf("file ref = %q", got)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, "consommation.xlsx"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 6 || sheets[0] != "res_dep_consumption" || sheets[5] != "reg_sectors" {
		t.Fatalf("sheets = %v", sheets)
	}
	rows, err := f.GetRows("res_dep_consumption")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "department" || rows[1][0] != "01" || rows[2][2] != "2" {
		t.Errorf("rows = %v", rows)
	}
}

func TestManifestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	res := testResult()
	res.Failures = []*conso.ZoneError{{
		Dataset: conso.Business, Level: zone.Department, Zone: "99", Year: 2020, Err: conso.ErrZeroPopulation,
	}}
	w := &Writer{Dir: dir, Formats: []Format{CSV, JSON}, Logger: quietLogger()}
	inputs := map[string]string{"population": "pop.xlsx"}
	if _, err := w.Write(res, "run-4", inputs); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	if m.RunID != "run-4" || len(m.Years) != 1 || m.Years[0] != 2020 {
		t.Errorf("manifest = %+v", m)
	}
	if m.Inputs["population"] != "pop.xlsx" {
		t.Errorf("inputs = %v", m.Inputs)
	}
	if len(m.Failures) != 1 || !strings.Contains(m.Failures[0], "99") {
		t.Errorf("failures = %v", m.Failures)
	}
	if got := m.Tables[0].Files; len(got) != 2 || got[0] != "res_dep_consumption.csv" || got[1] != "res_dep_consumption.json" {
		t.Errorf("files = %v", got)
	}
	if m.Tables[0].Rows != 2 {
		t.Errorf("rows = %d, want 2", m.Tables[0].Rows)
	}
}
