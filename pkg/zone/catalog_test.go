package zone

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	if deps, ok := c.Departments("94"); !ok || len(deps) != 2 {
		t.Errorf("Departments(94) = %v, %v; want [2A 2B]", deps, ok)
	}

	tests := []struct {
		dep  Code
		want Code
	}{
		{"75", "11"},
		{"01", "84"},
		{"2A", "94"},
		{"29", "53"},
		{"84", "93"},
	}
	for _, tt := range tests {
		got, ok := c.RegionOf(tt.dep)
		if !ok || got != tt.want {
			t.Errorf("RegionOf(%q) = %q, %v; want %q", tt.dep, got, ok, tt.want)
		}
	}

	if _, ok := c.RegionOf("971"); ok {
		t.Error("overseas department should not be in the default catalog")
	}

	deps, ok := c.Departments("53")
	if !ok {
		t.Fatal("region 53 missing")
	}
	want := []Code{"35", "22", "56", "29"}
	for i := range want {
		if deps[i] != want[i] {
			t.Errorf("Departments(53)[%d] = %q, want %q", i, deps[i], want[i])
		}
	}
}

func TestNewCatalog_DuplicateDepartment(t *testing.T) {
	_, err := NewCatalog(map[string][]string{
		"11": {"75"},
		"84": {"75"},
	})
	if err == nil {
		t.Error("expected error for department in two regions")
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `"11": ["75", "77"]
"01": ["971"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if r, ok := c.RegionOf("971"); !ok || r != "1" {
		t.Errorf("RegionOf(971) = %q, %v; want 1", r, ok)
	}
	if r, ok := c.RegionOf("77"); !ok || r != "11" {
		t.Errorf("RegionOf(77) = %q, %v; want 11", r, ok)
	}
}

func TestLoadCatalog_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	os.WriteFile(path, []byte("{}\n"), 0o644)
	if _, err := LoadCatalog(path); err == nil {
		t.Error("expected error for empty catalog")
	}
}
