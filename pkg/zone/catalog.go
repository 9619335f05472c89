package zone

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Catalog maps a region code to its member departments. It is the
// authoritative department -> region assignment since the 2015 reform.
type Catalog struct {
	regions map[Code][]Code
	byDep   map[Code]Code
}

// defaultRegions lists the 13 metropolitan regions.
var defaultRegions = map[string][]string{
	"84": {"01", "03", "07", "15", "26", "38", "42", "43", "63", "69", "73", "74"},
	"27": {"21", "25", "39", "58", "70", "71", "89", "90"},
	"53": {"35", "22", "56", "29"},
	"24": {"18", "28", "36", "37", "41", "45"},
	"94": {"2A", "2B"},
	"44": {"08", "10", "51", "52", "54", "55", "57", "67", "68", "88"},
	"32": {"02", "59", "60", "62", "80"},
	"11": {"75", "77", "78", "91", "92", "93", "94", "95"},
	"28": {"14", "27", "50", "61", "76"},
	"75": {"16", "17", "19", "23", "24", "33", "40", "47", "64", "79", "86", "87"},
	"76": {"09", "11", "12", "30", "31", "32", "34", "46", "48", "65", "66", "81", "82"},
	"52": {"44", "49", "53", "72", "85"},
	"93": {"04", "05", "06", "13", "83", "84"},
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(defaultRegions)
	if err != nil {
		panic(err)
	}
	return c
}

// NewCatalog validates and indexes a raw region -> departments table.
// A department may belong to one region only.
func NewCatalog(raw map[string][]string) (*Catalog, error) {
	c := &Catalog{
		regions: make(map[Code][]Code, len(raw)),
		byDep:   make(map[Code]Code),
	}
	for r, deps := range raw {
		reg, err := ParseRegion(r)
		if err != nil {
			return nil, err
		}
		if reg.IsZero() {
			return nil, fmt.Errorf("empty region code in catalog")
		}
		codes := make([]Code, 0, len(deps))
		for _, d := range deps {
			dep, err := ParseDepartment(d)
			if err != nil {
				return nil, fmt.Errorf("region %s: %w", reg, err)
			}
			if prev, ok := c.byDep[dep]; ok && prev != reg {
				return nil, fmt.Errorf("department %s listed in regions %s and %s", dep, prev, reg)
			}
			c.byDep[dep] = reg
			codes = append(codes, dep)
		}
		c.regions[reg] = codes
	}
	return c, nil
}

// LoadCatalog reads a YAML catalog of the form `"11": ["75", "77", ...]`.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("catalog %s: no regions", path)
	}
	return NewCatalog(raw)
}

// Departments returns the departments of region, in catalog order.
func (c *Catalog) Departments(region Code) ([]Code, bool) {
	deps, ok := c.regions[region]
	return deps, ok
}

// RegionOf returns the authoritative region of a department.
func (c *Catalog) RegionOf(dep Code) (Code, bool) {
	r, ok := c.byDep[dep]
	return r, ok
}
