// Package zone holds French administrative zone codes (departments, regions)
// and the catalog that maps each post-2015 region to its departments.
package zone

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind is the administrative granularity of a zone.
type Kind int

const (
	Department Kind = iota
	Region
)

func (k Kind) String() string {
	switch k {
	case Department:
		return "departement"
	case Region:
		return "region"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind accepts the short and long forms used in URLs and config ("dep", "reg").
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dep", "departement", "department":
		return Department, nil
	case "reg", "region":
		return Region, nil
	}
	return 0, fmt.Errorf("unknown zone kind %q", s)
}

// Code is the canonical string form of a department or region code.
// The zero value means "no code".
type Code string

// IsZero reports whether c carries no code.
func (c Code) IsZero() bool { return c == "" }

func (c Code) String() string { return string(c) }

// ParseDepartment builds a department code from a raw cell. Numeric codes
// below 10 are zero-padded ("1" -> "01"), Corsica keeps its letters ("2a" -> "2A"),
// and float renderings such as "75.0" are accepted. Empty and NaN cells give
// the zero Code with no error.
func ParseDepartment(raw string) (Code, error) {
	s := cleanCell(raw)
	if s == "" {
		return "", nil
	}
	up := strings.ToUpper(s)
	if up == "2A" || up == "2B" {
		return Code(up), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid department code %q", raw)
	}
	if n < 10 {
		return Code("0" + strconv.Itoa(n)), nil
	}
	return Code(strconv.Itoa(n)), nil
}

// ParseRegion builds a region code from a raw cell. Region codes are compared
// in their numeric form, so "011" and "11.0" both give "11".
func ParseRegion(raw string) (Code, error) {
	s := cleanCell(raw)
	if s == "" {
		return "", nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return "", fmt.Errorf("invalid region code %q", raw)
	}
	return Code(strconv.Itoa(n)), nil
}

// Parse dispatches to ParseDepartment or ParseRegion.
func Parse(kind Kind, raw string) (Code, error) {
	if kind == Region {
		return ParseRegion(raw)
	}
	return ParseDepartment(raw)
}

func cleanCell(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, "nan") {
		return ""
	}
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	return s
}

// sortKey orders codes numerically; Corsica sorts between 19 and 21.
func (c Code) sortKey() (int, int) {
	switch c {
	case "2A":
		return 20, 1
	case "2B":
		return 20, 2
	}
	n, err := strconv.Atoi(string(c))
	if err != nil {
		return int(^uint(0) >> 1), 0
	}
	return n, 0
}

// Less orders codes in ascending numeric order.
func Less(a, b Code) bool {
	an, as := a.sortKey()
	bn, bs := b.sortKey()
	if an != bn {
		return an < bn
	}
	if as != bs {
		return as < bs
	}
	return a < b
}

// Sort sorts codes in place with Less.
func Sort(codes []Code) {
	sort.Slice(codes, func(i, j int) bool { return Less(codes[i], codes[j]) })
}

// Distinct returns the non-zero codes of in, deduplicated and sorted with Less.
func Distinct(in []Code) []Code {
	seen := make(map[Code]struct{}, len(in))
	out := make([]Code, 0)
	for _, c := range in {
		if c.IsZero() {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	Sort(out)
	return out
}
