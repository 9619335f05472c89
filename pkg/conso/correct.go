package conso

import "github.com/hazyhaar/conso-energie/pkg/zone"

// CorrectRegionCodes overwrites the region of every population row whose
// department belongs to one of regions, using the catalog as the authority.
// The source region column is unreliable at department level since 2015.
// pop is modified in place and returned. Regions the catalog does not know
// are left alone and returned as unknown.
func CorrectRegionCodes(pop *Population, cat *zone.Catalog, regions []zone.Code) (*Population, []zone.Code) {
	var unknown []zone.Code
	active := make(map[zone.Code]struct{}, len(regions))
	for _, reg := range regions {
		if _, ok := cat.Departments(reg); !ok {
			unknown = append(unknown, reg)
			continue
		}
		active[reg] = struct{}{}
	}
	for i := range pop.Rows {
		reg, ok := cat.RegionOf(pop.Rows[i].Department)
		if !ok {
			continue
		}
		if _, in := active[reg]; in {
			pop.Rows[i].Region = reg
		}
	}
	return pop, unknown
}
