// Package sector defines the four canonical economic sectors used to break
// down business energy consumption.
package sector

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/conso-energie/pkg/norm"
)

// Sector is one canonical activity sector. Its value indexes a Vector.
type Sector int

const (
	Tertiaire Sector = iota
	Industrie
	Agriculture
	Inconnu

	// Count is the number of canonical sectors.
	Count = 4
)

// All lists the sectors in output order.
var All = [Count]Sector{Tertiaire, Industrie, Agriculture, Inconnu}

var labels = [Count]string{"TERTIAIRE", "INDUSTRIE", "AGRICULTURE", "INCONNU"}

// ErrUnknown is returned by Parse for labels outside the canonical set.
var ErrUnknown = errors.New("unknown sector")

func (s Sector) String() string {
	if s < 0 || int(s) >= Count {
		return fmt.Sprintf("sector(%d)", int(s))
	}
	return labels[s]
}

// Parse maps a raw source label to its sector. Case, accents and
// surrounding spaces are ignored.
func Parse(label string) (Sector, error) {
	key := norm.Upper(label)
	for i, l := range labels {
		if key == l {
			return Sector(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknown, label)
}

// Labels returns the canonical labels in output order.
func Labels() []string {
	out := make([]string, Count)
	copy(out, labels[:])
	return out
}

// Vector holds one value per sector, indexed by Sector.
type Vector [Count]float64

// Add accumulates v into the sector's slot.
func (vec *Vector) Add(s Sector, v float64) {
	vec[s] += v
}

// Get returns the sector's value.
func (vec Vector) Get(s Sector) float64 {
	return vec[s]
}

// Total sums all sectors.
func (vec Vector) Total() float64 {
	var t float64
	for _, v := range vec {
		t += v
	}
	return t
}

// Map returns the vector keyed by label, used by JSON encoders.
func (vec Vector) Map() map[string]float64 {
	m := make(map[string]float64, Count)
	for _, s := range All {
		m[s.String()] = vec[s]
	}
	return m
}
