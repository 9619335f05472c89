package importer

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Adapter is a public data source the pipeline reads: one of the two
// consumption datasets or the population reference table.
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "enedis-residentiel").
	ID() string
	// Dataset returns the pipeline input it feeds: "residentiel", "entreprise" or "population".
	Dataset() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license identifier for this source (e.g. "Licence Ouverte v2").
	License() string
	// Fetch downloads the source from sourceURL into dataDir and returns the
	// path of the file the readers expect.
	Fetch(ctx context.Context, sourceURL, dataDir string) (string, error)
}

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID, or an error if not found.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("unknown import source: %q", id)
	}
	return a, nil
}

// ForDataset returns the registered adapter feeding dataset.
func ForDataset(dataset string) (Adapter, error) {
	for _, a := range All() {
		if a.Dataset() == dataset {
			return a, nil
		}
	}
	return nil, fmt.Errorf("no import source for dataset %q", dataset)
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
