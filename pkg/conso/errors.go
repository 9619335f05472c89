package conso

import (
	"errors"
	"fmt"

	"github.com/hazyhaar/conso-energie/pkg/zone"
)

var (
	// ErrMissingPopulation means no population row matches a zone.
	ErrMissingPopulation = errors.New("missing population data")
	// ErrZeroPopulation means a zone population resolved to zero (or a non-finite value).
	ErrZeroPopulation = errors.New("zero population")
	// ErrMixedYears means records handed to an aggregator span several years.
	ErrMixedYears = errors.New("records span several years")
)

// MissingPopulationError names the zone that has no population rows.
type MissingPopulationError struct {
	Kind zone.Kind
	Zone zone.Code
}

func (e *MissingPopulationError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind, e.Zone, ErrMissingPopulation)
}

func (e *MissingPopulationError) Unwrap() error { return ErrMissingPopulation }

// ZoneError reports a failure for one zone of one dataset/year pass.
type ZoneError struct {
	Dataset Dataset
	Level   zone.Kind
	Zone    zone.Code
	Year    int
	Err     error
}

func (e *ZoneError) Error() string {
	return fmt.Sprintf("%s %d, %s %s: %v", e.Dataset, e.Year, e.Level, e.Zone, e.Err)
}

func (e *ZoneError) Unwrap() error { return e.Err }
