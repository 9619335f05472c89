package importer

import (
	"context"
	"fmt"
	"path/filepath"
)

// File names the fetched sources are stored under, inside the data directory.
const (
	ResidentialFile = "consommation-annuelle-residentielle-par-adresse.csv"
	BusinessFile    = "consommation-annuelle-entreprise-par-adresse.csv"
	PopulationFile  = "POPULATION_MUNICIPALE_COMMUNES_FRANCE.xlsx"
)

func init() {
	Register(&enedisAdapter{
		id:       "enedis-residentiel",
		dataset:  "residentiel",
		desc:     "Enedis consommation annuelle residentielle par adresse",
		url:      "https://data.enedis.fr/api/explore/v2.1/catalog/datasets/consommation-annuelle-residentielle-par-adresse/exports/csv?delimiter=%3B",
		fileName: ResidentialFile,
	})
	Register(&enedisAdapter{
		id:       "enedis-entreprise",
		dataset:  "entreprise",
		desc:     "Enedis consommation annuelle entreprise par adresse",
		url:      "https://data.enedis.fr/api/explore/v2.1/catalog/datasets/consommation-annuelle-entreprise-par-adresse/exports/csv?delimiter=%3B",
		fileName: BusinessFile,
	})
}

// enedisAdapter fetches one of the per-address consumption exports.
// The files are `;`-separated CSV, read by ReadConsumptionFile.
type enedisAdapter struct {
	id, dataset, desc, url, fileName string
}

func (a *enedisAdapter) ID() string          { return a.id }
func (a *enedisAdapter) Dataset() string     { return a.dataset }
func (a *enedisAdapter) Description() string { return a.desc }
func (a *enedisAdapter) DefaultURL() string  { return a.url }
func (a *enedisAdapter) License() string     { return "Licence Ouverte v2" }

func (a *enedisAdapter) Fetch(ctx context.Context, sourceURL, dataDir string) (string, error) {
	if err := ensureDir(dataDir); err != nil {
		return "", err
	}
	dest := filepath.Join(dataDir, a.fileName)
	if err := downloadFile(ctx, sourceURL, dest); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	return dest, nil
}
