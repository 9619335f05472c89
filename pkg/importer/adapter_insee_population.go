package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func init() {
	Register(&inseePopulationAdapter{})
}

// inseePopulationAdapter fetches the municipal population workbook. INSEE
// publishes it either as a bare .xlsx or zipped.
type inseePopulationAdapter struct{}

func (a *inseePopulationAdapter) ID() string      { return "insee-population" }
func (a *inseePopulationAdapter) Dataset() string { return "population" }
func (a *inseePopulationAdapter) Description() string {
	return "INSEE population municipale des communes (p18..p21)"
}

// DefaultURL is empty: the workbook has no stable URL, set one with
// `conso sources set-url insee-population <url>`.
func (a *inseePopulationAdapter) DefaultURL() string { return "" }
func (a *inseePopulationAdapter) License() string    { return "Licence Ouverte v2" }

func (a *inseePopulationAdapter) Fetch(ctx context.Context, sourceURL, dataDir string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("no source URL configured for %s", a.ID())
	}
	if err := ensureDir(dataDir); err != nil {
		return "", err
	}
	dest := filepath.Join(dataDir, PopulationFile)

	if !strings.HasSuffix(strings.ToLower(urlPath(sourceURL)), ".zip") {
		if err := downloadFile(ctx, sourceURL, dest); err != nil {
			return "", fmt.Errorf("download: %w", err)
		}
		return dest, nil
	}

	dlDir := filepath.Join(dataDir, "_download")
	if err := ensureDir(dlDir); err != nil {
		return "", err
	}
	defer os.RemoveAll(dlDir)

	zipPath := filepath.Join(dlDir, "population.zip")
	if err := downloadFile(ctx, sourceURL, zipPath); err != nil {
		return "", fmt.Errorf("download: %w", err)
	}
	files, err := unzipFile(zipPath, dlDir)
	if err != nil {
		return "", fmt.Errorf("unzip: %w", err)
	}
	for _, f := range files {
		if strings.HasSuffix(strings.ToLower(f), ".xlsx") {
			if err := os.Rename(f, dest); err != nil {
				return "", fmt.Errorf("move %s: %w", f, err)
			}
			return dest, nil
		}
	}
	return "", fmt.Errorf("no XLSX found in ZIP")
}
