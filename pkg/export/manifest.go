package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/conso-energie/pkg/conso"
)

// Manifest describes a run's outputs. It is written next to them as manifest.yaml.
type Manifest struct {
	RunID     string            `yaml:"run_id" json:"run_id"`
	CreatedAt string            `yaml:"created_at" json:"created_at"`
	Years     []int             `yaml:"years" json:"years"`
	Formats   []Format          `yaml:"formats" json:"formats"`
	Inputs    map[string]string `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Tables    []TableInfo       `yaml:"tables" json:"tables"`
	Failures  []string          `yaml:"failures,omitempty" json:"failures,omitempty"`
}

// TableInfo lists the files holding one output table.
type TableInfo struct {
	Name  string   `yaml:"name" json:"name"`
	Rows  int      `yaml:"rows" json:"rows"`
	Files []string `yaml:"files" json:"files"`
}

func newManifest(runID string, res *conso.Result, formats []Format, inputs map[string]string) *Manifest {
	m := &Manifest{
		RunID:     runID,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
		Years:     res.Years,
		Formats:   formats,
		Inputs:    inputs,
	}
	for _, f := range res.Failures {
		m.Failures = append(m.Failures, f.Error())
	}
	return m
}

// writeManifest writes a Manifest as YAML to dir/manifest.yaml.
func writeManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.yaml"), data, 0o644)
}
