package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/conso-energie/pkg/importer"
)

type config struct {
	Addr      string `yaml:"addr"`
	CertFile  string `yaml:"cert_file"` // TLS is enabled when both are set
	KeyFile   string `yaml:"key_file"`
	DataDir   string `yaml:"data_dir"`
	OutputDir string `yaml:"output_dir"`
	DBPath    string `yaml:"db_path"`

	// Input files. Empty means the last fetched file, then the default
	// file name inside data_dir.
	ResidentialCSV  string `yaml:"residential_csv"`
	BusinessCSV     string `yaml:"business_csv"`
	PopulationXLSX  string `yaml:"population_xlsx"`
	PopulationSheet string `yaml:"population_sheet"`

	CSVDelimiter       string                      `yaml:"csv_delimiter"`
	CSVEncoding        string                      `yaml:"csv_encoding"`
	ConsumptionColumns importer.ConsumptionColumns `yaml:"consumption_columns"`
	PopulationColumns  importer.PopulationColumns  `yaml:"population_columns"`
	CatalogFile        string                      `yaml:"catalog_file"`

	OutputFormats   []string      `yaml:"output_formats"`
	ContinueOnError bool          `yaml:"continue_on_error"`
	KeepRuns        int           `yaml:"keep_runs"`
	CheckInterval   time.Duration `yaml:"check_interval"`
	LogLevel        string        `yaml:"log_level"`
}

func defaultConfig() config {
	return config{
		Addr:               ":8421",
		DataDir:            "data",
		OutputDir:          "processed_data",
		DBPath:             "conso.db",
		CSVDelimiter:       ";",
		CSVEncoding:        "utf-8",
		ConsumptionColumns: importer.DefaultConsumptionColumns,
		PopulationColumns:  importer.DefaultPopulationColumns,
		OutputFormats:      []string{"csv"},
		KeepRuns:           10,
		CheckInterval:      6 * time.Hour,
		LogLevel:           "info",
	}
}

// loadConfig reads path over the defaults. A missing file is not an error.
func loadConfig(path string, logger *slog.Logger) (config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no config file, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.CheckInterval <= 0 {
		return cfg, fmt.Errorf("config %s: check_interval must be positive", path)
	}
	return cfg, nil
}

func (c config) level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// setup loads the config named by cfgPath and returns it with a logger at
// the configured level. Errors exit the process.
func setup(cfgPath string) (config, *slog.Logger) {
	cfg, err := loadConfig(cfgPath, newLogger(slog.LevelInfo))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
		os.Exit(1)
	}
	return cfg, newLogger(cfg.level())
}
