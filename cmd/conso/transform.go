package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hazyhaar/conso-energie/pkg/conso"
	"github.com/hazyhaar/conso-energie/pkg/export"
	"github.com/hazyhaar/conso-energie/pkg/importer"
	"github.com/hazyhaar/conso-energie/pkg/store"
	"github.com/hazyhaar/conso-energie/pkg/zone"
)

func cmdTransform(args []string) {
	fs := flag.NewFlagSet("transform", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	residential := fs.String("residential", "", "residential consumption CSV (overrides config)")
	business := fs.String("business", "", "business consumption CSV (overrides config)")
	population := fs.String("population", "", "population workbook (overrides config)")
	outputDir := fs.String("output-dir", "", "output directory (overrides config)")
	formats := fs.String("formats", "", "comma-separated output formats: csv,json,xlsx")
	keepGoing := fs.Bool("continue-on-error", false, "skip failing zones instead of aborting")
	noStore := fs.Bool("no-store", false, "do not record the run in the result store")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)
	if *residential != "" {
		cfg.ResidentialCSV = *residential
	}
	if *business != "" {
		cfg.BusinessCSV = *business
	}
	if *population != "" {
		cfg.PopulationXLSX = *population
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *formats != "" {
		cfg.OutputFormats = strings.Split(*formats, ",")
	}
	if *keepGoing {
		cfg.ContinueOnError = true
	}

	sdb, err := openSources(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur ouverture sources.db: %v\n", err)
		os.Exit(1)
	}
	defer sdb.Close()

	var st *store.Store
	if !*noStore {
		st, err = store.Open(cfg.DBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
			os.Exit(1)
		}
		defer st.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Hour)
	defer cancel()

	m, err := runTransform(ctx, cfg, sdb, st, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("run %s: %d année(s), %d zone(s) en échec -> %s\n",
		m.RunID, len(m.Years), len(m.Failures), cfg.OutputDir)
}

// runTransform reads the three inputs, runs the pipeline, writes the outputs
// and records the run. sdb and st may be nil.
func runTransform(ctx context.Context, cfg config, sdb *importer.SourceDB, st *store.Store, logger *slog.Logger) (*export.Manifest, error) {
	formats, err := export.ParseFormats(cfg.OutputFormats)
	if err != nil {
		return nil, err
	}

	cat := zone.DefaultCatalog()
	if cfg.CatalogFile != "" {
		if cat, err = zone.LoadCatalog(cfg.CatalogFile); err != nil {
			return nil, err
		}
	}

	paths := map[string]string{
		"residentiel": inputPath(cfg.ResidentialCSV, sdb, "residentiel", filepath.Join(cfg.DataDir, importer.ResidentialFile), logger),
		"entreprise":  inputPath(cfg.BusinessCSV, sdb, "entreprise", filepath.Join(cfg.DataDir, importer.BusinessFile), logger),
		"population":  inputPath(cfg.PopulationXLSX, sdb, "population", filepath.Join(cfg.DataDir, importer.PopulationFile), logger),
	}

	pop, err := importer.ReadPopulationXLSX(paths["population"], importer.XLSXOptions{
		Sheet:   cfg.PopulationSheet,
		Columns: cfg.PopulationColumns,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	csvOpts := importer.CSVOptions{
		Delimiter: cfg.CSVDelimiter,
		Encoding:  cfg.CSVEncoding,
		Columns:   cfg.ConsumptionColumns,
		Logger:    logger,
	}
	res, err := importer.ReadConsumptionFile(paths["residentiel"], conso.Residential, csvOpts)
	if err != nil {
		return nil, err
	}
	ent, err := importer.ReadConsumptionFile(paths["entreprise"], conso.Business, csvOpts)
	if err != nil {
		return nil, err
	}
	logger.Info("inputs loaded",
		"residential", len(res), "business", len(ent), "population_rows", len(pop.Rows))

	p := &conso.Pipeline{Catalog: cat, Logger: logger, ContinueOnError: cfg.ContinueOnError}
	result, err := p.Run(conso.Input{Residential: res, Business: ent, Population: pop})
	if err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	w := &export.Writer{Dir: cfg.OutputDir, Formats: formats, Logger: logger}
	m, err := w.Write(result, runID, paths)
	if err != nil {
		return nil, err
	}

	if st != nil {
		if err := st.SaveRun(ctx, runID, result); err != nil {
			return nil, err
		}
		if cfg.KeepRuns > 0 {
			n, err := st.Prune(ctx, cfg.KeepRuns)
			if err != nil {
				return nil, err
			}
			if n > 0 {
				logger.Info("old runs pruned", "count", n)
			}
		}
	}
	logger.Info("run complete", "run_id", runID, "years", result.Years, "failures", len(result.Failures))
	return m, nil
}

// inputPath picks the configured path, else the last fetched file, else fallback.
func inputPath(configured string, sdb *importer.SourceDB, dataset, fallback string, logger *slog.Logger) string {
	if configured != "" {
		return configured
	}
	if sdb != nil {
		p, err := sdb.LocalPath(dataset)
		if err != nil {
			logger.Warn("source lookup failed", "dataset", dataset, "error", err)
		} else if p != "" {
			return p
		}
	}
	return fallback
}
