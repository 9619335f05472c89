package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hazyhaar/conso-energie/pkg/importer"
)

// openSources opens the source DB inside the data directory and seeds it
// with the registered adapters.
func openSources(cfg config) (*importer.SourceDB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	sdb, err := importer.OpenSourceDB(filepath.Join(cfg.DataDir, "sources.db"))
	if err != nil {
		return nil, err
	}
	if err := sdb.Seed(importer.All()); err != nil {
		sdb.Close()
		return nil, fmt.Errorf("seed sources: %w", err)
	}
	return sdb, nil
}

func cmdFetch(args []string) {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	source := fs.String("source", "", "adapter ID to fetch (e.g. enedis-entreprise)")
	all := fs.Bool("all", false, "fetch all sources")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)

	sdb, err := openSources(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur ouverture sources.db: %v\n", err)
		os.Exit(1)
	}
	defer sdb.Close()

	if !*all && *source == "" {
		printSources(sdb)
		fmt.Println()
		fmt.Println("Usage :")
		fmt.Println("  conso fetch --source <id>")
		fmt.Println("  conso fetch --all")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
	defer cancel()

	var targets []importer.Adapter
	if *all {
		targets = importer.All()
	} else {
		a, err := importer.Get(*source)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
			os.Exit(1)
		}
		targets = []importer.Adapter{a}
	}

	failed := 0
	for _, a := range targets {
		if err := fetchOne(ctx, sdb, a, cfg.DataDir); err != nil {
			logger.Error("fetch failed", "source", a.ID(), "error", err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func fetchOne(ctx context.Context, sdb *importer.SourceDB, a importer.Adapter, dataDir string) error {
	url, err := sdb.GetURL(a.ID())
	if err != nil {
		return err
	}
	fmt.Printf("[%s] Téléchargement en cours...\n", a.ID())
	path, err := a.Fetch(ctx, url, dataDir)
	if err != nil {
		return err
	}
	if err := sdb.RecordFetch(a.ID(), path); err != nil {
		return err
	}
	fmt.Printf("[%s] OK -> %s\n", a.ID(), path)
	return nil
}

func cmdSources(args []string) {
	fs := flag.NewFlagSet("sources", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, _ := setup(*cfgPath)

	sdb, err := openSources(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur ouverture sources.db: %v\n", err)
		os.Exit(1)
	}
	defer sdb.Close()

	rest := fs.Args()
	if len(rest) == 0 || rest[0] == "list" {
		printSources(sdb)
		return
	}
	if rest[0] != "set-url" || len(rest) != 3 {
		fmt.Fprintln(os.Stderr, "Usage : conso sources [list | set-url <id> <url>]")
		os.Exit(1)
	}
	if _, err := importer.Get(rest[1]); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
		os.Exit(1)
	}
	if err := sdb.SetURL(rest[1], rest[2]); err != nil {
		fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("[%s] URL -> %s\n", rest[1], rest[2])
}

func printSources(sdb *importer.SourceDB) {
	sources, err := sdb.ListSources()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Erreur: %v\n", err)
		return
	}
	fmt.Println("Sources disponibles :")
	fmt.Println()
	for _, src := range sources {
		status := ""
		if src.LastStatus != nil {
			status = fmt.Sprintf("  [%d]", *src.LastStatus)
		}
		if src.Stale() {
			status += "  [mise à jour disponible]"
		}
		local := "non téléchargé"
		if src.LocalPath != nil && *src.LocalPath != "" {
			local = *src.LocalPath
		}
		fmt.Printf("  %-20s  %-12s  %s  (%s)%s\n", src.AdapterID, src.Dataset, src.Description, local, status)
	}
}
