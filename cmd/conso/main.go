package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/hazyhaar/conso-energie/pkg/api"
	"github.com/hazyhaar/conso-energie/pkg/importer"
	"github.com/hazyhaar/conso-energie/pkg/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "transform":
		cmdTransform(os.Args[2:])
	case "fetch":
		cmdFetch(os.Args[2:])
	case "sources":
		cmdSources(os.Args[2:])
	case "serve":
		cmdServe(os.Args[2:])
	case "mcp":
		cmdMCP(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: conso <command> [flags]

Commands:
  transform   Compute per-resident consumption and sector tables
  fetch       Download the source datasets
  sources     List sources or override a source URL
  serve       Start the HTTP query API and the source checker
  mcp         Serve the query tools over MCP stdio
`)
}

func cmdServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	cfg, logger := setup(*cfgPath)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open result store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	sdb, err := openSources(cfg)
	if err != nil {
		logger.Error("failed to open sources", "error", err)
		os.Exit(1)
	}
	defer sdb.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(st, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// SIGINT/SIGTERM: graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go importer.NewChecker(sdb, logger, cfg.CheckInterval).Start(ctx)

	go func() {
		var err error
		if cfg.CertFile != "" && cfg.KeyFile != "" {
			logger.Info("conso listening", "addr", cfg.Addr, "tls", true)
			err = srv.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
		} else {
			logger.Info("conso listening", "addr", cfg.Addr)
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	srv.Shutdown(shutdownCtx)
}

func cmdMCP(args []string) {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	cfgPath := fs.String("config", "config.yaml", "path to config file")
	fs.Parse(args)

	// stdout carries the protocol; logs go to stderr.
	cfg, logger := setup(*cfgPath)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Error("failed to open result store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	srv := server.NewMCPServer("conso-energie", "1.0.0")
	api.RegisterMCPTools(srv, st, logger)

	if err := server.ServeStdio(srv); err != nil {
		logger.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}
