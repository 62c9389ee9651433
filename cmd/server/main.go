// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

// Gridmeter reconciles half-hour energy usage and price readings from a
// retail electricity API into a local DuckDB store, keeping the better
// copy of every reading and an audit trail of every run.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wattsonlabs/gridmeter/internal/amber"
	"github.com/wattsonlabs/gridmeter/internal/api"
	"github.com/wattsonlabs/gridmeter/internal/config"
	"github.com/wattsonlabs/gridmeter/internal/database"
	"github.com/wattsonlabs/gridmeter/internal/logging"
	"github.com/wattsonlabs/gridmeter/internal/supervisor"
	"github.com/wattsonlabs/gridmeter/internal/sync"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", Version).
		Str("site", cfg.Amber.SiteID).
		Str("db_path", cfg.Database.Path).
		Bool("sync_enabled", cfg.Sync.Enabled).
		Bool("dry_run", cfg.Sync.DryRun).
		Msg("Starting Gridmeter")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	// The circuit breaker keeps a flapping upstream from burning the rate
	// budget; pipeline runs see its errors as ordinary stage failures.
	client := amber.NewCircuitBreakerClient(&cfg.Amber)

	manager := sync.NewManager(cfg, db, client)

	handler := api.NewHandler(manager, db, Version)
	server := api.NewServer(&cfg.Server, api.NewRouter(&cfg.Server, handler))

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddSyncService(supervisor.NewSyncService(manager))
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.Timeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := tree.ServeBackground(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
		if err := <-errCh; err != nil && err != context.Canceled {
			logging.Error().Err(err).Msg("Supervisor tree exited with error")
		}
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logging.Fatal().Err(err).Msg("Supervisor tree failed")
		}
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop within timeout")
		}
	}

	logging.Info().Msg("Gridmeter stopped")
}
