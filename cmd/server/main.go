// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package main is the entry point for the BeaconWatch server.
//
// BeaconWatch ingests outbreak signals from the WHO Beacon event feed,
// normalizes and geocodes them, persists them to DuckDB and publishes
// critical signals for downstream triage.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered defaults, config file, environment
//  2. Database: DuckDB signal store with schema bootstrap
//  3. Geocoding: cache-backed resolver over a rate-limited Nominatim client
//  4. Feed pipeline: circuit-broken fetcher, parser cascade, normalizer
//  5. Notifications: in-process pub/sub for critical signals
//  6. Supervisor tree: collector loop, delivery logger and HTTP server
//
// The server handles graceful shutdown on SIGINT and SIGTERM: the
// supervisor tree stops its services, then the notifier and database
// are closed.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghiwatch/beaconwatch/internal/api"
	"github.com/ghiwatch/beaconwatch/internal/collector"
	"github.com/ghiwatch/beaconwatch/internal/config"
	"github.com/ghiwatch/beaconwatch/internal/database"
	"github.com/ghiwatch/beaconwatch/internal/feed"
	"github.com/ghiwatch/beaconwatch/internal/geocode"
	"github.com/ghiwatch/beaconwatch/internal/logging"
	"github.com/ghiwatch/beaconwatch/internal/notify"
	"github.com/ghiwatch/beaconwatch/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}

// run owns all resources so that deferred cleanup executes before main
// decides the exit code.
func run() error {
	// Load configuration first to get logging settings
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
		Str("feed_url", cfg.Beacon.FeedBaseURL+cfg.Beacon.FeedPath).
		Bool("poll_enabled", cfg.Beacon.Enabled).
		Str("db_path", cfg.Database.Path).
		Msg("Starting BeaconWatch")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	provider := geocode.NewNominatimProvider(geocode.NominatimConfig{
		BaseURL:      cfg.Geocode.BaseURL,
		UserAgent:    cfg.Geocode.UserAgent,
		Timeout:      cfg.Geocode.Timeout,
		RateInterval: cfg.Geocode.RateInterval,
	})
	resolver := geocode.NewResolver(db, provider)

	notifier := notify.NewNotifier()
	defer func() {
		if err := notifier.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing notifier")
		}
	}()

	beaconCollector := collector.New(
		cfg.Beacon,
		feed.NewFetcher(cfg.Beacon),
		feed.NewParser(),
		collector.NewNormalizer(resolver, cfg.Beacon),
		db,
		notifier,
	)

	server := api.NewServer(cfg.Server, beaconCollector, db)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if cfg.Beacon.Enabled {
		tree.AddIngestionService(beaconCollector)
	} else {
		logging.Info().Msg("Background polling disabled; manual sync trigger only")
	}
	tree.AddIngestionService(notify.NewDeliveryLogger(notifier))
	tree.AddAPIService(server)

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
