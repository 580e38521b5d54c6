// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package config holds application configuration loaded with Koanf v2.
//
// Configuration loading order (highest priority wins):
//  1. Built-in defaults
//  2. Optional YAML config file (config.yaml, or CONFIG_PATH)
//  3. Environment variables (BEACON_FEED_BASE_URL -> beacon.feed_base_url)
//
// Config is immutable after Load() and safe for concurrent reads.
package config

import "time"

// Config holds all application configuration.
type Config struct {
	Beacon   BeaconConfig   `koanf:"beacon"`
	Geocode  GeocodeConfig  `koanf:"geocode"`
	Database DatabaseConfig `koanf:"database"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// BeaconConfig configures the feed fetcher and the ingestion scheduler.
type BeaconConfig struct {
	// Enabled controls whether the background poll loop runs. The manual
	// sync trigger works either way.
	Enabled bool `koanf:"enabled"`

	// FeedBaseURL is the origin of the event feed. Relative source URLs in
	// parsed candidates are resolved against it.
	FeedBaseURL string `koanf:"feed_base_url" validate:"required,url"`

	// FeedPath is the path of the events listing page.
	FeedPath string `koanf:"feed_path" validate:"required"`

	// Render routes the fetch through the scraper/render service so that
	// script-driven feed pages are fully materialized before parsing.
	Render bool `koanf:"render"`

	// ScraperBaseURL is the render service endpoint, used when Render is on.
	ScraperBaseURL string `koanf:"scraper_base_url"`

	// Wait is the render wait strategy: load, domcontentloaded or networkidle.
	Wait string `koanf:"wait" validate:"oneof=load domcontentloaded networkidle"`

	// FetchTimeout bounds one feed fetch end to end.
	FetchTimeout time.Duration `koanf:"fetch_timeout" validate:"min=1s"`

	// MinInterval is the minimum spacing between ingestion runs. Invocations
	// inside the window are skipped without fetching.
	MinInterval time.Duration `koanf:"min_interval" validate:"min=1m"`

	// PollInterval is the background poll cadence.
	PollInterval time.Duration `koanf:"poll_interval" validate:"min=1m"`

	// PollJitter is the maximum random delay added to each poll tick so that
	// multiple deployments do not hit the feed in lockstep.
	PollJitter time.Duration `koanf:"poll_jitter"`
}

// GeocodeConfig configures the Nominatim client used by the resolver.
type GeocodeConfig struct {
	// BaseURL of the Nominatim-compatible geocoding service.
	BaseURL string `koanf:"base_url" validate:"required,url"`

	// UserAgent identifies this deployment to the provider, required by the
	// Nominatim usage policy.
	UserAgent string `koanf:"user_agent" validate:"required"`

	// Timeout bounds a single geocoding request.
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`

	// RateInterval is the mandatory minimum spacing between live lookups.
	// The provider's usage policy requires at least one second; the extra
	// margin absorbs clock skew.
	RateInterval time.Duration `koanf:"rate_interval" validate:"min=1s"`
}

// DatabaseConfig configures the DuckDB signal store.
type DatabaseConfig struct {
	// Path of the database file. Empty string opens an in-memory database.
	Path string `koanf:"path"`

	// MaxMemory is the DuckDB memory limit, e.g. "1GB".
	MaxMemory string `koanf:"max_memory"`

	// Threads for DuckDB query execution. 0 = runtime.NumCPU().
	Threads int `koanf:"threads" validate:"min=0"`
}

// ServerConfig configures the HTTP status/trigger surface.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"min=1s"`
}

// LoggingConfig configures the zerolog global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and environment variables.
func defaultConfig() *Config {
	return &Config{
		Beacon: BeaconConfig{
			Enabled:        true,
			FeedBaseURL:    "https://beaconbio.org",
			FeedPath:       "/en/events",
			Render:         true,
			ScraperBaseURL: "http://localhost:8787",
			Wait:           "networkidle",
			FetchTimeout:   15 * time.Second,
			MinInterval:    15 * time.Minute,
			PollInterval:   15 * time.Minute,
			PollJitter:     30 * time.Second,
		},
		Geocode: GeocodeConfig{
			BaseURL:      "https://nominatim.openstreetmap.org",
			UserAgent:    "beaconwatch/1.0",
			Timeout:      5 * time.Second,
			RateInterval: 1100 * time.Millisecond,
		},
		Database: DatabaseConfig{
			Path:      "/data/beaconwatch.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8790,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
