// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package metrics defines the Prometheus instrumentation for the ingestion
// pipeline. Metrics are registered with the default registry via promauto and
// exposed at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync operation metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beacon_sync_duration_seconds",
			Help:    "Duration of ingestion runs in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	SyncNewSignals = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_sync_new_signals_total",
			Help: "Total number of new signals persisted across all runs",
		},
	)

	SyncSkips = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_sync_skips_total",
			Help: "Total number of skipped ingestion invocations",
		},
		[]string{"reason"}, // "already_running", "rate_limited"
	)

	SyncErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_sync_errors_total",
			Help: "Total number of failed ingestion runs",
		},
		[]string{"error_type"}, // "persistence"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "beacon_sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful ingestion run",
		},
	)

	// Fetch metrics
	FetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_fetch_failures_total",
			Help: "Total number of feed fetches degraded to an empty document",
		},
	)

	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beacon_fetch_duration_seconds",
			Help:    "Duration of feed fetches in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Parser cascade metrics
	ParseCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_parse_candidates_total",
			Help: "Total number of raw candidates extracted, by winning strategy",
		},
		[]string{"strategy"}, // "embedded-json", "anchor-title", "generic-card"
	)

	ParseSkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_parse_skips_total",
			Help: "Total number of candidates dropped during normalization",
		},
	)

	// Geocode resolver metrics
	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "beacon_geocode_lookups_total",
			Help: "Total number of geocode resolutions, by outcome tier",
		},
		[]string{"source"}, // "cache", "location", "country", "failed"
	)

	GeocodeAPICallDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "beacon_geocode_api_call_duration_seconds",
			Help:    "Duration of live Nominatim lookups in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Notification metrics
	NotificationsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "beacon_notifications_published_total",
			Help: "Total number of critical-signal notifications published",
		},
	)
)
