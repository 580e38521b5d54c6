// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package collector

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ghiwatch/beaconwatch/internal/config"
	"github.com/ghiwatch/beaconwatch/internal/database"
	"github.com/ghiwatch/beaconwatch/internal/feed"
	"github.com/ghiwatch/beaconwatch/internal/logging"
	"github.com/ghiwatch/beaconwatch/internal/metrics"
	"github.com/ghiwatch/beaconwatch/internal/models"
)

// CriticalNotifier is the fire-and-forget notification trigger invoked for
// every newly inserted critical signal. Satisfied by *notify.Notifier.
type CriticalNotifier interface {
	NotifyCriticalSignal(signal *models.Signal)
}

// Collector owns the ingestion pipeline and its scheduling: single-flight
// execution, the minimum interval between runs and the sync status snapshot.
// All status fields are guarded by mu.
type Collector struct {
	cfg        config.BeaconConfig
	fetcher    *feed.Fetcher
	parser     *feed.Parser
	normalizer *Normalizer
	db         *database.DB
	notifier   CriticalNotifier
	now        func() time.Time

	mu            sync.Mutex
	isActive      bool
	lastSyncAt    *time.Time
	lastSyncError string
	lastSyncCount int
}

// New creates a collector. notifier may be nil, in which case critical
// signals only show up in logs and metrics.
func New(cfg config.BeaconConfig, fetcher *feed.Fetcher, parser *feed.Parser, normalizer *Normalizer, db *database.DB, notifier CriticalNotifier) *Collector {
	return &Collector{
		cfg:        cfg,
		fetcher:    fetcher,
		parser:     parser,
		normalizer: normalizer,
		db:         db,
		notifier:   notifier,
		now:        time.Now,
	}
}

// FetchAndProcess executes one ingestion run and returns the number of newly
// persisted signals. Runs are skipped without fetching when another run is
// active or the minimum interval has not elapsed; skips return (0, nil).
// Only persistence failures propagate as errors.
//
// An admitted run is detached from the caller's context: a trigger's
// disconnect must not abort in-flight work or burn the rate-limit window on
// a half-finished pass. Once started, a run ends only on its own.
func (c *Collector) FetchAndProcess(ctx context.Context) (int, error) {
	ctx = context.WithoutCancel(ctx)

	runStart, admitted := c.admitRun(ctx)
	if !admitted {
		return 0, nil
	}

	newCount, err := c.runPipeline(ctx, runStart)

	c.mu.Lock()
	c.isActive = false
	if err != nil {
		c.lastSyncError = err.Error()
	} else {
		// The count only tracks successful runs, so a failure keeps the
		// last successful run's count visible in the status.
		c.lastSyncError = ""
		c.lastSyncCount = newCount
	}
	c.mu.Unlock()

	if err != nil {
		metrics.SyncErrors.WithLabelValues("persistence").Inc()
		logging.Error().Err(err).Msg("Beacon sync failed")
		return 0, err
	}

	metrics.SyncNewSignals.Add(float64(newCount))
	metrics.SyncLastSuccess.SetToCurrentTime()
	logging.Info().Int("new_signals", newCount).Msg("Beacon poll complete")
	return newCount, nil
}

// admitRun applies the single-flight and rate-limit gates. On admission it
// marks the run active and records its start time.
func (c *Collector) admitRun(ctx context.Context) (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isActive {
		metrics.SyncSkips.WithLabelValues("already_running").Inc()
		logging.Info().Msg("Skipping Beacon poll, a run is already in progress")
		return time.Time{}, false
	}

	now := c.now().UTC()
	if last := c.effectiveLastSyncLocked(ctx); last != nil {
		if elapsed := now.Sub(*last); elapsed < c.cfg.MinInterval {
			metrics.SyncSkips.WithLabelValues("rate_limited").Inc()
			logging.Info().
				Dur("remaining", c.cfg.MinInterval-elapsed).
				Msg("Skipping Beacon poll to respect rate limits")
			return time.Time{}, false
		}
	}

	c.isActive = true
	c.lastSyncAt = &now
	return now, true
}

// runPipeline is one fetch-parse-normalize-dedup-persist pass. All inserts
// go through a single batch; a commit failure leaves nothing persisted.
func (c *Collector) runPipeline(ctx context.Context, runStart time.Time) (int, error) {
	start := c.now()
	defer func() {
		metrics.SyncDuration.Observe(time.Since(start).Seconds())
	}()

	logging.Info().Str("url", c.fetcher.FeedURL()).Msg("Polling Beacon feed")
	document := c.fetcher.Fetch(ctx)
	candidates := c.parser.Parse(document)
	if len(candidates) == 0 {
		logging.Info().Msg("No candidates extracted from feed")
		return 0, nil
	}

	// Normalization (including geocoding) happens before the write
	// transaction opens, so geocode cache reads never contend with it.
	signals := make([]*models.Signal, 0, len(candidates))
	for _, candidate := range candidates {
		if signal := c.normalizer.Normalize(ctx, candidate, runStart); signal != nil {
			signals = append(signals, signal)
		}
	}
	if len(signals) == 0 {
		return 0, nil
	}

	batch, err := c.db.BeginBatch(ctx)
	if err != nil {
		return 0, err
	}
	defer batch.Rollback() //nolint:errcheck

	dedup := NewDeduplicator(batch)
	inserted := make([]*models.Signal, 0, len(signals))
	for _, signal := range signals {
		duplicate, err := dedup.IsDuplicate(ctx, signal)
		if err != nil {
			return 0, err
		}
		if duplicate {
			logging.Debug().Str("beacon_event_id", signal.BeaconEventID).Msg("Skipping duplicate signal")
			continue
		}
		if err := batch.InsertSignal(ctx, signal); err != nil {
			return 0, err
		}
		inserted = append(inserted, signal)
	}

	if err := batch.Commit(); err != nil {
		return 0, err
	}

	// Notifications fire only after the batch is durable.
	if c.notifier != nil {
		for _, signal := range inserted {
			if signal.IsCritical() {
				c.notifier.NotifyCriticalSignal(signal)
			}
		}
	}

	return len(inserted), nil
}

// Status returns a snapshot of the sync state plus the next admission time.
func (c *Collector) Status(ctx context.Context) models.SyncStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := models.SyncStatus{
		IsActive:      c.isActive,
		LastSyncError: c.lastSyncError,
		LastSyncCount: c.lastSyncCount,
	}

	if last := c.effectiveLastSyncLocked(ctx); last != nil {
		lastCopy := *last
		status.LastSyncAt = &lastCopy
		next := last.Add(c.cfg.MinInterval)
		status.NextAllowedSyncAt = &next
	}

	return status
}

// effectiveLastSyncLocked returns the newer of the in-memory last-sync time
// and the persisted maximum, so a process restart cannot reset the
// rate-limit window. Callers must hold mu.
func (c *Collector) effectiveLastSyncLocked(ctx context.Context) *time.Time {
	persisted, err := c.db.MaxLastSyncTimestamp(ctx)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to read persisted sync timestamp")
		persisted = nil
	}

	switch {
	case persisted == nil:
		return c.lastSyncAt
	case c.lastSyncAt == nil:
		return persisted
	case persisted.After(*c.lastSyncAt):
		return persisted
	default:
		return c.lastSyncAt
	}
}

// Serve runs the background poll loop: one run per poll interval plus a
// random jitter so parallel deployments spread out. Implements
// suture.Service.
func (c *Collector) Serve(ctx context.Context) error {
	logging.Info().
		Dur("poll_interval", c.cfg.PollInterval).
		Dur("jitter", c.cfg.PollJitter).
		Msg("Beacon poll loop started")

	for {
		delay := c.cfg.PollInterval
		if c.cfg.PollJitter > 0 {
			delay += rand.N(c.cfg.PollJitter)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
			if _, err := c.FetchAndProcess(ctx); err != nil {
				logging.Error().Err(err).Msg("Scheduled Beacon poll failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (c *Collector) String() string {
	return "beacon-collector"
}
