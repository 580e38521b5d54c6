// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package collector

import (
	"context"

	"github.com/ghiwatch/beaconwatch/internal/models"
)

// SignalLookup is the existence-check capability the deduplicator needs.
// Satisfied by *database.DB and, for in-run visibility, by *database.Batch.
type SignalLookup interface {
	FindByEventID(ctx context.Context, beaconEventID string) (*models.Signal, error)
	FindBySourceURL(ctx context.Context, sourceURL string) (*models.Signal, error)
}

// Deduplicator decides whether a normalized signal already exists: first by
// beacon event id, then by source URL. First match wins; there is no fuzzy
// matching.
type Deduplicator struct {
	lookup SignalLookup
}

// NewDeduplicator creates a deduplicator over the given lookup. Passing the
// run's batch makes rows inserted earlier in the same run count as existing.
func NewDeduplicator(lookup SignalLookup) *Deduplicator {
	return &Deduplicator{lookup: lookup}
}

// IsDuplicate reports whether a persisted signal shares the candidate's
// beacon event id or source URL. Lookup errors propagate; they abort the run.
func (d *Deduplicator) IsDuplicate(ctx context.Context, signal *models.Signal) (bool, error) {
	if signal.BeaconEventID != "" {
		existing, err := d.lookup.FindByEventID(ctx, signal.BeaconEventID)
		if err != nil {
			return false, err
		}
		if existing != nil {
			return true, nil
		}
	}

	if signal.SourceURL != "" {
		existing, err := d.lookup.FindBySourceURL(ctx, signal.SourceURL)
		if err != nil {
			return false, err
		}
		if existing != nil {
			return true, nil
		}
	}

	return false, nil
}
