// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package database

import (
	"context"
	"fmt"
	"time"
)

// createSchema creates the signals table, its id sequence and indexes.
// Uniqueness of beacon_event_id and source_url is enforced here as the final
// backstop behind the collector's dedup checks.
func (db *DB) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	statements := []string{
		`CREATE SEQUENCE IF NOT EXISTS signals_id_seq`,
		`CREATE TABLE IF NOT EXISTS signals (
			id BIGINT PRIMARY KEY DEFAULT nextval('signals_id_seq'),
			beacon_event_id VARCHAR NOT NULL UNIQUE,
			source_url VARCHAR NOT NULL UNIQUE,
			disease VARCHAR NOT NULL,
			country VARCHAR NOT NULL,
			location VARCHAR,
			date_reported DATE NOT NULL,
			date_onset DATE,
			cases INTEGER NOT NULL DEFAULT 0,
			deaths INTEGER NOT NULL DEFAULT 0,
			case_fatality_rate DOUBLE,
			description VARCHAR,
			outbreak_status VARCHAR,
			priority_score DOUBLE,
			triage_status VARCHAR NOT NULL,
			current_status VARCHAR NOT NULL,
			raw_data VARCHAR,
			latitude DOUBLE,
			longitude DOUBLE,
			geocode_source VARCHAR,
			geocoded_at TIMESTAMP,
			location_hash VARCHAR,
			last_beacon_sync TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT current_timestamp
		)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_location_hash ON signals(location_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_signals_last_beacon_sync ON signals(last_beacon_sync)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
