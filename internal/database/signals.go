// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ghiwatch/beaconwatch/internal/models"
)

const signalColumns = `id, beacon_event_id, source_url, disease, country, location,
	date_reported, date_onset, cases, deaths, case_fatality_rate, description,
	outbreak_status, priority_score, triage_status, current_status, raw_data,
	latitude, longitude, geocode_source, geocoded_at, location_hash,
	last_beacon_sync, created_at`

// rowQuerier is satisfied by both *sql.DB and *sql.Tx, so the existence
// lookups work on the main connection and inside a run batch.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// FindByEventID returns the signal with the given beacon event id, or nil if
// none exists.
func (db *DB) FindByEventID(ctx context.Context, beaconEventID string) (*models.Signal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return findSignal(ctx, db.conn, "beacon_event_id", beaconEventID)
}

// FindBySourceURL returns the signal with the given source URL, or nil if
// none exists.
func (db *DB) FindBySourceURL(ctx context.Context, sourceURL string) (*models.Signal, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	return findSignal(ctx, db.conn, "source_url", sourceURL)
}

func findSignal(ctx context.Context, q rowQuerier, column, value string) (*models.Signal, error) {
	query := fmt.Sprintf("SELECT %s FROM signals WHERE %s = ? LIMIT 1", signalColumns, column)
	row := q.QueryRowContext(ctx, query, value)

	signal, err := scanSignal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query signal by %s: %w", column, err)
	}
	return signal, nil
}

// FindCachedCoordinates returns the coordinates of any persisted signal with
// the given location hash, or nil on a miss. This is the geocode resolver's
// cache tier.
func (db *DB) FindCachedCoordinates(ctx context.Context, locationHash string) (*models.CachedCoordinates, error) {
	if locationHash == "" {
		return nil, nil
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var coords models.CachedCoordinates
	err := db.conn.QueryRowContext(ctx,
		`SELECT latitude, longitude FROM signals
		 WHERE location_hash = ? AND latitude IS NOT NULL AND longitude IS NOT NULL
		 LIMIT 1`, locationHash).Scan(&coords.Latitude, &coords.Longitude)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query cached coordinates: %w", err)
	}
	return &coords, nil
}

// MaxLastSyncTimestamp returns the most recent last_beacon_sync across all
// persisted signals, or nil when the store is empty. The scheduler
// cross-checks it against its in-memory timestamp so a restart does not reset
// the rate-limit window.
func (db *DB) MaxLastSyncTimestamp(ctx context.Context) (*time.Time, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var last sql.NullTime
	err := db.conn.QueryRowContext(ctx, "SELECT max(last_beacon_sync) FROM signals").Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("failed to query max sync timestamp: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	return &last.Time, nil
}

// CountSignals returns the total number of persisted signals.
func (db *DB) CountSignals(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var count int
	if err := db.conn.QueryRowContext(ctx, "SELECT count(*) FROM signals").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count signals: %w", err)
	}
	return count, nil
}

// Batch is a run-scoped transaction: all signals of one ingestion run are
// inserted through a single batch and become visible only on Commit.
type Batch struct {
	tx *sql.Tx
}

// BeginBatch starts the transaction for one ingestion run.
func (db *DB) BeginBatch(ctx context.Context) (*Batch, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin batch: %w", err)
	}
	return &Batch{tx: tx}, nil
}

// InsertSignal adds one signal to the batch and fills in its assigned id.
func (b *Batch) InsertSignal(ctx context.Context, signal *models.Signal) error {
	err := b.tx.QueryRowContext(ctx,
		`INSERT INTO signals (
			beacon_event_id, source_url, disease, country, location,
			date_reported, date_onset, cases, deaths, case_fatality_rate,
			description, outbreak_status, priority_score, triage_status,
			current_status, raw_data, latitude, longitude, geocode_source,
			geocoded_at, location_hash, last_beacon_sync
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		signal.BeaconEventID, signal.SourceURL, signal.Disease, signal.Country,
		signal.Location, signal.DateReported, signal.DateOnset, signal.Cases,
		signal.Deaths, signal.CaseFatalityRate, signal.Description,
		signal.OutbreakStatus, signal.PriorityScore, signal.TriageStatus,
		signal.CurrentStatus, signal.RawData, signal.Latitude, signal.Longitude,
		nullableSource(signal.GeocodeSource), signal.GeocodedAt,
		nullableString(signal.LocationHash), signal.LastBeaconSync,
	).Scan(&signal.ID)
	if err != nil {
		return fmt.Errorf("failed to insert signal %s: %w", signal.BeaconEventID, err)
	}
	return nil
}

// FindByEventID looks up a signal through the batch transaction, so rows
// inserted earlier in the same run are visible before commit.
func (b *Batch) FindByEventID(ctx context.Context, beaconEventID string) (*models.Signal, error) {
	return findSignal(ctx, b.tx, "beacon_event_id", beaconEventID)
}

// FindBySourceURL looks up a signal through the batch transaction.
func (b *Batch) FindBySourceURL(ctx context.Context, sourceURL string) (*models.Signal, error) {
	return findSignal(ctx, b.tx, "source_url", sourceURL)
}

// Commit makes the batch's inserts durable.
func (b *Batch) Commit() error {
	if err := b.tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Rollback discards the batch. Safe to call after Commit.
func (b *Batch) Rollback() error {
	err := b.tx.Rollback()
	if err != nil && !errors.Is(err, sql.ErrTxDone) {
		return fmt.Errorf("failed to roll back batch: %w", err)
	}
	return nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanSignal.
type scanner interface {
	Scan(dest ...any) error
}

func scanSignal(row scanner) (*models.Signal, error) {
	var (
		s             models.Signal
		location      sql.NullString
		dateOnset     sql.NullTime
		cfr           sql.NullFloat64
		description   sql.NullString
		status        sql.NullString
		priority      sql.NullFloat64
		rawData       sql.NullString
		latitude      sql.NullFloat64
		longitude     sql.NullFloat64
		geocodeSource sql.NullString
		geocodedAt    sql.NullTime
		locationHash  sql.NullString
		lastSync      sql.NullTime
	)

	err := row.Scan(
		&s.ID, &s.BeaconEventID, &s.SourceURL, &s.Disease, &s.Country, &location,
		&s.DateReported, &dateOnset, &s.Cases, &s.Deaths, &cfr, &description,
		&status, &priority, &s.TriageStatus, &s.CurrentStatus, &rawData,
		&latitude, &longitude, &geocodeSource, &geocodedAt, &locationHash,
		&lastSync, &s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if location.Valid {
		s.Location = &location.String
	}
	if dateOnset.Valid {
		s.DateOnset = &dateOnset.Time
	}
	if cfr.Valid {
		s.CaseFatalityRate = &cfr.Float64
	}
	if description.Valid {
		s.Description = &description.String
	}
	if status.Valid {
		s.OutbreakStatus = &status.String
	}
	if priority.Valid {
		s.PriorityScore = &priority.Float64
	}
	if rawData.Valid {
		s.RawData = rawData.String
	}
	if latitude.Valid {
		s.Latitude = &latitude.Float64
	}
	if longitude.Valid {
		s.Longitude = &longitude.Float64
	}
	if geocodeSource.Valid {
		s.GeocodeSource = models.GeocodeSource(geocodeSource.String)
	}
	if geocodedAt.Valid {
		s.GeocodedAt = &geocodedAt.Time
	}
	if locationHash.Valid {
		s.LocationHash = locationHash.String
	}
	if lastSync.Valid {
		s.LastBeaconSync = lastSync.Time
	}

	return &s, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableSource(s models.GeocodeSource) any {
	return nullableString(string(s))
}
