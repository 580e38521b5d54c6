// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package models defines the shared data types for the Beacon ingestion
// pipeline: the persisted Signal record, geocoding results and the
// process-wide sync status snapshot.
package models

import "time"

// GeocodeSource records how a signal's coordinates were obtained.
type GeocodeSource string

const (
	// GeocodeSourceCache means coordinates came from a previously persisted
	// signal with the same location hash. No external call was made.
	GeocodeSourceCache GeocodeSource = "cache"

	// GeocodeSourceLocation means the specific location string was geocoded
	// through the external service.
	GeocodeSourceLocation GeocodeSource = "location"

	// GeocodeSourceCountry means coordinates are the country centroid, either
	// from the static table or from a live country-level lookup.
	GeocodeSourceCountry GeocodeSource = "country"

	// GeocodeSourceFailed means no tier produced coordinates. The record is
	// persisted with null coordinates for manual review.
	GeocodeSourceFailed GeocodeSource = "failed"
)

// Default workflow states applied to newly ingested signals.
const (
	TriageStatusPending = "Pending Triage"
	CurrentStatusNew    = "New"
	CriticalPriorityMin = 85.0
)

// Signal is one persisted outbreak record derived from a normalized ingestion
// candidate. BeaconEventID and SourceURL are each unique across all signals.
type Signal struct {
	ID               int64         `json:"id"`
	BeaconEventID    string        `json:"beacon_event_id"`
	SourceURL        string        `json:"source_url"`
	Disease          string        `json:"disease"`
	Country          string        `json:"country"`
	Location         *string       `json:"location,omitempty"`
	DateReported     time.Time     `json:"date_reported"`
	DateOnset        *time.Time    `json:"date_onset,omitempty"`
	Cases            int           `json:"cases"`
	Deaths           int           `json:"deaths"`
	CaseFatalityRate *float64      `json:"case_fatality_rate,omitempty"`
	Description      *string       `json:"description,omitempty"`
	OutbreakStatus   *string       `json:"outbreak_status,omitempty"`
	PriorityScore    *float64      `json:"priority_score,omitempty"`
	TriageStatus     string        `json:"triage_status"`
	CurrentStatus    string        `json:"current_status"`
	RawData          string        `json:"raw_data,omitempty"`
	Latitude         *float64      `json:"latitude,omitempty"`
	Longitude        *float64      `json:"longitude,omitempty"`
	GeocodeSource    GeocodeSource `json:"geocode_source,omitempty"`
	GeocodedAt       *time.Time    `json:"geocoded_at,omitempty"`
	LocationHash     string        `json:"location_hash,omitempty"`
	LastBeaconSync   time.Time     `json:"last_beacon_sync"`
	CreatedAt        time.Time     `json:"created_at"`
}

// IsCritical reports whether the signal should trigger analyst notification.
func (s *Signal) IsCritical() bool {
	return s.PriorityScore != nil && *s.PriorityScore >= CriticalPriorityMin
}

// GeocodeResult is the outcome of one geocode resolution. Latitude and
// Longitude are both present or both nil. LocationHash is always set so the
// caller can persist it for future cache hits.
type GeocodeResult struct {
	Latitude     *float64      `json:"latitude"`
	Longitude    *float64      `json:"longitude"`
	Source       GeocodeSource `json:"geocode_source"`
	LocationHash string        `json:"location_hash"`
	GeocodedAt   time.Time     `json:"geocoded_at"`
}

// HasCoordinates reports whether the resolution produced usable coordinates.
func (r *GeocodeResult) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// CachedCoordinates is a geocode cache hit read back from the signal store.
type CachedCoordinates struct {
	Latitude  float64
	Longitude float64
}

// SyncStatus is the process-wide, ephemeral state of the ingestion scheduler.
// It is owned by the collector and mutated under its mutex; callers receive
// copies.
type SyncStatus struct {
	IsActive          bool       `json:"is_active"`
	LastSyncAt        *time.Time `json:"last_sync_at"`
	LastSyncError     string     `json:"last_sync_error,omitempty"`
	LastSyncCount     int        `json:"last_sync_count"`
	NextAllowedSyncAt *time.Time `json:"next_allowed_sync_at"`
}

// CanSyncNow reports whether a new run would be admitted at the given time.
func (s *SyncStatus) CanSyncNow(now time.Time) bool {
	if s.IsActive {
		return false
	}
	return s.NextAllowedSyncAt == nil || !now.Before(*s.NextAllowedSyncAt)
}
