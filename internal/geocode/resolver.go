// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package geocode

import (
	"context"
	"fmt"
	"time"

	"github.com/ghiwatch/beaconwatch/internal/logging"
	"github.com/ghiwatch/beaconwatch/internal/metrics"
	"github.com/ghiwatch/beaconwatch/internal/models"
)

// CoordinateCache is the persistence lookup the resolver consults before
// making any external call. Satisfied by *database.DB.
type CoordinateCache interface {
	// FindCachedCoordinates returns coordinates from any persisted signal
	// with the given location hash, or nil on a miss.
	FindCachedCoordinates(ctx context.Context, locationHash string) (*models.CachedCoordinates, error)
}

// Resolver resolves (country, location) pairs through five ordered tiers:
//
//  1. persisted cache keyed by location hash (no external call)
//  2. live lookup of "<location>, <country>" when a location is present
//  3. static country centroid table (no external call)
//  4. live lookup of the bare country name
//  5. explicit failure with null coordinates
//
// Tier errors never propagate; each failed tier falls through to the next.
// Live lookups are paced serially by the provider.
type Resolver struct {
	cache    CoordinateCache
	provider Provider
	now      func() time.Time
}

// NewResolver creates a resolver. cache may be nil (tier 1 is skipped);
// provider may be nil (tiers 2 and 4 are skipped).
func NewResolver(cache CoordinateCache, provider Provider) *Resolver {
	return &Resolver{
		cache:    cache,
		provider: provider,
		now:      time.Now,
	}
}

// Resolve returns the geocode outcome for a country and optional location.
// The result always carries the location hash, so the caller can persist it
// for future cache hits. The error return is reserved for context
// cancellation; ordinary provider failures degrade to the next tier.
func (r *Resolver) Resolve(ctx context.Context, country, location string) (models.GeocodeResult, error) {
	locationHash := LocationHash(country, location)

	// Tier 1: persisted cache
	if result := r.tryCache(ctx, locationHash); result != nil {
		metrics.GeocodeLookups.WithLabelValues(string(models.GeocodeSourceCache)).Inc()
		return *result, nil
	}

	// Tier 2: live lookup of the specific location
	if location != "" {
		query := fmt.Sprintf("%s, %s", location, country)
		if coords, ok := r.tryProvider(ctx, query); ok {
			metrics.GeocodeLookups.WithLabelValues(string(models.GeocodeSourceLocation)).Inc()
			return r.result(coords, models.GeocodeSourceLocation, locationHash), nil
		}
		if ctx.Err() != nil {
			return models.GeocodeResult{}, ctx.Err()
		}
	}

	// Tier 3: static country centroid table
	if coords, ok := CountryCentroid(country); ok {
		logging.Debug().Str("country", country).Msg("Using country centroid fallback")
		metrics.GeocodeLookups.WithLabelValues(string(models.GeocodeSourceCountry)).Inc()
		return r.result(coords, models.GeocodeSourceCountry, locationHash), nil
	}

	// Tier 4: live lookup of the bare country name
	if coords, ok := r.tryProvider(ctx, country); ok {
		metrics.GeocodeLookups.WithLabelValues(string(models.GeocodeSourceCountry)).Inc()
		return r.result(coords, models.GeocodeSourceCountry, locationHash), nil
	}
	if ctx.Err() != nil {
		return models.GeocodeResult{}, ctx.Err()
	}

	// Tier 5: explicit failure, recorded for manual review
	logging.Warn().Str("country", country).Str("location", location).Msg("Geocoding failed on all tiers")
	metrics.GeocodeLookups.WithLabelValues(string(models.GeocodeSourceFailed)).Inc()
	return models.GeocodeResult{
		Source:       models.GeocodeSourceFailed,
		LocationHash: locationHash,
		GeocodedAt:   r.now(),
	}, nil
}

func (r *Resolver) tryCache(ctx context.Context, locationHash string) *models.GeocodeResult {
	if r.cache == nil {
		return nil
	}

	cached, err := r.cache.FindCachedCoordinates(ctx, locationHash)
	if err != nil {
		logging.Warn().Err(err).Str("location_hash", locationHash).Msg("Geocode cache lookup failed")
		return nil
	}
	if cached == nil {
		return nil
	}

	logging.Debug().Str("location_hash", locationHash).Msg("Geocode cache hit")
	result := r.result(Coordinates{Latitude: cached.Latitude, Longitude: cached.Longitude},
		models.GeocodeSourceCache, locationHash)
	return &result
}

func (r *Resolver) tryProvider(ctx context.Context, query string) (Coordinates, bool) {
	if r.provider == nil {
		return Coordinates{}, false
	}

	coords, err := r.provider.Geocode(ctx, query)
	if err != nil {
		logging.Warn().Err(err).Str("provider", r.provider.Name()).Str("query", query).Msg("Live geocode lookup failed")
		return Coordinates{}, false
	}
	return coords, true
}

func (r *Resolver) result(coords Coordinates, source models.GeocodeSource, locationHash string) models.GeocodeResult {
	lat, lon := coords.Latitude, coords.Longitude
	return models.GeocodeResult{
		Latitude:     &lat,
		Longitude:    &lon,
		Source:       source,
		LocationHash: locationHash,
		GeocodedAt:   r.now(),
	}
}
