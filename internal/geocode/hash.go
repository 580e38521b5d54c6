// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package geocode resolves (country, location) pairs to coordinates through
// a five-tier chain: persisted cache, live location lookup, static country
// centroid table, live country lookup, explicit failure.
package geocode

import (
	"crypto/md5" //nolint:gosec // cache key digest, not a security boundary
	"encoding/hex"
	"strings"
)

// LocationHash returns the deterministic cache key for a (country, location)
// pair: the hex MD5 digest of "<country>|<location>" after per-part trimming
// and lowercasing. An absent location hashes as the empty string.
func LocationHash(country, location string) string {
	key := strings.ToLower(strings.TrimSpace(country)) + "|" + strings.ToLower(strings.TrimSpace(location))
	sum := md5.Sum([]byte(key)) //nolint:gosec // see package import note
	return hex.EncodeToString(sum[:])
}
