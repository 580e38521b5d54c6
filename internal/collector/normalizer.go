// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package collector orchestrates one ingestion run end to end: fetch, parse,
// normalize, dedup, persist and notify. It owns the sync status and enforces
// single-flight execution with a minimum interval between runs.
package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/ghiwatch/beaconwatch/internal/config"
	"github.com/ghiwatch/beaconwatch/internal/feed"
	"github.com/ghiwatch/beaconwatch/internal/geocode"
	"github.com/ghiwatch/beaconwatch/internal/logging"
	"github.com/ghiwatch/beaconwatch/internal/metrics"
	"github.com/ghiwatch/beaconwatch/internal/models"
	"github.com/ghiwatch/beaconwatch/internal/redact"
)

// rawDataSource labels the provenance envelope stored with every signal.
const rawDataSource = "WHO Beacon"

// GeocodeResolver resolves a (country, location) pair to coordinates.
// Satisfied by *geocode.Resolver.
type GeocodeResolver interface {
	Resolve(ctx context.Context, country, location string) (models.GeocodeResult, error)
}

// Normalizer turns raw feed candidates into canonical signals: cleaned text,
// parsed counts and dates, derived scores, redacted provenance and resolved
// coordinates.
type Normalizer struct {
	resolver    GeocodeResolver
	feedBaseURL string
	feedPath    string
	now         func() time.Time
}

// NewNormalizer creates a normalizer. Relative source URLs are resolved
// against the configured feed origin.
func NewNormalizer(resolver GeocodeResolver, cfg config.BeaconConfig) *Normalizer {
	return &Normalizer{
		resolver:    resolver,
		feedBaseURL: strings.TrimSuffix(cfg.FeedBaseURL, "/"),
		feedPath:    cfg.FeedPath,
		now:         time.Now,
	}
}

// Normalize converts one candidate into a signal ready for dedup and
// persistence, or nil when the candidate lacks a disease or country after
// trimming. syncedAt is the run's start time, stamped on the record.
func (n *Normalizer) Normalize(ctx context.Context, candidate feed.RawCandidate, syncedAt time.Time) *models.Signal {
	disease := cleanText(candidate.Text("disease"))
	country := cleanText(candidate.Text("country"))
	if disease == "" || country == "" {
		metrics.ParseSkips.Inc()
		logging.Debug().Str("disease", disease).Str("country", country).Msg("Skipping candidate without disease or country")
		return nil
	}

	location := cleanText(candidate.Text("location"))
	cases := parseCount(candidate.Text("cases"))
	deaths := parseCount(candidate.Text("deaths"))

	dateReported := n.today()
	if parsed := parseDate(candidate.Text("date_reported")); parsed != nil {
		dateReported = *parsed
	}
	dateOnset := parseDate(candidate.Text("date_onset"))

	sourceURL := n.normalizeURL(candidate.FirstText("source_url", "url"))
	eventID := n.deriveEventID(candidate, sourceURL, disease, dateReported)
	if sourceURL == "" {
		sourceURL = n.feedBaseURL + n.feedPath
	}

	var cfr *float64
	if cases > 0 {
		value := round2(float64(deaths) / float64(cases) * 100)
		cfr = &value
	}

	signal := &models.Signal{
		BeaconEventID:    eventID,
		SourceURL:        sourceURL,
		Disease:          disease,
		Country:          country,
		Location:         optional(location),
		DateReported:     dateReported,
		DateOnset:        dateOnset,
		Cases:            cases,
		Deaths:           deaths,
		CaseFatalityRate: cfr,
		Description:      optional(redact.Text(cleanText(candidate.Text("description")))),
		OutbreakStatus:   optional(cleanText(candidate.Text("outbreak_status"))),
		PriorityScore:    priorityScore(cases, cfr),
		TriageStatus:     models.TriageStatusPending,
		CurrentStatus:    models.CurrentStatusNew,
		RawData:          n.buildRawData(candidate),
		LastBeaconSync:   syncedAt,
	}

	n.applyGeocode(ctx, signal, country, location)
	return signal
}

// applyGeocode resolves coordinates for the signal. A failed resolution with
// the specific location is retried country-only; a record is never dropped
// over geocoding.
func (n *Normalizer) applyGeocode(ctx context.Context, signal *models.Signal, country, location string) {
	result, err := n.resolver.Resolve(ctx, country, location)
	if err != nil && location != "" {
		logging.Warn().Err(err).Str("country", country).Str("location", location).Msg("Geocoding failed, retrying country-only")
		result, err = n.resolver.Resolve(ctx, country, "")
	}
	if err != nil {
		logging.Warn().Err(err).Str("country", country).Msg("Country-level geocoding also failed, flagging for manual review")
		result = models.GeocodeResult{
			Source:       models.GeocodeSourceFailed,
			LocationHash: geocode.LocationHash(country, location),
			GeocodedAt:   n.now(),
		}
	}

	signal.Latitude = result.Latitude
	signal.Longitude = result.Longitude
	signal.GeocodeSource = result.Source
	signal.LocationHash = result.LocationHash
	geocodedAt := result.GeocodedAt
	signal.GeocodedAt = &geocodedAt
}

// buildRawData wraps the sanitized candidate in the provenance envelope
// stored for audit.
func (n *Normalizer) buildRawData(candidate feed.RawCandidate) string {
	envelope := map[string]any{
		"source":     rawDataSource,
		"scraped_at": n.now().UTC().Format(time.RFC3339),
		"event":      redact.Sanitize(map[string]any(candidate)),
	}

	encoded, err := json.Marshal(envelope)
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to encode raw data envelope")
		return ""
	}
	return string(encoded)
}

// deriveEventID prefers an explicit id from the feed; otherwise the id is a
// content hash of the source URL, or of "<disease>-<dateReported>" when no
// URL exists.
func (n *Normalizer) deriveEventID(candidate feed.RawCandidate, sourceURL, disease string, dateReported time.Time) string {
	if id := cleanText(candidate.FirstText("beacon_event_id", "id")); id != "" {
		return id
	}

	base := sourceURL
	if base == "" {
		base = fmt.Sprintf("%s-%s", disease, dateReported.Format("2006-01-02"))
	}
	digest := sha256.Sum256([]byte(base))
	return "beacon-" + hex.EncodeToString(digest[:])[:16]
}

// normalizeURL resolves root-relative URLs against the feed origin.
func (n *Normalizer) normalizeURL(value string) string {
	text := strings.TrimSpace(value)
	if text == "" {
		return ""
	}
	if strings.HasPrefix(text, "/") {
		return n.feedBaseURL + text
	}
	return text
}

// priorityScore derives the 0-100 urgency metric: 70% case fatality rate,
// 30% case volume capped at 100 cases. Absent entirely when there is nothing
// to score.
func priorityScore(cases int, cfr *float64) *float64 {
	if cases == 0 && cfr == nil {
		return nil
	}

	severity := 0.0
	if cfr != nil {
		severity = *cfr
	}
	volume := float64(min(cases, 100))
	score := round2(math.Min(100, severity*0.7+volume*0.3))
	return &score
}

func (n *Normalizer) today() time.Time {
	now := n.now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func cleanText(value string) string {
	return strings.TrimSpace(value)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// parseCount parses an integer tolerating thousands separators and
// surrounding noise. Unparseable or negative input yields 0.
func parseCount(value string) int {
	text := strings.TrimSpace(strings.ReplaceAll(value, ",", ""))
	if text == "" {
		return 0
	}
	n, err := strconv.Atoi(text)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// parseDate accepts an ISO date or date-time; date-times are truncated to
// the date.
func parseDate(value string) *time.Time {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}
	datePart, _, _ := strings.Cut(text, "T")
	parsed, err := time.Parse("2006-01-02", datePart)
	if err != nil {
		return nil
	}
	return &parsed
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
