// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package collector

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/ghiwatch/beaconwatch/internal/config"
	"github.com/ghiwatch/beaconwatch/internal/feed"
	"github.com/ghiwatch/beaconwatch/internal/geocode"
	"github.com/ghiwatch/beaconwatch/internal/models"
)

type stubResolver struct {
	result models.GeocodeResult
	err    error
}

func (s stubResolver) Resolve(_ context.Context, _, _ string) (models.GeocodeResult, error) {
	return s.result, s.err
}

func newTestNormalizer() *Normalizer {
	lat, lon := 15.5527, 48.5164
	resolver := stubResolver{result: models.GeocodeResult{
		Latitude:     &lat,
		Longitude:    &lon,
		Source:       models.GeocodeSourceCountry,
		LocationHash: "0123456789abcdef0123456789abcdef",
		GeocodedAt:   time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}}
	return NewNormalizer(resolver, config.BeaconConfig{
		FeedBaseURL: "https://beaconbio.org",
		FeedPath:    "/en/events",
	})
}

func TestNormalizeCholeraScenario(t *testing.T) {
	n := newTestNormalizer()
	syncedAt := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

	signal := n.Normalize(context.Background(), feed.RawCandidate{
		"disease": "Cholera",
		"country": "Yemen",
		"cases":   "1,200",
		"deaths":  "40",
	}, syncedAt)
	if signal == nil {
		t.Fatal("expected a signal")
	}

	if signal.Cases != 1200 {
		t.Errorf("cases = %d, expected 1200", signal.Cases)
	}
	if signal.Deaths != 40 {
		t.Errorf("deaths = %d, expected 40", signal.Deaths)
	}
	if signal.CaseFatalityRate == nil || *signal.CaseFatalityRate != 3.33 {
		t.Errorf("cfr = %v, expected 3.33", signal.CaseFatalityRate)
	}
	if signal.PriorityScore == nil || *signal.PriorityScore != 32.33 {
		t.Errorf("priority = %v, expected 32.33", signal.PriorityScore)
	}
	if signal.TriageStatus != models.TriageStatusPending || signal.CurrentStatus != models.CurrentStatusNew {
		t.Errorf("workflow defaults wrong: %q / %q", signal.TriageStatus, signal.CurrentStatus)
	}
	if !signal.LastBeaconSync.Equal(syncedAt) {
		t.Errorf("last sync = %v", signal.LastBeaconSync)
	}
	if signal.Latitude == nil || *signal.Latitude != 15.5527 {
		t.Errorf("latitude = %v", signal.Latitude)
	}
	if signal.GeocodeSource != models.GeocodeSourceCountry {
		t.Errorf("geocode source = %s", signal.GeocodeSource)
	}
}

func TestNormalizeRejectsIncompleteCandidates(t *testing.T) {
	n := newTestNormalizer()
	tests := []struct {
		name      string
		candidate feed.RawCandidate
	}{
		{"missing disease", feed.RawCandidate{"country": "Yemen"}},
		{"missing country", feed.RawCandidate{"disease": "Cholera"}},
		{"whitespace only", feed.RawCandidate{"disease": "  ", "country": "\t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(context.Background(), tt.candidate, time.Now()); got != nil {
				t.Errorf("expected nil, got %+v", got)
			}
		})
	}
}

func TestNormalizeScoring(t *testing.T) {
	n := newTestNormalizer()
	tests := []struct {
		name         string
		cases        string
		deaths       string
		wantCFR      *float64
		wantPriority *float64
	}{
		{"no cases no score", "", "", nil, nil},
		{"unparseable counts default to zero", "unknown", "n/a", nil, nil},
		{"cases without deaths", "50", "0", ptr(0.0), ptr(15.0)},
		{"volume capped at 100", "100000", "0", ptr(0.0), ptr(30.0)},
		{"severity dominates", "100", "95", ptr(95.0), ptr(96.5)},
		{"score capped at 100", "100", "200", ptr(200.0), ptr(100.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := n.Normalize(context.Background(), feed.RawCandidate{
				"disease": "Cholera",
				"country": "Yemen",
				"cases":   tt.cases,
				"deaths":  tt.deaths,
			}, time.Now())
			if signal == nil {
				t.Fatal("expected a signal")
			}

			if !floatPtrEqual(signal.CaseFatalityRate, tt.wantCFR) {
				t.Errorf("cfr = %v, expected %v", deref(signal.CaseFatalityRate), deref(tt.wantCFR))
			}
			if !floatPtrEqual(signal.PriorityScore, tt.wantPriority) {
				t.Errorf("priority = %v, expected %v", deref(signal.PriorityScore), deref(tt.wantPriority))
			}
			if signal.PriorityScore != nil && (*signal.PriorityScore < 0 || *signal.PriorityScore > 100) {
				t.Errorf("priority %v outside [0,100]", *signal.PriorityScore)
			}
		})
	}
}

func TestNormalizeEventIDDerivation(t *testing.T) {
	n := newTestNormalizer()
	ctx := context.Background()

	explicit := n.Normalize(ctx, feed.RawCandidate{
		"disease": "Cholera", "country": "Yemen", "beacon_event_id": "evt-42",
	}, time.Now())
	if explicit.BeaconEventID != "evt-42" {
		t.Errorf("explicit id = %q", explicit.BeaconEventID)
	}

	fromURL := n.Normalize(ctx, feed.RawCandidate{
		"disease": "Cholera", "country": "Yemen", "source_url": "/event/abc",
	}, time.Now())
	if !strings.HasPrefix(fromURL.BeaconEventID, "beacon-") || len(fromURL.BeaconEventID) != len("beacon-")+16 {
		t.Errorf("derived id = %q, expected beacon- prefix plus 16 hex chars", fromURL.BeaconEventID)
	}

	// Same URL, same derived id.
	again := n.Normalize(ctx, feed.RawCandidate{
		"disease": "Measles", "country": "Chad", "source_url": "/event/abc",
	}, time.Now())
	if again.BeaconEventID != fromURL.BeaconEventID {
		t.Error("event id derivation from a URL should be deterministic")
	}

	// No URL at all: hash of disease and report date.
	noURL := n.Normalize(ctx, feed.RawCandidate{
		"disease": "Cholera", "country": "Yemen", "date_reported": "2026-08-20",
	}, time.Now())
	if !strings.HasPrefix(noURL.BeaconEventID, "beacon-") {
		t.Errorf("derived id = %q", noURL.BeaconEventID)
	}
	if noURL.SourceURL != "https://beaconbio.org/en/events" {
		t.Errorf("fallback source url = %q", noURL.SourceURL)
	}
}

func TestNormalizeURLAndDates(t *testing.T) {
	n := newTestNormalizer()

	signal := n.Normalize(context.Background(), feed.RawCandidate{
		"disease":       "Cholera",
		"country":       "Yemen",
		"source_url":    "/event/rel-1",
		"date_reported": "2026-08-20T14:30:00Z",
		"date_onset":    "2026-08-01",
	}, time.Now())

	if signal.SourceURL != "https://beaconbio.org/event/rel-1" {
		t.Errorf("source url = %q, relative URLs should resolve against the feed origin", signal.SourceURL)
	}
	if !signal.DateReported.Equal(time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date reported = %v, date-times should truncate to the date", signal.DateReported)
	}
	if signal.DateOnset == nil || !signal.DateOnset.Equal(time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("date onset = %v", signal.DateOnset)
	}

	// Unparseable report date falls back to the ingestion date.
	fallback := n.Normalize(context.Background(), feed.RawCandidate{
		"disease": "Cholera", "country": "Yemen", "date_reported": "next tuesday",
	}, time.Now())
	if fallback.DateReported.IsZero() {
		t.Error("date reported should default to the ingestion date")
	}
}

func TestNormalizeRedactsSensitiveData(t *testing.T) {
	n := newTestNormalizer()

	signal := n.Normalize(context.Background(), feed.RawCandidate{
		"disease":      "Cholera",
		"country":      "Yemen",
		"description":  "Contact jane@x.com or call 555-123-4567",
		"patient_name": "Jane Doe",
	}, time.Now())

	if signal.Description == nil {
		t.Fatal("expected a description")
	}
	if strings.Contains(*signal.Description, "jane@x.com") || strings.Contains(*signal.Description, "555-123-4567") {
		t.Errorf("description leaked PII: %q", *signal.Description)
	}

	var envelope struct {
		Source    string         `json:"source"`
		ScrapedAt string         `json:"scraped_at"`
		Event     map[string]any `json:"event"`
	}
	if err := json.Unmarshal([]byte(signal.RawData), &envelope); err != nil {
		t.Fatalf("raw data is not valid JSON: %v", err)
	}
	if envelope.Source != "WHO Beacon" {
		t.Errorf("envelope source = %q", envelope.Source)
	}
	if _, exists := envelope.Event["patient_name"]; exists {
		t.Error("sanitized event still carries patient_name")
	}
	if raw := signal.RawData; strings.Contains(raw, "jane@x.com") || strings.Contains(raw, "Jane Doe") {
		t.Errorf("raw data leaked PII: %s", raw)
	}
}

func TestNormalizeGeocodeFailureFallsBackCountryOnly(t *testing.T) {
	calls := 0
	resolver := &countingResolver{onCall: func(location string) (models.GeocodeResult, error) {
		calls++
		if location != "" {
			return models.GeocodeResult{}, context.DeadlineExceeded
		}
		lat, lon := 15.5527, 48.5164
		return models.GeocodeResult{
			Latitude: &lat, Longitude: &lon,
			Source:       models.GeocodeSourceCountry,
			LocationHash: "feedfacefeedfacefeedfacefeedface",
			GeocodedAt:   time.Now(),
		}, nil
	}}

	n := NewNormalizer(resolver, config.BeaconConfig{FeedBaseURL: "https://beaconbio.org", FeedPath: "/en/events"})
	signal := n.Normalize(context.Background(), feed.RawCandidate{
		"disease": "Cholera", "country": "Yemen", "location": "Aden",
	}, time.Now())

	if calls != 2 {
		t.Errorf("resolver called %d times, expected location then country-only retry", calls)
	}
	if signal.GeocodeSource != models.GeocodeSourceCountry {
		t.Errorf("geocode source = %s", signal.GeocodeSource)
	}
	if signal.Latitude == nil {
		t.Error("country-only retry should have produced coordinates")
	}
}

func TestNormalizeGeocodeErrorStillCarriesLocationHash(t *testing.T) {
	resolver := &countingResolver{onCall: func(string) (models.GeocodeResult, error) {
		return models.GeocodeResult{}, context.Canceled
	}}

	n := NewNormalizer(resolver, config.BeaconConfig{FeedBaseURL: "https://beaconbio.org", FeedPath: "/en/events"})
	signal := n.Normalize(context.Background(), feed.RawCandidate{
		"disease": "Cholera", "country": "Yemen", "location": "Aden",
	}, time.Now())

	if signal.GeocodeSource != models.GeocodeSourceFailed {
		t.Errorf("geocode source = %s, expected failed", signal.GeocodeSource)
	}
	if signal.Latitude != nil || signal.Longitude != nil {
		t.Error("failed geocode must not carry coordinates")
	}
	if signal.LocationHash != geocode.LocationHash("Yemen", "Aden") {
		t.Errorf("location hash = %q, expected the computed hash for the pair", signal.LocationHash)
	}
}

type countingResolver struct {
	onCall func(location string) (models.GeocodeResult, error)
}

func (r *countingResolver) Resolve(_ context.Context, _, location string) (models.GeocodeResult, error) {
	return r.onCall(location)
}

func ptr(v float64) *float64 { return &v }

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
