// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *NominatimProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewNominatimProvider(NominatimConfig{
		BaseURL:      server.URL,
		UserAgent:    "beaconwatch-test/1.0",
		Timeout:      2 * time.Second,
		RateInterval: time.Millisecond,
	})
}

func TestNominatimGeocode(t *testing.T) {
	var gotQuery, gotUserAgent string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"12.7855","lon":"45.0187","display_name":"Aden, Yemen"}]`))
	})

	coords, err := p.Geocode(context.Background(), "Aden, Yemen")
	if err != nil {
		t.Fatalf("Geocode failed: %v", err)
	}

	if coords.Latitude != 12.7855 || coords.Longitude != 45.0187 {
		t.Errorf("unexpected coordinates: %+v", coords)
	}
	if gotQuery != "Aden, Yemen" {
		t.Errorf("query = %q, expected 'Aden, Yemen'", gotQuery)
	}
	if gotUserAgent != "beaconwatch-test/1.0" {
		t.Errorf("user agent = %q", gotUserAgent)
	}
}

func TestNominatimGeocodeErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "empty result set",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`[]`))
			},
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`{"not":"a list"`))
			},
		},
		{
			name: "malformed coordinates",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Write([]byte(`[{"lat":"north","lon":"west"}]`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, tt.handler)
			if _, err := p.Geocode(context.Background(), "Yemen"); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestNominatimPacesConsecutiveCalls(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`[{"lat":"1.0","lon":"2.0"}]`))
	}))
	t.Cleanup(server.Close)

	interval := 50 * time.Millisecond
	p := NewNominatimProvider(NominatimConfig{
		BaseURL:      server.URL,
		RateInterval: interval,
	})

	start := time.Now()
	for i := 0; i < 2; i++ {
		if _, err := p.Geocode(context.Background(), "Yemen"); err != nil {
			t.Fatalf("Geocode %d failed: %v", i, err)
		}
	}

	// Each successful call waits out its own interval before returning, so
	// two calls take at least two intervals.
	if elapsed := time.Since(start); elapsed < 2*interval {
		t.Errorf("two calls completed in %v, expected at least %v", elapsed, 2*interval)
	}
}
