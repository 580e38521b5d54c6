// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package geocode

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/ghiwatch/beaconwatch/internal/metrics"
)

// Provider is a live geocoding backend. Implementations return an error for
// every degraded outcome (timeout, service error, zero results); the resolver
// treats all of them as "no result" and falls through to the next tier.
type Provider interface {
	// Geocode resolves a free-form query to coordinates.
	Geocode(ctx context.Context, query string) (Coordinates, error)

	// Name returns the provider name for logging and metrics.
	Name() string
}

// NominatimProvider implements Provider against the OpenStreetMap Nominatim
// search API. Nominatim's usage policy allows at most one request per second
// per deployment; the provider enforces that spacing internally so callers
// never have to think about it.
type NominatimProvider struct {
	client    *http.Client
	baseURL   string
	userAgent string
	limiter   *rate.Limiter
}

// nominatimResult is one entry of the Nominatim search response.
type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NominatimConfig configures a NominatimProvider.
type NominatimConfig struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	RateInterval time.Duration
}

// NewNominatimProvider creates a provider with the given settings. Zero
// values fall back to the public endpoint, a 5s timeout and 1.1s pacing.
func NewNominatimProvider(cfg NominatimConfig) *NominatimProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "beaconwatch/1.0"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RateInterval <= 0 {
		cfg.RateInterval = 1100 * time.Millisecond
	}

	limiter := rate.NewLimiter(rate.Every(cfg.RateInterval), 1)
	// Drain the initial token so the pacing wait after the first call blocks
	// for the full interval, matching the provider's spacing requirement.
	limiter.Reserve()

	return &NominatimProvider{
		client:    &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.BaseURL,
		userAgent: cfg.UserAgent,
		limiter:   limiter,
	}
}

// Name returns the provider name.
func (p *NominatimProvider) Name() string {
	return "nominatim"
}

// Geocode queries the search API for the first match of the query string.
// After a successful response it blocks until the rate limiter admits the
// next call, so consecutive live lookups are spaced at least RateInterval
// apart. Pacing is serial across the whole provider instance.
func (p *NominatimProvider) Geocode(ctx context.Context, query string) (Coordinates, error) {
	start := time.Now()
	result, err := p.search(ctx, query)
	metrics.GeocodeAPICallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return Coordinates{}, err
	}

	lat, err := strconv.ParseFloat(result.Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("nominatim returned malformed latitude %q: %w", result.Lat, err)
	}
	lon, err := strconv.ParseFloat(result.Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("nominatim returned malformed longitude %q: %w", result.Lon, err)
	}

	// Mandatory post-call spacing per the provider's rate policy.
	if err := p.limiter.Wait(ctx); err != nil {
		return Coordinates{}, err
	}

	return Coordinates{Latitude: lat, Longitude: lon}, nil
}

func (p *NominatimProvider) search(ctx context.Context, query string) (*nominatimResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", "1")

	reqURL := fmt.Sprintf("%s/search?%s", p.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", p.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query nominatim: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("nominatim returned no results for %q", query)
	}

	return &results[0], nil
}
