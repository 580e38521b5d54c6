// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ghiwatch/beaconwatch/internal/config"
	"github.com/ghiwatch/beaconwatch/internal/logging"
	"github.com/ghiwatch/beaconwatch/internal/metrics"
)

// Fetcher retrieves the feed listing document. All failures degrade to an
// empty document: the pipeline treats a failed fetch as "no candidates this
// run" rather than an error. A circuit breaker stops hammering the feed after
// repeated failures.
type Fetcher struct {
	client         *http.Client
	cb             *gobreaker.CircuitBreaker[string]
	feedBaseURL    string
	feedPath       string
	render         bool
	scraperBaseURL string
	wait           string
}

// NewFetcher creates a fetcher from the beacon configuration.
func NewFetcher(cfg config.BeaconConfig) *Fetcher {
	cb := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "beacon-feed",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Feed circuit breaker state change")
		},
	})

	return &Fetcher{
		client:         &http.Client{Timeout: cfg.FetchTimeout},
		cb:             cb,
		feedBaseURL:    strings.TrimSuffix(cfg.FeedBaseURL, "/"),
		feedPath:       cfg.FeedPath,
		render:         cfg.Render,
		scraperBaseURL: strings.TrimSuffix(cfg.ScraperBaseURL, "/"),
		wait:           cfg.Wait,
	}
}

// FeedURL returns the absolute URL of the events listing page.
func (f *Fetcher) FeedURL() string {
	return f.feedBaseURL + f.feedPath
}

// Fetch returns the feed document as text, or "" on any failure (timeout,
// network error, non-2xx status, open circuit). Failures are logged and
// counted but never propagate.
func (f *Fetcher) Fetch(ctx context.Context) string {
	start := time.Now()
	document, err := f.cb.Execute(func() (string, error) {
		return f.get(ctx)
	})
	metrics.FetchDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.FetchFailures.Inc()
		logging.Warn().Err(err).Str("url", f.FeedURL()).Msg("Feed fetch failed, continuing with empty document")
		return ""
	}
	return document
}

// requestURL returns the URL actually requested: the render service endpoint
// when rendering is on, otherwise the feed page itself.
func (f *Fetcher) requestURL() string {
	if !f.render {
		return f.FeedURL()
	}
	params := url.Values{}
	params.Set("url", f.FeedURL())
	params.Set("wait", f.wait)
	return fmt.Sprintf("%s/render?%s", f.scraperBaseURL, params.Encode())
}

func (f *Fetcher) get(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.requestURL(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read feed body: %w", err)
	}
	return string(body), nil
}
