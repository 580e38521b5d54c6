// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/ghiwatch/beaconwatch/internal/config"
	"github.com/ghiwatch/beaconwatch/internal/models"
)

type fakeSyncService struct {
	status    models.SyncStatus
	count     int
	err       error
	triggered int
}

func (f *fakeSyncService) Status(_ context.Context) models.SyncStatus {
	return f.status
}

func (f *fakeSyncService) FetchAndProcess(_ context.Context) (int, error) {
	f.triggered++
	return f.count, f.err
}

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(_ context.Context) error { return f.err }

func newTestServer(collector *fakeSyncService, pinger *fakePinger) *Server {
	return NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 8790, Timeout: 5 * time.Second}, collector, pinger)
}

func doRequest(t *testing.T, s *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, http.NoBody)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	lastSync := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	next := lastSync.Add(15 * time.Minute)
	svc := &fakeSyncService{status: models.SyncStatus{
		LastSyncAt:        &lastSync,
		LastSyncCount:     3,
		NextAllowedSyncAt: &next,
	}}

	srv := newTestServer(svc, &fakePinger{})
	// Pin the clock past the sync window so the test is deterministic
	// regardless of the real wall-clock time.
	srv.now = func() time.Time { return next.Add(time.Minute) }

	rec := doRequest(t, srv, http.MethodGet, "/api/v1/beacon/status")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got statusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.LastSyncCount != 3 {
		t.Errorf("last_sync_count = %d", got.LastSyncCount)
	}
	if got.IsActive {
		t.Error("is_active should be false")
	}
	// next_allowed_sync_at is in the past relative to the pinned clock.
	if !got.CanSyncNow {
		t.Error("can_sync_now should be true once the window has passed")
	}
}

func TestSyncEndpointDistinguishesBusyFromRateLimited(t *testing.T) {
	future := time.Now().UTC().Add(10 * time.Minute)

	tests := []struct {
		name       string
		status     models.SyncStatus
		wantCode   int
		wantTrig   int
		wantErrStr string
	}{
		{
			name:       "already running",
			status:     models.SyncStatus{IsActive: true},
			wantCode:   http.StatusConflict,
			wantErrStr: "sync already running",
		},
		{
			name:       "rate limited",
			status:     models.SyncStatus{NextAllowedSyncAt: &future},
			wantCode:   http.StatusTooManyRequests,
			wantErrStr: "sync rate limited",
		},
		{
			name:     "admitted",
			status:   models.SyncStatus{},
			wantCode: http.StatusAccepted,
			wantTrig: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSyncService{status: tt.status, count: 5}
			rec := doRequest(t, newTestServer(svc, &fakePinger{}), http.MethodPost, "/api/v1/beacon/sync")

			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, expected %d", rec.Code, tt.wantCode)
			}
			if svc.triggered != tt.wantTrig {
				t.Errorf("triggered = %d, expected %d", svc.triggered, tt.wantTrig)
			}

			if tt.wantErrStr != "" {
				var got errorResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if got.Error != tt.wantErrStr {
					t.Errorf("error = %q, expected %q", got.Error, tt.wantErrStr)
				}
			} else {
				var got syncAccepted
				if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
					t.Fatalf("invalid JSON: %v", err)
				}
				if got.NewSignals != 5 {
					t.Errorf("new_signals = %d", got.NewSignals)
				}
			}
		})
	}
}

func TestSyncEndpointSurfacesRunErrors(t *testing.T) {
	svc := &fakeSyncService{err: errors.New("commit failed")}
	rec := doRequest(t, newTestServer(svc, &fakePinger{}), http.MethodPost, "/api/v1/beacon/sync")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(&fakeSyncService{}, &fakePinger{}), http.MethodGet, "/health")
	if rec.Code != http.StatusOK {
		t.Errorf("healthy status = %d", rec.Code)
	}

	rec = doRequest(t, newTestServer(&fakeSyncService{}, &fakePinger{err: errors.New("closed")}), http.MethodGet, "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("unhealthy status = %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doRequest(t, newTestServer(&fakeSyncService{}, &fakePinger{}), http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
}
