// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/ghiwatch/beaconwatch/internal/logging"
	"github.com/ghiwatch/beaconwatch/internal/models"
)

// statusResponse is the sync status snapshot plus the derived admission
// flag callers use to decide whether a manual trigger would run.
type statusResponse struct {
	models.SyncStatus
	CanSyncNow bool `json:"can_sync_now"`
}

type syncAccepted struct {
	NewSignals int `json:"new_signals"`
}

type errorResponse struct {
	Error             string     `json:"error"`
	NextAllowedSyncAt *time.Time `json:"next_allowed_sync_at,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.collector.Status(r.Context())
	respondJSON(w, http.StatusOK, statusResponse{
		SyncStatus: status,
		CanSyncNow: status.CanSyncNow(s.now().UTC()),
	})
}

// handleSync triggers an ingestion run. The pre-check distinguishes an
// in-flight run (409) from the rate-limit window (429); the collector
// enforces both again internally, so a racing trigger degrades to a no-op.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	status := s.collector.Status(r.Context())
	if status.IsActive {
		respondJSON(w, http.StatusConflict, errorResponse{Error: "sync already running"})
		return
	}
	if !status.CanSyncNow(s.now().UTC()) {
		respondJSON(w, http.StatusTooManyRequests, errorResponse{
			Error:             "sync rate limited",
			NextAllowedSyncAt: status.NextAllowedSyncAt,
		})
		return
	}

	count, err := s.collector.FetchAndProcess(r.Context())
	if err != nil {
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	respondJSON(w, http.StatusAccepted, syncAccepted{NewSignals: count})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.store != nil {
		if err := s.store.Ping(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "reason": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}
