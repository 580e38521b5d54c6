// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package api exposes the HTTP surface: sync status, the manual sync
// trigger, Prometheus metrics and the health probe.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ghiwatch/beaconwatch/internal/config"
	"github.com/ghiwatch/beaconwatch/internal/logging"
	"github.com/ghiwatch/beaconwatch/internal/models"
)

// SyncService is the collector capability the API needs. Satisfied by
// *collector.Collector.
type SyncService interface {
	Status(ctx context.Context) models.SyncStatus
	FetchAndProcess(ctx context.Context) (int, error)
}

// Pinger is the store health check. Satisfied by *database.DB.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP status/trigger surface. Implements suture.Service.
type Server struct {
	cfg       config.ServerConfig
	collector SyncService
	store     Pinger
	handler   http.Handler
	now       func() time.Time
}

// NewServer creates the server and builds its routes.
func NewServer(cfg config.ServerConfig, collector SyncService, store Pinger) *Server {
	s := &Server{
		cfg:       cfg,
		collector: collector,
		store:     store,
		now:       time.Now,
	}
	s.handler = s.routes()
	return s
}

// Handler returns the HTTP handler, exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1/beacon", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Post("/sync", s.handleSync)
	})

	return r
}

// Serve runs the HTTP server until the context is canceled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.Timeout,
		WriteTimeout:      s.cfg.Timeout,
		IdleTimeout:       2 * s.cfg.Timeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Msg("HTTP server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logging.Warn().Err(err).Msg("HTTP server shutdown incomplete")
		}
		return ctx.Err()
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// String names the service in supervisor logs.
func (s *Server) String() string {
	return "http-server"
}
