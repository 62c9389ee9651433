// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/wattsonlabs/gridmeter/internal/config"
	"github.com/wattsonlabs/gridmeter/internal/logging"
)

// Server wraps the admin HTTP server with its lifecycle.
type Server struct {
	srv *http.Server
}

// NewServer builds the HTTP server around the assembled router.
func NewServer(cfg *config.ServerConfig, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           handler,
			ReadTimeout:       cfg.Timeout,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.Timeout,
			IdleTimeout:       120 * time.Second,
		},
	}
}

// Start serves until Shutdown is called. A closed listener is a clean
// stop, not an error.
func (s *Server) Start() error {
	logging.Info().Str("addr", s.srv.Addr).Msg("Starting admin API server")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin API server: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests within the context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info().Msg("Shutting down admin API server")
	return s.srv.Shutdown(ctx)
}
