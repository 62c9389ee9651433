// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package supervisor

import (
	"context"
	"time"

	"github.com/wattsonlabs/gridmeter/internal/api"
	"github.com/wattsonlabs/gridmeter/internal/logging"
	"github.com/wattsonlabs/gridmeter/internal/sync"
)

// SyncService adapts the sync manager to suture.Service.
type SyncService struct {
	manager *sync.Manager
}

// NewSyncService wraps a sync manager for supervision.
func NewSyncService(manager *sync.Manager) *SyncService {
	return &SyncService{manager: manager}
}

// Serve runs the manager's schedule until the context is canceled, then
// stops it and waits for any in-flight cycle.
func (s *SyncService) Serve(ctx context.Context) error {
	s.manager.Start()
	<-ctx.Done()
	s.manager.Stop()
	return ctx.Err()
}

func (s *SyncService) String() string { return "sync-manager" }

// HTTPService adapts the admin API server to suture.Service.
type HTTPService struct {
	server          *api.Server
	shutdownTimeout time.Duration
}

// NewHTTPService wraps the admin server for supervision.
func NewHTTPService(server *api.Server, shutdownTimeout time.Duration) *HTTPService {
	if shutdownTimeout == 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &HTTPService{server: server, shutdownTimeout: shutdownTimeout}
}

// Serve runs the HTTP server until the context is canceled, then drains
// it within the shutdown timeout.
func (s *HTTPService) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		logging.Warn().Err(err).Msg("Admin API server shutdown incomplete")
	}
	<-errCh
	return ctx.Err()
}

func (s *HTTPService) String() string { return "admin-api" }
