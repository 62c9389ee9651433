// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/wattsonlabs/gridmeter/internal/logging"
	"github.com/wattsonlabs/gridmeter/internal/models"
)

// SyncManager is the slice of the sync manager the handlers consume.
type SyncManager interface {
	TriggerSync(ctx context.Context, dryRun bool) ([]*models.SyncAudit, error)
	Audits() []*models.SyncAudit
	LastSyncTime() time.Time
}

// Pinger reports store liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the dependencies for all admin endpoints.
type Handler struct {
	manager SyncManager
	store   Pinger
	version string
}

// NewHandler creates the admin API handler set.
func NewHandler(manager SyncManager, store Pinger, version string) *Handler {
	return &Handler{manager: manager, store: store, version: version}
}

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status   string    `json:"status"` // "healthy" or "degraded"
	Version  string    `json:"version"`
	Database string    `json:"database"` // "up" or "down"
	LastSync time.Time `json:"last_sync,omitempty"`
}

// Health reports service and store liveness. A failing store ping
// degrades the status but still answers 200; orchestrators use the
// payload, not the code, to distinguish degraded from dead.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := HealthStatus{
		Status:   "healthy",
		Version:  h.version,
		Database: "up",
		LastSync: h.manager.LastSyncTime(),
	}
	if err := h.store.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("Health check: store ping failed")
		status.Status = "degraded"
		status.Database = "down"
	}

	RespondJSON(w, http.StatusOK, status)
}

// TriggerSyncRequest is the optional body of the manual sync endpoint.
type TriggerSyncRequest struct {
	DryRun bool `json:"dry_run"`
}

// TriggerSync runs one reconciliation cycle on demand and returns its
// audit trails. The request blocks until the cycle completes.
func (h *Handler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	var req TriggerSyncRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			RespondError(w, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
			return
		}
	}

	audits, err := h.manager.TriggerSync(r.Context(), req.DryRun)
	if err != nil {
		logging.Error().Err(err).Msg("Manual sync failed")
		RespondError(w, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	RespondJSON(w, http.StatusOK, audits)
}

// Audits returns retained audit trails, newest first. An optional
// ?limit=N caps the result.
func (h *Handler) Audits(w http.ResponseWriter, r *http.Request) {
	audits := h.manager.Audits()

	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			RespondError(w, http.StatusBadRequest, ErrCodeBadRequest, "limit must be a positive integer")
			return
		}
		if limit < len(audits) {
			audits = audits[:limit]
		}
	}

	RespondJSON(w, http.StatusOK, audits)
}
