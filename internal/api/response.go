// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

// Package api exposes the admin HTTP surface: health probes, manual sync
// triggers, audit-trail retrieval and Prometheus metrics.
package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/wattsonlabs/gridmeter/internal/logging"
)

// APIResponse is the envelope every endpoint answers with.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError carries a machine-readable code plus a human-readable message.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta stamps the response with generation time.
type APIMeta struct {
	Timestamp time.Time `json:"timestamp"`
}

// Error codes used across the admin API.
const (
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeSyncConflict = "SYNC_CONFLICT"
	ErrCodeUnavailable  = "SERVICE_UNAVAILABLE"
)

// RespondJSON writes a success envelope with the given payload.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	writeEnvelope(w, status, &APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: time.Now().UTC()},
	})
}

// RespondError writes an error envelope.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, &APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: time.Now().UTC()},
	})
}

func writeEnvelope(w http.ResponseWriter, status int, resp *APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error().Err(err).Msg("Failed to encode API response")
	}
}
