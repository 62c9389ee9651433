// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattsonlabs/gridmeter/internal/config"
	"github.com/wattsonlabs/gridmeter/internal/models"
)

type mockManager struct {
	audits     []*models.SyncAudit
	triggerErr error
	lastSync   time.Time

	triggered    int
	triggeredDry bool
}

func (m *mockManager) TriggerSync(_ context.Context, dryRun bool) ([]*models.SyncAudit, error) {
	m.triggered++
	m.triggeredDry = dryRun
	return m.audits, m.triggerErr
}

func (m *mockManager) Audits() []*models.SyncAudit { return m.audits }

func (m *mockManager) LastSyncTime() time.Time { return m.lastSync }

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(context.Context) error { return m.err }

func testRouter(manager *mockManager, pinger *mockPinger) http.Handler {
	cfg := &config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            8485,
		Timeout:         5 * time.Second,
		RateLimitReqs:   1000,
		RateLimitWindow: time.Minute,
	}
	return NewRouter(cfg, NewHandler(manager, pinger, "test"))
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, *APIResponse) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	resp := &APIResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), resp))
	return rec, resp
}

func TestHealthHealthy(t *testing.T) {
	last := time.Now().Add(-10 * time.Minute)
	h := testRouter(&mockManager{lastSync: last}, &mockPinger{})

	rec, resp := doRequest(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(data, &status))

	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "up", status.Database)
	assert.Equal(t, "test", status.Version)
}

func TestHealthDegradedOnStoreFailure(t *testing.T) {
	h := testRouter(&mockManager{}, &mockPinger{err: errors.New("closed")})

	rec, resp := doRequest(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	data, _ := json.Marshal(resp.Data)
	var status HealthStatus
	require.NoError(t, json.Unmarshal(data, &status))
	assert.Equal(t, "degraded", status.Status)
	assert.Equal(t, "down", status.Database)
}

func TestTriggerSync(t *testing.T) {
	manager := &mockManager{audits: []*models.SyncAudit{{SiteID: "site-1", Success: true}}}
	h := testRouter(manager, &mockPinger{})

	rec, resp := doRequest(t, h, http.MethodPost, "/api/v1/sync", `{"dry_run":true}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, manager.triggered)
	assert.True(t, manager.triggeredDry)
}

func TestTriggerSyncWithoutBody(t *testing.T) {
	manager := &mockManager{}
	h := testRouter(manager, &mockPinger{})

	rec, _ := doRequest(t, h, http.MethodPost, "/api/v1/sync", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, manager.triggered)
	assert.False(t, manager.triggeredDry)
}

func TestTriggerSyncBadBody(t *testing.T) {
	h := testRouter(&mockManager{}, &mockPinger{})

	rec, resp := doRequest(t, h, http.MethodPost, "/api/v1/sync", `{"dry_run":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
}

func TestTriggerSyncFailure(t *testing.T) {
	manager := &mockManager{triggerErr: errors.New("pipeline exploded")}
	h := testRouter(manager, &mockPinger{})

	rec, resp := doRequest(t, h, http.MethodPost, "/api/v1/sync", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeInternal, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "pipeline exploded")
}

func TestAuditsWithLimit(t *testing.T) {
	manager := &mockManager{audits: []*models.SyncAudit{
		{Kind: models.MetricPrice}, {Kind: models.MetricUsage}, {Kind: models.MetricPrice},
	}}
	h := testRouter(manager, &mockPinger{})

	rec, resp := doRequest(t, h, http.MethodGet, "/api/v1/audits?limit=2", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	data, _ := json.Marshal(resp.Data)
	var audits []models.SyncAudit
	require.NoError(t, json.Unmarshal(data, &audits))
	assert.Len(t, audits, 2)
}

func TestAuditsBadLimit(t *testing.T) {
	h := testRouter(&mockManager{}, &mockPinger{})

	rec, resp := doRequest(t, h, http.MethodGet, "/api/v1/audits?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrCodeBadRequest, resp.Error.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	h := testRouter(&mockManager{}, &mockPinger{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestUnknownRoute(t *testing.T) {
	h := testRouter(&mockManager{}, &mockPinger{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
