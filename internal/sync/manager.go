// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/wattsonlabs/gridmeter/internal/amber"
	"github.com/wattsonlabs/gridmeter/internal/config"
	"github.com/wattsonlabs/gridmeter/internal/interval"
	"github.com/wattsonlabs/gridmeter/internal/logging"
	"github.com/wattsonlabs/gridmeter/internal/models"
)

// Manager schedules reconciliation runs: one usage run and one price run
// per cycle, on a fixed interval, over a sliding lookback window ending
// today. It keeps a bounded in-memory history of audit trails for the
// admin API.
type Manager struct {
	cfg    *config.Config
	store  Store
	client amber.ClientInterface

	// syncMu serialises cycles: a scheduled tick and a manual trigger
	// must never reconcile the same site concurrently.
	syncMu sync.Mutex

	// mu guards lastSync and audits.
	mu       sync.RWMutex
	lastSync time.Time
	audits   []*models.SyncAudit

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewManager creates a sync manager. Start must be called to begin the
// periodic schedule; TriggerSync works without Start.
func NewManager(cfg *config.Config, store Store, client amber.ClientInterface) *Manager {
	return &Manager{
		cfg:      cfg,
		store:    store,
		client:   client,
		stopChan: make(chan struct{}),
	}
}

// Start launches the periodic schedule. The first cycle runs immediately
// so a restart never waits a full interval to catch up.
func (m *Manager) Start() {
	if !m.cfg.Sync.Enabled {
		logging.Info().Msg("Periodic sync disabled")
		return
	}

	logging.Info().
		Dur("interval", m.cfg.Sync.Interval).
		Int("lookback_days", m.cfg.Sync.LookbackDays).
		Msg("Starting sync manager")

	m.wg.Add(1)
	go m.runLoop()
}

// Stop halts the schedule and waits for an in-flight cycle to finish.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
	})
	m.wg.Wait()
	logging.Info().Msg("Sync manager stopped")
}

func (m *Manager) runLoop() {
	defer m.wg.Done()

	m.runCycle(context.Background(), m.cfg.Sync.DryRun)

	ticker := time.NewTicker(m.cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.runCycle(context.Background(), m.cfg.Sync.DryRun)
		case <-m.stopChan:
			return
		}
	}
}

// TriggerSync runs one full cycle on demand, independent of the
// schedule. It blocks until the cycle finishes and returns its audit
// trails.
func (m *Manager) TriggerSync(ctx context.Context, dryRun bool) ([]*models.SyncAudit, error) {
	return m.runCycle(ctx, dryRun)
}

// runCycle reconciles usage then prices over the lookback window. A
// failed usage run still lets the price run proceed; a boundary fault
// from either aborts the cycle because it indicates corrupt data rather
// than a transient condition.
func (m *Manager) runCycle(ctx context.Context, dryRun bool) ([]*models.SyncAudit, error) {
	m.syncMu.Lock()
	defer m.syncMu.Unlock()

	grid, err := m.windowGrid()
	if err != nil {
		return nil, err
	}

	audits := make([]*models.SyncAudit, 0, 2)
	for _, kind := range []models.MetricKind{models.MetricUsage, models.MetricPrice} {
		p := NewPipeline(m.store, m.client, m.cfg.Amber.SiteID, kind, grid, dryRun)
		audit, fatal := p.Run(ctx)
		if audit != nil {
			audits = append(audits, audit)
			m.recordAudit(audit)
		}
		if fatal != nil {
			logging.Error().Err(fatal).Str("kind", string(kind)).Msg("Reconciliation aborted on boundary fault")
			return audits, fatal
		}
	}

	m.mu.Lock()
	m.lastSync = time.Now()
	m.mu.Unlock()

	return audits, nil
}

// windowGrid builds the grid for the sliding lookback window: today and
// the lookbackDays-1 preceding days, in the fixed metering offset.
func (m *Manager) windowGrid() (*interval.Grid, error) {
	lookback := m.cfg.Sync.LookbackDays
	firstDay := time.Now().In(interval.Zone).AddDate(0, 0, -(lookback - 1))
	grid, err := interval.NewGrid(firstDay, lookback)
	if err != nil {
		return nil, fmt.Errorf("building sync window: %w", err)
	}
	return grid, nil
}

// recordAudit appends to the bounded history, evicting the oldest entry
// when the configured capacity is reached.
func (m *Manager) recordAudit(audit *models.SyncAudit) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.audits = append(m.audits, audit)
	if max := m.cfg.Sync.AuditHistory; max > 0 && len(m.audits) > max {
		m.audits = m.audits[len(m.audits)-max:]
	}
}

// Audits returns the retained audit trails, newest first.
func (m *Manager) Audits() []*models.SyncAudit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*models.SyncAudit, len(m.audits))
	for i, a := range m.audits {
		out[len(out)-1-i] = a
	}
	return out
}

// LastSyncTime returns when the last cycle completed, zero if none has.
func (m *Manager) LastSyncTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastSync
}
