// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wattsonlabs/gridmeter/internal/amber"
	"github.com/wattsonlabs/gridmeter/internal/batch"
	"github.com/wattsonlabs/gridmeter/internal/interval"
	"github.com/wattsonlabs/gridmeter/internal/logging"
	"github.com/wattsonlabs/gridmeter/internal/metrics"
	"github.com/wattsonlabs/gridmeter/internal/models"
)

// Store is the narrow persistence surface the pipeline consumes.
// Implemented by *database.DB for production and by mocks in tests.
type Store interface {
	LoadReadings(ctx context.Context, siteID string, kind models.MetricKind, grid *interval.Grid) ([]models.PointReading, error)
	InsertReadings(ctx context.Context, siteID string, sessionID uuid.UUID, readings []models.PointReading) (int, error)
}

// Pipeline stage names as they appear in the audit trail.
const (
	StageLoadLocal  = "load_local"
	StageLoadRemote = "load_remote"
	StageCompare    = "compare"
	StagePersist    = "persist"
)

// pipelineState is one node of the run's finite state machine. The
// machine is linear with early-exit branches: every early exit jumps to
// stateDone, every stage failure to stateFailed.
type pipelineState int

const (
	stateLoadLocal pipelineState = iota
	stateLoadRemote
	stateCompare
	statePersist
	stateDone
	stateFailed
)

// Pipeline executes one reconciliation run for one site, one metric kind
// and one date range. Construct a fresh pipeline per run; it is not
// reusable.
type Pipeline struct {
	store  Store
	client amber.ClientInterface

	siteID    string
	kind      models.MetricKind
	grid      *interval.Grid
	sessionID uuid.UUID
	dryRun    bool
	now       func() time.Time

	local    *batch.Batch
	remote   *batch.Batch
	superior *batch.Batch

	comparisons map[string]string

	audit *models.SyncAudit
}

// NewPipeline prepares a run over the grid's date range. The session id
// tags every reading the run persists.
func NewPipeline(store Store, client amber.ClientInterface, siteID string, kind models.MetricKind, grid *interval.Grid, dryRun bool) *Pipeline {
	return &Pipeline{
		store:     store,
		client:    client,
		siteID:    siteID,
		kind:      kind,
		grid:      grid,
		sessionID: uuid.New(),
		dryRun:    dryRun,
		now:       time.Now,
	}
}

// Run drives the state machine to completion and returns the audit
// trail. Stage failures are recorded on their stage and mark the run
// unsuccessful; the only non-nil error return is a boundary-validation
// fault from batch insertion, which indicates corrupt data and
// propagates instead of being recorded.
func (p *Pipeline) Run(ctx context.Context) (*models.SyncAudit, error) {
	started := p.now()
	p.audit = &models.SyncAudit{
		SiteID:    p.siteID,
		Kind:      p.kind,
		SessionID: p.sessionID,
		StartDay:  p.grid.FirstDay(),
		Days:      p.grid.Days(),
		DryRun:    p.dryRun,
		StartedAt: started,
	}

	logging.Info().
		Str("site", p.siteID).
		Str("kind", string(p.kind)).
		Time("start_day", p.grid.FirstDay()).
		Int("days", p.grid.Days()).
		Bool("dry_run", p.dryRun).
		Msg("Reconciliation run started")

	st := stateLoadLocal
	var fatal error
	for st != stateDone && st != stateFailed {
		switch st {
		case stateLoadLocal:
			st, fatal = p.loadLocal(ctx)
		case stateLoadRemote:
			st, fatal = p.loadRemote(ctx)
		case stateCompare:
			st, fatal = p.compare()
		case statePersist:
			st, fatal = p.persist(ctx)
		}
		if fatal != nil {
			return p.audit, fatal
		}
	}

	p.audit.Duration = models.JSONDuration(p.now().Sub(started))
	p.audit.Success = st == stateDone

	var runErr error
	if !p.audit.Success {
		runErr = errors.New(p.audit.Stages[len(p.audit.Stages)-1].Error)
	}
	metrics.RecordSyncRun(string(p.kind), time.Duration(p.audit.Duration), runErr)

	logging.Info().
		Str("site", p.siteID).
		Str("kind", string(p.kind)).
		Bool("success", p.audit.Success).
		Int("inserted", p.audit.Inserted).
		Dur("duration", time.Duration(p.audit.Duration)).
		Msg("Reconciliation run finished")

	return p.audit, nil
}

// loadLocal builds the cached batch from the store. If the cache is
// already fully final there is nothing any remote fetch could improve,
// so the run terminates successfully without touching the network.
func (p *Pipeline) loadLocal(ctx context.Context) (pipelineState, error) {
	readings, err := p.store.LoadReadings(ctx, p.siteID, p.kind, p.grid)
	if err != nil {
		p.failStage(StageLoadLocal, fmt.Errorf("loading cached readings: %w", err))
		return stateFailed, nil
	}
	metrics.SyncReadingsLoaded.WithLabelValues("local").Add(float64(len(readings)))

	p.local = batch.New(p.grid)
	if err := fillBatch(p.local, readings); err != nil {
		return stateFailed, err
	}

	info := summarize(p.local)
	if p.local.Completeness() == models.CompletenessFinal {
		p.appendStage(StageLoadLocal, info, "local batch already final, nothing to do")
		metrics.SyncNoopRuns.WithLabelValues(string(p.kind), "local_final").Inc()
		return stateDone, nil
	}

	p.appendStage(StageLoadLocal, info, "")
	return stateLoadRemote, nil
}

// loadRemote fetches the authoritative batch from the upstream API. An
// empty remote response is a successful early exit, not an error.
func (p *Pipeline) loadRemote(ctx context.Context) (pipelineState, error) {
	readings, err := p.fetchRemote(ctx)
	if err != nil {
		p.failStage(StageLoadRemote, err)
		return stateFailed, nil
	}
	metrics.SyncReadingsLoaded.WithLabelValues("remote").Add(float64(len(readings)))

	p.remote = batch.New(p.grid)
	if err := fillBatch(p.remote, readings); err != nil {
		return stateFailed, err
	}

	info := summarize(p.remote)
	if p.remote.Len() == 0 {
		p.appendStage(StageLoadRemote, info, "remote has nothing new")
		metrics.SyncNoopRuns.WithLabelValues(string(p.kind), "remote_empty").Inc()
		return stateDone, nil
	}

	p.appendStage(StageLoadRemote, info, "")
	return stateCompare, nil
}

// fetchRemote consults the source matching the run's metric kind and
// converts the wire records to canonical readings.
func (p *Pipeline) fetchRemote(ctx context.Context) ([]models.PointReading, error) {
	start := p.grid.FirstDay()
	end := start.AddDate(0, 0, p.grid.Days()-1)
	receivedAt := p.now()

	switch p.kind {
	case models.MetricUsage:
		records, err := p.client.GetUsage(ctx, p.siteID, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetching remote usage: %w", err)
		}
		return amber.UsageReadings(records, p.sessionID, receivedAt), nil
	case models.MetricPrice:
		records, err := p.client.GetPrices(ctx, p.siteID, start, end)
		if err != nil {
			return nil, fmt.Errorf("fetching remote prices: %w", err)
		}
		return amber.PriceReadings(records, p.sessionID, receivedAt), nil
	default:
		return nil, fmt.Errorf("unknown metric kind %q", p.kind)
	}
}

// compare walks every (point, interval) slot and collects the remote
// readings judged superior into a fresh batch, recording per point a
// comparison overview of which side won each interval.
func (p *Pipeline) compare() (pipelineState, error) {
	pointIDs := p.local.PointIDs()
	if len(pointIDs) == 0 {
		pointIDs = p.remote.PointIDs()
	}

	p.superior = batch.New(p.grid)
	p.comparisons = make(map[string]string, len(pointIDs))

	for _, pointID := range pointIDs {
		row := make([]byte, p.grid.Len())
		for i, ts := range p.grid.Ends() {
			local, localOK := p.local.Get(pointID, ts)
			remote, remoteOK := p.remote.Get(pointID, ts)

			remoteSuperior, ch := compareReadings(local, remote, localOK, remoteOK)
			row[i] = ch
			if remoteSuperior {
				if err := p.superior.Add(remote); err != nil {
					return stateFailed, err
				}
			}
		}
		p.comparisons[pointID] = string(row)
	}

	metrics.SyncSuperiorReadings.Add(float64(p.superior.Len()))

	info := summarize(p.superior)
	info.ComparisonOverviews = p.comparisons

	if p.superior.Len() == 0 {
		p.appendStage(StageCompare, info, "local readings already as good or better")
		metrics.SyncNoopRuns.WithLabelValues(string(p.kind), "no_superior").Inc()
		return stateDone, nil
	}

	p.appendStage(StageCompare, info, "")
	return statePersist, nil
}

// persist writes the superior batch, or in dry-run mode reports the
// would-be insert count without writing.
func (p *Pipeline) persist(ctx context.Context) (pipelineState, error) {
	if p.dryRun {
		p.audit.Inserted = p.superior.Len()
		p.appendStage(StagePersist, &models.StageInfo{RecordCount: p.superior.Len()},
			fmt.Sprintf("dry run: skipped write of %d readings", p.superior.Len()))
		return stateDone, nil
	}

	inserted, err := p.store.InsertReadings(ctx, p.siteID, p.sessionID, p.superior.Readings())
	if err != nil {
		p.failStage(StagePersist, fmt.Errorf("persisting superior readings: %w", err))
		return stateFailed, nil
	}

	metrics.SyncReadingsInserted.Add(float64(inserted))
	p.audit.Inserted = inserted
	p.appendStage(StagePersist, &models.StageInfo{RecordCount: inserted}, "")
	return stateDone, nil
}

// fillBatch inserts readings into a batch. An out-of-range timestamp is
// a data-integrity fault; it propagates untouched so the caller of the
// run sees the offending timestamp and grid bounds.
func fillBatch(b *batch.Batch, readings []models.PointReading) error {
	for i := range readings {
		if err := b.Add(readings[i]); err != nil {
			return err
		}
	}
	return nil
}

// summarize builds the audit info block for a batch: per-point overview
// strings, aggregate completeness, the characterisation when the batch
// is mixed, the canonical display and up to three sample records per
// point. Full reading maps deliberately never enter the audit.
func summarize(b *batch.Batch) *models.StageInfo {
	info := &models.StageInfo{
		Overviews:    b.Overviews(),
		RecordCount:  b.Len(),
		Completeness: b.Completeness(),
		Samples:      b.SampleRecords(),
	}
	if info.Completeness == models.CompletenessMixed {
		info.Characterisation = b.Characterise()
	}
	if b.Len() > 0 {
		info.Display = b.CanonicalDisplay()
	}
	return info
}

// appendStage records a successful stage (optionally with a discovery
// note explaining an early exit).
func (p *Pipeline) appendStage(stage string, info *models.StageInfo, discovery string) {
	p.audit.Stages = append(p.audit.Stages, models.StageResult{
		Stage:     stage,
		Info:      info,
		Discovery: discovery,
	})
	if discovery != "" {
		logging.Info().Str("stage", stage).Str("discovery", discovery).Msg("Stage discovery")
	}
}

// failStage records a failed stage; later stages are never attempted.
func (p *Pipeline) failStage(stage string, err error) {
	metrics.SyncStageErrors.WithLabelValues(stage).Inc()
	logging.Error().Err(err).Str("stage", stage).Str("site", p.siteID).Msg("Stage failed")
	p.audit.Stages = append(p.audit.Stages, models.StageResult{
		Stage: stage,
		Error: err.Error(),
	})
}
