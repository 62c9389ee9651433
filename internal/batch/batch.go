// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

// Package batch implements the in-memory readings container: one reading
// per (interval, point) slot for a fixed half-hour grid, plus the summary
// operations the reconciliation pipeline builds its audit trail from.
//
// A batch is constructed fresh per pipeline stage, populated by repeated
// Add calls, queried for summaries and then discarded or handed to the
// persistence adapter. It is never shared across concurrent writers.
package batch

import (
	"sort"
	"time"

	"github.com/wattsonlabs/gridmeter/internal/interval"
	"github.com/wattsonlabs/gridmeter/internal/models"
)

// Batch holds readings for one grid. Storage is an arena: a dense slice
// indexed by interval sequence number, each cell a small map keyed by the
// registry's point index. Slot 0 is a preamble cell for readings at the
// grid's inclusive lower bound (the start of the first interval); those
// are stored and persisted but never appear in overviews or
// characterisation, which iterate interval ends only.
type Batch struct {
	grid  *interval.Grid
	reg   *Registry
	cells []map[int]models.PointReading
	count int
}

// New creates an empty batch over grid.
func New(grid *interval.Grid) *Batch {
	return &Batch{
		grid:  grid,
		reg:   NewRegistry(),
		cells: make([]map[int]models.PointReading, grid.Len()+1),
	}
}

// Grid returns the grid the batch is keyed by.
func (b *Batch) Grid() *interval.Grid { return b.grid }

// Len returns the number of stored readings.
func (b *Batch) Len() int { return b.count }

// PointIDs returns the identifiers of every point that has at least one
// reading, in first-seen order.
func (b *Batch) PointIDs() []string { return b.reg.IDs() }

// Add validates the reading's interval timestamp against the grid and
// stores it, overwriting any previous reading in the same (interval,
// point) slot. The returned *interval.OutOfRangeError is a data-integrity
// fault: callers are expected to propagate it, not skip the reading.
func (b *Batch) Add(r models.PointReading) error {
	if err := b.grid.Validate(r.IntervalEnd); err != nil {
		return err
	}

	slot := b.grid.Slot(r.IntervalEnd)
	idx := b.reg.Resolve(r.PointID)

	cell := b.cells[slot]
	if cell == nil {
		cell = make(map[int]models.PointReading, 4)
		b.cells[slot] = cell
	}
	if _, exists := cell[idx]; !exists {
		b.count++
	}
	cell[idx] = r
	return nil
}

// Get returns the reading stored for (intervalEnd, pointID), if any.
func (b *Batch) Get(pointID string, intervalEnd time.Time) (models.PointReading, bool) {
	if err := b.grid.Validate(intervalEnd); err != nil {
		return models.PointReading{}, false
	}
	idx, ok := b.reg.Lookup(pointID)
	if !ok {
		return models.PointReading{}, false
	}
	cell := b.cells[b.grid.Slot(intervalEnd)]
	if cell == nil {
		return models.PointReading{}, false
	}
	r, ok := cell[idx]
	return r, ok
}

// at returns the reading at interval sequence i (0-based over interval
// ends) for point index idx.
func (b *Batch) at(i, idx int) (models.PointReading, bool) {
	cell := b.cells[i+1]
	if cell == nil {
		return models.PointReading{}, false
	}
	r, ok := cell[idx]
	return r, ok
}

// Overview returns one quality-code character per interval for pointID,
// in chronological order, '.' where no reading is stored. The string
// length always equals the grid length.
func (b *Batch) Overview(pointID string) string {
	buf := make([]byte, b.grid.Len())
	idx, known := b.reg.Lookup(pointID)
	for i := range buf {
		buf[i] = models.QualityMissingCode
		if !known {
			continue
		}
		if r, ok := b.at(i, idx); ok {
			buf[i] = r.Quality.Code()
		}
	}
	return string(buf)
}

// Overviews returns the overview string for every known point.
func (b *Batch) Overviews() map[string]string {
	out := make(map[string]string, b.reg.Len())
	for _, id := range b.reg.IDs() {
		out[id] = b.Overview(id)
	}
	return out
}

// Completeness scans every stored reading: CompletenessNone for an empty
// batch, CompletenessFinal if every reading is at the top precedence tier,
// CompletenessMixed otherwise.
func (b *Batch) Completeness() models.Completeness {
	if b.count == 0 {
		return models.CompletenessNone
	}
	top := models.TopQuality.Precedence()
	for _, cell := range b.cells {
		for _, r := range cell {
			if r.Quality.Precedence() != top {
				return models.CompletenessMixed
			}
		}
	}
	return models.CompletenessFinal
}

// Readings returns every stored reading ordered by interval then by point
// registration order. Preamble readings (at the grid's lower bound) come
// first. This is the persistence order.
func (b *Batch) Readings() []models.PointReading {
	out := make([]models.PointReading, 0, b.count)
	for _, cell := range b.cells {
		if len(cell) == 0 {
			continue
		}
		idxs := make([]int, 0, len(cell))
		for idx := range cell {
			idxs = append(idxs, idx)
		}
		sort.Ints(idxs)
		for _, idx := range idxs {
			out = append(out, cell[idx])
		}
	}
	return out
}

// SampleRecords returns, per point, the up-to-three earliest readings and
// how many were skipped. Audit payloads carry these instead of full maps.
func (b *Batch) SampleRecords() map[string]models.SampleSet {
	const maxSamples = 3

	out := make(map[string]models.SampleSet, b.reg.Len())
	for _, r := range b.Readings() {
		set := out[r.PointID]
		if len(set.Readings) < maxSamples {
			set.Readings = append(set.Readings, r)
		} else {
			set.Skipped++
		}
		out[r.PointID] = set
	}
	return out
}
