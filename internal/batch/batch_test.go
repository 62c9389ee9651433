// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package batch

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattsonlabs/gridmeter/internal/interval"
	"github.com/wattsonlabs/gridmeter/internal/models"
)

func testGrid(t *testing.T, days int) *interval.Grid {
	t.Helper()
	grid, err := interval.NewGrid(time.Date(2026, 3, 10, 0, 0, 0, 0, interval.Zone), days)
	require.NoError(t, err)
	return grid
}

func reading(pointID string, ts time.Time, value float64, q models.Quality) models.PointReading {
	return models.PointReading{
		PointID:     pointID,
		Kind:        models.MetricUsage,
		Value:       value,
		IntervalEnd: ts,
		Quality:     q,
	}
}

func TestBatchAddAndGet(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)

	r := reading("E1", grid.End(5), 1.25, models.QualityActual)
	require.NoError(t, b.Add(r))

	got, ok := b.Get("E1", grid.End(5))
	require.True(t, ok)
	assert.Equal(t, r, got)

	_, ok = b.Get("E1", grid.End(6))
	assert.False(t, ok)
	_, ok = b.Get("B1", grid.End(5))
	assert.False(t, ok)

	assert.Equal(t, 1, b.Len())
	assert.Equal(t, []string{"E1"}, b.PointIDs())
}

func TestBatchAddLastWriteWins(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)

	require.NoError(t, b.Add(reading("E1", grid.End(0), 1.0, models.QualityEstimated)))
	require.NoError(t, b.Add(reading("E1", grid.End(0), 2.0, models.QualityBillable)))

	assert.Equal(t, 1, b.Len())
	got, ok := b.Get("E1", grid.End(0))
	require.True(t, ok)
	assert.Equal(t, 2.0, got.Value)
	assert.Equal(t, models.QualityBillable, got.Quality)
}

func TestBatchAddOutOfRange(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)

	err := b.Add(reading("E1", grid.Upper().Add(interval.Step), 1.0, models.QualityActual))
	require.Error(t, err)

	var oor *interval.OutOfRangeError
	assert.True(t, errors.As(err, &oor))
	assert.Equal(t, 0, b.Len())
}

func TestBatchAddAtBothInclusiveBounds(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)

	require.NoError(t, b.Add(reading("E1", grid.Lower(), 0.5, models.QualityActual)))
	require.NoError(t, b.Add(reading("E1", grid.Upper(), 0.7, models.QualityActual)))
	assert.Equal(t, 2, b.Len())
}

func TestOverviewLengthAndContent(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)

	require.NoError(t, b.Add(reading("E1", grid.End(0), 1.0, models.QualityBillable)))
	require.NoError(t, b.Add(reading("E1", grid.End(2), 2.0, models.QualityForecast)))

	ov := b.Overview("E1")
	require.Len(t, ov, grid.Len())
	assert.Equal(t, byte('b'), ov[0])
	assert.Equal(t, byte('.'), ov[1])
	assert.Equal(t, byte('f'), ov[2])
	assert.Equal(t, strings.Repeat(".", grid.Len()-3), ov[3:])

	// Unknown point yields an all-missing overview of the same length.
	assert.Equal(t, strings.Repeat(".", grid.Len()), b.Overview("nope"))
}

func TestOverviewExcludesLowerBoundReading(t *testing.T) {
	// A reading at the grid's inclusive lower bound is stored but belongs
	// to no interval end, so it never shows in the overview.
	grid := testGrid(t, 1)
	b := New(grid)

	require.NoError(t, b.Add(reading("E1", grid.Lower(), 1.0, models.QualityActual)))

	assert.Equal(t, 1, b.Len())
	assert.Equal(t, strings.Repeat(".", grid.Len()), b.Overview("E1"))
}

func TestOverviewMultiDay(t *testing.T) {
	grid := testGrid(t, 3)
	b := New(grid)
	require.NoError(t, b.Add(reading("E1", grid.End(100), 4.2, models.QualityActual)))

	ov := b.Overview("E1")
	require.Len(t, ov, 3*interval.IntervalsPerDay)
	assert.Equal(t, byte('a'), ov[100])
}

func TestCompleteness(t *testing.T) {
	grid := testGrid(t, 1)

	b := New(grid)
	assert.Equal(t, models.CompletenessNone, b.Completeness())

	require.NoError(t, b.Add(reading("E1", grid.End(0), 1.0, models.QualityBillable)))
	assert.Equal(t, models.CompletenessFinal, b.Completeness())

	require.NoError(t, b.Add(reading("E1", grid.End(1), 1.0, models.QualityActual)))
	assert.Equal(t, models.CompletenessMixed, b.Completeness())
}

func TestReadingsOrder(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)

	// Inserted out of order; Readings must come back interval-major.
	require.NoError(t, b.Add(reading("B1", grid.End(3), 3.0, models.QualityActual)))
	require.NoError(t, b.Add(reading("E1", grid.End(1), 1.0, models.QualityActual)))
	require.NoError(t, b.Add(reading("E1", grid.End(3), 2.0, models.QualityActual)))

	rs := b.Readings()
	require.Len(t, rs, 3)
	assert.Equal(t, grid.End(1), rs[0].IntervalEnd)
	assert.Equal(t, grid.End(3), rs[1].IntervalEnd)
	assert.Equal(t, grid.End(3), rs[2].IntervalEnd)

	// Registration order breaks the tie within one interval: B1 was seen
	// before E1.
	assert.Equal(t, "B1", rs[1].PointID)
	assert.Equal(t, "E1", rs[2].PointID)
}

func TestSampleRecords(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Add(reading("E1", grid.End(i), float64(i), models.QualityActual)))
	}
	require.NoError(t, b.Add(reading("B1", grid.End(0), 9.0, models.QualityActual)))

	samples := b.SampleRecords()
	require.Len(t, samples, 2)

	e1 := samples["E1"]
	require.Len(t, e1.Readings, 3)
	assert.Equal(t, 2, e1.Skipped)
	assert.Equal(t, grid.End(0), e1.Readings[0].IntervalEnd)

	b1 := samples["B1"]
	require.Len(t, b1.Readings, 1)
	assert.Equal(t, 0, b1.Skipped)
}

func TestCanonicalDisplay(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)

	require.NoError(t, b.Add(reading("E1", grid.End(0), 1.5, models.QualityActual)))
	require.NoError(t, b.Add(reading("B1", grid.End(0), 2.5, models.QualityBillable)))
	require.NoError(t, b.Add(reading("grid.renewables", grid.End(0), 40.0, models.QualityActual)))

	rows := b.CanonicalDisplay()
	require.Len(t, rows, grid.Len()+1)

	assert.Contains(t, rows[0], "time")
	assert.Contains(t, rows[0], "quality")

	// First interval row: 00:30, both representative values, all codes.
	assert.True(t, strings.HasPrefix(rows[1], "00:30"))
	assert.Contains(t, rows[1], "1.5000")
	assert.Contains(t, rows[1], "2.5000")
	assert.True(t, strings.HasSuffix(rows[1], "aba"))

	// Empty interval: dashes for values, all-missing codes.
	assert.Contains(t, rows[2], "-")
	assert.True(t, strings.HasSuffix(rows[2], "..."))
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, 0, reg.Resolve("E1"))
	assert.Equal(t, 1, reg.Resolve("B1"))
	assert.Equal(t, 0, reg.Resolve("E1"))

	idx, ok := reg.Lookup("B1")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = reg.Lookup("missing")
	assert.False(t, ok)

	assert.Equal(t, "E1", reg.ID(0))
	assert.Equal(t, []string{"E1", "B1"}, reg.IDs())
	assert.Equal(t, 2, reg.Len())
}
