// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package batch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wattsonlabs/gridmeter/internal/models"
)

// findRange locates the characterisation range with the given quality and
// point set.
func findRange(t *testing.T, ranges []models.CharacterisationRange, q models.Quality, points []string) models.CharacterisationRange {
	t.Helper()
	for _, r := range ranges {
		if r.Quality != q {
			continue
		}
		if assert.ObjectsAreEqual(points, r.PointIDs) {
			return r
		}
	}
	t.Fatalf("no range with quality %q and points %v", q, points)
	return models.CharacterisationRange{}
}

func TestCharacteriseQualityFlipMidDay(t *testing.T) {
	// One day, four points. Intervals 0-12: all four at actual. From
	// interval 13 the two energy points turn billable while the grid feed
	// points stay actual. Expect exactly three ranges, two of them
	// overlapping in time with disjoint point sets.
	grid := testGrid(t, 1)
	b := New(grid)

	points := []string{"E1", "B1", "grid.renewables", "grid.spotPerKwh"}
	for i := 0; i < grid.Len(); i++ {
		for _, p := range points {
			q := models.QualityActual
			if i >= 13 && (p == "E1" || p == "B1") {
				q = models.QualityBillable
			}
			require.NoError(t, b.Add(reading(p, grid.End(i), 1.0, q)))
		}
	}

	ranges := b.Characterise()
	require.Len(t, ranges, 3)

	all4 := findRange(t, ranges, models.QualityActual,
		[]string{"B1", "E1", "grid.renewables", "grid.spotPerKwh"})
	assert.Equal(t, 13, all4.Periods)
	assert.Equal(t, grid.End(0), all4.Start)
	assert.Equal(t, grid.End(12), all4.End)

	billable := findRange(t, ranges, models.QualityBillable, []string{"B1", "E1"})
	assert.Equal(t, 35, billable.Periods)
	assert.Equal(t, grid.End(13), billable.Start)
	assert.Equal(t, grid.End(47), billable.End)

	gridFeeds := findRange(t, ranges, models.QualityActual,
		[]string{"grid.renewables", "grid.spotPerKwh"})
	assert.Equal(t, 35, gridFeeds.Periods)
	assert.Equal(t, grid.End(13), gridFeeds.Start)
	assert.Equal(t, grid.End(47), gridFeeds.End)

	// The all-four range opened first.
	assert.Equal(t, all4, ranges[0])
}

func TestCharacteriseEmptyBatch(t *testing.T) {
	b := New(testGrid(t, 1))
	assert.Empty(t, b.Characterise())
}

func TestCharacteriseUniformBatchIsOneRange(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)
	for i := 0; i < grid.Len(); i++ {
		require.NoError(t, b.Add(reading("E1", grid.End(i), 1.0, models.QualityBillable)))
	}

	ranges := b.Characterise()
	require.Len(t, ranges, 1)
	assert.Equal(t, models.QualityBillable, ranges[0].Quality)
	assert.Equal(t, []string{"E1"}, ranges[0].PointIDs)
	assert.Equal(t, grid.Len(), ranges[0].Periods)
}

func TestCharacteriseGapBreaksRange(t *testing.T) {
	// A single missing interval splits an otherwise uniform run: there is
	// no look-ahead gap tolerance.
	grid := testGrid(t, 1)
	b := New(grid)
	for i := 0; i < 10; i++ {
		if i == 5 {
			continue
		}
		require.NoError(t, b.Add(reading("E1", grid.End(i), 1.0, models.QualityActual)))
	}

	ranges := b.Characterise()
	require.Len(t, ranges, 2)
	assert.Equal(t, 5, ranges[0].Periods)
	assert.Equal(t, grid.End(4), ranges[0].End)
	assert.Equal(t, grid.End(6), ranges[1].Start)
	assert.Equal(t, 4, ranges[1].Periods)
}

func TestCharacterisePointJoiningBreaksRange(t *testing.T) {
	// E1 runs alone for 5 intervals, then B1 joins at the same quality.
	// The point-set identity changes, so the solo range closes and a new
	// two-point range opens.
	grid := testGrid(t, 1)
	b := New(grid)
	for i := 0; i < 10; i++ {
		require.NoError(t, b.Add(reading("E1", grid.End(i), 1.0, models.QualityActual)))
		if i >= 5 {
			require.NoError(t, b.Add(reading("B1", grid.End(i), 2.0, models.QualityActual)))
		}
	}

	ranges := b.Characterise()
	require.Len(t, ranges, 2)
	assert.Equal(t, []string{"E1"}, ranges[0].PointIDs)
	assert.Equal(t, 5, ranges[0].Periods)
	assert.Equal(t, []string{"B1", "E1"}, ranges[1].PointIDs)
	assert.Equal(t, 5, ranges[1].Periods)
}

func TestCharacteriseThreeWaySplit(t *testing.T) {
	// Three points at three distinct qualities in the same interval: the
	// n-way partition yields one range per quality class.
	grid := testGrid(t, 1)
	b := New(grid)
	for i := 0; i < 4; i++ {
		require.NoError(t, b.Add(reading("P1", grid.End(i), 1.0, models.QualityForecast)))
		require.NoError(t, b.Add(reading("P2", grid.End(i), 1.0, models.QualityActual)))
		require.NoError(t, b.Add(reading("P3", grid.End(i), 1.0, models.QualityBillable)))
	}

	ranges := b.Characterise()
	require.Len(t, ranges, 3)
	for _, r := range ranges {
		assert.Equal(t, 4, r.Periods)
		assert.Len(t, r.PointIDs, 1)
	}
}

func TestCharacteriseDropsUnknownQuality(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)
	for i := 0; i < 4; i++ {
		require.NoError(t, b.Add(reading("P1", grid.End(i), 1.0, models.Quality("weird"))))
		require.NoError(t, b.Add(reading("P2", grid.End(i), 1.0, models.QualityActual)))
	}

	ranges := b.Characterise()
	require.Len(t, ranges, 1)
	assert.Equal(t, []string{"P2"}, ranges[0].PointIDs)
}

func TestCharacteriseIgnoresLowerBoundReading(t *testing.T) {
	grid := testGrid(t, 1)
	b := New(grid)
	require.NoError(t, b.Add(reading("E1", grid.Lower(), 1.0, models.QualityActual)))

	assert.Empty(t, b.Characterise())
}
