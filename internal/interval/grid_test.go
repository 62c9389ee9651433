// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package interval

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGrid(t *testing.T) {
	grid, err := NewGrid(time.Date(2026, 3, 10, 0, 0, 0, 0, Zone), 2)
	require.NoError(t, err)

	assert.Equal(t, 96, grid.Len())
	assert.Equal(t, 2, grid.Days())

	// First end is 00:30 on the first day, last is midnight after the
	// final day.
	assert.Equal(t, time.Date(2026, 3, 10, 0, 30, 0, 0, Zone), grid.End(0))
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, Zone), grid.Upper())
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, Zone), grid.Lower())
}

func TestNewGridIgnoresTimeOfDay(t *testing.T) {
	// A mid-afternoon timestamp anchors the same grid as midnight.
	afternoon := time.Date(2026, 3, 10, 15, 42, 7, 0, Zone)
	grid, err := NewGrid(afternoon, 1)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, Zone), grid.FirstDay())
	assert.Equal(t, time.Date(2026, 3, 10, 0, 30, 0, 0, Zone), grid.End(0))
}

func TestNewGridRejectsZeroDays(t *testing.T) {
	_, err := NewGrid(time.Now(), 0)
	require.Error(t, err)

	_, err = NewGrid(time.Now(), -3)
	require.Error(t, err)
}

func TestGridEndsAreContiguous(t *testing.T) {
	grid, err := NewGrid(time.Date(2026, 1, 1, 0, 0, 0, 0, Zone), 1)
	require.NoError(t, err)

	ends := grid.Ends()
	require.Len(t, ends, IntervalsPerDay)
	for i := 1; i < len(ends); i++ {
		assert.Equal(t, Step, ends[i].Sub(ends[i-1]))
	}
}

func TestValidate(t *testing.T) {
	grid, err := NewGrid(time.Date(2026, 3, 10, 0, 0, 0, 0, Zone), 1)
	require.NoError(t, err)

	tests := []struct {
		name string
		ts   time.Time
		ok   bool
	}{
		{"lower bound inclusive", grid.Lower(), true},
		{"first interval end", grid.End(0), true},
		{"last interval end", grid.Upper(), true},
		{"before lower bound", grid.Lower().Add(-Step), false},
		{"after upper bound", grid.Upper().Add(Step), false},
		{"misaligned", grid.End(0).Add(7 * time.Minute), false},
		{"misaligned by a second", grid.End(5).Add(time.Second), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := grid.Validate(tt.ts)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			var oor *OutOfRangeError
			require.Error(t, err)
			require.True(t, errors.As(err, &oor))
			assert.Equal(t, tt.ts, oor.Timestamp)
			assert.Equal(t, grid.Lower(), oor.Lower)
			assert.Equal(t, grid.Upper(), oor.Upper)
		})
	}
}

func TestValidateAcceptsUTCRepresentation(t *testing.T) {
	// The same instant expressed in UTC must validate identically.
	grid, err := NewGrid(time.Date(2026, 3, 10, 0, 0, 0, 0, Zone), 1)
	require.NoError(t, err)

	assert.NoError(t, grid.Validate(grid.End(10).UTC()))
}

func TestSlot(t *testing.T) {
	grid, err := NewGrid(time.Date(2026, 3, 10, 0, 0, 0, 0, Zone), 1)
	require.NoError(t, err)

	assert.Equal(t, 0, grid.Slot(grid.Lower()))
	assert.Equal(t, 1, grid.Slot(grid.End(0)))
	assert.Equal(t, grid.Len(), grid.Slot(grid.Upper()))
}

func TestOutOfRangeErrorMessage(t *testing.T) {
	grid, err := NewGrid(time.Date(2026, 3, 10, 0, 0, 0, 0, Zone), 1)
	require.NoError(t, err)

	vErr := grid.Validate(grid.Upper().Add(time.Hour))
	require.Error(t, vErr)
	assert.Contains(t, vErr.Error(), "outside grid range")
}
