// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

// Package interval generates and validates the fixed half-hour interval
// grid every readings batch is keyed by.
//
// The grid is anchored in a fixed UTC+10 offset rather than the observed
// local timezone. The national metering day does not observe daylight
// saving, so a fixed offset keeps every day exactly 48 intervals and
// avoids the 46/50-interval days a DST-aware zone would produce.
package interval

import (
	"fmt"
	"time"
)

// IntervalsPerDay is the number of half-hour slots in one metering day.
const IntervalsPerDay = 48

// Step is the fixed spacing between interval end timestamps.
const Step = 30 * time.Minute

// Zone is the fixed UTC+10 offset the grid is anchored in.
var Zone = time.FixedZone("AEST", 10*60*60)

// OutOfRangeError reports an attempt to place a reading outside a grid's
// bounds. It carries the offending timestamp and both inclusive bounds for
// diagnosis; the add path treats it as a data-integrity fault and never
// swallows it.
type OutOfRangeError struct {
	Timestamp time.Time
	Lower     time.Time
	Upper     time.Time
}

// Error implements the error interface.
func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("timestamp %s outside grid range [%s, %s]",
		e.Timestamp.Format(time.RFC3339),
		e.Lower.Format(time.RFC3339),
		e.Upper.Format(time.RFC3339))
}

// Grid is the ordered set of half-hour interval-end timestamps for an
// N-day range. It is immutable after construction.
type Grid struct {
	firstDay time.Time
	days     int
	ends     []time.Time
}

// NewGrid builds the grid for numberOfDays starting at firstDay. Only the
// date components of firstDay are used; the first interval end is
// firstDay 00:30 in the fixed UTC+10 offset and each subsequent entry is
// the previous plus 30 minutes.
func NewGrid(firstDay time.Time, numberOfDays int) (*Grid, error) {
	if numberOfDays < 1 {
		return nil, fmt.Errorf("grid needs at least one day, got %d", numberOfDays)
	}

	day := time.Date(firstDay.Year(), firstDay.Month(), firstDay.Day(), 0, 0, 0, 0, Zone)

	n := IntervalsPerDay * numberOfDays
	ends := make([]time.Time, n)
	ts := day.Add(Step)
	for i := 0; i < n; i++ {
		ends[i] = ts
		ts = ts.Add(Step)
	}

	return &Grid{firstDay: day, days: numberOfDays, ends: ends}, nil
}

// FirstDay returns midnight of the grid's first day in the fixed offset.
func (g *Grid) FirstDay() time.Time { return g.firstDay }

// Days returns the number of days the grid spans.
func (g *Grid) Days() int { return g.days }

// Len returns the number of intervals (48 per day).
func (g *Grid) Len() int { return len(g.ends) }

// Ends returns the interval-end timestamps in chronological order. The
// returned slice is shared; callers must not mutate it.
func (g *Grid) Ends() []time.Time { return g.ends }

// End returns the end timestamp of interval i.
func (g *Grid) End(i int) time.Time { return g.ends[i] }

// Lower returns the inclusive lower bound of the valid range: the start of
// the first interval, 30 minutes before its end.
func (g *Grid) Lower() time.Time { return g.ends[0].Add(-Step) }

// Upper returns the inclusive upper bound: the last interval end.
func (g *Grid) Upper() time.Time { return g.ends[len(g.ends)-1] }

// Validate checks that ts falls within [Lower, Upper], inclusive on both
// ends. Timestamps that do not land exactly on a boundary are also
// rejected: every stored reading must belong to exactly one grid slot.
func (g *Grid) Validate(ts time.Time) error {
	lower, upper := g.Lower(), g.Upper()
	if ts.Before(lower) || ts.After(upper) {
		return &OutOfRangeError{Timestamp: ts, Lower: lower, Upper: upper}
	}
	if ts.Sub(lower)%Step != 0 {
		return &OutOfRangeError{Timestamp: ts, Lower: lower, Upper: upper}
	}
	return nil
}

// Slot maps a validated timestamp to its arena index: 0 for the inclusive
// lower bound, 1..Len for the interval ends. The caller must Validate
// first; Slot does no range checking of its own.
func (g *Grid) Slot(ts time.Time) int {
	return int(ts.Sub(g.Lower()) / Step)
}
