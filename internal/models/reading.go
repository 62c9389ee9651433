// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package models

import (
	"time"

	"github.com/google/uuid"
)

// MetricKind distinguishes the two reading families the store holds.
type MetricKind string

const (
	// MetricUsage is metered energy per channel (kWh per half hour).
	MetricUsage MetricKind = "usage"
	// MetricPrice is the price/forecast feed (spot price, renewables share).
	MetricPrice MetricKind = "price"
)

// PointReading is one measurement of one channel at one half-hour interval.
// It is the single canonical shape every adapter converts into; no code
// outside the adapters sees source-specific row shapes.
type PointReading struct {
	// PointID is the logical channel, e.g. "E1", "B1", "grid.spotPerKwh".
	PointID string `json:"point_id"`

	Kind MetricKind `json:"kind"`

	// Value is the raw measured value. Superiority at equal precedence is
	// decided by exact inequality of this field.
	Value float64 `json:"value"`

	// IntervalEnd must equal one grid boundary; Add validates this.
	IntervalEnd time.Time `json:"interval_end"`

	// ReceivedAt is when the reading arrived in our system.
	ReceivedAt time.Time `json:"received_at"`

	Quality Quality `json:"quality"`

	// SessionID identifies the sync run that originally stored the reading.
	SessionID uuid.UUID `json:"session_id"`
}

// Completeness classifies the aggregate quality state of a batch.
type Completeness string

const (
	// CompletenessNone means the batch holds no readings at all.
	CompletenessNone Completeness = "none"
	// CompletenessMixed means at least one reading sits below the top tier.
	CompletenessMixed Completeness = "mixed"
	// CompletenessFinal means every stored reading is at the top tier;
	// such a batch needs no reconciliation work.
	CompletenessFinal Completeness = "final"
)

// CharacterisationRange is a maximal contiguous time span during which a
// fixed set of points all carried one quality. Ranges for disjoint
// point-sets may overlap in time; ranges for one point never do.
type CharacterisationRange struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Quality Quality   `json:"quality"`
	// PointIDs is sorted; set equality is structural and order-independent.
	PointIDs []string `json:"point_ids"`
	Periods  int      `json:"periods"`
}

// SampleSet carries up to the three earliest readings of one point plus
// the number omitted, so audit payloads stay small.
type SampleSet struct {
	Readings []PointReading `json:"readings"`
	Skipped  int            `json:"skipped"`
}
