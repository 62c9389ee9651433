// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StageInfo is the compact, JSON-serializable summary a pipeline stage
// leaves in the audit trail. Full reading maps never appear here; only
// overview strings, samples and aggregate classifications, so the audit
// stays small enough to ship to an operator view.
type StageInfo struct {
	// Overviews maps point id to its quality-code string, one character
	// per interval in chronological order.
	Overviews map[string]string `json:"overviews,omitempty"`

	// ComparisonOverviews records, per point, which side won each
	// interval: upper-case code for remote, lower-case for local, '=' for
	// an equal-quality equal-value no-op, '.' when neither side had data.
	ComparisonOverviews map[string]string `json:"comparison_overviews,omitempty"`

	RecordCount  int          `json:"record_count"`
	Completeness Completeness `json:"completeness,omitempty"`

	Characterisation []CharacterisationRange `json:"characterisation,omitempty"`

	// Display holds fixed-width rows for operator inspection. Debugging
	// aid only; nothing downstream parses it.
	Display []string `json:"display,omitempty"`

	Samples map[string]SampleSet `json:"samples,omitempty"`
}

// StageResult is the immutable outcome of one pipeline stage. Stages never
// mutate a prior stage's result; the orchestrator only appends.
type StageResult struct {
	Stage string     `json:"stage"`
	Info  *StageInfo `json:"info,omitempty"`

	// Discovery is a free-text note explaining an early exit, e.g.
	// "local batch already final, nothing to do".
	Discovery string `json:"discovery,omitempty"`

	// Error is the stage's failure, as a string for serializability.
	Error string `json:"error,omitempty"`
}

// SyncAudit is the full result of one reconciliation run, suitable for
// replay/debugging and for display in an operational view.
type SyncAudit struct {
	SiteID    string      `json:"site_id"`
	Kind      MetricKind  `json:"kind"`
	SessionID uuid.UUID   `json:"session_id"`
	StartDay  time.Time   `json:"start_day"`
	Days      int         `json:"days"`
	DryRun    bool        `json:"dry_run,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	Duration  JSONDuration `json:"duration"`

	// Stages is append-only during a run and preserves completed stages
	// even when a later stage fails.
	Stages []StageResult `json:"stages"`

	// Inserted is the number of superior readings written (or that would
	// have been written in dry-run mode).
	Inserted int `json:"inserted"`

	Success bool `json:"success"`
}

// FailedStage returns the name of the stage that recorded an error, or ""
// for a successful run.
func (a *SyncAudit) FailedStage() string {
	for i := range a.Stages {
		if a.Stages[i].Error != "" {
			return a.Stages[i].Stage
		}
	}
	return ""
}

// JSONDuration serializes a time.Duration as its string form ("1.2s")
// instead of raw nanoseconds.
type JSONDuration time.Duration

// MarshalJSON implements json.Marshaler.
func (d JSONDuration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *JSONDuration) UnmarshalJSON(b []byte) error {
	if len(b) >= 2 && b[0] == '"' {
		parsed, err := time.ParseDuration(string(b[1 : len(b)-1]))
		if err != nil {
			return err
		}
		*d = JSONDuration(parsed)
		return nil
	}
	// Tolerate raw nanosecond numbers from older payloads.
	var ns int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return fmt.Errorf("invalid duration %q", string(b))
		}
		ns = ns*10 + int64(c-'0')
	}
	*d = JSONDuration(ns)
	return nil
}
