// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

// Package sync implements the reconciliation orchestrator: a sequential
// pipeline of named stages that loads the locally cached readings batch,
// fetches the remote-authoritative batch, computes the superior subset
// via per-reading comparison, and persists only the superior readings.
//
// Each run is single-threaded; stages execute strictly in order because
// each depends on the previous stage's output. Runs for different sites
// or date ranges are independent and may be parallelized by the caller.
// The Manager adds the periodic scheduling, manual triggering and the
// in-memory audit history on top of the pipeline.
package sync
