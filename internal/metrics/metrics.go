// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

// Package metrics exposes Prometheus collectors for the reconciliation
// pipeline, the DuckDB store, the remote API client and the admin API.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Reconciliation pipeline metrics

	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_run_duration_seconds",
			Help:    "Duration of full reconciliation runs in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"kind"}, // "usage" or "price"
	)

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_runs_total",
			Help: "Total number of reconciliation runs",
		},
		[]string{"kind", "result"}, // result: "success", "failure"
	)

	SyncNoopRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_noop_runs_total",
			Help: "Runs that terminated early with no work to do",
		},
		[]string{"kind", "reason"}, // reason: "local_final", "remote_empty", "no_superior"
	)

	SyncStageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_stage_errors_total",
			Help: "Errors recorded per pipeline stage",
		},
		[]string{"stage"},
	)

	SyncReadingsLoaded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_readings_loaded_total",
			Help: "Readings loaded into a batch, by source",
		},
		[]string{"source"}, // "local", "remote"
	)

	SyncSuperiorReadings = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_superior_readings_total",
			Help: "Remote readings judged superior to the cached copy",
		},
	)

	SyncReadingsInserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sync_readings_inserted_total",
			Help: "Superior readings persisted to the store",
		},
	)

	// Store metrics

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation"},
	)

	// Remote API client metrics

	RemoteRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "amber_request_duration_seconds",
			Help:    "Duration of remote API requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"endpoint"}, // "usage", "prices"
	)

	RemoteRequestErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "amber_request_errors_total",
			Help: "Remote API requests that failed",
		},
		[]string{"endpoint", "reason"}, // reason: "http", "status", "decode"
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"breaker"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"breaker", "from", "to"},
	)

	// Admin API metrics

	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint"},
	)
)

// RecordSyncRun records the outcome of one reconciliation run.
func RecordSyncRun(kind string, duration time.Duration, err error) {
	SyncRunDuration.WithLabelValues(kind).Observe(duration.Seconds())
	result := "success"
	if err != nil {
		result = "failure"
	}
	SyncRunsTotal.WithLabelValues(kind, result).Inc()
}

// TimeDBQuery observes the duration of a store operation and counts its
// error, if any.
func TimeDBQuery(operation string, start time.Time, err error) {
	DBQueryDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(operation).Inc()
	}
}
