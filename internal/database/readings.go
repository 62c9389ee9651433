// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wattsonlabs/gridmeter/internal/interval"
	"github.com/wattsonlabs/gridmeter/internal/logging"
	"github.com/wattsonlabs/gridmeter/internal/metrics"
	"github.com/wattsonlabs/gridmeter/internal/models"
)

// readingRow is the local-row wire shape. It exists only inside this
// adapter; rows convert eagerly to models.PointReading on the way out.
type readingRow struct {
	pointID     string
	kind        string
	intervalEnd time.Time
	value       float64
	quality     string
	receivedAt  time.Time
	sessionID   string
}

// toReading converts a row to the canonical reading shape.
func (r *readingRow) toReading() (models.PointReading, error) {
	sessionID, err := uuid.Parse(r.sessionID)
	if err != nil {
		return models.PointReading{}, fmt.Errorf("invalid session id %q: %w", r.sessionID, err)
	}
	return models.PointReading{
		PointID:     r.pointID,
		Kind:        models.MetricKind(r.kind),
		Value:       r.value,
		IntervalEnd: r.intervalEnd,
		ReceivedAt:  r.receivedAt,
		Quality:     models.Quality(r.quality),
		SessionID:   sessionID,
	}, nil
}

// LoadReadings returns every cached reading of the given kind for siteID
// whose interval end falls within the grid's inclusive bounds, ordered by
// interval then point.
func (db *DB) LoadReadings(ctx context.Context, siteID string, kind models.MetricKind, grid *interval.Grid) ([]models.PointReading, error) {
	start := time.Now()

	const query = `
		SELECT point_id, kind, interval_end, value, quality, received_at, session_id
		FROM readings
		WHERE site_id = ? AND kind = ? AND interval_end >= ? AND interval_end <= ?
		ORDER BY interval_end, point_id`

	rows, err := db.conn.QueryContext(ctx, query,
		siteID, string(kind), grid.Lower().UTC(), grid.Upper().UTC())
	metrics.TimeDBQuery("load_readings", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.PointReading
	for rows.Next() {
		var row readingRow
		if err := rows.Scan(&row.pointID, &row.kind, &row.intervalEnd,
			&row.value, &row.quality, &row.receivedAt, &row.sessionID); err != nil {
			return nil, fmt.Errorf("failed to scan reading row: %w", err)
		}
		reading, err := row.toReading()
		if err != nil {
			return nil, err
		}
		out = append(out, reading)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading rows iteration failed: %w", err)
	}
	return out, nil
}

// InsertReadings upserts the given readings for siteID, tagged with the
// run's session id, and returns the number written. A reading already
// present for the same (kind, point, interval) is overwritten: callers
// only hand this method readings already judged superior.
func (db *DB) InsertReadings(ctx context.Context, siteID string, sessionID uuid.UUID, readings []models.PointReading) (inserted int, err error) {
	if len(readings) == 0 {
		return 0, nil
	}

	start := time.Now()
	defer func() { metrics.TimeDBQuery("insert_readings", start, err) }()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Failed to roll back insert transaction")
			}
		}
	}()

	const query = `
		INSERT INTO readings
			(site_id, point_id, kind, interval_end, value, quality, received_at, session_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (site_id, kind, point_id, interval_end) DO UPDATE SET
			value = excluded.value,
			quality = excluded.quality,
			received_at = excluded.received_at,
			session_id = excluded.session_id`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range readings {
		r := &readings[i]
		if _, err = stmt.ExecContext(ctx,
			siteID, r.PointID, string(r.Kind), r.IntervalEnd.UTC(),
			r.Value, string(r.Quality), r.ReceivedAt.UTC(), sessionID.String()); err != nil {
			return 0, fmt.Errorf("failed to insert reading (point=%s interval=%s): %w",
				r.PointID, r.IntervalEnd.Format(time.RFC3339), err)
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert transaction: %w", err)
	}
	return inserted, nil
}

// CountReadings returns the number of cached readings for siteID, for
// health and admin reporting.
func (db *DB) CountReadings(ctx context.Context, siteID string) (int, error) {
	start := time.Now()
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT count(*) FROM readings WHERE site_id = ?`, siteID).Scan(&count)
	metrics.TimeDBQuery("count_readings", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return count, nil
}
