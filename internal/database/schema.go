// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package database

import (
	"context"
	"fmt"
)

// schemaStatements create the readings table and its supporting index.
// Timestamps are stored in UTC; the interval grid's fixed-offset instants
// convert losslessly.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS readings (
		site_id      VARCHAR NOT NULL,
		point_id     VARCHAR NOT NULL,
		kind         VARCHAR NOT NULL,
		interval_end TIMESTAMP NOT NULL,
		value        DOUBLE NOT NULL,
		quality      VARCHAR NOT NULL,
		received_at  TIMESTAMP NOT NULL,
		session_id   VARCHAR NOT NULL,
		created_at   TIMESTAMP NOT NULL DEFAULT current_timestamp,
		PRIMARY KEY (site_id, kind, point_id, interval_end)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_readings_site_kind_interval
		ON readings (site_id, kind, interval_end)`,
}

// initSchema applies the schema statements idempotently.
func (db *DB) initSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
