// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package batch

import (
	"fmt"
	"strings"
)

// CanonicalDisplay renders the batch as fixed-width monospace rows for
// operator inspection: interval end time-of-day, the values of up to two
// representative points (the first two registered), and the quality codes
// of every point at that interval. A debugging aid only; nothing
// downstream parses these rows.
func (b *Batch) CanonicalDisplay() []string {
	points := b.reg.IDs()

	// Representative value columns: the first two points seen.
	repr := points
	if len(repr) > 2 {
		repr = repr[:2]
	}

	header := "time "
	for _, id := range repr {
		header += fmt.Sprintf(" %12s", truncateID(id, 12))
	}
	header += "  quality"

	rows := make([]string, 0, b.grid.Len()+1)
	rows = append(rows, header)

	for i := 0; i < b.grid.Len(); i++ {
		var sb strings.Builder
		sb.WriteString(b.grid.End(i).Format("15:04"))

		for _, id := range repr {
			idx, _ := b.reg.Lookup(id)
			if r, ok := b.at(i, idx); ok {
				sb.WriteString(fmt.Sprintf(" %12.4f", r.Value))
			} else {
				sb.WriteString(fmt.Sprintf(" %12s", "-"))
			}
		}

		sb.WriteString("  ")
		for idx := 0; idx < b.reg.Len(); idx++ {
			if r, ok := b.at(i, idx); ok {
				sb.WriteByte(r.Quality.Code())
			} else {
				sb.WriteByte('.')
			}
		}
		rows = append(rows, sb.String())
	}
	return rows
}

// truncateID shortens long point identifiers so value columns stay aligned.
func truncateID(id string, width int) string {
	if len(id) <= width {
		return id
	}
	return id[:width-1] + "~"
}
