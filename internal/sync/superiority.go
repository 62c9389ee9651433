// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package sync

import "github.com/wattsonlabs/gridmeter/internal/models"

// Comparison overview characters for slots where no quality code applies.
const (
	compareNeither byte = '.'
	compareEqual   byte = '='
)

// compareReadings applies the superiority rule to one (interval, point)
// slot and returns whether the remote reading should overwrite the local
// one, plus the comparison-overview character for the slot:
//
//   - upper-case quality code: remote won
//   - lower-case quality code: local won
//   - '=': equal quality and equal value, a no-op (neither side wins)
//   - '.': neither side had a reading
//
// The rule, exactly: an absent local loses to any present remote; an
// absent remote loses to any present local; otherwise higher quality
// precedence wins outright; at equal precedence the remote wins only if
// its raw value differs, so re-fetching unchanged data never causes a
// rewrite.
func compareReadings(local, remote models.PointReading, localOK, remoteOK bool) (remoteSuperior bool, overview byte) {
	switch {
	case !localOK && !remoteOK:
		return false, compareNeither
	case !localOK:
		return true, upper(remote.Quality.Code())
	case !remoteOK:
		return false, lower(local.Quality.Code())
	}

	lp, rp := local.Quality.Precedence(), remote.Quality.Precedence()
	switch {
	case rp > lp:
		return true, upper(remote.Quality.Code())
	case rp < lp:
		return false, lower(local.Quality.Code())
	case remote.Value != local.Value:
		return true, upper(remote.Quality.Code())
	default:
		return false, compareEqual
	}
}

// upper maps a quality code to its upper-case form. The missing sentinel
// has no case and passes through.
func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// lower maps a quality code to its lower-case form.
func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c - 'A' + 'a'
	}
	return c
}
