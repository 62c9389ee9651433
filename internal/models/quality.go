// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package models

// Quality is the provenance/reliability tier of a single reading.
//
// Tiers form a total order used by the superiority comparison:
// forecast < estimated < actual < billable. A reading fetched from the
// remote API only replaces a cached reading of strictly lower precedence
// (or an equal-precedence reading whose value changed).
type Quality string

// Quality tiers, lowest precedence first.
const (
	QualityForecast  Quality = "forecast"
	QualityEstimated Quality = "estimated"
	QualityActual    Quality = "actual"
	QualityBillable  Quality = "billable"
)

// QualityMissingCode is the sentinel character used in overview strings
// for intervals with no stored reading.
const QualityMissingCode byte = '.'

// Precedence returns the total-order rank of the quality tier.
// Unknown tiers rank 0, below every known tier. This is deliberate:
// upstream occasionally emits tags we do not recognize, and treating them
// as lowest keeps the comparison non-fatal.
func (q Quality) Precedence() int {
	switch q {
	case QualityForecast:
		return 1
	case QualityEstimated:
		return 2
	case QualityActual:
		return 3
	case QualityBillable:
		return 4
	default:
		return 0
	}
}

// Code returns the single-character encoding used in overview and
// comparison strings. Unknown tiers encode as the missing sentinel.
func (q Quality) Code() byte {
	switch q {
	case QualityForecast:
		return 'f'
	case QualityEstimated:
		return 'e'
	case QualityActual:
		return 'a'
	case QualityBillable:
		return 'b'
	default:
		return QualityMissingCode
	}
}

// QualityFromCode decodes a single-character encoding back to its tier.
// The second return is false for the missing sentinel and any unknown code.
func QualityFromCode(c byte) (Quality, bool) {
	switch c {
	case 'f':
		return QualityForecast, true
	case 'e':
		return QualityEstimated, true
	case 'a':
		return QualityActual, true
	case 'b':
		return QualityBillable, true
	default:
		return "", false
	}
}

// TopQuality is the highest-precedence tier. A batch whose every reading
// sits at this tier needs no reconciliation work.
const TopQuality = QualityBillable
