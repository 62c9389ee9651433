// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package amber

import (
	"time"

	"github.com/google/uuid"

	"github.com/wattsonlabs/gridmeter/internal/models"
	ambermodels "github.com/wattsonlabs/gridmeter/internal/models/amber"
)

// Point identifiers derived from the prices feed. The feed carries one
// record per interval; it fans out into two logical points.
const (
	PointSpotPerKwh = "grid.spotPerKwh"
	PointRenewables = "grid.renewables"
)

// UsageReadings converts usage wire records to canonical readings. The
// channel identifier becomes the point id.
func UsageReadings(records []ambermodels.UsageRecord, sessionID uuid.UUID, receivedAt time.Time) []models.PointReading {
	out := make([]models.PointReading, 0, len(records))
	for i := range records {
		rec := &records[i]
		out = append(out, models.PointReading{
			PointID:     rec.ChannelIdentifier,
			Kind:        models.MetricUsage,
			Value:       rec.Kwh,
			IntervalEnd: rec.NemTime,
			ReceivedAt:  receivedAt,
			Quality:     usageQuality(rec.Quality),
			SessionID:   sessionID,
		})
	}
	return out
}

// PriceReadings converts price wire records to canonical readings, two
// points per interval: the wholesale spot component and the renewables
// share.
func PriceReadings(records []ambermodels.PriceRecord, sessionID uuid.UUID, receivedAt time.Time) []models.PointReading {
	out := make([]models.PointReading, 0, 2*len(records))
	for i := range records {
		rec := &records[i]
		q := priceQuality(rec)
		out = append(out,
			models.PointReading{
				PointID:     PointSpotPerKwh,
				Kind:        models.MetricPrice,
				Value:       rec.SpotPerKwh,
				IntervalEnd: rec.NemTime,
				ReceivedAt:  receivedAt,
				Quality:     q,
				SessionID:   sessionID,
			},
			models.PointReading{
				PointID:     PointRenewables,
				Kind:        models.MetricPrice,
				Value:       rec.Renewables,
				IntervalEnd: rec.NemTime,
				ReceivedAt:  receivedAt,
				Quality:     q,
				SessionID:   sessionID,
			},
		)
	}
	return out
}

// usageQuality maps the upstream usage quality tag to a tier. Unknown
// tags pass through and rank at precedence 0, which keeps them from ever
// overwriting cached data.
func usageQuality(tag string) models.Quality {
	switch tag {
	case "forecast":
		return models.QualityForecast
	case "estimated":
		return models.QualityEstimated
	case "actual":
		return models.QualityActual
	case "billable", "final":
		return models.QualityBillable
	default:
		return models.Quality(tag)
	}
}

// priceQuality derives a tier from the price record's interval type. A
// current interval still flagged as an estimate ranks as estimated even
// though the upstream types it as actual.
func priceQuality(rec *ambermodels.PriceRecord) models.Quality {
	switch rec.Type {
	case ambermodels.IntervalActual:
		return models.QualityActual
	case ambermodels.IntervalCurrent:
		if rec.Estimate {
			return models.QualityEstimated
		}
		return models.QualityActual
	case ambermodels.IntervalForecast:
		return models.QualityForecast
	default:
		return models.Quality(rec.Type)
	}
}
