// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

// Package amber holds the wire shapes of the upstream retail API. These
// structs exist only at the fetch-adapter boundary; the adapter converts
// them eagerly into the canonical reading shape and nothing downstream
// ever sees them.
package amber

import "time"

// Record type tags on the prices feed.
const (
	IntervalActual   = "ActualInterval"
	IntervalCurrent  = "CurrentInterval"
	IntervalForecast = "ForecastInterval"
)

// UsageRecord is one half-hour metered usage entry for one channel.
type UsageRecord struct {
	Type string `json:"type"` // always "Usage"

	// Duration is the interval length in minutes; always 30 for the
	// half-hour feeds this service consumes.
	Duration int    `json:"duration"`
	Date     string `json:"date"` // metering date, YYYY-MM-DD

	// NemTime is the interval end in market time (fixed UTC+10).
	NemTime time.Time `json:"nemTime"`

	// ChannelIdentifier is the meter register, e.g. "E1" (import) or
	// "B1" (solar export). It becomes the reading's point id.
	ChannelIdentifier string `json:"channelIdentifier"`
	ChannelType       string `json:"channelType"` // general, controlledLoad, feedIn

	Kwh float64 `json:"kwh"`

	// Quality is the upstream data-quality tag, e.g. "estimated" or
	// "billable".
	Quality string `json:"quality"`
}

// PriceRecord is one half-hour entry of the price/forecast feed.
type PriceRecord struct {
	Type     string `json:"type"` // one of the Interval* constants
	Date     string `json:"date"`
	Duration int    `json:"duration"`

	NemTime time.Time `json:"nemTime"`

	// PerKwh is the retail price in cents per kWh.
	PerKwh float64 `json:"perKwh"`
	// SpotPerKwh is the wholesale spot component in cents per kWh.
	SpotPerKwh float64 `json:"spotPerKwh"`
	// Renewables is the grid renewables share in percent.
	Renewables float64 `json:"renewables"`

	// Estimate marks a current-interval price still subject to revision.
	Estimate bool `json:"estimate"`
}
