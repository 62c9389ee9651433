// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

// Package config loads and validates Gridmeter configuration from layered
// sources: built-in defaults, an optional YAML file, and environment
// variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration structure.
type Config struct {
	Amber    AmberConfig    `koanf:"amber"`
	Database DatabaseConfig `koanf:"database"`
	Sync     SyncConfig     `koanf:"sync"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// AmberConfig configures the remote retail-API client.
type AmberConfig struct {
	// URL is the API base, e.g. https://api.amber.com.au/v1
	URL   string `koanf:"url" validate:"required,url"`
	Token string `koanf:"token"`

	// SiteID selects the electricity site whose readings are synced.
	SiteID string `koanf:"site_id"`

	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RatePerSecond and RateBurst bound outbound request rate so a long
	// backfill cannot trip the upstream API's limits.
	RatePerSecond float64 `koanf:"rate_per_second" validate:"gt=0"`
	RateBurst     int     `koanf:"rate_burst" validate:"gte=1"`
}

// DatabaseConfig configures the embedded DuckDB store.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	// Threads caps DuckDB worker threads; 0 means runtime.NumCPU().
	Threads int `koanf:"threads" validate:"gte=0"`
}

// SyncConfig configures the periodic reconciliation loop.
type SyncConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Interval time.Duration `koanf:"interval" validate:"gte=1m"`

	// LookbackDays is the size of the date range each run reconciles,
	// ending today.
	LookbackDays int `koanf:"lookback_days" validate:"gte=1,lte=31"`

	// DryRun computes superior readings but skips the final write.
	DryRun bool `koanf:"dry_run"`

	// AuditHistory is how many recent run audits are kept in memory for
	// the admin API.
	AuditHistory int `koanf:"audit_history" validate:"gte=1,lte=1000"`
}

// ServerConfig configures the admin HTTP server.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	CORSOrigins []string `koanf:"cors_origins"`

	RateLimitReqs   int           `koanf:"rate_limit_reqs" validate:"gte=1"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks tag constraints plus the cross-field rules the tags
// cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Sync.Enabled {
		if c.Amber.Token == "" {
			return fmt.Errorf("sync is enabled but amber.token is empty")
		}
		if c.Amber.SiteID == "" {
			return fmt.Errorf("sync is enabled but amber.site_id is empty")
		}
	}

	return nil
}

// Addr returns the listen address for the admin server.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
