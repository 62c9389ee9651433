// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValidWhenSyncDisabled(t *testing.T) {
	cfg := defaultConfig()
	cfg.Sync.Enabled = false
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://api.amber.com.au/v1", cfg.Amber.URL)
	assert.Equal(t, 8485, cfg.Server.Port)
	assert.Equal(t, 2, cfg.Sync.LookbackDays)
	assert.Equal(t, 50, cfg.Sync.AuditHistory)
	assert.Equal(t, "0.0.0.0:8485", cfg.Server.Addr())
}

func TestValidateSyncEnabledRequiresCredentials(t *testing.T) {
	cfg := defaultConfig()
	cfg.Sync.Enabled = true

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amber.token")

	cfg.Amber.Token = "psk_abc"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "site_id")

	cfg.Amber.SiteID = "site-1"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsOutOfRangeValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad url", func(c *Config) { c.Amber.URL = "not a url" }},
		{"zero lookback", func(c *Config) { c.Sync.LookbackDays = 0 }},
		{"excessive lookback", func(c *Config) { c.Sync.LookbackDays = 60 }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"sub-minute sync interval", func(c *Config) { c.Sync.Interval = 5 * time.Second }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			cfg.Sync.Enabled = false
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("SYNC_ENABLED", "false")
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Sync.Enabled)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadIgnoresUnmappedEnvironment(t *testing.T) {
	t.Setenv("SYNC_ENABLED", "false")
	t.Setenv("TOTALLY_UNRELATED_VAR", "junk")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.amber.com.au/v1", cfg.Amber.URL)
}

func TestLoadFromConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
amber:
  token: psk_file
  site_id: site-from-file
sync:
  lookback_days: 7
`), 0o600))
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "psk_file", cfg.Amber.Token)
	assert.Equal(t, "site-from-file", cfg.Amber.SiteID)
	assert.Equal(t, 7, cfg.Sync.LookbackDays)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Minute, cfg.Sync.Interval)
}

func TestEnvBeatsConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
amber:
  token: psk_file
  site_id: site-from-file
`), 0o600))
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("AMBER_SITE_ID", "site-from-env")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "site-from-env", cfg.Amber.SiteID)
	assert.Equal(t, "psk_file", cfg.Amber.Token)
}
