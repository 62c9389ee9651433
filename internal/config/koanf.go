// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in priority
// order. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/gridmeter/config.yaml",
	"/etc/gridmeter/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Amber: AmberConfig{
			URL:           "https://api.amber.com.au/v1",
			Token:         "",
			SiteID:        "",
			Timeout:       30 * time.Second,
			RatePerSecond: 2,
			RateBurst:     5,
		},
		Database: DatabaseConfig{
			Path:      "/data/gridmeter.duckdb",
			MaxMemory: "512MB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Sync: SyncConfig{
			Enabled:      true,
			Interval:     30 * time.Minute,
			LookbackDays: 2,
			DryRun:       false,
			AuditHistory: 50,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8485,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load reads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML (if one exists)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// GRIDMETER_AMBER_TOKEN -> amber.token, etc.
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches the env override and then the default paths.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are the config paths parsed as comma-separated slices
// when they arrive via environment variables.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// processSliceFields converts comma-separated strings to slices for the
// known slice fields. Env vars come in as strings; YAML values are
// already slices and are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped variables return "" and are skipped, so arbitrary environment
// noise cannot pollute the config.
func envTransformFunc(key string) string {
	envMappings := map[string]string{
		"AMBER_URL":             "amber.url",
		"AMBER_TOKEN":           "amber.token",
		"AMBER_SITE_ID":         "amber.site_id",
		"AMBER_TIMEOUT":         "amber.timeout",
		"AMBER_RATE_PER_SECOND": "amber.rate_per_second",
		"AMBER_RATE_BURST":      "amber.rate_burst",

		"DUCKDB_PATH":       "database.path",
		"DUCKDB_MAX_MEMORY": "database.max_memory",
		"DUCKDB_THREADS":    "database.threads",

		"SYNC_ENABLED":       "sync.enabled",
		"SYNC_INTERVAL":      "sync.interval",
		"SYNC_LOOKBACK_DAYS": "sync.lookback_days",
		"SYNC_DRY_RUN":       "sync.dry_run",
		"SYNC_AUDIT_HISTORY": "sync.audit_history",

		"HTTP_HOST":         "server.host",
		"HTTP_PORT":         "server.port",
		"HTTP_TIMEOUT":      "server.timeout",
		"CORS_ORIGINS":      "server.cors_origins",
		"RATE_LIMIT_REQS":   "server.rate_limit_reqs",
		"RATE_LIMIT_WINDOW": "server.rate_limit_window",

		"LOG_LEVEL":  "logging.level",
		"LOG_FORMAT": "logging.format",
		"LOG_CALLER": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}
