// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

// Package amber implements the remote fetch adapter: a read-only HTTP
// client for the upstream retail API plus the conversion from its wire
// shapes to canonical point readings.
//
// Requests are idempotent GETs. The client does not retry; a non-success
// response surfaces as an error and the reconciliation pipeline records
// it as a stage failure. Resilience lives in the circuit-breaker wrapper
// and the client-side rate limiter.
package amber

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/wattsonlabs/gridmeter/internal/config"
	"github.com/wattsonlabs/gridmeter/internal/metrics"
	ambermodels "github.com/wattsonlabs/gridmeter/internal/models/amber"
)

// maxErrorBodySize bounds how much of an error response body is read for
// diagnostics, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024

// ClientInterface is the read-only surface the reconciliation pipeline
// consumes. Implemented by Client for production and by mocks in tests.
type ClientInterface interface {
	GetUsage(ctx context.Context, siteID string, start, end time.Time) ([]ambermodels.UsageRecord, error)
	GetPrices(ctx context.Context, siteID string, start, end time.Time) ([]ambermodels.PriceRecord, error)
}

// Client is the upstream retail-API client: bearer token auth, bounded
// timeout, client-side rate limiting. Safe for concurrent use.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
}

// NewClient creates a client from configuration.
func NewClient(cfg *config.AmberConfig) *Client {
	return &Client{
		baseURL: cfg.URL,
		token:   cfg.Token,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
	}
}

// GetUsage fetches metered usage for an inclusive date span, one record
// per channel per half-hour interval.
func (c *Client) GetUsage(ctx context.Context, siteID string, start, end time.Time) ([]ambermodels.UsageRecord, error) {
	var records []ambermodels.UsageRecord
	if err := c.get(ctx, "usage", siteID, start, end, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetPrices fetches the price/forecast feed for an inclusive date span.
func (c *Client) GetPrices(ctx context.Context, siteID string, start, end time.Time) ([]ambermodels.PriceRecord, error) {
	var records []ambermodels.PriceRecord
	if err := c.get(ctx, "prices", siteID, start, end, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// get performs one rate-limited GET against /sites/{siteID}/{endpoint}
// and decodes the JSON array response into result.
func (c *Client) get(ctx context.Context, endpoint, siteID string, start, end time.Time, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter wait: %w", err)
	}

	params := url.Values{}
	params.Set("startDate", start.Format("2006-01-02"))
	params.Set("endDate", end.Format("2006-01-02"))
	reqURL := fmt.Sprintf("%s/sites/%s/%s?%s", c.baseURL, url.PathEscape(siteID), endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", endpoint, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	start2 := time.Now()
	resp, err := c.client.Do(req)
	metrics.RemoteRequestDuration.WithLabelValues(endpoint).Observe(time.Since(start2).Seconds())
	if err != nil {
		metrics.RemoteRequestErrors.WithLabelValues(endpoint, "http").Inc()
		return fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.RemoteRequestErrors.WithLabelValues(endpoint, "status").Inc()
		body := readBodyForError(resp.Body)
		return fmt.Errorf("%s request failed with status %d: %s", endpoint, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		metrics.RemoteRequestErrors.WithLabelValues(endpoint, "decode").Inc()
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// readBodyForError reads at most maxErrorBodySize bytes of a response
// body for error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("... (truncated)")...)
	}
	return body
}
