// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package amber

import (
	"context"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/wattsonlabs/gridmeter/internal/config"
	"github.com/wattsonlabs/gridmeter/internal/logging"
	"github.com/wattsonlabs/gridmeter/internal/metrics"
	ambermodels "github.com/wattsonlabs/gridmeter/internal/models/amber"
)

// CircuitBreakerClient wraps Client with a circuit breaker so a dead or
// degraded upstream API fails fast instead of stalling every scheduled
// run on timeouts.
//
// The breaker uses real time for its interval and timeout calculations;
// tests should exercise the wrapped client directly rather than try to
// control the breaker clock.
type CircuitBreakerClient struct {
	client ClientInterface
	cb     *gobreaker.CircuitBreaker[interface{}]
	name   string
}

// NewCircuitBreakerClient creates a breaker-protected client. The circuit
// opens after a 60% failure rate over at least 10 requests, stays open
// for 2 minutes, and allows 3 trial requests in half-open state.
func NewCircuitBreakerClient(cfg *config.AmberConfig) *CircuitBreakerClient {
	return WrapWithCircuitBreaker(NewClient(cfg))
}

// WrapWithCircuitBreaker wraps an arbitrary ClientInterface. Split out of
// NewCircuitBreakerClient so tests can protect a mock.
func WrapWithCircuitBreaker(client ClientInterface) *CircuitBreakerClient {
	cbName := "amber-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr, toStr := stateToString(from), stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &CircuitBreakerClient{client: client, cb: cb, name: cbName}
}

// GetUsage implements ClientInterface with breaker protection.
func (c *CircuitBreakerClient) GetUsage(ctx context.Context, siteID string, start, end time.Time) ([]ambermodels.UsageRecord, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.GetUsage(ctx, siteID, start, end)
	})
	if err != nil {
		return nil, err
	}
	return result.([]ambermodels.UsageRecord), nil
}

// GetPrices implements ClientInterface with breaker protection.
func (c *CircuitBreakerClient) GetPrices(ctx context.Context, siteID string, start, end time.Time) ([]ambermodels.PriceRecord, error) {
	result, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.GetPrices(ctx, siteID, start, end)
	})
	if err != nil {
		return nil, err
	}
	return result.([]ambermodels.PriceRecord), nil
}

// stateToString converts a gobreaker state to its label value.
func stateToString(s gobreaker.State) string {
	switch s {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// stateToFloat converts a gobreaker state to its gauge value.
func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
