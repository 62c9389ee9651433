// Gridmeter - Interval Energy Reading Reconciliation
// Copyright 2026 Wattson Labs
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wattsonlabs/gridmeter

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wattsonlabs/gridmeter/internal/config"
)

// NewRouter assembles the admin API routes with the shared middleware
// stack. Health and metrics stay outside the rate limiter so scrapes and
// probes are never shed.
func NewRouter(cfg *config.ServerConfig, handler *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(cfg))

	r.Route("/api/v1", func(r chi.Router) {
		r.With(requestMetrics).Get("/health", handler.Health)

		r.Group(func(r chi.Router) {
			r.Use(rateLimitMiddleware(cfg))
			r.Use(requestMetrics)
			r.Post("/sync", handler.TriggerSync)
			r.Get("/audits", handler.Audits)
		})
	})

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}
