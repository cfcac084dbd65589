// Melodex - Blended Music Track Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/melodex

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/melodex/internal/middleware"
)

// RouterConfig holds routing and middleware settings.
type RouterConfig struct {
	// RateLimit is the per-IP request budget per minute for API endpoints.
	// 0 disables rate limiting.
	RateLimit int
}

// NewRouter configures all HTTP routes using Chi.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		MaxAge:         86400,
	}))

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.RateLimit > 0 {
			r.Use(httprate.LimitByIP(cfg.RateLimit, time.Minute))
		}
		r.Use(middleware.PrometheusMetrics)

		r.Post("/recommendations", h.Recommendations)
		r.Post("/recommendations/online", h.OnlineRecommendations)
		r.Get("/recommendations/load", h.LoadRecommendations)
		r.Post("/events", h.PutEvent)
		r.Get("/events", h.GetEvents)
		r.Get("/stats", h.Stats)
		r.Get("/health", h.Health)
	})

	// Prometheus metrics, outside the rate-limited API group.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
