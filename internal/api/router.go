// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP router: health and metrics endpoints stay
// outside the rate limiter, the /ml API carries the full middleware
// stack.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(RequestID)
	r.Use(CORS(h.cfg.Security))

	r.Get("/health", h.handleHealth)
	r.Get("/health/live", h.handleHealthLive)
	r.Get("/health/ready", h.handleHealthReady)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/ml", func(r chi.Router) {
		r.Use(RequestLogger)
		r.Use(PrometheusMetrics)
		r.Use(RateLimit(h.cfg.Security))

		r.Route("/recommendations", func(r chi.Router) {
			r.Post("/user", h.handleUserRecommendations)
			r.Post("/similar", h.handleSimilarProducts)
			r.Get("/trending", h.handleTrending)
			r.Get("/status", h.handleRecommendStatus)
			r.Post("/train", h.handleRecommendTrain)
		})

		r.Route("/segmentation", func(r chi.Router) {
			r.Post("/segment", h.handleSegment)
			r.Get("/segments", h.handleSegmentDefinitions)
		})

		r.Route("/forecasting", func(r chi.Router) {
			r.Post("/demand", h.handleDemandForecast)
			r.Get("/inventory-recommendations", h.handleInventoryRecommendations)
		})

		r.Route("/sentiment", func(r chi.Router) {
			r.Post("/analyze", h.handleSentiment)
		})
	})

	return r
}
