// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package api provides HTTP routing using the Chi router.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/andreyyy363/Coffee-Shop/internal/config"
	"github.com/andreyyy363/Coffee-Shop/internal/metrics"
)

// Router wires handlers into the HTTP route tree.
type Router struct {
	cfg     *config.Config
	handler *Handler
}

// NewRouter creates a router for the given handler.
func NewRouter(cfg *config.Config, handler *Handler) *Router {
	return &Router{cfg: cfg, handler: handler}
}

// Setup configures all HTTP routes and the global middleware stack.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(router.cfg.Server.Timeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: router.cfg.Server.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Prometheus exposition is outside the rate limit so scrapes never
	// compete with API traffic.
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(httprate.LimitByIP(router.cfg.Server.RateLimitReqs, router.cfg.Server.RateLimitWindow))
		r.Use(prometheusMetrics)

		r.Get("/health", router.handler.Health)

		r.Get("/forecast", router.handler.SalesForecast)
		r.Get("/forecast/top-products", router.handler.TopProducts)

		r.Get("/inventory/forecast", router.handler.InventoryForecast)
		r.Get("/inventory/forecast/{productID}", router.handler.ProductInventoryForecast)

		r.Post("/discount/calculate", router.handler.CalculateDiscount)
		r.Get("/discount/curve", router.handler.DiscountCurve)
		r.Post("/promo/validate", router.handler.ValidatePromo)

		r.Get("/recommendations", router.handler.Recommendations)
		r.Get("/products/{productID}/similar", router.handler.SimilarProducts)
		r.Post("/interactions", router.handler.RecordInteraction)

		r.Post("/admin/similarities/recompute", router.handler.RecomputeSimilarities)
	})

	return r
}

// prometheusMetrics records request counts, latency and in-flight requests
// for every API endpoint. The route pattern keeps label cardinality bounded.
func prometheusMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metrics.TrackActiveRequest(true)
		defer metrics.TrackActiveRequest(false)

		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		endpoint := chi.RouteContext(r.Context()).RoutePattern()
		if endpoint == "" {
			endpoint = r.URL.Path
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.RecordAPIRequest(r.Method, endpoint,
			strconv.Itoa(status), time.Since(start))
	})
}
