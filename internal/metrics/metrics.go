// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for:
// - API endpoint latency and throughput
// - Database query performance (DuckDB)
// - Forecast, discount and recommendation workloads
// - Similarity rebuild job
// - Cache efficiency

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "duckdb_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "duckdb_query_errors_total",
			Help: "Total number of DuckDB query errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// Forecast Metrics
	ForecastsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forecasts_generated_total",
			Help: "Total number of demand forecasts generated",
		},
		[]string{"metric", "method"}, // metric: "revenue"/"orders", method: smoothing variant
	)

	ForecastDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forecast_generation_duration_seconds",
			Help:    "Time spent generating a forecast report",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	InventoryPlansGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "inventory_plans_generated_total",
			Help: "Total number of inventory planning runs",
		},
	)

	InventoryProductsPlanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "inventory_products_per_plan",
			Help:    "Number of products covered by an inventory planning run",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
	)

	// Discount Metrics
	DiscountsCalculated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "discounts_calculated_total",
			Help: "Total number of discount calculations",
		},
	)

	DiscountPercentApplied = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "discount_percent_applied",
			Help:    "Total discount percent applied per calculation",
			Buckets: []float64{0, 2.5, 5, 7.5, 10, 12.5, 15, 20, 25},
		},
	)

	PromoValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "promo_validations_total",
			Help: "Total number of promo code validations",
		},
		[]string{"result"}, // "valid" or "rejected"
	)

	// Recommendation Metrics
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Total number of recommendation lists served",
		},
		[]string{"algorithm"}, // "hybrid" or "popular"
	)

	RecommendationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Time spent assembling a recommendation list",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)

	InteractionsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interactions_recorded_total",
			Help: "Total number of user-product interactions recorded",
		},
		[]string{"interaction_type"},
	)

	// Similarity Rebuild Metrics
	SimilarityRebuildDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "similarity_rebuild_duration_seconds",
			Help:    "Duration of product similarity rebuilds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		},
	)

	SimilarityRebuildRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_rebuild_rows",
			Help: "Number of similarity pairs written by the last rebuild",
		},
	)

	SimilarityRebuildErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "similarity_rebuild_errors_total",
			Help: "Total number of failed similarity rebuilds",
		},
	)

	SimilarityLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "similarity_last_success_timestamp",
			Help: "Unix timestamp of the last successful similarity rebuild",
		},
	)

	// Cache Metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Total number of cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Total number of cache misses",
		},
		[]string{"cache_type"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > 50 {
			errorType = errorType[:50]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordForecast records a generated forecast
func RecordForecast(metric, method string, duration time.Duration) {
	ForecastsGenerated.WithLabelValues(metric, method).Inc()
	ForecastDuration.Observe(duration.Seconds())
}

// RecordInventoryPlan records an inventory planning run
func RecordInventoryPlan(productCount int) {
	InventoryPlansGenerated.Inc()
	InventoryProductsPlanned.Observe(float64(productCount))
}

// RecordDiscountCalculation records one discount calculation
func RecordDiscountCalculation(totalPercent float64) {
	DiscountsCalculated.Inc()
	DiscountPercentApplied.Observe(totalPercent)
}

// RecordPromoValidation records a promo validation outcome
func RecordPromoValidation(valid bool) {
	result := "rejected"
	if valid {
		result = "valid"
	}
	PromoValidations.WithLabelValues(result).Inc()
}

// RecordRecommendations records a served recommendation list
func RecordRecommendations(algorithm string, duration time.Duration) {
	RecommendationsServed.WithLabelValues(algorithm).Inc()
	RecommendationDuration.Observe(duration.Seconds())
}

// RecordInteraction records a stored user-product interaction
func RecordInteraction(interactionType string) {
	InteractionsRecorded.WithLabelValues(interactionType).Inc()
}

// RecordSimilarityRebuild records a similarity rebuild outcome
func RecordSimilarityRebuild(duration time.Duration, rows int, err error) {
	SimilarityRebuildDuration.Observe(duration.Seconds())
	if err != nil {
		SimilarityRebuildErrors.Inc()
		return
	}
	SimilarityRebuildRows.Set(float64(rows))
	SimilarityLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordCacheHit records a cache hit for the given cache type
func RecordCacheHit(cacheType string) {
	CacheHits.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss records a cache miss for the given cache type
func RecordCacheMiss(cacheType string) {
	CacheMisses.WithLabelValues(cacheType).Inc()
}
