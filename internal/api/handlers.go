// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/andreyyy363/Coffee-Shop/internal/config"
	"github.com/andreyyy363/Coffee-Shop/internal/discount"
	"github.com/andreyyy363/Coffee-Shop/internal/forecast"
	"github.com/andreyyy363/Coffee-Shop/internal/inventory"
	"github.com/andreyyy363/Coffee-Shop/internal/metrics"
	"github.com/andreyyy363/Coffee-Shop/internal/recommend"
)

// Forecaster produces sales forecasts and product rankings.
type Forecaster interface {
	GenerateForecast(ctx context.Context, metric forecast.Metric, daysBack, forecastDays int) (*forecast.Report, error)
	TopProducts(ctx context.Context, daysBack, limit int) ([]forecast.ProductSales, error)
}

// InventoryPlanner produces inventory recommendations.
type InventoryPlanner interface {
	GenerateInventoryForecast(ctx context.Context, daysBack, forecastDays, leadTime, serviceLevel int) (*inventory.Report, error)
	SingleProductForecast(ctx context.Context, productID, daysBack, forecastDays, leadTime, serviceLevel int) (*inventory.ProductAnalysis, error)
}

// Discounter calculates personal discounts and validates promo codes.
type Discounter interface {
	CalculateDiscount(ctx context.Context, user discount.User, orderTotal float64, promoCode string) (*discount.Result, error)
	ValidatePromo(ctx context.Context, userID int, code string, orderTotal float64) (bool, string, *discount.PromoCode, error)
	CurvePoints() []discount.CurvePoint
}

// Recommender serves product recommendations and records interactions.
type Recommender interface {
	Recommendations(ctx context.Context, userID, limit int, exclude map[int]struct{}) ([]recommend.Recommendation, error)
	SimilarProducts(ctx context.Context, productID, limit int) ([]recommend.Product, error)
	RecordInteraction(ctx context.Context, userID, productID int, interactionType recommend.InteractionType) error
	ComputeProductSimilarities(ctx context.Context) (int, error)
}

// UserSource resolves the discount-relevant view of a user.
type UserSource interface {
	UserByID(ctx context.Context, userID int) (discount.User, error)
}

// Pinger reports storage liveness for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the service dependencies for all API endpoints.
type Handler struct {
	cfg         *config.Config
	forecasts   Forecaster
	planner     InventoryPlanner
	discounts   Discounter
	recommender Recommender
	users       UserSource
	db          Pinger
	logger      zerolog.Logger
	startTime   time.Time
}

// NewHandler creates the API handler.
func NewHandler(cfg *config.Config, forecasts Forecaster, planner InventoryPlanner,
	discounts Discounter, recommender Recommender, users UserSource, db Pinger,
	logger zerolog.Logger) *Handler {

	return &Handler{
		cfg:         cfg,
		forecasts:   forecasts,
		planner:     planner,
		discounts:   discounts,
		recommender: recommender,
		users:       users,
		db:          db,
		logger:      logger.With().Str("component", "api").Logger(),
		startTime:   time.Now(),
	}
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	status := "healthy"
	dbStatus := "up"
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		dbStatus = "down"
		h.logger.Error().Err(err).Msg("Health check database ping failed")
	}

	payload := map[string]interface{}{
		"status":         status,
		"database":       dbStatus,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	}
	if status != "healthy" {
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Database unreachable", payload)
		return
	}
	rw.Success(payload)
}

// SalesForecast handles GET /api/v1/forecast.
func (h *Handler) SalesForecast(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := ForecastRequest{
		Metric:       r.URL.Query().Get("metric"),
		DaysBack:     getIntParam(r, "days_back", h.cfg.Forecast.DefaultDaysBack),
		ForecastDays: getIntParam(r, "forecast_days", h.cfg.Forecast.DefaultForecastDays),
	}
	if req.Metric == "" {
		req.Metric = string(forecast.MetricRevenue)
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	start := time.Now()
	report, err := h.forecasts.GenerateForecast(r.Context(), forecast.Metric(req.Metric), req.DaysBack, req.ForecastDays)
	if err != nil {
		h.logger.Error().Err(err).Str("metric", req.Metric).Msg("Forecast generation failed")
		rw.InternalError("Failed to generate forecast")
		return
	}

	method := "no_data"
	if len(report.HWForecast) > 0 {
		method = "holt_winters"
	}
	metrics.RecordForecast(req.Metric, method, time.Since(start))
	rw.Success(report)
}

// TopProducts handles GET /api/v1/forecast/top-products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := TopProductsRequest{
		DaysBack: getIntParam(r, "days_back", 30),
		Limit:    getIntParam(r, "limit", 10),
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	ranking, err := h.forecasts.TopProducts(r.Context(), req.DaysBack, req.Limit)
	if err != nil {
		h.logger.Error().Err(err).Msg("Top products query failed")
		rw.InternalError("Failed to rank products")
		return
	}
	rw.Success(map[string]interface{}{
		"products":  ranking,
		"days_back": req.DaysBack,
	})
}

// InventoryForecast handles GET /api/v1/inventory/forecast.
func (h *Handler) InventoryForecast(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := h.inventoryRequest(r)
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	report, err := h.planner.GenerateInventoryForecast(r.Context(),
		req.DaysBack, req.ForecastDays, req.LeadTime, req.ServiceLevel)
	if err != nil {
		h.logger.Error().Err(err).Msg("Inventory forecast failed")
		rw.InternalError("Failed to generate inventory forecast")
		return
	}

	metrics.RecordInventoryPlan(len(report.Products))
	rw.Success(report)
}

// ProductInventoryForecast handles GET /api/v1/inventory/forecast/{productID}.
func (h *Handler) ProductInventoryForecast(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil || productID < 1 {
		rw.BadRequest("Invalid product ID")
		return
	}

	req := h.inventoryRequest(r)
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	analysis, err := h.planner.SingleProductForecast(r.Context(), productID,
		req.DaysBack, req.ForecastDays, req.LeadTime, req.ServiceLevel)
	if errors.Is(err, inventory.ErrNoData) {
		rw.NotFound("No sales history for product")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Int("product_id", productID).Msg("Product inventory forecast failed")
		rw.InternalError("Failed to generate product forecast")
		return
	}
	rw.Success(analysis)
}

func (h *Handler) inventoryRequest(r *http.Request) InventoryForecastRequest {
	return InventoryForecastRequest{
		DaysBack:     getIntParam(r, "days_back", h.cfg.Forecast.DefaultDaysBack),
		ForecastDays: getIntParam(r, "forecast_days", h.cfg.Forecast.DefaultForecastDays),
		LeadTime:     getIntParam(r, "lead_time", h.cfg.Inventory.LeadTimeDays),
		ServiceLevel: getIntParam(r, "service_level", h.cfg.Inventory.ServiceLevel),
	}
}

// CalculateDiscount handles POST /api/v1/discount/calculate.
func (h *Handler) CalculateDiscount(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CalculateDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	user, err := h.users.UserByID(r.Context(), req.UserID)
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", req.UserID).Msg("User lookup failed")
		rw.InternalError("Failed to load user")
		return
	}

	result, err := h.discounts.CalculateDiscount(r.Context(), user, req.OrderTotal, req.PromoCode)
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", req.UserID).Msg("Discount calculation failed")
		rw.InternalError("Failed to calculate discount")
		return
	}

	metrics.RecordDiscountCalculation(result.TotalDiscountPercent)
	rw.Success(result)
}

// ValidatePromo handles POST /api/v1/promo/validate.
func (h *Handler) ValidatePromo(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ValidatePromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	ok, reason, promo, err := h.discounts.ValidatePromo(r.Context(), req.UserID, req.Code, req.OrderTotal)
	if err != nil {
		h.logger.Error().Err(err).Str("code", req.Code).Msg("Promo validation failed")
		rw.InternalError("Failed to validate promo code")
		return
	}

	metrics.RecordPromoValidation(ok)
	payload := map[string]interface{}{
		"valid":   ok,
		"message": reason,
	}
	if ok && promo != nil {
		payload["promo"] = promo
	}
	rw.Success(payload)
}

// DiscountCurve handles GET /api/v1/discount/curve.
func (h *Handler) DiscountCurve(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	rw.Success(map[string]interface{}{
		"points": h.discounts.CurvePoints(),
	})
}

// Recommendations handles GET /api/v1/recommendations.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := RecommendationsRequest{
		UserID: getIntParam(r, "user_id", 0),
		Limit:  getIntParam(r, "limit", h.cfg.Recommend.DefaultLimit),
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	exclude := map[int]struct{}{}
	for _, id := range getIntList(r, "exclude") {
		exclude[id] = struct{}{}
	}

	start := time.Now()
	recs, err := h.recommender.Recommendations(r.Context(), req.UserID, req.Limit, exclude)
	if err != nil {
		h.logger.Error().Err(err).Int("user_id", req.UserID).Msg("Recommendations failed")
		rw.InternalError("Failed to build recommendations")
		return
	}

	algorithm := "none"
	if len(recs) > 0 {
		algorithm = recs[0].Algorithm
	}
	metrics.RecordRecommendations(algorithm, time.Since(start))
	rw.Success(map[string]interface{}{
		"recommendations": recs,
		"algorithm":       algorithm,
	})
}

// SimilarProducts handles GET /api/v1/products/{productID}/similar.
func (h *Handler) SimilarProducts(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	productID, err := strconv.Atoi(chi.URLParam(r, "productID"))
	if err != nil {
		rw.BadRequest("Invalid product ID")
		return
	}

	req := SimilarProductsRequest{
		ProductID: productID,
		Limit:     getIntParam(r, "limit", 4),
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	products, err := h.recommender.SimilarProducts(r.Context(), req.ProductID, req.Limit)
	if err != nil {
		h.logger.Error().Err(err).Int("product_id", req.ProductID).Msg("Similar products query failed")
		rw.InternalError("Failed to load similar products")
		return
	}
	rw.Success(map[string]interface{}{
		"product_id": req.ProductID,
		"similar":    products,
	})
}

// RecordInteraction handles POST /api/v1/interactions.
func (h *Handler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecordInteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rw.BadRequest("Invalid JSON body")
		return
	}
	if err := validateRequest(&req); err != nil {
		rw.Error(http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	err := h.recommender.RecordInteraction(r.Context(), req.UserID, req.ProductID,
		recommend.InteractionType(req.Type))
	if err != nil {
		h.logger.Error().Err(err).
			Int("user_id", req.UserID).
			Int("product_id", req.ProductID).
			Str("type", req.Type).
			Msg("Interaction recording failed")
		rw.InternalError("Failed to record interaction")
		return
	}

	metrics.RecordInteraction(req.Type)
	rw.Success(map[string]interface{}{
		"recorded": true,
	})
}

// RecomputeSimilarities handles POST /api/v1/admin/similarities/recompute.
// The rebuild runs synchronously; the periodic job uses the same code path.
func (h *Handler) RecomputeSimilarities(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	start := time.Now()
	rows, err := h.recommender.ComputeProductSimilarities(r.Context())
	metrics.RecordSimilarityRebuild(time.Since(start), rows, err)
	if err != nil {
		h.logger.Error().Err(err).Msg("Similarity recompute failed")
		rw.InternalError("Failed to recompute similarities")
		return
	}

	rw.Success(map[string]interface{}{
		"pairs_written": rows,
		"took_ms":       time.Since(start).Milliseconds(),
	})
}
