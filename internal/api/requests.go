// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package api provides HTTP request validation structs with
// go-playground/validator tags. Requests are validated before any service
// call; the services themselves trust their inputs.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ForecastRequest represents the validated query parameters for /forecast.
type ForecastRequest struct {
	Metric       string `validate:"oneof=revenue orders"`
	DaysBack     int    `validate:"min=7,max=3650"`
	ForecastDays int    `validate:"min=1,max=365"`
}

// TopProductsRequest represents the validated query parameters for
// /forecast/top-products.
type TopProductsRequest struct {
	DaysBack int `validate:"min=1,max=3650"`
	Limit    int `validate:"min=1,max=100"`
}

// InventoryForecastRequest represents the validated query parameters for
// the inventory planning endpoints.
type InventoryForecastRequest struct {
	DaysBack     int `validate:"min=7,max=3650"`
	ForecastDays int `validate:"min=1,max=365"`
	LeadTime     int `validate:"min=1,max=365"`
	ServiceLevel int `validate:"oneof=90 95 97 99"`
}

// CalculateDiscountRequest represents the request body for
// /discount/calculate.
type CalculateDiscountRequest struct {
	UserID     int     `json:"user_id" validate:"required,min=1"`
	OrderTotal float64 `json:"order_total" validate:"required,gt=0"`
	PromoCode  string  `json:"promo_code" validate:"omitempty,max=64"`
}

// ValidatePromoRequest represents the request body for /promo/validate.
type ValidatePromoRequest struct {
	UserID     int     `json:"user_id" validate:"required,min=1"`
	Code       string  `json:"code" validate:"required,max=64"`
	OrderTotal float64 `json:"order_total" validate:"min=0"`
}

// RecommendationsRequest represents the validated query parameters for
// /recommendations.
type RecommendationsRequest struct {
	UserID int `validate:"required,min=1"`
	Limit  int `validate:"min=1,max=50"`
}

// SimilarProductsRequest represents the validated parameters for
// /products/{productID}/similar.
type SimilarProductsRequest struct {
	ProductID int `validate:"required,min=1"`
	Limit     int `validate:"min=1,max=50"`
}

// RecordInteractionRequest represents the request body for /interactions.
type RecordInteractionRequest struct {
	UserID    int    `json:"user_id" validate:"required,min=1"`
	ProductID int    `json:"product_id" validate:"required,min=1"`
	Type      string `json:"type" validate:"required,oneof=view cart purchase favorite review"`
}

// validateRequest runs struct validation and flattens the result into a
// single message suitable for a 400 response.
func validateRequest(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

// getIntParam extracts an integer query parameter with a default value
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getIntList parses a comma-separated integer query parameter, skipping
// malformed entries.
func getIntList(r *http.Request, key string) []int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil
	}

	var ids []int
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
