// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package discount

import (
	"errors"
	"time"
)

// ErrPromoNotFound is returned by OrderData.PromoByCode for unknown codes.
var ErrPromoNotFound = errors.New("promo code not found")

// DiscountType distinguishes percentage promos from fixed-amount ones.
type DiscountType string

const (
	DiscountPercent DiscountType = "percent"
	DiscountFixed   DiscountType = "fixed"
)

// PromoCode is a redeemable discount code. Validity is a pure function of
// the current time and the usage counters; nothing is cached on the row.
type PromoCode struct {
	ID             int          `json:"id"`
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	DiscountValue  float64      `json:"discount_value"`
	MinOrderAmount float64      `json:"min_order_amount"`
	ValidFrom      time.Time    `json:"valid_from"`
	ValidUntil     time.Time    `json:"valid_until"`
	IsActive       bool         `json:"is_active"`

	// MaxUses caps total redemptions across all users. 0 means unlimited.
	MaxUses int `json:"max_uses"`

	// MaxUsesPerUser caps redemptions per user.
	MaxUsesPerUser int `json:"max_uses_per_user"`

	// TimesUsed is the global redemption counter.
	TimesUsed int `json:"times_used"`
}

// User is the customer identity seen by the discount engine. BirthDate is an
// explicit optional field; absence simply disables the birthday bonus.
type User struct {
	ID        int
	BirthDate *time.Time
}

// OrderStats is a snapshot of a user's completed order history.
type OrderStats struct {
	TotalOrders   int
	TotalSpent    float64
	LastOrderDate *time.Time
}

// Profile is the persisted RFM state for one customer. It is recomputed from
// the authoritative order history before every discount calculation, so a
// stored row is only ever as stale as the last calculation.
type Profile struct {
	UserID              int        `json:"user_id"`
	TotalOrders         int        `json:"total_orders"`
	TotalSpent          float64    `json:"total_spent"`
	LastOrderDate       *time.Time `json:"last_order_date,omitempty"`
	RecencyScore        float64    `json:"recency_score"`
	FrequencyScore      float64    `json:"frequency_score"`
	MonetaryScore       float64    `json:"monetary_score"`
	RFMScore            float64    `json:"rfm_score"`
	BaseDiscountPercent float64    `json:"base_discount_percent"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// BreakdownItem is one component of an applied discount.
type BreakdownItem struct {
	// Type is one of "rfm", "first_purchase", "birthday" or "promo".
	Type string `json:"type"`

	Name string `json:"name"`

	// Percent is set for percentage components, Amount for promo components.
	Percent float64 `json:"percent,omitempty"`
	Amount  float64 `json:"amount,omitempty"`

	Details map[string]any `json:"details,omitempty"`
}

// PromoDisplay summarizes an applied promo code for presentation.
type PromoDisplay struct {
	Code           string       `json:"code"`
	DiscountType   DiscountType `json:"discount_type"`
	DiscountValue  float64      `json:"discount_value"`
	DiscountAmount float64      `json:"discount_amount"`
}

// Result is the full outcome of a discount calculation.
type Result struct {
	IsActive             bool            `json:"is_active"`
	TotalDiscountPercent float64         `json:"total_discount_percent"`
	TotalDiscountAmount  float64         `json:"total_discount_amount"`
	PromoDiscountAmount  float64         `json:"promo_discount_amount"`
	FinalAmount          float64         `json:"final_amount"`
	OriginalAmount       float64         `json:"original_amount"`
	Breakdown            []BreakdownItem `json:"breakdown"`
	PromoDisplay         *PromoDisplay   `json:"promo_display,omitempty"`
	RFMScore             float64         `json:"rfm_score"`
	PromoCodeValid       bool            `json:"promo_code_valid"`
	PromoMessage         string          `json:"promo_message,omitempty"`
}

// HistoryEntry is one recorded discount component for an order.
type HistoryEntry struct {
	OrderID          int            `json:"order_id"`
	UserID           int            `json:"user_id"`
	DiscountType     string         `json:"discount_type"`
	DiscountPercent  float64        `json:"discount_percent"`
	DiscountAmount   float64        `json:"discount_amount"`
	RFMScoreSnapshot float64        `json:"rfm_score_snapshot"`
	Details          map[string]any `json:"details,omitempty"`
}

// CurvePoint is one sample of the RFM-to-discount mapping, used for
// visualizing the configured curve.
type CurvePoint struct {
	RFMScore        float64 `json:"rfm_score"`
	DiscountPercent float64 `json:"discount_percent"`
}
