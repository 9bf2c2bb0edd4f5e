// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package discount implements the personal discount system: RFM (recency,
// frequency, monetary) customer scoring, a configurable power curve mapping
// score to discount percentage, first-purchase and birthday bonuses, and
// promo code validation.
package discount

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreyyy363/Coffee-Shop/internal/config"
	"github.com/andreyyy363/Coffee-Shop/internal/timeseries"
)

// OrderData supplies the order history and promo state the engine needs.
// Implemented by the store; defined here to keep the dependency pointing
// inward.
type OrderData interface {
	// CompletedOrderStats aggregates the user's completed orders.
	CompletedOrderStats(ctx context.Context, userID int) (OrderStats, error)

	// PromoByCode looks a promo code up case-insensitively. Returns
	// ErrPromoNotFound for unknown codes.
	PromoByCode(ctx context.Context, code string) (*PromoCode, error)

	// PromoUserUses counts how many times the user redeemed the promo.
	PromoUserUses(ctx context.Context, promoID, userID int) (int, error)

	// SaveProfile upserts the recomputed RFM profile.
	SaveProfile(ctx context.Context, profile *Profile) error

	// SaveDiscountHistory records applied discount components for an order.
	SaveDiscountHistory(ctx context.Context, entries []HistoryEntry) error
}

// Engine calculates personal discounts. The customer profile is always
// recomputed from the order history before use, never read stale.
type Engine struct {
	cfg    config.DiscountConfig
	data   OrderData
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine creates a discount engine.
func NewEngine(cfg config.DiscountConfig, data OrderData, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		data:   data,
		logger: logger.With().Str("component", "discount").Logger(),
		now:    time.Now,
	}
}

// RecalculateProfile rebuilds the user's RFM profile from the authoritative
// order history and persists it.
func (e *Engine) RecalculateProfile(ctx context.Context, userID int) (*Profile, error) {
	stats, err := e.data.CompletedOrderStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load order stats: %w", err)
	}

	profile := &Profile{
		UserID:         userID,
		TotalOrders:    stats.TotalOrders,
		TotalSpent:     stats.TotalSpent,
		LastOrderDate:  stats.LastOrderDate,
		RecencyScore:   e.recencyScore(stats.LastOrderDate),
		FrequencyScore: e.frequencyScore(stats.TotalOrders),
		MonetaryScore:  e.monetaryScore(stats.TotalSpent),
		UpdatedAt:      e.now(),
	}
	profile.RFMScore = timeseries.Round3(
		e.cfg.WeightRecency*profile.RecencyScore +
			e.cfg.WeightFrequency*profile.FrequencyScore +
			e.cfg.WeightMonetary*profile.MonetaryScore)
	profile.BaseDiscountPercent = e.discountFromRFM(profile.RFMScore)

	if err := e.data.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}

	e.logger.Debug().
		Int("user_id", userID).
		Float64("rfm_score", profile.RFMScore).
		Float64("base_discount", profile.BaseDiscountPercent).
		Msg("Recalculated customer profile")

	return profile, nil
}

// recencyScore decays linearly from 1 to 0 over recency_max_days.
func (e *Engine) recencyScore(lastOrder *time.Time) float64 {
	if lastOrder == nil {
		return 0
	}
	daysSince := int(e.now().Sub(*lastOrder).Hours() / 24)
	if daysSince >= e.cfg.RecencyMaxDays {
		return 0
	}
	return timeseries.Round3(1 - float64(daysSince)/float64(e.cfg.RecencyMaxDays))
}

// frequencyScore grows linearly to 1 at frequency_target orders.
func (e *Engine) frequencyScore(totalOrders int) float64 {
	if e.cfg.FrequencyTarget <= 0 {
		return 0
	}
	return timeseries.Round3(math.Min(1, float64(totalOrders)/float64(e.cfg.FrequencyTarget)))
}

// monetaryScore grows linearly to 1 at monetary_target spend.
func (e *Engine) monetaryScore(totalSpent float64) float64 {
	if e.cfg.MonetaryTarget <= 0 {
		return 0
	}
	return timeseries.Round3(math.Min(1, totalSpent/e.cfg.MonetaryTarget))
}

// discountFromRFM maps the composite score to a discount percentage via the
// power curve base + (max-base)·rfm^exponent.
func (e *Engine) discountFromRFM(rfm float64) float64 {
	discount := e.cfg.BaseDiscountRate +
		(e.cfg.MaxDiscountRate-e.cfg.BaseDiscountRate)*math.Pow(rfm, e.cfg.CurveExponent)
	return timeseries.Round2(discount)
}

// birthdayBonus returns the bonus percent when the user's birthday falls
// within the configured window around now. Feb 29 birthdays are clamped to
// Feb 28 in non-leap years; the prior-year occurrence is also checked so the
// window survives year boundaries.
func (e *Engine) birthdayBonus(birthDate *time.Time) float64 {
	if birthDate == nil {
		return 0
	}

	today := truncateToDay(e.now())
	window := e.cfg.BirthdayDiscountDays

	if within(birthdayInYear(*birthDate, today.Year()), today, window) ||
		within(birthdayInYear(*birthDate, today.Year()-1), today, window) {
		return e.cfg.BirthdayDiscount
	}
	return 0
}

// birthdayInYear places the birth month/day in the given year.
func birthdayInYear(birth time.Time, year int) time.Time {
	day := birth.Day()
	if birth.Month() == time.February && day == 29 && !isLeapYear(year) {
		day = 28
	}
	return time.Date(year, birth.Month(), day, 0, 0, 0, 0, time.UTC)
}

func within(birthday, today time.Time, windowDays int) bool {
	days := int(math.Abs(birthday.Sub(today).Hours() / 24))
	return days <= windowDays
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// ValidatePromo checks a promo code for the user and order total. Expected
// rejections (unknown, inactive, out of window, exhausted, below minimum
// order) come back as (false, reason); the error return is for storage
// failures only.
func (e *Engine) ValidatePromo(ctx context.Context, userID int, code string, orderTotal float64) (bool, string, *PromoCode, error) {
	promo, err := e.data.PromoByCode(ctx, code)
	if errors.Is(err, ErrPromoNotFound) {
		return false, "Invalid promo code", nil, nil
	}
	if err != nil {
		return false, "", nil, fmt.Errorf("look up promo code: %w", err)
	}

	if !promo.IsActive {
		return false, "This promo code is no longer active", nil, nil
	}

	now := e.now()
	if now.Before(promo.ValidFrom) {
		return false, "This promo code is not yet valid", nil, nil
	}
	if now.After(promo.ValidUntil) {
		return false, "This promo code has expired", nil, nil
	}

	if promo.MaxUses > 0 && promo.TimesUsed >= promo.MaxUses {
		return false, "This promo code has reached its usage limit", nil, nil
	}

	userUses, err := e.data.PromoUserUses(ctx, promo.ID, userID)
	if err != nil {
		return false, "", nil, fmt.Errorf("count promo uses: %w", err)
	}
	if userUses >= promo.MaxUsesPerUser {
		return false, "You have already used this promo code", nil, nil
	}

	if orderTotal < promo.MinOrderAmount {
		return false, fmt.Sprintf("Minimum order amount: $%.2f", promo.MinOrderAmount), nil, nil
	}

	return true, "Promo code is valid", promo, nil
}

// CalculateDiscount computes the complete discount for an order.
//
// The RFM discount and the first-purchase bonus are mutually exclusive: the
// bonus applies only to brand-new customers whose RFM discount is exactly
// zero. The birthday bonus stacks on top of either. The combined percentage
// is capped, and the promo deduction is computed on the original order total
// rather than the already-discounted one.
func (e *Engine) CalculateDiscount(ctx context.Context, user User, orderTotal float64, promoCode string) (*Result, error) {
	if !e.cfg.Enabled {
		return &Result{
			IsActive:    false,
			FinalAmount: orderTotal,
			Breakdown:   []BreakdownItem{},
		}, nil
	}

	profile, err := e.RecalculateProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	breakdown := []BreakdownItem{}
	totalPercent := 0.0

	rfmDiscount := profile.BaseDiscountPercent
	if rfmDiscount > 0 {
		breakdown = append(breakdown, BreakdownItem{
			Type:    "rfm",
			Name:    "Personal Discount",
			Percent: rfmDiscount,
			Details: map[string]any{
				"rfm_score":       profile.RFMScore,
				"recency_score":   profile.RecencyScore,
				"frequency_score": profile.FrequencyScore,
				"monetary_score":  profile.MonetaryScore,
				"total_orders":    profile.TotalOrders,
				"total_spent":     profile.TotalSpent,
			},
		})
		totalPercent += rfmDiscount
	}

	if rfmDiscount == 0 && profile.TotalOrders == 0 && e.cfg.FirstPurchaseDiscount > 0 {
		breakdown = append(breakdown, BreakdownItem{
			Type:    "first_purchase",
			Name:    "First Purchase Bonus",
			Percent: e.cfg.FirstPurchaseDiscount,
		})
		totalPercent += e.cfg.FirstPurchaseDiscount
	}

	if bonus := e.birthdayBonus(user.BirthDate); bonus > 0 {
		item := BreakdownItem{
			Type:    "birthday",
			Name:    "Birthday Bonus",
			Percent: bonus,
		}
		if user.BirthDate != nil {
			item.Details = map[string]any{"birth_date": user.BirthDate.Format("2006-01-02")}
		}
		breakdown = append(breakdown, item)
		totalPercent += bonus
	}

	if totalPercent > e.cfg.MaxTotalDiscount {
		totalPercent = e.cfg.MaxTotalDiscount
	}

	totalAmount := timeseries.Round2(orderTotal * totalPercent / 100)

	promoAmount := 0.0
	var promo *PromoCode
	promoMessage := ""
	if promoCode != "" {
		var ok bool
		ok, promoMessage, promo, err = e.ValidatePromo(ctx, user.ID, promoCode, orderTotal)
		if err != nil {
			return nil, err
		}
		if ok {
			if promo.DiscountType == DiscountPercent {
				promoAmount = timeseries.Round2(orderTotal * promo.DiscountValue / 100)
			} else {
				promoAmount = promo.DiscountValue
			}
			breakdown = append(breakdown, BreakdownItem{
				Type:   "promo",
				Name:   "Promo Code: " + promo.Code,
				Amount: promoAmount,
				Details: map[string]any{
					"code":           promo.Code,
					"discount_type":  string(promo.DiscountType),
					"discount_value": promo.DiscountValue,
				},
			})
		}
	}

	totalAmount = timeseries.Round2(totalAmount + promoAmount)
	finalAmount := timeseries.Round2(orderTotal - totalAmount)
	if finalAmount < 0 {
		finalAmount = 0
		totalAmount = orderTotal
	}

	var promoDisplay *PromoDisplay
	if promo != nil && promoAmount > 0 {
		promoDisplay = &PromoDisplay{
			Code:           promo.Code,
			DiscountType:   promo.DiscountType,
			DiscountValue:  promo.DiscountValue,
			DiscountAmount: promoAmount,
		}
	}

	e.logger.Debug().
		Int("user_id", user.ID).
		Float64("order_total", orderTotal).
		Float64("total_percent", totalPercent).
		Float64("final_amount", finalAmount).
		Msg("Calculated discount")

	return &Result{
		IsActive:             true,
		TotalDiscountPercent: totalPercent,
		TotalDiscountAmount:  totalAmount,
		PromoDiscountAmount:  promoAmount,
		FinalAmount:          finalAmount,
		OriginalAmount:       orderTotal,
		Breakdown:            breakdown,
		PromoDisplay:         promoDisplay,
		RFMScore:             profile.RFMScore,
		PromoCodeValid:       promo != nil,
		PromoMessage:         promoMessage,
	}, nil
}

// SaveDiscountHistory records each breakdown component for a placed order.
// Percentage components get a proportional share of the non-promo amount.
func (e *Engine) SaveDiscountHistory(ctx context.Context, orderID, userID int, result *Result) error {
	if len(result.Breakdown) == 0 {
		return nil
	}

	percentPool := result.TotalDiscountAmount - result.PromoDiscountAmount

	entries := make([]HistoryEntry, 0, len(result.Breakdown))
	for _, item := range result.Breakdown {
		entry := HistoryEntry{
			OrderID:          orderID,
			UserID:           userID,
			DiscountType:     item.Type,
			RFMScoreSnapshot: result.RFMScore,
			Details:          item.Details,
		}
		if item.Type == "promo" {
			entry.DiscountAmount = item.Amount
		} else {
			entry.DiscountPercent = item.Percent
			if result.TotalDiscountPercent > 0 {
				ratio := item.Percent / result.TotalDiscountPercent
				entry.DiscountAmount = timeseries.Round2(percentPool * ratio)
			}
		}
		entries = append(entries, entry)
	}

	if err := e.data.SaveDiscountHistory(ctx, entries); err != nil {
		return fmt.Errorf("save discount history: %w", err)
	}
	return nil
}

// CurvePoints samples the configured discount curve at 101 points for
// visualization.
func (e *Engine) CurvePoints() []CurvePoint {
	points := make([]CurvePoint, 101)
	for i := 0; i <= 100; i++ {
		rfm := float64(i) / 100
		points[i] = CurvePoint{
			RFMScore:        rfm,
			DiscountPercent: e.discountFromRFM(rfm),
		}
	}
	return points
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
