// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/andreyyy363/Coffee-Shop/internal/discount"
)

// CompletedOrderStats aggregates the user's completed orders for RFM
// scoring.
func (s *Store) CompletedOrderStats(ctx context.Context, userID int) (discount.OrderStats, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var stats discount.OrderStats
	var lastOrder sql.NullTime
	err := s.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total), 0), MAX(created_at)
		FROM orders
		WHERE user_id = ? AND status = 'completed'`, userID).
		Scan(&stats.TotalOrders, &stats.TotalSpent, &lastOrder)
	if err != nil {
		return discount.OrderStats{}, fmt.Errorf("query order stats: %w", err)
	}
	if lastOrder.Valid {
		t := lastOrder.Time
		stats.LastOrderDate = &t
	}
	return stats, nil
}

// PromoByCode looks up a promo code case-insensitively.
func (s *Store) PromoByCode(ctx context.Context, code string) (*discount.PromoCode, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p discount.PromoCode
	err := s.conn.QueryRowContext(ctx, `
		SELECT id, code, discount_type, discount_value, min_order_amount,
		       valid_from, valid_until, is_active, max_uses, max_uses_per_user, times_used
		FROM promo_codes
		WHERE lower(code) = lower(?)`, code).
		Scan(&p.ID, &p.Code, &p.DiscountType, &p.DiscountValue, &p.MinOrderAmount,
			&p.ValidFrom, &p.ValidUntil, &p.IsActive, &p.MaxUses, &p.MaxUsesPerUser, &p.TimesUsed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, discount.ErrPromoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query promo code: %w", err)
	}
	return &p, nil
}

// PromoUserUses counts the user's redemptions of a promo code.
func (s *Store) PromoUserUses(ctx context.Context, promoID, userID int) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var uses int
	err := s.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM promo_code_usage
		WHERE promo_code_id = ? AND user_id = ?`, promoID, userID).Scan(&uses)
	if err != nil {
		return 0, fmt.Errorf("query promo uses: %w", err)
	}
	return uses, nil
}

// RecordPromoUse records a redemption and bumps the global counter in one
// transaction.
func (s *Store) RecordPromoUse(ctx context.Context, promoID, userID, orderID int) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin promo use: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO promo_code_usage (promo_code_id, user_id, order_id, used_at)
		VALUES (?, ?, ?, ?)`, promoID, userID, orderID, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert promo usage: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE promo_codes SET times_used = times_used + 1 WHERE id = ?`, promoID); err != nil {
		return fmt.Errorf("increment promo counter: %w", err)
	}

	return tx.Commit()
}

// SaveProfile upserts the recomputed RFM profile for a user.
func (s *Store) SaveProfile(ctx context.Context, profile *discount.Profile) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var lastOrder any
	if profile.LastOrderDate != nil {
		lastOrder = *profile.LastOrderDate
	}

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO discount_profiles (
			user_id, total_orders, total_spent, last_order_date,
			recency_score, frequency_score, monetary_score, rfm_score,
			base_discount_percent, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			total_orders = EXCLUDED.total_orders,
			total_spent = EXCLUDED.total_spent,
			last_order_date = EXCLUDED.last_order_date,
			recency_score = EXCLUDED.recency_score,
			frequency_score = EXCLUDED.frequency_score,
			monetary_score = EXCLUDED.monetary_score,
			rfm_score = EXCLUDED.rfm_score,
			base_discount_percent = EXCLUDED.base_discount_percent,
			updated_at = EXCLUDED.updated_at`,
		profile.UserID, profile.TotalOrders, profile.TotalSpent, lastOrder,
		profile.RecencyScore, profile.FrequencyScore, profile.MonetaryScore,
		profile.RFMScore, profile.BaseDiscountPercent, profile.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert discount profile: %w", err)
	}
	return nil
}

// DiscountProfile reads the stored RFM profile for a user.
func (s *Store) DiscountProfile(ctx context.Context, userID int) (*discount.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var p discount.Profile
	var lastOrder sql.NullTime
	err := s.conn.QueryRowContext(ctx, `
		SELECT user_id, total_orders, total_spent, last_order_date,
		       recency_score, frequency_score, monetary_score, rfm_score,
		       base_discount_percent, updated_at
		FROM discount_profiles
		WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.TotalOrders, &p.TotalSpent, &lastOrder,
			&p.RecencyScore, &p.FrequencyScore, &p.MonetaryScore, &p.RFMScore,
			&p.BaseDiscountPercent, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query discount profile: %w", err)
	}
	if lastOrder.Valid {
		t := lastOrder.Time
		p.LastOrderDate = &t
	}
	return &p, nil
}

// SaveDiscountHistory records applied discount components for an order.
func (s *Store) SaveDiscountHistory(ctx context.Context, entries []discount.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin discount history: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, entry := range entries {
		var details any
		if entry.Details != nil {
			encoded, err := json.Marshal(entry.Details)
			if err != nil {
				return fmt.Errorf("encode discount details: %w", err)
			}
			details = string(encoded)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO discount_history (
				order_id, user_id, discount_type, discount_percent,
				discount_amount, rfm_score_snapshot, details
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			entry.OrderID, entry.UserID, entry.DiscountType, entry.DiscountPercent,
			entry.DiscountAmount, entry.RFMScoreSnapshot, details); err != nil {
			return fmt.Errorf("insert discount history: %w", err)
		}
	}

	return tx.Commit()
}

// UserByID loads the discount-relevant view of a user.
func (s *Store) UserByID(ctx context.Context, userID int) (discount.User, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var user discount.User
	var birthDate sql.NullTime
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, birth_date FROM users WHERE id = ?`, userID).
		Scan(&user.ID, &birthDate)
	if errors.Is(err, sql.ErrNoRows) {
		// Unknown users still get a discount calculation; they simply have
		// no order history and no birthday.
		return discount.User{ID: userID}, nil
	}
	if err != nil {
		return discount.User{}, fmt.Errorf("query user: %w", err)
	}
	if birthDate.Valid {
		t := birthDate.Time
		user.BirthDate = &t
	}
	return user, nil
}
