// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

/*
schema.go - Database Schema Management

Tables:
  - users: customer identities with an optional birth date
  - products + product_countries/product_bean_types: catalog with attribute sets
  - orders/order_items: order history; order_items snapshots product_name so
    historical reporting survives product deletion
  - reviews: approved product reviews feeding popularity scoring
  - interactions: (user, product, type) rows with counts and timestamps
  - product_similarity: precomputed directed similarity pairs
  - promo_codes/promo_code_usage: promo definitions and per-user redemptions
  - discount_profiles: persisted per-user RFM state
  - discount_history: applied discount components per order
  - recommendation_log: shown recommendations for offline evaluation
*/

//nolint:staticcheck // File documentation, not package doc
package store

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createSchema creates all tables and indexes.
func (s *Store) createSchema() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range append(tableCreationQueries(), indexCreationQueries()...) {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("execute schema query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	return []string{
		`CREATE SEQUENCE IF NOT EXISTS seq_order_items START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_promo_usage START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_discount_history START 1`,
		`CREATE SEQUENCE IF NOT EXISTS seq_recommendation_log START 1`,

		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY,
			email TEXT NOT NULL,
			birth_date DATE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS products (
			id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			roast_level_id INTEGER,
			base_price DOUBLE NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS product_countries (
			product_id INTEGER NOT NULL,
			country_id INTEGER NOT NULL,
			UNIQUE (product_id, country_id)
		)`,

		`CREATE TABLE IF NOT EXISTS product_bean_types (
			product_id INTEGER NOT NULL,
			bean_type_id INTEGER NOT NULL,
			UNIQUE (product_id, bean_type_id)
		)`,

		`CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER NOT NULL,
			status TEXT NOT NULL,
			total DOUBLE NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		// product_name is a denormalized snapshot taken at order time.
		`CREATE TABLE IF NOT EXISTS order_items (
			id INTEGER PRIMARY KEY DEFAULT nextval('seq_order_items'),
			order_id INTEGER NOT NULL,
			product_id INTEGER,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			unit_price DOUBLE NOT NULL,
			total_price DOUBLE NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS reviews (
			product_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			rating INTEGER NOT NULL,
			is_approved BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS interactions (
			user_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			interaction_type TEXT NOT NULL,
			interaction_count INTEGER NOT NULL DEFAULT 1,
			last_interaction TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (user_id, product_id, interaction_type)
		)`,

		`CREATE TABLE IF NOT EXISTS product_similarity (
			product_a INTEGER NOT NULL,
			product_b INTEGER NOT NULL,
			similarity_score DOUBLE NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (product_a, product_b)
		)`,

		`CREATE TABLE IF NOT EXISTS promo_codes (
			id INTEGER PRIMARY KEY,
			code TEXT NOT NULL UNIQUE,
			discount_type TEXT NOT NULL,
			discount_value DOUBLE NOT NULL,
			min_order_amount DOUBLE NOT NULL DEFAULT 0,
			valid_from TIMESTAMP NOT NULL,
			valid_until TIMESTAMP NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			max_uses INTEGER NOT NULL DEFAULT 0,
			max_uses_per_user INTEGER NOT NULL DEFAULT 1,
			times_used INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS promo_code_usage (
			id INTEGER PRIMARY KEY DEFAULT nextval('seq_promo_usage'),
			promo_code_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			order_id INTEGER,
			used_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS discount_profiles (
			user_id INTEGER PRIMARY KEY,
			total_orders INTEGER NOT NULL,
			total_spent DOUBLE NOT NULL,
			last_order_date TIMESTAMP,
			recency_score DOUBLE NOT NULL,
			frequency_score DOUBLE NOT NULL,
			monetary_score DOUBLE NOT NULL,
			rfm_score DOUBLE NOT NULL,
			base_discount_percent DOUBLE NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS discount_history (
			id INTEGER PRIMARY KEY DEFAULT nextval('seq_discount_history'),
			order_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			discount_type TEXT NOT NULL,
			discount_percent DOUBLE NOT NULL,
			discount_amount DOUBLE NOT NULL,
			rfm_score_snapshot DOUBLE NOT NULL,
			details JSON,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS recommendation_log (
			id INTEGER PRIMARY KEY DEFAULT nextval('seq_recommendation_log'),
			batch_id TEXT NOT NULL,
			user_id INTEGER NOT NULL,
			product_id INTEGER NOT NULL,
			algorithm TEXT NOT NULL,
			score DOUBLE NOT NULL,
			position INTEGER NOT NULL,
			was_clicked BOOLEAN NOT NULL DEFAULT FALSE,
			was_purchased BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
	}
}

func indexCreationQueries() []string {
	return []string{
		`CREATE INDEX IF NOT EXISTS idx_orders_user_status ON orders (user_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_created ON orders (created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items (order_id)`,
		`CREATE INDEX IF NOT EXISTS idx_order_items_product ON order_items (product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_user ON interactions (user_id, interaction_type)`,
		`CREATE INDEX IF NOT EXISTS idx_interactions_product ON interactions (product_id, interaction_type)`,
		`CREATE INDEX IF NOT EXISTS idx_similarity_a ON product_similarity (product_a, similarity_score)`,
		`CREATE INDEX IF NOT EXISTS idx_promo_usage ON promo_code_usage (promo_code_id, user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rec_log_user ON recommendation_log (user_id, created_at)`,
	}
}
