// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andreyyy363/Coffee-Shop/internal/recommend"
)

// Interactions returns all interaction rows for a user.
func (s *Store) Interactions(ctx context.Context, userID int) ([]recommend.Interaction, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT product_id, interaction_type, interaction_count, last_interaction
		FROM interactions
		WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var interactions []recommend.Interaction
	for rows.Next() {
		var in recommend.Interaction
		if err := rows.Scan(&in.ProductID, &in.Type, &in.Count, &in.LastInteraction); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		interactions = append(interactions, in)
	}
	return interactions, rows.Err()
}

// UpsertInteraction creates the (user, product, type) row or bumps its count
// and timestamp.
func (s *Store) UpsertInteraction(ctx context.Context, userID, productID int, interactionType recommend.InteractionType) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	_, err := s.conn.ExecContext(ctx, `
		INSERT INTO interactions (user_id, product_id, interaction_type, interaction_count, last_interaction)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT (user_id, product_id, interaction_type) DO UPDATE SET
			interaction_count = interaction_count + 1,
			last_interaction = EXCLUDED.last_interaction`,
		userID, productID, string(interactionType), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert interaction: %w", err)
	}
	return nil
}

// Catalog returns the active product catalog with attribute sets and rating
// and purchase aggregates attached.
func (s *Store) Catalog(ctx context.Context) ([]recommend.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT
			p.id,
			p.name,
			COALESCE(p.roast_level_id, 0),
			p.base_price,
			COALESCE(pur.purchase_count, 0),
			COALESCE(rev.avg_rating, 0),
			COALESCE(rev.review_count, 0)
		FROM products p
		LEFT JOIN (
			SELECT product_id, SUM(interaction_count) AS purchase_count
			FROM interactions
			WHERE interaction_type = 'purchase'
			GROUP BY product_id
		) pur ON pur.product_id = p.id
		LEFT JOIN (
			SELECT product_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count
			FROM reviews
			WHERE is_approved
			GROUP BY product_id
		) rev ON rev.product_id = p.id
		WHERE p.is_active
		ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var products []recommend.Product
	index := map[int]int{}
	for rows.Next() {
		var p recommend.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.RoastLevelID, &p.BasePrice,
			&p.PurchaseCount, &p.AvgRating, &p.ReviewCount); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.attachAttributes(ctx, products, index, "product_countries", "country_id",
		func(p *recommend.Product, id int) { p.CountryIDs = append(p.CountryIDs, id) }); err != nil {
		return nil, err
	}
	if err := s.attachAttributes(ctx, products, index, "product_bean_types", "bean_type_id",
		func(p *recommend.Product, id int) { p.BeanTypeIDs = append(p.BeanTypeIDs, id) }); err != nil {
		return nil, err
	}

	return products, nil
}

// attachAttributes loads one product attribute join table and appends the
// IDs onto the matching products.
func (s *Store) attachAttributes(ctx context.Context, products []recommend.Product, index map[int]int,
	table, column string, attach func(*recommend.Product, int)) error {

	query := fmt.Sprintf(`SELECT product_id, %s FROM %s ORDER BY product_id, %s`, column, table, column)
	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID, attrID int
		if err := rows.Scan(&productID, &attrID); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		if i, ok := index[productID]; ok {
			attach(&products[i], attrID)
		}
	}
	return rows.Err()
}

// SimilaritiesFor returns similarity rows whose source product is in the
// given set, keyed source -> target -> score.
func (s *Store) SimilaritiesFor(ctx context.Context, productIDs []int) (map[int]map[int]float64, error) {
	if len(productIDs) == 0 {
		return map[int]map[int]float64{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(productIDs)), ",")
	args := make([]any, len(productIDs))
	for i, id := range productIDs {
		args[i] = id
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, fmt.Sprintf(`
		SELECT product_a, product_b, similarity_score
		FROM product_similarity
		WHERE product_a IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("query similarities: %w", err)
	}
	defer rows.Close()

	sims := map[int]map[int]float64{}
	for rows.Next() {
		var a, b int
		var score float64
		if err := rows.Scan(&a, &b, &score); err != nil {
			return nil, fmt.Errorf("scan similarity: %w", err)
		}
		if sims[a] == nil {
			sims[a] = map[int]float64{}
		}
		sims[a][b] = score
	}
	return sims, rows.Err()
}

// SimilarProducts returns the active products most similar to the given
// one, ordered by similarity descending.
func (s *Store) SimilarProducts(ctx context.Context, productID, limit int) ([]recommend.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT p.id, p.name, COALESCE(p.roast_level_id, 0), p.base_price
		FROM product_similarity ps
		JOIN products p ON p.id = ps.product_b
		WHERE ps.product_a = ? AND p.is_active
		ORDER BY ps.similarity_score DESC
		LIMIT ?`, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("query similar products: %w", err)
	}
	defer rows.Close()

	var products []recommend.Product
	for rows.Next() {
		var p recommend.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.RoastLevelID, &p.BasePrice); err != nil {
			return nil, fmt.Errorf("scan similar product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ReplaceSimilarities truncates and rebuilds the similarity table in a
// single transaction, so readers never see a half-written table.
func (s *Store) ReplaceSimilarities(ctx context.Context, sims []recommend.Similarity) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin similarity replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM product_similarity`); err != nil {
		return fmt.Errorf("clear similarities: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO product_similarity (product_a, product_b, similarity_score, updated_at)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare similarity insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, sim := range sims {
		if _, err := stmt.ExecContext(ctx, sim.ProductA, sim.ProductB, sim.Score, now); err != nil {
			return fmt.Errorf("insert similarity (%d,%d): %w", sim.ProductA, sim.ProductB, err)
		}
	}

	return tx.Commit()
}

// LogRecommendations records a shown recommendation list.
func (s *Store) LogRecommendations(ctx context.Context, entries []recommend.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin recommendation log: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recommendation_log (batch_id, user_id, product_id, algorithm, score, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			entry.BatchID, entry.UserID, entry.ProductID, entry.Algorithm, entry.Score, entry.Position); err != nil {
			return fmt.Errorf("insert recommendation log: %w", err)
		}
	}

	return tx.Commit()
}
