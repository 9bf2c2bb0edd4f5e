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

	"github.com/andreyyy363/Coffee-Shop/internal/forecast"
	"github.com/andreyyy363/Coffee-Shop/internal/inventory"
)

// Cancelled orders are excluded from every sales aggregate; rankings count
// only orders that progressed into fulfillment.
const (
	notCancelled   = `status NOT IN ('cancelled_user', 'cancelled_manager')`
	fulfillmentSet = `('processing', 'packing', 'shipping', 'completed')`
)

// DailyAggregate returns the per-day revenue or order count between start
// and end inclusive. Days without orders are absent; the forecast layer
// zero-fills gaps.
func (s *Store) DailyAggregate(ctx context.Context, metric forecast.Metric, start, end time.Time) ([]forecast.DailyPoint, error) {
	agg := "SUM(total)"
	if metric == forecast.MetricOrders {
		agg = "COUNT(*)"
	}

	query := fmt.Sprintf(`
		SELECT CAST(created_at AS DATE) AS day, %s AS value
		FROM orders
		WHERE %s
		  AND CAST(created_at AS DATE) BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day`, agg, notCancelled)

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query daily %s: %w", metric, err)
	}
	defer rows.Close()

	var points []forecast.DailyPoint
	for rows.Next() {
		var p forecast.DailyPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("scan daily %s: %w", metric, err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// TopProducts ranks products by revenue over the trailing window.
func (s *Store) TopProducts(ctx context.Context, daysBack, limit int) ([]forecast.ProductSales, error) {
	query := `
		SELECT
			COALESCE(oi.product_id, 0) AS product_id,
			oi.product_name,
			SUM(oi.quantity) AS total_qty,
			SUM(oi.total_price) AS total_revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.created_at >= ?
		  AND o.status IN ` + fulfillmentSet + `
		GROUP BY product_id, oi.product_name
		ORDER BY total_revenue DESC
		LIMIT ?`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	since := time.Now().UTC().AddDate(0, 0, -daysBack)
	rows, err := s.conn.QueryContext(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query top products: %w", err)
	}
	defer rows.Close()

	var ranking []forecast.ProductSales
	for rows.Next() {
		var p forecast.ProductSales
		if err := rows.Scan(&p.ProductID, &p.Name, &p.Quantity, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		ranking = append(ranking, p)
	}
	return ranking, rows.Err()
}

// ProductDailyQuantity returns the units of one product sold per day.
func (s *Store) ProductDailyQuantity(ctx context.Context, productID int, start, end time.Time) ([]forecast.DailyPoint, error) {
	query := `
		SELECT CAST(o.created_at AS DATE) AS day, SUM(oi.quantity) AS qty
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.product_id = ?
		  AND o.` + notCancelled + `
		  AND CAST(o.created_at AS DATE) BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query, productID, start, end)
	if err != nil {
		return nil, fmt.Errorf("query product %d daily quantity: %w", productID, err)
	}
	defer rows.Close()

	var points []forecast.DailyPoint
	for rows.Next() {
		var p forecast.DailyPoint
		if err := rows.Scan(&p.Date, &p.Value); err != nil {
			return nil, fmt.Errorf("scan product daily quantity: %w", err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// SoldProducts returns every product with sales in the window, ordered by
// units sold descending.
func (s *Store) SoldProducts(ctx context.Context, start, end time.Time) ([]inventory.SoldProduct, error) {
	query := `
		SELECT
			oi.product_id,
			MAX(oi.product_name) AS product_name,
			SUM(oi.quantity) AS total_sold
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE oi.product_id IS NOT NULL
		  AND o.status IN ` + fulfillmentSet + `
		  AND CAST(o.created_at AS DATE) BETWEEN ? AND ?
		GROUP BY oi.product_id
		ORDER BY total_sold DESC`

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	rows, err := s.conn.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query sold products: %w", err)
	}
	defer rows.Close()

	var products []inventory.SoldProduct
	for rows.Next() {
		var p inventory.SoldProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.TotalSold); err != nil {
			return nil, fmt.Errorf("scan sold product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ProductName resolves a product's name, falling back to the denormalized
// order-item snapshot when the product row is gone.
func (s *Store) ProductName(ctx context.Context, productID int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var name string
	err := s.conn.QueryRowContext(ctx,
		`SELECT name FROM products WHERE id = ?`, productID).Scan(&name)
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("query product name: %w", err)
	}

	err = s.conn.QueryRowContext(ctx, `
		SELECT product_name FROM order_items
		WHERE product_id = ?
		ORDER BY id DESC
		LIMIT 1`, productID).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("product %d not found", productID)
	}
	if err != nil {
		return "", fmt.Errorf("query product name snapshot: %w", err)
	}
	return name, nil
}
