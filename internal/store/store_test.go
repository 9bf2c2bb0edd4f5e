// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreyyy363/Coffee-Shop/internal/config"
	"github.com/andreyyy363/Coffee-Shop/internal/discount"
	"github.com/andreyyy363/Coffee-Shop/internal/forecast"
	"github.com/andreyyy363/Coffee-Shop/internal/recommend"
)

// newTestStore opens an in-memory DuckDB with the full schema.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	cfg := config.Default().Database
	cfg.Path = "" // in-memory
	cfg.MaxMemory = "512MB"

	s, err := New(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return s
}

func mustExec(t *testing.T, s *Store, query string, args ...any) {
	t.Helper()
	if _, err := s.conn.ExecContext(context.Background(), query, args...); err != nil {
		t.Fatalf("exec %s: %v", query, err)
	}
}

func seedOrders(t *testing.T, s *Store) {
	t.Helper()
	day := func(s string) time.Time {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			t.Fatal(err)
		}
		return d
	}

	orders := []struct {
		id     int
		userID int
		status string
		total  float64
		at     time.Time
	}{
		{1, 1, "completed", 100, day("2026-03-10")},
		{2, 1, "completed", 50, day("2026-03-12")},
		{3, 2, "processing", 80, day("2026-03-12")},
		{4, 2, "cancelled_user", 999, day("2026-03-12")},
		{5, 1, "cancelled_manager", 500, day("2026-03-13")},
	}
	for _, o := range orders {
		mustExec(t, s, `INSERT INTO orders (id, user_id, status, total, created_at) VALUES (?, ?, ?, ?, ?)`,
			o.id, o.userID, o.status, o.total, o.at)
	}
}

func TestDailyAggregateExcludesCancelled(t *testing.T) {
	s := newTestStore(t)
	seedOrders(t, s)

	start, _ := time.Parse("2006-01-02", "2026-03-09")
	end, _ := time.Parse("2006-01-02", "2026-03-15")

	points, err := s.DailyAggregate(context.Background(), forecast.MetricRevenue, start, end)
	if err != nil {
		t.Fatalf("DailyAggregate() error = %v", err)
	}

	// Two days with non-cancelled orders: 03-10 (100) and 03-12 (50+80).
	if len(points) != 2 {
		t.Fatalf("points = %d, want 2", len(points))
	}
	if points[0].Value != 100 {
		t.Errorf("day 1 revenue = %v, want 100", points[0].Value)
	}
	if points[1].Value != 130 {
		t.Errorf("day 2 revenue = %v, want 130", points[1].Value)
	}

	counts, err := s.DailyAggregate(context.Background(), forecast.MetricOrders, start, end)
	if err != nil {
		t.Fatalf("DailyAggregate(orders) error = %v", err)
	}
	if counts[1].Value != 2 {
		t.Errorf("day 2 order count = %v, want 2", counts[1].Value)
	}
}

func TestTopProductsRanking(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	mustExec(t, s, `INSERT INTO orders (id, user_id, status, total, created_at) VALUES (1, 1, 'completed', 200, ?)`, now)
	mustExec(t, s, `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price)
		VALUES (1, 1, 'Ethiopia Yirgacheffe', 2, 18, 36), (1, 2, 'Colombia Supremo', 10, 14, 140)`)

	ranking, err := s.TopProducts(context.Background(), 30, 10)
	if err != nil {
		t.Fatalf("TopProducts() error = %v", err)
	}

	if len(ranking) != 2 {
		t.Fatalf("ranking = %d, want 2", len(ranking))
	}
	if ranking[0].Name != "Colombia Supremo" || ranking[0].Revenue != 140 {
		t.Errorf("top product = %+v, want Colombia Supremo with 140 revenue", ranking[0])
	}
}

func TestProductDailyQuantityAndSoldProducts(t *testing.T) {
	s := newTestStore(t)

	d1, _ := time.Parse("2006-01-02", "2026-03-10")
	d2, _ := time.Parse("2006-01-02", "2026-03-11")
	mustExec(t, s, `INSERT INTO orders (id, user_id, status, total, created_at) VALUES
		(1, 1, 'completed', 50, ?), (2, 2, 'shipping', 30, ?)`, d1, d2)
	mustExec(t, s, `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price)
		VALUES (1, 7, 'Kenya AA', 3, 10, 30), (2, 7, 'Kenya AA', 2, 10, 20)`)

	start, _ := time.Parse("2006-01-02", "2026-03-09")
	end, _ := time.Parse("2006-01-02", "2026-03-12")

	points, err := s.ProductDailyQuantity(context.Background(), 7, start, end)
	if err != nil {
		t.Fatalf("ProductDailyQuantity() error = %v", err)
	}
	if len(points) != 2 || points[0].Value != 3 || points[1].Value != 2 {
		t.Errorf("points = %+v, want quantities 3 and 2", points)
	}

	sold, err := s.SoldProducts(context.Background(), start, end)
	if err != nil {
		t.Fatalf("SoldProducts() error = %v", err)
	}
	if len(sold) != 1 || sold[0].ProductID != 7 || sold[0].TotalSold != 5 {
		t.Errorf("sold = %+v, want product 7 with 5 units", sold)
	}
}

func TestProductNameSnapshotFallback(t *testing.T) {
	s := newTestStore(t)

	mustExec(t, s, `INSERT INTO products (id, name, base_price) VALUES (1, 'Ethiopia Yirgacheffe', 18)`)
	mustExec(t, s, `INSERT INTO orders (id, user_id, status, total, created_at) VALUES (1, 1, 'completed', 20, ?)`, time.Now().UTC())
	mustExec(t, s, `INSERT INTO order_items (order_id, product_id, product_name, quantity, unit_price, total_price)
		VALUES (1, 9, 'Discontinued Blend', 1, 20, 20)`)

	name, err := s.ProductName(context.Background(), 1)
	if err != nil || name != "Ethiopia Yirgacheffe" {
		t.Errorf("ProductName(1) = (%q, %v), want catalog name", name, err)
	}

	// Product 9 has no catalog row; the order-item snapshot survives.
	name, err = s.ProductName(context.Background(), 9)
	if err != nil || name != "Discontinued Blend" {
		t.Errorf("ProductName(9) = (%q, %v), want snapshot name", name, err)
	}

	if _, err := s.ProductName(context.Background(), 42); err == nil {
		t.Error("ProductName(42) should fail for unknown product")
	}
}

func TestCompletedOrderStats(t *testing.T) {
	s := newTestStore(t)
	seedOrders(t, s)

	stats, err := s.CompletedOrderStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("CompletedOrderStats() error = %v", err)
	}

	if stats.TotalOrders != 2 {
		t.Errorf("total orders = %d, want 2 (cancelled excluded)", stats.TotalOrders)
	}
	if stats.TotalSpent != 150 {
		t.Errorf("total spent = %v, want 150", stats.TotalSpent)
	}
	if stats.LastOrderDate == nil || stats.LastOrderDate.Format("2006-01-02") != "2026-03-12" {
		t.Errorf("last order date = %v, want 2026-03-12", stats.LastOrderDate)
	}

	empty, err := s.CompletedOrderStats(context.Background(), 99)
	if err != nil {
		t.Fatalf("CompletedOrderStats(99) error = %v", err)
	}
	if empty.TotalOrders != 0 || empty.TotalSpent != 0 || empty.LastOrderDate != nil {
		t.Errorf("stats for unknown user = %+v, want zero value", empty)
	}
}

func TestPromoByCodeCaseInsensitive(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	mustExec(t, s, `INSERT INTO promo_codes (id, code, discount_type, discount_value, min_order_amount,
		valid_from, valid_until, is_active, max_uses, max_uses_per_user, times_used)
		VALUES (1, 'SUMMER10', 'percent', 10, 50, ?, ?, TRUE, 100, 1, 0)`,
		now.AddDate(0, -1, 0), now.AddDate(0, 1, 0))

	promo, err := s.PromoByCode(context.Background(), "summer10")
	if err != nil {
		t.Fatalf("PromoByCode() error = %v", err)
	}
	if promo.Code != "SUMMER10" || promo.DiscountType != discount.DiscountPercent {
		t.Errorf("promo = %+v", promo)
	}

	if _, err := s.PromoByCode(context.Background(), "NOPE"); !errors.Is(err, discount.ErrPromoNotFound) {
		t.Errorf("error = %v, want ErrPromoNotFound", err)
	}
}

func TestRecordPromoUse(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	mustExec(t, s, `INSERT INTO promo_codes (id, code, discount_type, discount_value, min_order_amount,
		valid_from, valid_until, is_active, max_uses, max_uses_per_user, times_used)
		VALUES (1, 'ONCE', 'fixed', 5, 0, ?, ?, TRUE, 0, 1, 0)`, now, now.AddDate(1, 0, 0))

	if err := s.RecordPromoUse(context.Background(), 1, 7, 42); err != nil {
		t.Fatalf("RecordPromoUse() error = %v", err)
	}

	uses, err := s.PromoUserUses(context.Background(), 1, 7)
	if err != nil {
		t.Fatalf("PromoUserUses() error = %v", err)
	}
	if uses != 1 {
		t.Errorf("user uses = %d, want 1", uses)
	}

	promo, err := s.PromoByCode(context.Background(), "ONCE")
	if err != nil {
		t.Fatal(err)
	}
	if promo.TimesUsed != 1 {
		t.Errorf("times used = %d, want 1", promo.TimesUsed)
	}
}

func TestSaveProfileUpsert(t *testing.T) {
	s := newTestStore(t)

	last := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	profile := &discount.Profile{
		UserID: 1, TotalOrders: 2, TotalSpent: 150, LastOrderDate: &last,
		RecencyScore: 0.967, FrequencyScore: 0.2, MonetaryScore: 0.3,
		RFMScore: 0.432, BaseDiscountPercent: 8.32, UpdatedAt: time.Now().UTC(),
	}
	if err := s.SaveProfile(context.Background(), profile); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}

	profile.TotalOrders = 3
	profile.RFMScore = 0.5
	if err := s.SaveProfile(context.Background(), profile); err != nil {
		t.Fatalf("SaveProfile() upsert error = %v", err)
	}

	stored, err := s.DiscountProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("DiscountProfile() error = %v", err)
	}
	if stored == nil || stored.TotalOrders != 3 || stored.RFMScore != 0.5 {
		t.Errorf("stored profile = %+v, want updated row", stored)
	}

	missing, err := s.DiscountProfile(context.Background(), 99)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("profile for unknown user = %+v, want nil", missing)
	}
}

func TestSaveDiscountHistory(t *testing.T) {
	s := newTestStore(t)

	entries := []discount.HistoryEntry{
		{OrderID: 1, UserID: 2, DiscountType: "rfm", DiscountPercent: 10, DiscountAmount: 5, RFMScoreSnapshot: 0.6,
			Details: map[string]any{"rfm_score": 0.6}},
		{OrderID: 1, UserID: 2, DiscountType: "promo", DiscountAmount: 3, RFMScoreSnapshot: 0.6},
	}
	if err := s.SaveDiscountHistory(context.Background(), entries); err != nil {
		t.Fatalf("SaveDiscountHistory() error = %v", err)
	}

	var count int
	if err := s.conn.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM discount_history WHERE order_id = 1`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("history rows = %d, want 2", count)
	}
}

func TestUserByID(t *testing.T) {
	s := newTestStore(t)

	birth := time.Date(1990, 6, 18, 0, 0, 0, 0, time.UTC)
	mustExec(t, s, `INSERT INTO users (id, email, birth_date) VALUES (1, 'a@example.com', ?)`, birth)
	mustExec(t, s, `INSERT INTO users (id, email) VALUES (2, 'b@example.com')`)

	user, err := s.UserByID(context.Background(), 1)
	if err != nil {
		t.Fatalf("UserByID() error = %v", err)
	}
	if user.BirthDate == nil || user.BirthDate.Format("2006-01-02") != "1990-06-18" {
		t.Errorf("birth date = %v, want 1990-06-18", user.BirthDate)
	}

	user, err = s.UserByID(context.Background(), 2)
	if err != nil || user.BirthDate != nil {
		t.Errorf("UserByID(2) = (%+v, %v), want nil birth date", user, err)
	}

	// Unknown users resolve to an empty identity, not an error.
	user, err = s.UserByID(context.Background(), 99)
	if err != nil || user.ID != 99 {
		t.Errorf("UserByID(99) = (%+v, %v), want bare identity", user, err)
	}
}

func TestUpsertInteraction(t *testing.T) {
	s := newTestStore(t)

	ctx := context.Background()
	if err := s.UpsertInteraction(ctx, 1, 3, recommend.InteractionView); err != nil {
		t.Fatalf("UpsertInteraction() error = %v", err)
	}
	if err := s.UpsertInteraction(ctx, 1, 3, recommend.InteractionView); err != nil {
		t.Fatalf("UpsertInteraction() repeat error = %v", err)
	}
	if err := s.UpsertInteraction(ctx, 1, 3, recommend.InteractionCart); err != nil {
		t.Fatalf("UpsertInteraction() cart error = %v", err)
	}

	interactions, err := s.Interactions(ctx, 1)
	if err != nil {
		t.Fatalf("Interactions() error = %v", err)
	}
	if len(interactions) != 2 {
		t.Fatalf("interactions = %d, want 2 (view and cart)", len(interactions))
	}

	counts := map[recommend.InteractionType]int{}
	for _, in := range interactions {
		counts[in.Type] = in.Count
	}
	if counts[recommend.InteractionView] != 2 {
		t.Errorf("view count = %d, want 2", counts[recommend.InteractionView])
	}
	if counts[recommend.InteractionCart] != 1 {
		t.Errorf("cart count = %d, want 1", counts[recommend.InteractionCart])
	}
}

func seedCatalog(t *testing.T, s *Store) {
	t.Helper()
	mustExec(t, s, `INSERT INTO products (id, name, roast_level_id, base_price, is_active) VALUES
		(1, 'Ethiopia Yirgacheffe', 1, 18, TRUE),
		(2, 'Colombia Supremo', 2, 14, TRUE),
		(3, 'Retired Roast', 1, 12, FALSE)`)
	mustExec(t, s, `INSERT INTO product_countries (product_id, country_id) VALUES (1, 1), (2, 2)`)
	mustExec(t, s, `INSERT INTO product_bean_types (product_id, bean_type_id) VALUES (1, 1), (1, 2), (2, 1)`)
	mustExec(t, s, `INSERT INTO reviews (product_id, user_id, rating, is_approved) VALUES
		(1, 1, 5, TRUE), (1, 2, 4, TRUE), (1, 3, 1, FALSE)`)
}

func TestCatalog(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)

	ctx := context.Background()
	if err := s.UpsertInteraction(ctx, 1, 1, recommend.InteractionPurchase); err != nil {
		t.Fatal(err)
	}

	catalog, err := s.Catalog(ctx)
	if err != nil {
		t.Fatalf("Catalog() error = %v", err)
	}

	if len(catalog) != 2 {
		t.Fatalf("catalog = %d products, want 2 active", len(catalog))
	}

	p1 := catalog[0]
	if p1.ID != 1 {
		t.Fatalf("first product = %d, want 1", p1.ID)
	}
	if len(p1.BeanTypeIDs) != 2 || len(p1.CountryIDs) != 1 {
		t.Errorf("product 1 attributes = %+v", p1)
	}
	if p1.PurchaseCount != 1 {
		t.Errorf("purchase count = %d, want 1", p1.PurchaseCount)
	}
	if p1.AvgRating != 4.5 || p1.ReviewCount != 2 {
		t.Errorf("review aggregates = (%v, %d), want (4.5, 2) from approved reviews", p1.AvgRating, p1.ReviewCount)
	}
}

func TestReplaceAndQuerySimilarities(t *testing.T) {
	s := newTestStore(t)
	seedCatalog(t, s)

	ctx := context.Background()
	sims := []recommend.Similarity{
		{ProductA: 1, ProductB: 2, Score: 0.8},
		{ProductA: 2, ProductB: 1, Score: 0.8},
		{ProductA: 1, ProductB: 3, Score: 0.4},
		{ProductA: 3, ProductB: 1, Score: 0.4},
	}
	if err := s.ReplaceSimilarities(ctx, sims); err != nil {
		t.Fatalf("ReplaceSimilarities() error = %v", err)
	}

	got, err := s.SimilaritiesFor(ctx, []int{1})
	if err != nil {
		t.Fatalf("SimilaritiesFor() error = %v", err)
	}
	if got[1][2] != 0.8 || got[1][3] != 0.4 {
		t.Errorf("similarities = %+v", got)
	}

	// Rebuild replaces everything.
	if err := s.ReplaceSimilarities(ctx, sims[:2]); err != nil {
		t.Fatalf("ReplaceSimilarities() rebuild error = %v", err)
	}
	got, err = s.SimilaritiesFor(ctx, []int{1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got[1]) != 1 {
		t.Errorf("similarities after rebuild = %+v, want only product 2", got[1])
	}

	// Similar products skip inactive catalog entries.
	if err := s.ReplaceSimilarities(ctx, sims); err != nil {
		t.Fatal(err)
	}
	similar, err := s.SimilarProducts(ctx, 1, 10)
	if err != nil {
		t.Fatalf("SimilarProducts() error = %v", err)
	}
	if len(similar) != 1 || similar[0].ID != 2 {
		t.Errorf("similar products = %+v, want only active product 2", similar)
	}
}

func TestLogRecommendations(t *testing.T) {
	s := newTestStore(t)

	entries := []recommend.LogEntry{
		{BatchID: "b-1", UserID: 1, ProductID: 2, Algorithm: "hybrid", Score: 0.7, Position: 1},
		{BatchID: "b-1", UserID: 1, ProductID: 3, Algorithm: "hybrid", Score: 0.5, Position: 2},
	}
	if err := s.LogRecommendations(context.Background(), entries); err != nil {
		t.Fatalf("LogRecommendations() error = %v", err)
	}

	var count int
	if err := s.conn.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM recommendation_log WHERE user_id = 1 AND batch_id = 'b-1'`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 2 {
		t.Errorf("log rows = %d, want 2", count)
	}
}
