// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/andreyyy363/Coffee-Shop/internal/cache"
	"github.com/andreyyy363/Coffee-Shop/internal/config"
)

type fakeData struct {
	interactions map[int][]Interaction
	catalog      []Product
	sims         map[int]map[int]float64
	similar      map[int][]Product

	logged           []LogEntry
	upserted         []Interaction
	replaced         []Similarity
	interactionCalls int
}

func (f *fakeData) Interactions(_ context.Context, userID int) ([]Interaction, error) {
	f.interactionCalls++
	return f.interactions[userID], nil
}

func (f *fakeData) Catalog(_ context.Context) ([]Product, error) {
	return f.catalog, nil
}

func (f *fakeData) SimilaritiesFor(_ context.Context, productIDs []int) (map[int]map[int]float64, error) {
	out := map[int]map[int]float64{}
	for _, id := range productIDs {
		if row, ok := f.sims[id]; ok {
			out[id] = row
		}
	}
	return out, nil
}

func (f *fakeData) SimilarProducts(_ context.Context, productID, limit int) ([]Product, error) {
	products := f.similar[productID]
	if len(products) > limit {
		products = products[:limit]
	}
	return products, nil
}

func (f *fakeData) UpsertInteraction(_ context.Context, userID, productID int, t InteractionType) error {
	f.upserted = append(f.upserted, Interaction{ProductID: productID, Type: t, Count: 1})
	return nil
}

func (f *fakeData) ReplaceSimilarities(_ context.Context, sims []Similarity) error {
	f.replaced = sims
	return nil
}

func (f *fakeData) LogRecommendations(_ context.Context, entries []LogEntry) error {
	f.logged = append(f.logged, entries...)
	return nil
}

var recNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestRecEngine(data *fakeData) *Engine {
	e := NewEngine(config.Default().Recommend, data, cache.New(time.Hour), zerolog.Nop())
	e.now = func() time.Time { return recNow }
	return e
}

func testCatalog() []Product {
	return []Product{
		{ID: 1, Name: "Ethiopia Yirgacheffe", CountryIDs: []int{1}, RoastLevelID: 1, BeanTypeIDs: []int{1}, BasePrice: 18, PurchaseCount: 50, AvgRating: 4.8, ReviewCount: 30},
		{ID: 2, Name: "Colombia Supremo", CountryIDs: []int{2}, RoastLevelID: 2, BeanTypeIDs: []int{1}, BasePrice: 14, PurchaseCount: 80, AvgRating: 4.5, ReviewCount: 40},
		{ID: 3, Name: "Kenya AA", CountryIDs: []int{3}, RoastLevelID: 1, BeanTypeIDs: []int{1, 2}, BasePrice: 20, PurchaseCount: 20, AvgRating: 4.9, ReviewCount: 10},
		{ID: 4, Name: "House Blend", CountryIDs: []int{1, 2}, RoastLevelID: 3, BeanTypeIDs: []int{2}, BasePrice: 10, PurchaseCount: 120, AvgRating: 4.0, ReviewCount: 60},
	}
}

func TestRecommendationsColdStart(t *testing.T) {
	data := &fakeData{catalog: testCatalog(), interactions: map[int][]Interaction{}}
	engine := newTestRecEngine(data)

	recs, err := engine.Recommendations(context.Background(), 1, 10, nil)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}

	if len(recs) != 4 {
		t.Fatalf("recommendations = %d, want whole catalog (4)", len(recs))
	}
	for _, rec := range recs {
		if rec.Algorithm != "popular" {
			t.Errorf("algorithm for %d = %q, want popular", rec.Product.ID, rec.Algorithm)
		}
		if rec.Score != rec.Components.Popularity {
			t.Errorf("cold-start score %v != popularity %v", rec.Score, rec.Components.Popularity)
		}
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Score > recs[i-1].Score {
			t.Errorf("recommendations not sorted at %d", i)
		}
	}
}

func TestRecommendationsHybridExcludesInteracted(t *testing.T) {
	data := &fakeData{
		catalog: testCatalog(),
		interactions: map[int][]Interaction{
			1: {
				{ProductID: 1, Type: InteractionPurchase, Count: 2, LastInteraction: recNow.AddDate(0, 0, -1)},
				{ProductID: 1, Type: InteractionView, Count: 5, LastInteraction: recNow},
				{ProductID: 2, Type: InteractionCart, Count: 1, LastInteraction: recNow.AddDate(0, 0, -3)},
			},
		},
		sims: map[int]map[int]float64{
			1: {3: 0.9, 4: 0.2},
			2: {3: 0.5, 4: 0.6},
		},
	}
	engine := newTestRecEngine(data)

	recs, err := engine.Recommendations(context.Background(), 1, 10, nil)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}

	if len(recs) != 2 {
		t.Fatalf("recommendations = %d, want 2 (products 1 and 2 interacted)", len(recs))
	}
	for _, rec := range recs {
		if rec.Product.ID == 1 || rec.Product.ID == 2 {
			t.Errorf("interacted product %d recommended", rec.Product.ID)
		}
		if rec.Algorithm != "hybrid" {
			t.Errorf("algorithm = %q, want hybrid", rec.Algorithm)
		}
		if rec.Components.Collaborative == 0 {
			t.Errorf("collaborative score for %d = 0, want > 0", rec.Product.ID)
		}
	}
}

func TestRecommendationsExplicitExclude(t *testing.T) {
	data := &fakeData{catalog: testCatalog(), interactions: map[int][]Interaction{}}
	engine := newTestRecEngine(data)

	recs, err := engine.Recommendations(context.Background(), 1, 10, map[int]struct{}{4: {}})
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	for _, rec := range recs {
		if rec.Product.ID == 4 {
			t.Error("excluded product 4 recommended")
		}
	}
}

func TestRecommendationsLimitAndLogging(t *testing.T) {
	data := &fakeData{catalog: testCatalog(), interactions: map[int][]Interaction{}}
	engine := newTestRecEngine(data)

	recs, err := engine.Recommendations(context.Background(), 7, 2, nil)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("recommendations = %d, want 2", len(recs))
	}

	if len(data.logged) != 2 {
		t.Fatalf("logged entries = %d, want 2", len(data.logged))
	}
	for i, entry := range data.logged {
		if entry.Position != i+1 {
			t.Errorf("logged position = %d, want %d", entry.Position, i+1)
		}
		if entry.UserID != 7 {
			t.Errorf("logged user = %d, want 7", entry.UserID)
		}
		if entry.ProductID != recs[i].Product.ID {
			t.Errorf("logged product = %d, want %d", entry.ProductID, recs[i].Product.ID)
		}
		if entry.BatchID == "" || entry.BatchID != data.logged[0].BatchID {
			t.Errorf("batch ID %q not shared across the served list", entry.BatchID)
		}
	}
}

func TestRecommendationsDisabled(t *testing.T) {
	data := &fakeData{catalog: testCatalog(), interactions: map[int][]Interaction{}}
	engine := newTestRecEngine(data)
	engine.cfg.Enabled = false

	recs, err := engine.Recommendations(context.Background(), 1, 10, nil)
	if err != nil {
		t.Fatalf("Recommendations() error = %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("recommendations = %d, want 0 when disabled", len(recs))
	}
}

func TestRecordInteractionInvalidatesProfile(t *testing.T) {
	data := &fakeData{
		catalog:      testCatalog(),
		interactions: map[int][]Interaction{},
	}
	engine := newTestRecEngine(data)

	if _, err := engine.Recommendations(context.Background(), 1, 10, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Recommendations(context.Background(), 1, 10, nil); err != nil {
		t.Fatal(err)
	}
	if data.interactionCalls != 1 {
		t.Errorf("interaction loads = %d, want 1 (second call cached)", data.interactionCalls)
	}

	if err := engine.RecordInteraction(context.Background(), 1, 3, InteractionView); err != nil {
		t.Fatalf("RecordInteraction() error = %v", err)
	}
	if len(data.upserted) != 1 {
		t.Fatalf("upserted = %d, want 1", len(data.upserted))
	}

	if _, err := engine.Recommendations(context.Background(), 1, 10, nil); err != nil {
		t.Fatal(err)
	}
	if data.interactionCalls != 2 {
		t.Errorf("interaction loads = %d, want 2 (profile rebuilt after interaction)", data.interactionCalls)
	}
}

func TestRecordInteractionUnknownType(t *testing.T) {
	engine := newTestRecEngine(&fakeData{})

	if err := engine.RecordInteraction(context.Background(), 1, 3, "teleport"); err == nil {
		t.Error("expected error for unknown interaction type")
	}
}

func TestInteractionTypeWeight(t *testing.T) {
	tests := []struct {
		t    InteractionType
		want float64
	}{
		{InteractionView, 1.0},
		{InteractionCart, 3.0},
		{InteractionPurchase, 5.0},
		{InteractionFavorite, 4.0},
		{InteractionReview, 4.5},
		{"unknown", 1.0},
	}
	for _, tt := range tests {
		if got := tt.t.Weight(); got != tt.want {
			t.Errorf("Weight(%s) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestBuildProfileTimeDecay(t *testing.T) {
	engine := newTestRecEngine(&fakeData{})

	old := Interaction{ProductID: 1, Type: InteractionPurchase, Count: 1, LastInteraction: recNow.AddDate(0, 0, -60)}
	fresh := Interaction{ProductID: 2, Type: InteractionPurchase, Count: 1, LastInteraction: recNow}

	profile := engine.buildProfile([]Interaction{old, fresh}, testCatalog())

	if profile.InteractionScores[1] >= profile.InteractionScores[2] {
		t.Errorf("decayed score %v should be below fresh score %v",
			profile.InteractionScores[1], profile.InteractionScores[2])
	}
	if profile.InteractionScores[2] != 5.0 {
		t.Errorf("fresh purchase score = %v, want 5.0", profile.InteractionScores[2])
	}
	if profile.AvgPrice <= 0 {
		t.Errorf("avg price = %v, want > 0", profile.AvgPrice)
	}
}

func TestContentSimilarityNeutralFallbacks(t *testing.T) {
	engine := newTestRecEngine(&fakeData{})

	// History exists, but no attribute preferences: all four dimensions fall
	// back to 0.5, so the score is 0.5 regardless of feature weights.
	profile := &Profile{
		PreferredCountries: map[int]struct{}{},
		PreferredRoasts:    map[int]struct{}{},
		PreferredBeans:     map[int]struct{}{},
		InteractionScores:  map[int]float64{99: 1},
	}
	product := Product{ID: 1, CountryIDs: []int{1}, RoastLevelID: 1, BeanTypeIDs: []int{1}, BasePrice: 18}

	got := engine.contentSimilarity(profile, product, 20)
	if got != 0.5 {
		t.Errorf("contentSimilarity() = %v, want 0.5", got)
	}
}

func TestContentSimilarityNoHistory(t *testing.T) {
	engine := newTestRecEngine(&fakeData{})

	profile := &Profile{InteractionScores: map[int]float64{}}
	if got := engine.contentSimilarity(profile, Product{ID: 1}, 20); got != 0 {
		t.Errorf("contentSimilarity() with no history = %v, want 0", got)
	}
}

func TestCollaborativeScoreWeightedAverage(t *testing.T) {
	profile := &Profile{InteractionScores: map[int]float64{
		1: 3.0,
		2: 1.0,
	}}
	sims := map[int]map[int]float64{
		1: {5: 0.8},
		2: {5: 0.4},
	}

	// (3·0.8 + 1·0.4) / (3+1) = 0.7
	got := collaborativeScore(profile, sims, 5)
	if got != 0.7 {
		t.Errorf("collaborativeScore() = %v, want 0.7", got)
	}

	if got := collaborativeScore(profile, map[int]map[int]float64{}, 5); got != 0 {
		t.Errorf("collaborativeScore() with no overlap = %v, want 0", got)
	}
}

func TestJaccard(t *testing.T) {
	set := map[int]struct{}{1: {}, 2: {}, 3: {}}

	tests := []struct {
		name string
		ids  []int
		want float64
	}{
		{"identical", []int{1, 2, 3}, 1.0},
		{"half overlap", []int{2, 3, 4, 5}, 0.4}, // 2 / 5
		{"disjoint", []int{7, 8}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jaccard(set, tt.ids); got != tt.want {
				t.Errorf("jaccard() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSimilarProducts(t *testing.T) {
	data := &fakeData{similar: map[int][]Product{
		1: {{ID: 3}, {ID: 2}, {ID: 4}},
	}}
	engine := newTestRecEngine(data)

	products, err := engine.SimilarProducts(context.Background(), 1, 2)
	if err != nil {
		t.Fatalf("SimilarProducts() error = %v", err)
	}
	if len(products) != 2 || products[0].ID != 3 {
		t.Errorf("SimilarProducts() = %+v, want top 2 ordered", products)
	}
}
