// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

// Package recommend implements the hybrid product recommendation engine:
// content-based filtering against a time-decayed user preference profile,
// item-based collaborative filtering over precomputed product similarities,
// and popularity scoring, blended with configurable weights. Users with no
// interaction history fall back to popularity alone.
package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/andreyyy363/Coffee-Shop/internal/cache"
	"github.com/andreyyy363/Coffee-Shop/internal/config"
)

// DataProvider supplies catalog, interaction and similarity data.
// Implemented by the store; defined here to keep the dependency pointing
// inward.
type DataProvider interface {
	// Interactions returns all interaction rows for a user.
	Interactions(ctx context.Context, userID int) ([]Interaction, error)

	// Catalog returns the active product catalog with rating and purchase
	// aggregates attached.
	Catalog(ctx context.Context) ([]Product, error)

	// SimilaritiesFor returns precomputed similarity rows whose source
	// product is in the given set, keyed source -> target -> score.
	SimilaritiesFor(ctx context.Context, productIDs []int) (map[int]map[int]float64, error)

	// SimilarProducts returns active products most similar to the given
	// one, ordered by similarity descending.
	SimilarProducts(ctx context.Context, productID, limit int) ([]Product, error)

	// UpsertInteraction creates the (user, product, type) row or bumps its
	// count and timestamp.
	UpsertInteraction(ctx context.Context, userID, productID int, interactionType InteractionType) error

	// ReplaceSimilarities atomically replaces the whole similarity table.
	ReplaceSimilarities(ctx context.Context, sims []Similarity) error

	// LogRecommendations records a shown recommendation list.
	LogRecommendations(ctx context.Context, entries []LogEntry) error
}

// Engine generates personalized recommendations.
type Engine struct {
	cfg    config.RecommendConfig
	data   DataProvider
	cache  cache.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine creates a recommendation engine. The cache holds per-user
// preference profiles and is invalidated on new interactions.
func NewEngine(cfg config.RecommendConfig, data DataProvider, c cache.Store, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		data:   data,
		cache:  c,
		logger: logger.With().Str("component", "recommend").Logger(),
		now:    time.Now,
	}
}

func profileCacheKey(userID int) string {
	return fmt.Sprintf("user_profile_%d", userID)
}

// UserProfile returns the user's preference profile, building and caching it
// when absent.
func (e *Engine) UserProfile(ctx context.Context, userID int, catalog []Product) (*Profile, error) {
	key := profileCacheKey(userID)
	if cached, ok := e.cache.Get(key); ok {
		if profile, ok := cached.(*Profile); ok {
			return profile, nil
		}
	}

	interactions, err := e.data.Interactions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load interactions: %w", err)
	}

	profile := e.buildProfile(interactions, catalog)
	e.cache.Set(key, profile)
	return profile, nil
}

// buildProfile aggregates interactions into preference sets, per-product
// scores and a weighted average price. Recent interactions weigh more via
// weight × count × e^(−λ·days).
func (e *Engine) buildProfile(interactions []Interaction, catalog []Product) *Profile {
	profile := &Profile{
		PreferredCountries: map[int]struct{}{},
		PreferredRoasts:    map[int]struct{}{},
		PreferredBeans:     map[int]struct{}{},
		InteractionScores:  map[int]float64{},
		InteractionCount:   len(interactions),
	}

	byID := make(map[int]Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	now := e.now()
	priceSum := 0.0
	priceWeight := 0.0

	for _, in := range interactions {
		daysAgo := int(now.Sub(in.LastInteraction).Hours() / 24)
		decay := math.Exp(-e.cfg.TimeDecayRate * float64(daysAgo))
		weight := in.Type.Weight() * float64(in.Count) * decay

		profile.InteractionScores[in.ProductID] += weight

		product, ok := byID[in.ProductID]
		if !ok {
			// Interacted product no longer in the active catalog.
			continue
		}

		for _, c := range product.CountryIDs {
			profile.PreferredCountries[c] = struct{}{}
		}
		if product.RoastLevelID != 0 {
			profile.PreferredRoasts[product.RoastLevelID] = struct{}{}
		}
		for _, b := range product.BeanTypeIDs {
			profile.PreferredBeans[b] = struct{}{}
		}

		priceSum += product.BasePrice * weight
		priceWeight += weight
	}

	if priceWeight > 0 {
		profile.AvgPrice = priceSum / priceWeight
	}
	return profile
}

// Recommendations returns the top ranked products for the user, excluding
// anything in exclude plus everything the user already interacted with. The
// returned list is logged through the data provider.
func (e *Engine) Recommendations(ctx context.Context, userID, limit int, exclude map[int]struct{}) ([]Recommendation, error) {
	if !e.cfg.Enabled {
		return []Recommendation{}, nil
	}
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}

	catalog, err := e.data.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	profile, err := e.UserProfile(ctx, userID, catalog)
	if err != nil {
		return nil, err
	}

	var sims map[int]map[int]float64
	if len(profile.InteractionScores) > 0 {
		ids := make([]int, 0, len(profile.InteractionScores))
		for id := range profile.InteractionScores {
			ids = append(ids, id)
		}
		sims, err = e.data.SimilaritiesFor(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load similarities: %w", err)
		}
	}

	maxPrice, maxPurchases, maxReviewScore := catalogMaxima(catalog)
	hasHistory := len(profile.InteractionScores) > 0
	useCF := profile.InteractionCount >= e.cfg.MinInteractionsForCF

	recs := make([]Recommendation, 0, len(catalog))
	for _, product := range catalog {
		if _, skip := exclude[product.ID]; skip {
			continue
		}
		if profile.Interacted(product.ID) {
			continue
		}

		components := ComponentScores{
			Content:    e.contentSimilarity(profile, product, maxPrice),
			Popularity: popularityScore(product, maxPurchases, maxReviewScore),
		}
		if useCF {
			components.Collaborative = collaborativeScore(profile, sims, product.ID)
		}

		score := components.Popularity
		algorithm := "popular"
		if hasHistory {
			score = e.cfg.WeightContent*components.Content +
				e.cfg.WeightCollaborative*components.Collaborative +
				e.cfg.WeightPopularity*components.Popularity
			algorithm = "hybrid"
		}

		recs = append(recs, Recommendation{
			Product:    product,
			Score:      score,
			Algorithm:  algorithm,
			Components: components,
		})
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Score != recs[j].Score {
			return recs[i].Score > recs[j].Score
		}
		return recs[i].Product.ID < recs[j].Product.ID
	})
	if len(recs) > limit {
		recs = recs[:limit]
	}

	e.logRecommendations(ctx, userID, recs)
	return recs, nil
}

// contentSimilarity scores how well a product matches the user's preference
// profile. Dimensions with no profile data contribute a neutral 0.5 so a
// sparse history does not zero the whole score.
func (e *Engine) contentSimilarity(profile *Profile, product Product, maxPrice float64) float64 {
	if len(profile.InteractionScores) == 0 {
		return 0
	}

	countrySim := 0.5
	if len(profile.PreferredCountries) > 0 && len(product.CountryIDs) > 0 {
		countrySim = jaccard(profile.PreferredCountries, product.CountryIDs)
	}

	roastSim := 0.5
	if product.RoastLevelID != 0 && len(profile.PreferredRoasts) > 0 {
		roastSim = 0.0
		if _, ok := profile.PreferredRoasts[product.RoastLevelID]; ok {
			roastSim = 1.0
		}
	}

	beanSim := 0.5
	if len(profile.PreferredBeans) > 0 && len(product.BeanTypeIDs) > 0 {
		beanSim = jaccard(profile.PreferredBeans, product.BeanTypeIDs)
	}

	priceSim := 0.5
	if profile.AvgPrice > 0 {
		priceSim = 1.0
		if maxPrice > 0 {
			priceSim = 1 - math.Abs(product.BasePrice-profile.AvgPrice)/maxPrice
		}
	}

	similarity := e.cfg.FeatureCountryWeight*countrySim +
		e.cfg.FeatureRoastWeight*roastSim +
		e.cfg.FeatureBeanWeight*beanSim +
		e.cfg.FeaturePriceWeight*priceSim

	return math.Min(1, math.Max(0, similarity))
}

// collaborativeScore is the interaction-weighted average similarity between
// the candidate and the products the user interacted with.
func collaborativeScore(profile *Profile, sims map[int]map[int]float64, productID int) float64 {
	weightedSum := 0.0
	weightSum := 0.0

	for interactedID, score := range profile.InteractionScores {
		if sim, ok := sims[interactedID][productID]; ok {
			weightedSum += score * sim
			weightSum += score
		}
	}

	if weightSum > 0 {
		return weightedSum / weightSum
	}
	return 0
}

// popularityScore blends normalized purchase volume with review volume.
func popularityScore(product Product, maxPurchases, maxReviewScore float64) float64 {
	purchaseScore := float64(product.PurchaseCount) / maxPurchases
	reviewScore := product.AvgRating * float64(product.ReviewCount) / maxReviewScore
	return 0.6*purchaseScore + 0.4*reviewScore
}

// catalogMaxima returns the normalization denominators for the catalog, all
// floored at 1 to avoid dividing by zero.
func catalogMaxima(catalog []Product) (maxPrice, maxPurchases, maxReviewScore float64) {
	maxPurchases, maxReviewScore = 1, 1
	for _, p := range catalog {
		maxPrice = math.Max(maxPrice, p.BasePrice)
		maxPurchases = math.Max(maxPurchases, float64(p.PurchaseCount))
		maxReviewScore = math.Max(maxReviewScore, p.AvgRating*float64(p.ReviewCount))
	}
	return maxPrice, maxPurchases, maxReviewScore
}

// jaccard is |A∩B| / |A∪B| over a set and an ID slice.
func jaccard(set map[int]struct{}, ids []int) float64 {
	if len(set) == 0 && len(ids) == 0 {
		return 0
	}

	intersection := 0
	union := len(set)
	seen := map[int]struct{}{}
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := set[id]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func (e *Engine) logRecommendations(ctx context.Context, userID int, recs []Recommendation) {
	if len(recs) == 0 {
		return
	}
	batchID := uuid.New().String()
	entries := make([]LogEntry, len(recs))
	for i, rec := range recs {
		entries[i] = LogEntry{
			BatchID:   batchID,
			UserID:    userID,
			ProductID: rec.Product.ID,
			Algorithm: rec.Algorithm,
			Score:     rec.Score,
			Position:  i + 1,
		}
	}
	if err := e.data.LogRecommendations(ctx, entries); err != nil {
		// Logging is analytics-only; never fail the recommendation call.
		e.logger.Warn().Err(err).Int("user_id", userID).Msg("Failed to log recommendations")
	}
}

// RecordInteraction upserts a user-product interaction and invalidates the
// user's cached preference profile.
func (e *Engine) RecordInteraction(ctx context.Context, userID, productID int, interactionType InteractionType) error {
	if !interactionType.Valid() {
		return fmt.Errorf("unknown interaction type %q", interactionType)
	}
	if err := e.data.UpsertInteraction(ctx, userID, productID, interactionType); err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	e.cache.Delete(profileCacheKey(userID))
	return nil
}

// SimilarProducts returns the products most similar to the given one, for
// the "you may also like" surface.
func (e *Engine) SimilarProducts(ctx context.Context, productID, limit int) ([]Product, error) {
	if limit <= 0 {
		limit = 4
	}
	products, err := e.data.SimilarProducts(ctx, productID, limit)
	if err != nil {
		return nil, fmt.Errorf("load similar products: %w", err)
	}
	return products, nil
}
