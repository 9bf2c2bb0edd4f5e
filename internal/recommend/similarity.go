// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package recommend

import (
	"context"
	"fmt"
	"math"
)

// Fixed attribute weights for the batch similarity pass. Deliberately
// independent from the per-user content-similarity feature weights, which
// are tunable at runtime.
const (
	simCountryWeight = 0.25
	simRoastWeight   = 0.30
	simBeanWeight    = 0.25
	simPriceWeight   = 0.20
)

// ComputeProductSimilarities recomputes the pairwise similarity of every
// active product pair and replaces the whole similarity table. Both (a,b)
// and (b,a) are stored, so n products yield n·(n−1) rows. Returns the number
// of rows written.
//
// This is an O(n²) batch pass, meant for the periodic rebuild job, never the
// request path.
func (e *Engine) ComputeProductSimilarities(ctx context.Context) (int, error) {
	catalog, err := e.data.Catalog(ctx)
	if err != nil {
		return 0, fmt.Errorf("load catalog: %w", err)
	}

	maxPriceDiff := priceRange(catalog)

	sims := make([]Similarity, 0, len(catalog)*(len(catalog)-1))
	for i, a := range catalog {
		for _, b := range catalog[i+1:] {
			score := pairSimilarity(a, b, maxPriceDiff)
			sims = append(sims,
				Similarity{ProductA: a.ID, ProductB: b.ID, Score: score},
				Similarity{ProductA: b.ID, ProductB: a.ID, Score: score},
			)
		}
	}

	if err := e.data.ReplaceSimilarities(ctx, sims); err != nil {
		return 0, fmt.Errorf("replace similarities: %w", err)
	}

	e.logger.Info().
		Int("products", len(catalog)).
		Int("rows", len(sims)).
		Msg("Rebuilt product similarity table")

	return len(sims), nil
}

// pairSimilarity scores two products on country, roast, bean type and price.
// Unlike the per-user content score, missing attribute data scores 0 here,
// not a neutral 0.5: with no user in the picture there is nothing to be
// neutral about.
func pairSimilarity(a, b Product, maxPriceDiff float64) float64 {
	countrySim := 0.0
	if len(a.CountryIDs) > 0 && len(b.CountryIDs) > 0 {
		countrySim = sliceJaccard(a.CountryIDs, b.CountryIDs)
	}

	roastSim := 0.0
	if a.RoastLevelID == b.RoastLevelID {
		roastSim = 1.0
	}

	beanSim := 0.0
	if len(a.BeanTypeIDs) > 0 && len(b.BeanTypeIDs) > 0 {
		beanSim = sliceJaccard(a.BeanTypeIDs, b.BeanTypeIDs)
	}

	priceSim := 1.0
	if maxPriceDiff > 0 {
		priceSim = 1 - math.Abs(a.BasePrice-b.BasePrice)/maxPriceDiff
	}

	return simCountryWeight*countrySim +
		simRoastWeight*roastSim +
		simBeanWeight*beanSim +
		simPriceWeight*priceSim
}

// priceRange returns max−min base price across the catalog.
func priceRange(catalog []Product) float64 {
	if len(catalog) == 0 {
		return 0
	}
	minPrice, maxPrice := catalog[0].BasePrice, catalog[0].BasePrice
	for _, p := range catalog[1:] {
		minPrice = math.Min(minPrice, p.BasePrice)
		maxPrice = math.Max(maxPrice, p.BasePrice)
	}
	return maxPrice - minPrice
}

func sliceJaccard(a, b []int) float64 {
	set := make(map[int]struct{}, len(a))
	for _, id := range a {
		set[id] = struct{}{}
	}
	return jaccard(set, b)
}
