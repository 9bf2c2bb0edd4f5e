// Coffee Shop - Storefront Analytics, Forecasting and Recommendations
// Copyright 2026 andreyyy363
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/andreyyy363/Coffee-Shop

package recommend

import "time"

// InteractionType classifies a user-product interaction.
type InteractionType string

const (
	InteractionView     InteractionType = "view"
	InteractionCart     InteractionType = "cart"
	InteractionPurchase InteractionType = "purchase"
	InteractionFavorite InteractionType = "favorite"
	InteractionReview   InteractionType = "review"
)

// interactionWeights scores interaction types by purchase intent.
var interactionWeights = map[InteractionType]float64{
	InteractionView:     1.0,
	InteractionCart:     3.0,
	InteractionPurchase: 5.0,
	InteractionFavorite: 4.0,
	InteractionReview:   4.5,
}

// Weight returns the scoring weight for the interaction type. Unknown types
// weigh 1.0.
func (t InteractionType) Weight() float64 {
	if w, ok := interactionWeights[t]; ok {
		return w
	}
	return 1.0
}

// Valid reports whether the type is one of the known interaction kinds.
func (t InteractionType) Valid() bool {
	_, ok := interactionWeights[t]
	return ok
}

// Product is a catalog item with the attributes the engine scores on.
// Rating and purchase aggregates are denormalized by the catalog query.
type Product struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	CountryIDs    []int   `json:"country_ids"`
	RoastLevelID  int     `json:"roast_level_id"`
	BeanTypeIDs   []int   `json:"bean_type_ids"`
	BasePrice     float64 `json:"base_price"`
	PurchaseCount int     `json:"purchase_count"`
	AvgRating     float64 `json:"avg_rating"`
	ReviewCount   int     `json:"review_count"`
}

// Interaction is one (user, product, type) interaction row with its
// repetition count and the time of the latest occurrence.
type Interaction struct {
	ProductID       int
	Type            InteractionType
	Count           int
	LastInteraction time.Time
}

// Profile is a user's aggregated preference profile, built from interaction
// history with exponential time decay.
type Profile struct {
	PreferredCountries map[int]struct{}
	PreferredRoasts    map[int]struct{}
	PreferredBeans     map[int]struct{}

	// InteractionScores maps product ID to accumulated time-decayed weight.
	InteractionScores map[int]float64

	// AvgPrice is the decay-weighted average price of interacted products.
	AvgPrice float64

	// InteractionCount is the number of interaction rows behind the profile.
	InteractionCount int
}

// Interacted reports whether the user has interacted with the product.
func (p *Profile) Interacted(productID int) bool {
	_, ok := p.InteractionScores[productID]
	return ok
}

// ComponentScores breaks a hybrid score into its parts.
type ComponentScores struct {
	Content       float64 `json:"content"`
	Collaborative float64 `json:"collaborative"`
	Popularity    float64 `json:"popularity"`
}

// Recommendation is one ranked recommendation.
type Recommendation struct {
	Product    Product         `json:"product"`
	Score      float64         `json:"score"`
	Algorithm  string          `json:"algorithm"`
	Components ComponentScores `json:"components"`
}

// Similarity is one directed precomputed product-similarity row.
type Similarity struct {
	ProductA int
	ProductB int
	Score    float64
}

// LogEntry records one shown recommendation for offline evaluation.
type LogEntry struct {
	// BatchID groups the rows of one served list, so offline evaluation
	// can reconstruct what was shown together.
	BatchID   string
	UserID    int
	ProductID int
	Algorithm string
	Score     float64
	Position  int
}
