// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package recommend

import (
	"context"
	"sort"
)

// ScoredProduct is a candidate product with a normalized score in [0, 1].
type ScoredProduct struct {
	ProductID int
	Score     float64
}

// Algorithm is a single recommendation signal. Implementations live in
// the algorithms subpackage and are registered with the engine at
// construction time.
type Algorithm interface {
	// Name returns the algorithm identifier.
	Name() string

	// Train fits the algorithm on the given interactions and catalog
	// and returns a commit function that publishes the fitted model.
	// The serving model is untouched until commit runs, so the engine
	// can fit every algorithm first and swap only when all succeed.
	Train(ctx context.Context, interactions []Interaction, products []Product) (commit func(), err error)

	// Predict returns up to n scored candidates for the user,
	// score descending. Unknown users yield an empty slice.
	Predict(ctx context.Context, userID, n int) ([]ScoredProduct, error)

	// PredictSimilar returns up to n products similar to the given
	// product, score descending, never including the product itself.
	// Unknown products yield an empty slice.
	PredictSimilar(ctx context.Context, productID, n int) ([]ScoredProduct, error)

	// IsTrained reports whether the algorithm has a usable model.
	IsTrained() bool
}

// TrendingAlgorithm additionally ranks products by time-decayed
// popularity, independent of any user.
type TrendingAlgorithm interface {
	Algorithm

	// Trending returns up to n products by decayed popularity.
	Trending(ctx context.Context, n int) ([]ScoredProduct, error)
}

// Reranker reorders a scored candidate list. Implementations live in
// the reranking subpackage.
type Reranker interface {
	Rerank(candidates []ScoredProduct, products map[int]Product, n int) []ScoredProduct
}

// SortScored sorts candidates by score descending, product ID ascending
// on ties. All recommendation lists share this ordering.
func SortScored(candidates []ScoredProduct) {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ProductID < candidates[j].ProductID
	})
}
