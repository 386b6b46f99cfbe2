// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package reranking provides post-scoring list adjustments for the
// recommendation engine.
package reranking

import (
	"github.com/shopsight/shopsight/internal/recommend"
)

// MMR implements maximal marginal relevance reranking with category
// diversity. Candidates are selected greedily, trading relevance
// against similarity to already selected items:
//
//	mmr = lambda*score - (1-lambda)*maxSimilarityToSelected
//
// Similarity is 1.0 for a shared category, 0 otherwise. Lambda 1.0
// reduces to plain score ordering.
type MMR struct {
	lambda float64
}

var _ recommend.Reranker = (*MMR)(nil)

// NewMMR creates an MMR reranker. Lambda must be in [0, 1].
func NewMMR(lambda float64) *MMR {
	return &MMR{lambda: lambda}
}

// Rerank selects up to n candidates by marginal relevance. The input
// must already be sorted score descending; the first element is always
// kept, which keeps the top recommendation stable.
func (m *MMR) Rerank(candidates []recommend.ScoredProduct, products map[int]recommend.Product, n int) []recommend.ScoredProduct {
	if len(candidates) == 0 || n <= 0 {
		return nil
	}
	if m.lambda >= 1 {
		out := make([]recommend.ScoredProduct, len(candidates))
		copy(out, candidates)
		if len(out) > n {
			out = out[:n]
		}
		return out
	}

	remaining := make([]recommend.ScoredProduct, len(candidates))
	copy(remaining, candidates)

	selected := make([]recommend.ScoredProduct, 0, n)
	selectedCategories := make(map[string]struct{})

	// Seed with the top-scored candidate.
	selected = append(selected, remaining[0])
	if cat := products[remaining[0].ProductID].Category; cat != "" {
		selectedCategories[cat] = struct{}{}
	}
	remaining = remaining[1:]

	for len(selected) < n && len(remaining) > 0 {
		bestIdx := -1
		bestScore := 0.0

		for i, c := range remaining {
			sim := 0.0
			if cat := products[c.ProductID].Category; cat != "" {
				if _, ok := selectedCategories[cat]; ok {
					sim = 1.0
				}
			}
			mmrScore := m.lambda*c.Score - (1-m.lambda)*sim
			if bestIdx == -1 || mmrScore > bestScore {
				bestIdx = i
				bestScore = mmrScore
			}
		}

		chosen := remaining[bestIdx]
		selected = append(selected, chosen)
		if cat := products[chosen.ProductID].Category; cat != "" {
			selectedCategories[cat] = struct{}{}
		}
		remaining = append(remaining[:bestIdx], remaining[bestIdx+1:]...)
	}

	return selected
}
