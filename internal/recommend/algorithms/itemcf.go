// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package algorithms

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/shopsight/shopsight/internal/recommend"
)

// ItemCF implements item-item collaborative filtering. Each product is
// represented as a sparse vector of per-user interaction weights;
// similarity is cosine over those vectors. Only the top-K neighbors per
// product are retained.
//
// Products with fewer than minInteractions interactions are excluded
// from the index entirely. Callers fall back to other signals for them.
type ItemCF struct {
	baseAlgorithm
	topK            int
	minInteractions int

	model atomic.Pointer[itemCFModel]
}

// itemCFModel is the immutable trained state.
type itemCFModel struct {
	// neighbors maps product ID to its top-K most similar products,
	// score descending.
	neighbors map[int][]recommend.ScoredProduct
	// userWeights maps user ID to aggregated product weights.
	userWeights map[int]map[int]float64
}

// NewItemCF creates an item-item collaborative filtering algorithm.
func NewItemCF(topK, minInteractions int) *ItemCF {
	return &ItemCF{
		baseAlgorithm:   baseAlgorithm{name: "itemcf"},
		topK:            topK,
		minInteractions: minInteractions,
	}
}

// Train rebuilds the item-item similarity index and returns the commit
// that publishes it. Returns recommend.ErrInsufficientData when no
// product clears the interaction floor.
func (a *ItemCF) Train(ctx context.Context, interactions []recommend.Interaction, products []recommend.Product) (func(), error) {
	catalog := make(map[int]struct{}, len(products))
	for _, p := range products {
		catalog[p.ID] = struct{}{}
	}

	// Sparse item vectors over users, and per-user aggregated weights.
	itemVectors := make(map[int]map[int]float64)
	itemCounts := make(map[int]int)
	userWeights := make(map[int]map[int]float64)

	for _, in := range interactions {
		if _, ok := catalog[in.ProductID]; !ok {
			continue
		}
		weight := in.Weight
		if weight <= 0 {
			weight = in.Type.DefaultWeight()
		}

		vec := itemVectors[in.ProductID]
		if vec == nil {
			vec = make(map[int]float64)
			itemVectors[in.ProductID] = vec
		}
		vec[in.UserID] += weight
		itemCounts[in.ProductID]++

		uw := userWeights[in.UserID]
		if uw == nil {
			uw = make(map[int]float64)
			userWeights[in.UserID] = uw
		}
		uw[in.ProductID] += weight
	}

	// Apply the interaction floor. Products below it never enter the
	// index; they are not zero-defaulted.
	itemIDs := make([]int, 0, len(itemVectors))
	for id, count := range itemCounts {
		if count >= a.minInteractions {
			itemIDs = append(itemIDs, id)
		} else {
			delete(itemVectors, id)
		}
	}
	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("%w: no product has %d or more interactions", recommend.ErrInsufficientData, a.minInteractions)
	}
	sort.Ints(itemIDs)

	neighbors, err := a.buildNeighbors(ctx, itemIDs, itemVectors)
	if err != nil {
		return nil, err
	}

	model := &itemCFModel{neighbors: neighbors, userWeights: userWeights}
	return func() {
		a.model.Store(model)
		a.markTrained()
	}, nil
}

// buildNeighbors computes pairwise cosine similarity, chunked across
// workers, keeping the top-K per product.
func (a *ItemCF) buildNeighbors(ctx context.Context, itemIDs []int, vectors map[int]map[int]float64) (map[int][]recommend.ScoredProduct, error) {
	workers := runtime.NumCPU()
	if workers > len(itemIDs) {
		workers = len(itemIDs)
	}

	neighbors := make(map[int][]recommend.ScoredProduct, len(itemIDs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(itemIDs) + workers - 1) / workers

	for start := 0; start < len(itemIDs); start += chunk {
		end := start + chunk
		if end > len(itemIDs) {
			end = len(itemIDs)
		}
		ids := itemIDs[start:end]

		g.Go(func() error {
			local := make(map[int][]recommend.ScoredProduct, len(ids))
			for _, id := range ids {
				if err := gctx.Err(); err != nil {
					return err
				}
				scores := make(map[int]float64)
				for _, other := range itemIDs {
					if other == id {
						continue
					}
					if sim := cosineSimilarity(vectors[id], vectors[other]); sim > 0 {
						scores[other] = sim
					}
				}
				if len(scores) > 0 {
					local[id] = topN(scores, a.topK)
				}
			}
			mu.Lock()
			for id, list := range local {
				neighbors[id] = list
			}
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return neighbors, nil
}

// Predict scores candidates for the user by accumulating neighbor
// similarity weighted by the user's interaction strength.
func (a *ItemCF) Predict(_ context.Context, userID, n int) ([]recommend.ScoredProduct, error) {
	model := a.model.Load()
	if model == nil {
		return nil, recommend.ErrModelUnavailable
	}

	weights := model.userWeights[userID]
	if len(weights) == 0 {
		return nil, nil
	}

	scores := make(map[int]float64)
	for productID, weight := range weights {
		for _, neighbor := range model.neighbors[productID] {
			if _, seen := weights[neighbor.ProductID]; seen {
				continue
			}
			scores[neighbor.ProductID] += weight * neighbor.Score
		}
	}

	return topN(normalizeScores(scores), n), nil
}

// PredictSimilar returns the product's top-K neighbor list. Unknown or
// below-floor products yield an empty slice.
func (a *ItemCF) PredictSimilar(_ context.Context, productID, n int) ([]recommend.ScoredProduct, error) {
	model := a.model.Load()
	if model == nil {
		return nil, recommend.ErrModelUnavailable
	}

	list := model.neighbors[productID]
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	// Copy so callers can't mutate the shared model.
	out := make([]recommend.ScoredProduct, len(list))
	copy(out, list)
	return out, nil
}

// IndexSize returns the number of products in the current index.
func (a *ItemCF) IndexSize() int {
	model := a.model.Load()
	if model == nil {
		return 0
	}
	return len(model.neighbors)
}
