// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package algorithms

import (
	"context"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/shopsight/shopsight/internal/recommend"
)

// Content similarity feature weights. Category dominates, tags refine,
// price proximity breaks near-ties.
const (
	categoryWeight = 0.5
	tagWeight      = 0.3
	priceWeight    = 0.2
)

// ContentBased scores products by metadata similarity: category match,
// tag overlap, and price proximity. It needs no interaction history for
// the similar-products path, which keeps new products recommendable.
type ContentBased struct {
	baseAlgorithm
	topK int

	model atomic.Pointer[contentModel]
}

type contentModel struct {
	neighbors map[int][]recommend.ScoredProduct
	// userProfiles maps user ID to recently interacted product IDs
	// with weights, for the personalized predict path.
	userProfiles map[int]map[int]float64
}

// NewContentBased creates a content-based similarity algorithm.
func NewContentBased(topK int) *ContentBased {
	return &ContentBased{
		baseAlgorithm: baseAlgorithm{name: "content"},
		topK:          topK,
	}
}

// Train precomputes top-K content neighbors for every active product
// and returns the commit that publishes them.
func (a *ContentBased) Train(ctx context.Context, interactions []recommend.Interaction, products []recommend.Product) (func(), error) {
	byID := make(map[int]recommend.Product, len(products))
	ids := make([]int, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID)
	}
	sort.Ints(ids)

	neighbors, err := a.buildNeighbors(ctx, ids, byID)
	if err != nil {
		return nil, err
	}

	profiles := make(map[int]map[int]float64)
	for _, in := range interactions {
		if _, ok := byID[in.ProductID]; !ok {
			continue
		}
		weight := in.Weight
		if weight <= 0 {
			weight = in.Type.DefaultWeight()
		}
		profile := profiles[in.UserID]
		if profile == nil {
			profile = make(map[int]float64)
			profiles[in.UserID] = profile
		}
		profile[in.ProductID] += weight
	}

	model := &contentModel{neighbors: neighbors, userProfiles: profiles}
	return func() {
		a.model.Store(model)
		a.markTrained()
	}, nil
}

func (a *ContentBased) buildNeighbors(ctx context.Context, ids []int, byID map[int]recommend.Product) (map[int][]recommend.ScoredProduct, error) {
	workers := runtime.NumCPU()
	if workers > len(ids) {
		workers = len(ids)
	}
	if workers == 0 {
		return map[int][]recommend.ScoredProduct{}, nil
	}

	neighbors := make(map[int][]recommend.ScoredProduct, len(ids))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	chunk := (len(ids) + workers - 1) / workers

	for start := 0; start < len(ids); start += chunk {
		end := start + chunk
		if end > len(ids) {
			end = len(ids)
		}
		part := ids[start:end]

		g.Go(func() error {
			local := make(map[int][]recommend.ScoredProduct, len(part))
			for _, id := range part {
				if err := gctx.Err(); err != nil {
					return err
				}
				scores := make(map[int]float64)
				for _, other := range ids {
					if other == id {
						continue
					}
					if sim := productSimilarity(byID[id], byID[other]); sim > 0 {
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

// productSimilarity scores two products in [0, 1] from category, tags,
// and price.
func productSimilarity(a, b recommend.Product) float64 {
	var sim float64
	if a.Category != "" && a.Category == b.Category {
		sim += categoryWeight
	}
	sim += tagWeight * jaccardSimilarity(a.Tags, b.Tags)
	sim += priceWeight * priceProximity(a.Price, b.Price)
	return sim
}

// priceProximity maps price difference to [0, 1]; identical prices
// score 1, a 2x difference scores 0.5.
func priceProximity(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	hi := math.Max(a, b)
	lo := math.Min(a, b)
	return lo / hi
}

// Predict scores candidates by content similarity to the user's
// interaction profile.
func (a *ContentBased) Predict(_ context.Context, userID, n int) ([]recommend.ScoredProduct, error) {
	model := a.model.Load()
	if model == nil {
		return nil, recommend.ErrModelUnavailable
	}

	profile := model.userProfiles[userID]
	if len(profile) == 0 {
		return nil, nil
	}

	scores := make(map[int]float64)
	for productID, weight := range profile {
		for _, neighbor := range model.neighbors[productID] {
			if _, seen := profile[neighbor.ProductID]; seen {
				continue
			}
			scores[neighbor.ProductID] += weight * neighbor.Score
		}
	}

	return topN(normalizeScores(scores), n), nil
}

// PredictSimilar returns the product's content neighbors.
func (a *ContentBased) PredictSimilar(_ context.Context, productID, n int) ([]recommend.ScoredProduct, error) {
	model := a.model.Load()
	if model == nil {
		return nil, recommend.ErrModelUnavailable
	}

	list := model.neighbors[productID]
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	out := make([]recommend.ScoredProduct, len(list))
	copy(out, list)
	return out, nil
}
