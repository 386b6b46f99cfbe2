// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package algorithms

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/shopsight/shopsight/internal/recommend"
)

// Popularity ranks products by aggregate interaction weight, and by
// exponentially time-decayed weight for trending. It is the cold-start
// fallback: every catalog product enters the ranking, with the stored
// popularity field as a prior for products nobody has interacted with,
// so the fallback can always fill a full page from the catalog.
type Popularity struct {
	baseAlgorithm
	halfLife   time.Duration
	windowDays int

	model atomic.Pointer[popularityModel]
}

type popularityModel struct {
	// overall is the normalized all-time popularity ranking.
	overall []recommend.ScoredProduct
	// trending is the normalized time-decayed ranking over the window.
	trending []recommend.ScoredProduct
}

// NewPopularity creates a popularity algorithm with the given trending
// decay half-life and interaction window.
func NewPopularity(halfLife time.Duration, windowDays int) *Popularity {
	return &Popularity{
		baseAlgorithm: baseAlgorithm{name: "popularity"},
		halfLife:      halfLife,
		windowDays:    windowDays,
	}
}

// storedPriorWeight caps the catalog-popularity prior. It sits below
// the weight of a single view interaction, so any interacted product
// outranks pure-catalog backfill.
const storedPriorWeight = 0.5

// Train aggregates interaction weights per product and returns the
// commit that publishes the rankings. Decay is computed against
// training time, which is close enough to serving time given periodic
// retraining.
func (a *Popularity) Train(_ context.Context, interactions []recommend.Interaction, products []recommend.Product) (func(), error) {
	now := time.Now()
	cutoff := now.AddDate(0, 0, -a.windowDays)

	var maxStored float64
	for _, p := range products {
		if p.Popularity > maxStored {
			maxStored = p.Popularity
		}
	}

	// Seed the full catalog so zero-interaction products still rank.
	overall := make(map[int]float64, len(products))
	trending := make(map[int]float64, len(products))
	for _, p := range products {
		var prior float64
		if maxStored > 0 {
			prior = storedPriorWeight * p.Popularity / maxStored
		}
		overall[p.ID] = prior
		trending[p.ID] = prior
	}

	for _, in := range interactions {
		if _, ok := overall[in.ProductID]; !ok {
			continue
		}
		weight := in.Weight
		if weight <= 0 {
			weight = in.Type.DefaultWeight()
		}
		overall[in.ProductID] += weight

		if a.windowDays > 0 && in.OccurredAt.Before(cutoff) {
			continue
		}
		age := now.Sub(in.OccurredAt)
		if age < 0 {
			age = 0
		}
		decay := math.Exp2(-age.Hours() / a.halfLife.Hours())
		trending[in.ProductID] += weight * decay
	}

	model := &popularityModel{
		overall:  topN(normalizeScores(overall), 0),
		trending: topN(normalizeScores(trending), 0),
	}
	return func() {
		a.model.Store(model)
		a.markTrained()
	}, nil
}

// Predict returns the overall popularity ranking. The userID is
// ignored; popularity is user-independent.
func (a *Popularity) Predict(_ context.Context, _, n int) ([]recommend.ScoredProduct, error) {
	model := a.model.Load()
	if model == nil {
		return nil, recommend.ErrModelUnavailable
	}
	return truncateCopy(model.overall, n), nil
}

// PredictSimilar returns the popularity ranking minus the product
// itself. Popularity has no notion of similarity; this keeps the
// interface total.
func (a *Popularity) PredictSimilar(_ context.Context, productID, n int) ([]recommend.ScoredProduct, error) {
	model := a.model.Load()
	if model == nil {
		return nil, recommend.ErrModelUnavailable
	}

	out := make([]recommend.ScoredProduct, 0, n)
	for _, s := range model.overall {
		if s.ProductID == productID {
			continue
		}
		out = append(out, s)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out, nil
}

// Trending returns the time-decayed popularity ranking.
func (a *Popularity) Trending(_ context.Context, n int) ([]recommend.ScoredProduct, error) {
	model := a.model.Load()
	if model == nil {
		return nil, recommend.ErrModelUnavailable
	}
	return truncateCopy(model.trending, n), nil
}

func truncateCopy(list []recommend.ScoredProduct, n int) []recommend.ScoredProduct {
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	out := make([]recommend.ScoredProduct, len(list))
	copy(out, list)
	return out
}
