// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package algorithms implements the recommendation signals for the
// hybrid engine: item-item collaborative filtering, content similarity,
// and time-decayed popularity.
//
// Each algorithm implements the recommend.Algorithm interface. Training
// builds a complete immutable model and publishes it with an atomic
// pointer swap, so prediction never observes a partially built model.
package algorithms

import (
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/shopsight/shopsight/internal/recommend"
)

// Interface conformance checks.
var (
	_ recommend.Algorithm         = (*ItemCF)(nil)
	_ recommend.Algorithm         = (*ContentBased)(nil)
	_ recommend.TrendingAlgorithm = (*Popularity)(nil)
)

// baseAlgorithm provides the shared name/trained-state plumbing.
// The model itself is owned by the concrete algorithm behind an
// atomic.Pointer, so no lock is needed on the predict path.
type baseAlgorithm struct {
	name      string
	trainedAt atomic.Int64 // unix nanos, zero means untrained
}

func (b *baseAlgorithm) Name() string {
	return b.name
}

func (b *baseAlgorithm) IsTrained() bool {
	return b.trainedAt.Load() != 0
}

func (b *baseAlgorithm) markTrained() {
	b.trainedAt.Store(time.Now().UnixNano())
}

// normalizeScores rescales scores to [0, 1] with min-max normalization.
// All-equal scores map to 0.5.
func normalizeScores(scores map[int]float64) map[int]float64 {
	if len(scores) == 0 {
		return scores
	}

	var minScore, maxScore float64
	first := true
	for _, score := range scores {
		if first {
			minScore, maxScore = score, score
			first = false
			continue
		}
		if score < minScore {
			minScore = score
		}
		if score > maxScore {
			maxScore = score
		}
	}

	spread := maxScore - minScore
	if spread == 0 {
		for id := range scores {
			scores[id] = 0.5
		}
		return scores
	}

	for id, score := range scores {
		scores[id] = (score - minScore) / spread
	}
	return scores
}

// topN converts a score map into a sorted, truncated candidate list.
// Ordering is score descending with product ID ascending on ties.
func topN(scores map[int]float64, n int) []recommend.ScoredProduct {
	scored := make([]recommend.ScoredProduct, 0, len(scores))
	for id, score := range scores {
		scored = append(scored, recommend.ScoredProduct{ProductID: id, Score: score})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].ProductID < scored[j].ProductID
	})
	if n > 0 && len(scored) > n {
		scored = scored[:n]
	}
	return scored
}

// cosineSimilarity computes cosine similarity between two sparse
// vectors keyed by user ID.
func cosineSimilarity(a, b map[int]float64) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	// Iterate the smaller vector.
	if len(b) < len(a) {
		a, b = b, a
	}

	var dot float64
	for k, av := range a {
		if bv, ok := b[k]; ok {
			dot += av * bv
		}
	}
	if dot == 0 {
		return 0
	}

	var normA, normB float64
	for _, v := range a {
		normA += v * v
	}
	for _, v := range b {
		normB += v * v
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// jaccardSimilarity computes Jaccard similarity between two tag sets.
func jaccardSimilarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]struct{}, len(a))
	for _, s := range a {
		setA[s] = struct{}{}
	}

	intersection := 0
	setB := make(map[string]struct{}, len(b))
	for _, s := range b {
		if _, dup := setB[s]; dup {
			continue
		}
		setB[s] = struct{}{}
		if _, ok := setA[s]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
