// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package segment

import (
	"math"
	"math/rand"
	"sort"
)

// kmeansSeed fixes the PRNG so clustering is reproducible: identical
// input always yields identical assignments.
const kmeansSeed = 42

type point [3]float64

// kmeansResult holds cluster assignments and centroids in the original
// (unstandardized) feature space.
type kmeansResult struct {
	assignments []int
	centroids   []point
}

// runKMeans clusters standardized RFM points with k-means++ seeding.
// k is reduced to the number of distinct points when the input is
// degenerate, so every cluster is non-empty.
func runKMeans(points []point, k, maxIterations int) kmeansResult {
	if len(points) == 0 {
		return kmeansResult{}
	}

	std, mean, stddev := standardize(points)

	if distinct := countDistinct(std); k > distinct {
		k = distinct
	}
	if k < 1 {
		k = 1
	}

	rng := rand.New(rand.NewSource(kmeansSeed))
	centroids := seedCentroids(std, k, rng)
	assignments := make([]int, len(std))

	for iter := 0; iter < maxIterations; iter++ {
		changed := false
		for i, p := range std {
			best := nearestCentroid(p, centroids)
			if best != assignments[i] {
				assignments[i] = best
				changed = true
			}
		}

		centroids = recomputeCentroids(std, assignments, k, centroids)
		if !changed && iter > 0 {
			break
		}
	}

	// Report centroids in original feature space for labeling.
	original := make([]point, k)
	for c := range original {
		for d := 0; d < 3; d++ {
			original[c][d] = centroids[c][d]*stddev[d] + mean[d]
		}
	}

	return kmeansResult{assignments: assignments, centroids: original}
}

// standardize z-scores each dimension. Zero-variance dimensions keep a
// stddev of 1 so they contribute nothing to distances without dividing
// by zero.
func standardize(points []point) (std []point, mean, stddev point) {
	n := float64(len(points))
	for _, p := range points {
		for d := 0; d < 3; d++ {
			mean[d] += p[d]
		}
	}
	for d := 0; d < 3; d++ {
		mean[d] /= n
	}

	for _, p := range points {
		for d := 0; d < 3; d++ {
			diff := p[d] - mean[d]
			stddev[d] += diff * diff
		}
	}
	for d := 0; d < 3; d++ {
		stddev[d] = math.Sqrt(stddev[d] / n)
		if stddev[d] == 0 {
			stddev[d] = 1
		}
	}

	std = make([]point, len(points))
	for i, p := range points {
		for d := 0; d < 3; d++ {
			std[i][d] = (p[d] - mean[d]) / stddev[d]
		}
	}
	return std, mean, stddev
}

func countDistinct(points []point) int {
	seen := make(map[point]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}

// seedCentroids implements k-means++ initialization: the first centroid
// is the first point, each next centroid is sampled proportionally to
// squared distance from the nearest chosen centroid.
func seedCentroids(points []point, k int, rng *rand.Rand) []point {
	centroids := make([]point, 0, k)
	centroids = append(centroids, points[0])

	for len(centroids) < k {
		distances := make([]float64, len(points))
		var total float64
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centroids {
				if dist := squaredDistance(p, c); dist < d {
					d = dist
				}
			}
			distances[i] = d
			total += d
		}

		if total == 0 {
			// All remaining points coincide with a centroid; k was
			// already reduced to distinct points, so this is only a
			// guard against float equality edge cases.
			centroids = append(centroids, points[len(centroids)%len(points)])
			continue
		}

		target := rng.Float64() * total
		var cumulative float64
		chosen := len(points) - 1
		for i, d := range distances {
			cumulative += d
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centroids = append(centroids, points[chosen])
	}

	return centroids
}

func nearestCentroid(p point, centroids []point) int {
	best := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if dist := squaredDistance(p, centroid); dist < bestDist {
			best = c
			bestDist = dist
		}
	}
	return best
}

func recomputeCentroids(points []point, assignments []int, k int, previous []point) []point {
	sums := make([]point, k)
	counts := make([]int, k)
	for i, p := range points {
		c := assignments[i]
		counts[c]++
		for d := 0; d < 3; d++ {
			sums[c][d] += p[d]
		}
	}

	centroids := make([]point, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			// Empty cluster keeps its previous centroid.
			centroids[c] = previous[c]
			continue
		}
		for d := 0; d < 3; d++ {
			centroids[c][d] = sums[c][d] / float64(counts[c])
		}
	}
	return centroids
}

func squaredDistance(a, b point) float64 {
	var sum float64
	for d := 0; d < 3; d++ {
		diff := a[d] - b[d]
		sum += diff * diff
	}
	return sum
}

// rankClusters orders cluster indices by business value: monetary plus
// frequency descending, recency ascending. The rank becomes the public
// segment ID, so IDs are stable across reruns of identical input.
func rankClusters(centroids []point) []int {
	order := make([]int, len(centroids))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := centroids[order[a]], centroids[order[b]]
		if ca[2] != cb[2] {
			return ca[2] > cb[2]
		}
		if ca[1] != cb[1] {
			return ca[1] > cb[1]
		}
		return ca[0] < cb[0]
	})

	ranks := make([]int, len(centroids))
	for rank, cluster := range order {
		ranks[cluster] = rank
	}
	return ranks
}
