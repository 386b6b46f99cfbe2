// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package recommend

import (
	"fmt"
	"time"
)

// Config holds recommendation engine parameters.
type Config struct {
	// Alpha blends collaborative and content scores:
	// alpha*collaborative + (1-alpha)*content.
	Alpha float64

	// TopK is the number of neighbors retained per product in the
	// similarity index.
	TopK int

	// MinInteractions excludes products with fewer interactions from
	// the similarity index.
	MinInteractions int

	// PurchaseExclusionDays removes products the user purchased within
	// this window from recommendations.
	PurchaseExclusionDays int

	// TrendingHalfLife is the exponential decay half-life applied to
	// interaction recency in trending scores.
	TrendingHalfLife time.Duration

	// TrendingWindowDays bounds the interaction window considered for
	// trending.
	TrendingWindowDays int

	// DiversityLambda balances relevance against category diversity in
	// reranking. 1.0 disables diversification.
	DiversityLambda float64

	// DefaultLimit and MaxLimit bound recommendation list sizes.
	DefaultLimit int
	MaxLimit     int

	// CacheTTL bounds how long user recommendation results are cached.
	// Zero disables caching.
	CacheTTL time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Alpha:                 0.6,
		TopK:                  50,
		MinInteractions:       2,
		PurchaseExclusionDays: 30,
		TrendingHalfLife:      7 * 24 * time.Hour,
		TrendingWindowDays:    90,
		DiversityLambda:       0.7,
		DefaultLimit:          10,
		MaxLimit:              100,
		CacheTTL:              5 * time.Minute,
	}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.Alpha < 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha must be in [0, 1], got %g", c.Alpha)
	}
	if c.TopK < 1 {
		return fmt.Errorf("top_k must be at least 1, got %d", c.TopK)
	}
	if c.MinInteractions < 1 {
		return fmt.Errorf("min_interactions must be at least 1, got %d", c.MinInteractions)
	}
	if c.PurchaseExclusionDays < 0 {
		return fmt.Errorf("purchase_exclusion_days must not be negative, got %d", c.PurchaseExclusionDays)
	}
	if c.TrendingHalfLife <= 0 {
		return fmt.Errorf("trending_half_life must be positive, got %s", c.TrendingHalfLife)
	}
	if c.DiversityLambda < 0 || c.DiversityLambda > 1 {
		return fmt.Errorf("diversity_lambda must be in [0, 1], got %g", c.DiversityLambda)
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be at least 1, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("max_limit must be at least default_limit, got %d", c.MaxLimit)
	}
	return nil
}
