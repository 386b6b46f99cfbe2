// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package recommend implements the hybrid product recommendation engine.
//
// The engine blends two signals:
//
//   - Collaborative: item-item similarity over weighted user interactions
//     (views, cart adds, purchases, ratings)
//   - Content: product similarity over category, tags, and price
//
// Final score = alpha*collaborative + (1-alpha)*content. Users without
// interaction history fall back to a popularity ranking, so user
// recommendations never fail while the catalog is non-empty.
//
// # Training
//
// Train loads interactions and the catalog from the DataProvider,
// rebuilds the similarity index, and publishes the new model atomically.
// Serving reads always observe either the previous or the new complete
// index, never a partial one. At most one training run is active at a
// time; concurrent attempts fail fast with ErrTrainingInProgress.
//
// # Thread safety
//
// All exported methods are safe for concurrent use.
package recommend
